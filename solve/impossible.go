package solve

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/forgepkg/forge/ident"
)

// ImpossibleChecker answers "could this request ever be satisfied by
// anything in these catalogs" ahead of a full solve step, caching both
// outcomes so a repeated request (common across sibling branches of the
// search) is answered from memory. Grounded on
// original_source/crates/spk-solve/crates/validation/src/impossible_checks.rs's
// ImpossibleRequestsChecker, using golang.org/x/sync/errgroup's
// first-error/first-cancel fan-out in place of its tokio task +
// mpsc-channel plumbing.
type ImpossibleChecker struct {
	catalogs   []Catalog
	binaryOnly bool

	mu               sync.Mutex
	impossibleHits   map[string]uint64
	possibleHits     map[string]uint64
	buildSpecsRead   uint64
}

func NewImpossibleChecker(catalogs []Catalog, binaryOnly bool) *ImpossibleChecker {
	return &ImpossibleChecker{
		catalogs:       catalogs,
		binaryOnly:     binaryOnly,
		impossibleHits: make(map[string]uint64),
		possibleHits:   make(map[string]uint64),
	}
}

// Stats reports cache hit counters for diagnostics.
func (c *ImpossibleChecker) Stats() (impossibleHits, possibleHits, buildSpecsRead uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var imp, pos uint64
	for _, n := range c.impossibleHits {
		imp += n
	}
	for _, n := range c.possibleHits {
		pos += n
	}
	return imp, pos, c.buildSpecsRead
}

// IsImpossible reports whether req can never be satisfied by any build
// in c's catalogs. Solver in this package does not call it; callers
// use an ImpossibleChecker directly. A request with InclusionIfAlreadyPresent is
// never impossible on its own -- it never forces a package into the
// solution, so its unsatisfiability can't doom the solve by itself.
func (c *ImpossibleChecker) IsImpossible(ctx context.Context, req ident.PkgRequest) (bool, error) {
	if req.InclusionPolicy == ident.InclusionIfAlreadyPresent {
		return false, nil
	}

	key := req.Pkg.String()

	c.mu.Lock()
	if _, ok := c.impossibleHits[key]; ok {
		c.impossibleHits[key]++
		c.mu.Unlock()
		return true, nil
	}
	if _, ok := c.possibleHits[key]; ok {
		c.possibleHits[key]++
		c.mu.Unlock()
		return false, nil
	}
	c.mu.Unlock()

	found, err := c.findAnyValidBuild(ctx, req)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	if found {
		c.possibleHits[key] = 1
	} else {
		c.impossibleHits[key] = 1
	}
	c.mu.Unlock()

	return !found, nil
}

// findAnyValidBuild fans out one task per (catalog, version) pair and
// returns true as soon as any of them finds a build passing the
// impossible-check validator subset, cancelling the rest.
func (c *ImpossibleChecker) findAnyValidBuild(ctx context.Context, req ident.PkgRequest) (bool, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	var foundMu sync.Mutex
	foundAny := false

	vs := impossibleCheckValidators(c.binaryOnly)

	for _, cat := range c.catalogs {
		cat := cat
		versions, err := cat.ListVersions(req.Pkg.Name)
		if err != nil {
			continue
		}
		for _, v := range versions {
			v := v
			if ok := req.Pkg.IsVersionApplicable(v, req.PrereleasePolicy); !ok.IsOk() {
				continue
			}
			g.Go(func() error {
				select {
				case <-gctx.Done():
					return nil
				default:
				}
				builds, err := cat.ListBuilds(req.Pkg.Name, v)
				if err != nil {
					return nil
				}
				for _, b := range builds {
					select {
					case <-gctx.Done():
						return nil
					default:
					}
					spec, err := cat.ReadSpec(ident.Ident{Name: req.Pkg.Name, Version: v, Build: b})
					if err != nil {
						continue
					}
					c.mu.Lock()
					c.buildSpecsRead++
					c.mu.Unlock()
					if runValidators(vs, State{}, req, spec) == nil {
						foundMu.Lock()
						foundAny = true
						foundMu.Unlock()
						cancel()
						return nil
					}
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return false, err
	}
	return foundAny, nil
}

// impossibleCheckValidators is the validator subset the original
// restricts impossible-request pre-checks to: ones that only look at a
// candidate's own declared shape, never at the rest of the in-progress
// state (so a cached verdict stays valid across every state it's asked
// about).
func impossibleCheckValidators(binaryOnly bool) []validator {
	vs := []validator{deprecationValidator{}, nameValidator{}, versionValidator{}, componentValidator{}}
	if binaryOnly {
		vs = append(vs, binaryOnlyValidator{})
	}
	return vs
}
