package solve

import (
	"context"
	"sort"

	"github.com/forgepkg/forge/forgeerr"
	"github.com/forgepkg/forge/ident"
)

// Options configures one Solver run.
type Options struct {
	// BinaryOnly excludes source builds from candidacy, for a solve
	// that must not trigger any build work.
	BinaryOnly bool
	// MaxSteps bounds the number of decisions attempted before giving
	// up with SolverInterrupted, guarding against runaway searches.
	MaxSteps int
}

const defaultMaxSteps = 10000

// Solver runs the search loop described in spec.md §4.G against a set
// of catalogs, in the order given (earlier catalogs take priority on a
// name collision).
type Solver struct {
	catalogs []Catalog
	opts     Options
}

func New(catalogs []Catalog, opts Options) *Solver {
	if opts.MaxSteps == 0 {
		opts.MaxSteps = defaultMaxSteps
	}
	return &Solver{catalogs: catalogs, opts: opts}
}

// candidate wraps a concrete build's spec; its version is read from
// spec.Ident.Version.
type candidate struct {
	spec PackageSpec
}

// Solve runs the search loop from initial until every pkg-request is
// resolved (success), the distinguished DeadState is reached via
// step-back exhaustion (OutOfOptions), or opts.MaxSteps decisions have
// been attempted (SolverInterrupted).
func (s *Solver) Solve(ctx context.Context, initial State) (State, error) {
	g := newSearchGraph()
	current := initial
	node := g.visit(current, 0)
	steps := 0

	for {
		if err := ctx.Err(); err != nil {
			return DeadState, forgeerr.SolverInterruptedError(err.Error())
		}
		steps++
		if steps > s.opts.MaxSteps {
			return DeadState, forgeerr.SolverInterruptedError("exceeded max solve steps")
		}

		req, ok := current.unresolvedRequest()
		if !ok {
			return current, nil
		}

		candidates, err := s.candidatesFor(req)
		if err != nil {
			return DeadState, err
		}

		chosen, rest, ok := s.firstValid(current, req, candidates)
		if ok {
			for _, alt := range rest {
				g.recordFork(s.applyCandidate(current, req, alt), node.depth+1)
			}
			next, err := g.attempt(node, s.decisionFor(req, chosen))
			if err == nil {
				current = next
				node = g.visit(current, node.depth+1)
				continue
			}
			// BranchAlreadyAttempted: fall through to step back.
		}

		back, ok := g.popOldestFork()
		if !ok {
			return DeadState, forgeerr.OutOfOptionsError(req.Pkg.String(), nil)
		}
		current = back
		node = g.visit(current, node.depth)
	}
}

func (s *Solver) decisionFor(req ident.PkgRequest, c candidate) Decision {
	return Decision{
		Changes: []Change{{SetPackage: &Resolution{Spec: c.spec, FromSource: c.spec.Ident.Build.IsSource()}}},
		Notes:   []string{req.Pkg.String() + " -> " + c.spec.Ident.String()},
	}
}

func (s *Solver) applyCandidate(base State, req ident.PkgRequest, c candidate) State {
	return s.decisionFor(req, c).Apply(base)
}

// firstValid returns the first candidate that passes the validator
// chain, plus every other candidate untried so the caller can fork them
// for a later step-back.
func (s *Solver) firstValid(state State, req ident.PkgRequest, candidates []candidate) (chosen candidate, rest []candidate, ok bool) {
	vs := validators(s.opts.BinaryOnly)
	for i, c := range candidates {
		if err := runValidators(vs, state, req, c.spec); err != nil {
			continue
		}
		return c, candidates[i+1:], true
	}
	return candidate{}, nil, false
}

// candidatesFor asks every catalog for builds satisfying req's name and
// version range, returning them newest-version-first, then by build key
// within a version (spec.md §4.G "iterate candidate versions descending,
// then builds by build-key"). A request pinned to one build short-
// circuits straight to reading that spec.
func (s *Solver) candidatesFor(req ident.PkgRequest) ([]candidate, error) {
	if req.Pkg.Build != nil {
		for _, cat := range s.catalogs {
			spec, err := cat.ReadSpec(ident.Ident{Name: req.Pkg.Name, Build: *req.Pkg.Build})
			if err != nil {
				continue
			}
			return []candidate{{spec: spec}}, nil
		}
		return nil, forgeerr.PackageNotFoundError(req.Pkg.String())
	}

	var out []candidate
	for _, cat := range s.catalogs {
		versions, err := cat.ListVersions(req.Pkg.Name)
		if err != nil {
			continue
		}
		sort.Slice(versions, func(i, j int) bool { return versions[i].Compare(versions[j]) > 0 })
		for _, v := range versions {
			if c := req.Pkg.IsVersionApplicable(v, req.PrereleasePolicy); !c.IsOk() {
				continue
			}
			builds, err := cat.ListBuilds(req.Pkg.Name, v)
			if err != nil {
				continue
			}
			sort.Slice(builds, func(i, j int) bool { return builds[i].String() < builds[j].String() })
			for _, b := range builds {
				spec, err := cat.ReadSpec(ident.Ident{Name: req.Pkg.Name, Version: v, Build: b})
				if err != nil {
					continue
				}
				out = append(out, candidate{spec: spec})
			}
		}
	}
	if len(out) == 0 {
		return nil, forgeerr.PackageNotFoundError(req.Pkg.String())
	}
	return out, nil
}
