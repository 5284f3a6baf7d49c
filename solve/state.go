package solve

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/forgepkg/forge/ident"
)

// State is the solver's value-type node: every outstanding request, the
// packages resolved so far, and the accumulated option values -- cloned
// structurally (new slices, shared PackageSpec values) on every Change
// application rather than mutated in place, so two branches of the
// search never alias each other's state (spec.md §3 "Ownership").
type State struct {
	PkgRequests []ident.PkgRequest
	VarRequests []ident.VarRequest
	Resolved    []Resolution
	Options     map[string]string
}

// Resolution pairs a resolved package's spec with the source (built or
// freshly compiled from a recipe) it came from.
type Resolution struct {
	Spec       PackageSpec
	FromSource bool
}

// DeadState is the distinguished destination a StepBack targets when no
// earlier fork remains -- reaching it means the solve has failed (spec.md
// §4.G "failure when the backtrack destination is the distinguished
// DeadState").
var DeadState = State{}

// IsDead reports whether s is the distinguished dead state.
func (s State) IsDead() bool {
	return len(s.PkgRequests) == 0 && len(s.VarRequests) == 0 && len(s.Resolved) == 0 && len(s.Options) == 0
}

// clone returns a structurally independent copy of s, safe for a Change
// to mutate freely.
func (s State) clone() State {
	out := State{
		PkgRequests: append([]ident.PkgRequest(nil), s.PkgRequests...),
		VarRequests: append([]ident.VarRequest(nil), s.VarRequests...),
		Resolved:    append([]Resolution(nil), s.Resolved...),
		Options:     make(map[string]string, len(s.Options)),
	}
	for k, v := range s.Options {
		out.Options[k] = v
	}
	return out
}

// Digest returns a stable content hash of s, used as its graph-node
// identifier (spec.md §4.G "State has a stable digest used as a
// graph-node identifier").
func (s State) Digest() string {
	var b strings.Builder
	for _, r := range s.PkgRequests {
		fmt.Fprintf(&b, "pkg:%s;", r.String())
	}
	for _, r := range s.VarRequests {
		fmt.Fprintf(&b, "var:%s;", r.String())
	}
	for _, r := range s.Resolved {
		fmt.Fprintf(&b, "res:%s;", r.Spec.Ident.String())
	}
	keys := make([]string, 0, len(s.Options))
	for k := range s.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "opt:%s=%s;", k, s.Options[k])
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// unresolvedRequest finds the first pkg-request whose package is not yet
// resolved and whose inclusion policy is not IfAlreadyPresent (spec.md
// §4.G "Search loop"), merging it with every other outstanding request
// for the same name.
func (s State) unresolvedRequest() (ident.PkgRequest, bool) {
	resolvedNames := make(map[string]struct{}, len(s.Resolved))
	for _, r := range s.Resolved {
		resolvedNames[string(r.Spec.Ident.Name)] = struct{}{}
	}

	for _, req := range s.PkgRequests {
		name := string(req.Pkg.Name)
		if _, done := resolvedNames[name]; done {
			continue
		}
		if req.InclusionPolicy == ident.InclusionIfAlreadyPresent {
			continue
		}
		return s.mergedRequest(name), true
	}
	return ident.PkgRequest{}, false
}

// mergedRequest intersects every outstanding PkgRequest for name into one,
// per spec.md §4.G "Obtain its merged request (intersecting all
// outstanding requests for that name)".
func (s State) mergedRequest(name string) ident.PkgRequest {
	var merged ident.PkgRequest
	first := true
	for _, req := range s.PkgRequests {
		if string(req.Pkg.Name) != name {
			continue
		}
		if first {
			merged = req
			first = false
			continue
		}
		_ = merged.Restrict(req)
	}
	return merged
}

func (s State) resolvedPackage(name string) (Resolution, bool) {
	for _, r := range s.Resolved {
		if string(r.Spec.Ident.Name) == name {
			return r, true
		}
	}
	return Resolution{}, false
}
