package ident

import (
	"fmt"
	"strings"

	"github.com/forgepkg/forge/version"
)

// PreReleasePolicy controls whether a request's matching considers
// pre-release versions.
type PreReleasePolicy int

const (
	ExcludeAllPreReleases PreReleasePolicy = iota
	IncludeAllPreReleases
)

// InclusionPolicy controls whether an unresolved request must still be
// satisfied if the package it names never becomes part of the solution.
type InclusionPolicy int

const (
	// InclusionAlways requires the request to be resolved for the
	// solve to succeed.
	InclusionAlways InclusionPolicy = iota
	// InclusionIfAlreadyPresent only requires resolution when some
	// other request has already brought the package into the state;
	// it never forces the package to be added on its own.
	InclusionIfAlreadyPresent
)

// RangeIdent identifies a set of acceptable builds of a package: an
// optional source repository, the package name, the components being
// requested, a version range, and an optional pinned build.
type RangeIdent struct {
	Repository string
	Name       Name
	Components ComponentSet
	Version    version.Ranged
	Build      *Build
}

func (r RangeIdent) String() string {
	var b strings.Builder
	if r.Repository != "" {
		b.WriteString(r.Repository)
		b.WriteByte('/')
	}
	b.WriteString(string(r.Name))
	if len(r.Components) > 0 {
		b.WriteByte(':')
		b.WriteString(strings.Join(r.Components.Sorted(), ","))
	}
	b.WriteByte('/')
	if r.Version != nil {
		b.WriteString(r.Version.String())
	} else {
		b.WriteByte('*')
	}
	if r.Build != nil {
		b.WriteByte('/')
		b.WriteString(r.Build.String())
	}
	return b.String()
}

// IsVersionApplicable reports whether v could satisfy this range ident
// at all, as a cheap pre-filter before a full package spec is loaded:
// pre-release versions are rejected outright unless the caller passes
// IncludeAllPreReleases.
func (r RangeIdent) IsVersionApplicable(v version.Version, prerelease PreReleasePolicy) version.Compatibility {
	if prerelease == ExcludeAllPreReleases && len(v.Pre) > 0 {
		return version.Incompatible("prereleases not allowed")
	}
	if r.Version == nil {
		return version.Ok
	}
	return r.Version.IsApplicable(v)
}

// Stage selects which phase of a package's lifecycle a test invocation
// targets, via the "@<stage>" suffix on a package reference.
type Stage int

const (
	StageSources Stage = iota
	StageBuild
	StageInstall
)

func (s Stage) String() string {
	switch s {
	case StageSources:
		return "Sources"
	case StageBuild:
		return "Build"
	case StageInstall:
		return "Install"
	default:
		return "Unknown"
	}
}

// PkgRequest is a request for a package, with policies controlling how
// strictly it must be resolved and an optional build-time pin.
type PkgRequest struct {
	Pkg              RangeIdent
	PrereleasePolicy PreReleasePolicy
	InclusionPolicy  InclusionPolicy
	// Pin holds a "fromBuildEnv" pattern (e.g. "Binary", "x.x.x") to be
	// rendered against a resolved build's version once available; it is
	// illegal to combine a pin with an explicit version/range.
	Pin *string
	// RequiredCompat overrides the compat tier checked against
	// candidates; nil defers to the range's own CompatRange if any.
	RequiredCompat *version.CompatRule
	Stage          *Stage
}

func (r PkgRequest) String() string { return r.Pkg.String() }

// NewPkgRequest builds a PkgRequest for pkg with default policies and a
// required Binary compat tier, the default used by command-line and
// install requests alike.
func NewPkgRequest(pkg RangeIdent) PkgRequest {
	binary := version.Binary
	return PkgRequest{
		Pkg:             pkg,
		InclusionPolicy: InclusionAlways,
		RequiredCompat:  &binary,
	}
}

// Restrict intersects r's range with other's, tightening r in place. It
// returns an error if the ranges fail to intersect, unless r's inclusion
// policy is IfAlreadyPresent, in which case a non-intersecting range is
// retained unmodified rather than rejected -- see spec.md's
// AllowNonIntersectingRanges behavior.
func (r *PkgRequest) Restrict(other PkgRequest) error {
	allowNonIntersecting := r.InclusionPolicy == InclusionIfAlreadyPresent
	if other.PrereleasePolicy < r.PrereleasePolicy {
		r.PrereleasePolicy = other.PrereleasePolicy
	}
	if other.InclusionPolicy < r.InclusionPolicy {
		r.InclusionPolicy = other.InclusionPolicy
	}
	if r.Pkg.Version == nil || other.Pkg.Version == nil {
		return nil
	}
	if c := r.Pkg.Version.Intersects(other.Pkg.Version); !c.IsOk() {
		if allowNonIntersecting {
			return nil
		}
		return fmt.Errorf("ident: cannot restrict %s with %s: %w", r.Pkg, other.Pkg, c)
	}
	r.Pkg.Version = version.Filter{Ranges: []version.Ranged{r.Pkg.Version, other.Pkg.Version}}
	return nil
}

// VarRequest restricts the value of a named build option.
type VarRequest struct {
	Name  string
	Value string
	// Pinned marks a "fromBuildEnv: true" pin; it is illegal to pin and
	// also carry an explicit Value.
	Pinned bool
}

func (r VarRequest) String() string {
	if r.Pinned {
		return r.Name
	}
	return fmt.Sprintf("%s/%s", r.Name, r.Value)
}

// Request is the Pkg/Var sum type described in spec.md §3.
type Request struct {
	Pkg *PkgRequest
	Var *VarRequest
}

func FromPkgRequest(r PkgRequest) Request { return Request{Pkg: &r} }
func FromVarRequest(r VarRequest) Request { return Request{Var: &r} }

// Name returns the canonical name this request restricts.
func (r Request) Name() string {
	if r.Pkg != nil {
		return string(r.Pkg.Pkg.Name)
	}
	if r.Var != nil {
		return r.Var.Name
	}
	return ""
}

func (r Request) IsPkg() bool { return r.Pkg != nil }
func (r Request) IsVar() bool { return r.Var != nil }

func (r Request) String() string {
	switch {
	case r.Pkg != nil:
		return r.Pkg.String()
	case r.Var != nil:
		return r.Var.String()
	default:
		return ""
	}
}
