// Package solve implements the dependency solver (spec.md §4.G): a
// backtracking, state-graph search over package builds, grounded on
// golang-dep's SolveParameters/selection/versionQueue shape for the Go
// idiom and original_source/crates/spk-solver/src/solver.rs +
// src/solve/graph.rs for the state/decision/step-back semantics
// golang-dep itself doesn't have.
package solve

import (
	"github.com/forgepkg/forge/digest"
	"github.com/forgepkg/forge/ident"
	"github.com/forgepkg/forge/version"
)

// MatchMode controls how a ComponentRule's file patterns interact with
// files already claimed by an earlier-declared component: All keeps
// collecting every matching path even if another component already
// claimed it, First only claims paths no earlier component has claimed
// yet (spec.md §4.I step 8 "ALL/FIRST match mode").
type MatchMode int

const (
	MatchAll MatchMode = iota
	MatchFirst
)

// ComponentRule is one component's file-selection declaration: every
// workspace-relative path matching one of Patterns (shell glob syntax,
// matched with path.Match per path segment) belongs to this component.
type ComponentRule struct {
	Name      string
	Patterns  []string
	MatchMode MatchMode
}

// Recipe is a package's source-level spec: one per version, describing
// how to build it and which components it produces, independent of any
// particular build's resolved options.
type Recipe struct {
	Ident      ident.VersionIdent
	Components []ident.ComponentSpec
	// BuildOptions lists the var names a build of this recipe accepts,
	// with their default values.
	BuildOptions map[string]string
	// BuildRequirements lists packages and vars only needed to build
	// this recipe, resolved in the build-environment solve -- distinct
	// from the produced build's own InstallRequirements.
	BuildRequirements []ident.Request
	// Script is the shell script executed under the rendered build
	// environment to produce this recipe's build output.
	Script string
	// ComponentRules declares, in priority order, how the build's
	// changeset is split into per-component manifests.
	ComponentRules []ComponentRule
}

// PackageSpec is one concrete build's resolved metadata: its identifier,
// the components it actually produced, the install requirements it
// imposes on a consumer, and the option values it was built with.
type PackageSpec struct {
	Ident               ident.Ident
	Components          []ident.ComponentSpec
	Deprecated          bool
	InstallRequirements []ident.Request
	Options             map[string]string
	// Layers maps a produced component's name to the Layer object
	// digest holding its files, populated once the build that produced
	// this spec has committed (spec.md §3 "Each built package maps
	// component -> layer digest").
	Layers map[string]digest.Digest
}

// Catalog is the read side of one configured repository a solve may draw
// candidates from -- deliberately narrow (no write/publish operations;
// those live on graph.Store directly) so the solver and impossible
// checker can both be driven against a fake in tests.
type Catalog interface {
	Name() string
	// ListVersions returns name's known versions, any order; the solver
	// sorts them itself (spec.md §4.G "sorted descending").
	ListVersions(name ident.Name) ([]version.Version, error)
	// ListBuilds returns the known concrete builds of name at v.
	ListBuilds(name ident.Name, v version.Version) ([]ident.Build, error)
	ReadRecipe(v ident.VersionIdent) (Recipe, error)
	ReadSpec(id ident.Ident) (PackageSpec, error)
}
