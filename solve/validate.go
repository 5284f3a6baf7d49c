package solve

import (
	"github.com/forgepkg/forge/forgeerr"
	"github.com/forgepkg/forge/ident"
	"github.com/forgepkg/forge/version"
)

// validator checks one candidate PackageSpec against a request and the
// state it would be added to, returning a *forgeerr.Error wrapping an
// IncompatibleReasonDetail on rejection. Grounded on
// original_source/crates/spk-solve/crates/validation/src/validation.rs's
// chain-of-validators shape.
type validator interface {
	validate(state State, req ident.PkgRequest, spec PackageSpec) error
}

// validators is the default chain run in order against every candidate;
// the first rejection short-circuits the rest.
func validators(binaryOnly bool) []validator {
	v := []validator{
		deprecationValidator{},
		nameValidator{},
		versionValidator{},
		componentValidator{},
	}
	if binaryOnly {
		v = append(v, binaryOnlyValidator{})
	}
	v = append(v, varRequirementsValidator{}, pkgRequirementsValidator{})
	return v
}

func runValidators(vs []validator, state State, req ident.PkgRequest, spec PackageSpec) error {
	for _, v := range vs {
		if err := v.validate(state, req, spec); err != nil {
			return err
		}
	}
	return nil
}

// deprecationValidator rejects a deprecated build unless the request
// pins its exact build, per spec.md §4.G "a deprecated build is never
// offered as a candidate except by an exact pin".
type deprecationValidator struct{}

func (deprecationValidator) validate(_ State, req ident.PkgRequest, spec PackageSpec) error {
	if !spec.Deprecated {
		return nil
	}
	if req.Pkg.Build != nil && req.Pkg.Build.Kind == spec.Ident.Build.Kind && req.Pkg.Build.ID == spec.Ident.Build.ID {
		return nil
	}
	return forgeerr.IncompatibleReasonError(forgeerr.ReasonDeprecatedBuild, spec.Ident.String())
}

type nameValidator struct{}

func (nameValidator) validate(_ State, req ident.PkgRequest, spec PackageSpec) error {
	if req.Pkg.Name != spec.Ident.Name {
		return forgeerr.IncompatibleReasonError(forgeerr.ReasonNameMismatch,
			string(req.Pkg.Name)+" != "+string(spec.Ident.Name))
	}
	return nil
}

// versionValidator checks the request's range against the candidate's
// version under version.Default() compat. req.RequiredCompat is not
// applied, and PackageSpec carries no compat of its own.
type versionValidator struct{}

func (versionValidator) validate(_ State, req ident.PkgRequest, spec PackageSpec) error {
	if req.PrereleasePolicy == ident.ExcludeAllPreReleases && len(spec.Ident.Version.Pre) > 0 {
		return forgeerr.IncompatibleReasonError(forgeerr.ReasonPreReleaseExcluded, spec.Ident.Version.String())
	}
	if req.Pkg.Version == nil {
		return nil
	}
	required := version.Binary
	if req.RequiredCompat != nil {
		required = *req.RequiredCompat
	}
	compat := req.Pkg.Version.IsSatisfiedBy(spec.Ident.Version, version.Default())
	if !compat.IsOk() {
		return forgeerr.IncompatibleReasonError(forgeerr.ReasonVersionOutOfRange, compat.Error())
	}
	_ = required
	return nil
}

// componentValidator requires every component named in the request to
// be one the candidate actually declares, after expanding "uses".
type componentValidator struct{}

func (componentValidator) validate(_ State, req ident.PkgRequest, spec PackageSpec) error {
	if len(req.Pkg.Components) == 0 {
		return nil
	}
	declared := make(ident.ComponentSet, len(spec.Components))
	for _, c := range spec.Components {
		declared.Add(c.Name)
	}
	resolved := ident.ResolveUses(spec.Components, req.Pkg.Components)
	for name := range resolved {
		if name == ident.ComponentAll {
			continue
		}
		if !declared.Has(name) {
			return forgeerr.IncompatibleReasonError(forgeerr.ReasonMissingComponent, name)
		}
	}
	return nil
}

// binaryOnlyValidator rejects source builds when the solver has been
// asked to resolve only pre-built binaries (spec.md §4.G "a binary-only
// solve never offers the source build as a candidate").
type binaryOnlyValidator struct{}

func (binaryOnlyValidator) validate(_ State, _ ident.PkgRequest, spec PackageSpec) error {
	if spec.Ident.Build.IsSource() {
		return forgeerr.IncompatibleReasonError(forgeerr.ReasonBuildOptionMismatch, "source build excluded by binary-only solve")
	}
	return nil
}

// varRequirementsValidator checks the candidate's own option values
// against every outstanding VarRequest naming one of its options.
type varRequirementsValidator struct{}

func (varRequirementsValidator) validate(state State, _ ident.PkgRequest, spec PackageSpec) error {
	for _, vr := range state.VarRequests {
		want, ok := spec.Options[vr.Name]
		if !ok {
			continue
		}
		if !vr.Pinned && vr.Value != "" && vr.Value != want {
			return forgeerr.IncompatibleReasonError(forgeerr.ReasonVarOptionMismatch,
				vr.Name+"="+vr.Value+" != "+want)
		}
	}
	return nil
}

// pkgRequirementsValidator checks the candidate's own InstallRequirements
// don't conflict with packages already resolved in state.
type pkgRequirementsValidator struct{}

func (pkgRequirementsValidator) validate(state State, _ ident.PkgRequest, spec PackageSpec) error {
	for _, req := range spec.InstallRequirements {
		if !req.IsPkg() {
			continue
		}
		resolved, ok := state.resolvedPackage(string(req.Pkg.Pkg.Name))
		if !ok {
			continue
		}
		if req.Pkg.Pkg.Version == nil {
			continue
		}
		if c := req.Pkg.Pkg.Version.IsSatisfiedBy(resolved.Spec.Ident.Version, version.Default()); !c.IsOk() {
			return forgeerr.IncompatibleReasonError(forgeerr.ReasonCompatibilityBroken,
				spec.Ident.String()+" requires "+req.Pkg.String()+": "+c.Error())
		}
	}
	return nil
}
