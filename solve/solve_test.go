package solve

import (
	"context"
	"fmt"
	"testing"

	"github.com/forgepkg/forge/ident"
	"github.com/forgepkg/forge/version"
)

// fakeCatalog is an in-memory Catalog for tests, grounded on golang-dep's
// test fixtures (a fully in-memory project/version/dependency table fed
// straight to the solver, no network or disk involved).
type fakeCatalog struct {
	name     string
	versions map[string][]version.Version
	builds   map[string][]ident.Build
	specs    map[string]PackageSpec
}

func newFakeCatalog(name string) *fakeCatalog {
	return &fakeCatalog{
		name:     name,
		versions: make(map[string][]version.Version),
		builds:   make(map[string][]ident.Build),
		specs:    make(map[string]PackageSpec),
	}
}

func (f *fakeCatalog) Name() string { return f.name }

func (f *fakeCatalog) ListVersions(name ident.Name) ([]version.Version, error) {
	return f.versions[string(name)], nil
}

func (f *fakeCatalog) ListBuilds(name ident.Name, v version.Version) ([]ident.Build, error) {
	return f.builds[specKey(name, v, ident.Build{})], nil
}

func (f *fakeCatalog) ReadRecipe(v ident.VersionIdent) (Recipe, error) {
	return Recipe{Ident: v}, nil
}

func (f *fakeCatalog) ReadSpec(id ident.Ident) (PackageSpec, error) {
	spec, ok := f.specs[specKey(id.Name, id.Version, id.Build)]
	if !ok {
		return PackageSpec{}, fmt.Errorf("no spec for %s", id)
	}
	return spec, nil
}

func specKey(name ident.Name, v version.Version, b ident.Build) string {
	return fmt.Sprintf("%s/%s/%s", name, v, b)
}

func (f *fakeCatalog) addBuild(name string, v version.Version, b ident.Build, spec PackageSpec) {
	f.versions[name] = appendIfMissing(f.versions[name], v)
	key := specKey(ident.Name(name), v, ident.Build{})
	f.builds[key] = append(f.builds[key], b)
	f.specs[specKey(ident.Name(name), v, b)] = spec
}

func appendIfMissing(vs []version.Version, v version.Version) []version.Version {
	for _, existing := range vs {
		if existing.Compare(v) == 0 {
			return vs
		}
	}
	return append(vs, v)
}

func v(major, minor, patch uint64) version.Version {
	return version.Version{Parts: []uint64{major, minor, patch}}
}

func TestSolverResolvesSinglePackage(t *testing.T) {
	cat := newFakeCatalog("local")
	ver := v(1, 0, 0)
	build := ident.NewBuildID("ABCDEF")
	cat.addBuild("mypkg", ver, build, PackageSpec{
		Ident: ident.Ident{Name: "mypkg", Version: ver, Build: build},
	})

	req := ident.NewPkgRequest(ident.RangeIdent{Name: "mypkg"})
	initial := State{PkgRequests: []ident.PkgRequest{req}, Options: map[string]string{}}

	solver := New([]Catalog{cat}, Options{})
	final, err := solver.Solve(context.Background(), initial)
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	if len(final.Resolved) != 1 {
		t.Fatalf("expected 1 resolved package, got %d", len(final.Resolved))
	}
	if final.Resolved[0].Spec.Ident.Name != "mypkg" {
		t.Fatalf("resolved wrong package: %+v", final.Resolved[0])
	}
}

func TestSolverPicksNewestVersion(t *testing.T) {
	cat := newFakeCatalog("local")
	old, newer := v(1, 0, 0), v(2, 0, 0)
	oldBuild, newBuild := ident.NewBuildID("OLD"), ident.NewBuildID("NEW")
	cat.addBuild("mypkg", old, oldBuild, PackageSpec{Ident: ident.Ident{Name: "mypkg", Version: old, Build: oldBuild}})
	cat.addBuild("mypkg", newer, newBuild, PackageSpec{Ident: ident.Ident{Name: "mypkg", Version: newer, Build: newBuild}})

	req := ident.NewPkgRequest(ident.RangeIdent{Name: "mypkg"})
	initial := State{PkgRequests: []ident.PkgRequest{req}, Options: map[string]string{}}

	solver := New([]Catalog{cat}, Options{})
	final, err := solver.Solve(context.Background(), initial)
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	if final.Resolved[0].Spec.Ident.Version.Compare(newer) != 0 {
		t.Fatalf("expected newest version %s, got %s", newer, final.Resolved[0].Spec.Ident.Version)
	}
}

func TestSolverSkipsDeprecatedBuild(t *testing.T) {
	cat := newFakeCatalog("local")
	ver := v(1, 0, 0)
	bad, good := ident.NewBuildID("BAD"), ident.NewBuildID("GOOD")
	cat.addBuild("mypkg", ver, bad, PackageSpec{Ident: ident.Ident{Name: "mypkg", Version: ver, Build: bad}, Deprecated: true})
	cat.addBuild("mypkg", ver, good, PackageSpec{Ident: ident.Ident{Name: "mypkg", Version: ver, Build: good}})

	req := ident.NewPkgRequest(ident.RangeIdent{Name: "mypkg"})
	initial := State{PkgRequests: []ident.PkgRequest{req}, Options: map[string]string{}}

	solver := New([]Catalog{cat}, Options{})
	final, err := solver.Solve(context.Background(), initial)
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	if final.Resolved[0].Spec.Ident.Build.ID != "GOOD" {
		t.Fatalf("expected the non-deprecated build, got %+v", final.Resolved[0].Spec.Ident)
	}
}

func TestSolverOutOfOptionsWhenNothingMatches(t *testing.T) {
	cat := newFakeCatalog("local")
	req := ident.NewPkgRequest(ident.RangeIdent{Name: "missing"})
	initial := State{PkgRequests: []ident.PkgRequest{req}, Options: map[string]string{}}

	solver := New([]Catalog{cat}, Options{})
	_, err := solver.Solve(context.Background(), initial)
	if err == nil {
		t.Fatalf("expected an error when no catalog has the package")
	}
}

func TestImpossibleCheckerCachesVerdict(t *testing.T) {
	cat := newFakeCatalog("local")
	ver := v(1, 0, 0)
	build := ident.NewBuildID("ABCDEF")
	cat.addBuild("mypkg", ver, build, PackageSpec{Ident: ident.Ident{Name: "mypkg", Version: ver, Build: build}})

	checker := NewImpossibleChecker([]Catalog{cat}, false)
	req := ident.NewPkgRequest(ident.RangeIdent{Name: "mypkg"})

	impossible, err := checker.IsImpossible(context.Background(), req)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if impossible {
		t.Fatalf("expected mypkg to be possible")
	}

	missingReq := ident.NewPkgRequest(ident.RangeIdent{Name: "nope"})
	impossible, err = checker.IsImpossible(context.Background(), missingReq)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !impossible {
		t.Fatalf("expected nope to be impossible")
	}

	// Second call should hit the cache and return the same verdict.
	impossible, err = checker.IsImpossible(context.Background(), missingReq)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !impossible {
		t.Fatalf("expected cached verdict to still be impossible")
	}
}
