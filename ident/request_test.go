package ident

import (
	"testing"

	"github.com/forgepkg/forge/version"
)

func noRepos(string) bool { return false }

func TestParseRequestBare(t *testing.T) {
	req, err := ParseRequest("mypkg", noRepos)
	if err != nil {
		t.Fatal(err)
	}
	if req.Pkg.Name != "mypkg" {
		t.Fatalf("name = %q", req.Pkg.Name)
	}
	if req.Pkg.Version != nil {
		t.Fatalf("expected no version range for bare request")
	}
}

func TestParseRequestWithComponentsRangeAndBuild(t *testing.T) {
	req, err := ParseRequest("mypkg:run,build/>=1.0.0/CU7ZWOIF", noRepos)
	if err != nil {
		t.Fatal(err)
	}
	if req.Pkg.Name != "mypkg" {
		t.Fatalf("name = %q", req.Pkg.Name)
	}
	if !req.Pkg.Components.Has("run") || !req.Pkg.Components.Has("build") {
		t.Fatalf("components = %v", req.Pkg.Components.Sorted())
	}
	if req.Pkg.Version == nil {
		t.Fatalf("expected a version range")
	}
	if req.Pkg.Build == nil || req.Pkg.Build.String() != "CU7ZWOIF" {
		t.Fatalf("build = %v", req.Pkg.Build)
	}
}

func TestParseRequestWithRepo(t *testing.T) {
	isRepo := func(s string) bool { return s == "myrepo" }
	req, err := ParseRequest("myrepo/mypkg/1.0.0", isRepo)
	if err != nil {
		t.Fatal(err)
	}
	if req.Pkg.Repository != "myrepo" {
		t.Fatalf("repository = %q", req.Pkg.Repository)
	}
	if req.Pkg.Name != "mypkg" {
		t.Fatalf("name = %q", req.Pkg.Name)
	}
}

func TestParseRequestStageSuffix(t *testing.T) {
	req, err := ParseRequest("mypkg@build", noRepos)
	if err != nil {
		t.Fatal(err)
	}
	if req.Stage == nil || *req.Stage != StageBuild {
		t.Fatalf("stage = %v", req.Stage)
	}
}

func TestPkgRequestRestrictIntersectsRanges(t *testing.T) {
	a, err := ParseRequest("mypkg/>=1.0.0", noRepos)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ParseRequest("mypkg/<2.0.0", noRepos)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Restrict(b); err != nil {
		t.Fatal(err)
	}
	if !a.Pkg.Version.IsSatisfiedBy(mustVersion(t, "1.5.0"), version.Default()).IsOk() {
		t.Fatalf("restricted range should accept 1.5.0")
	}
	if a.Pkg.Version.IsSatisfiedBy(mustVersion(t, "2.0.0"), version.Default()).IsOk() {
		t.Fatalf("restricted range should reject 2.0.0")
	}
}

func TestPkgRequestRestrictRejectsNonIntersecting(t *testing.T) {
	a, err := ParseRequest("mypkg/=1.0.0", noRepos)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ParseRequest("mypkg/=2.0.0", noRepos)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Restrict(b); err == nil {
		t.Fatalf("expected non-intersecting exact ranges to fail to restrict")
	}
}

func TestPkgRequestRestrictAllowsNonIntersectingWhenIfAlreadyPresent(t *testing.T) {
	a, err := ParseRequest("mypkg/=1.0.0", noRepos)
	if err != nil {
		t.Fatal(err)
	}
	a.InclusionPolicy = InclusionIfAlreadyPresent
	b, err := ParseRequest("mypkg/=2.0.0", noRepos)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Restrict(b); err != nil {
		t.Fatalf("expected non-intersecting ranges to be tolerated under IfAlreadyPresent, got %v", err)
	}
}
