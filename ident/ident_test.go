package ident

import (
	"testing"

	"github.com/forgepkg/forge/version"
)

func mustVersion(t *testing.T, s string) version.Version {
	t.Helper()
	v, err := version.ParseVersion(s)
	if err != nil {
		t.Fatalf("ParseVersion(%q): %v", s, err)
	}
	return v
}

func TestIdentString(t *testing.T) {
	id := Ident{Name: "mypkg", Version: mustVersion(t, "1.2.3"), Build: NewBuildID("3I42H3S6")}
	if got, want := id.String(), "mypkg/1.2.3/3I42H3S6"; got != want {
		t.Fatalf("Ident.String() = %q, want %q", got, want)
	}
}

func TestIdentSourceBuildOmitsBuildSegment(t *testing.T) {
	id := Ident{Name: "mypkg", Version: mustVersion(t, "1.2.3"), Build: SourceBuild}
	if got, want := id.String(), "mypkg/1.2.3"; got != want {
		t.Fatalf("Ident.String() = %q, want %q", got, want)
	}
}

func TestNameValidate(t *testing.T) {
	if err := Name("my-pkg_2").Validate(); err != nil {
		t.Fatalf("expected valid name: %v", err)
	}
	if err := Name("My Pkg").Validate(); err == nil {
		t.Fatalf("expected invalid name to be rejected")
	}
}
