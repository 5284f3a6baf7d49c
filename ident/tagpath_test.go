package ident

import "testing"

func TestFormatPkgTagPath(t *testing.T) {
	id := Ident{Name: "mypkg", Version: mustVersion(t, "1.2.3"), Build: NewBuildID("CU7ZWOIF")}
	got, err := Format(PkgTagPath{Ident: id})
	if err != nil {
		t.Fatal(err)
	}
	if want := "spk/pkg/mypkg/1.2.3/CU7ZWOIF"; got != want {
		t.Fatalf("Format(PkgTagPath) = %q, want %q", got, want)
	}
}

func TestFormatPkgComponentTagPath(t *testing.T) {
	id := Ident{Name: "mypkg", Version: mustVersion(t, "1.2.3"), Build: NewBuildID("CU7ZWOIF")}
	got, err := Format(PkgComponentTagPath{Ident: id, Component: "run"})
	if err != nil {
		t.Fatal(err)
	}
	if want := "spk/pkg/mypkg/1.2.3/CU7ZWOIF/run"; got != want {
		t.Fatalf("Format(PkgComponentTagPath) = %q, want %q", got, want)
	}
}

func TestFormatRecipeTagPath(t *testing.T) {
	got, err := Format(RecipeTagPath{VersionIdent: VersionIdent{Name: "mypkg", Version: mustVersion(t, "1.2.3")}})
	if err != nil {
		t.Fatal(err)
	}
	if want := "spk/spec/mypkg/1.2.3"; got != want {
		t.Fatalf("Format(RecipeTagPath) = %q, want %q", got, want)
	}
}

func TestFormatRepoMetaTagPath(t *testing.T) {
	got, err := Format(RepoMetaTagPath{})
	if err != nil {
		t.Fatal(err)
	}
	if want := "spk/repo"; got != want {
		t.Fatalf("Format(RepoMetaTagPath) = %q, want %q", got, want)
	}
}

func TestFormatEncodesPostReleasePlus(t *testing.T) {
	id := Ident{Name: "mypkg", Version: mustVersion(t, "1.2.3+r.1"), Build: SourceBuild}
	got, err := Format(SpecTagPath{Ident: id})
	if err != nil {
		t.Fatal(err)
	}
	if want := "spk/spec/mypkg/1.2.3..r.1/src"; got != want {
		t.Fatalf("Format(SpecTagPath) = %q, want %q", got, want)
	}
	if decodeVersionSegment("1.2.3..r.1") != "1.2.3+r.1" {
		t.Fatalf("decodeVersionSegment did not invert the encoding")
	}
}

func TestFormatEmbeddedSpecTagPath(t *testing.T) {
	parent := &Ident{Name: "parentpkg", Version: mustVersion(t, "2.0.0"), Build: NewBuildID("ABCDEFGH")}
	got, err := Format(EmbeddedSpecTagPath{
		VersionIdent: VersionIdent{Name: "mypkg", Version: mustVersion(t, "1.0.0")},
		Parent:       parent,
	})
	if err != nil {
		t.Fatal(err)
	}
	const prefix = "spk/spec/mypkg/1.0.0/embedded-by-"
	if len(got) <= len(prefix) || got[:len(prefix)] != prefix {
		t.Fatalf("Format(EmbeddedSpecTagPath) = %q, want prefix %q", got, prefix)
	}
}
