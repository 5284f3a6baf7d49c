package version

import "testing"

func TestCompatDefaultMajorBreaks(t *testing.T) {
	c := Default()
	base := mustParseVersion(t, "1.2.3")
	other := mustParseVersion(t, "2.2.3")
	if CheckCompat(c, base, other, Binary).IsOk() {
		t.Fatalf("major version change should break compatibility under default x.a.b")
	}
}

func TestCompatDefaultPatchIsBinaryCompatible(t *testing.T) {
	c := Default()
	base := mustParseVersion(t, "1.2.3")
	other := mustParseVersion(t, "1.2.4")
	if !CheckCompat(c, base, other, Binary).IsOk() {
		t.Fatalf("patch version change should stay binary compatible under default x.a.b")
	}
}

func TestCompatMinorIsOnlyAPICompatible(t *testing.T) {
	c := Default()
	base := mustParseVersion(t, "1.2.3")
	other := mustParseVersion(t, "1.3.0")
	if !CheckCompat(c, base, other, API).IsOk() {
		t.Fatalf("minor version change should be API compatible under default x.a.b")
	}
	if CheckCompat(c, base, other, Binary).IsOk() {
		t.Fatalf("minor version change should NOT be binary compatible under default x.a.b")
	}
}

// TestCompatPostReleaseTierGating reproduces the scenario from spec.md's
// compatibility description: a request for Binary compatibility against
// a build at 1.38.0+r.3 is satisfied when its compat is "x.x.x+b" but not
// when its compat is "x.x.x+a".
func TestCompatPostReleaseTierGating(t *testing.T) {
	requested := mustParseVersion(t, "1.38.0")
	built := mustParseVersion(t, "1.38.0+r.3")

	binaryCompat, err := Parse("x.x.x+b")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckCompat(binaryCompat, requested, built, Binary).IsOk() {
		t.Fatalf("x.x.x+b should satisfy a Binary request across a post-release bump")
	}

	apiOnlyCompat, err := Parse("x.x.x+a")
	if err != nil {
		t.Fatal(err)
	}
	if CheckCompat(apiOnlyCompat, requested, built, Binary).IsOk() {
		t.Fatalf("x.x.x+a should NOT satisfy a Binary request across a post-release bump")
	}
}

// TestCompatScenarioS2 reproduces spec.md's S2 scenario literally: with
// compat x.a.b, a request for 1.0.0 is not satisfied by 1.1.0, but a
// request for API:1.0.0 is.
func TestCompatScenarioS2(t *testing.T) {
	c := Default()
	base := mustParseVersion(t, "1.0.0")
	other := mustParseVersion(t, "1.1.0")
	if CheckCompat(c, base, other, Binary).IsOk() {
		t.Fatalf("plain 1.0.0 request should not be satisfied by 1.1.0 under x.a.b")
	}
	if !CheckCompat(c, base, other, API).IsOk() {
		t.Fatalf("API:1.0.0 request should be satisfied by 1.1.0 under x.a.b")
	}
}

func TestCompatRejectsBackwardsChange(t *testing.T) {
	c := Default()
	base := mustParseVersion(t, "1.2.5")
	other := mustParseVersion(t, "1.2.3")
	if CheckCompat(c, base, other, Binary).IsOk() {
		t.Fatalf("a lower patch version must not be reported compatible even though the position promises Binary")
	}
}

func TestCompatRuleSetString(t *testing.T) {
	c, err := Parse("x.ab.b")
	if err != nil {
		t.Fatal(err)
	}
	if got := c.String(); got != "x.ab.b" {
		t.Fatalf("Compat.String() = %q, want %q", got, "x.ab.b")
	}
}
