package version

import "testing"

func mustParseRange(t *testing.T, s string) Ranged {
	t.Helper()
	r, err := ParseRange(s)
	if err != nil {
		t.Fatalf("ParseRange(%q): %v", s, err)
	}
	return r
}

func TestSemverRangeLessThan(t *testing.T) {
	r := mustParseRange(t, "^1.2.3").(SemverRange)
	hi, ok := r.LessThan()
	if !ok || hi.String() != "2" {
		t.Fatalf("^1.2.3 upper bound = %v, %v; want 2", hi, ok)
	}
}

// TestLowestSpecifiedRange reproduces S1: "~1.0.1".less_than() == 1.1.0,
// and a bare major-only tilde ("~2") is rejected at parse time.
func TestLowestSpecifiedRange(t *testing.T) {
	r := mustParseRange(t, "~1.0.1")
	hi, ok := r.LessThan()
	if !ok || !hi.Equal(mustParseVersion(t, "1.1.0")) {
		t.Fatalf("~1.0.1 upper bound = %v, %v; want 1.1.0", hi, ok)
	}
	if _, err := ParseRange("~2"); err == nil {
		t.Fatalf("~2 should fail to parse (no minor precision to lock)")
	}
}

func TestSemverRangeExcludesNextMinor(t *testing.T) {
	r := mustParseRange(t, "^0.1.0")
	if r.IsSatisfiedBy(mustParseVersion(t, "0.2.0"), Default()).IsOk() {
		t.Fatalf("^0.1.0 must not allow 0.2.0 (zero-major caret ranges are minor-sensitive)")
	}
	if !r.IsSatisfiedBy(mustParseVersion(t, "0.1.5"), Default()).IsOk() {
		t.Fatalf("^0.1.0 must allow 0.1.5")
	}
}

func TestExactAllowsUnspecifiedPostDoublyDoesNot(t *testing.T) {
	exact := mustParseRange(t, "=1.0.0")
	doubly := mustParseRange(t, "==1.0.0")
	candidate := mustParseVersion(t, "1.0.0+r.1")

	if !exact.IsSatisfiedBy(candidate, Default()).IsOk() {
		t.Fatalf("=1.0.0 should be satisfied by 1.0.0+r.1")
	}
	if doubly.IsSatisfiedBy(candidate, Default()).IsOk() {
		t.Fatalf("==1.0.0 should NOT be satisfied by 1.0.0+r.1")
	}
}

func TestNotEqualsAcceptsNeighbors(t *testing.T) {
	r := mustParseRange(t, "!=1.2.0")
	if !r.IsSatisfiedBy(mustParseVersion(t, "1.1.9"), Default()).IsOk() {
		t.Fatalf("!=1.2.0 should accept 1.1.9")
	}
	if !r.IsSatisfiedBy(mustParseVersion(t, "1.2.1"), Default()).IsOk() {
		t.Fatalf("!=1.2.0 should accept 1.2.1")
	}
	if r.IsSatisfiedBy(mustParseVersion(t, "1.2.0"), Default()).IsOk() {
		t.Fatalf("!=1.2.0 should reject 1.2.0 itself")
	}
}

// TestCompatRangeContainsExactButNotPostRelease reproduces spec.md's
// literal requirement for CompatRange.Contains.
func TestCompatRangeContainsExactButNotPostRelease(t *testing.T) {
	r := mustParseRange(t, "Binary:1.2.3")
	plain := mustParseRange(t, "=1.2.3")
	withPost := mustParseRange(t, "=1.2.3+r.1")

	if !r.Contains(plain).IsOk() {
		t.Fatalf("Binary:1.2.3 should contain =1.2.3")
	}
	if r.Contains(withPost).IsOk() {
		t.Fatalf("Binary:1.2.3 should NOT contain =1.2.3+r.1")
	}
}

func TestWildcardRange(t *testing.T) {
	r := mustParseRange(t, "1.2.*")
	if !r.IsSatisfiedBy(mustParseVersion(t, "1.2.9"), Default()).IsOk() {
		t.Fatalf("1.2.* should accept 1.2.9")
	}
	if r.IsSatisfiedBy(mustParseVersion(t, "1.3.0"), Default()).IsOk() {
		t.Fatalf("1.2.* should reject 1.3.0")
	}
}

func TestFilterIntersection(t *testing.T) {
	r := mustParseRange(t, ">=1.0.0,<2.0.0")
	if !r.IsSatisfiedBy(mustParseVersion(t, "1.5.0"), Default()).IsOk() {
		t.Fatalf("filter should accept 1.5.0")
	}
	if r.IsSatisfiedBy(mustParseVersion(t, "2.0.0"), Default()).IsOk() {
		t.Fatalf("filter should reject 2.0.0")
	}
}

func TestGreaterThanRangeExclusive(t *testing.T) {
	r := mustParseRange(t, ">1.2.3")
	if r.IsSatisfiedBy(mustParseVersion(t, "1.2.3"), Default()).IsOk() {
		t.Fatalf(">1.2.3 should reject 1.2.3 itself")
	}
	if !r.IsSatisfiedBy(mustParseVersion(t, "1.2.4"), Default()).IsOk() {
		t.Fatalf(">1.2.3 should accept 1.2.4")
	}
}

func TestBareVersionDefaultsToBinaryCompatRange(t *testing.T) {
	r := mustParseRange(t, "1.38.0")
	cr, ok := r.(CompatRange)
	if !ok {
		t.Fatalf("bare version should parse as CompatRange, got %T", r)
	}
	if cr.Required != Binary {
		t.Fatalf("bare version should default to Binary, got %s", cr.Required.rangeLabel())
	}
}
