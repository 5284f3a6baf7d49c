package ident

import "testing"

func TestResolveUsesTransitive(t *testing.T) {
	specs := []ComponentSpec{
		{Name: "run"},
		{Name: "build", Uses: []string{"run"}},
		{Name: "docs", Uses: []string{"build"}},
	}
	resolved := ResolveUses(specs, NewComponentSet("docs"))
	for _, want := range []string{"docs", "build", "run"} {
		if !resolved.Has(want) {
			t.Fatalf("expected %q to be resolved via transitive uses, got %v", want, resolved.Sorted())
		}
	}
}

func TestResolveUsesPreservesUnknown(t *testing.T) {
	resolved := ResolveUses(nil, NewComponentSet("mystery"))
	if !resolved.Has("mystery") {
		t.Fatalf("unknown component should be preserved unexpanded")
	}
}
