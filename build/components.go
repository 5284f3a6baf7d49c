package build

import (
	"path/filepath"

	"github.com/forgepkg/forge/solve"
)

// splitByComponent assigns every Added or Changed path in cs to the
// components whose rules match it, honoring each rule's MatchMode
// (spec.md §4.I step 8). Removed paths play no part in a component's
// final content and are skipped here; they were already surfaced during
// changeset validation. Rules are applied in declaration order and every
// rule claims the paths it matches; a MatchFirst rule skips paths an
// earlier rule already claimed, while a MatchAll rule still takes them.
func splitByComponent(cs Changeset, rules []solve.ComponentRule) map[string][]string {
	claimed := make(map[string]struct{})
	out := make(map[string][]string, len(rules))

	for _, rule := range rules {
		var paths []string
		for _, c := range cs {
			if c.Kind == Removed {
				continue
			}
			if rule.MatchMode == solve.MatchFirst {
				if _, done := claimed[c.Path]; done {
					continue
				}
			}
			if !matchesAny(rule.Patterns, c.Path) {
				continue
			}
			paths = append(paths, c.Path)
			claimed[c.Path] = struct{}{}
		}
		out[rule.Name] = paths
	}
	return out
}

// matchesAny reports whether path matches any of patterns, each matched
// per filepath.Match against the path's segments jointly (so a pattern
// like "bin/*" matches "bin/tool" but not "bin/sub/tool" -- there is no
// recursive "**" support, the pack carries no glob library that offers
// one).
func matchesAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, path); ok {
			return true
		}
	}
	return false
}
