package version

import (
	"fmt"
	"strings"
)

// CompatRule names one tier of compatibility a package build promises to
// maintain as a version part increments: None promises nothing, API
// promises call-signature compatibility, Binary promises ABI
// compatibility (and implies API). The zero value is None.
type CompatRule int

const (
	None CompatRule = iota
	API
	Binary
)

func (r CompatRule) String() string {
	switch r {
	case None:
		return "x"
	case API:
		return "a"
	case Binary:
		return "b"
	default:
		return "?"
	}
}

// Satisfies reports whether r promises at least as much as required:
// Binary satisfies a request for API or None, API satisfies only API or
// None, and None satisfies only None.
func (r CompatRule) Satisfies(required CompatRule) bool {
	return r >= required
}

func parseCompatRuleChar(c byte) (CompatRule, error) {
	switch c {
	case 'x':
		return None, nil
	case 'a':
		return API, nil
	case 'b':
		return Binary, nil
	default:
		return None, fmt.Errorf("unknown compat rule char %q", c)
	}
}

// CompatRuleSet is the set of compat rules declared for one version part;
// a part may promise more than one tier at once (e.g. "ab" promises both
// API and Binary compatibility for that part).
type CompatRuleSet map[CompatRule]struct{}

func newCompatRuleSet(rules ...CompatRule) CompatRuleSet {
	s := make(CompatRuleSet, len(rules))
	for _, r := range rules {
		s[r] = struct{}{}
	}
	return s
}

// Has reports whether the set contains r.
func (s CompatRuleSet) Has(r CompatRule) bool {
	_, ok := s[r]
	return ok
}

// Strongest returns the highest CompatRule present in s, or None if empty.
func (s CompatRuleSet) Strongest() CompatRule {
	strongest := None
	for r := range s {
		if r > strongest {
			strongest = r
		}
	}
	return strongest
}

func (s CompatRuleSet) String() string {
	var b strings.Builder
	for _, r := range []CompatRule{None, API, Binary} {
		if s.Has(r) {
			b.WriteString(r.String())
		}
	}
	return b.String()
}

func parseCompatRuleSet(s string) (CompatRuleSet, error) {
	set := make(CompatRuleSet, len(s))
	for i := 0; i < len(s); i++ {
		r, err := parseCompatRuleChar(s[i])
		if err != nil {
			return nil, err
		}
		set[r] = struct{}{}
	}
	return set, nil
}

// Compat is a per-position compatibility declaration, e.g. "x.a.b" meaning
// "major changes break compatibility, minor changes stay API compatible,
// patch changes stay binary compatible". Pre- and post-release parts may
// carry their own override rule sets; when absent, a changed pre-release
// tag is always None-compatible and a changed post-release tag always
// stays at the compat rule of the last numeric part.
type Compat struct {
	Parts []CompatRuleSet
	Pre   *CompatRuleSet
	Post  *CompatRuleSet
}

// Default is "x.a.b": major breaks, minor is API-stable, patch is
// binary-stable. This matches the implicit compatibility of unadorned
// semantic versions.
func Default() Compat {
	return Compat{Parts: []CompatRuleSet{
		newCompatRuleSet(None),
		newCompatRuleSet(API),
		newCompatRuleSet(Binary),
	}}
}

func (c Compat) part(i int) CompatRuleSet {
	if i < 0 || i >= len(c.Parts) {
		if len(c.Parts) == 0 {
			return newCompatRuleSet(None)
		}
		return c.Parts[len(c.Parts)-1]
	}
	return c.Parts[i]
}

func (c Compat) String() string {
	names := make([]string, len(c.Parts))
	for i, p := range c.Parts {
		names[i] = p.String()
	}
	s := strings.Join(names, ".")
	if c.Pre != nil {
		s += "-" + c.Pre.String()
	}
	if c.Post != nil {
		s += "+" + c.Post.String()
	}
	return s
}

// Parse parses a compat specifier of the form "x.a.b[-<rules>][+<rules>]".
func Parse(s string) (Compat, error) {
	if s == "" {
		return Default(), nil
	}
	rest := s
	var preStr, postStr string
	if i := strings.IndexByte(rest, '+'); i >= 0 {
		postStr = rest[i+1:]
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '-'); i >= 0 {
		preStr = rest[i+1:]
		rest = rest[:i]
	}
	fields := strings.Split(rest, ".")
	parts := make([]CompatRuleSet, len(fields))
	for i, f := range fields {
		set, err := parseCompatRuleSet(f)
		if err != nil {
			return Compat{}, fmt.Errorf("compat %q: part %d: %w", s, i, err)
		}
		parts[i] = set
	}
	c := Compat{Parts: parts}
	if preStr != "" {
		set, err := parseCompatRuleSet(preStr)
		if err != nil {
			return Compat{}, fmt.Errorf("compat %q: pre: %w", s, err)
		}
		c.Pre = &set
	}
	if postStr != "" {
		set, err := parseCompatRuleSet(postStr)
		if err != nil {
			return Compat{}, fmt.Errorf("compat %q: post: %w", s, err)
		}
		c.Post = &set
	}
	return c, nil
}

// Compatibility is the result of a compatibility check: either ok, or
// incompatible carrying a human-readable reason. It implements error so
// callers that want to propagate a failed check can return it directly.
type Compatibility struct {
	ok     bool
	reason string
}

// Ok is the zero Compatibility value representing a passed check.
var Ok = Compatibility{ok: true}

// Incompatible builds a failed Compatibility with a formatted reason.
func Incompatible(format string, args ...any) Compatibility {
	return Compatibility{ok: false, reason: fmt.Sprintf(format, args...)}
}

// IsOk reports whether the check passed.
func (c Compatibility) IsOk() bool { return c.ok }

// Error implements the error interface; it is meaningless to call on an
// ok Compatibility.
func (c Compatibility) Error() string {
	if c.ok {
		return ""
	}
	return c.reason
}

// AsError returns nil if c is ok, otherwise c itself as an error.
func (c Compatibility) AsError() error {
	if c.ok {
		return nil
	}
	return c
}

// CheckCompat determines whether other, built with compat rules c
// relative to base, satisfies a request for required compatibility
// against base. It walks numeric parts left to right: the first part
// that differs between base and other must be allowed to differ at the
// required tier, and every part after it is irrelevant to the promise
// (a changed major version says nothing about whether patch stayed
// binary compatible). Equal numeric parts with differing pre/post tags
// fall through to the pre/post override rules.
func CheckCompat(c Compat, base, other Version, required CompatRule) Compatibility {
	if required == None {
		return Ok
	}
	n := len(base.Parts)
	if m := len(other.Parts); m > n {
		n = m
	}
	for i := 0; i < n; i++ {
		a, b := base.Part(i), other.Part(i)
		if a == b {
			continue
		}
		allowed := c.part(i)
		if !allowed.Strongest().Satisfies(required) {
			return Incompatible(
				"part %d changed (%d != %d) but compat %q only promises %q at that position, need %q",
				i, a, b, c.String(), allowed.String(), required.String(),
			)
		}
		if b < a {
			return Incompatible("part %d went backwards (%d -> %d); only forward changes can be compatible", i, a, b)
		}
		return checkTagCompat(c, base, other, required)
	}
	return checkTagCompat(c, base, other, required)
}

func checkTagCompat(c Compat, base, other Version, required CompatRule) Compatibility {
	if !base.Pre.Equal(other.Pre) {
		rule := CompatRuleSet(newCompatRuleSet(None))
		if c.Pre != nil {
			rule = *c.Pre
		}
		if !rule.Strongest().Satisfies(required) {
			return Incompatible("pre-release tags differ (%s != %s) and are not declared %q compatible",
				base.Pre, other.Pre, required.String())
		}
		if other.Pre.Compare(base.Pre) < 0 {
			return Incompatible("pre-release tags went backwards (%s -> %s)", base.Pre, other.Pre)
		}
	}
	if !base.Post.Equal(other.Post) {
		rule := c.part(len(c.Parts) - 1)
		if c.Post != nil {
			rule = *c.Post
		}
		if !rule.Strongest().Satisfies(required) {
			return Incompatible("post-release tags differ (%s != %s) and are not declared %q compatible",
				base.Post, other.Post, required.String())
		}
		if other.Post.Compare(base.Post) < 0 {
			return Incompatible("post-release tags went backwards (%s -> %s)", base.Post, other.Post)
		}
	}
	return Ok
}
