// Package version implements the ordered version and compatibility-rule
// algebra used to compare built packages against requests (spec.md §3
// "Version & Compatibility Algebra").
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is an ordered tuple of non-negative integer parts plus an
// optional pre-release tag set and an optional post-release tag set.
// Two versions with identical parts order by tag set: post > none > pre.
type Version struct {
	Parts []uint64
	Pre   TagSet
	Post  TagSet
}

// Zero is the version with no parts, equivalent to "0".
var Zero = Version{}

// Part returns the i'th numeric part, or 0 if the version was not
// specified to that precision.
func (v Version) Part(i int) uint64 {
	if i < 0 || i >= len(v.Parts) {
		return 0
	}
	return v.Parts[i]
}

// Major, Minor, and Patch name the first three conventional parts.
func (v Version) Major() uint64 { return v.Part(0) }
func (v Version) Minor() uint64 { return v.Part(1) }
func (v Version) Patch() uint64 { return v.Part(2) }

// Base returns a copy of v with pre- and post-release tags stripped.
func (v Version) Base() Version {
	return Version{Parts: append([]uint64(nil), v.Parts...)}
}

// WithoutPost returns a copy of v with the post-release tag set cleared.
func (v Version) WithoutPost() Version {
	return Version{Parts: v.Parts, Pre: v.Pre}
}

// IsZero reports whether v has no parts and no tags.
func (v Version) IsZero() bool {
	return len(v.Parts) == 0 && len(v.Pre) == 0 && len(v.Post) == 0
}

// Compare returns -1, 0, or 1 as v orders before, the same as, or after
// other. Numeric parts compare position by position, padding the shorter
// with zeros. When every part is equal, the tag sets decide: a version
// with post-release tags orders after one with none, which orders after
// one with pre-release tags; two versions with the same tag-set kind
// compare tag sets lexically by (name, value).
func (v Version) Compare(other Version) int {
	n := len(v.Parts)
	if m := len(other.Parts); m > n {
		n = m
	}
	for i := 0; i < n; i++ {
		a, b := v.Part(i), other.Part(i)
		if a != b {
			if a < b {
				return -1
			}
			return 1
		}
	}
	return compareTagTier(v, other)
}

// tagTier ranks a version's release kind for ordering at equal parts:
// post-release orders highest, then no tags, then pre-release lowest.
func tagTier(v Version) int {
	switch {
	case len(v.Post) > 0:
		return 2
	case len(v.Pre) > 0:
		return 0
	default:
		return 1
	}
}

func compareTagTier(a, b Version) int {
	ta, tb := tagTier(a), tagTier(b)
	if ta != tb {
		if ta < tb {
			return -1
		}
		return 1
	}
	switch ta {
	case 0:
		return a.Pre.Compare(b.Pre)
	case 2:
		return a.Post.Compare(b.Post)
	default:
		return 0
	}
}

// Less reports whether v orders strictly before other.
func (v Version) Less(other Version) bool { return v.Compare(other) < 0 }

// Equal reports whether v and other compare equal, including tag sets.
func (v Version) Equal(other Version) bool { return v.Compare(other) == 0 }

// EqualExact reports whether v and other have identical parts, pre, and
// post tag sets -- used by the pinned-point checks in defaultContains and
// CompatRange.Contains. It is stricter than Equal: at equal parts Equal
// compares only the tag set of the versions' tier (post tags when
// present, otherwise pre tags), while EqualExact requires both tag sets
// to match member-for-member.
func (v Version) EqualExact(other Version) bool {
	return partsEqual(v.Parts, other.Parts) && v.Pre.Equal(other.Pre) && v.Post.Equal(other.Post)
}

func partsEqual(a, b []uint64) bool {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		av, bv := uint64(0), uint64(0)
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		if av != bv {
			return false
		}
	}
	return true
}

// String renders the canonical textual form: dot-separated parts,
// followed by "-pre" and "+post" tag sets when present.
func (v Version) String() string {
	if len(v.Parts) == 0 {
		return "0"
	}
	var b strings.Builder
	for i, p := range v.Parts {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.FormatUint(p, 10))
	}
	if len(v.Pre) > 0 {
		b.WriteByte('-')
		b.WriteString(v.Pre.String())
	}
	if len(v.Post) > 0 {
		b.WriteByte('+')
		b.WriteString(v.Post.String())
	}
	return b.String()
}

// Tag is a single named component of a pre- or post-release tag set,
// e.g. "r.1" parses to Tag{Name: "r", Value: 1}.
type Tag struct {
	Name  string
	Value uint64
}

func (t Tag) String() string { return t.Name + "." + strconv.FormatUint(t.Value, 10) }

// TagSet is a set of Tags, unique by name, kept sorted by name so that
// equal sets always compare and stringify identically.
type TagSet []Tag

// Get returns the value for name and whether it was present.
func (s TagSet) Get(name string) (uint64, bool) {
	for _, t := range s {
		if t.Name == name {
			return t.Value, true
		}
	}
	return 0, false
}

// Compare orders two tag sets lexicographically by (name, value) pairs,
// with a shorter set ordering before a longer one that shares its prefix.
func (s TagSet) Compare(other TagSet) int {
	n := len(s)
	if len(other) < n {
		n = len(other)
	}
	for i := 0; i < n; i++ {
		if s[i].Name != other[i].Name {
			if s[i].Name < other[i].Name {
				return -1
			}
			return 1
		}
		if s[i].Value != other[i].Value {
			if s[i].Value < other[i].Value {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(s) < len(other):
		return -1
	case len(s) > len(other):
		return 1
	default:
		return 0
	}
}

// Equal reports whether s and other contain the same tags, in any order.
func (s TagSet) Equal(other TagSet) bool {
	if len(s) != len(other) {
		return false
	}
	a, b := s.sorted(), other.sorted()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (s TagSet) sorted() TagSet {
	out := append(TagSet(nil), s...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].Name > out[j].Name; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func (s TagSet) String() string {
	sorted := s.sorted()
	parts := make([]string, len(sorted))
	for i, t := range sorted {
		parts[i] = t.String()
	}
	return strings.Join(parts, ",")
}

// ParseVersion parses the canonical textual form produced by
// Version.String: "parts[-pre][+post]".
func ParseVersion(s string) (Version, error) {
	if s == "" {
		return Version{}, fmt.Errorf("version: empty string")
	}
	rest := s
	var post, pre string
	if i := strings.IndexByte(rest, '+'); i >= 0 {
		post = rest[i+1:]
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '-'); i >= 0 {
		pre = rest[i+1:]
		rest = rest[:i]
	}
	parts, err := parseParts(rest)
	if err != nil {
		return Version{}, fmt.Errorf("version %q: %w", s, err)
	}
	preSet, err := parseTagSet(pre)
	if err != nil {
		return Version{}, fmt.Errorf("version %q: pre-release: %w", s, err)
	}
	postSet, err := parseTagSet(post)
	if err != nil {
		return Version{}, fmt.Errorf("version %q: post-release: %w", s, err)
	}
	return Version{Parts: parts, Pre: preSet, Post: postSet}, nil
}

func parseParts(s string) ([]uint64, error) {
	if s == "" {
		return nil, nil
	}
	fields := strings.Split(s, ".")
	parts := make([]uint64, len(fields))
	for i, f := range fields {
		n, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("part %q: %w", f, err)
		}
		parts[i] = n
	}
	return parts, nil
}

func parseTagSet(s string) (TagSet, error) {
	if s == "" {
		return nil, nil
	}
	fields := strings.Split(s, ",")
	set := make(TagSet, 0, len(fields))
	for _, f := range fields {
		name, value, ok := strings.Cut(f, ".")
		if !ok {
			set = append(set, Tag{Name: f, Value: 0})
			continue
		}
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("tag %q: %w", f, err)
		}
		set = append(set, Tag{Name: name, Value: n})
	}
	return set.sorted(), nil
}
