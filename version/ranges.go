package version

import "fmt"

// SemverRange is "^X.Y.Z": matches versions no lower than Minimum and
// below the next change that Minimum's own leftmost nonzero part would
// consider breaking -- the usual caret semantics, generalized to however
// many parts Minimum specifies.
type SemverRange struct {
	Minimum Version
}

func (r SemverRange) String() string { return "^" + r.Minimum.String() }

func (r SemverRange) GreaterOrEqualTo() (Version, bool) { return r.Minimum, true }

func (r SemverRange) LessThan() (Version, bool) {
	parts := r.Minimum.Parts
	bump := len(parts) - 1
	for i, p := range parts {
		if p != 0 {
			bump = i
			break
		}
	}
	upper := make([]uint64, bump+1)
	copy(upper, parts[:bump])
	upper[bump] = parts[bump] + 1
	return Version{Parts: upper}, true
}

func (r SemverRange) IsApplicable(v Version) Compatibility { return boundCheck(r, v) }
func (r SemverRange) IsSatisfiedBy(candidate Version, _ Compat) Compatibility {
	return boundCheck(r, candidate)
}
func (r SemverRange) Intersects(other Ranged) Compatibility { return defaultIntersects(r, other) }
func (r SemverRange) Contains(other Ranged) Compatibility   { return defaultContains(r, other) }

// WildcardRange is "1.2.*": each position is either a fixed value or a
// wildcard that matches any value at that position.
type WildcardRange struct {
	Parts []*uint64
}

func (r WildcardRange) String() string {
	s := ""
	for i, p := range r.Parts {
		if i > 0 {
			s += "."
		}
		if p == nil {
			s += "*"
		} else {
			s += fmt.Sprintf("%d", *p)
		}
	}
	return s
}

func (r WildcardRange) GreaterOrEqualTo() (Version, bool) {
	parts := make([]uint64, len(r.Parts))
	for i, p := range r.Parts {
		if p != nil {
			parts[i] = *p
		}
	}
	return Version{Parts: parts}, true
}

func (r WildcardRange) LessThan() (Version, bool) {
	lastFixed := -1
	for i, p := range r.Parts {
		if p != nil {
			lastFixed = i
		}
	}
	if lastFixed == -1 {
		return Version{}, false
	}
	parts := make([]uint64, lastFixed+1)
	for i := 0; i <= lastFixed; i++ {
		if r.Parts[i] != nil {
			parts[i] = *r.Parts[i]
		}
	}
	parts[lastFixed]++
	return Version{Parts: parts}, true
}

func (r WildcardRange) IsApplicable(v Version) Compatibility {
	for i, p := range r.Parts {
		if p == nil {
			continue
		}
		if v.Part(i) != *p {
			return Incompatible("%s does not match %s at part %d", v, r, i)
		}
	}
	return Ok
}

func (r WildcardRange) IsSatisfiedBy(candidate Version, _ Compat) Compatibility {
	return r.IsApplicable(candidate)
}
func (r WildcardRange) Intersects(other Ranged) Compatibility { return defaultIntersects(r, other) }
func (r WildcardRange) Contains(other Ranged) Compatibility   { return defaultContains(r, other) }

// LowestSpecifiedRange is "~X.Y": at least X.Y.0 and anything with the
// same parts up to Specified precision, i.e. free to increment any part
// beyond Specified but not the part at Specified itself.
type LowestSpecifiedRange struct {
	Base      Version
	Specified int
}

func (r LowestSpecifiedRange) String() string { return "~" + r.Base.String() }

func (r LowestSpecifiedRange) GreaterOrEqualTo() (Version, bool) { return r.Base, true }

func (r LowestSpecifiedRange) LessThan() (Version, bool) {
	idx := r.Specified - 1
	if idx < 0 {
		idx = 0
	}
	parts := make([]uint64, idx+1)
	copy(parts, r.Base.Parts)
	parts[idx]++
	return Version{Parts: parts}, true
}

func (r LowestSpecifiedRange) IsApplicable(v Version) Compatibility { return boundCheck(r, v) }
func (r LowestSpecifiedRange) IsSatisfiedBy(candidate Version, _ Compat) Compatibility {
	return boundCheck(r, candidate)
}
func (r LowestSpecifiedRange) Intersects(other Ranged) Compatibility {
	return defaultIntersects(r, other)
}
func (r LowestSpecifiedRange) Contains(other Ranged) Compatibility { return defaultContains(r, other) }

// GreaterThanRange is ">X.Y.Z" (OrEqual=false) or ">=X.Y.Z" (OrEqual=true).
type GreaterThanRange struct {
	Bound   Version
	OrEqual bool
}

func (r GreaterThanRange) String() string {
	if r.OrEqual {
		return ">=" + r.Bound.String()
	}
	return ">" + r.Bound.String()
}

func (r GreaterThanRange) GreaterOrEqualTo() (Version, bool) {
	if r.OrEqual {
		return r.Bound, true
	}
	return bumpLast(r.Bound), true
}
func (r GreaterThanRange) LessThan() (Version, bool) { return Version{}, false }

func (r GreaterThanRange) IsApplicable(v Version) Compatibility { return boundCheck(r, v) }
func (r GreaterThanRange) IsSatisfiedBy(candidate Version, _ Compat) Compatibility {
	return boundCheck(r, candidate)
}
func (r GreaterThanRange) Intersects(other Ranged) Compatibility { return defaultIntersects(r, other) }
func (r GreaterThanRange) Contains(other Ranged) Compatibility   { return defaultContains(r, other) }

// LessThanRange is "<X.Y.Z" (OrEqual=false) or "<=X.Y.Z" (OrEqual=true).
type LessThanRange struct {
	Bound   Version
	OrEqual bool
}

func (r LessThanRange) String() string {
	if r.OrEqual {
		return "<=" + r.Bound.String()
	}
	return "<" + r.Bound.String()
}

func (r LessThanRange) GreaterOrEqualTo() (Version, bool) { return Version{}, false }
func (r LessThanRange) LessThan() (Version, bool) {
	if r.OrEqual {
		return bumpLast(r.Bound), true
	}
	return r.Bound, true
}

func (r LessThanRange) IsApplicable(v Version) Compatibility { return boundCheck(r, v) }
func (r LessThanRange) IsSatisfiedBy(candidate Version, _ Compat) Compatibility {
	return boundCheck(r, candidate)
}
func (r LessThanRange) Intersects(other Ranged) Compatibility { return defaultIntersects(r, other) }
func (r LessThanRange) Contains(other Ranged) Compatibility   { return defaultContains(r, other) }

// ExactVersion is "=V" (Doubly=false) or "==V" (Doubly=true). A plain
// "=V" matches any candidate whose parts and pre-release tags equal V's,
// ignoring the candidate's post-release tags when V itself specifies
// none; "==V" additionally requires the post-release tag sets to match
// member for member. This is the source of spec.md's "=1.0.0 is
// satisfied by 1.0.0+r.1 but ==1.0.0 is not" requirement.
type ExactVersion struct {
	Version Version
	Doubly  bool
}

func (r ExactVersion) String() string {
	if r.Doubly {
		return "==" + r.Version.String()
	}
	return "=" + r.Version.String()
}

func (r ExactVersion) Pin() (Version, bool) { return r.Version, true }

func (r ExactVersion) GreaterOrEqualTo() (Version, bool) {
	return Version{Parts: r.Version.Parts, Pre: r.Version.Pre}, true
}
func (r ExactVersion) LessThan() (Version, bool) {
	return bumpLast(Version{Parts: r.Version.Parts, Pre: r.Version.Pre}), true
}

func (r ExactVersion) IsApplicable(v Version) Compatibility { return r.matches(v) }
func (r ExactVersion) IsSatisfiedBy(candidate Version, _ Compat) Compatibility {
	return r.matches(candidate)
}

func (r ExactVersion) matches(v Version) Compatibility {
	if !partsEqual(r.Version.Parts, v.Parts) || !r.Version.Pre.Equal(v.Pre) {
		return Incompatible("%s does not match %s", v, r)
	}
	if r.Doubly {
		if !r.Version.Post.Equal(v.Post) {
			return Incompatible("%s does not match %s: post-release tags differ", v, r)
		}
		return Ok
	}
	if len(r.Version.Post) > 0 && !r.Version.Post.Equal(v.Post) {
		return Incompatible("%s does not match %s: post-release tags differ", v, r)
	}
	return Ok
}

func (r ExactVersion) Intersects(other Ranged) Compatibility {
	if other.IsSatisfiedBy(r.Version, Default()).IsOk() {
		return Ok
	}
	return defaultIntersects(r, other)
}
func (r ExactVersion) Contains(other Ranged) Compatibility { return defaultContains(r, other) }

// ExcludedVersion is "!=V" (Doubly=false) or "!==V" (Doubly=true): the
// exact negation of ExactVersion's match rule.
type ExcludedVersion struct {
	Version Version
	Doubly  bool
}

func (r ExcludedVersion) String() string {
	if r.Doubly {
		return "!==" + r.Version.String()
	}
	return "!=" + r.Version.String()
}

func (r ExcludedVersion) exact() ExactVersion { return ExactVersion{Version: r.Version, Doubly: r.Doubly} }

func (r ExcludedVersion) GreaterOrEqualTo() (Version, bool) { return Version{}, false }
func (r ExcludedVersion) LessThan() (Version, bool)         { return Version{}, false }

func (r ExcludedVersion) IsApplicable(v Version) Compatibility { return Ok }
func (r ExcludedVersion) IsSatisfiedBy(candidate Version, compat Compat) Compatibility {
	if r.exact().matches(candidate).IsOk() {
		return Incompatible("%s excludes %s", r, candidate)
	}
	return Ok
}
func (r ExcludedVersion) Intersects(other Ranged) Compatibility { return Ok }
func (r ExcludedVersion) Contains(other Ranged) Compatibility {
	if p, ok := other.(pinner); ok {
		if pv, isPin := p.Pin(); isPin {
			return r.IsSatisfiedBy(pv, Default())
		}
	}
	return Ok
}

// CompatRange is "Binary:X.Y.Z" or "API:X.Y.Z" (or a bare version, which
// parses to Binary by default): satisfied by any candidate at least as
// high as Base whose declared Compat promises the required tier across
// the positions where it differs from Base. Unlike the other range
// kinds, satisfaction isn't purely bound-shaped -- it depends on the
// candidate's own compat declaration -- so IsSatisfiedBy delegates to
// CheckCompat instead of boundCheck.
type CompatRange struct {
	Base     Version
	Required CompatRule
}

func (r CompatRange) String() string { return r.Required.rangeLabel() + ":" + r.Base.String() }

func (r CompatRule) rangeLabel() string {
	switch r {
	case API:
		return "API"
	case Binary:
		return "Binary"
	default:
		return "None"
	}
}

func (r CompatRange) GreaterOrEqualTo() (Version, bool) { return r.Base, true }
func (r CompatRange) LessThan() (Version, bool)         { return Version{}, false }

func (r CompatRange) IsApplicable(v Version) Compatibility { return boundCheck(r, v) }

func (r CompatRange) IsSatisfiedBy(candidate Version, compat Compat) Compatibility {
	return CheckCompat(compat, r.Base, candidate, r.Required)
}

func (r CompatRange) Intersects(other Ranged) Compatibility { return defaultIntersects(r, other) }

// Contains special-cases a pinned other range (Exact/DoublyExact): it is
// contained only when the pinned point equals Base exactly, including
// post-release tags. This is what makes
// CompatRange("Binary:1.2.3").Contains(Exact "=1.2.3") hold while
// Contains(Exact "=1.2.3+r.1") does not -- see spec.md's literal
// requirement for this pair.
func (r CompatRange) Contains(other Ranged) Compatibility {
	if p, ok := other.(pinner); ok {
		if pv, isPin := p.Pin(); isPin {
			if !r.Base.EqualExact(pv) {
				return Incompatible("%s does not contain %s", r, other)
			}
			return Ok
		}
	}
	return defaultContains(r, other)
}

// Filter is the intersection of every range in Ranges -- the semantics
// of comma-separated clauses in a request string ("a,b" means "satisfies
// a AND satisfies b").
type Filter struct {
	Ranges []Ranged
}

func (r Filter) String() string {
	s := ""
	for i, sub := range r.Ranges {
		if i > 0 {
			s += ","
		}
		s += sub.String()
	}
	return s
}

func (r Filter) GreaterOrEqualTo() (Version, bool) {
	var best Version
	found := false
	for _, sub := range r.Ranges {
		lo, ok := sub.GreaterOrEqualTo()
		if !ok {
			continue
		}
		if !found || lo.Compare(best) > 0 {
			best = lo
			found = true
		}
	}
	return best, found
}

func (r Filter) LessThan() (Version, bool) {
	var best Version
	found := false
	for _, sub := range r.Ranges {
		hi, ok := sub.LessThan()
		if !ok {
			continue
		}
		if !found || hi.Compare(best) < 0 {
			best = hi
			found = true
		}
	}
	return best, found
}

func (r Filter) IsApplicable(v Version) Compatibility {
	for _, sub := range r.Ranges {
		if c := sub.IsApplicable(v); !c.IsOk() {
			return c
		}
	}
	return Ok
}

func (r Filter) IsSatisfiedBy(candidate Version, compat Compat) Compatibility {
	for _, sub := range r.Ranges {
		if c := sub.IsSatisfiedBy(candidate, compat); !c.IsOk() {
			return c
		}
	}
	return Ok
}

func (r Filter) Intersects(other Ranged) Compatibility {
	for _, sub := range r.Ranges {
		if c := sub.Intersects(other); !c.IsOk() {
			return c
		}
	}
	return Ok
}

func (r Filter) Contains(other Ranged) Compatibility {
	for _, sub := range r.Ranges {
		if c := sub.Contains(other); !c.IsOk() {
			return c
		}
	}
	return Ok
}
