package version

import "fmt"

// Ranged is satisfied by every version range kind: the caret/semver
// range, wildcards, the "lowest specified" tilde range, inequalities,
// exact/doubly-exact pins and their negations, compat-tier ranges, and
// intersecting filters of any of the above.
type Ranged interface {
	fmt.Stringer

	// GreaterOrEqualTo returns the inclusive lower bound of the range,
	// or ok=false if the range is unbounded below.
	GreaterOrEqualTo() (v Version, ok bool)

	// LessThan returns the exclusive upper bound of the range, or
	// ok=false if the range is unbounded above.
	LessThan() (v Version, ok bool)

	// IsApplicable reports whether v has the shape this range expects
	// (e.g. enough parts specified for a wildcard to match against).
	IsApplicable(v Version) Compatibility

	// IsSatisfiedBy reports whether a candidate built with the given
	// compat declaration satisfies this range when used as a request.
	IsSatisfiedBy(candidate Version, compat Compat) Compatibility

	// Intersects reports whether this range and other can describe any
	// version in common.
	Intersects(other Ranged) Compatibility

	// Contains reports whether every version matched by other is also
	// matched by this range.
	Contains(other Ranged) Compatibility
}

// pinner is implemented by range kinds that match exactly one concrete
// version (Exact and DoublyExact), letting CompatRange.Contains apply
// the stricter pinned-point rule described in its own doc.
type pinner interface {
	Pin() (Version, bool)
}

func bumpLast(v Version) Version {
	parts := append([]uint64(nil), v.Parts...)
	if len(parts) == 0 {
		parts = []uint64{1}
	} else {
		parts[len(parts)-1]++
	}
	return Version{Parts: parts}
}

// boundsOf is a shorthand used by the generic bound comparisons below.
func boundsOf(r Ranged) (lo Version, hasLo bool, hi Version, hasHi bool) {
	lo, hasLo = r.GreaterOrEqualTo()
	hi, hasHi = r.LessThan()
	return
}

// defaultIntersects implements the common "do these bound intervals
// overlap" check shared by every range kind that doesn't need bespoke
// logic (CompatRange overrides this because its satisfaction test isn't
// bound-shaped).
func defaultIntersects(r, other Ranged) Compatibility {
	rLo, rHasLo, rHi, rHasHi := boundsOf(r)
	oLo, oHasLo, oHi, oHasHi := boundsOf(other)
	if rHasHi && oHasLo && oLo.Compare(rHi) >= 0 {
		return Incompatible("%s and %s do not overlap", r, other)
	}
	if oHasHi && rHasLo && rLo.Compare(oHi) >= 0 {
		return Incompatible("%s and %s do not overlap", r, other)
	}
	return Ok
}

// defaultContains implements the common "is other's interval a subset of
// r's interval" check.
func defaultContains(r, other Ranged) Compatibility {
	if p, ok := r.(pinner); ok {
		if pv, isPin := p.Pin(); isPin {
			if op, ok := other.(pinner); ok {
				if opv, isOpPin := op.Pin(); isOpPin {
					if !pv.EqualExact(opv) {
						return Incompatible("%s does not contain %s", r, other)
					}
					return Ok
				}
			}
		}
	}
	rLo, rHasLo, rHi, rHasHi := boundsOf(r)
	oLo, oHasLo, _, _ := boundsOf(other)
	if rHasLo {
		if !oHasLo || oLo.Compare(rLo) < 0 {
			return Incompatible("%s does not contain %s: lower bound escapes", r, other)
		}
	}
	if rHasHi {
		oHi, ok := other.LessThan()
		if !ok || oHi.Compare(rHi) > 0 {
			return Incompatible("%s does not contain %s: upper bound escapes", r, other)
		}
	}
	return Ok
}

// boundCheck reports whether v falls within r's [lo, hi) interval,
// the generic IsApplicable/IsSatisfiedBy test for simple range kinds.
func boundCheck(r Ranged, v Version) Compatibility {
	lo, hasLo := r.GreaterOrEqualTo()
	if hasLo && v.Compare(lo) < 0 {
		return Incompatible("%s is below %s", v, r)
	}
	hi, hasHi := r.LessThan()
	if hasHi && v.Compare(hi) >= 0 {
		return Incompatible("%s is at or above %s", v, r)
	}
	return Ok
}
