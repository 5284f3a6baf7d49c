package forgeerr

import "fmt"

// IncompatibleReasonKind enumerates every way one package or request can
// fail to satisfy another -- used both by validators deciding whether a
// candidate is usable and by the formatter explaining a solve failure to
// a human.
type IncompatibleReasonKind int

const (
	ReasonNameMismatch IncompatibleReasonKind = iota
	ReasonDeprecatedBuild
	ReasonMissingComponent
	ReasonVersionOutOfRange
	ReasonVarOptionMismatch
	ReasonBuildOptionMismatch
	ReasonPreReleaseExcluded
	ReasonCompatibilityBroken
)

func (k IncompatibleReasonKind) String() string {
	switch k {
	case ReasonNameMismatch:
		return "name mismatch"
	case ReasonDeprecatedBuild:
		return "build is deprecated"
	case ReasonMissingComponent:
		return "missing component"
	case ReasonVersionOutOfRange:
		return "version out of range"
	case ReasonVarOptionMismatch:
		return "var option mismatch"
	case ReasonBuildOptionMismatch:
		return "build option mismatch"
	case ReasonPreReleaseExcluded:
		return "pre-release excluded"
	case ReasonCompatibilityBroken:
		return "compatibility broken"
	default:
		return fmt.Sprintf("IncompatibleReasonKind(%d)", int(k))
	}
}

// IncompatibleReasonDetail is the structured payload behind an
// IncompatibleReason error: a kind plus whatever free-form detail
// distinguishes this instance (the mismatched name, the missing
// component's name, the range that rejected a version, ...).
type IncompatibleReasonDetail struct {
	Reason IncompatibleReasonKind
	Detail string
}

func (r IncompatibleReasonDetail) String() string {
	if r.Detail == "" {
		return r.Reason.String()
	}
	return fmt.Sprintf("%s: %s", r.Reason, r.Detail)
}

// IncompatibleReasonError builds the *Error wrapping an
// IncompatibleReasonDetail, for contexts (errors.Is/As) where the
// stringly-typed detail isn't enough.
func IncompatibleReasonError(reason IncompatibleReasonKind, detail string) *Error {
	d := IncompatibleReasonDetail{Reason: reason, Detail: detail}
	e := newErr(IncompatibleReason, map[string]string{"reason": reason.String()}, "%s", d.String())
	e.cause = reasonCause{d}
	return e
}

// reasonCause lets callers recover the structured IncompatibleReasonDetail
// via errors.As without exporting a type that also implements error in a
// way that could be mistaken for a top-level error kind.
type reasonCause struct{ detail IncompatibleReasonDetail }

func (r reasonCause) Error() string { return r.detail.String() }

// ReasonDetail extracts the IncompatibleReasonDetail from err, if any.
func ReasonDetail(err error) (IncompatibleReasonDetail, bool) {
	fe, ok := err.(*Error)
	if !ok || fe.Kind != IncompatibleReason {
		return IncompatibleReasonDetail{}, false
	}
	rc, ok := fe.cause.(reasonCause)
	if !ok {
		return IncompatibleReasonDetail{}, false
	}
	return rc.detail, true
}
