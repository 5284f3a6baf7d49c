package forgeerr

import (
	"errors"
	"fmt"
)

// Error is the concrete type behind every named error kind. Detail holds
// whatever identifying values the kind carries (a digest string, a
// package identifier, a storage path, ...) purely for display -- callers
// that need to act on a specific field should construct and compare
// against the kind-specific constructor's arguments, not parse Detail.
type Error struct {
	Kind    Kind
	Message string
	Detail  map[string]string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is reports whether err is a *Error of the given kind, looking through
// any wrapping via errors.As.
func Is(err error, kind Kind) bool {
	var fe *Error
	if !errors.As(err, &fe) {
		return false
	}
	return fe.Kind == kind
}

func newErr(kind Kind, detail map[string]string, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Detail: detail}
}

// UnknownObjectError reports that digest has no object in the graph store.
func UnknownObjectError(digest string) *Error {
	return newErr(UnknownObject, map[string]string{"digest": digest}, "no object with digest %s", digest)
}

// UnknownReferenceError reports that a tag spec did not resolve.
func UnknownReferenceError(name string) *Error {
	return newErr(UnknownReference, map[string]string{"name": name}, "no tag matching %q", name)
}

// InvalidPackageSpecError reports a recipe/spec YAML decode or schema
// validation failure.
func InvalidPackageSpecError(ident, message string) *Error {
	return newErr(InvalidPackageSpec, map[string]string{"ident": ident}, "%s: %s", ident, message)
}

// PackageNotFoundError reports a catalog miss during solving or publishing.
func PackageNotFoundError(ident string) *Error {
	return newErr(PackageNotFound, map[string]string{"ident": ident}, "package not found: %s", ident)
}

// VersionExistsError reports an attempt to publish over an existing
// immutable version.
func VersionExistsError(ident string) *Error {
	return newErr(VersionExists, map[string]string{"ident": ident}, "version already exists: %s", ident)
}

// StorageReadError wraps a read-path I/O failure with the operation and
// path that caused it.
func StorageReadError(op, path string, cause error) *Error {
	e := newErr(StorageRead, map[string]string{"op": op, "path": path}, "%s %s", op, path)
	e.cause = cause
	return e
}

// StorageWriteError wraps a write-path I/O failure with the operation and
// path that caused it.
func StorageWriteError(op, path string, cause error) *Error {
	e := newErr(StorageWrite, map[string]string{"op": op, "path": path}, "%s %s", op, path)
	e.cause = cause
	return e
}

// SolverInterruptedError reports a wall-clock timeout or user signal
// cutting a solve short.
func SolverInterruptedError(message string) *Error {
	return newErr(SolverInterrupted, nil, "%s", message)
}

// OutOfOptionsError reports that a solver fork exhausted every candidate
// for request, with free-form notes on what was tried.
func OutOfOptionsError(request string, notes []string) *Error {
	e := newErr(OutOfOptions, map[string]string{"request": request}, "out of options for %s", request)
	if len(notes) > 0 {
		e.Message += ": " + fmt.Sprint(notes)
	}
	return e
}

// Fatalf reports an invariant violation.
func Fatalf(format string, args ...interface{}) *Error {
	return newErr(Fatal, nil, format, args...)
}
