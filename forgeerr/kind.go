// Package forgeerr defines the named error kinds every other package
// returns (spec.md §7), grouped the way registry/api/errcode groups its
// error codes, but without the HTTP-status baggage: this system has no
// wire-level API, so a Kind exists only to let callers branch on "what
// went wrong" via errors.As/Is rather than string-matching messages.
package forgeerr

import "fmt"

// Kind discriminates the named error conditions this system can surface.
type Kind int

const (
	// UnknownObject is returned when a digest has no corresponding
	// object in the graph store.
	UnknownObject Kind = iota + 1
	// UnknownReference is returned when a tag spec resolves to nothing.
	UnknownReference
	// InvalidPackageSpec is returned when a recipe or spec YAML fails to
	// decode or fails schema validation.
	InvalidPackageSpec
	// PackageNotFound is returned by catalog lookups during solving or
	// publishing.
	PackageNotFound
	// VersionExists is returned when publishing would overwrite an
	// existing immutable version.
	VersionExists
	// StorageRead wraps a read-path I/O failure with its offending path.
	StorageRead
	// StorageWrite wraps a write-path I/O failure with its offending
	// path.
	StorageWrite
	// IncompatibleReason wraps a structured reason one package or
	// request failed to satisfy another.
	IncompatibleReason
	// SolverInterrupted is returned when a solve is cut short by a
	// wall-clock timeout or a user signal.
	SolverInterrupted
	// OutOfOptions is returned when a solver fork exhausts every
	// candidate for a request.
	OutOfOptions
	// Fatal marks an invariant violation -- a bug, not a recoverable
	// condition.
	Fatal
)

func (k Kind) String() string {
	switch k {
	case UnknownObject:
		return "UnknownObject"
	case UnknownReference:
		return "UnknownReference"
	case InvalidPackageSpec:
		return "InvalidPackageSpec"
	case PackageNotFound:
		return "PackageNotFound"
	case VersionExists:
		return "VersionExists"
	case StorageRead:
		return "StorageRead"
	case StorageWrite:
		return "StorageWrite"
	case IncompatibleReason:
		return "IncompatibleReason"
	case SolverInterrupted:
		return "SolverInterrupted"
	case OutOfOptions:
		return "OutOfOptions"
	case Fatal:
		return "Fatal"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}
