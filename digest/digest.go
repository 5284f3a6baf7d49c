// Package digest provides the fixed-width content digest used throughout the
// object graph. Equality of digest implies equality of content (spec.md
// §3 "Digest").
package digest

import (
	"fmt"
	"io"

	"github.com/opencontainers/go-digest"
)

// Digest identifies the content of an object or payload by cryptographic
// hash. It is a thin, validated wrapper around opencontainers/go-digest so
// that the rest of the system works with one canonical digest type instead
// of scattering algorithm-dispatch logic across packages.
type Digest string

// Algorithm is the only digest algorithm this store currently supports.
// The wrapping keeps the door open for a second algorithm the way
// opencontainers/go-digest itself supports several, without us having to
// plumb an algorithm parameter through every call site today.
const Algorithm = digest.SHA256

// Empty is the digest of the empty byte string, used as the zero-value
// placeholder for "no content".
var Empty = FromBytes(nil)

// FromBytes digests p and returns the result.
func FromBytes(p []byte) Digest {
	return Digest(Algorithm.FromBytes(p).String())
}

// FromReader consumes rd until EOF and returns its digest.
func FromReader(rd io.Reader) (Digest, error) {
	d, err := Algorithm.FromReader(rd)
	if err != nil {
		return "", err
	}
	return Digest(d.String()), nil
}

// Verifier returns an io.Writer that computes a running digest; compare its
// final Digest() against an expected value to validate a payload as it
// streams, the same shape as commit_blob's "hash while streaming" contract.
type Verifier struct {
	d digest.Digester
}

// NewVerifier creates a Verifier for the canonical algorithm.
func NewVerifier() *Verifier {
	return &Verifier{d: Algorithm.Digester()}
}

func (v *Verifier) Write(p []byte) (int, error) {
	return v.d.Hash().Write(p)
}

// Digest returns the digest of everything written so far.
func (v *Verifier) Digest() Digest {
	return Digest(v.d.Digest().String())
}

// Validate parses and checks d for the expected format and a supported
// algorithm, returning ErrDigestInvalidFormat, ErrDigestUnsupportedAlgorithm,
// or any other error go-digest's Parse reports unchanged.
func Validate(d Digest) error {
	parsed, err := digest.Parse(string(d))
	if err != nil {
		if err == digest.ErrDigestInvalidFormat {
			return ErrDigestInvalidFormat
		}
		return err
	}
	if !parsed.Algorithm().Available() {
		return ErrDigestUnsupportedAlgorithm
	}
	return nil
}

// String satisfies fmt.Stringer.
func (d Digest) String() string {
	return string(d)
}

// Encoded returns the hex-encoded hash portion of d, without the
// algorithm prefix, or "" if d is not well-formed.
func (d Digest) Encoded() string {
	parsed, err := digest.Parse(string(d))
	if err != nil {
		return ""
	}
	return parsed.Encoded()
}

// Algo returns the algorithm prefix of d (e.g. "sha256"), or "" if d is
// not well-formed.
func (d Digest) Algo() string {
	parsed, err := digest.Parse(string(d))
	if err != nil {
		return ""
	}
	return string(parsed.Algorithm())
}

// Errors returned by Validate and by parsers that accept a Digest.
var (
	ErrDigestInvalidFormat        = fmt.Errorf("invalid digest format")
	ErrDigestUnsupportedAlgorithm = fmt.Errorf("unsupported digest algorithm")
)
