// Package ident implements the package/version/build identifier model:
// names, builds, components with their "uses" dependency graph, range
// identifiers used in requests, and the tag-path encoding that maps an
// identifier onto the object graph's tag namespace (spec.md §3, §4.A,
// §6).
package ident

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/forgepkg/forge/version"
)

var embeddedBase32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// Name is a validated package name: lowercase ASCII letters, digits,
// hyphens and underscores, matching the same restrained character set the
// object graph's tag paths rely on to stay filesystem-safe.
type Name string

func (n Name) String() string { return string(n) }

// Validate reports whether n is well-formed.
func (n Name) Validate() error {
	if n == "" {
		return fmt.Errorf("ident: empty package name")
	}
	for i := 0; i < len(n); i++ {
		c := n[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return fmt.Errorf("ident: invalid character %q in package name %q", c, n)
		}
	}
	return nil
}

// BuildKind discriminates the three shapes a Build may take.
type BuildKind int

const (
	// BuildSource marks the source package itself, prior to any
	// option resolution.
	BuildSource BuildKind = iota
	// BuildID marks a concrete binary build, identified by a
	// digest-like build hash derived from its resolved options.
	BuildID
	// BuildEmbedded marks a stub build that exists only as a pointer
	// to a component of a different, "parent" package build.
	BuildEmbedded
)

// Build identifies the built-ness of a package: the source form, a
// concrete binary build keyed by a digest-like hash, or an embedded stub
// that points at a component of another package's build.
type Build struct {
	Kind BuildKind

	// ID is populated for BuildID: the build hash as a bare string with
	// no algorithm prefix; it identifies an option set rather than file
	// content.
	ID string

	// Parent and Component are populated for BuildEmbedded.
	Parent    *Ident
	Component string
}

// SourceBuild is the shared singleton identifying the source form.
var SourceBuild = Build{Kind: BuildSource}

// NewBuildID wraps a build hash as a concrete binary build identifier.
func NewBuildID(id string) Build { return Build{Kind: BuildID, ID: id} }

// NewEmbeddedBuild identifies a component of parent as an embedded build.
func NewEmbeddedBuild(parent *Ident, component string) Build {
	return Build{Kind: BuildEmbedded, Parent: parent, Component: component}
}

func (b Build) String() string {
	switch b.Kind {
	case BuildSource:
		return "src"
	case BuildEmbedded:
		return "embedded-by-" + base32Ident(b.Parent)
	default:
		return b.ID
	}
}

// IsSource reports whether b is the source build.
func (b Build) IsSource() bool { return b.Kind == BuildSource }

// VersionIdent identifies a package at a given version, without
// committing to a build -- used for recipes, which exist one per
// version rather than one per build.
type VersionIdent struct {
	Name    Name
	Version version.Version
}

func (v VersionIdent) String() string {
	return fmt.Sprintf("%s/%s", v.Name, v.Version)
}

// Ident is the full package identifier: name, version, and build.
type Ident struct {
	Name    Name
	Version version.Version
	Build   Build
}

func (i Ident) VersionIdent() VersionIdent {
	return VersionIdent{Name: i.Name, Version: i.Version}
}

func (i Ident) String() string {
	if i.Build.IsSource() {
		return fmt.Sprintf("%s/%s", i.Name, i.Version)
	}
	return fmt.Sprintf("%s/%s/%s", i.Name, i.Version, i.Build)
}

// base32Ident renders a parent identifier for use inside an embedded
// build's tag segment, base32-encoded so it stays a single filesystem-
// safe path component regardless of the characters the parent's own
// string form contains.
func base32Ident(parent *Ident) string {
	if parent == nil {
		return "unknown"
	}
	return strings.ToLower(embeddedBase32.EncodeToString([]byte(parent.String())))
}
