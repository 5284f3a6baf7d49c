package ident

import (
	"fmt"
	"strings"
)

// tagPathRoot is the fixed namespace prefix every tag in this system
// lives under.
const tagPathRoot = "spk"

// TagPath is a type to mark structs as tag path specs; keeping the spec
// types separate from the string-formatting logic below lets a single
// closed switch in Format own every path layout decision, the same
// separation registry/storage/paths.go uses for its pathSpec/pathMapper
// split.
type TagPath interface {
	tagPath()
}

// PkgTagPath is the legacy single tag for a build:
// spk/pkg/<name>/<version>/<build>
type PkgTagPath struct {
	Ident Ident
}

func (PkgTagPath) tagPath() {}

// PkgComponentTagPath is the per-component tag for a build:
// spk/pkg/<name>/<version>/<build>/<component>
type PkgComponentTagPath struct {
	Ident     Ident
	Component string
}

func (PkgComponentTagPath) tagPath() {}

// SpecTagPath is a built package's spec YAML:
// spk/spec/<name>/<version>/<build>
type SpecTagPath struct {
	Ident Ident
}

func (SpecTagPath) tagPath() {}

// RecipeTagPath is a recipe YAML, which exists once per version with no
// build: spk/spec/<name>/<version>
type RecipeTagPath struct {
	VersionIdent VersionIdent
}

func (RecipeTagPath) tagPath() {}

// EmbeddedSpecTagPath is an embedded-package stub:
// spk/spec/<name>/<version>/embedded-by-<b32id>
type EmbeddedSpecTagPath struct {
	VersionIdent VersionIdent
	Parent       *Ident
}

func (EmbeddedSpecTagPath) tagPath() {}

// RepoMetaTagPath is the per-repository metadata tag: spk/repo
type RepoMetaTagPath struct{}

func (RepoMetaTagPath) tagPath() {}

// Format renders spec as its persisted tag path string.
func Format(spec TagPath) (string, error) {
	switch v := spec.(type) {
	case PkgTagPath:
		return join("pkg", string(v.Ident.Name), encodeVersionSegment(v.Ident.Version), v.Ident.Build.String()), nil
	case PkgComponentTagPath:
		return join("pkg", string(v.Ident.Name), encodeVersionSegment(v.Ident.Version), v.Ident.Build.String(), v.Component), nil
	case SpecTagPath:
		return join("spec", string(v.Ident.Name), encodeVersionSegment(v.Ident.Version), v.Ident.Build.String()), nil
	case RecipeTagPath:
		return join("spec", string(v.VersionIdent.Name), encodeVersionSegment(v.VersionIdent.Version)), nil
	case EmbeddedSpecTagPath:
		return join("spec", string(v.VersionIdent.Name), encodeVersionSegment(v.VersionIdent.Version), "embedded-by-"+base32Ident(v.Parent)), nil
	case RepoMetaTagPath:
		return join("repo"), nil
	default:
		return "", fmt.Errorf("ident: unknown tag path spec %#v", v)
	}
}

func join(segments ...string) string {
	return tagPathRoot + "/" + strings.Join(segments, "/")
}

// encodeVersionSegment makes a Version safe as a single tag path
// segment: "+" (the post-release separator) is encoded as ".." since a
// bare "+" is awkward across storage backends, while "." is already the
// part separator and round-trips unambiguously alongside it.
func encodeVersionSegment(v interface{ String() string }) string {
	return strings.ReplaceAll(v.String(), "+", "..")
}

// decodeVersionSegment reverses encodeVersionSegment.
func decodeVersionSegment(s string) string {
	return strings.ReplaceAll(s, "..", "+")
}
