package ident

import (
	"fmt"
	"strings"

	"github.com/forgepkg/forge/version"
)

// ParseRequest parses a request string of the form
// "[<repo>/]<name>[:<components>][/<range>[,<range>...]][/<build>]"
// plus an optional "@<stage>" suffix selecting a test stage. isRepo
// decides whether the first path segment names a configured repository
// rather than the package itself -- the grammar alone cannot
// distinguish "myrepo/mypkg" from a bare two-part path, so the caller's
// repository registry breaks the tie.
func ParseRequest(s string, isRepo func(string) bool) (PkgRequest, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return PkgRequest{}, fmt.Errorf("ident: empty request")
	}

	var stage *Stage
	if i := strings.LastIndexByte(s, '@'); i >= 0 {
		st, err := parseStage(s[i+1:])
		if err != nil {
			return PkgRequest{}, err
		}
		stage = &st
		s = s[:i]
	}

	parts := strings.Split(s, "/")
	idx := 0
	var repo string
	if len(parts) > 1 && isRepo != nil && isRepo(parts[0]) {
		repo = parts[0]
		idx = 1
	}
	if idx >= len(parts) {
		return PkgRequest{}, fmt.Errorf("ident: request %q has no package name", s)
	}

	nameAndComponents := parts[idx]
	idx++
	name, components, err := splitNameAndComponents(nameAndComponents)
	if err != nil {
		return PkgRequest{}, fmt.Errorf("ident: request %q: %w", s, err)
	}

	var rng version.Ranged
	if idx < len(parts) {
		rng, err = version.ParseRange(parts[idx])
		if err != nil {
			return PkgRequest{}, fmt.Errorf("ident: request %q: version range: %w", s, err)
		}
		idx++
	}

	var build *Build
	if idx < len(parts) {
		b := parseBuildSegment(parts[idx])
		build = &b
		idx++
	}

	if idx != len(parts) {
		return PkgRequest{}, fmt.Errorf("ident: request %q has trailing segments", s)
	}

	pkg := RangeIdent{
		Repository: repo,
		Name:       name,
		Components: components,
		Version:    rng,
		Build:      build,
	}
	req := NewPkgRequest(pkg)
	req.Stage = stage
	return req, nil
}

func splitNameAndComponents(s string) (Name, ComponentSet, error) {
	name, comps, hasComps := strings.Cut(s, ":")
	if err := Name(name).Validate(); err != nil {
		return "", nil, err
	}
	if !hasComps || comps == "" {
		return Name(name), nil, nil
	}
	return Name(name), NewComponentSet(strings.Split(comps, ",")...), nil
}

func parseBuildSegment(s string) Build {
	switch {
	case s == "src" || s == "source":
		return SourceBuild
	case strings.HasPrefix(s, "embedded-by-"):
		return Build{Kind: BuildEmbedded, Component: strings.TrimPrefix(s, "embedded-by-")}
	default:
		return NewBuildID(s)
	}
}

func parseStage(s string) (Stage, error) {
	switch strings.ToLower(s) {
	case "src", "source", "sources":
		return StageSources, nil
	case "build":
		return StageBuild, nil
	case "install":
		return StageInstall, nil
	default:
		return 0, fmt.Errorf("ident: unknown test stage %q", s)
	}
}
