// Package config implements the YAML-plus-environment configuration
// loader SPEC_FULL.md calls for, grounded on
// configuration/configuration.go's versioned top-level struct and
// configuration/parser.go's reflection-driven env var overlay (both kept
// as the ambient parsing machinery; parser.go is reused verbatim here
// since it is generic over any target struct, not registry-specific).
// The fields themselves describe this system's components -- object
// store, catalogs, solver defaults, the remote HTTP surface, the FUSE
// mount -- in place of the teacher's HTTP registry server sections.
package config

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"time"
)

// UnmarshalYAML validates that a parsed version string has both a major
// and minor component.
func (v *Version) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	nv := Version(s)
	if _, err := nv.major(); err != nil {
		return err
	}
	if _, err := nv.minor(); err != nil {
		return err
	}
	*v = nv
	return nil
}

// Config is a versioned top-level configuration, loaded from a YAML
// document and optionally overridden by FORGE_-prefixed environment
// variables (see Parse).
type Config struct {
	Version Version `yaml:"version"`

	Log      Log      `yaml:"log,omitempty"`
	Store    Store    `yaml:"store"`
	Catalogs []Catalog `yaml:"catalogs,omitempty"`
	Solve    Solve    `yaml:"solve,omitempty"`
	Build    Build    `yaml:"build,omitempty"`
	Remote   Remote   `yaml:"remote,omitempty"`
	FUSE     FUSE     `yaml:"fuse,omitempty"`
}

// Log configures the structured logger every component pulls from
// internal/dcontext.
type Log struct {
	Level     Loglevel `yaml:"level,omitempty"`
	Formatter string   `yaml:"formatter,omitempty"`
}

// Store configures the local object graph store (spec.md §4.C) a
// cmd/forge invocation operates against.
type Store struct {
	// Root is the filesystem root a storagedriver/filesystem.Driver is
	// rooted at.
	Root string `yaml:"root"`

	Cache Cache `yaml:"cache,omitempty"`
}

// Cache selects and configures the graph/cache.Provider backing a
// Store's object-bytes/recipe/tag-resolution/tag-listing caches.
type Cache struct {
	// Kind is "memory" (the default) or "redis".
	Kind     string        `yaml:"kind,omitempty"`
	Capacity int           `yaml:"capacity,omitempty"`
	Redis    RedisOptions  `yaml:"redis,omitempty"`
	TTL      time.Duration `yaml:"ttl,omitempty"`
}

// RedisOptions configures graph/cache.NewRedis when Cache.Kind is
// "redis".
type RedisOptions struct {
	Addr   string `yaml:"addr,omitempty"`
	Prefix string `yaml:"prefix,omitempty"`
}

// Catalog is one named, path-rooted recipe/spec catalog the solver can
// draw candidates from.
type Catalog struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// Solve holds default solve.Options values; no cmd/forge subcommand
// reads it.
type Solve struct {
	BinaryOnly bool `yaml:"binaryonly,omitempty"`
	MaxSteps   int  `yaml:"maxsteps,omitempty"`
}

// Build configures where builder coordination (build.Engine) stages
// its rendered environments.
type Build struct {
	WorkDir string `yaml:"workdir,omitempty"`
}

// Remote configures the read-only HTTP surface (remote/) a store can be
// served over, and/or the address of one to sync from.
type Remote struct {
	// Addr is the bind address for "forge serve".
	Addr string `yaml:"addr,omitempty"`
	// SourceURL is a remote.Client base URL used as a sync/repair
	// source when sync's --source URL flag is not given.
	SourceURL string `yaml:"sourceurl,omitempty"`
}

// FUSE configures "forge mount".
type FUSE struct {
	AllowOther bool `yaml:"allowother,omitempty"`
}

// Loglevel is the level at which operations are logged: error, warn,
// info, or debug.
type Loglevel string

func (l *Loglevel) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	switch s {
	case "", "error", "warn", "info", "debug":
	default:
		return fmt.Errorf("config: invalid log level %q", s)
	}
	*l = Loglevel(s)
	return nil
}

// v0_1Config is a Version 0.1 Config struct -- aliased to Config since
// it is the only version this loader currently parses.
type v0_1Config Config

// CurrentVersion is the most recent Version Parse accepts.
var CurrentVersion = MajorMinorVersion(0, 1)

// Parse reads a YAML configuration document from rd and overlays any
// matching FORGE_-prefixed environment variables (Config.Store.Root ->
// FORGE_STORE_ROOT, and so on, following parser.go's field-path scheme).
func Parse(rd io.Reader) (*Config, error) {
	in, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}

	p := NewParser("FORGE", []VersionedParseInfo{
		{
			Version: MajorMinorVersion(0, 1),
			ParseAs: reflect.TypeOf(v0_1Config{}),
			ConversionFunc: func(c interface{}) (interface{}, error) {
				v01, ok := c.(*v0_1Config)
				if !ok {
					return nil, fmt.Errorf("config: expected *v0_1Config, got %#v", c)
				}
				if v01.Log.Level == "" {
					v01.Log.Level = "info"
				}
				if v01.Store.Root == "" {
					return nil, errors.New("config: store.root is required")
				}
				if v01.Store.Cache.Kind == "" {
					v01.Store.Cache.Kind = "memory"
				}
				if v01.Store.Cache.Capacity <= 0 {
					v01.Store.Cache.Capacity = 1024
				}
				if v01.Solve.MaxSteps <= 0 {
					v01.Solve.MaxSteps = 10000
				}
				return (*Config)(v01), nil
			},
		},
	})

	cfg := new(Config)
	if err := p.Parse(in, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
