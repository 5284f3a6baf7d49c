package config

import (
	"strings"
	"testing"
)

const sampleConfig = `version: "0.1"
store:
  root: /var/lib/forge
catalogs:
  - name: main
    path: /var/lib/forge/catalogs/main
solve:
  maxsteps: 500
remote:
  addr: ":7890"
`

func TestParseFillsDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(sampleConfig))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Root != "/var/lib/forge" {
		t.Fatalf("Store.Root = %q", cfg.Store.Root)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("Log.Level default = %q, want info", cfg.Log.Level)
	}
	if cfg.Store.Cache.Kind != "memory" {
		t.Fatalf("Store.Cache.Kind default = %q, want memory", cfg.Store.Cache.Kind)
	}
	if cfg.Store.Cache.Capacity != 1024 {
		t.Fatalf("Store.Cache.Capacity default = %d, want 1024", cfg.Store.Cache.Capacity)
	}
	if cfg.Solve.MaxSteps != 500 {
		t.Fatalf("Solve.MaxSteps = %d, want 500 (explicit value should survive defaulting)", cfg.Solve.MaxSteps)
	}
	if len(cfg.Catalogs) != 1 || cfg.Catalogs[0].Name != "main" {
		t.Fatalf("Catalogs = %+v", cfg.Catalogs)
	}
	if cfg.Remote.Addr != ":7890" {
		t.Fatalf("Remote.Addr = %q", cfg.Remote.Addr)
	}
}

func TestParseRejectsMissingStoreRoot(t *testing.T) {
	_, err := Parse(strings.NewReader(`version: "0.1"
store: {}
`))
	if err == nil {
		t.Fatal("expected an error for a config with no store.root")
	}
}

func TestParseRejectsUnknownVersion(t *testing.T) {
	_, err := Parse(strings.NewReader(`version: "9.9"
store:
  root: /tmp
`))
	if err == nil {
		t.Fatal("expected an error for an unsupported config version")
	}
}
