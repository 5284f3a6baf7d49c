package config

import (
	"os"
	"reflect"
	"testing"
)

type localConfig struct {
	Version Version           `yaml:"version"`
	Log     *localLog         `yaml:"log"`
	Options map[string]string `yaml:"options,omitempty"`
}

type localLog struct {
	Formatter string `yaml:"formatter,omitempty"`
}

const localTestConfig = `version: "0.1"
log:
  formatter: "text"
options:
  level: "warn"`

func newLocalParser() *Parser {
	return NewParser("FORGE", []VersionedParseInfo{
		{
			Version:        "0.1",
			ParseAs:        reflect.TypeOf(localConfig{}),
			ConversionFunc: func(c interface{}) (interface{}, error) { return c, nil },
		},
	})
}

func TestParserEnvOverwritesPointerField(t *testing.T) {
	os.Setenv("FORGE_LOG_FORMATTER", "json")
	defer os.Unsetenv("FORGE_LOG_FORMATTER")

	cfg := localConfig{}
	if err := newLocalParser().Parse([]byte(localTestConfig), &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Log == nil || cfg.Log.Formatter != "json" {
		t.Fatalf("Log.Formatter = %+v, want json", cfg.Log)
	}
}

func TestParserEnvOverwritesMapEntry(t *testing.T) {
	os.Setenv("FORGE_OPTIONS_LEVEL", "debug")
	defer os.Unsetenv("FORGE_OPTIONS_LEVEL")

	cfg := localConfig{}
	if err := newLocalParser().Parse([]byte(localTestConfig), &cfg); err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"level": "debug"}
	if !reflect.DeepEqual(cfg.Options, want) {
		t.Fatalf("Options = %+v, want %+v", cfg.Options, want)
	}
}
