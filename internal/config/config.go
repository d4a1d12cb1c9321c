// Package config loads the service configuration: a YAML document
// validated against an embedded CUE schema, so malformed or incomplete
// configs fail at startup with a precise message instead of surfacing as
// runtime errors later.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Backend identifiers.
const (
	BackendSQLite = "sqlite"
	BackendRest   = "rest"
)

// Config is the validated service configuration.
type Config struct {
	Listen  string       `json:"listen" yaml:"listen"`
	Backend string       `json:"backend" yaml:"backend"`
	SQLite  SQLiteConfig `json:"sqlite" yaml:"sqlite"`
	Rest    RestConfig   `json:"rest" yaml:"rest"`
}

// SQLiteConfig configures the embedded backend.
type SQLiteConfig struct {
	Path string `json:"path" yaml:"path"`
}

// RestConfig configures the remote table store backend.
type RestConfig struct {
	URL string `json:"url" yaml:"url"`
	Key string `json:"key" yaml:"key"`
}

// Load reads, validates and decodes a config file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(raw)
}

// Parse validates and decodes a YAML config document.
func Parse(raw []byte) (*Config, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}

	cctx := cuecontext.New()
	schema := cctx.CompileString(schemaCUE).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}

	unified := schema.Unify(cctx.Encode(doc))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration an absent config file implies.
func Default() *Config {
	cfg, err := Parse([]byte("{}"))
	if err != nil {
		// The embedded schema always validates an empty document.
		panic(fmt.Sprintf("default config: %v", err))
	}
	return cfg
}
