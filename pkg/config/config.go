// Package config loads application configuration for the graphdesc CLI.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds all settings for one graphdesc invocation.
type Config struct {
	Decl      string `koanf:"decl"`      // declaration file path (.hcl or .json)
	Format    string `koanf:"format"`    // "hcl", "json", or "" to infer from extension
	Dedupe    bool   `koanf:"dedupe"`    // collapse duplicate edges during resolution
	JSONOut   bool   `koanf:"json"`      // emit the serialized document instead of a report
	WebMode   bool   `koanf:"web"`       // serve the description over HTTP
	Port      int    `koanf:"port"`      // web server port
	Watch     bool   `koanf:"watch"`     // rebuild when the declaration changes
	Verbosity int    `koanf:"verbose"`   // -v count
	LogJSON   bool   `koanf:"log-json"`  // JSON log output
}

// Load layers configuration from defaults, graphdesc.toml, GRAPHDESC_*
// environment variables, and command line flags.
// Priority: Flags > Env > Config File > Defaults.
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"decl":     "",
		"format":   "",
		"dedupe":   false,
		"json":     false,
		"web":      false,
		"port":     8080,
		"watch":    false,
		"verbose":  0,
		"log-json": false,
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Optional config file; absence is not an error.
	_ = k.Load(file.Provider("graphdesc.toml"), toml.Parser())

	if err := k.Load(env.Provider("GRAPHDESC_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, "GRAPHDESC_")), "_", "-")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
