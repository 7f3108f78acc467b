// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for membank.
package config

import (
	"gopkg.in/yaml.v3"

	"github.com/tbellamy/membank/internal/observability"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// Modules maps module IDs to their raw YAML configuration.
	// Keys must match registered module IDs (e.g. "provider.gemini",
	// "store.sqlite", "gateway.http").
	Modules map[string]yaml.Node `yaml:"modules"`

	// Bank holds memory bank tuning.
	Bank BankConfig `yaml:"bank,omitempty"`

	// Sweep configures the background extraction sweep.
	Sweep SweepConfig `yaml:"sweep,omitempty"`

	// Tracing configures OTLP trace export.
	Tracing observability.TracingConfig `yaml:"tracing,omitempty"`
}

// BankConfig tunes the memory bank's result limits.
type BankConfig struct {
	// MaxSearchResults caps ranked search results. Defaults to 5.
	MaxSearchResults int `yaml:"max_search_results"`

	// FallbackResults caps degraded search results. Defaults to 3.
	FallbackResults int `yaml:"fallback_results"`
}

// SweepConfig controls the periodic extraction of idle sessions.
type SweepConfig struct {
	// Enabled turns the sweep on. Defaults to false.
	Enabled bool `yaml:"enabled"`

	// Schedule is a 5-field cron expression. Defaults to "*/10 * * * *".
	Schedule string `yaml:"schedule"`

	// MaxIdle is how long a session must be quiet before it is swept,
	// as a Go duration string. Defaults to "30m".
	MaxIdle string `yaml:"max_idle"`
}
