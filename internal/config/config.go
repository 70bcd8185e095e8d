// Package config loads optional workspace settings from a .cgconfig file at
// the workspace root. Every field is optional; zero configuration is a fully
// working setup.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the workspace settings file, YAML formatted.
const FileName = ".cgconfig"

// Config holds workspace settings. Pointer fields distinguish "unset" from an
// explicit zero; read them through the Effective accessors.
type Config struct {
	// DatabasePath is where the graph database lives, relative to the
	// workspace root unless absolute.
	DatabasePath *string `yaml:"database_path,omitempty"`
	// DebounceMs is the quiet period after a file event before re-indexing.
	DebounceMs *int `yaml:"debounce_ms,omitempty"`
	// StabilityMs is the extra wait re-armed when a file is still being
	// written when its debounce fires.
	StabilityMs *int `yaml:"stability_ms,omitempty"`
	// PollIntervalMs drives the fallback rescan for events the watcher missed.
	PollIntervalMs *int `yaml:"poll_interval_ms,omitempty"`
	// MaxCPU caps the parse worker count during a full index.
	MaxCPU *int `yaml:"max_cpu,omitempty"`
	// BatchSize is how many files a full-index batch parses before yielding.
	BatchSize *int `yaml:"batch_size,omitempty"`
	// BatchDelayMs is the pause between full-index batches.
	BatchDelayMs *int `yaml:"batch_delay_ms,omitempty"`
	// IgnorePatterns are extra gitignore-syntax patterns on top of .gitignore.
	IgnorePatterns []string `yaml:"ignore_patterns,omitempty"`
}

// Load reads the workspace settings file. A missing file yields a zero Config
// and no error; a malformed one is an error so typos do not silently revert
// every knob to its default.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(root, FileName))
	if errors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", FileName, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", FileName, err)
	}
	return &cfg, nil
}

func (c *Config) EffectiveDatabasePath(root string) string {
	p := ".codegraph.db"
	if c.DatabasePath != nil && *c.DatabasePath != "" {
		p = *c.DatabasePath
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

func (c *Config) EffectiveDebounce() time.Duration {
	return millis(c.DebounceMs, 300*time.Millisecond)
}

func (c *Config) EffectiveStability() time.Duration {
	return millis(c.StabilityMs, 150*time.Millisecond)
}

func (c *Config) EffectivePollInterval() time.Duration {
	return millis(c.PollIntervalMs, 30*time.Second)
}

func (c *Config) EffectiveMaxCPU() int {
	n := runtime.NumCPU()
	if c.MaxCPU != nil && *c.MaxCPU > 0 && *c.MaxCPU < n {
		n = *c.MaxCPU
	}
	return n
}

func (c *Config) EffectiveBatchSize() int {
	if c.BatchSize != nil && *c.BatchSize > 0 {
		return *c.BatchSize
	}
	return 64
}

func (c *Config) EffectiveBatchDelay() time.Duration {
	return millis(c.BatchDelayMs, 10*time.Millisecond)
}

func millis(p *int, def time.Duration) time.Duration {
	if p != nil && *p >= 0 {
		return time.Duration(*p) * time.Millisecond
	}
	return def
}
