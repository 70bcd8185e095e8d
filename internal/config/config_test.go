package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoadMissingFileIsZeroConfig(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.EffectiveDebounce() != 300*time.Millisecond {
		t.Fatalf("default debounce = %v", cfg.EffectiveDebounce())
	}
	if cfg.EffectiveMaxCPU() != runtime.NumCPU() {
		t.Fatalf("default max cpu = %d", cfg.EffectiveMaxCPU())
	}
}

func TestLoadMalformedFileErrors(t *testing.T) {
	dir := writeConfig(t, "debounce_ms: [not a number\n")
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := writeConfig(t, `
database_path: graph.db
debounce_ms: 50
stability_ms: 0
max_cpu: 1
batch_size: 8
ignore_patterns:
  - "*.gen.ts"
  - "debug/"
`)
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.EffectiveDatabasePath(dir); got != filepath.Join(dir, "graph.db") {
		t.Fatalf("database path = %s", got)
	}
	if cfg.EffectiveDebounce() != 50*time.Millisecond {
		t.Fatalf("debounce = %v", cfg.EffectiveDebounce())
	}
	// Explicit zero is honored, not replaced with the default.
	if cfg.EffectiveStability() != 0 {
		t.Fatalf("stability = %v", cfg.EffectiveStability())
	}
	if cfg.EffectiveMaxCPU() != 1 {
		t.Fatalf("max cpu = %d", cfg.EffectiveMaxCPU())
	}
	if cfg.EffectiveBatchSize() != 8 {
		t.Fatalf("batch size = %d", cfg.EffectiveBatchSize())
	}
	if len(cfg.IgnorePatterns) != 2 {
		t.Fatalf("ignore patterns = %v", cfg.IgnorePatterns)
	}
}

func TestEffectiveDatabasePathAbsolute(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "g.db")
	cfg := &Config{DatabasePath: &abs}
	if got := cfg.EffectiveDatabasePath("/elsewhere"); got != abs {
		t.Fatalf("absolute path rewritten: %s", got)
	}
}
