package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Storage.Backend != "file" {
		t.Errorf("Backend = %q, want file", cfg.Storage.Backend)
	}
	if cfg.Index.DimensionCap != 512 {
		t.Errorf("DimensionCap = %d, want 512", cfg.Index.DimensionCap)
	}
	if cfg.Index.MinTermCount != 2 {
		t.Errorf("MinTermCount = %d, want 2", cfg.Index.MinTermCount)
	}
	if cfg.Search.TagBoost != 0.2 || cfg.Search.ExactMatchBoost != 0.3 {
		t.Errorf("boosts = %v/%v, want 0.2/0.3", cfg.Search.TagBoost, cfg.Search.ExactMatchBoost)
	}
	if cfg.Corpus.MaxFileSize != 1<<20 {
		t.Errorf("MaxFileSize = %d, want 1 MiB", cfg.Corpus.MaxFileSize)
	}
	if len(cfg.Corpus.Extensions) == 0 {
		t.Error("extension defaults missing")
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{}
	cfg.Index.DimensionCap = 64
	cfg.Search.TagBoost = 0.5
	ApplyDefaults(&cfg)
	if cfg.Index.DimensionCap != 64 {
		t.Errorf("DimensionCap = %d, want 64", cfg.Index.DimensionCap)
	}
	if cfg.Search.TagBoost != 0.5 {
		t.Errorf("TagBoost = %v, want 0.5", cfg.Search.TagBoost)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  port: 9090
storage:
  backend: sqlite
  path: ./data/index.db
corpus:
  roots:
    - ./src
  extensions: [".go"]
index:
  dimension_cap: 128
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("Debug not parsed")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("Backend = %q", cfg.Storage.Backend)
	}
	if want := filepath.Join(dir, "data/index.db"); cfg.Storage.Path != want {
		t.Errorf("Path = %q, want %q", cfg.Storage.Path, want)
	}
	if want := filepath.Join(dir, "src"); len(cfg.Corpus.Roots) != 1 || cfg.Corpus.Roots[0] != want {
		t.Errorf("Roots = %v, want [%s]", cfg.Corpus.Roots, want)
	}
	if cfg.Index.DimensionCap != 128 {
		t.Errorf("DimensionCap = %d, want 128", cfg.Index.DimensionCap)
	}
	// Defaults still applied for unset fields.
	if cfg.Search.MaxHighlights != 3 {
		t.Errorf("MaxHighlights = %d, want 3", cfg.Search.MaxHighlights)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing config should error")
	}
}
