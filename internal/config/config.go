// Package config provides configuration loading and structs for the Shirabe
// engine and server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Corpus  CorpusConfig  `yaml:"corpus"`
	Index   IndexConfig   `yaml:"index"`
	Search  SearchConfig  `yaml:"search"`
	Watch   WatchConfig   `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig selects where the persisted index document lives.
// Backend is "file" (JSON document) or "sqlite" (single-row blob table).
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// CorpusConfig holds corpus walking settings.
type CorpusConfig struct {
	Roots       []string `yaml:"roots"`
	Extensions  []string `yaml:"extensions"`
	IgnoreDirs  []string `yaml:"ignore_dirs"`
	MaxFileSize int64    `yaml:"max_file_size"`
	Workers     int      `yaml:"workers"`
}

// IndexConfig holds vocabulary and encoding settings.
type IndexConfig struct {
	DimensionCap int      `yaml:"dimension_cap"`
	MinTermCount int      `yaml:"min_term_count"`
	PreviewLimit int      `yaml:"preview_limit"`
	Stopwords    []string `yaml:"stopwords"`
}

// SearchConfig holds ranking settings.
type SearchConfig struct {
	TagBoost        float64 `yaml:"tag_boost"`
	ExactMatchBoost float64 `yaml:"exact_match_boost"`
	HighlightWindow int     `yaml:"highlight_window"`
	MaxHighlights   int     `yaml:"max_highlights"`
}

// WatchConfig holds file-watch settings for incremental updates.
type WatchConfig struct {
	Enabled        bool `yaml:"enabled"`
	DebounceMillis int  `yaml:"debounce_ms"`
}

// Load reads and parses the config file at path, expands paths, and applies
// defaults. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.Path = expandPath(cfg.Storage.Path, configDir)
	for i := range cfg.Corpus.Roots {
		cfg.Corpus.Roots[i] = expandPath(cfg.Corpus.Roots[i], configDir)
	}
	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home
// directory.
func expandPath(path, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
