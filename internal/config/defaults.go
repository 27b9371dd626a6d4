package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "file"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "./data/index.json"
	}
	if cfg.Corpus.Extensions == nil {
		cfg.Corpus.Extensions = []string{
			".go", ".py", ".js", ".ts", ".rs", ".c", ".h",
			".md", ".txt", ".rst", ".pdf", ".docx",
		}
	}
	if cfg.Corpus.IgnoreDirs == nil {
		cfg.Corpus.IgnoreDirs = []string{
			"node_modules", "vendor", "target", "build", "dist", "__pycache__",
		}
	}
	if cfg.Corpus.MaxFileSize == 0 {
		cfg.Corpus.MaxFileSize = 1 << 20 // 1 MiB; larger files are skipped, not truncated
	}
	if cfg.Corpus.Workers == 0 {
		cfg.Corpus.Workers = 4
	}
	if cfg.Index.DimensionCap == 0 {
		cfg.Index.DimensionCap = 512
	}
	if cfg.Index.MinTermCount == 0 {
		cfg.Index.MinTermCount = 2
	}
	if cfg.Index.PreviewLimit == 0 {
		cfg.Index.PreviewLimit = 5000
	}
	if cfg.Search.TagBoost == 0 {
		cfg.Search.TagBoost = 0.2
	}
	if cfg.Search.ExactMatchBoost == 0 {
		cfg.Search.ExactMatchBoost = 0.3
	}
	if cfg.Search.HighlightWindow == 0 {
		cfg.Search.HighlightWindow = 30
	}
	if cfg.Search.MaxHighlights == 0 {
		cfg.Search.MaxHighlights = 3
	}
	if cfg.Watch.DebounceMillis == 0 {
		cfg.Watch.DebounceMillis = 400
	}
}
