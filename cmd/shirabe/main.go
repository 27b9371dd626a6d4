// Package main is the Shirabe CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/shirabe/internal/classify"
	"github.com/hyperjump/shirabe/internal/config"
	"github.com/hyperjump/shirabe/internal/encoder"
	"github.com/hyperjump/shirabe/internal/extract"
	"github.com/hyperjump/shirabe/internal/index"
	"github.com/hyperjump/shirabe/internal/indexer"
	"github.com/hyperjump/shirabe/internal/models"
	"github.com/hyperjump/shirabe/internal/search"
	"github.com/hyperjump/shirabe/internal/server"
	"github.com/hyperjump/shirabe/internal/storage"
	"github.com/hyperjump/shirabe/internal/tokenizer"
	"github.com/hyperjump/shirabe/internal/walker"
	"github.com/hyperjump/shirabe/internal/watcher"
	"github.com/hyperjump/shirabe/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/shirabe/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "shirabe serve" from the project dir uses the project's
// config. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "serve":
		runServe()
	case "rebuild":
		runRebuild()
	case "search":
		runSearch()
	case "stats":
		runStats()
	case "remove":
		runRemove()
	case "version", "--version", "-v":
		fmt.Printf("shirabe version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Blob    storage.BlobStore
	Store   *index.Store
	Indexer *indexer.Indexer
	Ranker  *search.Ranker
}

func (c *Components) Close() {
	if c.Blob != nil {
		_ = c.Blob.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	blob, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	tok := tokenizer.New(cfg.Index.Stopwords)
	ex := extract.NewExtractor()
	enc := encoder.New(tok, classify.NewHeuristics(), cfg.Index.PreviewLimit)

	var storeOpts []index.StoreOption
	var walkOpts []walker.WalkerOption
	var idxOpts []indexer.IndexerOption
	if debug && logger != nil {
		storeOpts = append(storeOpts, index.WithLogger(logger))
		walkOpts = append(walkOpts, walker.WithLogger(logger))
	}
	if logger != nil {
		idxOpts = append(idxOpts, indexer.WithLogger(logger))
	}
	store := index.NewStore(blob, storeOpts...)
	wlk := walker.New(&cfg.Corpus, ex, tok, walkOpts...)
	idx := indexer.NewIndexer(store, wlk, enc, ex, &cfg.Corpus, &cfg.Index, idxOpts...)
	rnk := search.NewRanker(store, enc, &cfg.Search)

	return &Components{Blob: blob, Store: store, Indexer: idx, Ranker: rnk}, nil
}

// loadOrRebuild loads the persisted index; if that fails (missing, corrupt,
// or stale format) it falls back to a full rebuild.
func loadOrRebuild(ctx context.Context, c *Components, logger *zap.Logger) error {
	if err := c.Store.Load(ctx); err != nil {
		logger.Warn("index load failed, rebuilding", zap.Error(err))
		if _, err := c.Indexer.Rebuild(ctx); err != nil {
			return fmt.Errorf("rebuild after failed load: %w", err)
		}
	}
	return nil
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (file events, query scoring, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	if err := loadOrRebuild(ctx, components, logger); err != nil {
		logger.Fatal("Failed to prepare index", zap.Error(err))
	}

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Watch.Enabled {
		idx := components.Indexer
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc := watcher.New(&cfg.Corpus, &cfg.Watch,
			func(path string) {
				if err := idx.UpsertFile(context.Background(), path); err != nil {
					logger.Warn("watch upsert failed", zap.String("path", path), zap.Error(err))
				}
			},
			func(path string) {
				if err := idx.RemoveFile(context.Background(), path); err != nil {
					logger.Warn("watch remove failed", zap.String("path", path), zap.Error(err))
				}
			},
			watchOpts...,
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	srv := server.NewServer(
		components.Ranker,
		components.Indexer,
		components.Store,
		&cfg.Server,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
}

func runRebuild() {
	fs := flag.NewFlagSet("rebuild", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	summary, err := components.Indexer.Rebuild(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Rebuild failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Indexed %d file(s), skipped %d, vocabulary %d terms (%dms)\n",
		summary.FilesIndexed, summary.FilesSkipped, summary.VocabularySize, summary.DurationMillis)
}

// buildSearchQuery joins all positional args with spaces so multi-word
// queries work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = search the local index directly)")
	limit := fs.Int("limit", 10, "number of results")
	tag := fs.String("tag", "", "boost documents whose topical tag matches")
	minScore := fs.Float64("min-score", 0, "minimum final score (0 = default threshold)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: shirabe search [flags] <query>")
		os.Exit(1)
	}
	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		fmt.Println("Usage: shirabe search [flags] <query>")
		os.Exit(1)
	}

	opts := &models.SearchOptions{
		Query:    queryStr,
		Limit:    *limit,
		Tag:      *tag,
		MinScore: *minScore,
	}

	var response *models.SearchResponse
	if *serverURL != "" {
		var err error
		response, err = searchViaHTTP(*serverURL, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger, cfg.Debug)
		if err != nil {
			logger.Fatal("Failed to initialize", zap.Error(err))
		}
		defer components.Close()
		if err := components.Store.Load(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "No usable index (%v); run: shirabe rebuild\n", err)
			os.Exit(1)
		}
		response, err = components.Ranker.Search(context.Background(), opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(response); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		printSearchResults(response)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func printSearchResults(resp *models.SearchResponse) {
	if len(resp.Results) == 0 {
		fmt.Printf("No results for %q\n", resp.Query)
		return
	}
	fmt.Printf("%d result(s) for %q (%dms)\n\n", resp.Total, resp.Query, resp.QueryTime)
	for _, res := range resp.Results {
		fmt.Printf("%2d. %s  [%s]  score=%.3f\n", res.Rank, res.Document.RelativePath, res.Document.Tag, res.Score)
		if res.Document.Summary != "" {
			fmt.Printf("    %s\n", res.Document.Summary)
		}
		for _, h := range res.Highlights {
			fmt.Printf("    … %s …\n", h)
		}
	}
}

func searchViaHTTP(serverURL string, opts *models.SearchOptions) (*models.SearchResponse, error) {
	body, err := json.Marshal(opts)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = read the local index directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var stats models.Stats
	if *serverURL != "" {
		resp, err := http.Get(*serverURL + "/api/v1/stats")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Stats failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
			fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger, cfg.Debug)
		if err != nil {
			logger.Fatal("Failed to initialize", zap.Error(err))
		}
		defer components.Close()
		if err := components.Store.Load(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "No usable index (%v); run: shirabe rebuild\n", err)
			os.Exit(1)
		}
		s, err := components.Store.Stats()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Stats failed: %v\n", err)
			os.Exit(1)
		}
		stats = *s
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(stats); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("documents:        %d\n", stats.Documents)
		fmt.Printf("vocabulary_size:  %d\n", stats.VocabularySize)
		fmt.Printf("updated_at:       %s\n", stats.UpdatedAt.Format(time.RFC3339))
		if len(stats.Tags) > 0 {
			fmt.Println("tags:")
			for tag, count := range stats.Tags {
				fmt.Printf("  %-12s %d\n", tag, count)
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func runRemove() {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: shirabe remove [flags] <file-path>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	if err := components.Store.Load(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "No usable index (%v); run: shirabe rebuild\n", err)
		os.Exit(1)
	}
	if err := components.Indexer.RemoveFile(ctx, path); err != nil {
		fmt.Fprintf(os.Stderr, "Remove failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Removed: %s\n", path)
}

func printUsage() {
	fmt.Println(`shirabe - Local TF-IDF corpus search engine

Usage:
  shirabe serve [flags]            Start the HTTP server
  shirabe rebuild [flags]          Walk the corpus and rebuild the index
  shirabe search [flags] <query>   Search indexed documents
  shirabe stats [flags]            Show index statistics
  shirabe remove [flags] <path>    Remove a file's document from the index
  shirabe version                  Show version
  shirabe help                     Show this help

Serve Flags:
  --config string    Config file path (default: /usr/local/etc/shirabe/config.yaml)
  --debug            Enable debug logging (file events, query scoring, etc.)

Search Flags:
  --config string    Config file path (for direct index access)
  --server string    Server URL (empty = search the local index directly)
  --limit int        Number of results (default: 10)
  --tag string       Boost documents whose topical tag matches
  --min-score float  Minimum final score (0 = default threshold)
  --output string    Output format: text or json (default: text)

Stats Flags:
  --config string    Config file path (for direct index access)
  --server string    Server URL (empty = read the local index directly)
  --output string    Output format: text or json (default: text)

Examples:
  shirabe rebuild
  shirabe search "connection pool retry"
  shirabe search --tag auth token validation
  shirabe search --output json "parser"
  shirabe serve --debug
  shirabe stats`)
}
