// Package walker enumerates, reads, and tokenizes corpus files under the
// configured roots. Files are read concurrently on a bounded worker pool,
// but results are reduced in path-sorted order so parallelism never changes
// the admitted vocabulary or its dimension ordering.
package walker

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/hyperjump/shirabe/internal/config"
	"github.com/hyperjump/shirabe/internal/extract"
	"github.com/hyperjump/shirabe/internal/tokenizer"
)

// File is one readable corpus file with its extracted text and tokens.
type File struct {
	Path         string
	RelativePath string
	Text         string
	ModifiedAt   time.Time
	Tokens       []string
}

// Walker walks the corpus applying extension, size, and directory filters.
type Walker struct {
	cfg       *config.CorpusConfig
	extractor *extract.Extractor
	tokenizer *tokenizer.Tokenizer
	logger    *zap.Logger
}

// WalkerOption configures a Walker.
type WalkerOption func(*Walker)

// WithLogger sets a logger for per-file debug events.
func WithLogger(l *zap.Logger) WalkerOption {
	return func(w *Walker) { w.logger = l }
}

// New creates a Walker.
func New(cfg *config.CorpusConfig, ex *extract.Extractor, tok *tokenizer.Tokenizer, opts ...WalkerOption) *Walker {
	w := &Walker{cfg: cfg, extractor: ex, tokenizer: tok}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// candidate is a file that passed the enumeration filters.
type candidate struct {
	path       string
	relPath    string
	modifiedAt time.Time
}

// Walk enumerates and reads every matching file under the roots. An
// unreadable root fails the walk outright; per-file read failures and files
// with no usable tokens are skipped and counted, never fatal.
func (w *Walker) Walk(ctx context.Context) (files []*File, skipped int, err error) {
	candidates, err := w.enumerate()
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].path < candidates[j].path })

	results := make([]*File, len(candidates))
	pool, err := ants.NewPool(w.cfg.Workers)
	if err != nil {
		return nil, 0, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i := range candidates {
		i := i
		wg.Add(1)
		if submitErr := pool.Submit(func() {
			defer wg.Done()
			results[i] = w.read(candidates[i])
		}); submitErr != nil {
			wg.Done()
			return nil, 0, fmt.Errorf("submit read task: %w", submitErr)
		}
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	files = make([]*File, 0, len(results))
	for _, f := range results {
		if f == nil {
			skipped++
			continue
		}
		files = append(files, f)
	}
	return files, skipped, nil
}

// read extracts and tokenizes one candidate; nil means skip.
func (w *Walker) read(c candidate) *File {
	text, err := w.extractor.Extract(c.path)
	if err != nil {
		if w.logger != nil {
			w.logger.Debug("skipping unreadable file", zap.String("path", c.path), zap.Error(err))
		}
		return nil
	}
	tokens := w.tokenizer.Tokenize(text)
	if len(tokens) == 0 {
		if w.logger != nil {
			w.logger.Debug("skipping file with no usable tokens", zap.String("path", c.path))
		}
		return nil
	}
	return &File{
		Path:         c.path,
		RelativePath: c.relPath,
		Text:         text,
		ModifiedAt:   c.modifiedAt,
		Tokens:       tokens,
	}
}

// enumerate lists candidate files under every root, applying the directory
// ignore list, the extension filter, and the size cap.
func (w *Walker) enumerate() ([]candidate, error) {
	ignore := make(map[string]struct{}, len(w.cfg.IgnoreDirs))
	for _, d := range w.cfg.IgnoreDirs {
		ignore[d] = struct{}{}
	}

	var out []candidate
	for _, root := range w.cfg.Roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolve root %s: %w", root, err)
		}
		walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return fmt.Errorf("walk %s: %w", path, err)
			}
			name := d.Name()
			if d.IsDir() {
				if path == absRoot {
					return nil
				}
				if _, ignored := ignore[name]; ignored || strings.HasPrefix(name, ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasPrefix(name, ".") || !w.extensionAllowed(filepath.Ext(name)) {
				return nil
			}
			info, err := d.Info()
			if err != nil || !info.Mode().IsRegular() {
				return nil
			}
			if w.cfg.MaxFileSize > 0 && info.Size() > w.cfg.MaxFileSize {
				if w.logger != nil {
					w.logger.Debug("skipping oversized file",
						zap.String("path", path), zap.Int64("size", info.Size()))
				}
				return nil
			}
			rel, err := filepath.Rel(absRoot, path)
			if err != nil {
				rel = path
			}
			out = append(out, candidate{path: path, relPath: rel, modifiedAt: info.ModTime()})
			return nil
		})
		if walkErr != nil {
			return nil, walkErr
		}
	}
	return out, nil
}

func (w *Walker) extensionAllowed(ext string) bool {
	if len(w.cfg.Extensions) == 0 {
		return true
	}
	ext = strings.ToLower(ext)
	for _, allowed := range w.cfg.Extensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}
