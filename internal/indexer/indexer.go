// Package indexer orchestrates full rebuilds and incremental updates of the
// index: walking the corpus, building the vocabulary, encoding documents,
// and swapping store state.
package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/shirabe/internal/config"
	"github.com/hyperjump/shirabe/internal/encoder"
	"github.com/hyperjump/shirabe/internal/extract"
	"github.com/hyperjump/shirabe/internal/fileid"
	"github.com/hyperjump/shirabe/internal/index"
	"github.com/hyperjump/shirabe/internal/models"
	"github.com/hyperjump/shirabe/internal/vocab"
	"github.com/hyperjump/shirabe/internal/walker"
)

// Indexer drives the store through rebuilds and per-file updates.
type Indexer struct {
	store     *index.Store
	walker    *walker.Walker
	encoder   *encoder.Encoder
	extractor *extract.Extractor
	corpus    *config.CorpusConfig
	cfg       *config.IndexConfig
	logger    *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for rebuild and per-file events.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(ix *Indexer) { ix.logger = l }
}

// NewIndexer creates an indexer with the given dependencies.
func NewIndexer(
	store *index.Store,
	w *walker.Walker,
	enc *encoder.Encoder,
	ex *extract.Extractor,
	corpus *config.CorpusConfig,
	cfg *config.IndexConfig,
	opts ...IndexerOption,
) *Indexer {
	ix := &Indexer{store: store, walker: w, encoder: enc, extractor: ex, corpus: corpus, cfg: cfg}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Rebuild recomputes everything: walks the corpus, builds the vocabulary
// once over the union of all token sequences, encodes every document against
// it, and atomically replaces the store state. The store is never left with
// a vocabulary inconsistent with its documents.
func (ix *Indexer) Rebuild(ctx context.Context) (*models.RebuildSummary, error) {
	jobID := uuid.New().String()
	start := time.Now()
	if ix.logger != nil {
		ix.logger.Info("rebuild started", zap.String("job_id", jobID))
	}

	files, skipped, err := ix.walker.Walk(ctx)
	if err != nil {
		return nil, fmt.Errorf("walk corpus: %w", err)
	}

	builder := vocab.NewBuilder(ix.cfg.DimensionCap, ix.cfg.MinTermCount)
	for _, f := range files {
		builder.Add(f.Tokens)
	}
	v := builder.Build(len(files))

	docs := make([]*models.Document, 0, len(files))
	for _, f := range files {
		docs = append(docs, ix.encoder.EncodeDocument(
			f.Path, f.RelativePath, f.Text, f.Tokens, f.ModifiedAt, v))
	}
	if err := ix.store.Replace(ctx, v, docs); err != nil {
		return nil, err
	}

	summary := &models.RebuildSummary{
		JobID:          jobID,
		FilesIndexed:   len(docs),
		FilesSkipped:   skipped,
		VocabularySize: v.Dimension(),
		DurationMillis: time.Since(start).Milliseconds(),
	}
	if ix.logger != nil {
		ix.logger.Info("rebuild finished",
			zap.String("job_id", jobID),
			zap.Int("files_indexed", summary.FilesIndexed),
			zap.Int("files_skipped", summary.FilesSkipped),
			zap.Int("vocabulary_size", summary.VocabularySize),
			zap.Int64("duration_ms", summary.DurationMillis))
	}
	return summary, nil
}

// UpsertFile indexes one file against the existing frozen vocabulary. A
// missing file is a logged no-op. When no vocabulary exists yet, a private
// one-document vocabulary is bootstrapped from the file's own tokens and
// installed so the consistency invariant holds.
func (ix *Indexer) UpsertFile(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			if ix.logger != nil {
				ix.logger.Warn("upsert skipped: file does not exist", zap.String("path", absPath))
			}
			return nil
		}
		return fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", absPath)
	}
	if ix.corpus.MaxFileSize > 0 && info.Size() > ix.corpus.MaxFileSize {
		if ix.logger != nil {
			ix.logger.Warn("upsert skipped: file exceeds size limit",
				zap.String("path", absPath), zap.Int64("size", info.Size()))
		}
		return nil
	}

	text, err := ix.extractor.Extract(absPath)
	if err != nil {
		if ix.logger != nil {
			ix.logger.Warn("upsert skipped: unreadable file", zap.String("path", absPath), zap.Error(err))
		}
		return nil
	}

	// Skip unchanged content so watch-driven re-indexing stays cheap.
	id := fileid.DocID(absPath)
	if existing, ok := ix.store.Get(id); ok && existing.ContentHash == fileid.ContentHash([]byte(text)) {
		if ix.logger != nil {
			ix.logger.Debug("upsert skipped: unchanged content", zap.String("path", absPath))
		}
		return nil
	}

	tokens := ix.encoder.Tokenize(text)
	rel := ix.relativePathFor(absPath)

	if !ix.store.Initialized() {
		builder := vocab.NewBuilder(ix.cfg.DimensionCap, 1)
		builder.Add(tokens)
		v := builder.Build(1)
		doc := ix.encoder.EncodeDocument(absPath, rel, text, tokens, info.ModTime(), v)
		if ix.logger != nil {
			ix.logger.Info("bootstrapping one-document vocabulary", zap.String("path", absPath))
		}
		return ix.store.Replace(ctx, v, []*models.Document{doc})
	}

	doc := ix.encoder.EncodeDocument(absPath, rel, text, tokens, info.ModTime(), ix.store.Vocabulary())
	return ix.store.Upsert(ctx, doc)
}

// RemoveFile deletes the document for path. Unknown paths are a no-op.
func (ix *Indexer) RemoveFile(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	if ix.logger != nil {
		ix.logger.Debug("removing document", zap.String("path", absPath))
	}
	return ix.store.Remove(ctx, fileid.DocID(absPath))
}

// relativePathFor returns the path relative to the corpus root containing it,
// matching what a full rebuild assigns. Files outside every root keep their
// absolute path.
func (ix *Indexer) relativePathFor(absPath string) string {
	for _, root := range ix.corpus.Roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(absRoot, absPath)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return rel
	}
	return absPath
}
