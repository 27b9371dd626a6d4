// Package search ranks indexed documents against natural-language queries
// using cosine similarity over TF-IDF embeddings plus exact-match and
// topical boosts.
package search

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/hyperjump/shirabe/internal/config"
	"github.com/hyperjump/shirabe/internal/encoder"
	"github.com/hyperjump/shirabe/internal/index"
	"github.com/hyperjump/shirabe/internal/models"
	"github.com/hyperjump/shirabe/pkg/utils"
)

// Ranker scores documents against queries. It only reads from the store and
// never triggers a rebuild.
type Ranker struct {
	store   *index.Store
	encoder *encoder.Encoder
	cfg     *config.SearchConfig
	logger  *zap.Logger
}

// RankerOption configures a Ranker.
type RankerOption func(*Ranker)

// WithLogger sets a logger for query debug events.
func WithLogger(l *zap.Logger) RankerOption {
	return func(r *Ranker) { r.logger = l }
}

// NewRanker creates a ranker reading from store.
func NewRanker(store *index.Store, enc *encoder.Encoder, cfg *config.SearchConfig, opts ...RankerOption) *Ranker {
	r := &Ranker{store: store, encoder: enc, cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Search encodes the query against the current vocabulary and returns
// documents scored by cosine similarity plus boosts, best first. Documents
// are visited in insertion order and ties keep that order (stable sort), so
// results are reproducible for a given index state.
func (r *Ranker) Search(ctx context.Context, opts *models.SearchOptions) (*models.SearchResponse, error) {
	start := time.Now()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	docs, vocabulary := r.store.Snapshot()
	if vocabulary == nil {
		return nil, index.ErrNotInitialized
	}
	queryVec := r.encoder.EmbedQuery(opts.Query, vocabulary)
	queryLower := strings.ToLower(opts.Query)

	var matches []*models.SearchResult
	for _, doc := range docs {
		score := utils.Dot(queryVec, doc.Embedding)
		var highlights []string
		if opts.Tag != "" && strings.Contains(doc.Tag, opts.Tag) {
			score += r.cfg.TagBoost
		}
		if idx := strings.Index(strings.ToLower(doc.Preview), queryLower); idx >= 0 {
			score += r.cfg.ExactMatchBoost
			highlights = r.highlight(doc.Preview, queryLower)
		}
		if score < opts.MinScore {
			continue
		}
		matches = append(matches, &models.SearchResult{
			Document:   doc,
			Score:      score,
			Highlights: highlights,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })

	total := len(matches)
	if len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
	}
	for i, m := range matches {
		m.Rank = i + 1
	}
	if r.logger != nil {
		r.logger.Debug("search completed",
			zap.String("query", opts.Query),
			zap.Int("total", total),
			zap.Int("returned", len(matches)))
	}
	return &models.SearchResponse{
		Results:   matches,
		Total:     total,
		QueryTime: time.Since(start).Milliseconds(),
		Query:     opts.Query,
	}, nil
}

// highlight collects short context windows around each case-insensitive
// occurrence of the query inside the preview, up to the configured maximum.
// Matching runs over runes so that case folding, which may change byte
// lengths, never shifts the window into the middle of a character.
func (r *Ranker) highlight(preview, queryLower string) []string {
	var lower []rune
	var offsets []int // byte offset of each rune in preview
	for i, ru := range preview {
		lower = append(lower, unicode.ToLower(ru))
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(preview))
	q := []rune(queryLower)
	if len(q) == 0 {
		return nil
	}

	window := r.cfg.HighlightWindow
	var out []string
	for i := 0; i+len(q) <= len(lower) && len(out) < r.cfg.MaxHighlights; {
		if !runesEqual(lower[i:i+len(q)], q) {
			i++
			continue
		}
		from := i - window
		if from < 0 {
			from = 0
		}
		to := i + len(q) + window
		if to > len(lower) {
			to = len(lower)
		}
		out = append(out, strings.TrimSpace(preview[offsets[from]:offsets[to]]))
		i += len(q)
	}
	return out
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
