// Package index holds the in-memory index aggregate — vocabulary, IDF table,
// and document records — with persistence through a blob store.
//
// Concurrency: one logical writer. Rebuild, upsert, remove, and load take the
// write lock so a reader can never pair an old document with a new
// vocabulary; searches and stats share the read lock.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hyperjump/shirabe/internal/models"
	"github.com/hyperjump/shirabe/internal/storage"
	"github.com/hyperjump/shirabe/internal/vocab"
	"go.uber.org/zap"
)

// FormatVersion is the persisted index document format version.
const FormatVersion = 1

// ErrNotInitialized is returned when an operation requiring a built index
// runs before any rebuild or successful load.
var ErrNotInitialized = errors.New("index not initialized: run a rebuild first")

// Store owns the index state. Create with NewStore, populate with Replace
// (full rebuild) or Upsert, query through Documents/Get/Stats.
type Store struct {
	mu      sync.RWMutex
	blob    storage.BlobStore
	logger  *zap.Logger
	vocab   *vocab.Vocabulary
	docs    map[string]*models.Document
	order   []string // insertion order; fixes search iteration for reproducible ties
	created time.Time
	updated time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets a logger for debug events.
func WithLogger(l *zap.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// NewStore creates an empty store persisting through blob.
func NewStore(blob storage.BlobStore, opts ...StoreOption) *Store {
	s := &Store{
		blob: blob,
		docs: make(map[string]*models.Document),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialized reports whether a vocabulary exists (from rebuild or load).
func (s *Store) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vocab != nil
}

// Vocabulary returns the current frozen vocabulary, nil before initialization.
func (s *Store) Vocabulary() *vocab.Vocabulary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vocab
}

// Replace atomically swaps in a new vocabulary and document set (full
// rebuild), then persists. When persisting fails the in-memory state stands
// and remains the source of truth; the error is returned for reporting.
func (s *Store) Replace(ctx context.Context, v *vocab.Vocabulary, docs []*models.Document) error {
	if v == nil {
		return fmt.Errorf("replace: nil vocabulary")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vocab = v
	s.docs = make(map[string]*models.Document, len(docs))
	s.order = make([]string, 0, len(docs))
	for _, d := range docs {
		if _, exists := s.docs[d.ID]; !exists {
			s.order = append(s.order, d.ID)
		}
		s.docs[d.ID] = d
	}
	now := time.Now()
	if s.created.IsZero() {
		s.created = now
	}
	s.updated = now
	return s.persistLocked(ctx)
}

// Upsert inserts or updates one document encoded against the existing
// vocabulary, then persists. Returns ErrNotInitialized before any rebuild.
func (s *Store) Upsert(ctx context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vocab == nil {
		return ErrNotInitialized
	}
	if len(doc.Embedding) != s.vocab.Dimension() {
		return fmt.Errorf("upsert %s: embedding dimension %d does not match vocabulary %d",
			doc.ID, len(doc.Embedding), s.vocab.Dimension())
	}
	if _, exists := s.docs[doc.ID]; !exists {
		s.order = append(s.order, doc.ID)
	}
	s.docs[doc.ID] = doc
	s.updated = time.Now()
	return s.persistLocked(ctx)
}

// Remove deletes the document with the given id and persists. Removing an
// unknown id is a no-op, not an error.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[id]; !exists {
		return nil
	}
	delete(s.docs, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.updated = time.Now()
	return s.persistLocked(ctx)
}

// Get returns the document with the given id.
func (s *Store) Get(id string) (*models.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[id]
	return d, ok
}

// Documents returns all documents in insertion order. The returned slice is
// a copy; the records themselves are shared and treated as read-only.
func (s *Store) Documents() []*models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Document, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.docs[id])
	}
	return out
}

// Snapshot returns the documents and vocabulary under one read lock so a
// search never mixes state across a concurrent rebuild.
func (s *Store) Snapshot() ([]*models.Document, *vocab.Vocabulary) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Document, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.docs[id])
	}
	return out, s.vocab
}

// Stats reports document count, vocabulary size, per-tag counts, and the
// last update time. Returns ErrNotInitialized before any rebuild or load.
func (s *Store) Stats() (*models.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.vocab == nil {
		return nil, ErrNotInitialized
	}
	tags := make(map[string]int)
	for _, d := range s.docs {
		tags[d.Tag]++
	}
	return &models.Stats{
		Documents:      len(s.docs),
		VocabularySize: s.vocab.Dimension(),
		Tags:           tags,
		UpdatedAt:      s.updated,
	}, nil
}

// persistedIndex is the on-disk shape of the index document.
type persistedIndex struct {
	Version       int                         `json:"version"`
	Created       time.Time                   `json:"created"`
	Updated       time.Time                   `json:"updated"`
	DocumentCount int                         `json:"document_count"`
	Vocabulary    map[string]int              `json:"vocabulary"`
	IDFScores     map[string]float64          `json:"idf_scores"`
	DocumentOrder []string                    `json:"document_order"`
	Documents     map[string]*models.Document `json:"documents"`
}

// persistLocked serializes the aggregate and saves it. Callers hold the
// write lock.
func (s *Store) persistLocked(ctx context.Context) error {
	p := &persistedIndex{
		Version:       FormatVersion,
		Created:       s.created,
		Updated:       s.updated,
		DocumentCount: len(s.docs),
		Vocabulary:    s.vocab.Terms,
		IDFScores:     s.vocab.IDF,
		DocumentOrder: s.order,
		Documents:     s.docs,
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("serialize index: %w", err)
	}
	if err := s.blob.Save(ctx, data); err != nil {
		if s.logger != nil {
			s.logger.Warn("index save failed; in-memory index remains source of truth", zap.Error(err))
		}
		return fmt.Errorf("save index: %w", err)
	}
	return nil
}

// Load replaces the in-memory state from the persisted blob. Missing,
// corrupt, or structurally inconsistent data returns an error so callers
// fall back to a full rebuild; the in-memory state is untouched on failure.
func (s *Store) Load(ctx context.Context) error {
	data, err := s.blob.Load(ctx)
	if err != nil {
		return fmt.Errorf("load index: %w", err)
	}
	var p persistedIndex
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("parse index: %w", err)
	}
	if err := validate(&p); err != nil {
		return fmt.Errorf("validate index: %w", err)
	}

	v := &vocab.Vocabulary{Terms: p.Vocabulary, IDF: p.IDFScores}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vocab = v
	s.docs = p.Documents
	s.order = p.DocumentOrder
	s.created = p.Created
	s.updated = p.Updated
	if s.logger != nil {
		s.logger.Debug("index loaded",
			zap.Int("documents", len(s.docs)),
			zap.Int("vocabulary_size", v.Dimension()))
	}
	return nil
}

// validate rejects persisted documents that would violate the
// vocabulary/document consistency invariant; rejecting forces a rebuild,
// which is the safe default.
func validate(p *persistedIndex) error {
	if p.Version != FormatVersion {
		return fmt.Errorf("unsupported format version %d", p.Version)
	}
	if p.Vocabulary == nil {
		return fmt.Errorf("missing vocabulary")
	}
	if p.Documents == nil {
		return fmt.Errorf("missing documents")
	}
	if p.DocumentCount != len(p.Documents) {
		return fmt.Errorf("document count %d does not match %d records",
			p.DocumentCount, len(p.Documents))
	}
	dim := len(p.Vocabulary)
	for id, d := range p.Documents {
		if d == nil {
			return fmt.Errorf("document %s: nil record", id)
		}
		if len(d.Embedding) != dim {
			return fmt.Errorf("document %s: embedding length %d does not match vocabulary size %d",
				id, len(d.Embedding), dim)
		}
	}
	if len(p.DocumentOrder) != len(p.Documents) {
		return fmt.Errorf("document order length %d does not match %d records",
			len(p.DocumentOrder), len(p.Documents))
	}
	for _, id := range p.DocumentOrder {
		if _, ok := p.Documents[id]; !ok {
			return fmt.Errorf("document order references unknown id %s", id)
		}
	}
	return nil
}
