package index

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hyperjump/shirabe/internal/models"
	"github.com/hyperjump/shirabe/internal/storage"
	"github.com/hyperjump/shirabe/internal/vocab"
)

func testVocab(t *testing.T, docs ...[]string) *vocab.Vocabulary {
	t.Helper()
	b := vocab.NewBuilder(8, 1)
	for _, d := range docs {
		b.Add(d)
	}
	return b.Build(len(docs))
}

func testDoc(id string, dim int) *models.Document {
	emb := make([]float64, dim)
	if dim > 0 {
		emb[0] = 1
	}
	return &models.Document{
		ID:        id,
		Path:      "/corpus/" + id,
		Tag:       "core",
		Embedding: emb,
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(storage.NewFileStore(filepath.Join(t.TempDir(), "index.json")))
}

func TestReplaceAndStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	v := testVocab(t, []string{"fox", "runs"})
	dim := v.Dimension()

	if _, err := s.Stats(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("Stats before rebuild: err = %v, want ErrNotInitialized", err)
	}
	if err := s.Replace(ctx, v, []*models.Document{testDoc("a", dim), testDoc("b", dim)}); err != nil {
		t.Fatal(err)
	}
	stats, err := s.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Documents != 2 {
		t.Errorf("Documents = %d, want 2", stats.Documents)
	}
	if stats.VocabularySize != dim {
		t.Errorf("VocabularySize = %d, want %d", stats.VocabularySize, dim)
	}
	if stats.Tags["core"] != 2 {
		t.Errorf("Tags = %v", stats.Tags)
	}
	if stats.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}
}

func TestUpsertRequiresVocabulary(t *testing.T) {
	s := newTestStore(t)
	err := s.Upsert(context.Background(), testDoc("a", 1))
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("err = %v, want ErrNotInitialized", err)
	}
}

func TestUpsertDimensionMismatchRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	v := testVocab(t, []string{"fox", "runs"})
	if err := s.Replace(ctx, v, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Upsert(ctx, testDoc("a", v.Dimension()+1)); err == nil {
		t.Error("mismatched embedding should be rejected")
	}
}

func TestUpsertAndRemove(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	v := testVocab(t, []string{"fox"})
	dim := v.Dimension()
	if err := s.Replace(ctx, v, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Upsert(ctx, testDoc("a", dim)); err != nil {
		t.Fatal(err)
	}
	// Updating the same id does not duplicate it in iteration order.
	if err := s.Upsert(ctx, testDoc("a", dim)); err != nil {
		t.Fatal(err)
	}
	if err := s.Upsert(ctx, testDoc("b", dim)); err != nil {
		t.Fatal(err)
	}
	docs := s.Documents()
	if len(docs) != 2 || docs[0].ID != "a" || docs[1].ID != "b" {
		t.Fatalf("Documents order = %v", ids(docs))
	}

	if err := s.Remove(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Get("a"); ok {
		t.Error("removed document still present")
	}
	// Removing an unknown id is a no-op.
	if err := s.Remove(ctx, "missing"); err != nil {
		t.Errorf("remove missing id: %v", err)
	}
	stats, _ := s.Stats()
	if stats.Documents != 1 {
		t.Errorf("Documents = %d, want 1", stats.Documents)
	}
}

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	blob := storage.NewFileStore(filepath.Join(dir, "index.json"))
	s := NewStore(blob)
	ctx := context.Background()
	v := testVocab(t, []string{"fox", "runs"}, []string{"fox", "sleeps"})
	dim := v.Dimension()
	if err := s.Replace(ctx, v, []*models.Document{testDoc("a", dim), testDoc("b", dim)}); err != nil {
		t.Fatal(err)
	}

	loaded := NewStore(blob)
	if err := loaded.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded.Vocabulary().Terms, v.Terms) {
		t.Error("vocabulary differs after round trip")
	}
	if !reflect.DeepEqual(loaded.Vocabulary().IDF, v.IDF) {
		t.Error("IDF table differs after round trip")
	}
	a, b := s.Documents(), loaded.Documents()
	if !reflect.DeepEqual(ids(a), ids(b)) {
		t.Errorf("document ids differ: %v vs %v", ids(a), ids(b))
	}
	for i := range a {
		if !reflect.DeepEqual(a[i].Embedding, b[i].Embedding) {
			t.Errorf("embedding for %s differs after round trip", a[i].ID)
		}
	}
}

func TestLoadMissingBlob(t *testing.T) {
	s := newTestStore(t)
	if err := s.Load(context.Background()); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want wrapped ErrNotFound", err)
	}
	if s.Initialized() {
		t.Error("failed load must not initialize the store")
	}
}

func TestLoadCorruptBlob(t *testing.T) {
	dir := t.TempDir()
	blob := storage.NewFileStore(filepath.Join(dir, "index.json"))
	ctx := context.Background()
	if err := blob.Save(ctx, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	s := NewStore(blob)
	if err := s.Load(ctx); err == nil {
		t.Error("corrupt blob should fail to load")
	}
}

func TestLoadRejectsDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	blob := storage.NewFileStore(filepath.Join(dir, "index.json"))
	ctx := context.Background()
	// One document whose embedding is shorter than the vocabulary.
	data := []byte(`{
		"version": 1,
		"document_count": 1,
		"vocabulary": {"fox": 0, "runs": 1},
		"idf_scores": {"fox": 0.5, "runs": 0.5},
		"document_order": ["a"],
		"documents": {"a": {"id": "a", "embedding": [1.0]}}
	}`)
	if err := blob.Save(ctx, data); err != nil {
		t.Fatal(err)
	}
	s := NewStore(blob)
	if err := s.Load(ctx); err == nil {
		t.Error("embedding/vocabulary mismatch should be rejected")
	}
}

func TestLoadRejectsNullDocuments(t *testing.T) {
	dir := t.TempDir()
	blob := storage.NewFileStore(filepath.Join(dir, "index.json"))
	ctx := context.Background()
	// A zero-count blob with null maps must not install a nil document map.
	data := []byte(`{
		"version": 1,
		"document_count": 0,
		"vocabulary": {"fox": 0},
		"idf_scores": {"fox": 0.5},
		"document_order": null,
		"documents": null
	}`)
	if err := blob.Save(ctx, data); err != nil {
		t.Fatal(err)
	}
	s := NewStore(blob)
	if err := s.Load(ctx); err == nil {
		t.Fatal("null documents should be rejected")
	}
	v := testVocab(t, []string{"fox"})
	if err := s.Upsert(ctx, testDoc("a", v.Dimension())); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("upsert after rejected load: err = %v, want ErrNotInitialized", err)
	}
}

func TestLoadRejectsWrongVersion(t *testing.T) {
	dir := t.TempDir()
	blob := storage.NewFileStore(filepath.Join(dir, "index.json"))
	ctx := context.Background()
	data := []byte(`{"version": 99, "vocabulary": {}, "documents": {}}`)
	if err := blob.Save(ctx, data); err != nil {
		t.Fatal(err)
	}
	s := NewStore(blob)
	if err := s.Load(ctx); err == nil {
		t.Error("unsupported version should be rejected")
	}
}

// failingBlob always fails to save, for testing the write-failure contract.
type failingBlob struct{}

func (failingBlob) Load(context.Context) ([]byte, error) { return nil, storage.ErrNotFound }
func (failingBlob) Save(context.Context, []byte) error   { return fmt.Errorf("disk full") }
func (failingBlob) Close() error                         { return nil }

func TestSaveFailureKeepsInMemoryState(t *testing.T) {
	s := NewStore(failingBlob{})
	ctx := context.Background()
	v := testVocab(t, []string{"fox"})
	err := s.Replace(ctx, v, []*models.Document{testDoc("a", v.Dimension())})
	if err == nil {
		t.Fatal("save failure should be reported")
	}
	// The mutation is not rolled back.
	if _, ok := s.Get("a"); !ok {
		t.Error("in-memory state should survive a failed save")
	}
	if !s.Initialized() {
		t.Error("store should remain initialized")
	}
}

func ids(docs []*models.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}
