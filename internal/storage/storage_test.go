package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "nested", "index.json"))
	ctx := context.Background()

	if _, err := store.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load before save: err = %v, want ErrNotFound", err)
	}
	want := []byte(`{"version":1}`)
	if err := store.Save(ctx, want); err != nil {
		t.Fatal(err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(want) {
		t.Errorf("Load = %q, want %q", got, want)
	}
}

func TestFileStoreOverwrite(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "index.json"))
	ctx := context.Background()
	if err := store.Save(ctx, []byte("one")); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, []byte("two")); err != nil {
		t.Fatal(err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "two" {
		t.Errorf("Load = %q, want %q", got, "two")
	}
	// No temp file left behind.
	if _, err := os.Stat(filepath.Join(dir, "index.json.tmp")); !os.IsNotExist(err) {
		t.Error("temporary file should be renamed away")
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSQLiteStore(filepath.Join(dir, "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	if _, err := store.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load before save: err = %v, want ErrNotFound", err)
	}
	if err := store.Save(ctx, []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, []byte("second")); err != nil {
		t.Fatal(err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Errorf("Load = %q, want %q", got, "second")
	}
}

func TestOpenBackendSelection(t *testing.T) {
	dir := t.TempDir()
	if _, err := Open("file", filepath.Join(dir, "a.json")); err != nil {
		t.Errorf("file backend: %v", err)
	}
	s, err := Open("sqlite", filepath.Join(dir, "a.db"))
	if err != nil {
		t.Errorf("sqlite backend: %v", err)
	} else {
		_ = s.Close()
	}
	if _, err := Open("bogus", "x"); err == nil {
		t.Error("unknown backend should error")
	}
}
