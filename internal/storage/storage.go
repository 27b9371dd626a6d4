// Package storage persists the serialized index document as a single opaque
// blob. Backends: plain file (default) and SQLite.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Load when no index blob has been saved yet.
var ErrNotFound = errors.New("index blob not found")

// BlobStore persists and retrieves one serialized index document.
type BlobStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Close() error
}

// Open returns a BlobStore for the given backend ("file" or "sqlite") and path.
func Open(backend, path string) (BlobStore, error) {
	switch backend {
	case "", "file":
		return NewFileStore(path), nil
	case "sqlite":
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
