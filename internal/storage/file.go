package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists the index blob as a single file, written atomically
// via a temporary file and rename.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the blob. Returns ErrNotFound when the file does not exist.
func (f *FileStore) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read index file: %w", err)
	}
	return data, nil
}

// Save writes the blob. Parent directories are created if needed; the write
// is atomic so a crash never leaves a truncated index on disk.
func (f *FileStore) Save(_ context.Context, data []byte) error {
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create index dir: %w", err)
		}
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write index file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace index file: %w", err)
	}
	return nil
}

// Close is a no-op for FileStore.
func (f *FileStore) Close() error {
	return nil
}
