// Package fileid derives stable identifiers from file paths and contents.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

// digestLen is the truncated hex length of document and content hashes.
const digestLen = 16

// DocID returns a stable document ID for the given path. Same path always
// yields the same ID; it is the primary key for upsert and removal.
func DocID(path string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(path)))
	return hex.EncodeToString(sum[:])[:digestLen]
}

// ContentHash returns a truncated digest of content, used to detect
// unchanged files on re-index.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:digestLen]
}
