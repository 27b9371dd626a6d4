// Package models defines core data structures for indexed documents, search
// queries, and results.
package models

import "time"

// Document is one indexed file: heuristically extracted metadata plus its
// weighted, L2-normalized term vector. Preview holds at most the leading
// slice of the file (for exact-match highlighting), never the full body.
type Document struct {
	ID           string    `json:"id"`
	Path         string    `json:"path"`
	RelativePath string    `json:"relative_path"`
	Tag          string    `json:"tag"`
	Preview      string    `json:"preview"`
	Summary      string    `json:"summary"`
	Symbols      []string  `json:"symbols,omitempty"`
	Modules      []string  `json:"modules,omitempty"`
	LineCount    int       `json:"line_count"`
	ModifiedAt   time.Time `json:"modified_at"`
	ContentHash  string    `json:"content_hash"`
	Embedding    []float64 `json:"embedding"`
}
