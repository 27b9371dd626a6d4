package models

import "time"

// Stats describes the current index contents.
type Stats struct {
	Documents      int            `json:"documents"`
	VocabularySize int            `json:"vocabulary_size"`
	Tags           map[string]int `json:"tags"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// RebuildSummary reports the outcome of a full rebuild.
type RebuildSummary struct {
	JobID          string `json:"job_id"`
	FilesIndexed   int    `json:"files_indexed"`
	FilesSkipped   int    `json:"files_skipped"`
	VocabularySize int    `json:"vocabulary_size"`
	DurationMillis int64  `json:"duration_ms"`
}
