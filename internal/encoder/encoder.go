// Package encoder turns file text into embedded, metadata-carrying document
// records against a frozen vocabulary.
package encoder

import (
	"strings"
	"time"

	"github.com/hyperjump/shirabe/internal/fileid"
	"github.com/hyperjump/shirabe/internal/models"
	"github.com/hyperjump/shirabe/internal/tokenizer"
	"github.com/hyperjump/shirabe/internal/vocab"
	"github.com/hyperjump/shirabe/pkg/utils"
)

// DefaultPreviewLimit bounds the stored content preview in bytes.
const DefaultPreviewLimit = 5000

// Extractor supplies the pattern-based metadata heuristics applied to each
// document. Implementations must be best-effort: finding nothing for any
// single concern must not fail the encoding.
type Extractor interface {
	Tag(relativePath, text string) string
	Summary(text string) string
	Symbols(text string) []string
	Modules(text string) []string
}

// Encoder encodes documents and queries. Safe for concurrent use: it holds
// no mutable state.
type Encoder struct {
	tokenizer    *tokenizer.Tokenizer
	extractor    Extractor
	previewLimit int
}

// New returns an Encoder using the given tokenizer and metadata extractor.
// previewLimit <= 0 selects the default.
func New(tok *tokenizer.Tokenizer, extractor Extractor, previewLimit int) *Encoder {
	if previewLimit <= 0 {
		previewLimit = DefaultPreviewLimit
	}
	return &Encoder{tokenizer: tok, extractor: extractor, previewLimit: previewLimit}
}

// Embed computes the weighted, L2-normalized vector for a token sequence:
// tf(term) × idf(term) at the term's dimension, zero elsewhere. A sequence
// with no vocabulary-recognized terms yields an all-zero vector.
func (e *Encoder) Embed(tokens []string, v *vocab.Vocabulary) []float64 {
	vec := make([]float64, v.Dimension())
	for term, tf := range tokenizer.Counts(tokens) {
		dim, ok := v.DimensionOf(term)
		if !ok {
			continue
		}
		vec[dim] = float64(tf) * v.IDFOf(term)
	}
	utils.NormalizeL2(vec)
	return vec
}

// EmbedQuery tokenizes and embeds a query string exactly as a document
// would be encoded.
func (e *Encoder) EmbedQuery(query string, v *vocab.Vocabulary) []float64 {
	return e.Embed(e.tokenizer.Tokenize(query), v)
}

// EncodeDocument builds the full document record for a file: embedding from
// the pre-tokenized terms plus extracted metadata.
func (e *Encoder) EncodeDocument(path, relativePath, text string, tokens []string, modifiedAt time.Time, v *vocab.Vocabulary) *models.Document {
	return &models.Document{
		ID:           fileid.DocID(path),
		Path:         path,
		RelativePath: relativePath,
		Tag:          e.extractor.Tag(relativePath, text),
		Preview:      utils.Truncate(text, e.previewLimit),
		Summary:      e.extractor.Summary(text),
		Symbols:      e.extractor.Symbols(text),
		Modules:      e.extractor.Modules(text),
		LineCount:    strings.Count(text, "\n") + 1,
		ModifiedAt:   modifiedAt,
		ContentHash:  fileid.ContentHash([]byte(text)),
		Embedding:    e.Embed(tokens, v),
	}
}

// Tokenize exposes the encoder's tokenizer so callers tokenize file text
// exactly once per rebuild.
func (e *Encoder) Tokenize(text string) []string {
	return e.tokenizer.Tokenize(text)
}
