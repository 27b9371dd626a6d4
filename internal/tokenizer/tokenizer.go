// Package tokenizer turns raw text into normalized terms for indexing and
// query encoding. Tokenization is deterministic and side-effect free: the
// same text always yields the same term sequence.
package tokenizer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Term length bounds; tokens outside the range are dropped.
const (
	minTermLen = 2
	maxTermLen = 30
)

// Tokenizer splits lower-cased text on everything outside its alphabet
// (ASCII letters, digits, and Cyrillic for bilingual corpora) and filters
// stop words and out-of-range tokens. No stemming.
type Tokenizer struct {
	stopwords map[string]struct{}
}

// New returns a Tokenizer with the given stop words added to the built-in
// English set. Pass nil for the defaults alone.
func New(extraStopwords []string) *Tokenizer {
	sw := defaultStopwords()
	for _, w := range extraStopwords {
		sw[strings.ToLower(w)] = struct{}{}
	}
	return &Tokenizer{stopwords: sw}
}

// Tokenize returns the ordered term sequence for text, repeats included.
func (t *Tokenizer) Tokenize(text string) []string {
	normalized := strings.Map(normalizeRune, text)
	fields := strings.Fields(normalized)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		n := utf8.RuneCountInString(f)
		if n < minTermLen || n > maxTermLen {
			continue
		}
		if _, stop := t.stopwords[f]; stop {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

// Counts returns per-term occurrence counts for a token sequence.
func Counts(tokens []string) map[string]int {
	counts := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		counts[tok]++
	}
	return counts
}

// normalizeRune lower-cases runes in the allowed alphabet and maps everything
// else to a space so Fields splits on it.
func normalizeRune(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return r
	case r >= 'A' && r <= 'Z':
		return r + ('a' - 'A')
	case unicode.Is(unicode.Cyrillic, r):
		return unicode.ToLower(r)
	default:
		return ' '
	}
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"an", "the", "and", "or", "but", "if", "then", "else", "for", "to",
		"of", "in", "on", "at", "by", "with", "as", "is", "are", "was",
		"were", "be", "been", "being", "it", "this", "that", "these",
		"those", "from", "not", "no", "so", "such", "into", "about", "than",
		"too", "very", "can", "will", "just", "do", "does", "did", "has",
		"have", "had", "its", "their", "they", "we", "you", "he", "she",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
