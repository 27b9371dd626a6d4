package classify

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTag(t *testing.T) {
	h := NewHeuristics()
	tests := []struct {
		name string
		path string
		text string
		want string
	}{
		{"path match wins", "internal/auth/login.go", "package login", "auth"},
		{"content match", "pkg/a.go", "func Dial() { /* opens a tcp socket */ }", "network"},
		{"default", "pkg/misc.go", "package misc", DefaultTag},
		{"docs by extension", "README.md", "hello", "docs"},
		{"storage content", "x.go", "uses the database layer", "storage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.Tag(tt.path, tt.text); got != tt.want {
				t.Errorf("Tag(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestSummaryFromLeadingComment(t *testing.T) {
	h := NewHeuristics()
	text := "// Package walker enumerates corpus files.\n// It applies extension filters.\npackage walker\n"
	got := h.Summary(text)
	if !strings.Contains(got, "enumerates corpus files") {
		t.Errorf("Summary = %q", got)
	}
	if strings.Contains(got, "package walker") {
		t.Errorf("Summary should stop at code: %q", got)
	}
}

func TestSummaryFallbackToFirstLines(t *testing.T) {
	h := NewHeuristics()
	got := h.Summary("first line of text\n\nsecond paragraph\n")
	if !strings.HasPrefix(got, "first line of text") {
		t.Errorf("Summary = %q", got)
	}
}

func TestSummaryTruncatesOnRuneBoundary(t *testing.T) {
	h := NewHeuristics()
	text := "// x" + strings.Repeat("й", 200) + "\nfunc main() {}\n"
	got := h.Summary(text)
	if len(got) > 240 {
		t.Errorf("Summary length = %d bytes, want <= 240", len(got))
	}
	if !utf8.ValidString(got) {
		t.Errorf("Summary split a rune: %q", got)
	}
}

func TestSummaryEmptyText(t *testing.T) {
	h := NewHeuristics()
	if got := h.Summary(""); got != "" {
		t.Errorf("Summary of empty text = %q, want empty", got)
	}
}

func TestSymbols(t *testing.T) {
	h := NewHeuristics()
	text := "func Encode() {}\ntype Store struct{}\nclass Parser:\ndef tokenize(text):\n"
	got := h.Symbols(text)
	want := []string{"Encode", "Store", "Parser", "tokenize"}
	for _, w := range want {
		if !contains(got, w) {
			t.Errorf("Symbols missing %q in %v", w, got)
		}
	}
}

func TestModules(t *testing.T) {
	h := NewHeuristics()
	text := "import \"go.uber.org/zap\"\nfrom collections import deque\nconst x = require('lodash')\n"
	got := h.Modules(text)
	for _, w := range []string{"go.uber.org/zap", "collections", "lodash"} {
		if !contains(got, w) {
			t.Errorf("Modules missing %q in %v", w, got)
		}
	}
}

func TestHeuristicsNeverFail(t *testing.T) {
	h := NewHeuristics()
	// Nothing extracted is a valid outcome, not an error.
	if got := h.Symbols("no declarations here"); len(got) != 0 {
		t.Errorf("Symbols = %v, want none", got)
	}
	if got := h.Modules("   "); len(got) != 0 {
		t.Errorf("Modules = %v, want none", got)
	}
	if !reflect.DeepEqual(h.Tag("", ""), DefaultTag) {
		t.Error("empty input should yield the default tag")
	}
}

func contains(xs []string, want string) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}
