// Package classify provides the default pattern-based metadata heuristics:
// topical tagging, summary extraction, and declared-symbol / referenced-module
// scanning. All heuristics are best-effort; finding nothing is not an error.
package classify

import (
	"regexp"
	"strings"

	"github.com/hyperjump/shirabe/pkg/utils"
)

// DefaultTag is assigned when no topical pattern matches.
const DefaultTag = "core"

// maxExtracted bounds the symbol and module lists per document.
const maxExtracted = 64

// tagRule maps a pattern over the relative path and content to a tag.
type tagRule struct {
	tag     string
	pattern *regexp.Regexp
}

// Heuristics implements the encoder's Extractor interface with regular
// expressions. Swappable: the engine's correctness does not depend on these
// patterns.
type Heuristics struct {
	tagRules []tagRule
	symbols  []*regexp.Regexp
	modules  []*regexp.Regexp
}

// NewHeuristics returns the built-in heuristics.
func NewHeuristics() *Heuristics {
	return &Heuristics{
		tagRules: []tagRule{
			{"auth", regexp.MustCompile(`(?i)\b(auth|login|credential|oauth|token|password)`)},
			{"network", regexp.MustCompile(`(?i)\b(http|socket|grpc|tcp|udp|request|proxy)`)},
			{"storage", regexp.MustCompile(`(?i)\b(storage|database|sql|cache|repository|persist)`)},
			{"crypto", regexp.MustCompile(`(?i)\b(crypt|cipher|hash|signature|hmac)`)},
			{"testing", regexp.MustCompile(`(?i)(_test\.|\btest_|\bspec\b|\bfixture)`)},
			{"interface", regexp.MustCompile(`(?i)\b(render|view|widget|template|frontend|ui)\b`)},
			{"docs", regexp.MustCompile(`(?i)(\breadme\b|\.md$|\.rst$|\bdocs?/)`)},
		},
		symbols: []*regexp.Regexp{
			regexp.MustCompile(`(?m)^\s*func\s+(?:\([^)]+\)\s*)?([A-Za-z_]\w*)`),
			regexp.MustCompile(`(?m)^\s*type\s+([A-Za-z_]\w*)`),
			regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:async\s+)?function\s+([A-Za-z_$]\w*)`),
			regexp.MustCompile(`(?m)^\s*class\s+([A-Za-z_]\w*)`),
			regexp.MustCompile(`(?m)^\s*def\s+([A-Za-z_]\w*)`),
			regexp.MustCompile(`(?m)^\s*(?:pub\s+)?(?:struct|enum|trait|fn)\s+([A-Za-z_]\w*)`),
		},
		modules: []*regexp.Regexp{
			regexp.MustCompile(`(?m)^\s*import\s+(?:\w+\s+)?"([^"]+)"`),
			regexp.MustCompile(`(?m)^\s*(?:import|from)\s+([\w.]+)`),
			regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`),
			regexp.MustCompile(`(?m)^\s*use\s+([\w:]+)`),
			regexp.MustCompile(`(?m)^\s*#include\s*[<"]([^>"]+)[>"]`),
		},
	}
}

// Tag returns the first matching topical tag for a document, checking the
// relative path first and then the content. Defaults to "core".
func (h *Heuristics) Tag(relativePath, text string) string {
	for _, rule := range h.tagRules {
		if rule.pattern.MatchString(relativePath) {
			return rule.tag
		}
	}
	for _, rule := range h.tagRules {
		if rule.pattern.MatchString(text) {
			return rule.tag
		}
	}
	return DefaultTag
}

// summaryLimit caps the extracted summary length in bytes.
const summaryLimit = 240

// Summary derives a short description from the leading documentation comment
// or, absent one, the first few non-empty lines of text.
func (h *Heuristics) Summary(text string) string {
	lines := strings.Split(text, "\n")
	var parts []string
	inComment := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if len(parts) > 0 {
				break
			}
			continue
		}
		stripped, isComment := stripCommentMarker(trimmed, inComment)
		if isComment {
			inComment = !strings.Contains(trimmed, "*/") &&
				(inComment || strings.HasPrefix(trimmed, "/*"))
			if stripped != "" {
				parts = append(parts, stripped)
			}
			if len(parts) >= 3 {
				break
			}
			continue
		}
		if len(parts) > 0 {
			break
		}
		// No leading comment: fall back to the first few plain lines.
		for _, l := range lines {
			t := strings.TrimSpace(l)
			if t == "" {
				continue
			}
			parts = append(parts, t)
			if len(parts) >= 2 {
				break
			}
		}
		break
	}
	return utils.Truncate(strings.Join(parts, " "), summaryLimit)
}

// stripCommentMarker removes a leading comment marker, reporting whether the
// line is part of a comment.
func stripCommentMarker(line string, inBlock bool) (string, bool) {
	switch {
	case strings.HasPrefix(line, "//"):
		return strings.TrimSpace(strings.TrimLeft(line, "/ ")), true
	case strings.HasPrefix(line, "#!"):
		return "", true
	case strings.HasPrefix(line, "#"):
		return strings.TrimSpace(strings.TrimLeft(line, "# ")), true
	case strings.HasPrefix(line, "/*"):
		s := strings.TrimPrefix(line, "/*")
		s = strings.TrimSuffix(s, "*/")
		return strings.TrimSpace(strings.TrimLeft(s, "* ")), true
	case inBlock:
		s := strings.TrimSuffix(line, "*/")
		return strings.TrimSpace(strings.TrimLeft(s, "* ")), true
	default:
		return "", false
	}
}

// Symbols returns declared identifiers found by the symbol patterns.
// Not guaranteed complete or unique.
func (h *Heuristics) Symbols(text string) []string {
	return h.collect(h.symbols, text)
}

// Modules returns referenced module/import names found by the module
// patterns. Not guaranteed complete or unique.
func (h *Heuristics) Modules(text string) []string {
	return h.collect(h.modules, text)
}

func (h *Heuristics) collect(patterns []*regexp.Regexp, text string) []string {
	var out []string
	for _, p := range patterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			if len(m) > 1 && m[1] != "" {
				out = append(out, m[1])
				if len(out) >= maxExtracted {
					return out
				}
			}
		}
	}
	return out
}
