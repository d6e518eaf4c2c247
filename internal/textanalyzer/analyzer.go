// Package textanalyzer provides the stateless text and link matching
// primitives used by the alert matcher. All matching is case-insensitive,
// non-anchored substring containment; accents and diacritics are not
// normalized beyond HTML entity decoding.
package textanalyzer

import (
	"html"
	"regexp"
	"strings"
)

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	tokenPattern = regexp.MustCompile(`[\w\p{L}\p{M}-]+`)
	urlPattern   = regexp.MustCompile(`https?://[^\s<>'"]+`)
)

// Sanitize strips markup tags and decodes HTML entities, returning plain
// text suitable for substring matching.
func Sanitize(text string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(text, ""))
}

// Tokenize splits sanitized text into word-like tokens, keeping hyphenated
// words intact. Not used on the matching path; exposed for reporting and
// future rule kinds.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(Sanitize(text), -1)
}

// ContainsSubstring reports whether pattern occurs in the sanitized text,
// ignoring case. Single-word and multi-word patterns are handled
// identically: there is deliberately no word-boundary anchoring.
func ContainsSubstring(text, pattern string) bool {
	if pattern == "" {
		return false
	}
	return strings.Contains(
		strings.ToLower(Sanitize(text)),
		strings.ToLower(pattern),
	)
}

// ContainsInLinks extracts every http(s) URL from the unsanitized text and
// reports whether any of them contains pattern, ignoring case. Matching
// against the raw text keeps URLs that tag stripping would mangle.
func ContainsInLinks(text, pattern string) bool {
	if pattern == "" {
		return false
	}
	needle := strings.ToLower(pattern)
	for _, url := range urlPattern.FindAllString(text, -1) {
		if strings.Contains(strings.ToLower(url), needle) {
			return true
		}
	}
	return false
}
