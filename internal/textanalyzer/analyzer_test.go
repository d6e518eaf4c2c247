package textanalyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain text", "hello world", "hello world"},
		{"strips tags", "<b>bold</b> and <i>italic</i>", "bold and italic"},
		{"decodes entities", "fish &amp; chips &lt;now&gt;", "fish & chips <now>"},
		{"tags then entities", "<p>caf&eacute;</p>", "café"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Sanitize(tt.input))
		})
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"simple words", "hello world", []string{"hello", "world"}},
		{"keeps hyphenated words", "state-of-the-art kit", []string{"state-of-the-art", "kit"}},
		{"drops punctuation", "one, two; three!", []string{"one", "two", "three"}},
		{"accented words", "ação política", []string{"ação", "política"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Tokenize(tt.input))
		})
	}
}

func TestContainsSubstring(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		pattern  string
		expected bool
	}{
		{"exact word", "selling drugs tonight", "drugs", true},
		{"case insensitive", "Selling DRUGS tonight", "drugs", true},
		{"inside larger word", "drugstore on main st", "drugs", true},
		{"multi word pattern", "meet at the old warehouse", "old warehouse", true},
		{"pattern behind markup", "<b>dru</b>gs for sale", "drugs", true},
		{"no match", "nothing to see here", "drugs", false},
		{"empty pattern never matches", "anything", "", false},
		{"empty text", "", "drugs", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ContainsSubstring(tt.text, tt.pattern))
		})
	}
}

func TestContainsInLinks(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		pattern  string
		expected bool
	}{
		{"pattern in url path", "see https://evil.example/drugs-market now", "drugs", true},
		{"pattern in url host", "http://drugs.example/home", "drugs", true},
		{"case insensitive", "https://Evil.Example/DRUGS", "drugs", true},
		{"pattern only outside urls", "drugs at https://clean.example/page", "drugs", false},
		{"multiple urls second matches", "https://a.example/x https://b.example/drugs", "drugs", true},
		{"https only no scheme", "visit evil.example/drugs", "drugs", false},
		{"url stops at quote", `<a href="https://evil.example/drugs">x</a>`, "drugs", true},
		{"empty pattern never matches", "https://evil.example/drugs", "", false},
		{"no urls", "plain text with drugs", "drugs", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ContainsInLinks(tt.text, tt.pattern))
		})
	}
}
