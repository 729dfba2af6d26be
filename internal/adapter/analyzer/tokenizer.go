package analyzer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenizer splits text on runs of whitespace. A token is a word as written,
// punctuation and case included, not a model sub-word unit.
type Tokenizer struct{}

// NewTokenizer creates a new Tokenizer.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{}
}

// Tokenize splits text into whitespace-delimited words.
func (t *Tokenizer) Tokenize(text string) []string {
	return strings.Fields(text)
}

// CountTokens returns the number of whitespace-delimited words in text.
func (t *Tokenizer) CountTokens(text string) int {
	n := 0
	inWord := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			inWord = false
			continue
		}
		if !inWord {
			n++
			inWord = true
		}
	}
	return n
}

// Normalize collapses every whitespace run to a single space and trims the ends.
func (t *Tokenizer) Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Truncate shortens text to at most max runes, marking the cut with "...".
func Truncate(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	n := 0
	for i := range text {
		if n == max {
			return text[:i] + "..."
		}
		n++
	}
	return text
}
