// Package chunker splits oversized paragraphs into pieces a model can
// translate in one call, preferring splits that keep sentences whole. It
// also supplies the trailing-words snippet used to carry continuity from
// one piece into the next piece's prompt.
package chunker

import (
	"strings"
	"unicode"
)

// DefaultContextWords is how many trailing words ExtractContext keeps when
// the caller does not say otherwise.
const DefaultContextWords = 25

// Chunk splits text into pieces of at most maxChars runes. Boundaries are
// chosen in order of preference: blank line, sentence-ending punctuation,
// whitespace, then a hard cut when nothing better exists within the budget.
// Text that already fits comes back as a single piece, as does any text
// when maxChars is zero or negative.
func Chunk(text string, maxChars int) []string {
	runes := []rune(text)
	if maxChars <= 0 || len(runes) <= maxChars {
		return []string{text}
	}

	var pieces []string
	for len(runes) > maxChars {
		cut := findCut(runes, maxChars)
		if piece := strings.TrimSpace(string(runes[:cut])); piece != "" {
			pieces = append(pieces, piece)
		}
		runes = []rune(strings.TrimSpace(string(runes[cut:])))
	}
	if rest := strings.TrimSpace(string(runes)); rest != "" {
		pieces = append(pieces, rest)
	}
	return pieces
}

// findCut returns the rune index to cut at, at most maxChars, searching
// backwards through the candidate window for the best boundary.
func findCut(runes []rune, maxChars int) int {
	window := string(runes[:maxChars])

	// Blank-line boundary. The separator stays with the consumed piece so
	// the remainder starts on content.
	if i := strings.LastIndex(window, "\r\n\r\n"); i > 0 {
		return len([]rune(window[:i+4]))
	}
	if i := strings.LastIndex(window, "\n\n"); i > 0 {
		return len([]rune(window[:i+2]))
	}

	// Sentence end: terminal punctuation followed by whitespace.
	wr := []rune(window)
	for i := len(wr) - 2; i > 0; i-- {
		r := wr[i]
		if (r == '.' || r == '!' || r == '?') && unicode.IsSpace(wr[i+1]) {
			return i + 1
		}
	}

	// Any whitespace, then a hard cut.
	for i := len(wr) - 1; i > 0; i-- {
		if unicode.IsSpace(wr[i]) {
			return i
		}
	}
	return maxChars
}

// ExtractContext returns the last wordCount words of text joined by single
// spaces. Shorter texts come back whole. A non-positive wordCount falls
// back to DefaultContextWords.
func ExtractContext(text string, wordCount int) string {
	if wordCount <= 0 {
		wordCount = DefaultContextWords
	}
	words := strings.Fields(text)
	if len(words) <= wordCount {
		return strings.TrimSpace(text)
	}
	return strings.Join(words[len(words)-wordCount:], " ")
}
