// Package script counts source-language characters in model output. The
// translation validator and the bilingual-line filter both decide based on
// the fraction of source-script runes in a candidate text.
package script

import (
	"strings"
	"unicode"
)

// Ranges returns the Unicode range tables that make up the writing system of
// an ISO language code. Han is the default: the common case is translating
// Chinese technical documents, and CJK leakage is what the heuristics were
// tuned against.
func Ranges(lang string) []*unicode.RangeTable {
	switch strings.ToLower(lang) {
	case "ja":
		return []*unicode.RangeTable{unicode.Han, unicode.Hiragana, unicode.Katakana}
	case "ko":
		return []*unicode.RangeTable{unicode.Hangul}
	case "ru", "uk":
		return []*unicode.RangeTable{unicode.Cyrillic}
	case "ar":
		return []*unicode.RangeTable{unicode.Arabic}
	case "el":
		return []*unicode.RangeTable{unicode.Greek}
	default:
		return []*unicode.RangeTable{unicode.Han}
	}
}

// Count returns the number of runes in text belonging to any of the ranges.
func Count(text string, ranges []*unicode.RangeTable) int {
	n := 0
	for _, r := range text {
		if unicode.IsOneOf(ranges, r) {
			n++
		}
	}
	return n
}

// Ratio returns the fraction of runes in text belonging to any of the
// ranges, in [0, 1]. Empty text has ratio 0.
func Ratio(text string, ranges []*unicode.RangeTable) float64 {
	total := 0
	matched := 0
	for _, r := range text {
		total++
		if unicode.IsOneOf(ranges, r) {
			matched++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total)
}
