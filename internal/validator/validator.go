// Package validator decides whether generated text is usable or the pipeline
// should retry or fall back to the original unit.
//
// Two acceptance checks exist. Translation rejects candidates still dominated
// by source-script characters. Rewrite rejects candidates that drifted too far
// from the original (length, vocabulary, structure) or not far enough
// (verbatim copying). Both are pure heuristics: no I/O, no model calls.
package validator

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/myuanzhang/GlossaryFlow/internal/detector"
	"github.com/myuanzhang/GlossaryFlow/internal/script"
)

const (
	// maxSourceRatio is the source-script character fraction at which a
	// translation candidate is rejected. The boundary itself rejects.
	maxSourceRatio = 0.30

	// Length bounds for rewrite candidates, as a multiple of the original
	// rune count. Translation-oriented rewrites use the tighter lower bound.
	minLengthRatio            = 0.3
	minLengthRatioTranslation = 0.4
	maxLengthRatio            = 3.0

	// minWordOverlap is the required shared-vocabulary fraction for rewrites
	// of texts longer than overlapMinWords words.
	minWordOverlap  = 0.5
	overlapMinWords = 8

	// copySpan is the rune span checked for verbatim opening/ending copying.
	copySpan = 10

	// minValidationLength is the minimum rune count for language detection.
	// Shorter texts produce unreliable results and pass without checking.
	minValidationLength = 20
)

var (
	headerMarkerRe = regexp.MustCompile(`^#{1,6} `)
	listMarkerRe   = regexp.MustCompile(`^\s*(?:[-*+]|\d+\.) `)
)

// Translation accepts or rejects translated units for one source language.
type Translation struct {
	ranges []*unicode.RangeTable
}

// NewTranslation creates a Translation validator for documents written in
// sourceLang.
func NewTranslation(sourceLang string) *Translation {
	return &Translation{ranges: script.Ranges(sourceLang)}
}

// Accept returns nil when candidate is usable as a translation of original.
// A candidate whose source-script character ratio reaches maxSourceRatio is
// rejected; the error names the measured ratio.
func (t *Translation) Accept(original, candidate string) error {
	if strings.TrimSpace(candidate) == "" {
		return fmt.Errorf("candidate is empty")
	}
	if ratio := script.Ratio(candidate, t.ranges); ratio >= maxSourceRatio {
		return fmt.Errorf("source language residue: %.2f of characters", ratio)
	}
	return nil
}

// Rewrite accepts or rejects same-language rewrite candidates.
type Rewrite struct {
	minRatio float64
}

// NewRewrite creates the validator used by the line-by-line strategy.
func NewRewrite() *Rewrite {
	return &Rewrite{minRatio: minLengthRatio}
}

// NewTranslationOrientedRewrite creates the validator used by the
// translation-oriented strategy, which tolerates less shrinkage.
func NewTranslationOrientedRewrite() *Rewrite {
	return &Rewrite{minRatio: minLengthRatioTranslation}
}

// Accept returns nil when candidate is a usable rewrite of original.
//
// A usable rewrite stays within the length bounds, shares at least half the
// original's vocabulary when the original is long enough to measure, differs
// from the original, does not copy its opening or ending verbatim, and keeps
// header and list markers intact.
func (r *Rewrite) Accept(original, candidate string) error {
	orig := strings.TrimSpace(original)
	cand := strings.TrimSpace(candidate)

	if cand == "" {
		return fmt.Errorf("candidate is empty")
	}
	if cand == orig {
		return fmt.Errorf("candidate is identical to the original")
	}

	origRunes := []rune(orig)
	origLen := len(origRunes)
	candLen := len([]rune(cand))

	if origLen > 0 {
		ratio := float64(candLen) / float64(origLen)
		if ratio < r.minRatio || ratio > maxLengthRatio {
			return fmt.Errorf("length ratio %.2f outside [%.1f, %.1f]", ratio, r.minRatio, maxLengthRatio)
		}
	}

	if words := lowerWords(orig); len(words) > overlapMinWords {
		if overlap := wordOverlap(words, lowerWords(cand)); overlap < minWordOverlap {
			return fmt.Errorf("word overlap %.2f below %.1f", overlap, minWordOverlap)
		}
	}

	if origLen > 2*copySpan {
		if strings.HasPrefix(cand, string(origRunes[:copySpan])) {
			return fmt.Errorf("candidate copies the original opening")
		}
		if strings.HasSuffix(cand, string(origRunes[origLen-copySpan:])) {
			return fmt.Errorf("candidate copies the original ending")
		}
	}

	if headerMarkerRe.MatchString(orig) != headerMarkerRe.MatchString(cand) {
		return fmt.Errorf("header marker not preserved")
	}
	if listMarkerRe.MatchString(orig) != listMarkerRe.MatchString(cand) {
		return fmt.Errorf("list marker not preserved")
	}

	return nil
}

func lowerWords(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

// wordOverlap is the fraction of original's distinct words that also appear
// in candidate.
func wordOverlap(original, candidate []string) float64 {
	if len(original) == 0 {
		return 1
	}
	candSet := make(map[string]struct{}, len(candidate))
	for _, w := range candidate {
		candSet[w] = struct{}{}
	}
	seen := make(map[string]struct{}, len(original))
	shared := 0
	for _, w := range original {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if _, ok := candSet[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(seen))
}

// Language checks that text reads as the expected target language. The
// underlying detector is expensive to build; reuse the instance. Used as a
// warning-level check: a mismatch is reported, not retried.
type Language struct {
	det *detector.Detector
}

// NewLanguage creates a Language validator backed by the lingua-go detector.
func NewLanguage() *Language {
	return &Language{det: detector.New()}
}

// Matches returns true when text appears to be written in targetLang.
//
// Short texts and texts whose language cannot be determined pass. When the
// detected language differs from targetLang the returned error names both.
func (l *Language) Matches(text, targetLang string) (bool, error) {
	if targetLang == "" {
		return true, nil
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false, fmt.Errorf("text is empty")
	}

	if len([]rune(trimmed)) < minValidationLength {
		return true, nil
	}

	detected, ok := l.det.DetectISO(trimmed)
	if !ok {
		return true, nil
	}

	if !strings.EqualFold(detected, targetLang) {
		return false, fmt.Errorf("expected %s but detected %s", targetLang, detected)
	}

	return true, nil
}
