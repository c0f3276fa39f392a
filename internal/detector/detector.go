// Package detector identifies the language of a text with lingua-go. It
// backs the "auto" source-language mode and the target-language acceptance
// check.
package detector

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"
)

// Detector wraps a lingua detector built over all supported languages.
// Building one is expensive; construct it once and reuse it.
type Detector struct {
	det lingua.LanguageDetector
}

func New() *Detector {
	return &Detector{
		det: lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			Build(),
	}
}

// Detect returns the most likely language of text. Empty and undecidable
// texts report false.
func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if text == "" {
		return lingua.Unknown, false
	}
	return d.det.DetectLanguageOf(text)
}

// DetectISO returns the lowercase ISO 639-1 code of the detected language,
// matching the codes used everywhere else in the pipeline.
func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}
