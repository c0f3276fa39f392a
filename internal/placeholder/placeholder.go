// Package placeholder shields inline markup from the model. Inline code
// spans, HTML tags, and Markdown link targets are swapped for numbered
// [PHn] markers before generation and swapped back afterwards, so the
// model can neither translate nor mangle them. Fenced code blocks never
// get here; segmentation keeps them out of translatable units entirely.
package placeholder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	reInlineCode = regexp.MustCompile("`[^`]+`")
	reHTMLTag    = regexp.MustCompile(`<[^>]+>`)

	// Markdown link and image targets. The label stays translatable; only
	// the (url) part is protected.
	reLinkTarget = regexp.MustCompile(`\]\([^)\s]+\)`)

	reMarker = regexp.MustCompile(`\[PH(\d+)\]`)
)

// Protect replaces protected spans with [PH0], [PH1], ... in order of
// appearance and returns the rewritten text with the captured originals.
func Protect(text string) (string, []string) {
	var spans []string

	capture := func(match string) string {
		marker := fmt.Sprintf("[PH%d]", len(spans))
		spans = append(spans, match)
		return marker
	}

	// Inline code first so a tag inside backticks is captured whole.
	text = reInlineCode.ReplaceAllStringFunc(text, capture)
	text = reHTMLTag.ReplaceAllStringFunc(text, capture)
	text = reLinkTarget.ReplaceAllStringFunc(text, capture)

	return text, spans
}

// Restore substitutes [PHn] markers back with the spans captured by
// Protect. Markers with out-of-range indices are left as written.
func Restore(text string, spans []string) string {
	return reMarker.ReplaceAllStringFunc(text, func(match string) string {
		sub := reMarker.FindStringSubmatch(match)
		idx, err := strconv.Atoi(sub[1])
		if err != nil || idx < 0 || idx >= len(spans) {
			return match
		}
		return spans[idx]
	})
}

// InstructionHint is the prompt line that tells the model to keep markers.
func InstructionHint() string {
	return "Preserve all [PHn] markers exactly as they appear. Do not translate, move, or remove them."
}

// Validate returns the indices of spans whose markers no longer appear in
// text. An empty result means every protected span survived generation.
func Validate(text string, spans []string) []int {
	var missing []int
	for i := range spans {
		if !strings.Contains(text, fmt.Sprintf("[PH%d]", i)) {
			missing = append(missing, i)
		}
	}
	return missing
}
