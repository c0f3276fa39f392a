// Package postprocess enforces the output contract over raw model text.
//
// Models differ wildly in how they wrap a translation: chat models prepend
// lead-in phrases, reasoning models leak thinking blocks, local models echo
// the instructions or the glossary back, and MT-style backends emit bilingual
// source+target pairs. Sanitize runs a fixed, deterministic stage pipeline
// that strips all of these and guarantees the result starts with actual
// Markdown content. It is pure: same input, same output, no I/O.
package postprocess

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/myuanzhang/GlossaryFlow/internal/script"
)

// Metadata describes what the pipeline did to one raw output.
type Metadata struct {
	Status                 string
	OriginalLength         int
	CleanedLength          int
	RemovedPrefixKind      string
	HasSourceLanguageChars bool
	ForcedRemovalApplied   bool
	ValidationErrors       []string
}

// Result is the outcome of sanitizing one raw model output. Created fresh
// per call, never mutated afterwards.
type Result struct {
	Cleaned string
	Meta    Metadata
}

const (
	// skipCap bounds the forced-removal skip mode so malformed output
	// without headers cannot swallow the whole document.
	skipCap = 20

	// echoScanLimit bounds how deep the instruction-echo and content-start
	// scans look; anything past it is assumed to be genuine content.
	echoScanLimit = 50

	// minKeepRatio is the safety floor: when the pipeline removes more than
	// this share of the input without a forced removal having fired, the
	// aggressive result is discarded in favor of minimal cleanup.
	minKeepRatio = 0.3

	// bilingualLineRatio is the source-script fraction above which a line is
	// dropped by the MT bilingual filter (strictly greater than).
	bilingualLineRatio = 0.4
)

// config holds the fixed pattern tables the pipeline matches against.
// Constructed once below; never mutated.
type config struct {
	skipSectionTriggers []string
	directivePrefixes   []string
	prefixPatterns      []*regexp.Regexp
	thinkingBlockRe     *regexp.Regexp
	answerOpenRe        *regexp.Regexp
	answerCloseRe       *regexp.Regexp
	assistantPrefixRe   *regexp.Regexp
	nonContentPhrases   []string
	contentStartMarkers []string
	artifactPhrases     []string
	skipPatterns        []string
	validStartRes       []*regexp.Regexp
}

var defaultConfig = config{
	// Lines that open an instruction/glossary echo section; everything after
	// them is skipped until the next Markdown header.
	skipSectionTriggers: []string{
		"critical output requirements",
		"important requirements",
		"translation task start",
		"translation task end",
		"glossary:",
		"terminology:",
		"术语表",
		"use these translations for specific terms",
	},

	// Single-line imperative directives dropped individually.
	directivePrefixes: []string{
		"you must",
		"you should",
		"do not",
		"remember",
		"note that",
		"translate the following",
		"you are a professional translator",
	},

	// Known lead-in phrases anchored to the start of the output.
	prefixPatterns: []*regexp.Regexp{
		regexp.MustCompile(`(?i)^here is the (?:translated )?(?:markdown )?document:?\s*\n`),
		regexp.MustCompile(`(?i)^here is the translation:?\s*\n`),
		regexp.MustCompile(`(?i)^translation:?\s*\n`),
		regexp.MustCompile(`(?i)^translated content:?\s*\n`),
		regexp.MustCompile(`^好的，这是.*?翻译：\s*\n`),
		regexp.MustCompile(`^这是您提供的.*?翻译：\s*\n`),
		regexp.MustCompile(`^以下是翻译后的?内容：\s*\n`),
	},

	thinkingBlockRe:   regexp.MustCompile(`(?is)<thinking>.*?</thinking>|<analysis>.*?</analysis>|<reasoning>.*?</reasoning>`),
	answerOpenRe:      regexp.MustCompile(`^\s*<answer>\s*\n*`),
	answerCloseRe:     regexp.MustCompile(`\s*</answer>\s*$`),
	assistantPrefixRe: regexp.MustCompile(`(?i)^\s*assistant>\s*\n*`),

	// Phrase fragments that mark a line as instruction echo rather than
	// content; matched only within the bounded head scan.
	nonContentPhrases: []string{
		"you are a professional translator",
		"translate all chinese text",
		"important requirements:",
		"preserve all markdown formatting",
		"terminology constraints:",
		"do not translate:",
		"variable names",
		"brand names in english",
		"i will translate",
		"let me translate",
		"step 1:",
		"step 2:",
		"translation strategy:",
		"here is my plan",
		"这是您提供的",
		"以下是翻译后的内容",
		"好的，这是",
	},

	// Explicit content boundaries: everything up to and including such a
	// line is instruction text. Markdown headers are deliberately absent;
	// they are legitimate content, never boundaries.
	contentStartMarkers: []string{
		"translation:",
		"translated content:",
		"here is the translation:",
		"below is the translation:",
		"翻译如下：",
		"翻译结果：",
		"以下是翻译：",
	},

	// Residual single-line artifacts removed anywhere in the body.
	artifactPhrases: []string{
		"variable names",
		"brand names in english",
		"preserve all",
		"do not translate:",
		"output only",
		"terminology constraints:",
		"you must use the following",
		"do not paraphrase",
		"if a term in the glossary",
	},

	// Lines skipped while searching for the content start.
	skipPatterns: []string{
		"IMPORTANT",
		"CRITICAL",
		"REQUIREMENTS",
		"TRANSLATION TASK",
		"Glossary:",
		"TERMINOLOGY:",
		"You are",
		"Translate the",
		"===",
	},

	validStartRes: []*regexp.Regexp{
		regexp.MustCompile(`^#{1,6} `),
		regexp.MustCompile(`^[*-] `),
		regexp.MustCompile(`^\d+\. `),
		regexp.MustCompile("^```"),
	},
}

// Sanitizer runs the output contract for one source language. The language
// only affects source-character accounting (metadata and the MT bilingual
// filter); every other stage is language-independent.
type Sanitizer struct {
	sourceRanges []*unicode.RangeTable
}

// New creates a Sanitizer for documents written in sourceLang.
func New(sourceLang string) *Sanitizer {
	return &Sanitizer{sourceRanges: script.Ranges(sourceLang)}
}

// Sanitize converts raw model output into clean target content. Stage order
// is fixed; see the package comment for the failure modes each stage covers.
func (s *Sanitizer) Sanitize(raw string) Result {
	if raw == "" {
		return Result{Meta: Metadata{Status: "empty"}}
	}

	meta := Metadata{Status: "unknown", OriginalLength: len(raw)}

	cleaned, forced := forcedRemoval(raw)
	meta.ForcedRemovalApplied = forced

	if next := stripPrefixPatterns(cleaned); next != cleaned {
		cleaned = next
		meta.RemovedPrefixKind = "pattern_match"
	}

	cleaned = removeThinkingBlocks(cleaned)
	cleaned = unwrapAnswerTags(cleaned)

	if next, removed := removeInstructionEcho(cleaned); removed {
		cleaned = next
		meta.RemovedPrefixKind = "instruction_echo"
	}

	if next, marker := extractFromMarker(cleaned); marker != "" {
		cleaned = next
		meta.RemovedPrefixKind = "marker:" + marker
	}

	cleaned = removeArtifactLines(cleaned)

	next, found := enforceContentStart(cleaned)
	cleaned = next
	if !found {
		meta.ValidationErrors = append(meta.ValidationErrors, "no_valid_content_start")
	}

	cleaned = collapseBlankLines(cleaned)

	// Safety valve: a large reduction without a forced removal means the
	// heuristics ate legitimate content. Fall back to minimal cleanup.
	if !forced && len(cleaned) < int(float64(len(raw))*minKeepRatio) {
		meta.ValidationErrors = append(meta.ValidationErrors, "over_aggressive_cleaning")
		cleaned = minimalCleanup(raw)
	}

	meta.CleanedLength = len(cleaned)
	meta.HasSourceLanguageChars = script.Count(cleaned, s.sourceRanges) > 0
	if cleaned == "" {
		meta.Status = "empty"
	} else {
		meta.Status = "cleaned"
	}

	return Result{Cleaned: cleaned, Meta: meta}
}

// SanitizeMTLike runs the bilingual-line filter before the standard
// pipeline. Dedicated MT backends tend to emit "source line + target line"
// pairs; dropping source-dominant lines wholesale is the reliable fix.
func (s *Sanitizer) SanitizeMTLike(raw string) Result {
	return s.Sanitize(s.dropBilingualLines(raw))
}

// dropBilingualLines removes every non-empty line whose source-script
// character ratio exceeds bilingualLineRatio. The boundary is exclusive: a
// line at exactly the threshold is kept.
func (s *Sanitizer) dropBilingualLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) != "" && script.Ratio(line, s.sourceRanges) > bilingualLineRatio {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// forcedRemoval drops instruction/glossary echo sections and directive
// lines. A trigger line enters skip mode, which discards lines until the
// next Markdown header or the skip cap. Reports whether anything was
// removed: forced removals legitimise large reductions downstream.
func forcedRemoval(text string) (string, bool) {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	skipping := false
	skipped := 0
	removed := false

	for _, line := range lines {
		stripped := strings.TrimSpace(line)

		if stripped == "" {
			if !skipping {
				kept = append(kept, line)
			}
			continue
		}

		lower := strings.ToLower(stripped)

		if !skipping && containsAnyPhrase(lower, defaultConfig.skipSectionTriggers) {
			skipping = true
			skipped = 0
			removed = true
			continue
		}

		if skipping {
			skipped++
			if strings.HasPrefix(stripped, "#") || skipped > skipCap {
				skipping = false
				kept = append(kept, line)
			}
			continue
		}

		if hasAnyPrefix(lower, defaultConfig.directivePrefixes) {
			removed = true
			continue
		}

		// Short "- source: target" lines are almost always glossary echo.
		if strings.HasPrefix(stripped, "- ") && strings.Contains(stripped, ": ") && len(stripped) < 100 {
			removed = true
			continue
		}

		kept = append(kept, line)
	}

	return strings.Join(kept, "\n"), removed
}

func stripPrefixPatterns(text string) string {
	for _, re := range defaultConfig.prefixPatterns {
		if loc := re.FindStringIndex(text); loc != nil && loc[0] == 0 {
			return text[loc[1]:]
		}
	}
	return text
}

func removeThinkingBlocks(text string) string {
	return strings.TrimSpace(defaultConfig.thinkingBlockRe.ReplaceAllString(text, ""))
}

// unwrapAnswerTags strips model-specific wrapper tags from the start and end
// only; the body is untouched.
func unwrapAnswerTags(text string) string {
	text = defaultConfig.answerOpenRe.ReplaceAllString(text, "")
	text = defaultConfig.answerCloseRe.ReplaceAllString(text, "")
	text = defaultConfig.assistantPrefixRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// removeInstructionEcho drops consecutive echo lines at the head of the
// output. The scan is bounded to the first echoScanLimit lines and stops at
// the first line that looks like content, preferring false negatives (echo
// kept) over false positives (content removed).
func removeInstructionEcho(text string) (string, bool) {
	lines := strings.Split(text, "\n")
	limit := min(echoScanLimit, len(lines))
	start := 0
	echoRun := 0

	for i := 0; i < limit; i++ {
		line := strings.TrimSpace(lines[i])

		if line == "" {
			if echoRun > 0 {
				start = i + 1
			}
			continue
		}

		if containsAnyPhrase(strings.ToLower(line), defaultConfig.nonContentPhrases) {
			start = i + 1
			echoRun++
			continue
		}

		if looksLikeContent(line) {
			break
		}

		// Ambiguous line inside an echo run: keep skipping. Outside one,
		// assume it is content and stop.
		if echoRun >= 2 {
			start = i + 1
			continue
		}
		break
	}

	if start == 0 {
		return text, false
	}

	result := strings.TrimSpace(strings.Join(lines[start:], "\n"))
	if len(result) > 20 && start < skipCap {
		return result, true
	}
	return text, false
}

// looksLikeContent is the conservative boundary check used by the echo scan:
// a header marker, substantial length, or inline Markdown syntax.
func looksLikeContent(line string) bool {
	if strings.HasPrefix(line, "#") {
		return true
	}
	if len([]rune(line)) > 30 {
		return true
	}
	hasMarkdown := strings.Contains(line, "**") ||
		strings.Contains(line, "```") ||
		strings.Contains(line, "](") ||
		strings.Contains(line, "[")
	return hasMarkdown && len([]rune(line)) > 20
}

// extractFromMarker drops everything up to and including an explicit
// content-boundary marker line. Returns the marker that matched, if any.
func extractFromMarker(text string) (string, string) {
	lines := strings.Split(text, "\n")

	for i, line := range lines {
		lower := strings.ToLower(strings.TrimSpace(line))
		for _, marker := range defaultConfig.contentStartMarkers {
			if !strings.HasPrefix(lower, marker) {
				continue
			}
			start := i + 1
			for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
				start++
			}
			if start < len(lines) {
				result := strings.TrimSpace(strings.Join(lines[start:], "\n"))
				if len(result) > 20 {
					return result, marker
				}
			}
		}
	}

	return text, ""
}

// removeArtifactLines drops remaining single lines matching the artifact
// phrase list. Structural lines (headers, fences, table rows) are never
// dropped here regardless of what they contain.
func removeArtifactLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))

	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			kept = append(kept, line)
			continue
		}

		structural := strings.HasPrefix(stripped, "#") ||
			strings.HasPrefix(stripped, "```") ||
			(strings.HasPrefix(stripped, "|") && strings.HasSuffix(stripped, "|"))

		if !structural && containsAnyPhrase(strings.ToLower(stripped), defaultConfig.artifactPhrases) {
			continue
		}
		kept = append(kept, line)
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// enforceContentStart discards leading lines until the first one that is
// recognizably Markdown content. When no such line exists within the scan
// bound the text is returned unchanged and flagged, not discarded.
func enforceContentStart(text string) (string, bool) {
	if text == "" {
		return text, false
	}

	lines := strings.Split(text, "\n")
	limit := min(echoScanLimit, len(lines))

	for i := 0; i < limit; i++ {
		stripped := strings.TrimSpace(lines[i])
		if stripped == "" {
			continue
		}

		if containsAnyPhraseFold(stripped, defaultConfig.skipPatterns) {
			continue
		}

		validStart := false
		for _, re := range defaultConfig.validStartRes {
			if re.MatchString(stripped) {
				validStart = true
				break
			}
		}

		substantial := len([]rune(stripped)) > 40
		earlyText := i < 3

		if validStart || substantial || earlyText {
			return strings.TrimSpace(strings.Join(lines[i:], "\n")), true
		}
	}

	return text, false
}

// collapseBlankLines squeezes runs of consecutive blank lines down to one.
func collapseBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	prevBlank := false

	for _, line := range lines {
		blank := strings.TrimSpace(line) == ""
		if blank && prevBlank {
			continue
		}
		kept = append(kept, line)
		prevBlank = blank
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// minimalCleanup is the conservative fallback: thinking-tag removal and
// known-prefix stripping only.
func minimalCleanup(text string) string {
	return strings.TrimSpace(stripPrefixPatterns(removeThinkingBlocks(text)))
}

func containsAnyPhrase(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func containsAnyPhraseFold(s string, phrases []string) bool {
	lower := strings.ToLower(s)
	for _, p := range phrases {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
