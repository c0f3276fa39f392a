package rewrite

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/myuanzhang/GlossaryFlow/internal/generator"
	"github.com/myuanzhang/GlossaryFlow/internal/segment"
	"github.com/myuanzhang/GlossaryFlow/internal/validator"
)

var (
	// Lead-ins models like to prepend to a rewrite.
	reRewritePrefix = regexp.MustCompile(`(?i)^(?:sure[,!]?\s*)?(?:here(?:'s| is) (?:the |a |your )?)?(?:rewritten|revised|improved|simplified|clearer) (?:text|line|version|paragraph):?\s*`)

	// Bare links and images are left untouched by the
	// translation-oriented strategy.
	reBareLink = regexp.MustCompile(`^!?\[[^\]]*\]\([^)]*\)$`)
)

// extractResponse trims a raw model reply down to the rewrite itself:
// lead-in phrase, wrapping quotes, surrounding whitespace.
func extractResponse(raw string) string {
	text := strings.TrimSpace(raw)
	text = reRewritePrefix.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	runes := []rune(text)
	if len(runes) >= 2 {
		first, last := runes[0], runes[len(runes)-1]
		pairs := map[rune]rune{'"': '"', '\'': '\'', '«': '»', '“': '”', '‘': '’'}
		if closing, ok := pairs[first]; ok && last == closing {
			text = strings.TrimSpace(string(runes[1 : len(runes)-1]))
		}
	}
	return text
}

func generate(ctx context.Context, gen generator.Generator, cfg Config, promptText, text string) (string, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	return gen.Generate(ctx, generator.Request{
		Prompt:      promptText,
		Text:        text,
		ModelID:     cfg.ModelID,
		SourceLang:  cfg.Lang,
		TargetLang:  cfg.Lang,
		Temperature: cfg.Temperature,
	})
}

// lineByLine rewrites each prose line of a unit independently. A rejected
// line keeps its original text; the unit's line count never changes.
type lineByLine struct {
	gen    generator.Generator
	cfg    Config
	accept *validator.Rewrite
}

func newLineByLine(gen generator.Generator, cfg Config) *lineByLine {
	return &lineByLine{gen: gen, cfg: cfg, accept: validator.NewRewrite()}
}

func (s *lineByLine) Name() string { return "line_by_line" }

const lineByLinePrompt = `Rewrite the following line to be clearer and simpler.
Keep the meaning and any Markdown markers exactly.
Output only the rewritten line, nothing else.`

func (s *lineByLine) RewriteUnit(ctx context.Context, u segment.Unit) (string, bool, error) {
	switch u.Kind {
	case segment.CodeBlock, segment.Empty, segment.TableRow:
		return u.Content, false, nil
	}

	lines := strings.Split(u.Content, "\n")
	changed := false

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		raw, err := generate(ctx, s.gen, s.cfg, lineByLinePrompt, line)
		if err != nil {
			return "", false, fmt.Errorf("line %d: %w", u.StartLine+i, err)
		}

		candidate := extractResponse(raw)
		if err := s.accept.Accept(line, candidate); err != nil {
			continue
		}
		lines[i] = candidate
		changed = true
	}

	return strings.Join(lines, "\n"), changed, nil
}

// translationOriented reshapes whole paragraphs into machine-translation
// friendly prose. Structural units, bare links, and short fragments are
// preserved as-is: reshaping them costs more than it helps.
type translationOriented struct {
	gen    generator.Generator
	cfg    Config
	accept *validator.Rewrite
}

func newTranslationOriented(gen generator.Generator, cfg Config) *translationOriented {
	return &translationOriented{gen: gen, cfg: cfg, accept: validator.NewTranslationOrientedRewrite()}
}

func (s *translationOriented) Name() string { return "translation_oriented" }

const translationOrientedPrompt = `Rewrite the following text so it is easy to machine-translate:
- Short, complete sentences with explicit subjects
- No idioms, wordplay, or cultural references
- Keep the meaning and all Markdown formatting
Output only the rewritten text, nothing else.`

const minRewriteWords = 4

func (s *translationOriented) RewriteUnit(ctx context.Context, u segment.Unit) (string, bool, error) {
	if !s.shouldRewrite(u) {
		return u.Content, false, nil
	}

	raw, err := generate(ctx, s.gen, s.cfg, translationOrientedPrompt, u.Content)
	if err != nil {
		return "", false, fmt.Errorf("lines %d-%d: %w", u.StartLine, u.EndLine, err)
	}

	candidate := extractResponse(raw)
	if err := s.accept.Accept(u.Content, candidate); err != nil {
		return u.Content, false, nil
	}
	return candidate, true, nil
}

func (s *translationOriented) shouldRewrite(u segment.Unit) bool {
	switch u.Kind {
	case segment.CodeBlock, segment.Empty, segment.TableRow, segment.Header:
		return false
	}
	trimmed := strings.TrimSpace(u.Content)
	if reBareLink.MatchString(trimmed) {
		return false
	}
	return len(strings.Fields(trimmed)) >= minRewriteWords
}
