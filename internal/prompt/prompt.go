// Package prompt builds the instruction text sent to a generation backend.
// Each model profile gets its own template: reasoning models are told
// explicitly not to emit thinking text, MT-like backends get a minimal
// prompt with only negative constraints (over-instructing them degrades
// quality), and chat models get a fuller task description so they translate
// instead of conversing.
package prompt

import (
	"fmt"
	"strings"

	"github.com/myuanzhang/GlossaryFlow/internal/glossary"
	"github.com/myuanzhang/GlossaryFlow/internal/profile"
)

// DocumentContext carries optional caller-supplied hints about the document
// being processed. Empty fields are skipped.
type DocumentContext struct {
	Intent         string
	TargetAudience string
	Tone           string
	Domain         string
}

// IsEmpty reports whether no context field is set.
func (c DocumentContext) IsEmpty() bool {
	return c.Intent == "" && c.TargetAudience == "" && c.Tone == "" && c.Domain == ""
}

// Builder constructs profile-specific prompts for one language pair.
// Building never fails; prompt size is not validated.
type Builder struct {
	SourceLang string
	TargetLang string
}

// NewBuilder creates a Builder for the given language pair.
func NewBuilder(sourceLang, targetLang string) *Builder {
	return &Builder{SourceLang: sourceLang, TargetLang: targetLang}
}

// Build returns the instruction text for the given profile. The glossary and
// context are optional; when present they are appended as a sorted term list
// and a bulleted block respectively.
func (b *Builder) Build(p profile.Profile, g *glossary.Glossary, ctx DocumentContext) string {
	var base string
	switch p {
	case profile.Reasoning:
		base = b.reasoningTemplate()
	case profile.MTLike:
		base = b.mtLikeTemplate()
	default:
		base = b.chatTemplate()
	}

	var sb strings.Builder
	sb.WriteString(base)

	if !g.IsEmpty() {
		sb.WriteString("\n\nUse these translations for specific terms:\n")
		sb.WriteString(g.PromptSection())
	}

	if !ctx.IsEmpty() {
		sb.WriteString("\n\nDocument context:\n")
		sb.WriteString(contextBlock(ctx))
	}

	return sb.String()
}

// Strengthen prepends an explicit target-language directive for retry
// attempts after a failed validation.
func (b *Builder) Strengthen(prompt string) string {
	directive := fmt.Sprintf(`IMPORTANT: You MUST translate ALL %s text to %s.
- Your output MUST be in %s only
- Do NOT repeat or copy the original %s text
- Every %s sentence must be translated`,
		langName(b.SourceLang), langName(b.TargetLang),
		langName(b.TargetLang),
		langName(b.SourceLang),
		langName(b.SourceLang),
	)
	return directive + "\n\n" + prompt
}

func (b *Builder) reasoningTemplate() string {
	return fmt.Sprintf(`Translate the following Markdown document from %s to %s.

Output rules (strict):
- Output the translation ONLY — no reasoning, no analysis, no plan
- Do NOT emit <thinking>, <reasoning>, or any intermediate steps
- Do NOT explain your choices or add commentary
- Begin your output directly with the first translated line
- Preserve all Markdown formatting, code blocks, and structure`,
		langName(b.SourceLang), langName(b.TargetLang))
}

func (b *Builder) mtLikeTemplate() string {
	return fmt.Sprintf(`Translate the following Markdown document from %s to %s.

- Output ONLY the %s translation
- DO NOT include the original %s text
- DO NOT output bilingual pairs or parallel text
- Preserve all Markdown formatting, code blocks, and structure`,
		langName(b.SourceLang), langName(b.TargetLang),
		langName(b.TargetLang), langName(b.SourceLang))
}

func (b *Builder) chatTemplate() string {
	return fmt.Sprintf(`You are a professional technical translator. Translate the following Markdown document from %s to %s.

Requirements:
- Translate ALL %s text into natural, fluent %s
- Preserve all Markdown formatting: headers, lists, tables, links, emphasis
- Leave code blocks, inline code, URLs, and file paths untranslated
- Keep brand names and product names as they are
- Do not add explanations, notes, or commentary — output the translated document only`,
		langName(b.SourceLang), langName(b.TargetLang),
		langName(b.SourceLang), langName(b.TargetLang))
}

func contextBlock(ctx DocumentContext) string {
	var lines []string
	if ctx.Intent != "" {
		lines = append(lines, "- Intent: "+ctx.Intent)
	}
	if ctx.TargetAudience != "" {
		lines = append(lines, "- Audience: "+ctx.TargetAudience)
	}
	if ctx.Tone != "" {
		lines = append(lines, "- Tone: "+ctx.Tone)
	}
	if ctx.Domain != "" {
		lines = append(lines, "- Domain: "+ctx.Domain)
	}
	return strings.Join(lines, "\n")
}

// langName expands common ISO codes so prompts read naturally; unknown codes
// pass through unchanged.
func langName(code string) string {
	switch strings.ToLower(code) {
	case "zh":
		return "Chinese"
	case "en":
		return "English"
	case "ja":
		return "Japanese"
	case "ko":
		return "Korean"
	case "ru":
		return "Russian"
	case "uk":
		return "Ukrainian"
	case "ar":
		return "Arabic"
	case "de":
		return "German"
	case "fr":
		return "French"
	case "es":
		return "Spanish"
	default:
		return code
	}
}
