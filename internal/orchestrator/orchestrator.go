// Package orchestrator drives the translation pipeline: segment the
// document, generate a candidate for each unit, sanitize it, validate it,
// and either accept it or fall back to the original unit. A failed unit
// never fails the document.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/myuanzhang/GlossaryFlow/internal/chunker"
	"github.com/myuanzhang/GlossaryFlow/internal/generator"
	"github.com/myuanzhang/GlossaryFlow/internal/glossary"
	"github.com/myuanzhang/GlossaryFlow/internal/placeholder"
	"github.com/myuanzhang/GlossaryFlow/internal/postprocess"
	"github.com/myuanzhang/GlossaryFlow/internal/profile"
	"github.com/myuanzhang/GlossaryFlow/internal/prompt"
	"github.com/myuanzhang/GlossaryFlow/internal/segment"
	"github.com/myuanzhang/GlossaryFlow/internal/validator"
)

// State names a unit's position in the pipeline. Units move strictly
// forward: Pending, Generating, Sanitizing, Validating, then one of
// Accepted, Retrying (back to Generating), or FallbackOriginal.
type State int

const (
	Pending State = iota
	Generating
	Sanitizing
	Validating
	Accepted
	Retrying
	FallbackOriginal
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Generating:
		return "generating"
	case Sanitizing:
		return "sanitizing"
	case Validating:
		return "validating"
	case Accepted:
		return "accepted"
	case Retrying:
		return "retrying"
	case FallbackOriginal:
		return "fallback_original"
	default:
		return "unknown"
	}
}

// Memory is the translation cache consulted before generating and written
// after acceptance. A nil Memory disables caching.
type Memory interface {
	Lookup(ctx context.Context, source, sourceLang, targetLang string) (string, bool, error)
	Save(ctx context.Context, source, translated, sourceLang, targetLang string) error
}

// Config holds one run's settings.
type Config struct {
	SourceLang  string
	TargetLang  string
	ModelID     string
	Backend     string
	Temperature float32

	// Timeout bounds each generation call. Zero means no per-call deadline.
	Timeout time.Duration

	// Workers bounds concurrent unit translation. Values below 2 mean
	// sequential processing.
	Workers int

	// ChunkSize is the rune budget above which paragraph units are split
	// before generation. Zero disables chunking.
	ChunkSize int

	Glossary   *glossary.Glossary
	DocContext prompt.DocumentContext
	Logger     *slog.Logger
}

// Outcome is what a run produced.
type Outcome struct {
	Content        string
	UnitsProcessed int
	UnitsChanged   int
	Warnings       []string
}

// Orchestrator runs documents through one generator backend.
type Orchestrator struct {
	gen       generator.Generator
	cfg       Config
	prof      profile.Profile
	builder   *prompt.Builder
	sanitizer *postprocess.Sanitizer
	accept    *validator.Translation
	memory    Memory
	log       *slog.Logger
}

// New creates an Orchestrator. The model profile is classified once from the
// configured model and backend; every unit of the run uses it.
func New(gen generator.Generator, memory Memory, cfg Config) *Orchestrator {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		gen:       gen,
		cfg:       cfg,
		prof:      profile.Classify(cfg.ModelID, cfg.Backend),
		builder:   prompt.NewBuilder(cfg.SourceLang, cfg.TargetLang),
		sanitizer: postprocess.New(cfg.SourceLang),
		accept:    validator.NewTranslation(cfg.SourceLang),
		memory:    memory,
		log:       log,
	}
}

type unitResult struct {
	content  string
	changed  bool
	warnings []string
}

// Run translates document and returns the reassembled result. It fails only
// when the backend is unreachable before any unit is attempted; per-unit
// problems become warnings and fall back to the original text.
func (o *Orchestrator) Run(ctx context.Context, document string) (*Outcome, error) {
	if err := o.gen.IsAvailable(ctx); err != nil {
		return nil, fmt.Errorf("backend %s unavailable: %w", o.gen.Name(), err)
	}

	units := segment.Segment(document)
	results := make([]unitResult, len(units))

	o.log.Info("run started",
		"units", len(units),
		"profile", o.prof.String(),
		"backend", o.gen.Name(),
		"model", o.cfg.ModelID)

	if o.cfg.Workers > 1 {
		o.runPool(ctx, units, results)
	} else {
		for i, u := range units {
			results[i] = o.translateUnit(ctx, u)
		}
	}

	outcome := &Outcome{UnitsProcessed: len(units)}
	contents := make([]string, len(units))
	for i, r := range results {
		contents[i] = r.content
		if r.changed {
			outcome.UnitsChanged++
		}
		outcome.Warnings = append(outcome.Warnings, r.warnings...)
	}
	outcome.Content = strings.Join(contents, "\n")

	o.log.Info("run finished",
		"changed", outcome.UnitsChanged,
		"warnings", len(outcome.Warnings))

	return outcome, nil
}

// runPool fans units out to a bounded worker set. Each result slot has a
// single writer (the worker that took that index), so reassembly needs no
// further ordering work.
func (o *Orchestrator) runPool(ctx context.Context, units []segment.Unit, results []unitResult) {
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < o.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = o.translateUnit(ctx, units[i])
			}
		}()
	}

	for i := range units {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// translatable reports whether a unit kind carries prose worth sending to
// the model. Code blocks and blank runs pass through untouched.
func translatable(kind segment.Kind) bool {
	switch kind {
	case segment.CodeBlock, segment.Empty:
		return false
	default:
		return true
	}
}

// translateUnit runs one unit through the state machine and always returns a
// usable result.
func (o *Orchestrator) translateUnit(ctx context.Context, u segment.Unit) unitResult {
	if !translatable(u.Kind) || strings.TrimSpace(u.Content) == "" {
		return unitResult{content: u.Content}
	}

	if o.memory != nil {
		if cached, ok, err := o.memory.Lookup(ctx, u.Content, o.cfg.SourceLang, o.cfg.TargetLang); err == nil && ok {
			return unitResult{content: cached, changed: cached != u.Content}
		}
	}

	protected, markers := placeholder.Protect(u.Content)

	var translated string
	var warnings []string
	if o.cfg.ChunkSize > 0 && u.Kind == segment.Paragraph {
		pieces := chunker.Chunk(protected, o.cfg.ChunkSize)
		outs := make([]string, len(pieces))
		prior := ""
		for i, piece := range pieces {
			out, w := o.generatePiece(ctx, u, piece, prior)
			outs[i] = out
			warnings = append(warnings, w...)
			// Sliding window keeps chunk boundaries coherent.
			prior = chunker.ExtractContext(out, chunker.DefaultContextWords)
		}
		translated = strings.Join(outs, " ")
	} else {
		translated, warnings = o.generatePiece(ctx, u, protected, "")
	}

	restored := placeholder.Restore(translated, markers)
	if missing := placeholder.Validate(translated, markers); len(missing) > 0 {
		warnings = append(warnings, fmt.Sprintf("unit %d-%d: %d protected spans lost",
			u.StartLine, u.EndLine, len(missing)))
	}

	changed := restored != u.Content
	if o.memory != nil && changed && len(warnings) == 0 {
		if err := o.memory.Save(ctx, u.Content, restored, o.cfg.SourceLang, o.cfg.TargetLang); err != nil {
			o.log.Warn("memory save failed", "err", err)
		}
	}

	return unitResult{content: restored, changed: changed, warnings: warnings}
}

// generatePiece is the retry loop for one piece of text. Validation failures
// consume the profile's attempt budget with a strengthened prompt;
// generation errors and timeouts fall back immediately.
func (o *Orchestrator) generatePiece(ctx context.Context, u segment.Unit, text, prior string) (string, []string) {
	basePrompt := o.builder.Build(o.prof, o.cfg.Glossary, o.cfg.DocContext)
	if strings.Contains(text, "[PH") {
		basePrompt += "\n" + placeholder.InstructionHint()
	}
	if prior != "" {
		basePrompt += "\nThe previous passage ended with: ..." + prior + "\nContinue naturally from it. Do not repeat it."
	}

	budget := o.prof.MaxAttempts()
	currentPrompt := basePrompt
	state := Pending

	for attempt := 1; attempt <= budget; attempt++ {
		state = Generating
		raw, err := o.generate(ctx, currentPrompt, text)
		if err != nil {
			// Timeouts and transport errors are not retried; the budget
			// exists for content problems, not infrastructure ones.
			o.log.Warn("generation failed",
				"lines", fmt.Sprintf("%d-%d", u.StartLine, u.EndLine),
				"attempt", attempt,
				"state", state.String(),
				"err", err)
			return text, []string{fmt.Sprintf("unit %d-%d: generation failed: %v", u.StartLine, u.EndLine, err)}
		}

		state = Sanitizing
		var res postprocess.Result
		if o.prof == profile.MTLike {
			res = o.sanitizer.SanitizeMTLike(raw)
		} else {
			res = o.sanitizer.Sanitize(raw)
		}

		state = Validating
		if err := o.accept.Accept(text, res.Cleaned); err == nil {
			o.log.Debug("unit accepted",
				"lines", fmt.Sprintf("%d-%d", u.StartLine, u.EndLine),
				"attempt", attempt)
			return res.Cleaned, nil
		} else if attempt < budget {
			state = Retrying
			o.log.Debug("unit rejected, retrying",
				"lines", fmt.Sprintf("%d-%d", u.StartLine, u.EndLine),
				"attempt", attempt,
				"reason", err)
			currentPrompt = o.builder.Strengthen(basePrompt)
		} else {
			state = FallbackOriginal
			o.log.Warn("unit fell back to original",
				"lines", fmt.Sprintf("%d-%d", u.StartLine, u.EndLine),
				"attempts", budget,
				"reason", err)
			return text, []string{fmt.Sprintf("unit %d-%d: rejected after %d attempts: %v", u.StartLine, u.EndLine, budget, err)}
		}
	}

	return text, nil
}

// generate performs one backend call under the per-call deadline.
func (o *Orchestrator) generate(ctx context.Context, promptText, text string) (string, error) {
	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}
	return o.gen.Generate(ctx, generator.Request{
		Prompt:      promptText,
		Text:        text,
		ModelID:     o.cfg.ModelID,
		SourceLang:  o.cfg.SourceLang,
		TargetLang:  o.cfg.TargetLang,
		Temperature: o.cfg.Temperature,
	})
}
