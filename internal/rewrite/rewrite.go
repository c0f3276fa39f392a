// Package rewrite improves a document in its own language. Two strategies
// exist: line_by_line rewrites each prose line for clarity, and
// translation_oriented reshapes paragraphs so downstream machine translation
// has an easier time. Rejected candidates fall back to the original text,
// same as translation.
package rewrite

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/myuanzhang/GlossaryFlow/internal/generator"
	"github.com/myuanzhang/GlossaryFlow/internal/segment"
)

// Config holds one rewrite run's settings.
type Config struct {
	Lang        string
	ModelID     string
	Temperature float32

	// Timeout bounds each generation call. Zero means no per-call deadline.
	Timeout time.Duration

	Logger *slog.Logger
}

// Strategy rewrites one unit. Returns the new content and whether it
// differs from the original; a nil error with changed=false means the unit
// was deliberately left alone.
type Strategy interface {
	Name() string
	RewriteUnit(ctx context.Context, u segment.Unit) (string, bool, error)
}

// Factory builds a strategy around a generator backend.
type Factory func(gen generator.Generator, cfg Config) Strategy

// registry maps strategy names to constructors. Fixed at init.
var registry = map[string]Factory{
	"line_by_line": func(gen generator.Generator, cfg Config) Strategy {
		return newLineByLine(gen, cfg)
	},
	"translation_oriented": func(gen generator.Generator, cfg Config) Strategy {
		return newTranslationOriented(gen, cfg)
	},
}

// New builds the named strategy.
func New(name string, gen generator.Generator, cfg Config) (Strategy, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (known: %v)", name, Names())
	}
	return factory(gen, cfg), nil
}

// Names returns the registered strategy names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Outcome is what a rewrite run produced.
type Outcome struct {
	Content        string
	UnitsProcessed int
	UnitsChanged   int
	Warnings       []string
}

// Run applies a strategy to the whole document. Per-unit failures become
// warnings; the unit keeps its original text.
func Run(ctx context.Context, s Strategy, document string, log *slog.Logger) *Outcome {
	if log == nil {
		log = slog.Default()
	}

	units := segment.Segment(document)
	outcome := &Outcome{UnitsProcessed: len(units)}
	contents := make([]string, len(units))

	log.Info("rewrite started", "units", len(units), "strategy", s.Name())

	for i, u := range units {
		rewritten, changed, err := s.RewriteUnit(ctx, u)
		if err != nil {
			log.Warn("unit rewrite failed",
				"lines", fmt.Sprintf("%d-%d", u.StartLine, u.EndLine),
				"err", err)
			outcome.Warnings = append(outcome.Warnings,
				fmt.Sprintf("unit %d-%d: %v", u.StartLine, u.EndLine, err))
			contents[i] = u.Content
			continue
		}
		contents[i] = rewritten
		if changed {
			outcome.UnitsChanged++
		}
	}

	outcome.Content = strings.Join(contents, "\n")
	log.Info("rewrite finished", "changed", outcome.UnitsChanged)
	return outcome
}
