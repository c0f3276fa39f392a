// Package generator abstracts the model backends that produce raw text for
// the pipeline. Backends are thin plumbing: they carry the prompt to the
// model and return whatever came back, untouched. All cleanup happens
// downstream in postprocess.
package generator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrTimeout marks a generation that hit its context deadline. Callers treat
// it as a per-unit failure, not a pipeline failure.
var ErrTimeout = errors.New("generation timed out")

// Request carries one generation call. Chat-style backends send Prompt as the
// system message and Text as the user message; MT-style backends ignore
// Prompt and translate Text directly.
type Request struct {
	Prompt      string
	Text        string
	ModelID     string
	SourceLang  string
	TargetLang  string
	Temperature float32
}

// Generator is the capability every backend provides.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
	IsAvailable(ctx context.Context) error
}

// Config holds the backend settings resolved from flags and the config file.
type Config struct {
	BaseURL         string
	APIKey          string
	CredentialsFile string
	Timeout         time.Duration
}

// Factory builds a backend from its config.
type Factory func(cfg Config) Generator

// registry maps backend names to constructors. Fixed at init; adding a
// backend means adding an entry here.
var registry = map[string]Factory{
	"ollama": func(cfg Config) Generator { return NewOllama(cfg.BaseURL) },
	"openai": func(cfg Config) Generator { return NewOpenAI(cfg.APIKey, cfg.BaseURL) },
	"openrouter": func(cfg Config) Generator {
		return NewOpenRouter(cfg.APIKey, cfg.BaseURL)
	},
	"google": func(cfg Config) Generator { return NewGoogle(cfg.CredentialsFile) },
	"mock":   func(cfg Config) Generator { return NewMock() },
}

// New builds the named backend. The error lists the known names so a typo in
// config is self-explaining.
func New(name string, cfg Config) (Generator, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown backend %q (known: %v)", name, Names())
	}
	return factory(cfg), nil
}

// Names returns the registered backend names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// wrapErr normalizes backend errors: a deadline hit becomes ErrTimeout so the
// orchestrator can tell slowness from breakage.
func wrapErr(ctx context.Context, name string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", name, ErrTimeout)
	}
	return fmt.Errorf("%s: %w", name, err)
}
