package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/myuanzhang/GlossaryFlow/internal/generator"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockMemory struct {
	entries map[string]string
	lookups atomic.Int32
	saves   atomic.Int32
}

func newMockMemory() *mockMemory {
	return &mockMemory{entries: make(map[string]string)}
}

func (m *mockMemory) Lookup(ctx context.Context, source, sourceLang, targetLang string) (string, bool, error) {
	m.lookups.Add(1)
	v, ok := m.entries[source]
	return v, ok, nil
}

func (m *mockMemory) Save(ctx context.Context, source, translated, sourceLang, targetLang string) error {
	m.saves.Add(1)
	m.entries[source] = translated
	return nil
}

func chatConfig() Config {
	return Config{
		SourceLang: "zh",
		TargetLang: "en",
		ModelID:    "gpt-4o",
		Backend:    "openai",
		Logger:     discardLogger(),
	}
}

func TestRunTranslatesUnits(t *testing.T) {
	var calls atomic.Int32
	gen := &generator.Mock{
		GenerateFunc: func(ctx context.Context, req generator.Request) (string, error) {
			calls.Add(1)
			return "FR: " + req.Text, nil
		},
	}

	o := New(gen, nil, chatConfig())
	doc := "# Title\n\nHello world.\n\n```go\nx := 1\n```"

	out, err := o.Run(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "FR: # Title\n\nFR: Hello world.\n\n```go\nx := 1\n```"
	if out.Content != want {
		t.Errorf("Content = %q, want %q", out.Content, want)
	}
	if out.UnitsProcessed != 5 {
		t.Errorf("UnitsProcessed = %d, want 5", out.UnitsProcessed)
	}
	if out.UnitsChanged != 2 {
		t.Errorf("UnitsChanged = %d, want 2", out.UnitsChanged)
	}
	if len(out.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", out.Warnings)
	}
	// Only header and paragraph reach the backend; code and blanks pass through.
	if calls.Load() != 2 {
		t.Errorf("backend called %d times, want 2", calls.Load())
	}
}

func TestRunRetryBudgetExhausted(t *testing.T) {
	var calls atomic.Int32
	gen := &generator.Mock{
		GenerateFunc: func(ctx context.Context, req generator.Request) (string, error) {
			calls.Add(1)
			return "这是中文内容。", nil
		},
	}

	o := New(gen, nil, chatConfig())
	doc := "Hello world paragraph."

	out, err := o.Run(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Content != doc {
		t.Errorf("Content = %q, want original %q", out.Content, doc)
	}
	if out.UnitsChanged != 0 {
		t.Errorf("UnitsChanged = %d, want 0", out.UnitsChanged)
	}
	if calls.Load() != 2 {
		t.Errorf("backend called %d times, want chat budget of 2", calls.Load())
	}
	if len(out.Warnings) != 1 || !strings.Contains(out.Warnings[0], "rejected after 2 attempts") {
		t.Errorf("Warnings = %v, want one rejection warning", out.Warnings)
	}
}

func TestRunStrengthensRetryPrompt(t *testing.T) {
	var prompts []string
	gen := &generator.Mock{
		GenerateFunc: func(ctx context.Context, req generator.Request) (string, error) {
			prompts = append(prompts, req.Prompt)
			return "这是中文内容。", nil
		},
	}

	o := New(gen, nil, chatConfig())
	if _, err := o.Run(context.Background(), "Hello world paragraph."); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(prompts) != 2 {
		t.Fatalf("got %d prompts, want 2", len(prompts))
	}
	if strings.HasPrefix(prompts[0], "IMPORTANT:") {
		t.Error("first prompt already strengthened")
	}
	if !strings.HasPrefix(prompts[1], "IMPORTANT:") {
		t.Errorf("retry prompt not strengthened: %q", prompts[1][:60])
	}
}

func TestRunTimeoutFallsBackWithoutRetry(t *testing.T) {
	var calls atomic.Int32
	gen := &generator.Mock{
		GenerateFunc: func(ctx context.Context, req generator.Request) (string, error) {
			calls.Add(1)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(500 * time.Millisecond):
				return "too late", nil
			}
		},
	}

	cfg := chatConfig()
	cfg.Timeout = 20 * time.Millisecond
	o := New(gen, nil, cfg)
	doc := "Hello world paragraph."

	out, err := o.Run(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Content != doc {
		t.Errorf("Content = %q, want original", out.Content)
	}
	// Timeouts skip the retry budget entirely.
	if calls.Load() != 1 {
		t.Errorf("backend called %d times, want 1", calls.Load())
	}
	if len(out.Warnings) != 1 || !strings.Contains(out.Warnings[0], "generation failed") {
		t.Errorf("Warnings = %v, want one generation failure", out.Warnings)
	}
}

func TestRunBackendUnavailable(t *testing.T) {
	gen := &generator.Mock{
		AvailableFunc: func(ctx context.Context) error {
			return errors.New("connection refused")
		},
	}

	o := New(gen, nil, chatConfig())
	out, err := o.Run(context.Background(), "Hello world.")
	if err == nil {
		t.Fatal("expected error from unavailable backend")
	}
	if out != nil {
		t.Errorf("outcome = %+v, want nil", out)
	}
}

func TestRunMemoryHitSkipsGeneration(t *testing.T) {
	var calls atomic.Int32
	gen := &generator.Mock{
		GenerateFunc: func(ctx context.Context, req generator.Request) (string, error) {
			calls.Add(1)
			return "FR: " + req.Text, nil
		},
	}

	mem := newMockMemory()
	mem.entries["Hello world."] = "Bonjour le monde."

	o := New(gen, mem, chatConfig())
	out, err := o.Run(context.Background(), "Hello world.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Content != "Bonjour le monde." {
		t.Errorf("Content = %q, want cached translation", out.Content)
	}
	if calls.Load() != 0 {
		t.Errorf("backend called %d times on a cache hit", calls.Load())
	}
	if out.UnitsChanged != 1 {
		t.Errorf("UnitsChanged = %d, want 1", out.UnitsChanged)
	}
}

func TestRunMemorySavesAccepted(t *testing.T) {
	gen := &generator.Mock{
		GenerateFunc: func(ctx context.Context, req generator.Request) (string, error) {
			return "FR: " + req.Text, nil
		},
	}

	mem := newMockMemory()
	o := New(gen, mem, chatConfig())
	if _, err := o.Run(context.Background(), "Hello world."); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if mem.saves.Load() != 1 {
		t.Errorf("saves = %d, want 1", mem.saves.Load())
	}
	if got := mem.entries["Hello world."]; got != "FR: Hello world." {
		t.Errorf("cached = %q, want %q", got, "FR: Hello world.")
	}
}

func TestRunWorkersPreserveOrder(t *testing.T) {
	gen := &generator.Mock{
		GenerateFunc: func(ctx context.Context, req generator.Request) (string, error) {
			time.Sleep(time.Duration(len(req.Text)%3) * time.Millisecond)
			return "OK " + req.Text, nil
		},
	}

	cfg := chatConfig()
	cfg.Workers = 4
	o := New(gen, nil, cfg)

	doc := "First paragraph.\n\nSecond paragraph.\n\nThird paragraph."
	out, err := o.Run(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "OK First paragraph.\n\nOK Second paragraph.\n\nOK Third paragraph."
	if out.Content != want {
		t.Errorf("Content = %q, want %q", out.Content, want)
	}
}

func TestRunMTLikeBilingualFiltering(t *testing.T) {
	var calls atomic.Int32
	gen := &generator.Mock{
		GenerateFunc: func(ctx context.Context, req generator.Request) (string, error) {
			calls.Add(1)
			return "Bonjour le monde.\n这是中文内容。", nil
		},
	}

	cfg := chatConfig()
	cfg.Backend = "google-translate"
	cfg.ModelID = ""
	o := New(gen, nil, cfg)

	out, err := o.Run(context.Background(), "Hello world paragraph.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Content != "Bonjour le monde." {
		t.Errorf("Content = %q, want bilingual line dropped", out.Content)
	}
	// MT-like budget is a single attempt.
	if calls.Load() != 1 {
		t.Errorf("backend called %d times, want 1", calls.Load())
	}
}

func TestStateString(t *testing.T) {
	states := map[State]string{
		Pending:          "pending",
		Generating:       "generating",
		Sanitizing:       "sanitizing",
		Validating:       "validating",
		Accepted:         "accepted",
		Retrying:         "retrying",
		FallbackOriginal: "fallback_original",
	}
	for s, want := range states {
		if s.String() != want {
			t.Errorf("State(%d).String() = %q, want %q", s, s.String(), want)
		}
	}
}

func TestRunChunksLongParagraphs(t *testing.T) {
	var prompts []string
	gen := &generator.Mock{
		GenerateFunc: func(ctx context.Context, req generator.Request) (string, error) {
			prompts = append(prompts, req.Prompt)
			return "FR " + req.Text, nil
		},
	}

	cfg := chatConfig()
	cfg.ChunkSize = 30
	o := New(gen, nil, cfg)

	doc := "One two three four five. Six seven eight nine ten."
	outcome, err := o.Run(context.Background(), doc)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(prompts) != 2 {
		t.Fatalf("expected 2 generation calls for 2 pieces, got %d", len(prompts))
	}
	expected := "FR One two three four five. FR Six seven eight nine ten."
	if outcome.Content != expected {
		t.Errorf("expected %q, got %q", expected, outcome.Content)
	}
	if strings.Contains(prompts[0], "previous passage") {
		t.Error("first piece should carry no continuity context")
	}
	if !strings.Contains(prompts[1], "previous passage ended with: ...FR One two three four five.") {
		t.Errorf("second piece should carry the first piece's tail, got:\n%s", prompts[1])
	}
}
