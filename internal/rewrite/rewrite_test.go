package rewrite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/myuanzhang/GlossaryFlow/internal/generator"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegistry(t *testing.T) {
	t.Run("known strategies", func(t *testing.T) {
		for _, name := range []string{"line_by_line", "translation_oriented"} {
			s, err := New(name, generator.NewMock(), Config{Lang: "en"})
			if err != nil {
				t.Fatalf("New(%q) error: %v", name, err)
			}
			if s.Name() != name {
				t.Errorf("Name() = %q, want %q", s.Name(), name)
			}
		}
	})

	t.Run("unknown strategy", func(t *testing.T) {
		if _, err := New("nope", generator.NewMock(), Config{}); err == nil {
			t.Fatal("expected error for unknown strategy")
		}
	})

	t.Run("names", func(t *testing.T) {
		want := []string{"line_by_line", "translation_oriented"}
		got := Names()
		if len(got) != len(want) {
			t.Fatalf("Names() = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
			}
		}
	})
}

func TestExtractResponse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain text unchanged",
			input:    "The tool works well.",
			expected: "The tool works well.",
		},
		{
			name:     "lead-in stripped",
			input:    "Here is the rewritten text: The tool works well.",
			expected: "The tool works well.",
		},
		{
			name:     "sure lead-in stripped",
			input:    "Sure, here's the improved version:\nThe tool works well.",
			expected: "The tool works well.",
		},
		{
			name:     "wrapping quotes removed",
			input:    "\"The tool works well.\"",
			expected: "The tool works well.",
		},
		{
			name:     "curly quotes removed",
			input:    "“The tool works well.”",
			expected: "The tool works well.",
		},
		{
			name:     "unmatched quote kept",
			input:    "\"The tool works well.",
			expected: "\"The tool works well.",
		},
		{
			name:     "inner quotes kept",
			input:    "He said \"hello\" twice.",
			expected: "He said \"hello\" twice.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractResponse(tt.input); got != tt.expected {
				t.Errorf("extractResponse(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLineByLineRewritesProse(t *testing.T) {
	gen := &generator.Mock{
		GenerateFunc: func(ctx context.Context, req generator.Request) (string, error) {
			return "Here is the rewritten line: The system behaves oddly.", nil
		},
	}
	s, _ := New("line_by_line", gen, Config{Lang: "en"})

	out := Run(context.Background(), s, "The system is weird.", discardLogger())

	if out.Content != "The system behaves oddly." {
		t.Errorf("Content = %q, want rewritten line", out.Content)
	}
	if out.UnitsChanged != 1 {
		t.Errorf("UnitsChanged = %d, want 1", out.UnitsChanged)
	}
}

func TestLineByLineRejectionKeepsOriginal(t *testing.T) {
	gen := &generator.Mock{
		GenerateFunc: func(ctx context.Context, req generator.Request) (string, error) {
			// Identical output fails rewrite validation.
			return req.Text, nil
		},
	}
	s, _ := New("line_by_line", gen, Config{Lang: "en"})

	doc := "The system is weird."
	out := Run(context.Background(), s, doc, discardLogger())

	if out.Content != doc {
		t.Errorf("Content = %q, want original", out.Content)
	}
	if out.UnitsChanged != 0 {
		t.Errorf("UnitsChanged = %d, want 0", out.UnitsChanged)
	}
}

func TestLineByLineSkipsCode(t *testing.T) {
	var calls atomic.Int32
	gen := &generator.Mock{
		GenerateFunc: func(ctx context.Context, req generator.Request) (string, error) {
			calls.Add(1)
			return req.Text, nil
		},
	}
	s, _ := New("line_by_line", gen, Config{Lang: "en"})

	doc := "```go\nx := weirdName\n```"
	out := Run(context.Background(), s, doc, discardLogger())

	if out.Content != doc {
		t.Errorf("Content = %q, want untouched code block", out.Content)
	}
	if calls.Load() != 0 {
		t.Errorf("backend called %d times for a code block", calls.Load())
	}
}

func TestTranslationOrientedRewrites(t *testing.T) {
	gen := &generator.Mock{
		GenerateFunc: func(ctx context.Context, req generator.Request) (string, error) {
			return "\"The tool achieves two goals at the same time.\"", nil
		},
	}
	s, _ := New("translation_oriented", gen, Config{Lang: "en"})

	out := Run(context.Background(), s, "This tool kills two birds with one stone.", discardLogger())

	if out.Content != "The tool achieves two goals at the same time." {
		t.Errorf("Content = %q, want rewritten paragraph", out.Content)
	}
	if out.UnitsChanged != 1 {
		t.Errorf("UnitsChanged = %d, want 1", out.UnitsChanged)
	}
}

func TestTranslationOrientedPreservesUnits(t *testing.T) {
	var calls atomic.Int32
	gen := &generator.Mock{
		GenerateFunc: func(ctx context.Context, req generator.Request) (string, error) {
			calls.Add(1)
			return req.Text, nil
		},
	}
	s, _ := New("translation_oriented", gen, Config{Lang: "en"})

	tests := []struct {
		name string
		doc  string
	}{
		{name: "header", doc: "# Installation guide"},
		{name: "short fragment", doc: "See below."},
		{name: "bare link", doc: "[docs](https://example.com)"},
		{name: "code block", doc: "```sh\nmake install\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Run(context.Background(), s, tt.doc, discardLogger())
			if out.Content != tt.doc {
				t.Errorf("Content = %q, want untouched %q", out.Content, tt.doc)
			}
			if out.UnitsChanged != 0 {
				t.Errorf("UnitsChanged = %d, want 0", out.UnitsChanged)
			}
		})
	}
	if calls.Load() != 0 {
		t.Errorf("backend called %d times for preserved units", calls.Load())
	}
}

func TestTranslationOrientedRejectionFallsBack(t *testing.T) {
	gen := &generator.Mock{
		GenerateFunc: func(ctx context.Context, req generator.Request) (string, error) {
			// Far too short: fails the 0.4x length bound.
			return "No.", nil
		},
	}
	s, _ := New("translation_oriented", gen, Config{Lang: "en"})

	doc := "This tool kills two birds with one stone."
	out := Run(context.Background(), s, doc, discardLogger())

	if out.Content != doc {
		t.Errorf("Content = %q, want original", out.Content)
	}
	if out.UnitsChanged != 0 {
		t.Errorf("UnitsChanged = %d, want 0", out.UnitsChanged)
	}
}

func TestRunRecordsWarnings(t *testing.T) {
	gen := &generator.Mock{
		GenerateFunc: func(ctx context.Context, req generator.Request) (string, error) {
			return "", errors.New("backend down")
		},
	}
	s, _ := New("line_by_line", gen, Config{Lang: "en"})

	doc := "The system is weird."
	out := Run(context.Background(), s, doc, discardLogger())

	if out.Content != doc {
		t.Errorf("Content = %q, want original after failure", out.Content)
	}
	if len(out.Warnings) != 1 || !strings.Contains(out.Warnings[0], "backend down") {
		t.Errorf("Warnings = %v, want one backend failure", out.Warnings)
	}
}
