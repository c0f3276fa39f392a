package validator

import (
	"strings"
	"testing"
)

func TestTranslationAccept(t *testing.T) {
	v := NewTranslation("zh")

	tests := []struct {
		name      string
		candidate string
		wantErr   bool
	}{
		{
			name:      "clean target text",
			candidate: "The server restarts automatically.",
			wantErr:   false,
		},
		{
			name:      "empty candidate",
			candidate: "",
			wantErr:   true,
		},
		{
			name:      "whitespace only",
			candidate: "   \n  ",
			wantErr:   true,
		},
		{
			name:      "mostly source script",
			candidate: "这是完全没有翻译的中文内容。",
			wantErr:   true,
		},
		{
			// 3 Han runes out of 10: exactly at the boundary, rejected.
			name:      "ratio at boundary rejected",
			candidate: "中中中abcdefg",
			wantErr:   true,
		},
		{
			// 3 Han runes out of 11: just under the boundary, accepted.
			name:      "ratio just under boundary accepted",
			candidate: "中中中abcdefgh",
			wantErr:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Accept("这是中文内容。", tt.candidate)
			if (err != nil) != tt.wantErr {
				t.Errorf("Accept(%q) error = %v, wantErr %v", tt.candidate, err, tt.wantErr)
			}
		})
	}
}

func TestRewriteAccept(t *testing.T) {
	v := NewRewrite()

	tests := []struct {
		name      string
		original  string
		candidate string
		wantErr   bool
	}{
		{
			name:      "reworded sentence accepted",
			original:  "the quick brown fox jumps over the lazy dog today",
			candidate: "today the lazy dog jumps across a quick stream",
			wantErr:   false,
		},
		{
			name:      "empty candidate",
			original:  "Some original sentence.",
			candidate: "",
			wantErr:   true,
		},
		{
			name:      "identical candidate",
			original:  "Some original sentence.",
			candidate: "Some original sentence.",
			wantErr:   true,
		},
		{
			name:      "too short",
			original:  "A reasonably long original sentence for the test.",
			candidate: "Short.",
			wantErr:   true,
		},
		{
			name:      "too long",
			original:  "Brief original.",
			candidate: strings.Repeat("padding words everywhere ", 10),
			wantErr:   true,
		},
		{
			name:      "vocabulary drifted too far",
			original:  "the quick brown fox jumps over the lazy dog today",
			candidate: "completely different words appear in this replacement sentence now okay",
			wantErr:   true,
		},
		{
			name:      "opening copied verbatim",
			original:  "Alpha beta gamma delta epsilon zeta.",
			candidate: "Alpha beta rearranged totally now.",
			wantErr:   true,
		},
		{
			name:      "ending copied verbatim",
			original:  "Numbers one two three four five six.",
			candidate: "Different text entirely four five six.",
			wantErr:   true,
		},
		{
			name:      "header marker dropped",
			original:  "# Section title",
			candidate: "Section title reworded",
			wantErr:   true,
		},
		{
			name:      "header marker preserved",
			original:  "# Old heading text",
			candidate: "# New heading words",
			wantErr:   false,
		},
		{
			name:      "list marker dropped",
			original:  "- item about configuration",
			candidate: "item about configuration reworded",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Accept(tt.original, tt.candidate)
			if (err != nil) != tt.wantErr {
				t.Errorf("Accept(%q, %q) error = %v, wantErr %v", tt.original, tt.candidate, err, tt.wantErr)
			}
		})
	}
}

func TestRewriteTranslationOrientedBound(t *testing.T) {
	original := "abcdefghij klmnopqrst"
	candidate := "zzzz yy"

	// Ratio 7/21 sits between the two lower bounds.
	if err := NewRewrite().Accept(original, candidate); err != nil {
		t.Errorf("standard bound rejected ratio 0.33: %v", err)
	}
	if err := NewTranslationOrientedRewrite().Accept(original, candidate); err == nil {
		t.Error("translation-oriented bound accepted ratio 0.33")
	}
}

func TestLanguageMatches(t *testing.T) {
	l := NewLanguage()

	t.Run("empty target passes", func(t *testing.T) {
		ok, err := l.Matches("Some translated text", "")
		if err != nil || !ok {
			t.Errorf("Matches = %v, %v, want true, nil", ok, err)
		}
	})

	t.Run("empty text fails", func(t *testing.T) {
		ok, err := l.Matches("   ", "en")
		if err == nil || ok {
			t.Errorf("Matches = %v, %v, want false with error", ok, err)
		}
	})

	t.Run("short text passes unchecked", func(t *testing.T) {
		ok, err := l.Matches("Hi", "en")
		if err != nil || !ok {
			t.Errorf("Matches = %v, %v, want true, nil", ok, err)
		}
	})

	t.Run("matching language", func(t *testing.T) {
		ok, err := l.Matches("This is a longer piece of text that should be detected as English.", "en")
		if err != nil || !ok {
			t.Errorf("Matches = %v, %v, want true, nil", ok, err)
		}
	})

	t.Run("mismatched language", func(t *testing.T) {
		ok, err := l.Matches("This is a longer piece of text that should be detected as English.", "uk")
		if err == nil || ok {
			t.Errorf("Matches = %v, %v, want false with error", ok, err)
		}
	})

	t.Run("case insensitive target", func(t *testing.T) {
		ok, err := l.Matches("This is a longer piece of text that should be detected as English.", "EN")
		if err != nil || !ok {
			t.Errorf("Matches = %v, %v, want true, nil", ok, err)
		}
	})
}
