package chunker_test

import (
	"strings"
	"testing"

	"github.com/myuanzhang/GlossaryFlow/internal/chunker"
)

func TestChunkFitsInOnePiece(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxChars int
	}{
		{"short text", "Hello, world!", 100},
		{"exact fit", "abcde", 5},
		{"unlimited", strings.Repeat("word ", 500), 0},
		{"empty", "", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pieces := chunker.Chunk(tt.input, tt.maxChars)
			if len(pieces) != 1 {
				t.Fatalf("expected 1 piece, got %d: %v", len(pieces), pieces)
			}
			if pieces[0] != tt.input {
				t.Errorf("expected %q, got %q", tt.input, pieces[0])
			}
		})
	}
}

func TestChunkPrefersBlankLine(t *testing.T) {
	text := "First paragraph text here.\n\nSecond paragraph text here."
	pieces := chunker.Chunk(text, 40)
	if len(pieces) != 2 {
		t.Fatalf("expected 2 pieces, got %d: %v", len(pieces), pieces)
	}
	if pieces[0] != "First paragraph text here." {
		t.Errorf("first piece should end at the blank line, got %q", pieces[0])
	}
	if pieces[1] != "Second paragraph text here." {
		t.Errorf("second piece wrong: %q", pieces[1])
	}
}

func TestChunkPrefersSentenceEnd(t *testing.T) {
	text := "First sentence ends here. Second sentence follows. Third sentence."
	pieces := chunker.Chunk(text, 40)
	if len(pieces) < 2 {
		t.Fatalf("expected at least 2 pieces, got %d", len(pieces))
	}
	if !strings.HasSuffix(pieces[0], ".") {
		t.Errorf("first piece should end on a sentence boundary: %q", pieces[0])
	}
	for i, p := range pieces {
		if p != strings.TrimSpace(p) {
			t.Errorf("piece %d not trimmed: %q", i, p)
		}
	}
}

func TestChunkFallsBackToWordBoundary(t *testing.T) {
	text := "one two three four five six seven eight nine ten"
	pieces := chunker.Chunk(text, 20)
	if len(pieces) < 2 {
		t.Fatalf("expected at least 2 pieces, got %d", len(pieces))
	}
	rejoined := strings.Join(pieces, " ")
	if rejoined != text {
		t.Errorf("words lost or reordered: %q", rejoined)
	}
}

func TestChunkCountsRunesNotBytes(t *testing.T) {
	// Twelve CJK characters are 36 bytes but only 12 runes; a 20-rune
	// budget must not split them.
	text := "这是一段中文文本内容测试用"
	pieces := chunker.Chunk(text, 20)
	if len(pieces) != 1 {
		t.Fatalf("expected 1 piece for %d runes, got %d", len([]rune(text)), len(pieces))
	}
}

func TestChunkHardCutWithoutBoundaries(t *testing.T) {
	text := strings.Repeat("a", 25)
	pieces := chunker.Chunk(text, 10)
	if len(pieces) != 3 {
		t.Fatalf("expected 3 pieces, got %d: %v", len(pieces), pieces)
	}
	total := 0
	for _, p := range pieces {
		total += len(p)
	}
	if total != 25 {
		t.Errorf("characters lost in hard cut: got %d of 25", total)
	}
}

func TestExtractContext(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wordCount int
		expected  string
	}{
		{"fewer words than limit", "short text", 25, "short text"},
		{"last words kept", "alpha beta gamma delta epsilon", 3, "gamma delta epsilon"},
		{"whitespace normalized", "alpha  beta\n gamma", 2, "beta gamma"},
		{"empty text", "", 5, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := chunker.ExtractContext(tt.input, tt.wordCount); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestExtractContextDefaultCount(t *testing.T) {
	text := strings.Repeat("w ", 50)
	got := len(strings.Fields(chunker.ExtractContext(text, 0)))
	if got != chunker.DefaultContextWords {
		t.Errorf("expected %d words, got %d", chunker.DefaultContextWords, got)
	}
}
