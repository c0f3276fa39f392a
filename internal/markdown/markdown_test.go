package markdown_test

import (
	"strings"
	"testing"

	"github.com/myuanzhang/GlossaryFlow/internal/markdown"
)

func TestToHTML(t *testing.T) {
	doc := "# Title\n\nSome *emphasized* prose.\n\n```go\nx := 1\n```\n"
	got := markdown.ToHTML([]byte(doc))

	for _, want := range []string{"<h1", "Title", "<em>emphasized</em>", "<code", "x := 1"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in rendered HTML:\n%s", want, got)
		}
	}
}

func TestToHTMLTable(t *testing.T) {
	doc := "| a | b |\n|---|---|\n| 1 | 2 |\n"
	got := markdown.ToHTML([]byte(doc))
	if !strings.Contains(got, "<table>") {
		t.Errorf("expected a rendered table:\n%s", got)
	}
}

func TestToPlainText(t *testing.T) {
	got := markdown.ToPlainText([]byte("# Title\n\nHello **world**.\n"))
	if strings.Contains(got, "<") {
		t.Errorf("expected no tags in plain text: %q", got)
	}
	if !strings.Contains(got, "Title") || !strings.Contains(got, "Hello world.") {
		t.Errorf("expected readable text, got %q", got)
	}
}

func TestStripHTMLTags(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple tags", "<p>hello</p>", "hello"},
		{"nested", "<div><b>bold</b> text</div>", "bold text"},
		{"no tags", "plain text", "plain text"},
		{"attributes", `<a href="https://example.com">link</a>`, "link"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := markdown.StripHTMLTags(tt.input); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
