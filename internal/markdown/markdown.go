// Package markdown renders translated documents to HTML for the --html
// output mode. Rendering happens after translation, so the input here is
// the already-reassembled document.
package markdown

import (
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// ToHTML renders a Markdown document to an HTML fragment. Tables, fenced
// code blocks, and autolinks are enabled to match what the segmenter
// recognizes on the way in.
func ToHTML(doc []byte) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Attributes)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank,
	})
	return string(markdown.Render(p.Parse(doc), renderer))
}

// ToPlainText renders Markdown and strips the resulting tags, leaving the
// readable text. Useful for previews and length accounting.
func ToPlainText(doc []byte) string {
	return StripHTMLTags(ToHTML(doc))
}

// StripHTMLTags removes anything between angle brackets. It is a renderer
// companion, not a general HTML parser; entities are left as written.
func StripHTMLTags(htmlContent string) string {
	var b strings.Builder
	inTag := false
	for _, r := range htmlContent {
		switch r {
		case '<':
			inTag = true
		case '>':
			inTag = false
		default:
			if !inTag {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}
