// Package segment splits a Markdown document into an ordered sequence of
// typed units (headers, paragraphs, list blocks, code blocks, blockquotes,
// table rows, empty lines) while preserving enough position metadata to
// reassemble the document byte-for-byte.
//
// Segmentation is total: malformed input (such as an unterminated code
// fence) never fails, it degrades by absorbing the remainder into a single
// unit.
package segment

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind classifies a unit of a Markdown document.
type Kind int

const (
	Paragraph Kind = iota
	Header
	ListBlock
	CodeBlock
	Blockquote
	TableRow
	Empty
)

// String returns the lowercase unit kind name used in logs and metadata.
func (k Kind) String() string {
	switch k {
	case Header:
		return "header"
	case ListBlock:
		return "list_block"
	case CodeBlock:
		return "code_block"
	case Blockquote:
		return "blockquote"
	case TableRow:
		return "table_row"
	case Empty:
		return "empty"
	default:
		return "paragraph"
	}
}

// Unit is a contiguous typed span of a Markdown document. Units are created
// by Segment and must not be modified afterwards: joining all units in order
// reproduces the source document exactly.
type Unit struct {
	Content   string
	Kind      Kind
	StartLine int
	EndLine   int
	Metadata  map[string]string
}

var (
	reHeader    = regexp.MustCompile(`^(#{1,6})\s`)
	reListItem  = regexp.MustCompile(`^(\s*)([-*+]|\d+\.)\s`)
	reFenceLang = regexp.MustCompile("^```(\\w+)")
)

// Segment splits text into an ordered slice of units using a single
// left-to-right line scan. Boundary checks are evaluated in a fixed order
// (fence, header, list marker, blockquote, table row, blank line); a line
// matching more than one pattern is classified by the first match.
func Segment(text string) []Unit {
	if text == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	var units []Unit

	i := 0
	for i < len(lines) {
		line := lines[i]
		stripped := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(stripped, "```"):
			units = append(units, scanCodeBlock(lines, i))
		case reHeader.MatchString(stripped):
			units = append(units, headerUnit(line, i))
		case reListItem.MatchString(line):
			units = append(units, scanListBlock(lines, i))
		case strings.HasPrefix(stripped, ">"):
			units = append(units, Unit{Content: line, Kind: Blockquote, StartLine: i, EndLine: i})
		case strings.Count(line, "|") >= 2:
			units = append(units, Unit{Content: line, Kind: TableRow, StartLine: i, EndLine: i})
		case stripped == "":
			units = append(units, Unit{Content: line, Kind: Empty, StartLine: i, EndLine: i})
		default:
			units = append(units, scanParagraph(lines, i))
		}

		i = units[len(units)-1].EndLine + 1
	}

	return units
}

// Join reassembles units produced by Segment into the source document.
func Join(units []Unit) string {
	if len(units) == 0 {
		return ""
	}
	parts := make([]string, len(units))
	for i, u := range units {
		parts[i] = u.Content
	}
	return strings.Join(parts, "\n")
}

// scanCodeBlock consumes lines from the opening fence through the matching
// closing fence, or to end of document when the fence is unterminated.
func scanCodeBlock(lines []string, start int) Unit {
	end := start
	for j := start + 1; j < len(lines); j++ {
		end = j
		if strings.HasPrefix(strings.TrimSpace(lines[j]), "```") {
			break
		}
	}

	meta := map[string]string{}
	if m := reFenceLang.FindStringSubmatch(strings.TrimSpace(lines[start])); m != nil {
		meta["language"] = m[1]
	}

	return Unit{
		Content:   strings.Join(lines[start:end+1], "\n"),
		Kind:      CodeBlock,
		StartLine: start,
		EndLine:   end,
		Metadata:  meta,
	}
}

func headerUnit(line string, idx int) Unit {
	level := 0
	for _, r := range strings.TrimSpace(line) {
		if r != '#' {
			break
		}
		level++
	}
	return Unit{
		Content:   line,
		Kind:      Header,
		StartLine: idx,
		EndLine:   idx,
		Metadata:  map[string]string{"level": strconv.Itoa(level)},
	}
}

// scanListBlock greedily absorbs subsequent list markers and indented
// continuation lines, stopping at the first non-continuation line.
func scanListBlock(lines []string, start int) Unit {
	end := start
	for j := start + 1; j < len(lines); j++ {
		if reListItem.MatchString(lines[j]) || isContinuation(lines[j]) {
			end = j
			continue
		}
		break
	}

	listType := "unordered"
	if m := reListItem.FindStringSubmatch(lines[start]); m != nil && strings.HasSuffix(m[2], ".") {
		listType = "ordered"
	}

	return Unit{
		Content:   strings.Join(lines[start:end+1], "\n"),
		Kind:      ListBlock,
		StartLine: start,
		EndLine:   end,
		Metadata:  map[string]string{"list_type": listType},
	}
}

// isContinuation reports whether a line continues a preceding list item:
// non-blank and indented.
func isContinuation(line string) bool {
	if strings.TrimSpace(line) == "" {
		return false
	}
	return strings.HasPrefix(line, "  ") || strings.HasPrefix(line, "\t")
}

// scanParagraph absorbs lines until the next structural boundary.
func scanParagraph(lines []string, start int) Unit {
	end := start
	for j := start + 1; j < len(lines); j++ {
		if isStructural(lines[j]) {
			break
		}
		end = j
	}
	return Unit{
		Content:   strings.Join(lines[start:end+1], "\n"),
		Kind:      Paragraph,
		StartLine: start,
		EndLine:   end,
	}
}

func isStructural(line string) bool {
	stripped := strings.TrimSpace(line)
	return stripped == "" ||
		strings.HasPrefix(stripped, "```") ||
		reHeader.MatchString(stripped) ||
		reListItem.MatchString(line) ||
		strings.HasPrefix(stripped, ">") ||
		strings.Count(line, "|") >= 2
}
