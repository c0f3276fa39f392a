// Package glossary manages the source-term → target-term mapping that pins
// down how specific vocabulary must be translated. Terms are unique by
// source key and iterate in a stable (sorted) order so that prompts built
// from the same glossary are byte-identical across runs.
package glossary

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Glossary is an ordered source → target term mapping.
type Glossary struct {
	terms map[string]string
}

// New creates a glossary from a term map. A nil map yields an empty glossary.
func New(terms map[string]string) *Glossary {
	g := &Glossary{terms: make(map[string]string, len(terms))}
	for src, tgt := range terms {
		g.terms[src] = tgt
	}
	return g
}

// FromFile loads a glossary from a JSON or YAML file containing a flat
// string-to-string mapping. The format is chosen by file extension.
func FromFile(path string) (*Glossary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read glossary file: %w", err)
	}

	terms := make(map[string]string)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &terms); err != nil {
			return nil, fmt.Errorf("failed to parse YAML glossary %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &terms); err != nil {
			return nil, fmt.Errorf("failed to parse JSON glossary %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported glossary format: %s", filepath.Ext(path))
	}

	return New(terms), nil
}

// Add inserts or replaces a term.
func (g *Glossary) Add(source, target string) {
	g.terms[source] = target
}

// Lookup returns the target term for a source term.
func (g *Glossary) Lookup(source string) (string, bool) {
	tgt, ok := g.terms[source]
	return tgt, ok
}

// Len returns the number of terms.
func (g *Glossary) Len() int {
	if g == nil {
		return 0
	}
	return len(g.terms)
}

// IsEmpty reports whether the glossary has no terms. Safe on a nil receiver
// so callers can pass an optional glossary straight through.
func (g *Glossary) IsEmpty() bool {
	return g == nil || len(g.terms) == 0
}

// Entry is one source → target pair.
type Entry struct {
	Source string
	Target string
}

// Entries returns all terms sorted by source key.
func (g *Glossary) Entries() []Entry {
	if g == nil {
		return nil
	}
	entries := make([]Entry, 0, len(g.terms))
	for src, tgt := range g.terms {
		entries = append(entries, Entry{Source: src, Target: tgt})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Source < entries[j].Source })
	return entries
}

// PromptSection renders the glossary as a term list for embedding in a
// generation prompt, one "- source: target" line per term, sorted by source.
func (g *Glossary) PromptSection() string {
	if g.IsEmpty() {
		return ""
	}
	var sb strings.Builder
	for _, e := range g.Entries() {
		sb.WriteString("- ")
		sb.WriteString(e.Source)
		sb.WriteString(": ")
		sb.WriteString(e.Target)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
