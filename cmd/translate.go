/*
Copyright © 2025 Yuan Zhang <myuanzhang@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/myuanzhang/GlossaryFlow/internal/detector"
	"github.com/myuanzhang/GlossaryFlow/internal/glossary"
	"github.com/myuanzhang/GlossaryFlow/internal/markdown"
	"github.com/myuanzhang/GlossaryFlow/internal/orchestrator"
	"github.com/myuanzhang/GlossaryFlow/internal/prompt"
	"github.com/myuanzhang/GlossaryFlow/internal/store"
)

var (
	inputFile   string
	outputFile  string
	sourceLang  string
	targetLang  string
	backend     string
	modelID     string
	baseURL     string
	apiKey      string
	credentials string

	temperature float32
	timeout     time.Duration
	workers     int
	chunkSize   int

	glossaryFile   string
	dbPath         string
	noCache        bool
	fuzzyThreshold float64
	htmlOutput     bool

	docIntent   string
	docAudience string
	docTone     string
	docDomain   string
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate a Markdown file",
	Long: `Translate a Markdown file unit by unit, keeping code blocks, tables,
and inline code intact.

Each unit goes through the backend, the response sanitizer, and the
acceptance checks; units whose every attempt is rejected keep their
original text, so the output is never worse than the input.

Available backends:
  - ollama      Ollama LLM (self-hosted)
  - openai      OpenAI chat API (requires API key)
  - openrouter  OpenRouter chat API (requires API key)
  - google      Google Cloud Translation (requires credentials)

Example:
  glossaryflow translate -i README.md -o README.uk.md -s en -t uk --backend ollama --model llama3.2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if inputFile == outputFile {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		raw, err := os.ReadFile(inputFile)
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}
		document := string(raw)

		ctx := context.Background()
		log := newLogger()

		// Auto-detect source language when not specified.
		if sourceLang == "auto" {
			det := detector.New()
			detected, ok := det.DetectISO(document)
			if !ok {
				return fmt.Errorf("could not detect source language; pass --source explicitly")
			}
			sourceLang = detected
			fmt.Fprintf(os.Stderr, "Detected source language: %s\n", sourceLang)
		}

		gen, err := buildGenerator(backend, baseURL, apiKey, credentials, timeout)
		if err != nil {
			return err
		}

		var db *store.Store
		var memory orchestrator.Memory
		if !noCache && dbPath != "" {
			db, err = store.New(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()
			memory = db
			if fuzzyThreshold > 0 {
				memory = fuzzyMemory{Store: db, threshold: fuzzyThreshold}
			}
		}

		gl, err := resolveGlossary(ctx, db, glossaryFile, sourceLang, targetLang)
		if err != nil {
			return err
		}
		if gl != nil && !gl.IsEmpty() {
			fmt.Fprintf(os.Stderr, "Glossary: %d term(s)\n", gl.Len())
		}

		orch := orchestrator.New(gen, memory, orchestrator.Config{
			SourceLang:  sourceLang,
			TargetLang:  targetLang,
			ModelID:     modelID,
			Backend:     backend,
			Temperature: temperature,
			Timeout:     timeout,
			Workers:     workers,
			ChunkSize:   chunkSize,
			Glossary:    gl,
			DocContext: prompt.DocumentContext{
				Intent:         docIntent,
				TargetAudience: docAudience,
				Tone:           docTone,
				Domain:         docDomain,
			},
			Logger: log,
		})

		outcome, err := orch.Run(ctx, document)
		if err != nil {
			return err
		}

		content := outcome.Content
		if htmlOutput {
			content = markdown.ToHTML([]byte(content))
		}
		if err := writeOutput(outputFile, content); err != nil {
			return err
		}

		if db != nil {
			if _, err := db.SaveRun(ctx, store.RunRecord{
				Mode:           "translate",
				SourceLang:     sourceLang,
				TargetLang:     targetLang,
				Backend:        backend,
				Model:          modelID,
				UnitsProcessed: outcome.UnitsProcessed,
				UnitsChanged:   outcome.UnitsChanged,
				Warnings:       len(outcome.Warnings),
			}); err != nil {
				log.Warn("failed to record run", "err", err)
			}
		}

		fmt.Printf("Translated %s to %s: %d/%d unit(s) changed\n",
			sourceLang, targetLang, outcome.UnitsChanged, outcome.UnitsProcessed)
		printWarnings(outcome.Warnings)
		return nil
	},
}

// fuzzyMemory widens exact memory lookups to near matches above a
// similarity threshold. Saves go through unchanged.
type fuzzyMemory struct {
	*store.Store
	threshold float64
}

func (m fuzzyMemory) Lookup(ctx context.Context, source, sourceLang, targetLang string) (string, bool, error) {
	if text, ok, err := m.Store.Lookup(ctx, source, sourceLang, targetLang); ok || err != nil {
		return text, ok, err
	}
	return m.Store.FuzzyLookup(ctx, source, sourceLang, targetLang, m.threshold)
}

// resolveGlossary merges the database glossary for the language pair with an
// optional YAML or JSON glossary file. File entries win on conflict.
func resolveGlossary(ctx context.Context, db *store.Store, path, sourceLang, targetLang string) (*glossary.Glossary, error) {
	var gl *glossary.Glossary
	if db != nil {
		var err error
		gl, err = db.LoadGlossary(ctx, sourceLang, targetLang)
		if err != nil {
			return nil, fmt.Errorf("failed to load glossary from database: %w", err)
		}
	}
	if path == "" {
		return gl, nil
	}

	fromFile, err := glossary.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load glossary file: %w", err)
	}
	if gl == nil {
		return fromFile, nil
	}
	for _, e := range fromFile.Entries() {
		gl.Add(e.Source, e.Target)
	}
	return gl, nil
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input Markdown file (required)")
	translateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file, \"-\" for stdout (required)")
	translateCmd.Flags().StringVarP(&sourceLang, "source", "s", "auto", "Source language code")
	translateCmd.Flags().StringVarP(&targetLang, "target", "t", "", "Target language code (required)")

	translateCmd.Flags().StringVar(&backend, "backend", "ollama", "Generation backend")
	translateCmd.Flags().StringVarP(&modelID, "model", "m", "llama3.2", "Model identifier")
	translateCmd.Flags().StringVar(&baseURL, "url", "", "Backend base URL (backend default if empty)")
	translateCmd.Flags().StringVar(&apiKey, "key", "", "Backend API key")
	translateCmd.Flags().StringVarP(&credentials, "credentials", "c", "", "Path to Google Cloud credentials")

	translateCmd.Flags().Float32Var(&temperature, "temperature", 0.3, "Sampling temperature")
	translateCmd.Flags().DurationVar(&timeout, "timeout", 120*time.Second, "Per-unit generation deadline (0 = none)")
	translateCmd.Flags().IntVar(&workers, "workers", 1, "Concurrent unit translations")
	translateCmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Split paragraphs longer than this many characters (0 = off)")

	translateCmd.Flags().StringVarP(&glossaryFile, "glossary", "g", "", "Glossary file (YAML or JSON term map)")
	translateCmd.Flags().StringVar(&dbPath, "db", defaultDBPath, "Database path for translation memory and run history")
	translateCmd.Flags().BoolVar(&noCache, "no-cache", false, "Disable translation memory")
	translateCmd.Flags().Float64Var(&fuzzyThreshold, "fuzzy", 0, "Accept near-identical memory hits above this similarity (0 = exact only)")
	translateCmd.Flags().BoolVar(&htmlOutput, "html", false, "Render the translated Markdown to HTML")

	translateCmd.Flags().StringVar(&docIntent, "intent", "", "Document intent hint for the prompt")
	translateCmd.Flags().StringVar(&docAudience, "audience", "", "Target audience hint for the prompt")
	translateCmd.Flags().StringVar(&docTone, "tone", "", "Tone hint for the prompt")
	translateCmd.Flags().StringVar(&docDomain, "domain", "", "Subject domain hint for the prompt")

	translateCmd.MarkFlagRequired("input")
	translateCmd.MarkFlagRequired("output")
	translateCmd.MarkFlagRequired("target")
}
