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
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/myuanzhang/GlossaryFlow/internal/rewrite"
	"github.com/myuanzhang/GlossaryFlow/internal/store"
)

var (
	rewriteInput    string
	rewriteOutput   string
	rewriteLang     string
	rewriteStrategy string
	rewriteBackend  string
	rewriteModel    string
	rewriteURL      string
	rewriteKey      string
	rewriteTemp     float32
	rewriteTimeout  time.Duration
	rewriteDBPath   string
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite",
	Short: "Rewrite a Markdown file in place of translating it",
	Long: `Rewrite a Markdown file for clarity in its own language.

Strategies:
  - line_by_line          rewrite each prose line, keeping the line count
  - translation_oriented  rewrite whole paragraphs, skipping headers,
                          links, and fragments too short to rework

Rewritten text faces the same acceptance checks as translations; a unit
whose rewrite is rejected keeps its original text.

Example:
  glossaryflow rewrite -i draft.md -o draft.clean.md --strategy line_by_line --model llama3.2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if rewriteInput == rewriteOutput {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		raw, err := os.ReadFile(rewriteInput)
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}

		ctx := context.Background()
		log := newLogger()

		gen, err := buildGenerator(rewriteBackend, rewriteURL, rewriteKey, "", rewriteTimeout)
		if err != nil {
			return err
		}

		strategy, err := rewrite.New(rewriteStrategy, gen, rewrite.Config{
			Lang:        rewriteLang,
			ModelID:     rewriteModel,
			Temperature: rewriteTemp,
			Timeout:     rewriteTimeout,
			Logger:      log,
		})
		if err != nil {
			return fmt.Errorf("strategy %q: %w (available: %s)", rewriteStrategy, err, strings.Join(rewrite.Names(), ", "))
		}

		outcome := rewrite.Run(ctx, strategy, string(raw), log)

		if err := writeOutput(rewriteOutput, outcome.Content); err != nil {
			return err
		}

		if rewriteDBPath != "" {
			db, err := store.New(rewriteDBPath)
			if err == nil {
				defer db.Close()
				if _, err := db.SaveRun(ctx, store.RunRecord{
					Mode:           "rewrite:" + rewriteStrategy,
					SourceLang:     rewriteLang,
					TargetLang:     rewriteLang,
					Backend:        rewriteBackend,
					Model:          rewriteModel,
					UnitsProcessed: outcome.UnitsProcessed,
					UnitsChanged:   outcome.UnitsChanged,
					Warnings:       len(outcome.Warnings),
				}); err != nil {
					log.Warn("failed to record run", "err", err)
				}
			}
		}

		fmt.Printf("Rewrote %d/%d unit(s) with %s\n",
			outcome.UnitsChanged, outcome.UnitsProcessed, rewriteStrategy)
		printWarnings(outcome.Warnings)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rewriteCmd)

	rewriteCmd.Flags().StringVarP(&rewriteInput, "input", "i", "", "Input Markdown file (required)")
	rewriteCmd.Flags().StringVarP(&rewriteOutput, "output", "o", "", "Output file, \"-\" for stdout (required)")
	rewriteCmd.Flags().StringVarP(&rewriteLang, "lang", "l", "en", "Language of the document")
	rewriteCmd.Flags().StringVar(&rewriteStrategy, "strategy", "line_by_line", "Rewrite strategy")

	rewriteCmd.Flags().StringVar(&rewriteBackend, "backend", "ollama", "Generation backend")
	rewriteCmd.Flags().StringVarP(&rewriteModel, "model", "m", "llama3.2", "Model identifier")
	rewriteCmd.Flags().StringVar(&rewriteURL, "url", "", "Backend base URL (backend default if empty)")
	rewriteCmd.Flags().StringVar(&rewriteKey, "key", "", "Backend API key")
	rewriteCmd.Flags().Float32Var(&rewriteTemp, "temperature", 0.5, "Sampling temperature")
	rewriteCmd.Flags().DurationVar(&rewriteTimeout, "timeout", 120*time.Second, "Per-unit generation deadline (0 = none)")
	rewriteCmd.Flags().StringVar(&rewriteDBPath, "db", defaultDBPath, "Database path for run history (empty = no history)")

	rewriteCmd.MarkFlagRequired("input")
	rewriteCmd.MarkFlagRequired("output")
}
