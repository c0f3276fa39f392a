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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/myuanzhang/GlossaryFlow/internal/generator"
)

const defaultDBPath = "./data/glossaryflow.db"

// newLogger builds the slog logger shared by all commands. Debug level with
// --verbose, info otherwise, text handler on stderr.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// buildGenerator constructs a backend from CLI flags and viper config, wrapped
// in a circuit breaker so a dead backend fails fast instead of timing out on
// every unit. Flag values win over config file keys.
func buildGenerator(backend, baseURL, apiKey, credentials string, timeout time.Duration) (generator.Generator, error) {
	cfg := generator.Config{
		BaseURL:         baseURL,
		APIKey:          apiKey,
		CredentialsFile: credentials,
		Timeout:         timeout,
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = viper.GetString(backend + ".url")
	}
	if cfg.APIKey == "" {
		cfg.APIKey = viper.GetString(backend + ".key")
	}
	if cfg.CredentialsFile == "" {
		cfg.CredentialsFile = viper.GetString(backend + ".credentials")
	}

	gen, err := generator.New(backend, cfg)
	if err != nil {
		return nil, fmt.Errorf("backend %q: %w (available: %s)", backend, err, strings.Join(generator.Names(), ", "))
	}
	return generator.WithBreaker(gen), nil
}

// writeOutput writes content to path, creating parent directories as needed.
// An empty path writes to stdout.
func writeOutput(path, content string) error {
	if path == "" || path == "-" {
		_, err := fmt.Print(content)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// printWarnings reports per-unit fallbacks. The run still succeeds; these
// are the places a human should look at.
func printWarnings(warnings []string) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "\n%d unit(s) kept their original text:\n", len(warnings))
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "  - %s\n", w)
	}
}
