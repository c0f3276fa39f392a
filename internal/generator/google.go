package generator

import (
	"context"
	"fmt"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// Google wraps the Cloud Translation API. It is a dedicated MT backend: the
// prompt is ignored and Text is translated directly, so it pairs with the
// mt-like model profile and its bilingual output filter.
type Google struct {
	credentialsFile string
}

// NewGoogle creates a Cloud Translation backend. With an empty credentials
// file the client falls back to application default credentials.
func NewGoogle(credentialsFile string) *Google {
	return &Google{credentialsFile: credentialsFile}
}

// Name carries the "translate" marker so profile classification picks the
// mt-like treatment for this backend.
func (g *Google) Name() string { return "google-translate" }

func (g *Google) Generate(ctx context.Context, req Request) (string, error) {
	target, err := language.Parse(req.TargetLang)
	if err != nil {
		return "", fmt.Errorf("google: invalid target language %q: %w", req.TargetLang, err)
	}

	var opts []option.ClientOption
	if g.credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(g.credentialsFile))
	}

	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("google: create client: %w", err)
	}
	defer client.Close()

	var translateOpts *translate.Options
	if req.SourceLang != "" && req.SourceLang != "auto" {
		source, err := language.Parse(req.SourceLang)
		if err != nil {
			return "", fmt.Errorf("google: invalid source language %q: %w", req.SourceLang, err)
		}
		translateOpts = &translate.Options{Source: source}
	}

	translations, err := client.Translate(ctx, []string{req.Text}, target, translateOpts)
	if err != nil {
		return "", wrapErr(ctx, "google", err)
	}
	if len(translations) == 0 {
		return "", fmt.Errorf("google: no translation returned")
	}

	return translations[0].Text, nil
}

func (g *Google) IsAvailable(ctx context.Context) error {
	return nil
}
