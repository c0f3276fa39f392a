package generator

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI talks to the OpenAI chat completions API, or any server that speaks
// the same protocol when baseURL is set.
type OpenAI struct {
	apiKey string
	client *openai.Client
}

// NewOpenAI creates an OpenAI-compatible backend.
func NewOpenAI(apiKey, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{apiKey: apiKey, client: openai.NewClientWithConfig(cfg)}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	model := req.ModelID
	if model == "" {
		model = openai.GPT4oMini
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.Prompt},
			{Role: openai.ChatMessageRoleUser, Content: req.Text},
		},
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", wrapErr(ctx, "openai", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAI) IsAvailable(ctx context.Context) error {
	if o.apiKey == "" {
		return fmt.Errorf("openai: API key not configured")
	}
	return nil
}
