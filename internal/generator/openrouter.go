package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const defaultOpenRouterURL = "https://openrouter.ai/api/v1"

// OpenRouter talks to the OpenRouter chat completions API.
type OpenRouter struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewOpenRouter creates an OpenRouter backend.
func NewOpenRouter(apiKey, baseURL string) *OpenRouter {
	if baseURL == "" {
		baseURL = defaultOpenRouterURL
	}
	return &OpenRouter{apiKey: apiKey, baseURL: baseURL, client: &http.Client{}}
}

func (o *OpenRouter) Name() string { return "openrouter" }

func (o *OpenRouter) Generate(ctx context.Context, req Request) (string, error) {
	if o.apiKey == "" {
		return "", fmt.Errorf("openrouter: API key required")
	}

	body := map[string]interface{}{
		"model": req.ModelID,
		"messages": []map[string]string{
			{"role": "system", "content": req.Prompt},
			{"role": "user", "content": req.Text},
		},
		"temperature": req.Temperature,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("openrouter: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("openrouter: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", wrapErr(ctx, "openrouter", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp map[string]interface{}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return "", fmt.Errorf("openrouter: status %d: %v", resp.StatusCode, errResp)
	}

	var orResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&orResp); err != nil {
		return "", fmt.Errorf("openrouter: decode response: %w", err)
	}

	if len(orResp.Choices) == 0 {
		return "", fmt.Errorf("openrouter: empty response")
	}
	return orResp.Choices[0].Message.Content, nil
}

func (o *OpenRouter) IsAvailable(ctx context.Context) error {
	if o.apiKey == "" {
		return fmt.Errorf("openrouter: API key not configured")
	}
	return nil
}
