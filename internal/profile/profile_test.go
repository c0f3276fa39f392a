package profile

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		modelID string
		backend string
		want    Profile
	}{
		{"deepseek reasoner", "deepseek-reasoner", "deepseek", Reasoning},
		{"r1 distill", "deepseek-r1:14b", "ollama", Reasoning},
		{"openai o1", "o1-preview", "openai", Reasoning},
		{"mimo backend", "mimo-7b", "mimo", MTLike},
		{"mt backend beats chat model name", "gpt-4o", "translate-api", MTLike},
		{"opus-mt model", "opus-mt-zh-en", "huggingface", MTLike},
		{"nmt in model name", "custom-nmt-v2", "local", MTLike},
		{"qwen mt name stays chat", "qwen-mt-turbo", "dashscope", Chat},
		{"plain chat model", "gpt-4o", "openai", Chat},
		{"llama default", "llama3.1:8b", "ollama", Chat},
		{"empty inputs default chat", "", "", Chat},
		{"reasoning wins over mt backend", "deepseek-r1", "translate-api", Reasoning},
		{"case insensitive", "DeepSeek-R1", "Ollama", Reasoning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.modelID, tt.backend); got != tt.want {
				t.Errorf("Classify(%q, %q) = %v, want %v", tt.modelID, tt.backend, got, tt.want)
			}
		})
	}
}

func TestMaxAttempts(t *testing.T) {
	if got := Chat.MaxAttempts(); got != 2 {
		t.Errorf("Chat.MaxAttempts() = %d, want 2", got)
	}
	if got := Reasoning.MaxAttempts(); got != 1 {
		t.Errorf("Reasoning.MaxAttempts() = %d, want 1", got)
	}
	if got := MTLike.MaxAttempts(); got != 1 {
		t.Errorf("MTLike.MaxAttempts() = %d, want 1", got)
	}
}

func TestProfileString(t *testing.T) {
	if Chat.String() != "chat" || Reasoning.String() != "reasoning" || MTLike.String() != "mt-like" {
		t.Errorf("unexpected profile names: %v %v %v", Chat, Reasoning, MTLike)
	}
}
