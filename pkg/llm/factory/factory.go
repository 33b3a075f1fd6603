package factory

import (
	"context"
	"fmt"

	"buddy-tutor-be/pkg/llm"
	"buddy-tutor-be/pkg/llm/anthropic"
	"buddy-tutor-be/pkg/llm/gemini"
	"buddy-tutor-be/pkg/llm/ollama"
	"buddy-tutor-be/pkg/llm/openai"
)

// ProviderConfig is everything a backend needs to be constructed.
type ProviderConfig struct {
	Type      string
	APIKey    string
	BaseURL   string
	ModelName string
}

func NewLLMProvider(ctx context.Context, cfg ProviderConfig) (llm.LLMProvider, error) {
	switch cfg.Type {
	case "openai":
		return openai.NewOpenAIProvider("openai", cfg.APIKey, cfg.BaseURL, cfg.ModelName), nil
	case "deepseek":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = openai.DeepSeekBaseURL
		}
		return openai.NewOpenAIProvider("deepseek", cfg.APIKey, baseURL, cfg.ModelName), nil
	case "anthropic":
		return anthropic.NewAnthropicProvider(cfg.APIKey, cfg.ModelName)
	case "gemini":
		return gemini.NewGeminiProvider(ctx, cfg.APIKey, cfg.ModelName)
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, cfg.ModelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Type)
	}
}
