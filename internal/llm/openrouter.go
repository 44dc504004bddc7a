package llm

import "fmt"

const (
	backendOpenRouter        = "openrouter"
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

// OpenRouterProvider is an OpenAIProvider pointed at OpenRouter. Model IDs
// are vendor-prefixed ("google/gemini-2.0-flash-exp") and pass through.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider builds a provider for cfg, defaulting the base URL.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	inner := newOpenAICompatible(backendOpenRouter, cfg.APIKey, baseURL, resolveModel(backendOpenRouter, cfg.Model))
	return &OpenRouterProvider{OpenAIProvider: inner}, nil
}
