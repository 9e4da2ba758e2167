package llm

import (
	"fmt"
	"strings"

	"jp-mentor/internal/config"
)

const (
	ProviderOpenAI = "openai"
	ProviderYandex = "yandex"
)

// NewFromConfig builds the configured provider's client.
func NewFromConfig(cfg *config.Config) (Client, error) {
	switch strings.ToLower(cfg.LLMProvider) {
	case ProviderOpenAI:
		return NewOpenAI(OpenAIOptions{
			APIKey:         cfg.OpenAIAPIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			Model:          cfg.OpenAIModel,
			RequestTimeout: cfg.RequestTimeout,
			MaxRetries:     cfg.MaxRetries,
			RetryBaseDelay: cfg.RetryBaseDelay,
		}), nil
	case ProviderYandex:
		return NewYandex(cfg.YandexOAuthToken, cfg.YandexFolderID)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLMProvider)
	}
}
