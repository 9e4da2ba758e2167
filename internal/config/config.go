package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`

	// LLM settings
	LLMProvider      string `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string `env:"OPENAI_BASE_URL"`
	OpenAIModel      string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	YandexOAuthToken string `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string `env:"YANDEX_FOLDER_ID"`

	// Resilience
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	MaxRetries     int           `env:"MAX_RETRIES" envDefault:"1"`
	RetryBaseDelay time.Duration `env:"RETRY_BASE_DELAY" envDefault:"500ms"`

	// Storage
	StateFilePath string `env:"STATE_FILE_PATH" envDefault:"data/state.json"`

	// Optional cron spec for the daily learning digest, e.g. "0 21 * * *".
	// Empty disables the digest.
	DigestCron string `env:"DIGEST_CRON"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
