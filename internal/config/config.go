package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Server
	Port           int      `env:"PORT" envDefault:"8080"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	// Persistence. Empty URL disables Postgres and the store runs purely
	// in memory.
	DatabaseURL string `env:"DATABASE_URL"`

	// Hosted completion/classification service. An empty key forces the
	// keyword-fallback classifier and makes chat calls fail.
	GeminiAPIKey    string `env:"GEMINI_API_KEY"`
	GeminiModel     string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	FileSearchStore string `env:"FILE_SEARCH_STORE"`

	// Admin gate for document management.
	AdminUsername string `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:"Admin@1234"`

	// Ops alerting to a Telegram chat. Disabled when the token is empty.
	AlertBotToken string `env:"ALERT_BOT_TOKEN"`
	AlertChatID   int64  `env:"ALERT_CHAT_ID"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// PersistenceEnabled reports whether Postgres mirroring is configured.
func (c *Config) PersistenceEnabled() bool {
	return c.DatabaseURL != ""
}
