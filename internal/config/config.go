package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	_ "github.com/joho/godotenv/autoload"
)

// Config is the engine configuration, loaded from the environment (a .env
// file is picked up automatically when present).
type Config struct {
	// Identity of the bot account and the channel it serves.
	BotName    string `env:"TWITCH_USER,required"`
	OAuthToken string `env:"TWITCH_OAUTH,required"`
	Channel    string `env:"TWITCH_CHANNEL,required"`

	// Helix API credentials for stream-state lookups. Optional; without them
	// the engine treats the stream as offline.
	HelixClientID     string `env:"HELIX_CLIENT_ID"`
	HelixClientSecret string `env:"HELIX_CLIENT_SECRET"`

	StoragePath string `env:"STORAGE_PATH" envDefault:"chatwarden.json"`
	LogPath     string `env:"LOG_PATH"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Messages per second allowed on the outgoing chat connection.
	SendRate float64 `env:"SEND_RATE" envDefault:"0.75"`
}

// New loads and validates the configuration.
func New() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if cfg.SendRate <= 0 {
		return nil, fmt.Errorf("SEND_RATE must be positive, got %v", cfg.SendRate)
	}
	return &cfg, nil
}
