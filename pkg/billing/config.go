package billing

import (
	"errors"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds billing collaborator connection settings.
type Config struct {
	BaseURL string        `env:"BILLING_BASE_URL,required"`
	APIKey  string        `env:"BILLING_API_KEY"`
	Timeout time.Duration `env:"BILLING_TIMEOUT" envDefault:"10s"`
}

// StripeConfig holds Stripe webhook verification settings.
type StripeConfig struct {
	WebhookSecret string        `env:"STRIPE_WEBHOOK_SECRET,required"`
	Tolerance     time.Duration `env:"STRIPE_WEBHOOK_TOLERANCE" envDefault:"5m"`
}

var loadDotEnv sync.Once

// LoadConfig parses billing settings from the environment, reading a .env
// file first if one exists.
func LoadConfig() (Config, error) {
	loadDotEnv.Do(func() {
		// The .env file is optional; ignore the error.
		_ = godotenv.Load()
	})

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	return cfg, nil
}

// LoadStripeConfig parses Stripe webhook settings from the environment.
func LoadStripeConfig() (StripeConfig, error) {
	loadDotEnv.Do(func() {
		_ = godotenv.Load()
	})

	var cfg StripeConfig
	if err := env.Parse(&cfg); err != nil {
		return StripeConfig{}, errors.Join(ErrInvalidConfig, err)
	}
	return cfg, nil
}
