// Package config loads service configuration from the environment.
//
// A .env file is loaded when present (development convenience), then
// the environment is parsed into Config via struct tags. Flags in
// cmd/server override the result.
package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port   int    `env:"PORT" envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"hubpay.db"`

	SMTPHost string `env:"SMTP_HOST"`
	SMTPPort int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser string `env:"SMTP_USER"`
	SMTPPass string `env:"SMTP_PASS"`
	SMTPFrom string `env:"SMTP_FROM" envDefault:"commissions@hubpay.local"`

	// NotifyEnabled switches between the SMTP notifier and a log-only
	// notifier.
	NotifyEnabled bool `env:"NOTIFY_ENABLED" envDefault:"false"`
}

// Load reads .env (if any) and the process environment.
func Load() (Config, error) {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
