// config.go
//
// Typed environment configuration for the jenjenmonster Go server.
// Values load from the process environment (with .env support via
// godotenv in main); every field has a development-friendly default.

package main

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full server configuration.
type Config struct {
	Port     string `env:"PORT" envDefault:"5175"`
	DBPath   string `env:"DB_PATH" envDefault:"./data/app.db"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	NodeEnv  string `env:"NODE_ENV" envDefault:"development"`

	ClientOrigin  string        `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
	JWTSecret     string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	JWTExpiresDay int           `env:"JWT_EXPIRES_DAYS" envDefault:"14"`
	DailySalt     string        `env:"DAILY_SALT" envDefault:"jenjen-daily"`
	Autosave      time.Duration `env:"AUTOSAVE_INTERVAL" envDefault:"30s"`

	// Generation collaborator; empty API key runs in fallback-only mode.
	OpenAIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	TextModel     string `env:"TEXT_MODEL" envDefault:"gpt-4o-mini"`
	ImageModel    string `env:"IMAGE_MODEL" envDefault:"gpt-image-1"`
}

// loadConfig parses the environment into a Config.
func loadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// production reports whether the server runs with production hardening
// (secure cookies, etc).
func (c Config) production() bool { return c.NodeEnv == "production" }
