package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the settings shared by every command.
type Config struct {
	DB            string `env:"FORMRULES_DB" envDefault:"formrules.db"`
	Format        string `env:"FORMRULES_FORMAT" envDefault:"text"`
	LogLevel      string `env:"FORMRULES_LOG_LEVEL" envDefault:"warn"`
	MaxMicrotasks int    `env:"FORMRULES_MAX_MICROTASKS" envDefault:"10000"`
}

// Load reads envFiles (or ./.env if none are given) and parses the
// environment into a Config. A missing default .env is not an error; a
// missing explicit file is.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		// The default .env file is optional.
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return Config{}, errors.Join(ErrLoadingEnvFile, err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges that env tags cannot express.
func (c Config) Validate() error {
	if c.Format != "text" && c.Format != "json" {
		return fmt.Errorf("%w: format %q (want text or json)", ErrInvalidConfig, c.Format)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.MaxMicrotasks <= 0 {
		return fmt.Errorf("%w: max microtasks must be positive, got %d", ErrInvalidConfig, c.MaxMicrotasks)
	}
	return nil
}

// Level returns the configured log level, or warn if it does not parse.
func (c Config) Level() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelWarn
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, err)
	}
	return level, nil
}
