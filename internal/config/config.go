package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds client settings. Values come from defaults, then an optional
// YAML file, then environment variables, each layer overriding the last.
type Config struct {
	APIBaseURL        string `yaml:"api_base_url"`
	RequestTimeoutSec int    `yaml:"request_timeout_sec"`
	DatabasePath      string `yaml:"database_path"`
	LogLevel          string `yaml:"log_level"`
}

func defaults() *Config {
	return &Config{
		APIBaseURL:        "http://localhost:8000/api/v1",
		RequestTimeoutSec: 30,
		DatabasePath:      filepath.Join(".jimmy", "session.db"),
		LogLevel:          "info",
	}
}

// Load builds the effective config. A missing .env or config file is not an
// error; a malformed config file is.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// fall through to env overrides
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.APIBaseURL = getEnv("JIMMY_API_URL", cfg.APIBaseURL)
	cfg.RequestTimeoutSec = getEnvAsInt("JIMMY_REQUEST_TIMEOUT_SEC", cfg.RequestTimeoutSec)
	cfg.DatabasePath = getEnv("JIMMY_DB_PATH", cfg.DatabasePath)
	cfg.LogLevel = getEnv("JIMMY_LOG_LEVEL", cfg.LogLevel)

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
