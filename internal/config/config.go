// Package config loads runtime configuration from the environment and
// backtest parameter files from JSON.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"intraday-exit-lab/internal/domain"
)

// Env holds process-level configuration read from environment variables.
type Env struct {
	PolygonAPIKey string
	PostgresDSN   string
	ClickhouseDSN string
	Symbols       []string
	Timeframe     string
	MetricsAddr   string
}

// LoadEnv loads environment configuration, reading a .env file first if
// one is present.
func LoadEnv() *Env {
	_ = godotenv.Load()

	return &Env{
		PolygonAPIKey: getEnv("POLYGON_API_KEY", ""),
		PostgresDSN:   getEnv("POSTGRES_DSN", ""),
		ClickhouseDSN: getEnv("CLICKHOUSE_DSN", ""),
		Symbols:       parseCommaList(getEnv("SYMBOLS", "SPY")),
		Timeframe:     getEnv("TIMEFRAME", domain.Timeframe1Min),
		MetricsAddr:   getEnv("METRICS_ADDR", ""),
	}
}

// LoadBacktestConfig reads and decodes a backtest parameter file.
// Structural validation happens downstream when the exit pipeline is
// assembled, so this only rejects unreadable files and malformed JSON.
func LoadBacktestConfig(path string) (*domain.BacktestConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg domain.BacktestConfig
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	return &cfg, nil
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// parseCommaList parses a comma-separated list and trims whitespace.
func parseCommaList(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
