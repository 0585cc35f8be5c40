package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port           int
	LogLevel       string
	LogPretty      bool
	APIToken       string // empty disables API authentication
	QuoteBaseURL   string // empty uses the default Yahoo endpoint
	QuoteTimeout   time.Duration
	QuoteCacheTTL  time.Duration
	SymbolMapPath  string // YAML file mapping asset ids to quote tickers
	DefaultEpsilon float64
}

// Load reads configuration from environment variables, after loading a .env
// file when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnvAsInt("PORT", 8080),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogPretty:      getEnvAsBool("LOG_PRETTY", true),
		APIToken:       getEnv("API_TOKEN", ""),
		QuoteBaseURL:   getEnv("QUOTE_BASE_URL", ""),
		QuoteTimeout:   getEnvAsDuration("QUOTE_TIMEOUT_MS", 5000),
		QuoteCacheTTL:  getEnvAsDuration("QUOTE_CACHE_TTL_MS", 60000),
		SymbolMapPath:  getEnv("SYMBOL_MAP_PATH", ""),
		DefaultEpsilon: getEnvAsFloat("EPSILON_DEFAULT", 0.01),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if the configuration is usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be a valid TCP port, got %d", c.Port)
	}
	if c.DefaultEpsilon < 0 {
		return fmt.Errorf("EPSILON_DEFAULT cannot be negative, got %v", c.DefaultEpsilon)
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultMillis int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultMillis)) * time.Millisecond
}
