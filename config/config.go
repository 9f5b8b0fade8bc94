// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP server
	Port string

	// Anthropic
	AnthropicAPIKey string
	AnthropicModel  string

	// MongoDB
	MongoURI    string
	MongoDBName string

	// Banking provider
	ProviderBaseURL string
	ProviderAPIKey  string

	// Analytics
	PeriodDays    int
	SnapshotTTL   time.Duration
	MaxIterations int

	// Backend selection
	DataBackend string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),

		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),

		MongoURI:    getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGODB_DB_NAME", "benchwise"),

		ProviderBaseURL: getEnv("PROVIDER_BASE_URL", ""),
		ProviderAPIKey:  getEnv("PROVIDER_API_KEY", ""),

		PeriodDays:    getEnvInt("PERIOD_DAYS", 60),
		SnapshotTTL:   getEnvDuration("SNAPSHOT_TTL", 10*time.Minute),
		MaxIterations: getEnvInt("MAX_ITERATIONS", 8),

		DataBackend: getEnv("DATA_BACKEND", "mongo"),
	}
}

// Validate checks the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"mongo", "memory"}
	valid := false
	for _, b := range validBackends {
		if c.DataBackend == b {
			valid = true
			break
		}
	}
	if !valid {
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "mongo" && c.MongoURI == "" {
		errs = append(errs, "MongoDB URI cannot be empty when using mongo backend")
	}

	if c.PeriodDays < 1 {
		errs = append(errs, fmt.Sprintf("invalid period days %d: must be at least 1", c.PeriodDays))
	}

	if c.MaxIterations < 1 {
		errs = append(errs, fmt.Sprintf("invalid max iterations %d: must be at least 1", c.MaxIterations))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
