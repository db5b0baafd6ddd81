package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for the application
type Config struct {
	// HTTP Server Configuration
	HTTPPort int

	// Database Configuration
	// Either a sqlite file path or a postgres DSN.
	DatabaseURL string

	// CORSOrigins lists allowed dashboard origins. Empty allows all.
	CORSOrigins []string

	// SeedOnStart regenerates the simulation dataset at startup.
	SeedOnStart bool

	// SeedDays is the span of synthetic history to generate.
	SeedDays int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.HTTPPort = getEnvAsIntOrDefault("HTTP_PORT", 8000)
	cfg.DatabaseURL = getEnvOrDefault("DATABASE_URL", "threatsim.db")
	cfg.CORSOrigins = getEnvAsListOrDefault("CORS_ORIGINS", nil)
	cfg.SeedOnStart = getEnvAsBoolOrDefault("SEED_ON_START", false)
	cfg.SeedDays = getEnvAsIntOrDefault("SEED_DAYS", 7)

	return cfg, nil
}

// getEnvOrDefault returns the value of an environment variable or a default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault returns the value of an environment variable as an integer or a default value
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvAsBoolOrDefault returns the value of an environment variable as a bool or a default value
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvAsListOrDefault parses a comma-separated environment variable.
func getEnvAsListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
