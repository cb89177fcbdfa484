// Package config reads the engine's runtime configuration from the
// environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything an embedder needs to wire up the engine.
type Config struct {
	// Database
	SQLiteDBPath string

	// Persistence writer
	DebounceWindow time.Duration

	// Receipt object storage. The store is optional; without an endpoint
	// receipts are carried as opaque references only.
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// Log format, "human" or "json"
	LogFormat string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is honored when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/pennywise.db"),
		DebounceWindow: getEnvDuration("PERSIST_DEBOUNCE_WINDOW", 500*time.Millisecond),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "receipts"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLITE_DB_PATH must not be empty")
	}

	if c.DebounceWindow <= 0 {
		return fmt.Errorf("PERSIST_DEBOUNCE_WINDOW must be positive, got %s", c.DebounceWindow)
	}

	if c.MinioEndpoint != "" && (c.MinioAccessKey == "" || c.MinioSecretKey == "") {
		return fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when MINIO_ENDPOINT is set")
	}

	if c.LogFormat != "human" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be \"human\" or \"json\", got %q", c.LogFormat)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}

	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}

	return parsed
}
