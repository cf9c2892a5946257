package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	apperrors "loremaster/backend/pkg/errors"
)

// Config holds all application configuration
type Config struct {
	// App
	Port     string
	Env      string
	LogLevel string

	// Neo4j
	Neo4jURI            string
	Neo4jUser           string
	Neo4jPassword       string
	Neo4jDatabase       string // empty selects the server default database
	Neo4jMaxPoolSize    int
	Neo4jConnectTimeout time.Duration

	// Listing
	DefaultPageSize int
	MaxPageSize     int

	// Graph views
	GraphSampleLimit int // nodes returned when no start entity is given
	GraphMaxDepth    int

	// Tracing
	OtelEnabled     bool
	OtelServiceName string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		Env:                 getEnv("ENV", "development"),
		LogLevel:            getEnv("LOG_LEVEL", ""),
		Neo4jURI:            getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:           getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:       getEnv("NEO4J_PASSWORD", "password"),
		Neo4jDatabase:       getEnv("NEO4J_DATABASE", ""),
		Neo4jMaxPoolSize:    getEnvInt("NEO4J_MAX_POOL_SIZE", 50),
		Neo4jConnectTimeout: time.Duration(getEnvInt("NEO4J_TIMEOUT_SECONDS", 10)) * time.Second,
		DefaultPageSize:     getEnvInt("DEFAULT_PAGE_SIZE", 20),
		MaxPageSize:         getEnvInt("MAX_PAGE_SIZE", 100),
		GraphSampleLimit:    getEnvInt("GRAPH_SAMPLE_LIMIT", 100),
		GraphMaxDepth:       getEnvInt("GRAPH_MAX_DEPTH", 5),
		OtelEnabled:         getEnvBool("OTEL_ENABLED", false),
		OtelServiceName:     getEnv("OTEL_SERVICE_NAME", "loremaster"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.Neo4jURI == "" {
		return apperrors.NewConfigMissingRequired("NEO4J_URI")
	}
	if c.Neo4jUser == "" {
		return apperrors.NewConfigMissingRequired("NEO4J_USER")
	}
	if c.Neo4jPassword == "" {
		return apperrors.NewConfigMissingRequired("NEO4J_PASSWORD")
	}
	if c.DefaultPageSize <= 0 {
		return apperrors.NewConfigValidationFailed("DEFAULT_PAGE_SIZE", "must be positive")
	}
	if c.MaxPageSize < c.DefaultPageSize {
		return apperrors.NewConfigValidationFailed("MAX_PAGE_SIZE", "must not be smaller than DEFAULT_PAGE_SIZE")
	}
	if c.GraphSampleLimit <= 0 {
		return apperrors.NewConfigValidationFailed("GRAPH_SAMPLE_LIMIT", "must be positive")
	}
	if c.GraphMaxDepth <= 0 {
		return apperrors.NewConfigValidationFailed("GRAPH_MAX_DEPTH", "must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch os.Getenv(key) {
	case "1", "true", "TRUE", "yes":
		return true
	case "0", "false", "FALSE", "no":
		return false
	}
	return defaultValue
}
