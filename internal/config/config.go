package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Database
	DatabaseURL  string
	DBMaxConns   int32
	DBMinConns   int32

	// Server
	Port        string
	CORSOrigins []string
	Env         string

	// Idempotency
	IdempotencyTTL time.Duration

	// Tax
	DefaultTaxRate string

	// Sales-side inventory location. The data model keys InventoryBalance by
	// (item, location) but Order carries no location field of its own, so
	// every sales allocation/consumption uses this single configured
	// location, matching spec.md's single-process/single-warehouse scope.
	DefaultLocationID string

	// Rate limiting
	RateLimitPerMinute int
	RateLimitBurst     int

	// Event bus
	EventBusQueueDepth int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		DBMaxConns:         int32(getEnvInt("DB_MAX_CONNS", 10)),
		DBMinConns:         int32(getEnvInt("DB_MIN_CONNS", 2)),
		Port:               getEnv("PORT", "8080"),
		CORSOrigins:        strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		Env:                getEnv("ENV", "development"),
		IdempotencyTTL:     getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		DefaultTaxRate:     getEnv("DEFAULT_TAX_RATE", "0.0"),
		DefaultLocationID:  getEnv("DEFAULT_LOCATION_ID", "DEFAULT"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 100),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 10),
		EventBusQueueDepth: getEnvInt("EVENT_BUS_QUEUE_DEPTH", 256),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return d
}
