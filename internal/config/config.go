// Package config provides configuration management for the payment router.
// It handles loading configuration from environment variables with sensible
// defaults and validates the configuration to ensure the application starts
// safely.
//
// The package supports multiple database backends (SQLite and PostgreSQL) for
// routing configuration and decision audit storage, Redis for idempotency and
// audit streaming, and JWT authentication for the admin API.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: Server port (default: 8080)
//   - LOG_LEVEL: Logging level (default: info)
//
// Database Configuration:
//   - DATABASE_TYPE: Database type - "sqlite" or "postgres" (default: sqlite)
//   - DATABASE_PATH: SQLite database file path (default: ./payment_router.db)
//   - POSTGRES_HOST: PostgreSQL host (required if using PostgreSQL)
//   - POSTGRES_PORT: PostgreSQL port (default: 5432)
//   - POSTGRES_DB: PostgreSQL database name (required if using PostgreSQL)
//   - POSTGRES_USER: PostgreSQL username (required if using PostgreSQL)
//   - POSTGRES_PASSWORD: PostgreSQL password
//   - POSTGRES_SSL_MODE: PostgreSQL SSL mode (default: disable)
//
// Redis Configuration:
//   - REDIS_ADDRESS: Redis server address (default: localhost:6379)
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_POOL_SIZE: Redis connection pool size (default: 10)
//
// Security Configuration:
//   - JWT_SECRET: JWT signing secret (required, minimum 32 characters)
//
// Routing Configuration:
//   - ROUTING_ACTIVE_PROFILE: Profile used when storage has none (default: balanced)
//   - ROUTING_REFRESH_SCHEDULE: Cron spec for snapshot refresh (default: @every 30s)
//   - PROVIDER_CALL_TIMEOUT: Timeout for provider fee/health lookups (default: 2s)
//   - IDEMPOTENCY_TTL: Retention for idempotent decision replays (default: 24h)
//   - DECISION_RETENTION: How long decision audit records are kept (default: 720h)
//
// Rate Limiting:
//   - RATE_LIMIT_DEFAULT: Requests allowed per window per merchant (default: 100)
//   - RATE_LIMIT_WINDOW: Sliding window size (default: 1m)
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values for the payment router application.
// All string fields correspond to environment variables that can be set to
// override the default values.
//
// The configuration is loaded using the Load() function and should be
// validated using the Validate() method before use.
type Config struct {
	// Application settings
	Port     string // Server port number
	LogLevel string // Logging level (debug, info, warn, error)

	// Database configuration
	DatabaseType     string // Database type: "sqlite" or "postgres"
	DatabasePath     string // Path to SQLite database file
	PostgresHost     string // PostgreSQL host address
	PostgresPort     string // PostgreSQL port number
	PostgresDB       string // PostgreSQL database name
	PostgresUser     string // PostgreSQL username
	PostgresPassword string // PostgreSQL password
	PostgresSSLMode  string // PostgreSQL SSL mode (disable, require, etc.)

	// Redis configuration for idempotency and audit streaming
	RedisAddress  string // Redis server address (host:port)
	RedisPassword string // Redis authentication password
	RedisDB       string // Redis database number (0-15)
	RedisPoolSize string // Redis connection pool size

	// JWT authentication configuration
	JWTSecret string // Secret key for JWT token signing (required)

	// Routing engine configuration
	ActiveProfile       string // Bootstrap routing profile name
	RefreshSchedule     string // Cron spec for configuration snapshot refresh
	ProviderCallTimeout string // Timeout for provider fee/health lookups
	IdempotencyTTL      string // Retention window for idempotent replays
	DecisionRetention   string // Retention window for decision audit records

	// Rate limiting (requires Redis)
	RateLimitDefault string // Requests per window per merchant
	RateLimitWindow  string // Sliding window size
}

// Load creates a new Config instance with values loaded from environment variables.
// If an environment variable is not set, the corresponding default value is used.
//
// This function does not validate the configuration - call Validate() on the
// returned Config to ensure all required values are properly set and valid.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Database configuration
		DatabaseType:     getEnv("DATABASE_TYPE", "sqlite"),
		DatabasePath:     getEnv("DATABASE_PATH", "./payment_router.db"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresDB:       getEnv("POSTGRES_DB", "payment_router"),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresSSLMode:  getEnv("POSTGRES_SSL_MODE", "disable"),

		// Redis configuration
		RedisAddress:  getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnv("REDIS_DB", "0"),
		RedisPoolSize: getEnv("REDIS_POOL_SIZE", "10"),

		// JWT configuration
		JWTSecret: getEnv("JWT_SECRET", ""),

		// Routing configuration
		ActiveProfile:       getEnv("ROUTING_ACTIVE_PROFILE", "balanced"),
		RefreshSchedule:     getEnv("ROUTING_REFRESH_SCHEDULE", "@every 30s"),
		ProviderCallTimeout: getEnv("PROVIDER_CALL_TIMEOUT", "2s"),
		IdempotencyTTL:      getEnv("IDEMPOTENCY_TTL", "24h"),
		DecisionRetention:   getEnv("DECISION_RETENTION", "720h"),

		// Rate limiting
		RateLimitDefault: getEnv("RATE_LIMIT_DEFAULT", "100"),
		RateLimitWindow:  getEnv("RATE_LIMIT_WINDOW", "1m"),
	}
}

// getEnv retrieves an environment variable value or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Validate performs comprehensive validation on the configuration to ensure
// all required fields are present and all values are valid.
//
// This method checks:
//   - Required fields (JWT_SECRET)
//   - Field format validation (ports, durations, etc.)
//   - Cross-field dependencies (PostgreSQL configuration requirements)
//
// The application should call this method after loading configuration and
// before starting to ensure safe operation.
func (c *Config) Validate() error {
	// Validate required fields
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}

	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long for security")
	}

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}

	// Validate database type
	switch c.DatabaseType {
	case "sqlite", "postgres", "postgresql":
		// Valid database types
	default:
		return fmt.Errorf("DATABASE_TYPE must be 'sqlite' or 'postgres'")
	}

	// Validate PostgreSQL config if using PostgreSQL
	if c.DatabaseType == "postgres" || c.DatabaseType == "postgresql" {
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required when using PostgreSQL")
		}
		if c.PostgresDB == "" {
			return fmt.Errorf("POSTGRES_DB is required when using PostgreSQL")
		}
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required when using PostgreSQL")
		}
		if port, err := strconv.Atoi(c.PostgresPort); err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("POSTGRES_PORT must be a valid port number")
		}
	}

	// Validate Redis config if provided
	if c.RedisAddress != "" {
		if db, err := strconv.Atoi(c.RedisDB); err != nil || db < 0 || db > 15 {
			return fmt.Errorf("REDIS_DB must be a number between 0 and 15")
		}
		if poolSize, err := strconv.Atoi(c.RedisPoolSize); err != nil || poolSize < 1 {
			return fmt.Errorf("REDIS_POOL_SIZE must be a positive number")
		}
	}

	// Validate routing durations
	if _, err := time.ParseDuration(c.ProviderCallTimeout); err != nil {
		return fmt.Errorf("PROVIDER_CALL_TIMEOUT must be a valid duration (e.g., '2s')")
	}
	if _, err := time.ParseDuration(c.IdempotencyTTL); err != nil {
		return fmt.Errorf("IDEMPOTENCY_TTL must be a valid duration (e.g., '24h')")
	}
	if _, err := time.ParseDuration(c.DecisionRetention); err != nil {
		return fmt.Errorf("DECISION_RETENTION must be a valid duration (e.g., '720h')")
	}

	// Validate rate limit config
	if limit, err := strconv.Atoi(c.RateLimitDefault); err != nil || limit < 1 {
		return fmt.Errorf("RATE_LIMIT_DEFAULT must be a positive number")
	}
	if _, err := time.ParseDuration(c.RateLimitWindow); err != nil {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be a valid duration (e.g., '1m')")
	}

	return nil
}

// ProviderTimeout returns the parsed provider call timeout.
// Validate must have been called first.
func (c *Config) ProviderTimeout() time.Duration {
	d, _ := time.ParseDuration(c.ProviderCallTimeout)
	return d
}

// IdempotencyWindow returns the parsed idempotency retention window.
// Validate must have been called first.
func (c *Config) IdempotencyWindow() time.Duration {
	d, _ := time.ParseDuration(c.IdempotencyTTL)
	return d
}

// RetentionWindow returns the parsed decision audit retention window.
// Validate must have been called first.
func (c *Config) RetentionWindow() time.Duration {
	d, _ := time.ParseDuration(c.DecisionRetention)
	return d
}
