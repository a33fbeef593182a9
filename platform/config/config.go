// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetRateLimitPerMinute() int
}

// RedisConfig provides settings for the shared redis connection.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// SchedulerConfig provides settings for the asynq worker and scheduler.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetForecastWarmInterval() time.Duration
}

// ForecastConfig provides settings for the forecasting engine.
type ForecastConfig interface {
	GetForecastMonthlyTarget() decimal.Decimal
	GetForecastTables() *ForecastTablesFile
	GetForecastCacheTTL() time.Duration
	GetForecastRepConcurrency() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration.
// It implements all module-specific config interfaces.
type Config struct {
	Env                 string
	HTTPAddr            string
	DatabaseURL         string
	MigrationsEnabled   bool
	JWTAccessSecret     string
	CORSAllowAll        bool
	CORSOrigins         []string
	CORSAllowCreds      bool
	RateLimitPerMinute  int
	RedisURL            string
	RedisTLSInsecure    bool
	AsynqQueueName      string
	AsynqConcurrency    int
	ForecastWarmEvery   time.Duration
	ForecastTarget      decimal.Decimal
	ForecastTablesPath  string
	ForecastTables      *ForecastTablesFile
	ForecastCacheTTL    time.Duration
	ForecastConcurrency int
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string        { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool      { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string   { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool    { return c.CORSAllowCreds }
func (c *Config) GetRateLimitPerMinute() int { return c.RateLimitPerMinute }

// RedisConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }

// SchedulerConfig implementation
func (c *Config) GetAsynqQueueName() string              { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int               { return c.AsynqConcurrency }
func (c *Config) GetForecastWarmInterval() time.Duration { return c.ForecastWarmEvery }

// ForecastConfig implementation
func (c *Config) GetForecastMonthlyTarget() decimal.Decimal { return c.ForecastTarget }
func (c *Config) GetForecastTables() *ForecastTablesFile    { return c.ForecastTables }
func (c *Config) GetForecastCacheTTL() time.Duration        { return c.ForecastCacheTTL }
func (c *Config) GetForecastRepConcurrency() int            { return c.ForecastConcurrency }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	target, err := decimal.NewFromString(getEnv("FORECAST_MONTHLY_TARGET", "100000"))
	if err != nil {
		return nil, fmt.Errorf("FORECAST_MONTHLY_TARGET must be a decimal number: %w", err)
	}

	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		MigrationsEnabled:   strings.EqualFold(getEnv("DB_MIGRATIONS_ENABLED", "true"), "true"),
		JWTAccessSecret:     getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:        corsAllowAll,
		CORSOrigins:         corsOrigins,
		CORSAllowCreds:      strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RateLimitPerMinute:  mustInt(getEnv("RATE_LIMIT_PER_MINUTE", "120")),
		RedisURL:            getEnv("REDIS_URL", ""),
		RedisTLSInsecure:    strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:      getEnv("ASYNQ_QUEUE", "forecasting"),
		AsynqConcurrency:    mustInt(getEnv("ASYNQ_CONCURRENCY", "2")),
		ForecastWarmEvery:   mustDuration(getEnv("FORECAST_WARM_INTERVAL", "15m")),
		ForecastTarget:      target,
		ForecastTablesPath:  getEnv("FORECAST_TABLES_FILE", ""),
		ForecastCacheTTL:    mustDuration(getEnv("FORECAST_CACHE_TTL", "5m")),
		ForecastConcurrency: mustInt(getEnv("FORECAST_REP_CONCURRENCY", "8")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	if cfg.ForecastTablesPath != "" {
		tables, err := LoadForecastTables(cfg.ForecastTablesPath)
		if err != nil {
			return nil, err
		}
		cfg.ForecastTables = tables
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
