package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Storage drivers
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	Env         string `env:"APP_ENV" envDefault:"development"`
	Server      ServerConfig
	Storage     StorageConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Cache       CacheConfig
	OTEL        OTELConfig
	Marketplace MarketplaceConfig
	RateLimit   RateLimitConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// StorageConfig selects the repository implementation
type StorageConfig struct {
	Driver       string `env:"STORAGE_DRIVER" envDefault:"memory"`
	SeedFixtures bool   `env:"STORAGE_SEED_FIXTURES" envDefault:"true"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string `env:"DB_HOST" envDefault:"localhost"`
	Port         int    `env:"DB_PORT" envDefault:"5432"`
	User         string `env:"DB_USER" envDefault:"postgres"`
	Password     string `env:"DB_PASSWORD"`
	Database     string `env:"DB_NAME" envDefault:"servicehub"`
	SSLMode      string `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	AutoMigrate  bool   `env:"DB_AUTO_MIGRATE" envDefault:"true"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED" envDefault:"false"`
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     int    `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// CacheConfig holds catalog cache TTLs
type CacheConfig struct {
	Prefix     string        `env:"CACHE_PREFIX" envDefault:"servicehub"`
	ServiceTTL time.Duration `env:"CACHE_SERVICE_TTL" envDefault:"5m"`
	ListTTL    time.Duration `env:"CACHE_LIST_TTL" envDefault:"3m"`
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string `env:"OTEL_SERVICE_NAME" envDefault:"servicehub"`
	ServiceVersion string `env:"OTEL_SERVICE_VERSION" envDefault:"1.0.0"`
	Endpoint       string `env:"OTEL_ENDPOINT"`
	Enabled        bool   `env:"OTEL_ENABLED" envDefault:"false"`
}

// MarketplaceConfig holds lifecycle and presentation settings
type MarketplaceConfig struct {
	Timezone            string `env:"MARKETPLACE_TIMEZONE" envDefault:"UTC"`
	DefaultLocale       string `env:"MARKETPLACE_LOCALE" envDefault:"en"`
	ExpirySweepSchedule string `env:"EXPIRY_SWEEP_SCHEDULE" envDefault:"@every 1m"`
	ExpirySweepEnabled  bool   `env:"EXPIRY_SWEEP_ENABLED" envDefault:"true"`
}

// RateLimitConfig holds per-client limits for submission endpoints
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`
	Burst             int  `env:"RATE_LIMIT_BURST" envDefault:"10"`
}

// Load loads configuration from the environment, after an optional .env file
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects settings the application cannot start with
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Storage.Driver)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid SERVER_PORT %d", c.Server.Port)
	}

	if _, err := c.Marketplace.Location(); err != nil {
		return err
	}

	switch c.Marketplace.DefaultLocale {
	case "en", "es":
	default:
		return fmt.Errorf("unsupported MARKETPLACE_LOCALE %q", c.Marketplace.DefaultLocale)
	}

	if _, err := cron.ParseStandard(c.Marketplace.ExpirySweepSchedule); err != nil {
		return fmt.Errorf("invalid EXPIRY_SWEEP_SCHEDULE %q: %w", c.Marketplace.ExpirySweepSchedule, err)
	}

	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerMinute <= 0 || c.RateLimit.Burst <= 0) {
		return errors.New("RATE_LIMIT_PER_MINUTE and RATE_LIMIT_BURST must be positive")
	}

	return nil
}

// IsDevelopment reports whether the app runs with the development profile
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Location returns the marketplace time zone used to resolve scheduled slots
func (c *MarketplaceConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid MARKETPLACE_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
