// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, limiter, dispatcher) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Rate limiter backends.
const (
	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

// minProductionSecretLength is the minimum SECRET_KEY size outside development.
const minProductionSecretLength = 32

// # Configuration Schema

// Config holds all runtime configuration for the CMS API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`
	AppName     string `env:"APP_NAME"     envDefault:"Spotex CMS"`

	// Relational Database (PostgreSQL)
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"postgres"`
	DatabaseURL   string `env:"DATABASE_URL"`
	DBMaxConns    int32  `env:"DB_MAX_CONNS"   envDefault:"25"`
	DBMinConns    int32  `env:"DB_MIN_CONNS"   envDefault:"2"`

	// MigrationPath overrides the embedded migrations with a directory on disk.
	MigrationPath string `env:"MIGRATION_PATH"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`

	// Key-Value store (Redis), optional
	RedisURL      string `env:"REDIS_URL"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"10"`

	// Token signing and lifetimes
	SecretKey          string        `env:"SECRET_KEY,required,notEmpty"`
	AccessTTL          time.Duration `env:"ACCESS_TTL"           envDefault:"30m"`
	RefreshTTL         time.Duration `env:"REFRESH_TTL"          envDefault:"720h"`
	SessionBoundTokens bool          `env:"SESSION_BOUND_TOKENS" envDefault:"true"`
	BcryptCost         int           `env:"BCRYPT_COST"          envDefault:"10"`

	// Rate limiting, requests per minute per policy
	RateLimitGeneral int    `env:"RATE_LIMIT_GENERAL" envDefault:"60"`
	RateLimitAuth    int    `env:"RATE_LIMIT_AUTH"    envDefault:"5"`
	RateLimitAPI     int    `env:"RATE_LIMIT_API"     envDefault:"100"`
	RateLimitBackend string `env:"RATE_LIMIT_BACKEND" envDefault:"memory"`

	// Outbound webhooks
	WebhookTimeout      time.Duration `env:"WEBHOOK_TIMEOUT"       envDefault:"10s"`
	WebhookWorkers      int           `env:"WEBHOOK_WORKERS"       envDefault:"8"`
	WebhookQueueSize    int           `env:"WEBHOOK_QUEUE_SIZE"    envDefault:"1024"`
	WebhookMaxRetries   int           `env:"WEBHOOK_MAX_RETRIES"   envDefault:"0"`
	WebhookRetryBase    time.Duration `env:"WEBHOOK_RETRY_BASE"    envDefault:"1s"`
	WebhookMaxRPS       float64       `env:"WEBHOOK_MAX_RPS"       envDefault:"0"`
	WebhookAllowPrivate bool          `env:"WEBHOOK_ALLOW_PRIVATE" envDefault:"true"`

	// Background jobs (robfig/cron schedules)
	SessionCleanupSchedule string `env:"SESSION_CLEANUP_SCHEDULE" envDefault:"@every 15m"`
	RateLimitPruneSchedule string `env:"RATE_LIMIT_PRUNE_SCHEDULE" envDefault:"@every 1m"`

	// First administrator, created at startup when missing
	BootstrapAdminUsername string `env:"BOOTSTRAP_ADMIN_USERNAME"`
	BootstrapAdminEmail    string `env:"BOOTSTRAP_ADMIN_EMAIL"`
	BootstrapAdminPassword string `env:"BOOTSTRAP_ADMIN_PASSWORD"`

	// Observability
	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`

	// Cross-Origin Resource Sharing, comma separated origin suffixes
	CORSOrigins string `env:"CORS_ORIGINS"`

	// TrustedProxies lists the CIDRs (or bare IPs) allowed to set X-Real-IP
	// and X-Forwarded-For. Empty means the peer address is always used.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct and validates it.
func Load() (*Config, error) {
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	switch c.StorageDriver {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres storage driver"))
		}
	case StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}

	if c.IsProduction() && len(c.SecretKey) < minProductionSecretLength {
		errs = append(errs, fmt.Errorf("SECRET_KEY must be at least %d bytes in production", minProductionSecretLength))
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TTL and REFRESH_TTL must be positive"))
	}
	if c.RateLimitGeneral < 1 || c.RateLimitAuth < 1 || c.RateLimitAPI < 1 {
		errs = append(errs, errors.New("rate limits must be at least 1 request per minute"))
	}

	switch c.RateLimitBackend {
	case RateLimitBackendMemory:
	case RateLimitBackendRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis rate limit backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown RATE_LIMIT_BACKEND %q", c.RateLimitBackend))
	}

	if c.WebhookTimeout <= 0 {
		errs = append(errs, errors.New("WEBHOOK_TIMEOUT must be positive"))
	}
	if c.WebhookWorkers < 1 || c.WebhookQueueSize < 1 {
		errs = append(errs, errors.New("WEBHOOK_WORKERS and WEBHOOK_QUEUE_SIZE must be positive"))
	}
	if c.WebhookMaxRetries < 0 {
		errs = append(errs, errors.New("WEBHOOK_MAX_RETRIES must not be negative"))
	}

	if _, err := parsePrefixes(c.TrustedProxies); err != nil {
		errs = append(errs, fmt.Errorf("TRUSTED_PROXIES: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: invalid configuration: %w", err)
	}
	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins splits CORS_ORIGINS into trimmed, non-empty entries.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// UserAgent is the User-Agent sent on outbound webhook requests.
func (c *Config) UserAgent() string {
	return c.AppName + "/1.0"
}

// TrustedProxyPrefixes returns TRUSTED_PROXIES as prefixes. Entries that
// fail to parse are rejected by [Config.Validate] and skipped here.
func (c *Config) TrustedProxyPrefixes() []netip.Prefix {
	prefixes, _ := parsePrefixes(c.TrustedProxies)
	return prefixes
}

func parsePrefixes(entries []string) ([]netip.Prefix, error) {
	var (
		prefixes []netip.Prefix
		errs     []error
	)
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid proxy %q", entry))
			continue
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, errors.Join(errs...)
}
