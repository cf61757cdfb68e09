// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	History  HistoryConfig
	Preview  PreviewConfig
	Fetch    FetchConfig
	Rules    RulesConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds database connection settings.
// The database only stores preview history; an empty URL disables it.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a database is configured.
func (c DatabaseConfig) Enabled() bool { return c.URL != "" }

// HistoryConfig holds preview history retention settings.
type HistoryConfig struct {
	// RetentionDays is how long preview runs are kept (default: 30)
	RetentionDays int `env:"HISTORY_RETENTION_DAYS" default:"30"`

	// PruneInterval is how often expired runs are deleted (default: 24h)
	PruneInterval time.Duration `env:"HISTORY_PRUNE_INTERVAL" default:"24h"`
}

// PreviewConfig holds preview pipeline limits.
type PreviewConfig struct {
	// MaxFileSize is the maximum accepted file size; accepts KB/MB/GB suffixes (default: 10MB)
	MaxFileSize int64 `env:"PREVIEW_MAX_FILE_SIZE" default:"10MB" unit:"bytes"`

	// MaxRows is the page size used when a request does not ask for one (default: 100)
	MaxRows int `env:"PREVIEW_MAX_ROWS" default:"100"`

	// MaxRowsLimit caps the page size a request may ask for (default: 1000)
	MaxRowsLimit int `env:"PREVIEW_MAX_ROWS_LIMIT" default:"1000"`

	// MaxConcurrent is the maximum number of previews running at once (default: 5)
	MaxConcurrent int `env:"PREVIEW_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long a request waits for a preview slot (default: 10s)
	MaxWaitTime time.Duration `env:"PREVIEW_MAX_WAIT_TIME" default:"10s"`
}

// FetchConfig holds settings for previewing files by URL.
type FetchConfig struct {
	// Enabled turns on the fetch endpoint (default: false)
	Enabled bool `env:"FETCH_ENABLED" default:"false"`

	// Timeout bounds a single remote download (default: 15s)
	Timeout time.Duration `env:"FETCH_TIMEOUT" default:"15s"`

	// AllowedHosts restricts fetches to these host names; empty allows any host
	AllowedHosts []string `env:"FETCH_ALLOWED_HOSTS"`
}

// RulesConfig holds schema catalog settings.
type RulesConfig struct {
	// Dir is an optional directory of YAML schema catalogs loaded at startup
	Dir string `env:"RULES_DIR"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// PreviewLimit is requests per minute for preview endpoints (default: 30)
	PreviewLimit int `env:"RATE_LIMIT_PREVIEW" default:"30"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey enables X-API-Key authentication on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`

	// File is an optional log file path; when set logs are also written there and rotated
	File string `env:"LOG_FILE"`

	// MaxSizeMB is the size at which the log file is rotated (default: 100)
	MaxSizeMB int `env:"LOG_MAX_SIZE_MB" default:"100"`

	// MaxBackups is the number of rotated files to keep (default: 5)
	MaxBackups int `env:"LOG_MAX_BACKUPS" default:"5"`

	// MaxAgeDays is how long rotated files are kept (default: 28)
	MaxAgeDays int `env:"LOG_MAX_AGE_DAYS" default:"28"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
