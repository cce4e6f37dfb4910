// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Dataset source kinds.
const (
	SourceHTTP     = "http"
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Dataset  DatasetConfig
	Database DatabaseConfig
	Notify   NotifyConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envDefault:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0 for SSE)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// RequestTimeout bounds non-streaming requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" envDefault:"60s"`
}

// DatasetConfig selects where the Olympic dataset comes from.
type DatasetConfig struct {
	// Source is one of http, file, postgres (default: file)
	Source string `env:"DATASET_SOURCE" envDefault:"file"`

	// URL is fetched with GET when Source is http
	URL string `env:"DATASET_URL"`

	// Path is read when Source is file (default: assets/mock/olympic.json)
	Path string `env:"DATASET_PATH" envDefault:"assets/mock/olympic.json"`

	// Table holds the stored dataset documents when Source is postgres
	Table string `env:"DATASET_TABLE" envDefault:"olympic_datasets"`

	// FetchTimeout bounds one HTTP fetch; 0 means no timeout (default: 0)
	FetchTimeout time.Duration `env:"DATASET_FETCH_TIMEOUT" envDefault:"0s"`

	// ReloadInterval enables periodic reloads when positive (default: 0, disabled)
	ReloadInterval time.Duration `env:"DATASET_RELOAD_INTERVAL" envDefault:"0s"`

	// LoadOnStart issues the initial load at startup (default: true)
	LoadOnStart bool `env:"DATASET_LOAD_ON_START" envDefault:"true"`
}

// DatabaseConfig holds database connection settings. Only used when the
// dataset source is postgres.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string
	URL string `env:"DATABASE_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" envDefault:"4"`

	// MinConns is the minimum number of connections to keep open (default: 0)
	MinConns int `env:"DB_MIN_CONNS" envDefault:"0"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
}

// NotifyConfig controls how load failures are shown to users.
type NotifyConfig struct {
	// Duration is how long a notification stays visible (default: 5s)
	Duration time.Duration `env:"NOTIFY_DURATION" envDefault:"5s"`

	// Placement is where clients show notifications (default: top-right)
	Placement string `env:"NOTIFY_PLACEMENT" envDefault:"top-right"`

	// Buffer is the per-subscriber notification buffer (default: 16)
	Buffer int `env:"NOTIFY_BUFFER" envDefault:"16"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	// RequireAPIKey protects the reload endpoint with X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" envDefault:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS" envSeparator:","`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" envDefault:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + strconv.Itoa(c.Port)
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
