package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/JonMunkholm/olympics/internal/core"
	"github.com/caarlos0/env/v11"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// normalize trims list entries and lower-cases enumerations.
func (c *Config) normalize() {
	c.Security.TrustedProxies = trimList(c.Security.TrustedProxies)
	c.Security.APIKeys = trimList(c.Security.APIKeys)
	c.Dataset.Source = strings.ToLower(strings.TrimSpace(c.Dataset.Source))
	c.Notify.Placement = strings.ToLower(strings.TrimSpace(c.Notify.Placement))
}

func trimList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Dataset validation
	switch c.Dataset.Source {
	case SourceHTTP:
		if c.Dataset.URL == "" {
			errs = append(errs, "DATASET_URL is required when DATASET_SOURCE=http")
		} else if u, err := url.Parse(c.Dataset.URL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("DATASET_URL (%q) must be an absolute URL", c.Dataset.URL))
		}
	case SourceFile:
		if c.Dataset.Path == "" {
			errs = append(errs, "DATASET_PATH is required when DATASET_SOURCE=file")
		}
	case SourcePostgres:
		if c.Database.URL == "" {
			errs = append(errs, "DATABASE_URL is required when DATASET_SOURCE=postgres")
		}
		if c.Dataset.Table == "" {
			errs = append(errs, "DATASET_TABLE is required when DATASET_SOURCE=postgres")
		}
	default:
		errs = append(errs, fmt.Sprintf("DATASET_SOURCE (%q) must be one of: http, file, postgres", c.Dataset.Source))
	}
	if c.Dataset.FetchTimeout < 0 {
		errs = append(errs, "DATASET_FETCH_TIMEOUT must be non-negative")
	}
	if c.Dataset.ReloadInterval < 0 {
		errs = append(errs, "DATASET_RELOAD_INTERVAL must be non-negative")
	}

	// Database validation
	if c.Database.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if c.Database.MinConns < 0 {
		errs = append(errs, "DB_MIN_CONNS must be non-negative")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
			c.Database.MaxConns, c.Database.MinConns))
	}

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "SERVER_REQUEST_TIMEOUT must be positive")
	}

	// Notification validation
	if c.Notify.Duration <= 0 {
		errs = append(errs, "NOTIFY_DURATION must be positive")
	}
	if _, ok := core.ParsePlacement(c.Notify.Placement); !ok {
		errs = append(errs, fmt.Sprintf("NOTIFY_PLACEMENT (%q) must be one of: %s", c.Notify.Placement, joinPlacements()))
	}
	if c.Notify.Buffer <= 0 {
		errs = append(errs, "NOTIFY_BUFFER must be positive")
	}

	// Security validation
	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	}
	for _, cidr := range c.Security.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errs = append(errs, fmt.Sprintf("TRUSTED_PROXIES entry %q is not a valid CIDR", cidr))
		}
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// Sensitive values like database URLs and API keys are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Dataset: {Source: %q, URL: %q, Path: %q, Table: %q, ReloadInterval: %s}, ",
		c.Dataset.Source, c.Dataset.URL, c.Dataset.Path, c.Dataset.Table, c.Dataset.ReloadInterval))
	b.WriteString(fmt.Sprintf("Database: {URL: [MASKED], MaxConns: %d, MinConns: %d}, ",
		c.Database.MaxConns, c.Database.MinConns))
	b.WriteString(fmt.Sprintf("Notify: {Duration: %s, Placement: %q}, ",
		c.Notify.Duration, c.Notify.Placement))
	b.WriteString(fmt.Sprintf("Security: {RequireAPIKey: %v, APIKeys: %d configured}, ",
		c.Security.RequireAPIKey, len(c.Security.APIKeys)))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}

func joinPlacements() string {
	names := make([]string, len(core.Placements))
	for i, p := range core.Placements {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
