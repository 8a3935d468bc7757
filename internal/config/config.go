// Package config provides environment-driven process configuration and
// YAML-file run parameters for vchain.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Config holds all process configuration values.
type Config struct {
	StoreBackend string
	DatabaseURL  Secret
	DBMaxConns   int
	SQLitePath   string
	DataDir      string
	FallbackDir  string
	Collection   string
	FetchCommand string
	FetchTimeout time.Duration
	LogLevel     string
	LogFormat    string
	Port         string
	ListenHost   string
	CORSOrigins  []string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		StoreBackend: envOrDefault("STORE_BACKEND", "postgres"),
		DatabaseURL:  Secret(envOrDefault("DATABASE_URL", "")),
		SQLitePath:   envOrDefault("SQLITE_PATH", "vchain.db"),
		DataDir:      envOrDefault("DATA_DIR", "data"),
		FallbackDir:  envOrDefault("FALLBACK_DIR", ""),
		Collection:   envOrDefault("COLLECTION_KEY", "VCHAINS"),
		FetchCommand: envOrDefault("FETCH_COMMAND", ""),
		LogLevel:     envOrDefault("LOG_LEVEL", "info"),
		LogFormat:    envOrDefault("LOG_FORMAT", "text"),
		Port:         envOrDefault("PORT", "3040"),
		ListenHost:   envOrDefault("LISTEN_HOST", "127.0.0.1"),
	}

	maxConns, err := strconv.Atoi(envOrDefault("DB_MAX_CONNS", "10"))
	if err != nil || maxConns < 1 || maxConns > 100 {
		return nil, fmt.Errorf("DB_MAX_CONNS must be an integer between 1 and 100")
	}
	cfg.DBMaxConns = maxConns

	timeout, err := time.ParseDuration(envOrDefault("FETCH_TIMEOUT", "5m"))
	if err != nil {
		return nil, fmt.Errorf("FETCH_TIMEOUT must be a duration such as 90s or 5m: %w", err)
	}
	cfg.FetchTimeout = timeout

	if origins := envOrDefault("CORS_ORIGINS", ""); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
