package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// validate reports every invalid setting at once.
func (c *Config) validate() error {
	return errors.Join(
		c.validateStore(),
		c.validateCollection(),
		c.validateFetch(),
		c.validateLogging(),
		c.validateListen(),
		c.validateCORS(),
	)
}

func (c *Config) validateStore() error {
	switch c.StoreBackend {
	case "postgres":
		return validateDatabaseURL(c.DatabaseURL.Value())
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when STORE_BACKEND is sqlite")
		}
	case "file":
		if c.DataDir == "" {
			return errors.New("DATA_DIR is required when STORE_BACKEND is file")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be postgres, sqlite or file, got %q", c.StoreBackend)
	}

	return nil
}

func isLocalHost(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// validateDatabaseURL refuses plaintext connections to anything but the local host.
func validateDatabaseURL(raw string) error {
	if raw == "" {
		return errors.New("DATABASE_URL is required when STORE_BACKEND is postgres")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return errors.New("DATABASE_URL is not a valid URL")
	}

	switch {
	case u.Scheme != "postgres" && u.Scheme != "postgresql":
		return errors.New("DATABASE_URL scheme must be postgres:// or postgresql://")
	case u.Hostname() == "":
		return errors.New("DATABASE_URL must include a host")
	case !isLocalHost(u.Hostname()) && u.Query().Get("sslmode") == "disable":
		return fmt.Errorf("DATABASE_URL sslmode=disable is not allowed for non-local host %q", u.Hostname())
	}

	return nil
}

// validateCollection keeps the key safe to embed in file names.
func (c *Config) validateCollection() error {
	if c.Collection == "" {
		return errors.New("COLLECTION_KEY must not be empty")
	}

	valid := strings.IndexFunc(c.Collection, func(r rune) bool {
		return !(r >= 'A' && r <= 'Z') && !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '_' && r != '-'
	}) < 0
	if !valid {
		return fmt.Errorf("COLLECTION_KEY may only contain letters, digits, '_' and '-', got %q", c.Collection)
	}

	return nil
}

func (c *Config) validateFetch() error {
	if c.FetchTimeout <= 0 {
		return errors.New("FETCH_TIMEOUT must be positive")
	}

	return nil
}

func (c *Config) validateLogging() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}

	return nil
}

// validateListen allows loopback, or the unspecified address for containers.
func (c *Config) validateListen() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %q", c.Port)
	}

	if isLocalHost(c.ListenHost) {
		return nil
	}
	if ip := net.ParseIP(c.ListenHost); ip != nil && ip.IsUnspecified() {
		return nil
	}

	return fmt.Errorf("LISTEN_HOST must be a loopback address or 0.0.0.0/:: (got %q)", c.ListenHost)
}

func (c *Config) validateCORS() error {
	for _, origin := range c.CORSOrigins {
		if strings.ContainsAny(origin, "*?[]") {
			return fmt.Errorf("CORS_ORIGINS must not contain wildcard characters, got %q", origin)
		}

		if u, err := url.Parse(origin); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("CORS_ORIGINS contains invalid origin %q (must have scheme and host)", origin)
		}
	}

	return nil
}
