package database

import (
	"fmt"
	"net/url"
	"strings"
)

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	// Driver specifies the database driver (postgres, sqlite)
	Driver string

	// PostgreSQL-specific configuration
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string

	// SQLite-specific configuration
	Path string
}

// FromURL builds a DatabaseConfig from a DATABASE_URL-style connection
// string. An empty URL selects the local sqlite file at sqlitePath.
func FromURL(rawURL, sqlitePath string) (DatabaseConfig, error) {
	if rawURL == "" {
		return DatabaseConfig{Driver: "sqlite", Path: sqlitePath}, nil
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("invalid database URL: %w", err)
	}

	switch parsed.Scheme {
	case "postgres", "postgresql":
		cfg := DatabaseConfig{
			Driver:  "postgres",
			Host:    parsed.Hostname(),
			Port:    parsed.Port(),
			Name:    strings.TrimPrefix(parsed.Path, "/"),
			SSLMode: parsed.Query().Get("sslmode"),
		}
		if cfg.Port == "" {
			cfg.Port = "5432"
		}
		if cfg.SSLMode == "" {
			cfg.SSLMode = "disable"
		}
		if parsed.User != nil {
			cfg.User = parsed.User.Username()
			cfg.Password, _ = parsed.User.Password()
		}
		return cfg, nil
	case "sqlite", "file":
		return DatabaseConfig{Driver: "sqlite", Path: strings.TrimPrefix(parsed.Opaque+parsed.Path, "/")}, nil
	default:
		return DatabaseConfig{}, fmt.Errorf("unsupported database URL scheme: %s", parsed.Scheme)
	}
}

// String returns a string representation with sensitive data masked
func (c *DatabaseConfig) String() string {
	return fmt.Sprintf("DatabaseConfig{Driver: %s, Host: %s, Port: %s, User: %s, Password: [REDACTED], Name: %s, SSLMode: %s, Path: %s}",
		c.Driver, c.Host, c.Port, c.User, c.Name, c.SSLMode, c.Path)
}

// DSN builds a Data Source Name string based on the driver
func (c *DatabaseConfig) DSN() string {
	switch c.Driver {
	case "postgres", "postgresql":
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
	case "sqlite", "":
		return c.Path
	default:
		return ""
	}
}
