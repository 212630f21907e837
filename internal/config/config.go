package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// Create a new instance of the logger
// Configure it to log at the desired level
// and format it as JSON for structured logging
var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	environment := GetEnvWithDefault("APP_ENV", "development")
	switch environment {
	case "development":
		log.SetLevel(logrus.DebugLevel)
	case "production":
		log.SetLevel(logrus.ErrorLevel)
	default:
		// Default to info level for other environments
		log.SetLevel(logrus.InfoLevel)
	}
}

// Config used for the application configuration, loading the input from
// environment variables. Built once at process start and handed to the
// services that need it; nothing reads os.Getenv ad hoc after startup.
type Config struct {
	// Server configuration
	Port int    `json:"port"`
	Host string `json:"host"`

	// Data stores
	DatabaseURL string `json:"database_url"` // postgres DSN/URL; empty means local sqlite
	SQLitePath  string `json:"sqlite_path"`
	RedisURL    string `json:"redis_url"` // optional; in-memory state store when empty

	// MercadoLibre application
	MeliAppID       string `json:"meli_app_id"`
	MeliAppSecret   string `json:"meli_app_secret"`
	MeliRedirectURL string `json:"meli_redirect_url"`
	MeliSiteID      string `json:"meli_site_id"`

	// Transactional email
	ResendAPIKey string `json:"resend_api_key"`
	EmailFrom    string `json:"email_from"`

	// Browser-facing redirect target for the OAuth callback
	DashboardURL string `json:"dashboard_url"`

	// Security configuration
	JWTSecret      string `json:"jwt_secret"`
	TokenCipherKey string `json:"token_cipher_key"`

	// Logging configuration
	LogLevel string `json:"log_level"`
}

// String returns a string representation of Config with sensitive data masked
func (c *Config) String() string {
	return fmt.Sprintf("Config{Port: %d, Host: %s, DatabaseURL: %s, RedisURL: %s, MeliAppID: %s, MeliAppSecret: [REDACTED], MeliRedirectURL: %s, MeliSiteID: %s, ResendAPIKey: [REDACTED], DashboardURL: %s, JWTSecret: [REDACTED], TokenCipherKey: [REDACTED], LogLevel: %s}",
		c.Port, c.Host, maskURL(c.DatabaseURL), maskURL(c.RedisURL), c.MeliAppID, c.MeliRedirectURL, c.MeliSiteID, c.DashboardURL, c.LogLevel)
}

// maskURL masks any password embedded in a connection URL
func maskURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[REDACTED_INVALID_URL]"
	}

	if parsed.User != nil {
		parsed.User = url.UserPassword(parsed.User.Username(), "[REDACTED]")
	}

	return parsed.String()
}

// LoadConfig reads the configuration from environment variables and returns a
// Config struct. Only structurally invalid values fail the load; the
// marketplace app id/secret are allowed to be empty here and are checked at
// use time so the authorization initiator can surface a proper
// missing-configuration error body.
func LoadConfig() (*Config, error) {
	log.Info("Loading configuration from environment variables")
	port, err := strconv.Atoi(GetEnvWithDefault("APP_PORT", "8080"))
	if err != nil {
		return nil, err
	}

	dbURL := GetEnvWithDefault("DATABASE_URL", "")
	if dbURL != "" {
		if _, err := url.ParseRequestURI(dbURL); err != nil {
			return nil, fmt.Errorf("invalid DATABASE_URL format: %w", err)
		}
	}

	config := &Config{
		Port:            port,
		Host:            GetEnvWithDefault("APP_HOST", "localhost"),
		DatabaseURL:     dbURL,
		SQLitePath:      GetEnvWithDefault("SQLITE_PATH", "impulseml.sqlite"),
		RedisURL:        GetEnvWithDefault("REDIS_URL", ""),
		MeliAppID:       GetEnvWithDefault("MELI_APP_ID", ""),
		MeliAppSecret:   GetEnvWithDefault("MELI_APP_SECRET", ""),
		MeliRedirectURL: GetEnvWithDefault("MELI_REDIRECT_URL", "http://localhost:8080/api/v1/integrations/meli/callback"),
		MeliSiteID:      GetEnvWithDefault("MELI_SITE_ID", "MLU"),
		ResendAPIKey:    GetEnvWithDefault("RESEND_API_KEY", ""),
		EmailFrom:       GetEnvWithDefault("EMAIL_FROM", "ImpulseML <noreply@impulseml.com>"),
		DashboardURL:    GetEnvWithDefault("DASHBOARD_URL", "http://localhost:3000"),
		JWTSecret:       GetEnvWithDefault("JWT_SECRET", "secret"),
		TokenCipherKey:  GetEnvWithDefault("TOKEN_CIPHER_KEY", ""),
		LogLevel:        GetEnvWithDefault("LOG_LEVEL", "info"),
	}
	log.Infof("Configuration loaded: %s", config.String())
	return config, nil
}

// Helper to get environment with default values
func GetEnvWithDefault(key, defaultValue string) string {
	log.Tracef("Getting environment variable: %s", key)
	value := os.Getenv(key)
	if value == "" {
		log.Warnf("Environment variable %s not set, using default value: %s", key, defaultValue)
		return defaultValue
	}
	return value
}
