// Package config provides configuration defaults and YAML file loading for Bitácora.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultPort is the default HTTP server port.
	DefaultPort = "8080"

	// DefaultDatabaseURL is empty; must be provided via flag, environment or file.
	DefaultDatabaseURL = ""

	// DefaultDispatchInterval is how often the outbox is polled.
	DefaultDispatchInterval = 2 * time.Second

	// DefaultTokenTTL is the lifetime of tokens minted by issue-token.
	DefaultTokenTTL = 24 * time.Hour

	// DefaultNATSSubjectPrefix prefixes every published notification subject.
	DefaultNATSSubjectPrefix = "bitacora"
)

// Config is the complete service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	NATS     NATSConfig     `yaml:"nats"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            string        `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig configures the PostgreSQL pool.
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
	MinConns int32  `yaml:"min_conns"`
}

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	// JWTSecret signs and verifies HS256 tokens.
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// NATSConfig configures notification publishing.
type NATSConfig struct {
	// URL is the NATS server URL (empty = log notifications instead)
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// DispatchConfig configures the outbox dispatcher.
type DispatchConfig struct {
	// Interval between polls (0 disables the in-process dispatcher)
	Interval time.Duration `yaml:"interval"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a Config with defaults filled in.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            DefaultPort,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			URL:      DefaultDatabaseURL,
			MaxConns: 10,
			MinConns: 2,
		},
		Auth: AuthConfig{
			TokenTTL: DefaultTokenTTL,
		},
		NATS: NATSConfig{
			SubjectPrefix: DefaultNATSSubjectPrefix,
		},
		Dispatch: DispatchConfig{
			Interval: DefaultDispatchInterval,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadFromFile loads configuration from a YAML file on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// Validate checks the settings needed to serve requests.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.Database.MinConns < 0 || c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("database.max_conns (%d) must be at least min_conns (%d)", c.Database.MaxConns, c.Database.MinConns)
	}
	if c.Dispatch.Interval < 0 {
		return errors.New("dispatch.interval must not be negative")
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	return nil
}
