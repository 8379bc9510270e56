// Package config loads and validates RoomStage service configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration structure for RoomStage.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Backend   BackendConfig   `yaml:"backend"`
	Auth      AuthConfig      `yaml:"auth"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Host     string `yaml:"host"`
	HTTPPort int    `yaml:"http_port"`
}

type DatabaseConfig struct {
	// Path is the SQLite database file; empty selects in-memory storage.
	Path string `yaml:"path"`
}

// BackendConfig points at the external rendering/catalog API.
type BackendConfig struct {
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"`
	Timeout      time.Duration `yaml:"timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
	PollTimeout  time.Duration `yaml:"poll_timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryDelay   time.Duration `yaml:"retry_delay"`
}

type AuthConfig struct {
	JWTSecret   string        `yaml:"jwt_secret"`
	TokenExpiry time.Duration `yaml:"token_expiry"`
}

type AnalyticsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Endpoint   string `yaml:"endpoint"`
	DebounceMs int    `yaml:"debounce_ms"`
	MaxBatch   int    `yaml:"max_batch"`
}

type SessionsConfig struct {
	// TTL is how long an idle session survives before the janitor drops it.
	TTL time.Duration `yaml:"ttl"`
	// CleanupSchedule is a cron expression for the janitor run.
	CleanupSchedule string `yaml:"cleanup_schedule"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "127.0.0.1",
			HTTPPort: 8080,
		},
		Backend: BackendConfig{
			Timeout:      30 * time.Second,
			PollInterval: 2 * time.Second,
			PollTimeout:  3 * time.Minute,
			MaxRetries:   3,
			RetryDelay:   2 * time.Second,
		},
		Auth: AuthConfig{
			TokenExpiry: 24 * time.Hour,
		},
		Analytics: AnalyticsConfig{
			DebounceMs: 2000,
			MaxBatch:   50,
		},
		Sessions: SessionsConfig{
			TTL:             72 * time.Hour,
			CleanupSchedule: "@hourly",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML config file, expanding ${ENV} references, and applies
// defaults for unset fields.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants that would otherwise fail at runtime.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("config: invalid http_port %d", c.Server.HTTPPort)
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("config: backend.base_url is required")
	}
	if c.Backend.PollInterval <= 0 {
		return fmt.Errorf("config: backend.poll_interval must be positive")
	}
	if c.Backend.MaxRetries < 0 {
		return fmt.Errorf("config: backend.max_retries must not be negative")
	}
	if c.Analytics.Enabled && c.Analytics.Endpoint == "" {
		return fmt.Errorf("config: analytics.endpoint is required when analytics is enabled")
	}
	if c.Sessions.TTL < 0 {
		return fmt.Errorf("config: sessions.ttl must not be negative")
	}
	return nil
}
