// Package config holds service configuration loaded from YAML with
// environment variable expansion, or directly from the environment.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Default values for optional configuration fields.
const (
	DefaultPort           = 8080
	DefaultDBMaxConns     = 10
	DefaultDBMinConns     = 2
	DefaultCacheTTL       = 30 * time.Second
	DefaultAuthTimeout    = 5 * time.Second
	DefaultReadTimeout    = 10 * time.Second
	DefaultWriteTimeout   = 10 * time.Second
	DefaultIdleTimeout    = 60 * time.Second
	DefaultRequestTimeout = 30 * time.Second
)

// Config is the top-level service configuration.
type Config struct {
	Port     int            `yaml:"port"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Server   ServerConfig   `yaml:"server"`
}

// DatabaseConfig configures the PostgreSQL pool. An empty URL selects the
// in-memory store.
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// RedisConfig configures the optional read-through cache.
type RedisConfig struct {
	URL string        `yaml:"url"`
	TTL time.Duration `yaml:"ttl"`
}

// AuthConfig configures the identity verifier. URL points at the auth
// collaborator; DevTokens is a static token→userID map used when no URL
// is set (development only).
type AuthConfig struct {
	URL       string            `yaml:"url"`
	Timeout   time.Duration     `yaml:"timeout"`
	DevTokens map[string]string `yaml:"dev_tokens"`
}

// ServerConfig holds HTTP server timeouts.
type ServerConfig struct {
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultDBMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultDBMinConns
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = DefaultCacheTTL
	}
	if c.Auth.Timeout == 0 {
		c.Auth.Timeout = DefaultAuthTimeout
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = DefaultIdleTimeout
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = DefaultRequestTimeout
	}
}

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.Database.MaxConns < 1 {
		return errors.New("database.max_conns must be >= 1")
	}
	if c.Database.MinConns < 0 {
		return errors.New("database.min_conns must be >= 0")
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return errors.New("database.min_conns must not exceed database.max_conns")
	}
	if c.Auth.URL == "" && len(c.Auth.DevTokens) == 0 {
		return errors.New("auth.url or auth.dev_tokens is required")
	}
	if c.Auth.Timeout <= 0 {
		return errors.New("auth.timeout must be positive")
	}
	return nil
}
