package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_ExpandsEnvAndAppliesDefaults(t *testing.T) {
	t.Setenv("TEST_DB_URL", "postgres://app:secret@db:5432/markets")

	path := writeConfig(t, `
port: 9000
database:
  url: ${TEST_DB_URL}
auth:
  url: http://auth:4000
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.Database.URL != "postgres://app:secret@db:5432/markets" {
		t.Errorf("env expansion failed: %s", cfg.Database.URL)
	}
	if cfg.Database.MaxConns != DefaultDBMaxConns {
		t.Errorf("expected default max_conns, got %d", cfg.Database.MaxConns)
	}
	if cfg.Auth.Timeout != DefaultAuthTimeout {
		t.Errorf("expected default auth timeout, got %s", cfg.Auth.Timeout)
	}
	if cfg.Server.RequestTimeout != DefaultRequestTimeout {
		t.Errorf("expected default request timeout, got %s", cfg.Server.RequestTimeout)
	}
}

func TestLoadAndValidate(t *testing.T) {
	path := writeConfig(t, `
auth:
  dev_tokens:
    tok-dev: dev-user
redis:
  ttl: 10s
`)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Redis.TTL != 10*time.Second {
		t.Errorf("expected ttl 10s, got %s", cfg.Redis.TTL)
	}
	if cfg.Auth.DevTokens["tok-dev"] != "dev-user" {
		t.Errorf("dev tokens not parsed: %+v", cfg.Auth.DevTokens)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Port = 70000 }},
		{"min conns above max", func(c *Config) { c.Database.MinConns = 20; c.Database.MaxConns = 5 }},
		{"no auth configured", func(c *Config) { c.Auth.URL = ""; c.Auth.DevTokens = nil }},
		{"non-positive auth timeout", func(c *Config) { c.Auth.Timeout = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := FromEnv()
			cfg.Auth.URL = "http://auth:4000"
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
