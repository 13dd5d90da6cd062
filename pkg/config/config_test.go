package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Server.Address != ":4000" {
		t.Errorf("address = %q", cfg.Server.Address)
	}
	if cfg.Realtime.PingInterval != 25*time.Second {
		t.Errorf("ping interval = %v", cfg.Realtime.PingInterval)
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty address", func(c *Config) { c.Server.Address = "" }},
		{"zero read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }},
		{"zero ping interval", func(c *Config) { c.Realtime.PingInterval = 0 }},
		{"zero send buffer", func(c *Config) { c.Realtime.SendBufferSize = 0 }},
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"redis enabled without address", func(c *Config) {
			c.Redis.Enabled = true
			c.Redis.Address = ""
		}},
		{"email enabled without key", func(c *Config) {
			c.Email.Enabled = true
			c.Email.SendgridKey = ""
		}},
		{"empty jwt secret", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"zero token ttl", func(c *Config) { c.Auth.AccessTokenTTL = 0 }},
		{"rate limiting enabled with zero rps", func(c *Config) {
			c.RateLimiting.Enabled = true
			c.RateLimiting.RequestsPerSecond = 0
		}},
		{"empty log level", func(c *Config) { c.Logging.Level = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Path != "aulanet.db" {
		t.Errorf("db path = %q", cfg.Database.Path)
	}
}

func TestLoad_MergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  address: ":9090"
email:
  enabled: true
  sendgrid_key: "SG.test"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":9090" {
		t.Errorf("address = %q", cfg.Server.Address)
	}
	if !cfg.Email.Enabled || cfg.Email.SendgridKey != "SG.test" {
		t.Errorf("email config = %+v", cfg.Email)
	}
	// Untouched sections keep defaults.
	if cfg.Realtime.SendBufferSize != 32 {
		t.Errorf("send buffer = %d", cfg.Realtime.SendBufferSize)
	}
}

func TestLoad_InvalidFileRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  address: \"\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid config")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AULANET_SERVER_ADDRESS", ":7777")
	t.Setenv("AULANET_JWT_SECRET", "env-secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":7777" {
		t.Errorf("address = %q", cfg.Server.Address)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("jwt secret = %q", cfg.Auth.JWTSecret)
	}
}
