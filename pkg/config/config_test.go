package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("loading missing config: %v", err)
	}
	if cfg.ListenAddr != ":5000" {
		t.Errorf("expected default listen_addr :5000, got %q", cfg.ListenAddr)
	}
	if cfg.Worker.Backoff.Duration != time.Second {
		t.Errorf("expected default backoff 1s, got %v", cfg.Worker.Backoff.Duration)
	}
	if cfg.Gateway.TargetedInbox {
		t.Error("targeted_inbox should default to false")
	}
}

func TestLoadConfigParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
listen_addr = ":8080"
redis_url = "redis://localhost:6379"
jwt_secret = "s3cret"

[gateway]
targeted_inbox = true
write_timeout = "500ms"

[worker]
backoff = "2s"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("listen_addr = %q, want :8080", cfg.ListenAddr)
	}
	if cfg.RedisURL != "redis://localhost:6379" {
		t.Errorf("redis_url = %q", cfg.RedisURL)
	}
	if !cfg.Gateway.TargetedInbox {
		t.Error("expected targeted_inbox true")
	}
	if cfg.Gateway.WriteTimeout.Duration != 500*time.Millisecond {
		t.Errorf("write_timeout = %v, want 500ms", cfg.Gateway.WriteTimeout.Duration)
	}
	if cfg.Worker.Backoff.Duration != 2*time.Second {
		t.Errorf("backoff = %v, want 2s", cfg.Worker.Backoff.Duration)
	}
	// Omitted values fall back to defaults.
	if cfg.DatabasePath != "eventms.db" {
		t.Errorf("database_path = %q, want default", cfg.DatabasePath)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	cfg := GetDefaultConfig()
	cfg.JWTSecret = "roundtrip"
	if err := cfg.SaveConfig(path); err != nil {
		t.Fatalf("saving config: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("reloading config: %v", err)
	}
	if loaded.JWTSecret != "roundtrip" {
		t.Errorf("jwt_secret = %q, want roundtrip", loaded.JWTSecret)
	}
}

func TestSaveTemplateConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := SaveTemplateConfig(path); err != nil {
		t.Fatalf("writing template: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("template config does not parse: %v", err)
	}
	if cfg.ListenAddr == "" {
		t.Error("template config missing listen_addr")
	}
}
