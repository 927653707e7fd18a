package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed config.toml.sample
var configTemplate string

// Config is the full process configuration shared by the serve, notify-worker
// and email-worker commands. A single file configures all three so they can be
// deployed from the same artifact.
type Config struct {
	// ListenAddr is the HTTP/WebSocket bind address for serve.
	ListenAddr string `toml:"listen_addr"`
	// RedisURL points at the Redis instance backing the durable queues and
	// the pub/sub topics. When empty, serve falls back to in-process
	// queue/broker implementations (single-process mode); the worker
	// commands refuse to start without it.
	RedisURL string `toml:"redis_url"`
	// DatabasePath is the SQLite file holding conversations and messages.
	DatabasePath string `toml:"database_path"`
	// JWTSecret is the shared HMAC secret used to verify bearer tokens.
	JWTSecret string `toml:"jwt_secret"`

	Gateway GatewayConfig `toml:"gateway"`
	Worker  WorkerConfig  `toml:"worker"`
	Email   EmailConfig   `toml:"email"`
}

type GatewayConfig struct {
	// TargetedInbox routes INBOX_MESSAGE frames only to the addressed
	// user's (and sender's) connections instead of fanning out to every
	// open connection. Off by default to match the historical behavior
	// where clients self-filter by toUserId.
	TargetedInbox bool `toml:"targeted_inbox"`
	// WriteTimeout bounds a single frame write to one client so a stalled
	// connection cannot hold up the fanout loop.
	WriteTimeout Duration `toml:"write_timeout"`
}

type WorkerConfig struct {
	// Backoff is the fixed sleep after a failed worker iteration.
	Backoff Duration `toml:"backoff"`
}

type EmailConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	From     string `toml:"from"`
}

// Duration wraps time.Duration so values can be written as "5s" in TOML.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// GetDefaultConfig returns a config populated with working defaults for a
// local single-process deployment.
func GetDefaultConfig() *Config {
	return &Config{
		ListenAddr:   ":5000",
		DatabasePath: "eventms.db",
		Gateway: GatewayConfig{
			WriteTimeout: Duration{2 * time.Second},
		},
		Worker: WorkerConfig{
			Backoff: Duration{time.Second},
		},
		Email: EmailConfig{
			From: "Event Management System <hello@events.io>",
		},
	}
}

// LoadConfig reads the TOML file at configPath, filling in defaults for any
// omitted values. A missing file yields the default config.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	defaults := GetDefaultConfig()
	if config.ListenAddr == "" {
		config.ListenAddr = defaults.ListenAddr
	}
	if config.DatabasePath == "" {
		config.DatabasePath = defaults.DatabasePath
	}
	if config.Gateway.WriteTimeout.Duration == 0 {
		config.Gateway.WriteTimeout = defaults.Gateway.WriteTimeout
	}
	if config.Worker.Backoff.Duration == 0 {
		config.Worker.Backoff = defaults.Worker.Backoff
	}
	if config.Email.From == "" {
		config.Email.From = defaults.Email.From
	}

	return &config, nil
}

// SaveConfig writes the config back out as TOML, creating parent directories
// as needed.
func (c *Config) SaveConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// SaveTemplateConfig writes the commented sample config to configPath.
func SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(configPath, []byte(configTemplate), 0644)
}

// GetDefaultConfigPath returns ~/.config/eventms/config.toml.
func GetDefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "eventms", "config.toml"), nil
}
