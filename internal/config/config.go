// Package config loads the heydev configuration file.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration document.
type Config struct {
	GitHub   GitHubConfig   `yaml:"github"`
	Store    StoreConfig    `yaml:"store"`
	Database DatabaseConfig `yaml:"database"`
	Serve    ServeConfig    `yaml:"serve"`
	// GateTimeout bounds how long a gate waits for a human response.
	// Zero means wait forever.
	GateTimeout time.Duration `yaml:"gate_timeout"`
}

type GitHubConfig struct {
	Token  string `yaml:"token"`
	APIURL string `yaml:"api_url"`
}

// StoreConfig selects the session state backend and its persistence
// middleware.
type StoreConfig struct {
	Backend string      `yaml:"backend"` // "memory" or "redis"
	Redis   RedisConfig `yaml:"redis"`

	// EncryptionKey enables at-rest encryption of session documents when
	// set. Base64-encoded, must decode to 32 bytes (AES-256).
	EncryptionKey string `yaml:"encryption_key"`

	// Redact masks access tokens and email addresses in persisted
	// session text.
	Redact bool `yaml:"redact"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type ServeConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Store:    StoreConfig{Backend: "memory", Redis: RedisConfig{Addr: "localhost:6379"}},
		Database: DatabaseConfig{Path: "heydev.db"},
		Serve:    ServeConfig{Addr: ":8080"},
	}
}

// Load reads the configuration at path, falling back to defaults when the
// file does not exist. GITHUB_TOKEN in the environment overrides the file's
// token so credentials can stay out of checked-in configs.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// No file is fine; run on defaults.
	case err != nil:
		return cfg, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		cfg.GitHub.Token = token
	}
	if key := os.Getenv("HEYDEV_ENCRYPTION_KEY"); key != "" {
		cfg.Store.EncryptionKey = key
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Store.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown store backend %q (want memory or redis)", c.Store.Backend)
	}
	if c.GateTimeout < 0 {
		return fmt.Errorf("gate_timeout must not be negative")
	}
	if _, err := c.Store.EncryptionKeyBytes(); err != nil {
		return err
	}
	return nil
}

// EncryptionKeyBytes decodes the configured encryption key. Returns nil
// when no key is set.
func (s StoreConfig) EncryptionKeyBytes() ([]byte, error) {
	if s.EncryptionKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(s.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption_key is not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption_key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}
