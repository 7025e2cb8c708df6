// Package config loads fleetpoll settings from a YAML file.
//
// Config file locations (priority order):
//  1. $FLEETPOLL_CONFIG
//  2. ./fleetpoll.yaml
//  3. $XDG_CONFIG_HOME/fleetpoll/config.yaml
//  4. ~/.config/fleetpoll/config.yaml
//  5. /etc/fleetpoll/config.yaml
//
// Missing values are filled with defaults; command line flags override the
// file afterwards.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"fleetpoll/internal/logger"
)

// Defaults
const (
	DefaultConcurrency      = 3
	DefaultConnectTimeout   = 10 * time.Second
	DefaultCommandTimeout   = 30 * time.Second
	DefaultPreflightTimeout = 30 * time.Second
	DefaultInventory        = "devices.yaml"
	DefaultArchiveDir       = "config_backup"
	DefaultSubjectPrefix    = "fleetpoll.facts"
	DefaultPasswordEnv      = "FLEETPOLL_PASSWORD"
	DefaultSecretEnv        = "FLEETPOLL_SECRET"
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()
	if path == "" {
		return DefaultConfig(), "", nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &cfg, path, nil
}

// DefaultConfig returns the settings used when no file exists
func DefaultConfig() *Config {
	cfg := &Config{
		Credentials: CredentialsConfig{Prompt: true},
	}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Concurrency == 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = Duration(DefaultConnectTimeout)
	}
	if c.CommandTimeout == 0 {
		c.CommandTimeout = Duration(DefaultCommandTimeout)
	}
	if c.Inventory == "" {
		c.Inventory = DefaultInventory
	}
	if c.Archive.Dir == "" {
		c.Archive.Dir = DefaultArchiveDir
	}
	if c.NATS.SubjectPrefix == "" {
		c.NATS.SubjectPrefix = DefaultSubjectPrefix
	}
	if c.Preflight.Timeout == 0 {
		c.Preflight.Timeout = Duration(DefaultPreflightTimeout)
	}
	if c.Credentials.PasswordEnv == "" {
		c.Credentials.PasswordEnv = DefaultPasswordEnv
	}
	if c.Credentials.SecretEnv == "" {
		c.Credentials.SecretEnv = DefaultSecretEnv
	}
	if c.Logging.Level == "" {
		c.Logging.Level = logger.DefaultLevel
	}
}

// Validate rejects settings no run could work with
func (c *Config) Validate() error {
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency)
	}
	if c.ConnectTimeout < 0 || c.CommandTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
