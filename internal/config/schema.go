package config

import (
	"time"

	"fleetpoll/internal/logger"
)

// Config is the root configuration structure
type Config struct {
	// Concurrency is the maximum number of devices polled at once
	Concurrency int `yaml:"concurrency"`

	// ConnectTimeout bounds dial, SSH handshake, login and enable
	ConnectTimeout Duration `yaml:"connect_timeout"`

	// CommandTimeout bounds the wait for the prompt after a command
	CommandTimeout Duration `yaml:"command_timeout"`

	// KnownHosts enables SSH host key checking against this file
	KnownHosts string `yaml:"known_hosts,omitempty"`

	// Inventory is the devices file
	Inventory string `yaml:"inventory"`

	Archive     ArchiveConfig     `yaml:"archive"`
	Database    DatabaseConfig    `yaml:"database"`
	Logging     logger.Config     `yaml:"logging"`
	NATS        NATSConfig        `yaml:"nats"`
	Preflight   PreflightConfig   `yaml:"preflight"`
	Credentials CredentialsConfig `yaml:"credentials"`
}

// ArchiveConfig holds backup archive settings
type ArchiveConfig struct {
	Dir string `yaml:"dir"`
}

// DatabaseConfig holds fact store settings. An empty path disables the store.
type DatabaseConfig struct {
	Path string `yaml:"path,omitempty"`
}

// NATSConfig holds fact publishing settings. An empty URL disables publishing.
type NATSConfig struct {
	URL           string `yaml:"url,omitempty"`
	SubjectPrefix string `yaml:"subject_prefix,omitempty"`
}

// PreflightConfig holds the nmap reachability check settings
type PreflightConfig struct {
	Enabled bool     `yaml:"enabled"`
	Timeout Duration `yaml:"timeout,omitempty"`
}

// CredentialsConfig controls how login secrets are resolved
type CredentialsConfig struct {
	// Username is used for inventory entries without one
	Username string `yaml:"username,omitempty"`
	// PasswordEnv names the environment variable holding the password
	PasswordEnv string `yaml:"password_env,omitempty"`
	// SecretEnv names the environment variable holding the enable secret
	SecretEnv string `yaml:"secret_env,omitempty"`
	// Prompt asks on the terminal for anything the environment lacks
	Prompt bool `yaml:"prompt"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
