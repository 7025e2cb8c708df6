package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath is the environment variable for explicit config path
	EnvConfigPath = "FLEETPOLL_CONFIG"
	// ConfigFileName is the config file looked up in the working directory
	ConfigFileName = "fleetpoll.yaml"
	// ConfigDirName is the config directory name under XDG and /etc
	ConfigDirName = "fleetpoll"
)

// SearchPaths lists config candidates in priority order:
//  1. $FLEETPOLL_CONFIG
//  2. ./fleetpoll.yaml
//  3. $XDG_CONFIG_HOME/fleetpoll/config.yaml
//  4. ~/.config/fleetpoll/config.yaml
//  5. /etc/fleetpoll/config.yaml
func SearchPaths() []string {
	var paths []string
	if path := os.Getenv(EnvConfigPath); path != "" {
		paths = append(paths, path)
	}
	paths = append(paths, ConfigFileName)
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		paths = append(paths, filepath.Join(xdgHome, ConfigDirName, "config.yaml"))
	}
	if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", ConfigDirName, "config.yaml"))
	}
	return append(paths, filepath.Join("/etc", ConfigDirName, "config.yaml"))
}

// FindConfigPath returns the first existing candidate from SearchPaths,
// or "" when there is none.
func FindConfigPath() string {
	for _, path := range SearchPaths() {
		if !fileExists(path) {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
