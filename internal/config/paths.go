package config

import (
	"os"
	"path/filepath"
)

const appName = "levelchain"

// LocalConfigFile is looked up in the working directory first.
const LocalConfigFile = "levelchain.json"

// SearchPaths lists the config files tried when --config is not given, in
// order: ./levelchain.json, then $XDG_CONFIG_HOME/levelchain/config.json.
func SearchPaths() []string {
	paths := []string{LocalConfigFile}
	if dir, err := ConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "config.json"))
	}
	return paths
}

// ConfigDir returns the XDG config directory for levelchain without
// creating it. It falls back to ~/.config/levelchain.
func ConfigDir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, appName), nil
}

// StateDir returns the XDG state directory for levelchain, created with
// private permissions (0700) if missing. It falls back to
// ~/.local/state/levelchain.
func StateDir() (string, error) {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "state")
	}
	dir := filepath.Join(base, appName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}
