package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Paths contains standard filesystem paths for furrctorio.
type Paths struct {
	// ConfigFile is the path to the config file (~/.furrctorio/config.yaml).
	ConfigFile string

	// CacheDir is the path to the archive cache (~/.furrctorio/cache).
	CacheDir string

	// HomeDir is the furrctorio home directory (~/.furrctorio).
	HomeDir string
}

// DefaultPaths returns the default paths for furrctorio.
func DefaultPaths() (*Paths, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	home := filepath.Join(homeDir, ".furrctorio")

	return &Paths{
		ConfigFile: filepath.Join(home, "config.yaml"),
		CacheDir:   filepath.Join(home, "cache"),
		HomeDir:    home,
	}, nil
}

// GetConfigFile returns the config file path.
// If FURRCTORIO_CONFIG is set, it takes precedence.
func GetConfigFile() (string, error) {
	if envPath := os.Getenv("FURRCTORIO_CONFIG"); envPath != "" {
		return envPath, nil
	}

	paths, err := DefaultPaths()
	if err != nil {
		return "", err
	}
	return paths.ConfigFile, nil
}

// GetCacheDir returns the cache directory path.
// If FURRCTORIO_CACHE_DIR is set, it takes precedence.
func GetCacheDir() (string, error) {
	if envPath := os.Getenv("FURRCTORIO_CACHE_DIR"); envPath != "" {
		return envPath, nil
	}

	paths, err := DefaultPaths()
	if err != nil {
		return "", err
	}
	return paths.CacheDir, nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		if path == "~" {
			return homeDir, nil
		}
		return filepath.Join(homeDir, path[2:]), nil
	}
	return path, nil
}
