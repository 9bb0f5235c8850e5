// Package config provides configuration loading and management.
package config

import "time"

// PortalConfig contains mod portal settings.
type PortalConfig struct {
	// MirrorDir is the path of a local portal mirror directory.
	// Env: FURRCTORIO_MIRROR_DIR
	MirrorDir string `json:"mirrorDir,omitempty"`
}

// ApplyConfig contains installation tuning settings.
type ApplyConfig struct {
	// Jobs bounds concurrent archive downloads.
	// Env: FURRCTORIO_JOBS, Default: 4
	Jobs int `json:"jobs,omitempty"`

	// Retries is the attempt budget per archive for transient portal
	// failures. Default: 3
	Retries int `json:"retries,omitempty"`

	// RetryBackoff is the base delay between attempts, doubled each
	// retry. Default: 500ms
	RetryBackoff time.Duration `json:"retryBackoff,omitempty"`
}

// LogConfig contains logging-related settings.
type LogConfig struct {
	// Timestamps controls whether timestamps are shown in log output.
	// Default: true. Override with --timestamps flag.
	Timestamps *bool `json:"timestamps,omitempty"`
}

// Config represents the furrctorio CLI configuration.
// Loaded from ~/.furrctorio/config.yaml with environment overrides.
type Config struct {
	// ModsDir is the server's mods directory.
	// Env: FURRCTORIO_MODS_DIR, Default: "mods"
	ModsDir string `json:"modsDir,omitempty"`

	// Manifest is the path of the mod manifest.
	// Env: FURRCTORIO_MANIFEST, Default: "furrctorio.yml"
	Manifest string `json:"manifest,omitempty"`

	// Lockfile is the path of the resolved lockfile.
	// Env: FURRCTORIO_LOCKFILE, Default: "furrctorio.lock"
	Lockfile string `json:"lockfile,omitempty"`

	// CacheDir is the archive cache directory.
	// Env: FURRCTORIO_CACHE_DIR, Default: ~/.furrctorio/cache
	CacheDir string `json:"cacheDir,omitempty"`

	// Portal contains mod portal settings.
	Portal PortalConfig `json:"portal,omitempty"`

	// Apply contains installation tuning settings.
	Apply ApplyConfig `json:"apply,omitempty"`

	// Log contains logging-related settings.
	Log LogConfig `json:"log,omitempty"`
}

// WithDefaults returns a copy of the config with every unset field filled
// with its default value.
func (c *Config) WithDefaults() *Config {
	out := *c
	if out.ModsDir == "" {
		out.ModsDir = "mods"
	}
	if out.Manifest == "" {
		out.Manifest = "furrctorio.yml"
	}
	if out.Lockfile == "" {
		out.Lockfile = "furrctorio.lock"
	}
	if out.CacheDir == "" {
		if dir, err := GetCacheDir(); err == nil {
			out.CacheDir = dir
		}
	}
	if out.Apply.Jobs <= 0 {
		out.Apply.Jobs = 4
	}
	if out.Apply.Retries <= 0 {
		out.Apply.Retries = 3
	}
	if out.Apply.RetryBackoff <= 0 {
		out.Apply.RetryBackoff = 500 * time.Millisecond
	}
	return &out
}

// Timestamps reports whether log timestamps are enabled, defaulting to true.
func (c *Config) Timestamps() bool {
	if c.Log.Timestamps == nil {
		return true
	}
	return *c.Log.Timestamps
}
