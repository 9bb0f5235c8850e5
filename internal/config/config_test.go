package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_WithDefaults(t *testing.T) {
	cfg := (&Config{}).WithDefaults()

	assert.Equal(t, "mods", cfg.ModsDir)
	assert.Equal(t, "furrctorio.yml", cfg.Manifest)
	assert.Equal(t, "furrctorio.lock", cfg.Lockfile)
	assert.NotEmpty(t, cfg.CacheDir)
	assert.Equal(t, 4, cfg.Apply.Jobs)
	assert.Equal(t, 3, cfg.Apply.Retries)
	assert.Equal(t, 500*time.Millisecond, cfg.Apply.RetryBackoff)
	assert.True(t, cfg.Timestamps())
}

func TestConfig_WithDefaultsKeepsExplicitValues(t *testing.T) {
	off := false
	cfg := (&Config{
		ModsDir: "/srv/factorio/mods",
		Apply:   ApplyConfig{Jobs: 8},
		Log:     LogConfig{Timestamps: &off},
	}).WithDefaults()

	assert.Equal(t, "/srv/factorio/mods", cfg.ModsDir)
	assert.Equal(t, 8, cfg.Apply.Jobs)
	assert.False(t, cfg.Timestamps())
}

func TestLoader_LoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `modsDir: /srv/factorio/mods
cacheDir: /var/cache/furrctorio
portal:
  mirrorDir: /srv/mirror
apply:
  jobs: 2
  retryBackoff: 250ms
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := NewLoader().LoadWithDefaults(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/factorio/mods", cfg.ModsDir)
	assert.Equal(t, "/var/cache/furrctorio", cfg.CacheDir)
	assert.Equal(t, "/srv/mirror", cfg.Portal.MirrorDir)
	assert.Equal(t, 2, cfg.Apply.Jobs)
	assert.Equal(t, 250*time.Millisecond, cfg.Apply.RetryBackoff)
	assert.Equal(t, 3, cfg.Apply.Retries)
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "mods", cfg.ModsDir)
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("modsDir: from-file\n"), 0o644))

	t.Setenv("FURRCTORIO_MODS_DIR", "from-env")

	cfg, err := NewLoader().LoadWithDefaults(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.ModsDir)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandPath("~/.furrctorio/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".furrctorio", "config.yaml"), got)

	got, err = ExpandPath("/absolute/path")
	require.NoError(t, err)
	assert.Equal(t, "/absolute/path", got)
}

func TestGetConfigFile_EnvPrecedence(t *testing.T) {
	t.Setenv("FURRCTORIO_CONFIG", "/tmp/custom.yaml")

	got, err := GetConfigFile()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.yaml", got)
}
