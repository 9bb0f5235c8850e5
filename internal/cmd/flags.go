package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	ferrors "github.com/cliftontoaster-reid/furrctorio/internal/errors"
	"github.com/cliftontoaster-reid/furrctorio/internal/lockfile"
	"github.com/cliftontoaster-reid/furrctorio/internal/manifest"
)

// manifestPath returns the manifest path, preferring an explicit positional
// argument over flags and configuration.
func manifestPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return GetConfig().Manifest
}

// loadManifest reads the manifest file.
func loadManifest(args []string) (*manifest.Manifest, error) {
	path := manifestPath(args)
	m, err := manifest.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ferrors.NewNotFoundError(
				fmt.Sprintf("no manifest at %s, run 'furrctorio init' to create one", path))
		}
		return nil, err
	}
	return m, nil
}

// loadLockfile reads the configured lockfile.
func loadLockfile() (*lockfile.Lockfile, error) {
	path := GetConfig().Lockfile
	lf, err := lockfile.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ferrors.NewNotFoundError(
				fmt.Sprintf("no lockfile at %s, run 'furrctorio resolve' to create one", path))
		}
		return nil, err
	}
	return lf, nil
}

// modsDir returns the effective mods directory. The flag wins, then the
// manifest's mods_dir, then configuration.
func modsDir(m *manifest.Manifest) string {
	if modsDirFlag != "" {
		return modsDirFlag
	}
	if m != nil && m.Metadata.ModsDir != "" {
		return m.Metadata.ModsDir
	}
	return GetConfig().ModsDir
}
