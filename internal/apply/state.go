// Package apply turns a resolved lockfile into an installed mods directory.
//
// The directory is the unit of ownership: one archive file per locked mod,
// a mod-list.json the game reads, and a state marker recording which
// lockfile was last applied. All changes are staged first and committed
// with renames, so an interrupted run leaves the directory untouched.
package apply

import (
	"crypto/sha1"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cliftontoaster-reid/furrctorio/internal/lockfile"
	"github.com/cliftontoaster-reid/furrctorio/internal/modver"
)

// markerFileName records the checksum of the last applied lockfile, letting
// status checks skip hashing every archive in the directory.
const markerFileName = ".furrctorio-state"

// parseArchiveName splits "Name_1.2.3.zip" into its mod name and version.
// Mod names may themselves contain underscores, so the version is taken
// from the last underscore.
func parseArchiveName(filename string) (string, modver.Version, bool) {
	base, ok := strings.CutSuffix(filename, ".zip")
	if !ok {
		return "", modver.Version{}, false
	}
	idx := strings.LastIndex(base, "_")
	if idx <= 0 {
		return "", modver.Version{}, false
	}
	v, err := modver.Parse(base[idx+1:])
	if err != nil {
		return "", modver.Version{}, false
	}
	return base[:idx], v, true
}

// Scan reads a mods directory and reports which mods are installed, with
// their archive digests. When multiple versions of one mod are present
// only the newest is reported; older duplicates are swept on apply.
func Scan(dir string) (map[string]lockfile.Installed, error) {
	installed := make(map[string]lockfile.Installed)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return installed, nil
		}
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, v, ok := parseArchiveName(entry.Name())
		if !ok {
			continue
		}
		if prev, seen := installed[name]; seen && modver.Compare(v, prev.Version) <= 0 {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", dir, err)
		}
		installed[name] = lockfile.Installed{
			Version: v,
			SHA1:    fmt.Sprintf("%x", sha1.Sum(data)),
		}
	}
	return installed, nil
}

// ReadMarker returns the lockfile checksum recorded by the last apply, or
// an empty string when no apply has completed in this directory.
func ReadMarker(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, markerFileName))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func writeMarker(dir, checksum string) error {
	path := filepath.Join(dir, markerFileName)
	if err := os.WriteFile(path, []byte(checksum+"\n"), 0o644); err != nil {
		return fmt.Errorf("write state marker: %w", err)
	}
	return nil
}
