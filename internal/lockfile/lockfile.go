// Package lockfile persists resolution results as a deterministic, diffable
// artifact. Re-serializing an unchanged result reproduces the prior file
// byte for byte, so lockfiles can live in version control and diff cleanly.
package lockfile

import (
	"crypto/sha1"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cliftontoaster-reid/furrctorio/internal/errors"
	"github.com/cliftontoaster-reid/furrctorio/internal/modver"
	"github.com/cliftontoaster-reid/furrctorio/internal/resolve"
)

// FormatVersion is the lockfile schema version this build reads and writes.
const FormatVersion = 1

// DefaultFileName is the lockfile name written next to the manifest.
const DefaultFileName = "furrctorio.lock"

// Entry is one pinned mod: the record an apply must reproduce exactly.
type Entry struct {
	Name    string         `yaml:"name"`
	Version modver.Version `yaml:"version"`
	SHA1    string         `yaml:"sha1"`

	// RequiredBy records why the mod is present: "manifest" or the name
	// of the dependent that introduced it.
	RequiredBy string `yaml:"required_by,omitempty"`
}

// Lockfile is the durable form of a resolution result plus the checksum of
// the manifest it was derived from.
type Lockfile struct {
	Version          int     `yaml:"version"`
	ManifestChecksum string  `yaml:"manifest_checksum"`
	Mods             []Entry `yaml:"mods"`
}

// New builds a lockfile from a resolution result. Entries are sorted by
// mod name so serialization is deterministic.
func New(result *resolve.Result, manifestChecksum string) *Lockfile {
	lf := &Lockfile{
		Version:          FormatVersion,
		ManifestChecksum: manifestChecksum,
		Mods:             make([]Entry, 0, len(result.Mods)),
	}
	for _, name := range result.Names() {
		sel := result.Mods[name]
		lf.Mods = append(lf.Mods, Entry{
			Name:       sel.Name,
			Version:    sel.Version,
			SHA1:       sel.SHA1,
			RequiredBy: sel.RequiredBy,
		})
	}
	return lf
}

// Marshal serializes the lockfile. The output is deterministic: entries are
// sorted by name before encoding, regardless of how the Lockfile was built.
func (lf *Lockfile) Marshal() ([]byte, error) {
	sorted := *lf
	sorted.Mods = append([]Entry(nil), lf.Mods...)
	sort.Slice(sorted.Mods, func(i, j int) bool {
		return sorted.Mods[i].Name < sorted.Mods[j].Name
	})

	data, err := yaml.Marshal(&sorted)
	if err != nil {
		return nil, fmt.Errorf("lockfile: marshal: %w", err)
	}
	return data, nil
}

// Parse decodes a lockfile.
func Parse(data []byte) (*Lockfile, error) {
	var lf Lockfile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("lockfile: parse: %w", err)
	}
	if lf.Version != FormatVersion {
		return nil, fmt.Errorf("lockfile: unsupported format version %d (want %d)", lf.Version, FormatVersion)
	}
	seen := make(map[string]bool, len(lf.Mods))
	for _, e := range lf.Mods {
		if e.Name == "" {
			return nil, fmt.Errorf("lockfile: entry without a name")
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("lockfile: duplicate entry for mod %q", e.Name)
		}
		seen[e.Name] = true
	}
	return &lf, nil
}

// Load reads and parses a lockfile from disk.
func Load(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lockfile: read %s: %w", path, err)
	}
	lf, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w (in %s)", err, path)
	}
	return lf, nil
}

// Save writes the lockfile to path.
func (lf *Lockfile) Save(path string) error {
	data, err := lf.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("lockfile: write %s: %w", path, err)
	}
	return nil
}

// CheckFresh reports errors.ErrStale when the lockfile was generated from a
// different manifest than the one with the given checksum. A stale lockfile
// still parses; it must never be silently trusted.
func (lf *Lockfile) CheckFresh(manifestChecksum string) error {
	if lf.ManifestChecksum != manifestChecksum {
		return errors.NewStaleError(lf.ManifestChecksum, manifestChecksum)
	}
	return nil
}

// Checksum returns the digest of the lockfile's canonical serialization,
// used by the apply marker file for fast staleness checks.
func (lf *Lockfile) Checksum() (string, error) {
	data, err := lf.Marshal()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("sha1:%x", sha1.Sum(data)), nil
}

// Entry returns the entry for a mod name, if present.
func (lf *Lockfile) Entry(name string) (Entry, bool) {
	for _, e := range lf.Mods {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}
