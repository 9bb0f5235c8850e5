// Package manifest loads and saves the operator's desired-state file: the
// list of wanted mods with their version constraints, plus server metadata.
//
// The manifest is the source of truth for replication. Its checksum is
// recorded in the lockfile so staleness can be detected.
package manifest

import (
	"crypto/sha1"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cliftontoaster-reid/furrctorio/internal/modver"
)

// FormatVersion is the manifest schema version this build reads and writes.
const FormatVersion = 1

// DefaultFileName is the manifest file name looked up when none is given.
const DefaultFileName = "furrctorio.yml"

// Metadata is the manifest's server-level settings.
type Metadata struct {
	// Version is the manifest format version.
	Version int `yaml:"version"`

	// FactorioVersion pins the base-game line (e.g. "1.1"). Releases
	// targeting a different line are not resolution candidates.
	FactorioVersion string `yaml:"factorio_version,omitempty"`

	// ModsDir is the game server's mods directory.
	ModsDir string `yaml:"mods_dir,omitempty"`
}

// Entry is one desired mod.
type Entry struct {
	// Name is the mod's portal ID.
	Name string `yaml:"name"`

	// Constraint restricts which versions are acceptable.
	Constraint modver.Constraint `yaml:"version"`

	// Enabled controls the mod-list.json flag written at apply time.
	// Disabled mods are still resolved and installed so that re-enabling
	// them is a flag flip, not a new resolution.
	Enabled bool `yaml:"enabled"`
}

// UnmarshalYAML decodes an entry, defaulting Enabled to true when omitted.
func (e *Entry) UnmarshalYAML(unmarshal func(interface{}) error) error {
	raw := struct {
		Name       string            `yaml:"name"`
		Constraint modver.Constraint `yaml:"version"`
		Enabled    *bool             `yaml:"enabled"`
	}{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	if raw.Name == "" {
		return fmt.Errorf("manifest: mod entry without a name")
	}
	if strings.ContainsAny(raw.Name, " \t") {
		return fmt.Errorf("manifest: mod name %q contains whitespace", raw.Name)
	}
	e.Name = raw.Name
	e.Constraint = raw.Constraint
	e.Enabled = raw.Enabled == nil || *raw.Enabled
	return nil
}

// Manifest is the operator-declared desired state.
type Manifest struct {
	Metadata Metadata `yaml:"metadata"`
	Mods     []Entry  `yaml:"mods"`
}

// Parse decodes a manifest and validates it. Duplicate mod entries are an
// error; the resolver requires constraints to be pre-merged per mod.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: parse: %w", err)
	}
	if m.Metadata.Version == 0 {
		m.Metadata.Version = FormatVersion
	}
	if m.Metadata.Version != FormatVersion {
		return nil, fmt.Errorf("manifest: unsupported format version %d (want %d)", m.Metadata.Version, FormatVersion)
	}

	seen := make(map[string]bool, len(m.Mods))
	for _, e := range m.Mods {
		if seen[e.Name] {
			return nil, fmt.Errorf("manifest: duplicate entry for mod %q", e.Name)
		}
		seen[e.Name] = true
	}
	return &m, nil
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w (in %s)", err, path)
	}
	return m, nil
}

// Save writes the manifest to path.
func (m *Manifest) Save(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("manifest: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("manifest: write %s: %w", path, err)
	}
	return nil
}

// Entry returns the entry for a mod name, if present.
func (m *Manifest) Entry(name string) (Entry, bool) {
	for _, e := range m.Mods {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// DisabledSet returns the names of mods the operator keeps installed but
// disabled.
func (m *Manifest) DisabledSet() map[string]bool {
	out := make(map[string]bool)
	for _, e := range m.Mods {
		if !e.Enabled {
			out[e.Name] = true
		}
	}
	return out
}

// Checksum computes the manifest's identity digest: a SHA1 over the
// canonical form of what resolution consumes: the factorio version pin and
// the (name, constraint) pairs sorted by name. Cosmetic edits (comments,
// entry order, enabled flags, the mods dir) do not invalidate a lockfile.
func (m *Manifest) Checksum() string {
	lines := make([]string, 0, len(m.Mods)+1)
	if m.Metadata.FactorioVersion != "" {
		lines = append(lines, "factorio "+m.Metadata.FactorioVersion)
	}
	for _, e := range m.Mods {
		lines = append(lines, e.Name+" "+e.Constraint.String())
	}
	sort.Strings(lines)

	h := sha1.New()
	for _, line := range lines {
		h.Write([]byte(line))
		h.Write([]byte("\n"))
	}
	return fmt.Sprintf("sha1:%x", h.Sum(nil))
}
