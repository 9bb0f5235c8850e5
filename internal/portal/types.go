// Package portal defines the mod source capability and the data contract
// of the mod distribution portal: per-version release records, their
// info.json metadata, and the dependency expressions mods declare on each
// other and on the base game.
//
// The package does not implement the network transport. Callers supply a
// Source; tests use the in-memory implementation, operators can point the
// CLI at a file-backed mirror.
package portal

import (
	"fmt"
	"strings"
	"time"

	"github.com/cliftontoaster-reid/furrctorio/internal/modver"
)

// Release describes one downloadable version of a mod as published by the
// portal. Immutable once fetched; identified by (Name, Version).
type Release struct {
	// Name is the machine-readable ID string of the mod.
	Name string `yaml:"name"`

	// Version is the released version.
	Version modver.Version `yaml:"version"`

	// FileName is the archive file name, conventionally "Name_1.2.3.zip".
	FileName string `yaml:"file_name"`

	// DownloadURL is the portal-relative download path.
	DownloadURL string `yaml:"download_url,omitempty"`

	// ReleasedAt is when the release was published.
	ReleasedAt time.Time `yaml:"released_at,omitempty"`

	// SHA1 is the hex digest of the archive, as published by the portal.
	SHA1 string `yaml:"sha1"`

	// Info is the release's info.json metadata.
	Info InfoJSON `yaml:"info_json"`
}

// InfoJSON is the subset of a mod release's info.json that resolution needs.
type InfoJSON struct {
	// FactorioVersion is the base-game major.minor line the release targets,
	// e.g. "1.1". Empty means unrestricted.
	FactorioVersion string `yaml:"factorio_version,omitempty"`

	// Dependencies are the declared dependency expressions.
	Dependencies []Dependency `yaml:"dependencies,omitempty"`
}

// DependencyKind classifies a dependency expression.
type DependencyKind int

const (
	// DependencyRequired must be present and version-compatible.
	DependencyRequired DependencyKind = iota

	// DependencyOptional may be absent; when present it is not forced
	// into the install set by the resolver.
	DependencyOptional

	// DependencyIncompatible must not be present in any version.
	DependencyIncompatible
)

// String returns the kind's prefix notation.
func (k DependencyKind) String() string {
	switch k {
	case DependencyOptional:
		return "?"
	case DependencyIncompatible:
		return "!"
	default:
		return ""
	}
}

// Dependency is one parsed dependency edge of a release.
type Dependency struct {
	Name       string
	Constraint modver.Constraint
	Kind       DependencyKind
}

// String returns the portal notation for the dependency.
func (d Dependency) String() string {
	var b strings.Builder
	if prefix := d.Kind.String(); prefix != "" {
		b.WriteString(prefix)
		b.WriteString(" ")
	}
	b.WriteString(d.Name)
	if !d.Constraint.IsAny() {
		b.WriteString(" ")
		b.WriteString(d.Constraint.String())
	}
	return b.String()
}

// MarshalYAML serializes the dependency in portal notation.
func (d Dependency) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// UnmarshalYAML parses the dependency from portal notation.
func (d *Dependency) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := ParseDependency(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDependency parses a portal dependency expression.
//
// Grammar (as used in mod info.json files):
//
//	"base >= 1.1.0"      required, constrained
//	"flib"               required, any version
//	"~ flib >= 0.12.0"   required, no load-order implication
//	"? some-mod"         optional
//	"(?) some-mod"       optional, hidden
//	"! rival-mod"        incompatible
func ParseDependency(raw string) (Dependency, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Dependency{}, fmt.Errorf("portal: empty dependency expression")
	}

	kind := DependencyRequired
	switch {
	case strings.HasPrefix(trimmed, "(?)"):
		kind = DependencyOptional
		trimmed = strings.TrimSpace(trimmed[len("(?)"):])
	case strings.HasPrefix(trimmed, "?"):
		kind = DependencyOptional
		trimmed = strings.TrimSpace(trimmed[1:])
	case strings.HasPrefix(trimmed, "!"):
		kind = DependencyIncompatible
		trimmed = strings.TrimSpace(trimmed[1:])
	case strings.HasPrefix(trimmed, "~"):
		// Load-order hint only; resolution treats it as required.
		trimmed = strings.TrimSpace(trimmed[1:])
	}

	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return Dependency{}, fmt.Errorf("portal: dependency %q has no mod name", raw)
	}

	name := fields[0]
	constraint := modver.Any()
	if len(fields) > 1 {
		var err error
		constraint, err = modver.ParseConstraint(strings.Join(fields[1:], " "))
		if err != nil {
			return Dependency{}, fmt.Errorf("portal: dependency %q: %w", raw, err)
		}
	}

	return Dependency{Name: name, Constraint: constraint, Kind: kind}, nil
}

// ArchiveName returns the deterministic archive file name for a mod version,
// following the portal convention "Name_1.2.3.zip".
func ArchiveName(name string, v modver.Version) string {
	return fmt.Sprintf("%s_%s.zip", name, v)
}
