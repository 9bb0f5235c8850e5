// Package modver provides semantic versions and version constraints for mods.
//
// Versions are strict major.minor.patch triples. Constraints are intervals
// that can be intersected, which is what the resolver needs to merge
// requirements from multiple dependents and detect conflicts.
package modver

import (
	"fmt"

	mm "github.com/Masterminds/semver/v3"
)

// Version is a strict semantic version triple.
//
// This is a thin wrapper around github.com/Masterminds/semver/v3.
// Pre-release and build-metadata suffixes are rejected at parse time;
// mod portals publish plain triples and downgrades must never hinge on
// suffix ordering surprises.
type Version struct {
	v *mm.Version
}

// Parse parses a strict major.minor.patch version.
func Parse(raw string) (Version, error) {
	v, err := mm.StrictNewVersion(raw)
	if err != nil {
		return Version{}, fmt.Errorf("modver: parse version %q: %w", raw, err)
	}
	if v.Prerelease() != "" || v.Metadata() != "" {
		return Version{}, fmt.Errorf("modver: parse version %q: suffixed versions are not supported", raw)
	}
	return Version{v: v}, nil
}

// MustParse parses a version and panics on error. For tests and constants.
func MustParse(raw string) Version {
	v, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// New constructs a version from its parts.
func New(major, minor, patch uint64) Version {
	return Version{v: mm.New(major, minor, patch, "", "")}
}

// IsZero reports whether v is the zero Version (not a parsed version).
func (v Version) IsZero() bool {
	return v.v == nil
}

// String returns the canonical "major.minor.patch" form, or "" for the zero value.
func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	return v.v.String()
}

// MarshalYAML serializes the version as its canonical string.
func (v Version) MarshalYAML() (interface{}, error) {
	return v.String(), nil
}

// UnmarshalYAML parses the version from its string form.
func (v *Version) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Compare compares a and b, returning:
// -1 if a < b
//
//	0 if a == b
//	1 if a > b
//
// The zero Version sorts below every parsed version.
func Compare(a, b Version) int {
	if a.v == nil && b.v == nil {
		return 0
	}
	if a.v == nil {
		return -1
	}
	if b.v == nil {
		return 1
	}
	return a.v.Compare(b.v)
}

// Equal reports whether a and b are the same version.
func Equal(a, b Version) bool {
	return Compare(a, b) == 0
}
