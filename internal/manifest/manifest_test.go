package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `metadata:
  version: 1
  factorio_version: "1.1"
  mods_dir: /opt/factorio/mods
mods:
  - name: flib
    version: ">= 0.12.0"
  - name: helmod
    version: "*"
    enabled: false
  - name: fcpu
    version: "= 1.0.4"
`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(sampleManifest))
	require.NoError(t, err)

	assert.Equal(t, 1, m.Metadata.Version)
	assert.Equal(t, "1.1", m.Metadata.FactorioVersion)
	assert.Equal(t, "/opt/factorio/mods", m.Metadata.ModsDir)
	require.Len(t, m.Mods, 3)

	flib := m.Mods[0]
	assert.Equal(t, "flib", flib.Name)
	assert.Equal(t, ">= 0.12.0", flib.Constraint.String())
	assert.True(t, flib.Enabled, "enabled defaults to true")

	helmod := m.Mods[1]
	assert.False(t, helmod.Enabled)
	assert.True(t, helmod.Constraint.IsAny())
}

func TestParse_DuplicateEntry(t *testing.T) {
	_, err := Parse([]byte("mods:\n  - name: flib\n  - name: flib\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestParse_InvalidName(t *testing.T) {
	_, err := Parse([]byte("mods:\n  - name: \"bad name\"\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("mods:\n  - version: \"*\"\n"))
	assert.Error(t, err, "entries need a name")
}

func TestParse_UnsupportedFormatVersion(t *testing.T) {
	_, err := Parse([]byte("metadata:\n  version: 99\nmods: []\n"))
	assert.Error(t, err)
}

func TestChecksum_IgnoresCosmeticEdits(t *testing.T) {
	base, err := Parse([]byte(sampleManifest))
	require.NoError(t, err)

	// Same constraints, different entry order and enabled flags.
	reordered, err := Parse([]byte(`metadata:
  version: 1
  factorio_version: "1.1"
mods:
  - name: fcpu
    version: "= 1.0.4"
  - name: helmod
  - name: flib
    version: ">= 0.12.0"
    enabled: false
`))
	require.NoError(t, err)

	assert.Equal(t, base.Checksum(), reordered.Checksum())
}

func TestChecksum_TracksConstraintChanges(t *testing.T) {
	a, err := Parse([]byte("mods:\n  - name: flib\n    version: \">= 0.12.0\"\n"))
	require.NoError(t, err)
	b, err := Parse([]byte("mods:\n  - name: flib\n    version: \">= 0.13.0\"\n"))
	require.NoError(t, err)

	assert.NotEqual(t, a.Checksum(), b.Checksum())
}

func TestLoadSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(sampleManifest), 0o644))

	m, err := Load(path)
	require.NoError(t, err)

	out := filepath.Join(dir, "copy.yml")
	require.NoError(t, m.Save(out))

	copied, err := Load(out)
	require.NoError(t, err)
	assert.Equal(t, m.Checksum(), copied.Checksum())
	assert.Equal(t, m.Mods, copied.Mods)
}

func TestDisabledSet(t *testing.T) {
	m, err := Parse([]byte(sampleManifest))
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"helmod": true}, m.DisabledSet())
}
