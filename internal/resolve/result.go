package resolve

import (
	"sort"

	"github.com/cliftontoaster-reid/furrctorio/internal/modver"
	"github.com/cliftontoaster-reid/furrctorio/internal/portal"
)

// ManifestProvenance marks a selection that came straight from the manifest.
const ManifestProvenance = "manifest"

// Selection is one resolved mod: the single chosen version plus provenance.
type Selection struct {
	Name    string
	Version modver.Version

	// SHA1 is the expected archive digest from the release metadata.
	SHA1 string

	// RequiredBy is ManifestProvenance for direct requirements, otherwise
	// the name of the mod whose dependency edge introduced this mod.
	RequiredBy string

	// Release is the full portal record the selection was made from.
	Release *portal.Release
}

// Result is a consistent version assignment: exactly one version per
// involved mod.
type Result struct {
	Mods map[string]*Selection
}

// Names returns the selected mod names in sorted order.
func (r *Result) Names() []string {
	names := make([]string, 0, len(r.Mods))
	for name := range r.Mods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
