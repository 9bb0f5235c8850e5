package apply

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cliftontoaster-reid/furrctorio/internal/lockfile"
)

// ModListFileName is the fixed name the game expects for its mod roster.
const ModListFileName = "mod-list.json"

type modListEntry struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

type modList struct {
	Mods []modListEntry `json:"mods"`
}

// writeModList rewrites mod-list.json from the lockfile. The base game is
// always present and enabled; every locked mod is listed, with entries in
// the disabled set kept installed but switched off.
func writeModList(dir string, lf *lockfile.Lockfile, disabled map[string]bool) error {
	list := modList{Mods: []modListEntry{{Name: "base", Enabled: true}}}
	for _, e := range lf.Mods {
		list.Mods = append(list.Mods, modListEntry{Name: e.Name, Enabled: !disabled[e.Name]})
	}

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", ModListFileName, err)
	}
	data = append(data, '\n')

	path := filepath.Join(dir, ModListFileName)
	tmp, err := os.CreateTemp(dir, ".mod-list-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", ModListFileName, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", ModListFileName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", ModListFileName, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", ModListFileName, err)
	}
	return nil
}

// ReadModList reports the enabled flag per mod from an existing
// mod-list.json, or an empty map when the file is absent.
func ReadModList(dir string) (map[string]bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, ModListFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", ModListFileName, err)
	}
	var list modList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ModListFileName, err)
	}
	enabled := make(map[string]bool, len(list.Mods))
	for _, e := range list.Mods {
		enabled[e.Name] = e.Enabled
	}
	return enabled, nil
}
