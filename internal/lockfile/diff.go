package lockfile

import (
	"fmt"
	"sort"

	"github.com/cliftontoaster-reid/furrctorio/internal/modver"
)

// ActionKind classifies a diff action.
type ActionKind int

const (
	// ActionInstall adds a mod that is not present.
	ActionInstall ActionKind = iota

	// ActionUpgrade replaces an installed version with a newer one.
	ActionUpgrade

	// ActionDowngrade replaces an installed version with an older one.
	// The resolver never chooses downgrades on its own; they appear only
	// when the lockfile explicitly demands an older version.
	ActionDowngrade

	// ActionRemove deletes a mod that is no longer locked.
	ActionRemove
)

// String returns the action verb.
func (k ActionKind) String() string {
	switch k {
	case ActionInstall:
		return "install"
	case ActionUpgrade:
		return "upgrade"
	case ActionDowngrade:
		return "downgrade"
	case ActionRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Action is one step needed to make an install directory match a lockfile.
type Action struct {
	Kind ActionKind
	Name string

	// From is the installed version, zero for installs.
	From modver.Version

	// To is the locked version, zero for removes.
	To modver.Version

	// SHA1 is the expected archive digest for installs and replacements.
	SHA1 string
}

// String renders the action for logs and error messages.
func (a Action) String() string {
	switch a.Kind {
	case ActionInstall:
		return fmt.Sprintf("install %s %s", a.Name, a.To)
	case ActionRemove:
		return fmt.Sprintf("remove %s %s", a.Name, a.From)
	default:
		return fmt.Sprintf("%s %s %s -> %s", a.Kind, a.Name, a.From, a.To)
	}
}

// Installed is one mod actually present in a target directory.
type Installed struct {
	Version modver.Version
	SHA1    string
}

// Diff computes the ordered action list that turns the installed state into
// the lockfile's state. Install/Upgrade/Downgrade actions come first, then
// Removes, each group sorted by mod name, so a mod family being swapped
// in place never passes through a moment with zero versions present.
func Diff(lf *Lockfile, installed map[string]Installed) []Action {
	var updates, removes []Action

	for _, e := range lf.Mods {
		current, present := installed[e.Name]
		if !present {
			updates = append(updates, Action{Kind: ActionInstall, Name: e.Name, To: e.Version, SHA1: e.SHA1})
			continue
		}
		switch cmp := modver.Compare(current.Version, e.Version); {
		case cmp < 0:
			updates = append(updates, Action{Kind: ActionUpgrade, Name: e.Name, From: current.Version, To: e.Version, SHA1: e.SHA1})
		case cmp > 0:
			updates = append(updates, Action{Kind: ActionDowngrade, Name: e.Name, From: current.Version, To: e.Version, SHA1: e.SHA1})
		default:
			if current.SHA1 != e.SHA1 {
				// Same version, drifted content: force a reinstall.
				updates = append(updates, Action{Kind: ActionInstall, Name: e.Name, From: current.Version, To: e.Version, SHA1: e.SHA1})
			}
		}
	}

	locked := make(map[string]bool, len(lf.Mods))
	for _, e := range lf.Mods {
		locked[e.Name] = true
	}
	for name, current := range installed {
		if !locked[name] {
			removes = append(removes, Action{Kind: ActionRemove, Name: name, From: current.Version})
		}
	}

	sort.Slice(updates, func(i, j int) bool { return updates[i].Name < updates[j].Name })
	sort.Slice(removes, func(i, j int) bool { return removes[i].Name < removes[j].Name })

	return append(updates, removes...)
}
