package cmd

import (
	"fmt"
	"strings"

	"github.com/cliftontoaster-reid/furrctorio/internal/lockfile"
	"github.com/cliftontoaster-reid/furrctorio/internal/output"
)

// actionMarker maps an action kind to its diff marker.
func actionMarker(kind lockfile.ActionKind) string {
	switch kind {
	case lockfile.ActionInstall:
		return "+"
	case lockfile.ActionUpgrade:
		return "^"
	case lockfile.ActionDowngrade:
		return "v"
	case lockfile.ActionRemove:
		return "-"
	default:
		return "?"
	}
}

// renderActions renders a diff action list for the terminal, one action per
// line with the verb styled by kind.
func renderActions(actions []lockfile.Action) string {
	var b strings.Builder
	for _, a := range actions {
		verb := a.Kind.String()
		line := fmt.Sprintf("%s %-9s %s", actionMarker(a.Kind), output.ActionStyle(verb).Render(verb), output.StyleNoun.Render(a.Name))
		switch a.Kind {
		case lockfile.ActionInstall:
			line += " " + a.To.String()
		case lockfile.ActionRemove:
			line += " " + a.From.String()
		default:
			line += fmt.Sprintf(" %s -> %s", a.From, a.To)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// summarizeActions returns a one-line count summary, e.g.
// "2 to install, 1 to upgrade, 1 to remove".
func summarizeActions(actions []lockfile.Action) string {
	counts := make(map[lockfile.ActionKind]int)
	for _, a := range actions {
		counts[a.Kind]++
	}

	var parts []string
	for _, kind := range []lockfile.ActionKind{
		lockfile.ActionInstall, lockfile.ActionUpgrade, lockfile.ActionDowngrade, lockfile.ActionRemove,
	} {
		if n := counts[kind]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d to %s", n, kind))
		}
	}
	if len(parts) == 0 {
		return "nothing to do"
	}
	return strings.Join(parts, ", ")
}
