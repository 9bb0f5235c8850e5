package output

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette: named constants for all ANSI 256 colors used in the CLI.
// These are the single source of truth; never use inline lipgloss.Color literals.
var (
	// ColorCyan is used for identifiable nouns: mod names, paths, checksums.
	ColorCyan = lipgloss.Color("14")

	// ColorGreen is used for install actions.
	ColorGreen = lipgloss.Color("82")

	// ColorYellow is used for upgrade actions.
	ColorYellow = lipgloss.Color("220")

	// ColorRed is used for remove actions.
	ColorRed = lipgloss.Color("196")

	// ColorBoldRed is used for downgrade actions and failures.
	ColorBoldRed = lipgloss.Color("204")

	// ColorDimGray is used for structural chrome.
	ColorDimGray = lipgloss.Color("240")
)

// Semantic styles map domain concepts to visual presentation.
var (
	// StyleNoun styles identifiable nouns (mod names, directories, checksums).
	StyleNoun = lipgloss.NewStyle().Foreground(ColorCyan)

	// StyleAction styles action verbs (installing, upgrading, removing).
	StyleAction = lipgloss.NewStyle().Bold(true)

	// StyleDim styles structural chrome (separators, provenance notes).
	StyleDim = lipgloss.NewStyle().Faint(true)

	// StyleSummary styles completion and summary lines.
	StyleSummary = lipgloss.NewStyle().Bold(true)
)

// ActionStyle returns the lipgloss style for a diff action verb.
// Unknown verbs return an unstyled default.
func ActionStyle(verb string) lipgloss.Style {
	switch verb {
	case "install":
		return lipgloss.NewStyle().Foreground(ColorGreen)
	case "upgrade":
		return lipgloss.NewStyle().Foreground(ColorYellow)
	case "downgrade":
		return lipgloss.NewStyle().Bold(true).Foreground(ColorBoldRed)
	case "remove":
		return lipgloss.NewStyle().Foreground(ColorRed)
	default:
		return lipgloss.NewStyle()
	}
}
