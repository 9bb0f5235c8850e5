package output

import (
	"os"

	"golang.org/x/term"
)

// IsTTY reports whether stdout is a terminal. Spinners and other interactive
// chrome are suppressed when output is redirected.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
