package output

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh/spinner"
)

// RunWithSpinner executes an action behind a spinner titled title.
// When stdout is not a terminal the action runs directly with no chrome.
// Returns the action's error.
func RunWithSpinner(ctx context.Context, title string, action func() error) error {
	if !IsTTY() {
		return action()
	}

	var actionErr error
	if err := spinner.New().Title(title).Context(ctx).Action(func() {
		actionErr = action()
	}).Run(); err != nil {
		return fmt.Errorf("spinner: %w", err)
	}
	return actionErr
}
