package cmd

import (
	"errors"
	"sort"
	"strings"

	ferrors "github.com/cliftontoaster-reid/furrctorio/internal/errors"
	"github.com/cliftontoaster-reid/furrctorio/internal/output"
)

// ExitCodeFromError determines the appropriate exit code for an error.
func ExitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ferrors.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	switch {
	case errors.Is(err, ferrors.ErrConflict):
		return ExitConflict
	case errors.Is(err, ferrors.ErrStale):
		return ExitStale
	case errors.Is(err, ferrors.ErrIntegrity):
		return ExitIntegrity
	case errors.Is(err, ferrors.ErrBusy):
		return ExitBusy
	case errors.Is(err, ferrors.ErrTimeout):
		return ExitTimeout
	case errors.Is(err, ferrors.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, ferrors.ErrUnavailable):
		return ExitUnavailable
	default:
		return ExitGeneralError
	}
}

// wrapExit maps a command error onto its exit code, rendering structured
// errors through the logger so main does not print them a second time.
func wrapExit(err error) error {
	if err == nil {
		return nil
	}

	var exitErr *ferrors.ExitError
	if errors.As(err, &exitErr) {
		return err
	}

	code := ExitCodeFromError(err)

	var detail *ferrors.DetailError
	if errors.As(err, &detail) {
		renderDetail(detail)
		return &ferrors.ExitError{Err: err, Code: code, Printed: true}
	}
	return ferrors.NewExitError(err, code)
}

func renderDetail(d *ferrors.DetailError) {
	output.Error(d.Type+": "+d.Message, detailKeyvals(d)...)
	if d.Hint != "" {
		output.Println(output.StyleDim.Render("hint: " + d.Hint))
	}
}

// detailKeyvals flattens a detail error's context for the logger, with keys
// sorted so the rendered line is stable across runs.
func detailKeyvals(d *ferrors.DetailError) []interface{} {
	keyvals := []interface{}{}
	if len(d.Mods) > 0 {
		keyvals = append(keyvals, "mods", strings.Join(d.Mods, ", "))
	}
	keys := make([]string, 0, len(d.Context))
	for k := range d.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		keyvals = append(keyvals, k, d.Context[k])
	}
	return keyvals
}
