// Package errors provides sentinel errors for the furrctorio CLI.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for known conditions.
var (
	// ErrConflict indicates an unsatisfiable set of version constraints.
	ErrConflict = errors.New("dependency conflict")

	// ErrStale indicates the lockfile no longer matches the manifest.
	ErrStale = errors.New("lockfile stale")

	// ErrIntegrity indicates a checksum mismatch on an archive.
	ErrIntegrity = errors.New("integrity error")

	// ErrBusy indicates another apply holds the mods directory lock.
	ErrBusy = errors.New("mods directory busy")

	// ErrTimeout indicates a search or network budget was exceeded.
	ErrTimeout = errors.New("budget exceeded")

	// ErrNotFound indicates an unknown mod, version, or file.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable indicates a transient source or storage failure.
	ErrUnavailable = errors.New("temporarily unavailable")
)

// DetailError captures structured error information so callers can render
// a precise message without string matching.
type DetailError struct {
	// Type is the error category (required).
	Type string

	// Message is the specific description (required).
	Message string

	// Mods lists the implicated mod names (optional).
	Mods []string

	// Context contains additional key-value context (optional).
	Context map[string]string

	// Hint provides actionable guidance (optional).
	Hint string

	// Cause is the underlying sentinel (optional).
	Cause error
}

// Error implements the error interface.
func (e *DetailError) Error() string {
	var b strings.Builder

	b.WriteString(e.Type)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Mods) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(e.Mods, ", "))
		b.WriteString("]")
	}
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(fmt.Sprintf(" %s=%s", k, e.Context[k]))
		}
	}
	if e.Hint != "" {
		b.WriteString(" (hint: ")
		b.WriteString(e.Hint)
		b.WriteString(")")
	}

	return b.String()
}

// Unwrap returns the underlying sentinel.
func (e *DetailError) Unwrap() error {
	return e.Cause
}

// NewConflictError creates a conflict error citing the implicated mods.
// The mod list is sorted so the message is stable across runs.
func NewConflictError(message string, mods []string) error {
	sorted := make([]string, len(mods))
	copy(sorted, mods)
	sort.Strings(sorted)
	return &DetailError{
		Type:    "unsatisfiable constraints",
		Message: message,
		Mods:    sorted,
		Hint:    "relax the version constraints on the implicated mods",
		Cause:   ErrConflict,
	}
}

// NewStaleError creates a staleness error with both checksums.
func NewStaleError(lockChecksum, manifestChecksum string) error {
	return &DetailError{
		Type:    "stale lockfile",
		Message: "the manifest changed since the lockfile was generated",
		Context: map[string]string{
			"lockfile": lockChecksum,
			"manifest": manifestChecksum,
		},
		Hint:  "run 'furrctorio resolve' to regenerate the lockfile",
		Cause: ErrStale,
	}
}

// NewIntegrityError creates an integrity error with expected and actual checksums.
func NewIntegrityError(mod, version, expected, actual string) error {
	return &DetailError{
		Type:    "checksum mismatch",
		Message: fmt.Sprintf("archive for %s %s failed verification", mod, version),
		Mods:    []string{mod},
		Context: map[string]string{
			"expected": expected,
			"actual":   actual,
		},
		Hint:  "the cache or the mod source may be corrupted; clear the cache and retry",
		Cause: ErrIntegrity,
	}
}

// NewBusyError creates a busy error for a locked mods directory.
func NewBusyError(dir string) error {
	return &DetailError{
		Type:    "mods directory busy",
		Message: fmt.Sprintf("another apply is in flight for %s", dir),
		Hint:    "wait for the other operation to finish and retry",
		Cause:   ErrBusy,
	}
}

// NewTimeoutError creates a timeout error for an exhausted budget.
func NewTimeoutError(message string, context map[string]string) error {
	return &DetailError{
		Type:    "budget exceeded",
		Message: message,
		Context: context,
		Cause:   ErrTimeout,
	}
}

// NewNotFoundError creates a not found error for an unknown mod or version.
func NewNotFoundError(message string, mods ...string) error {
	return &DetailError{
		Type:    "not found",
		Message: message,
		Mods:    mods,
		Cause:   ErrNotFound,
	}
}

// NewUnavailableError creates a transient unavailability error.
func NewUnavailableError(message string, cause error) error {
	e := &DetailError{
		Type:    "temporarily unavailable",
		Message: message,
		Cause:   ErrUnavailable,
	}
	if cause != nil {
		e.Context = map[string]string{"cause": cause.Error()}
	}
	return e
}

// Wrap wraps an error with a sentinel error type.
func Wrap(sentinel error, message string) error {
	return fmt.Errorf("%s: %w", message, sentinel)
}
