// Package cmd provides CLI command implementations.
package cmd

// Exit codes. Scripts driving the CLI key off these, so each failure class
// gets a stable number.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError = 1

	// ExitConflict indicates dependency resolution found no satisfying set.
	ExitConflict = 2

	// ExitStale indicates the lockfile no longer matches the manifest.
	ExitStale = 3

	// ExitIntegrity indicates an archive failed checksum verification.
	ExitIntegrity = 4

	// ExitBusy indicates another process holds the mods directory lock.
	ExitBusy = 5

	// ExitTimeout indicates resolution exceeded its search budget.
	ExitTimeout = 6

	// ExitNotFound indicates a mod or version is unknown to the portal.
	ExitNotFound = 7

	// ExitUnavailable indicates the portal could not be reached.
	ExitUnavailable = 8
)

// ExitCodeName returns the name of the exit code.
func ExitCodeName(code int) string {
	switch code {
	case ExitSuccess:
		return "Success"
	case ExitGeneralError:
		return "General Error"
	case ExitConflict:
		return "Conflict"
	case ExitStale:
		return "Stale Lockfile"
	case ExitIntegrity:
		return "Integrity Error"
	case ExitBusy:
		return "Busy"
	case ExitTimeout:
		return "Timeout"
	case ExitNotFound:
		return "Not Found"
	case ExitUnavailable:
		return "Unavailable"
	default:
		return "Unknown"
	}
}
