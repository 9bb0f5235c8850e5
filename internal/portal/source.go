package portal

import (
	"context"

	"github.com/cliftontoaster-reid/furrctorio/internal/modver"
)

// Source is the mod portal capability consumed by the resolver and the
// update orchestrator.
//
// Implementations must answer ListVersions and GetMetadata without side
// effects observable to the resolver; the resolver relies on a stable
// snapshot for deterministic results. Failures are reported with the
// errors.ErrNotFound and errors.ErrUnavailable sentinels so callers can
// distinguish permanent from retryable conditions.
type Source interface {
	// ListVersions returns the available versions of a mod, newest first.
	ListVersions(ctx context.Context, name string) ([]modver.Version, error)

	// GetMetadata returns the release record for one mod version.
	GetMetadata(ctx context.Context, name string, v modver.Version) (*Release, error)

	// FetchArchive returns the archive bytes for one mod version together
	// with the portal's expected SHA1 hex digest.
	FetchArchive(ctx context.Context, name string, v modver.Version) ([]byte, string, error)
}
