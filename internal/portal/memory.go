package portal

import (
	"context"
	"crypto/sha1"
	"fmt"
	"sort"
	"sync"

	"github.com/cliftontoaster-reid/furrctorio/internal/errors"
	"github.com/cliftontoaster-reid/furrctorio/internal/modver"
)

// MemorySource is an in-memory Source. It backs tests and gives resolution
// a fixed, deterministic snapshot of the portal.
type MemorySource struct {
	mu       sync.Mutex
	releases map[string][]*Release
	archives map[string][]byte // keyed by name + "@" + version

	fetchCalls int

	// FailFetches makes the next N FetchArchive calls fail with
	// errors.ErrUnavailable before succeeding. Used to exercise retry paths.
	FailFetches int
}

// NewMemorySource creates an empty in-memory source.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		releases: make(map[string][]*Release),
		archives: make(map[string][]byte),
	}
}

// AddRelease registers a release and its archive bytes. The release's SHA1
// is computed from the bytes when unset.
func (s *MemorySource) AddRelease(r *Release, archive []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.FileName == "" {
		r.FileName = ArchiveName(r.Name, r.Version)
	}
	if r.SHA1 == "" {
		r.SHA1 = fmt.Sprintf("%x", sha1.Sum(archive))
	}

	s.releases[r.Name] = append(s.releases[r.Name], r)
	sort.SliceStable(s.releases[r.Name], func(i, j int) bool {
		return modver.Compare(s.releases[r.Name][i].Version, s.releases[r.Name][j].Version) > 0
	})
	s.archives[r.Name+"@"+r.Version.String()] = archive
}

// ListVersions implements Source.
func (s *MemorySource) ListVersions(_ context.Context, name string) ([]modver.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	releases, ok := s.releases[name]
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("mod %q is not on the portal", name), name)
	}
	versions := make([]modver.Version, len(releases))
	for i, r := range releases {
		versions[i] = r.Version
	}
	return versions, nil
}

// GetMetadata implements Source.
func (s *MemorySource) GetMetadata(_ context.Context, name string, v modver.Version) (*Release, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.releases[name] {
		if modver.Equal(r.Version, v) {
			return r, nil
		}
	}
	return nil, errors.NewNotFoundError(fmt.Sprintf("mod %s has no version %s", name, v), name)
}

// FetchArchive implements Source.
func (s *MemorySource) FetchArchive(_ context.Context, name string, v modver.Version) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fetchCalls++
	if s.FailFetches > 0 {
		s.FailFetches--
		return nil, "", errors.NewUnavailableError(fmt.Sprintf("fetching %s %s", name, v), nil)
	}

	archive, ok := s.archives[name+"@"+v.String()]
	if !ok {
		return nil, "", errors.NewNotFoundError(fmt.Sprintf("no archive for %s %s", name, v), name)
	}
	var sha string
	for _, r := range s.releases[name] {
		if modver.Equal(r.Version, v) {
			sha = r.SHA1
		}
	}
	return archive, sha, nil
}

// FetchCalls returns how many times FetchArchive was invoked.
func (s *MemorySource) FetchCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchCalls
}
