package portal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/cliftontoaster-reid/furrctorio/internal/errors"
	"github.com/cliftontoaster-reid/furrctorio/internal/modver"
)

// FileSource is a Source backed by a local portal mirror:
//
//	<root>/<mod-name>/index.yaml   release records for the mod
//	<root>/<mod-name>/<file_name>  archive files
//
// Mirrors are how air-gapped game servers consume the portal, and they give
// the CLI a concrete source without binding this package to any transport.
type FileSource struct {
	root string

	mu    sync.Mutex
	index map[string][]*Release
}

// modIndex is the on-disk shape of a mod's index.yaml.
type modIndex struct {
	Releases []*Release `yaml:"releases"`
}

// NewFileSource creates a Source reading from the given mirror root.
func NewFileSource(root string) *FileSource {
	return &FileSource{root: root, index: make(map[string][]*Release)}
}

// load reads and caches the index for one mod, newest release first.
func (s *FileSource) load(name string) ([]*Release, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if releases, ok := s.index[name]; ok {
		return releases, nil
	}

	path := filepath.Join(s.root, name, "index.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError(fmt.Sprintf("mod %q is not in the mirror at %s", name, s.root), name)
		}
		return nil, errors.NewUnavailableError(fmt.Sprintf("reading mirror index for %s", name), err)
	}

	var idx modIndex
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("portal: parse %s: %w", path, err)
	}
	for _, r := range idx.Releases {
		if r.Name == "" {
			r.Name = name
		}
		if r.FileName == "" {
			r.FileName = ArchiveName(r.Name, r.Version)
		}
	}
	sort.SliceStable(idx.Releases, func(i, j int) bool {
		return modver.Compare(idx.Releases[i].Version, idx.Releases[j].Version) > 0
	})

	s.index[name] = idx.Releases
	return idx.Releases, nil
}

// ListVersions implements Source.
func (s *FileSource) ListVersions(_ context.Context, name string) ([]modver.Version, error) {
	releases, err := s.load(name)
	if err != nil {
		return nil, err
	}
	versions := make([]modver.Version, len(releases))
	for i, r := range releases {
		versions[i] = r.Version
	}
	return versions, nil
}

// GetMetadata implements Source.
func (s *FileSource) GetMetadata(_ context.Context, name string, v modver.Version) (*Release, error) {
	releases, err := s.load(name)
	if err != nil {
		return nil, err
	}
	for _, r := range releases {
		if modver.Equal(r.Version, v) {
			return r, nil
		}
	}
	return nil, errors.NewNotFoundError(fmt.Sprintf("mod %s has no version %s in the mirror", name, v), name)
}

// FetchArchive implements Source.
func (s *FileSource) FetchArchive(ctx context.Context, name string, v modver.Version) ([]byte, string, error) {
	r, err := s.GetMetadata(ctx, name, v)
	if err != nil {
		return nil, "", err
	}

	path := filepath.Join(s.root, name, r.FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", errors.NewNotFoundError(fmt.Sprintf("archive %s missing from the mirror", r.FileName), name)
		}
		return nil, "", errors.NewUnavailableError(fmt.Sprintf("reading archive for %s %s", name, v), err)
	}
	return data, r.SHA1, nil
}
