// Package cache provides a content-addressed on-disk store for downloaded
// mod archives, keyed by mod name, version, and SHA1 digest.
//
// Entries are never mutated in place, only added or evicted. Concurrent
// reads are safe; writes are serialized.
package cache

import (
	"crypto/sha1"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cliftontoaster-reid/furrctorio/internal/errors"
	"github.com/cliftontoaster-reid/furrctorio/internal/modver"
)

// Entry identifies one cached archive.
type Entry struct {
	Name    string
	Version modver.Version
	SHA1    string
	Size    int64

	// LastUsed is when the entry was last read or written.
	LastUsed time.Time
}

// Store is a content-addressed archive cache rooted at a directory.
//
// Layout: <root>/<name>/<version>/<sha1>.zip, one file per entry, so a
// (name, version) key with two different digests is detectable corruption.
type Store struct {
	root string
	mu   sync.RWMutex
}

// New creates a Store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create %s: %w", dir, err)
	}
	return &Store{root: dir}, nil
}

// Root returns the cache directory.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) entryDir(name string, v modver.Version) string {
	return filepath.Join(s.root, name, v.String())
}

// Get returns the archive bytes and digest for a mod version, or
// errors.ErrNotFound on a miss. The content is re-hashed on every read, so
// on-disk corruption surfaces as errors.ErrIntegrity instead of flowing
// into an install. A hit refreshes the entry's LRU clock.
func (s *Store) Get(name string, v modver.Version) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := s.entryDir(name, v)
	files, err := os.ReadDir(dir)
	if err != nil || len(files) == 0 {
		return nil, "", errors.NewNotFoundError(fmt.Sprintf("no cached archive for %s %s", name, v), name)
	}

	path := filepath.Join(dir, files[0].Name())
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("cache: read %s: %w", path, err)
	}

	sha := strings.TrimSuffix(files[0].Name(), ".zip")
	if actual := fmt.Sprintf("%x", sha1.Sum(data)); actual != sha {
		return nil, "", errors.NewIntegrityError(name, v.String(), sha, actual)
	}
	now := time.Now()
	_ = os.Chtimes(path, now, now)

	return data, sha, nil
}

// Put stores an archive under (name, version, sha1). The digest is verified
// against the content; a mismatch is an errors.ErrIntegrity. A put for a
// key already present is a no-op when the content matches and a corruption
// error when it does not.
func (s *Store) Put(name string, v modver.Version, sha string, data []byte) error {
	actual := fmt.Sprintf("%x", sha1.Sum(data))
	if actual != sha {
		return errors.NewIntegrityError(name, v.String(), sha, actual)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.entryDir(name, v)
	if files, err := os.ReadDir(dir); err == nil && len(files) > 0 {
		existing := strings.TrimSuffix(files[0].Name(), ".zip")
		if existing == sha {
			return nil
		}
		return errors.NewIntegrityError(name, v.String(), sha, existing)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cache: create %s: %w", dir, err)
	}

	// Write-then-rename so a crashed put never leaves a torn entry.
	tmp, err := os.CreateTemp(dir, ".partial-*")
	if err != nil {
		return fmt.Errorf("cache: stage entry: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("cache: stage entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("cache: stage entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, sha+".zip")); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("cache: commit entry: %w", err)
	}
	return nil
}

// Entries lists all cached entries, sorted by mod name then version.
func (s *Store) Entries() ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entriesLocked()
}

func (s *Store) entriesLocked() ([]Entry, error) {
	var out []Entry

	mods, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("cache: read %s: %w", s.root, err)
	}
	for _, mod := range mods {
		if !mod.IsDir() {
			continue
		}
		versions, err := os.ReadDir(filepath.Join(s.root, mod.Name()))
		if err != nil {
			continue
		}
		for _, ver := range versions {
			v, err := modver.Parse(ver.Name())
			if err != nil {
				continue
			}
			dir := filepath.Join(s.root, mod.Name(), ver.Name())
			files, err := os.ReadDir(dir)
			if err != nil || len(files) == 0 {
				continue
			}
			info, err := files[0].Info()
			if err != nil {
				continue
			}
			out = append(out, Entry{
				Name:     mod.Name(),
				Version:  v,
				SHA1:     strings.TrimSuffix(files[0].Name(), ".zip"),
				Size:     info.Size(),
				LastUsed: info.ModTime(),
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return modver.Compare(out[i].Version, out[j].Version) < 0
	})
	return out, nil
}

// Evict removes every entry the predicate matches.
func (s *Store) Evict(pred func(Entry) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.entriesLocked()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if pred(e) {
			if err := os.RemoveAll(s.entryDir(e.Name, e.Version)); err != nil {
				return fmt.Errorf("cache: evict %s %s: %w", e.Name, e.Version, err)
			}
		}
	}
	return nil
}

// Trim evicts least-recently-used entries until the cache's total size is
// at most maxBytes.
func (s *Store) Trim(maxBytes int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.entriesLocked()
	if err != nil {
		return err
	}

	var total int64
	for _, e := range entries {
		total += e.Size
	}
	if total <= maxBytes {
		return nil
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastUsed.Before(entries[j].LastUsed)
	})
	for _, e := range entries {
		if total <= maxBytes {
			break
		}
		if err := os.RemoveAll(s.entryDir(e.Name, e.Version)); err != nil {
			return fmt.Errorf("cache: evict %s %s: %w", e.Name, e.Version, err)
		}
		total -= e.Size
	}
	return nil
}
