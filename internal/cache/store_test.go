package cache

import (
	"crypto/sha1"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cliftontoaster-reid/furrctorio/internal/errors"
	"github.com/cliftontoaster-reid/furrctorio/internal/modver"
)

func digestOf(data []byte) string {
	return fmt.Sprintf("%x", sha1.Sum(data))
}

func TestStore_PutGetRoundTrip(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	data := []byte("zip bytes for krastorio")
	v := modver.New(1, 2, 3)
	require.NoError(t, store.Put("Krastorio2", v, digestOf(data), data))

	got, sha, err := store.Get("Krastorio2", v)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, digestOf(data), sha)
}

func TestStore_GetMissIsNotFound(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.Get("absent", modver.New(1, 0, 0))
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestStore_GetRejectsCorruptEntry(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	data := []byte("pristine bytes")
	v := modver.New(1, 0, 0)
	require.NoError(t, store.Put("mod", v, digestOf(data), data))

	entry := filepath.Join(store.Root(), "mod", "1.0.0", digestOf(data)+".zip")
	require.NoError(t, os.WriteFile(entry, []byte("bit rot"), 0o644))

	_, _, err = store.Get("mod", v)
	assert.ErrorIs(t, err, errors.ErrIntegrity)
}

func TestStore_PutRejectsBadDigest(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	data := []byte("payload")
	err = store.Put("mod", modver.New(1, 0, 0), digestOf([]byte("other")), data)
	assert.ErrorIs(t, err, errors.ErrIntegrity)
}

func TestStore_PutIdempotentAndConflicting(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	v := modver.New(2, 0, 0)
	data := []byte("same content")
	require.NoError(t, store.Put("mod", v, digestOf(data), data))
	require.NoError(t, store.Put("mod", v, digestOf(data), data))

	other := []byte("different content")
	err = store.Put("mod", v, digestOf(other), other)
	assert.ErrorIs(t, err, errors.ErrIntegrity)
}

func TestStore_Entries(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	a := []byte("aa")
	b := []byte("bbbb")
	require.NoError(t, store.Put("beta", modver.New(1, 0, 0), digestOf(b), b))
	require.NoError(t, store.Put("alpha", modver.New(2, 0, 0), digestOf(a), a))
	require.NoError(t, store.Put("alpha", modver.New(1, 0, 0), digestOf(a), a))

	entries, err := store.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "alpha", entries[0].Name)
	assert.Equal(t, "1.0.0", entries[0].Version.String())
	assert.Equal(t, "alpha", entries[1].Name)
	assert.Equal(t, "2.0.0", entries[1].Version.String())
	assert.Equal(t, "beta", entries[2].Name)
	assert.Equal(t, int64(4), entries[2].Size)
}

func TestStore_Evict(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	data := []byte("content")
	require.NoError(t, store.Put("keep", modver.New(1, 0, 0), digestOf(data), data))
	require.NoError(t, store.Put("drop", modver.New(1, 0, 0), digestOf(data), data))

	require.NoError(t, store.Evict(func(e Entry) bool { return e.Name == "drop" }))

	_, _, err = store.Get("drop", modver.New(1, 0, 0))
	assert.ErrorIs(t, err, errors.ErrNotFound)
	_, _, err = store.Get("keep", modver.New(1, 0, 0))
	assert.NoError(t, err)
}

func TestStore_TrimEvictsLeastRecentlyUsed(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	old := []byte("old entry")
	fresh := []byte("new entry")
	require.NoError(t, store.Put("old", modver.New(1, 0, 0), digestOf(old), old))
	require.NoError(t, store.Put("fresh", modver.New(1, 0, 0), digestOf(fresh), fresh))

	stale := time.Now().Add(-24 * time.Hour)
	path := filepath.Join(store.Root(), "old", "1.0.0", digestOf(old)+".zip")
	require.NoError(t, os.Chtimes(path, stale, stale))

	require.NoError(t, store.Trim(int64(len(fresh))))

	_, _, err = store.Get("old", modver.New(1, 0, 0))
	assert.ErrorIs(t, err, errors.ErrNotFound)
	_, _, err = store.Get("fresh", modver.New(1, 0, 0))
	assert.NoError(t, err)
}
