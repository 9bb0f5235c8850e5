package apply

import (
	"context"
	"crypto/sha1"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cliftontoaster-reid/furrctorio/internal/cache"
	ferrors "github.com/cliftontoaster-reid/furrctorio/internal/errors"
	"github.com/cliftontoaster-reid/furrctorio/internal/lockfile"
	"github.com/cliftontoaster-reid/furrctorio/internal/modver"
	"github.com/cliftontoaster-reid/furrctorio/internal/portal"
)

func digestOf(data []byte) string {
	return fmt.Sprintf("%x", sha1.Sum(data))
}

func archiveFor(name string, v modver.Version) []byte {
	return []byte("archive " + name + " " + v.String())
}

type fixture struct {
	src   *portal.MemorySource
	store *cache.Store
	orch  *Orchestrator
	dir   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := cache.New(t.TempDir())
	require.NoError(t, err)
	src := portal.NewMemorySource()
	return &fixture{
		src:   src,
		store: store,
		orch:  New(src, store),
		dir:   t.TempDir(),
	}
}

// lock registers a release for each (name, version) pair and returns a
// lockfile pinning all of them.
func (f *fixture) lock(t *testing.T, mods map[string]modver.Version) *lockfile.Lockfile {
	t.Helper()
	lf := &lockfile.Lockfile{Version: lockfile.FormatVersion, ManifestChecksum: "sha1:test"}
	for name, v := range mods {
		data := archiveFor(name, v)
		f.src.AddRelease(&portal.Release{Name: name, Version: v}, data)
		lf.Mods = append(lf.Mods, lockfile.Entry{
			Name:       name,
			Version:    v,
			SHA1:       digestOf(data),
			RequiredBy: "manifest",
		})
	}
	return lf
}

func fastOpts() Options {
	return Options{Retries: 3, RetryBackoff: time.Millisecond}
}

func listArchives(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".zip" {
			out = append(out, e.Name())
		}
	}
	return out
}

func TestApply_InstallsLockedSet(t *testing.T) {
	f := newFixture(t)
	lf := f.lock(t, map[string]modver.Version{
		"Krastorio2": modver.New(1, 3, 25),
		"flib":       modver.New(0, 16, 2),
	})

	report, err := f.orch.Apply(context.Background(), lf, f.dir, fastOpts())
	require.NoError(t, err)
	assert.Len(t, report.Actions, 2)
	assert.Equal(t, 2, report.Fetched)

	assert.ElementsMatch(t,
		[]string{"Krastorio2_1.3.25.zip", "flib_0.16.2.zip"},
		listArchives(t, f.dir))

	data, err := os.ReadFile(filepath.Join(f.dir, "Krastorio2_1.3.25.zip"))
	require.NoError(t, err)
	assert.Equal(t, archiveFor("Krastorio2", modver.New(1, 3, 25)), data)

	enabled, err := ReadModList(f.dir)
	require.NoError(t, err)
	assert.True(t, enabled["base"])
	assert.True(t, enabled["Krastorio2"])
	assert.True(t, enabled["flib"])

	checksum, err := lf.Checksum()
	require.NoError(t, err)
	assert.Equal(t, checksum, ReadMarker(f.dir))
}

func TestApply_SecondRunIsNoop(t *testing.T) {
	f := newFixture(t)
	lf := f.lock(t, map[string]modver.Version{"flib": modver.New(0, 16, 2)})

	_, err := f.orch.Apply(context.Background(), lf, f.dir, fastOpts())
	require.NoError(t, err)
	fetched := f.src.FetchCalls()

	report, err := f.orch.Apply(context.Background(), lf, f.dir, fastOpts())
	require.NoError(t, err)
	assert.Empty(t, report.Actions)
	assert.Equal(t, fetched, f.src.FetchCalls())
}

func TestApply_DryRunTouchesNothing(t *testing.T) {
	f := newFixture(t)
	lf := f.lock(t, map[string]modver.Version{"flib": modver.New(0, 16, 2)})

	opts := fastOpts()
	opts.DryRun = true
	report, err := f.orch.Apply(context.Background(), lf, f.dir, opts)
	require.NoError(t, err)
	require.Len(t, report.Actions, 1)
	assert.Equal(t, lockfile.ActionInstall, report.Actions[0].Kind)

	assert.Empty(t, listArchives(t, f.dir))
	assert.Zero(t, f.src.FetchCalls())
	assert.NoFileExists(t, filepath.Join(f.dir, ModListFileName))
}

func TestApply_UpgradeReplacesOldArchive(t *testing.T) {
	f := newFixture(t)
	old := archiveFor("flib", modver.New(0, 15, 0))
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "flib_0.15.0.zip"), old, 0o644))

	lf := f.lock(t, map[string]modver.Version{"flib": modver.New(0, 16, 2)})
	report, err := f.orch.Apply(context.Background(), lf, f.dir, fastOpts())
	require.NoError(t, err)
	require.Len(t, report.Actions, 1)
	assert.Equal(t, lockfile.ActionUpgrade, report.Actions[0].Kind)

	assert.Equal(t, []string{"flib_0.16.2.zip"}, listArchives(t, f.dir))
}

func TestApply_RemovesUnlockedMods(t *testing.T) {
	f := newFixture(t)
	stray := archiveFor("old-mod", modver.New(1, 0, 0))
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "old-mod_1.0.0.zip"), stray, 0o644))

	lf := f.lock(t, map[string]modver.Version{"flib": modver.New(0, 16, 2)})
	_, err := f.orch.Apply(context.Background(), lf, f.dir, fastOpts())
	require.NoError(t, err)

	assert.Equal(t, []string{"flib_0.16.2.zip"}, listArchives(t, f.dir))
}

func TestApply_DisabledModsStayInstalled(t *testing.T) {
	f := newFixture(t)
	lf := f.lock(t, map[string]modver.Version{"flib": modver.New(0, 16, 2)})

	opts := fastOpts()
	opts.Disabled = map[string]bool{"flib": true}
	_, err := f.orch.Apply(context.Background(), lf, f.dir, opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"flib_0.16.2.zip"}, listArchives(t, f.dir))
	enabled, err := ReadModList(f.dir)
	require.NoError(t, err)
	assert.False(t, enabled["flib"])
	assert.True(t, enabled["base"])
}

func TestApply_RetriesTransientFetchFailures(t *testing.T) {
	f := newFixture(t)
	lf := f.lock(t, map[string]modver.Version{"flib": modver.New(0, 16, 2)})
	f.src.FailFetches = 2

	report, err := f.orch.Apply(context.Background(), lf, f.dir, fastOpts())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Fetched)
	assert.Equal(t, 3, f.src.FetchCalls())
}

func TestApply_ExhaustedRetriesReportUnavailable(t *testing.T) {
	f := newFixture(t)
	lf := f.lock(t, map[string]modver.Version{"flib": modver.New(0, 16, 2)})
	f.src.FailFetches = 10

	_, err := f.orch.Apply(context.Background(), lf, f.dir, fastOpts())
	assert.ErrorIs(t, err, ferrors.ErrUnavailable)
	assert.Empty(t, listArchives(t, f.dir))
}

func TestApply_ChecksumMismatchAbortsCleanly(t *testing.T) {
	f := newFixture(t)
	lf := f.lock(t, map[string]modver.Version{"flib": modver.New(0, 16, 2)})
	lf.Mods[0].SHA1 = digestOf([]byte("tampered"))

	_, err := f.orch.Apply(context.Background(), lf, f.dir, fastOpts())
	assert.ErrorIs(t, err, ferrors.ErrIntegrity)
	assert.Empty(t, listArchives(t, f.dir))
	assert.NoFileExists(t, filepath.Join(f.dir, ModListFileName))
}

// errAfterContext reports Canceled starting from its nth Err call while its
// Done channel never fires, modeling a cancellation that lands while the
// commit batch is in flight.
type errAfterContext struct {
	context.Context
	calls atomic.Int32
	after int32
}

func (c *errAfterContext) Done() <-chan struct{} { return nil }

func (c *errAfterContext) Err() error {
	if c.calls.Add(1) > c.after {
		return context.Canceled
	}
	return nil
}

func TestApply_CancelDuringCommitLeavesNoPartialState(t *testing.T) {
	f := newFixture(t)
	lf := f.lock(t, map[string]modver.Version{
		"Krastorio2": modver.New(1, 3, 25),
		"flib":       modver.New(0, 16, 2),
	})

	// Cancellation arrives after commit has started. The batch runs to
	// completion, so the directory holds both archives rather than one.
	ctx := &errAfterContext{Context: context.Background(), after: 1}
	_, err := f.orch.Apply(ctx, lf, f.dir, fastOpts())
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{"Krastorio2_1.3.25.zip", "flib_0.16.2.zip"},
		listArchives(t, f.dir))
}

func TestApply_CancelBeforeCommitLeavesDirUntouched(t *testing.T) {
	f := newFixture(t)
	lf := f.lock(t, map[string]modver.Version{"flib": modver.New(0, 16, 2)})

	ctx := &errAfterContext{Context: context.Background(), after: 0}
	_, err := f.orch.Apply(ctx, lf, f.dir, fastOpts())
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, listArchives(t, f.dir))
	assert.NoFileExists(t, filepath.Join(f.dir, ModListFileName))
}

func TestApply_SecondFetchServedFromCache(t *testing.T) {
	f := newFixture(t)
	lf := f.lock(t, map[string]modver.Version{"flib": modver.New(0, 16, 2)})

	_, err := f.orch.Apply(context.Background(), lf, f.dir, fastOpts())
	require.NoError(t, err)

	other := t.TempDir()
	report, err := f.orch.Apply(context.Background(), lf, other, fastOpts())
	require.NoError(t, err)
	assert.Equal(t, 1, report.CacheHits)
	assert.Zero(t, report.Fetched)
	assert.Equal(t, 1, f.src.FetchCalls())
}

func TestApply_CorruptCacheEntryIsRefetched(t *testing.T) {
	f := newFixture(t)
	lf := f.lock(t, map[string]modver.Version{"flib": modver.New(0, 16, 2)})

	_, err := f.orch.Apply(context.Background(), lf, f.dir, fastOpts())
	require.NoError(t, err)
	require.Equal(t, 1, f.src.FetchCalls())

	entry := filepath.Join(f.store.Root(), "flib", "0.16.2", lf.Mods[0].SHA1+".zip")
	require.NoError(t, os.WriteFile(entry, []byte("mangled"), 0o644))

	other := t.TempDir()
	report, err := f.orch.Apply(context.Background(), lf, other, fastOpts())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Fetched)
	assert.Zero(t, report.CacheHits)
	assert.Equal(t, 2, f.src.FetchCalls())

	data, err := os.ReadFile(filepath.Join(other, "flib_0.16.2.zip"))
	require.NoError(t, err)
	assert.Equal(t, archiveFor("flib", modver.New(0, 16, 2)), data)
}

func TestApply_LockedDirectoryIsBusy(t *testing.T) {
	f := newFixture(t)
	lf := f.lock(t, map[string]modver.Version{"flib": modver.New(0, 16, 2)})

	held, err := acquireDirLock(f.dir)
	require.NoError(t, err)
	defer held.Release()

	_, err = f.orch.Apply(context.Background(), lf, f.dir, fastOpts())
	assert.ErrorIs(t, err, ferrors.ErrBusy)
}

func TestScan_ReadsInstalledArchives(t *testing.T) {
	dir := t.TempDir()
	data := archiveFor("flib", modver.New(0, 16, 2))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "flib_0.16.2.zip"), data, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ModListFileName), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	installed, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, installed, 1)
	assert.Equal(t, "0.16.2", installed["flib"].Version.String())
	assert.Equal(t, digestOf(data), installed["flib"].SHA1)
}

func TestScan_KeepsNewestDuplicate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "flib_0.15.0.zip"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "flib_0.16.2.zip"), []byte("b"), 0o644))

	installed, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, installed, 1)
	assert.Equal(t, "0.16.2", installed["flib"].Version.String())
}

func TestScan_MissingDirIsEmpty(t *testing.T) {
	installed, err := Scan(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, installed)
}

func TestParseArchiveName(t *testing.T) {
	tests := []struct {
		in      string
		name    string
		version string
		ok      bool
	}{
		{"flib_0.16.2.zip", "flib", "0.16.2", true},
		{"space_exploration_0.6.139.zip", "space_exploration", "0.6.139", true},
		{"flib_0.16.2.tar", "", "", false},
		{"_1.0.0.zip", "", "", false},
		{"noversion.zip", "", "", false},
		{"flib_banana.zip", "", "", false},
	}
	for _, tt := range tests {
		name, v, ok := parseArchiveName(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.Equal(t, tt.name, name, tt.in)
			assert.Equal(t, tt.version, v.String(), tt.in)
		}
	}
}
