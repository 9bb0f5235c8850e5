package apply

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cliftontoaster-reid/furrctorio/internal/cache"
	ferrors "github.com/cliftontoaster-reid/furrctorio/internal/errors"
	"github.com/cliftontoaster-reid/furrctorio/internal/lockfile"
	"github.com/cliftontoaster-reid/furrctorio/internal/modver"
	"github.com/cliftontoaster-reid/furrctorio/internal/output"
	"github.com/cliftontoaster-reid/furrctorio/internal/portal"
)

// Defaults for apply tuning knobs.
const (
	DefaultJobs         = 4
	DefaultRetries      = 3
	DefaultRetryBackoff = 500 * time.Millisecond
)

// Options tunes one apply run.
type Options struct {
	// Jobs bounds concurrent archive fetches.
	Jobs int

	// Retries is the per-archive attempt budget for transient failures.
	Retries int

	// RetryBackoff is the base delay between attempts, doubled each retry.
	RetryBackoff time.Duration

	// DryRun computes and reports actions without touching the directory.
	DryRun bool

	// Disabled lists mods to keep installed but switched off in
	// mod-list.json.
	Disabled map[string]bool
}

func (o Options) withDefaults() Options {
	if o.Jobs <= 0 {
		o.Jobs = DefaultJobs
	}
	if o.Retries <= 0 {
		o.Retries = DefaultRetries
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = DefaultRetryBackoff
	}
	return o
}

// Report summarizes what an apply run did, or would do under DryRun.
type Report struct {
	Actions   []lockfile.Action
	Fetched   int
	CacheHits int
}

// Orchestrator installs locked mod sets into directories, fetching archives
// through a portal source and a local archive cache.
type Orchestrator struct {
	src   portal.Source
	store *cache.Store
}

// New creates an Orchestrator.
func New(src portal.Source, store *cache.Store) *Orchestrator {
	return &Orchestrator{src: src, store: store}
}

// Apply makes dir match the lockfile exactly: locked archives present and
// verified, stray archives removed, mod-list.json and the state marker
// rewritten. The directory is flocked for the duration; a second process
// applying the same directory fails fast with errors.ErrBusy.
//
// All archives are fetched and staged inside dir before the first rename,
// so any failure or cancellation up to that point leaves the installed set
// untouched; the rename batch itself runs to completion once started.
func (o *Orchestrator) Apply(ctx context.Context, lf *lockfile.Lockfile, dir string, opts Options) (*Report, error) {
	opts = opts.withDefaults()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	lock, err := acquireDirLock(dir)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	installed, err := Scan(dir)
	if err != nil {
		return nil, err
	}

	report := &Report{Actions: lockfile.Diff(lf, installed)}
	if opts.DryRun {
		return report, nil
	}

	archives, err := o.fetchAll(ctx, report, opts)
	if err != nil {
		return nil, err
	}

	staging, err := o.stage(dir, report.Actions, archives)
	if staging != "" {
		defer os.RemoveAll(staging)
	}
	if err != nil {
		return nil, err
	}

	if err := o.commit(ctx, dir, staging, lf, report.Actions); err != nil {
		return nil, err
	}

	if err := writeModList(dir, lf, opts.Disabled); err != nil {
		return nil, err
	}
	checksum, err := lf.Checksum()
	if err != nil {
		return nil, err
	}
	if err := writeMarker(dir, checksum); err != nil {
		return nil, err
	}
	return report, nil
}

// fetchAll gathers every archive the action list installs, preferring the
// cache and fetching misses concurrently.
func (o *Orchestrator) fetchAll(ctx context.Context, report *Report, opts Options) (map[string][]byte, error) {
	archives := make(map[string][]byte)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Jobs)

	for _, action := range report.Actions {
		if action.Kind == lockfile.ActionRemove {
			continue
		}
		action := action
		g.Go(func() error {
			data, hit, err := o.fetchOne(gctx, action.Name, action.To, action.SHA1, opts)
			if err != nil {
				return err
			}
			mu.Lock()
			archives[portal.ArchiveName(action.Name, action.To)] = data
			if hit {
				report.CacheHits++
			} else {
				report.Fetched++
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return archives, nil
}

func (o *Orchestrator) fetchOne(ctx context.Context, name string, v modver.Version, want string, opts Options) ([]byte, bool, error) {
	logger := output.ModLogger(name)

	data, sha, err := o.store.Get(name, v)
	if err == nil && sha == want {
		logger.Debug("archive served from cache", "version", v)
		return data, true, nil
	}
	if errors.Is(err, ferrors.ErrIntegrity) {
		// A corrupt entry would make Put a no-op for the same key, so it
		// has to go before the refetch.
		logger.Warn("cached archive corrupt, refetching", "version", v)
		evict := func(e cache.Entry) bool {
			return e.Name == name && modver.Compare(e.Version, v) == 0
		}
		if err := o.store.Evict(evict); err != nil {
			logger.Warn("corrupt archive not evicted", "version", v, "error", err)
		}
	}

	data = nil
	err = retryTransient(ctx, opts.Retries, opts.RetryBackoff, func() error {
		fetched, reported, err := o.src.FetchArchive(ctx, name, v)
		if err != nil {
			return err
		}
		actual := fmt.Sprintf("%x", sha1.Sum(fetched))
		if actual != want {
			return ferrors.NewIntegrityError(name, v.String(), want, actual)
		}
		if reported != "" && reported != want {
			return ferrors.NewIntegrityError(name, v.String(), want, reported)
		}
		data = fetched
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	logger.Debug("archive fetched", "version", v)
	if err := o.store.Put(name, v, want, data); err != nil {
		logger.Warn("archive not cached", "version", v, "error", err)
	}
	return data, false, nil
}

// stage writes every new archive into a temp directory inside dir, so the
// later renames stay on one filesystem.
func (o *Orchestrator) stage(dir string, actions []lockfile.Action, archives map[string][]byte) (string, error) {
	var names []string
	for _, action := range actions {
		if action.Kind != lockfile.ActionRemove {
			names = append(names, portal.ArchiveName(action.Name, action.To))
		}
	}
	if len(names) == 0 {
		return "", nil
	}

	staging, err := os.MkdirTemp(dir, ".furrctorio-stage-")
	if err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(staging, name), archives[name], 0o644); err != nil {
			return staging, fmt.Errorf("stage %s: %w", name, err)
		}
	}
	return staging, nil
}

// commit moves staged archives into place, then sweeps every archive that
// does not belong to the locked set: replaced versions, removed mods, and
// leftover duplicates.
//
// Cancellation is honored only before the first rename. Once the batch
// starts, it runs to completion so the directory is never left holding a
// mix of old and new versions.
func (o *Orchestrator) commit(ctx context.Context, dir, staging string, lf *lockfile.Lockfile, actions []lockfile.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, action := range actions {
		if action.Kind == lockfile.ActionRemove {
			continue
		}
		name := portal.ArchiveName(action.Name, action.To)
		if err := os.Rename(filepath.Join(staging, name), filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("install %s: %w", name, err)
		}
		output.Debug("installed archive", "file", name)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("sweep %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, v, ok := parseArchiveName(entry.Name())
		if !ok {
			continue
		}
		locked, present := lf.Entry(name)
		if present && modver.Compare(locked.Version, v) == 0 {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			return fmt.Errorf("remove %s: %w", entry.Name(), err)
		}
		output.Debug("removed archive", "file", entry.Name())
	}
	return nil
}
