// Package resolve computes a consistent version assignment for a manifest:
// a backtracking constraint search over the versions a mod source offers.
//
// The search is deterministic. Mods are processed manifest-first in manifest
// order, then dependency-discovered mods in first-encountered order; for
// each mod, candidates are tried newest-satisfying to oldest-satisfying.
// Two resolutions over the same manifest and the same source snapshot
// always produce the same result.
package resolve

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cliftontoaster-reid/furrctorio/internal/errors"
	"github.com/cliftontoaster-reid/furrctorio/internal/manifest"
	"github.com/cliftontoaster-reid/furrctorio/internal/modver"
	"github.com/cliftontoaster-reid/furrctorio/internal/output"
	"github.com/cliftontoaster-reid/furrctorio/internal/portal"
)

// baseModName is the game itself: every mod's info.json may constrain it,
// and it is never installable from the portal.
const baseModName = "base"

// DefaultNodeBudget bounds the number of candidate trials before the search
// reports a timeout instead of spinning on a pathological constraint graph.
const DefaultNodeBudget = 100_000

// Options configures a Resolver.
type Options struct {
	// NodeBudget caps candidate trials. Zero means DefaultNodeBudget.
	NodeBudget int
}

// Resolver computes resolutions against a mod source. It owns no persistent
// state; a Resolver is a pure function of the manifest and the source view.
type Resolver struct {
	src  portal.Source
	opts Options

	// releases memoizes per-mod release lists so the source is queried at
	// most once per mod, keeping the view a stable snapshot.
	releases map[string][]*portal.Release
}

// New creates a Resolver reading from src.
func New(src portal.Source, opts Options) *Resolver {
	if opts.NodeBudget <= 0 {
		opts.NodeBudget = DefaultNodeBudget
	}
	return &Resolver{
		src:      src,
		opts:     opts,
		releases: make(map[string][]*portal.Release),
	}
}

// state is the mutable working set of the search. Snapshots of it hang off
// choice-point frames so backtracking restores exactly the pre-choice view.
type state struct {
	// constraints is the merged constraint per mod.
	constraints map[string]modver.Constraint

	// contributors records which mods merged a constraint onto a mod,
	// for conflict reporting.
	contributors map[string][]string

	// banned maps a mod name to the chosen mod that declared it incompatible.
	banned map[string]string

	// queue is the deterministic processing order.
	queue []string

	// origins records which mod introduced each queued name.
	origins map[string]string

	// assigned holds the chosen release per completed frame.
	assigned map[string]*portal.Release
}

// snapshot captures the restorable parts of the state.
type snapshot struct {
	constraints  map[string]modver.Constraint
	contributors map[string][]string
	banned       map[string]string
	queueLen     int
}

func (s *state) snapshot() snapshot {
	constraints := make(map[string]modver.Constraint, len(s.constraints))
	for k, v := range s.constraints {
		constraints[k] = v
	}
	contributors := make(map[string][]string, len(s.contributors))
	for k, v := range s.contributors {
		contributors[k] = append([]string(nil), v...)
	}
	banned := make(map[string]string, len(s.banned))
	for k, v := range s.banned {
		banned[k] = v
	}
	return snapshot{
		constraints:  constraints,
		contributors: contributors,
		banned:       banned,
		queueLen:     len(s.queue),
	}
}

func (s *state) restore(snap snapshot) {
	s.constraints = make(map[string]modver.Constraint, len(snap.constraints))
	for k, v := range snap.constraints {
		s.constraints[k] = v
	}
	s.contributors = make(map[string][]string, len(snap.contributors))
	for k, v := range snap.contributors {
		s.contributors[k] = append([]string(nil), v...)
	}
	s.banned = make(map[string]string, len(snap.banned))
	for k, v := range snap.banned {
		s.banned[k] = v
	}
	for _, name := range s.queue[snap.queueLen:] {
		delete(s.origins, name)
	}
	s.queue = s.queue[:snap.queueLen]
}

// frame is one choice point: a mod, its candidate list, the index of the
// candidate under trial, and the state snapshot taken before any candidate
// of this frame was applied.
type frame struct {
	name       string
	candidates []*portal.Release
	idx        int
	snap       snapshot
}

// Resolve computes a resolution for the manifest.
//
// On success the result satisfies every direct manifest constraint and
// every transitive dependency constraint, with exactly one version per
// involved mod. Failure modes: errors.ErrConflict with the implicated mod
// set, errors.ErrNotFound for unknown mods, errors.ErrTimeout when the
// node budget is exhausted.
func (r *Resolver) Resolve(ctx context.Context, m *manifest.Manifest) (*Result, error) {
	st := &state{
		constraints:  make(map[string]modver.Constraint),
		contributors: make(map[string][]string),
		banned:       make(map[string]string),
		origins:      make(map[string]string),
		assigned:     make(map[string]*portal.Release),
	}

	for _, entry := range m.Mods {
		st.constraints[entry.Name] = entry.Constraint
		st.origins[entry.Name] = ManifestProvenance
		st.queue = append(st.queue, entry.Name)
	}

	baseVersion, err := basePin(m.Metadata.FactorioVersion)
	if err != nil {
		return nil, err
	}

	var (
		frames       []*frame
		lastConflict []string
		nodes        int
	)

	pos := 0
	for pos < len(st.queue) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := st.queue[pos]
		candidates, err := r.candidates(ctx, name, st.constraints[name], m.Metadata.FactorioVersion)
		if err != nil {
			return nil, err
		}
		frames = append(frames, &frame{name: name, candidates: candidates, snap: st.snapshot()})

		for {
			f := frames[len(frames)-1]
			st.restore(f.snap)

			if f.idx >= len(f.candidates) {
				if lastConflict == nil {
					lastConflict = append([]string{f.name}, st.contributors[f.name]...)
				}
				frames = frames[:len(frames)-1]
				delete(st.assigned, f.name)
				if len(frames) == 0 {
					return nil, errors.NewConflictError("no consistent version assignment exists", lastConflict)
				}
				frames[len(frames)-1].idx++
				continue
			}

			nodes++
			if nodes > r.opts.NodeBudget {
				return nil, errors.NewTimeoutError(
					"resolution search exceeded its node budget",
					map[string]string{"nodes": strconv.Itoa(r.opts.NodeBudget)},
				)
			}

			cand := f.candidates[f.idx]
			conflict := r.tryCandidate(st, f.name, cand, baseVersion)
			if conflict == nil {
				st.assigned[f.name] = cand
				break
			}
			lastConflict = conflict
			output.Debug("candidate rejected",
				"mod", f.name, "version", cand.Version.String(), "conflict", conflict)
			f.idx++
		}
		pos = len(frames)
	}

	result := &Result{Mods: make(map[string]*Selection, len(st.assigned))}
	for name, release := range st.assigned {
		result.Mods[name] = &Selection{
			Name:       name,
			Version:    release.Version,
			SHA1:       release.SHA1,
			RequiredBy: st.origins[name],
			Release:    release,
		}
	}
	return result, nil
}

// tryCandidate applies one candidate's dependency edges to the state.
// It returns nil on success, or the implicated mod set on failure; the
// caller restores the state before the next attempt.
func (r *Resolver) tryCandidate(st *state, name string, cand *portal.Release, baseVersion modver.Version) []string {
	if chooser, ok := st.banned[name]; ok {
		return []string{name, chooser}
	}

	for _, dep := range cand.Info.Dependencies {
		switch dep.Kind {
		case portal.DependencyOptional:
			// Optional dependencies are never forced into the install set.
			continue

		case portal.DependencyIncompatible:
			if _, present := st.assigned[dep.Name]; present {
				return []string{name, dep.Name}
			}
			if _, queued := st.origins[dep.Name]; queued {
				return []string{name, dep.Name}
			}
			st.banned[dep.Name] = name

		case portal.DependencyRequired:
			if dep.Name == baseModName {
				if !baseVersion.IsZero() && !dep.Constraint.Check(baseVersion) {
					return []string{name, baseModName}
				}
				continue
			}
			if chooser, banned := st.banned[dep.Name]; banned {
				return []string{name, dep.Name, chooser}
			}

			merged, ok := st.constraints[dep.Name].Intersect(dep.Constraint)
			if !ok {
				return append([]string{dep.Name, name}, st.contributors[dep.Name]...)
			}
			st.constraints[dep.Name] = merged
			st.contributors[dep.Name] = append(st.contributors[dep.Name], name)

			if chosen, done := st.assigned[dep.Name]; done {
				if !merged.Check(chosen.Version) {
					return append([]string{dep.Name, name}, st.contributors[dep.Name]...)
				}
			} else if _, queued := st.origins[dep.Name]; !queued {
				st.origins[dep.Name] = name
				st.queue = append(st.queue, dep.Name)
			}
		}
	}
	return nil
}

// candidates returns the releases of a mod that satisfy the current merged
// constraint and target the pinned base-game line, newest first.
func (r *Resolver) candidates(ctx context.Context, name string, c modver.Constraint, factorioVersion string) ([]*portal.Release, error) {
	all, err := r.loadReleases(ctx, name)
	if err != nil {
		return nil, err
	}

	out := make([]*portal.Release, 0, len(all))
	for _, release := range all {
		if !c.Check(release.Version) {
			continue
		}
		if factorioVersion != "" && release.Info.FactorioVersion != "" &&
			release.Info.FactorioVersion != factorioVersion {
			continue
		}
		out = append(out, release)
	}
	return out, nil
}

// loadReleases fetches and memoizes the full release list for a mod,
// newest first.
func (r *Resolver) loadReleases(ctx context.Context, name string) ([]*portal.Release, error) {
	if releases, ok := r.releases[name]; ok {
		return releases, nil
	}

	versions, err := r.src.ListVersions(ctx, name)
	if err != nil {
		return nil, err
	}

	releases := make([]*portal.Release, 0, len(versions))
	for _, v := range versions {
		release, err := r.src.GetMetadata(ctx, name, v)
		if err != nil {
			return nil, err
		}
		releases = append(releases, release)
	}
	for i := 1; i < len(releases); i++ {
		if modver.Compare(releases[i-1].Version, releases[i].Version) < 0 {
			return nil, fmt.Errorf("resolve: source listed versions of %s out of order", name)
		}
	}

	r.releases[name] = releases
	return releases, nil
}

// basePin converts the manifest's factorio_version pin ("1.1" or "1.1.0")
// into a comparable version for base-game dependency checks.
func basePin(pin string) (modver.Version, error) {
	if pin == "" {
		return modver.Version{}, nil
	}
	if v, err := modver.Parse(pin); err == nil {
		return v, nil
	}
	v, err := modver.Parse(pin + ".0")
	if err != nil {
		return modver.Version{}, fmt.Errorf("resolve: invalid factorio_version pin %q", pin)
	}
	return v, nil
}
