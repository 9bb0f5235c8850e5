package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/cliftontoaster-reid/furrctorio/internal/apply"
	"github.com/cliftontoaster-reid/furrctorio/internal/cache"
	"github.com/cliftontoaster-reid/furrctorio/internal/config"
	"github.com/cliftontoaster-reid/furrctorio/internal/output"
)

// NewApplyCmd creates the apply command.
func NewApplyCmd() *cobra.Command {
	var (
		dryRunFlag  bool
		jobsFlag    int
		retriesFlag int
		timeoutFlag time.Duration
	)

	cmd := &cobra.Command{
		Use:   "apply [manifest]",
		Short: "Install the locked mod set",
		Long: `Install the lockfile's mod set into the server's mods directory.

Archives are fetched through the local cache, verified against the
lockfile's checksums, and staged inside the mods directory before any
existing file is touched. The commit is a series of renames, so an
interrupted apply leaves the previous installation intact.

The mods directory is locked for the duration; concurrent applies on the
same directory fail immediately instead of corrupting it.

A stale lockfile (manifest edited since the last resolve) is refused.
Run 'furrctorio resolve' first.

Examples:
  # Install the locked set
  furrctorio apply

  # Preview the actions without changing anything
  furrctorio apply --dry-run

  # Limit download concurrency
  furrctorio apply --jobs 2`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wrapExit(runApply(cmd.Context(), args, dryRunFlag, jobsFlag, retriesFlag, timeoutFlag))
		},
	}

	cmd.Flags().BoolVar(&dryRunFlag, "dry-run", false,
		"Report the planned actions without touching the mods directory")
	cmd.Flags().IntVar(&jobsFlag, "jobs", 0,
		"Concurrent archive downloads (default from config)")
	cmd.Flags().IntVar(&retriesFlag, "retries", 0,
		"Attempts per archive for transient portal failures (default from config)")
	cmd.Flags().DurationVar(&timeoutFlag, "timeout", 0,
		"Overall apply deadline (0 means no deadline)")

	return cmd
}

func runApply(ctx context.Context, args []string, dryRun bool, jobs, retries int, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	m, err := loadManifest(args)
	if err != nil {
		return err
	}
	lf, err := loadLockfile()
	if err != nil {
		return err
	}
	if err := lf.CheckFresh(m.Checksum()); err != nil {
		return err
	}

	src, err := portalSource()
	if err != nil {
		return err
	}
	cfg := GetConfig()
	cacheDir, err := config.ExpandPath(cfg.CacheDir)
	if err != nil {
		return err
	}
	store, err := cache.New(cacheDir)
	if err != nil {
		return err
	}

	opts := apply.Options{
		Jobs:         cfg.Apply.Jobs,
		Retries:      cfg.Apply.Retries,
		RetryBackoff: cfg.Apply.RetryBackoff,
		DryRun:       dryRun,
		Disabled:     m.DisabledSet(),
	}
	if jobs > 0 {
		opts.Jobs = jobs
	}
	if retries > 0 {
		opts.Retries = retries
	}

	dir := modsDir(m)
	orch := apply.New(src, store)

	var report *apply.Report
	err = output.RunWithSpinner(ctx, "Applying mods...", func() error {
		var aerr error
		report, aerr = orch.Apply(ctx, lf, dir, opts)
		return aerr
	})
	if err != nil {
		return err
	}

	if len(report.Actions) > 0 {
		output.Print(renderActions(report.Actions))
	}
	output.Println(output.StyleSummary.Render(summarizeActions(report.Actions)))
	if dryRun {
		output.Info("dry run, no changes made")
		return nil
	}
	output.Info("mods directory up to date",
		"dir", dir, "fetched", report.Fetched, "cached", report.CacheHits)
	return nil
}
