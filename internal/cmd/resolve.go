package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cliftontoaster-reid/furrctorio/internal/lockfile"
	"github.com/cliftontoaster-reid/furrctorio/internal/output"
	"github.com/cliftontoaster-reid/furrctorio/internal/resolve"
)

// NewResolveCmd creates the resolve command.
func NewResolveCmd() *cobra.Command {
	var (
		checkFlag  bool
		budgetFlag int
	)

	cmd := &cobra.Command{
		Use:   "resolve [manifest]",
		Short: "Resolve the manifest into a lockfile",
		Long: `Resolve the manifest's version constraints into a lockfile.

Every mod in the manifest is resolved together with its transitive
dependencies to a single exact version per mod, preferring the newest
version each constraint allows. The result is written to the lockfile
with the archive checksum of every selection, so later applies install
exactly the versions resolved here.

Resolution is deterministic: the same manifest against the same portal
state always produces the same lockfile.

Examples:
  # Resolve the manifest in the current directory
  furrctorio resolve

  # Verify the lockfile is current without resolving
  furrctorio resolve --check`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wrapExit(runResolve(cmd.Context(), args, checkFlag, budgetFlag))
		},
	}

	cmd.Flags().BoolVar(&checkFlag, "check", false,
		"Verify the lockfile matches the manifest, without resolving")
	cmd.Flags().IntVar(&budgetFlag, "node-budget", resolve.DefaultNodeBudget,
		"Resolution search budget in explored candidates")

	return cmd
}

func runResolve(ctx context.Context, args []string, check bool, budget int) error {
	m, err := loadManifest(args)
	if err != nil {
		return err
	}

	if check {
		lf, err := loadLockfile()
		if err != nil {
			return err
		}
		if err := lf.CheckFresh(m.Checksum()); err != nil {
			return err
		}
		output.Info("lockfile is up to date", "mods", len(lf.Mods))
		return nil
	}

	src, err := portalSource()
	if err != nil {
		return err
	}

	resolver := resolve.New(src, resolve.Options{NodeBudget: budget})

	var result *resolve.Result
	err = output.RunWithSpinner(ctx, "Resolving dependencies...", func() error {
		var rerr error
		result, rerr = resolver.Resolve(ctx, m)
		return rerr
	})
	if err != nil {
		return err
	}

	lf := lockfile.New(result, m.Checksum())
	path := GetConfig().Lockfile
	if err := lf.Save(path); err != nil {
		return err
	}

	for _, name := range result.Names() {
		sel := result.Mods[name]
		output.Println(fmt.Sprintf("  %s %s",
			output.StyleNoun.Render(name), sel.Version))
	}
	output.Info("lockfile written", "path", path, "mods", len(lf.Mods))
	return nil
}
