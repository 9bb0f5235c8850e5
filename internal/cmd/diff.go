package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cliftontoaster-reid/furrctorio/internal/apply"
	"github.com/cliftontoaster-reid/furrctorio/internal/lockfile"
	"github.com/cliftontoaster-reid/furrctorio/internal/output"
)

// NewDiffCmd creates the diff command.
func NewDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff [manifest]",
		Short: "Show what apply would change",
		Long: `Compare the mods directory against the lockfile.

Every installed archive is checksummed and compared with the lockfile's
pinned versions. The output lists the installs, upgrades, downgrades,
and removes a subsequent 'furrctorio apply' would perform. Nothing is
fetched and nothing is modified.

Examples:
  furrctorio diff`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wrapExit(runDiff(args))
		},
	}
	return cmd
}

func runDiff(args []string) error {
	m, err := loadManifest(args)
	if err != nil {
		return err
	}
	lf, err := loadLockfile()
	if err != nil {
		return err
	}

	dir := modsDir(m)
	installed, err := apply.Scan(dir)
	if err != nil {
		return err
	}

	actions := lockfile.Diff(lf, installed)
	if len(actions) > 0 {
		output.Print(renderActions(actions))
	}
	output.Println(output.StyleSummary.Render(summarizeActions(actions)))
	return nil
}
