package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cliftontoaster-reid/furrctorio/internal/apply"
	"github.com/cliftontoaster-reid/furrctorio/internal/lockfile"
	"github.com/cliftontoaster-reid/furrctorio/internal/output"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	var fullFlag bool

	cmd := &cobra.Command{
		Use:   "status [manifest]",
		Short: "Show manifest, lockfile, and directory state",
		Long: `Report whether the lockfile matches the manifest and whether the mods
directory matches the lockfile.

The directory check normally uses the state marker written by the last
apply, which is instant. With --full every installed archive is
checksummed instead, catching files modified behind the marker's back.

Exit codes:
  0  everything in sync
  3  the lockfile is stale against the manifest

Examples:
  furrctorio status
  furrctorio status --full`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wrapExit(runStatus(args, fullFlag))
		},
	}

	cmd.Flags().BoolVar(&fullFlag, "full", false,
		"Checksum every installed archive instead of trusting the state marker")

	return cmd
}

func runStatus(args []string, full bool) error {
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
	output.Info("lockfile matches the manifest", "mods", len(lf.Mods))

	dir := modsDir(m)
	checksum, err := lf.Checksum()
	if err != nil {
		return err
	}

	if !full {
		if apply.ReadMarker(dir) == checksum {
			output.Info("mods directory up to date", "dir", dir)
			return nil
		}
		output.Warn("mods directory was not applied from this lockfile", "dir", dir)
	}

	installed, err := apply.Scan(dir)
	if err != nil {
		return err
	}
	actions := lockfile.Diff(lf, installed)
	if len(actions) == 0 {
		output.Info("mods directory up to date", "dir", dir)
		return nil
	}

	output.Print(renderActions(actions))
	output.Println(output.StyleSummary.Render(
		fmt.Sprintf("%s, run 'furrctorio apply'", summarizeActions(actions))))
	return nil
}
