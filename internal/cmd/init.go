package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cliftontoaster-reid/furrctorio/internal/manifest"
	"github.com/cliftontoaster-reid/furrctorio/internal/output"
)

const manifestTemplate = `# furrctorio mod manifest
#
# Declare the mods the server should run and the versions you accept.
# Run 'furrctorio resolve' to pin exact versions into the lockfile,
# then 'furrctorio apply' to install them.

metadata:
  version: %d
  factorio_version: "%s"

mods: []
  # - name: flib
  #   version: ">= 0.12.0"
  # - name: Krastorio2
  #   version: "*"
  #   enabled: false
`

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	var factorioFlag string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new mod manifest",
		Long: `Create a starter manifest in the configured location.

The manifest declares the desired mod set; it is the only file you edit
by hand. Refuses to overwrite an existing manifest.

Examples:
  furrctorio init
  furrctorio init --factorio 2.0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return wrapExit(runInit(factorioFlag))
		},
	}

	cmd.Flags().StringVar(&factorioFlag, "factorio", "1.1",
		"Base-game version line the server runs")

	return cmd
}

func runInit(factorioVersion string) error {
	path := GetConfig().Manifest

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("manifest %s already exists", path)
	}

	content := fmt.Sprintf(manifestTemplate, manifest.FormatVersion, factorioVersion)
	if _, err := manifest.Parse([]byte(content)); err != nil {
		return fmt.Errorf("generated manifest is invalid: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	output.Info("manifest created", "path", path)
	return nil
}
