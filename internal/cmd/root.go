package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cliftontoaster-reid/furrctorio/internal/config"
	"github.com/cliftontoaster-reid/furrctorio/internal/output"
	"github.com/cliftontoaster-reid/furrctorio/internal/portal"
)

var (
	// Global flags
	configFlag     string
	modsDirFlag    string
	manifestFlag   string
	lockfileFlag   string
	mirrorFlag     string
	verboseFlag    bool
	timestampsFlag bool

	// Resolved configuration (loaded during PersistentPreRunE)
	cliConfig *config.Config
)

// NewRootCmd creates the root command for the furrctorio CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "furrctorio",
		Short: "Factorio server mod manager",
		Long: `furrctorio manages the mod set of a headless Factorio server.

Mods and version constraints are declared in a manifest, resolved into a
lockfile pinning exact versions and checksums, and installed into the
server's mods directory as one atomic transaction.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeGlobals(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to config file (env: FURRCTORIO_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&modsDirFlag, "mods-dir", "", "Server mods directory (env: FURRCTORIO_MODS_DIR)")
	rootCmd.PersistentFlags().StringVar(&manifestFlag, "manifest", "", "Path to the mod manifest (env: FURRCTORIO_MANIFEST)")
	rootCmd.PersistentFlags().StringVar(&lockfileFlag, "lockfile", "", "Path to the lockfile (env: FURRCTORIO_LOCKFILE)")
	rootCmd.PersistentFlags().StringVar(&mirrorFlag, "mirror", "", "Local portal mirror directory (env: FURRCTORIO_MIRROR_DIR)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&timestampsFlag, "timestamps", true, "Show timestamps in log output")

	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewResolveCmd())
	rootCmd.AddCommand(NewApplyCmd())
	rootCmd.AddCommand(NewDiffCmd())
	rootCmd.AddCommand(NewStatusCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// initializeGlobals loads configuration and sets up logging. Flags win over
// environment variables, which win over the config file.
func initializeGlobals(cmd *cobra.Command) error {
	cfg, err := config.NewLoader().LoadWithDefaults(configFlag)
	if err != nil {
		return err
	}

	if modsDirFlag != "" {
		cfg.ModsDir = modsDirFlag
	}
	if manifestFlag != "" {
		cfg.Manifest = manifestFlag
	}
	if lockfileFlag != "" {
		cfg.Lockfile = lockfileFlag
	}
	if mirrorFlag != "" {
		cfg.Portal.MirrorDir = mirrorFlag
	}
	cliConfig = cfg

	timestamps := cfg.Timestamps()
	if cmd.Flags().Changed("timestamps") {
		timestamps = timestampsFlag
	}
	output.SetupLogging(verboseFlag)
	output.Logger.SetReportTimestamp(timestamps)

	return nil
}

// GetConfig returns the resolved configuration for the current invocation.
func GetConfig() *config.Config {
	if cliConfig == nil {
		return (&config.Config{}).WithDefaults()
	}
	return cliConfig
}

// portalSource builds the portal source from configuration. Only mirror
// directories are supported as a source.
func portalSource() (portal.Source, error) {
	cfg := GetConfig()
	if cfg.Portal.MirrorDir == "" {
		return nil, fmt.Errorf("no portal mirror configured, set --mirror or FURRCTORIO_MIRROR_DIR")
	}
	dir, err := config.ExpandPath(cfg.Portal.MirrorDir)
	if err != nil {
		return nil, err
	}
	return portal.NewFileSource(dir), nil
}
