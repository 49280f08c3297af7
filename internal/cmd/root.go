// Package cmd provides CLI command implementations.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	configcmd "github.com/tsxform/cli/internal/cmd/config"
	"github.com/tsxform/cli/internal/cmdtypes"
	"github.com/tsxform/cli/internal/cmdutil"
	"github.com/tsxform/cli/internal/config"
	"github.com/tsxform/cli/internal/output"
)

// rootFlags holds the global flags.
type rootFlags struct {
	config     string
	verbose    bool
	timestamps bool
}

// NewRootCmd creates the root command for the tsxform CLI.
func NewRootCmd() *cobra.Command {
	var flags rootFlags
	cfg := &cmdtypes.GlobalConfig{}

	rootCmd := &cobra.Command{
		Use:   "tsxform",
		Short: "Transform TypeScript source trees into JavaScript",
		Long: `tsxform mirrors a TypeScript source tree into an output tree: sources are
transformed to JavaScript, declaration files are generated next to them and
every other file is copied as is.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initializeGlobals(cmd, cfg, flags)
		},
	}

	rootCmd.PersistentFlags().StringVar(&flags.config, "config", "", "Path to config file (env: TSXFORM_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&flags.timestamps, cmdutil.FlagTimestamps, config.DefaultTimestamps, "Show timestamps in log output (env: TSXFORM_LOG_TIMESTAMPS)")

	rootCmd.AddCommand(NewTransformCmd(cfg))
	rootCmd.AddCommand(NewRenameCmd(cfg))
	rootCmd.AddCommand(configcmd.NewConfigCmd(cfg))
	rootCmd.AddCommand(NewVersionCmd(cfg))

	return rootCmd
}

// initializeGlobals loads and resolves configuration, then sets up logging.
func initializeGlobals(cmd *cobra.Command, cfg *cmdtypes.GlobalConfig, flags rootFlags) error {
	pathResult, err := config.ResolveConfigPath(flags.config)
	if err != nil {
		return fmt.Errorf("resolving config path: %w", err)
	}
	configPath, _ := pathResult.Value.(string)

	loaded := &config.Config{}
	if !skipConfigCheck(cmd) {
		if err := vetConfigFile(configPath); err != nil {
			return NewExitError(err, ExitCodeFromError(err))
		}
		loaded, err = config.NewLoader().Load(configPath)
		if err != nil {
			return NewExitError(err, ExitGeneralError)
		}
	}

	resolved, err := config.Resolve(config.ResolveOptions{
		ConfigFlag: flags.config,
		Flags:      cmdutil.ConfigOverrides(cmd),
		Config:     loaded,
	})
	if err != nil {
		return NewExitError(err, ExitCodeFromError(err))
	}

	cfg.Config = loaded
	cfg.Resolved = resolved
	cfg.ConfigPath = configPath
	cfg.Verbose = flags.verbose

	output.SetupLogging(output.LogConfig{
		Verbose:    flags.verbose,
		Timestamps: output.BoolPtr(resolved.Timestamps),
	})

	output.Debug("initializing CLI", "config", configPath, "source", pathResult.Source)
	config.LogResolvedValues(output.Logger(), resolved.Values)
	return nil
}

// vetConfigFile validates the config file when one exists.
func vetConfigFile(path string) error {
	exists, err := config.ConfigFileExists(path)
	if err != nil || !exists {
		return err
	}
	validator, err := config.NewValidator()
	if err != nil {
		return err
	}
	if err := validator.ValidateFile(path); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// skipConfigCheck reports whether cmd or one of its parents handles the
// config file itself.
func skipConfigCheck(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[cmdtypes.AnnotationSkipConfigCheck] == "true" {
			return true
		}
	}
	return false
}
