package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsxform/cli/internal/cmdtypes"
	"github.com/tsxform/cli/internal/version"
)

// NewVersionCmd creates the version command.
func NewVersionCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Show tsxform version information.

Displays:
  - tsxform version, commit, and build date
  - esbuild version (embedded in the CLI)
  - TypeScript compiler used for declarations`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return printVersion(c, cfg)
		},
	}
}

func printVersion(c *cobra.Command, cfg *cmdtypes.GlobalConfig) error {
	tsc := version.DetectTSC(cfg.Settings().TSC)
	fmt.Fprintln(c.OutOrStdout(), version.FullVersionString(version.GetInfo(), tsc))
	return nil
}
