package config

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsxform/cli/internal/cmdtypes"
	"github.com/tsxform/cli/internal/config"
	"github.com/tsxform/cli/internal/output"
)

// NewConfigVetCmd creates the config vet command.
func NewConfigVetCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "vet",
		Short: "Validate the tsxform configuration file",
		Long: `Validate the tsxform configuration file against the internal schema.

The command validates the configuration file at ~/.tsxform/config.yaml by default.
Use --config flag to specify a different location. With --verbose, the
effective settings and where each one came from are listed.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return runVet(c, cfg)
		},
	}
}

func runVet(c *cobra.Command, cfg *cmdtypes.GlobalConfig) error {
	path, err := configFilePath(cfg)
	if err != nil {
		return err
	}

	exists, err := config.ConfigFileExists(path)
	if err != nil {
		return fmt.Errorf("checking config file: %w", err)
	}
	if !exists {
		return &cmdtypes.ExitError{
			Err:  fmt.Errorf("config file not found: %s", path),
			Code: cmdtypes.ExitGeneralError,
		}
	}

	validator, err := config.NewValidator()
	if err != nil {
		return fmt.Errorf("creating validator: %w", err)
	}

	if err := validator.ValidateFile(path); err != nil {
		var validationErrs config.ValidationErrors
		if errors.As(err, &validationErrs) {
			w := c.ErrOrStderr()
			fmt.Fprintln(w, output.FormatCross("config validation failed"))
			fmt.Fprintf(w, "  File: %s\n\n", path)
			for _, e := range validationErrs {
				fmt.Fprintf(w, "  %s\n", e.Error())
			}
			return &cmdtypes.ExitError{Err: err, Code: cmdtypes.ExitValidationError, Printed: true}
		}
		return fmt.Errorf("validating config: %w", err)
	}

	fmt.Fprintln(c.OutOrStdout(), output.FormatCheckmark("Config file is valid: "+output.StyleNoun.Render(path)))

	if cfg.Verbose {
		loaded, err := config.NewLoader().Load(path)
		if err != nil {
			return err
		}
		resolved, err := config.Resolve(config.ResolveOptions{ConfigFlag: path, Config: loaded})
		if err != nil {
			return &cmdtypes.ExitError{Err: err, Code: cmdtypes.ExitValidationError}
		}
		fmt.Fprintln(c.OutOrStdout(), SettingsTable(resolved.Values))
	}
	return nil
}

// SettingsTable renders resolved settings with their sources.
func SettingsTable(values []config.ResolvedValue) string {
	t := output.NewTable("KEY", "VALUE", "SOURCE")
	for _, v := range values {
		t.Row(v.Key, fmt.Sprint(v.Value), string(v.Source))
	}
	return t.String()
}
