package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsxform/cli/internal/classify"
	"github.com/tsxform/cli/internal/cmdtypes"
	"github.com/tsxform/cli/internal/cmdutil"
	oerrors "github.com/tsxform/cli/internal/errors"
	"github.com/tsxform/cli/internal/output"
	"github.com/tsxform/cli/internal/watch"
)

type renameOptions struct {
	source   cmdutil.SourceFlags
	classify cmdutil.ClassifyFlags
	watch    cmdutil.WatchFlags
}

// NewRenameCmd creates the rename-to-jsx command.
func NewRenameCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var opts renameOptions

	c := &cobra.Command{
		Use:   "rename-to-jsx",
		Short: "Rename .js and .ts files that contain markup to .jsx and .tsx",
		Long: `Rename files that contain markup in place.

Every .js and .ts file under --src is parsed; files that contain at least one
markup element or fragment are renamed to .jsx and .tsx. Declaration files
are left alone.`,
		Example: `  tsxform rename-to-jsx --src dist`,
		Args:    cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return runRename(c, cfg, &opts)
		},
	}

	opts.source.AddTo(c, "")
	opts.classify.AddTo(c)
	opts.watch.AddTo(c)

	return c
}

func runRename(c *cobra.Command, cfg *cmdtypes.GlobalConfig, opts *renameOptions) error {
	if opts.source.Version {
		return printVersion(c, cfg)
	}
	if opts.source.Src == "" {
		return NewExitError(oerrors.NewValidationError("--src is required", "", "Pass the directory to rename in with --src."), ExitValidationError)
	}
	if info, err := os.Stat(opts.source.Src); err != nil || !info.IsDir() {
		err := oerrors.NewMissingSourceError(opts.source.Src)
		return NewExitError(err, ExitGeneralError)
	}

	settings := cfg.Settings()
	logger := output.Logger()
	msgs := output.RenameMessages(opts.source.Witty)
	classifier := classify.New(settings.StrictClassify, logger)

	rename := func(ctx context.Context) error {
		var report *classify.Report
		err := output.RunWithSpinner(ctx, func() error {
			var runErr error
			report, runErr = classifier.Classify(ctx, opts.source.Src)
			return runErr
		}, output.WithTitle(msgs.Start))
		if err != nil {
			cmdutil.PrintRunError(logger, c.ErrOrStderr(), msgs.Failure, err)
			return err
		}
		cmdutil.PrintRenameReport(logger, msgs.Success, report)
		return nil
	}

	logger.Info(msgs.Start, "src", output.StyleNoun.Render(opts.source.Src))
	if !opts.source.Watch {
		return printedExit(rename(c.Context()))
	}

	return watchAndRebuild(c.Context(), watch.Options{
		Root:     opts.source.Src,
		Debounce: settings.Debounce,
		Message:  msgs.Rebuild,
		Log:      logger,
	}, rename)
}
