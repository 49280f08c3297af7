package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tsxform/cli/internal/cmdtypes"
	"github.com/tsxform/cli/internal/cmdutil"
	"github.com/tsxform/cli/internal/codegen"
	"github.com/tsxform/cli/internal/declgen"
	oerrors "github.com/tsxform/cli/internal/errors"
	"github.com/tsxform/cli/internal/output"
	"github.com/tsxform/cli/internal/pipeline"
	"github.com/tsxform/cli/internal/watch"
)

type transformOptions struct {
	source   cmdutil.SourceFlags
	classify cmdutil.ClassifyFlags
	watch    cmdutil.WatchFlags
	engines  cmdutil.EngineFlags

	dist  string
	clean bool
}

// NewTransformCmd creates the transform command.
func NewTransformCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var opts transformOptions

	c := &cobra.Command{
		Use:   "transform",
		Short: "Transform a TypeScript source tree into JavaScript",
		Long: `Transform a TypeScript source tree into a mirrored JavaScript output tree.

Sources (.ts, .tsx) are transformed to JavaScript and declaration files are
generated for them in parallel. Every other file is copied unchanged. After
generation, output files that still contain markup are renamed to .jsx
unless --no-classify is given, in which case .tsx files become .jsx directly.

Any failure removes the output directory.`,
		Example: `  # Transform ./src into ./dist
  tsxform transform

  # Rebuild on every change
  tsxform transform --src app/src --dist app/dist --watch`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return runTransform(c, cfg, &opts)
		},
	}

	opts.source.AddTo(c, "src")
	opts.classify.AddTo(c)
	opts.watch.AddTo(c)
	opts.engines.AddTo(c)
	c.Flags().StringVar(&opts.dist, "dist", "", "Output directory (default: dist next to the source directory)")
	c.Flags().BoolVar(&opts.clean, "clean", false, "Remove the output directory before the first run")

	return c
}

func runTransform(c *cobra.Command, cfg *cmdtypes.GlobalConfig, opts *transformOptions) error {
	if opts.source.Version {
		return printVersion(c, cfg)
	}

	settings := cfg.Settings()
	logger := output.Logger()
	msgs := output.TransformMessages(opts.source.Witty)

	codeOpts, err := codegen.LoadOptions(opts.engines.BabelConfig)
	if err != nil {
		return NewExitError(oerrors.NewValidationError(err.Error(), opts.engines.BabelConfig, "Check the --babelConfig file."), ExitValidationError)
	}

	out := opts.dist
	if out == "" {
		out = pipeline.DefaultOut(opts.source.Src)
	}

	tsc := declgen.NewTSCEngine(settings.TSC)
	tsc.Log = logger
	p := pipeline.New(codegen.NewESBuildEngine(), tsc, nil)

	runOpts := pipeline.RunOptions{
		Src:            opts.source.Src,
		Out:            out,
		TSConfig:       opts.engines.TSConfig,
		CodeOptions:    &codeOpts,
		Classify:       settings.Classify,
		StrictClassify: settings.StrictClassify,
		Concurrency:    settings.Concurrency,
		EngineTimeout:  settings.EngineTimeout,
		Log:            logger,
	}

	if opts.clean {
		if err := pipeline.Clean(runOpts); err != nil {
			return NewExitError(err, ExitCodeFromError(err))
		}
		logger.Debug("cleaned output directory", "path", out)
	}

	build := func(ctx context.Context) error {
		var result *pipeline.Result
		err := output.RunWithSpinner(ctx, func() error {
			var runErr error
			result, runErr = p.Run(ctx, runOpts)
			return runErr
		}, output.WithTitle(msgs.Start))
		if err != nil {
			cmdutil.PrintRunError(logger, c.ErrOrStderr(), msgs.Failure, err)
			return err
		}
		cmdutil.PrintResult(logger, c.OutOrStdout(), msgs.Success, result, cfg.Verbose)
		return nil
	}

	logger.Info(msgs.Start, "src", output.StyleNoun.Render(opts.source.Src), "dist", output.StyleNoun.Render(out))
	if !opts.source.Watch {
		return printedExit(build(c.Context()))
	}

	return watchAndRebuild(c.Context(), watch.Options{
		Root:     opts.source.Src,
		Debounce: settings.Debounce,
		Ignore:   []string{out},
		Message:  msgs.Rebuild,
		Log:      logger,
	}, build)
}

// watchAndRebuild runs build once, then again after every change until the
// process is interrupted. Failed runs are reported and watching continues.
func watchAndRebuild(parent context.Context, opts watch.Options, build watch.RunFunc) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Run failures keep the watch going; bad input does not.
	if err := build(ctx); err != nil && fatalInWatch(err) {
		return printedExit(err)
	}

	opts.Run = func(ctx context.Context) error {
		// build already reported the failure.
		_ = build(ctx)
		return nil
	}
	session, err := watch.Start(ctx, opts)
	if err != nil {
		return err
	}
	output.Info("watching for changes", "root", output.StyleNoun.Render(opts.Root))

	<-ctx.Done()
	output.Debug("stopping watch")
	stopErr := session.Stop()
	session.Wait()
	return stopErr
}

func fatalInWatch(err error) bool {
	return errors.Is(err, oerrors.ErrMissingSource) || errors.Is(err, oerrors.ErrValidation)
}
