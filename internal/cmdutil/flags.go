// Package cmdutil provides shared command utilities for the transform and
// rename-to-jsx commands: flag groups, config overrides taken from flags and
// output helpers for run results.
package cmdutil

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/tsxform/cli/internal/config"
)

// Flag names that override config settings.
const (
	FlagTimestamps     = "timestamps"
	FlagDebounce       = "debounce"
	FlagNoClassify     = "no-classify"
	FlagStrictClassify = "strict-classify"
	FlagConcurrency    = "concurrency"
	FlagTSC            = "tsc"
	FlagEngineTimeout  = "engine-timeout"
)

// SourceFlags holds the flags shared by every command that reads a source
// tree (transform, rename-to-jsx).
type SourceFlags struct {
	Src   string
	Watch bool
	Witty bool

	// Version prints version information instead of running.
	Version bool
}

// AddTo registers the source flags on the given cobra command.
func (f *SourceFlags) AddTo(cmd *cobra.Command, defaultSrc string) {
	cmd.Flags().StringVar(&f.Src, "src", defaultSrc,
		"Source directory")
	cmd.Flags().BoolVarP(&f.Watch, "watch", "w", false,
		"Watch the source directory and re-run on change")
	cmd.Flags().BoolVar(&f.Witty, "witty", false,
		"Use witty progress messages")
	cmd.Flags().BoolVar(&f.Version, "version", false,
		"Print version information and exit")
}

// ClassifyFlags holds the classify pass flags.
type ClassifyFlags struct {
	StrictClassify bool
}

// AddTo registers the classify flags on the given cobra command.
func (f *ClassifyFlags) AddTo(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.StrictClassify, FlagStrictClassify, false,
		"Fail when a file cannot be parsed for markup detection (env: TSXFORM_TRANSFORM_STRICT_CLASSIFY)")
}

// WatchFlags holds watch tuning flags.
type WatchFlags struct {
	Debounce time.Duration
}

// AddTo registers the watch flags on the given cobra command.
func (f *WatchFlags) AddTo(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&f.Debounce, FlagDebounce, config.DefaultDebounce,
		"Quiet window after the last change before a rerun (env: TSXFORM_WATCH_DEBOUNCE)")
}

// EngineFlags holds the code and declaration engine flags of transform.
type EngineFlags struct {
	TSConfig      string
	BabelConfig   string
	NoClassify    bool
	Concurrency   int
	TSC           string
	EngineTimeout time.Duration
}

// AddTo registers the engine flags on the given cobra command.
func (f *EngineFlags) AddTo(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.TSConfig, "tsConfig", "",
		"Declaration config file (default: tsconfig.json next to the source directory)")
	cmd.Flags().StringVar(&f.BabelConfig, "babelConfig", "",
		"Code transform options file (JSON with comments)")
	cmd.Flags().BoolVar(&f.NoClassify, FlagNoClassify, false,
		"Skip markup detection and emit .jsx for every .tsx file (env: TSXFORM_TRANSFORM_CLASSIFY)")
	cmd.Flags().IntVar(&f.Concurrency, FlagConcurrency, config.DefaultConcurrency,
		"Parallel per-file workers, 0 for one per CPU (env: TSXFORM_TRANSFORM_CONCURRENCY)")
	cmd.Flags().StringVar(&f.TSC, FlagTSC, "",
		"TypeScript compiler binary (env: TSXFORM_ENGINES_TSC)")
	cmd.Flags().DurationVar(&f.EngineTimeout, FlagEngineTimeout, config.DefaultEngineTimeout,
		"Bound on each engine call, 0 for none (env: TSXFORM_ENGINES_TIMEOUT)")
}

// ConfigOverrides collects the config overrides the user set explicitly on
// cmd. Flags the command does not define, or that were left at their
// default, are nil.
func ConfigOverrides(cmd *cobra.Command) config.Flags {
	fs := cmd.Flags()
	changed := func(name string) bool {
		f := fs.Lookup(name)
		return f != nil && f.Changed
	}

	var out config.Flags
	if changed(FlagTimestamps) {
		if v, err := fs.GetBool(FlagTimestamps); err == nil {
			out.Timestamps = &v
		}
	}
	if changed(FlagDebounce) {
		if v, err := fs.GetDuration(FlagDebounce); err == nil {
			out.Debounce = &v
		}
	}
	if changed(FlagNoClassify) {
		if v, err := fs.GetBool(FlagNoClassify); err == nil {
			classify := !v
			out.Classify = &classify
		}
	}
	if changed(FlagStrictClassify) {
		if v, err := fs.GetBool(FlagStrictClassify); err == nil {
			out.StrictClassify = &v
		}
	}
	if changed(FlagConcurrency) {
		if v, err := fs.GetInt(FlagConcurrency); err == nil {
			out.Concurrency = &v
		}
	}
	if changed(FlagTSC) {
		if v, err := fs.GetString(FlagTSC); err == nil {
			out.TSC = &v
		}
	}
	if changed(FlagEngineTimeout) {
		if v, err := fs.GetDuration(FlagEngineTimeout); err == nil {
			out.EngineTimeout = &v
		}
	}
	return out
}
