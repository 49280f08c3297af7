// Package config provides configuration loading and management.
package config

import "time"

// Built-in defaults.
const (
	DefaultTimestamps     = true
	DefaultDebounce       = 500 * time.Millisecond
	DefaultClassify       = true
	DefaultStrictClassify = false
	DefaultConcurrency    = 0
	DefaultEngineTimeout  = time.Duration(0)
)

// LogConfig contains logging-related settings.
type LogConfig struct {
	// Timestamps controls whether timestamps are shown in log output.
	// Default: true. Override with --timestamps flag.
	Timestamps *bool `mapstructure:"timestamps"`
}

// WatchConfig contains watch mode settings.
type WatchConfig struct {
	// Debounce is the quiet window after the last change before a rerun.
	// Env: TSXFORM_WATCH_DEBOUNCE, Default: 500ms
	Debounce time.Duration `mapstructure:"debounce"`
}

// TransformConfig contains pipeline settings.
type TransformConfig struct {
	// Classify enables the classify pass after code generation.
	// Env: TSXFORM_TRANSFORM_CLASSIFY, Default: true
	Classify *bool `mapstructure:"classify"`

	// StrictClassify turns classify parse errors into run failures.
	StrictClassify *bool `mapstructure:"strictClassify"`

	// Concurrency bounds per-file work. 0 means one worker per CPU.
	Concurrency int `mapstructure:"concurrency"`
}

// EnginesConfig contains settings for the external engines.
type EnginesConfig struct {
	// TSC is the TypeScript compiler binary. Empty means the package's
	// node_modules/.bin/tsc, then PATH.
	TSC string `mapstructure:"tsc"`

	// Timeout bounds each engine call. 0 disables the timeout.
	Timeout time.Duration `mapstructure:"timeout"`
}

// Config represents the tsxform configuration file.
// Loaded from ~/.tsxform/config.yaml, validated against the embedded CUE schema.
// Unset fields are nil or zero; defaults are applied by Resolve.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Watch     WatchConfig     `mapstructure:"watch"`
	Transform TransformConfig `mapstructure:"transform"`
	Engines   EnginesConfig   `mapstructure:"engines"`
}

// DefaultConfigTemplate is written by `tsxform config init`.
const DefaultConfigTemplate = `# tsxform configuration
#
# Precedence for every value: command-line flag > environment variable >
# this file > built-in default.

log:
  # Show timestamps in log output (env: TSXFORM_LOG_TIMESTAMPS).
  timestamps: true

watch:
  # Quiet window after the last change before a rerun (env: TSXFORM_WATCH_DEBOUNCE).
  debounce: 500ms

transform:
  # Rename output files that contain markup to .jsx (env: TSXFORM_TRANSFORM_CLASSIFY).
  classify: true
  # Fail the run when a file cannot be parsed for markup detection.
  strictClassify: false
  # Parallel per-file workers, 0 = one per CPU (env: TSXFORM_TRANSFORM_CONCURRENCY).
  concurrency: 0

engines:
  # TypeScript compiler used for declarations. Empty = node_modules/.bin/tsc, then PATH.
  # tsc: /usr/local/bin/tsc
  # Per-call engine timeout, 0 = none (env: TSXFORM_ENGINES_TIMEOUT).
  timeout: 0s
`
