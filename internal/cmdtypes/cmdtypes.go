// Package cmdtypes provides shared types for the cmd package and its sub-packages.
// It is separate from internal/cmd to avoid import cycles between internal/cmd
// and its sub-packages (internal/cmd/config).
package cmdtypes

import (
	"github.com/tsxform/cli/internal/config"
	oerrors "github.com/tsxform/cli/internal/errors"
)

// GlobalConfig holds CLI-wide configuration resolved during PersistentPreRunE.
// It is populated once at startup and passed explicitly into every sub-command
// constructor.
type GlobalConfig struct {
	// Config is the loaded config file (empty when no file exists).
	Config *config.Config

	// Resolved holds the effective settings after flag > env > config > default.
	Resolved *config.ResolvedConfig

	ConfigPath string // resolved --config path
	Verbose    bool
}

// Settings returns the effective settings, or the defaults when resolution
// has not run.
func (g *GlobalConfig) Settings() config.Settings {
	if g == nil || g.Resolved == nil {
		return config.Settings{
			Timestamps:     config.DefaultTimestamps,
			Debounce:       config.DefaultDebounce,
			Classify:       config.DefaultClassify,
			StrictClassify: config.DefaultStrictClassify,
			Concurrency:    config.DefaultConcurrency,
			EngineTimeout:  config.DefaultEngineTimeout,
		}
	}
	return g.Resolved.Settings
}

// Exit codes, aliased from internal/errors.
const (
	ExitSuccess         = oerrors.ExitSuccess
	ExitGeneralError    = oerrors.ExitGeneralError
	ExitValidationError = oerrors.ExitValidationError
)

// ExitError is a type alias to internal/errors.ExitError.
type ExitError = oerrors.ExitError

// AnnotationSkipConfigCheck marks commands that read the config file on
// their own, so startup does not load or validate it.
const AnnotationSkipConfigCheck = "tsxform/skip-config-check"
