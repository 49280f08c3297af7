package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	oerrors "github.com/tsxform/cli/internal/errors"
)

// ConfigSource indicates where a configuration value came from.
type ConfigSource string

const (
	// SourceFlag indicates value came from command-line flag.
	SourceFlag ConfigSource = "flag"
	// SourceEnv indicates value came from environment variable.
	SourceEnv ConfigSource = "env"
	// SourceConfig indicates value came from config file.
	SourceConfig ConfigSource = "config"
	// SourceDefault indicates value is the built-in default.
	SourceDefault ConfigSource = "default"
)

// Environment variables.
const (
	EnvConfig         = "TSXFORM_CONFIG"
	EnvTimestamps     = "TSXFORM_LOG_TIMESTAMPS"
	EnvDebounce       = "TSXFORM_WATCH_DEBOUNCE"
	EnvClassify       = "TSXFORM_TRANSFORM_CLASSIFY"
	EnvStrictClassify = "TSXFORM_TRANSFORM_STRICT_CLASSIFY"
	EnvConcurrency    = "TSXFORM_TRANSFORM_CONCURRENCY"
	EnvTSC            = "TSXFORM_ENGINES_TSC"
	EnvEngineTimeout  = "TSXFORM_ENGINES_TIMEOUT"
)

// ResolvedValue is one configuration value with its provenance.
type ResolvedValue struct {
	Key    string
	Value  any
	Source ConfigSource
	// Shadowed contains values that were overridden by higher precedence.
	Shadowed map[ConfigSource]any
}

// Flags carries the command-line values that were explicitly set. A nil
// field means the flag was not given.
type Flags struct {
	Timestamps     *bool
	Debounce       *time.Duration
	Classify       *bool
	StrictClassify *bool
	Concurrency    *int
	TSC            *string
	EngineTimeout  *time.Duration
}

// Settings are the effective values used by commands.
type Settings struct {
	Timestamps     bool
	Debounce       time.Duration
	Classify       bool
	StrictClassify bool
	Concurrency    int
	TSC            string
	EngineTimeout  time.Duration
}

// ResolvedConfig holds the effective settings and how each was chosen.
type ResolvedConfig struct {
	Settings

	ConfigPath ResolvedValue
	Values     []ResolvedValue
}

// ResolveOptions contains the inputs of Resolve.
type ResolveOptions struct {
	// ConfigFlag is the --config flag value (empty if not set).
	ConfigFlag string

	Flags Flags

	// Config is the loaded config file (may be nil).
	Config *Config
}

// Resolve applies flag > env > config > default to every setting.
func Resolve(opts ResolveOptions) (*ResolvedConfig, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = &Config{}
	}

	pathResult, err := ResolveConfigPath(opts.ConfigFlag)
	if err != nil {
		return nil, err
	}
	rc := &ResolvedConfig{ConfigPath: pathResult}
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	rc.Timestamps, err = resolve(&rc.Values, "log.timestamps", opts.Flags.Timestamps, EnvTimestamps, strconv.ParseBool,
		cfg.Log.Timestamps, DefaultTimestamps)
	add(err)

	rc.Debounce, err = resolve(&rc.Values, "watch.debounce", opts.Flags.Debounce, EnvDebounce, time.ParseDuration,
		nonZero(cfg.Watch.Debounce), DefaultDebounce)
	add(err)

	rc.Classify, err = resolve(&rc.Values, "transform.classify", opts.Flags.Classify, EnvClassify, strconv.ParseBool,
		cfg.Transform.Classify, DefaultClassify)
	add(err)

	rc.StrictClassify, err = resolve(&rc.Values, "transform.strictClassify", opts.Flags.StrictClassify, EnvStrictClassify, strconv.ParseBool,
		cfg.Transform.StrictClassify, DefaultStrictClassify)
	add(err)

	rc.Concurrency, err = resolve(&rc.Values, "transform.concurrency", opts.Flags.Concurrency, EnvConcurrency, strconv.Atoi,
		nonZero(cfg.Transform.Concurrency), DefaultConcurrency)
	add(err)

	rc.TSC, err = resolve(&rc.Values, "engines.tsc", opts.Flags.TSC, EnvTSC, parseString,
		nonZero(cfg.Engines.TSC), "")
	add(err)

	rc.EngineTimeout, err = resolve(&rc.Values, "engines.timeout", opts.Flags.EngineTimeout, EnvEngineTimeout, time.ParseDuration,
		nonZero(cfg.Engines.Timeout), DefaultEngineTimeout)
	add(err)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if rc.Concurrency < 0 {
		return nil, oerrors.NewValidationError("transform.concurrency must not be negative", "", "")
	}
	if rc.Debounce < 0 || rc.EngineTimeout < 0 {
		return nil, oerrors.NewValidationError("durations must not be negative", "", "")
	}
	return rc, nil
}

// resolve picks the highest-precedence value for key and appends its
// provenance to values.
func resolve[T any](values *[]ResolvedValue, key string, flag *T, env string, parse func(string) (T, error), file *T, def T) (T, error) {
	rv := ResolvedValue{Key: key, Shadowed: make(map[ConfigSource]any)}

	type layer struct {
		source ConfigSource
		value  *T
	}
	layers := []layer{{SourceFlag, flag}}

	if raw, ok := os.LookupEnv(env); ok && raw != "" {
		parsed, err := parse(raw)
		if err != nil {
			var zero T
			return zero, oerrors.NewValidationError(
				fmt.Sprintf("invalid value %q for %s: %v", raw, env, err),
				env,
				"",
			)
		}
		layers = append(layers, layer{SourceEnv, &parsed})
	}
	layers = append(layers, layer{SourceConfig, file}, layer{SourceDefault, &def})

	var result T
	for _, l := range layers {
		if l.value == nil {
			continue
		}
		if rv.Source == "" {
			rv.Source = l.source
			rv.Value = *l.value
			result = *l.value
			continue
		}
		if l.source != SourceDefault {
			rv.Shadowed[l.source] = *l.value
		}
	}

	*values = append(*values, rv)
	return result, nil
}

// nonZero returns nil for the zero value, treating it as unset.
func nonZero[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}
	return &v
}

func parseString(s string) (string, error) {
	return s, nil
}

// ResolveConfigPath resolves the config file path using precedence:
// (1) --config flag, (2) TSXFORM_CONFIG env, (3) ~/.tsxform/config.yaml
func ResolveConfigPath(flagValue string) (ResolvedValue, error) {
	result := ResolvedValue{
		Key:      "config",
		Shadowed: make(map[ConfigSource]any),
	}

	envValue := os.Getenv(EnvConfig)

	paths, err := DefaultPaths()
	if err != nil {
		return result, err
	}
	defaultPath := paths.ConfigFile

	switch {
	case flagValue != "":
		result.Value = flagValue
		result.Source = SourceFlag
		if envValue != "" {
			result.Shadowed[SourceEnv] = envValue
		}
	case envValue != "":
		result.Value = envValue
		result.Source = SourceEnv
	default:
		result.Value = defaultPath
		result.Source = SourceDefault
	}

	return result, nil
}

// LogResolvedValues logs configuration resolution at DEBUG level.
func LogResolvedValues(logger *log.Logger, values []ResolvedValue) {
	for _, v := range values {
		logger.Debug("config value resolved",
			"key", v.Key,
			"value", v.Value,
			"source", v.Source,
		)
		for source, shadowed := range v.Shadowed {
			logger.Debug("  shadowed by higher precedence",
				"key", v.Key,
				"shadowed_source", source,
				"shadowed_value", shadowed,
			)
		}
	}
}
