package codegen

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tailscale/hujson"
)

// JSX modes understood by Options.JSX.
const (
	JSXPreserve  = "preserve"
	JSXTransform = "transform"
	JSXAutomatic = "automatic"
)

// Options configures the code transform engine. The zero value is not
// useful; start from DefaultOptions.
type Options struct {
	// Target is the language level of the output ("esnext", "es2020", ...).
	Target string `json:"target,omitempty"`

	// Format is the module format ("", "esm", "cjs", "iife"). Empty keeps the
	// module syntax of the input.
	Format string `json:"format,omitempty"`

	// JSX selects how markup is emitted. Preserve keeps it for a later
	// toolchain and is what makes the classify pass meaningful.
	JSX string `json:"jsx,omitempty"`

	JSXFactory      string `json:"jsxFactory,omitempty"`
	JSXFragment     string `json:"jsxFragment,omitempty"`
	JSXImportSource string `json:"jsxImportSource,omitempty"`

	// Sourcemap is "none" or "inline".
	Sourcemap string `json:"sourcemap,omitempty"`

	Minify bool `json:"minify,omitempty"`

	// Define replaces global identifiers with constant expressions.
	Define map[string]string `json:"define,omitempty"`
}

// DefaultOptions returns the built-in transform options.
func DefaultOptions() Options {
	return Options{
		Target:    "esnext",
		JSX:       JSXPreserve,
		Sourcemap: "none",
	}
}

// Validate checks enumerated fields.
func (o Options) Validate() error {
	switch o.JSX {
	case JSXPreserve, JSXTransform, JSXAutomatic:
	default:
		return fmt.Errorf("jsx: unknown mode %q (valid: preserve, transform, automatic)", o.JSX)
	}
	switch o.Format {
	case "", "esm", "cjs", "iife":
	default:
		return fmt.Errorf("format: unknown format %q (valid: esm, cjs, iife)", o.Format)
	}
	switch o.Sourcemap {
	case "", "none", "inline":
	default:
		return fmt.Errorf("sourcemap: unknown value %q (valid: none, inline)", o.Sourcemap)
	}
	if _, ok := targets[strings.ToLower(o.Target)]; !ok {
		return fmt.Errorf("target: unknown target %q", o.Target)
	}
	return nil
}

// LoadOptions reads a transform options file and layers it over
// DefaultOptions. The file is JSON and may contain comments and trailing
// commas. An empty path returns the defaults.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	if path == "" {
		return opts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("reading transform config: %w", err)
	}
	std, err := hujson.Standardize(data)
	if err != nil {
		return opts, fmt.Errorf("parsing transform config %s: %w", path, err)
	}
	if err := json.Unmarshal(std, &opts); err != nil {
		return opts, fmt.Errorf("decoding transform config %s: %w", path, err)
	}
	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("transform config %s: %w", path, err)
	}
	return opts, nil
}
