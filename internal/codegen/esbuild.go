package codegen

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

var targets = map[string]api.Target{
	"esnext": api.ESNext,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
}

// ESBuildEngine transforms TypeScript through esbuild's in-process
// transform API. It is safe for concurrent use.
type ESBuildEngine struct{}

// NewESBuildEngine returns the default code transform engine.
func NewESBuildEngine() *ESBuildEngine {
	return &ESBuildEngine{}
}

// Transform implements Engine.
func (e *ESBuildEngine) Transform(ctx context.Context, src []byte, path string, opts Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := api.Transform(string(src), transformOptions(path, opts))
	if len(result.Errors) > 0 {
		return nil, messageError(path, result.Errors)
	}
	return result.Code, nil
}

func transformOptions(path string, opts Options) api.TransformOptions {
	to := api.TransformOptions{
		Loader:          loaderFor(path),
		Sourcefile:      path,
		Target:          targets[strings.ToLower(opts.Target)],
		JSXFactory:      opts.JSXFactory,
		JSXFragment:     opts.JSXFragment,
		JSXImportSource: opts.JSXImportSource,
		Define:          opts.Define,
		LogLevel:        api.LogLevelSilent,
	}
	if to.Target == api.DefaultTarget {
		to.Target = api.ESNext
	}

	switch opts.JSX {
	case JSXTransform:
		to.JSX = api.JSXTransform
	case JSXAutomatic:
		to.JSX = api.JSXAutomatic
	default:
		to.JSX = api.JSXPreserve
	}

	switch opts.Format {
	case "esm":
		to.Format = api.FormatESModule
	case "cjs":
		to.Format = api.FormatCommonJS
	case "iife":
		to.Format = api.FormatIIFE
	}

	if opts.Sourcemap == "inline" {
		to.Sourcemap = api.SourceMapInline
	}

	if opts.Minify {
		to.MinifyWhitespace = true
		to.MinifyIdentifiers = true
		to.MinifySyntax = true
	}
	return to
}

func loaderFor(path string) api.Loader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsx":
		return api.LoaderTSX
	case ".ts", ".mts", ".cts":
		return api.LoaderTS
	case ".jsx":
		return api.LoaderJSX
	default:
		return api.LoaderJS
	}
}

// messageError converts esbuild messages into a FileError located at the
// first message.
func messageError(path string, msgs []api.Message) error {
	first := msgs[0]
	fe := &FileError{Op: "transform", Path: path, Err: errors.New(first.Text)}
	if first.Location != nil {
		fe.Line = first.Location.Line
		fe.Column = first.Location.Column + 1
	}
	if len(msgs) > 1 {
		fe.Err = fmt.Errorf("%s (and %d more)", first.Text, len(msgs)-1)
	}
	return fe
}
