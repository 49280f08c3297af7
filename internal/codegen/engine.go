// Package codegen runs the code generation pass: every source file is handed
// to a code transform engine and written to the mirrored output path, every
// asset is copied verbatim.
package codegen

import (
	"context"
	"fmt"

	oerrors "github.com/tsxform/cli/internal/errors"
)

// Engine converts one source file into the target dialect.
type Engine interface {
	Transform(ctx context.Context, src []byte, path string, opts Options) ([]byte, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, src []byte, path string, opts Options) ([]byte, error)

// Transform calls f.
func (f EngineFunc) Transform(ctx context.Context, src []byte, path string, opts Options) ([]byte, error) {
	return f(ctx, src, path, opts)
}

// FileError is a failure scoped to one file of the code generation pass.
type FileError struct {
	// Op is "transform", "read", "write" or "copy".
	Op string

	// Path is the source path of the file.
	Path string

	// Line and Column locate the problem when the engine reported one (1-based line).
	Line   int
	Column int

	Err error
}

func (e *FileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s %s:%d:%d: %v", e.Op, e.Path, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes the cause; transform failures also match ErrCodeTransform.
func (e *FileError) Unwrap() []error {
	if e.Op == "transform" {
		return []error{oerrors.ErrCodeTransform, e.Err}
	}
	return []error{e.Err}
}
