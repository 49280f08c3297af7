// Package errors provides sentinel errors and structured error details for
// the tsxform CLI.
package errors

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// DetailError captures structured error information for human-readable output.
type DetailError struct {
	// Type is the error category (required).
	Type string

	// Message is the specific description (required).
	Message string

	// Location is the file or directory the error refers to (optional).
	Location string

	// Context contains additional key-value context (optional).
	Context map[string]string

	// Hint provides actionable guidance (optional).
	Hint string

	// Cause is the underlying error (optional).
	Cause error
}

// Error implements the error interface.
func (e *DetailError) Error() string {
	var b strings.Builder

	b.WriteString("Error: ")
	b.WriteString(e.Type)
	b.WriteString("\n")

	if e.Location != "" {
		b.WriteString("  Location: ")
		b.WriteString(e.Location)
		b.WriteString("\n")
	}
	for _, k := range slices.Sorted(maps.Keys(e.Context)) {
		b.WriteString("  ")
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(e.Context[k])
		b.WriteString("\n")
	}

	b.WriteString("\n  ")
	b.WriteString(e.Message)
	b.WriteString("\n")

	if e.Hint != "" {
		b.WriteString("\nHint: ")
		b.WriteString(e.Hint)
		b.WriteString("\n")
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *DetailError) Unwrap() error {
	return e.Cause
}

// NewMissingSourceError reports a source directory that does not exist or is
// not a directory.
func NewMissingSourceError(dir string) error {
	return &DetailError{
		Type:     "source directory not found",
		Message:  fmt.Sprintf("source directory %q does not exist", dir),
		Location: dir,
		Hint:     "Pass an existing directory with --src.",
		Cause:    ErrMissingSource,
	}
}

// NewValidationError creates a validation error with details.
func NewValidationError(message, location, hint string) error {
	return &DetailError{
		Type:     "validation failed",
		Message:  message,
		Location: location,
		Hint:     hint,
		Cause:    ErrValidation,
	}
}

// NewOutputConflictError reports an output directory that is, or contains,
// the source directory.
func NewOutputConflictError(src, out string) error {
	return &DetailError{
		Type:     "validation failed",
		Message:  "output directory contains the source directory",
		Location: out,
		Context:  map[string]string{"Source": src},
		Hint:     "Pass a --dist directory outside the source tree's ancestors.",
		Cause:    ErrValidation,
	}
}

// NewNotFoundError creates a not found error with details.
func NewNotFoundError(message, location, hint string) error {
	return &DetailError{
		Type:     "not found",
		Message:  message,
		Location: location,
		Hint:     hint,
		Cause:    ErrNotFound,
	}
}

// Wrap wraps an error with a sentinel error type.
func Wrap(sentinel error, message string) error {
	return fmt.Errorf("%s: %w", message, sentinel)
}
