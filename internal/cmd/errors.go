package cmd

import (
	oerrors "github.com/tsxform/cli/internal/errors"
)

// Exit codes, re-exported from internal/errors.
const (
	ExitSuccess         = oerrors.ExitSuccess
	ExitGeneralError    = oerrors.ExitGeneralError
	ExitValidationError = oerrors.ExitValidationError
)

// ExitError is the error type carrying a process exit code.
type ExitError = oerrors.ExitError

// NewExitError creates a new ExitError with the given error and exit code.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{Err: err, Code: code}
}

// ExitCodeFromError determines the appropriate exit code for an error.
func ExitCodeFromError(err error) int {
	return oerrors.ExitCodeFromError(err)
}

// printedExit wraps an error the command already reported, so main only sets
// the exit code.
func printedExit(err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Err: err, Code: ExitCodeFromError(err), Printed: true}
}
