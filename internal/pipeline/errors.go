package pipeline

import (
	"errors"
	"fmt"

	oerrors "github.com/tsxform/cli/internal/errors"
)

// ErrRunActive is returned when a run for the same Key is already in progress.
var ErrRunActive = errors.New("a run for this source and output is already active")

// RollbackError reports that a failed run's output could not be removed.
// It is always joined with the failure that triggered the rollback.
type RollbackError struct {
	Path string
	Err  error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("rolling back %s: %v", e.Path, e.Err)
}

// Unwrap exposes the cause and ErrRollback.
func (e *RollbackError) Unwrap() []error {
	return []error{oerrors.ErrRollback, e.Err}
}
