package errors

import "errors"

// Sentinel errors for known conditions.
var (
	// ErrMissingSource indicates the source directory does not exist.
	ErrMissingSource = errors.New("missing source directory")

	// ErrScanIO indicates the source tree could not be enumerated.
	ErrScanIO = errors.New("scan i/o error")

	// ErrCodeTransform indicates the code transform engine rejected a file.
	ErrCodeTransform = errors.New("code transform failure")

	// ErrDeclarationEmit indicates the declaration engine reported diagnostics.
	ErrDeclarationEmit = errors.New("declaration emit failure")

	// ErrClassifyParse indicates a file could not be parsed for markup detection.
	ErrClassifyParse = errors.New("classify parse error")

	// ErrRollback indicates the output directory could not be removed after a
	// failed run. The output tree is left in an unknown state.
	ErrRollback = errors.New("rollback failure")

	// ErrValidation indicates a configuration validation failure.
	ErrValidation = errors.New("validation error")

	// ErrNotFound indicates a file, binary or directory was not found.
	ErrNotFound = errors.New("not found")
)
