package jobcontext

import "fmt"

// ContextError represents errors that occur during job context operations
type ContextError struct {
	Type    string // Type of error (invalid_path, file_error, not_found, etc.)
	Message string // Human-readable error message
	Err     error  // Underlying error
	Context string // Additional context (path, file, etc.)
}

func (e *ContextError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("context error (%s) for %s: %s", e.Type, e.Context, e.Message)
	}
	return fmt.Sprintf("context error (%s): %s", e.Type, e.Message)
}

func (e *ContextError) Unwrap() error {
	return e.Err
}

// IsInvalidPathError checks if the error is a rejected context path
func IsInvalidPathError(err error) bool {
	if ctxErr, ok := err.(*ContextError); ok {
		return ctxErr.Type == "invalid_path"
	}
	return false
}

// IsNotFoundError checks if the error is a missing file or directory
func IsNotFoundError(err error) bool {
	if ctxErr, ok := err.(*ContextError); ok {
		return ctxErr.Type == "not_found"
	}
	return false
}

// IsFileError checks if the error is a filesystem failure
func IsFileError(err error) bool {
	if ctxErr, ok := err.(*ContextError); ok {
		return ctxErr.Type == "file_error"
	}
	return false
}
