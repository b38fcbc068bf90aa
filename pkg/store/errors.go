package store

import (
	"errors"
	"fmt"
)

// StoreError represents errors from job persistence operations
type StoreError struct {
	Type    string
	Message string
	Err     error
	Context string
}

func (e *StoreError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("store %s: %s (context: %s)", e.Type, e.Message, e.Context)
	}
	return fmt.Sprintf("store %s: %s", e.Type, e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsInvalidInputError checks if the error is an invalid input error
func IsInvalidInputError(err error) bool {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Type == "invalid_input"
	}
	return false
}

// IsNotFoundError checks if the error is a job not found error
func IsNotFoundError(err error) bool {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Type == "not_found"
	}
	return false
}

// IsFileError checks if the error is a filesystem error
func IsFileError(err error) bool {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Type == "file_error"
	}
	return false
}

// IsVersioningError checks if the error is a git versioning error
func IsVersioningError(err error) bool {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Type == "versioning_error"
	}
	return false
}
