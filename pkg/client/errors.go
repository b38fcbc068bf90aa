package client

import (
	"errors"
	"fmt"
)

// ClientError represents errors that occur during web service operations
type ClientError struct {
	Type    string // Type of error (authentication_error, api_error, etc.)
	Message string // Human-readable error message
	Err     error  // Underlying error
	Context string // Additional context (job id, request URL, etc.)
}

func (e *ClientError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("pipeline client error (%s) for %s: %s", e.Type, e.Context, e.Message)
	}
	return fmt.Sprintf("pipeline client error (%s): %s", e.Type, e.Message)
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// IsAuthenticationError checks if the error is related to authentication
func IsAuthenticationError(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == "authentication_error"
	}
	return false
}

// IsNotFoundError checks if the error is related to a resource not being found
func IsNotFoundError(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == "not_found"
	}
	return false
}

// IsAPIError checks if the error is an unexpected service response
func IsAPIError(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == "api_error"
	}
	return false
}

// IsConnectionError checks if the error is a transport failure
func IsConnectionError(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == "connection_error"
	}
	return false
}

// IsInvalidInputError checks if the error is an invalid input error
func IsInvalidInputError(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == "invalid_input"
	}
	return false
}

// IsParseError checks if the error is a response parsing error
func IsParseError(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == "parse_error"
	}
	return false
}
