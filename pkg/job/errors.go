package job

import "fmt"

// JobError represents errors that occur while building, parsing or
// serializing jobs
type JobError struct {
	Type    string // Type of error (xml_parse_error, invalid_input, etc.)
	Message string // Human-readable error message
	Err     error  // Underlying error
	Context string // Additional context (job id, argument name, etc.)
}

func (e *JobError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("job error (%s) for %s: %s", e.Type, e.Context, e.Message)
	}
	return fmt.Sprintf("job error (%s): %s", e.Type, e.Message)
}

func (e *JobError) Unwrap() error {
	return e.Err
}

// IsXMLParseError checks if the error is related to malformed XML
func IsXMLParseError(err error) bool {
	if jobErr, ok := err.(*JobError); ok {
		return jobErr.Type == "xml_parse_error"
	}
	return false
}

// IsInvalidInputError checks if the error is related to invalid input
func IsInvalidInputError(err error) bool {
	if jobErr, ok := err.(*JobError); ok {
		return jobErr.Type == "invalid_input"
	}
	return false
}

// IsFileError checks if the error is a filesystem failure
func IsFileError(err error) bool {
	if jobErr, ok := err.(*JobError); ok {
		return jobErr.Type == "file_error"
	}
	return false
}
