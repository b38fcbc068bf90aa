package script

import "fmt"

// ScriptError represents errors that occur while parsing or serializing
// script descriptions
type ScriptError struct {
	Type    string // Type of error (xml_parse_error, invalid_input, etc.)
	Message string // Human-readable error message
	Err     error  // Underlying error
	Context string // Additional context (script id, element name, etc.)
}

func (e *ScriptError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("script error (%s) for %s: %s", e.Type, e.Context, e.Message)
	}
	return fmt.Sprintf("script error (%s): %s", e.Type, e.Message)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

// IsXMLParseError checks if the error is related to malformed XML
func IsXMLParseError(err error) bool {
	if scriptErr, ok := err.(*ScriptError); ok {
		return scriptErr.Type == "xml_parse_error"
	}
	return false
}

// IsInvalidInputError checks if the error is related to invalid input
func IsInvalidInputError(err error) bool {
	if scriptErr, ok := err.(*ScriptError); ok {
		return scriptErr.Type == "invalid_input"
	}
	return false
}
