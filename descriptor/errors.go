package descriptor

import (
	"fmt"
	"strings"
)

// Stable error codes for descriptor loading and argument validation.
// The codes are machine-readable identifiers; rendering them into
// localized, human-facing text is a concern of the surrounding tooling.
const (
	// CodeNotFound indicates no descriptor file exists for the
	// requested plugin across all search roots.
	CodeNotFound = "DDL_NOT_FOUND"

	// CodeParseError indicates the descriptor file is not a wellformed
	// YAML statement sequence.
	CodeParseError = "DDL_PARSE_ERROR"

	// CodeMalformed indicates a registration primitive was invoked
	// with missing or invalid properties, or outside a valid context.
	CodeMalformed = "MALFORMED_DESCRIPTOR"

	// CodeUnsupportedRequirement indicates a requires statement named
	// an unrecognized requirement kind.
	CodeUnsupportedRequirement = "UNSUPPORTED_REQUIREMENT"

	// CodeVersionTooOld indicates the host platform version does not
	// meet a descriptor's declared minimum.
	CodeVersionTooOld = "VERSION_TOO_OLD"

	// CodeValidationFailed indicates a runtime argument value failed
	// its declared type, length, pattern or membership check.
	CodeValidationFailed = "VALIDATION_FAILED"

	// CodeValidatorNotFound indicates a declared type has no
	// registered validator. This is a configuration error, not a
	// defect in the descriptor or the supplied value.
	CodeValidatorNotFound = "VALIDATOR_NOT_FOUND"
)

// Error is the structured error type for descriptor operations.
// It carries a stable Code, the plugin the operation concerned, the
// offending key where one exists, and the underlying cause.
type Error struct {
	// Code is one of the Code* constants.
	Code string

	// Plugin is the plugin name the operation concerned, when known.
	Plugin string

	// Kind is the plugin kind (e.g. "agent"), when known.
	Kind string

	// Key names the metadata key, input property or argument the
	// error concerns, when one exists.
	Key string

	// Message is a human-readable description of the failure.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// newError creates an Error with the given code and formatted message.
func newError(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithPlugin records the plugin the error concerns.
// It returns the same error for chaining.
func (e *Error) WithPlugin(name, kind string) *Error {
	e.Plugin = name
	e.Kind = kind
	return e
}

// WithKey records the offending key.
// It returns the same error for chaining.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithCause records the underlying error.
// It returns the same error for chaining.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// Error implements the error interface.
// It formats as: "ddl [CODE] kind/plugin: message: cause".
func (e *Error) Error() string {
	var parts []string

	head := fmt.Sprintf("ddl [%s]", e.Code)
	if e.Plugin != "" {
		head += " " + e.Kind + "/" + e.Plugin
	}
	parts = append(parts, head)

	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause, enabling errors.Is and
// errors.As across wrapped errors.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches two Errors by Code, so callers can test for a failure
// class with errors.Is(err, &Error{Code: CodeNotFound}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}
