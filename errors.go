package fieldmap

import (
	"errors"
	"fmt"
)

// Sentinel errors for fieldmap. Use errors.Is to check.
var (
	ErrToolNotFound = errors.New("tool not found")
	ErrTimeout      = errors.New("tool execution timeout")
	ErrValidation   = errors.New("validation failed")
	ErrShutdown     = errors.New("registry is shutting down")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidInput reports a missing or non-record source or mapping.
	ErrInvalidInput = errors.New("invalid input")
	// ErrMissingField reports a mapped source field absent from the source record.
	// Only returned when WithStrictLookup is set.
	ErrMissingField = errors.New("source field not found")
	// ErrUnexpected reports a failure recovered while reading the source or writing the result.
	ErrUnexpected = errors.New("unexpected transform failure")
)

// ClientError is an error whose Reason is returned to the caller as-is
// (invalid JSON, schema validation failure, nil record, and so on).
// Do not put stack traces or internal details into Reason.
// Err optionally wraps a sentinel (e.g. ErrValidation) for errors.Is/errors.As.
type ClientError struct {
	Reason string
	// Retryable is set by the application (not by fieldmap). When true, the orchestrator
	// may retry the same call without changing arguments.
	Retryable bool
	Err       error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("invalid tool input: %s", e.Reason)
}

// Unwrap supports errors.Is/errors.As on wrapped chains (e.g. errors.Is(err, ErrValidation)).
func (e *ClientError) Unwrap() error { return e.Err }

// SystemError represents an internal failure (panic, encoding failure, etc.).
// The caller should not see the underlying error message.
type SystemError struct {
	Err error
}

func (e *SystemError) Error() string {
	return "internal system error during tool execution"
}

func (e *SystemError) Unwrap() error { return e.Err }

// TransformError is returned by Transform. Field is the target field being produced
// when the failure happened, empty for whole-input failures.
type TransformError struct {
	Field  string
	Reason string
	Err    error
}

func (e *TransformError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("transform %q: %s", e.Field, e.Reason)
	}
	return "transform: " + e.Reason
}

func (e *TransformError) Unwrap() error { return e.Err }

// IsClientError returns true if err is or wraps a ClientError.
func IsClientError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce)
}

// IsSystemError returns true if err is or wraps a SystemError.
func IsSystemError(err error) bool {
	var se *SystemError
	return errors.As(err, &se)
}

// wrapJSONParseError returns a ClientError for JSON unmarshal failures.
// Used by Extractor.ParseAndValidate and NewDynamicTool so parse errors are consistent.
func wrapJSONParseError(err error) error {
	return &ClientError{Reason: "json parse error: " + err.Error(), Err: ErrInvalidInput}
}
