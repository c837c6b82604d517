// Package errors provides coded errors for the failures that end a codesentry run.
//
// Tool failures never surface as errors; they are recorded in the report.
// Only the conditions below terminate the process, and the CLI maps each
// code to an exit status.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a structured error classification.
type ErrorCode string

const (
	// ErrCodeInvalidPath indicates the analysis target is missing or not a directory.
	ErrCodeInvalidPath ErrorCode = "INVALID_PATH"
	// ErrCodeNothingToAnalyze indicates the target holds no source files.
	// It ends the run successfully.
	ErrCodeNothingToAnalyze ErrorCode = "NOTHING_TO_ANALYZE"
	// ErrCodeInvalidConfig indicates an explicitly requested config file could not be used.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeReportWrite indicates the report files could not be written.
	ErrCodeReportWrite ErrorCode = "REPORT_WRITE"
	// ErrCodeUpload indicates the reports could not be published to object storage.
	ErrCodeUpload ErrorCode = "UPLOAD"
)

// StructuredError carries an error code, a human-readable message and the
// underlying cause.
type StructuredError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is and errors.As support.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// New creates a new StructuredError with the given code and message.
func New(code ErrorCode, message string) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a code and message.
func Wrap(code ErrorCode, message string, cause error) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf returns the code of the first StructuredError in err's chain,
// or "" when there is none.
func CodeOf(err error) ErrorCode {
	var se *StructuredError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}

// MessageOf returns the message of the first StructuredError in err's chain,
// falling back to err.Error().
func MessageOf(err error) string {
	var se *StructuredError
	if stderrors.As(err, &se) {
		return se.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
