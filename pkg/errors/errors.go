// Package errors provides structured error handling for the application.
// Every failure surfaced by the planning pipeline is an *AppError whose code
// tells the caller whether to try again or to fix the input.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode represents an error code
type ErrorCode string

// Pipeline error codes
const (
	// Fix-your-input failures
	CodeConfiguration         ErrorCode = "CONFIGURATION_ERROR"
	CodeUnparsableModelOutput ErrorCode = "UNPARSABLE_MODEL_OUTPUT"
	CodeSchemaMismatch        ErrorCode = "SCHEMA_MISMATCH"
	CodeNotFound              ErrorCode = "NOT_FOUND"
	CodeConflict              ErrorCode = "CONFLICT"
	CodeValidationFailed      ErrorCode = "VALIDATION_FAILED"

	// Try-again failures
	CodeModelUnavailable   ErrorCode = "MODEL_UNAVAILABLE"
	CodePersistenceFailure ErrorCode = "PERSISTENCE_FAILURE"
	CodeRateLimited        ErrorCode = "RATE_LIMITED"

	CodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Failure classes reported to callers
const (
	ClassRetry    = "retry"
	ClassFixInput = "fix_input"
)

// AppError represents an application error with structured information
type AppError struct {
	Code     ErrorCode              `json:"code"`
	Message  string                 `json:"message"`
	Details  string                 `json:"details,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Cause    error                  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the same request may succeed if repeated unchanged.
func (e *AppError) Retryable() bool {
	switch e.Code {
	case CodeModelUnavailable, CodePersistenceFailure, CodeRateLimited, CodeInternal:
		return true
	default:
		return false
	}
}

// Class returns ClassRetry or ClassFixInput
func (e *AppError) Class() string {
	if e.Retryable() {
		return ClassRetry
	}
	return ClassFixInput
}

// ExitCode maps the error to a process exit status for command line tools
func (e *AppError) ExitCode() int {
	switch e.Code {
	case CodeConfiguration:
		return 78
	case CodeNotFound:
		return 4
	case CodeConflict:
		return 5
	case CodeValidationFailed:
		return 2
	default:
		if e.Retryable() {
			return 75
		}
		return 1
	}
}

// WithMetadata adds metadata to the error
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// WithCause adds a cause error
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message, details string) *AppError {
	return &AppError{Code: code, Message: message, Details: details}
}

// NewConfigurationError reports missing or invalid settings, such as absent
// model credentials.
func NewConfigurationError(details string) *AppError {
	return NewAppError(CodeConfiguration, "Configuration error", details)
}

// NewModelUnavailableError reports that no usable text came back from the model.
func NewModelUnavailableError(provider string, cause error) *AppError {
	return NewAppError(
		CodeModelUnavailable,
		"Text generation model unavailable",
		fmt.Sprintf("No usable response from %s: %v", provider, cause),
	).WithCause(cause).WithMetadata("provider", provider)
}

// NewUnparsableOutputError reports model output with no decodable JSON object.
func NewUnparsableOutputError(cause error) *AppError {
	return NewAppError(
		CodeUnparsableModelOutput,
		"Model output is not valid JSON",
		"Neither the full text nor its first balanced object could be decoded",
	).WithCause(cause)
}

// NewSchemaMismatchError reports decoded output missing a mandatory field.
func NewSchemaMismatchError(field string) *AppError {
	return NewAppError(
		CodeSchemaMismatch,
		"Model output does not match the plan schema",
		fmt.Sprintf("Missing or invalid field %q", field),
	).WithMetadata("field", field)
}

// NewPersistenceError creates a persistence failure
func NewPersistenceError(operation string, cause error) *AppError {
	return NewAppError(
		CodePersistenceFailure,
		"Persistence operation failed",
		fmt.Sprintf("Failed to %s", operation),
	).WithCause(cause)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource, id string) *AppError {
	return NewAppError(
		CodeNotFound,
		fmt.Sprintf("%s not found", resource),
		fmt.Sprintf("%s with ID %s does not exist", resource, id),
	).WithMetadata("id", id)
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *AppError {
	return NewAppError(CodeConflict, message, "")
}

// NewValidationError creates a validation error
func NewValidationError(details string) *AppError {
	return NewAppError(CodeValidationFailed, "Validation failed", details)
}

// NewRateLimitedError reports that the local model call budget is exhausted.
func NewRateLimitedError(cause error) *AppError {
	return NewAppError(CodeRateLimited, "Model call rate exceeded", "").WithCause(cause)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return NewAppError(CodeInternal, message, "")
}

// Wrap wraps an error as an internal error if it's not already an AppError
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	return NewInternalError(message).WithCause(err)
}

// Is checks if an error is of a specific error code
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// ErrorResponse is the JSON envelope written for failed operations
type ErrorResponse struct {
	OK    bool         `json:"ok"`
	Error ErrorDetails `json:"error"`
}

// ErrorDetails represents the error details in responses
type ErrorDetails struct {
	Code      ErrorCode              `json:"code"`
	Class     string                 `json:"class"`
	Retryable bool                   `json:"retryable"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// ToErrorResponse converts an AppError to a response envelope
func ToErrorResponse(err *AppError) ErrorResponse {
	return ErrorResponse{
		OK: false,
		Error: ErrorDetails{
			Code:      err.Code,
			Class:     err.Class(),
			Retryable: err.Retryable(),
			Message:   err.Message,
			Details:   err.Details,
			Metadata:  err.Metadata,
			Timestamp: time.Now().UTC(),
		},
	}
}
