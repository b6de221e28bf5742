package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for council errors.
type ErrorCode string

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
	CONFIG_NOT_FOUND         ErrorCode = "CONFIG_NOT_FOUND"
)

// Credential error codes
const (
	CREDENTIAL_NOT_FOUND ErrorCode = "CREDENTIAL_NOT_FOUND"
)

// Review system error codes. These are infrastructure failures and abort a run.
const (
	REVIEW_FETCH_FAILED   ErrorCode = "REVIEW_FETCH_FAILED"
	REVIEW_PUBLISH_FAILED ErrorCode = "REVIEW_PUBLISH_FAILED"
	REVIEW_UNAUTHORIZED   ErrorCode = "REVIEW_UNAUTHORIZED"
)

// Source validation error codes
const (
	VALIDATION_GIT_FAILED  ErrorCode = "VALIDATION_GIT_FAILED"
	VALIDATION_READ_FAILED ErrorCode = "VALIDATION_READ_FAILED"
)

// Judge error codes
const (
	JUDGE_BUILD_FAILED  ErrorCode = "JUDGE_BUILD_FAILED"
	JUDGE_CALL_FAILED   ErrorCode = "JUDGE_CALL_FAILED"
	JUDGE_PANICKED      ErrorCode = "JUDGE_PANICKED"
	RUN_INVALID_REQUEST ErrorCode = "RUN_INVALID_REQUEST"
)

// Observability error codes
const (
	OBSERVABILITY_EXPORTER_FAILED ErrorCode = "OBSERVABILITY_EXPORTER_FAILED"
	OBSERVABILITY_SHUTDOWN_FAILED ErrorCode = "OBSERVABILITY_SHUTDOWN_FAILED"
)

// CouncilError represents a structured error with error code, message, and optional cause.
// It supports error wrapping and retryability hints for error handling logic.
type CouncilError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *CouncilError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
func (e *CouncilError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
func (e *CouncilError) Is(target error) bool {
	var councilErr *CouncilError
	if errors.As(target, &councilErr) {
		return e.Code == councilErr.Code
	}
	return false
}

// NewError creates a new non-retryable CouncilError with the given code and message.
func NewError(code ErrorCode, message string) *CouncilError {
	return &CouncilError{
		Code:    code,
		Message: message,
	}
}

// NewRetryableError creates a new retryable CouncilError with the given code and message.
// Use this for transient errors that may succeed on retry (e.g., network timeouts).
func NewRetryableError(code ErrorCode, message string) *CouncilError {
	return &CouncilError{
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// WrapError creates a new non-retryable CouncilError that wraps an existing error.
func WrapError(code ErrorCode, message string, cause error) *CouncilError {
	return &CouncilError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf returns the code of the first CouncilError in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var councilErr *CouncilError
	if errors.As(err, &councilErr) {
		return councilErr.Code
	}
	return ""
}
