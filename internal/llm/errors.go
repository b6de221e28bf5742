package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mohamed-services/AgentLang/internal/types"
)

// LLM error codes follow the council error pattern
const (
	// Provider errors
	ErrProviderNotFound      types.ErrorCode = "LLM_PROVIDER_NOT_FOUND"
	ErrProviderInitFailed    types.ErrorCode = "LLM_PROVIDER_INIT_FAILED"
	ErrProviderUnavailable   types.ErrorCode = "LLM_PROVIDER_UNAVAILABLE"
	ErrProviderUnauthorized  types.ErrorCode = "LLM_PROVIDER_UNAUTHORIZED"
	ErrProviderRateLimited   types.ErrorCode = "LLM_PROVIDER_RATE_LIMITED"
	ErrProviderQuotaExceeded types.ErrorCode = "LLM_PROVIDER_QUOTA_EXCEEDED"

	// Model errors
	ErrModelNotFound        types.ErrorCode = "LLM_MODEL_NOT_FOUND"
	ErrModelContextExceeded types.ErrorCode = "LLM_MODEL_CONTEXT_EXCEEDED"

	// Request errors
	ErrInvalidRequest types.ErrorCode = "LLM_INVALID_REQUEST"

	// Completion errors
	ErrCompletionFailed types.ErrorCode = "LLM_COMPLETION_FAILED"
	ErrContentFiltered  types.ErrorCode = "LLM_CONTENT_FILTERED"
	ErrEmptyResponse    types.ErrorCode = "LLM_EMPTY_RESPONSE"
	ErrTimeoutExceeded  types.ErrorCode = "LLM_TIMEOUT_EXCEEDED"
	ErrContextCanceled  types.ErrorCode = "LLM_CONTEXT_CANCELED"

	// Network errors
	ErrNetworkFailed types.ErrorCode = "LLM_NETWORK_FAILED"
)

// IsRetryable determines if an error is transient and may succeed on retry.
// Errors that are not CouncilErrors are treated as transient provider failures.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var councilErr *types.CouncilError
	if !errors.As(err, &councilErr) {
		return !errors.Is(err, context.Canceled)
	}

	if councilErr.Retryable {
		return true
	}

	switch councilErr.Code {
	case ErrNetworkFailed, ErrTimeoutExceeded:
		return true

	// Rate limiting and quota errors may succeed after waiting
	case ErrProviderRateLimited, ErrProviderQuotaExceeded:
		return true

	case ErrProviderUnavailable, ErrCompletionFailed, ErrEmptyResponse:
		return true

	// Context cancellation is not retryable (user-initiated)
	case ErrContextCanceled:
		return false

	case ErrProviderUnauthorized, ErrInvalidRequest, ErrModelNotFound,
		ErrModelContextExceeded, ErrContentFiltered, ErrProviderNotFound,
		ErrProviderInitFailed:
		return false

	default:
		return false
	}
}

// NewProviderNotFoundError creates an error for when a provider kind is not registered
func NewProviderNotFoundError(providerName string) *types.CouncilError {
	return types.NewError(ErrProviderNotFound, "provider not found: "+providerName)
}

// NewProviderInitError creates an error for a back-end client that could not be built
func NewProviderInitError(providerName string, cause error) *types.CouncilError {
	return types.WrapError(ErrProviderInitFailed, "failed to initialize provider: "+providerName, cause)
}

// NewProviderUnavailableError creates a retryable error for when a provider is temporarily unavailable
func NewProviderUnavailableError(providerName string, cause error) *types.CouncilError {
	return &types.CouncilError{
		Code:      ErrProviderUnavailable,
		Message:   "provider temporarily unavailable: " + providerName,
		Retryable: true,
		Cause:     cause,
	}
}

// NewRateLimitError creates a retryable error for rate limiting
func NewRateLimitError(providerName string, cause error) *types.CouncilError {
	return &types.CouncilError{
		Code:      ErrProviderRateLimited,
		Message:   "rate limit exceeded for provider: " + providerName,
		Retryable: true,
		Cause:     cause,
	}
}

// NewProviderUnauthorizedError creates an unauthorized provider error
func NewProviderUnauthorizedError(providerName string, cause error) *types.CouncilError {
	return &types.CouncilError{
		Code:    ErrProviderUnauthorized,
		Message: fmt.Sprintf("provider '%s' authentication failed", providerName),
		Cause:   cause,
	}
}

// NewInvalidRequestError creates an error for invalid requests
func NewInvalidRequestError(message string) *types.CouncilError {
	return types.NewError(ErrInvalidRequest, message)
}

// NewEmptyResponseError creates a retryable error for a response without text
func NewEmptyResponseError(providerName string) *types.CouncilError {
	return types.NewRetryableError(ErrEmptyResponse, "empty response from provider: "+providerName)
}

// NewNetworkError creates a retryable error for network failures
func NewNetworkError(message string, cause error) *types.CouncilError {
	return &types.CouncilError{
		Code:      ErrNetworkFailed,
		Message:   message,
		Retryable: true,
		Cause:     cause,
	}
}

// NewTimeoutError creates a retryable error for timeout failures
func NewTimeoutError(message string) *types.CouncilError {
	return types.NewRetryableError(ErrTimeoutExceeded, message)
}

// TranslateError translates generic client errors into council errors based on
// context state and error message content.
func TranslateError(provider string, err error) error {
	if err == nil {
		return nil
	}

	var councilErr *types.CouncilError
	if errors.As(err, &councilErr) {
		return err
	}

	if errors.Is(err, context.Canceled) {
		return types.WrapError(ErrContextCanceled, "request canceled: "+provider, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(fmt.Sprintf("%s request timed out: %v", provider, err))
	}

	lowerMsg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(lowerMsg, "unauthorized") || strings.Contains(lowerMsg, "authentication") ||
		strings.Contains(lowerMsg, "api key") || strings.Contains(lowerMsg, "401"):
		return NewProviderUnauthorizedError(provider, err)
	case strings.Contains(lowerMsg, "rate limit") || strings.Contains(lowerMsg, "too many requests") ||
		strings.Contains(lowerMsg, "429"):
		return NewRateLimitError(provider, err)
	case strings.Contains(lowerMsg, "timeout") || strings.Contains(lowerMsg, "deadline"):
		return NewTimeoutError(fmt.Sprintf("%s: %v", provider, err))
	case strings.Contains(lowerMsg, "network") || strings.Contains(lowerMsg, "connection"):
		return NewNetworkError(fmt.Sprintf("%s: network failure", provider), err)
	case strings.Contains(lowerMsg, "model") && strings.Contains(lowerMsg, "not found"):
		return types.WrapError(ErrModelNotFound, "model not found for provider: "+provider, err)
	case strings.Contains(lowerMsg, "content filter") || strings.Contains(lowerMsg, "safety"):
		return types.WrapError(ErrContentFiltered, "response blocked by provider filter: "+provider, err)
	default:
		return NewProviderUnavailableError(provider, err)
	}
}
