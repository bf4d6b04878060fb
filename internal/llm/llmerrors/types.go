// Package llmerrors defines the error taxonomy for inference operations and
// the retryability classification the retry middleware relies on.
package llmerrors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorType categorizes inference failures for retry classification.
type ErrorType string

const (
	// ErrorTypeTimeout indicates a request timeout or deadline expiry (retryable).
	ErrorTypeTimeout ErrorType = "timeout"

	// ErrorTypeNetwork indicates network connectivity failure (retryable).
	ErrorTypeNetwork ErrorType = "network"

	// ErrorTypeStatus indicates a non-success HTTP response status (retryable).
	ErrorTypeStatus ErrorType = "status"

	// ErrorTypeRequest indicates the request could not be constructed (non-retryable).
	ErrorTypeRequest ErrorType = "request"

	// ErrorTypeCanceled indicates the caller's context was canceled (non-retryable).
	ErrorTypeCanceled ErrorType = "canceled"

	// ErrorTypeUnknown indicates an unclassified failure.
	ErrorTypeUnknown ErrorType = "unknown"
)

// ProviderError describes a failed exchange with the inference endpoint.
// StatusCode is zero for failures that never produced an HTTP response.
type ProviderError struct {
	Provider   string
	Type       ErrorType
	StatusCode int
	Message    string
	Cause      error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Type, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// Retryable reports whether another attempt may succeed. Transport errors,
// timeouts, and every non-success response status are retryable; request
// construction failures and caller cancellation are not.
func (e *ProviderError) Retryable() bool {
	switch e.Type {
	case ErrorTypeTimeout, ErrorTypeNetwork, ErrorTypeStatus:
		return true
	default:
		return false
	}
}

// WrapTransport classifies a transport-level failure from the HTTP client.
func WrapTransport(provider string, err error) *ProviderError {
	t := ErrorTypeNetwork
	switch {
	case errors.Is(err, context.Canceled):
		t = ErrorTypeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		t = ErrorTypeTimeout
	default:
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			t = ErrorTypeTimeout
		}
	}
	return &ProviderError{Provider: provider, Type: t, Message: err.Error(), Cause: err}
}

// NewStatusError builds the error for a non-success response status.
func NewStatusError(provider string, status int, body string) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Type:       ErrorTypeStatus,
		StatusCode: status,
		Message:    fmt.Sprintf("%s: %s", http.StatusText(status), body),
	}
}

// IsRetryable reports whether the retry middleware should attempt err again.
// Unclassified errors are treated as retryable transport faults so a flaky
// endpoint gets its full attempt budget.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	return true
}
