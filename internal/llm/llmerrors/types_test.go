package llmerrors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// timeoutErr satisfies net.Error with Timeout() == true.
type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestWrapTransport_Classification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"context canceled", context.Canceled, ErrorTypeCanceled},
		{"deadline exceeded", context.DeadlineExceeded, ErrorTypeTimeout},
		{"net timeout", timeoutErr{}, ErrorTypeTimeout},
		{"wrapped net timeout", fmt.Errorf("do: %w", timeoutErr{}), ErrorTypeTimeout},
		{"plain network failure", errors.New("connection refused"), ErrorTypeNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pe := WrapTransport("ollama", tt.err)
			assert.Equal(t, tt.want, pe.Type)
			assert.ErrorIs(t, pe, tt.err)
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"timeout", &ProviderError{Type: ErrorTypeTimeout}, true},
		{"network", &ProviderError{Type: ErrorTypeNetwork}, true},
		{"non-success status", NewStatusError("ollama", 503, "overloaded"), true},
		{"client error status", NewStatusError("ollama", 404, "no such model"), true},
		{"request build failure", &ProviderError{Type: ErrorTypeRequest}, false},
		{"canceled", &ProviderError{Type: ErrorTypeCanceled}, false},
		{"bare context canceled", context.Canceled, false},
		{"unclassified error", errors.New("mystery"), true},
		{"wrapped provider error", fmt.Errorf("call: %w", &ProviderError{Type: ErrorTypeRequest}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestProviderError_Messages(t *testing.T) {
	statusErr := NewStatusError("ollama", 500, "boom")
	assert.Contains(t, statusErr.Error(), "HTTP 500")
	assert.Contains(t, statusErr.Error(), "boom")

	transportErr := WrapTransport("ollama", errors.New("connection reset"))
	assert.Contains(t, transportErr.Error(), "connection reset")
	assert.Contains(t, transportErr.Error(), "ollama")

	// Guard against backoff regressions: a deadline expiry must count as a
	// retryable failed attempt.
	deadline := WrapTransport("ollama", fmt.Errorf("after %v: %w", time.Second, context.DeadlineExceeded))
	assert.True(t, deadline.Retryable())
}
