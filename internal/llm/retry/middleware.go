// Package retry provides the retry middleware for the inference pipeline.
// Failed attempts are retried with exponential backoff until the attempt
// budget is exhausted; the final failure is returned to the caller unchanged.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/dmorim/verdicto/internal/llm/llmerrors"
	"github.com/dmorim/verdicto/internal/llm/transport"
)

// Configuration validation errors.
var (
	errMaxAttemptsInvalid = errors.New("maxAttempts must be greater than 0")
	errBackoffBaseInvalid = errors.New("backoffBase must be >= 1.0")
)

// errContextCancelledDuringBackoff is returned when the caller's context
// expires while waiting between attempts.
var errContextCancelledDuringBackoff = errors.New("context cancelled during backoff")

// Sleeper waits for the given duration or until the context is done.
// Injected in tests to assert exact backoff sequences without sleeping.
type Sleeper func(ctx context.Context, d time.Duration) error

// Config controls retry behavior.
type Config struct {
	// MaxAttempts is the total attempt budget, including the first attempt.
	MaxAttempts int

	// BackoffBase is the exponential base b for the wait after the i-th
	// failed attempt: b^i seconds, i counted from zero. The default base of
	// 2 yields waits of 1s, 2s, 4s, ...
	BackoffBase float64

	// Sleep waits between attempts. Nil means a timer-backed wait.
	Sleep Sleeper
}

// Stats exposes cumulative retry counters for observability.
type Stats struct {
	Attempts  atomic.Int64
	Retries   atomic.Int64
	Exhausted atomic.Int64
}

type retryMiddleware struct {
	config Config
	logger *slog.Logger
	stats  *Stats
}

// NewMiddleware creates retry middleware with the given configuration.
// The returned Stats accumulate across all requests through the middleware.
func NewMiddleware(cfg Config) (transport.Middleware, *Stats, error) {
	if cfg.MaxAttempts <= 0 {
		return nil, nil, fmt.Errorf("%w, got %d", errMaxAttemptsInvalid, cfg.MaxAttempts)
	}
	if cfg.BackoffBase < 1.0 {
		return nil, nil, fmt.Errorf("%w, got %f", errBackoffBaseInvalid, cfg.BackoffBase)
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepWithContext
	}

	rm := &retryMiddleware{
		config: cfg,
		logger: slog.Default().With("component", "retry"),
		stats:  &Stats{},
	}
	return rm.middleware(), rm.stats, nil
}

func (r *retryMiddleware) middleware() transport.Middleware {
	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			maxAttempts := r.config.MaxAttempts
			if req.MaxRetries > 0 {
				maxAttempts = req.MaxRetries
			}

			var lastErr error
			for attempt := 0; attempt < maxAttempts; attempt++ {
				r.stats.Attempts.Add(1)

				resp, err := next.Handle(ctx, req)
				if err == nil {
					return resp, nil
				}
				lastErr = err

				if !llmerrors.IsRetryable(err) {
					r.logger.Warn("attempt failed with non-retryable error",
						"model", req.Model,
						"attempt", attempt+1,
						"error", err)
					break
				}
				if attempt == maxAttempts-1 {
					break
				}

				wait := r.Backoff(attempt)
				r.logger.Warn("attempt failed, backing off",
					"model", req.Model,
					"attempt", attempt+1,
					"max_attempts", maxAttempts,
					"wait", wait,
					"error", err)

				r.stats.Retries.Add(1)
				if err := r.config.Sleep(ctx, wait); err != nil {
					return nil, fmt.Errorf("%w: %w", errContextCancelledDuringBackoff, err)
				}
			}

			r.stats.Exhausted.Add(1)
			r.logger.Error("all attempts failed",
				"model", req.Model,
				"attempts", maxAttempts,
				"error", lastErr)
			return nil, lastErr
		})
	}
}

// Backoff returns the wait after the attempt-th failed attempt, zero-based:
// BackoffBase^attempt seconds.
func (r *retryMiddleware) Backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(r.config.BackoffBase, float64(attempt)) * float64(time.Second))
}

// sleepWithContext waits d or returns early with the context's error.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
