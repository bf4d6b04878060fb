// Package ratelimit bounds the inference pipeline's use of the endpoint.
// The concurrency limiter is the engine's only mandatory throttle: a counting
// semaphore owned by the client instance that caps in-flight calls. A
// token-bucket throttle is available on top for endpoints that also need a
// request-rate ceiling; it is disabled by default.
package ratelimit

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/dmorim/verdicto/internal/llm/transport"
)

// Configuration validation errors.
var (
	errPermitsInvalid = errors.New("maxInFlight must be greater than 0")
	errRateInvalid    = errors.New("requestsPerSecond must be greater than 0")
	errBurstInvalid   = errors.New("burst must be greater than 0")
)

// errPermitAcquire wraps context failures while waiting for a permit.
var errPermitAcquire = errors.New("acquire concurrency permit")

// NewConcurrencyLimitMiddleware caps concurrent in-flight requests with a
// weighted semaphore of maxInFlight permits. Any number of callers may wait;
// fairness order is unspecified. The permit is held for the full downstream
// call, including retries and their backoff waits, and is released on every
// exit path.
func NewConcurrencyLimitMiddleware(maxInFlight int64) (transport.Middleware, error) {
	if maxInFlight <= 0 {
		return nil, fmt.Errorf("%w, got %d", errPermitsInvalid, maxInFlight)
	}
	sem := semaphore.NewWeighted(maxInFlight)

	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			if err := sem.Acquire(ctx, 1); err != nil {
				return nil, fmt.Errorf("%w: %w", errPermitAcquire, err)
			}
			defer sem.Release(1)
			return next.Handle(ctx, req)
		})
	}, nil
}

// NewThrottleMiddleware applies a client-side token bucket in front of the
// downstream handler. Callers block until a token is available or their
// context expires.
func NewThrottleMiddleware(requestsPerSecond float64, burst int) (transport.Middleware, error) {
	if requestsPerSecond <= 0 {
		return nil, fmt.Errorf("%w, got %f", errRateInvalid, requestsPerSecond)
	}
	if burst <= 0 {
		return nil, fmt.Errorf("%w, got %d", errBurstInvalid, burst)
	}
	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), burst)

	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			if err := limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("throttle wait: %w", err)
			}
			return next.Handle(ctx, req)
		})
	}, nil
}
