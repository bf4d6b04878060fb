// Package llm provides the resilient inference client for the judgment
// engine. The client wraps one Ollama endpoint behind a middleware pipeline:
// lifecycle logging, optional response caching, a concurrency cap owned by
// the client instance, an optional request-rate throttle, and retry with
// exponential backoff around the core HTTP exchange.
//
// Submission never raises attempt exhaustion to the caller: the Result
// carries success state and the last error's description instead.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmorim/verdicto/internal/configuration"
	"github.com/dmorim/verdicto/internal/llm/cache"
	"github.com/dmorim/verdicto/internal/llm/llmerrors"
	"github.com/dmorim/verdicto/internal/llm/providers"
	"github.com/dmorim/verdicto/internal/llm/ratelimit"
	"github.com/dmorim/verdicto/internal/llm/retry"
	"github.com/dmorim/verdicto/internal/llm/transport"
)

// connectionTestPrompt is the minimal prompt used to probe a single model.
const connectionTestPrompt = "Respond with exactly: OK"

// SubmitRequest describes one inference call.
type SubmitRequest struct {
	Prompt      string
	Model       string
	Temperature float64

	// MaxTokens caps output length. Zero means the configured default.
	MaxTokens int

	// MaxRetries overrides the configured attempt budget. Zero means the
	// configured default.
	MaxRetries int
}

// Result is the outcome of one inference call. Success=false carries the
// final attempt's error description in Err; Content is empty.
type Result struct {
	Success      bool
	Content      string
	Model        string
	Tokens       int
	PromptTokens int
	Err          string
}

// Client is a resilient inference client for one Ollama endpoint. It owns
// the concurrency semaphore bounding in-flight calls; the semaphore's
// lifetime is tied to the client instance. Safe for concurrent use.
type Client struct {
	handler    transport.Handler
	adapter    *providers.OllamaAdapter
	httpClient *http.Client
	probe      *http.Client
	cfg        *configuration.Config
	logger     *slog.Logger
	retryStats *retry.Stats
}

// NewClient assembles the middleware pipeline for the given configuration.
// A nil configuration uses defaults.
func NewClient(cfg *configuration.Config) (*Client, error) {
	if cfg == nil {
		cfg = configuration.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	adapter := providers.NewOllamaAdapter(cfg.Endpoint)
	httpClient := &http.Client{Timeout: cfg.Timeout()}

	core := transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
		httpReq, err := adapter.Build(ctx, req)
		if err != nil {
			return nil, err
		}
		httpResp, err := httpClient.Do(httpReq)
		if err != nil {
			return nil, llmerrors.WrapTransport(adapter.Name(), err)
		}
		defer httpResp.Body.Close()
		return adapter.Parse(httpResp)
	})

	retryMW, retryStats, err := retry.NewMiddleware(retry.Config{
		MaxAttempts: cfg.MaxRetries,
		BackoffBase: cfg.BackoffBase,
	})
	if err != nil {
		return nil, fmt.Errorf("retry middleware: %w", err)
	}

	concurrencyMW, err := ratelimit.NewConcurrencyLimitMiddleware(cfg.MaxConcurrentRequests)
	if err != nil {
		return nil, fmt.Errorf("concurrency middleware: %w", err)
	}

	// Order matters: cache hits must not consume a permit, and the permit
	// is held across all retry attempts of one submission.
	middlewares := []transport.Middleware{NewLoggingMiddleware(slog.Default())}
	if cfg.Cache.Enabled {
		cacheMW, err := cache.NewMiddleware(cache.Config{
			Enabled:       true,
			RedisAddr:     cfg.Cache.RedisAddr,
			RedisPassword: cfg.Cache.RedisPassword,
			RedisDB:       cfg.Cache.RedisDB,
			TTL:           cfg.Cache.TTL,
		})
		if err != nil {
			return nil, fmt.Errorf("cache middleware: %w", err)
		}
		middlewares = append(middlewares, cacheMW)
	}
	middlewares = append(middlewares, concurrencyMW)
	if cfg.Throttle.Enabled {
		throttleMW, err := ratelimit.NewThrottleMiddleware(cfg.Throttle.RequestsPerSecond, cfg.Throttle.Burst)
		if err != nil {
			return nil, fmt.Errorf("throttle middleware: %w", err)
		}
		middlewares = append(middlewares, throttleMW)
	}
	middlewares = append(middlewares, retryMW)

	return &Client{
		handler:    transport.Chain(core, middlewares...),
		adapter:    adapter,
		httpClient: httpClient,
		probe:      &http.Client{Timeout: configuration.ConnectionProbeTimeout},
		cfg:        cfg,
		logger:     slog.Default().With("component", "client"),
		retryStats: retryStats,
	}, nil
}

// Submit runs one inference call through the pipeline. Attempt exhaustion
// and every other failure come back as Success=false with the last error's
// description; Submit never returns a Go error.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) Result {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.cfg.DefaultMaxTokens
	}

	resp, err := c.handler.Handle(ctx, &transport.Request{
		Model:       req.Model,
		Prompt:      req.Prompt,
		Temperature: req.Temperature,
		MaxTokens:   maxTokens,
		MaxRetries:  req.MaxRetries,
	})
	if err != nil {
		return Result{Model: req.Model, Err: err.Error()}
	}

	return Result{
		Success:      true,
		Content:      resp.Content,
		Model:        req.Model,
		Tokens:       resp.Tokens,
		PromptTokens: resp.PromptTokens,
	}
}

// TestConnection probes the endpoint's liveness path with a short timeout.
// All errors are swallowed; the boolean is the only signal.
func (c *Client) TestConnection(ctx context.Context) bool {
	httpReq, err := c.adapter.BuildTags(ctx)
	if err != nil {
		return false
	}
	httpResp, err := c.probe.Do(httpReq)
	if err != nil {
		c.logger.Warn("connection test failed", "error", err)
		return false
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		c.logger.Warn("connection test returned non-success status", "status", httpResp.StatusCode)
		return false
	}
	return true
}

// TestModel checks that a specific model answers a trivial prompt.
func (c *Client) TestModel(ctx context.Context, model string) bool {
	res := c.Submit(ctx, SubmitRequest{
		Prompt:      connectionTestPrompt,
		Model:       model,
		Temperature: c.cfg.DefaultTemperature,
	})
	return res.Success && strings.TrimSpace(res.Content) != ""
}

// ListModels returns the endpoint's model inventory. Any failure yields an
// empty list; ListModels never returns an error.
func (c *Client) ListModels(ctx context.Context) []string {
	httpReq, err := c.adapter.BuildTags(ctx)
	if err != nil {
		return nil
	}
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("list models failed", "error", err)
		return nil
	}
	defer httpResp.Body.Close()

	names, err := c.adapter.ParseTags(httpResp)
	if err != nil {
		c.logger.Warn("list models failed", "error", err)
		return nil
	}
	return names
}

// RetryStats exposes cumulative retry counters for reporting.
func (c *Client) RetryStats() *retry.Stats { return c.retryStats }
