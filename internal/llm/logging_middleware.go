package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmorim/verdicto/internal/llm/transport"
)

// NewLoggingMiddleware wraps the pipeline with request lifecycle logging.
// Each request gets a trace ID correlating its log entries across
// middleware. Prompt text is never logged, only its length.
func NewLoggingMiddleware(logger *slog.Logger) transport.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "llm")

	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			if req.TraceID == "" {
				req.TraceID = uuid.New().String()
			}

			start := time.Now()
			logger.Debug("inference request started",
				"trace_id", req.TraceID,
				"model", req.Model,
				"prompt_len", len(req.Prompt),
				"temperature", req.Temperature)

			resp, err := next.Handle(ctx, req)
			elapsed := time.Since(start)

			if err != nil {
				logger.Warn("inference request failed",
					"trace_id", req.TraceID,
					"model", req.Model,
					"elapsed", elapsed,
					"error", err)
				return nil, err
			}

			logger.Debug("inference request completed",
				"trace_id", req.TraceID,
				"model", req.Model,
				"elapsed", elapsed,
				"tokens", resp.Tokens,
				"prompt_tokens", resp.PromptTokens,
				"from_cache", resp.FromCache)
			return resp, nil
		})
	}
}
