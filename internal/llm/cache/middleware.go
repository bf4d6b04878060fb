// Package cache provides an optional success-only response cache for the
// inference pipeline, backed by Redis. Identical (model, temperature, prompt)
// requests reuse the stored response instead of consuming a permit and an
// endpoint call.
//
// The cache degrades gracefully: Redis failures are logged and the request
// proceeds to the endpoint as if the cache were disabled. Only successful
// responses are stored.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmorim/verdicto/internal/llm/transport"
)

// keyPrefix namespaces cache entries in a shared Redis instance.
const keyPrefix = "verdicto:judgment:"

// Config controls the response cache.
type Config struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

type cacheMiddleware struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewMiddleware creates the caching middleware and its Redis client.
func NewMiddleware(cfg Config) (transport.Middleware, error) {
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("cache TTL must be greater than 0, got %v", cfg.TTL)
	}

	cm := &cacheMiddleware{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}),
		ttl:    cfg.TTL,
		logger: slog.Default().With("component", "cache"),
	}
	return cm.middleware(), nil
}

func (c *cacheMiddleware) middleware() transport.Middleware {
	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			key := Key(req.Model, req.Temperature, req.Prompt)

			if resp, ok := c.lookup(ctx, key); ok {
				resp.FromCache = true
				return resp, nil
			}

			resp, err := next.Handle(ctx, req)
			if err != nil {
				return nil, err
			}

			c.store(ctx, key, resp)
			return resp, nil
		})
	}
}

func (c *cacheMiddleware) lookup(ctx context.Context, key string) (*transport.Response, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache lookup failed, proceeding without cache", "error", err)
		}
		return nil, false
	}

	var resp transport.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		c.logger.Warn("cache entry corrupt, ignoring", "key", key, "error", err)
		return nil, false
	}
	return &resp, true
}

func (c *cacheMiddleware) store(ctx context.Context, key string, resp *transport.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		c.logger.Warn("cache marshal failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache store failed", "key", key, "error", err)
	}
}

// Key derives the deterministic cache key for a request. Prompt text is
// hashed so keys stay bounded regardless of prompt size.
func Key(model string, temperature float64, prompt string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%.4f|", model, temperature)
	h.Write([]byte(prompt))
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}
