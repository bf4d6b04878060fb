// Package configuration holds the process-wide configuration surface, read
// once at start. Values bind from the environment, with an optional .env
// file loaded first for local development.
package configuration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// ErrInvalidConfig indicates configuration validation failed.
var ErrInvalidConfig = errors.New("invalid configuration")

var validate = validator.New()

// Config is the full configuration for a judgment run.
type Config struct {
	// Endpoint is the inference endpoint base URL.
	Endpoint string `env:"OLLAMA_URL, default=http://localhost:11434" validate:"required,url"`

	// MaxConcurrentRequests caps in-flight inference calls across the
	// whole client instance.
	MaxConcurrentRequests int64 `env:"OLLAMA_MAX_CONCURRENT_REQUESTS, default=4" validate:"min=1"`

	// TimeoutSeconds is the total per-call timeout in seconds.
	TimeoutSeconds int `env:"OLLAMA_TIMEOUT, default=60" validate:"min=1"`

	// DefaultTemperature applies when a model config leaves it unset.
	DefaultTemperature float64 `env:"DEFAULT_TEMPERATURE, default=0.1" validate:"min=0,max=2"`

	// DefaultMaxTokens caps model output when a model config leaves it unset.
	DefaultMaxTokens int `env:"DEFAULT_MAX_TOKENS, default=512" validate:"min=1"`

	// MaxRetries is the per-call attempt budget, including the first attempt.
	MaxRetries int `env:"MAX_RETRIES, default=3" validate:"min=1"`

	// BackoffBase is the exponential backoff base in seconds.
	BackoffBase float64 `env:"RETRY_DELAY_BASE, default=2" validate:"min=1"`

	// LogLevel selects the slog level: debug, info, warn, or error.
	LogLevel string `env:"LOG_LEVEL, default=info" validate:"oneof=debug info warn error"`

	// Throttle optionally bounds request rate on top of the concurrency cap.
	Throttle ThrottleConfig `env:", prefix=THROTTLE_"`

	// Cache optionally reuses successful responses for identical requests.
	Cache CacheConfig `env:", prefix=CACHE_"`
}

// ThrottleConfig controls the optional client-side token bucket.
type ThrottleConfig struct {
	Enabled           bool    `env:"ENABLED, default=false"`
	RequestsPerSecond float64 `env:"RPS, default=10"`
	Burst             int     `env:"BURST, default=20"`
}

// CacheConfig controls the optional Redis response cache.
type CacheConfig struct {
	Enabled       bool          `env:"ENABLED, default=false"`
	RedisAddr     string        `env:"REDIS_ADDR, default=localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB, default=0"`
	TTL           time.Duration `env:"TTL, default=24h"`
}

// Timeout returns the per-call timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate checks the configuration against its struct tag rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Throttle.Enabled {
		if c.Throttle.RequestsPerSecond <= 0 {
			return fmt.Errorf("%w: throttle rps must be positive", ErrInvalidConfig)
		}
		if c.Throttle.Burst <= 0 {
			return fmt.Errorf("%w: throttle burst must be positive", ErrInvalidConfig)
		}
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("%w: cache TTL must be positive", ErrInvalidConfig)
	}
	return nil
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; a missing file is not an error.
func Load(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no environment is present.
func Default() *Config {
	return &Config{
		Endpoint:              "http://localhost:11434",
		MaxConcurrentRequests: DefaultMaxConcurrentRequests,
		TimeoutSeconds:        DefaultTimeoutSeconds,
		DefaultTemperature:    DefaultTemperature,
		DefaultMaxTokens:      DefaultMaxTokens,
		MaxRetries:            DefaultMaxRetries,
		BackoffBase:           DefaultBackoffBase,
		LogLevel:              "info",
		Throttle: ThrottleConfig{
			RequestsPerSecond: DefaultThrottleRPS,
			Burst:             DefaultThrottleBurst,
		},
		Cache: CacheConfig{
			RedisAddr: "localhost:6379",
			TTL:       DefaultCacheTTL,
		},
	}
}
