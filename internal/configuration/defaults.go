package configuration

import "time"

// Client defaults.
const (
	DefaultMaxConcurrentRequests = 4
	DefaultTimeoutSeconds        = 60
	DefaultTemperature           = 0.1
	DefaultMaxTokens             = 512
)

// Retry defaults: 3 attempts with waits of 1s and 2s between them.
const (
	DefaultMaxRetries  = 3
	DefaultBackoffBase = 2.0
)

// Optional throttle and cache defaults.
const (
	DefaultThrottleRPS   = 10.0
	DefaultThrottleBurst = 20
	DefaultCacheTTL      = 24 * time.Hour
)

// ConnectionProbeTimeout bounds the liveness check against the endpoint.
const ConnectionProbeTimeout = 10 * time.Second
