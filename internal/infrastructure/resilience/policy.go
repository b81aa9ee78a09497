package resilience

import "time"

type Config struct {
	// RetryMaxAttempts of 1 disables retries entirely. The search engine
	// layer always runs with 1; retry policy belongs to callers such as
	// the event queue.
	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	RetryMultiplier     float64

	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32
}

// EngineConfig is the policy for search backends: fail fast behind a
// breaker, never retry.
func EngineConfig() Config {
	return Config{
		RetryMaxAttempts: 1,

		BreakerEnabled:          true,
		BreakerMinRequests:      10,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      30 * time.Second,
		BreakerHalfOpenMaxCalls: 2,
	}
}

// QueueConfig is the policy for the event queue, where a short bounded
// retry is acceptable.
func QueueConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 100 * time.Millisecond,
		RetryMaxBackoff:     400 * time.Millisecond,
		RetryMultiplier:     2.0,

		BreakerEnabled:          true,
		BreakerMinRequests:      10,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      30 * time.Second,
		BreakerHalfOpenMaxCalls: 2,
	}
}

func (c Config) normalize() Config {
	out := c
	if out.RetryMaxAttempts <= 0 {
		out.RetryMaxAttempts = 1
	}
	if out.RetryMaxBackoff < out.RetryInitialBackoff {
		out.RetryMaxBackoff = out.RetryInitialBackoff
	}
	if out.RetryMultiplier < 1.0 {
		out.RetryMultiplier = 1.0
	}
	if out.BreakerEnabled {
		if out.BreakerMinRequests == 0 {
			out.BreakerMinRequests = 10
		}
		if out.BreakerFailureRatio <= 0 || out.BreakerFailureRatio > 1 {
			out.BreakerFailureRatio = 0.5
		}
		if out.BreakerOpenTimeout <= 0 {
			out.BreakerOpenTimeout = 30 * time.Second
		}
		if out.BreakerHalfOpenMaxCalls == 0 {
			out.BreakerHalfOpenMaxCalls = 2
		}
	}
	return out
}
