package provider

import "time"

// Option configures Adapter.
type Option func(*Options)

// Options holds the adapter guards and resolution settings.
type Options struct {
	Timeout             time.Duration
	RateLimit           float64 // requests per second
	Burst               int
	Policy              MultiColumnPolicy
	Chain               []Strategy
	BreakerMaxRequests  uint32
	BreakerInterval     time.Duration
	BreakerTimeout      time.Duration
	ConsecutiveFailures uint32
}

// WithTimeout bounds a single source call.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.Timeout = d
		}
	}
}

// WithRateLimit sets the token bucket shared by all loads of this adapter.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(o *Options) {
		o.RateLimit = perSecond
		o.Burst = burst
	}
}

// WithPolicy sets the multi-column policy.
func WithPolicy(p MultiColumnPolicy) Option {
	return func(o *Options) {
		o.Policy = p
	}
}

// WithChain replaces the resolution chain.
func WithChain(chain []Strategy) Option {
	return func(o *Options) {
		o.Chain = chain
	}
}

// WithBreaker configures the circuit breaker around the source.
func WithBreaker(maxRequests uint32, interval, timeout time.Duration, consecutiveFailures uint32) Option {
	return func(o *Options) {
		o.BreakerMaxRequests = maxRequests
		o.BreakerInterval = interval
		o.BreakerTimeout = timeout
		o.ConsecutiveFailures = consecutiveFailures
	}
}
