package wallet

import "time"

// CacheOption configures a Cache instance.
type CacheOption func(*cacheConfig)

// FetchLogger records fetch attempts made by a cache instance.
type FetchLogger interface {
	LogFetch(entry FetchLog)
}

// FetchLog describes one completed fetch attempt.
type FetchLog struct {
	Resource string
	Trigger  string
	Status   string
	Error    error
}

// WithFetchLogger wires a logger that receives a callback per fetch attempt.
func WithFetchLogger(logger FetchLogger) CacheOption {
	return func(config *cacheConfig) {
		config.logger = logger
	}
}

// WithResourceName labels log entries emitted by the cache.
func WithResourceName(resource string) CacheOption {
	return func(config *cacheConfig) {
		config.resource = resource
	}
}

// WithBus subscribes the cache to a specific invalidation bus instead of the
// process-wide default.
func WithBus(bus *Bus) CacheOption {
	return func(config *cacheConfig) {
		config.bus = bus
	}
}

// WithPollInterval overrides the poll cadence.
func WithPollInterval(interval time.Duration) CacheOption {
	return func(config *cacheConfig) {
		config.interval = interval
	}
}

// WithClock overrides the time source used for cadence gating.
func WithClock(now func() time.Time) CacheOption {
	return func(config *cacheConfig) {
		config.nowFn = now
	}
}
