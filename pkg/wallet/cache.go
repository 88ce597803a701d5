package wallet

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// FetchFunc retrieves the current remote value for one resource.
type FetchFunc[T any] func(ctx context.Context) (T, error)

type cacheConfig struct {
	interval time.Duration
	bus      *Bus
	logger   FetchLogger
	nowFn    func() time.Time
	resource string
}

// Cache is a per-consumer polling read cache for one remote resource. Each
// consumer owns its own instance; instances reading the same resource poll and
// refetch independently of one another.
//
// A cache fetches once on creation, re-polls on a fixed cadence gated on the
// elapsed time since the last attempt, and refetches unconditionally when the
// invalidation bus signals. At most one fetch is in flight per instance; a
// caller that requests a fetch while one is pending waits for that attempt and
// shares its outcome. When a fetch fails the previous data is kept so the
// consumer can keep rendering it alongside the error.
type Cache[T any] struct {
	fetch    FetchFunc[T]
	interval time.Duration
	logger   FetchLogger
	nowFn    func() time.Time
	resource string

	mutex       sync.Mutex
	state       CacheState[T]
	lastAttempt time.Time
	inFlight    chan struct{}
	lastOutcome error
	closed      bool

	cancelRun   context.CancelFunc
	unsubscribe func()
	nudge       chan struct{}
}

// NewCache wires a cache for fetch and starts its background poll loop.
func NewCache[T any](fetch FetchFunc[T], options ...CacheOption) (*Cache[T], error) {
	if fetch == nil {
		return nil, fmt.Errorf("%w: fetch dependency is nil", ErrInvalidCacheConfig)
	}
	config := cacheConfig{
		interval: BalancePollInterval,
		bus:      defaultBus,
		nowFn:    time.Now,
		resource: "wallet",
	}
	for _, option := range options {
		if option != nil {
			option(&config)
		}
	}
	if config.interval <= 0 {
		return nil, fmt.Errorf("%w: poll interval must be greater than zero", ErrInvalidCacheConfig)
	}
	cache := &Cache[T]{
		fetch:    fetch,
		interval: config.interval,
		logger:   config.logger,
		nowFn:    config.nowFn,
		resource: config.resource,
		state:    CacheState[T]{Loading: true},
		nudge:    make(chan struct{}, 1),
	}
	runContext, cancel := context.WithCancel(context.Background())
	cache.cancelRun = cancel
	cache.unsubscribe = config.bus.Subscribe(cache.requestRefetch)
	go cache.run(runContext)
	return cache, nil
}

// NewBalanceCache is a convenience wiring for the balance resource.
func NewBalanceCache(fetch FetchFunc[BalanceSnapshot], options ...CacheOption) (*Cache[BalanceSnapshot], error) {
	combined := append([]CacheOption{
		WithPollInterval(BalancePollInterval),
		WithResourceName("balance"),
	}, options...)
	return NewCache(fetch, combined...)
}

// NewTransactionsCache is a convenience wiring for the transaction list.
func NewTransactionsCache(fetch FetchFunc[[]TransactionRecord], options ...CacheOption) (*Cache[[]TransactionRecord], error) {
	combined := append([]CacheOption{
		WithPollInterval(TransactionsPollInterval),
		WithResourceName("transactions"),
	}, options...)
	return NewCache(fetch, combined...)
}

// Snapshot returns the current cached view without blocking. Data points at
// the last successfully fetched value and must be treated as immutable. After
// Close the view is frozen as of the moment Close ran; in particular Loading
// may remain true if an attempt was in flight, so consumers must not wait on
// Loading once they have closed the cache.
func (cache *Cache[T]) Snapshot() CacheState[T] {
	cache.mutex.Lock()
	defer cache.mutex.Unlock()
	return cache.state
}

// Refetch forces an immediate fetch, bypassing the poll gate, and returns the
// attempt's outcome. If a fetch is already in flight the call waits for it and
// returns that attempt's outcome instead of starting another.
func (cache *Cache[T]) Refetch(ctx context.Context) error {
	return cache.attempt(ctx, triggerManual)
}

// Close stops the poll loop and unsubscribes from the invalidation bus. A
// fetch still in flight is allowed to finish but its result is discarded
// without touching the cached state, which also means a Loading flag set by
// that attempt stays set; Snapshot on a closed cache reports the state as it
// was when Close ran. Close is idempotent.
func (cache *Cache[T]) Close() {
	cache.mutex.Lock()
	if cache.closed {
		cache.mutex.Unlock()
		return
	}
	cache.closed = true
	cache.mutex.Unlock()
	cache.cancelRun()
	cache.unsubscribe()
}

// requestRefetch is the bus handler. It nudges the run loop rather than
// fetching on the publisher's goroutine, so a slow fetch never blocks the
// publish pass. Nudges coalesce while the loop is busy.
func (cache *Cache[T]) requestRefetch() {
	select {
	case cache.nudge <- struct{}{}:
	default:
	}
}

func (cache *Cache[T]) run(ctx context.Context) {
	_ = cache.attempt(ctx, triggerInitial)
	ticker := time.NewTicker(cache.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if cache.pollDue() {
				_ = cache.attempt(ctx, triggerPoll)
			}
		case <-cache.nudge:
			_ = cache.attempt(ctx, triggerInvalidate)
		}
	}
}

// pollDue gates the cadence on elapsed time since the last attempt, successful
// or not, so a slow fetch cannot cause tick pile-up.
func (cache *Cache[T]) pollDue() bool {
	cache.mutex.Lock()
	defer cache.mutex.Unlock()
	return cache.nowFn().Sub(cache.lastAttempt) >= cache.interval
}

func (cache *Cache[T]) attempt(ctx context.Context, trigger string) error {
	cache.mutex.Lock()
	if cache.closed {
		cache.mutex.Unlock()
		return ErrCacheClosed
	}
	if cache.inFlight != nil {
		pending := cache.inFlight
		cache.mutex.Unlock()
		select {
		case <-pending:
		case <-ctx.Done():
			return ctx.Err()
		}
		cache.mutex.Lock()
		outcome := cache.lastOutcome
		cache.mutex.Unlock()
		return outcome
	}
	flight := make(chan struct{})
	cache.inFlight = flight
	cache.lastAttempt = cache.nowFn()
	cache.state.Loading = true
	cache.mutex.Unlock()

	value, fetchError := cache.fetch(ctx)

	cache.mutex.Lock()
	if cache.closed {
		// Shut down mid-fetch; the result must not reach the cached state.
		cache.inFlight = nil
		cache.lastOutcome = ErrCacheClosed
		cache.mutex.Unlock()
		close(flight)
		cache.logFetch(trigger, fetchStatusDropped, fetchError)
		return ErrCacheClosed
	}
	cache.state.Loading = false
	cache.state.LastFetchAt = cache.nowFn()
	if fetchError != nil {
		// Stale-but-available: keep the previous data next to the error.
		cache.state.Err = fetchError
	} else {
		fetched := value
		cache.state.Data = &fetched
		cache.state.Err = nil
	}
	cache.lastOutcome = fetchError
	cache.inFlight = nil
	cache.mutex.Unlock()
	close(flight)

	status := fetchStatusOK
	if fetchError != nil {
		status = fetchStatusError
	}
	cache.logFetch(trigger, status, fetchError)
	return fetchError
}

func (cache *Cache[T]) logFetch(trigger string, status string, fetchError error) {
	if cache.logger == nil {
		return
	}
	cache.logger.LogFetch(FetchLog{
		Resource: cache.resource,
		Trigger:  trigger,
		Status:   status,
		Error:    fetchError,
	})
}
