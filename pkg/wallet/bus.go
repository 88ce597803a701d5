package wallet

import "sync"

// Handler reacts to a wallet-data-changed signal. The signal carries no
// payload; a subscriber is expected to re-check whatever it caches.
type Handler func()

// Bus is a single-topic in-process publish/subscribe registry. Subscribing and
// unsubscribing are safe while a publish is running; a publish pass iterates a
// snapshot of the registry taken when the pass starts, so registration changes
// never affect an in-progress pass.
type Bus struct {
	mutex      sync.Mutex
	nextHandle uint64
	handlers   map[uint64]Handler
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[uint64]Handler)}
}

// Subscribe registers a handler and returns its de-registration capability.
// Unsubscribing more than once is a no-op.
func (bus *Bus) Subscribe(handler Handler) (unsubscribe func()) {
	bus.mutex.Lock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.handlers[handle] = handler
	bus.mutex.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			bus.mutex.Lock()
			delete(bus.handlers, handle)
			bus.mutex.Unlock()
		})
	}
}

// Publish signals every currently-subscribed handler. Handlers run on the
// publisher's goroutine, outside the registry lock.
func (bus *Bus) Publish() {
	bus.mutex.Lock()
	snapshot := make([]Handler, 0, len(bus.handlers))
	for _, handler := range bus.handlers {
		snapshot = append(snapshot, handler)
	}
	bus.mutex.Unlock()
	for _, handler := range snapshot {
		handler()
	}
}

// defaultBus lives for the whole process; there is no teardown.
var defaultBus = NewBus()

// DefaultBus returns the process-wide invalidation bus.
func DefaultBus() *Bus {
	return defaultBus
}

// Invalidate publishes a wallet-data-changed signal on the default bus. Any
// flow that completes a server-confirmed balance-changing action should call
// it immediately after the action succeeds.
func Invalidate() {
	defaultBus.Publish()
}
