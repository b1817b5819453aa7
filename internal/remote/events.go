package remote

import "sync"

// EventBroker is the fan-out shared by DataService implementations for
// their asynchronous auth notifications. Emit may be called from any
// goroutine; handlers run synchronously in emit order.
type EventBroker struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]AuthEventHandler
}

// NewEventBroker creates an empty broker.
func NewEventBroker() *EventBroker {
	return &EventBroker{handlers: make(map[int]AuthEventHandler)}
}

// Subscribe registers h and returns its unsubscribe function. Unsubscribing
// twice is harmless.
func (b *EventBroker) Subscribe(h AuthEventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, id)
	}
}

// Emit delivers ev to every subscribed handler. The handler list is
// snapshotted first so a handler may unsubscribe itself during delivery.
func (b *EventBroker) Emit(ev AuthEvent) {
	b.mu.Lock()
	snapshot := make([]AuthEventHandler, 0, len(b.handlers))
	for _, h := range b.handlers {
		snapshot = append(snapshot, h)
	}
	b.mu.Unlock()

	for _, h := range snapshot {
		h(ev)
	}
}
