// Package eventbus provides a small synchronous publish/subscribe primitive.
//
// It is the foundation for both the Block lifecycle flow and the Store's
// change notification. Emit is synchronous and invokes listeners in
// registration order; a listener panicking propagates to the caller of Emit.
package eventbus

import (
	"log/slog"
	"reflect"
	"sync"
)

// Listener is a callback registered for an event.
type Listener func(args ...any)

// entry pairs a listener with the id that identifies this registration.
// The id, not the function value, is what unsubscribing through the
// On handle matches on, so two closures built from the same function
// literal stay distinct.
type entry struct {
	id uint64
	fn Listener
}

// Bus fans out named events to registered listeners.
// The event key type is usually a string or a small named type.
type Bus[E comparable] struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[E][]entry
	logger    *slog.Logger
}

// New creates an empty bus.
func New[E comparable]() *Bus[E] {
	return &Bus[E]{
		listeners: make(map[E][]entry),
		logger:    slog.Default(),
	}
}

// On registers a listener for an event and returns a cancel function that
// removes exactly this registration. Calling the cancel function more than
// once is a no-op.
// A nil listener is not registrable; it is logged and ignored rather than
// deferred to an emit-time failure, and the returned cancel does nothing.
func (b *Bus[E]) On(event E, fn Listener) func() {
	if fn == nil {
		b.logger.Warn("eventbus: ignored nil listener", "event", event)
		return func() {}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.listeners[event] = append(b.listeners[event], entry{id: id, fn: fn})
	return func() { b.remove(event, id) }
}

func (b *Bus[E]) remove(event E, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current := b.listeners[event]
	for i, e := range current {
		if e.id == id {
			b.listeners[event] = append(current[:i], current[i+1:]...)
			return
		}
	}
}

// Off removes the first listener registered for the event whose function
// pointer matches fn. Distinct closures created from the same function
// literal share a pointer, so Off cannot tell them apart; callers holding
// several such closures should unsubscribe through the cancel function
// returned by On instead.
// Unknown events and listeners are a no-op: the two production integrations
// (Block's internal wiring and the Store subscription API) must never fail
// because a consumer unsubscribed twice.
func (b *Bus[E]) Off(event E, fn Listener) {
	if fn == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	current := b.listeners[event]
	if len(current) == 0 {
		return
	}

	target := reflect.ValueOf(fn).Pointer()
	kept := current[:0]
	removed := false
	for _, e := range current {
		if !removed && reflect.ValueOf(e.fn).Pointer() == target {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	b.listeners[event] = kept
}

// Emit invokes every listener registered for the event, in registration
// order, passing args through. Listeners run on the caller's goroutine.
func (b *Bus[E]) Emit(event E, args ...any) {
	b.mu.Lock()
	current := b.listeners[event]
	snapshot := make([]Listener, len(current))
	for i, e := range current {
		snapshot[i] = e.fn
	}
	b.mu.Unlock()

	for _, l := range snapshot {
		l(args...)
	}
}
