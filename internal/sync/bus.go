package sync

import (
	stdsync "sync"

	"go.uber.org/atomic"
)

// Listener receives every event published on a Bus.
type Listener func(Event)

// Bus fans wish events out to subscribed listeners. It is an explicit object
// rather than package state so each test (and each app instance) gets its own
// isolated bus. Listeners may subscribe and unsubscribe at any time,
// including from inside a callback during a broadcast.
type Bus struct {
	mu   stdsync.Mutex
	next int64
	subs map[int64]Listener
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int64]Listener)}
}

// Subscribe registers a listener and returns its subscription handle.
func (b *Bus) Subscribe(fn Listener) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	id := b.next
	b.subs[id] = fn
	return &Subscription{bus: b, id: id}
}

// Publish delivers the event to every listener registered at the time of the
// call. The subscriber set is snapshotted under the lock and callbacks run
// outside it, so a callback unsubscribing (itself or others) cannot deadlock.
// A listener unsubscribed mid-broadcast may still see this one event; that
// mirrors a view unmounting while a request is in flight.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	listeners := make([]Listener, 0, len(b.subs))
	for _, fn := range b.subs {
		listeners = append(listeners, fn)
	}
	b.mu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
	eventsTotal.WithLabelValues(string(ev.Kind)).Inc()
}

// Len returns the number of active subscriptions.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Bus) unsubscribe(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}

// Subscription is a handle to a registered listener.
type Subscription struct {
	bus  *Bus
	id   int64
	done atomic.Bool
}

// Unsubscribe removes the listener. It is idempotent and safe to call while
// a broadcast is in flight.
func (s *Subscription) Unsubscribe() {
	if !s.done.CAS(false, true) {
		return
	}
	s.bus.unsubscribe(s.id)
}
