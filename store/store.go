// Package store holds the reactive state containers that mirror server
// state: one store per resource family, each a mutex-guarded snapshot with
// publish/subscribe change notification. Store mutators call the transport,
// reconcile the response into the collection by identity, and record
// failures as a per-domain error message instead of returning errors to the
// caller; the fast-path mutators apply the same upsert discipline without a
// network round trip so socket-pushed changes and HTTP responses converge
// on one collection regardless of arrival order.
package store

import "sync"

// Listener is invoked after every state change. It runs outside the store
// lock and must not assume which mutation fired it; read Snapshot instead.
type Listener func()

// observable is the shared state container under every store: an atomic
// snapshot plus subscriber bookkeeping. Each update replaces the whole
// state value, never individual fields, so concurrent mutators interleave
// at snapshot granularity and readers cannot observe partial writes.
type observable[S any] struct {
	mu    sync.RWMutex
	state S
	subs  map[int]Listener
	next  int
}

// Snapshot returns the current state value.
func (o *observable[S]) Snapshot() S {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// Subscribe registers a change listener and returns its unsubscribe
// function. Unsubscribing twice is harmless.
func (o *observable[S]) Subscribe(fn Listener) (unsubscribe func()) {
	o.mu.Lock()
	if o.subs == nil {
		o.subs = make(map[int]Listener)
	}
	id := o.next
	o.next++
	o.subs[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.subs, id)
		o.mu.Unlock()
	}
}

// update applies one atomic state replacement and notifies subscribers.
// apply receives the current state by value and returns the next one; it
// must not retain or mutate shared slices in place.
func (o *observable[S]) update(apply func(S) S) {
	o.mu.Lock()
	o.state = apply(o.state)
	listeners := make([]Listener, 0, len(o.subs))
	for _, fn := range o.subs {
		listeners = append(listeners, fn)
	}
	o.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}
