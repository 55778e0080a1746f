// Package store provides the generic subscribable state container the cart,
// wishlist, and catalog managers are built on.
package store

import (
	"sync"
)

// Listener receives every new snapshot published through SetState.
type Listener[S any] func(state S)

type subscription[S any] struct {
	id int
	fn Listener[S]
}

// Store holds one state snapshot and notifies subscribers on every
// replacement. Notifications run synchronously on the mutating goroutine, in
// registration order, with no batching or deduplication: two rapid SetState
// calls produce two notifications.
type Store[S any] struct {
	mu     sync.Mutex
	state  S
	subs   []subscription[S]
	nextID int
}

// New constructs a store seeded with the initial snapshot.
func New[S any](initial S) *Store[S] {
	return &Store[S]{state: initial}
}

// GetState returns the current snapshot.
func (s *Store[S]) GetState() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetState replaces the snapshot and synchronously notifies all subscribers
// with the new value. The store lock is released before listeners run, so a
// listener may subscribe or unsubscribe; it must not call SetState
// re-entrantly on the same store from within the notification.
func (s *Store[S]) SetState(next S) {
	s.mu.Lock()
	s.state = next
	listeners := make([]Listener[S], 0, len(s.subs))
	for _, sub := range s.subs {
		listeners = append(listeners, sub.fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
}

// Subscribe registers a listener and returns a function removing it. The
// returned function is idempotent: calling it more than once is a no-op.
func (s *Store[S]) Subscribe(fn Listener[S]) func() {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription[S]{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// SubscriberCount reports the number of active subscriptions.
func (s *Store[S]) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
