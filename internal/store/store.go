package store

import (
	"sort"
	"sync"
)

// Store is an observable value container. Subscribers are notified synchronously
// inside Set and Update, in the order the mutations were made.
//
// Stored values are treated as immutable: callers must build a new value (new
// slices, new maps) instead of mutating one obtained from Get.
//
// A subscriber may call Get but must not mutate the store it is observing from
// inside its callback.
type Store[T any] struct {
	// writeMu serializes mutation and notification so every subscriber sees
	// changes in the same order.
	writeMu sync.Mutex

	mu     sync.RWMutex
	value  T
	subs   map[uint64]func(T)
	nextID uint64
}

// New creates a store holding initial
func New[T any](initial T) *Store[T] {
	return &Store[T]{
		value: initial,
		subs:  make(map[uint64]func(T)),
	}
}

// Get returns the current value
func (s *Store[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set replaces the value and notifies every subscriber
func (s *Store[T]) Set(v T) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.value = v
	subs := s.snapshotLocked()
	s.mu.Unlock()

	notify(subs, v)
}

// Update applies fn to the current value as a single atomic step. Subscribers are
// notified only when fn reports a change. Update returns whether a change was made.
func (s *Store[T]) Update(fn func(T) (T, bool)) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	next, changed := fn(s.value)
	if !changed {
		s.mu.Unlock()
		return false
	}
	s.value = next
	subs := s.snapshotLocked()
	s.mu.Unlock()

	notify(subs, next)
	return true
}

// Subscribe registers fn, calls it with the current value immediately and then on
// every change. The returned function removes the subscription; calling it more
// than once is harmless.
func (s *Store[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	current := s.value
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Subscribers returns the number of active subscriptions
func (s *Store[T]) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// snapshotLocked returns subscribers in registration order
func (s *Store[T]) snapshotLocked() []func(T) {
	ids := make([]uint64, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	subs := make([]func(T), len(ids))
	for i, id := range ids {
		subs[i] = s.subs[id]
	}
	return subs
}

func notify[T any](subs []func(T), v T) {
	for _, fn := range subs {
		fn(v)
	}
}
