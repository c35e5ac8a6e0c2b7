package util

import "sync"

// Latest holds the most recently sent value of a producer that must
// never block. Unconsumed values are overwritten.
type Latest[T any] struct {
	mu      sync.Mutex
	value   T
	pending bool
	notify  chan struct{}
}

func NewLatest[T any]() *Latest[T] {
	return &Latest[T]{notify: make(chan struct{}, 1)}
}

// Send replaces the stored value and wakes up a waiting consumer.
func (s *Latest[T]) Send(value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = value
	s.pending = true
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// C fires once after one or more Sends.
func (s *Latest[T]) C() <-chan struct{} {
	return s.notify
}

// Take returns the pending value and marks it consumed. ok is false
// when nothing was sent since the last Take.
func (s *Latest[T]) Take() (value T, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.notify:
	default:
	}
	if !s.pending {
		return value, false
	}
	s.pending = false
	return s.value, true
}

// Value returns the last sent value without consuming it.
func (s *Latest[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

func (s *Latest[T]) HasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}
