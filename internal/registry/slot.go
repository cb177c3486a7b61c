// Package registry holds the shell's process-wide session state: the
// published session descriptor and the supervised backend handle, each in
// its own independently locked slot.
package registry

import (
	"sync"

	"github.com/grovetools/exportshell/errors"
)

// Slot is a single-value container guarded by its own mutex.
//
// A panic inside a critical section poisons the slot: the panic propagates
// and every later operation fails with LOCK_UNAVAILABLE instead of reading
// state that may be half-written.
type Slot[T any] struct {
	name string

	mu       sync.Mutex
	value    T
	set      bool
	poisoned bool
}

// NewSlot creates an empty slot. name identifies it in errors.
func NewSlot[T any](name string) *Slot[T] {
	return &Slot[T]{name: name}
}

// with runs fn while holding the slot's lock.
func (s *Slot[T]) with(fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.poisoned {
		return errors.LockUnavailable(s.name)
	}

	completed := false
	defer func() {
		if !completed {
			s.poisoned = true
		}
	}()
	fn()
	completed = true
	return nil
}

// Publish stores v, replacing any previous value.
func (s *Slot[T]) Publish(v T) error {
	return s.with(func() {
		s.value = v
		s.set = true
	})
}

// Get returns a copy of the stored value and whether one is present.
func (s *Slot[T]) Get() (T, bool, error) {
	var (
		v  T
		ok bool
	)
	err := s.with(func() {
		v, ok = s.value, s.set
	})
	return v, ok, err
}

// Take removes and returns the stored value, leaving the slot empty.
func (s *Slot[T]) Take() (T, bool, error) {
	var (
		v    T
		ok   bool
		zero T
	)
	err := s.with(func() {
		v, ok = s.value, s.set
		s.value, s.set = zero, false
	})
	return v, ok, err
}

// Name returns the slot's name.
func (s *Slot[T]) Name() string {
	return s.name
}
