// Package observer holds the registered-listener collection shared by the publishers in
// the input pipeline.
package observer

import (
	"slices"
	"sync"
)

// Subject is a set of listeners kept in registration order.  It is safe to register and
// unregister while another goroutine is notifying.
type Subject[L comparable] struct {
	lock      sync.RWMutex
	listeners []L
}

// Register appends the listeners in order.  A listener that is already registered is
// not added a second time.
func (s *Subject[L]) Register(listeners ...L) {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, l := range listeners {
		if slices.Contains(s.listeners, l) {
			continue
		}
		s.listeners = append(s.listeners, l)
	}
}

// Unregister removes l.  It returns false if l was not registered.
func (s *Subject[L]) Unregister(l L) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	idx := slices.Index(s.listeners, l)
	if idx < 0 {
		return false
	}
	s.listeners = slices.Delete(s.listeners, idx, idx+1)
	return true
}

// UnregisterAll removes every listener and returns how many there were.
func (s *Subject[L]) UnregisterAll() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	n := len(s.listeners)
	s.listeners = nil
	return n
}

// Listeners returns a copy of the current listeners.  Notifying from the copy means a
// slow listener never holds the lock.
func (s *Subject[L]) Listeners() []L {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return slices.Clone(s.listeners)
}

func (s *Subject[L]) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.listeners)
}
