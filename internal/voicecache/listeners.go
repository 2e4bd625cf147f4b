package voicecache

import (
	"fmt"
	"reflect"
)

// AddListener registers l. Adding the same listener twice has no extra effect.
// Listeners are kept by identity, so l must be comparable (a pointer, say);
// other values are ignored with a warning. Use Subscribe to register a func.
func (s *Store) AddListener(l Listener) {
	if l == nil {
		return
	}
	if !reflect.TypeOf(l).Comparable() {
		s.logger.Warn("Ignoring listener that cannot be compared", "type", fmt.Sprintf("%T", l))
		return
	}
	s.lmu.Lock()
	defer s.lmu.Unlock()

	s.listeners[l] = struct{}{}
}

// RemoveListener unregisters l.
func (s *Store) RemoveListener(l Listener) {
	s.lmu.Lock()
	defer s.lmu.Unlock()

	delete(s.listeners, l)
}

// funcListener gives a plain func an identity so it can live in the set.
type funcListener struct {
	fn func()
}

func (f *funcListener) VoiceCacheChanged() { f.fn() }

// Subscribe registers fn and returns a func that unregisters it.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	l := &funcListener{fn: fn}
	s.AddListener(l)
	return func() { s.RemoveListener(l) }
}

// notify calls every listener synchronously. It must be called without s.mu
// held so listeners can read the store.
func (s *Store) notify() {
	s.lmu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.lmu.Unlock()

	for _, l := range listeners {
		l.VoiceCacheChanged()
	}
}
