package voicecache

import "sync"

var (
	defaultMu    sync.Mutex
	defaultStore *Store
)

// Init replaces the process-wide store with one built from opts.
func Init(opts ...Option) *Store {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	defaultStore = New(opts...)
	return defaultStore
}

// Default returns the process-wide store. If Init was never called it lazily
// creates an unconfigured store, which loads nothing until given a source.
func Default() *Store {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultStore == nil {
		defaultStore = New()
	}
	return defaultStore
}

// Reset forgets the process-wide store so tests can start clean.
func Reset() {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	defaultStore = nil
}
