package voicecache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"
)

// Option configures a Store.
type Option func(*Store)

// WithSource sets where the catalog is fetched from.
func WithSource(src Source) Option {
	return func(s *Store) { s.source = src }
}

// WithStorage sets the durable storage. A nil Storage disables persistence.
func WithStorage(st Storage) Option {
	return func(s *Store) { s.storage = st }
}

// WithCacheDuration sets how long a persisted snapshot stays fresh.
func WithCacheDuration(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.cacheDuration = d
		}
	}
}

// WithVersion sets the envelope schema version. Snapshots written under any
// other version are ignored.
func WithVersion(version string) Option {
	return func(s *Store) {
		if version != "" {
			s.version = version
		}
	}
}

// WithFetchTimeout bounds a shared network load. Zero means no bound.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Store) { s.fetchTimeout = d }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store holds the voice catalog in memory, mirrors it to durable storage and
// notifies listeners of changes. It is safe for concurrent use.
type Store struct {
	source        Source
	storage       Storage
	cacheDuration time.Duration
	version       string
	fetchTimeout  time.Duration
	now           func() time.Time
	logger        *log.Logger

	flight singleflight.Group

	mu      sync.RWMutex
	voices  []Voice
	styles  Styles
	state   State
	loaded  bool
	loading bool
	lastErr error

	lmu       sync.Mutex
	listeners map[Listener]struct{}
}

// New creates a store in the empty state.
func New(opts ...Option) *Store {
	s := &Store{
		cacheDuration: DefaultCacheDuration,
		version:       DefaultVersion,
		fetchTimeout:  DefaultFetchTimeout,
		now:           time.Now,
		styles:        Styles{},
		listeners:     make(map[Listener]struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = log.Default().WithPrefix("voicecache")
	}
	return s
}

// Voices returns a copy of the current catalog, in upstream order.
func (s *Store) Voices() []Voice {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneVoices(s.voices)
}

// Voice looks up a voice by id.
func (s *Store) Voice(id string) (Voice, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, v := range s.voices {
		if v.ID == id {
			return cloneVoices([]Voice{v})[0], true
		}
	}
	return Voice{}, false
}

// VoiceStyles returns the styles recorded for a voice, or the single default
// style when the id is unknown or has none.
func (s *Store) VoiceStyles(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if styles := s.styles[id]; len(styles) > 0 {
		return slices.Clone(styles)
	}
	return []string{DefaultStyle}
}

// AllStyles returns a copy of the whole style map.
func (s *Store) AllStyles() Styles {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneStyles(s.styles)
}

// IsDataLoaded reports whether a catalog has been adopted.
func (s *Store) IsDataLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loaded
}

// IsLoading reports whether a load is in flight.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loading
}

// State returns the current logical state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

// Err returns the error of the last load, if it failed. It stays set while a
// stale catalog is served.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastErr
}

// CacheInfo describes the persisted snapshot without touching the network.
// It reports false when storage is unavailable or holds no usable snapshot.
func (s *Store) CacheInfo(ctx context.Context) (CacheInfo, bool) {
	if s.storage == nil {
		return CacheInfo{}, false
	}
	env, ok := s.readEnvelope(ctx, true)
	if !ok {
		return CacheInfo{}, false
	}

	now := s.now()
	cachedAt := time.UnixMilli(env.Timestamp)
	age := now.Sub(cachedAt)
	return CacheInfo{
		VoiceCount: len(env.Voices),
		CachedAt:   cachedAt,
		Age:        age,
		Version:    env.Version,
		ExpiresIn:  s.cacheDuration - age,
		Expired:    age > s.cacheDuration,
	}, true
}

// ClearCache wipes the in-memory catalog and the persisted snapshot, returns
// the store to the empty state and notifies listeners. Calling it again is
// harmless.
func (s *Store) ClearCache(ctx context.Context) {
	s.removePersisted(ctx)

	s.mu.Lock()
	s.voices = nil
	s.styles = Styles{}
	s.loaded = false
	s.lastErr = nil
	if s.loading {
		s.state = StateLoading
	} else {
		s.state = StateEmpty
	}
	s.mu.Unlock()

	s.logger.Info("Voice cache cleared")
	s.notify()
}

// Initialize preloads the catalog when durable storage is available. Without
// storage it does nothing, leaving the first LoadData to the caller.
func (s *Store) Initialize(ctx context.Context) error {
	if s.storage == nil {
		s.logger.Debug("Skipping cache initialization without storage")
		return nil
	}
	return s.LoadData(ctx, false)
}
