package voicecache

import (
	"context"
	"errors"
	"time"
)

// Common errors for cache operations
var (
	// ErrNoSource is returned by LoadData when the store has no Source.
	ErrNoSource = errors.New("voicecache: no voice source configured")

	// ErrStylesUnavailable is returned by a Source when the styles endpoint
	// cannot serve a style map. It is never fatal to a load.
	ErrStylesUnavailable = errors.New("voicecache: styles unavailable")

	// ErrCorrupted is logged when a persisted entry fails to decode.
	ErrCorrupted = errors.New("voicecache: persisted data corrupted")
)

const (
	// DefaultCacheDuration is how long a persisted snapshot is fresh.
	DefaultCacheDuration = 24 * time.Hour

	// DefaultVersion is the current envelope schema version.
	DefaultVersion = "1.1"

	// DefaultFetchTimeout bounds one shared network load.
	DefaultFetchTimeout = 30 * time.Second

	// DefaultStyle is the implicit style of every voice.
	DefaultStyle = "default"

	voicesKey = "prosodify_voices_cache"
	stylesKey = "prosodify_styles_cache"
)

// State is the logical state of the store.
type State int

const (
	// StateEmpty means nothing is loaded and no load is running.
	StateEmpty State = iota

	// StateLoading means a load is in flight.
	StateLoading

	// StateLoaded means the catalog came from the network or a fresh snapshot.
	StateLoaded

	// StateLoadedStale means the network failed and an older catalog is served.
	StateLoadedStale

	// StateFailed means the last load failed with nothing to fall back to.
	StateFailed
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateLoadedStale:
		return "loaded (stale)"
	case StateFailed:
		return "empty-with-error"
	default:
		return "unknown"
	}
}

// Styles maps a voice id to its ordered style names.
type Styles map[string][]string

// Envelope is the persisted unit of durability.
type Envelope struct {
	Voices    []Voice `json:"voices"`
	Timestamp int64   `json:"timestamp"` // Unix epoch milliseconds
	Version   string  `json:"version"`
}

// CacheInfo describes the persisted snapshot.
type CacheInfo struct {
	VoiceCount int
	CachedAt   time.Time
	Age        time.Duration
	Version    string
	ExpiresIn  time.Duration // negative once expired
	Expired    bool
}

// Source fetches the authoritative catalog.
type Source interface {
	FetchVoices(ctx context.Context) ([]Voice, error)

	// FetchStyles returns an error wrapping ErrStylesUnavailable when the
	// upstream has no style map to offer.
	FetchStyles(ctx context.Context) (Styles, error)
}

// Storage is durable, string-valued key/value storage. A nil Storage means
// the environment has none and every persistence step is skipped.
//
// Get reports a missing key with an error matching storage.ErrNotFound; the
// store treats any Get error as "no cache".
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Listener is notified after every state change. Implementations must be
// comparable; registration is by identity. Store.Subscribe wraps a plain func.
type Listener interface {
	VoiceCacheChanged()
}
