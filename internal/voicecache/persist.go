package voicecache

import (
	"context"
	"encoding/json"
	"fmt"
)

// isValid reports whether env may be adopted. An envelope is never valid
// under another schema version or without voices; expiry only matters when
// allowStale is false.
func (s *Store) isValid(env Envelope, allowStale bool) bool {
	if env.Version != s.version || len(env.Voices) == 0 {
		return false
	}
	if allowStale {
		return true
	}
	age := s.now().UnixMilli() - env.Timestamp
	return age <= s.cacheDuration.Milliseconds()
}

// readEnvelope loads the persisted snapshot. Entries that fail to decode are
// deleted so they cannot fail again.
func (s *Store) readEnvelope(ctx context.Context, allowStale bool) (Envelope, bool) {
	if s.storage == nil {
		return Envelope{}, false
	}

	raw, err := s.storage.Get(ctx, voicesKey)
	if err != nil {
		s.logger.Debug("No persisted voices", "err", err)
		return Envelope{}, false
	}
	if raw == "" {
		return Envelope{}, false
	}

	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		s.logger.Warn("Failed to parse cached voice data", "err", fmt.Errorf("%w: %w", ErrCorrupted, err))
		s.removeKey(ctx, voicesKey)
		return Envelope{}, false
	}
	env.Voices = normalizeCatalog(env.Voices)

	if !s.isValid(env, allowStale) {
		s.logger.Debug("Persisted voices not usable",
			"version", env.Version,
			"count", len(env.Voices),
			"allowStale", allowStale)
		return Envelope{}, false
	}
	return env, true
}

// readStyles loads the persisted style map, synthesizing one from the voices
// when it is missing or corrupt.
func (s *Store) readStyles(ctx context.Context, voices []Voice) Styles {
	if s.storage == nil {
		return defaultStyles(voices)
	}

	raw, err := s.storage.Get(ctx, stylesKey)
	if err != nil || raw == "" {
		return defaultStyles(voices)
	}

	var styles Styles
	if err := json.Unmarshal([]byte(raw), &styles); err != nil {
		s.logger.Warn("Failed to load cached styles", "err", fmt.Errorf("%w: %w", ErrCorrupted, err))
		s.removeKey(ctx, stylesKey)
		return defaultStyles(voices)
	}
	return normalizeStyles(styles)
}

// writeSnapshot persists voices and styles. Failures are logged only.
func (s *Store) writeSnapshot(ctx context.Context, voices []Voice, styles Styles) {
	if s.storage == nil {
		return
	}

	env := Envelope{
		Voices:    voices,
		Timestamp: s.now().UnixMilli(),
		Version:   s.version,
	}
	if data, err := json.Marshal(env); err != nil {
		s.logger.Warn("Failed to encode voice data", "err", err)
	} else if err := s.storage.Set(ctx, voicesKey, string(data)); err != nil {
		s.logger.Warn("Failed to cache voice data", "err", err)
	} else {
		s.logger.Debug("Voices cached", "count", len(voices))
	}

	if data, err := json.Marshal(styles); err != nil {
		s.logger.Warn("Failed to encode styles", "err", err)
	} else if err := s.storage.Set(ctx, stylesKey, string(data)); err != nil {
		s.logger.Warn("Failed to cache styles", "err", err)
	}
}

func (s *Store) removePersisted(ctx context.Context) {
	if s.storage == nil {
		return
	}
	s.removeKey(ctx, voicesKey)
	s.removeKey(ctx, stylesKey)
}

func (s *Store) removeKey(ctx context.Context, key string) {
	if err := s.storage.Remove(ctx, key); err != nil {
		s.logger.Warn("Failed to remove cache entry", "key", key, "err", err)
	}
}
