package voicecache

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

const loadKey = "voices"

// LoadData makes sure a catalog is loaded.
//
// Without force it returns immediately once data is loaded, and otherwise
// prefers a fresh persisted snapshot over the network. With force it always
// goes to the network. Concurrent callers share the one load in flight, so
// at most one load runs at any time. If ctx ends first the caller stops
// waiting; the shared load carries on, bounded by the fetch timeout.
//
// When the network fails, a stale snapshot of the current schema version (or
// the catalog already in memory) is served and nil is returned; Err reports
// the failure. Only when nothing can be served does LoadData return the error.
func (s *Store) LoadData(ctx context.Context, force bool) error {
	if !force && s.IsDataLoaded() {
		return nil
	}

	ch := s.flight.DoChan(loadKey, func() (any, error) {
		return nil, s.performLoad(force)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// catalog is a voice list with its style map. A nil *catalog passed to finish
// keeps whatever is in memory.
type catalog struct {
	voices []Voice
	styles Styles
}

func (s *Store) performLoad(force bool) error {
	s.mu.Lock()
	if s.loaded && !force {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	s.state = StateLoading
	s.mu.Unlock()
	s.notify()

	if !force {
		ctx, cancel := s.bounded()
		env, ok := s.readEnvelope(ctx, false)
		if ok {
			styles := s.readStyles(ctx, env.Voices)
			cancel()
			s.logger.Info("Loading voices from cache", "count", len(env.Voices))
			s.finish(&catalog{env.Voices, styles}, StateLoaded, nil)
			return nil
		}
		cancel()
	}

	s.logger.Info("Fetching voices from source")
	ctx, cancel := s.bounded()
	voices, styles, err := s.fetch(ctx)
	if err == nil {
		s.writeSnapshot(ctx, voices, styles)
		cancel()
		s.logger.Info("Voices loaded", "count", len(voices))
		s.finish(&catalog{voices, styles}, StateLoaded, nil)
		return nil
	}
	cancel()

	s.logger.Error("Failed to load voice data", "err", err)
	return s.fallback(err)
}

// fallback serves a stale catalog after a failed fetch, if there is one.
func (s *Store) fallback(cause error) error {
	ctx, cancel := s.bounded()
	defer cancel()

	if env, ok := s.readEnvelope(ctx, true); ok {
		s.logger.Warn("Using stale cache as fallback", "count", len(env.Voices))
		s.finish(&catalog{env.Voices, s.readStyles(ctx, env.Voices)}, StateLoadedStale, cause)
		return nil
	}

	if s.IsDataLoaded() {
		s.logger.Warn("Keeping in-memory voices after failed refresh")
		s.finish(nil, StateLoadedStale, cause)
		return nil
	}

	s.finish(nil, StateFailed, cause)
	return cause
}

// finish applies the terminal state of a load and notifies exactly once.
func (s *Store) finish(c *catalog, state State, err error) {
	s.mu.Lock()
	switch {
	case c != nil:
		s.voices = c.voices
		s.styles = c.styles
		s.loaded = true
	case state == StateFailed:
		s.voices = nil
		s.styles = Styles{}
		s.loaded = false
	}
	s.state = state
	s.lastErr = err
	s.loading = false
	s.mu.Unlock()

	s.notify()
}

// fetch asks the source for voices and styles in parallel. A voices failure
// fails the fetch; a styles failure falls back to each voice's own styles.
func (s *Store) fetch(ctx context.Context) ([]Voice, Styles, error) {
	if s.source == nil {
		return nil, nil, ErrNoSource
	}

	var (
		voices    []Voice
		styles    Styles
		stylesErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		defer recoverInto(&err)
		v, err := s.source.FetchVoices(gctx)
		if err != nil {
			return fmt.Errorf("fetch voices: %w", err)
		}
		voices = v
		return nil
	})
	g.Go(func() error {
		defer recoverInto(&stylesErr)
		styles, stylesErr = s.source.FetchStyles(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	voices = normalizeCatalog(voices)
	if stylesErr != nil {
		if !errors.Is(stylesErr, ErrStylesUnavailable) {
			s.logger.Warn("Styles fetch failed, using voice defaults", "err", stylesErr)
		} else {
			s.logger.Debug("Styles unavailable, using voice defaults")
		}
		return voices, defaultStyles(voices), nil
	}
	return voices, normalizeStyles(styles), nil
}

func (s *Store) bounded() (context.Context, context.CancelFunc) {
	if s.fetchTimeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), s.fetchTimeout)
}

func recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("voicecache: source panicked: %v", r)
	}
}
