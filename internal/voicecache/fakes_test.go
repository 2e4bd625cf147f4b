package voicecache

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

var errNotFound = errors.New("not found")

type mapStorage struct {
	mu   sync.Mutex
	data map[string]string
}

func newMapStorage() *mapStorage {
	return &mapStorage{data: make(map[string]string)}
}

func (m *mapStorage) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", errNotFound
	}
	return v, nil
}

func (m *mapStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mapStorage) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *mapStorage) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

func (m *mapStorage) putEnvelope(t *testing.T, env Envelope) {
	t.Helper()
	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("Failed to encode envelope: %v", err)
	}
	m.data[voicesKey] = string(data)
}

type fakeSource struct {
	voices    []Voice
	styles    Styles
	voicesErr error
	stylesErr error

	// gate, when set, blocks FetchVoices until it is closed.
	gate chan struct{}

	voiceCalls atomic.Int32
	styleCalls atomic.Int32
}

func (f *fakeSource) FetchVoices(ctx context.Context) ([]Voice, error) {
	f.voiceCalls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.voicesErr != nil {
		return nil, f.voicesErr
	}
	return cloneVoices(f.voices), nil
}

func (f *fakeSource) FetchStyles(context.Context) (Styles, error) {
	f.styleCalls.Add(1)
	if f.stylesErr != nil {
		return nil, f.stylesErr
	}
	return cloneStyles(f.styles), nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func aria() Voice {
	return Voice{ID: "v1", Name: "Aria", Styles: []string{"default", "cheerful"}}
}
