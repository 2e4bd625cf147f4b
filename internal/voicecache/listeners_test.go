package voicecache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingListener struct {
	calls int
}

func (c *countingListener) VoiceCacheChanged() { c.calls++ }

func TestAddListenerTwiceNotifiesOnce(t *testing.T) {
	s := newTestStore(&fakeSource{voices: []Voice{aria()}}, nil, newFakeClock())
	l := &countingListener{}
	s.AddListener(l)
	s.AddListener(l)

	s.ClearCache(context.Background())
	assert.Equal(t, 1, l.calls)

	s.RemoveListener(l)
	s.ClearCache(context.Background())
	assert.Equal(t, 1, l.calls)
}

func TestAddListenerNil(t *testing.T) {
	s := New(WithLogger(quietLogger()))
	s.AddListener(nil)
	s.ClearCache(context.Background())
}

func TestSubscribe(t *testing.T) {
	s := newTestStore(&fakeSource{voices: []Voice{aria()}}, nil, newFakeClock())

	calls := 0
	unsubscribe := s.Subscribe(func() { calls++ })

	require.NoError(t, s.LoadData(context.Background(), false))
	assert.Equal(t, 2, calls, "one for loading, one for loaded")

	unsubscribe()
	unsubscribe()
	s.ClearCache(context.Background())
	assert.Equal(t, 2, calls)
}

func TestListenerSeesAppliedState(t *testing.T) {
	s := newTestStore(&fakeSource{voices: []Voice{aria()}}, nil, newFakeClock())

	type seen struct {
		state  State
		voices int
		busy   bool
	}
	var got []seen
	s.Subscribe(func() {
		got = append(got, seen{s.State(), len(s.Voices()), s.IsLoading()})
	})

	require.NoError(t, s.LoadData(context.Background(), false))
	assert.Equal(t, []seen{
		{StateLoading, 0, true},
		{StateLoaded, 1, false},
	}, got)
}

type uncomparableListener func()

func (f uncomparableListener) VoiceCacheChanged() { f() }

func TestAddListenerIgnoresUncomparable(t *testing.T) {
	s := newTestStore(&fakeSource{voices: []Voice{aria()}}, nil, newFakeClock())

	calls := 0
	require.NotPanics(t, func() {
		s.AddListener(uncomparableListener(func() { calls++ }))
	})

	s.ClearCache(context.Background())
	assert.Zero(t, calls)
}
