package timer

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerTicksOnlyWhileActive(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	store := newStore(t, clock)
	e, err := NewEngine(store, testPresets, WithClock(clock))
	require.NoError(t, err)

	signals := make(chan Signal, 4)
	e.OnSignal(func(s Signal) { signals <- s })

	r := NewRunner(e)
	t.Cleanup(r.Close)
	assert.False(t, r.Ticking())

	require.NoError(t, r.Do(func(e *Engine) error { return e.SelectPreset(0) }))
	assert.True(t, r.Ticking())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for want := 2 * time.Second; want >= time.Second; want -= time.Second {
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		clock.Advance(TickInterval)
		require.Eventually(t, func() bool {
			return r.Snapshot().Remaining == want
		}, 2*time.Second, 5*time.Millisecond)
	}

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(TickInterval)
	select {
	case s := <-signals:
		assert.Equal(t, WorkComplete, s)
	case <-ctx.Done():
		t.Fatal("no work-complete signal")
	}
	require.Eventually(t, func() bool { return r.Snapshot().Phase == OnBreak }, 2*time.Second, 5*time.Millisecond)
	assert.True(t, r.Ticking(), "breaks keep ticking")

	require.NoError(t, r.Do(func(e *Engine) error { e.Stop(); return nil }))
	assert.False(t, r.Ticking())
	assert.Len(t, store.GetSessions(), 1)
}

func TestRunnerCloseTearsDown(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	store := newStore(t, clock)
	e, err := NewEngine(store, testPresets, WithClock(clock))
	require.NoError(t, err)
	r := NewRunner(e)

	require.NoError(t, r.Do(func(e *Engine) error { return e.SelectPreset(1) }))
	clock.Advance(300 * time.Millisecond)
	r.Close()
	r.Close()

	assert.False(t, r.Ticking())
	slot := store.GetUnfinishedSession()
	require.NotNil(t, slot)
	assert.True(t, slot.LastActive.Equal(epoch.Add(300*time.Millisecond)))

	err = r.Do(func(e *Engine) error { return e.Start() })
	assert.ErrorIs(t, err, context.Canceled)
}
