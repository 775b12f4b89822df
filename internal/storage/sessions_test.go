package storage

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddSessionDuration(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int64
	}{
		{"whole minutes", testEpoch, testEpoch.Add(25 * time.Minute), 1500},
		{"floors fractions", testEpoch, testEpoch.Add(90*time.Second + 999*time.Millisecond), 90},
		{"sub-second", testEpoch, testEpoch.Add(400 * time.Millisecond), 0},
		{"end before start", testEpoch, testEpoch.Add(-time.Minute), 0},
		{"equal", testEpoch, testEpoch, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			sess, err := f.store.AddSession(tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sess.DurationSec)
			assert.GreaterOrEqual(t, sess.DurationSec, int64(0))
		})
	}
}

func TestAddSessionNormalizesAndInsertsAtHead(t *testing.T) {
	f := newFixture(t)
	loc := time.FixedZone("UTC+2", 2*60*60)
	start := time.Date(2024, 3, 10, 11, 0, 0, 123456789, loc)

	first, err := f.store.AddSession(start, start.Add(time.Hour))
	require.NoError(t, err)
	second, err := f.store.AddSession(start.Add(2*time.Hour), start.Add(3*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, time.UTC, first.Start.Location())
	assert.Equal(t, 123*time.Millisecond, time.Duration(first.Start.Nanosecond()))
	assert.True(t, first.Start.Equal(time.Date(2024, 3, 10, 9, 0, 0, 123000000, time.UTC)))

	sessions := f.store.GetSessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, second.ID, sessions[0].ID)
	assert.Equal(t, first.ID, sessions[1].ID)
}

func TestUpdateSession(t *testing.T) {
	f := newFixture(t)
	a, _ := f.store.AddSession(testEpoch, testEpoch.Add(10*time.Minute))
	b, _ := f.store.AddSession(testEpoch.Add(time.Hour), testEpoch.Add(2*time.Hour))

	newEnd := testEpoch.Add(30 * time.Minute)
	got, err := f.store.UpdateSession(a.ID, SessionUpdate{End: &newEnd})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(1800), got.DurationSec)
	assert.True(t, got.Start.Equal(a.Start))

	sessions := f.store.GetSessions()
	assert.Equal(t, []string{a.ID, b.ID}, []string{sessions[0].ID, sessions[1].ID})

	newStart := newEnd.Add(time.Minute)
	got, err = f.store.UpdateSession(a.ID, SessionUpdate{Start: &newStart})
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.DurationSec, "end before start clamps to zero")

	got, err = f.store.UpdateSession("missing", SessionUpdate{End: &newEnd})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteSession(t *testing.T) {
	f := newFixture(t)
	a, _ := f.store.AddSession(testEpoch, testEpoch.Add(time.Minute))

	ok, err := f.store.DeleteSession(a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.store.DeleteSession(a.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, f.store.GetSessions())
}

func TestUnfinishedSessionSlot(t *testing.T) {
	f := newFixture(t)
	assert.Nil(t, f.store.GetUnfinishedSession())

	start := testEpoch.Add(-5 * time.Minute)
	slot, err := f.store.SetUnfinishedSession(start)
	require.NoError(t, err)
	assert.True(t, slot.Start.Equal(start))
	assert.True(t, slot.LastActive.Equal(testEpoch))

	f.clock.Advance(3 * time.Second)
	require.NoError(t, f.store.UpdateLastActive())
	got := f.store.GetUnfinishedSession()
	require.NotNil(t, got)
	assert.True(t, got.LastActive.Equal(testEpoch.Add(3*time.Second)))

	// Overwrite replaces both fields.
	f.clock.Advance(time.Second)
	slot, err = f.store.SetUnfinishedSession(testEpoch)
	require.NoError(t, err)
	assert.True(t, slot.Start.Equal(testEpoch))
	assert.True(t, slot.LastActive.Equal(testEpoch.Add(4*time.Second)))

	require.NoError(t, f.store.ClearUnfinishedSession())
	assert.Nil(t, f.store.GetUnfinishedSession())
}

func TestUpdateLastActiveWithoutSlotIsNoop(t *testing.T) {
	f := newFixture(t)
	f.store.AddTask("a")
	before := f.raw(t)

	require.NoError(t, f.store.UpdateLastActive())
	require.NoError(t, f.store.ClearUnfinishedSession())

	assert.True(t, bytes.Equal(before, f.raw(t)))
	assert.Nil(t, f.store.GetUnfinishedSession())
}

func TestFinalizeUnfinished(t *testing.T) {
	t.Run("nil end uses lastActive", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.store.SetUnfinishedSession(testEpoch)
		require.NoError(t, err)
		f.clock.Advance(42 * time.Second)
		require.NoError(t, f.store.UpdateLastActive())
		f.clock.Advance(time.Hour)

		sess, err := f.store.FinalizeUnfinished(nil)
		require.NoError(t, err)
		require.NotNil(t, sess)
		assert.Equal(t, int64(42), sess.DurationSec)
		assert.Nil(t, f.store.GetUnfinishedSession())
		assert.Len(t, f.store.GetSessions(), 1)
	})

	t.Run("explicit end", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.store.SetUnfinishedSession(testEpoch)
		require.NoError(t, err)
		end := testEpoch.Add(25 * time.Minute)

		sess, err := f.store.FinalizeUnfinished(&end)
		require.NoError(t, err)
		assert.Equal(t, int64(1500), sess.DurationSec)
	})

	t.Run("no slot", func(t *testing.T) {
		f := newFixture(t)
		sess, err := f.store.FinalizeUnfinished(nil)
		require.NoError(t, err)
		assert.Nil(t, sess)
		assert.Empty(t, f.store.GetSessions())
	})
}
