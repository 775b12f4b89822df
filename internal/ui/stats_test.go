package ui

import (
	"testing"
	"time"

	"lockin/internal/analytics"
	"lockin/internal/config"
	"lockin/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStatsPane(t *testing.T) (*StatsPane, *storage.Storage) {
	t.Helper()
	setupTest(t)
	store, clock := createTestStorage(t)
	agg := analytics.NewAggregator(store, time.UTC)
	pane := NewStatsPane(agg, clock, createTestStyles(), &config.KeysConfig{})
	pane.SetSize(50, 40)
	pane.SetFocused(true)
	return pane, store
}

func addSession(t *testing.T, store *storage.Storage, start time.Time, d time.Duration) {
	t.Helper()
	_, err := store.AddSession(start, start.Add(d))
	require.NoError(t, err)
}

func TestStatsPane_StartsOnCurrentMonth(t *testing.T) {
	pane, _ := newStatsPane(t)
	year, month := pane.Viewing()
	assert.Equal(t, 2025, year)
	assert.Equal(t, time.March, month)
	assert.Contains(t, pane.View(), "Loading...")
}

func TestStatsPane_RendersMonthAndYear(t *testing.T) {
	pane, store := newStatsPane(t)
	addSession(t, store, time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC), 90*time.Minute)
	addSession(t, store, time.Date(2025, time.March, 12, 8, 0, 0, 0, time.UTC), 30*time.Minute)
	addSession(t, store, time.Date(2025, time.January, 20, 8, 0, 0, 0, time.UTC), time.Hour)

	msg, ok := pane.LoadStatsCmd()().(statsLoadedMsg)
	require.True(t, ok)
	assert.Equal(t, int64(2*3600), msg.month.TotalSec)
	assert.Equal(t, int64(1800), msg.today)
	pane.Update(msg)

	out := pane.View()
	assert.Contains(t, out, "March 2025")
	assert.Contains(t, out, "2h 00m")
	assert.Contains(t, out, "2 days, 2 sessions")
	assert.Contains(t, out, "0h 30m")
	assert.Contains(t, out, "2025: 3h 00m total")
	assert.Contains(t, out, "Jan")
	assert.NotContains(t, out, "No focus time recorded")
}

func TestStatsPane_EmptyMonth(t *testing.T) {
	pane, _ := newStatsPane(t)
	pane.Update(pane.LoadStatsCmd()())
	assert.Contains(t, pane.View(), "No focus time recorded")
}

func TestStatsPane_MonthNavigation(t *testing.T) {
	pane, _ := newStatsPane(t)

	cmd := pane.Update(keyMsg("h"))
	require.NotNil(t, cmd)
	year, month := pane.Viewing()
	assert.Equal(t, time.February, month)
	msg := cmd().(statsLoadedMsg)
	assert.Equal(t, time.February, msg.month.Month)

	pane.Update(keyMsg("h"))
	pane.Update(keyMsg("h"))
	year, month = pane.Viewing()
	assert.Equal(t, 2024, year)
	assert.Equal(t, time.December, month)

	pane.Update(keyMsg("l"))
	year, month = pane.Viewing()
	assert.Equal(t, 2025, year)
	assert.Equal(t, time.January, month)

	pane.Update(keyMsg("t"))
	_, month = pane.Viewing()
	assert.Equal(t, time.March, month)
}

func TestStatsPane_DropsStaleResults(t *testing.T) {
	pane, _ := newStatsPane(t)
	stale := pane.LoadStatsCmd()().(statsLoadedMsg)
	pane.Update(keyMsg("h"))

	pane.Update(stale)
	assert.Contains(t, pane.View(), "Loading...")
}
