package ui

import (
	"fmt"
	"testing"
	"time"

	"lockin/internal/config"
	"lockin/internal/storage"
	"lockin/internal/timer"

	"github.com/charmbracelet/lipgloss"
	"github.com/jonboulle/clockwork"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"
)

// testNow is a Wednesday in the middle of a month so the stats pane has
// neighbours on both sides.
var testNow = time.Date(2025, time.March, 12, 9, 0, 0, 0, time.UTC)

// setupTest disables colors so rendered output is plain text.
func setupTest(t *testing.T) {
	t.Helper()
	lipgloss.SetColorProfile(termenv.Ascii)
}

// createTestStorage returns an in-memory store on a fake clock with
// sequential ids ("id-1", "id-2", ...).
func createTestStorage(t *testing.T) (*storage.Storage, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(testNow)
	n := 0
	store, err := storage.New(storage.NewMemoryBackend(),
		storage.WithClock(clock),
		storage.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
	require.NoError(t, err)
	return store, clock
}

func createTestEngine(t *testing.T, store *storage.Storage, clock clockwork.Clock) *timer.Engine {
	t.Helper()
	presets := []timer.Preset{
		{Label: "25/5", Work: 25 * time.Minute, Rest: 5 * time.Minute},
		{Label: "2s/1s", Work: 2 * time.Second, Rest: time.Second},
	}
	engine, err := timer.NewEngine(store, presets, timer.WithClock(clock))
	require.NoError(t, err)
	return engine
}

func createTestStyles() *Styles {
	return NewStylesFromTheme(&config.ThemeConfig{})
}

// newTestApp builds an App sized for the wide layout.
func newTestApp(t *testing.T) (*App, *storage.Storage, *clockwork.FakeClock) {
	t.Helper()
	return newTestAppWithConfig(t, config.Default())
}

func newTestAppWithConfig(t *testing.T, cfg *config.Config) (*App, *storage.Storage, *clockwork.FakeClock) {
	t.Helper()
	setupTest(t)
	store, clock := createTestStorage(t)
	engine := createTestEngine(t, store, clock)
	app := NewApp(store, engine, createTestStyles(), cfg, WithClock(clock), WithLocation(time.UTC))
	app.width, app.height = 120, 40
	app.updateLayout()
	return app, store, clock
}
