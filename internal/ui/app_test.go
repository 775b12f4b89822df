package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"lockin/internal/config"
	"lockin/internal/notify"
	"lockin/internal/timer"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	got []notify.Notification
	err error
}

func (r *recordingNotifier) Notify(_ context.Context, n notify.Notification) error {
	r.got = append(r.got, n)
	return r.err
}

func (r *recordingNotifier) Supported() bool { return true }

// send feeds msg to the app and runs the resulting command once, feeding
// its message back. Batches and ticks are not followed.
func send(app *App, msg tea.Msg) {
	_, cmd := app.Update(msg)
	if cmd == nil {
		return
	}
	switch next := cmd().(type) {
	case tea.BatchMsg, tickMsg, nil:
	default:
		app.Update(next)
	}
}

func TestApp_LayoutModeTransitions(t *testing.T) {
	app, _, _ := newTestApp(t)
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{79, LayoutNarrow},
		{80, LayoutWide},
		{200, LayoutWide},
	}
	for _, tc := range tests {
		app.Update(tea.WindowSizeMsg{Width: tc.width, Height: 30})
		assert.Equal(t, tc.want, app.layoutMode, "width %d", tc.width)
	}
}

func TestApp_CustomThreshold(t *testing.T) {
	cfg := config.Default()
	cfg.UX.NarrowLayoutThreshold = 100
	app, _, _ := newTestAppWithConfig(t, cfg)

	app.Update(tea.WindowSizeMsg{Width: 90, Height: 30})
	assert.Equal(t, LayoutNarrow, app.layoutMode)
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Equal(t, LayoutWide, app.layoutMode)
}

func TestApp_WideLayoutShowsAllPanes(t *testing.T) {
	app, _, _ := newTestApp(t)
	view := app.View()
	for _, title := range []string{"TASKS", "FOCUS", "STATS", "lockin", "Wed Mar 12"} {
		assert.Contains(t, view, title)
	}
}

func TestApp_NarrowLayoutShowsActivePaneOnly(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.Update(tea.WindowSizeMsg{Width: 60, Height: 30})

	view := app.View()
	assert.Contains(t, view, "[Tasks]")
	assert.Contains(t, view, "TASKS")
	assert.NotContains(t, view, "FOCUS")

	app.Update(keyMsg("tab"))
	view = app.View()
	assert.Contains(t, view, "[Focus]")
	assert.Contains(t, view, "FOCUS")
	assert.NotContains(t, view, "TASKS")

	app.Update(keyMsg("3"))
	assert.Equal(t, PaneStats, app.activePane)
	app.Update(keyMsg("tab"))
	assert.Equal(t, PaneTasks, app.activePane)
}

func TestApp_TickDrivesEngineAndNotifies(t *testing.T) {
	app, store, clock := newTestApp(t)
	notifier := &recordingNotifier{}
	app.notifier = notifier
	require.NoError(t, app.engine.SelectPreset(1)) // 2s work, 1s break

	clock.Advance(time.Second)
	app.Update(tickMsg(clock.Now()))
	assert.Empty(t, store.GetSessions())

	clock.Advance(time.Second)
	_, cmd := app.Update(tickMsg(clock.Now()))
	require.NotNil(t, cmd)
	assert.Equal(t, timer.WorkComplete.Message(), app.status)
	assert.Equal(t, timer.OnBreak, app.engine.State().Phase)

	sessions := store.GetSessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, int64(2), sessions[0].DurationSec)

	msg := notifyCmd(notifier, timer.WorkComplete)()
	assert.Equal(t, notifiedMsg{signal: timer.WorkComplete}, msg)
	require.Len(t, notifier.got, 1)
	assert.Equal(t, "Break time", notifier.got[0].Title)
}

func TestApp_NotifyFailureIsLoggedNotShown(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.Update(notifiedMsg{signal: timer.BreakComplete, err: errors.New("no dbus")})
	assert.Empty(t, app.status)
}

func TestNotifyCmd_NoSignalOrNotifier(t *testing.T) {
	assert.Nil(t, notifyCmd(&recordingNotifier{}, timer.NoSignal))
	assert.Nil(t, notifyCmd(nil, timer.WorkComplete))
}

func TestApp_StatusExpires(t *testing.T) {
	app, _, clock := newTestApp(t)
	app.SetStatus("hello", false)
	clock.Advance(4 * time.Second)
	app.Update(tickMsg(clock.Now()))
	assert.Equal(t, "hello", app.status)
	clock.Advance(2 * time.Second)
	app.Update(tickMsg(clock.Now()))
	assert.Empty(t, app.status)
}

func TestApp_QuitTearsDownKeepingSlot(t *testing.T) {
	app, store, clock := newTestApp(t)
	require.NoError(t, app.engine.SelectPreset(0))
	clock.Advance(7 * time.Second)

	app.Update(keyMsg("q"))
	assert.True(t, app.quitting)
	slot := store.GetUnfinishedSession()
	require.NotNil(t, slot)
	assert.WithinDuration(t, clock.Now(), slot.LastActive, time.Millisecond)
	assert.Empty(t, store.GetSessions())
	assert.Contains(t, app.View(), "See you later!")
}

func TestApp_RecoveredSessionIsAnnounced(t *testing.T) {
	setupTest(t)
	store, clock := createTestStorage(t)
	_, err := store.SetUnfinishedSession(clock.Now())
	require.NoError(t, err)
	clock.Advance(20 * time.Minute)
	require.NoError(t, store.UpdateLastActive())

	engine := createTestEngine(t, store, clock)
	app := NewApp(store, engine, createTestStyles(), config.Default(), WithClock(clock), WithLocation(time.UTC))
	assert.Equal(t, "Recovered 0h 20m from the last run", app.status)
	assert.Nil(t, store.GetUnfinishedSession())
}

func TestApp_ConfirmDeleteThenUndo(t *testing.T) {
	app, store, _ := newTestApp(t)
	task, err := store.AddTask("Pay rent")
	require.NoError(t, err)
	app.Update(tasksLoadedMsg{tasks: store.GetTasks()})

	app.Update(keyMsg("x"))
	require.NotNil(t, app.confirm)
	assert.Contains(t, app.View(), "Delete task?")
	assert.Len(t, store.GetTasks(), 1)

	send(app, keyMsg("y"))
	assert.Nil(t, app.confirm)
	assert.Empty(t, store.GetTasks())
	require.True(t, app.undoManager.CanUndo())

	send(app, keyMsg("u"))
	assert.Equal(t, "Undid: Deleted task: Pay rent", app.status)
	tasks := store.GetTasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, task.ID, tasks[0].ID)

	send(app, keyMsg("ctrl+y"))
	assert.Equal(t, "Redid: Deleted task: Pay rent", app.status)
	assert.Empty(t, store.GetTasks())
}

func TestApp_ConfirmCanBeCanceled(t *testing.T) {
	app, store, _ := newTestApp(t)
	_, err := store.AddTask("Keep me")
	require.NoError(t, err)
	app.Update(tasksLoadedMsg{tasks: store.GetTasks()})

	app.Update(keyMsg("x"))
	app.Update(keyMsg("n"))
	assert.Nil(t, app.confirm)
	assert.Equal(t, "Canceled", app.status)
	assert.Len(t, store.GetTasks(), 1)
}

func TestApp_DeleteWithoutConfirmation(t *testing.T) {
	cfg := config.Default()
	cfg.UX.ConfirmDeletions = false
	app, store, _ := newTestAppWithConfig(t, cfg)
	_, err := store.AddTask("Gone")
	require.NoError(t, err)
	app.Update(tasksLoadedMsg{tasks: store.GetTasks()})

	send(app, keyMsg("x"))
	assert.Nil(t, app.confirm)
	assert.Empty(t, store.GetTasks())
}

func TestApp_ClearDoneWithNothingDone(t *testing.T) {
	app, store, _ := newTestApp(t)
	_, err := store.AddTask("open")
	require.NoError(t, err)
	app.Update(tasksLoadedMsg{tasks: store.GetTasks()})

	app.Update(keyMsg("C"))
	assert.Nil(t, app.confirm)
	assert.Equal(t, "No completed tasks", app.status)
}

func TestApp_InputModeSwallowsGlobalKeys(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.Update(keyMsg("a"))
	require.True(t, app.taskPane.IsEditing())

	app.Update(keyMsg("q"))
	app.Update(keyMsg("2"))
	assert.False(t, app.quitting)
	assert.Equal(t, PaneTasks, app.activePane)
	assert.Equal(t, "q2", app.taskPane.input.Value())
}

func TestApp_HelpOverlay(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.Update(keyMsg("?"))
	require.True(t, app.showHelp)
	assert.Contains(t, app.View(), "Keyboard Shortcuts")

	// Keys do not leak to panes while help is open.
	app.Update(keyMsg("a"))
	assert.False(t, app.taskPane.IsEditing())
	app.Update(keyMsg("esc"))
	assert.False(t, app.showHelp)
}

func TestApp_TimerChangeReloadsStats(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.Update(keyMsg("2"))
	_, cmd := app.Update(keyMsg(" "))
	require.NotNil(t, cmd)
	_, cmd = app.Update(cmd())
	require.NotNil(t, cmd)
	_, ok := cmd().(statsLoadedMsg)
	assert.True(t, ok)

	view := app.View()
	assert.Contains(t, view, "▶ Work 25:00")
}

func TestApp_TimerErrorShowsStatus(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.Update(timerChangedMsg{err: timer.ErrNoPreset})
	assert.True(t, app.statusErr)
	assert.True(t, strings.HasPrefix(app.status, "Timer: "))
}

func TestApp_ExternalChangeReloads(t *testing.T) {
	app, store, _ := newTestApp(t)
	changes := make(chan struct{}, 1)
	app.changes = changes

	_, err := store.AddTask("from another terminal")
	require.NoError(t, err)
	_, cmd := app.Update(documentChangedMsg{})
	require.NotNil(t, cmd)
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	for _, c := range batch {
		if c == nil {
			continue
		}
		if msg, ok := c().(tasksLoadedMsg); ok {
			app.Update(msg)
		}
		break
	}
	assert.Contains(t, app.View(), "from another terminal")
}

func TestWaitForChangeCmd(t *testing.T) {
	assert.Nil(t, waitForChangeCmd(nil))

	ch := make(chan struct{}, 1)
	ch <- struct{}{}
	assert.Equal(t, documentChangedMsg{}, waitForChangeCmd(ch)())
	close(ch)
	assert.Equal(t, watchStoppedMsg{}, waitForChangeCmd(ch)())
}
