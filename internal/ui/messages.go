// Package ui is the lockin terminal interface. Storage work runs in tea.Cmd
// goroutines and reports back through the message types in this file; the
// focus timer is driven on the event loop itself.
package ui

import (
	"time"

	"lockin/internal/analytics"
	"lockin/internal/storage"
	"lockin/internal/timer"
)

// =============================================================================
// Undo/Redo Messages
// =============================================================================

type undoResultMsg struct {
	desc string
	err  error
}

type redoResultMsg struct {
	desc string
	err  error
}

// =============================================================================
// Task Messages
// =============================================================================

type tasksLoadedMsg struct {
	tasks []storage.Task
}

type taskAddedMsg struct {
	task storage.Task
	err  error
}

// taskToggledMsg carries the new done value.
type taskToggledMsg struct {
	id   string
	text string
	done bool
	err  error
}

type taskEditedMsg struct {
	id      string
	oldText string
	newText string
	found   bool
	err     error
}

// taskDeletedMsg keeps the full task so undo can restore it.
type taskDeletedMsg struct {
	task    storage.Task
	removed bool
	err     error
}

type tasksClearedMsg struct {
	cleared []storage.Task
	err     error
}

// =============================================================================
// Timer and Stats Messages
// =============================================================================

// tickMsg is sent every second.
type tickMsg time.Time

// timerChangedMsg follows a user command on the engine. Sessions may have
// been recorded, so stats are refreshed.
type timerChangedMsg struct {
	err error
}

// notifiedMsg reports the outcome of a desktop notification.
type notifiedMsg struct {
	signal timer.Signal
	err    error
}

type statsLoadedMsg struct {
	month analytics.MonthSummary
	year  analytics.YearSummary
	today int64
}

// =============================================================================
// External Change Messages
// =============================================================================

// documentChangedMsg is sent when the stored document changed on disk.
type documentChangedMsg struct{}

// watchStoppedMsg is sent when the change feed closed.
type watchStoppedMsg struct{}
