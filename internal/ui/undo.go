package ui

import (
	"errors"
	"fmt"
	"sync"

	"lockin/internal/storage"

	"github.com/mattn/go-runewidth"
)

// maxHistorySize bounds how many edits can be undone.
const maxHistorySize = 50

// UndoableAction is one reversible task edit. Redo may be nil, in which case
// the action drops out of history once undone.
type UndoableAction struct {
	Description string
	Undo        func() error
	Redo        func() error
}

// UndoManager holds the undo and redo histories. Actions run outside the
// lock since they write to the store.
type UndoManager struct {
	mu   sync.Mutex
	past []*UndoableAction
	next []*UndoableAction
}

func NewUndoManager() *UndoManager {
	return &UndoManager{}
}

// Push records a completed edit and forgets anything that could be redone.
func (m *UndoManager) Push(action *UndoableAction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next = nil
	if n := len(m.past) - maxHistorySize + 1; n > 0 {
		m.past = append(m.past[:0:0], m.past[n:]...)
	}
	m.past = append(m.past, action)
}

func (m *UndoManager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.past) > 0
}

func (m *UndoManager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.next) > 0
}

// Undo reverts the latest edit and returns its description, or "" when
// there is nothing to undo. A failed undo stays on the history.
func (m *UndoManager) Undo() (string, error) {
	return m.step(&m.past, &m.next, func(a *UndoableAction) func() error { return a.Undo })
}

// Redo reapplies the latest undone edit.
func (m *UndoManager) Redo() (string, error) {
	return m.step(&m.next, &m.past, func(a *UndoableAction) func() error { return a.Redo })
}

// step pops from one history, runs the chosen side of the action and, on
// success, moves it to the other history.
func (m *UndoManager) step(from, to *[]*UndoableAction, pick func(*UndoableAction) func() error) (string, error) {
	m.mu.Lock()
	if len(*from) == 0 {
		m.mu.Unlock()
		return "", nil
	}
	action := (*from)[len(*from)-1]
	*from = (*from)[:len(*from)-1]
	m.mu.Unlock()

	err := pick(action)()

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		*from = append(*from, action)
		return "", err
	}
	if action.Redo != nil {
		*to = append(*to, action)
	}
	return action.Description, nil
}

func (m *UndoManager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.past = nil
	m.next = nil
}

// NewAddTaskAction undoes a task creation by deleting it again.
func NewAddTaskAction(store *storage.Storage, task storage.Task) *UndoableAction {
	return &UndoableAction{
		Description: "Added task: " + truncateText(task.Text, 20),
		Undo: func() error {
			_, err := store.DeleteTask(task.ID)
			return err
		},
		Redo: func() error {
			return store.RestoreTask(task)
		},
	}
}

// NewDeleteTaskAction creates an undoable action for task deletion.
// The task is captured before deletion so it can be restored.
func NewDeleteTaskAction(store *storage.Storage, task storage.Task) *UndoableAction {
	return &UndoableAction{
		Description: "Deleted task: " + truncateText(task.Text, 20),
		Undo: func() error {
			return store.RestoreTask(task)
		},
		Redo: func() error {
			_, err := store.DeleteTask(task.ID)
			return err
		},
	}
}

// NewToggleTaskAction records a done flag flip; done is the new value.
func NewToggleTaskAction(store *storage.Storage, taskID, taskText string, done bool) *UndoableAction {
	desc := "Completed: " + truncateText(taskText, 20)
	if !done {
		desc = "Reopened: " + truncateText(taskText, 20)
	}
	set := func(v bool) func() error {
		return func() error {
			_, err := store.UpdateTask(taskID, storage.TaskUpdate{Done: &v})
			return err
		}
	}
	return &UndoableAction{
		Description: desc,
		Undo:        set(!done),
		Redo:        set(done),
	}
}

// NewEditTaskAction records a text change.
func NewEditTaskAction(store *storage.Storage, taskID, oldText, newText string) *UndoableAction {
	set := func(text string) func() error {
		return func() error {
			_, err := store.UpdateTask(taskID, storage.TaskUpdate{Text: &text})
			return err
		}
	}
	return &UndoableAction{
		Description: "Edited: " + truncateText(newText, 20),
		Undo:        set(oldText),
		Redo:        set(newText),
	}
}

// NewClearDoneAction records the removal of every completed task. Undo puts
// them back in their previous relative order.
func NewClearDoneAction(store *storage.Storage, cleared []storage.Task) *UndoableAction {
	return &UndoableAction{
		Description: fmt.Sprintf("Cleared %d completed", len(cleared)),
		Undo: func() error {
			for i := len(cleared) - 1; i >= 0; i-- {
				if err := store.RestoreTask(cleared[i]); err != nil && !errors.Is(err, storage.ErrTaskExists) {
					return err
				}
			}
			return nil
		},
		Redo: func() error {
			_, err := store.ClearCompletedTasks()
			return err
		},
	}
}

func truncateText(text string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	return runewidth.Truncate(text, maxLen, "..")
}
