package ui

import (
	"errors"
	"testing"

	"lockin/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop() error { return nil }

func TestUndoManager_PushUndoRedo(t *testing.T) {
	manager := NewUndoManager()
	state := 0
	manager.Push(&UndoableAction{
		Description: "bump",
		Undo:        func() error { state--; return nil },
		Redo:        func() error { state++; return nil },
	})
	state++

	desc, err := manager.Undo()
	require.NoError(t, err)
	assert.Equal(t, "bump", desc)
	assert.Equal(t, 0, state)
	assert.False(t, manager.CanUndo())
	assert.True(t, manager.CanRedo())

	desc, err = manager.Redo()
	require.NoError(t, err)
	assert.Equal(t, "bump", desc)
	assert.Equal(t, 1, state)
	assert.True(t, manager.CanUndo())
	assert.False(t, manager.CanRedo())
}

func TestUndoManager_MaxHistory(t *testing.T) {
	manager := NewUndoManager()
	for i := 0; i < maxHistorySize+10; i++ {
		manager.Push(&UndoableAction{Description: "a", Undo: noop})
	}
	count := 0
	for manager.CanUndo() {
		_, _ = manager.Undo()
		count++
	}
	assert.Equal(t, maxHistorySize, count)
}

func TestUndoManager_NewActionClearsRedo(t *testing.T) {
	manager := NewUndoManager()
	manager.Push(&UndoableAction{Description: "1", Undo: noop, Redo: noop})
	_, _ = manager.Undo()
	require.True(t, manager.CanRedo())

	manager.Push(&UndoableAction{Description: "2", Undo: noop})
	assert.False(t, manager.CanRedo())
}

func TestUndoManager_FailedUndoStaysOnStack(t *testing.T) {
	manager := NewUndoManager()
	boom := errors.New("undo failed")
	manager.Push(&UndoableAction{Description: "x", Undo: func() error { return boom }})

	desc, err := manager.Undo()
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, desc)
	assert.True(t, manager.CanUndo())
}

func TestUndoManager_Empty(t *testing.T) {
	manager := NewUndoManager()
	desc, err := manager.Undo()
	assert.NoError(t, err)
	assert.Empty(t, desc)
	desc, err = manager.Redo()
	assert.NoError(t, err)
	assert.Empty(t, desc)

	manager.Push(&UndoableAction{Description: "1", Undo: noop, Redo: noop})
	manager.Clear()
	assert.False(t, manager.CanUndo())
	assert.False(t, manager.CanRedo())
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", truncateText("short", 20))
	assert.Equal(t, "abcdefgh..", truncateText("abcdefghijklmnop", 10))
	assert.Equal(t, "", truncateText("anything", 0))
}

func TestDeleteTaskAction(t *testing.T) {
	store, _ := createTestStorage(t)
	task, err := store.AddTask("write report")
	require.NoError(t, err)
	_, err = store.DeleteTask(task.ID)
	require.NoError(t, err)

	action := NewDeleteTaskAction(store, task)
	assert.Equal(t, "Deleted task: write report", action.Description)

	require.NoError(t, action.Undo())
	tasks := store.GetTasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, task.ID, tasks[0].ID)
	assert.Equal(t, task.CreatedAt, tasks[0].CreatedAt)

	require.NoError(t, action.Redo())
	assert.Empty(t, store.GetTasks())
}

func TestAddTaskAction(t *testing.T) {
	store, _ := createTestStorage(t)
	task, err := store.AddTask("call mom")
	require.NoError(t, err)

	action := NewAddTaskAction(store, task)
	require.NoError(t, action.Undo())
	assert.Empty(t, store.GetTasks())
	require.NoError(t, action.Redo())
	assert.Len(t, store.GetTasks(), 1)
}

func TestToggleTaskAction(t *testing.T) {
	store, _ := createTestStorage(t)
	task, err := store.AddTask("review PR")
	require.NoError(t, err)
	done := true
	_, err = store.UpdateTask(task.ID, storage.TaskUpdate{Done: &done})
	require.NoError(t, err)

	action := NewToggleTaskAction(store, task.ID, task.Text, true)
	assert.Equal(t, "Completed: review PR", action.Description)

	require.NoError(t, action.Undo())
	assert.False(t, store.GetTasks()[0].Done)
	require.NoError(t, action.Redo())
	assert.True(t, store.GetTasks()[0].Done)

	assert.Equal(t, "Reopened: review PR", NewToggleTaskAction(store, task.ID, task.Text, false).Description)
}

func TestEditTaskAction(t *testing.T) {
	store, _ := createTestStorage(t)
	task, err := store.AddTask("old text")
	require.NoError(t, err)
	text := "new text"
	_, err = store.UpdateTask(task.ID, storage.TaskUpdate{Text: &text})
	require.NoError(t, err)

	action := NewEditTaskAction(store, task.ID, "old text", "new text")
	require.NoError(t, action.Undo())
	assert.Equal(t, "old text", store.GetTasks()[0].Text)
	require.NoError(t, action.Redo())
	assert.Equal(t, "new text", store.GetTasks()[0].Text)
}

func TestClearDoneAction(t *testing.T) {
	store, _ := createTestStorage(t)
	done := true
	for _, text := range []string{"a", "b", "c"} {
		task, err := store.AddTask(text)
		require.NoError(t, err)
		if text != "b" {
			_, err = store.UpdateTask(task.ID, storage.TaskUpdate{Done: &done})
			require.NoError(t, err)
		}
	}
	// Order is now c, a, b.
	var cleared []storage.Task
	for _, task := range store.GetTasks() {
		if task.Done {
			cleared = append(cleared, task)
		}
	}
	n, err := store.ClearCompletedTasks()
	require.NoError(t, err)
	require.Equal(t, 2, n)

	action := NewClearDoneAction(store, cleared)
	assert.Equal(t, "Cleared 2 completed", action.Description)
	require.NoError(t, action.Undo())

	var texts []string
	for _, task := range store.GetTasks() {
		texts = append(texts, task.Text)
	}
	assert.Equal(t, []string{"c", "a", "b"}, texts)

	require.NoError(t, action.Redo())
	assert.Len(t, store.GetTasks(), 1)
}
