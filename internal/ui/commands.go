package ui

import (
	"context"
	"time"

	"lockin/internal/analytics"
	"lockin/internal/notify"
	"lockin/internal/storage"
	"lockin/internal/timer"

	tea "github.com/charmbracelet/bubbletea"
)

// notifyTimeout bounds a single desktop notification.
const notifyTimeout = 5 * time.Second

// =============================================================================
// Task Commands
// =============================================================================

func loadTasksCmd(store *storage.Storage) tea.Cmd {
	return func() tea.Msg {
		return tasksLoadedMsg{tasks: store.GetTasks()}
	}
}

func addTaskCmd(store *storage.Storage, text string) tea.Cmd {
	return func() tea.Msg {
		task, err := store.AddTask(text)
		return taskAddedMsg{task: task, err: err}
	}
}

// toggleTaskCmd flips the done flag of task as the pane last saw it.
func toggleTaskCmd(store *storage.Storage, task storage.Task) tea.Cmd {
	return func() tea.Msg {
		done := !task.Done
		updated, err := store.UpdateTask(task.ID, storage.TaskUpdate{Done: &done})
		if err == nil && updated == nil {
			err = errTaskGone
		}
		return taskToggledMsg{id: task.ID, text: task.Text, done: done, err: err}
	}
}

func editTaskCmd(store *storage.Storage, task storage.Task, text string) tea.Cmd {
	return func() tea.Msg {
		updated, err := store.UpdateTask(task.ID, storage.TaskUpdate{Text: &text})
		msg := taskEditedMsg{id: task.ID, oldText: task.Text, err: err, found: updated != nil}
		if updated != nil {
			msg.newText = updated.Text
		}
		return msg
	}
}

func deleteTaskCmd(store *storage.Storage, task storage.Task) tea.Cmd {
	return func() tea.Msg {
		removed, err := store.DeleteTask(task.ID)
		return taskDeletedMsg{task: task, removed: removed, err: err}
	}
}

// clearDoneCmd captures the completed tasks before removing them so the
// removal can be undone.
func clearDoneCmd(store *storage.Storage) tea.Cmd {
	return func() tea.Msg {
		var done []storage.Task
		for _, t := range store.GetTasks() {
			if t.Done {
				done = append(done, t)
			}
		}
		if len(done) == 0 {
			return tasksClearedMsg{}
		}
		if _, err := store.ClearCompletedTasks(); err != nil {
			return tasksClearedMsg{err: err}
		}
		return tasksClearedMsg{cleared: done}
	}
}

// =============================================================================
// Timer, Stats and Notification Commands
// =============================================================================

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// loadStatsCmd summarizes the viewed month and its year. today is computed
// against now, independently of the viewed month.
func loadStatsCmd(agg *analytics.Aggregator, year int, month time.Month, now time.Time) tea.Cmd {
	return func() tea.Msg {
		return statsLoadedMsg{
			month: agg.Month(year, month),
			year:  agg.Year(year),
			today: agg.Today(now),
		}
	}
}

func notifyCmd(n notify.Notifier, sig timer.Signal) tea.Cmd {
	note, ok := notify.ForSignal(sig)
	if n == nil || !ok {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		return notifiedMsg{signal: sig, err: n.Notify(ctx, note)}
	}
}

// waitForChangeCmd blocks until the store reports an external write.
func waitForChangeCmd(changes <-chan struct{}) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return watchStoppedMsg{}
		}
		return documentChangedMsg{}
	}
}

// =============================================================================
// Undo/Redo Commands
// =============================================================================

func undoCmd(manager *UndoManager) tea.Cmd {
	return func() tea.Msg {
		desc, err := manager.Undo()
		return undoResultMsg{desc: desc, err: err}
	}
}

func redoCmd(manager *UndoManager) tea.Cmd {
	return func() tea.Msg {
		desc, err := manager.Redo()
		return redoResultMsg{desc: desc, err: err}
	}
}
