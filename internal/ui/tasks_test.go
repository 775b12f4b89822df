package ui

import (
	"strings"
	"testing"

	"lockin/internal/config"
	"lockin/internal/storage"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "ctrl+z":
		return tea.KeyMsg{Type: tea.KeyCtrlZ}
	case "ctrl+y":
		return tea.KeyMsg{Type: tea.KeyCtrlY}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(p *TaskPane, text string) {
	for _, r := range text {
		p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// drain runs cmd and feeds the result back into the pane until the chain
// ends, the way the Bubble Tea runtime would.
func drain(t *testing.T, p *TaskPane, cmd tea.Cmd) {
	t.Helper()
	for i := 0; cmd != nil && i < 10; i++ {
		cmd = p.Update(cmd())
	}
}

func newTaskPane(t *testing.T, texts ...string) (*TaskPane, *storage.Storage) {
	t.Helper()
	setupTest(t)
	store, _ := createTestStorage(t)
	for _, text := range texts {
		_, err := store.AddTask(text)
		require.NoError(t, err)
	}
	pane := NewTaskPane(store, createTestStyles(), &config.KeysConfig{})
	pane.SetSize(40, 20)
	pane.setTasks(store.GetTasks())
	return pane, store
}

func TestTaskPaneView_Empty(t *testing.T) {
	pane, _ := newTaskPane(t)
	out := pane.View()
	assert.Contains(t, out, "TASKS")
	assert.Contains(t, out, "No tasks yet")
}

func TestTaskPaneView_ListsTasksNewestFirst(t *testing.T) {
	pane, _ := newTaskPane(t, "Buy groceries", "Write tests")
	out := pane.View()
	assert.Less(t, strings.Index(out, "Write tests"), strings.Index(out, "Buy groceries"))
	assert.Contains(t, out, "0/2 complete")
}

func TestTaskPane_AddFlow(t *testing.T) {
	pane, store := newTaskPane(t)

	pane.Update(keyMsg("a"))
	require.True(t, pane.IsEditing())
	typeText(pane, "Read chapter 3")
	cmd := pane.Update(keyMsg("enter"))
	assert.False(t, pane.IsEditing())
	require.NotNil(t, cmd)
	drain(t, pane, cmd)

	tasks := store.GetTasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "Read chapter 3", tasks[0].Text)
	require.Len(t, pane.tasks, 1)
}

func TestTaskPane_AddBlankIsIgnored(t *testing.T) {
	pane, store := newTaskPane(t)
	pane.Update(keyMsg("a"))
	typeText(pane, "   ")
	cmd := pane.Update(keyMsg("enter"))
	assert.Nil(t, cmd)
	assert.Empty(t, store.GetTasks())
}

func TestTaskPane_CancelAdd(t *testing.T) {
	pane, store := newTaskPane(t)
	pane.Update(keyMsg("a"))
	typeText(pane, "draft")
	pane.Update(keyMsg("esc"))
	assert.False(t, pane.IsEditing())
	assert.Empty(t, store.GetTasks())
}

func TestTaskPane_EditFlow(t *testing.T) {
	pane, store := newTaskPane(t, "Draft email")

	pane.Update(keyMsg("e"))
	require.True(t, pane.IsEditing())
	assert.Equal(t, "Draft email", pane.input.Value())
	typeText(pane, " to Sam")
	cmd := pane.Update(keyMsg("enter"))
	require.NotNil(t, cmd)

	msg, ok := cmd().(taskEditedMsg)
	require.True(t, ok)
	assert.Equal(t, "Draft email", msg.oldText)
	assert.Equal(t, "Draft email to Sam", msg.newText)
	assert.Equal(t, "Draft email to Sam", store.GetTasks()[0].Text)
}

func TestTaskPane_EditUnchangedSkipsWrite(t *testing.T) {
	pane, _ := newTaskPane(t, "Same")
	pane.Update(keyMsg("e"))
	assert.Nil(t, pane.Update(keyMsg("enter")))
}

func TestTaskPane_ToggleAndDelete(t *testing.T) {
	pane, store := newTaskPane(t, "one", "two")

	cmd := pane.Update(keyMsg("d"))
	require.NotNil(t, cmd)
	msg := cmd().(taskToggledMsg)
	assert.True(t, msg.done)
	assert.Equal(t, "two", msg.text)
	assert.True(t, store.GetTasks()[0].Done)
	drain(t, pane, pane.Update(msg))
	assert.Equal(t, "two", pane.tasks[pane.cursor].Text, "cursor follows the toggled task")

	pane.Update(keyMsg("j"))
	sel, ok := pane.Selected()
	require.True(t, ok)
	del := pane.Update(keyMsg("x"))().(taskDeletedMsg)
	assert.True(t, del.removed)
	assert.Equal(t, sel.ID, del.task.ID)
	assert.Len(t, store.GetTasks(), 1)
}

func TestTaskPane_ToggleVanishedTask(t *testing.T) {
	pane, store := newTaskPane(t, "gone soon")
	task, _ := pane.Selected()
	_, err := store.DeleteTask(task.ID)
	require.NoError(t, err)

	msg := pane.Update(keyMsg("d"))().(taskToggledMsg)
	assert.ErrorIs(t, msg.err, errTaskGone)
}

func TestTaskPane_ClearDone(t *testing.T) {
	pane, store := newTaskPane(t, "a", "b")
	done := true
	_, err := store.UpdateTask(pane.tasks[0].ID, storage.TaskUpdate{Done: &done})
	require.NoError(t, err)

	msg := pane.Update(keyMsg("C"))().(tasksClearedMsg)
	require.NoError(t, msg.err)
	require.Len(t, msg.cleared, 1)
	assert.Equal(t, "b", msg.cleared[0].Text)
	assert.Len(t, store.GetTasks(), 1)

	empty := pane.Update(keyMsg("C"))().(tasksClearedMsg)
	assert.Empty(t, empty.cleared)
}

func TestTaskPane_Navigation(t *testing.T) {
	pane, _ := newTaskPane(t, "1", "2", "3")
	pane.Update(keyMsg("G"))
	assert.Equal(t, 2, pane.cursor)
	pane.Update(keyMsg("j"))
	assert.Equal(t, 2, pane.cursor)
	pane.Update(keyMsg("g"))
	assert.Equal(t, 0, pane.cursor)
	pane.Update(keyMsg("k"))
	assert.Equal(t, 0, pane.cursor)
}

func TestTaskPane_UnfocusedIgnoresKeys(t *testing.T) {
	pane, _ := newTaskPane(t, "1", "2")
	pane.SetFocused(false)
	assert.Nil(t, pane.Update(keyMsg("x")))
	assert.Equal(t, 0, pane.cursor)
}

func TestTaskPane_CustomKeys(t *testing.T) {
	setupTest(t)
	store, _ := createTestStorage(t)
	pane := NewTaskPane(store, createTestStyles(), &config.KeysConfig{AddTask: "n"})
	pane.Update(keyMsg("a"))
	assert.False(t, pane.IsEditing())
	pane.Update(keyMsg("n"))
	assert.True(t, pane.IsEditing())
}
