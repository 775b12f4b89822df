package ui

import (
	"errors"
	"fmt"
	"strings"

	"lockin/internal/config"
	"lockin/internal/storage"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var errTaskGone = errors.New("task no longer exists")

// maxTaskInput matches the storage limit on task text.
const maxTaskInput = 200

type inputMode int

const (
	inputNone inputMode = iota
	inputAdd
	inputEdit
)

// TaskPane lists tasks, most recently touched first, and edits them.
type TaskPane struct {
	tasks   []storage.Task
	cursor  int
	focused bool
	width   int
	height  int
	mode    inputMode
	editing storage.Task
	input   textinput.Model
	storage *storage.Storage
	styles  *Styles

	keys      TaskKeyMap
	inputKeys InputKeyMap
}

// NewTaskPane creates a task pane with key bindings from keyCfg.
func NewTaskPane(store *storage.Storage, styles *Styles, keyCfg *config.KeysConfig) *TaskPane {
	ti := textinput.New()
	ti.Placeholder = "What needs to be done?"
	ti.CharLimit = maxTaskInput
	ti.Width = 40

	return &TaskPane{
		focused:   true,
		input:     ti,
		storage:   store,
		styles:    styles,
		keys:      NewTaskKeyMap(keyCfg),
		inputKeys: NewInputKeyMap(keyCfg),
	}
}

// LoadTasksCmd returns a command that loads tasks asynchronously.
func (p *TaskPane) LoadTasksCmd() tea.Cmd {
	return loadTasksCmd(p.storage)
}

// setTasks replaces the list, keeping the cursor on the same task when it
// still exists.
func (p *TaskPane) setTasks(tasks []storage.Task) {
	var selected string
	if t, ok := p.Selected(); ok {
		selected = t.ID
	}
	p.tasks = tasks
	for i, t := range tasks {
		if t.ID == selected {
			p.cursor = i
			return
		}
	}
	if p.cursor >= len(p.tasks) {
		p.cursor = max(0, len(p.tasks)-1)
	}
}

// Selected returns the task under the cursor.
func (p *TaskPane) Selected() (storage.Task, bool) {
	if p.cursor < 0 || p.cursor >= len(p.tasks) {
		return storage.Task{}, false
	}
	return p.tasks[p.cursor], true
}

func (p *TaskPane) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.input.Width = max(10, width-6)
}

func (p *TaskPane) SetFocused(focused bool) {
	p.focused = focused
}

func (p *TaskPane) IsFocused() bool {
	return p.focused
}

// IsEditing reports whether the text input has the keyboard.
func (p *TaskPane) IsEditing() bool {
	return p.mode != inputNone
}

func (p *TaskPane) closeInput() {
	p.mode = inputNone
	p.editing = storage.Task{}
	p.input.Reset()
	p.input.Blur()
}

// Update handles messages for the task pane.
func (p *TaskPane) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tasksLoadedMsg:
		p.setTasks(msg.tasks)
		return nil
	case taskAddedMsg:
		if msg.err == nil {
			p.cursor = 0
		}
		return p.LoadTasksCmd()
	case taskToggledMsg, taskEditedMsg, taskDeletedMsg, tasksClearedMsg:
		return p.LoadTasksCmd()
	}

	if p.mode != inputNone {
		return p.updateInput(msg)
	}
	if !p.focused {
		return nil
	}

	switch msg := msg.(type) {
	case tea.MouseMsg:
		return p.handleMouse(msg)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, p.keys.Down):
			if len(p.tasks) > 0 {
				p.cursor = min(p.cursor+1, len(p.tasks)-1)
			}
		case key.Matches(msg, p.keys.Up):
			p.cursor = max(p.cursor-1, 0)
		case key.Matches(msg, p.keys.Top):
			p.cursor = 0
		case key.Matches(msg, p.keys.Bottom):
			p.cursor = max(0, len(p.tasks)-1)

		case key.Matches(msg, p.keys.Add):
			p.mode = inputAdd
			p.input.Placeholder = "What needs to be done?"
			p.input.Focus()
			return textinput.Blink

		case key.Matches(msg, p.keys.Edit):
			task, ok := p.Selected()
			if !ok {
				return nil
			}
			p.mode = inputEdit
			p.editing = task
			p.input.Placeholder = ""
			p.input.SetValue(task.Text)
			p.input.CursorEnd()
			p.input.Focus()
			return textinput.Blink

		case key.Matches(msg, p.keys.Toggle):
			if task, ok := p.Selected(); ok {
				return toggleTaskCmd(p.storage, task)
			}

		case key.Matches(msg, p.keys.Delete):
			if task, ok := p.Selected(); ok {
				return deleteTaskCmd(p.storage, task)
			}

		case key.Matches(msg, p.keys.ClearDone):
			return clearDoneCmd(p.storage)
		}
	}
	return nil
}

func (p *TaskPane) updateInput(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, p.inputKeys.Confirm):
			text := strings.TrimSpace(p.input.Value())
			mode, task := p.mode, p.editing
			p.closeInput()
			if text == "" {
				return nil
			}
			if mode == inputEdit {
				if text == task.Text {
					return nil
				}
				return editTaskCmd(p.storage, task, text)
			}
			return addTaskCmd(p.storage, text)

		case key.Matches(msg, p.inputKeys.Cancel):
			p.closeInput()
			return nil
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return cmd
}

// visibleRows is how many task lines fit; title, separator, the blank line
// and the count take the rest.
func (p *TaskPane) visibleRows() int {
	rows := p.height - 6
	if p.mode != inputNone {
		rows -= 2
	}
	if rows < 3 {
		rows = 3
	}
	return rows
}

func (p *TaskPane) windowStart() int {
	rows := p.visibleRows()
	if p.cursor >= rows {
		return p.cursor - rows + 1
	}
	return 0
}

func (p *TaskPane) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if len(p.tasks) == 0 {
		return nil
	}
	// Title and separator come first.
	const headerRows = 2

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		p.cursor = max(p.cursor-1, 0)
	case tea.MouseButtonWheelDown:
		p.cursor = min(p.cursor+1, len(p.tasks)-1)
	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress {
			return nil
		}
		row := msg.Y - headerRows
		if row < 0 || row >= p.visibleRows() {
			return nil
		}
		idx := p.windowStart() + row
		if idx >= len(p.tasks) {
			return nil
		}
		p.cursor = idx
		// A click on the checkbox toggles.
		if msg.X < 5 {
			return toggleTaskCmd(p.storage, p.tasks[idx])
		}
	}
	return nil
}

// View renders the task pane.
func (p *TaskPane) View() string {
	var b strings.Builder

	b.WriteString(p.styles.PaneTitleStyle.Render("TASKS"))
	b.WriteString("\n")
	sepWidth := p.width - 4
	if sepWidth < 10 {
		sepWidth = 30
	}
	b.WriteString(lipgloss.NewStyle().Foreground(p.styles.ColorMuted).Render(strings.Repeat("─", sepWidth)))
	b.WriteString("\n")

	if len(p.tasks) == 0 {
		if p.mode == inputNone {
			b.WriteString(lipgloss.NewStyle().Foreground(p.styles.ColorTextMuted).Italic(true).
				Render("  No tasks yet. Press 'a' to add one."))
			b.WriteString("\n")
		}
	} else {
		start, rows := p.windowStart(), p.visibleRows()
		textWidth := max(5, p.width-4-5)
		for i := start; i < len(p.tasks) && i < start+rows; i++ {
			b.WriteString(p.renderTask(i, textWidth))
			b.WriteString("\n")
		}
		done, total := p.Stats()
		b.WriteString("\n")
		b.WriteString("  " + p.styles.StatLabelStyle.Render(fmt.Sprintf("%d/%d complete", done, total)))
		b.WriteString("\n")
	}

	if p.mode != inputNone {
		prompt := "+ "
		if p.mode == inputEdit {
			prompt = "~ "
		}
		b.WriteString("\n")
		b.WriteString(p.styles.InputPromptStyle.Render(prompt) + p.input.View())
		b.WriteString("\n")
	}

	style := p.styles.PaneStyle
	if p.focused {
		style = p.styles.PaneFocusedStyle
	}
	return style.Width(p.width).Height(p.height).Render(b.String())
}

func (p *TaskPane) renderTask(i, textWidth int) string {
	task := p.tasks[i]
	checkbox := p.styles.TaskCheckboxPending
	if task.Done {
		checkbox = p.styles.TaskCheckboxDone
	}
	text := runewidth.Truncate(task.Text, textWidth, "..")

	if i == p.cursor && p.focused && p.mode == inputNone {
		return p.styles.TaskSelectedStyle.Render(" " + checkbox + " " + text + " ")
	}
	if task.Done {
		text = p.styles.TaskDoneStyle.Render(text)
	} else {
		text = p.styles.TaskPendingStyle.Render(text)
	}
	return " " + checkbox + " " + text
}

// Stats returns task statistics.
func (p *TaskPane) Stats() (done, total int) {
	for _, task := range p.tasks {
		if task.Done {
			done++
		}
	}
	return done, len(p.tasks)
}
