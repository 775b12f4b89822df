package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// helpSection is one titled group of bindings in the overlay.
type helpSection struct {
	title    string
	bindings []key.Binding
}

// HelpOverlay lists every key binding, built from the active key maps so
// custom bindings show up as configured.
type HelpOverlay struct {
	width    int
	height   int
	styles   *Styles
	sections []helpSection
}

// NewHelpOverlay creates the overlay from the pane key maps.
func NewHelpOverlay(styles *Styles, global GlobalKeyMap, tasks TaskKeyMap, timerKeys TimerKeyMap, stats StatsKeyMap, input InputKeyMap) *HelpOverlay {
	return &HelpOverlay{
		styles: styles,
		sections: []helpSection{
			{"Global", []key.Binding{global.NextPane, global.Pane1, global.Pane2, global.Pane3,
				global.Undo, global.Redo, global.Help, global.Quit}},
			{"Tasks", []key.Binding{tasks.Add, tasks.Edit, tasks.Toggle, tasks.Delete, tasks.ClearDone,
				tasks.Up, tasks.Down, tasks.Top, tasks.Bottom}},
			{"Focus timer", []key.Binding{timerKeys.Toggle, timerKeys.NextPreset, timerKeys.Stop}},
			{"Stats", []key.Binding{stats.PrevMonth, stats.NextMonth, stats.ThisMonth}},
			{"Input Mode", []key.Binding{input.Confirm, input.Cancel}},
		},
	}
}

func (h *HelpOverlay) SetSize(width, height int) {
	h.width = width
	h.height = height
}

// View renders the overlay centered in the terminal.
func (h *HelpOverlay) View() string {
	overlayWidth := 60
	if h.width > 0 {
		overlayWidth = min(60, max(20, h.width-4))
	}

	overlayStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(h.styles.ColorPrimary).
		Padding(1, 2).
		Width(overlayWidth)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(h.styles.ColorPrimary)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(h.styles.ColorAccent)
	keyStyle := lipgloss.NewStyle().Foreground(h.styles.ColorWarning).Width(12)
	descStyle := lipgloss.NewStyle().Foreground(h.styles.ColorText)
	mutedStyle := lipgloss.NewStyle().Foreground(h.styles.ColorTextMuted).Italic(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("lockin - Keyboard Shortcuts"))
	b.WriteString("\n")

	for _, sec := range h.sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, kb := range sec.bindings {
			if !kb.Enabled() {
				continue
			}
			help := kb.Help()
			b.WriteString(keyStyle.Render(help.Key) + descStyle.Render(help.Desc) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Press ? or Esc to close"))

	return lipgloss.Place(h.width, h.height, lipgloss.Center, lipgloss.Center, overlayStyle.Render(b.String()))
}
