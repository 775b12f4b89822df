package ui

import (
	"strings"

	"lockin/internal/analytics"
	"lockin/internal/config"
	"lockin/internal/timer"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// progressWidth is the widest the phase progress bar gets.
const progressWidth = 24

// TimerPane shows the focus timer and forwards commands to the engine. The
// engine is only ever touched from the Bubble Tea event loop.
type TimerPane struct {
	engine   *timer.Engine
	focused  bool
	width    int
	height   int
	styles   *Styles
	todaySec int64

	keys TimerKeyMap
}

// NewTimerPane creates a timer pane driving engine.
func NewTimerPane(engine *timer.Engine, styles *Styles, keyCfg *config.KeysConfig) *TimerPane {
	return &TimerPane{
		engine: engine,
		styles: styles,
		keys:   NewTimerKeyMap(keyCfg),
	}
}

func (p *TimerPane) SetSize(width, height int) {
	p.width = width
	p.height = height
}

func (p *TimerPane) SetFocused(focused bool) {
	p.focused = focused
}

func (p *TimerPane) IsFocused() bool {
	return p.focused
}

// SetToday sets the recorded focus time for today.
func (p *TimerPane) SetToday(sec int64) {
	p.todaySec = sec
}

// Snapshot returns the engine state for display.
func (p *TimerPane) Snapshot() timer.Snapshot {
	return p.engine.Snapshot()
}

// IsRunning reports whether a phase is counting down.
func (p *TimerPane) IsRunning() bool {
	return p.engine.State().Phase.Active()
}

// Update handles messages for the timer pane.
func (p *TimerPane) Update(msg tea.Msg) tea.Cmd {
	if !p.focused {
		return nil
	}
	switch msg := msg.(type) {
	case tea.MouseMsg:
		return p.handleMouse(msg)
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, p.keys.Toggle):
			return p.toggle()
		case key.Matches(msg, p.keys.NextPreset):
			return p.nextPreset()
		case key.Matches(msg, p.keys.Stop):
			if p.IsRunning() {
				p.engine.Stop()
				return timerChanged(nil)
			}
		}
	}
	return nil
}

// toggle stops a running phase, restarts a paused preset, or starts the
// first preset when none was chosen yet.
func (p *TimerPane) toggle() tea.Cmd {
	st := p.engine.State()
	switch {
	case st.Phase.Active():
		p.engine.Stop()
		return timerChanged(nil)
	case st.Preset >= 0:
		return timerChanged(p.engine.Start())
	default:
		return timerChanged(p.engine.SelectPreset(0))
	}
}

// nextPreset switches to the following preset and starts it.
func (p *TimerPane) nextPreset() tea.Cmd {
	n := len(p.engine.Presets())
	if n == 0 {
		return nil
	}
	next := (p.engine.State().Preset + 1) % n
	return timerChanged(p.engine.SelectPreset(next))
}

func timerChanged(err error) tea.Cmd {
	return func() tea.Msg { return timerChangedMsg{err: err} }
}

func (p *TimerPane) handleMouse(msg tea.MouseMsg) tea.Cmd {
	// Title, separator and a blank line sit above the countdown.
	const headerRows = 3
	if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress &&
		msg.Y >= headerRows && msg.Y < headerRows+3 {
		return p.toggle()
	}
	return nil
}

// View renders the timer pane.
func (p *TimerPane) View() string {
	var b strings.Builder
	snap := p.engine.Snapshot()
	phase := p.styles.PhaseStyle(snap.Phase)

	b.WriteString(p.styles.PaneTitleStyle.Render("FOCUS"))
	b.WriteString("\n")
	sepWidth := p.width - 4
	if sepWidth < 10 {
		sepWidth = 30
	}
	b.WriteString(p.styles.StatLabelStyle.Render(strings.Repeat("─", sepWidth)))
	b.WriteString("\n\n")

	b.WriteString("  " + phase.Render(snap.Clock()))
	b.WriteString("\n")
	b.WriteString("  " + phase.Render(snap.Status()))
	b.WriteString("\n")
	b.WriteString("  " + p.styles.BarStyle.Render(progressBar(snap.Progress(), min(progressWidth, max(5, p.width-8)))))
	b.WriteString("\n\n")

	b.WriteString("  " + p.styles.StatLabelStyle.Render("Presets:"))
	b.WriteString("\n")
	for i, preset := range p.engine.Presets() {
		line := preset.Label + "  " + preset.Summary()
		if i == snap.Preset {
			b.WriteString("  " + p.styles.PresetActive.Render("> "+line))
		} else {
			b.WriteString("  " + p.styles.PresetStyle.Render("  "+line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString("  " + p.styles.StatLabelStyle.Render("Today: ") +
		p.styles.StatValueStyle.Render(analytics.FormatHM(p.todaySec)))
	b.WriteString("\n")

	style := p.styles.PaneStyle
	if p.focused {
		style = p.styles.PaneFocusedStyle
	}
	return style.Width(p.width).Height(p.height).Render(b.String())
}

// progressBar draws frac of width as filled cells.
func progressBar(frac float64, width int) string {
	filled := int(frac*float64(width) + 0.5)
	filled = min(max(filled, 0), width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
