package ui

import (
	"strings"

	"lockin/internal/config"
	"lockin/internal/timer"

	"github.com/charmbracelet/lipgloss"
)

// Styles holds all application styles, initialized with theme configuration.
type Styles struct {
	ColorPrimary   lipgloss.Color
	ColorAccent    lipgloss.Color
	ColorMuted     lipgloss.Color
	ColorDanger    lipgloss.Color
	ColorWarning   lipgloss.Color
	ColorSuccess   lipgloss.Color
	ColorBgLight   lipgloss.Color
	ColorText      lipgloss.Color
	ColorTextMuted lipgloss.Color

	TitleStyle       lipgloss.Style
	DateStyle        lipgloss.Style
	PaneStyle        lipgloss.Style
	PaneFocusedStyle lipgloss.Style
	PaneTitleStyle   lipgloss.Style

	TaskDoneStyle       lipgloss.Style
	TaskPendingStyle    lipgloss.Style
	TaskSelectedStyle   lipgloss.Style
	TaskCheckboxDone    string
	TaskCheckboxPending string

	// Phase colors for the countdown
	PhaseWorkStyle  lipgloss.Style
	PhaseBreakStyle lipgloss.Style
	PhaseIdleStyle  lipgloss.Style
	PresetStyle     lipgloss.Style
	PresetActive    lipgloss.Style

	HelpStyle    lipgloss.Style
	HelpKeyStyle lipgloss.Style

	StatusStyle lipgloss.Style
	ErrorStyle  lipgloss.Style

	InputPromptStyle lipgloss.Style

	StatLabelStyle lipgloss.Style
	StatValueStyle lipgloss.Style
	BarStyle       lipgloss.Style
}

// NewStyles creates a new Styles instance from the given config.
func NewStyles(cfg *config.Config) *Styles {
	return NewStylesFromTheme(&cfg.Theme)
}

// NewStylesFromTheme creates a new Styles instance from a ThemeConfig.
// Empty theme colors fall back to the defaults.
func NewStylesFromTheme(theme *config.ThemeConfig) *Styles {
	s := &Styles{
		ColorPrimary:   colorOrDefault(theme.Primary, "#7C3AED"),
		ColorAccent:    colorOrDefault(theme.Accent, "#10B981"),
		ColorMuted:     colorOrDefault(theme.Muted, "#6B7280"),
		ColorDanger:    lipgloss.Color("#EF4444"),
		ColorWarning:   lipgloss.Color("#F59E0B"),
		ColorSuccess:   lipgloss.Color("#10B981"),
		ColorBgLight:   colorOrDefault(theme.Background, "#374151"),
		ColorText:      colorOrDefault(theme.Text, "#F9FAFB"),
		ColorTextMuted: lipgloss.Color("#9CA3AF"),
	}
	s.initComponentStyles()
	return s
}

func colorOrDefault(hex, defaultHex string) lipgloss.Color {
	if hex != "" {
		return lipgloss.Color(hex)
	}
	return lipgloss.Color(defaultHex)
}

func (s *Styles) initComponentStyles() {
	s.TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(s.ColorText).
		Background(s.ColorPrimary).
		Padding(0, 1)

	s.DateStyle = lipgloss.NewStyle().Foreground(s.ColorTextMuted)

	s.PaneStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.ColorMuted).
		Padding(0, 1)

	s.PaneFocusedStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.ColorPrimary).
		Padding(0, 1)

	s.PaneTitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(s.ColorPrimary).
		MarginBottom(1)

	s.TaskDoneStyle = lipgloss.NewStyle().
		Foreground(s.ColorTextMuted).
		Strikethrough(true)
	s.TaskPendingStyle = lipgloss.NewStyle().Foreground(s.ColorText)
	s.TaskSelectedStyle = lipgloss.NewStyle().
		Background(s.ColorBgLight).
		Foreground(s.ColorText).
		Bold(true)
	s.TaskCheckboxDone = lipgloss.NewStyle().Foreground(s.ColorSuccess).Render("[✓]")
	s.TaskCheckboxPending = lipgloss.NewStyle().Foreground(s.ColorMuted).Render("[ ]")

	s.PhaseWorkStyle = lipgloss.NewStyle().Foreground(s.ColorSuccess).Bold(true)
	s.PhaseBreakStyle = lipgloss.NewStyle().Foreground(s.ColorWarning).Bold(true)
	s.PhaseIdleStyle = lipgloss.NewStyle().Foreground(s.ColorMuted)
	s.PresetStyle = lipgloss.NewStyle().Foreground(s.ColorTextMuted)
	s.PresetActive = lipgloss.NewStyle().Foreground(s.ColorAccent).Bold(true)

	s.HelpStyle = lipgloss.NewStyle().Foreground(s.ColorTextMuted)
	s.HelpKeyStyle = lipgloss.NewStyle().Foreground(s.ColorAccent).Bold(true)

	s.StatusStyle = lipgloss.NewStyle().Foreground(s.ColorSuccess).Italic(true)
	s.ErrorStyle = lipgloss.NewStyle().Foreground(s.ColorDanger).Bold(true)

	s.InputPromptStyle = lipgloss.NewStyle().Foreground(s.ColorPrimary).Bold(true)

	s.StatLabelStyle = lipgloss.NewStyle().Foreground(s.ColorTextMuted)
	s.StatValueStyle = lipgloss.NewStyle().Foreground(s.ColorText).Bold(true)
	s.BarStyle = lipgloss.NewStyle().Foreground(s.ColorPrimary)
}

// PhaseStyle picks the countdown color for a timer phase.
func (s *Styles) PhaseStyle(p timer.Phase) lipgloss.Style {
	switch p {
	case timer.Working:
		return s.PhaseWorkStyle
	case timer.OnBreak:
		return s.PhaseBreakStyle
	default:
		return s.PhaseIdleStyle
	}
}

// RenderHelp renders key/description pairs as "[key] desc".
func (s *Styles) RenderHelp(keys ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(keys); i += 2 {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(s.HelpKeyStyle.Render("[" + keys[i] + "]"))
		b.WriteString(" ")
		b.WriteString(s.HelpStyle.Render(keys[i+1]))
	}
	return b.String()
}
