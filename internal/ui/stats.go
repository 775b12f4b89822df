package ui

import (
	"fmt"
	"strings"
	"time"

	"lockin/internal/analytics"
	"lockin/internal/config"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
)

const (
	sparklineHeight = 4
	monthBarWidth   = 12
)

// StatsPane summarizes recorded focus time for one month and its year.
type StatsPane struct {
	agg     *analytics.Aggregator
	clock   clockwork.Clock
	focused bool
	width   int
	height  int
	styles  *Styles

	year   int
	month  time.Month
	loaded bool
	data   statsLoadedMsg

	keys StatsKeyMap
}

// NewStatsPane starts on the current month.
func NewStatsPane(agg *analytics.Aggregator, clock clockwork.Clock, styles *Styles, keyCfg *config.KeysConfig) *StatsPane {
	now := clock.Now().In(agg.Location())
	return &StatsPane{
		agg:    agg,
		clock:  clock,
		styles: styles,
		year:   now.Year(),
		month:  now.Month(),
		keys:   NewStatsKeyMap(keyCfg),
	}
}

// LoadStatsCmd recomputes the viewed month.
func (p *StatsPane) LoadStatsCmd() tea.Cmd {
	return loadStatsCmd(p.agg, p.year, p.month, p.clock.Now())
}

func (p *StatsPane) SetSize(width, height int) {
	p.width = width
	p.height = height
}

func (p *StatsPane) SetFocused(focused bool) {
	p.focused = focused
}

func (p *StatsPane) IsFocused() bool {
	return p.focused
}

// Viewing returns the month on screen.
func (p *StatsPane) Viewing() (int, time.Month) {
	return p.year, p.month
}

// shift moves the viewed month by delta months.
func (p *StatsPane) shift(delta int) {
	t := time.Date(p.year, p.month+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	p.year, p.month = t.Year(), t.Month()
}

// Update handles messages for the stats pane.
func (p *StatsPane) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case statsLoadedMsg:
		// Drop results for a month the user already navigated away from.
		if msg.month.Year == p.year && msg.month.Month == p.month {
			p.data = msg
			p.loaded = true
		}
		return nil
	}

	if !p.focused {
		return nil
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, p.keys.PrevMonth):
			p.shift(-1)
		case key.Matches(msg, p.keys.NextMonth):
			p.shift(1)
		case key.Matches(msg, p.keys.ThisMonth):
			now := p.clock.Now().In(p.agg.Location())
			p.year, p.month = now.Year(), now.Month()
		default:
			return nil
		}
		return p.LoadStatsCmd()
	}
	return nil
}

// View renders the stats pane.
func (p *StatsPane) View() string {
	var b strings.Builder

	b.WriteString(p.styles.PaneTitleStyle.Render("STATS"))
	b.WriteString("\n")
	sepWidth := p.width - 4
	if sepWidth < 10 {
		sepWidth = 30
	}
	b.WriteString(p.styles.StatLabelStyle.Render(strings.Repeat("─", sepWidth)))
	b.WriteString("\n")

	b.WriteString(p.styles.StatValueStyle.Render(fmt.Sprintf("  < %s %d >", p.month, p.year)))
	b.WriteString("\n\n")

	if !p.loaded {
		b.WriteString("  " + p.styles.StatLabelStyle.Render("Loading..."))
		b.WriteString("\n")
	} else {
		m := p.data.month
		b.WriteString(p.statLine("Total:     ", analytics.FormatHM(m.TotalSec)))
		b.WriteString(p.statLine("Daily avg: ", analytics.FormatHM(int64(m.AvgDailySec))))
		b.WriteString(p.statLine("Active:    ", fmt.Sprintf("%d days, %d sessions", m.ActiveDays, m.SessionCount)))
		b.WriteString(p.statLine("Today:     ", analytics.FormatHM(p.data.today)))
		b.WriteString("\n")
		b.WriteString(p.renderSparkline(m))
		b.WriteString("\n\n")
		b.WriteString(p.renderYear(p.data.year))
	}

	style := p.styles.PaneStyle
	if p.focused {
		style = p.styles.PaneFocusedStyle
	}
	return style.Width(p.width).Height(p.height).Render(b.String())
}

func (p *StatsPane) statLine(label, value string) string {
	return "  " + p.styles.StatLabelStyle.Render(label) + p.styles.StatValueStyle.Render(value) + "\n"
}

// renderSparkline plots daily totals, one column per day when the pane is
// wide enough; narrower panes keep the most recent days.
func (p *StatsPane) renderSparkline(m analytics.MonthSummary) string {
	if m.TotalSec == 0 {
		return "  " + p.styles.StatLabelStyle.Render("No focus time recorded")
	}
	width := min(len(m.Days), max(8, p.width-6))
	spark := sparkline.New(width, sparklineHeight)
	for _, d := range m.Days {
		spark.Push(analytics.Hours(float64(d.Seconds)))
	}
	spark.Draw()

	lines := strings.Split(spark.View(), "\n")
	for i, l := range lines {
		lines[i] = "  " + p.styles.BarStyle.Render(l)
	}
	return strings.Join(lines, "\n")
}

// renderYear lists month totals for the viewed year with proportional bars.
func (p *StatsPane) renderYear(y analytics.YearSummary) string {
	var b strings.Builder
	b.WriteString("  " + p.styles.StatLabelStyle.Render(fmt.Sprintf("%d: %s total, %s/day",
		y.Year, analytics.FormatHM(y.TotalSec), analytics.FormatHM(int64(y.AvgDailySec)))))
	b.WriteString("\n")

	var peak int64
	for _, mt := range y.Months {
		peak = max(peak, mt.Seconds)
	}
	for _, mt := range y.Months {
		frac := 0.0
		if peak > 0 {
			frac = float64(mt.Seconds) / float64(peak)
		}
		label := fmt.Sprintf("  %s ", mt.Month.String()[:3])
		if mt.Month == p.month {
			label = p.styles.PresetActive.Render(label)
		} else {
			label = p.styles.StatLabelStyle.Render(label)
		}
		b.WriteString(label + p.styles.BarStyle.Render(progressBar(frac, monthBarWidth)) + " " +
			p.styles.StatLabelStyle.Render(analytics.FormatHM(mt.Seconds)))
		b.WriteString("\n")
	}
	return b.String()
}
