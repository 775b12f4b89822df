package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lockin/internal/analytics"
	"lockin/internal/config"
	"lockin/internal/notify"
	"lockin/internal/storage"
	"lockin/internal/timer"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// PaneID identifies each pane in the application.
type PaneID int

const (
	PaneTasks PaneID = iota
	PaneTimer
	PaneStats
)

// LayoutMode determines how panes are arranged based on terminal width.
type LayoutMode int

const (
	// LayoutWide shows all three panes side-by-side.
	LayoutWide LayoutMode = iota
	// LayoutNarrow shows only the focused pane with a tab bar.
	LayoutNarrow
)

// App is the root model. It owns the panes and routes messages between them.
type App struct {
	storage  *storage.Storage
	engine   *timer.Engine
	notifier notify.Notifier
	clock    clockwork.Clock
	loc      *time.Location
	logger   *zap.Logger
	changes  <-chan struct{}

	styles      *Styles
	confirmDels bool
	narrowAt    int

	taskPane    *TaskPane
	timerPane   *TimerPane
	statsPane   *StatsPane
	helpOverlay *HelpOverlay
	undoManager *UndoManager
	undoBusy    bool
	confirm     *confirmState
	activePane  PaneID
	layoutMode  LayoutMode
	showHelp    bool
	width       int
	height      int
	status      string
	statusErr   bool
	statusUntil time.Time
	quitting    bool

	keys     GlobalKeyMap
	helpKeys HelpKeyMap

	// Pane x ranges for mouse hit testing.
	tasksPaneStart int
	tasksPaneEnd   int
	timerPaneStart int
	timerPaneEnd   int
	statsPaneStart int
	statsPaneEnd   int
	contentTop     int
}

type confirmState struct {
	title string
	body  string
	cmd   tea.Cmd
}

// Option configures an App.
type Option func(*App)

func WithClock(c clockwork.Clock) Option {
	return func(a *App) {
		if c != nil {
			a.clock = c
		}
	}
}

// WithLocation sets the time zone for calendar stats; default time.Local.
func WithLocation(loc *time.Location) Option {
	return func(a *App) {
		if loc != nil {
			a.loc = loc
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithNotifier delivers phase-complete signals.
func WithNotifier(n notify.Notifier) Option {
	return func(a *App) { a.notifier = n }
}

// WithChanges makes the app reload whenever changes fires.
func WithChanges(ch <-chan struct{}) Option {
	return func(a *App) { a.changes = ch }
}

// NewApp creates the application. Data loading is deferred to Init.
func NewApp(store *storage.Storage, engine *timer.Engine, styles *Styles, cfg *config.Config, opts ...Option) *App {
	if cfg == nil {
		cfg = config.Default()
	}
	a := &App{
		storage:     store,
		engine:      engine,
		clock:       clockwork.NewRealClock(),
		loc:         time.Local,
		logger:      zap.NewNop(),
		styles:      styles,
		confirmDels: cfg.UX.ConfirmDeletions,
		narrowAt:    cfg.UX.NarrowLayoutThreshold,
		undoManager: NewUndoManager(),
		activePane:  PaneTasks,
		keys:        NewGlobalKeyMap(&cfg.Keys),
		helpKeys:    DefaultHelpKeyMap(),
	}
	for _, opt := range opts {
		opt(a)
	}

	agg := analytics.NewAggregator(store, a.loc)
	a.taskPane = NewTaskPane(store, styles, &cfg.Keys)
	a.timerPane = NewTimerPane(engine, styles, &cfg.Keys)
	a.statsPane = NewStatsPane(agg, a.clock, styles, &cfg.Keys)
	a.helpOverlay = NewHelpOverlay(styles, a.keys, a.taskPane.keys, a.timerPane.keys,
		a.statsPane.keys, a.taskPane.inputKeys)
	a.setActivePane(PaneTasks)

	if s := engine.Recovered(); s != nil {
		a.SetStatus("Recovered "+analytics.FormatHM(s.DurationSec)+" from the last run", false)
	}
	return a
}

// Init loads all data and starts the clock.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		a.taskPane.LoadTasksCmd(),
		a.statsPane.LoadStatsCmd(),
		waitForChangeCmd(a.changes),
	)
}

// Update handles all messages and routes them appropriately.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Async results are routed regardless of which pane is active.
	switch msg := msg.(type) {
	case tasksLoadedMsg:
		return a, a.taskPane.Update(msg)

	case taskAddedMsg:
		if msg.err != nil {
			a.SetStatus("Add task: "+msg.err.Error(), true)
		} else {
			a.undoManager.Push(NewAddTaskAction(a.storage, msg.task))
		}
		return a, a.taskPane.Update(msg)

	case taskToggledMsg:
		if msg.err != nil {
			a.SetStatus("Toggle task: "+msg.err.Error(), true)
		} else {
			a.undoManager.Push(NewToggleTaskAction(a.storage, msg.id, msg.text, msg.done))
		}
		return a, a.taskPane.Update(msg)

	case taskEditedMsg:
		switch {
		case msg.err != nil:
			a.SetStatus("Edit task: "+msg.err.Error(), true)
		case !msg.found:
			a.SetStatus("Edit task: "+errTaskGone.Error(), true)
		default:
			a.undoManager.Push(NewEditTaskAction(a.storage, msg.id, msg.oldText, msg.newText))
		}
		return a, a.taskPane.Update(msg)

	case taskDeletedMsg:
		switch {
		case msg.err != nil:
			a.SetStatus("Delete task: "+msg.err.Error(), true)
		case !msg.removed:
			a.SetStatus("Delete task: "+errTaskGone.Error(), true)
		default:
			a.undoManager.Push(NewDeleteTaskAction(a.storage, msg.task))
		}
		return a, a.taskPane.Update(msg)

	case tasksClearedMsg:
		switch {
		case msg.err != nil:
			a.SetStatus("Clear completed: "+msg.err.Error(), true)
		case len(msg.cleared) == 0:
			a.SetStatus("No completed tasks", false)
		default:
			a.undoManager.Push(NewClearDoneAction(a.storage, msg.cleared))
			a.SetStatus(fmt.Sprintf("Cleared %d completed", len(msg.cleared)), false)
		}
		return a, a.taskPane.Update(msg)

	case timerChangedMsg:
		if msg.err != nil {
			a.SetStatus("Timer: "+msg.err.Error(), true)
		}
		return a, a.statsPane.LoadStatsCmd()

	case statsLoadedMsg:
		a.timerPane.SetToday(msg.today)
		return a, a.statsPane.Update(msg)

	case notifiedMsg:
		if msg.err != nil {
			a.logger.Warn("notification failed", zap.Stringer("signal", msg.signal), zap.Error(msg.err))
		}
		return a, nil

	case documentChangedMsg:
		return a, tea.Batch(
			a.taskPane.LoadTasksCmd(),
			a.statsPane.LoadStatsCmd(),
			waitForChangeCmd(a.changes),
		)

	case watchStoppedMsg:
		a.changes = nil
		return a, nil

	case tickMsg:
		return a, a.handleTick()

	case undoResultMsg:
		a.undoBusy = false
		a.reportHistory("Undid", "Nothing to undo", msg.desc, msg.err)
		return a, a.taskPane.LoadTasksCmd()

	case redoResultMsg:
		a.undoBusy = false
		a.reportHistory("Redid", "Nothing to redo", msg.desc, msg.err)
		return a, a.taskPane.LoadTasksCmd()

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.updateLayout()
		return a, nil

	case tea.MouseMsg:
		return a, a.handleMouse(msg)

	case tea.KeyMsg:
		if cmd, handled := a.handleKey(msg); handled {
			return a, cmd
		}
	}

	if a.showHelp {
		return a, nil
	}
	return a, a.activeUpdate(msg)
}

// handleTick advances the focus timer by one second and expires the status
// line. A completed phase triggers a notification and a stats refresh.
func (a *App) handleTick() tea.Cmd {
	if a.status != "" && !a.statusUntil.IsZero() && a.clock.Now().After(a.statusUntil) {
		a.status = ""
		a.statusErr = false
		a.statusUntil = time.Time{}
	}

	cmds := []tea.Cmd{tickCmd()}
	if sig := a.engine.Tick(); sig != timer.NoSignal {
		a.SetStatus(sig.Message(), false)
		cmds = append(cmds, notifyCmd(a.notifier, sig), a.statsPane.LoadStatsCmd())
	}
	return tea.Batch(cmds...)
}

func (a *App) reportHistory(verb, empty, desc string, err error) {
	switch {
	case err != nil:
		a.SetStatus(verb+" failed: "+err.Error(), true)
	case desc == "":
		a.SetStatus(empty, false)
	default:
		a.SetStatus(verb+": "+desc, false)
	}
}

// handleKey processes overlays and global keys. It reports false when the
// key should go to the active pane.
func (a *App) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if a.confirm != nil {
		switch msg.String() {
		case "y", "Y", "enter":
			cmd := a.confirm.cmd
			a.confirm = nil
			return cmd, true
		case "n", "N", "esc":
			a.confirm = nil
			a.SetStatus("Canceled", false)
		}
		return nil, true
	}

	if a.showHelp {
		if key.Matches(msg, a.helpKeys.Close) {
			a.showHelp = false
		}
		return nil, true
	}

	// Text input owns the keyboard.
	if a.taskPane.IsEditing() {
		return a.taskPane.Update(msg), true
	}

	if a.activePane == PaneTasks && a.confirmDels {
		if cmd, ok := a.confirmTaskKey(msg); ok {
			return cmd, true
		}
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		a.engine.Teardown()
		a.quitting = true
		return tea.Quit, true
	case key.Matches(msg, a.keys.Help):
		a.showHelp = true
	case key.Matches(msg, a.keys.NextPane):
		a.switchPane()
	case key.Matches(msg, a.keys.Pane1):
		a.setActivePane(PaneTasks)
	case key.Matches(msg, a.keys.Pane2):
		a.setActivePane(PaneTimer)
	case key.Matches(msg, a.keys.Pane3):
		a.setActivePane(PaneStats)
	case key.Matches(msg, a.keys.Undo):
		if a.undoBusy {
			a.SetStatus("Undo: busy", true)
			return nil, true
		}
		a.undoBusy = true
		return undoCmd(a.undoManager), true
	case key.Matches(msg, a.keys.Redo):
		if a.undoBusy {
			a.SetStatus("Redo: busy", true)
			return nil, true
		}
		a.undoBusy = true
		return redoCmd(a.undoManager), true
	default:
		return nil, false
	}
	return nil, true
}

// confirmTaskKey opens a confirmation for destructive task keys.
func (a *App) confirmTaskKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, a.taskPane.keys.Delete):
		task, ok := a.taskPane.Selected()
		if !ok {
			a.SetStatus("No task selected", true)
			return nil, true
		}
		a.confirm = &confirmState{
			title: "Delete task?",
			body:  truncateText(task.Text, 60),
			cmd:   deleteTaskCmd(a.storage, task),
		}
		return nil, true

	case key.Matches(msg, a.taskPane.keys.ClearDone):
		done, _ := a.taskPane.Stats()
		if done == 0 {
			a.SetStatus("No completed tasks", false)
			return nil, true
		}
		a.confirm = &confirmState{
			title: "Clear completed tasks?",
			body:  fmt.Sprintf("%d completed task(s) will be removed.", done),
			cmd:   clearDoneCmd(a.storage),
		}
		return nil, true
	}
	return nil, false
}

func (a *App) activeUpdate(msg tea.Msg) tea.Cmd {
	switch a.activePane {
	case PaneTimer:
		return a.timerPane.Update(msg)
	case PaneStats:
		return a.statsPane.Update(msg)
	default:
		return a.taskPane.Update(msg)
	}
}

func (a *App) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if a.confirm != nil || a.showHelp {
		if msg.Action == tea.MouseActionPress {
			if a.confirm != nil {
				a.SetStatus("Canceled", false)
			}
			a.confirm = nil
			a.showHelp = false
		}
		return nil
	}

	if a.taskPane.IsEditing() {
		return nil
	}
	if msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown {
		local := msg
		local.Y = msg.Y - a.contentTop
		return a.activeUpdate(local)
	}
	if msg.Action != tea.MouseActionPress {
		return nil
	}

	if a.layoutMode == LayoutNarrow && msg.Y == a.contentTop-1 {
		tabWidth := max(1, a.width/3)
		a.setActivePane(PaneID(min(msg.X/tabWidth, int(PaneStats))))
		return nil
	}

	if pane := a.paneAtPosition(msg.X); pane >= 0 && pane != a.activePane {
		a.setActivePane(pane)
	}
	if msg.Y < a.contentTop {
		return nil
	}

	local := msg
	local.Y = msg.Y - a.contentTop
	if a.layoutMode == LayoutWide {
		switch a.activePane {
		case PaneTimer:
			local.X = msg.X - a.timerPaneStart
		case PaneStats:
			local.X = msg.X - a.statsPaneStart
		}
	}
	return a.activeUpdate(local)
}

func (a *App) switchPane() {
	a.setActivePane((a.activePane + 1) % 3)
}

func (a *App) setActivePane(pane PaneID) {
	a.activePane = pane
	a.taskPane.SetFocused(pane == PaneTasks)
	a.timerPane.SetFocused(pane == PaneTimer)
	a.statsPane.SetFocused(pane == PaneStats)
}

// paneAtPosition returns the pane under x, or -1.
func (a *App) paneAtPosition(x int) PaneID {
	switch {
	case a.layoutMode == LayoutNarrow:
		return a.activePane
	case x >= a.tasksPaneStart && x < a.tasksPaneEnd:
		return PaneTasks
	case x >= a.timerPaneStart && x < a.timerPaneEnd:
		return PaneTimer
	case x >= a.statsPaneStart && x < a.statsPaneEnd:
		return PaneStats
	}
	return -1
}

// updateLayout recalculates pane sizes based on terminal dimensions.
func (a *App) updateLayout() {
	// Title bar and help bar.
	contentHeight := max(a.height-4, 10)
	a.contentTop = 1
	a.helpOverlay.SetSize(a.width, a.height)
	totalWidth := a.width - 4

	threshold := a.narrowAt
	if threshold <= 0 {
		threshold = 80
	}

	if a.width < threshold {
		a.layoutMode = LayoutNarrow
		height := max(contentHeight-1, 8)
		width := max(totalWidth, 20)
		a.taskPane.SetSize(width, height)
		a.timerPane.SetSize(width, height)
		a.statsPane.SetSize(width, height)

		a.tasksPaneStart, a.tasksPaneEnd = 0, a.width
		a.timerPaneStart, a.timerPaneEnd = 0, a.width
		a.statsPaneStart, a.statsPaneEnd = 0, a.width
		// Tab bar sits above the pane.
		a.contentTop = 2
		return
	}

	a.layoutMode = LayoutWide
	var tasksWidth, timerWidth, statsWidth int
	if totalWidth < 120 {
		tasksWidth = (totalWidth * 36) / 100
		timerWidth = (totalWidth * 28) / 100
		statsWidth = totalWidth - tasksWidth - timerWidth - 2
	} else {
		tasksWidth = min((totalWidth*38)/100, 56)
		timerWidth = min((totalWidth*26)/100, 40)
		statsWidth = min(totalWidth-tasksWidth-timerWidth-2, 50)
	}
	a.taskPane.SetSize(tasksWidth, contentHeight)
	a.timerPane.SetSize(timerWidth, contentHeight)
	a.statsPane.SetSize(statsWidth, contentHeight)

	// One column gap between panes.
	a.tasksPaneStart, a.tasksPaneEnd = 0, tasksWidth
	a.timerPaneStart = tasksWidth + 1
	a.timerPaneEnd = a.timerPaneStart + timerWidth
	a.statsPaneStart = a.timerPaneEnd + 1
	a.statsPaneEnd = a.statsPaneStart + statsWidth
}

// View renders the entire app.
func (a *App) View() string {
	switch {
	case a.quitting:
		return a.renderGoodbye()
	case a.confirm != nil:
		return a.renderConfirm()
	case a.showHelp:
		return a.helpOverlay.View()
	}

	var b strings.Builder
	b.WriteString(a.renderTitleBar())
	b.WriteString("\n")
	if a.layoutMode == LayoutNarrow {
		b.WriteString(a.renderPaneTabs())
		b.WriteString("\n")
		switch a.activePane {
		case PaneTimer:
			b.WriteString(a.timerPane.View())
		case PaneStats:
			b.WriteString(a.statsPane.View())
		default:
			b.WriteString(a.taskPane.View())
		}
	} else {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			a.taskPane.View(), " ", a.timerPane.View(), " ", a.statsPane.View()))
	}
	b.WriteString("\n")
	b.WriteString(a.renderHelpBar())
	return b.String()
}

func (a *App) renderConfirm() string {
	overlayWidth := 60
	if a.width > 0 {
		overlayWidth = min(60, max(20, a.width-4))
	}
	overlay := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(a.styles.ColorDanger).
		Padding(1, 2).
		Width(overlayWidth)
	title := lipgloss.NewStyle().Bold(true).Foreground(a.styles.ColorDanger)
	body := lipgloss.NewStyle().Foreground(a.styles.ColorText)
	hint := lipgloss.NewStyle().Foreground(a.styles.ColorTextMuted)

	var b strings.Builder
	b.WriteString(title.Render(a.confirm.title))
	b.WriteString("\n\n")
	b.WriteString(body.Render(a.confirm.body))
	b.WriteString("\n\n")
	b.WriteString(hint.Render("[y/enter] confirm    [n/esc] cancel"))
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, overlay.Render(b.String()))
}

func (a *App) renderPaneTabs() string {
	tabs := []struct {
		id    PaneID
		label string
	}{
		{PaneTasks, "Tasks"},
		{PaneTimer, "Focus"},
		{PaneStats, "Stats"},
	}
	active := lipgloss.NewStyle().Foreground(a.styles.ColorPrimary).Bold(true)
	inactive := lipgloss.NewStyle().Foreground(a.styles.ColorTextMuted)

	parts := make([]string, 0, len(tabs))
	for _, tab := range tabs {
		if tab.id == a.activePane {
			parts = append(parts, active.Render("["+tab.label+"]"))
		} else {
			parts = append(parts, inactive.Render(" "+tab.label+" "))
		}
	}
	bar := strings.Join(parts, "  ")
	if pad := (a.width - lipgloss.Width(bar)) / 2; pad > 0 {
		bar = strings.Repeat(" ", pad) + bar
	}
	return bar
}

// renderGoodbye summarizes the day on exit.
func (a *App) renderGoodbye() string {
	done, total := a.taskPane.Stats()
	var b strings.Builder
	b.WriteString("\n  See you later!\n\n")
	b.WriteString(fmt.Sprintf("     Focus today: %s\n", analytics.FormatHM(a.timerPane.todaySec)))
	if total > 0 {
		b.WriteString(fmt.Sprintf("     Tasks:       %d/%d (%d%%)\n", done, total, done*100/total))
	}
	b.WriteString("\n")
	return b.String()
}

func (a *App) renderTitleBar() string {
	title := a.styles.TitleStyle.Render(" lockin ")

	var stats string
	if done, total := a.taskPane.Stats(); total > 0 {
		stats = a.styles.StatLabelStyle.Render(fmt.Sprintf("Tasks: %d/%d", done, total))
	}

	var running string
	if snap := a.timerPane.Snapshot(); snap.Phase.Active() {
		label := "Work"
		if snap.Phase == timer.OnBreak {
			label = "Break"
		}
		running = a.styles.PhaseStyle(snap.Phase).Render(fmt.Sprintf("▶ %s %s", label, snap.Clock()))
	}

	date := a.styles.DateStyle.Render(a.clock.Now().In(a.loc).Format("Mon Jan 2 · 15:04"))

	used := lipgloss.Width(title) + lipgloss.Width(stats) + lipgloss.Width(running) + lipgloss.Width(date)
	spacer := max(a.width-used-6, 2)

	var b strings.Builder
	b.WriteString(title)
	if stats != "" {
		b.WriteString("  " + stats)
	}
	b.WriteString(strings.Repeat(" ", spacer/2))
	b.WriteString(running)
	b.WriteString(strings.Repeat(" ", spacer-spacer/2))
	b.WriteString(date)
	return b.String()
}

// renderHelpBar shows the status line or context-sensitive hints.
func (a *App) renderHelpBar() string {
	if a.status != "" {
		if a.statusErr {
			return a.styles.ErrorStyle.Render(a.status)
		}
		return a.styles.StatusStyle.Render(a.status)
	}
	if a.taskPane.IsEditing() {
		return a.styles.RenderHelp("enter", "save", "esc", "cancel")
	}

	switch a.activePane {
	case PaneTimer:
		action := "start"
		if a.timerPane.IsRunning() {
			action = "stop"
		}
		return a.styles.RenderHelp("space", action, "p", "next preset", "tab", "pane", "?", "help")
	case PaneStats:
		return a.styles.RenderHelp("h/l", "month", "t", "this month", "tab", "pane", "?", "help")
	default:
		return a.styles.RenderHelp("a", "add", "e", "edit", "d", "done", "x", "del", "C", "clear", "?", "help")
	}
}

// SetStatus shows msg in the help bar for a few seconds.
func (a *App) SetStatus(msg string, isErr bool) {
	a.status = msg
	a.statusErr = isErr
	ttl := 5 * time.Second
	if isErr {
		ttl = 8 * time.Second
	}
	a.statusUntil = a.clock.Now().Add(ttl)
}

// Run starts the terminal UI and blocks until it exits. External writes to
// the document are picked up when the backend supports watching.
func Run(store *storage.Storage, engine *timer.Engine, styles *Styles, cfg *config.Config, opts ...Option) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := NewApp(store, engine, styles, cfg, opts...)
	changes, err := store.Watch(ctx)
	switch {
	case err == nil:
		app.changes = changes
	case errors.Is(err, storage.ErrWatchUnsupported):
	default:
		app.logger.Warn("watching document failed, external changes need a restart", zap.Error(err))
	}

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()
	return err
}
