package ui

import (
	"strings"

	"lockin/internal/config"

	"github.com/charmbracelet/bubbles/key"
)

// parseKeys splits a comma-separated override into keys. "space" names the
// space bar. An empty or blank override yields defaults.
func parseKeys(custom string, defaults ...string) []string {
	var keys []string
	for _, k := range strings.Split(custom, ",") {
		switch k = strings.TrimSpace(k); k {
		case "":
		case "space":
			keys = append(keys, " ")
		default:
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return defaults
	}
	return keys
}

// bind builds a binding from a config override. The help label is label
// unless the user remapped the action, in which case it lists their keys.
func bind(custom, label, desc string, defaults ...string) key.Binding {
	keys := parseKeys(custom, defaults...)
	if strings.TrimSpace(custom) != "" {
		shown := make([]string, len(keys))
		for i, k := range keys {
			if k == " " {
				k = "space"
			}
			shown[i] = k
		}
		label = strings.Join(shown, "/")
	}
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(label, desc))
}

func orEmpty(cfg *config.KeysConfig) *config.KeysConfig {
	if cfg == nil {
		return &config.KeysConfig{}
	}
	return cfg
}

// GlobalKeyMap holds keys that work in every pane.
type GlobalKeyMap struct {
	Quit, Help, NextPane key.Binding
	Pane1, Pane2, Pane3  key.Binding
	Undo, Redo           key.Binding
}

func NewGlobalKeyMap(cfg *config.KeysConfig) GlobalKeyMap {
	cfg = orEmpty(cfg)
	return GlobalKeyMap{
		Quit:     bind(cfg.Quit, "q", "quit", "q", "ctrl+c"),
		Help:     bind(cfg.Help, "?", "help", "?"),
		NextPane: bind(cfg.NextPane, "tab", "next pane", "tab"),
		Pane1:    bind(cfg.Pane1, "1", "tasks", "1"),
		Pane2:    bind(cfg.Pane2, "2", "timer", "2"),
		Pane3:    bind(cfg.Pane3, "3", "stats", "3"),
		Undo:     bind(cfg.Undo, "u", "undo", "ctrl+z", "u"),
		Redo:     bind(cfg.Redo, "ctrl+y", "redo", "ctrl+y"),
	}
}

// NavigationKeyMap moves a list cursor.
type NavigationKeyMap struct {
	Up, Down, Top, Bottom key.Binding
}

func NewNavigationKeyMap(cfg *config.KeysConfig) NavigationKeyMap {
	cfg = orEmpty(cfg)
	return NavigationKeyMap{
		Up:     bind(cfg.Up, "k/↑", "up", "k", "up"),
		Down:   bind(cfg.Down, "j/↓", "down", "j", "down"),
		Top:    bind(cfg.Top, "g", "top", "g"),
		Bottom: bind(cfg.Bottom, "G", "bottom", "G"),
	}
}

// InputKeyMap is active while a text field has focus.
type InputKeyMap struct {
	Confirm, Cancel key.Binding
}

func NewInputKeyMap(cfg *config.KeysConfig) InputKeyMap {
	cfg = orEmpty(cfg)
	return InputKeyMap{
		Confirm: bind(cfg.Confirm, "enter", "confirm", "enter"),
		Cancel:  bind(cfg.Cancel, "esc", "cancel", "esc"),
	}
}

type TaskKeyMap struct {
	Add       key.Binding
	Edit      key.Binding
	Toggle    key.Binding
	Delete    key.Binding
	ClearDone key.Binding
	NavigationKeyMap
}

func NewTaskKeyMap(cfg *config.KeysConfig) TaskKeyMap {
	cfg = orEmpty(cfg)
	return TaskKeyMap{
		Add:              bind(cfg.AddTask, "a", "add task", "a"),
		Edit:             bind(cfg.EditTask, "e", "edit", "e"),
		Toggle:           bind(cfg.ToggleTask, "d/space", "toggle done", "d", "enter", " "),
		Delete:           bind(cfg.DeleteTask, "x", "delete", "x"),
		ClearDone:        bind(cfg.ClearDone, "C", "clear done", "C"),
		NavigationKeyMap: NewNavigationKeyMap(cfg),
	}
}

// ShortHelp implements help.KeyMap.
func (k TaskKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Edit, k.Toggle, k.Delete}
}

// FullHelp implements help.KeyMap.
func (k TaskKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Add, k.Edit, k.Toggle, k.Delete, k.ClearDone},
		{k.Up, k.Down, k.Top, k.Bottom},
	}
}

// TimerKeyMap drives the focus timer pane.
type TimerKeyMap struct {
	Toggle, NextPreset, Stop key.Binding
}

func NewTimerKeyMap(cfg *config.KeysConfig) TimerKeyMap {
	cfg = orEmpty(cfg)
	return TimerKeyMap{
		Toggle:     bind(cfg.ToggleTimer, "space", "start/stop", " ", "enter"),
		NextPreset: bind(cfg.NextPreset, "p", "next preset", "p"),
		Stop:       bind(cfg.StopTimer, "x", "stop", "x"),
	}
}

func (k TimerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.NextPreset, k.Stop}
}

func (k TimerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// StatsKeyMap pages the stats pane between months.
type StatsKeyMap struct {
	PrevMonth, NextMonth, ThisMonth key.Binding
}

func NewStatsKeyMap(cfg *config.KeysConfig) StatsKeyMap {
	cfg = orEmpty(cfg)
	return StatsKeyMap{
		PrevMonth: bind(cfg.PrevMonth, "h/←", "prev month", "h", "left"),
		NextMonth: bind(cfg.NextMonth, "l/→", "next month", "l", "right"),
		ThisMonth: bind("", "t", "this month", "t"),
	}
}

func (k StatsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PrevMonth, k.NextMonth, k.ThisMonth}
}

func (k StatsKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// HelpKeyMap closes the help overlay.
type HelpKeyMap struct {
	Close key.Binding
}

func DefaultHelpKeyMap() HelpKeyMap {
	return HelpKeyMap{Close: bind("", "any key", "close", "?", "esc", "q", "enter", " ")}
}
