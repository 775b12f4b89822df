// Package config handles configuration loading and defaults for lockin.
// Configuration is loaded from XDG-compliant paths (typically ~/.config/lockin/config.yaml).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lockin/internal/fsutil"
	"lockin/internal/timer"

	"gopkg.in/yaml.v3"
)

// Environment overrides, applied after the file.
const (
	EnvDataDir  = "LOCKIN_DATA_DIR"
	EnvBackend  = "LOCKIN_BACKEND"
	EnvLogLevel = "LOCKIN_LOG_LEVEL"
)

// Config represents the application configuration.
type Config struct {
	// DataDir overrides the default data directory (~/.lockin)
	DataDir string `yaml:"data_dir,omitempty"`

	Storage StorageConfig `yaml:"storage,omitempty"`

	Timer TimerConfig `yaml:"timer,omitempty"`

	Notifications NotificationConfig `yaml:"notifications,omitempty"`

	Log LogConfig `yaml:"log,omitempty"`

	Metrics MetricsConfig `yaml:"metrics,omitempty"`

	// Theme customizes the visual appearance
	Theme ThemeConfig `yaml:"theme,omitempty"`

	// Keys customizes keyboard shortcuts
	Keys KeysConfig `yaml:"keys,omitempty"`

	// UX customizes user experience settings
	UX UXConfig `yaml:"ux,omitempty"`
}

// StorageConfig selects where the document lives.
type StorageConfig struct {
	// Backend is "file" (default), "sqlite" or "memory"
	Backend string `yaml:"backend,omitempty"`
}

// TimerConfig defines the focus presets.
type TimerConfig struct {
	Presets []PresetConfig `yaml:"presets,omitempty"`
}

// PresetConfig is one work/rest pair, as Go duration strings ("25m").
type PresetConfig struct {
	Label string `yaml:"label,omitempty"`
	Work  string `yaml:"work"`
	Rest  string `yaml:"rest"`
}

// NotificationConfig defines desktop notification settings.
type NotificationConfig struct {
	// Enabled enables/disables desktop notifications on phase changes
	Enabled bool `yaml:"enabled,omitempty"`

	// Sound enables notification sounds
	Sound bool `yaml:"sound,omitempty"`

	// Bell rings the terminal bell on phase changes
	Bell bool `yaml:"bell,omitempty"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`  // default: info
	Format string `yaml:"format,omitempty"` // json or console
	// File defaults to <data_dir>/lockin.log
	File string `yaml:"file,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint of `lockin focus`.
type MetricsConfig struct {
	// Addr is the listen address, e.g. "127.0.0.1:9464". Empty disables it.
	Addr string `yaml:"addr,omitempty"`
}

// ThemeConfig defines color and style settings.
type ThemeConfig struct {
	// Primary color for focused elements (hex, e.g., "#FF5733")
	Primary string `yaml:"primary,omitempty"`

	// Accent color for highlights (hex)
	Accent string `yaml:"accent,omitempty"`

	// Muted color for secondary text (hex)
	Muted string `yaml:"muted,omitempty"`

	// Background color (hex)
	Background string `yaml:"background,omitempty"`

	// Text color (hex)
	Text string `yaml:"text,omitempty"`
}

// KeysConfig defines customizable keyboard shortcuts.
// Each field accepts a comma-separated list of key bindings.
// Examples: "q,ctrl+c", "tab", "j,down"
type KeysConfig struct {
	// Global keys
	Quit     string `yaml:"quit,omitempty"`      // default: "q,ctrl+c"
	Help     string `yaml:"help,omitempty"`      // default: "?"
	NextPane string `yaml:"next_pane,omitempty"` // default: "tab"
	Pane1    string `yaml:"pane_1,omitempty"`    // default: "1"
	Pane2    string `yaml:"pane_2,omitempty"`    // default: "2"
	Pane3    string `yaml:"pane_3,omitempty"`    // default: "3"

	// Navigation keys
	Up     string `yaml:"up,omitempty"`     // default: "k,up"
	Down   string `yaml:"down,omitempty"`   // default: "j,down"
	Top    string `yaml:"top,omitempty"`    // default: "g"
	Bottom string `yaml:"bottom,omitempty"` // default: "G"

	// Task keys
	AddTask    string `yaml:"add_task,omitempty"`    // default: "a"
	EditTask   string `yaml:"edit_task,omitempty"`   // default: "e"
	ToggleTask string `yaml:"toggle_task,omitempty"` // default: "d,enter,space"
	DeleteTask string `yaml:"delete_task,omitempty"` // default: "x"
	ClearDone  string `yaml:"clear_done,omitempty"`  // default: "C"

	// Timer keys
	ToggleTimer string `yaml:"toggle_timer,omitempty"` // default: "space,enter"
	NextPreset  string `yaml:"next_preset,omitempty"`  // default: "p"
	StopTimer   string `yaml:"stop_timer,omitempty"`   // default: "x"

	// Stats keys
	PrevMonth string `yaml:"prev_month,omitempty"` // default: "h,left"
	NextMonth string `yaml:"next_month,omitempty"` // default: "l,right"

	// Input keys
	Confirm string `yaml:"confirm,omitempty"` // default: "enter"
	Cancel  string `yaml:"cancel,omitempty"`  // default: "esc"

	// Undo/Redo keys
	Undo string `yaml:"undo,omitempty"` // default: "ctrl+z,u"
	Redo string `yaml:"redo,omitempty"` // default: "ctrl+y"
}

// UXConfig defines user experience settings.
type UXConfig struct {
	// ConfirmDeletions shows confirmation dialogs before deleting items
	ConfirmDeletions bool `yaml:"confirm_deletions,omitempty"` // default: true

	// NarrowLayoutThreshold is the terminal width below which to use stacked layout
	NarrowLayoutThreshold int `yaml:"narrow_layout_threshold,omitempty"` // default: 80
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		DataDir: defaultDataDir(),
		Storage: StorageConfig{Backend: "file"},
		Timer: TimerConfig{
			Presets: []PresetConfig{
				{Label: "25/5", Work: "25m", Rest: "5m"},
				{Label: "50/10", Work: "50m", Rest: "10m"},
			},
		},
		Notifications: NotificationConfig{
			Enabled: true,
			Sound:   true,
			Bell:    false,
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Theme: ThemeConfig{
			Primary:    "#7C3AED", // Violet
			Accent:     "#10B981", // Emerald
			Muted:      "#6B7280", // Gray
			Background: "",        // Terminal default
			Text:       "",        // Terminal default
		},
		UX: UXConfig{
			ConfirmDeletions:      true,
			NarrowLayoutThreshold: 80,
		},
	}
}

// defaultDataDir returns the default data directory path.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lockin"
	}
	return filepath.Join(home, ".lockin")
}

// configDir returns the configuration directory path (XDG compliant).
func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "lockin")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "lockin")
}

// Path returns the default config file path.
func Path() string {
	dir := configDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config at the default path, merging with defaults and
// environment overrides. A missing file yields the defaults.
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom is Load with an explicit path.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var userCfg Config
	if err := yaml.Unmarshal(data, &userCfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	var doc yaml.Node
	_ = yaml.Unmarshal(data, &doc) // best-effort; fall back to conservative merge if this fails

	c.mergeFromYAML(&userCfg, &doc)
	return nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		c.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackend)); v != "" {
		c.Storage.Backend = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Log.Level = v
	}
}

// Validate checks values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "", "file", "sqlite", "memory":
	default:
		return fmt.Errorf("storage.backend: unknown backend %q", c.Storage.Backend)
	}
	if _, err := c.TimerPresets(); err != nil {
		return err
	}
	return nil
}

// TimerPresets converts the configured presets.
func (c *Config) TimerPresets() ([]timer.Preset, error) {
	out := make([]timer.Preset, 0, len(c.Timer.Presets))
	for i, p := range c.Timer.Presets {
		work, err := time.ParseDuration(p.Work)
		if err != nil {
			return nil, fmt.Errorf("timer.presets[%d].work: %w", i, err)
		}
		rest, err := time.ParseDuration(p.Rest)
		if err != nil {
			return nil, fmt.Errorf("timer.presets[%d].rest: %w", i, err)
		}
		label := strings.TrimSpace(p.Label)
		if label == "" {
			label = fmt.Sprintf("%d/%d", int(work.Minutes()), int(rest.Minutes()))
		}
		preset := timer.Preset{Label: label, Work: work, Rest: rest}
		if err := preset.Validate(); err != nil {
			return nil, fmt.Errorf("timer.presets[%d]: %w", i, err)
		}
		out = append(out, preset)
	}
	return out, nil
}

// mergeNonEmpty applies non-empty values from other to c.
// It intentionally does not touch booleans or slices (those require presence-aware merging).
func (c *Config) mergeNonEmpty(other *Config) {
	setString(&c.DataDir, other.DataDir)
	setString(&c.Storage.Backend, other.Storage.Backend)

	setString(&c.Log.Level, other.Log.Level)
	setString(&c.Log.Format, other.Log.Format)
	setString(&c.Log.File, other.Log.File)
	setString(&c.Metrics.Addr, other.Metrics.Addr)

	setString(&c.Theme.Primary, other.Theme.Primary)
	setString(&c.Theme.Accent, other.Theme.Accent)
	setString(&c.Theme.Muted, other.Theme.Muted)
	setString(&c.Theme.Background, other.Theme.Background)
	setString(&c.Theme.Text, other.Theme.Text)

	k, o := &c.Keys, other.Keys
	for dst, src := range map[*string]string{
		&k.Quit: o.Quit, &k.Help: o.Help, &k.NextPane: o.NextPane,
		&k.Pane1: o.Pane1, &k.Pane2: o.Pane2, &k.Pane3: o.Pane3,
		&k.Up: o.Up, &k.Down: o.Down, &k.Top: o.Top, &k.Bottom: o.Bottom,
		&k.AddTask: o.AddTask, &k.EditTask: o.EditTask, &k.ToggleTask: o.ToggleTask,
		&k.DeleteTask: o.DeleteTask, &k.ClearDone: o.ClearDone,
		&k.ToggleTimer: o.ToggleTimer, &k.NextPreset: o.NextPreset, &k.StopTimer: o.StopTimer,
		&k.PrevMonth: o.PrevMonth, &k.NextMonth: o.NextMonth,
		&k.Confirm: o.Confirm, &k.Cancel: o.Cancel, &k.Undo: o.Undo, &k.Redo: o.Redo,
	} {
		setString(dst, src)
	}

	if other.UX.NarrowLayoutThreshold > 0 {
		c.UX.NarrowLayoutThreshold = other.UX.NarrowLayoutThreshold
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (c *Config) mergeFromYAML(other *Config, doc *yaml.Node) {
	c.mergeNonEmpty(other)

	// Fall back to conservative behavior if we can't inspect presence.
	if doc == nil || len(doc.Content) == 0 {
		if len(other.Timer.Presets) > 0 {
			c.Timer.Presets = other.Timer.Presets
		}
		return
	}

	// Booleans and slices only when present in YAML.
	if yamlHasPath(doc, "ux", "confirm_deletions") {
		c.UX.ConfirmDeletions = other.UX.ConfirmDeletions
	}
	if yamlHasPath(doc, "notifications", "enabled") {
		c.Notifications.Enabled = other.Notifications.Enabled
	}
	if yamlHasPath(doc, "notifications", "sound") {
		c.Notifications.Sound = other.Notifications.Sound
	}
	if yamlHasPath(doc, "notifications", "bell") {
		c.Notifications.Bell = other.Notifications.Bell
	}
	if yamlHasPath(doc, "timer", "presets") && len(other.Timer.Presets) > 0 {
		c.Timer.Presets = other.Timer.Presets
	}
}

func yamlHasPath(doc *yaml.Node, path ...string) bool {
	if doc == nil || len(path) == 0 {
		return false
	}

	// Document -> root mapping.
	n := doc
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	for _, key := range path {
		if n == nil || n.Kind != yaml.MappingNode {
			return false
		}
		var next *yaml.Node
		for i := 0; i+1 < len(n.Content); i += 2 {
			if k := n.Content[i]; k.Kind == yaml.ScalarNode && k.Value == key {
				next = n.Content[i+1]
				break
			}
		}
		if next == nil {
			return false
		}
		n = next
	}
	return true
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	if path == "" {
		return fmt.Errorf("no config path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, data, 0600)
}

// GetDataDir returns the resolved data directory path.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return defaultDataDir()
	}
	if c.DataDir == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return c.DataDir
	}
	if strings.HasPrefix(c.DataDir, "~/") || strings.HasPrefix(c.DataDir, `~\`) {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, c.DataDir[2:])
		}
	}
	return c.DataDir
}

// LogFile returns the configured log path, defaulting into the data dir.
func (c *Config) LogFile() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(c.GetDataDir(), "lockin.log")
}
