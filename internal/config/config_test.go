package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolate points XDG_CONFIG_HOME at a temp dir and clears env overrides.
func isolate(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tempDir)
	t.Setenv(EnvDataDir, "")
	t.Setenv(EnvBackend, "")
	t.Setenv(EnvLogLevel, "")
	return tempDir
}

func writeConfig(t *testing.T, xdg, content string) string {
	t.Helper()
	dir := filepath.Join(xdg, "lockin")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.DataDir == "" {
		t.Error("DataDir should not be empty")
	}
	if cfg.Storage.Backend != "file" {
		t.Errorf("Storage.Backend = %q, want file", cfg.Storage.Backend)
	}
	if len(cfg.Timer.Presets) != 2 {
		t.Fatalf("len(Timer.Presets) = %d, want 2", len(cfg.Timer.Presets))
	}
	if cfg.Theme.Primary == "" {
		t.Error("Theme.Primary should have a default value")
	}
	if !cfg.Notifications.Enabled {
		t.Error("Notifications.Enabled should default to true")
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Theme.Primary != "#7C3AED" {
		t.Errorf("Theme.Primary = %q, want #7C3AED", cfg.Theme.Primary)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
}

func TestLoad_WithConfigFile(t *testing.T) {
	xdg := isolate(t)
	writeConfig(t, xdg, `
data_dir: /custom/data
storage:
  backend: sqlite
log:
  level: debug
metrics:
  addr: 127.0.0.1:9464
theme:
  primary: "#FF0000"
  accent: "#00FF00"
keys:
  next_preset: "n"
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DataDir != "/custom/data" {
		t.Errorf("DataDir = %q, want /custom/data", cfg.DataDir)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("Storage.Backend = %q, want sqlite", cfg.Storage.Backend)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want json", cfg.Log.Format)
	}
	if cfg.Metrics.Addr != "127.0.0.1:9464" {
		t.Errorf("Metrics.Addr = %q", cfg.Metrics.Addr)
	}
	if cfg.Theme.Primary != "#FF0000" || cfg.Theme.Accent != "#00FF00" {
		t.Errorf("Theme = %+v", cfg.Theme)
	}
	// Muted should still be default
	if cfg.Theme.Muted != "#6B7280" {
		t.Errorf("Theme.Muted = %q, want #6B7280", cfg.Theme.Muted)
	}
	if cfg.Keys.NextPreset != "n" {
		t.Errorf("Keys.NextPreset = %q, want n", cfg.Keys.NextPreset)
	}
	// Presets untouched by the file keep their defaults.
	if len(cfg.Timer.Presets) != 2 {
		t.Errorf("len(Timer.Presets) = %d, want 2", len(cfg.Timer.Presets))
	}
}

func TestLoadFrom_ExplicitPath(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  backend: memory\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("Storage.Backend = %q, want memory", cfg.Storage.Backend)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	xdg := isolate(t)
	writeConfig(t, xdg, "theme: [unclosed\n")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for invalid YAML")
	}
}

func TestLoad_UnknownBackend(t *testing.T) {
	xdg := isolate(t)
	writeConfig(t, xdg, "storage:\n  backend: postgres\n")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for unknown backend")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	xdg := isolate(t)
	writeConfig(t, xdg, "data_dir: /from/file\nstorage:\n  backend: file\n")
	t.Setenv(EnvDataDir, "/from/env")
	t.Setenv(EnvBackend, "memory")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DataDir != "/from/env" {
		t.Errorf("DataDir = %q, want /from/env", cfg.DataDir)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("Storage.Backend = %q, want memory", cfg.Storage.Backend)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
}

func TestMerge(t *testing.T) {
	base := Default()
	override := &Config{
		DataDir: "/override/path",
		Theme: ThemeConfig{
			Primary: "#CUSTOM",
		},
		Keys: KeysConfig{Quit: "ctrl+q"},
	}

	base.mergeNonEmpty(override)

	if base.DataDir != "/override/path" {
		t.Errorf("DataDir = %q, want /override/path", base.DataDir)
	}
	if base.Theme.Primary != "#CUSTOM" {
		t.Errorf("Theme.Primary = %q, want #CUSTOM", base.Theme.Primary)
	}
	if base.Keys.Quit != "ctrl+q" {
		t.Errorf("Keys.Quit = %q, want ctrl+q", base.Keys.Quit)
	}
	// Accent should remain default
	if base.Theme.Accent != "#10B981" {
		t.Errorf("Theme.Accent = %q, want #10B981", base.Theme.Accent)
	}
}

func TestLoad_MissingBoolKeysDoesNotClobberDefaults(t *testing.T) {
	xdg := isolate(t)
	// Only touches theme, not UX/notification booleans.
	writeConfig(t, xdg, "theme:\n  primary: \"#123456\"\n")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.UX.ConfirmDeletions {
		t.Errorf("UX.ConfirmDeletions = %v, want true", cfg.UX.ConfirmDeletions)
	}
	if !cfg.Notifications.Enabled {
		t.Errorf("Notifications.Enabled = %v, want true", cfg.Notifications.Enabled)
	}
	if !cfg.Notifications.Sound {
		t.Errorf("Notifications.Sound = %v, want true", cfg.Notifications.Sound)
	}
}

func TestLoad_ExplicitFalseOverridesDefault(t *testing.T) {
	xdg := isolate(t)
	writeConfig(t, xdg, `
ux:
  confirm_deletions: false
notifications:
  enabled: false
  bell: true
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.UX.ConfirmDeletions {
		t.Errorf("UX.ConfirmDeletions = %v, want false", cfg.UX.ConfirmDeletions)
	}
	if cfg.Notifications.Enabled {
		t.Errorf("Notifications.Enabled = %v, want false", cfg.Notifications.Enabled)
	}
	if !cfg.Notifications.Bell {
		t.Errorf("Notifications.Bell = %v, want true", cfg.Notifications.Bell)
	}
}

func TestTimerPresets(t *testing.T) {
	tests := []struct {
		name    string
		presets []PresetConfig
		want    []time.Duration // work, rest pairs
		label   string
		wantErr bool
	}{
		{
			name:    "labelled",
			presets: []PresetConfig{{Label: "deep", Work: "90m", Rest: "15m"}},
			want:    []time.Duration{90 * time.Minute, 15 * time.Minute},
			label:   "deep",
		},
		{
			name:    "label derived from durations",
			presets: []PresetConfig{{Work: "45m", Rest: "15m"}},
			want:    []time.Duration{45 * time.Minute, 15 * time.Minute},
			label:   "45/15",
		},
		{
			name:    "bad duration",
			presets: []PresetConfig{{Work: "forever", Rest: "5m"}},
			wantErr: true,
		},
		{
			name:    "non-positive work",
			presets: []PresetConfig{{Work: "0s", Rest: "5m"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Timer: TimerConfig{Presets: tt.presets}}
			got, err := cfg.TimerPresets()
			if tt.wantErr {
				if err == nil {
					t.Fatal("TimerPresets() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("TimerPresets() error = %v", err)
			}
			if len(got) != 1 {
				t.Fatalf("len = %d, want 1", len(got))
			}
			if got[0].Work != tt.want[0] || got[0].Rest != tt.want[1] {
				t.Errorf("preset = %+v", got[0])
			}
			if got[0].Label != tt.label {
				t.Errorf("Label = %q, want %q", got[0].Label, tt.label)
			}
		})
	}
}

func TestLoad_PresetsReplaceDefaults(t *testing.T) {
	xdg := isolate(t)
	writeConfig(t, xdg, `
timer:
  presets:
    - label: sprint
      work: 15m
      rest: 3m
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	presets, err := cfg.TimerPresets()
	if err != nil {
		t.Fatalf("TimerPresets() error = %v", err)
	}
	if len(presets) != 1 || presets[0].Label != "sprint" || presets[0].Work != 15*time.Minute {
		t.Errorf("presets = %+v", presets)
	}
}

func TestGetDataDir(t *testing.T) {
	tests := []struct {
		name    string
		dataDir string
		want    string
	}{
		{name: "empty uses default", dataDir: "", want: ""},
		{name: "absolute path", dataDir: "/custom/path", want: "/custom/path"},
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		tests = append(tests,
			struct {
				name    string
				dataDir string
				want    string
			}{name: "tilde expands home", dataDir: "~", want: home},
			struct {
				name    string
				dataDir string
				want    string
			}{name: "tilde path expands home", dataDir: "~/mydata", want: filepath.Join(home, "mydata")},
		)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{DataDir: tt.dataDir}
			got := cfg.GetDataDir()

			if tt.dataDir == "" {
				if filepath.Base(got) != ".lockin" {
					t.Errorf("GetDataDir() = %q, want to end with .lockin", got)
				}
			} else if got != tt.want {
				t.Errorf("GetDataDir() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogFile(t *testing.T) {
	cfg := &Config{DataDir: "/data"}
	if got := cfg.LogFile(); got != filepath.Join("/data", "lockin.log") {
		t.Errorf("LogFile() = %q", got)
	}
	cfg.Log.File = "/var/log/lockin.log"
	if got := cfg.LogFile(); got != "/var/log/lockin.log" {
		t.Errorf("LogFile() = %q", got)
	}
}

func TestSave(t *testing.T) {
	xdg := isolate(t)

	cfg := Default()
	cfg.DataDir = "/saved/path"
	cfg.Theme.Primary = "#SAVED"
	cfg.Timer.Presets = []PresetConfig{{Label: "x", Work: "10m", Rest: "2m"}}

	if err := cfg.Save(Path()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	configPath := filepath.Join(xdg, "lockin", "config.yaml")
	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("config file not created: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DataDir != "/saved/path" {
		t.Errorf("loaded DataDir = %q, want /saved/path", loaded.DataDir)
	}
	if loaded.Theme.Primary != "#SAVED" {
		t.Errorf("loaded Theme.Primary = %q, want #SAVED", loaded.Theme.Primary)
	}
	if len(loaded.Timer.Presets) != 1 || loaded.Timer.Presets[0].Label != "x" {
		t.Errorf("loaded presets = %+v", loaded.Timer.Presets)
	}
}

func TestSave_NoPath(t *testing.T) {
	if err := Default().Save(""); err == nil {
		t.Fatal("Save(\"\") expected error")
	}
}
