package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lockin/internal/storage"
)

var testNow = time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)

// testEnv is one isolated data directory driven through the real command
// tree on a fake clock.
type testEnv struct {
	t       *testing.T
	dataDir string
	config  string
	clock   *clockwork.FakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	for _, k := range []string{"LOCKIN_DATA_DIR", "LOCKIN_BACKEND", "LOCKIN_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	return &testEnv{
		t:       t,
		dataDir: filepath.Join(dir, "data"),
		config:  filepath.Join(dir, "config.yaml"),
		clock:   clockwork.NewFakeClockAt(testNow),
	}
}

func (e *testEnv) writeConfig(yaml string) {
	e.t.Helper()
	require.NoError(e.t, os.WriteFile(e.config, []byte(yaml), 0o600))
}

func (e *testEnv) command(stdin string, args ...string) (*cli, *bytes.Buffer, func(context.Context) error) {
	c := newCLI()
	c.clock = e.clock
	c.loc = time.UTC
	root := newRootCmd(c)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", e.config, "--data-dir", e.dataDir}, args...))
	return c, &out, func(ctx context.Context) error {
		err := root.ExecuteContext(ctx)
		if cerr := c.close(); err == nil {
			err = cerr
		}
		return err
	}
}

// run executes one command line and returns its output.
func (e *testEnv) run(args ...string) (string, error) {
	e.t.Helper()
	return e.runWithInput("", args...)
}

func (e *testEnv) runWithInput(stdin string, args ...string) (string, error) {
	e.t.Helper()
	_, out, exec := e.command(stdin, args...)
	err := exec(context.Background())
	return out.String(), err
}

func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	require.NoError(e.t, err, out)
	return out
}

// store opens the data directory directly, for setup and assertions.
func (e *testEnv) store() *storage.Storage {
	e.t.Helper()
	s, err := storage.Open(storage.BackendFile, e.dataDir, storage.WithClock(e.clock))
	require.NoError(e.t, err)
	e.t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestVersionCommand(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun("version")
	assert.Contains(t, out, "lockin version dev")
	assert.Contains(t, out, "commit: none")
}

func TestGlobalFlagsOverrideConfig(t *testing.T) {
	env := newTestEnv(t)
	env.writeConfig("storage:\n  backend: sqlite\nlog:\n  level: debug\n")

	c, _, exec := env.command("", "--backend", "memory", "--log-level", "error", "version")
	require.NoError(t, exec(context.Background()))
	assert.Equal(t, "memory", c.cfg.Storage.Backend)
	assert.Equal(t, "error", c.cfg.Log.Level)
	assert.Equal(t, env.dataDir, c.cfg.GetDataDir())
}

func TestEphemeralLeavesNothingOnDisk(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("--ephemeral", "tasks", "add", "Scratch")

	_, err := os.Stat(filepath.Join(env.dataDir, storage.DocumentKey+".json"))
	assert.True(t, os.IsNotExist(err))
}

func TestInvalidConfigFails(t *testing.T) {
	env := newTestEnv(t)
	env.writeConfig("storage:\n  backend: floppy\n")

	_, err := env.run("tasks")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floppy")
}

func TestConfigCommands(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("config", "path")
	assert.Equal(t, env.config+"\n", out)

	out = env.mustRun("config", "init")
	assert.Contains(t, out, "Wrote "+env.config)
	_, err := os.Stat(env.config)
	require.NoError(t, err)

	_, err = env.run("config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
	env.mustRun("config", "init", "--force")

	out = env.mustRun("config", "show")
	assert.Contains(t, out, "presets:")
	assert.Contains(t, out, "25/5")
}

func TestMatchID(t *testing.T) {
	ids := []string{"abc123", "abd456", "xyz"}
	tests := []struct {
		prefix  string
		want    string
		wantErr string
	}{
		{prefix: "abc", want: "abc123"},
		{prefix: "xyz", want: "xyz"},
		{prefix: "ab", wantErr: "matches 2 tasks"},
		{prefix: "q", wantErr: "no task matches"},
		{prefix: " ", wantErr: "empty task id"},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			got, err := matchID("task", tt.prefix, ids)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
