// Package main is the entry point for lockin. Without a subcommand it starts
// the terminal UI; the subcommands script the same task list, study sessions,
// reports and backups.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lockin/internal/config"
	"lockin/internal/logging"
	"lockin/internal/metrics"
	"lockin/internal/storage"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// cli carries the global flags and the lazily opened resources shared by
// every subcommand.
type cli struct {
	configPath string
	dataDir    string
	backend    string
	ephemeral  bool
	logLevel   string

	clock clockwork.Clock
	loc   *time.Location

	cfg      *config.Config
	logger   *zap.Logger
	closeLog func() error
	store    *storage.Storage
	metrics  *metrics.Metrics
}

func newCLI() *cli {
	return &cli{clock: clockwork.NewRealClock(), loc: time.Local}
}

func main() {
	c := newCLI()
	root := newRootCmd(c)
	err := root.Execute()
	if cerr := c.close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "lockin",
		Short: "Tasks and a focus timer for your terminal",
		Long: `lockin keeps a task list and times focused study with work/break presets.
Run it without arguments to open the terminal UI.

All data lives in one JSON document, ~/.lockin/lockin.json by default.
Configuration is read from ~/.config/lockin/config.yaml.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.loadConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTUI(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default ~/.config/lockin/config.yaml)")
	flags.StringVar(&c.dataDir, "data-dir", "", "data directory (overrides config)")
	flags.StringVar(&c.backend, "backend", "", "storage backend: file, sqlite or memory")
	flags.BoolVar(&c.ephemeral, "ephemeral", false, "keep everything in memory for this run")
	flags.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		newTUICmd(c),
		newTasksCmd(c),
		newSessionsCmd(c),
		newStatsCmd(c),
		newFocusCmd(c),
		newExportCmd(c),
		newBackupCmd(c),
		newRestoreCmd(c),
		newImportCmd(c),
		newDoctorCmd(c),
		newConfigCmd(c),
		newVersionCmd(),
	)
	return root
}

func newTUICmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal UI (the default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runTUI(cmd)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "lockin version %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}
}

// loadConfig resolves the configuration: file, then environment, then flags.
func (c *cli) loadConfig() error {
	path := c.configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.dataDir != "" {
		cfg.DataDir = c.dataDir
	}
	if c.backend != "" {
		cfg.Storage.Backend = c.backend
	}
	if c.ephemeral {
		cfg.Storage.Backend = storage.BackendMemory
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

// initLogger builds the logger. toFile sends it to the log file, which the
// TUI needs because it owns the terminal.
func (c *cli) initLogger(toFile bool) (*zap.Logger, error) {
	if c.logger != nil {
		return c.logger, nil
	}
	lc := logging.Config{Level: c.cfg.Log.Level, Format: c.cfg.Log.Format}
	if toFile {
		lc.File = c.cfg.LogFile()
	} else if c.logLevel == "" && logging.ParseLevel(lc.Level) < zap.WarnLevel {
		// One-shot commands only report problems unless asked for more.
		lc.Level = "warn"
	}
	logger, closeLog, err := logging.New(lc)
	if err != nil {
		return nil, err
	}
	c.logger, c.closeLog = logger, closeLog
	return logger, nil
}

// openStore opens the configured backend once per run.
func (c *cli) openStore() (*storage.Storage, error) {
	if c.store != nil {
		return c.store, nil
	}
	logger, err := c.initLogger(false)
	if err != nil {
		return nil, err
	}
	return c.openStoreWith(logger)
}

func (c *cli) openStoreWith(logger *zap.Logger) (*storage.Storage, error) {
	store, err := storage.Open(c.cfg.Storage.Backend, c.cfg.GetDataDir(),
		storage.WithLogger(logger.Named("storage")),
		storage.WithClock(c.clock),
		storage.WithMetrics(c.metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	c.store = store
	return store, nil
}

func (c *cli) close() error {
	var errs []error
	if c.store != nil {
		errs = append(errs, c.store.Close())
		c.store = nil
	}
	if c.closeLog != nil {
		errs = append(errs, c.closeLog())
		c.closeLog = nil
	}
	c.logger = nil
	return errors.Join(errs...)
}
