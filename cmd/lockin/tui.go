package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lockin/internal/notify"
	"lockin/internal/timer"
	"lockin/internal/ui"
)

// runTUI opens the store and hands the terminal to the UI.
func (c *cli) runTUI(cmd *cobra.Command) error {
	logger, err := c.initLogger(true)
	if err != nil {
		return err
	}
	store, err := c.openStoreWith(logger)
	if err != nil {
		return err
	}

	engine, err := c.newEngine(logger)
	if err != nil {
		return err
	}

	notifier := notify.New(notify.Options{
		Enabled:    c.cfg.Notifications.Enabled,
		Sound:      c.cfg.Notifications.Sound,
		Bell:       c.cfg.Notifications.Bell,
		BellWriter: os.Stdout,
	})

	logger.Info("starting ui",
		zap.String("backend", c.cfg.Storage.Backend),
		zap.String("data_dir", c.cfg.GetDataDir()))

	return ui.Run(store, engine, ui.NewStyles(c.cfg), c.cfg,
		ui.WithLogger(logger.Named("ui")),
		ui.WithNotifier(notifier),
		ui.WithClock(c.clock),
		ui.WithLocation(c.loc),
	)
}

// newEngine builds a timer engine over the open store with the configured
// presets. Building it finalizes any session a previous run left open.
func (c *cli) newEngine(logger *zap.Logger) (*timer.Engine, error) {
	presets, err := c.cfg.TimerPresets()
	if err != nil {
		return nil, err
	}
	return timer.NewEngine(c.store, presets,
		timer.WithLogger(logger.Named("timer")),
		timer.WithClock(c.clock),
		timer.WithMetrics(c.metrics),
	)
}
