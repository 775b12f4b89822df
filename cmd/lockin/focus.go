package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lockin/internal/analytics"
	"lockin/internal/metrics"
	"lockin/internal/notify"
	"lockin/internal/timer"
)

type focusOptions struct {
	preset      int
	cycles      int
	metricsAddr string
	quiet       bool
}

func newFocusCmd(c *cli) *cobra.Command {
	var opts focusOptions
	cmd := &cobra.Command{
		Use:   "focus",
		Short: "Run the focus timer without the UI",
		Long: `Run the focus timer in the foreground. Work and break phases alternate
until interrupted (Ctrl+C) or until --cycles work phases have completed.
Interrupting records the work done so far.

Examples:
  lockin focus
  lockin focus --preset 2 --cycles 4
  lockin focus --metrics-addr 127.0.0.1:9464`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.metricsAddr == "" {
				opts.metricsAddr = c.cfg.Metrics.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.runFocus(ctx, cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().IntVarP(&opts.preset, "preset", "p", 1, "preset number, starting at 1")
	cmd.Flags().IntVar(&opts.cycles, "cycles", 0, "stop after this many work phases (0 runs until interrupted)")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "skip desktop notifications and the bell")
	return cmd
}

func (c *cli) runFocus(ctx context.Context, out io.Writer, opts focusOptions) error {
	if opts.metricsAddr != "" {
		c.metrics = metrics.New()
	}
	if _, err := c.openStore(); err != nil {
		return err
	}
	engine, err := c.newEngine(c.logger)
	if err != nil {
		return err
	}
	presets := engine.Presets()
	if opts.preset < 1 || opts.preset > len(presets) {
		return fmt.Errorf("preset %d out of range (1-%d)", opts.preset, len(presets))
	}
	if rec := engine.Recovered(); rec != nil {
		fmt.Fprintf(out, "Recovered %s from the last run\n", c.describeSession(*rec))
	}

	var notifier notify.Notifier = notify.Noop{}
	if !opts.quiet {
		notifier = notify.New(notify.Options{
			Enabled:    c.cfg.Notifications.Enabled,
			Sound:      c.cfg.Notifications.Sound,
			Bell:       c.cfg.Notifications.Bell,
			BellWriter: out,
		})
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serveErr := make(chan error, 1)
	if opts.metricsAddr != "" {
		go func() { serveErr <- c.metrics.Serve(ctx, opts.metricsAddr) }()
		fmt.Fprintf(out, "Serving metrics on http://%s/metrics\n", opts.metricsAddr)
	}

	// Handlers run under the runner's lock, so they only hand the signal on.
	signals := make(chan timer.Signal, 8)
	engine.OnSignal(func(s timer.Signal) {
		select {
		case signals <- s:
		default:
		}
	})

	runner := timer.NewRunner(engine)
	defer runner.Close()

	if err := runner.Do(func(e *timer.Engine) error { return e.SelectPreset(opts.preset - 1) }); err != nil {
		return err
	}
	p := presets[opts.preset-1]
	fmt.Fprintf(out, "▶ %s: %s. Ctrl+C to stop.\n", p.Label, p.Summary())

	completed := 0
	for {
		select {
		case <-ctx.Done():
			return c.stopFocus(out, runner)
		case err := <-serveErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				_ = c.stopFocus(out, runner)
				return fmt.Errorf("metrics server: %w", err)
			}
		case sig := <-signals:
			fmt.Fprintf(out, "[%s] %s\n", c.clock.Now().In(c.loc).Format("15:04"), sig.Message())
			if n, ok := notify.ForSignal(sig); ok {
				nctx, ncancel := context.WithTimeout(ctx, 5*time.Second)
				if err := notifier.Notify(nctx, n); err != nil {
					c.logger.Warn("notification failed", zap.Error(err))
				}
				ncancel()
			}
			if sig == timer.WorkComplete {
				completed++
				if opts.cycles > 0 && completed >= opts.cycles {
					return c.stopFocus(out, runner)
				}
			}
		}
	}
}

// stopFocus ends the running phase, which records any work in progress.
func (c *cli) stopFocus(out io.Writer, runner *timer.Runner) error {
	if err := runner.Do(func(e *timer.Engine) error { e.Stop(); return nil }); err != nil {
		return err
	}
	today := analytics.NewAggregator(c.store, c.loc).Today(c.clock.Now())
	fmt.Fprintf(out, "■ Stopped. Focused %s today.\n", analytics.FormatHM(today))
	return nil
}
