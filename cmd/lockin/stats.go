package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lockin/internal/analytics"
)

const statsBarWidth = 20

func newStatsCmd(c *cli) *cobra.Command {
	var month, year string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show focus totals for a month or a year",
		Long: `Show focus totals for a month (the current one by default) or a year.
Averages divide by every calendar day in the period, idle days included.

Examples:
  lockin stats
  lockin stats --month 2025-03
  lockin stats --year 2025`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := c.openStore()
			if err != nil {
				return err
			}
			agg := analytics.NewAggregator(store, c.loc)
			out := cmd.OutOrStdout()

			if year != "" {
				y, err := strconv.Atoi(strings.TrimSpace(year))
				if err != nil || y < 1 {
					return fmt.Errorf("invalid year %q", year)
				}
				printYear(out, agg.Year(y))
				return nil
			}

			now := c.clock.Now().In(c.loc)
			y, m := now.Year(), now.Month()
			if month != "" {
				if y, m, err = parseMonth(month); err != nil {
					return err
				}
			}
			summary := agg.Month(y, m)
			printMonth(out, summary)
			if y == now.Year() && m == now.Month() {
				fmt.Fprintf(out, "  Today:      %s\n", analytics.FormatHM(agg.Today(now)))
			}
			printDays(out, summary)
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month to show (YYYY-MM)")
	cmd.Flags().StringVar(&year, "year", "", "year to show (YYYY)")
	cmd.MarkFlagsMutuallyExclusive("month", "year")
	return cmd
}

func printMonth(out io.Writer, s analytics.MonthSummary) {
	fmt.Fprintf(out, "%s %d\n", s.Month, s.Year)
	fmt.Fprintf(out, "  Total:      %s\n", analytics.FormatHM(s.TotalSec))
	fmt.Fprintf(out, "  Daily avg:  %s\n", analytics.FormatHM(int64(s.AvgDailySec)))
	fmt.Fprintf(out, "  Active:     %d %s, %d %s\n",
		s.ActiveDays, plural(s.ActiveDays, "day", "days"),
		s.SessionCount, plural(s.SessionCount, "session", "sessions"))
}

func printDays(out io.Writer, s analytics.MonthSummary) {
	var peak int64
	for _, d := range s.Days {
		peak = max(peak, d.Seconds)
	}
	if peak == 0 {
		fmt.Fprintln(out, "\nNo focus time recorded.")
		return
	}
	fmt.Fprintln(out)
	for _, d := range s.Days {
		if d.Seconds == 0 {
			continue
		}
		fmt.Fprintf(out, "  %s %02d  %7s  %s\n",
			s.Month.String()[:3], d.Day, analytics.FormatHM(d.Seconds), bar(d.Seconds, peak))
	}
}

func printYear(out io.Writer, s analytics.YearSummary) {
	fmt.Fprintf(out, "%d\n", s.Year)
	fmt.Fprintf(out, "  Total:      %s\n", analytics.FormatHM(s.TotalSec))
	fmt.Fprintf(out, "  Daily avg:  %s\n", analytics.FormatHM(int64(s.AvgDailySec)))
	fmt.Fprintln(out)

	var peak int64
	for _, m := range s.Months {
		peak = max(peak, m.Seconds)
	}
	for _, m := range s.Months {
		fmt.Fprintf(out, "  %s  %7s  %s\n", m.Month.String()[:3], analytics.FormatHM(m.Seconds), bar(m.Seconds, peak))
	}
}

func bar(v, peak int64) string {
	if peak <= 0 || v <= 0 {
		return ""
	}
	n := int(v * statsBarWidth / peak)
	return strings.Repeat("█", max(n, 1))
}
