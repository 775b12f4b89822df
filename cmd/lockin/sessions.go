package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lockin/internal/analytics"
	"lockin/internal/storage"
)

// Accepted layouts for session times; the local one is read in the
// configured location.
const localTimeLayout = "2006-01-02 15:04"

func parseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(localTimeLayout, s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q (want RFC 3339 or %q)", s, localTimeLayout)
}

// parseMonth reads "YYYY-MM".
func parseMonth(s string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q (want YYYY-MM)", s)
	}
	return t.Year(), t.Month(), nil
}

func resolveSession(store *storage.Storage, prefix string) (string, error) {
	sessions := store.GetSessions()
	ids := make([]string, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	return matchID("session", prefix, ids)
}

func newSessionsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"session", "s"},
		Short:   "List and correct recorded study sessions",
		Long: `List and correct recorded study sessions.

Times are RFC 3339 ("2025-03-12T09:00:00+01:00") or local "2025-03-12 09:00".
An end before the start records a zero-length session.

Examples:
  lockin sessions list --month 2025-03
  lockin sessions add "2025-03-12 09:00" "2025-03-12 10:30"
  lockin sessions edit 7c1e --end "2025-03-12 10:00"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.listSessions(cmd, "", 20)
		},
	}

	var (
		month string
		limit int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List sessions, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.listSessions(cmd, month, limit)
		},
	}
	list.Flags().StringVar(&month, "month", "", "only sessions starting in this month (YYYY-MM)")
	list.Flags().IntVarP(&limit, "limit", "n", 20, "maximum sessions to show (0 for all)")

	add := &cobra.Command{
		Use:   "add START END",
		Short: "Record a session by hand",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseTime(args[0], c.loc)
			if err != nil {
				return err
			}
			end, err := parseTime(args[1], c.loc)
			if err != nil {
				return err
			}
			store, err := c.openStore()
			if err != nil {
				return err
			}
			sess, err := store.AddSession(start, end)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Recorded %s: %s\n", shortID(sess.ID), c.describeSession(sess))
			return nil
		},
	}

	var startFlag, endFlag string
	edit := &cobra.Command{
		Use:   "edit ID",
		Short: "Change a session's start or end",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var upd storage.SessionUpdate
			if startFlag != "" {
				t, err := parseTime(startFlag, c.loc)
				if err != nil {
					return err
				}
				upd.Start = &t
			}
			if endFlag != "" {
				t, err := parseTime(endFlag, c.loc)
				if err != nil {
					return err
				}
				upd.End = &t
			}
			if upd.Start == nil && upd.End == nil {
				return errors.New("nothing to change: pass --start and/or --end")
			}

			store, err := c.openStore()
			if err != nil {
				return err
			}
			id, err := resolveSession(store, args[0])
			if err != nil {
				return err
			}
			sess, err := store.UpdateSession(id, upd)
			if err != nil {
				return err
			}
			if sess == nil {
				return fmt.Errorf("session %s is gone", shortID(id))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated %s: %s\n", shortID(sess.ID), c.describeSession(*sess))
			return nil
		},
	}
	edit.Flags().StringVar(&startFlag, "start", "", "new start time")
	edit.Flags().StringVar(&endFlag, "end", "", "new end time")

	rm := &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a session",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore()
			if err != nil {
				return err
			}
			id, err := resolveSession(store, args[0])
			if err != nil {
				return err
			}
			removed, err := store.DeleteSession(id)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("session %s is gone", shortID(id))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s\n", shortID(id))
			return nil
		},
	}

	cmd.AddCommand(list, add, edit, rm)
	return cmd
}

func (c *cli) describeSession(s storage.Session) string {
	start := s.Start.In(c.loc)
	end := s.End.In(c.loc)
	endLayout := "15:04"
	if !sameDay(start, end) {
		endLayout = localTimeLayout
	}
	return fmt.Sprintf("%s - %s (%s)",
		start.Format(localTimeLayout), end.Format(endLayout), analytics.FormatHM(s.DurationSec))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (c *cli) listSessions(cmd *cobra.Command, month string, limit int) error {
	var (
		year int
		mon  time.Month
	)
	if month != "" {
		var err error
		if year, mon, err = parseMonth(month); err != nil {
			return err
		}
	}
	store, err := c.openStore()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if slot := store.GetUnfinishedSession(); slot != nil {
		fmt.Fprintf(out, "In progress since %s (last active %s)\n",
			slot.Start.In(c.loc).Format(localTimeLayout), slot.LastActive.In(c.loc).Format("15:04:05"))
	}

	shown := 0
	for _, s := range store.GetSessions() {
		if month != "" {
			start := s.Start.In(c.loc)
			if start.Year() != year || start.Month() != mon {
				continue
			}
		}
		if limit > 0 && shown == limit {
			fmt.Fprintln(out, "  ...")
			break
		}
		fmt.Fprintf(out, "  %-*s  %s\n", shortIDLen, shortID(s.ID), c.describeSession(s))
		shown++
	}
	if shown == 0 {
		fmt.Fprintln(out, "No sessions recorded.")
	}
	return nil
}
