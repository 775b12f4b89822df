package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lockin/internal/backup"
)

func (c *cli) backupManager() (*backup.Manager, error) {
	store, err := c.openStore()
	if err != nil {
		return nil, err
	}
	return backup.NewManager(store, c.cfg.GetDataDir(), version,
		backup.WithClock(c.clock),
		backup.WithLogger(c.logger.Named("backup")),
	), nil
}

func newBackupCmd(c *cli) *cobra.Command {
	var (
		list  bool
		prune int
	)
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create and manage backups",
		Long: `Create a timestamped snapshot of the document under <data_dir>/backups.

Examples:
  lockin backup
  lockin backup --list
  lockin backup --prune 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := c.backupManager()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case list:
				return c.listBackups(out, m)
			case cmd.Flags().Changed("prune"):
				n, err := m.Prune(prune)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "✓ Removed %d old %s\n", n, plural(n, "backup", "backups"))
				return nil
			}

			name, err := m.Create()
			if err != nil {
				return fmt.Errorf("create backup: %w", err)
			}
			info, err := m.Get(name)
			if err != nil {
				return fmt.Errorf("read backup info: %w", err)
			}
			fmt.Fprintf(out, "✓ Backup created: %s\n", name)
			fmt.Fprintf(out, "  Tasks: %d, Sessions: %d\n", info.Stats["tasks"], info.Stats["sessions"])
			fmt.Fprintf(out, "  Location: %s\n", info.Path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&list, "list", "l", false, "list available backups")
	cmd.Flags().IntVar(&prune, "prune", 0, "delete all but the N most recent backups")
	cmd.MarkFlagsMutuallyExclusive("list", "prune")
	return cmd
}

func (c *cli) listBackups(out io.Writer, m *backup.Manager) error {
	backups, err := m.List()
	if err != nil {
		return fmt.Errorf("list backups: %w", err)
	}
	if len(backups) == 0 {
		fmt.Fprintln(out, "No backups available.")
		fmt.Fprintln(out, "Run 'lockin backup' to create one.")
		return nil
	}
	fmt.Fprintln(out, "Available backups:")
	now := c.clock.Now()
	for _, b := range backups {
		fmt.Fprintf(out, "  %s  (%s)   Tasks: %d, Sessions: %d\n",
			b.Name, formatAge(now.Sub(b.CreatedAt)), b.Stats["tasks"], b.Stats["sessions"])
	}
	return nil
}

func newRestoreCmd(c *cli) *cobra.Command {
	var latest, force bool
	cmd := &cobra.Command{
		Use:   "restore [NAME]",
		Short: "Restore the document from a backup",
		Long: `Replace the current document with a backup. A safety backup of the
current state is created first.

Examples:
  lockin restore 2025-03-12_090000
  lockin restore --latest
  lockin restore --force 2025-03-12_090000`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if latest == (len(args) == 1) {
				return fmt.Errorf("name a backup or pass --latest (see 'lockin backup --list')")
			}
			m, err := c.backupManager()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			var name string
			if latest {
				backups, err := m.List()
				if err != nil {
					return err
				}
				if len(backups) == 0 {
					return fmt.Errorf("no backups available")
				}
				name = backups[0].Name
			} else {
				name = args[0]
			}

			info, err := m.Get(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Restoring from backup: %s\n", info.Name)
			fmt.Fprintf(out, "  Created: %s\n", info.CreatedAt.In(c.loc).Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "  Tasks: %d, Sessions: %d\n\n", info.Stats["tasks"], info.Stats["sessions"])

			if !force {
				fmt.Fprintln(out, "⚠ This will overwrite your current data.")
				fmt.Fprint(out, "Continue? [y/N] ")
				ok, err := confirm(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read answer: %w", err)
				}
				if !ok {
					fmt.Fprintln(out, "Restore cancelled.")
					return nil
				}
			}

			safety, err := m.Restore(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Safety backup: %s\n", safety)
			fmt.Fprintf(out, "✓ Restored successfully from %s\n", name)
			return nil
		},
	}
	cmd.Flags().BoolVar(&latest, "latest", false, "restore from the most recent backup")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	return cmd
}

// confirm reads a yes/no answer; anything but y or yes is no.
func confirm(r io.Reader) (bool, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// formatAge returns a human-readable age string.
func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return ago(int(d.Minutes()), "minute")
	case d < 24*time.Hour:
		return ago(int(d.Hours()), "hour")
	case d < 7*24*time.Hour:
		return ago(int(d.Hours()/24), "day")
	default:
		return ago(int(d.Hours()/24/7), "week")
	}
}

func ago(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
