package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lockin/internal/storage"
)

// shortIDLen is how much of an id the listings print. Commands accept any
// unique prefix.
const shortIDLen = 8

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

// matchID resolves a unique id prefix among ids.
func matchID(kind, prefix string, ids []string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", fmt.Errorf("empty %s id", kind)
	}
	var found []string
	for _, id := range ids {
		if id == prefix {
			return id, nil
		}
		if strings.HasPrefix(id, prefix) {
			found = append(found, id)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("no %s matches %q", kind, prefix)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("%q matches %d %ss, use a longer prefix", prefix, len(found), kind)
	}
}

func resolveTask(store *storage.Storage, prefix string) (string, error) {
	tasks := store.GetTasks()
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return matchID("task", prefix, ids)
}

func newTasksCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task", "t"},
		Short:   "List and change tasks",
		Long: `List and change tasks. Ids may be shortened to any unique prefix.

Examples:
  lockin tasks add Read chapter 4
  lockin tasks done 3f2a
  lockin tasks list --pending`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.listTasks(cmd, false, false)
		},
	}

	var pending, done bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List tasks, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.listTasks(cmd, pending, done)
		},
	}
	list.Flags().BoolVar(&pending, "pending", false, "only tasks not yet done")
	list.Flags().BoolVar(&done, "done", false, "only completed tasks")
	list.MarkFlagsMutuallyExclusive("pending", "done")

	add := &cobra.Command{
		Use:   "add TEXT...",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore()
			if err != nil {
				return err
			}
			task, err := store.AddTask(strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Added %s: %s\n", shortID(task.ID), task.Text)
			return nil
		},
	}

	edit := &cobra.Command{
		Use:   "edit ID TEXT...",
		Short: "Replace a task's text",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args[1:], " ")
			return c.updateTask(cmd, args[0], storage.TaskUpdate{Text: &text}, "Updated")
		},
	}

	rm := &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore()
			if err != nil {
				return err
			}
			id, err := resolveTask(store, args[0])
			if err != nil {
				return err
			}
			removed, err := store.DeleteTask(id)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("task %s is gone", shortID(id))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s\n", shortID(id))
			return nil
		},
	}

	clearDone := &cobra.Command{
		Use:   "clear",
		Short: "Delete every completed task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := c.openStore()
			if err != nil {
				return err
			}
			n, err := store.ClearCompletedTasks()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared %d completed %s\n", n, plural(n, "task", "tasks"))
			return nil
		},
	}

	cmd.AddCommand(list, add, doneCmd(c, true), doneCmd(c, false), edit, rm, clearDone)
	return cmd
}

func doneCmd(c *cli, done bool) *cobra.Command {
	use, short, verb := "done ID", "Mark a task as done", "Completed"
	if !done {
		use, short, verb = "undone ID", "Mark a task as not done", "Reopened"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.updateTask(cmd, args[0], storage.TaskUpdate{Done: &done}, verb)
		},
	}
}

func (c *cli) updateTask(cmd *cobra.Command, prefix string, upd storage.TaskUpdate, verb string) error {
	store, err := c.openStore()
	if err != nil {
		return err
	}
	id, err := resolveTask(store, prefix)
	if err != nil {
		return err
	}
	task, err := store.UpdateTask(id, upd)
	if err != nil {
		return err
	}
	if task == nil {
		return fmt.Errorf("task %s is gone", shortID(id))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s %s: %s\n", verb, shortID(task.ID), task.Text)
	return nil
}

func (c *cli) listTasks(cmd *cobra.Command, pendingOnly, doneOnly bool) error {
	store, err := c.openStore()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	tasks := store.GetTasks()
	shown, completed := 0, 0
	for _, t := range tasks {
		if t.Done {
			completed++
		}
		if (pendingOnly && t.Done) || (doneOnly && !t.Done) {
			continue
		}
		box := "[ ]"
		if t.Done {
			box = "[✓]"
		}
		fmt.Fprintf(out, "  %s %-*s  %s\n", box, shortIDLen, shortID(t.ID), t.Text)
		shown++
	}
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks yet.")
		fmt.Fprintln(out, "Run 'lockin tasks add TEXT' to create one.")
		return nil
	}
	if shown == 0 {
		fmt.Fprintln(out, "No matching tasks.")
	}
	fmt.Fprintf(out, "%d/%d complete\n", completed, len(tasks))
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
