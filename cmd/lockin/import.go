package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"lockin/internal/importer"
)

const previewLimit = 20

func newImportCmd(c *cli) *cobra.Command {
	var (
		dryRun bool
		opts   importer.Options
	)
	cmd := &cobra.Command{
		Use:   "import FORMAT FILE",
		Short: "Import tasks from other apps",
		Long: fmt.Sprintf(`Import tasks from another tool's export. Imported tasks go to the top
of the list, in file order.

Formats: %s

Examples:
  # Todoist: Settings, Backups, download the CSV
  lockin import todoist backup.csv

  # Taskwarrior
  task export > tasks.json
  lockin import taskwarrior tasks.json

  # Preview before importing
  lockin import --dry-run todoist backup.csv`, strings.Join(importer.SupportedFormats(), ", ")),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			imp := importer.Get(args[0])
			if imp == nil {
				return fmt.Errorf("unknown format %q (supported: %s)",
					args[0], strings.Join(importer.SupportedFormats(), ", "))
			}
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			out := cmd.OutOrStdout()
			if dryRun {
				return previewImport(out, imp, f, opts)
			}

			store, err := c.openStore()
			if err != nil {
				return err
			}
			res, err := importer.Import(imp, f, store, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "Import complete!")
			fmt.Fprintf(out, "  Imported: %d %s\n", res.Imported, plural(res.Imported, "task", "tasks"))
			if res.Skipped > 0 {
				fmt.Fprintf(out, "  Skipped:  %d\n", res.Skipped)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview without changing anything")
	cmd.Flags().BoolVar(&opts.SkipDone, "skip-done", false, "leave out completed tasks")
	cmd.Flags().BoolVar(&opts.ProjectPrefix, "project-prefix", false, `prefix task text with "project: "`)
	return cmd
}

func previewImport(out io.Writer, imp importer.Importer, r io.Reader, opts importer.Options) error {
	parsed, err := imp.Parse(r)
	if err != nil {
		return fmt.Errorf("parse %s export: %w", imp.Name(), err)
	}
	items := importer.Convert(parsed, opts)
	if len(items) == 0 {
		fmt.Fprintln(out, "No tasks found to import.")
		return nil
	}

	fmt.Fprintf(out, "Preview: %d %s to import\n", len(items), plural(len(items), "task", "tasks"))
	fmt.Fprintln(out, "────────────────────────────")
	for _, t := range items[:min(len(items), previewLimit)] {
		if t.Done {
			fmt.Fprintf(out, "  %s (done)\n", t.Text)
		} else {
			fmt.Fprintf(out, "  %s\n", t.Text)
		}
	}
	if len(items) > previewLimit {
		fmt.Fprintf(out, "  ... and %d more\n", len(items)-previewLimit)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Run without --dry-run to import.")
	return nil
}
