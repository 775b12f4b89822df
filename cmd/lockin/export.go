package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lockin/internal/fsutil"
	"lockin/internal/reports"
	"lockin/internal/storage"
)

type exportOptions struct {
	month  string
	year   string
	format string
	output string
	tasks  bool
}

func newExportCmd(c *cli) *cobra.Command {
	var opts exportOptions
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Generate a study report or dump the raw data",
		Long: `Generate a monthly (default) or yearly study report.

Formats:
  markdown  human-readable report (default)
  json      the same report, machine-readable
  csv       every recorded session, or every task with --tasks
  document  the whole stored document as JSON

Examples:
  lockin export
  lockin export --month 2025-03 -o march.md
  lockin export --year 2025 -f json
  lockin export -f csv --tasks`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := c.openStore()
			if err != nil {
				return err
			}
			data, err := c.buildExport(store, opts)
			if err != nil {
				return err
			}
			if opts.output == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if dir := filepath.Dir(opts.output); dir != "." {
				if err := os.MkdirAll(dir, 0o700); err != nil {
					return fmt.Errorf("create output directory: %w", err)
				}
			}
			if err := fsutil.WriteFileAtomic(opts.output, data, 0o600); err != nil {
				return fmt.Errorf("write %s: %w", opts.output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", opts.output)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.month, "month", "", "month to report (YYYY-MM, default current)")
	cmd.Flags().StringVar(&opts.year, "year", "", "year to report (YYYY)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "markdown", "markdown, json, csv or document")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&opts.tasks, "tasks", false, "with -f csv, export tasks instead of sessions")
	cmd.MarkFlagsMutuallyExclusive("month", "year")
	return cmd
}

func (c *cli) buildExport(store *storage.Storage, opts exportOptions) ([]byte, error) {
	format := strings.ToLower(strings.TrimSpace(opts.format))
	switch format {
	case "md":
		format = "markdown"
	case "markdown", "json", "csv", "document":
	default:
		return nil, fmt.Errorf("invalid format %q (want markdown, json, csv or document)", opts.format)
	}

	switch format {
	case "csv":
		var buf bytes.Buffer
		export := store.ExportSessionsCSV
		if opts.tasks {
			export = store.ExportTasksCSV
		}
		if err := export(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case "document":
		return store.ExportJSON()
	}

	gen := reports.NewGenerator(store, c.loc, c.clock)
	if opts.year != "" {
		y, err := strconv.Atoi(strings.TrimSpace(opts.year))
		if err != nil || y < 1 {
			return nil, fmt.Errorf("invalid year %q", opts.year)
		}
		report := gen.Year(y)
		if format == "json" {
			return reports.FormatYearJSON(report)
		}
		return []byte(reports.FormatYearMarkdown(report)), nil
	}

	now := c.clock.Now().In(c.loc)
	y, m := now.Year(), now.Month()
	if opts.month != "" {
		var err error
		if y, m, err = parseMonth(opts.month); err != nil {
			return nil, err
		}
	}
	report := gen.Month(y, m)
	if format == "json" {
		return reports.FormatMonthJSON(report)
	}
	return []byte(reports.FormatMonthMarkdown(report)), nil
}
