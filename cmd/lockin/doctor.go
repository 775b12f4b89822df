package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"lockin/internal/config"
	"lockin/internal/storage"
)

func newDoctorCmd(c *cli) *cobra.Command {
	var fix bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the stored document for damage",
		Long: `Decode the stored document without changing it and report every field
that would be corrected on load. With --fix, write the corrected document back.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := c.openStore()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Backend:   %s (%s)\n", c.cfg.Storage.Backend, c.cfg.GetDataDir())
			doc, res, err := store.Inspect()
			if errors.Is(err, storage.ErrNotExist) {
				fmt.Fprintln(out, "Document:  none yet, a new one is created on first use")
				return nil
			}
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}

			fmt.Fprintf(out, "Document:  %s\n", res.Status)
			if res.Status == storage.StatusReset {
				return fmt.Errorf("document is unusable (%v); it is set aside and reset on next start", res.Cause)
			}
			fmt.Fprintf(out, "Revision:  %d\n", doc.Revision)
			fmt.Fprintf(out, "Tasks:     %d\n", len(doc.Tasks))
			fmt.Fprintf(out, "Sessions:  %d\n", len(doc.Study.Sessions))
			if u := doc.Study.Unfinished; u != nil {
				fmt.Fprintf(out, "Open slot: started %s, last active %s\n",
					u.Start.In(c.loc).Format(localTimeLayout), u.LastActive.In(c.loc).Format(localTimeLayout))
			}
			for _, corr := range res.Corrections {
				fmt.Fprintf(out, "  fix %s\n", corr)
			}

			if res.Status != storage.StatusPartial || !fix {
				return nil
			}
			if err := store.Replace(doc); err != nil {
				return fmt.Errorf("write corrected document: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote corrected document (%d %s)\n",
				len(res.Corrections), plural(len(res.Corrections), "fix", "fixes"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&fix, "fix", false, "persist the corrected document")
	return cmd
}

func newConfigCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), c.resolvedConfigPath())
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := yaml.Marshal(c.cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := c.resolvedConfigPath()
			if _, err := os.Stat(p); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", p)
			}
			if err := config.Default().Save(p); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", p)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cmd.AddCommand(path, show, initCmd)
	return cmd
}

func (c *cli) resolvedConfigPath() string {
	if c.configPath != "" {
		return c.configPath
	}
	return config.Path()
}
