package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/codeflow/config"
	"github.com/randalmurphal/codeflow/runstore"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect stored workflow runs",
	}
	cmd.AddCommand(newRunsListCmd(), newRunsShowCmd())
	return cmd
}

func newRunsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}

			runs, err := store.List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"RUN", "TICKET", "STATUS", "STARTED", "PR"})
			for _, run := range runs {
				t.AppendRow(table.Row{run.RunID, run.TicketID, run.Status, run.Started, run.PRURL})
			}
			t.Render()
			return nil
		},
	}
}

func newRunsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one stored run in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}

			c, err := store.Load(args[0])
			if errors.Is(err, runstore.ErrRunNotFound) {
				fmt.Fprintf(cmd.OutOrStdout(), "Run %s not found.\n", args[0])
				os.Exit(1)
			}
			if err != nil {
				return err
			}

			printSummary(cmd.OutOrStdout(), c)
			return nil
		},
	}
}

func openStore() (*runstore.FileStore, error) {
	settings, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return runstore.NewFileStore(settings.Workflow.RunsDir)
}
