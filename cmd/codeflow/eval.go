package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/codeflow/config"
	"github.com/randalmurphal/codeflow/workflow"
)

// evalResult is one ticket's outcome in an evaluation report.
type evalResult struct {
	TicketID       string   `json:"ticketId"`
	RunID          string   `json:"runId"`
	Status         string   `json:"status"`
	CompletedSteps []string `json:"completedSteps"`
	Errors         []string `json:"errors,omitempty"`
	PRURL          string   `json:"prUrl,omitempty"`
	DurationSecs   float64  `json:"durationSeconds"`
}

// evalReport aggregates an evaluation over several tickets.
type evalReport struct {
	StartedAt time.Time    `json:"startedAt"`
	Tickets   int          `json:"tickets"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Results   []evalResult `json:"results"`
}

func newEvalCmd() *cobra.Command {
	var (
		ticketList string
		output     string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Run the workflow over several tickets and write a report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tickets := splitTickets(ticketList)
			if len(tickets) == 0 {
				return fmt.Errorf("no tickets given, use --tickets A-1,B-2")
			}

			settings, err := config.Load(configPath)
			if err != nil {
				return err
			}
			settings.Workflow.AutoConfirm = true

			engine, err := buildEngine(settings)
			if err != nil {
				return err
			}

			report := evalReport{StartedAt: time.Now().UTC(), Tickets: len(tickets)}
			for _, ticketID := range tickets {
				c := engine.Run(cmd.Context(), ticketID, settings.Workflow, dryRun)
				report.Results = append(report.Results, resultFromRun(c))
				if c.Successful() {
					report.Succeeded++
				} else {
					report.Failed++
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", ticketID, c.Status())
			}

			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			if output == "" {
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			} else if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Evaluated %d tickets: %d succeeded, %d failed\n",
				report.Tickets, report.Succeeded, report.Failed)
			return nil
		},
	}
	cmd.Flags().StringVar(&ticketList, "tickets", "", "comma-separated ticket IDs")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the JSON report to a file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", true, "run without side effects (default for eval)")
	_ = cmd.MarkFlagRequired("tickets")
	return cmd
}

func resultFromRun(c *workflow.Context) evalResult {
	r := evalResult{
		TicketID:       c.TicketID,
		RunID:          c.RunID,
		Status:         c.Status(),
		CompletedSteps: c.CompletedSteps,
		Errors:         c.Errors,
		DurationSecs:   c.Duration().Seconds(),
	}
	if c.PR != nil {
		r.PRURL = c.PR.URL
	}
	return r
}

func splitTickets(list string) []string {
	var tickets []string
	for _, t := range strings.Split(list, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tickets = append(tickets, t)
		}
	}
	return tickets
}
