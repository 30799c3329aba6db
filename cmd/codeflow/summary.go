package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/randalmurphal/codeflow/workflow"
)

var (
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	bold   = color.New(color.Bold)
)

// printSummary renders a human-readable recap of a run.
func printSummary(w io.Writer, c *workflow.Context) {
	fmt.Fprintln(w)
	bold.Fprintf(w, "Run %s — ticket %s", c.RunID, c.TicketID)
	if c.DryRun {
		yellow.Fprint(w, "  [dry run]")
	}
	fmt.Fprintln(w)

	completed := make(map[string]bool, len(c.CompletedSteps))
	for _, name := range c.CompletedSteps {
		completed[name] = true
	}
	for _, name := range workflow.StepNames {
		switch {
		case completed[name]:
			green.Fprintf(w, "  ✓ %s\n", name)
		case name == c.CurrentStep && !c.Successful():
			red.Fprintf(w, "  ✗ %s\n", name)
		default:
			fmt.Fprintf(w, "  - %s\n", name)
		}
	}

	if c.Test != nil {
		label := "tests failed"
		printer := red
		if c.Test.Success {
			label = "tests passed"
			printer = green
		}
		printer.Fprintf(w, "  %s", label)
		if c.Test.DurationSeconds > 0 {
			fmt.Fprintf(w, " (%.1fs)", c.Test.DurationSeconds)
		}
		fmt.Fprintln(w)
	}
	if c.Review != nil {
		fmt.Fprintf(w, "  review: %s", c.Review.Decision)
		if len(c.Review.Comments) > 0 {
			fmt.Fprintf(w, " (%d comments)", len(c.Review.Comments))
		}
		fmt.Fprintln(w)
	}

	switch c.PROutcome.Status {
	case workflow.PRStatusCreated:
		if c.PR != nil {
			green.Fprintf(w, "  PR: %s\n", c.PR.URL)
		}
	case workflow.PRStatusSkipped:
		yellow.Fprintf(w, "  PR skipped: %s\n", c.PROutcome.Reason)
	case workflow.PRStatusDeclined:
		yellow.Fprintln(w, "  PR declined by user")
	case workflow.PRStatusFailed:
		red.Fprintf(w, "  PR failed: %s\n", c.PROutcome.Reason)
	}

	if c.Notes != nil && c.Notes.Summary != "" {
		fmt.Fprintf(w, "  notes: %s\n", firstLine(c.Notes.Summary))
	}

	for _, e := range c.Errors {
		red.Fprintf(w, "  error: %s\n", e)
	}

	status := c.Status()
	printer := red
	if c.Successful() {
		printer = green
	}
	printer.Fprintf(w, "Result: %s in %s\n", status, c.Duration().Round(time.Millisecond))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
