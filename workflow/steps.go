package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Step names, in declared execution order.
const (
	StepFetchTicket = "FetchTicket"
	StepAnalyzeRepo = "AnalyzeRepo"
	StepDesign      = "Design"
	StepCoding      = "Coding"
	StepTest        = "Test"
	StepReview      = "Review"
	StepCreatePR    = "CreatePR"
	StepNotes       = "Notes"
)

// StepNames lists every stage in execution order.
var StepNames = []string{
	StepFetchTicket,
	StepAnalyzeRepo,
	StepDesign,
	StepCoding,
	StepTest,
	StepReview,
	StepCreatePR,
	StepNotes,
}

// StageFunc is one stage's logic, operating on the shared Context.
type StageFunc func(ctx context.Context, c *Context) error

// Step wraps stage logic with uniform logging, error capture, and
// completion bookkeeping.
type Step struct {
	Name string
	fn   StageFunc
}

// NewStep creates a named step.
func NewStep(name string, fn StageFunc) *Step {
	return &Step{Name: name, fn: fn}
}

// Run executes the step. Current-step assignment and the start log happen
// before the logic; completion bookkeeping happens only after it succeeds.
// Failures are recorded on the Context and propagated, never swallowed.
func (s *Step) Run(ctx context.Context, c *Context) error {
	c.CurrentStep = s.Name
	c.AddLog("START " + s.Name)
	slog.Info("step started", "runId", c.RunID, "step", s.Name)

	if err := s.fn(ctx, c); err != nil {
		c.AddError(err.Error())
		c.AddLog(fmt.Sprintf("END %s FAILURE: %v", s.Name, err))
		slog.Error("step failed", "runId", c.RunID, "step", s.Name, "error", err)
		return err
	}

	c.MarkStepComplete(s.Name)
	c.AddLog("END " + s.Name + " SUCCESS")
	slog.Info("step completed", "runId", c.RunID, "step", s.Name)
	return nil
}

// =============================================================================
// Stage Logic
// =============================================================================

func (e *Engine) fetchTicket(ctx context.Context, c *Context) error {
	id := c.TicketID

	if e.tickets != nil {
		ticket, err := e.tickets.FetchTicket(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to fetch ticket %s: %w", id, err)
		}
		c.Ticket = ticket
		return nil
	}

	c.Ticket = &TicketInfo{
		ID:                 id,
		Title:              fmt.Sprintf("[STUB] Implement feature X for ticket %s", id),
		Description:        "This is a stub ticket description with some details about the feature.",
		AcceptanceCriteria: "1. Feature works\n2. Tests pass\n3. Code is clean",
	}
	return nil
}

// analyzeRepo populates RepoInfo purely from configuration. Never fails.
func (e *Engine) analyzeRepo(_ context.Context, c *Context) error {
	cfg := c.Config

	path := cfg.RepoPath
	if path == "" {
		path = "."
	}
	language := cfg.MainLanguage
	if language == "" {
		language = "Go"
	}
	branch := cfg.DefaultBranch
	if branch == "" {
		branch = "main"
	}

	c.Repo = &RepoInfo{
		Path:          path,
		MainLanguage:  language,
		TestCommand:   cfg.TestCommand,
		RemoteURL:     cfg.RepoURL,
		DefaultBranch: branch,
	}
	return nil
}

func (e *Engine) design(ctx context.Context, c *Context) error {
	out, err := e.designer.ProduceDesign(ctx, c.Ticket, c.Repo)
	if err != nil {
		return err
	}
	c.Design = out
	return nil
}

func (e *Engine) code(ctx context.Context, c *Context) error {
	var codeContext map[string]string
	if e.loader != nil && c.Repo != nil && c.Design != nil {
		codeContext = e.loader.Load(c.Repo.Path, c.Design.TargetFiles)
	}

	out, err := e.coder.ProduceCode(ctx, c.Ticket, c.Design, c.Repo, codeContext)
	if err != nil {
		return err
	}

	// Last-resort fallback: without its own list, reuse the design targets.
	if len(out.FilesChanged) == 0 && c.Design != nil {
		out.FilesChanged = c.Design.TargetFiles
	}
	c.Coding = out

	if e.patcher != nil && out.Diff != "" {
		if c.DryRun {
			slog.Info("skipping patch application", "runId", c.RunID, "reason", "dry-run")
			return nil
		}
		output, err := e.patcher.Apply(ctx, c.Repo.Path, out.Diff)
		if err != nil {
			return fmt.Errorf("failed to apply patch: %w", err)
		}
		if output != "" {
			slog.Debug("patch applied", "runId", c.RunID, "output", output)
		}
	}
	return nil
}

func (e *Engine) test(ctx context.Context, c *Context) error {
	command := ""
	repoPath := "."
	if c.Repo != nil {
		command = c.Repo.TestCommand
		repoPath = c.Repo.Path
	}

	if c.DryRun || e.tester == nil {
		c.Test = &TestOutput{
			Success: true,
			Output:  fmt.Sprintf("[DRY RUN] Skipped tests (%s)", command),
		}
		return nil
	}

	out, err := e.tester.Run(ctx, repoPath, command)
	if err != nil {
		return err
	}
	c.Test = out
	return nil
}

func (e *Engine) review(ctx context.Context, c *Context) error {
	diff := ""
	if c.Coding != nil {
		diff = c.Coding.Diff
	}
	out, err := e.reviewer.ProduceReview(ctx, c.Ticket, c.Design, diff, c.Test)
	if err != nil {
		return err
	}
	c.Review = out
	return nil
}

func (e *Engine) createPR(ctx context.Context, c *Context) error {
	if c.Review == nil || c.Review.Decision != DecisionApproved {
		c.PROutcome = PROutcome{Status: PRStatusSkipped, Reason: "review not approved"}
		slog.Info("skipping PR creation", "runId", c.RunID, "reason", "review not approved")
		return nil
	}

	branch := "feature/auto-branch"
	title := "Automated change"
	if c.Ticket != nil {
		branch = "feature/" + c.Ticket.ID
		title = fmt.Sprintf("%s: %s", c.Ticket.ID, c.Ticket.Title)
	}
	body := buildPRBody(c)

	if c.DryRun || e.host == nil {
		reason := "no host configured"
		if c.DryRun {
			reason = "dry-run"
		}
		c.PR = &PRInfo{
			Branch: branch,
			URL:    "https://github.com/example/repo/pulls/" + branch,
		}
		c.PROutcome = PROutcome{Status: PRStatusCreated, Reason: "placeholder (" + reason + ")"}
		return nil
	}

	if !c.Config.AutoConfirm {
		prompt := fmt.Sprintf("Proceed with git actions for %s and open PR? [y/N]: ", branch)
		if e.confirmer == nil || !e.confirmer.Confirm(prompt) {
			c.AddError("User declined PR creation")
			c.PROutcome = PROutcome{Status: PRStatusDeclined, Reason: "user declined confirmation"}
			return nil
		}
	}

	base := ""
	if c.Repo != nil {
		base = c.Repo.DefaultBranch
	}

	if err := e.host.CreateBranch(ctx, branch, base); err != nil {
		c.PROutcome = PROutcome{Status: PRStatusFailed, Reason: err.Error()}
		return fmt.Errorf("PR creation failed: %w", err)
	}
	if err := e.host.CommitAll(ctx, title); err != nil {
		c.PROutcome = PROutcome{Status: PRStatusFailed, Reason: err.Error()}
		return fmt.Errorf("PR creation failed: %w", err)
	}
	if err := e.host.PushBranch(ctx, branch); err != nil {
		c.PROutcome = PROutcome{Status: PRStatusFailed, Reason: err.Error()}
		return fmt.Errorf("PR creation failed: %w", err)
	}

	pr, err := e.host.CreatePullRequest(ctx, branch, title, body)
	if err != nil {
		c.PROutcome = PROutcome{Status: PRStatusFailed, Reason: err.Error()}
		return fmt.Errorf("PR creation failed: %w", err)
	}
	c.PR = pr
	c.PROutcome = PROutcome{Status: PRStatusCreated}

	// Best-effort ticket comment linking back to the PR.
	if e.tickets != nil && c.Ticket != nil {
		if ok, err := e.tickets.AddComment(ctx, c.Ticket.ID, "Opened pull request: "+pr.URL); err != nil || !ok {
			slog.Warn("failed to comment on ticket", "runId", c.RunID, "ticket", c.Ticket.ID, "error", err)
		}
	}
	return nil
}

// buildPRBody creates a simple PR body summarizing the change.
func buildPRBody(c *Context) string {
	designSummary := ""
	if c.Design != nil {
		designSummary = c.Design.ProposedApproach
	}
	testSummary := "Tests not run"
	if c.Test != nil && c.Test.Output != "" {
		testSummary = c.Test.Output
	}
	return fmt.Sprintf("## Summary\n%s\n\n## Testing\n%s\n", designSummary, testSummary)
}

func (e *Engine) notes(ctx context.Context, c *Context) error {
	out, err := e.noter.ProduceNotes(ctx, buildDigest(c))
	if err != nil {
		return err
	}
	c.Notes = out
	return nil
}

// buildDigest compacts every prior stage's output into short summaries.
func buildDigest(c *Context) RunDigest {
	d := RunDigest{
		TicketSummary: "No ticket",
		DesignSummary: "No design data",
		CodingSummary: "No coding output",
		TestSummary:   "Tests not run",
		ReviewSummary: "Review not run",
		PRSummary:     "PR not created",
		Logs:          strings.Join(c.Logs, "\n"),
	}
	if c.Ticket != nil {
		d.TicketID = c.Ticket.ID
		d.TicketSummary = fmt.Sprintf("%s: %s", c.Ticket.ID, c.Ticket.Title)
	}
	if c.Repo != nil {
		d.Language = c.Repo.MainLanguage
	}
	if c.Design != nil {
		d.DesignSummary = c.Design.ProposedApproach
	}
	if c.Coding != nil {
		d.CodingSummary = fmt.Sprintf("Files: %s; Diff size: %d",
			strings.Join(c.Coding.FilesChanged, ", "), len(c.Coding.Diff))
	}
	if c.Test != nil {
		status := "FAIL"
		if c.Test.Success {
			status = "PASS"
		}
		detail := c.Test.Output
		if detail == "" {
			detail = c.Test.Errors
		}
		d.TestSummary = fmt.Sprintf("%s - %s", status, detail)
	}
	if c.Review != nil {
		d.ReviewSummary = fmt.Sprintf("%s (%d comments)",
			strings.ToUpper(string(c.Review.Decision)), len(c.Review.Comments))
	}
	if c.PR != nil {
		d.PRSummary = fmt.Sprintf("%s on %s", c.PR.URL, c.PR.Branch)
	}
	return d
}
