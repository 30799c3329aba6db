package workflow

import (
	"fmt"
	"time"
)

// =============================================================================
// Record Types
// =============================================================================

// TicketInfo holds issue-tracker ticket data. Created by the FetchTicket
// step and immutable afterwards.
type TicketInfo struct {
	ID                 string         `json:"id"`
	Title              string         `json:"title"`
	Description        string         `json:"description"`
	AcceptanceCriteria string         `json:"acceptanceCriteria"`
	Raw                map[string]any `json:"raw,omitempty"`
}

// RepoInfo holds repository metadata. Created by the AnalyzeRepo step and
// immutable afterwards.
type RepoInfo struct {
	Path          string `json:"path"`
	MainLanguage  string `json:"mainLanguage"`
	TestCommand   string `json:"testCommand"`
	RemoteURL     string `json:"remoteUrl"`
	DefaultBranch string `json:"defaultBranch"`
}

// DesignOutput is the Design stage's implementation plan.
type DesignOutput struct {
	ProblemUnderstanding string   `json:"problemUnderstanding"`
	ProposedApproach     string   `json:"proposedApproach"`
	TargetFiles          []string `json:"targetFiles"`
	Plan                 []string `json:"plan"`
}

// CodingOutput is the Coding stage's generated change set. Overwritten on
// each retry attempt.
type CodingOutput struct {
	Patches      []string `json:"patches,omitempty"`
	Diff         string   `json:"diff"`
	Explanations string   `json:"explanations"`
	FilesChanged []string `json:"filesChanged"`
}

// TestOutput is one test execution's result.
type TestOutput struct {
	Success         bool    `json:"success"`
	Output          string  `json:"output"`
	Errors          string  `json:"errors"`
	DurationSeconds float64 `json:"durationSeconds"`
}

// Decision is the review verdict.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"

	// DecisionPending is the pre-review default. The parser only emits it
	// when the model's output contained neither verdict keyword.
	DecisionPending Decision = "pending"
)

// ReviewOutput is the Review stage's verdict and feedback.
type ReviewOutput struct {
	Decision    Decision `json:"decision"`
	Comments    []string `json:"comments"`
	Suggestions []string `json:"suggestions"`
}

// PRInfo describes a created pull request. Number is 0 when running
// without real host integration.
type PRInfo struct {
	Branch string `json:"branch"`
	URL    string `json:"url"`
	Number int    `json:"number,omitempty"`
}

// NotesOutput is the Notes stage's run retrospective.
type NotesOutput struct {
	Summary     string   `json:"summary"`
	Lessons     []string `json:"lessons"`
	Suggestions []string `json:"suggestions"`
	Tags        []string `json:"tags"`
}

// =============================================================================
// PR Step Outcome
// =============================================================================

// PRStatus classifies how the CreatePR step ended.
type PRStatus string

const (
	PRStatusCreated  PRStatus = "created"
	PRStatusSkipped  PRStatus = "skipped"
	PRStatusDeclined PRStatus = "declined"
	PRStatusFailed   PRStatus = "failed"
)

// PROutcome records the CreatePR step's result as an explicit variant
// instead of overloading the error channel for expected skips.
type PROutcome struct {
	Status PRStatus `json:"status,omitempty"`
	Reason string   `json:"reason,omitempty"`
}

// =============================================================================
// Run Configuration
// =============================================================================

// Config is the run configuration handed to the Engine. It is constructed
// once at the process boundary (see the config package); core packages
// never read environment state directly.
type Config struct {
	RepoPath      string `json:"repoPath"`
	MainLanguage  string `json:"mainLanguage"`
	TestCommand   string `json:"testCommand"`
	RepoURL       string `json:"repoUrl"`
	DefaultBranch string `json:"defaultBranch"`
	MaxRetries    int    `json:"maxRetries"`
	RunsDir       string `json:"runsDir"`
	AutoConfirm   bool   `json:"autoConfirm"`
}

// =============================================================================
// Context
// =============================================================================

// Context is the shared record threaded through every workflow step. Each
// step reads prior fields and writes its own; the Engine owns the Context
// for the duration of one run and controls ordering.
type Context struct {
	// Run metadata
	RunID       string    `json:"runId"`
	TicketID    string    `json:"ticketId"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt,omitzero"`

	// Step outputs
	Ticket *TicketInfo   `json:"ticket,omitempty"`
	Repo   *RepoInfo     `json:"repo,omitempty"`
	Design *DesignOutput `json:"design,omitempty"`
	Coding *CodingOutput `json:"coding,omitempty"`
	Test   *TestOutput   `json:"test,omitempty"`
	Review *ReviewOutput `json:"review,omitempty"`
	PR     *PRInfo       `json:"pr,omitempty"`
	Notes  *NotesOutput  `json:"notes,omitempty"`

	PROutcome PROutcome `json:"prOutcome,omitzero"`

	// Execution tracking
	CurrentStep    string   `json:"currentStep"`
	CompletedSteps []string `json:"completedSteps"`
	Errors         []string `json:"errors"`
	Logs           []string `json:"logs"`

	// Configuration
	Config Config `json:"config"`
	DryRun bool   `json:"dryRun"`
}

// NewContext creates a run context for a ticket.
func NewContext(runID, ticketID string, cfg Config, dryRun bool) *Context {
	return &Context{
		RunID:     runID,
		TicketID:  ticketID,
		StartedAt: time.Now(),
		Config:    cfg,
		DryRun:    dryRun,
	}
}

// MarkStepComplete records a step as completed. Idempotent: a step name
// appears in CompletedSteps at most once.
func (c *Context) MarkStepComplete(name string) {
	for _, s := range c.CompletedSteps {
		if s == name {
			return
		}
	}
	c.CompletedSteps = append(c.CompletedSteps, name)
}

// AddError appends an error string prefixed with the current step name.
// The error list is append-only within a run.
func (c *Context) AddError(msg string) {
	c.Errors = append(c.Errors, fmt.Sprintf("[%s] %s", c.CurrentStep, msg))
}

// AddLog records a free-text log line for observability.
func (c *Context) AddLog(msg string) {
	c.Logs = append(c.Logs, msg)
}

// Successful reports whether the run completed with no errors.
func (c *Context) Successful() bool {
	return !c.CompletedAt.IsZero() && len(c.Errors) == 0
}

// Duration returns elapsed run time, or zero if the run has not completed.
func (c *Context) Duration() time.Duration {
	if c.CompletedAt.IsZero() {
		return 0
	}
	return c.CompletedAt.Sub(c.StartedAt)
}

// Status returns "success" or "failed" for display and persistence.
func (c *Context) Status() string {
	if c.Successful() {
		return "success"
	}
	return "failed"
}
