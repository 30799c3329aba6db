package workflow

import (
	"context"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const runIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Options configures an Engine. Nil providers fall back to deterministic
// stubs; nil collaborators disable the corresponding side effect.
type Options struct {
	Designer DesignProvider
	Coder    CodingProvider
	Reviewer ReviewProvider
	Noter    NotesProvider

	Tickets   TicketSource
	Host      Host
	Patcher   PatchApplier
	Tester    TestRunner
	Loader    CodeContextLoader
	Store     RunStore
	Confirmer Confirmer
}

// Engine runs the fixed ticket-to-PR pipeline.
type Engine struct {
	designer DesignProvider
	coder    CodingProvider
	reviewer ReviewProvider
	noter    NotesProvider

	tickets   TicketSource
	host      Host
	patcher   PatchApplier
	tester    TestRunner
	loader    CodeContextLoader
	store     RunStore
	confirmer Confirmer
}

// NewEngine builds an Engine from opts, substituting stub providers for
// any that are nil.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		designer:  opts.Designer,
		coder:     opts.Coder,
		reviewer:  opts.Reviewer,
		noter:     opts.Noter,
		tickets:   opts.Tickets,
		host:      opts.Host,
		patcher:   opts.Patcher,
		tester:    opts.Tester,
		loader:    opts.Loader,
		store:     opts.Store,
		confirmer: opts.Confirmer,
	}
	if e.designer == nil {
		e.designer = &StubDesignProvider{}
	}
	if e.coder == nil {
		e.coder = &StubCodingProvider{}
	}
	if e.reviewer == nil {
		e.reviewer = &StubReviewProvider{}
	}
	if e.noter == nil {
		e.noter = &StubNotesProvider{}
	}
	return e
}

// planEntry is either a single step or a retryable group of steps.
type planEntry struct {
	step  *Step
	group []*Step
}

func (e *Engine) plan() []planEntry {
	return []planEntry{
		{step: NewStep(StepFetchTicket, e.fetchTicket)},
		{step: NewStep(StepAnalyzeRepo, e.analyzeRepo)},
		{step: NewStep(StepDesign, e.design)},
		{group: []*Step{
			NewStep(StepCoding, e.code),
			NewStep(StepTest, e.test),
			NewStep(StepReview, e.review),
		}},
		{step: NewStep(StepCreatePR, e.createPR)},
		{step: NewStep(StepNotes, e.notes)},
	}
}

// Run drives the pipeline for a single ticket. It always returns a
// Context describing the run; step failures halt the remaining stages
// but are reported through the Context rather than an error return.
func (e *Engine) Run(ctx context.Context, ticketID string, cfg Config, dryRun bool) *Context {
	runID, err := gonanoid.Generate(runIDAlphabet, 8)
	if err != nil {
		runID = time.Now().UTC().Format("20060102150405")
	}

	c := NewContext(runID, ticketID, cfg, dryRun)
	slog.Info("workflow run started",
		"runId", runID, "ticket", ticketID, "dryRun", dryRun)

	for _, entry := range e.plan() {
		var err error
		if entry.group != nil {
			err = e.runGroup(ctx, c, entry.group)
		} else {
			err = entry.step.Run(ctx, c)
		}
		if err != nil {
			slog.Error("workflow halted", "runId", runID, "step", c.CurrentStep, "error", err)
			break
		}
	}

	c.CompletedAt = time.Now().UTC()
	e.persist(c)

	slog.Info("workflow run finished",
		"runId", runID, "ticket", ticketID, "status", c.Status(), "duration", c.Duration())
	return c
}

// runGroup executes the coding/test/review stages together, re-running
// all of them until the gate passes or the retry budget is spent.
// Exhausting retries is not an error: the run proceeds with the last
// attempt's results and the review decision gates PR creation.
func (e *Engine) runGroup(ctx context.Context, c *Context, steps []*Step) error {
	maxRetries := c.Config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	for attempt := 0; ; attempt++ {
		for _, s := range steps {
			if err := s.Run(ctx, c); err != nil {
				return err
			}
		}
		if groupGate(c) {
			return nil
		}
		if attempt >= maxRetries {
			slog.Info("retry budget exhausted; continuing with last attempt",
				"runId", c.RunID, "attempts", attempt+1, "maxRetries", maxRetries)
			return nil
		}
		slog.Info("retrying coding/test/review",
			"runId", c.RunID, "attempt", attempt+1, "maxRetries", maxRetries,
			"testsPass", c.Test != nil && c.Test.Success,
			"reviewDecision", reviewDecision(c))
	}
}

// groupGate reports whether the retry group produced a passing result.
func groupGate(c *Context) bool {
	return c.Test != nil && c.Test.Success &&
		c.Review != nil && c.Review.Decision == DecisionApproved
}

func reviewDecision(c *Context) string {
	if c.Review == nil {
		return ""
	}
	return string(c.Review.Decision)
}

// persist saves the finished context. Persistence failures never fail
// the run.
func (e *Engine) persist(c *Context) {
	if e.store == nil {
		return
	}
	location, err := e.store.Save(c)
	if err != nil {
		slog.Warn("failed to persist run", "runId", c.RunID, "error", err)
		return
	}
	slog.Debug("run persisted", "runId", c.RunID, "location", location)
}
