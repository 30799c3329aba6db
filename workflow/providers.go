package workflow

import "context"

// =============================================================================
// Stage Providers
// =============================================================================
// Each stage's logic is polymorphic over a one-method provider interface.
// Stub implementations live in this package; model-backed implementations
// live in the agent package. The choice happens at Engine construction.

// DesignProvider produces an implementation plan for a ticket.
type DesignProvider interface {
	ProduceDesign(ctx context.Context, ticket *TicketInfo, repo *RepoInfo) (*DesignOutput, error)
}

// CodingProvider turns a design plan into a concrete change set.
// codeContext maps relative file paths to (possibly truncated) contents.
type CodingProvider interface {
	ProduceCode(ctx context.Context, ticket *TicketInfo, design *DesignOutput, repo *RepoInfo, codeContext map[string]string) (*CodingOutput, error)
}

// ReviewProvider evaluates a change set against the ticket's criteria.
type ReviewProvider interface {
	ProduceReview(ctx context.Context, ticket *TicketInfo, design *DesignOutput, diff string, test *TestOutput) (*ReviewOutput, error)
}

// RunDigest carries compact textual summaries of every prior stage's
// output, for the Notes stage.
type RunDigest struct {
	TicketID      string
	Language      string
	TicketSummary string
	DesignSummary string
	CodingSummary string
	TestSummary   string
	ReviewSummary string
	PRSummary     string
	Logs          string
}

// NotesProvider writes the run retrospective.
type NotesProvider interface {
	ProduceNotes(ctx context.Context, digest RunDigest) (*NotesOutput, error)
}

// =============================================================================
// External Collaborators
// =============================================================================

// TicketSource fetches tickets from an issue tracker.
type TicketSource interface {
	// FetchTicket retrieves ticket details by ID.
	FetchTicket(ctx context.Context, id string) (*TicketInfo, error)

	// AddComment posts a comment on the ticket. Best-effort: the returned
	// bool reports whether the comment was posted; failures are non-fatal.
	AddComment(ctx context.Context, id, comment string) (bool, error)
}

// Host performs branch, commit, push, and pull-request operations against
// a version-control host.
type Host interface {
	CreateBranch(ctx context.Context, name, base string) error
	CommitAll(ctx context.Context, message string) error
	PushBranch(ctx context.Context, name string) error
	CreatePullRequest(ctx context.Context, branch, title, body string) (*PRInfo, error)
}

// PatchApplier applies a unified diff to a working tree.
type PatchApplier interface {
	// Apply returns combined command output. An empty or blank diff always
	// fails with "No diff provided".
	Apply(ctx context.Context, repoPath, diff string) (string, error)
}

// TestRunner executes the repository's test command.
type TestRunner interface {
	// Run reports test results. A failing test suite is a TestOutput with
	// Success=false, not an error; the error covers invocation problems.
	Run(ctx context.Context, repoPath, command string) (*TestOutput, error)
}

// CodeContextLoader reads candidate files for the Coding stage's prompt.
type CodeContextLoader interface {
	// Load returns contents per relative path, truncating oversized files.
	// Missing or unreadable paths are silently skipped.
	Load(root string, paths []string) map[string]string
}

// RunStore persists completed run contexts.
type RunStore interface {
	// Save writes the run and returns its storage location.
	Save(c *Context) (string, error)
}

// Confirmer asks the operator for confirmation before destructive actions.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmerFunc adapts a function to the Confirmer interface.
type ConfirmerFunc func(prompt string) bool

// Confirm implements Confirmer.
func (f ConfirmerFunc) Confirm(prompt string) bool { return f(prompt) }
