package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Function-field mocks in the style of the provider mocks used across
// the codebase.

type mockCoding struct {
	calls int
	fn    func(ctx context.Context, ticket *TicketInfo, design *DesignOutput, repo *RepoInfo, codeContext map[string]string) (*CodingOutput, error)
}

func (m *mockCoding) ProduceCode(ctx context.Context, ticket *TicketInfo, design *DesignOutput, repo *RepoInfo, codeContext map[string]string) (*CodingOutput, error) {
	m.calls++
	if m.fn != nil {
		return m.fn(ctx, ticket, design, repo, codeContext)
	}
	return &CodingOutput{Diff: "", FilesChanged: nil}, nil
}

type mockReview struct {
	calls int
	fn    func(ctx context.Context, ticket *TicketInfo, design *DesignOutput, diff string, test *TestOutput) (*ReviewOutput, error)
}

func (m *mockReview) ProduceReview(ctx context.Context, ticket *TicketInfo, design *DesignOutput, diff string, test *TestOutput) (*ReviewOutput, error) {
	m.calls++
	if m.fn != nil {
		return m.fn(ctx, ticket, design, diff, test)
	}
	return &ReviewOutput{Decision: DecisionApproved}, nil
}

type mockDesign struct {
	fn func(ctx context.Context, ticket *TicketInfo, repo *RepoInfo) (*DesignOutput, error)
}

func (m *mockDesign) ProduceDesign(ctx context.Context, ticket *TicketInfo, repo *RepoInfo) (*DesignOutput, error) {
	if m.fn != nil {
		return m.fn(ctx, ticket, repo)
	}
	return &DesignOutput{ProposedApproach: "do the thing"}, nil
}

type mockTester struct {
	calls int
	fn    func(ctx context.Context, repoPath, command string) (*TestOutput, error)
}

func (m *mockTester) Run(ctx context.Context, repoPath, command string) (*TestOutput, error) {
	m.calls++
	if m.fn != nil {
		return m.fn(ctx, repoPath, command)
	}
	return &TestOutput{Success: true, Output: "ok"}, nil
}

type mockHost struct {
	branches []string
	commits  []string
	pushes   []string
	prFn     func(ctx context.Context, branch, title, body string) (*PRInfo, error)
}

func (m *mockHost) CreateBranch(_ context.Context, branch, base string) error {
	m.branches = append(m.branches, branch)
	return nil
}

func (m *mockHost) CommitAll(_ context.Context, message string) error {
	m.commits = append(m.commits, message)
	return nil
}

func (m *mockHost) PushBranch(_ context.Context, branch string) error {
	m.pushes = append(m.pushes, branch)
	return nil
}

func (m *mockHost) CreatePullRequest(ctx context.Context, branch, title, body string) (*PRInfo, error) {
	if m.prFn != nil {
		return m.prFn(ctx, branch, title, body)
	}
	return &PRInfo{Branch: branch, URL: "https://github.com/acme/widgets/pull/7", Number: 7}, nil
}

type mockStore struct {
	saved []*Context
	err   error
}

func (m *mockStore) Save(c *Context) (string, error) {
	m.saved = append(m.saved, c)
	return "runs/" + c.RunID + ".json", m.err
}

func TestRunAllStepsCompleteWithStubs(t *testing.T) {
	e := NewEngine(Options{})
	c := e.Run(context.Background(), "DEMO-001", Config{MaxRetries: 1}, true)

	require.NotNil(t, c)
	assert.Equal(t, StepNames, c.CompletedSteps)
	assert.Empty(t, c.Errors)
	assert.True(t, c.Successful())
	assert.False(t, c.CompletedAt.IsZero())

	require.NotNil(t, c.PR)
	assert.Equal(t, "feature/DEMO-001", c.PR.Branch)
	assert.Equal(t, "https://github.com/example/repo/pulls/feature/DEMO-001", c.PR.URL)
	assert.Equal(t, PRStatusCreated, c.PROutcome.Status)

	require.NotNil(t, c.Notes)
	assert.Contains(t, c.Notes.Summary, "DEMO-001")
}

func TestRunHaltsOnStepFailure(t *testing.T) {
	design := &mockDesign{fn: func(context.Context, *TicketInfo, *RepoInfo) (*DesignOutput, error) {
		return nil, errors.New("model unavailable")
	}}
	store := &mockStore{}
	e := NewEngine(Options{Designer: design, Store: store})

	c := e.Run(context.Background(), "TICK-9", Config{}, true)

	assert.Equal(t, []string{StepFetchTicket, StepAnalyzeRepo}, c.CompletedSteps)
	require.Len(t, c.Errors, 1)
	assert.Equal(t, "[Design] model unavailable", c.Errors[0])
	assert.False(t, c.Successful())
	assert.False(t, c.CompletedAt.IsZero())

	// The run is persisted even after a failure.
	require.Len(t, store.saved, 1)
	assert.Same(t, c, store.saved[0])
}

func TestRunRetryGroupZeroRetriesRunsOnce(t *testing.T) {
	coder := &mockCoding{}
	tester := &mockTester{fn: func(context.Context, string, string) (*TestOutput, error) {
		return &TestOutput{Success: false, Errors: "2 tests failed"}, nil
	}}
	reviewer := &mockReview{fn: func(_ context.Context, _ *TicketInfo, _ *DesignOutput, _ string, test *TestOutput) (*ReviewOutput, error) {
		if test != nil && test.Success {
			return &ReviewOutput{Decision: DecisionApproved}, nil
		}
		return &ReviewOutput{Decision: DecisionRejected, Comments: []string{"tests failing"}}, nil
	}}

	e := NewEngine(Options{Coder: coder, Tester: tester, Reviewer: reviewer})
	c := e.Run(context.Background(), "TICK-1", Config{MaxRetries: 0}, false)

	assert.Equal(t, 1, coder.calls)
	assert.Equal(t, 1, tester.calls)
	assert.Equal(t, 1, reviewer.calls)

	// Exhausting retries is not an error: the run proceeds and PR
	// creation is skipped on the failing gate.
	assert.Empty(t, c.Errors)
	assert.Equal(t, PRStatusSkipped, c.PROutcome.Status)
	assert.Equal(t, StepNames, c.CompletedSteps)
}

func TestRunRetryGroupStopsOnSuccess(t *testing.T) {
	coder := &mockCoding{}
	tester := &mockTester{}
	tester.fn = func(context.Context, string, string) (*TestOutput, error) {
		if tester.calls < 2 {
			return &TestOutput{Success: false, Errors: "flaky"}, nil
		}
		return &TestOutput{Success: true, Output: "ok"}, nil
	}
	reviewer := &mockReview{}

	e := NewEngine(Options{Coder: coder, Tester: tester, Reviewer: reviewer})
	c := e.Run(context.Background(), "TICK-2", Config{MaxRetries: 3, AutoConfirm: true}, false)

	assert.Equal(t, 2, coder.calls)
	assert.Equal(t, 2, tester.calls)
	assert.Equal(t, 2, reviewer.calls)
	assert.True(t, c.Test.Success)
}

func TestRunRetryGroupRespectsBudget(t *testing.T) {
	coder := &mockCoding{}
	tester := &mockTester{fn: func(context.Context, string, string) (*TestOutput, error) {
		return &TestOutput{Success: false, Errors: "still broken"}, nil
	}}
	reviewer := &mockReview{fn: func(context.Context, *TicketInfo, *DesignOutput, string, *TestOutput) (*ReviewOutput, error) {
		return &ReviewOutput{Decision: DecisionRejected}, nil
	}}

	e := NewEngine(Options{Coder: coder, Tester: tester, Reviewer: reviewer})
	e.Run(context.Background(), "TICK-3", Config{MaxRetries: 2}, false)

	// max_retries=2 means at most 3 attempts of the whole group.
	assert.Equal(t, 3, coder.calls)
	assert.Equal(t, 3, tester.calls)
	assert.Equal(t, 3, reviewer.calls)
}

func TestRunRejectedReviewRerunsCoding(t *testing.T) {
	coder := &mockCoding{}
	reviewer := &mockReview{}
	reviewer.fn = func(context.Context, *TicketInfo, *DesignOutput, string, *TestOutput) (*ReviewOutput, error) {
		if reviewer.calls < 2 {
			return &ReviewOutput{Decision: DecisionRejected, Comments: []string{"rename this"}}, nil
		}
		return &ReviewOutput{Decision: DecisionApproved}, nil
	}

	e := NewEngine(Options{Coder: coder, Reviewer: reviewer})
	c := e.Run(context.Background(), "TICK-4", Config{MaxRetries: 2}, true)

	// A rejection re-runs the whole group, coding included, even though
	// tests passed.
	assert.Equal(t, 2, coder.calls)
	assert.Equal(t, DecisionApproved, c.Review.Decision)
}

func TestCreatePRDeclinedByUser(t *testing.T) {
	host := &mockHost{}
	e := NewEngine(Options{
		Host:      host,
		Confirmer: ConfirmerFunc(func(string) bool { return false }),
	})

	c := e.Run(context.Background(), "TICK-5", Config{}, false)

	assert.Equal(t, PRStatusDeclined, c.PROutcome.Status)
	assert.Nil(t, c.PR)
	assert.Empty(t, host.branches)
	assert.Contains(t, c.Errors, "[CreatePR] User declined PR creation")

	// Declining still completes the step and the run continues to Notes.
	assert.Contains(t, c.CompletedSteps, StepCreatePR)
	assert.Contains(t, c.CompletedSteps, StepNotes)
}

func TestCreatePRThroughHost(t *testing.T) {
	host := &mockHost{}
	e := NewEngine(Options{Host: host})

	c := e.Run(context.Background(), "TICK-6", Config{AutoConfirm: true, MainLanguage: "Go"}, false)

	require.Len(t, host.branches, 1)
	assert.Equal(t, "feature/TICK-6", host.branches[0])
	require.Len(t, host.commits, 1)
	assert.True(t, strings.HasPrefix(host.commits[0], "TICK-6: "))
	require.NotNil(t, c.PR)
	assert.Equal(t, 7, c.PR.Number)
	assert.Equal(t, PRStatusCreated, c.PROutcome.Status)
}

func TestCodingFilesChangedFallsBackToDesignTargets(t *testing.T) {
	coder := &mockCoding{fn: func(context.Context, *TicketInfo, *DesignOutput, *RepoInfo, map[string]string) (*CodingOutput, error) {
		return &CodingOutput{Diff: "", FilesChanged: nil}, nil
	}}
	design := &mockDesign{fn: func(context.Context, *TicketInfo, *RepoInfo) (*DesignOutput, error) {
		return &DesignOutput{TargetFiles: []string{"internal/feature/new_feature.go"}}, nil
	}}

	e := NewEngine(Options{Designer: design, Coder: coder})
	c := e.Run(context.Background(), "TICK-7", Config{}, true)

	require.NotNil(t, c.Coding)
	assert.Equal(t, []string{"internal/feature/new_feature.go"}, c.Coding.FilesChanged)
}

func TestDryRunSkipsTests(t *testing.T) {
	tester := &mockTester{}
	e := NewEngine(Options{Tester: tester})

	c := e.Run(context.Background(), "TICK-8", Config{TestCommand: "go test ./..."}, true)

	assert.Equal(t, 0, tester.calls)
	require.NotNil(t, c.Test)
	assert.True(t, c.Test.Success)
	assert.Equal(t, "[DRY RUN] Skipped tests (go test ./...)", c.Test.Output)
}
