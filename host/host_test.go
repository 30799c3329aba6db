package host

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeRunner records git invocations and scripts their results.
type fakeRunner struct {
	calls   [][]string
	outputs map[string]string
	errs    map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		outputs: make(map[string]string),
		errs:    make(map[string]error),
	}
}

func (f *fakeRunner) Run(_ context.Context, _ string, args ...string) (string, error) {
	f.calls = append(f.calls, args)
	key := args[0]
	if err, ok := f.errs[key]; ok {
		return f.outputs[key], err
	}
	return f.outputs[key], nil
}

func (f *fakeRunner) commands() []string {
	var cmds []string
	for _, call := range f.calls {
		cmds = append(cmds, strings.Join(call, " "))
	}
	return cmds
}

func TestCreateBranchFetchesAndChecksOut(t *testing.T) {
	runner := newFakeRunner()
	w := NewGitWorkspace("/repo", runner)

	if err := w.CreateBranch(context.Background(), "feature/TICK-1", "main"); err != nil {
		t.Fatalf("CreateBranch() error = %v", err)
	}

	want := []string{
		"fetch origin main",
		"checkout -B feature/TICK-1 origin/main",
	}
	got := runner.commands()
	if len(got) != len(want) {
		t.Fatalf("commands = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("commands[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCreateBranchFallsBackWhenFetchFails(t *testing.T) {
	runner := newFakeRunner()
	runner.errs["fetch"] = errors.New("no network")
	w := NewGitWorkspace("/repo", runner)

	if err := w.CreateBranch(context.Background(), "feature/TICK-1", "main"); err != nil {
		t.Fatalf("CreateBranch() error = %v", err)
	}

	last := runner.commands()[len(runner.calls)-1]
	if last != "checkout -B feature/TICK-1 main" {
		t.Errorf("fallback command = %q, want local base checkout", last)
	}
}

func TestCreateBranchDefaultBase(t *testing.T) {
	runner := newFakeRunner()
	w := NewGitWorkspace("/repo", runner)

	if err := w.CreateBranch(context.Background(), "feature/x", ""); err != nil {
		t.Fatalf("CreateBranch() error = %v", err)
	}
	if got := runner.commands()[0]; got != "fetch origin main" {
		t.Errorf("first command = %q, want fetch of main", got)
	}
}

func TestCommitAllStagesEverything(t *testing.T) {
	runner := newFakeRunner()
	w := NewGitWorkspace("/repo", runner)

	if err := w.CommitAll(context.Background(), "TICK-1: add validation"); err != nil {
		t.Fatalf("CommitAll() error = %v", err)
	}

	want := []string{
		"add -A",
		"commit --allow-empty -m TICK-1: add validation",
	}
	got := runner.commands()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("commands[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCommitAllNothingToCommit(t *testing.T) {
	runner := newFakeRunner()
	runner.errs["commit"] = errors.New("exit 1")
	runner.outputs["commit"] = "nothing to commit, working tree clean"
	w := NewGitWorkspace("/repo", runner)

	err := w.CommitAll(context.Background(), "msg")
	if !errors.Is(err, ErrNothingToCommit) {
		t.Errorf("CommitAll() error = %v, want ErrNothingToCommit", err)
	}
}

func TestCommitAllOutsideGitRepo(t *testing.T) {
	runner := newFakeRunner()
	runner.errs["add"] = errors.New("fatal: not a git repository (or any of the parent directories): .git")
	w := NewGitWorkspace("/tmp/nowhere", runner)

	err := w.CommitAll(context.Background(), "msg")
	if !errors.Is(err, ErrNotGitRepo) {
		t.Errorf("CommitAll() error = %v, want ErrNotGitRepo", err)
	}
}

func TestPushBranch(t *testing.T) {
	runner := newFakeRunner()
	w := NewGitWorkspace("/repo", runner)

	if err := w.PushBranch(context.Background(), "feature/TICK-1"); err != nil {
		t.Fatalf("PushBranch() error = %v", err)
	}
	if got := runner.commands()[0]; got != "push -u origin feature/TICK-1" {
		t.Errorf("command = %q", got)
	}
}

func TestPushBranchError(t *testing.T) {
	runner := newFakeRunner()
	runner.errs["push"] = errors.New("remote rejected")
	w := NewGitWorkspace("/repo", runner)

	err := w.PushBranch(context.Background(), "feature/TICK-1")
	var gitErr *GitError
	if !errors.As(err, &gitErr) {
		t.Fatalf("error %v is not *GitError", err)
	}
	if gitErr.Op != "push" {
		t.Errorf("Op = %q, want push", gitErr.Op)
	}
}

func TestParseRepoFromURL(t *testing.T) {
	tests := []struct {
		url         string
		owner, repo string
		wantErr     bool
	}{
		{url: "https://github.com/acme/widgets.git", owner: "acme", repo: "widgets"},
		{url: "https://github.com/acme/widgets", owner: "acme", repo: "widgets"},
		{url: "git@github.com:acme/widgets.git", owner: "acme", repo: "widgets"},
		{url: "https://gitlab.example.com/group/project.git", owner: "group", repo: "project"},
		{url: "not a url", wantErr: true},
	}

	for _, tt := range tests {
		owner, repo, err := ParseRepoFromURL(tt.url)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseRepoFromURL(%q) = %q/%q, want error", tt.url, owner, repo)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRepoFromURL(%q) error = %v", tt.url, err)
			continue
		}
		if owner != tt.owner || repo != tt.repo {
			t.Errorf("ParseRepoFromURL(%q) = %q/%q, want %q/%q", tt.url, owner, repo, tt.owner, tt.repo)
		}
	}
}
