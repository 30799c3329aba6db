// Package host implements pull-request creation against GitHub and
// GitLab, plus the local git plumbing that prepares the branch.
package host

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strings"

	"github.com/randalmurphal/codeflow/workflow"
)

var (
	// ErrNotGitRepo indicates the path is not a git repository.
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrNothingToCommit indicates there are no changes to commit.
	ErrNothingToCommit = errors.New("nothing to commit")

	// ErrPRExists indicates a PR already exists for the branch.
	ErrPRExists = errors.New("pull request already exists for this branch")

	// ErrNoChanges indicates there are no commits between branches.
	ErrNoChanges = errors.New("no changes between branches")

	// ErrUnknownRemote indicates the remote URL could not be parsed.
	ErrUnknownRemote = errors.New("cannot parse owner and repo from remote URL")
)

// GitError wraps a git command error with context.
type GitError struct {
	Op     string // Operation that failed (e.g., "commit", "push")
	Output string // Combined stdout/stderr output
	Err    error  // Underlying error
}

func (e *GitError) Error() string {
	if e.Output != "" {
		return e.Op + ": " + e.Output
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *GitError) Unwrap() error {
	return e.Err
}

// CommandRunner runs a git subcommand in a directory and returns its
// trimmed stdout.
type CommandRunner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// ExecRunner runs git via os/exec.
type ExecRunner struct{}

// Run implements CommandRunner.
func (ExecRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		if msg == "" {
			msg = err.Error()
		}
		return msg, fmt.Errorf("%s", msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// gitErr wraps a runner failure, mapping telltale git output to the
// package sentinels first.
func gitErr(op, output string, err error) error {
	if strings.Contains(err.Error(), "not a git repository") {
		return fmt.Errorf("%s: %w", op, ErrNotGitRepo)
	}
	return &GitError{Op: op, Output: output, Err: err}
}

// GitWorkspace performs branch, commit, and push operations on a local
// checkout.
type GitWorkspace struct {
	repoPath string
	runner   CommandRunner
}

// NewGitWorkspace creates a workspace rooted at repoPath. A nil runner
// defaults to ExecRunner.
func NewGitWorkspace(repoPath string, runner CommandRunner) *GitWorkspace {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &GitWorkspace{repoPath: repoPath, runner: runner}
}

// CreateBranch checks out a fresh branch from the remote base, fetching
// first. A failed fetch is tolerated so offline repositories still work.
func (w *GitWorkspace) CreateBranch(ctx context.Context, branch, base string) error {
	if base == "" {
		base = "main"
	}

	if _, err := w.runner.Run(ctx, w.repoPath, "fetch", "origin", base); err != nil {
		slog.Warn("git fetch failed, branching from local base", "base", base, "error", err)
		if _, err := w.runner.Run(ctx, w.repoPath, "checkout", "-B", branch, base); err != nil {
			return gitErr("create branch", branch, err)
		}
		return nil
	}

	if _, err := w.runner.Run(ctx, w.repoPath, "checkout", "-B", branch, "origin/"+base); err != nil {
		return gitErr("create branch", branch, err)
	}
	return nil
}

// CommitAll stages everything and commits. An empty commit is allowed so
// that a run whose patch was already applied still produces a branch tip.
func (w *GitWorkspace) CommitAll(ctx context.Context, message string) error {
	if _, err := w.runner.Run(ctx, w.repoPath, "add", "-A"); err != nil {
		return gitErr("stage all", "", err)
	}
	if output, err := w.runner.Run(ctx, w.repoPath, "commit", "--allow-empty", "-m", message); err != nil {
		if strings.Contains(output, "nothing to commit") {
			return ErrNothingToCommit
		}
		return gitErr("commit", output, err)
	}
	return nil
}

// PushBranch pushes the branch to origin with upstream tracking.
func (w *GitWorkspace) PushBranch(ctx context.Context, branch string) error {
	if _, err := w.runner.Run(ctx, w.repoPath, "push", "-u", "origin", branch); err != nil {
		return gitErr("push", "", err)
	}
	return nil
}

var remoteRe = regexp.MustCompile(`[:/]([^/:]+)/([^/]+?)(?:\.git)?/?$`)

// ParseRepoFromURL extracts owner and repo from an HTTPS or SSH remote
// URL.
func ParseRepoFromURL(remoteURL string) (owner, repo string, err error) {
	m := remoteRe.FindStringSubmatch(strings.TrimSpace(remoteURL))
	if m == nil {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownRemote, remoteURL)
	}
	return m[1], m[2], nil
}

// compile-time interface checks
var (
	_ workflow.Host = (*GitHubHost)(nil)
	_ workflow.Host = (*GitLabHost)(nil)
)
