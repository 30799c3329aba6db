// Package localrepo runs local repository operations for the workflow:
// applying generated patches, running the test command, and loading
// source files for prompt context.
package localrepo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/randalmurphal/codeflow/workflow"
)

// ErrEmptyDiff indicates there was no diff to apply.
var ErrEmptyDiff = errors.New("No diff provided")

// maxContextBytes caps how much of a file is loaded into prompt context.
const maxContextBytes = 5000

// truncationMarker is appended to files cut at maxContextBytes.
const truncationMarker = "\n... [truncated]"

// Patcher applies unified diffs with git apply.
type Patcher struct{}

// Apply implements workflow.PatchApplier. It pipes the diff into
// `git apply` and returns the command output.
func (Patcher) Apply(ctx context.Context, repoPath, diff string) (string, error) {
	if strings.TrimSpace(diff) == "" {
		return "", ErrEmptyDiff
	}

	cmd := exec.CommandContext(ctx, "git", "apply", "--whitespace=nowarn", "-")
	cmd.Dir = repoPath
	cmd.Stdin = strings.NewReader(diff)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		return msg, fmt.Errorf("git apply: %s", msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Runner executes the configured test command through the shell.
type Runner struct{}

// Run implements workflow.TestRunner. A failing test command is a result,
// not an error: Success is false and the output carries the details.
func (Runner) Run(ctx context.Context, repoPath, command string) (*workflow.TestOutput, error) {
	if strings.TrimSpace(command) == "" {
		return &workflow.TestOutput{
			Success: true,
			Output:  "No test command configured",
		}, nil
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = repoPath

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := &workflow.TestOutput{
		Success:         err == nil,
		Output:          strings.TrimSpace(stdout.String()),
		Errors:          strings.TrimSpace(stderr.String()),
		DurationSeconds: time.Since(start).Seconds(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// The command could not run at all.
			return nil, fmt.Errorf("run test command %q: %w", command, err)
		}
		if out.Errors == "" {
			out.Errors = err.Error()
		}
	}
	return out, nil
}

// ContextLoader reads target files for inclusion in coding prompts.
type ContextLoader struct{}

// Load implements workflow.CodeContextLoader. Missing or unreadable files
// are skipped; oversized files are truncated with a marker.
func (ContextLoader) Load(root string, paths []string) map[string]string {
	contents := make(map[string]string)
	for _, p := range paths {
		full := filepath.Join(root, p)
		data, err := os.ReadFile(full)
		if err != nil {
			slog.Debug("skipping context file", "path", full, "error", err)
			continue
		}
		text := string(data)
		if len(text) > maxContextBytes {
			text = text[:maxContextBytes] + truncationMarker
		}
		contents[p] = text
	}
	return contents
}
