package host

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/randalmurphal/codeflow/workflow"
)

// GitHubHost implements workflow.Host for GitHub repositories. Local git
// operations go through a GitWorkspace; the PR itself through the GitHub
// API.
type GitHubHost struct {
	workspace *GitWorkspace
	client    *github.Client
	owner     string
	repo      string
	base      string
}

// NewGitHubHost creates a GitHub host. token is a personal access token,
// owner and repo identify the repository, base is the PR target branch.
func NewGitHubHost(repoPath, token, owner, repo, base string) (*GitHubHost, error) {
	if token == "" {
		return nil, fmt.Errorf("GitHub token is required")
	}
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("owner and repo are required")
	}
	if base == "" {
		base = "main"
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)

	return &GitHubHost{
		workspace: NewGitWorkspace(repoPath, nil),
		client:    github.NewClient(tc),
		owner:     owner,
		repo:      repo,
		base:      base,
	}, nil
}

// NewGitHubHostFromURL creates a GitHub host from a remote URL like
// "https://github.com/acme/widgets.git".
func NewGitHubHostFromURL(repoPath, token, remoteURL, base string) (*GitHubHost, error) {
	owner, repo, err := ParseRepoFromURL(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("parse remote URL: %w", err)
	}
	return NewGitHubHost(repoPath, token, owner, repo, base)
}

// CreateBranch implements workflow.Host.
func (h *GitHubHost) CreateBranch(ctx context.Context, branch, base string) error {
	if base == "" {
		base = h.base
	}
	return h.workspace.CreateBranch(ctx, branch, base)
}

// CommitAll implements workflow.Host.
func (h *GitHubHost) CommitAll(ctx context.Context, message string) error {
	return h.workspace.CommitAll(ctx, message)
}

// PushBranch implements workflow.Host.
func (h *GitHubHost) PushBranch(ctx context.Context, branch string) error {
	return h.workspace.PushBranch(ctx, branch)
}

// CreatePullRequest implements workflow.Host.
func (h *GitHubHost) CreatePullRequest(ctx context.Context, branch, title, body string) (*workflow.PRInfo, error) {
	newPR := &github.NewPullRequest{
		Title: github.String(title),
		Body:  github.String(body),
		Base:  github.String(h.base),
		Head:  github.String(branch),
	}

	pr, resp, err := h.client.PullRequests.Create(ctx, h.owner, h.repo, newPR)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnprocessableEntity {
			if strings.Contains(err.Error(), "A pull request already exists") {
				return nil, ErrPRExists
			}
			if strings.Contains(err.Error(), "No commits between") {
				return nil, ErrNoChanges
			}
		}
		return nil, fmt.Errorf("create PR: %w", err)
	}

	return &workflow.PRInfo{
		Branch: branch,
		URL:    pr.GetHTMLURL(),
		Number: pr.GetNumber(),
	}, nil
}
