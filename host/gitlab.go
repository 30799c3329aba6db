package host

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/xanzy/go-gitlab"

	"github.com/randalmurphal/codeflow/workflow"
)

// GitLabHost implements workflow.Host for GitLab repositories, creating
// merge requests through the GitLab API.
type GitLabHost struct {
	workspace *GitWorkspace
	client    *gitlab.Client
	projectID string // numeric ID or "namespace/project"
	base      string
}

// NewGitLabHost creates a GitLab host. baseURL is empty for gitlab.com.
func NewGitLabHost(repoPath, token, baseURL, projectID, base string) (*GitLabHost, error) {
	if token == "" {
		return nil, fmt.Errorf("GitLab token is required")
	}
	if projectID == "" {
		return nil, fmt.Errorf("project ID is required")
	}
	if base == "" {
		base = "main"
	}

	var client *gitlab.Client
	var err error
	if baseURL != "" {
		client, err = gitlab.NewClient(token, gitlab.WithBaseURL(baseURL))
	} else {
		client, err = gitlab.NewClient(token)
	}
	if err != nil {
		return nil, fmt.Errorf("create GitLab client: %w", err)
	}

	return &GitLabHost{
		workspace: NewGitWorkspace(repoPath, nil),
		client:    client,
		projectID: projectID,
		base:      base,
	}, nil
}

// NewGitLabHostFromURL creates a GitLab host from a remote URL like
// "https://gitlab.com/namespace/project.git". Self-hosted instances are
// derived from the URL's host.
func NewGitLabHostFromURL(repoPath, token, remoteURL, base string) (*GitLabHost, error) {
	owner, repo, err := ParseRepoFromURL(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("parse remote URL: %w", err)
	}

	var baseURL string
	if !strings.Contains(remoteURL, "gitlab.com") {
		trimmed := strings.TrimPrefix(remoteURL, "https://")
		trimmed = strings.TrimPrefix(trimmed, "http://")
		if parts := strings.Split(trimmed, "/"); len(parts) > 0 {
			baseURL = "https://" + parts[0]
		}
	}

	return NewGitLabHost(repoPath, token, baseURL, owner+"/"+repo, base)
}

// CreateBranch implements workflow.Host.
func (h *GitLabHost) CreateBranch(ctx context.Context, branch, base string) error {
	if base == "" {
		base = h.base
	}
	return h.workspace.CreateBranch(ctx, branch, base)
}

// CommitAll implements workflow.Host.
func (h *GitLabHost) CommitAll(ctx context.Context, message string) error {
	return h.workspace.CommitAll(ctx, message)
}

// PushBranch implements workflow.Host.
func (h *GitLabHost) PushBranch(ctx context.Context, branch string) error {
	return h.workspace.PushBranch(ctx, branch)
}

// CreatePullRequest implements workflow.Host.
func (h *GitLabHost) CreatePullRequest(ctx context.Context, branch, title, body string) (*workflow.PRInfo, error) {
	mrOpts := &gitlab.CreateMergeRequestOptions{
		Title:        gitlab.Ptr(title),
		Description:  gitlab.Ptr(body),
		SourceBranch: gitlab.Ptr(branch),
		TargetBranch: gitlab.Ptr(h.base),
	}

	mr, resp, err := h.client.MergeRequests.CreateMergeRequest(h.projectID, mrOpts, gitlab.WithContext(ctx))
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusConflict {
			return nil, ErrPRExists
		}
		if resp != nil && resp.StatusCode == http.StatusBadRequest &&
			strings.Contains(err.Error(), "No commits between") {
			return nil, ErrNoChanges
		}
		return nil, fmt.Errorf("create MR: %w", err)
	}

	return &workflow.PRInfo{
		Branch: branch,
		URL:    mr.WebURL,
		Number: mr.IID,
	}, nil
}
