// Package config loads the workflow configuration from a YAML file with
// environment variable overrides and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/codeflow/jira"
	"github.com/randalmurphal/codeflow/workflow"
)

// DefaultFileName is the config file looked up when no path is given.
const DefaultFileName = "config.yaml"

// ValidationError describes a rejected configuration value.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config field %s: %s", e.Field, e.Reason)
}

// File mirrors the YAML layout of the config file.
type File struct {
	Workflow struct {
		RepoPath      string `yaml:"repo_path"`
		MainLanguage  string `yaml:"main_language"`
		DefaultBranch string `yaml:"default_branch"`
		MaxRetries    *int   `yaml:"max_retries"`
		RunsDir       string `yaml:"runs_dir"`
		AutoConfirm   bool   `yaml:"auto_confirm"`
	} `yaml:"workflow"`

	Test struct {
		Command string `yaml:"command"`
	} `yaml:"test"`

	GitHub struct {
		Token string `yaml:"token"`
		Owner string `yaml:"owner"`
		Repo  string `yaml:"repo"`
	} `yaml:"github"`

	GitLab struct {
		Token     string `yaml:"token"`
		BaseURL   string `yaml:"base_url"`
		ProjectID string `yaml:"project_id"`
	} `yaml:"gitlab"`

	Jira struct {
		URL   string `yaml:"url"`
		Email string `yaml:"email"`
		Token string `yaml:"token"`
	} `yaml:"jira"`

	Model struct {
		Name    string `yaml:"name"`
		Backend string `yaml:"backend"`
	} `yaml:"model"`
}

// Settings is the fully resolved configuration.
type Settings struct {
	Workflow workflow.Config
	Jira     jira.Config

	GitHubToken string
	GitHubOwner string
	GitHubRepo  string

	GitLabToken     string
	GitLabBaseURL   string
	GitLabProjectID string

	ModelName    string
	ModelBackend string
}

// Load reads the config file at path (or DefaultFileName when empty),
// applies environment overrides, fills defaults, and validates. A missing
// default config file is not an error; defaults apply.
func Load(path string) (*Settings, error) {
	explicit := path != ""
	if path == "" {
		path = DefaultFileName
	}

	var file File
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// No config file, run on defaults.
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	s := fromFile(&file)
	if err := applyEnv(s); err != nil {
		return nil, err
	}
	applyDefaults(s)

	if err := validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

func fromFile(f *File) *Settings {
	maxRetries := 1
	if f.Workflow.MaxRetries != nil {
		maxRetries = *f.Workflow.MaxRetries
	}

	return &Settings{
		Workflow: workflow.Config{
			RepoPath:      f.Workflow.RepoPath,
			MainLanguage:  f.Workflow.MainLanguage,
			DefaultBranch: f.Workflow.DefaultBranch,
			MaxRetries:    maxRetries,
			RunsDir:       f.Workflow.RunsDir,
			AutoConfirm:   f.Workflow.AutoConfirm,
			TestCommand:   f.Test.Command,
		},
		Jira: jira.Config{
			URL:   f.Jira.URL,
			Email: f.Jira.Email,
			Token: f.Jira.Token,
		},
		GitHubToken:     f.GitHub.Token,
		GitHubOwner:     f.GitHub.Owner,
		GitHubRepo:      f.GitHub.Repo,
		GitLabToken:     f.GitLab.Token,
		GitLabBaseURL:   f.GitLab.BaseURL,
		GitLabProjectID: f.GitLab.ProjectID,
		ModelName:       f.Model.Name,
		ModelBackend:    f.Model.Backend,
	}
}

// applyEnv overlays CODEFLOW_* environment variables onto settings.
func applyEnv(s *Settings) error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	setString("CODEFLOW_REPO_PATH", &s.Workflow.RepoPath)
	setString("CODEFLOW_MAIN_LANGUAGE", &s.Workflow.MainLanguage)
	setString("CODEFLOW_DEFAULT_BRANCH", &s.Workflow.DefaultBranch)
	setString("CODEFLOW_TEST_COMMAND", &s.Workflow.TestCommand)
	setString("CODEFLOW_RUNS_DIR", &s.Workflow.RunsDir)
	setString("CODEFLOW_REPO_URL", &s.Workflow.RepoURL)

	if v, ok := os.LookupEnv("CODEFLOW_MAX_RETRIES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ValidationError{
				Field:  "workflow.max_retries",
				Reason: fmt.Sprintf("CODEFLOW_MAX_RETRIES is not a number: %q", v),
			}
		}
		s.Workflow.MaxRetries = n
	}
	if v, ok := os.LookupEnv("CODEFLOW_AUTO_CONFIRM"); ok {
		s.Workflow.AutoConfirm = isTruthy(v)
	}

	setString("CODEFLOW_GITHUB_TOKEN", &s.GitHubToken)
	setString("CODEFLOW_GITLAB_TOKEN", &s.GitLabToken)
	setString("CODEFLOW_JIRA_URL", &s.Jira.URL)
	setString("CODEFLOW_JIRA_EMAIL", &s.Jira.Email)
	setString("CODEFLOW_JIRA_TOKEN", &s.Jira.Token)
	setString("CODEFLOW_MODEL", &s.ModelName)
	return nil
}

func applyDefaults(s *Settings) {
	if s.Workflow.RepoPath == "" {
		s.Workflow.RepoPath = "."
	}
	if s.Workflow.MainLanguage == "" {
		s.Workflow.MainLanguage = "Go"
	}
	if s.Workflow.DefaultBranch == "" {
		s.Workflow.DefaultBranch = "main"
	}
	if s.Workflow.RunsDir == "" {
		s.Workflow.RunsDir = "runs"
	}
	if s.ModelBackend == "" {
		s.ModelBackend = "stub"
	}
}

func validate(s *Settings) error {
	if s.Workflow.MaxRetries < 0 {
		return &ValidationError{
			Field:  "workflow.max_retries",
			Reason: "must be zero or positive",
		}
	}
	if strings.TrimSpace(s.Workflow.TestCommand) == "" && s.Workflow.TestCommand != "" {
		return &ValidationError{
			Field:  "test.command",
			Reason: "must not be blank",
		}
	}
	switch s.ModelBackend {
	case "stub", "claude":
	default:
		return &ValidationError{
			Field:  "model.backend",
			Reason: fmt.Sprintf("unknown backend %q (want stub or claude)", s.ModelBackend),
		}
	}
	return nil
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
