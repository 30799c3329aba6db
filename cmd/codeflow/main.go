// Command codeflow drives the ticket-to-PR workflow from the terminal.
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/codeflow/agent"
	"github.com/randalmurphal/codeflow/config"
	"github.com/randalmurphal/codeflow/host"
	"github.com/randalmurphal/codeflow/jira"
	"github.com/randalmurphal/codeflow/llm"
	"github.com/randalmurphal/codeflow/localrepo"
	"github.com/randalmurphal/codeflow/prompt"
	"github.com/randalmurphal/codeflow/runstore"
	"github.com/randalmurphal/codeflow/workflow"
)

var (
	configPath string
	verbose    bool
)

func main() {
	root := &cobra.Command{
		Use:           "codeflow",
		Short:         "Run an automated ticket-to-PR development workflow",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newRunCmd(), newRunsCmd(), newEvalCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var (
		ticketID string
		dryRun   bool
		yes      bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the workflow for a single ticket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if yes {
				settings.Workflow.AutoConfirm = true
			}

			engine, err := buildEngine(settings)
			if err != nil {
				return err
			}

			c := engine.Run(cmd.Context(), ticketID, settings.Workflow, dryRun)
			printSummary(cmd.OutOrStdout(), c)

			if !c.Successful() {
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&ticketID, "ticket", "", "ticket ID to process")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "skip patch application, tests, and git actions")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the PR confirmation prompt")
	_ = cmd.MarkFlagRequired("ticket")
	return cmd
}

// buildEngine wires providers and collaborators from settings. The stub
// backend leaves the providers nil so the engine substitutes its own.
func buildEngine(settings *config.Settings) (*workflow.Engine, error) {
	opts := workflow.Options{
		Tickets:   jira.NewClient(settings.Jira),
		Tester:    localrepo.Runner{},
		Confirmer: workflow.ConfirmerFunc(confirmOnTerminal),
	}

	if settings.ModelBackend == "claude" {
		client, err := llm.NewClaudeCLI(llm.ClaudeConfig{
			Model:   settings.ModelName,
			WorkDir: settings.Workflow.RepoPath,
		})
		if err != nil {
			return nil, fmt.Errorf("claude backend: %w", err)
		}
		prompts := prompt.NewLoader(settings.Workflow.RepoPath)

		opts.Designer = agent.NewDesignAgent(client, prompts)
		opts.Coder = agent.NewCodingAgent(client, prompts)
		opts.Reviewer = agent.NewReviewAgent(client, prompts)
		opts.Noter = agent.NewNotesAgent(client, prompts)
		opts.Patcher = localrepo.Patcher{}
		opts.Loader = localrepo.ContextLoader{}
	}

	switch {
	case settings.GitHubToken != "" && settings.GitHubOwner != "":
		h, err := host.NewGitHubHost(settings.Workflow.RepoPath, settings.GitHubToken,
			settings.GitHubOwner, settings.GitHubRepo, settings.Workflow.DefaultBranch)
		if err != nil {
			return nil, err
		}
		opts.Host = h
	case settings.GitLabToken != "" && settings.GitLabProjectID != "":
		h, err := host.NewGitLabHost(settings.Workflow.RepoPath, settings.GitLabToken,
			settings.GitLabBaseURL, settings.GitLabProjectID, settings.Workflow.DefaultBranch)
		if err != nil {
			return nil, err
		}
		opts.Host = h
	}

	store, err := runstore.NewFileStore(settings.Workflow.RunsDir)
	if err != nil {
		return nil, err
	}
	opts.Store = store

	return workflow.NewEngine(opts), nil
}

// confirmOnTerminal asks on stdin. Anything but an explicit yes declines.
func confirmOnTerminal(promptText string) bool {
	fmt.Fprint(os.Stderr, promptText)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
