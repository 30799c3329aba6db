package agent

import (
	"context"
	"strings"

	"github.com/randalmurphal/codeflow/llm"
	"github.com/randalmurphal/codeflow/parse"
	"github.com/randalmurphal/codeflow/prompt"
	"github.com/randalmurphal/codeflow/workflow"
)

// DesignAgent turns a ticket plus repository metadata into an
// implementation plan.
type DesignAgent struct {
	client  llm.Client
	prompts *prompt.Loader
}

// NewDesignAgent creates a design provider backed by client.
func NewDesignAgent(client llm.Client, prompts *prompt.Loader) *DesignAgent {
	return &DesignAgent{client: client, prompts: prompts}
}

// ProduceDesign implements workflow.DesignProvider.
func (a *DesignAgent) ProduceDesign(ctx context.Context, ticket *workflow.TicketInfo, repo *workflow.RepoInfo) (*workflow.DesignOutput, error) {
	vars := map[string]any{
		"TicketID":           ticket.ID,
		"Title":              ticket.Title,
		"Description":        ticket.Description,
		"AcceptanceCriteria": ticket.AcceptanceCriteria,
		"MainLanguage":       "",
		"RepoPath":           "",
		"TestCommand":        "",
	}
	if repo != nil {
		vars["MainLanguage"] = repo.MainLanguage
		vars["RepoPath"] = repo.Path
		vars["TestCommand"] = repo.TestCommand
	}

	text, err := chat(ctx, a.client, a.prompts, "design", vars, 0, 0)
	if err != nil {
		return nil, err
	}
	return ParseDesign(text), nil
}

// ParseDesign extracts the design sections from a model response. Missing
// sections yield empty fields.
func ParseDesign(text string) *workflow.DesignOutput {
	sections := parse.Split(text)

	out := &workflow.DesignOutput{}
	if body, ok := sections.Get("PROBLEM UNDERSTANDING"); ok {
		out.ProblemUnderstanding = strings.TrimSpace(body)
	}
	if body, ok := sections.Get("PROPOSED APPROACH"); ok {
		out.ProposedApproach = strings.TrimSpace(body)
	}
	if body, ok := sections.Get("TARGET FILES"); ok {
		out.TargetFiles = dropPlaceholders(parse.Items(body))
	}
	if body, ok := sections.GetAny("STEP-BY-STEP PLAN", "STEP BY STEP PLAN"); ok {
		out.Plan = parse.NumberedItems(body)
		if out.Plan == nil {
			out.Plan = parse.Items(body)
		}
	}
	return out
}
