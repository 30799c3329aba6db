package agent

import (
	"context"
	"regexp"
	"strings"

	"github.com/randalmurphal/codeflow/llm"
	"github.com/randalmurphal/codeflow/prompt"
	"github.com/randalmurphal/codeflow/workflow"
)

// Review responses are split on looser keyword headers than the other
// agents: "Decision: approved" on one line is common model output and the
// strict uppercase-header rule would miss it.
var reviewKeywords = []string{"DECISION", "REVIEW COMMENTS", "COMMENTS", "SUGGESTIONS"}

var itemMarkerRe = regexp.MustCompile(`^(?:[-*•]\s*|\d+\.\s*)`)

// ReviewAgent evaluates a diff against its design and test results.
type ReviewAgent struct {
	client  llm.Client
	prompts *prompt.Loader
}

// NewReviewAgent creates a review provider backed by client.
func NewReviewAgent(client llm.Client, prompts *prompt.Loader) *ReviewAgent {
	return &ReviewAgent{client: client, prompts: prompts}
}

// ProduceReview implements workflow.ReviewProvider.
func (a *ReviewAgent) ProduceReview(ctx context.Context, ticket *workflow.TicketInfo, design *workflow.DesignOutput, diff string, test *workflow.TestOutput) (*workflow.ReviewOutput, error) {
	designSummary := ""
	if design != nil {
		designSummary = design.ProposedApproach
	}
	testStatus := "not run"
	testOutput := ""
	if test != nil {
		testStatus = "FAIL"
		if test.Success {
			testStatus = "PASS"
		}
		testOutput = test.Output
		if testOutput == "" {
			testOutput = test.Errors
		}
	}
	vars := map[string]any{
		"DesignSummary":      designSummary,
		"Diff":               diff,
		"TestStatus":         testStatus,
		"TestOutput":         testOutput,
		"TicketID":           "",
		"Title":              "",
		"AcceptanceCriteria": "",
	}
	if ticket != nil {
		vars["TicketID"] = ticket.ID
		vars["Title"] = ticket.Title
		vars["AcceptanceCriteria"] = ticket.AcceptanceCriteria
	}

	text, err := chat(ctx, a.client, a.prompts, "review", vars, 0, 0)
	if err != nil {
		return nil, err
	}
	return ParseReview(text), nil
}

// ParseReview extracts the decision, comments, and suggestions from a
// model response. An unrecognized decision stays pending.
func ParseReview(text string) *workflow.ReviewOutput {
	sections := splitReviewSections(text)

	out := &workflow.ReviewOutput{Decision: workflow.DecisionPending}
	if lines := sections["DECISION"]; len(lines) > 0 {
		out.Decision = parseDecision(strings.Join(lines, "\n"))
	}
	out.Comments = cleanReviewItems(sections["COMMENTS"])
	out.Suggestions = cleanReviewItems(sections["SUGGESTIONS"])
	return out
}

// splitReviewSections groups lines under the review keywords. Text after
// the keyword's colon on the same line becomes the section's first entry.
func splitReviewSections(text string) map[string][]string {
	sections := make(map[string][]string)
	current := ""

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		upper := strings.ToUpper(trimmed)

		matched := false
		for _, keyword := range reviewKeywords {
			if !strings.HasPrefix(upper, keyword) {
				continue
			}
			current = keyword
			if current == "REVIEW COMMENTS" {
				current = "COMMENTS"
			}
			rest := strings.TrimSpace(trimmed[len(keyword):])
			rest = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
			if rest != "" {
				sections[current] = append(sections[current], rest)
			}
			matched = true
			break
		}
		if matched {
			continue
		}
		if current != "" && trimmed != "" {
			sections[current] = append(sections[current], trimmed)
		}
	}
	return sections
}

// parseDecision classifies the whole decision body so a verdict below a
// preamble line still counts.
func parseDecision(body string) workflow.Decision {
	upper := strings.ToUpper(body)
	switch {
	case strings.Contains(upper, "APPROVED"):
		return workflow.DecisionApproved
	case strings.Contains(upper, "REJECTED"), strings.Contains(upper, "REJECT"):
		return workflow.DecisionRejected
	default:
		return workflow.DecisionPending
	}
}

func cleanReviewItems(lines []string) []string {
	var items []string
	for _, line := range lines {
		item := strings.TrimSpace(itemMarkerRe.ReplaceAllString(line, ""))
		if item == "" || strings.HasPrefix(item, "[") {
			continue
		}
		items = append(items, item)
	}
	return items
}
