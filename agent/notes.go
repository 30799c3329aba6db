package agent

import (
	"context"
	"strings"

	"github.com/randalmurphal/codeflow/llm"
	"github.com/randalmurphal/codeflow/parse"
	"github.com/randalmurphal/codeflow/prompt"
	"github.com/randalmurphal/codeflow/workflow"
)

// Slightly higher temperature than coding; notes are prose.
const (
	notesTemperature = 0.3
	notesMaxTokens   = 800
)

// NotesAgent distills a finished run into retrospective notes.
type NotesAgent struct {
	client  llm.Client
	prompts *prompt.Loader
}

// NewNotesAgent creates a notes provider backed by client.
func NewNotesAgent(client llm.Client, prompts *prompt.Loader) *NotesAgent {
	return &NotesAgent{client: client, prompts: prompts}
}

// ProduceNotes implements workflow.NotesProvider.
func (a *NotesAgent) ProduceNotes(ctx context.Context, digest workflow.RunDigest) (*workflow.NotesOutput, error) {
	vars := map[string]any{
		"TicketSummary": digest.TicketSummary,
		"DesignSummary": digest.DesignSummary,
		"CodingSummary": digest.CodingSummary,
		"TestSummary":   digest.TestSummary,
		"ReviewSummary": digest.ReviewSummary,
		"PRSummary":     digest.PRSummary,
		"Logs":          digest.Logs,
	}

	text, err := chat(ctx, a.client, a.prompts, "notes", vars, notesTemperature, notesMaxTokens)
	if err != nil {
		return nil, err
	}
	return ParseNotes(text), nil
}

// ParseNotes extracts the retrospective sections from a model response.
func ParseNotes(text string) *workflow.NotesOutput {
	sections := parse.Split(text)

	out := &workflow.NotesOutput{}
	if body, ok := sections.Get("SUMMARY"); ok {
		out.Summary = strings.Join(parse.Items(body), "\n")
	}
	if body, ok := sections.GetAny("LESSONS", "LESSONS LEARNED"); ok {
		out.Lessons = parse.Items(body)
	}
	if body, ok := sections.Get("SUGGESTIONS"); ok {
		out.Suggestions = parse.Items(body)
	}
	if body, ok := sections.Get("TAGS"); ok {
		out.Tags = parseTags(body)
	}
	return out
}

// parseTags flattens the TAGS section: items may be listed one per line
// or comma-separated on a single line.
func parseTags(body string) []string {
	var tags []string
	for _, item := range parse.Items(body) {
		for _, tag := range strings.Split(item, ",") {
			tag = strings.TrimSpace(tag)
			if tag != "" {
				tags = append(tags, tag)
			}
		}
	}
	return tags
}
