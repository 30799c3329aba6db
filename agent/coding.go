package agent

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/randalmurphal/codeflow/llm"
	"github.com/randalmurphal/codeflow/parse"
	"github.com/randalmurphal/codeflow/prompt"
	"github.com/randalmurphal/codeflow/workflow"
)

var (
	fencedDiffRe  = regexp.MustCompile("(?is)```(?:diff)?\\s*(.*?)```")
	diffFileRe    = regexp.MustCompile(`(?m)^\+\+\+ b/(.+)$`)
	patchMarkerRe = regexp.MustCompile(`(?i)PATCH:`)
	patchEndRe    = regexp.MustCompile(`(?i)FILES CHANGED|EXPLANATIONS|FILES:`)
)

// Low temperature favors deterministic patches.
const (
	codingTemperature = 0.2
	codingMaxTokens   = 2048
)

// CodingAgent turns a design into a unified diff.
type CodingAgent struct {
	client  llm.Client
	prompts *prompt.Loader
}

// NewCodingAgent creates a coding provider backed by client.
func NewCodingAgent(client llm.Client, prompts *prompt.Loader) *CodingAgent {
	return &CodingAgent{client: client, prompts: prompts}
}

// ProduceCode implements workflow.CodingProvider.
func (a *CodingAgent) ProduceCode(ctx context.Context, ticket *workflow.TicketInfo, design *workflow.DesignOutput, repo *workflow.RepoInfo, codeContext map[string]string) (*workflow.CodingOutput, error) {
	vars := map[string]any{
		"TicketID":             ticket.ID,
		"Title":                ticket.Title,
		"Description":          ticket.Description,
		"AcceptanceCriteria":   ticket.AcceptanceCriteria,
		"CodeContext":          renderCodeContext(codeContext),
		"ProblemUnderstanding": "",
		"ProposedApproach":     "",
		"PlanSteps":            renderPlanSteps(nil),
		"MainLanguage":         "",
		"RepoPath":             "",
		"TestCommand":          "",
	}
	if design != nil {
		vars["ProblemUnderstanding"] = design.ProblemUnderstanding
		vars["ProposedApproach"] = design.ProposedApproach
		vars["PlanSteps"] = renderPlanSteps(design.Plan)
	}
	if repo != nil {
		vars["MainLanguage"] = repo.MainLanguage
		vars["RepoPath"] = repo.Path
		vars["TestCommand"] = repo.TestCommand
	}

	text, err := chat(ctx, a.client, a.prompts, "coding", vars, codingTemperature, codingMaxTokens)
	if err != nil {
		return nil, err
	}
	return ParseCoding(text, design), nil
}

// ParseCoding extracts the diff, changed files, and explanations from a
// model response. The design, when present, supplies the files-changed
// fallback.
func ParseCoding(text string, design *workflow.DesignOutput) *workflow.CodingOutput {
	sections := parse.Split(text)
	diff := extractDiff(text)

	out := &workflow.CodingOutput{
		Diff:         diff,
		FilesChanged: extractFilesChanged(sections, diff, design),
	}
	if diff != "" {
		out.Patches = []string{diff}
	}
	if body, ok := sections.GetAny("EXPLANATIONS", "RATIONALE", "NOTES"); ok {
		out.Explanations = strings.Join(parse.Items(body), "\n")
	}
	return out
}

// extractDiff pulls the unified diff out of a response, trying the most
// reliable signal first: a fenced code block, then a bare PATCH: marker,
// then any diff-looking lines, then the whole response.
func extractDiff(text string) string {
	if m := fencedDiffRe.FindStringSubmatch(text); m != nil {
		if diff := strings.TrimSpace(m[1]); diff != "" {
			return diff
		}
	}

	if loc := patchMarkerRe.FindStringIndex(text); loc != nil {
		rest := text[loc[1]:]
		if end := patchEndRe.FindStringIndex(rest); end != nil {
			rest = rest[:end[0]]
		}
		if diff := strings.TrimSpace(rest); diff != "" {
			return diff
		}
	}

	var diffLines []string
	for _, line := range strings.Split(text, "\n") {
		if looksLikeDiffLine(line) {
			diffLines = append(diffLines, line)
		}
	}
	if len(diffLines) > 0 {
		return strings.Join(diffLines, "\n")
	}

	return strings.TrimSpace(text)
}

func looksLikeDiffLine(line string) bool {
	return strings.HasPrefix(line, "+") ||
		strings.HasPrefix(line, "-") ||
		strings.HasPrefix(line, "@@") ||
		strings.HasPrefix(line, "diff ")
}

// extractFilesChanged resolves the changed-file list: explicit section,
// then +++ headers in the diff, then the design's target files.
func extractFilesChanged(sections *parse.Sections, diff string, design *workflow.DesignOutput) []string {
	if body, ok := sections.GetAny("FILES CHANGED", "FILES"); ok {
		if items := dropPlaceholders(parse.Items(body)); len(items) > 0 {
			return items
		}
	}

	if matches := diffFileRe.FindAllStringSubmatch(diff, -1); len(matches) > 0 {
		seen := make(map[string]bool)
		var files []string
		for _, m := range matches {
			f := strings.TrimSpace(m[1])
			if f != "" && !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
		if len(files) > 0 {
			return files
		}
	}

	if design != nil {
		return design.TargetFiles
	}
	return nil
}

// renderCodeContext formats loaded file contents for the prompt.
func renderCodeContext(codeContext map[string]string) string {
	if len(codeContext) == 0 {
		return "No existing code context available."
	}
	paths := make([]string, 0, len(codeContext))
	for p := range codeContext {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var b strings.Builder
	for _, p := range paths {
		fmt.Fprintf(&b, "=== %s ===\n%s\n\n", p, codeContext[p])
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderPlanSteps(plan []string) string {
	if len(plan) == 0 {
		return "No plan provided."
	}
	var b strings.Builder
	for i, step := range plan {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	return strings.TrimRight(b.String(), "\n")
}
