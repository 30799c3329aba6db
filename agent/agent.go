// Package agent implements the model-backed workflow providers. Each agent
// renders a prompt pair, sends it through an llm.Client, and parses the
// structured-text response tolerantly: missing sections degrade to empty
// fields, never to errors.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/randalmurphal/codeflow/llm"
	"github.com/randalmurphal/codeflow/prompt"
)

// chat renders the <name>-system and <name>-user prompts and returns the
// model's raw response text. Zero temperature/maxTokens defer to the
// backend defaults.
func chat(ctx context.Context, client llm.Client, prompts *prompt.Loader, name string, vars map[string]any, temperature float64, maxTokens int) (string, error) {
	system, err := prompts.Render(name+"-system", nil)
	if err != nil {
		return "", fmt.Errorf("render %s-system: %w", name, err)
	}
	user, err := prompts.Render(name+"-user", vars)
	if err != nil {
		return "", fmt.Errorf("render %s-user: %w", name, err)
	}

	resp, err := client.Chat(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// dropPlaceholders removes template leftovers like "[list the files]" that
// models sometimes echo back instead of real values.
func dropPlaceholders(items []string) []string {
	var out []string
	for _, item := range items {
		if strings.HasPrefix(item, "[") {
			continue
		}
		out = append(out, item)
	}
	return out
}
