package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Claude CLI errors
var (
	// ErrClaudeNotFound indicates the claude CLI binary was not found.
	ErrClaudeNotFound = errors.New("claude CLI not found")

	// ErrClaudeTimeout indicates the claude CLI execution timed out.
	ErrClaudeTimeout = errors.New("claude CLI timed out")

	// ErrClaudeFailed indicates the claude CLI exited with an error.
	ErrClaudeFailed = errors.New("claude CLI failed")
)

// ClaudeCLI implements Client by shelling out to the claude CLI binary.
type ClaudeCLI struct {
	binaryPath string
	model      string
	timeout    time.Duration
	workDir    string
}

// ClaudeConfig configures the Claude CLI backend.
type ClaudeConfig struct {
	BinaryPath string        // Path to claude binary (default: "claude")
	Model      string        // Model to use (empty = claude default)
	Timeout    time.Duration // Per-request timeout (default: 5m)
	WorkDir    string        // Working directory for the CLI process
}

// NewClaudeCLI creates a Claude CLI backend.
// Returns ErrClaudeNotFound if the claude binary is not installed.
func NewClaudeCLI(cfg ClaudeConfig) (*ClaudeCLI, error) {
	binaryPath := cfg.BinaryPath
	if binaryPath == "" {
		binaryPath = "claude"
	}

	if _, err := exec.LookPath(binaryPath); err != nil {
		return nil, ErrClaudeNotFound
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}

	return &ClaudeCLI{
		binaryPath: binaryPath,
		model:      cfg.Model,
		timeout:    timeout,
		workDir:    cfg.WorkDir,
	}, nil
}

// ModelName implements Client.
func (c *ClaudeCLI) ModelName() string {
	if c.model == "" {
		return "claude"
	}
	return c.model
}

// Chat implements Client. System messages become the --system-prompt flag;
// the remaining messages are concatenated into the inline prompt.
func (c *ClaudeCLI) Chat(ctx context.Context, req Request) (*Response, error) {
	systemPrompt, prompt := splitMessages(req.Messages)

	args := []string{"--print", "--output-format", "json"}
	if c.model != "" {
		args = append(args, "--model", c.model)
	}
	if systemPrompt != "" {
		args = append(args, "--system-prompt", systemPrompt)
	}
	args = append(args, "-p", prompt)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.binaryPath, args...)
	if c.workDir != "" {
		cmd.Dir = c.workDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &GenerationError{Model: c.model, Err: fmt.Errorf("%w: after %v", ErrClaudeTimeout, c.timeout)}
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, &GenerationError{Model: c.model, Err: ctx.Err()}
		}
		stderrStr := strings.TrimSpace(stderr.String())
		if stderrStr != "" {
			return nil, &GenerationError{Model: c.model, Err: fmt.Errorf("%w: %s", ErrClaudeFailed, stderrStr)}
		}
		return nil, &GenerationError{Model: c.model, Err: fmt.Errorf("%w: %v", ErrClaudeFailed, err)}
	}

	resp, err := parseClaudeOutput(stdout.Bytes())
	if err != nil {
		// Fallback to raw output when the CLI emitted plain text.
		resp = &Response{Content: strings.TrimSpace(stdout.String())}
	}
	resp.Model = c.model
	return resp, nil
}

// splitMessages separates system content from the conversational prompt.
func splitMessages(messages []Message) (systemPrompt, prompt string) {
	var system, rest []string
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m.Content)
	}
	return strings.Join(system, "\n\n"), strings.Join(rest, "\n\n")
}

// claudeJSONOutput represents the JSON output from claude CLI.
type claudeJSONOutput struct {
	Result       string `json:"result"`
	TokensIn     int    `json:"tokens_in"`
	TokensOut    int    `json:"tokens_out"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// parseClaudeOutput parses the JSON output from claude CLI.
func parseClaudeOutput(data []byte) (*Response, error) {
	data = bytes.TrimSpace(data)

	var output claudeJSONOutput
	if err := json.Unmarshal(data, &output); err != nil {
		// The JSON object may be surrounded by other content.
		start := bytes.Index(data, []byte("{"))
		end := bytes.LastIndex(data, []byte("}"))
		if start < 0 || end <= start {
			return nil, fmt.Errorf("no json found in output")
		}
		if err := json.Unmarshal(data[start:end+1], &output); err != nil {
			return nil, fmt.Errorf("parse json output: %w", err)
		}
	}

	// The CLI has used both field name pairs across versions.
	tokensIn := output.TokensIn
	if tokensIn == 0 {
		tokensIn = output.InputTokens
	}
	tokensOut := output.TokensOut
	if tokensOut == 0 {
		tokensOut = output.OutputTokens
	}

	return &Response{
		Content: output.Result,
		Usage:   Usage{InputTokens: tokensIn, OutputTokens: tokensOut},
	}, nil
}
