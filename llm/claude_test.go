package llm

import (
	"context"
	"testing"
)

func TestSplitMessages(t *testing.T) {
	system, prompt := splitMessages([]Message{
		{Role: RoleSystem, Content: "you are a reviewer"},
		{Role: RoleUser, Content: "review this"},
		{Role: RoleAssistant, Content: "ok"},
		{Role: RoleUser, Content: "thanks"},
	})

	if system != "you are a reviewer" {
		t.Errorf("system = %q", system)
	}
	if prompt != "review this\n\nok\n\nthanks" {
		t.Errorf("prompt = %q", prompt)
	}
}

func TestParseClaudeOutput_Direct(t *testing.T) {
	resp, err := parseClaudeOutput([]byte(`{"result":"hello","input_tokens":10,"output_tokens":5}`))
	if err != nil {
		t.Fatalf("parseClaudeOutput: %v", err)
	}
	if resp.Content != "hello" {
		t.Errorf("Content = %q, want %q", resp.Content, "hello")
	}
	if resp.Usage.InputTokens != 10 || resp.Usage.OutputTokens != 5 {
		t.Errorf("Usage = %+v", resp.Usage)
	}
}

func TestParseClaudeOutput_Embedded(t *testing.T) {
	resp, err := parseClaudeOutput([]byte("some preamble\n{\"result\":\"ok\",\"tokens_in\":3,\"tokens_out\":2}\ntrailer"))
	if err != nil {
		t.Fatalf("parseClaudeOutput: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("Content = %q, want %q", resp.Content, "ok")
	}
	if resp.Usage.InputTokens != 3 {
		t.Errorf("InputTokens = %d, want 3", resp.Usage.InputTokens)
	}
}

func TestParseClaudeOutput_NoJSON(t *testing.T) {
	if _, err := parseClaudeOutput([]byte("plain text output")); err == nil {
		t.Error("expected error for non-JSON output")
	}
}

func TestMockClient_RecordsRequests(t *testing.T) {
	mock := &MockClient{Model: "test-model"}

	resp, err := mock.Chat(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Model != "test-model" {
		t.Errorf("Model = %q", resp.Model)
	}
	if len(mock.Requests) != 1 {
		t.Fatalf("Requests = %d, want 1", len(mock.Requests))
	}
	if mock.Requests[0].Messages[0].Content != "hi" {
		t.Errorf("recorded content = %q", mock.Requests[0].Messages[0].Content)
	}
}

func TestGenerationError(t *testing.T) {
	err := &GenerationError{Model: "m", Err: ErrClaudeFailed}
	if err.Unwrap() != ErrClaudeFailed {
		t.Error("Unwrap should return underlying error")
	}
	if got := err.Error(); got != "generation failed (m): claude CLI failed" {
		t.Errorf("Error = %q", got)
	}
}
