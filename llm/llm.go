// Package llm defines the text-generation client boundary used by agents.
//
// Core types:
//   - Client: interface for chat-style completion backends
//   - ClaudeCLI: backend that shells out to the claude CLI binary
//   - MockClient: scriptable implementation for tests
//
// Backend failures surface as *GenerationError so callers can distinguish
// "the model refused or errored" from their own logic errors.
package llm

import (
	"context"
	"fmt"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single role-tagged chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Usage reports token consumption for a completion.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// Request describes a chat completion request.
// Temperature and MaxTokens are optional; zero means backend default.
type Request struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Response is the model's reply plus usage accounting.
type Response struct {
	Content string
	Model   string
	Usage   Usage
}

// Client is the interface all generation backends implement.
type Client interface {
	// Chat sends an ordered list of messages and returns the response text.
	// Returns *GenerationError when the backend rejects or fails the request.
	Chat(ctx context.Context, req Request) (*Response, error)

	// ModelName returns the backend's model identifier.
	ModelName() string
}

// GenerationError wraps a backend failure.
type GenerationError struct {
	Model string // Model that was asked (may be empty)
	Err   error  // Underlying error
}

func (e *GenerationError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("generation failed (%s): %v", e.Model, e.Err)
	}
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// MockClient is a scriptable Client for tests.
type MockClient struct {
	ChatFunc func(ctx context.Context, req Request) (*Response, error)
	Model    string

	// Requests records every request received, in order.
	Requests []Request
}

// Chat implements Client.
func (m *MockClient) Chat(ctx context.Context, req Request) (*Response, error) {
	m.Requests = append(m.Requests, req)
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req)
	}
	return &Response{Content: "", Model: m.Model}, nil
}

// ModelName implements Client.
func (m *MockClient) ModelName() string {
	if m.Model == "" {
		return "mock"
	}
	return m.Model
}
