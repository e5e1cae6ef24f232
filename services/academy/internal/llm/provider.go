// Package llm is the model-provider layer behind content generation.
// Callers send a Request with an optional JSON schema and receive validated JSON.
package llm

import (
	"context"
	"encoding/json"
)

// Provider generates a structured completion for a Request.
type Provider interface {
	// Generate sends the request and returns the model output. When
	// req.Schema is set the Content is JSON that validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

type Request struct {
	System      string
	Messages    []Message
	Schema      *Schema
	MaxTokens   int
	Temperature float64
}

type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema names a JSON Schema definition the output must satisfy.
type Schema struct {
	// Name is kebab-case, e.g. "lesson-summary".
	Name        string
	Description string
	Definition  map[string]any
}

type Response struct {
	Content json.RawMessage
	Usage   Usage
	Model   string
	// StopReason is normalized to "end", "max_tokens" or "error".
	StopReason string
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
