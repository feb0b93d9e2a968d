package llm

import (
	"context"
	"encoding/json"
)

// Provider generates a structured answer from a language model. Course
// authoring issues one request per course, so implementations are free
// to be stateless.
type Provider interface {
	// Generate sends req and returns the model's JSON. With a Schema the
	// content conforms to it; with JSONMode it is at least a JSON object.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the resolved model identifier.
	ModelID() string
}

// Request is a single prompt for a provider.
type Request struct {
	System   string
	Messages []Message

	// Schema selects the provider's native structured output. JSONMode is
	// ignored when Schema is set; without native support the response is
	// only checked to parse as a JSON object.
	Schema   *Schema
	JSONMode bool

	MaxTokens int

	// Temperature in [0,1]. Zero means deterministic.
	Temperature float64
}

// SingleTurn builds a request of a system prompt plus one user message.
func SingleTurn(system, user string) Request {
	return Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: user}},
	}
}

// UserPrompt returns the content of the last user message, or "".
func (r Request) UserPrompt() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return r.Messages[i].Content
		}
	}
	return ""
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

// Schema is a JSON Schema the response must satisfy. Name is kebab-case,
// e.g. "course-outline", and doubles as the validator cache key.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// StopReason is the normalized reason a model stopped generating.
type StopReason string

const (
	StopEnd       StopReason = "end"
	StopMaxTokens StopReason = "max_tokens"
)

type Response struct {
	// Content is the validated JSON object, or the raw text wrapped as a
	// JSON string when the request asked for neither schema nor JSON.
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason StopReason
}

// Truncated reports whether the model ran out of output tokens.
func (r *Response) Truncated() bool {
	return r.StopReason == StopMaxTokens
}

// Usage is the token count of one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
