// Package llm wraps the language-model backends that write lesson
// content: exercise batches, hints and answers to the learner's free
// questions. Everything above this package talks to the one Provider
// interface; which vendor sits behind it is a configuration detail.
package llm

import (
	"context"
	"encoding/json"
)

// Provider generates structured lesson content from a prompt.
type Provider interface {
	// Generate runs one completion. When the request carries a
	// Schema, the returned Content is JSON already validated against
	// it; otherwise Content is the raw model text.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID names the configured model, for logs and cost lookup.
	ModelID() string
}

// Request is one prompt to the model.
type Request struct {
	// System frames the model's role, e.g. a patient primary-school
	// tutor writing in Romanian.
	System string

	// Messages is the turn history. Exercise generation sends a
	// single user turn; free questions may carry a short exchange.
	Messages []Message

	// Schema, when set, forces structured JSON output and turns on
	// response validation.
	Schema *Schema

	// MaxTokens bounds the completion length.
	MaxTokens int

	// Temperature in 0..1. Zero means deterministic.
	Temperature float64
}

// Message is a single turn.
type Message struct {
	Role    Role
	Content string
}

// Role marks who wrote a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema names and defines the JSON shape a request expects back.
type Schema struct {
	// Name is a short kebab-case handle, e.g. "exercise-batch". The
	// providers reuse it as their structured-output schema name.
	Name string

	// Description tells the model what the shape represents.
	Description string

	// Definition is the JSON Schema document as a nested map.
	Definition map[string]any
}

// Response is the model's output plus accounting.
type Response struct {
	// Content is validated JSON when the request had a Schema, raw
	// text otherwise.
	Content json.RawMessage

	// Usage counts the tokens this request consumed.
	Usage Usage

	// Model is the model that actually answered.
	Model string

	// StopReason is normalized to "end" or "max_tokens".
	StopReason string
}

// Usage is the token accounting for one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// resolveModel turns a friendly alias into a vendor model ID. Unknown
// names pass through so exact IDs keep working.
func resolveModel(name string, aliases map[string]string) string {
	if id, ok := aliases[name]; ok {
		return id
	}
	return name
}
