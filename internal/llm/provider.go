package llm

import (
	"context"
	"encoding/json"
)

// Provider generates one structured reply per call. Screenwise makes two
// kinds of call: a question for the next turn and a risk assessment at the
// end of a session. Both carry a Schema.
type Provider interface {
	// Generate returns Content that has passed req.Schema, or an *Error.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID is the configured model, after alias resolution.
	ModelID() string
}

// Request is a single-turn prompt.
type Request struct {
	System   string
	Messages []Message

	// Schema selects the backend's native structured output. Nil means
	// free text, returned unvalidated.
	Schema *Schema

	MaxTokens int

	// Temperature in [0, 1]. Zero leaves the backend default in place.
	Temperature float64
}

// Message is one conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema describes the JSON a caller expects back, such as a screening
// question or a risk assessment.
type Schema struct {
	// Name is kebab-case ("screening-question"). OpenAI uses it as the
	// schema name and errors report it.
	Name        string
	Description string

	// Definition is a JSON Schema object. Keep to the subset Gemini
	// understands: type, properties, required, enum, items, min/max and
	// minItems/maxItems.
	Definition map[string]any

	// Check, when set, runs on the raw output after schema validation
	// for rules JSON Schema cannot express. A non-nil error rejects the
	// output as invalid.
	Check func(raw json.RawMessage) error
}

// Response is a validated reply.
type Response struct {
	Content json.RawMessage
	Usage   Usage

	// Model is the model that served the request as the backend reports
	// it, which may be a dated snapshot of ModelID.
	Model string

	// StopReason indicates why generation stopped: StopEnd or StopMaxTokens.
	StopReason string
}

// Normalized stop reasons.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
)

// Usage is token consumption for one request. `llm stats` prices it via
// LookupCost.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
