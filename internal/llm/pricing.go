package llm

import (
	"strings"
	"time"
)

// ModelCost is USD per million tokens.
type ModelCost struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Cost returns the USD cost of one or more requests.
func (c ModelCost) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*c.InputPerMTok/1_000_000 +
		float64(outputTokens)*c.OutputPerMTok/1_000_000
}

// catalogEntry is a model screenwise can be pointed at. Alias is the short
// name accepted in SCREENWISE_*_MODEL; ID is what the backend reports.
type catalogEntry struct {
	Backend string
	Alias   string
	ID      string
	Cost    ModelCost
}

// catalog covers the defaults and the step-up model of each backend.
// Question generation runs once per question and risk assessment once per
// session, so the small models are the defaults everywhere.
// Prices from models.dev, 2026-02.
var catalog = []catalogEntry{
	{"anthropic", "claude-haiku", "claude-haiku-4-5-20251001", ModelCost{1, 5}},
	{"anthropic", "claude-sonnet", "claude-sonnet-4-5-20250929", ModelCost{3, 15}},
	{"anthropic", "", "claude-sonnet-4-20250514", ModelCost{3, 15}},
	{"anthropic", "", "claude-3-5-haiku-20241022", ModelCost{0.8, 4}},

	{"openai", "gpt-4o-mini", "gpt-4o-mini", ModelCost{0.15, 0.6}},
	{"openai", "gpt-4o", "gpt-4o", ModelCost{2.5, 10}},
	{"openai", "gpt-4.1-mini", "gpt-4.1-mini", ModelCost{0.4, 1.6}},
	{"openai", "gpt-5-mini", "gpt-5-mini", ModelCost{0.25, 2}},

	{"gemini", "gemini-flash", "gemini-2.0-flash", ModelCost{0.1, 0.4}},
	{"gemini", "gemini-pro", "gemini-2.5-pro", ModelCost{1.25, 10}},
	{"gemini", "", "gemini-2.5-flash", ModelCost{0.3, 2.5}},
	{"gemini", "", "gemini-2.0-flash-lite", ModelCost{0.075, 0.3}},

	// OpenRouter reports vendor-prefixed IDs; the free tier default costs nothing.
	{"openrouter", "", "google/gemini-2.0-flash-exp", ModelCost{0, 0}},
}

// resolveModel maps an alias of the given backend to its model ID. Names
// that are not aliases pass through so direct model IDs keep working.
func resolveModel(backend, name string) string {
	for _, e := range catalog {
		if e.Backend == backend && e.Alias != "" && e.Alias == name {
			return e.ID
		}
	}
	return name
}

// LookupCost returns pricing for a model ID or alias as recorded on LLM
// request events, or nil if unknown. Vendor-prefixed OpenRouter IDs fall
// back to the bare model ID and OpenAI snapshots ("gpt-4o-mini-2024-07-18")
// to the undated one.
func LookupCost(model string) *ModelCost {
	if _, bare, ok := strings.Cut(model, "/"); ok {
		if c, ok := lookupCost(model); ok {
			return &c
		}
		model = bare
	}
	for _, id := range []string{model, undated(model)} {
		if c, ok := lookupCost(id); ok {
			return &c
		}
	}
	return nil
}

// undated strips a trailing -YYYY-MM-DD snapshot suffix.
func undated(model string) string {
	const layout = "2006-01-02"
	if n := len(model) - len(layout); n > 1 && model[n-1] == '-' {
		if _, err := time.Parse(layout, model[n:]); err == nil {
			return model[:n-1]
		}
	}
	return model
}

func lookupCost(model string) (ModelCost, bool) {
	for _, e := range catalog {
		if e.ID == model || (e.Alias != "" && e.Alias == model) {
			return e.Cost, true
		}
	}
	return ModelCost{}, false
}
