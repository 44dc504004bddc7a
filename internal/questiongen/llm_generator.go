package questiongen

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/abhisek/screenwise/internal/llm"
	"github.com/abhisek/screenwise/internal/screening"
)

// QuestionSchema defines the JSON schema for LLM question generation responses.
var QuestionSchema = &llm.Schema{
	Name:        "screening-question",
	Description: "A single multiple-choice screening question for a child",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question_text": map[string]any{
				"type":        "string",
				"description": "The question shown to the child, short and self-contained",
			},
			"options": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"minItems":    4,
				"maxItems":    4,
				"description": "Exactly 4 distinct answer options",
			},
			"correct_option": map[string]any{
				"type":        "string",
				"description": "The text of the correct option, copied exactly from options",
			},
		},
		"required":             []any{"question_text", "options", "correct_option"},
		"additionalProperties": false,
	},
	Check: checkQuestionOutput,
}

// checkQuestionOutput rejects output whose answer key is not one of its options,
// so the provider re-asks instead of the validator chain discarding it.
func checkQuestionOutput(raw json.RawMessage) error {
	var out questionOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	if !slices.Contains(out.Options, out.CorrectOption) {
		return fmt.Errorf("correct_option %q is not among the options", out.CorrectOption)
	}
	return nil
}

const systemPrompt = `You write short multiple-choice screening questions for children aged 6-10.

Rules:
- Generate a single question for the given domain and difficulty.
- reading: letters, rhymes, vocabulary, grammar. writing: spelling, capitalisation, punctuation, word choice.
  math: arithmetic, counting, number sequences. attention: counting among distractors, odd one out, patterns.
- Provide exactly 4 distinct options where exactly one is correct.
- Distractors should reflect common confusions (letter or digit reversals, near misses), not random values.
- Keep the text under 200 characters. Do not repeat any question from the "already asked" list.`

// LLMConfig controls the LLM generator.
type LLMConfig struct {
	Validators        []Validator
	MaxTokens         int
	Temperature       float64
	MaxPriorQuestions int
}

// DefaultLLMConfig returns the standard validator chain and limits.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Validators:        DefaultValidators(),
		MaxTokens:         384,
		Temperature:       0.7,
		MaxPriorQuestions: 8,
	}
}

// LLMGenerator implements Generator using an LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   LLMConfig
}

var _ Generator = (*LLMGenerator)(nil)

// NewLLMGenerator creates an LLMGenerator.
func NewLLMGenerator(provider llm.Provider, cfg LLMConfig) *LLMGenerator {
	return &LLMGenerator{provider: provider, config: cfg}
}

type questionOutput struct {
	QuestionText  string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectOption string   `json:"correct_option"`
}

// Generate asks the provider for a question and runs the validator chain.
func (g *LLMGenerator) Generate(ctx context.Context, input GenerateInput) (*screening.QuestionSpec, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeQuestionGen)

	req := llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildUserMessage(input, g.config.MaxPriorQuestions)}},
		Schema:      QuestionSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	var raw questionOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}

	q := &screening.QuestionSpec{
		Domain:        input.Domain,
		Difficulty:    input.Difficulty,
		Text:          strings.TrimSpace(raw.QuestionText),
		Options:       raw.Options,
		CorrectOption: raw.CorrectOption,
	}
	if verr := RunValidators(g.config.Validators, q, input); verr != nil {
		return nil, verr
	}
	return q, nil
}

func buildUserMessage(input GenerateInput, maxPrior int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Domain: %s\n", input.Domain)
	fmt.Fprintf(&b, "Difficulty: %s\n", input.Difficulty)

	b.WriteString("\nAlready asked in this session:\n")
	prior := input.PriorQuestions
	if len(prior) == 0 {
		b.WriteString("None")
		return b.String()
	}
	if maxPrior > 0 && len(prior) > maxPrior {
		prior = prior[len(prior)-maxPrior:]
	}
	for i, q := range prior {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return strings.TrimRight(b.String(), "\n")
}
