package risk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/abhisek/screenwise/internal/features"
	"github.com/abhisek/screenwise/internal/llm"
	"github.com/abhisek/screenwise/internal/model"
	"github.com/abhisek/screenwise/internal/screening"
)

// AssessmentSchema defines the JSON schema for LLM risk assessment responses.
var AssessmentSchema = &llm.Schema{
	Name:        "risk-assessment",
	Description: "Screening risk classification from aggregate session features",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"label": map[string]any{
				"type":        "string",
				"enum":        []any{"low-risk", "dyslexia-risk", "dyscalculia-risk", "attention-risk"},
				"description": "The single most likely screening outcome",
			},
			"probability": map[string]any{
				"type":        "number",
				"minimum":     0,
				"maximum":     100,
				"description": "Probability of the chosen label as a percentage (0-100)",
			},
			"scores": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"dyslexia-risk":    map[string]any{"type": "number", "minimum": 0, "maximum": 1},
					"dyscalculia-risk": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
					"attention-risk":   map[string]any{"type": "number", "minimum": 0, "maximum": 1},
				},
				"required":             []any{"dyslexia-risk", "dyscalculia-risk", "attention-risk"},
				"additionalProperties": false,
				"description":          "Risk per elevated label as a fraction (0-1)",
			},
			"reasoning": map[string]any{
				"type":        "string",
				"description": "One sentence explaining the classification",
			},
		},
		"required":             []any{"label", "probability", "scores", "reasoning"},
		"additionalProperties": false,
	},
	Check: checkAssessmentOutput,
}

// checkAssessmentOutput rejects an elevated label that is not the top score.
func checkAssessmentOutput(raw json.RawMessage) error {
	var out assessmentOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	if out.Label == string(screening.RiskLow) {
		return nil
	}
	mine := out.Scores[out.Label]
	for l, s := range out.Scores {
		if s > mine {
			return fmt.Errorf("label %s scored %.2f below %s at %.2f", out.Label, mine, l, s)
		}
	}
	return nil
}

// LLMClassifierConfig holds configuration for the LLM classifier.
type LLMClassifierConfig struct {
	MaxTokens   int
	Temperature float64
}

// DefaultLLMClassifierConfig returns sensible defaults.
func DefaultLLMClassifierConfig() LLMClassifierConfig {
	return LLMClassifierConfig{
		MaxTokens:   256,
		Temperature: 0.2,
	}
}

// LLMClassifier asks an LLM provider to classify the risk vector.
type LLMClassifier struct {
	provider llm.Provider
	cfg      LLMClassifierConfig
}

var _ Classifier = (*LLMClassifier)(nil)

// NewLLMClassifier creates an LLM-backed classifier.
func NewLLMClassifier(provider llm.Provider, cfg LLMClassifierConfig) *LLMClassifier {
	return &LLMClassifier{provider: provider, cfg: cfg}
}

func (c *LLMClassifier) Name() string { return "llm:" + c.provider.ModelID() }

type assessmentOutput struct {
	Label       string             `json:"label"`
	Probability float64            `json:"probability"`
	Scores      map[string]float64 `json:"scores"`
	Reasoning   string             `json:"reasoning"`
}

// Classify sends the features to the LLM. The reported probability is a
// percentage; scores are fractions.
func (c *LLMClassifier) Classify(ctx context.Context, v features.RiskVector) (*Assessment, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeRiskAssessment)

	userMsg, err := buildAssessmentMessage(v)
	if err != nil {
		return nil, fmt.Errorf("build assessment prompt: %w", err)
	}

	resp, err := c.provider.Generate(ctx, llm.Request{
		System:      assessmentSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: userMsg}},
		Schema:      AssessmentSchema,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM risk assessment failed: %w", err)
	}

	var raw assessmentOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse assessment response: %w", err)
	}

	scores := make(screening.RiskScores, len(raw.Scores))
	for k, s := range raw.Scores {
		scores[screening.RiskLabel(k)] = s
	}
	return &Assessment{
		Label:       screening.RiskLabel(raw.Label),
		Probability: raw.Probability,
		Scale:       model.ScalePercent,
		Scores:      scores,
	}, nil
}

const assessmentSystemPrompt = `You are assisting a learning-difficulty screening tool for children aged 6-10. You receive aggregate features from one completed screening session.

Instructions:
- Choose exactly one label: low-risk, dyslexia-risk, dyscalculia-risk or attention-risk.
- Reading accuracy and letter reversals relate to dyslexia; math accuracy and number reversals to dyscalculia; focus accuracy and impulsive errors to attention.
- Report the probability of the chosen label as a percentage and a 0-1 score per elevated label.
- This is a screening aid, not a diagnosis. Prefer low-risk when evidence is weak.
- Keep reasoning to one sentence.`

var assessmentUserTemplate = template.Must(template.New("assessment").Parse(`Session features:
- reading accuracy: {{printf "%.2f" .ReadingAcc}}
- math accuracy: {{printf "%.2f" .MathAcc}}
- focus accuracy: {{printf "%.2f" .FocusAcc}}
- average response time (ms): {{printf "%.0f" .AvgTimeMs}}
- letter reversal rate: {{printf "%.2f" .RevRate}}
- number reversal/substitution rate: {{printf "%.2f" .PVRate}}
- impulsive error rate: {{printf "%.2f" .ImpulseRate}}
`))

func buildAssessmentMessage(v features.RiskVector) (string, error) {
	var buf bytes.Buffer
	if err := assessmentUserTemplate.Execute(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}
