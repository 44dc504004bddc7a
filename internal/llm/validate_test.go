package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

// questionSchema and assessmentSchema mirror the shapes the question
// generator and risk classifier send.
func questionSchema() *Schema {
	return &Schema{
		Name: "screening-question",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"question_text":  map[string]any{"type": "string"},
				"options":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "minItems": 4, "maxItems": 4},
				"correct_option": map[string]any{"type": "string"},
			},
			"required":             []any{"question_text", "options", "correct_option"},
			"additionalProperties": false,
		},
	}
}

func assessmentSchema() *Schema {
	return &Schema{
		Name: "risk-assessment",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"label":       map[string]any{"type": "string", "enum": []any{"low-risk", "dyslexia-risk", "dyscalculia-risk", "attention-risk"}},
				"probability": map[string]any{"type": "number", "minimum": 0, "maximum": 100},
				"reasoning":   map[string]any{"type": "string"},
			},
			"required": []any{"label", "probability"},
		},
	}
}

const (
	goodQuestion   = `{"question_text":"Which word rhymes with cat?","options":["hat","dog","sun","cup"],"correct_option":"hat"}`
	goodAssessment = `{"label":"dyslexia-risk","probability":72,"reasoning":"Reading accuracy is low."}`
)

func TestCheckOutput(t *testing.T) {
	tests := []struct {
		name   string
		schema *Schema
		raw    string
		ok     bool
	}{
		{"question", questionSchema(), goodQuestion, true},
		{"question with three options", questionSchema(), `{"question_text":"q","options":["a","b","c"],"correct_option":"a"}`, false},
		{"question with extra field", questionSchema(), `{"question_text":"q","options":["a","b","c","d"],"correct_option":"a","hint":"x"}`, false},
		{"question missing answer", questionSchema(), `{"question_text":"q","options":["a","b","c","d"]}`, false},
		{"assessment", assessmentSchema(), goodAssessment, true},
		{"assessment without reasoning", assessmentSchema(), `{"label":"low-risk","probability":10}`, true},
		{"assessment unknown label", assessmentSchema(), `{"label":"autism-risk","probability":50}`, false},
		{"assessment probability over 100", assessmentSchema(), `{"label":"low-risk","probability":130}`, false},
		{"assessment probability as string", assessmentSchema(), `{"label":"low-risk","probability":"high"}`, false},
		{"not JSON", assessmentSchema(), `The child is at low risk.`, false},
		{"empty", questionSchema(), ``, false},
		{"nil schema accepts prose", nil, `anything`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkOutput(tt.schema, json.RawMessage(tt.raw))
			if tt.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected rejection")
			}
			if err.Kind != KindInvalidOutput || err.Schema != tt.schema.Name || string(err.Content) != tt.raw {
				t.Errorf("err = %+v", err)
			}
		})
	}
}

func TestCheckOutput_SchemaCheck(t *testing.T) {
	s := questionSchema()
	s.Check = func(raw json.RawMessage) error {
		var q struct {
			Options       []string `json:"options"`
			CorrectOption string   `json:"correct_option"`
		}
		if err := json.Unmarshal(raw, &q); err != nil {
			return err
		}
		for _, o := range q.Options {
			if o == q.CorrectOption {
				return nil
			}
		}
		return errors.New("answer key not among options")
	}

	if err := checkOutput(s, json.RawMessage(goodQuestion)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := `{"question_text":"Which word rhymes with cat?","options":["hat","dog","sun","cup"],"correct_option":"bat"}`
	err := checkOutput(s, json.RawMessage(bad))
	if err == nil || err.Kind != KindInvalidOutput {
		t.Fatalf("err = %v, want invalid output", err)
	}
	if err.Err == nil || err.Err.Error() != "answer key not among options" {
		t.Errorf("cause = %v", err.Err)
	}
}

func TestCheckOutput_CompiledPerSchema(t *testing.T) {
	// Same name, different definitions: each keeps its own compiled form.
	loose := &Schema{Name: "risk-assessment", Definition: map[string]any{"type": "object"}}
	strict := assessmentSchema()

	raw := json.RawMessage(`{"label":"unsure"}`)
	if err := checkOutput(loose, raw); err != nil {
		t.Fatalf("loose schema rejected: %v", err)
	}
	if err := checkOutput(strict, raw); err == nil {
		t.Fatal("strict schema accepted output it should reject")
	}
	if err := checkOutput(loose, raw); err != nil {
		t.Fatalf("loose schema rejected after strict compile: %v", err)
	}
}

func TestFinish(t *testing.T) {
	ctx := WithPurpose(context.Background(), PurposeRiskAssessment)
	req := Request{Schema: assessmentSchema()}
	usage := Usage{InputTokens: 80, OutputTokens: 20, TotalTokens: 100}

	resp, err := finish(ctx, "test", req, json.RawMessage(goodAssessment), usage, "m-1", StopEnd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Model != "m-1" || resp.Usage != usage || resp.StopReason != StopEnd {
		t.Errorf("resp = %+v", resp)
	}

	_, err = finish(ctx, "test", req, json.RawMessage(`{"label":"dyslexia-ri`), usage, "m-1", StopMaxTokens)
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindTruncated {
		t.Fatalf("err = %v, want truncated", err)
	}
	if e.Purpose != PurposeRiskAssessment || e.Backend != "test" || e.Schema != "risk-assessment" {
		t.Errorf("err = %+v", e)
	}

	_, err = finish(ctx, "test", req, json.RawMessage(`{"label":"maybe"}`), usage, "m-1", StopEnd)
	if !errors.As(err, &e) || e.Kind != KindInvalidOutput || e.Purpose != PurposeRiskAssessment {
		t.Fatalf("err = %v, want invalid output tagged with purpose", err)
	}

	// Unstructured requests are returned as-is, even when cut short.
	resp, err = finish(ctx, "test", Request{}, json.RawMessage(`partial prose`), usage, "m-1", StopMaxTokens)
	if err != nil || resp.StopReason != StopMaxTokens {
		t.Errorf("resp = %+v, err = %v", resp, err)
	}
}
