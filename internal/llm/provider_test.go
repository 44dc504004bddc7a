package llm

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
)

func TestMockProvider_Queue(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(goodQuestion), Usage: Usage{InputTokens: 90, OutputTokens: 40}},
		MockResponse{Err: errors.New("network down")},
	)
	req := Request{Schema: questionSchema()}

	resp, err := mock.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != goodQuestion || resp.Usage.InputTokens != 90 || resp.Model != "mock" || resp.StopReason != StopEnd {
		t.Errorf("resp = %+v", resp)
	}

	if _, err := mock.Generate(context.Background(), req); err == nil || err.Error() != "network down" {
		t.Errorf("err = %v, want configured error", err)
	}

	_, err = mock.Generate(WithPurpose(context.Background(), PurposeQuestionGen), req)
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindUnavailable || e.Purpose != PurposeQuestionGen {
		t.Errorf("empty queue err = %v", err)
	}
	if mock.CallCount() != 3 || mock.Calls[0].Schema != req.Schema {
		t.Errorf("calls = %+v", mock.Calls)
	}
}

func TestMockProvider_OnPurpose(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(goodQuestion)}).
		OnPurpose(PurposeRiskAssessment, MockResponse{Content: json.RawMessage(goodAssessment)})

	// The assessment reply is reserved even though the question reply is queued first.
	ctx := WithPurpose(context.Background(), PurposeRiskAssessment)
	resp, err := mock.Generate(ctx, Request{Schema: assessmentSchema()})
	if err != nil || string(resp.Content) != goodAssessment {
		t.Fatalf("assessment = %v, %v", resp, err)
	}

	ctx = WithPurpose(context.Background(), PurposeQuestionGen)
	resp, err = mock.Generate(ctx, Request{Schema: questionSchema()})
	if err != nil || string(resp.Content) != goodQuestion {
		t.Fatalf("question = %v, %v", resp, err)
	}

	// Purpose queue drained: falls through to the empty shared queue.
	if _, err := mock.Generate(WithPurpose(context.Background(), PurposeRiskAssessment), Request{}); err == nil {
		t.Error("expected unavailable once both queues are empty")
	}
}

func TestMockProvider_ValidatesLikeABackend(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(goodAssessment)},
		MockResponse{Content: json.RawMessage(`{"question_text":"Pick one","options":["a","b"],"correct_option":"a"}`)},
	)

	// An assessment body does not satisfy the question schema.
	if _, err := mock.Generate(context.Background(), Request{Schema: questionSchema()}); err == nil {
		t.Error("assessment accepted as a question")
	}
	_, err := mock.Generate(context.Background(), Request{Schema: questionSchema()})
	if kind, _ := KindOf(err); kind != KindInvalidOutput {
		t.Errorf("err = %v, want invalid output", err)
	}
}

func TestMockProvider_Concurrent(t *testing.T) {
	mock := NewMockProvider()
	for range 20 {
		mock.AddResponse(MockResponse{Content: json.RawMessage(goodQuestion)})
	}
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := mock.Generate(context.Background(), Request{Schema: questionSchema()}); err != nil {
				t.Errorf("Generate: %v", err)
			}
		}()
	}
	wg.Wait()
	if mock.CallCount() != 20 {
		t.Errorf("calls = %d", mock.CallCount())
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("PurposeFrom = %q, want unknown", p)
	}
	if p := PurposeFrom(WithPurpose(ctx, PurposeQuestionGen)); p != PurposeQuestionGen {
		t.Fatalf("PurposeFrom = %q", p)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"anthropic without key", Config{Provider: "anthropic"}, true},
		{"anthropic with key", Config{Provider: "anthropic", Anthropic: AnthropicConfig{APIKey: "sk-test"}}, false},
		{"openai without key", Config{Provider: "openai"}, true},
		{"gemini with key", Config{Provider: "gemini", Gemini: GeminiConfig{APIKey: "g-test"}}, false},
		{"openrouter without key", Config{Provider: "openrouter"}, true},
		{"mock needs no key", Config{Provider: "mock"}, false},
		{"unknown provider", Config{Provider: "unknown"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
