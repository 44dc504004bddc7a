package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockResponse is one canned reply.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
	// Stop defaults to StopEnd.
	Stop string
}

// MockProvider is a deterministic Provider for tests and the "mock"
// backend. Replies queued with OnPurpose are served to requests carrying
// that purpose; everything else draws from the shared FIFO queue. Content
// goes through the same schema checks as a real backend.
type MockProvider struct {
	mu        sync.Mutex
	queue     []MockResponse
	byPurpose map[string][]MockResponse
	Calls     []Request
}

// NewMockProvider returns a mock serving responses in order.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{queue: responses, byPurpose: make(map[string][]MockResponse)}
}

// OnPurpose queues replies for requests made under WithPurpose(ctx, purpose).
func (m *MockProvider) OnPurpose(purpose string, responses ...MockResponse) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byPurpose[purpose] = append(m.byPurpose[purpose], responses...)
	return m
}

// AddResponse appends to the shared queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, resp)
}

func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	resp, ok := m.next(ctx, req)
	if !ok {
		return nil, &Error{Kind: KindUnavailable, Backend: "mock", Purpose: PurposeFrom(ctx)}
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	stop := resp.Stop
	if stop == "" {
		stop = StopEnd
	}
	return finish(ctx, "mock", req, resp.Content, resp.Usage, "mock", stop)
}

func (m *MockProvider) next(ctx context.Context, req Request) (MockResponse, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)

	purpose := PurposeFrom(ctx)
	if q := m.byPurpose[purpose]; len(q) > 0 {
		m.byPurpose[purpose] = q[1:]
		return q[0], true
	}
	if len(m.queue) == 0 {
		return MockResponse{}, false
	}
	resp := m.queue[0]
	m.queue = m.queue[1:]
	return resp, true
}

func (m *MockProvider) ModelID() string {
	return "mock"
}

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
