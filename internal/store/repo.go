package store

import (
	"context"
	"time"

	"github.com/abhisek/screenwise/internal/screening"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // sequence > After
	Before  int64     // sequence < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // exact purpose match, LLM events only
}

// SessionStatus tracks whether a session still accepts answers.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusCompleted SessionStatus = "completed"
)

// Session is one persisted assessment attempt.
type Session struct {
	ID        string
	UserID    string
	AgeGroup  string
	Status    SessionStatus
	StartedAt time.Time
	EndedAt   time.Time // zero while active
}

// SessionRepo persists sessions.
type SessionRepo interface {
	Create(ctx context.Context, s *Session) error

	// Get returns ErrNotFound for an unknown id.
	Get(ctx context.Context, id string) (*Session, error)

	// Complete marks the session completed at the given time.
	Complete(ctx context.Context, id string, at time.Time) error

	// ListByUser returns the user's sessions, oldest first.
	ListByUser(ctx context.Context, userID string) ([]Session, error)
}

// Question is a synthesized question served in a session, kept for answer
// checking.
type Question struct {
	ID        string
	SessionID string
	Position  int
	Spec      screening.QuestionSpec
	Source    string
	CreatedAt time.Time
}

// QuestionRepo persists served questions.
type QuestionRepo interface {
	Save(ctx context.Context, q *Question) error

	// Get returns ErrNotFound for an unknown id.
	Get(ctx context.Context, id string) (*Question, error)

	// Count returns the number of questions served in the session.
	Count(ctx context.Context, sessionID string) (int, error)
}

// ResponseRepo is the append-only answer history of every session.
type ResponseRepo interface {
	// Append records an answer. Answering the same question twice fails.
	Append(ctx context.Context, sessionID string, e screening.ResponseEvent) error

	// Responses returns all events for the session in increasing time order.
	Responses(ctx context.Context, sessionID string) ([]screening.ResponseEvent, error)

	// LastResponse returns the most recent event, or nil if none exist.
	LastResponse(ctx context.Context, sessionID string) (*screening.ResponseEvent, error)

	// Count returns the number of recorded events for the session.
	Count(ctx context.Context, sessionID string) (int, error)
}

// StoredRisk is a persisted risk inference for a completed session.
type StoredRisk struct {
	SessionID string
	Result    screening.RiskResult
	Source    string
	CreatedAt time.Time
}

// RiskResultRepo persists one risk result per session.
type RiskResultRepo interface {
	// Save stores the result. Saving twice for a session fails.
	Save(ctx context.Context, r *StoredRisk) error

	// Get returns ErrNotFound when the session has no result.
	Get(ctx context.Context, sessionID string) (*StoredRisk, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsageStats aggregates LLM calls for one purpose.
type LLMUsageStats struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// LLMModelUsage aggregates LLM calls for one model.
type LLMModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo records and queries LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)

	// GetLLMEvent returns the event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error)

	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)
	LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error)
}
