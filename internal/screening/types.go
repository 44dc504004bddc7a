package screening

import (
	"fmt"
	"time"
)

// Domain is a screening area a question is drawn from.
type Domain string

const (
	DomainReading   Domain = "reading"
	DomainWriting   Domain = "writing"
	DomainMath      Domain = "math"
	DomainAttention Domain = "attention"
)

// Domains lists every domain in priority order. Ties in domain rotation
// are broken by this order.
var Domains = []Domain{DomainReading, DomainWriting, DomainMath, DomainAttention}

// Index returns the position of d in Domains, or -1 if d is unknown.
func (d Domain) Index() int {
	for i, v := range Domains {
		if v == d {
			return i
		}
	}
	return -1
}

// ParseDomain converts a raw string into a Domain.
// "focus" is accepted as an alias for attention.
func ParseDomain(s string) (Domain, error) {
	switch s {
	case "reading", "writing", "math", "attention":
		return Domain(s), nil
	case "focus":
		return DomainAttention, nil
	}
	return "", fmt.Errorf("unknown domain %q", s)
}

// Difficulty is the level of a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists every difficulty from easiest to hardest.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Index returns the position of d in Difficulties, or -1 if d is unknown.
func (d Difficulty) Index() int {
	for i, v := range Difficulties {
		if v == d {
			return i
		}
	}
	return -1
}

// ParseDifficulty converts a raw string into a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch s {
	case "easy", "medium", "hard":
		return Difficulty(s), nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// Confidence is the learner's self-reported confidence in an answer.
// The zero value means no confidence was reported.
type Confidence string

const (
	ConfidenceNone   Confidence = ""
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ParseConfidence converts a raw string into a Confidence.
func ParseConfidence(s string) (Confidence, error) {
	switch c := Confidence(s); c {
	case ConfidenceNone, ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return c, nil
	}
	return "", fmt.Errorf("unknown confidence %q", s)
}

// MistakeType tags the kind of error behind a wrong answer.
type MistakeType string

const (
	MistakeNone             MistakeType = ""
	MistakeLetterReversal   MistakeType = "letter_reversal"
	MistakeNumberReversal   MistakeType = "number_reversal"
	MistakeSubstitution     MistakeType = "substitution"
	MistakeSpellingError    MistakeType = "spelling_error"
	MistakeCalculationError MistakeType = "calculation_error"
	MistakeSequenceError    MistakeType = "sequence_error"
	MistakeOmission         MistakeType = "omission"
)

// Severity returns the clinical weight of a mistake type.
func (m MistakeType) Severity() string {
	switch m {
	case MistakeLetterReversal, MistakeNumberReversal:
		return "high"
	case MistakeSpellingError, MistakeCalculationError:
		return "medium"
	default:
		return "low"
	}
}

// ParseMistakeType converts a raw string into a MistakeType. The empty
// string parses to MistakeNone.
func ParseMistakeType(s string) (MistakeType, error) {
	switch m := MistakeType(s); m {
	case MistakeNone, MistakeLetterReversal, MistakeNumberReversal, MistakeSubstitution,
		MistakeSpellingError, MistakeCalculationError, MistakeSequenceError, MistakeOmission:
		return m, nil
	}
	return "", fmt.Errorf("unknown mistake type %q", s)
}

// DisplayName returns the name shown on dashboards.
func (m MistakeType) DisplayName() string {
	switch m {
	case MistakeLetterReversal:
		return "Letter Reversal (b/d, p/q)"
	case MistakeNumberReversal:
		return "Number Reversal"
	case MistakeSpellingError:
		return "Spelling Errors"
	case MistakeCalculationError:
		return "Calculation Errors"
	case MistakeSequenceError:
		return "Sequence Errors"
	case MistakeOmission:
		return "Omissions"
	case MistakeSubstitution:
		return "Substitutions"
	case MistakeNone:
		return "None"
	}
	return string(m)
}

// ResponseEvent is a single recorded answer. It is a value type and is
// never mutated once recorded.
type ResponseEvent struct {
	QuestionID     string
	Domain         Domain
	Difficulty     Difficulty
	Correct        bool
	ResponseTimeMs int
	Confidence     Confidence
	MistakeType    MistakeType
	AnsweredAt     time.Time
}

// SessionState is the append-only answer history of one assessment attempt.
type SessionState struct {
	events    []ResponseEvent
	completed bool
}

// NewSessionState returns a state seeded with events, copied.
func NewSessionState(events ...ResponseEvent) *SessionState {
	s := &SessionState{}
	s.events = append(s.events, events...)
	return s
}

// Append records an event. Appending to a completed session is an error.
func (s *SessionState) Append(e ResponseEvent) error {
	if s.completed {
		return fmt.Errorf("session is completed")
	}
	if e.ResponseTimeMs < 0 {
		return fmt.Errorf("negative response time %d", e.ResponseTimeMs)
	}
	s.events = append(s.events, e)
	return nil
}

// Complete marks the session read-only.
func (s *SessionState) Complete() { s.completed = true }

// Completed reports whether the session has ended.
func (s *SessionState) Completed() bool { return s.completed }

// Len returns the number of recorded events.
func (s *SessionState) Len() int { return len(s.events) }

// Snapshot returns a copy of the events in answer order.
func (s *SessionState) Snapshot() []ResponseEvent {
	out := make([]ResponseEvent, len(s.events))
	copy(out, s.events)
	return out
}

// Last returns a copy of the most recent event, or nil for an empty session.
func (s *SessionState) Last() *ResponseEvent {
	if len(s.events) == 0 {
		return nil
	}
	e := s.events[len(s.events)-1]
	return &e
}
