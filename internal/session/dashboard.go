package session

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/abhisek/screenwise/internal/screening"
	"github.com/abhisek/screenwise/internal/store"
)

// Dashboard buckets. Writing is reported with reading and attention as
// focus.
const (
	BucketReading = "reading"
	BucketMath    = "math"
	BucketFocus   = "focus"
)

// Buckets lists the dashboard buckets in display order.
var Buckets = []string{BucketReading, BucketMath, BucketFocus}

// riskLevels maps a confidence level to the gauge shown on the dashboard.
var riskLevels = map[screening.ConfidenceLevel]int{
	screening.LevelLow:      30,
	screening.LevelModerate: 60,
	screening.LevelHigh:     85,
}

const (
	inProgressLabel   = "Assessment In Progress"
	noDataMistake     = "No data"
	noDataAdvice      = "Complete more questions in this domain for analysis."
	defaultSummary    = "Assessment completed. Review the domain analysis below for detailed insights."
	unknownConfidence = "N/A"
)

// DomainPattern summarizes one dashboard bucket.
type DomainPattern struct {
	Bucket    string
	Questions int
	// Accuracy is a percentage rounded to one decimal.
	Accuracy       float64
	AvgTimeMs      float64
	CommonMistake  string
	Recommendation string
}

// Dashboard is the report for one session.
type Dashboard struct {
	SessionID  string
	UserID     string
	AgeGroup   string
	AssessedAt time.Time
	Completed  bool

	// Label is empty while the session has no risk result.
	Label      screening.RiskLabel
	FinalRisk  string
	Confidence string
	RiskLevel  int
	Scores     screening.RiskScores
	Source     string
	Summary    string
	Insights   []string

	Patterns []DomainPattern
}

// Dashboard builds the report for a session.
func (s *Service) Dashboard(ctx context.Context, sessionID string) (*Dashboard, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	events, err := s.repos.Responses.Responses(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		SessionID:  sess.ID,
		UserID:     sess.UserID,
		AgeGroup:   sess.AgeGroup,
		AssessedAt: sess.StartedAt,
		Completed:  sess.Status == store.StatusCompleted,
		FinalRisk:  inProgressLabel,
		Confidence: unknownConfidence,
		Patterns:   DomainPatterns(events),
	}

	stored, err := s.repos.Risks.Get(ctx, sessionID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return d, nil
	case err != nil:
		return nil, err
	}

	r := stored.Result
	d.Label = r.Label
	d.FinalRisk = r.Label.DisplayName()
	d.Confidence = capitalize(string(r.Confidence))
	d.RiskLevel = RiskLevel(r.Confidence)
	d.Scores = r.Scores
	d.Source = stored.Source
	d.Insights = r.Insights
	d.Summary = defaultSummary
	if len(r.Insights) > 0 {
		d.Summary = strings.Join(r.Insights, " ")
	}
	return d, nil
}

// RiskLevel returns the dashboard gauge for a confidence level.
func RiskLevel(c screening.ConfidenceLevel) int {
	if v, ok := riskLevels[c]; ok {
		return v
	}
	return 50
}

func bucketOf(d screening.Domain) string {
	switch d {
	case screening.DomainReading, screening.DomainWriting:
		return BucketReading
	case screening.DomainMath:
		return BucketMath
	case screening.DomainAttention:
		return BucketFocus
	}
	return ""
}

// DomainPatterns computes the per-bucket patterns of a session.
func DomainPatterns(events []screening.ResponseEvent) []DomainPattern {
	grouped := make(map[string][]screening.ResponseEvent, len(Buckets))
	for _, e := range events {
		if b := bucketOf(e.Domain); b != "" {
			grouped[b] = append(grouped[b], e)
		}
	}

	out := make([]DomainPattern, 0, len(Buckets))
	for _, b := range Buckets {
		evs := grouped[b]
		if len(evs) == 0 {
			out = append(out, DomainPattern{
				Bucket:         b,
				CommonMistake:  noDataMistake,
				Recommendation: noDataAdvice,
			})
			continue
		}

		var correct, total int
		var mistakes []screening.MistakeType
		for _, e := range evs {
			total += e.ResponseTimeMs
			if e.Correct {
				correct++
			} else if e.MistakeType != screening.MistakeNone {
				mistakes = append(mistakes, e.MistakeType)
			}
		}
		accuracy := float64(correct) / float64(len(evs)) * 100
		avg := float64(total) / float64(len(evs))

		out = append(out, DomainPattern{
			Bucket:         b,
			Questions:      len(evs),
			Accuracy:       round1(accuracy),
			AvgTimeMs:      round1(avg),
			CommonMistake:  commonMistake(mistakes),
			Recommendation: recommendation(b, accuracy, avg),
		})
	}
	return out
}

// commonMistake returns the display name of the most frequent mistake.
// Ties go to the mistake seen first.
func commonMistake(mistakes []screening.MistakeType) string {
	if len(mistakes) == 0 {
		return screening.MistakeNone.DisplayName()
	}
	counts := make(map[screening.MistakeType]int)
	best := mistakes[0]
	for _, m := range mistakes {
		counts[m]++
		if counts[m] > counts[best] {
			best = m
		}
	}
	return best.DisplayName()
}

func recommendation(bucket string, accuracy, avgTimeMs float64) string {
	switch bucket {
	case BucketReading:
		switch {
		case accuracy < 60:
			return "Use highlighted letters, phonics-based games, and short reading chunks. Consider multisensory learning approaches."
		case accuracy < 75:
			return "Continue with phonics practice. Gradually increase reading complexity with guided support."
		default:
			return "Reading skills are developing well. Encourage independent reading with age-appropriate materials."
		}
	case BucketMath:
		switch {
		case accuracy < 60:
			return "Use visual aids, manipulatives, and step-by-step problem solving. Break down complex problems into smaller steps."
		case accuracy < 75:
			return "Practice with concrete examples and visual representations. Reinforce foundational concepts."
		default:
			return "Math skills are age-appropriate. Introduce more challenging problems to maintain engagement."
		}
	case BucketFocus:
		switch {
		case accuracy < 60 || avgTimeMs < 800:
			return "Short tasks with clear visual cues and structured breaks are helpful. Minimize distractions during work time."
		case accuracy < 75:
			return "Use timers and checklists to improve task completion. Provide positive reinforcement for sustained attention."
		default:
			return "Attention span is within normal range. Continue with current strategies and gradually increase task duration."
		}
	}
	return "Continue current learning approach and monitor progress."
}

// HistoryEntry is one completed session in a user's history.
type HistoryEntry struct {
	SessionID  string
	Date       time.Time
	Label      screening.RiskLabel
	Confidence screening.ConfidenceLevel
	Scores     screening.RiskScores
}

// History returns the user's completed sessions with their risk scores,
// oldest first.
func (s *Service) History(ctx context.Context, userID string) ([]HistoryEntry, error) {
	sessions, err := s.repos.Sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var out []HistoryEntry
	for _, sess := range sessions {
		if sess.Status != store.StatusCompleted {
			continue
		}
		stored, err := s.repos.Risks.Get(ctx, sess.ID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		date := sess.EndedAt
		if date.IsZero() {
			date = sess.StartedAt
		}
		out = append(out, HistoryEntry{
			SessionID:  sess.ID,
			Date:       date,
			Label:      stored.Result.Label,
			Confidence: stored.Result.Confidence,
			Scores:     stored.Result.Scores,
		})
	}
	return out, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
