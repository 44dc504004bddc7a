// Package session orchestrates a screening session: serving adaptive
// questions, recording answers, ending the session with a risk inference
// and reporting the result.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/screenwise/internal/fallback"
	"github.com/abhisek/screenwise/internal/logging"
	"github.com/abhisek/screenwise/internal/progression"
	"github.com/abhisek/screenwise/internal/questiongen"
	"github.com/abhisek/screenwise/internal/risk"
	"github.com/abhisek/screenwise/internal/screening"
	"github.com/abhisek/screenwise/internal/store"
)

// DefaultCap is the number of answers after which a session is done.
const DefaultCap = 15

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionCompleted = errors.New("session is completed")
	ErrUnknownQuestion  = errors.New("question does not belong to this session")
	ErrAlreadyAnswered  = errors.New("question already answered")
	ErrInvalidAnswer    = errors.New("invalid answer")
)

// Repos groups the persistence the service needs.
type Repos struct {
	Sessions  store.SessionRepo
	Questions store.QuestionRepo
	Responses store.ResponseRepo
	Risks     store.RiskResultRepo
}

// ReposFrom returns the repos backed by s.
func ReposFrom(s *store.Store) Repos {
	return Repos{
		Sessions:  s.Sessions(),
		Questions: s.Questions(),
		Responses: s.Responses(),
		Risks:     s.RiskResults(),
	}
}

// Options configures a Service. Zero fields get defaults: rule-only
// selection with lenient thresholds, the template synthesizer, a rule-only
// risk engine and DefaultCap.
type Options struct {
	Selector    *progression.Selector
	Synthesizer *questiongen.Synthesizer
	// Generator, when set, is tried before the synthesizer.
	Generator questiongen.Generator
	Engine    *risk.Engine
	Resolver  fallback.Resolver
	Cap       int
	Logger    *zap.Logger

	// Now and NewID are overridable for tests.
	Now   func() time.Time
	NewID func() string
}

// Service runs screening sessions on top of the store.
type Service struct {
	repos     Repos
	selector  *progression.Selector
	synth     *questiongen.Synthesizer
	generator questiongen.Generator
	engine    *risk.Engine
	resolver  fallback.Resolver
	cap       int
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// NewService creates a Service.
func NewService(repos Repos, opts Options) *Service {
	s := &Service{
		repos:     repos,
		selector:  opts.Selector,
		synth:     opts.Synthesizer,
		generator: opts.Generator,
		engine:    opts.Engine,
		resolver:  opts.Resolver,
		cap:       opts.Cap,
		logger:    logging.OrNop(opts.Logger),
		now:       opts.Now,
		newID:     opts.NewID,
	}
	if s.selector == nil {
		s.selector = progression.NewSelector(progression.Lenient, nil, opts.Resolver)
	}
	if s.synth == nil {
		s.synth = questiongen.NewSynthesizer(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
			questiongen.WithLogger(s.logger))
	}
	if s.engine == nil {
		s.engine = risk.NewEngine(risk.DefaultCalibration(), nil, opts.Resolver)
	}
	if s.cap <= 0 {
		s.cap = DefaultCap
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// Cap returns the number of answers after which a session is done.
func (s *Service) Cap() int { return s.cap }

// Start creates a new session. An empty userID creates a new user.
func (s *Service) Start(ctx context.Context, userID, ageGroup string) (*store.Session, error) {
	if userID == "" {
		userID = s.newID()
	}
	sess := &store.Session{
		ID:        s.newID(),
		UserID:    userID,
		AgeGroup:  ageGroup,
		Status:    store.StatusActive,
		StartedAt: s.now(),
	}
	if err := s.repos.Sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	s.logger.Info("session started",
		zap.String("session_id", sess.ID),
		zap.String("user_id", userID),
	)
	return sess, nil
}

// Turn is the next step of a session.
type Turn struct {
	// Done is set once the session reached its cap; no question is served.
	Done bool

	QuestionID string
	Number     int
	Question   screening.QuestionSpec

	// Where the cell and the question came from.
	Selection  fallback.Source
	Generation fallback.Source
}

// QuestionID formats the id of the n-th question of a session.
func QuestionID(sessionID string, n int) string {
	return fmt.Sprintf("Q_%s_%d", sessionID, n)
}

// NextQuestion serves the next question. Calling it again before the
// served question is answered returns the same question.
func (s *Service) NextQuestion(ctx context.Context, sessionID string) (*Turn, error) {
	if _, err := s.activeSession(ctx, sessionID); err != nil {
		return nil, err
	}

	events, err := s.repos.Responses.Responses(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(events) >= s.cap {
		return &Turn{Done: true}, nil
	}

	served, err := s.repos.Questions.Count(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if served > len(events) {
		q, err := s.repos.Questions.Get(ctx, QuestionID(sessionID, served))
		if err != nil {
			return nil, fmt.Errorf("load pending question: %w", err)
		}
		return &Turn{QuestionID: q.ID, Number: q.Position, Question: q.Spec, Generation: fallback.Source(q.Source)}, nil
	}

	last, err := s.repos.Responses.LastResponse(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	decision := s.selector.Next(ctx, events, last)

	input := questiongen.GenerateInput{
		Domain:         decision.Value.Domain,
		Difficulty:     decision.Value.Difficulty,
		PriorQuestions: s.priorQuestions(ctx, events),
	}
	generated := s.generate(ctx, input)

	n := len(events) + 1
	q := &store.Question{
		ID:        QuestionID(sessionID, n),
		SessionID: sessionID,
		Position:  n,
		Spec:      generated.Value,
		Source:    string(generated.Source),
		CreatedAt: s.now(),
	}
	if err := s.repos.Questions.Save(ctx, q); err != nil {
		return nil, err
	}

	s.logger.Debug("question served",
		zap.String("question_id", q.ID),
		zap.String("domain", string(q.Spec.Domain)),
		zap.String("difficulty", string(q.Spec.Difficulty)),
		zap.String("selection", string(decision.Source)),
		zap.String("generation", string(generated.Source)),
	)
	return &Turn{
		QuestionID: q.ID,
		Number:     n,
		Question:   q.Spec,
		Selection:  decision.Source,
		Generation: generated.Source,
	}, nil
}

func (s *Service) generate(ctx context.Context, input questiongen.GenerateInput) fallback.Outcome[screening.QuestionSpec] {
	var learned fallback.Learned[screening.QuestionSpec]
	if s.generator != nil {
		learned = func(ctx context.Context) (screening.QuestionSpec, error) {
			q, err := s.generator.Generate(ctx, input)
			if err != nil {
				return screening.QuestionSpec{}, err
			}
			if q == nil {
				return screening.QuestionSpec{}, fmt.Errorf("%w: nil question", fallback.ErrMalformedOutput)
			}
			if err := q.Validate(); err != nil {
				return screening.QuestionSpec{}, fmt.Errorf("%w: %v", fallback.ErrMalformedOutput, err)
			}
			return *q, nil
		}
	}
	return fallback.Resolve(ctx, s.resolver, fallback.SiteQuestion, learned, func() screening.QuestionSpec {
		return s.synth.Synthesize(input)
	})
}

func (s *Service) priorQuestions(ctx context.Context, events []screening.ResponseEvent) []string {
	var prior []string
	for _, e := range events {
		q, err := s.repos.Questions.Get(ctx, e.QuestionID)
		if err != nil {
			continue
		}
		prior = append(prior, q.Spec.Text)
	}
	return prior
}

// Answer is a learner's response to a served question.
type Answer struct {
	SessionID  string
	QuestionID string

	// Option is the 1-based position of the chosen option. When zero,
	// Choice is matched against the option texts.
	Option int
	Choice string

	ResponseTimeMs int
	Confidence     screening.Confidence
	// MistakeType is the caller's tag for a wrong answer. It is dropped
	// when the answer is correct.
	MistakeType screening.MistakeType
}

// Feedback is the result of a submitted answer.
type Feedback struct {
	Correct       bool
	CorrectOption string
	Answered      int
	// Done is set once the session reached its cap.
	Done bool
}

// SubmitAnswer checks and records an answer.
func (s *Service) SubmitAnswer(ctx context.Context, a Answer) (*Feedback, error) {
	if _, err := s.activeSession(ctx, a.SessionID); err != nil {
		return nil, err
	}

	q, err := s.repos.Questions.Get(ctx, a.QuestionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, a.QuestionID)
	}
	if err != nil {
		return nil, err
	}
	if q.SessionID != a.SessionID {
		return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, a.QuestionID)
	}

	chosen, err := chooseOption(q.Spec, a)
	if err != nil {
		return nil, err
	}
	if _, err := screening.ParseMistakeType(string(a.MistakeType)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnswer, err)
	}
	if _, err := screening.ParseConfidence(string(a.Confidence)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnswer, err)
	}

	events, err := s.repos.Responses.Responses(ctx, a.SessionID)
	if err != nil {
		return nil, err
	}
	for _, e := range events {
		if e.QuestionID == a.QuestionID {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyAnswered, a.QuestionID)
		}
	}

	correct := chosen == q.Spec.CorrectOption
	e := screening.ResponseEvent{
		QuestionID:     q.ID,
		Domain:         q.Spec.Domain,
		Difficulty:     q.Spec.Difficulty,
		Correct:        correct,
		ResponseTimeMs: a.ResponseTimeMs,
		Confidence:     a.Confidence,
		AnsweredAt:     s.now(),
	}
	if !correct {
		e.MistakeType = a.MistakeType
	}

	state := screening.NewSessionState(events...)
	if err := state.Append(e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnswer, err)
	}
	if err := s.repos.Responses.Append(ctx, a.SessionID, e); err != nil {
		return nil, err
	}

	return &Feedback{
		Correct:       correct,
		CorrectOption: q.Spec.CorrectOption,
		Answered:      state.Len(),
		Done:          state.Len() >= s.cap,
	}, nil
}

func chooseOption(q screening.QuestionSpec, a Answer) (string, error) {
	if a.Option != 0 {
		if a.Option < 1 || a.Option > len(q.Options) {
			return "", fmt.Errorf("%w: option %d out of range", ErrInvalidAnswer, a.Option)
		}
		return q.Options[a.Option-1], nil
	}
	choice := strings.TrimSpace(a.Choice)
	for _, o := range q.Options {
		if o == choice {
			return o, nil
		}
	}
	return "", fmt.Errorf("%w: %q is not an option", ErrInvalidAnswer, a.Choice)
}

// End infers the risk result from the full answer history and completes
// the session. Ending a completed session returns the stored result.
func (s *Service) End(ctx context.Context, sessionID string) (*store.StoredRisk, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	stored, err := s.repos.Risks.Get(ctx, sessionID)
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	events, err := s.repos.Responses.Responses(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := s.engine.InferWithSource(ctx, events)

	stored = &store.StoredRisk{
		SessionID: sessionID,
		Result:    out.Value,
		Source:    string(out.Source),
		CreatedAt: s.now(),
	}
	if err := s.repos.Risks.Save(ctx, stored); err != nil {
		return nil, err
	}
	if sess.Status != store.StatusCompleted {
		if err := s.repos.Sessions.Complete(ctx, sessionID, s.now()); err != nil {
			return nil, err
		}
	}

	s.logger.Info("session completed",
		zap.String("session_id", sessionID),
		zap.Int("answers", len(events)),
		zap.String("label", string(out.Value.Label)),
		zap.String("confidence", string(out.Value.Confidence)),
		zap.String("source", string(out.Source)),
	)
	return stored, nil
}

func (s *Service) session(ctx context.Context, id string) (*store.Session, error) {
	sess, err := s.repos.Sessions.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, err
}

func (s *Service) activeSession(ctx context.Context, id string) (*store.Session, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Status == store.StatusCompleted {
		return nil, fmt.Errorf("%w: %s", ErrSessionCompleted, id)
	}
	return sess, nil
}

// ParseOption parses a 1-based option number typed by a learner.
func ParseOption(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > screening.OptionCount {
		return 0, false
	}
	return n, true
}
