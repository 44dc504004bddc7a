package questiongen

import (
	"context"
	"math/rand/v2"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/abhisek/screenwise/internal/logging"
	"github.com/abhisek/screenwise/internal/screening"
)

// The default cell is used when a requested cell has no templates or a
// rendered question fails validation.
var (
	DefaultDomain     = screening.DomainReading
	DefaultDifficulty = screening.DifficultyEasy
)

// dedupAttempts is how many renders are tried to avoid a prior question.
const dedupAttempts = 3

// Synthesizer renders questions from a template bank. It never fails.
// Safe for concurrent use.
type Synthesizer struct {
	bank       Bank
	validators []Validator
	logger     *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithBank replaces the built-in template bank.
func WithBank(b Bank) Option { return func(s *Synthesizer) { s.bank = b } }

// WithValidators replaces the default validator chain.
func WithValidators(v ...Validator) Option { return func(s *Synthesizer) { s.validators = v } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(s *Synthesizer) { s.logger = l } }

// NewSynthesizer creates a synthesizer drawing randomness from rng.
func NewSynthesizer(rng *rand.Rand, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		bank:       DefaultBank(),
		validators: DefaultValidators(),
		rng:        rng,
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = logging.OrNop(s.logger)
	return s
}

// Generate returns a question for the cell.
func (s *Synthesizer) Generate(domain screening.Domain, difficulty screening.Difficulty) screening.QuestionSpec {
	return s.Synthesize(GenerateInput{Domain: domain, Difficulty: difficulty})
}

// Synthesize returns a question for input, avoiding input.PriorQuestions
// when the cell has alternatives.
func (s *Synthesizer) Synthesize(input GenerateInput) screening.QuestionSpec {
	s.mu.Lock()
	defer s.mu.Unlock()

	domain, difficulty := input.Domain, input.Difficulty
	templates := s.bank.Templates(domain, difficulty)
	if len(templates) == 0 {
		s.logger.Debug("empty template cell, using default",
			zap.String("domain", string(domain)),
			zap.String("difficulty", string(difficulty)),
		)
		domain, difficulty = DefaultDomain, DefaultDifficulty
		templates = s.bank.Templates(domain, difficulty)
		if len(templates) == 0 {
			return s.fallbackQuestion()
		}
	}

	var q screening.QuestionSpec
	for range dedupAttempts {
		q = s.render(templates, domain, difficulty)
		if !slices.Contains(input.PriorQuestions, q.Text) {
			break
		}
	}

	if verr := RunValidators(s.validators, &q, input); verr != nil {
		s.logger.Warn("generated question failed validation, using default cell",
			zap.String("validator", verr.Validator),
			zap.String("message", verr.Message),
			zap.String("domain", string(domain)),
			zap.String("difficulty", string(difficulty)),
		)
		return s.fallbackQuestion()
	}
	return q
}

// AsGenerator adapts the synthesizer to the Generator interface. The
// adapter never returns an error.
func (s *Synthesizer) AsGenerator() Generator { return synthGenerator{s} }

type synthGenerator struct{ s *Synthesizer }

func (g synthGenerator) Generate(_ context.Context, input GenerateInput) (*screening.QuestionSpec, error) {
	q := g.s.Synthesize(input)
	return &q, nil
}

func (s *Synthesizer) render(templates []Template, domain screening.Domain, difficulty screening.Difficulty) screening.QuestionSpec {
	t := templates[s.rng.IntN(len(templates))]
	text, options, correct := t.Render(s.rng)
	q := screening.QuestionSpec{
		Domain:     domain,
		Difficulty: difficulty,
		Text:       text,
		Options:    options,
	}
	if correct >= 0 && correct < len(options) {
		q.CorrectOption = options[correct]
	}
	return q
}

// fallbackQuestion renders from the default cell, trying each template in
// turn until one validates. The last resort is a fixed question.
func (s *Synthesizer) fallbackQuestion() screening.QuestionSpec {
	for _, t := range s.bank.Templates(DefaultDomain, DefaultDifficulty) {
		q := s.render([]Template{t}, DefaultDomain, DefaultDifficulty)
		if RunValidators(s.validators, &q, GenerateInput{Domain: DefaultDomain, Difficulty: DefaultDifficulty}) == nil {
			return q
		}
	}
	return screening.QuestionSpec{
		Domain:        DefaultDomain,
		Difficulty:    DefaultDifficulty,
		Text:          `What letter does "apple" start with?`,
		Options:       []string{"B", "A", "C", "D"},
		CorrectOption: "A",
	}
}
