// Package questiongen synthesizes concrete multiple-choice questions for a
// (domain, difficulty) cell.
package questiongen

import (
	"context"
	"math/rand/v2"

	"github.com/abhisek/screenwise/internal/screening"
)

// GenerateInput holds the context needed to produce a question.
type GenerateInput struct {
	Domain     screening.Domain
	Difficulty screening.Difficulty

	// PriorQuestions holds the text of questions already asked in this
	// session. Generators try not to repeat them.
	PriorQuestions []string
}

// Generator produces a question for a cell. Implementations may fail;
// callers fall back to the Synthesizer, which never does.
type Generator interface {
	Generate(ctx context.Context, input GenerateInput) (*screening.QuestionSpec, error)
}

// BuildFunc renders a dynamic template. It returns the question text, the
// options and the index of the correct option.
type BuildFunc func(rng *rand.Rand) (text string, options []string, correct int)

// Template is one entry of a question bank. Static templates set Text,
// Options and Correct; dynamic templates set Build.
type Template struct {
	Text    string
	Options []string
	Correct int
	Build   BuildFunc
}

// Render produces the question text, options and correct index.
func (t Template) Render(rng *rand.Rand) (string, []string, int) {
	if t.Build != nil {
		return t.Build(rng)
	}
	options := make([]string, len(t.Options))
	copy(options, t.Options)
	return t.Text, options, t.Correct
}

// Bank maps each cell to its templates.
type Bank map[screening.Domain]map[screening.Difficulty][]Template

// Templates returns the templates for a cell, or nil if the cell is empty.
func (b Bank) Templates(d screening.Domain, diff screening.Difficulty) []Template {
	return b[d][diff]
}
