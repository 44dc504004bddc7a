package questiongen

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/abhisek/screenwise/internal/screening"
)

// Validator checks a generated question.
// Implementations should be stateless and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier used in errors and logs.
	Name() string

	// Validate returns nil if the question passes.
	Validate(q *screening.QuestionSpec, input GenerateInput) *ValidationError
}

// ValidationError describes why a question failed validation.
type ValidationError struct {
	Validator string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// DefaultValidators is the chain run on every question, in order.
func DefaultValidators() []Validator {
	return []Validator{
		&StructuralValidator{},
		&OptionsValidator{},
		&ArithmeticValidator{},
		&CountValidator{},
	}
}

// RunValidators runs the chain and returns the first failure.
func RunValidators(validators []Validator, q *screening.QuestionSpec, input GenerateInput) *ValidationError {
	for _, v := range validators {
		if verr := v.Validate(q, input); verr != nil {
			return verr
		}
	}
	return nil
}

// maxTextLen bounds question text length in characters.
const maxTextLen = 500

// StructuralValidator checks required fields and enum values.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(q *screening.QuestionSpec, input GenerateInput) *ValidationError {
	if strings.TrimSpace(q.Text) == "" {
		return &ValidationError{Validator: v.Name(), Message: "question_text is empty"}
	}
	if utf8.RuneCountInString(q.Text) > maxTextLen {
		return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("question_text exceeds %d characters", maxTextLen)}
	}
	if q.Domain.Index() < 0 {
		return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("unknown domain %q", q.Domain)}
	}
	if q.Difficulty.Index() < 0 {
		return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("unknown difficulty %q", q.Difficulty)}
	}
	for i, o := range q.Options {
		if strings.TrimSpace(o) == "" {
			return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("option %d is empty", i+1)}
		}
	}
	return nil
}

// OptionsValidator enforces four distinct options with the correct option
// present exactly once.
type OptionsValidator struct{}

func (v *OptionsValidator) Name() string { return "options" }

func (v *OptionsValidator) Validate(q *screening.QuestionSpec, _ GenerateInput) *ValidationError {
	if err := q.Validate(); err != nil {
		return &ValidationError{Validator: v.Name(), Message: err.Error()}
	}
	return nil
}

// Patterns for questions whose answer can be recomputed from the text.
var (
	binaryOpRe = regexp.MustCompile(`What is (\d+) ([+\-×÷*/]) (\d+)\?`)
	twoStepRe  = regexp.MustCompile(`Solve: (\d+) [×*] (\d+) \+ (\d+)`)
	percentRe  = regexp.MustCompile(`What is (\d+)% of (\d+)\?`)
)

// ArithmeticValidator recomputes the answer of arithmetic questions and
// checks it against the correct option. Questions it cannot parse pass
// through silently.
type ArithmeticValidator struct{}

func (v *ArithmeticValidator) Name() string { return "arithmetic" }

func (v *ArithmeticValidator) Validate(q *screening.QuestionSpec, _ GenerateInput) *ValidationError {
	want, ok := computeAnswer(q.Text)
	if !ok {
		return nil
	}
	if strings.TrimSpace(q.CorrectOption) != strconv.Itoa(want) {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("computed %d but correct option is %q", want, q.CorrectOption),
		}
	}
	return nil
}

// computeAnswer returns the integer answer for a recognised arithmetic
// question. Inexact divisions and percentages are not recognised.
func computeAnswer(text string) (int, bool) {
	if m := twoStepRe.FindStringSubmatch(text); m != nil {
		return atoi(m[1])*atoi(m[2]) + atoi(m[3]), true
	}
	if m := percentRe.FindStringSubmatch(text); m != nil {
		p, n := atoi(m[1]), atoi(m[2])
		if (p*n)%100 != 0 {
			return 0, false
		}
		return p * n / 100, true
	}
	m := binaryOpRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	a, b := atoi(m[1]), atoi(m[3])
	switch m[2] {
	case "+":
		return a + b, true
	case "-":
		return a - b, true
	case "×", "*":
		return a * b, true
	case "÷", "/":
		if b == 0 || a%b != 0 {
			return 0, false
		}
		return a / b, true
	}
	return 0, false
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// CountValidator checks star-counting questions against the symbols
// actually present in the text.
type CountValidator struct{}

func (v *CountValidator) Name() string { return "count" }

func (v *CountValidator) Validate(q *screening.QuestionSpec, _ GenerateInput) *ValidationError {
	if !strings.HasPrefix(q.Text, "Count") {
		return nil
	}
	_, symbols, found := strings.Cut(q.Text, ":")
	if !found {
		return nil
	}
	want := strings.Count(symbols, starSymbol)
	if strings.TrimSpace(q.CorrectOption) != strconv.Itoa(want) {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("counted %d symbols but correct option is %q", want, q.CorrectOption),
		}
	}
	return nil
}
