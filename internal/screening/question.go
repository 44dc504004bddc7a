package screening

import "fmt"

// OptionCount is the number of answer options every question carries.
const OptionCount = 4

// QuestionSpec is a synthesized question ready to be shown.
type QuestionSpec struct {
	Domain        Domain
	Difficulty    Difficulty
	Text          string
	Options       []string
	CorrectOption string
}

// Validate checks that the option set has exactly OptionCount distinct
// entries and that CorrectOption appears exactly once among them.
func (q QuestionSpec) Validate() error {
	if len(q.Options) != OptionCount {
		return fmt.Errorf("want %d options, got %d", OptionCount, len(q.Options))
	}
	seen := make(map[string]bool, len(q.Options))
	hits := 0
	for _, o := range q.Options {
		if seen[o] {
			return fmt.Errorf("duplicate option %q", o)
		}
		seen[o] = true
		if o == q.CorrectOption {
			hits++
		}
	}
	if hits != 1 {
		return fmt.Errorf("correct option %q present %d times", q.CorrectOption, hits)
	}
	return nil
}

// CorrectIndex returns the position of CorrectOption, or -1.
func (q QuestionSpec) CorrectIndex() int {
	for i, o := range q.Options {
		if o == q.CorrectOption {
			return i
		}
	}
	return -1
}
