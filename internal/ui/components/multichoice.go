package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/screenwise/internal/ui/theme"
)

// MultiChoice renders a numbered multiple-choice question for line-based
// input.
type MultiChoice struct {
	Header   string
	Question string
	Options  []string
}

// View renders the question and its numbered options.
func (m MultiChoice) View() string {
	var b strings.Builder
	if m.Header != "" {
		b.WriteString(theme.Hint.Render(m.Header) + "\n")
	}
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(m.Question) + "\n\n")
	for i, opt := range m.Options {
		b.WriteString(theme.Body.Render(fmt.Sprintf("  %d)  %s", i+1, opt)) + "\n")
	}
	return b.String()
}

// Feedback renders the verdict for a submitted answer.
func Feedback(correct bool, correctOption string) string {
	if correct {
		return theme.Correct.Render("✓ Correct!")
	}
	return theme.Incorrect.Render("✗ Not quite.") + " " + theme.Body.Render("Answer: "+correctOption)
}
