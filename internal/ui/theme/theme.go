package theme

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

// Color palette.
var (
	Primary   = lipgloss.Color("#6366F1") // Indigo
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Success   = lipgloss.Color("#22C55E") // Green
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Heading = lipgloss.NewStyle().
		Bold(true).
		Foreground(Secondary)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Label = lipgloss.NewStyle().
		Foreground(TextDim).
		Width(16)
)

// Layout
var Card = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Border).
	Padding(0, 1)

// States
var (
	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)
)

// RiskColor maps a 0-100 risk gauge to a traffic-light color.
func RiskColor(level int) color.Color {
	switch {
	case level >= 85:
		return Error
	case level >= 60:
		return Warning
	case level > 0:
		return Success
	}
	return TextDim
}

// AccuracyColor maps an accuracy percentage to a color, using the same
// 60/75 cut points as the recommendations.
func AccuracyColor(pct float64) color.Color {
	switch {
	case pct < 60:
		return Error
	case pct < 75:
		return Warning
	}
	return Success
}
