package components

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/screenwise/internal/ui/theme"
)

// Bar displays a horizontal bar for a value in [0,1], such as a risk
// score or an accuracy.
type Bar struct {
	Label   string
	Value   float64
	Width   int
	Color   color.Color
	Percent bool
}

// NewBar creates a bar filled with the theme's secondary color.
func NewBar(label string, value float64, width int) Bar {
	return Bar{Label: label, Value: value, Width: width, Color: theme.Secondary, Percent: true}
}

// View renders the bar.
func (b Bar) View() string {
	var result string
	if b.Label != "" {
		result = theme.Label.Render(b.Label)
	}

	percentWidth := 0
	if b.Percent {
		percentWidth = 6 // "  100%"
	}
	barWidth := max(b.Width-lipgloss.Width(result)-percentWidth, 4)

	filled := min(max(int(float64(barWidth)*b.Value+0.5), 0), barWidth)
	fill := b.Color
	if fill == nil {
		fill = theme.Secondary
	}

	result += lipgloss.NewStyle().Background(fill).Render(strings.Repeat(" ", filled))
	result += lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", barWidth-filled))

	if b.Percent {
		result += theme.Hint.Italic(false).Render(fmt.Sprintf("  %d%%", int(b.Value*100+0.5)))
	}
	return result
}
