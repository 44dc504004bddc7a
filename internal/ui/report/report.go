// Package report renders session dashboards and history for the terminal.
package report

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/screenwise/internal/screening"
	"github.com/abhisek/screenwise/internal/session"
	"github.com/abhisek/screenwise/internal/ui/components"
	"github.com/abhisek/screenwise/internal/ui/theme"
)

// DefaultWidth is used when the caller has no terminal width.
const DefaultWidth = 72

var bucketTitles = map[string]string{
	session.BucketReading: "Reading & Writing",
	session.BucketMath:    "Math",
	session.BucketFocus:   "Focus",
}

// Dashboard renders the full report for one session.
func Dashboard(d *session.Dashboard, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	inner := width - 4

	var sections []string
	sections = append(sections, theme.Title.Render("Screening Report"))
	sections = append(sections, field("Session", d.SessionID)+"\n"+
		field("Learner", d.UserID)+"\n"+
		field("Assessed", d.AssessedAt.Local().Format("2006-01-02 15:04")))
	if d.AgeGroup != "" {
		sections[len(sections)-1] += "\n" + field("Age group", d.AgeGroup)
	}

	sections = append(sections, summaryCard(d, inner))

	if d.Label != "" {
		var bars []string
		for _, l := range screening.ElevatedLabels {
			bar := components.NewBar(scoreTitle(l), d.Scores[l], inner)
			bar.Color = theme.RiskColor(int(d.Scores[l] * 100))
			bars = append(bars, bar.View())
		}
		sections = append(sections, theme.Heading.Render("Risk Scores")+"\n"+strings.Join(bars, "\n"))
	}

	var patterns []string
	for _, p := range d.Patterns {
		patterns = append(patterns, pattern(p, inner))
	}
	sections = append(sections, theme.Heading.Render("Domain Analysis")+"\n"+strings.Join(patterns, "\n"))

	return strings.Join(sections, "\n\n") + "\n"
}

func summaryCard(d *session.Dashboard, width int) string {
	riskStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.RiskColor(d.RiskLevel))

	lines := []string{
		riskStyle.Render(d.FinalRisk),
		field("Confidence", d.Confidence),
	}
	if d.RiskLevel > 0 {
		lines = append(lines, field("Risk level", fmt.Sprintf("%d/100", d.RiskLevel)))
	}
	if d.Source != "" {
		lines = append(lines, field("Classified by", d.Source))
	}
	if d.Summary != "" {
		lines = append(lines, "", theme.Body.Width(width-4).Render(d.Summary))
	}
	return theme.Card.Width(width).Render(strings.Join(lines, "\n"))
}

func pattern(p session.DomainPattern, width int) string {
	title := theme.Body.Bold(true).Render(bucketTitles[p.Bucket])
	if p.Questions == 0 {
		return title + "\n" + field("Common mistake", p.CommonMistake) + "\n" + theme.Hint.Render(p.Recommendation) + "\n"
	}

	bar := components.NewBar("Accuracy", p.Accuracy/100, width)
	bar.Color = theme.AccuracyColor(p.Accuracy)

	return strings.Join([]string{
		title,
		field("Questions", fmt.Sprintf("%d", p.Questions)),
		bar.View(),
		field("Avg time", fmt.Sprintf("%.0f ms", p.AvgTimeMs)),
		field("Common mistake", p.CommonMistake),
		theme.Hint.Width(width).Render(p.Recommendation),
	}, "\n") + "\n"
}

// History renders a user's completed sessions as a table.
func History(userID string, entries []session.HistoryEntry) string {
	if len(entries) == 0 {
		return theme.Hint.Render(fmt.Sprintf("No completed sessions for %s.", userID)) + "\n"
	}

	var b strings.Builder
	b.WriteString(theme.Title.Render("History for "+userID) + "\n\n")
	header := fmt.Sprintf("%-16s  %-36s  %-18s  %-10s  %5s  %5s  %5s",
		"Date", "Session", "Label", "Confidence", "Dysl", "Dysc", "Attn")
	b.WriteString(theme.Heading.Render(header) + "\n")
	b.WriteString(strings.Repeat("─", lipgloss.Width(header)) + "\n")
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("%-16s  %-36s  %-18s  %-10s  %5.2f  %5.2f  %5.2f\n",
			e.Date.Local().Format("2006-01-02 15:04"),
			e.SessionID,
			e.Label,
			e.Confidence,
			e.Scores[screening.RiskDyslexia],
			e.Scores[screening.RiskDyscalculia],
			e.Scores[screening.RiskAttention],
		))
	}
	return b.String()
}

func field(label, value string) string {
	return theme.Label.Render(label) + theme.Body.Render(value)
}

func scoreTitle(l screening.RiskLabel) string {
	switch l {
	case screening.RiskDyslexia:
		return "Dyslexia"
	case screening.RiskDyscalculia:
		return "Dyscalculia"
	case screening.RiskAttention:
		return "Attention"
	}
	return string(l)
}
