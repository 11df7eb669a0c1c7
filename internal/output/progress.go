package output

import (
	"fmt"
	"strings"
)

// ScoreBar renders a visual progress bar for a 0-100 score.
// Example: "████████░░ 80/100"
func ScoreBar(score float64, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := int((score / 100.0) * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	var style func(string) string
	switch {
	case score >= 70:
		style = func(s string) string { return StyleSuccess.Render(s) }
	case score >= 40:
		style = func(s string) string { return StyleWarning.Render(s) }
	default:
		style = func(s string) string { return StyleError.Render(s) }
	}

	return fmt.Sprintf("%s %s", style(bar), StyleMuted.Render(fmt.Sprintf("%.0f/100", score)))
}

// TrendArrow returns a styled trend indicator for a health delta between
// scans. Positive delta shows an up arrow, negative shows down, zero shows
// a dash.
func TrendArrow(delta float64) string {
	if delta == 0 {
		return StyleMuted.Render("─")
	}
	if delta > 0 {
		return StyleSuccess.Render(fmt.Sprintf("▲ +%.1f", delta))
	}
	return StyleError.Render(fmt.Sprintf("▼ %.1f", delta))
}

// LangBar renders the language mix as a proportional segment bar, largest
// bucket first. totalLines of zero yields an empty string.
func LangBar(langs map[string]int, totalLines, width int) string {
	if totalLines <= 0 || len(langs) == 0 {
		return ""
	}
	if width <= 0 {
		width = 30
	}

	type seg struct {
		lang  string
		lines int
	}
	segs := make([]seg, 0, len(langs))
	for lang, lines := range langs {
		segs = append(segs, seg{lang, lines})
	}
	for i := 0; i < len(segs); i++ {
		for j := i + 1; j < len(segs); j++ {
			if segs[j].lines > segs[i].lines ||
				(segs[j].lines == segs[i].lines && segs[j].lang < segs[i].lang) {
				segs[i], segs[j] = segs[j], segs[i]
			}
		}
	}

	var sb strings.Builder
	for _, s := range segs {
		cells := s.lines * width / totalLines
		if cells == 0 {
			continue
		}
		sb.WriteString(strings.Repeat("▰", cells))
	}
	return sb.String()
}

// Section prints a styled section header with a horizontal rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", 66))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}
