package cmd

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/excellere/excellere/internal/mastery"
)

var (
	colorPrimary = lipgloss.Color("#8B5CF6")
	colorSuccess = lipgloss.Color("#22C55E")
	colorWarn    = lipgloss.Color("#F97316")
	colorError   = lipgloss.Color("#F43F5E")
	colorDim     = lipgloss.Color("#94A3B8")

	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	dimStyle     = lipgloss.NewStyle().Foreground(colorDim)
	okStyle      = lipgloss.NewStyle().Foreground(colorSuccess)
	failStyle    = lipgloss.NewStyle().Foreground(colorError)
	labelStyle   = lipgloss.NewStyle().Foreground(colorDim).Width(11)
)

func rule(width int) string {
	return dimStyle.Render(strings.Repeat("─", width))
}

func statusStyle(s mastery.Status) lipgloss.Style {
	switch s {
	case mastery.StatusMastered:
		return okStyle
	case mastery.StatusGap:
		return lipgloss.NewStyle().Foreground(colorWarn)
	case mastery.StatusTaught:
		return lipgloss.NewStyle().Foreground(colorPrimary)
	default:
		return dimStyle
	}
}

// strengthBar renders 0..100 as a ten cell bar.
func strengthBar(v int) string {
	filled := v / 10
	if filled < 0 {
		filled = 0
	}
	if filled > 10 {
		filled = 10
	}
	return okStyle.Render(strings.Repeat("█", filled)) + dimStyle.Render(strings.Repeat("░", 10-filled))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
