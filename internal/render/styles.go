package render

import "github.com/charmbracelet/lipgloss"

// ANSI palette so the table reads correctly on any terminal theme.
const (
	ColorHealthy  lipgloss.Color = "2" // Green
	ColorWarning  lipgloss.Color = "3" // Yellow
	ColorCritical lipgloss.Color = "1" // Red
	ColorAccent   lipgloss.Color = "6" // Cyan
	ColorPrimary  lipgloss.Color = "7" // White/default
	ColorMuted    lipgloss.Color = "8" // Gray (bright black)
)

// Usage thresholds for CPU coloring.
const (
	WarningThreshold  = 70.0
	CriticalThreshold = 90.0
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(ColorMuted)

	HostStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)
)

// UsageColor picks green, yellow or red for a percentage.
func UsageColor(percent float64) lipgloss.Color {
	switch {
	case percent >= CriticalThreshold:
		return ColorCritical
	case percent >= WarningThreshold:
		return ColorWarning
	default:
		return ColorHealthy
	}
}

// UsageStyle returns a style colored by UsageColor.
func UsageStyle(percent float64) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(UsageColor(percent))
}
