package tui

import "github.com/charmbracelet/lipgloss"

// Sprint palette (ANSI 256).
const (
	colorAccent  = lipgloss.Color("39")
	colorLabel   = lipgloss.Color("110")
	colorText    = lipgloss.Color("255")
	colorMuted   = lipgloss.Color("244")
	colorBorder  = lipgloss.Color("237")
	colorUser    = lipgloss.Color("213")
	colorAI      = lipgloss.Color("78")
	colorNotice  = lipgloss.Color("221")
	colorOK      = lipgloss.Color("41")
	colorFailure = lipgloss.Color("203")
)

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("16")).Background(colorAccent).Bold(true).Padding(0, 1)
	titleStyle   = fg(colorAccent).Bold(true)
	sectionStyle = titleStyle.MarginTop(1)
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorBorder).Padding(0, 1)

	labelStyle = fg(colorLabel)
	valueStyle = fg(colorText).Bold(true)
	dimStyle   = fg(colorMuted)

	// Transcript senders.
	userStyle   = fg(colorUser).Bold(true)
	aiStyle     = fg(colorAI).Bold(true)
	systemStyle = fg(colorNotice).Italic(true)

	healthyStyle = fg(colorOK).Bold(true)
	warningStyle = fg(colorNotice).Bold(true)
	errorStyle   = fg(colorFailure).Bold(true)

	footerStyle    = dimStyle.MarginTop(1)
	footerKeyStyle = titleStyle
	sparklineStyle = fg(colorAccent)
)
