package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/designsprint/internal/sprint"
)

// markdown renders AI replies. A nil renderer falls back to plain text.
type markdown struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
}

func newMarkdown(style string) *markdown {
	if style == "" {
		style = styles.AutoStyle
	}
	return &markdown{style: style}
}

// resize rebuilds the renderer for a new wrap width.
func (m *markdown) resize(width int) error {
	if width < 20 {
		width = 20
	}
	if m.renderer != nil && m.width == width {
		return nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	m.renderer = r
	m.width = width
	return nil
}

func (m *markdown) render(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

// renderTranscript formats the phase conversation for the viewport.
func renderTranscript(md *markdown, msgs []sprint.Message, width int) string {
	wrap := lipgloss.NewStyle().Width(width)
	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		stamp := dimStyle.Render(msg.Timestamp.Format("15:04"))
		switch msg.Sender {
		case sprint.SenderUser:
			b.WriteString(userStyle.Render("You") + " " + stamp + "\n")
			b.WriteString(wrap.Render(msg.Text))
		case sprint.SenderAI:
			b.WriteString(aiStyle.Render("AI") + " " + stamp + "\n")
			b.WriteString(md.render(msg.Text))
		default:
			b.WriteString(systemStyle.Render(wrap.Render("» " + msg.Text)))
		}
		if msg.Metadata == nil {
			continue
		}
		for _, idea := range msg.Metadata.Ideas {
			b.WriteString("\n" + labelStyle.Render("  • ") + idea.Text)
		}
		if len(msg.Metadata.Citations) > 0 {
			b.WriteString("\n" + dimStyle.Render("Sources:"))
			for _, c := range msg.Metadata.Citations {
				b.WriteString("\n" + dimStyle.Render("  ↳ "+c.String()))
			}
		}
	}
	return b.String()
}
