package tui

import (
	"fmt"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/progress"

	"github.com/fyrsmithlabs/designsprint/internal/phase"
)

const (
	sparklineWidth  = 30
	sparklineHeight = 3
	historySize     = 30
)

// callStats tracks the latency of AI operations made from the TUI.
type callStats struct {
	started  time.Time
	calls    int
	failures int
	last     time.Duration
	history  []float64
	progress progress.Model
}

func newCallStats(now time.Time) *callStats {
	return &callStats{
		started: now,
		history: make([]float64, 0, historySize),
		progress: progress.New(
			progress.WithGradient("#00ffff", "#ff00ff"),
			progress.WithWidth(24),
			progress.WithoutPercentage(),
		),
	}
}

// record adds one finished call. Latency history is kept in milliseconds.
func (s *callStats) record(elapsed time.Duration, err error) {
	s.calls++
	if err != nil {
		s.failures++
	}
	s.last = elapsed
	s.history = appendToHistory(s.history, float64(elapsed)/float64(time.Millisecond))
}

// appendToHistory appends a value to history, maintaining max size
func appendToHistory(history []float64, value float64) []float64 {
	history = append(history, value)
	if len(history) > historySize {
		history = history[1:]
	}
	return history
}

func createSparkline(data []float64) string {
	if len(data) == 0 {
		return dimStyle.Render(fmt.Sprintf("%*s", sparklineWidth, "no data"))
	}

	spark := sparkline.New(sparklineWidth, sparklineHeight)
	for _, v := range data {
		spark.Push(v)
	}
	spark.Draw()

	return sparklineStyle.Render(spark.View())
}

// sprintProgress renders how far p is through the six phases.
func (s *callStats) sprintProgress(p phase.SprintPhase) string {
	total := len(phase.All())
	return s.progress.ViewAs(float64(p.Ordinal())/float64(total)) +
		" " + dimStyle.Render(fmt.Sprintf("%d/%d", p.Ordinal(), total))
}

func latencyBadge(d time.Duration) string {
	switch {
	case d < 5*time.Second:
		return healthyStyle.Render("[✓]")
	case d < 20*time.Second:
		return warningStyle.Render("[⚠]")
	}
	return errorStyle.Render("[✗]")
}

func (s *callStats) view(now time.Time) string {
	content := sectionStyle.Render("┃ AI Calls") + "\n"
	if s.calls == 0 {
		content += dimStyle.Render("  no calls yet") + "\n"
	} else {
		content += labelStyle.Render("  Last: ") +
			valueStyle.Render(FormatLatency(s.last)) +
			" " + latencyBadge(s.last) +
			"   " + createSparkline(s.history) + "\n"
		content += labelStyle.Render("  Calls: ") +
			valueStyle.Render(fmt.Sprintf("%d", s.calls)) +
			labelStyle.Render("  Failed: ") +
			valueStyle.Render(fmt.Sprintf("%d", s.failures)) + "\n"
	}
	content += labelStyle.Render("  Session: ") + valueStyle.Render(FormatElapsed(now.Sub(s.started)))
	return panelStyle.Render(content)
}
