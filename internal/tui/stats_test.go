package tui

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/designsprint/internal/phase"
)

func TestCallStats_Record(t *testing.T) {
	s := newCallStats(fixedNow)
	assert.Contains(t, s.view(fixedNow), "no calls yet")

	s.record(1200*time.Millisecond, nil)
	s.record(3*time.Second, errors.New("boom"))

	assert.Equal(t, 2, s.calls)
	assert.Equal(t, 1, s.failures)
	assert.Equal(t, 3*time.Second, s.last)
	assert.Equal(t, []float64{1200, 3000}, s.history)

	out := s.view(fixedNow.Add(90 * time.Minute))
	assert.Contains(t, out, "AI Calls")
	assert.Contains(t, out, "3.0s")
	assert.Contains(t, out, "Failed")
	assert.Contains(t, out, "1h 30m")
	assert.NotContains(t, out, "no calls yet")
}

func TestAppendToHistory(t *testing.T) {
	var h []float64
	for i := 0; i < historySize+5; i++ {
		h = appendToHistory(h, float64(i))
	}
	assert.Len(t, h, historySize)
	assert.Equal(t, float64(5), h[0])
	assert.Equal(t, float64(historySize+4), h[len(h)-1])
}

func TestCreateSparkline(t *testing.T) {
	assert.Contains(t, createSparkline(nil), "no data")
	assert.NotEmpty(t, createSparkline([]float64{10, 200, 50}))
}

func TestLatencyBadge(t *testing.T) {
	assert.Contains(t, latencyBadge(time.Second), "✓")
	assert.Contains(t, latencyBadge(10*time.Second), "⚠")
	assert.Contains(t, latencyBadge(time.Minute), "✗")
}

func TestSprintProgress(t *testing.T) {
	s := newCallStats(fixedNow)
	assert.Contains(t, s.sprintProgress(phase.Understand), "1/6")
	assert.Contains(t, s.sprintProgress(phase.Test), "6/6")
}
