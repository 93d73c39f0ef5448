package tui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/designsprint/internal/gateway"
	"github.com/fyrsmithlabs/designsprint/internal/sprint"
)

func TestMarkdown_Resize(t *testing.T) {
	md := newMarkdown("notty")
	assert.Equal(t, "plain *text*", md.render("plain *text*"), "no renderer yet")

	require.NoError(t, md.resize(5))
	assert.Equal(t, 20, md.width)
	first := md.renderer

	require.NoError(t, md.resize(10))
	assert.Same(t, first, md.renderer, "same clamped width keeps the renderer")

	require.NoError(t, md.resize(60))
	assert.NotSame(t, first, md.renderer)
	assert.Contains(t, md.render("# Heading\n\nSome **bold** words."), "bold")
}

func TestMarkdown_BadStyle(t *testing.T) {
	md := newMarkdown("no-such-style")
	assert.Error(t, md.resize(80))
	assert.Equal(t, "text", md.render("text"))
}

func TestRenderTranscript(t *testing.T) {
	md := newMarkdown("notty")
	require.NoError(t, md.resize(80))
	ts := time.Date(2026, 5, 1, 9, 15, 0, 0, time.UTC)

	out := renderTranscript(md, []sprint.Message{
		{Sender: sprint.SenderUser, Text: "give me ideas", Timestamp: ts},
		{Sender: sprint.SenderSystem, Text: "2 new ideas generated and added below.", Timestamp: ts,
			Metadata: &sprint.Metadata{Ideas: []sprint.Idea{{Text: "Radar"}, {Text: "Drones"}}}},
		{Sender: sprint.SenderAI, Text: "Here they are.", Timestamp: ts,
			Metadata: &sprint.Metadata{Citations: []gateway.Citation{{URI: "https://example.com/p", Title: "Parking study"}}}},
	}, 80)

	assert.Contains(t, out, "You")
	assert.Contains(t, out, "09:15")
	assert.Contains(t, out, "give me ideas")
	assert.Contains(t, out, "» 2 new ideas generated")
	assert.Contains(t, out, "• Radar")
	assert.Contains(t, out, "• Drones")
	assert.Contains(t, out, "AI")
	assert.Contains(t, out, "Here they are.")
	assert.Contains(t, out, "Sources:")
	assert.Contains(t, out, "↳ ")
	assert.Contains(t, out, "https://example.com/p")
}
