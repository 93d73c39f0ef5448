package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fyrsmithlabs/designsprint/internal/gateway"
	"github.com/fyrsmithlabs/designsprint/internal/phase"
	"github.com/fyrsmithlabs/designsprint/internal/sprint"
)

var exportTime = time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)

func sketchState() sprint.State {
	ts := exportTime.Add(-time.Minute)
	return sprint.State{
		Phase:            phase.Sketch,
		Persona:          "busy parent",
		ProblemStatement: "users can't find parking",
		Transcript: []sprint.Message{
			{ID: "1", Sender: sprint.SenderUser, Text: "give me ideas", Timestamp: ts},
			{ID: "2", Sender: sprint.SenderSystem, Text: "2 new ideas generated and added below.", Timestamp: ts},
			{ID: "3", Sender: sprint.SenderAI, Text: "- Radar\n- Drones", Timestamp: ts, Metadata: &sprint.Metadata{
				Citations: []gateway.Citation{{URI: "https://example.com/p", Title: "Parking study"}},
			}},
		},
		Ideas:   []sprint.Idea{{ID: "a", Text: "Radar"}, {ID: "b", Text: "Drones"}},
		Summary: "Two parking ideas.",
	}
}

func TestFromState(t *testing.T) {
	doc := FromState(sketchState(), exportTime)
	assert.Equal(t, "3. Sketch/Ideate", doc.Title)
	assert.Equal(t, "users can't find parking", doc.ProblemStatement)
	assert.Empty(t, doc.Persona, "sketch does not use the persona")
	assert.Len(t, doc.Ideas, 2)

	empty := FromState(sprint.State{Phase: phase.Understand, Persona: "p"}, exportTime)
	assert.NotNil(t, empty.Transcript)
	assert.Equal(t, "p", empty.Persona)
}

func TestNewExporter(t *testing.T) {
	for format, ext := range map[string]string{"md": "md", "Markdown": "md", "json": "json", "yaml": "yaml", "yml": "yaml"} {
		exp, err := NewExporter(format)
		require.NoError(t, err, format)
		assert.Equal(t, ext, exp.Extension())
	}
	_, err := NewExporter("pdf")
	assert.Error(t, err)

	_, err = ForPath("notes")
	assert.Error(t, err)
}

func TestJSONExporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONExporter{}).Export(FromState(sketchState(), exportTime), &buf))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "Sketch", got["phase"])
	assert.Len(t, got["transcript"], 3)
	assert.Len(t, got["ideas"], 2)
	assert.NotContains(t, got, "prototype_spec")
}

func TestYAMLExporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&YAMLExporter{}).Export(FromState(sketchState(), exportTime), &buf))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "Sketch", got["phase"])
	assert.Equal(t, "Two parking ideas.", got["summary"])
	assert.Contains(t, buf.String(), "uri: https://example.com/p")
}

func TestYAMLExporter_WriteError(t *testing.T) {
	err := (&YAMLExporter{}).Export(FromState(sketchState(), exportTime), failingWriter{})
	assert.Error(t, err)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestMarkdownExporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&MarkdownExporter{}).Export(FromState(sketchState(), exportTime), &buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# 3. Sketch/Ideate\n"))
	assert.Contains(t, out, "**Problem statement:** users can't find parking")
	assert.Contains(t, out, "## Summary\n\nTwo parking ideas.")
	assert.Contains(t, out, "## Ideas\n\n- Radar\n- Drones\n")
	assert.Contains(t, out, "**You** (10:29:00)\n\ngive me ideas")
	assert.Contains(t, out, "**System**")
	assert.Contains(t, out, "- [Parking study](https://example.com/p)")
	assert.NotContains(t, out, "## Prototype Spec")
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	doc := FromState(sketchState(), exportTime)

	path := filepath.Join(dir, DefaultFileName(phase.Sketch, "yaml", exportTime))
	assert.Equal(t, "sprint-sketch-20260304-103000.yaml", filepath.Base(path))
	require.NoError(t, WriteFile(path, doc))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	assert.Error(t, WriteFile(filepath.Join(dir, "out.docx"), doc))
}
