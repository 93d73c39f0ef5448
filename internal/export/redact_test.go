package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/designsprint/internal/secrets"
	"github.com/fyrsmithlabs/designsprint/internal/sprint"
)

func TestRedact(t *testing.T) {
	key := "AIza" + strings.Repeat("k", 35)
	state := sketchState()
	state.Transcript[0].Text = "my key is " + key
	state.Transcript[1].Metadata = &sprint.Metadata{Ideas: []sprint.Idea{{ID: "a", Text: "ship " + key}}}
	state.Summary = "contains " + key
	doc := FromState(state, exportTime)

	out, n := Redact(doc, secrets.MustNew())

	assert.Equal(t, 3, n)
	assert.Equal(t, "my key is [REDACTED]", out.Transcript[0].Text)
	assert.Equal(t, "ship [REDACTED]", out.Transcript[1].Metadata.Ideas[0].Text)
	assert.Equal(t, "contains [REDACTED]", out.Summary)
	assert.Equal(t, "Radar", out.Ideas[0].Text)
	assert.Equal(t, doc.Transcript[2].Metadata.Citations, out.Transcript[2].Metadata.Citations)

	// the source document is untouched
	assert.Contains(t, doc.Transcript[0].Text, key)
	assert.Contains(t, doc.Transcript[1].Metadata.Ideas[0].Text, key)
}

func TestRedact_NilScrubber(t *testing.T) {
	doc := FromState(sketchState(), exportTime)
	out, n := Redact(doc, nil)
	assert.Zero(t, n)
	assert.Equal(t, doc, out)
}
