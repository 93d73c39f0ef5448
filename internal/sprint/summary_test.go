package sprint

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/designsprint/internal/phase"
)

// Scenario: too little content fails locally without an AI call.
func TestSummarize_NotEnoughContent(t *testing.T) {
	fc := newFakeClient()
	o := newTestOrchestrator(t, fc)
	ctx := context.Background()

	require.NoError(t, o.SetPersona(ctx, "a chef"))
	content := o.SummaryContent()
	require.Less(t, len(content), minSummaryContent)

	_, err := o.Summarize(ctx)
	assert.ErrorIs(t, err, ErrNotEnoughContent)
	assert.True(t, IsValidation(err))
	assert.Zero(t, fc.summaryCount())

	s := o.Snapshot()
	assert.Equal(t, NotEnoughContentMessage, s.Error)
	assert.False(t, s.Summarizing)
}

func TestSummarize_FloorCountsCharacters(t *testing.T) {
	fc := newFakeClient()
	o := newTestOrchestrator(t, fc)
	ctx := context.Background()

	require.NoError(t, o.SetPersona(ctx, strings.Repeat("厨", 12)))
	content := o.SummaryContent()
	require.GreaterOrEqual(t, len(content), minSummaryContent)

	_, err := o.Summarize(ctx)
	assert.ErrorIs(t, err, ErrNotEnoughContent)
	assert.Zero(t, fc.summaryCount())

	require.NoError(t, o.SetPersona(ctx, strings.Repeat("厨", 36)))
	_, err = o.Summarize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fc.summaryCount())
}

func TestSummarize_TwiceDoesNotMutateTranscript(t *testing.T) {
	fc := newFakeClient()
	fc.onceReplies = []string{"- A\n- B"}
	o := newTestOrchestrator(t, fc)
	ctx := context.Background()

	require.NoError(t, o.SelectPhase(ctx, phase.Sketch))
	require.NoError(t, o.Send(ctx, "ideas please"))
	before := o.Snapshot()

	first, err := o.Summarize(ctx)
	require.NoError(t, err)
	second, err := o.Summarize(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Equal(t, 2, fc.summaryCount())
	assert.Equal(t, fc.summaryCalls[0], fc.summaryCalls[1])
	assert.Equal(t, "Sketch", fc.summaryCalls[0].label)

	after := o.Snapshot()
	assert.Equal(t, before.Transcript, after.Transcript)
	assert.Equal(t, before.Ideas, after.Ideas)
	assert.Equal(t, "A concise summary.", after.Summary)
}

func TestSummarize_SingleFlight(t *testing.T) {
	fc := newFakeClient()
	o := newTestOrchestrator(t, fc)
	ctx := context.Background()

	release := fc.blockCalls()
	done := make(chan error, 1)
	go func() {
		_, err := o.Summarize(ctx)
		done <- err
	}()
	<-fc.started

	assert.True(t, o.Snapshot().Summarizing)
	assert.True(t, o.Snapshot().Busy())
	_, err := o.Summarize(ctx)
	assert.ErrorIs(t, err, ErrSummaryInFlight)

	release()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("summary did not finish")
	}
	assert.False(t, o.Snapshot().Summarizing)
	assert.Equal(t, 1, fc.summaryCount())
}

func TestSummarize_StaleResultDiscarded(t *testing.T) {
	fc := newFakeClient()
	o := newTestOrchestrator(t, fc)
	ctx := context.Background()

	release := fc.blockCalls()
	done := make(chan error, 1)
	go func() {
		_, err := o.Summarize(ctx)
		done <- err
	}()
	<-fc.started

	require.NoError(t, o.SelectPhase(ctx, phase.Define))
	assert.False(t, o.Snapshot().Summarizing)
	release()

	assert.ErrorIs(t, <-done, ErrPhaseChanged)
	assert.Empty(t, o.Snapshot().Summary)
}

func TestSummarize_FailureSetsError(t *testing.T) {
	fc := newFakeClient()
	fc.summaryErr = errors.New("failed to generate summary from AI")
	o := newTestOrchestrator(t, fc)

	_, err := o.Summarize(context.Background())
	require.Error(t, err)
	s := o.Snapshot()
	assert.Equal(t, "failed to generate summary from AI", s.Error)
	assert.Empty(t, s.Summary)
	assert.False(t, s.Summarizing)
}

func TestSummaryContent(t *testing.T) {
	base := State{
		Persona:          "chef",
		ProblemStatement: "no parking",
		Transcript: []Message{
			{Sender: SenderUser, Text: "hi"},
			{Sender: SenderAI, Text: "hello"},
		},
		Ideas:         []Idea{{Text: "A"}, {Text: "B"}},
		PrototypeSpec: "spec",
	}

	understand := base
	understand.Phase = phase.Understand
	assert.Equal(t, "User Persona: chef\n\nConversation History:\n[user]: hi\n[ai]: hello", summaryContent(understand))

	sketch := base
	sketch.Phase = phase.Sketch
	assert.Equal(t,
		"User Persona: chef\n\nProblem Statement: no parking\n\nConversation History:\n[user]: hi\n[ai]: hello\n\nGenerated Ideas:\n- A\n- B",
		summaryContent(sketch))

	define := base
	define.Phase = phase.Define
	define.Transcript = nil
	assert.Equal(t, "User Persona: chef\n\nProblem Statement: no parking\n\n", summaryContent(define))

	proto := base
	proto.Phase = phase.Prototype
	assert.Equal(t,
		"User Persona: chef\n\nConversation History:\n[user]: hi\n[ai]: hello\n\nGenerated Prototype Spec:\n spec",
		summaryContent(proto))
}
