package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/designsprint/internal/attachments"
	"github.com/fyrsmithlabs/designsprint/internal/phase"
	"github.com/fyrsmithlabs/designsprint/internal/secrets"
	"github.com/fyrsmithlabs/designsprint/internal/sprint"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeSprint struct {
	mu        sync.Mutex
	state     sprint.State
	sent      []string
	phases    []phase.SprintPhase
	personas  []string
	images    [][]attachments.Image
	summaries int
	generated attachments.Image
	sendErr   error
	listeners int
	started   bool
}

func newFakeSprint() *fakeSprint {
	return &fakeSprint{state: sprint.State{
		Phase:   phase.Understand,
		Backend: sprint.BackendReady,
		Persona: phase.DefaultPersona,
	}}
}

func (f *fakeSprint) Start(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
	return nil
}

func (f *fakeSprint) SelectPhase(_ context.Context, p phase.SprintPhase) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.phases = append(f.phases, p)
	f.state.Phase = p
	f.state.Transcript = nil
	f.state.Images = nil
	return nil
}

func (f *fakeSprint) Send(_ context.Context, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, message)
	f.state.Transcript = append(f.state.Transcript,
		sprint.Message{ID: "u", Sender: sprint.SenderUser, Text: message},
		sprint.Message{ID: "a", Sender: sprint.SenderAI, Text: "reply to " + message},
	)
	return nil
}

func (f *fakeSprint) Summarize(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries++
	f.state.Summary = "A short summary."
	return f.state.Summary, nil
}

func (f *fakeSprint) SetPersona(_ context.Context, persona string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.personas = append(f.personas, persona)
	f.state.Persona = persona
	return nil
}

func (f *fakeSprint) SetProblemStatement(_ context.Context, problem string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.ProblemStatement = problem
	return nil
}

func (f *fakeSprint) SetImages(images []attachments.Image) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !phase.MustLookup(f.state.Phase).AllowsImageUpload {
		return sprint.ErrImagesNotAllowed
	}
	f.images = append(f.images, images)
	f.state.Images = images
	return nil
}

func (f *fakeSprint) Imagine(context.Context, string) (attachments.Image, error) {
	return f.generated, nil
}

func (f *fakeSprint) Snapshot() sprint.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeSprint) Subscribe(func(sprint.State)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners++
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.listeners--
	}
}

var fixedNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T, s Sprint, copied *string) Model {
	t.Helper()
	m := NewModel(context.Background(), s, Options{
		ExportDir:     t.TempDir(),
		MarkdownStyle: "notty",
		Clipboard: func(text string) error {
			if copied != nil {
				*copied = text
			}
			return nil
		},
		Now: func() time.Time { return fixedNow },
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 200, Height: 50})
	return next.(Model)
}

func submitInput(m Model, input string) (Model, tea.Cmd) {
	m.input.SetValue(input)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model), cmd
}

// finish runs an operation command and feeds its result back.
func finish(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	require.IsType(t, opDoneMsg{}, msg)
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestNewModel(t *testing.T) {
	fake := newFakeSprint()
	m := NewModel(context.Background(), fake, Options{MarkdownStyle: "notty"})

	assert.Equal(t, 1, fake.listeners)
	assert.Equal(t, "Loading...", m.View())
	assert.NotNil(t, m.Init())
	assert.Equal(t, ".", m.opts.ExportDir)
	assert.NotNil(t, m.opts.Loader)
}

func TestModel_View_PhaseHelp(t *testing.T) {
	m := newTestModel(t, newFakeSprint(), nil)
	cfg := phase.MustLookup(phase.Understand)

	view := m.View()
	assert.Contains(t, view, "Design Sprint")
	assert.Contains(t, view, cfg.Title)
	assert.Contains(t, view, cfg.Description)
	assert.Contains(t, view, cfg.UserPromptLabel)
	assert.Contains(t, view, "Persona: "+phase.DefaultPersona)
	assert.Contains(t, view, "AI ready")
	assert.Contains(t, view, "1/6")
	assert.Contains(t, view, "[ctrl+c]")
}

func TestModel_View_Unavailable(t *testing.T) {
	fake := newFakeSprint()
	fake.state.Backend = sprint.BackendUnavailable
	fake.state.Error = "AI credential is missing"
	m := newTestModel(t, fake, nil)

	view := m.View()
	assert.Contains(t, view, "AI unavailable")
	assert.Contains(t, view, "AI credential is missing")
}

func TestModel_SendMessage(t *testing.T) {
	fake := newFakeSprint()
	m := newTestModel(t, fake, nil)

	m, cmd := submitInput(m, "who are our users?")
	assert.Empty(t, m.input.Value())
	m = finish(t, m, cmd)

	assert.Equal(t, []string{"who are our users?"}, fake.sent)
	assert.Equal(t, 1, m.stats.calls)
	assert.Contains(t, m.transcript.View(), "reply to who are our users?")
}

func TestModel_SendEscapedSlash(t *testing.T) {
	fake := newFakeSprint()
	m := newTestModel(t, fake, nil)

	_, cmd := submitInput(m, "//slash commands confuse people")
	cmd()
	assert.Equal(t, []string{"/slash commands confuse people"}, fake.sent)
}

func TestModel_SendFailure(t *testing.T) {
	fake := newFakeSprint()
	fake.sendErr = errors.New("quota exceeded")
	m := newTestModel(t, fake, nil)

	m, cmd := submitInput(m, "hello")
	m = finish(t, m, cmd)

	assert.True(t, m.noticeErr)
	assert.Equal(t, "quota exceeded", m.notice)
	assert.Equal(t, 1, m.stats.failures)
}

func TestModel_EmptyInputIgnored(t *testing.T) {
	m := newTestModel(t, newFakeSprint(), nil)
	_, cmd := submitInput(m, "   ")
	assert.Nil(t, cmd)
}

func TestModel_PhaseCommand(t *testing.T) {
	fake := newFakeSprint()
	m := newTestModel(t, fake, nil)

	m, cmd := submitInput(m, "/phase sketch")
	m = finish(t, m, cmd)
	assert.Equal(t, []phase.SprintPhase{phase.Sketch}, fake.phases)
	assert.Equal(t, "Switched to 3. Sketch/Ideate.", m.notice)
	assert.Contains(t, m.View(), "Problem: (set with /problem)")

	m, cmd = submitInput(m, "/phase next")
	finish(t, m, cmd)
	assert.Equal(t, phase.Decide, fake.phases[1])
}

func TestModel_PhaseCommand_Invalid(t *testing.T) {
	fake := newFakeSprint()
	m := newTestModel(t, fake, nil)

	m, cmd := submitInput(m, "/phase brainstorm")
	assert.Nil(t, cmd)
	assert.True(t, m.noticeErr)
	assert.Contains(t, m.notice, "unknown sprint phase")
	assert.Empty(t, fake.phases)

	m, cmd = submitInput(m, "/phase")
	assert.Nil(t, cmd)
	assert.Contains(t, m.notice, "usage: /phase")
}

func TestModel_NextPhaseKey(t *testing.T) {
	fake := newFakeSprint()
	fake.state.Phase = phase.Test
	m := newTestModel(t, fake, nil)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Nil(t, cmd)
	assert.Equal(t, "Already at the last phase.", next.(Model).notice)

	fake.state.Phase = phase.Define
	m = newTestModel(t, fake, nil)
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	cmd()
	assert.Equal(t, []phase.SprintPhase{phase.Sketch}, fake.phases)
}

func TestModel_UnknownCommand(t *testing.T) {
	m := newTestModel(t, newFakeSprint(), nil)
	m, cmd := submitInput(m, "/dance")
	assert.Nil(t, cmd)
	assert.True(t, m.noticeErr)
	assert.Contains(t, m.notice, "unknown command")
}

func TestModel_PersonaCommand(t *testing.T) {
	fake := newFakeSprint()
	m := newTestModel(t, fake, nil)

	m, cmd := submitInput(m, "/persona")
	assert.Nil(t, cmd)
	assert.Equal(t, "Persona: "+phase.DefaultPersona, m.notice)

	m, cmd = submitInput(m, "/persona a night-shift nurse")
	m = finish(t, m, cmd)
	assert.Equal(t, []string{"a night-shift nurse"}, fake.personas)
	assert.Contains(t, m.View(), "Persona: a night-shift nurse")
}

func TestModel_SummaryAndCopy(t *testing.T) {
	fake := newFakeSprint()
	var copied string
	m := newTestModel(t, fake, &copied)

	m, cmd := submitInput(m, "/copy")
	assert.Nil(t, cmd)
	assert.Contains(t, m.notice, "nothing to copy")

	m, cmd = submitInput(m, "/summary")
	m = finish(t, m, cmd)
	assert.Equal(t, 1, fake.summaries)
	assert.Contains(t, m.transcript.View(), "A short summary.")

	m, cmd = submitInput(m, "/copy")
	m = finish(t, m, cmd)
	assert.Equal(t, "A short summary.", copied)
	assert.Equal(t, "Copied summary to the clipboard.", m.notice)
}

func TestCopyTarget(t *testing.T) {
	s := sprint.State{
		PrototypeSpec: "spec body",
		Ideas:         []sprint.Idea{{Text: "A"}, {Text: "B"}},
	}

	what, text, err := copyTarget(s, "")
	require.NoError(t, err)
	assert.Equal(t, "prototype spec", what)
	assert.Equal(t, "spec body", text)

	_, text, err = copyTarget(s, "ideas")
	require.NoError(t, err)
	assert.Equal(t, "A\nB", text)

	_, _, err = copyTarget(s, "summary")
	assert.Error(t, err)

	_, _, err = copyTarget(s, "everything")
	assert.Error(t, err)
}

func TestModel_Export(t *testing.T) {
	fake := newFakeSprint()
	m := newTestModel(t, fake, nil)

	m, cmd := submitInput(m, "/export")
	m = finish(t, m, cmd)

	path := filepath.Join(m.opts.ExportDir, "sprint-understand-20260501-090000.md")
	assert.Equal(t, "Exported to "+path+".", m.notice)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# 1. Understand")

	jsonPath := filepath.Join(t.TempDir(), "out.json")
	m, cmd = submitInput(m, "/export "+jsonPath)
	finish(t, m, cmd)
	assert.FileExists(t, jsonPath)
}

func TestModel_ExportRedactsSecrets(t *testing.T) {
	fake := newFakeSprint()
	key := "AIza" + strings.Repeat("q", 35)
	fake.state.Transcript = []sprint.Message{{ID: "1", Sender: sprint.SenderUser, Text: "key " + key}}
	m := newTestModel(t, fake, nil)
	m.opts.Scrubber = secrets.MustNew()

	path := filepath.Join(t.TempDir(), "out.md")
	m, cmd := submitInput(m, "/export "+path)
	m = finish(t, m, cmd)

	assert.Equal(t, "Exported to "+path+" (1 secrets redacted).", m.notice)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), key)
	assert.Contains(t, string(data), "[REDACTED]")
}

func TestModel_ImageCommands(t *testing.T) {
	fake := newFakeSprint()
	fake.state.Phase = phase.Test
	m := newTestModel(t, fake, nil)

	path := filepath.Join(t.TempDir(), "screen.png")
	require.NoError(t, os.WriteFile(path, pngHeader, 0o600))

	m, cmd := submitInput(m, "/image "+path)
	m = finish(t, m, cmd)
	require.Len(t, fake.images, 1)
	assert.Equal(t, "screen.png", fake.images[0][0].Name)
	assert.Equal(t, "1 image(s) staged.", m.notice)

	m, cmd = submitInput(m, "/images")
	assert.Nil(t, cmd)
	assert.Equal(t, "Images: screen.png (16 B)", m.notice)

	m, cmd = submitInput(m, "/images clear")
	m = finish(t, m, cmd)
	assert.Empty(t, fake.state.Images)
	assert.Equal(t, "Images cleared.", m.notice)
}

func TestModel_ImageOutsideTest(t *testing.T) {
	fake := newFakeSprint()
	m := newTestModel(t, fake, nil)

	path := filepath.Join(t.TempDir(), "screen.png")
	require.NoError(t, os.WriteFile(path, pngHeader, 0o600))

	m, cmd := submitInput(m, "/image "+path)
	m = finish(t, m, cmd)
	assert.True(t, m.noticeErr)
	assert.Contains(t, m.notice, sprint.ErrImagesNotAllowed.Error())
}

func TestModel_Imagine(t *testing.T) {
	fake := newFakeSprint()
	fake.generated = attachments.Image{Name: "generated-1.jpg", MIMEType: "image/jpeg", Data: []byte("jpeg")}
	m := newTestModel(t, fake, nil)

	m, cmd := submitInput(m, "/imagine a parking app home screen")
	m = finish(t, m, cmd)
	saved := filepath.Join(m.opts.ExportDir, "generated-1.jpg")
	assert.Equal(t, "Generated image saved to "+saved+".", m.notice)
	assert.FileExists(t, saved)

	fake.state.Phase = phase.Test
	m, cmd = submitInput(m, "/imagine a parking app home screen")
	m = finish(t, m, cmd)
	assert.Equal(t, "Generated image staged as generated-1.jpg.", m.notice)
	require.Len(t, fake.state.Images, 1)
	assert.Equal(t, 2, m.stats.calls)
}

func TestModel_StateMsg(t *testing.T) {
	fake := newFakeSprint()
	m := newTestModel(t, fake, nil)

	next, cmd := m.Update(stateMsg(sprint.State{
		Phase:    phase.Define,
		Backend:  sprint.BackendReady,
		SubState: sprint.SubStateAwaitingResponse,
	}))
	m = next.(Model)
	assert.NotNil(t, cmd, "keeps listening for changes")
	assert.Equal(t, phase.Define, m.state.Phase)
	assert.Contains(t, m.View(), "AI is thinking...")
}

func TestModel_WaitForState(t *testing.T) {
	fake := newFakeSprint()
	m := newTestModel(t, fake, nil)

	m.feed.signal <- struct{}{}
	msg := m.waitForState()()
	assert.Equal(t, stateMsg(fake.Snapshot()), msg)

	ctx, cancel := context.WithCancel(context.Background())
	m.ctx = ctx
	cancel()
	assert.Nil(t, m.waitForState()())
}

func TestModel_StatsToggle(t *testing.T) {
	m := newTestModel(t, newFakeSprint(), nil)
	height := m.transcript.Height

	m, _ = submitInput(m, "/stats")
	assert.True(t, m.showStats)
	assert.Less(t, m.transcript.Height, height)
	assert.Contains(t, m.View(), "AI Calls")
	assert.Contains(t, m.View(), "no calls yet")
}

func TestModel_Help(t *testing.T) {
	m := newTestModel(t, newFakeSprint(), nil)

	m, _ = submitInput(m, "/help")
	assert.Contains(t, m.View(), "/imagine <prompt>")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, next.(Model).showHelp)
}

func TestModel_Quit(t *testing.T) {
	fake := newFakeSprint()
	m := newTestModel(t, fake, nil)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, next.(Model).quitting)
	assert.NotNil(t, cmd)
	assert.Equal(t, 0, fake.listeners)
	assert.Empty(t, next.View())
}
