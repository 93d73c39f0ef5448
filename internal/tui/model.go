// Package tui is the interactive terminal front end of a design sprint.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/designsprint/internal/attachments"
	"github.com/fyrsmithlabs/designsprint/internal/config"
	"github.com/fyrsmithlabs/designsprint/internal/export"
	"github.com/fyrsmithlabs/designsprint/internal/logging"
	"github.com/fyrsmithlabs/designsprint/internal/phase"
	"github.com/fyrsmithlabs/designsprint/internal/secrets"
	"github.com/fyrsmithlabs/designsprint/internal/sprint"
)

// Sprint is the orchestrator surface driven by the TUI.
type Sprint interface {
	Start(ctx context.Context) error
	SelectPhase(ctx context.Context, p phase.SprintPhase) error
	Send(ctx context.Context, message string) error
	Summarize(ctx context.Context) (string, error)
	SetPersona(ctx context.Context, persona string) error
	SetProblemStatement(ctx context.Context, problem string) error
	SetImages(images []attachments.Image) error
	Imagine(ctx context.Context, prompt string) (attachments.Image, error)
	Snapshot() sprint.State
	Subscribe(fn func(sprint.State)) (unsubscribe func())
}

var _ Sprint = (*sprint.Orchestrator)(nil)

// Options configures the TUI. Zero values select defaults.
type Options struct {
	// Loader validates images staged with /image.
	Loader *attachments.Loader
	// ExportDir receives /export files and generated images.
	ExportDir string
	// Scrubber redacts credentials from /export files. Nil disables redaction.
	Scrubber *secrets.Scrubber
	// MarkdownStyle is a glamour style name; empty means auto-detect.
	MarkdownStyle string
	Logger        *logging.Logger
	// Clipboard writes text to the system clipboard.
	Clipboard func(string) error
	Now       func() time.Time
}

// chrome is the number of lines around the transcript viewport.
const chrome = 11

type (
	stateMsg  sprint.State
	opDoneMsg struct {
		op      string
		notice  string
		err     error
		elapsed time.Duration
		timed   bool
	}
)

// feed coalesces orchestrator notifications into one pending signal.
// The TUI always reads a fresh snapshot, so dropped signals lose nothing.
type feed struct {
	signal      chan struct{}
	unsubscribe func()
}

func newFeed(s Sprint) *feed {
	f := &feed{signal: make(chan struct{}, 1)}
	f.unsubscribe = s.Subscribe(func(sprint.State) {
		select {
		case f.signal <- struct{}{}:
		default:
		}
	})
	return f
}

// Model is the Bubble Tea model of the sprint TUI.
type Model struct {
	ctx    context.Context
	sprint Sprint
	opts   Options
	feed   *feed
	md     *markdown
	stats  *callStats

	state      sprint.State
	input      textarea.Model
	transcript viewport.Model
	spinner    spinner.Model

	width     int
	height    int
	ready     bool
	showHelp  bool
	showStats bool
	notice    string
	noticeErr bool
	quitting  bool
}

// NewModel creates the model and subscribes it to s.
func NewModel(ctx context.Context, s Sprint, opts Options) Model {
	if opts.Loader == nil {
		opts.Loader = attachments.NewLoader(config.Default().Images)
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ta := textarea.New()
	ta.Placeholder = "Type a message or /help"
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))
	ta.Focus()

	return Model{
		ctx:        ctx,
		sprint:     s,
		opts:       opts,
		feed:       newFeed(s),
		md:         newMarkdown(opts.MarkdownStyle),
		stats:      newCallStats(opts.Now()),
		state:      s.Snapshot(),
		input:      ta,
		transcript: viewport.New(80, 20),
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(labelStyle)),
	}
}

// Run starts the TUI and blocks until the user quits or ctx is done.
func Run(ctx context.Context, s Sprint, opts Options) error {
	m := NewModel(ctx, s, opts)
	defer m.feed.unsubscribe()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.waitForState(),
		m.run("start", false, func(ctx context.Context) (string, error) {
			return "", m.sprint.Start(ctx)
		}),
	)
}

// waitForState blocks until the orchestrator reports a change.
func (m Model) waitForState() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.feed.signal:
			return stateMsg(m.sprint.Snapshot())
		case <-m.ctx.Done():
			return nil
		}
	}
}

// run executes fn off the UI goroutine and reports back with an opDoneMsg.
func (m Model) run(op string, timed bool, fn func(context.Context) (string, error)) tea.Cmd {
	ctx, now, logger := m.ctx, m.opts.Now, m.opts.Logger
	return func() tea.Msg {
		start := now()
		notice, err := fn(ctx)
		if err != nil {
			logger.Debug(ctx, "tui operation failed", zap.String("op", op), zap.Error(err))
		}
		return opDoneMsg{op: op, notice: notice, err: err, elapsed: now().Sub(start), timed: timed}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m.quit()
		case "enter":
			return m.submit()
		case "ctrl+n":
			next, ok := m.state.Phase.Next()
			if !ok {
				m.setNotice("Already at the last phase.", false)
				return m, nil
			}
			return m, m.selectPhase(next)
		case "esc":
			m.showHelp = false
			return m, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.transcript, cmd = m.transcript.Update(msg)
			return m, cmd
		}

	case stateMsg:
		m.state = sprint.State(msg)
		m.refresh()
		return m, m.waitForState()

	case opDoneMsg:
		if msg.timed {
			m.stats.record(msg.elapsed, msg.err)
		}
		switch {
		case msg.err != nil:
			m.setNotice(msg.err.Error(), true)
		case msg.notice != "":
			m.setNotice(msg.notice, false)
		}
		m.state = m.sprint.Snapshot()
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.feed.unsubscribe()
	return m, tea.Quit
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
}

// submit handles the input line: a slash command or a chat message.
func (m Model) submit() (tea.Model, tea.Cmd) {
	raw := m.input.Value()
	if strings.TrimSpace(raw) == "" {
		return m, nil
	}
	m.input.Reset()
	m.setNotice("", false)

	cmd, isCommand, err := ParseCommand(raw)
	if err != nil {
		m.setNotice(err.Error(), true)
		return m, nil
	}
	if isCommand {
		return m.execute(cmd)
	}
	text := unescapeMessage(raw)
	return m, m.run("send", true, func(ctx context.Context) (string, error) {
		return "", m.sprint.Send(ctx, text)
	})
}

func (m Model) selectPhase(p phase.SprintPhase) tea.Cmd {
	return m.run("phase", false, func(ctx context.Context) (string, error) {
		if err := m.sprint.SelectPhase(ctx, p); err != nil {
			return "", err
		}
		return "Switched to " + p.Title() + ".", nil
	})
}

func (m Model) execute(c Command) (tea.Model, tea.Cmd) {
	usage := func() (tea.Model, tea.Cmd) {
		m.setNotice("usage: "+commands[c.Name].usage, true)
		return m, nil
	}

	switch c.Name {
	case "help":
		m.showHelp = !m.showHelp
		return m, nil

	case "quit":
		return m.quit()

	case "stats":
		m.showStats = !m.showStats
		m.layout()
		return m, nil

	case "phase":
		if c.Args == "" {
			return usage()
		}
		if strings.EqualFold(c.Args, "next") {
			next, ok := m.state.Phase.Next()
			if !ok {
				m.setNotice("Already at the last phase.", false)
				return m, nil
			}
			return m, m.selectPhase(next)
		}
		p, err := phase.Parse(c.Args)
		if err != nil {
			m.setNotice(err.Error(), true)
			return m, nil
		}
		return m, m.selectPhase(p)

	case "persona":
		if c.Args == "" {
			m.setNotice("Persona: "+m.state.Persona, false)
			return m, nil
		}
		return m, m.run("persona", false, func(ctx context.Context) (string, error) {
			return "Persona updated.", m.sprint.SetPersona(ctx, c.Args)
		})

	case "problem":
		if c.Args == "" {
			if m.state.ProblemStatement == "" {
				m.setNotice("No problem statement set.", false)
			} else {
				m.setNotice("Problem: "+m.state.ProblemStatement, false)
			}
			return m, nil
		}
		return m, m.run("problem", false, func(ctx context.Context) (string, error) {
			return "Problem statement updated.", m.sprint.SetProblemStatement(ctx, c.Args)
		})

	case "image":
		paths := strings.Fields(c.Args)
		if len(paths) == 0 {
			return usage()
		}
		return m, m.run("image", false, func(context.Context) (string, error) {
			return m.stageImages(paths)
		})

	case "images":
		switch strings.ToLower(c.Args) {
		case "":
			m.setNotice(imageList(m.state.Images), false)
			return m, nil
		case "clear":
			return m, m.run("images", false, func(context.Context) (string, error) {
				return "Images cleared.", m.sprint.SetImages(nil)
			})
		}
		return usage()

	case "summary":
		return m, m.run("summary", true, func(ctx context.Context) (string, error) {
			if _, err := m.sprint.Summarize(ctx); err != nil {
				return "", err
			}
			return "Summary ready.", nil
		})

	case "copy":
		what, text, err := copyTarget(m.state, c.Args)
		if err != nil {
			m.setNotice(err.Error(), true)
			return m, nil
		}
		return m, m.run("copy", false, func(context.Context) (string, error) {
			if err := m.opts.Clipboard(text); err != nil {
				return "", fmt.Errorf("failed to copy %s: %w", what, err)
			}
			return "Copied " + what + " to the clipboard.", nil
		})

	case "export":
		path := c.Args
		if path == "" {
			path = filepath.Join(m.opts.ExportDir, export.DefaultFileName(m.state.Phase, "md", m.opts.Now()))
		}
		return m, m.run("export", false, func(context.Context) (string, error) {
			doc, redacted := export.Redact(export.FromState(m.sprint.Snapshot(), m.opts.Now()), m.opts.Scrubber)
			if err := export.WriteFile(path, doc); err != nil {
				return "", err
			}
			if redacted > 0 {
				return fmt.Sprintf("Exported to %s (%d secrets redacted).", path, redacted), nil
			}
			return "Exported to " + path + ".", nil
		})

	case "imagine":
		if c.Args == "" {
			return usage()
		}
		return m, m.run("imagine", true, func(ctx context.Context) (string, error) {
			return m.imagine(ctx, c.Args)
		})
	}
	return m, nil
}

// stageImages loads paths and appends them to the staged images.
func (m Model) stageImages(paths []string) (string, error) {
	loaded, err := m.opts.Loader.LoadFiles(paths)
	if err != nil {
		return "", err
	}
	merged, err := m.opts.Loader.Append(m.sprint.Snapshot().Images, loaded...)
	if err != nil {
		return "", err
	}
	if err := m.sprint.SetImages(merged); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d image(s) staged.", len(merged)), nil
}

// imagine generates an image and stages it in the Test phase, or saves it
// to the export directory elsewhere.
func (m Model) imagine(ctx context.Context, prompt string) (string, error) {
	img, err := m.sprint.Imagine(ctx, prompt)
	if err != nil {
		return "", err
	}
	snap := m.sprint.Snapshot()
	if phase.MustLookup(snap.Phase).AllowsImageUpload {
		merged, err := m.opts.Loader.Append(snap.Images, img)
		if err != nil {
			return "", err
		}
		if err := m.sprint.SetImages(merged); err != nil {
			return "", err
		}
		return "Generated image staged as " + img.Name + ".", nil
	}
	path := filepath.Join(m.opts.ExportDir, img.Name)
	if err := os.WriteFile(path, img.Data, 0o600); err != nil {
		return "", fmt.Errorf("failed to save generated image: %w", err)
	}
	return "Generated image saved to " + path + ".", nil
}

func copyTarget(s sprint.State, arg string) (what, text string, err error) {
	switch strings.ToLower(arg) {
	case "":
		if s.Summary != "" {
			return "summary", s.Summary, nil
		}
		if s.PrototypeSpec != "" {
			return "prototype spec", s.PrototypeSpec, nil
		}
		return "", "", errors.New("nothing to copy: no summary or prototype spec yet")
	case "summary":
		what, text = "summary", s.Summary
	case "spec":
		what, text = "prototype spec", s.PrototypeSpec
	case "ideas":
		what, text = "ideas", strings.Join(s.IdeaTexts(), "\n")
	default:
		return "", "", fmt.Errorf("cannot copy %q (use summary, spec or ideas)", arg)
	}
	if text == "" {
		return "", "", fmt.Errorf("nothing to copy: no %s yet", what)
	}
	return what, text, nil
}

func imageList(images []attachments.Image) string {
	if len(images) == 0 {
		return "No images staged."
	}
	parts := make([]string, len(images))
	for i, img := range images {
		parts[i] = fmt.Sprintf("%s (%s)", img.Name, FormatBytes(len(img.Data)))
	}
	return "Images: " + strings.Join(parts, ", ")
}

// layout sizes the components to the window.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	m.input.SetWidth(max(m.width-2, 10))
	_ = m.md.resize(m.width - 4)

	h := m.height - chrome
	if m.showStats {
		h -= 7
	}
	m.transcript.Width = m.width
	m.transcript.Height = max(h, 3)
	m.refresh()
}

// refresh re-renders the transcript for the current state.
func (m *Model) refresh() {
	cfg := phase.MustLookup(m.state.Phase)
	width := max(m.transcript.Width-2, 10)

	var content string
	if len(m.state.Transcript) == 0 {
		content = dimStyle.Render(lipgloss.NewStyle().Width(width).Render(cfg.InitialHelperText))
	} else {
		content = renderTranscript(m.md, m.state.Transcript, width)
	}
	if m.state.Summary != "" {
		content += "\n\n" + sectionStyle.Render("┃ Summary") + "\n" + m.md.render(m.state.Summary)
	}
	m.transcript.SetContent(content)
	m.transcript.GotoBottom()
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}
	cfg := phase.MustLookup(m.state.Phase)

	var b strings.Builder
	b.WriteString(headerStyle.Render(" Design Sprint ") + "  " +
		titleStyle.Render(cfg.Title) + "  " +
		m.stats.sprintProgress(m.state.Phase) + "  " +
		backendBadge(m.state.Backend) + "\n")
	b.WriteString(dimStyle.Render(cfg.Description) + "\n")
	b.WriteString(inputsLine(cfg, m.state) + "\n")

	if m.showHelp {
		b.WriteString(panelStyle.Render(helpText()))
	} else {
		b.WriteString(m.transcript.View())
	}
	b.WriteString("\n")
	if m.showStats {
		b.WriteString(m.stats.view(m.opts.Now()) + "\n")
	}
	b.WriteString(m.statusLine() + "\n")
	b.WriteString(labelStyle.Render(cfg.UserPromptLabel) + "\n")
	b.WriteString(m.input.View() + "\n")

	footer := footerKeyStyle.Render("[enter]") + footerStyle.Render(" send  ") +
		footerKeyStyle.Render("[ctrl+n]") + footerStyle.Render(" next phase  ") +
		footerKeyStyle.Render("[pgup/pgdn]") + footerStyle.Render(" scroll  ") +
		footerKeyStyle.Render("[/help]") + footerStyle.Render(" commands  ") +
		footerKeyStyle.Render("[ctrl+c]") + footerStyle.Render(" quit")
	b.WriteString(footer)
	return b.String()
}

func backendBadge(s sprint.BackendStatus) string {
	switch s {
	case sprint.BackendReady:
		return healthyStyle.Render("✓ AI ready")
	case sprint.BackendUnavailable:
		return errorStyle.Render("✗ AI unavailable")
	}
	return warningStyle.Render("⚠ checking")
}

// inputsLine shows the inputs the current phase consumes.
func inputsLine(cfg phase.Config, s sprint.State) string {
	var parts []string
	if cfg.RequiresPersonaInput {
		parts = append(parts, labelStyle.Render("Persona: ")+valueStyle.Render(s.Persona))
	}
	if cfg.RequiresProblemStatementInput {
		problem := s.ProblemStatement
		if problem == "" {
			problem = "(set with /problem)"
		}
		parts = append(parts, labelStyle.Render("Problem: ")+valueStyle.Render(problem))
	}
	if cfg.AllowsImageUpload {
		parts = append(parts, labelStyle.Render("Images: ")+valueStyle.Render(fmt.Sprintf("%d", len(s.Images))))
	}
	return strings.Join(parts, "   ")
}

func (m Model) statusLine() string {
	var parts []string
	switch {
	case m.state.Summarizing:
		parts = append(parts, m.spinner.View()+" Summarizing...")
	case m.state.SubState == sprint.SubStateInitializing:
		parts = append(parts, m.spinner.View()+" Preparing the AI for this phase...")
	case m.state.SubState == sprint.SubStateAwaitingResponse:
		parts = append(parts, m.spinner.View()+" AI is thinking...")
	}
	if m.notice != "" {
		if m.noticeErr {
			parts = append(parts, errorStyle.Render("⚠ "+m.notice))
		} else {
			parts = append(parts, healthyStyle.Render(m.notice))
		}
	}
	if m.state.Error != "" && !strings.Contains(m.notice, m.state.Error) {
		parts = append(parts, errorStyle.Render("⚠ "+m.state.Error))
	}
	if len(parts) == 0 {
		return dimStyle.Render("Ready")
	}
	return strings.Join(parts, "  ")
}
