package sprint

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/designsprint/internal/attachments"
	"github.com/fyrsmithlabs/designsprint/internal/gateway"
	"github.com/fyrsmithlabs/designsprint/internal/logging"
	"github.com/fyrsmithlabs/designsprint/internal/phase"
	"github.com/fyrsmithlabs/designsprint/internal/telemetry"
)

// Input fallbacks used when the sprint has nothing better to offer.
const (
	fallbackProblem = "a user-defined problem"
	fallbackIdeas   = "no ideas provided yet"

	imageNoteMarker = "image(s) loaded for testing"
	unavailableText = "AI backend is not configured."
)

// Config holds sprint defaults.
type Config struct {
	// DefaultPersona seeds the persona input. Empty means phase.DefaultPersona.
	DefaultPersona string
	// DecideFramework is the evaluation framework named in Decide.
	DecideFramework string
	// InitialPhase is the phase selected by Start.
	InitialPhase phase.SprintPhase
	// MaxImages caps staged images. Zero means unlimited.
	MaxImages int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *logging.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithTelemetry records spans and metrics through t instead of the global
// providers.
func WithTelemetry(t *telemetry.Telemetry) Option {
	return func(o *Orchestrator) {
		o.tracer = t.Tracer(instrumentationName)
		o.meterFrom = t
	}
}

// WithClock replaces time.Now for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// Orchestrator drives a single-user design sprint.
type Orchestrator struct {
	cfg         Config
	client      gateway.Client
	unavailable error

	logger    *logging.Logger
	tracer    trace.Tracer
	meterFrom *telemetry.Telemetry
	metrics   *metrics
	now       func() time.Time

	mu      sync.Mutex
	state   State
	session gateway.Session
	// sessionID tags log lines for the current session.
	sessionID string
	// epoch moves on every phase selection; initGen on every initialization.
	epoch   uint64
	initGen uint64
	// imageGen moves whenever the staged image list is replaced.
	imageGen uint64
	pending  int
	// carried holds the ideas of the phase that was left, for Decide.
	carried []Idea

	listenerMu   sync.Mutex
	listeners    map[int]func(State)
	nextListener int
}

// New creates an Orchestrator. client may be nil, in which case the
// backend is reported unavailable with unavailable's message.
func New(cfg Config, client gateway.Client, unavailable error, opts ...Option) *Orchestrator {
	if cfg.DecideFramework == "" {
		cfg.DecideFramework = phase.DefaultFramework
	}
	if !cfg.InitialPhase.Valid() {
		cfg.InitialPhase = phase.Understand
	}
	persona := cfg.DefaultPersona
	if persona == "" {
		persona = phase.DefaultPersona
	}

	o := &Orchestrator{
		cfg:         cfg,
		client:      client,
		unavailable: unavailable,
		logger:      logging.NewNop(),
		now:         time.Now,
		listeners:   make(map[int]func(State)),
		state: State{
			Phase:   cfg.InitialPhase,
			Backend: BackendChecking,
			Persona: persona,
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(instrumentationName)
	}
	meter := otel.Meter(instrumentationName)
	if o.meterFrom != nil {
		meter = o.meterFrom.Meter(instrumentationName)
	}
	o.logger = o.logger.Named("sprint")
	o.metrics = newMetrics(meter, o.logger)
	return o
}

// Start runs the one-time backend availability check and initializes the
// current phase. When the backend is unavailable it returns the
// configuration error; the orchestrator stays usable for non-AI actions.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.state.Backend != BackendChecking {
		o.mu.Unlock()
		return nil
	}
	var startErr error
	if o.client != nil {
		o.state.Backend = BackendReady
	} else {
		o.state.Backend = BackendUnavailable
		startErr = o.unavailable
		if startErr == nil {
			startErr = fmt.Errorf("%w: %s", ErrNotReady, unavailableText)
		}
		o.state.BackendError = unavailableMessage(startErr)
		o.state.Error = o.state.BackendError
	}
	p := o.state.Phase
	o.mu.Unlock()
	o.notify()

	ctx = logging.WithPhase(ctx, p.String())
	if startErr != nil {
		o.logger.Warn(ctx, "AI backend unavailable", zap.Error(startErr))
		return startErr
	}
	o.logger.Info(ctx, "sprint started")
	return o.Initialize(ctx)
}

// SelectPhase makes p current. It is always permitted, even while a reply
// is pending; the pending result will be discarded. All phase-scoped state
// is cleared and the chat session is dropped before p is initialized.
func (o *Orchestrator) SelectPhase(ctx context.Context, p phase.SprintPhase) error {
	if !p.Valid() {
		return fmt.Errorf("%w: %d", phase.ErrUnknownPhase, int(p))
	}

	o.mu.Lock()
	from := o.state.Phase
	o.carried = slices.Clone(o.state.Ideas)
	o.epoch++
	o.pending = 0
	o.session = nil
	o.sessionID = ""
	o.state.Phase = p
	o.state.SubState = SubStateUninitialized
	o.state.HasSession = false
	o.state.Transcript = nil
	o.state.Ideas = nil
	o.state.PrototypeSpec = ""
	o.state.Summary = ""
	o.state.Summarizing = false
	o.state.Images = nil
	o.imageGen++
	o.state.Error = ""
	ready := o.state.Backend == BackendReady
	o.mu.Unlock()
	o.notify()

	ctx = logging.WithPhase(ctx, p.String())
	o.metrics.phaseSwitch(ctx, p)
	o.logger.Info(ctx, "phase selected", zap.String("from", from.String()))

	if !ready {
		return nil
	}
	return o.Initialize(ctx)
}

// Initialize builds the current phase's system instruction and, for every
// phase except Sketch, opens a fresh chat session with it. Failures are
// recorded in state; the next Send retries by opening a session lazily.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	o.mu.Lock()
	if o.state.Backend != BackendReady {
		o.mu.Unlock()
		return ErrNotReady
	}
	o.initGen++
	epoch, gen := o.epoch, o.initGen
	p := o.state.Phase
	instruction := phase.MustLookup(p).Instruction(o.inputsLocked()).Render()

	// Sketch derives its instruction per turn and never holds a session.
	if p == phase.Sketch {
		o.session = nil
		o.sessionID = ""
		o.state.HasSession = false
		o.state.SubState = SubStateReady
		o.mu.Unlock()
		o.notify()
		return nil
	}
	o.state.SubState = SubStateInitializing
	o.mu.Unlock()
	o.notify()

	ctx = logging.WithPhase(ctx, p.String())
	ctx, span := o.tracer.Start(ctx, "sprint.initialize",
		trace.WithAttributes(attribute.String("sprint.phase", p.String())))
	defer span.End()

	sess, err := o.client.StartSession(ctx, instruction, nil)

	o.mu.Lock()
	if epoch != o.epoch || gen != o.initGen {
		o.mu.Unlock()
		o.metrics.staleResult(ctx, "initialize")
		return ErrPhaseChanged
	}
	if err != nil {
		o.session = nil
		o.sessionID = ""
		o.state.HasSession = false
		o.state.SubState = SubStateError
		o.state.Error = err.Error()
		o.mu.Unlock()
		o.notify()

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.logger.Error(ctx, "failed to initialize phase", zap.Error(err))
		return fmt.Errorf("failed to initialize %s: %w", p, err)
	}
	sessionID := newID()
	o.session = sess
	o.sessionID = sessionID
	o.state.HasSession = true
	if o.pending == 0 {
		o.state.SubState = SubStateReady
	}
	o.mu.Unlock()
	o.notify()

	o.logger.Debug(logging.WithSessionID(ctx, sessionID), "phase initialized")
	return nil
}

// Send submits message in the current phase. Blank messages and sends
// while the backend is unavailable are rejected without any change.
//
// The user entry is appended before dispatch. On success the AI reply is
// appended; on failure a system entry "Error: <message>" is appended and
// the error returned. If the phase changes before the reply arrives the
// reply is dropped and ErrPhaseChanged returned.
func (o *Orchestrator) Send(ctx context.Context, message string) error {
	if strings.TrimSpace(message) == "" {
		return ErrEmptyMessage
	}

	o.mu.Lock()
	if o.state.Backend != BackendReady {
		o.mu.Unlock()
		return ErrNotReady
	}
	epoch := o.epoch
	p := o.state.Phase
	history := historyTurns(o.state.Transcript)
	o.appendLocked(SenderUser, message, nil)
	o.pending++
	o.state.SubState = SubStateAwaitingResponse
	o.state.Error = ""

	d := dispatch{
		epoch:     epoch,
		phase:     p,
		message:   message,
		history:   history,
		session:   o.session,
		sessionID: o.sessionID,
		hadIdeas:  len(o.state.Ideas) > 0,
		problem:   o.state.ProblemStatement,
		inputs:    o.inputsLocked(),
	}
	if p == phase.Test {
		d.images = attachments.InlineAll(o.state.Images)
		d.imageGen = o.imageGen
	}
	o.mu.Unlock()
	o.notify()

	ctx = logging.WithRequestID(logging.WithPhase(ctx, p.String()), newID())
	if d.sessionID != "" {
		ctx = logging.WithSessionID(ctx, d.sessionID)
	}
	ctx, span := o.tracer.Start(ctx, "sprint.send",
		trace.WithAttributes(attribute.String("sprint.phase", p.String())))
	defer span.End()

	var err error
	if p == phase.Sketch {
		err = o.sendSketch(ctx, d)
	} else {
		err = o.sendChat(ctx, d)
	}

	switch {
	case err == nil:
		o.metrics.message(ctx, p, "ok")
		span.SetStatus(codes.Ok, "")
	case errors.Is(err, ErrPhaseChanged):
		o.metrics.message(ctx, p, "stale")
		o.metrics.staleResult(ctx, "send")
		o.logger.Debug(ctx, "discarded reply for a phase no longer current")
	default:
		o.metrics.message(ctx, p, "error")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.logger.Warn(ctx, "send failed", zap.Error(err))
	}
	return err
}

// dispatch is everything a Send needs, captured under the lock.
type dispatch struct {
	epoch     uint64
	phase     phase.SprintPhase
	message   string
	history   []gateway.Turn
	session   gateway.Session
	sessionID string
	hadIdeas  bool
	problem   string
	inputs    phase.Inputs
	images    []gateway.InlineData
	imageGen  uint64
}

func (o *Orchestrator) sendSketch(ctx context.Context, d dispatch) error {
	topic := d.message
	if !d.hadIdeas && d.problem != "" {
		topic = d.problem
	}
	instruction := phase.SketchInstruction{ProblemStatement: topic}.Render()

	reply, err := o.client.GenerateOnce(ctx, d.message, instruction)
	if err != nil {
		return o.fail(d.epoch, err)
	}
	texts := gateway.ExtractIdeas(reply.Text)

	o.mu.Lock()
	if d.epoch != o.epoch {
		o.mu.Unlock()
		return ErrPhaseChanged
	}
	if len(texts) > 0 {
		ideas := make([]Idea, len(texts))
		for i, text := range texts {
			ideas[i] = Idea{ID: newID(), Text: text}
		}
		o.state.Ideas = append(o.state.Ideas, ideas...)
		o.appendLocked(SenderSystem,
			fmt.Sprintf("%d new ideas generated and added below.", len(ideas)),
			&Metadata{Ideas: slices.Clone(ideas)})
	}
	o.appendLocked(SenderAI, reply.Text, citationMetadata(reply.Citations))
	o.doneLocked()
	o.mu.Unlock()
	o.notify()

	o.metrics.ideasAdded(ctx, len(texts))
	return nil
}

func (o *Orchestrator) sendChat(ctx context.Context, d dispatch) error {
	sess := d.session
	created := false
	if sess == nil {
		instruction := phase.MustLookup(d.phase).Instruction(d.inputs).Render()
		var err error
		sess, err = o.client.StartSession(ctx, instruction, d.history)
		if err != nil {
			return o.fail(d.epoch, err)
		}
		created = true
		d.sessionID = newID()
		ctx = logging.WithSessionID(ctx, d.sessionID)
		o.logger.Debug(ctx, "session opened lazily", zap.Int("history_turns", len(d.history)))
	}

	reply, err := sess.Send(ctx, gateway.Content{Images: d.images, Text: d.message})
	if err != nil {
		return o.fail(d.epoch, err)
	}

	o.mu.Lock()
	if d.epoch != o.epoch {
		o.mu.Unlock()
		return ErrPhaseChanged
	}
	if created && o.session == nil {
		o.session = sess
		o.sessionID = d.sessionID
		o.state.HasSession = true
	}
	switch d.phase {
	case phase.Prototype:
		o.state.PrototypeSpec = reply.Text
	case phase.Test:
		// Only the batch that was sent is consumed; a batch staged while
		// the reply was pending stays for the next message.
		if o.imageGen == d.imageGen {
			o.state.Images = nil
			o.imageGen++
		}
	}
	o.appendLocked(SenderAI, reply.Text, citationMetadata(reply.Citations))
	o.doneLocked()
	o.mu.Unlock()
	o.notify()
	return nil
}

// fail records a dispatch error unless the phase has moved on.
func (o *Orchestrator) fail(epoch uint64, err error) error {
	o.mu.Lock()
	if epoch != o.epoch {
		o.mu.Unlock()
		return ErrPhaseChanged
	}
	msg := err.Error()
	o.appendLocked(SenderSystem, "Error: "+msg, nil)
	o.state.Error = msg
	o.doneLocked()
	o.state.SubState = SubStateError
	o.mu.Unlock()
	o.notify()
	return err
}

func (o *Orchestrator) doneLocked() {
	if o.pending > 0 {
		o.pending--
	}
	if o.pending == 0 {
		o.state.SubState = SubStateReady
	}
}

// SetPersona updates the persona. In phases that use it, a phase with an
// empty transcript is re-initialized so the new persona takes effect.
func (o *Orchestrator) SetPersona(ctx context.Context, persona string) error {
	return o.setInput(ctx, func(s *State) { s.Persona = persona },
		func(c phase.Config) bool { return c.RequiresPersonaInput })
}

// SetProblemStatement updates the problem statement, re-initializing the
// phase under the same rule as SetPersona.
func (o *Orchestrator) SetProblemStatement(ctx context.Context, problem string) error {
	return o.setInput(ctx, func(s *State) { s.ProblemStatement = problem },
		func(c phase.Config) bool { return c.RequiresProblemStatementInput })
}

func (o *Orchestrator) setInput(ctx context.Context, set func(*State), consumes func(phase.Config) bool) error {
	o.mu.Lock()
	set(&o.state)
	reinit := o.state.Backend == BackendReady &&
		len(o.state.Transcript) == 0 &&
		consumes(phase.MustLookup(o.state.Phase))
	o.mu.Unlock()
	o.notify()

	if !reinit {
		return nil
	}
	return o.Initialize(ctx)
}

// SetImages replaces the staged images. In the Test phase a system note is
// added when images arrive before the conversation starts, and removed
// again when the list is cleared.
func (o *Orchestrator) SetImages(images []attachments.Image) error {
	if o.cfg.MaxImages > 0 && len(images) > o.cfg.MaxImages {
		return fmt.Errorf("%w: %d (limit %d)", attachments.ErrTooManyFiles, len(images), o.cfg.MaxImages)
	}

	o.mu.Lock()
	cfg := phase.MustLookup(o.state.Phase)
	if !cfg.AllowsImageUpload {
		o.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrImagesNotAllowed, o.state.Phase)
	}
	o.state.Images = slices.Clone(images)
	o.imageGen++
	switch {
	case len(images) > 0 && len(o.state.Transcript) == 0:
		o.appendLocked(SenderSystem, fmt.Sprintf(
			"%d image(s) loaded for testing. The AI will now analyze them. Ask a question to begin.", len(images)), nil)
	case len(images) == 0:
		o.state.Transcript = slices.DeleteFunc(o.state.Transcript, func(m Message) bool {
			return m.Sender == SenderSystem && strings.Contains(m.Text, imageNoteMarker)
		})
	}
	o.mu.Unlock()
	o.notify()
	return nil
}

// Imagine renders an image for prompt. The image is returned, not staged.
func (o *Orchestrator) Imagine(ctx context.Context, prompt string) (attachments.Image, error) {
	if strings.TrimSpace(prompt) == "" {
		return attachments.Image{}, ErrEmptyMessage
	}
	o.mu.Lock()
	ready := o.state.Backend == BackendReady
	o.mu.Unlock()
	if !ready {
		return attachments.Image{}, ErrNotReady
	}

	data, err := o.client.GenerateImage(ctx, prompt)
	if err != nil {
		o.logger.Warn(ctx, "image generation failed", zap.Error(err))
		return attachments.Image{}, err
	}
	return attachments.Image{Name: "generated-" + newID()[:8] + ".jpg", MIMEType: data.MIMEType, Data: data.Data}, nil
}

// Snapshot returns a deep copy of the current state.
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.clone()
}

// Subscribe registers fn to be called with a fresh snapshot after every
// state change. Calls happen outside the orchestrator's lock, on the
// goroutine that made the change. The returned func unregisters fn.
func (o *Orchestrator) Subscribe(fn func(State)) (unsubscribe func()) {
	o.listenerMu.Lock()
	id := o.nextListener
	o.nextListener++
	o.listeners[id] = fn
	o.listenerMu.Unlock()

	return func() {
		o.listenerMu.Lock()
		delete(o.listeners, id)
		o.listenerMu.Unlock()
	}
}

func (o *Orchestrator) notify() {
	o.listenerMu.Lock()
	if len(o.listeners) == 0 {
		o.listenerMu.Unlock()
		return
	}
	fns := make([]func(State), 0, len(o.listeners))
	for _, fn := range o.listeners {
		fns = append(fns, fn)
	}
	o.listenerMu.Unlock()

	snap := o.Snapshot()
	for _, fn := range fns {
		fn(snap)
	}
}

// inputsLocked resolves the current phase's instruction inputs.
func (o *Orchestrator) inputsLocked() phase.Inputs {
	in := phase.Inputs{Framework: o.cfg.DecideFramework}
	switch o.state.Phase {
	case phase.Understand, phase.Test:
		in.Persona = o.state.Persona
	case phase.Sketch:
		in.ProblemStatement = o.state.ProblemStatement
		if in.ProblemStatement == "" {
			in.ProblemStatement = fallbackProblem
		}
	case phase.Decide:
		ideas := o.state.Ideas
		if len(ideas) == 0 {
			ideas = o.carried
		}
		in.IdeasText = ideasText(ideas)
	}
	return in
}

// DecideIdeasText is the ideas parameter Decide would be initialized with
// if selected now.
func (o *Orchestrator) DecideIdeasText() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return ideasText(o.state.Ideas)
}

func ideasText(ideas []Idea) string {
	if len(ideas) == 0 {
		return fallbackIdeas
	}
	texts := make([]string, len(ideas))
	for i, idea := range ideas {
		texts[i] = idea.Text
	}
	return strings.Join(texts, "\n")
}

func (o *Orchestrator) appendLocked(sender Sender, text string, md *Metadata) {
	o.state.Transcript = append(o.state.Transcript, Message{
		ID:        newID(),
		Sender:    sender,
		Text:      text,
		Timestamp: o.now(),
		Metadata:  md,
	})
}

// historyTurns converts user and AI entries into session history.
func historyTurns(transcript []Message) []gateway.Turn {
	var turns []gateway.Turn
	for _, m := range transcript {
		switch m.Sender {
		case SenderUser:
			turns = append(turns, gateway.Turn{Role: gateway.RoleUser, Text: m.Text})
		case SenderAI:
			turns = append(turns, gateway.Turn{Role: gateway.RoleModel, Text: m.Text})
		}
	}
	return turns
}

func citationMetadata(c []gateway.Citation) *Metadata {
	if len(c) == 0 {
		return nil
	}
	return &Metadata{Citations: slices.Clone(c)}
}

// newID returns a time-ordered unique identifier.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
