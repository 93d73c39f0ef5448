package gateway

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/tmc/langchaingo/llms"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/designsprint/internal/config"
	"github.com/fyrsmithlabs/designsprint/internal/logging"
	"github.com/fyrsmithlabs/designsprint/internal/telemetry"
)

// Operation names used in spans and metric labels.
const (
	opStartSession    = "start_session"
	opSend            = "send"
	opGenerateOnce    = "generate_once"
	opGenerateSummary = "generate_summary"
	opGenerateImage   = "generate_image"
)

// backend is a provider implementation. It knows nothing about pacing,
// tracing or logging.
type backend interface {
	startChat(ctx context.Context, instruction string, history []Turn) (chat, error)
	generate(ctx context.Context, prompt, instruction string, grounded bool) (Reply, error)
	generateImage(ctx context.Context, prompt string) (InlineData, error)
	close() error
}

type chat interface {
	send(ctx context.Context, content Content) (Reply, error)
}

// Option configures a Client.
type Option func(*options)

type options struct {
	logger *logging.Logger
	tracer trace.Tracer
	meter  metric.Meter
	llm    llms.Model
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTelemetry records spans and metrics through t instead of the
// global providers.
func WithTelemetry(t *telemetry.Telemetry) Option {
	return func(o *options) {
		o.tracer = t.Tracer(instrumentationName)
		o.meter = t.Meter(instrumentationName)
	}
}

// WithLLM serves the client from an existing langchaingo model, regardless
// of ai.provider. The credential is still checked.
func WithLLM(m llms.Model) Option {
	return func(o *options) { o.llm = m }
}

type client struct {
	backend  backend
	provider string
	grounded bool
	limiter  *rate.Limiter
	tracer   trace.Tracer
	metrics  *metrics
	logger   *logging.Logger
	closed   atomic.Bool
}

// New creates a Client for cfg.
//
// A missing or placeholder credential returns ErrCredentialMissing or
// ErrCredentialPlaceholder; an unsupported provider returns
// ErrUnknownProvider. Both are configuration errors: the caller should
// report the backend as unavailable rather than retry.
func New(ctx context.Context, cfg config.AIConfig, opts ...Option) (Client, error) {
	if err := cfg.CredentialStatus(); err != nil {
		return nil, err
	}

	o := options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(instrumentationName)
	}
	if o.meter == nil {
		o.meter = otel.Meter(instrumentationName)
	}

	var (
		b        backend
		provider = cfg.Provider
		err      error
	)
	switch {
	case o.llm != nil:
		b = &langchainBackend{model: o.llm}
		if provider == "" {
			provider = config.ProviderOpenAI
		}
	case cfg.Provider == config.ProviderGemini || cfg.Provider == "":
		provider = config.ProviderGemini
		b, err = newGeminiBackend(ctx, cfg)
	case cfg.Provider == config.ProviderOpenAI:
		b, err = newLangchainBackend(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s backend: %w", provider, err)
	}

	m, err := newMetrics(o.meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway metrics: %w", err)
	}

	c := &client{
		backend:  b,
		provider: provider,
		grounded: cfg.SearchGrounding,
		limiter:  newLimiter(cfg.RequestsPerMinute),
		tracer:   o.tracer,
		metrics:  m,
		logger:   o.logger.Named("gateway"),
	}
	c.logger.Info(ctx, "AI gateway ready",
		zap.String("provider", provider),
		zap.String("model", cfg.Model),
		zap.Bool("search_grounding", cfg.SearchGrounding),
	)
	return c, nil
}

// newLimiter paces calls at rpm per minute with a small burst. Zero means
// unlimited.
func newLimiter(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := rpm / 10
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), burst)
}

// call runs fn inside a span, records metrics and, when paced, waits for
// the limiter first.
func (c *client) call(ctx context.Context, op string, paced bool, fn func(context.Context) error) error {
	if c.closed.Load() {
		return ErrClosed
	}

	ctx, span := c.tracer.Start(ctx, "gateway."+op, trace.WithAttributes(
		attribute.String("ai.provider", c.provider),
		attribute.String("ai.operation", op),
	))
	defer span.End()

	start := time.Now()
	var err error
	if paced {
		if werr := c.limiter.Wait(ctx); werr != nil {
			err = fmt.Errorf("rate limiter error: %w", werr)
		}
	}
	if err == nil {
		err = fn(ctx)
	}
	elapsed := time.Since(start)
	c.metrics.record(ctx, c.provider, op, elapsed, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn(ctx, "AI call failed",
			zap.String("operation", op),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return err
	}
	span.SetStatus(codes.Ok, "")
	c.logger.Debug(ctx, "AI call completed",
		zap.String("operation", op),
		zap.Duration("duration", elapsed),
	)
	return nil
}

func (c *client) StartSession(ctx context.Context, systemInstruction string, history []Turn) (Session, error) {
	var ch chat
	err := c.call(ctx, opStartSession, false, func(ctx context.Context) error {
		var err error
		ch, err = c.backend.startChat(ctx, systemInstruction, history)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &session{client: c, chat: ch, instruction: systemInstruction}, nil
}

func (c *client) GenerateOnce(ctx context.Context, prompt, systemInstruction string) (Reply, error) {
	var reply Reply
	err := c.call(ctx, opGenerateOnce, true, func(ctx context.Context) error {
		var err error
		reply, err = c.backend.generate(ctx, prompt, systemInstruction, c.grounded)
		return err
	})
	return reply, err
}

func (c *client) GenerateSummary(ctx context.Context, content, phaseLabel string) (string, error) {
	var reply Reply
	err := c.call(ctx, opGenerateSummary, true, func(ctx context.Context) error {
		var err error
		reply, err = c.backend.generate(ctx, SummaryPrompt(content, phaseLabel), "", false)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSummaryFailed, err)
		}
		return nil
	})
	return reply.Text, err
}

func (c *client) GenerateImage(ctx context.Context, prompt string) (InlineData, error) {
	var img InlineData
	err := c.call(ctx, opGenerateImage, true, func(ctx context.Context) error {
		var err error
		img, err = c.backend.generateImage(ctx, prompt)
		return err
	})
	return img, err
}

func (c *client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.backend.close()
}

type session struct {
	client      *client
	chat        chat
	instruction string
}

func (s *session) Send(ctx context.Context, content Content) (Reply, error) {
	var reply Reply
	err := s.client.call(ctx, opSend, true, func(ctx context.Context) error {
		var err error
		reply, err = s.chat.send(ctx, content)
		return err
	})
	return reply, err
}

func (s *session) SystemInstruction() string {
	return s.instruction
}
