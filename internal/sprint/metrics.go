package sprint

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/designsprint/internal/logging"
	"github.com/fyrsmithlabs/designsprint/internal/phase"
)

const instrumentationName = "github.com/fyrsmithlabs/designsprint/internal/sprint"

// Metric names.
const (
	MetricMessages     = "designsprint.sprint.messages_total"
	MetricPhaseSwitch  = "designsprint.sprint.phase_switches_total"
	MetricIdeas        = "designsprint.sprint.ideas_total"
	MetricStaleResults = "designsprint.sprint.stale_results_total"
	MetricSummaries    = "designsprint.sprint.summaries_total"
)

type metrics struct {
	messages  metric.Int64Counter
	switches  metric.Int64Counter
	ideas     metric.Int64Counter
	stale     metric.Int64Counter
	summaries metric.Int64Counter
}

// newMetrics creates the orchestrator counters. A failed instrument is
// logged and left nil; recording on it is skipped.
func newMetrics(meter metric.Meter, logger *logging.Logger) *metrics {
	m := &metrics{}
	var err error

	m.messages, err = meter.Int64Counter(MetricMessages,
		metric.WithDescription("User messages sent, by phase and outcome"),
		metric.WithUnit("{message}"))
	if err != nil {
		logger.Warn(context.Background(), "failed to create messages counter", zap.Error(err))
	}

	m.switches, err = meter.Int64Counter(MetricPhaseSwitch,
		metric.WithDescription("Phase selections, by target phase"),
		metric.WithUnit("{switch}"))
	if err != nil {
		logger.Warn(context.Background(), "failed to create phase switch counter", zap.Error(err))
	}

	m.ideas, err = meter.Int64Counter(MetricIdeas,
		metric.WithDescription("Ideas extracted from Sketch replies"),
		metric.WithUnit("{idea}"))
	if err != nil {
		logger.Warn(context.Background(), "failed to create ideas counter", zap.Error(err))
	}

	m.stale, err = meter.Int64Counter(MetricStaleResults,
		metric.WithDescription("Results discarded because the phase changed while they were pending"),
		metric.WithUnit("{result}"))
	if err != nil {
		logger.Warn(context.Background(), "failed to create stale results counter", zap.Error(err))
	}

	m.summaries, err = meter.Int64Counter(MetricSummaries,
		metric.WithDescription("Summary requests, by phase and outcome"),
		metric.WithUnit("{summary}"))
	if err != nil {
		logger.Warn(context.Background(), "failed to create summaries counter", zap.Error(err))
	}
	return m
}

func add(ctx context.Context, c metric.Int64Counter, n int64, attrs ...attribute.KeyValue) {
	if c == nil || n == 0 {
		return
	}
	c.Add(ctx, n, metric.WithAttributes(attrs...))
}

func (m *metrics) message(ctx context.Context, p phase.SprintPhase, outcome string) {
	add(ctx, m.messages, 1, attribute.String("phase", p.String()), attribute.String("outcome", outcome))
}

func (m *metrics) phaseSwitch(ctx context.Context, p phase.SprintPhase) {
	add(ctx, m.switches, 1, attribute.String("phase", p.String()))
}

func (m *metrics) ideasAdded(ctx context.Context, n int) {
	add(ctx, m.ideas, int64(n))
}

func (m *metrics) staleResult(ctx context.Context, operation string) {
	add(ctx, m.stale, 1, attribute.String("operation", operation))
}

func (m *metrics) summary(ctx context.Context, p phase.SprintPhase, outcome string) {
	add(ctx, m.summaries, 1, attribute.String("phase", p.String()), attribute.String("outcome", outcome))
}
