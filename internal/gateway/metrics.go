package gateway

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/fyrsmithlabs/designsprint/internal/gateway"

// Metric names.
const (
	MetricRequests        = "designsprint.ai.requests_total"
	MetricRequestDuration = "designsprint.ai.request_duration_seconds"
)

type metrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

func newMetrics(meter metric.Meter) (*metrics, error) {
	m := &metrics{}
	var err error

	m.requests, err = meter.Int64Counter(
		MetricRequests,
		metric.WithDescription("AI backend calls by provider, operation and status"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	// Generations routinely take seconds; buckets reach past a minute.
	m.duration, err = meter.Float64Histogram(
		MetricRequestDuration,
		metric.WithDescription("Duration of AI backend calls in seconds, including rate limiter wait"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *metrics) record(ctx context.Context, provider, operation string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
	m.requests.Add(ctx, 1, attrs)
	m.duration.Record(ctx, d.Seconds(), attrs)
}
