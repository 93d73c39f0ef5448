package telemetry

import (
	"context"
	"fmt"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestTelemetry records spans and metrics in memory.
type TestTelemetry struct {
	*Telemetry
	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
}

// NewTestTelemetry returns an enabled Telemetry backed by a span recorder
// and a manual metric reader.
func NewTestTelemetry() *TestTelemetry {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	spans := tracetest.NewSpanRecorder()
	reader := sdkmetric.NewManualReader()
	return &TestTelemetry{
		Telemetry: &Telemetry{
			cfg: cfg,
			tp:  sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)),
			mp:  sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
		},
		spans:  spans,
		reader: reader,
	}
}

// SpanByName returns the first ended span called name, or nil.
func (t *TestTelemetry) SpanByName(name string) sdktrace.ReadOnlySpan {
	for _, s := range t.spans.Ended() {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

// AssertSpanExists fails tb unless a span called name has ended.
func (t *TestTelemetry) AssertSpanExists(tb testing.TB, name string) {
	tb.Helper()
	if t.SpanByName(name) != nil {
		return
	}
	var names []string
	for _, s := range t.spans.Ended() {
		names = append(names, s.Name())
	}
	tb.Errorf("no span %q; ended spans: %v", name, names)
}

// AssertSpanAttribute fails tb unless span name carries key with value want.
func (t *TestTelemetry) AssertSpanAttribute(tb testing.TB, name, key string, want any) {
	tb.Helper()
	s := t.SpanByName(name)
	if s == nil {
		tb.Fatalf("no span %q", name)
	}
	for _, kv := range s.Attributes() {
		if string(kv.Key) != key {
			continue
		}
		if got := kv.Value.AsInterface(); fmt.Sprint(got) != fmt.Sprint(want) {
			tb.Errorf("span %q %s = %v, want %v", name, key, got, want)
		}
		return
	}
	tb.Errorf("span %q has no attribute %q", name, key)
}

// Int64Sum totals the int64 sum points of metric name whose attributes
// include every entry of match.
func (t *TestTelemetry) Int64Sum(tb testing.TB, name string, match ...attribute.KeyValue) int64 {
	tb.Helper()
	var total int64
	for _, data := range t.collect(tb, name) {
		sum, ok := data.(metricdata.Sum[int64])
		if !ok {
			tb.Fatalf("metric %q holds %T, want an int64 sum", name, data)
		}
		for _, dp := range sum.DataPoints {
			if matches(dp.Attributes, match) {
				total += dp.Value
			}
		}
	}
	return total
}

// HistogramCount counts the float64 observations of metric name whose
// attributes include every entry of match.
func (t *TestTelemetry) HistogramCount(tb testing.TB, name string, match ...attribute.KeyValue) uint64 {
	tb.Helper()
	var count uint64
	for _, data := range t.collect(tb, name) {
		hist, ok := data.(metricdata.Histogram[float64])
		if !ok {
			tb.Fatalf("metric %q holds %T, want a float64 histogram", name, data)
		}
		for _, dp := range hist.DataPoints {
			if matches(dp.Attributes, match) {
				count += dp.Count
			}
		}
	}
	return count
}

func (t *TestTelemetry) collect(tb testing.TB, name string) []metricdata.Aggregation {
	tb.Helper()
	var rm metricdata.ResourceMetrics
	if err := t.reader.Collect(context.Background(), &rm); err != nil {
		tb.Fatalf("collect metrics: %v", err)
	}
	var out []metricdata.Aggregation
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				out = append(out, m.Data)
			}
		}
	}
	return out
}

func matches(set attribute.Set, want []attribute.KeyValue) bool {
	for _, kv := range want {
		v, ok := set.Value(kv.Key)
		if !ok || v != kv.Value {
			return false
		}
	}
	return true
}
