package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics is a MetricsRecorder that does nothing.
// Use when metrics are disabled to avoid overhead.
type NoopMetrics struct{}

// Compile-time interface check.
var _ MetricsRecorder = NoopMetrics{}

// RecordRequest does nothing.
func (NoopMetrics) RecordRequest(_ context.Context, _ string) {}

// RecordSettlement does nothing.
func (NoopMetrics) RecordSettlement(_ context.Context, _ string, _ time.Duration, _ error) {}

// RecordEventDispatch does nothing.
func (NoopMetrics) RecordEventDispatch(_ context.Context, _ string, _ int) {}

// RecordListenerFailure does nothing.
func (NoopMetrics) RecordListenerFailure(_ context.Context, _ string) {}

// NoopSpanManager is a SpanManager that does nothing.
// Use when tracing is disabled to avoid overhead.
type NoopSpanManager struct{}

// Compile-time interface check.
var _ SpanManager = NoopSpanManager{}

// noopSpan is a span that does nothing.
// We use the OTel noop package for a proper no-op span implementation.
var noopSpan = noop.Span{}

// StartRequestSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartRequestSpan(ctx context.Context, _ string, _ int64) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// EndSpanWithError does nothing.
func (NoopSpanManager) EndSpanWithError(_ trace.Span, _ error) {}
