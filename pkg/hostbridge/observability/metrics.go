package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records hostbridge metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordRequest records an outbound correlated request.
	RecordRequest(ctx context.Context, name string)

	// RecordSettlement records settlement of a pending request with its
	// round-trip duration and error status.
	RecordSettlement(ctx context.Context, name string, duration time.Duration, err error)

	// RecordEventDispatch records dispatch of an unsolicited message.
	RecordEventDispatch(ctx context.Context, name string, listeners int)

	// RecordListenerFailure records a recovered listener panic.
	RecordListenerFailure(ctx context.Context, name string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	requests         metric.Int64Counter
	settlements      metric.Int64Counter
	requestLatency   metric.Float64Histogram
	eventsDispatched metric.Int64Counter
	listenerFailures metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("hostbridge")

	requests, err := meter.Int64Counter("hostbridge.requests",
		metric.WithDescription("Number of correlated requests sent"),
	)
	if err != nil {
		return nil, err
	}

	settlements, err := meter.Int64Counter("hostbridge.settlements",
		metric.WithDescription("Number of pending requests settled"),
	)
	if err != nil {
		return nil, err
	}

	requestLatency, err := meter.Float64Histogram("hostbridge.request.latency_ms",
		metric.WithDescription("Request round-trip latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	eventsDispatched, err := meter.Int64Counter("hostbridge.events.dispatched",
		metric.WithDescription("Number of unsolicited messages dispatched"),
	)
	if err != nil {
		return nil, err
	}

	listenerFailures, err := meter.Int64Counter("hostbridge.listener.failures",
		metric.WithDescription("Number of recovered listener panics"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		requests:         requests,
		settlements:      settlements,
		requestLatency:   requestLatency,
		eventsDispatched: eventsDispatched,
		listenerFailures: listenerFailures,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordRequest records an outbound correlated request.
func (m *otelMetrics) RecordRequest(ctx context.Context, name string) {
	m.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("name", name),
	))
}

// RecordSettlement records a settlement.
func (m *otelMetrics) RecordSettlement(ctx context.Context, name string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("name", name),
		attribute.Bool("rejected", err != nil),
	}
	m.settlements.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.requestLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordEventDispatch records an event dispatch.
func (m *otelMetrics) RecordEventDispatch(ctx context.Context, name string, listeners int) {
	m.eventsDispatched.Add(ctx, 1, metric.WithAttributes(
		attribute.String("name", name),
		attribute.Int("listeners", listeners),
	))
}

// RecordListenerFailure records a recovered listener panic.
func (m *otelMetrics) RecordListenerFailure(ctx context.Context, name string) {
	m.listenerFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("name", name),
	))
}
