// Package observability provides structured logging, metrics, and
// tracing helpers for the hostbridge client.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// Metrics and tracing are opt-in and have no-op implementations when
// disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds client context to a logger.
// Returns a new logger carrying the client_id field.
func EnrichLogger(logger *slog.Logger, clientID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("client_id", clientID))
}

// LogAttached logs successful binding to the transport.
func LogAttached(logger *slog.Logger, clientID string) {
	if logger == nil {
		return
	}
	logger.Info("client attached to transport",
		slog.String("client_id", clientID),
	)
}

// LogRequestSent logs an outbound correlated request.
func LogRequestSent(logger *slog.Logger, name string, messageID int64) {
	if logger == nil {
		return
	}
	logger.Debug("request sent",
		slog.String("name", name),
		slog.Int64("message_id", messageID),
	)
}

// LogSettled logs settlement of a pending request.
func LogSettled(logger *slog.Logger, messageID int64, durationMs float64, err error) {
	if logger == nil {
		return
	}
	if err != nil {
		logger.Debug("request rejected",
			slog.Int64("message_id", messageID),
			slog.Float64("duration_ms", durationMs),
			slog.String("error", err.Error()),
		)
		return
	}
	logger.Debug("request resolved",
		slog.Int64("message_id", messageID),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogEventDispatched logs forwarding of an unsolicited message.
func LogEventDispatched(logger *slog.Logger, name string, listeners int) {
	if logger == nil {
		return
	}
	logger.Debug("event dispatched",
		slog.String("event", name),
		slog.Int("listeners", listeners),
	)
}

// LogDropped logs a dropped malformed inbound message.
func LogDropped(logger *slog.Logger, err error) {
	if logger == nil {
		return
	}
	logger.Debug("dropping malformed inbound message",
		slog.String("error", err.Error()),
	)
}

// LogTeardown logs client teardown.
func LogTeardown(logger *slog.Logger, clientID string, rejected int) {
	if logger == nil {
		return
	}
	logger.Info("client torn down",
		slog.String("client_id", clientID),
		slog.Int("pending_rejected", rejected),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
