package hostbridge

import (
	"fmt"
	"log/slog"

	"github.com/randalmurphal/hostbridge/pkg/hostbridge/config"
	"github.com/randalmurphal/hostbridge/pkg/hostbridge/journal"
)

// settings holds construction configuration for a Client.
type settings struct {
	logger  *slog.Logger
	debug   bool
	journal journal.Store
	metrics bool
	tracing bool
}

func defaultSettings() settings {
	return settings{
		logger: slog.Default(),
	}
}

// Option configures client construction.
type Option func(*settings)

// WithLogger sets the structured logger. Warnings are always emitted;
// informational diagnostics additionally require WithDebug(true).
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDebug enables informational (non-warning) diagnostics.
func WithDebug(debug bool) Option {
	return func(s *settings) {
		s.debug = debug
	}
}

// WithJournal records every outbound send and routed inbound message to
// the given store. Journal failures are logged and never affect routing.
func WithJournal(store journal.Store) Option {
	return func(s *settings) {
		s.journal = store
	}
}

// WithMetrics enables OpenTelemetry metrics via the global meter
// provider.
func WithMetrics(enabled bool) Option {
	return func(s *settings) {
		s.metrics = enabled
	}
}

// WithTracing enables an OpenTelemetry span per request round-trip via
// the global tracer provider.
func WithTracing(enabled bool) Option {
	return func(s *settings) {
		s.tracing = enabled
	}
}

// OptionsFromConfig translates recognized config keys into options:
// debug, journal_path, metrics, tracing.
func OptionsFromConfig(cfg config.Config) ([]Option, error) {
	var opts []Option

	if cfg.Bool("debug", false) {
		opts = append(opts, WithDebug(true))
	}
	if path := cfg.String("journal_path", ""); path != "" {
		store, err := journal.NewSQLiteStore(path)
		if err != nil {
			return nil, fmt.Errorf("open journal store: %w", err)
		}
		opts = append(opts, WithJournal(store))
	}
	if cfg.Bool("metrics", false) {
		opts = append(opts, WithMetrics(true))
	}
	if cfg.Bool("tracing", false) {
		opts = append(opts, WithTracing(true))
	}

	return opts, nil
}
