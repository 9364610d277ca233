package telemetry

import (
	"maps"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/marketconnect/llm-observability-demo/app/domain/entities"
)

// Sink receives telemetry events. Implementations never return errors to the caller:
// emission is best-effort.
type Sink interface {
	Emit(ev entities.TelemetryEvent)
	EmitError(err error, context map[string]any)
}

// NullSink drops everything.
type NullSink struct{}

func (NullSink) Emit(entities.TelemetryEvent) {}
func (NullSink) EmitError(error, map[string]any) {}

// ConsoleSink writes every event as one structured log line.
type ConsoleSink struct {
	logger *zap.Logger
}

// NewConsoleSink creates a ConsoleSink writing to logger.
func NewConsoleSink(logger *zap.Logger) *ConsoleSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleSink{logger: logger.Named("telemetry")}
}

func (s *ConsoleSink) Emit(ev entities.TelemetryEvent) {
	fields := make([]zap.Field, 0, len(ev.Payload)+1)
	fields = append(fields, zap.String("action", ev.Name()))
	for _, k := range slices.Sorted(maps.Keys(ev.Payload)) {
		fields = append(fields, zap.Any(k, ev.Payload[k]))
	}
	s.logger.Info("telemetry event", fields...)
}

func (s *ConsoleSink) EmitError(err error, context map[string]any) {
	fields := []zap.Field{zap.Error(err)}
	for _, k := range slices.Sorted(maps.Keys(context)) {
		fields = append(fields, zap.Any(k, context[k]))
	}
	s.logger.Warn("telemetry error", fields...)
}

// Backend is an observability backend client.
type Backend interface {
	AddAction(name string, payload map[string]any) error
	AddError(err error, context map[string]any) error
	// Ready is closed once the backend can accept events.
	Ready() <-chan struct{}
}

// DefaultMaxInFlight bounds the backend calls a BackendSink runs at once.
const DefaultMaxInFlight = 16

// BackendSink forwards events to a Backend without blocking the caller. Calls run
// in background goroutines, at most DefaultMaxInFlight at a time; events arriving
// while all slots are taken are dropped. Backend failures are logged, never returned.
type BackendSink struct {
	backend Backend
	logger  *zap.Logger
	slots   chan struct{}
	wg      sync.WaitGroup
}

// NewBackendSink wraps backend.
func NewBackendSink(backend Backend, logger *zap.Logger) *BackendSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackendSink{
		backend: backend,
		logger:  logger,
		slots:   make(chan struct{}, DefaultMaxInFlight),
	}
}

func (s *BackendSink) Emit(ev entities.TelemetryEvent) {
	s.dispatch("add action", func() error {
		return s.backend.AddAction(ev.Name(), ev.Payload)
	})
}

func (s *BackendSink) EmitError(err error, context map[string]any) {
	s.dispatch("add error", func() error {
		return s.backend.AddError(err, context)
	})
}

// Wait blocks until every dispatched backend call has finished.
func (s *BackendSink) Wait() {
	s.wg.Wait()
}

func (s *BackendSink) dispatch(op string, fn func() error) {
	select {
	case s.slots <- struct{}{}:
	default:
		s.logger.Warn("observability backend busy, dropping telemetry", zap.String("op", op))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { <-s.slots }()
		s.safely(op, fn)
	}()
}

func (s *BackendSink) safely(op string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("observability backend panicked", zap.String("op", op), zap.Any("panic", r))
		}
	}()
	if err := fn(); err != nil {
		s.logger.Error("failed to send telemetry to backend", zap.String("op", op), zap.Error(err))
	}
}
