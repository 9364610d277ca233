package telemetry

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	"github.com/marketconnect/llm-observability-demo/app/domain/entities"
)

// Logger builds structured interaction events and dual-writes them: to the backend
// sink (a NullSink when no backend is available) and always to the console sink.
type Logger struct {
	console   Sink
	sessionID string
	now       func() time.Time

	mu      sync.RWMutex
	backend Sink
	retired []Sink
}

// LoggerOption configures a Logger.
type LoggerOption func(*Logger)

// WithClock sets the time source used for event timestamps.
func WithClock(now func() time.Time) LoggerOption {
	return func(l *Logger) { l.now = now }
}

// WithSessionID pins the session identifier instead of generating one.
func WithSessionID(id string) LoggerOption {
	return func(l *Logger) { l.sessionID = id }
}

// NewLogger creates a Logger. A nil backend means no backend.
func NewLogger(console, backend Sink, opts ...LoggerOption) *Logger {
	if console == nil {
		console = NullSink{}
	}
	if backend == nil {
		backend = NullSink{}
	}
	l := &Logger{console: console, backend: backend, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	if l.sessionID == "" {
		l.sessionID = NewSessionID(l.now())
	}
	return l
}

// SessionID is generated once per Logger and reused for every event.
func (l *Logger) SessionID() string { return l.sessionID }

// UseBackend swaps the backend sink, e.g. after the backend configuration changed.
func (l *Logger) UseBackend(s Sink) {
	if s == nil {
		s = NullSink{}
	}
	l.mu.Lock()
	if _, ok := l.backend.(interface{ Wait() }); ok {
		l.retired = append(l.retired, l.backend)
	}
	l.backend = s
	l.mu.Unlock()
}

// Flush waits for backend deliveries still in flight, including those of sinks
// replaced by UseBackend.
func (l *Logger) Flush() {
	l.mu.Lock()
	sinks := append(l.retired, l.backend)
	l.retired = nil
	l.mu.Unlock()

	for _, s := range sinks {
		if w, ok := s.(interface{ Wait() }); ok {
			w.Wait()
		}
	}
}

func (l *Logger) backendSink() Sink {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.backend
}

// LogInteraction merges payload with the timestamp, session id and type tags and
// emits the event to both sinks.
func (l *Logger) LogInteraction(t entities.EventType, payload map[string]any) entities.TelemetryEvent {
	now := l.now()
	merged := make(map[string]any, len(payload)+4)
	maps.Copy(merged, payload)
	merged["timestamp"] = now.UnixMilli()
	merged["session_id"] = l.sessionID
	merged["interaction_type"] = string(t)
	merged["application_type"] = entities.ApplicationType

	ev := entities.TelemetryEvent{
		Type:      t,
		Timestamp: now,
		SessionID: l.sessionID,
		Payload:   merged,
	}
	l.backendSink().Emit(ev)
	l.console.Emit(ev)
	return ev
}

// LogRequest records a successful completion.
func (l *Logger) LogRequest(rec entities.RequestRecord) {
	l.LogInteraction(entities.EventRequest, map[string]any{
		"mode":              string(rec.Mode),
		"model":             rec.Model,
		"prompt_length":     len(rec.Prompt),
		"response_length":   len(rec.Response),
		"prompt_tokens":     rec.Usage.PromptTokens,
		"completion_tokens": rec.Usage.CompletionTokens,
		"total_tokens":      rec.Usage.TotalTokens,
		"response_time_ms":  rec.ResponseTimeMs,
		"cost_estimate":     CalculateCost(rec.Usage.TotalTokens, rec.Model),
	})
}

// LogError records a failed completion and reports the error to the backend's
// error tracking.
func (l *Logger) LogError(mode entities.Mode, err error, prompt string) {
	l.LogInteraction(entities.EventError, map[string]any{
		"mode":          string(mode),
		"error_message": err.Error(),
		"error_type":    ErrorKind(err),
		"prompt_length": len(prompt),
	})
	l.backendSink().EmitError(err, map[string]any{
		"mode":          string(mode),
		"prompt_length": len(prompt),
	})
}

// LogModeSwitch records a change of the active mode.
func (l *Logger) LogModeSwitch(from, to entities.Mode) {
	l.LogInteraction(entities.EventModeSwitch, map[string]any{
		"from_mode": string(from),
		"to_mode":   string(to),
	})
}

// LogConfigUpdate records a saved configuration without its secrets.
func (l *Logger) LogConfigUpdate(cfg entities.Config) {
	l.LogInteraction(entities.EventConfigUpdate, map[string]any{
		"has_openai_key":     cfg.APIKey != "",
		"model":              cfg.Model,
		"has_datadog_config": cfg.Backend.ClientToken != "",
		"site":               cfg.Backend.Site,
		"service":            cfg.Backend.Service,
		"env":                cfg.Backend.Env,
	})
}

// LogSessionMetrics records the full running session summary.
func (l *Logger) LogSessionMetrics(m entities.SessionMetrics) {
	l.LogInteraction(entities.EventSessionMetrics, map[string]any{
		"token_count":       m.TokenCount,
		"request_count":     m.RequestCount,
		"total_cost":        m.TotalCost,
		"avg_response_time": m.AvgResponseTimeMs,
	})
}

// LogAppInitialized records client start-up.
func (l *Logger) LogAppInitialized(cfg entities.Config) {
	l.LogInteraction(entities.EventAppInitialized, map[string]any{
		"version":            cfg.Backend.Version,
		"site":               cfg.Backend.Site,
		"service":            cfg.Backend.Service,
		"env":                cfg.Backend.Env,
		"has_openai_config":  cfg.IsCompletionServiceConfigured(),
		"has_datadog_config": cfg.IsBackendConfigured(),
	})
}

// ErrorKind classifies err for telemetry. Errors may name their own kind with a
// Kind() string method.
func ErrorKind(err error) string {
	var k interface{ Kind() string }
	switch {
	case errors.As(err, &k):
		return k.Kind()
	case errors.Is(err, context.DeadlineExceeded):
		return "TimeoutError"
	case errors.Is(err, context.Canceled):
		return "AbortError"
	case errors.Is(err, entities.ErrNotConfigured), errors.Is(err, entities.ErrMissingCredential):
		return "ConfigError"
	default:
		return "Error"
	}
}
