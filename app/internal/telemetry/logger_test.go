package telemetry_test

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketconnect/llm-observability-demo/app/domain/entities"
	"github.com/marketconnect/llm-observability-demo/app/internal/telemetry"
)

var fixedNow = time.UnixMilli(1_700_000_000_000)

func newTestLogger(backend telemetry.Sink) (*telemetry.Logger, *recordingSink) {
	console := &recordingSink{}
	l := telemetry.NewLogger(console, backend,
		telemetry.WithClock(func() time.Time { return fixedNow }),
		telemetry.WithSessionID("session_test"))
	return l, console
}

func TestLogger_LogInteractionMergesPayload(t *testing.T) {
	backend := &recordingSink{}
	l, console := newTestLogger(backend)

	ev := l.LogInteraction(entities.EventRequest, map[string]any{"mode": "chat"})

	assert.Equal(t, "llm_request", ev.Name())
	assert.Equal(t, map[string]any{
		"mode":             "chat",
		"timestamp":        fixedNow.UnixMilli(),
		"session_id":       "session_test",
		"interaction_type": "request",
		"application_type": "llm_demo",
	}, ev.Payload)

	// Dual write: both sinks see the same event.
	require.Len(t, backend.events, 1)
	require.Len(t, console.events, 1)
	assert.Equal(t, ev, backend.events[0])
	assert.Equal(t, ev, console.events[0])
}

func TestLogger_CallerPayloadIsNotMutated(t *testing.T) {
	l, _ := newTestLogger(nil)
	payload := map[string]any{"k": 1}
	l.LogInteraction(entities.EventModeSwitch, payload)
	assert.Equal(t, map[string]any{"k": 1}, payload)
}

func TestLogger_NoBackendStillWritesConsole(t *testing.T) {
	l, console := newTestLogger(nil)
	l.LogModeSwitch(entities.ModeChat, entities.ModeSummarize)

	require.Len(t, console.events, 1)
	assert.Equal(t, "chat", console.events[0].Payload["from_mode"])
	assert.Equal(t, "summarize", console.events[0].Payload["to_mode"])
}

func TestLogger_UseBackend(t *testing.T) {
	l, _ := newTestLogger(nil)
	backend := &recordingSink{}

	l.LogModeSwitch(entities.ModeChat, entities.ModeCodegen)
	l.UseBackend(backend)
	l.LogModeSwitch(entities.ModeCodegen, entities.ModeChat)
	l.UseBackend(nil)
	l.LogModeSwitch(entities.ModeChat, entities.ModeSummarize)

	assert.Len(t, backend.events, 1)
}

func TestLogger_LogRequest(t *testing.T) {
	backend := &recordingSink{}
	l, _ := newTestLogger(backend)

	l.LogRequest(entities.RequestRecord{
		Mode:           entities.ModeSummarize,
		Model:          "gpt-4o",
		Prompt:         "hello",
		Response:       "hi!",
		Usage:          entities.TokenUsage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30},
		ResponseTimeMs: 250,
	})

	require.Len(t, backend.events, 1)
	p := backend.events[0].Payload
	assert.Equal(t, "summarize", p["mode"])
	assert.Equal(t, "gpt-4o", p["model"])
	assert.Equal(t, 5, p["prompt_length"])
	assert.Equal(t, 3, p["response_length"])
	assert.Equal(t, 30, p["total_tokens"])
	assert.Equal(t, int64(250), p["response_time_ms"])
	assert.InDelta(t, 30*0.00003, p["cost_estimate"], 1e-12)
}

func TestLogger_LogError(t *testing.T) {
	backend := &recordingSink{}
	l, console := newTestLogger(backend)

	err := errors.New("boom")
	l.LogError(entities.ModeCodegen, err, "write a parser")

	assert.Equal(t, 1, backend.count(entities.EventError))
	assert.Equal(t, 0, backend.count(entities.EventRequest))
	p := backend.events[0].Payload
	assert.Equal(t, "boom", p["error_message"])
	assert.Equal(t, "Error", p["error_type"])
	assert.Equal(t, len("write a parser"), p["prompt_length"])

	require.Len(t, backend.errs, 1, "error object goes to backend error tracking")
	assert.Equal(t, err, backend.errs[0])
	assert.Equal(t, "codegen", backend.ctxs[0]["mode"])
	assert.Empty(t, console.errs, "console only receives the event")
}

func TestLogger_LogSessionMetricsAndConfig(t *testing.T) {
	backend := &recordingSink{}
	l, _ := newTestLogger(backend)

	l.LogSessionMetrics(entities.SessionMetrics{TokenCount: 30, RequestCount: 1, TotalCost: 0.00006, AvgResponseTimeMs: 120})
	cfg := entities.DefaultConfig()
	cfg.APIKey = "sk-secret"
	l.LogConfigUpdate(cfg)
	l.LogAppInitialized(cfg)

	require.Len(t, backend.events, 3)
	assert.Equal(t, 30, backend.events[0].Payload["token_count"])
	assert.Equal(t, float64(120), backend.events[0].Payload["avg_response_time"])
	assert.Equal(t, true, backend.events[1].Payload["has_openai_key"])
	assert.Equal(t, false, backend.events[1].Payload["has_datadog_config"])
	for _, v := range backend.events[1].Payload {
		assert.NotEqual(t, "sk-secret", v, "config event must not carry the credential")
	}
	assert.Equal(t, true, backend.events[2].Payload["has_openai_config"])
}

func TestLogger_LogConfigUpdate_ClientTokenOnly(t *testing.T) {
	backend := &recordingSink{}
	l, _ := newTestLogger(backend)

	cfg := entities.DefaultConfig()
	cfg.Backend.ClientToken = "pub123"
	l.LogConfigUpdate(cfg)

	require.Len(t, backend.events, 1)
	assert.Equal(t, true, backend.events[0].Payload["has_datadog_config"])
}

func TestNewSessionID(t *testing.T) {
	id := telemetry.NewSessionID(fixedNow)
	assert.Regexp(t, regexp.MustCompile(`^session_1700000000000_[0-9a-z]{9}$`), id)
	assert.NotEqual(t, id, telemetry.NewSessionID(fixedNow))

	l := telemetry.NewLogger(nil, nil)
	assert.Equal(t, l.SessionID(), l.SessionID())
	ev1 := l.LogInteraction(entities.EventRequest, nil)
	ev2 := l.LogInteraction(entities.EventError, nil)
	assert.Equal(t, ev1.SessionID, ev2.SessionID)
}

func TestCalculateCost(t *testing.T) {
	tests := []struct {
		model string
		rate  float64
	}{
		{"gpt-4o", 0.00003},
		{"gpt-4o-mini", 0.000002},
		{"gpt-3.5-turbo", 0.000002},
		{"some-future-model", 0.000002},
		{"", 0.000002},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.rate, telemetry.CostPerToken(tt.model))
			assert.InDelta(t, 1234*tt.rate, telemetry.CalculateCost(1234, tt.model), 1e-12)
			assert.Zero(t, telemetry.CalculateCost(0, tt.model))
		})
	}
}

type kindError struct{}

func (kindError) Error() string { return "kinded" }
func (kindError) Kind() string { return "RequestError" }

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "RequestError", telemetry.ErrorKind(fmt.Errorf("wrapped: %w", kindError{})))
	assert.Equal(t, "TimeoutError", telemetry.ErrorKind(context.DeadlineExceeded))
	assert.Equal(t, "AbortError", telemetry.ErrorKind(context.Canceled))
	assert.Equal(t, "ConfigError", telemetry.ErrorKind(entities.ErrNotConfigured))
	assert.Equal(t, "Error", telemetry.ErrorKind(errors.New("x")))
}

func TestLogger_FlushWaitsForReplacedBackends(t *testing.T) {
	release := make(chan struct{})
	var delivered atomic.Int32
	backend := newReadyBackend()
	backend.AddActionFunc = func(string, map[string]any) error {
		<-release
		delivered.Add(1)
		return nil
	}

	l, _ := newTestLogger(telemetry.NewBackendSink(backend, nil))
	l.LogModeSwitch(entities.ModeChat, entities.ModeCodegen)
	l.UseBackend(telemetry.NullSink{})

	flushed := make(chan struct{})
	go func() {
		l.Flush()
		close(flushed)
	}()

	select {
	case <-flushed:
		t.Fatal("Flush returned before the in-flight delivery finished")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	<-flushed
	assert.Equal(t, int32(1), delivered.Load())
}
