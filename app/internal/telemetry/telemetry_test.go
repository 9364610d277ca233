package telemetry_test

import (
	"errors"
	"sync"

	"github.com/marketconnect/llm-observability-demo/app/domain/entities"
)

type recordingSink struct {
	mu     sync.Mutex
	events []entities.TelemetryEvent
	errs   []error
	ctxs   []map[string]any
}

func (s *recordingSink) Emit(ev entities.TelemetryEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) EmitError(err error, context map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
	s.ctxs = append(s.ctxs, context)
}

func (s *recordingSink) count(t entities.EventType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ev := range s.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

type mockBackend struct {
	AddActionFunc func(name string, payload map[string]any) error
	AddErrorFunc  func(err error, context map[string]any) error
	ready         chan struct{}
}

func newReadyBackend() *mockBackend {
	b := &mockBackend{ready: make(chan struct{})}
	close(b.ready)
	return b
}

func (m *mockBackend) AddAction(name string, payload map[string]any) error {
	if m.AddActionFunc != nil {
		return m.AddActionFunc(name, payload)
	}
	return nil
}

func (m *mockBackend) AddError(err error, context map[string]any) error {
	if m.AddErrorFunc != nil {
		return m.AddErrorFunc(err, context)
	}
	return errors.New("AddErrorFunc not implemented")
}

func (m *mockBackend) Ready() <-chan struct{} { return m.ready }
