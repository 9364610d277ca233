package telemetry

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/marketconnect/llm-observability-demo/app/domain/entities"
)

// Await waits up to timeout for backend to become ready. It returns a BackendSink
// when the backend is ready and a NullSink when it is absent, times out, or ctx ends.
func Await(ctx context.Context, backend Backend, timeout time.Duration, logger *zap.Logger) Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	if backend == nil {
		return NullSink{}
	}

	if timeout <= 0 {
		select {
		case <-backend.Ready():
			return NewBackendSink(backend, logger)
		default:
			logger.Warn("observability backend not ready, falling back to null sink")
			return NullSink{}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case <-backend.Ready():
		return NewBackendSink(backend, logger)
	case <-ctx.Done():
		logger.Warn("observability backend not ready, falling back to null sink",
			zap.Duration("timeout", timeout), zap.Error(ctx.Err()))
		return NullSink{}
	}
}

// Selector picks the backend sink for a configuration.
type Selector struct {
	Options HTTPBackendOptions
	Timeout time.Duration
	Logger  *zap.Logger
}

// Select returns a NullSink when cfg has no usable backend settings, otherwise the
// sink produced by Await for a new HTTPBackend.
func (s Selector) Select(ctx context.Context, cfg entities.Config) Sink {
	if !cfg.IsBackendConfigured() {
		return NullSink{}
	}
	return Await(ctx, NewHTTPBackend(cfg.Backend, s.Options), s.Timeout, s.Logger)
}
