package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/marketconnect/llm-observability-demo/app/internal/completion"
	"github.com/marketconnect/llm-observability-demo/app/internal/config"
	"github.com/marketconnect/llm-observability-demo/app/internal/coordinator"
	"github.com/marketconnect/llm-observability-demo/app/internal/handlers"
	"github.com/marketconnect/llm-observability-demo/app/internal/repository"
	"github.com/marketconnect/llm-observability-demo/app/internal/session"
	"github.com/marketconnect/llm-observability-demo/app/internal/telemetry"

	_ "github.com/mattn/go-sqlite3"
)

const shutdownTimeout = 5 * time.Second

// App holds all application dependencies
type App struct {
	Env         *config.Env
	Logger      *zap.Logger
	Repository  repository.Repository
	Store       *config.Store
	Events      *telemetry.Logger
	Client      *completion.Client
	Metrics     *session.Aggregator
	Coordinator *coordinator.Coordinator
}

// NewApp creates and initializes all application dependencies
func NewApp(env *config.Env, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var repo repository.Repository
	var err error

	logger.Info("initializing configuration repository", zap.String("type", env.Repository.Type))

	switch env.Repository.Type {
	case "sqlite":
		repo, err = repository.NewSQLiteRepository(env.Repository.SQLiteDSN, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
	case "memory":
		fallthrough
	default:
		repo = repository.NewMemoryRepository()
	}

	if err := repo.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}

	store := config.NewStore(repo, logger, config.WithDefaults(env.ConfigDefaults()))
	events := telemetry.NewLogger(telemetry.NewConsoleSink(logger), nil)
	client := completion.NewClient("", env.OpenAI.Model, events,
		completion.WithBaseURL(env.OpenAI.BaseURL),
		completion.WithLogger(logger),
	)
	metrics := session.NewAggregator(events)

	coord := coordinator.New(coordinator.Deps{
		Store:   store,
		Client:  client,
		Metrics: metrics,
		Events:  events,
		Selector: telemetry.Selector{
			Options: telemetry.HTTPBackendOptions{IntakeURL: env.Datadog.IntakeURL},
			Timeout: env.Datadog.ReadyTimeout,
			Logger:  logger,
		},
		Logger: logger,
	})

	return &App{
		Env:         env,
		Logger:      logger,
		Repository:  repo,
		Store:       store,
		Events:      events,
		Client:      client,
		Metrics:     metrics,
		Coordinator: coord,
	}, nil
}

// Start loads the persisted configuration and starts the telemetry session.
func (a *App) Start(ctx context.Context) {
	a.Coordinator.Start(ctx)
}

// Close waits for pending telemetry deliveries and cleans up all dependencies
func (a *App) Close() error {
	if a.Events != nil {
		a.Events.Flush()
	}
	if a.Repository != nil {
		if err := a.Repository.Close(); err != nil {
			return fmt.Errorf("failed to close repository: %w", err)
		}
	}
	return nil
}

// Handler returns the HTTP API and static file server.
func (a *App) Handler() http.Handler {
	return handlers.NewRouter(
		handlers.NewAPIHandler(a.Coordinator, a.Logger),
		handlers.NewStaticHandler(a.Env.HTTP.StaticDir, a.Env.TemplateVars(), a.Logger),
	)
}

// Run serves on the configured address until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Env.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Env.Addr(), err)
	}
	return a.Serve(ctx, ln)
}

// Serve starts the session and serves on ln until ctx is canceled, then shuts
// the server down gracefully.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	a.Start(ctx)

	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info("starting server",
			zap.String("addr", ln.Addr().String()),
			zap.String("static_dir", a.Env.HTTP.StaticDir),
			zap.Bool("openai_key_loaded", a.Env.OpenAI.APIKey != ""),
			zap.Bool("datadog_client_token_loaded", a.Env.Datadog.ClientToken != ""),
			zap.Bool("datadog_app_id_loaded", a.Env.Datadog.ApplicationID != ""))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
