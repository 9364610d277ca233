package coordinator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/marketconnect/llm-observability-demo/app/domain/entities"
	"github.com/marketconnect/llm-observability-demo/app/internal/completion"
	"github.com/marketconnect/llm-observability-demo/app/internal/config"
	"github.com/marketconnect/llm-observability-demo/app/internal/session"
	"github.com/marketconnect/llm-observability-demo/app/internal/telemetry"
)

// SelfCheckPrompt is sent by SelfCheck to produce one observable request end to end.
const SelfCheckPrompt = `Say "LLM Observability Test" and nothing else.`

// InputError is a user input problem with a message meant for display.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

func (e *InputError) Is(target error) bool { return target == entities.ErrEmptyInput }

var (
	errEmptySummary = &InputError{Message: "Please enter text to summarize."}
	errEmptyCodegen = &InputError{Message: "Please describe what code you want me to generate."}
)

// BackendSelector picks the telemetry backend sink for a configuration.
type BackendSelector interface {
	Select(ctx context.Context, cfg entities.Config) telemetry.Sink
}

// Deps are the collaborators a Coordinator drives.
type Deps struct {
	Store    *config.Store
	Client   *completion.Client
	Metrics  *session.Aggregator
	Events   *telemetry.Logger
	Selector BackendSelector
	Logger   *zap.Logger
}

// ModeView describes the mode selector after a switch.
type ModeView struct {
	Previous entities.Mode          `json:"previous"`
	Current  entities.Mode          `json:"current"`
	Panels   map[entities.Mode]bool `json:"panels"`
}

// Reply is the result of one completed request.
type Reply struct {
	Mode           entities.Mode           `json:"mode"`
	Content        string                  `json:"content"`
	Model          string                  `json:"model"`
	Usage          entities.TokenUsage     `json:"usage"`
	ResponseTimeMs int64                   `json:"response_time_ms"`
	Metrics        entities.SessionMetrics `json:"metrics"`
}

// SelfCheckResult is the outcome of the observability self-test.
type SelfCheckResult struct {
	Content           string `json:"content"`
	TotalTokens       int    `json:"total_tokens"`
	ResponseTimeMs    int64  `json:"response_time_ms"`
	BackendConfigured bool   `json:"backend_configured"`
}

// Coordinator turns user actions into calls on the configuration store, the
// completion client, the metrics aggregator and the telemetry logger. Each control
// has at most one outstanding request; different controls run concurrently.
type Coordinator struct {
	store    *config.Store
	client   *completion.Client
	metrics  *session.Aggregator
	events   *telemetry.Logger
	selector BackendSelector
	logger   *zap.Logger

	mu   sync.RWMutex
	mode entities.Mode

	busy map[entities.Mode]*atomic.Bool
}

// New creates a Coordinator in chat mode.
func New(d Deps) *Coordinator {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	busy := make(map[entities.Mode]*atomic.Bool, len(entities.Modes))
	for _, m := range entities.Modes {
		busy[m] = new(atomic.Bool)
	}
	return &Coordinator{
		store:    d.Store,
		client:   d.Client,
		metrics:  d.Metrics,
		events:   d.Events,
		selector: d.Selector,
		logger:   d.Logger.Named("coordinator"),
		mode:     entities.ModeChat,
		busy:     busy,
	}
}

// Start loads the persisted configuration, applies it and announces the session.
func (c *Coordinator) Start(ctx context.Context) entities.Config {
	c.store.Load()
	cfg := c.store.Get()
	c.apply(ctx, cfg)
	c.events.LogAppInitialized(cfg)

	c.logger.Info("services initialized",
		zap.String("session_id", c.events.SessionID()),
		zap.Bool("openai_configured", c.client.IsConfigured()),
		zap.Bool("datadog_configured", cfg.IsBackendConfigured()))
	return cfg
}

func (c *Coordinator) apply(ctx context.Context, cfg entities.Config) {
	c.client.Configure(cfg.APIKey, cfg.Model)
	if c.selector != nil {
		c.events.UseBackend(c.selector.Select(ctx, cfg))
	}
}

// Mode returns the active mode.
func (c *Coordinator) Mode() entities.Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

// SwitchMode activates mode. Switching is unconditional and always logged.
func (c *Coordinator) SwitchMode(mode entities.Mode) (ModeView, error) {
	if _, err := entities.ParseMode(string(mode)); err != nil {
		return ModeView{}, err
	}

	c.mu.Lock()
	prev := c.mode
	c.mode = mode
	c.mu.Unlock()

	c.events.LogModeSwitch(prev, mode)

	panels := make(map[entities.Mode]bool, len(entities.Modes))
	for _, m := range entities.Modes {
		panels[m] = m == mode
	}
	return ModeView{Previous: prev, Current: mode, Panels: panels}, nil
}

// SendChat sends message as a single-turn chat. Empty messages are ignored with
// ErrEmptyInput.
func (c *Coordinator) SendChat(ctx context.Context, message string) (Reply, error) {
	return c.run(ctx, entities.ModeChat, message, entities.ErrEmptyInput, c.client.Chat)
}

// Summarize summarizes text.
func (c *Coordinator) Summarize(ctx context.Context, text string) (Reply, error) {
	return c.run(ctx, entities.ModeSummarize, text, errEmptySummary, c.client.Summarize)
}

// GenerateCode generates code for prompt.
func (c *Coordinator) GenerateCode(ctx context.Context, prompt string) (Reply, error) {
	return c.run(ctx, entities.ModeCodegen, prompt, errEmptyCodegen, c.client.GenerateCode)
}

type completeFunc func(ctx context.Context, input string) (entities.CompletionResult, error)

func (c *Coordinator) run(ctx context.Context, mode entities.Mode, input string, emptyErr error, fn completeFunc) (Reply, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Reply{}, emptyErr
	}
	if !c.client.IsConfigured() {
		return Reply{}, entities.ErrNotConfigured
	}

	guard := c.busy[mode]
	if !guard.CompareAndSwap(false, true) {
		return Reply{}, entities.ErrBusy
	}
	defer guard.Store(false)

	res, err := fn(ctx, input)
	if err != nil {
		return Reply{}, err
	}

	snap := c.metrics.Record(res.Usage, res.ResponseTimeMs, res.Model)
	return Reply{
		Mode:           mode,
		Content:        res.Content,
		Model:          res.Model,
		Usage:          res.Usage,
		ResponseTimeMs: res.ResponseTimeMs,
		Metrics:        snap,
	}, nil
}

// SaveConfig persists cfg and applies it to the client and the telemetry backend.
func (c *Coordinator) SaveConfig(ctx context.Context, cfg entities.Config) (entities.Config, error) {
	if err := c.store.Save(cfg); err != nil {
		return entities.Config{}, err
	}
	saved := c.store.Get()
	c.apply(ctx, saved)
	c.events.LogConfigUpdate(saved)
	return saved, nil
}

// ResetConfig restores the defaults and removes the persisted record.
func (c *Coordinator) ResetConfig(ctx context.Context) (entities.Config, error) {
	err := c.store.Reset()
	cfg := c.store.Get()
	c.apply(ctx, cfg)
	return cfg, err
}

// Config returns the current configuration.
func (c *Coordinator) Config() entities.Config {
	return c.store.Get()
}

// Metrics returns a snapshot of the session totals.
func (c *Coordinator) Metrics() entities.SessionMetrics {
	return c.metrics.Snapshot()
}

// SessionID identifies the telemetry session.
func (c *Coordinator) SessionID() string {
	return c.events.SessionID()
}

// SelfCheck sends one fixed chat request so the request shows up in telemetry. It does
// not count towards session metrics.
func (c *Coordinator) SelfCheck(ctx context.Context) (SelfCheckResult, error) {
	if !c.store.IsCompletionServiceConfigured() {
		c.logger.Warn("openai not configured, skipping observability test")
		return SelfCheckResult{}, entities.ErrNotConfigured
	}

	res, err := c.client.Complete(ctx, completion.ChatMessages(SelfCheckPrompt), entities.ModeChat)
	if err != nil {
		c.logger.Error("observability test failed", zap.Error(err))
		return SelfCheckResult{}, err
	}

	out := SelfCheckResult{
		Content:           res.Content,
		TotalTokens:       res.Usage.TotalTokens,
		ResponseTimeMs:    res.ResponseTimeMs,
		BackendConfigured: c.store.IsBackendConfigured(),
	}
	c.logger.Info("observability test succeeded",
		zap.Int("tokens", out.TotalTokens),
		zap.Int64("response_time_ms", out.ResponseTimeMs),
		zap.Bool("datadog_configured", out.BackendConfigured))
	return out, nil
}

// UserMessage is the text to show for err.
func UserMessage(err error) string {
	var inputErr *InputError
	var reqErr *completion.RequestError
	switch {
	case errors.As(err, &inputErr):
		return inputErr.Message
	case errors.Is(err, entities.ErrNotConfigured):
		return "Please configure your OpenAI API key first."
	case errors.Is(err, entities.ErrMissingCredential):
		return "Please enter your OpenAI API key."
	case errors.As(err, &reqErr):
		return reqErr.Message
	default:
		return err.Error()
	}
}
