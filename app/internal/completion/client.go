package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/marketconnect/llm-observability-demo/app/domain/entities"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"

	Temperature = 0.7
	MaxTokens   = 2000
)

// EventLogger receives the outcome of every dispatched completion.
type EventLogger interface {
	LogRequest(rec entities.RequestRecord)
	LogError(mode entities.Mode, err error, prompt string)
}

// RequestError is a failed completion: network failure, non-2xx status or an
// unreadable success body.
type RequestError struct {
	Message    string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string { return e.Message }

func (e *RequestError) Unwrap() error { return e.Err }

// Kind classifies the error for telemetry.
func (e *RequestError) Kind() string { return "RequestError" }

// Client talks to an OpenAI-compatible chat completions endpoint. One call is one
// attempt: there is no retry and no timeout beyond the HTTP client's own.
type Client struct {
	httpClient *http.Client
	baseURL    string
	events     EventLogger
	logger     *zap.Logger
	now        func() time.Time

	mu     sync.RWMutex
	apiKey string
	model  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithBaseURL points the client at another endpoint, e.g. a proxy or a test server.
func WithBaseURL(u string) Option {
	return func(cl *Client) {
		if u != "" {
			cl.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithLogger sets the zap logger used for transport diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}

// WithClock sets the time source used to measure response time.
func WithClock(now func() time.Time) Option {
	return func(cl *Client) { cl.now = now }
}

// NewClient creates a Client reporting to events. The credential and model can be
// changed later with Configure.
func NewClient(apiKey, model string, events EventLogger, opts ...Option) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		baseURL:    DefaultBaseURL,
		events:     events,
		logger:     zap.NewNop(),
		now:        time.Now,
		apiKey:     apiKey,
		model:      model,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.model == "" {
		c.model = entities.DefaultModel
	}
	return c
}

// Configure updates the credential and model used by subsequent calls.
func (c *Client) Configure(apiKey, model string) {
	if model == "" {
		model = entities.DefaultModel
	}
	c.mu.Lock()
	c.apiKey = apiKey
	c.model = model
	c.mu.Unlock()
}

// IsConfigured reports whether the credential looks like an OpenAI secret key.
func (c *Client) IsConfigured() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return strings.HasPrefix(c.apiKey, entities.CredentialPrefix)
}

// Model is the model id sent with subsequent requests.
func (c *Client) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

func (c *Client) credentials() (string, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey, c.model
}

type chatRequest struct {
	Model       string             `json:"model"`
	Messages    []entities.Message `json:"messages"`
	Temperature float64            `json:"temperature"`
	MaxTokens   int                `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message entities.Message `json:"message"`
	} `json:"choices"`
	Usage entities.TokenUsage `json:"usage"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends messages as one chat completion request. The outcome is reported
// to the event logger before Complete returns, except when no credential is set:
// then ErrNotConfigured is returned without dispatching anything.
func (c *Client) Complete(ctx context.Context, messages []entities.Message, mode entities.Mode) (entities.CompletionResult, error) {
	apiKey, model := c.credentials()
	if apiKey == "" {
		return entities.CompletionResult{}, entities.ErrNotConfigured
	}
	prompt := PromptText(messages)

	res, err := c.do(ctx, apiKey, model, messages)
	if err != nil {
		c.logger.Warn("completion request failed",
			zap.String("mode", string(mode)), zap.String("model", model), zap.Error(err))
		if c.events != nil {
			c.events.LogError(mode, err, prompt)
		}
		return entities.CompletionResult{}, err
	}

	if c.events != nil {
		c.events.LogRequest(entities.RequestRecord{
			Mode:           mode,
			Model:          model,
			Prompt:         prompt,
			Response:       res.Content,
			Usage:          res.Usage,
			ResponseTimeMs: res.ResponseTimeMs,
		})
	}
	return res, nil
}

func (c *Client) do(ctx context.Context, apiKey, model string, messages []entities.Message) (entities.CompletionResult, error) {
	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
	})
	if err != nil {
		return entities.CompletionResult{}, fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return entities.CompletionResult{}, &RequestError{Message: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	start := c.now()
	c.logger.Debug("dispatching completion request", zap.String("url", req.URL.String()), zap.Int("body_bytes", len(body)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return entities.CompletionResult{}, &RequestError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return entities.CompletionResult{}, &RequestError{Message: err.Error(), StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return entities.CompletionResult{}, &RequestError{
			Message:    errorMessage(respBody, resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return entities.CompletionResult{}, &RequestError{
			Message:    "malformed completion response: " + err.Error(),
			StatusCode: resp.StatusCode,
			Err:        err,
		}
	}
	if len(parsed.Choices) == 0 {
		return entities.CompletionResult{}, &RequestError{
			Message:    "malformed completion response: no choices",
			StatusCode: resp.StatusCode,
		}
	}

	return entities.CompletionResult{
		Content:        parsed.Choices[0].Message.Content,
		Usage:          parsed.Usage,
		ResponseTimeMs: c.now().Sub(start).Milliseconds(),
		Model:          model,
	}, nil
}

func errorMessage(body []byte, status int) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return fmt.Sprintf("API request failed with status %d", status)
}

// PromptText is the text reported as the prompt of a message list.
func PromptText(messages []entities.Message) string {
	parts := make([]string, len(messages))
	for i, m := range messages {
		parts[i] = m.Content
	}
	return strings.Join(parts, "\n")
}
