package telemetry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/marketconnect/llm-observability-demo/app/domain/entities"
)

// IntakeURL returns the browser log intake endpoint for an observability site.
func IntakeURL(site string) string {
	if site == "" {
		site = entities.DefaultSite
	}
	host := "browser-intake-" + strings.Replace(site, ".datadoghq", "-datadoghq", 1)
	return "https://" + host + "/api/v2/logs"
}

// HTTPBackendOptions tunes an HTTPBackend. Zero values select defaults.
type HTTPBackendOptions struct {
	IntakeURL string
	Client    *http.Client
	// Sample decides whether this session is tracked given a 0-100 rate.
	Sample func(rate int) bool
	Now    func() time.Time
}

// HTTPBackend posts actions and errors to an HTTP log intake authenticated by a
// client token. Sampling is decided once per backend, i.e. once per session.
type HTTPBackend struct {
	client   *http.Client
	endpoint string
	cfg      entities.BackendConfig
	sampled  bool
	now      func() time.Time
	ready    chan struct{}
}

// NewHTTPBackend creates a backend for cfg. HTTP intake needs no handshake, so the
// backend is ready as soon as it is constructed.
func NewHTTPBackend(cfg entities.BackendConfig, opts HTTPBackendOptions) *HTTPBackend {
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 5 * time.Second}
	}
	if opts.IntakeURL == "" {
		opts.IntakeURL = IntakeURL(cfg.Site)
	}
	if opts.Sample == nil {
		opts.Sample = func(rate int) bool { return rand.IntN(100) < rate }
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	q := url.Values{}
	q.Set("ddsource", "browser")
	q.Set("dd-api-key", cfg.ClientToken)
	q.Set("ddtags", fmt.Sprintf("env:%s,version:%s,application_id:%s", cfg.Env, cfg.Version, cfg.ApplicationID))

	b := &HTTPBackend{
		client:   opts.Client,
		endpoint: opts.IntakeURL + "?" + q.Encode(),
		cfg:      cfg,
		sampled:  opts.Sample(cfg.SessionSampleRate),
		now:      opts.Now,
		ready:    make(chan struct{}),
	}
	close(b.ready)
	return b
}

func (b *HTTPBackend) Ready() <-chan struct{} { return b.ready }

// Sampled reports whether this session's events are sent.
func (b *HTTPBackend) Sampled() bool { return b.sampled }

func (b *HTTPBackend) AddAction(name string, payload map[string]any) error {
	entry := b.entry(name, "info")
	entry["action"] = payload
	return b.send(entry)
}

func (b *HTTPBackend) AddError(err error, context map[string]any) error {
	entry := b.entry(err.Error(), "error")
	entry["error"] = map[string]any{
		"message": err.Error(),
		"kind":    ErrorKind(err),
	}
	entry["context"] = context
	return b.send(entry)
}

func (b *HTTPBackend) entry(message, status string) map[string]any {
	return map[string]any{
		"message":  message,
		"status":   status,
		"service":  b.cfg.Service,
		"ddsource": "browser",
		"date":     b.now().UnixMilli(),
	}
}

func (b *HTTPBackend) send(entry map[string]any) error {
	if !b.sampled {
		return nil
	}

	body, err := json.Marshal([]map[string]any{entry})
	if err != nil {
		return fmt.Errorf("failed to encode telemetry entry: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create intake request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("intake request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("intake returned status %d", resp.StatusCode)
	}
	return nil
}
