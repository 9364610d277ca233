package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/marketconnect/llm-observability-demo/app/domain/entities"
	"github.com/marketconnect/llm-observability-demo/app/internal/completion"
	"github.com/marketconnect/llm-observability-demo/app/internal/coordinator"
)

// Coordinator is the part of coordinator.Coordinator the API drives.
type Coordinator interface {
	SwitchMode(mode entities.Mode) (coordinator.ModeView, error)
	SendChat(ctx context.Context, message string) (coordinator.Reply, error)
	Summarize(ctx context.Context, text string) (coordinator.Reply, error)
	GenerateCode(ctx context.Context, prompt string) (coordinator.Reply, error)
	SaveConfig(ctx context.Context, cfg entities.Config) (entities.Config, error)
	ResetConfig(ctx context.Context) (entities.Config, error)
	Config() entities.Config
	Metrics() entities.SessionMetrics
	SessionID() string
}

// APIHandler serves the JSON API under /api/.
type APIHandler struct {
	coord  Coordinator
	logger *zap.Logger
}

// NewAPIHandler creates an APIHandler with injected dependencies
func NewAPIHandler(coord Coordinator, logger *zap.Logger) *APIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{coord: coord, logger: logger.Named("api")}
}

// Register adds the API routes to mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat", h.HandleChat)
	mux.HandleFunc("POST /api/summarize", h.HandleSummarize)
	mux.HandleFunc("POST /api/codegen", h.HandleCodegen)
	mux.HandleFunc("POST /api/mode", h.HandleMode)
	mux.HandleFunc("GET /api/config", h.HandleGetConfig)
	mux.HandleFunc("PUT /api/config", h.HandleSaveConfig)
	mux.HandleFunc("DELETE /api/config", h.HandleResetConfig)
	mux.HandleFunc("GET /api/metrics", h.HandleMetrics)
}

// ConfigView is the configuration as shown to clients: the credential is masked.
type ConfigView struct {
	APIKey            string                 `json:"apiKey"`
	Model             string                 `json:"model"`
	Backend           entities.BackendConfig `json:"datadogConfig"`
	OpenAIConfigured  bool                   `json:"openaiConfigured"`
	DatadogConfigured bool                   `json:"datadogConfigured"`
	CustomSite        bool                   `json:"customSite"`
	KnownSites        []string               `json:"knownSites"`
}

func newConfigView(cfg entities.Config) ConfigView {
	return ConfigView{
		APIKey:            cfg.MaskedCredential(),
		Model:             cfg.Model,
		Backend:           cfg.Backend,
		OpenAIConfigured:  cfg.IsCompletionServiceConfigured(),
		DatadogConfigured: cfg.IsBackendConfigured(),
		CustomSite:        cfg.Backend.IsCustomSite(),
		KnownSites:        entities.KnownSites,
	}
}

// MetricsView is the session summary.
type MetricsView struct {
	SessionID string `json:"session_id"`
	entities.SessionMetrics
}

type chatRequest struct {
	Message string `json:"message"`
}

type summarizeRequest struct {
	Text string `json:"text"`
}

type codegenRequest struct {
	Prompt string `json:"prompt"`
}

type modeRequest struct {
	Mode string `json:"mode"`
}

func (h *APIHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !h.decode(w, r, &req) {
		return
	}
	reply, err := h.coord.SendChat(r.Context(), req.Message)
	h.respond(w, reply, err)
}

func (h *APIHandler) HandleSummarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if !h.decode(w, r, &req) {
		return
	}
	reply, err := h.coord.Summarize(r.Context(), req.Text)
	h.respond(w, reply, err)
}

func (h *APIHandler) HandleCodegen(w http.ResponseWriter, r *http.Request) {
	var req codegenRequest
	if !h.decode(w, r, &req) {
		return
	}
	reply, err := h.coord.GenerateCode(r.Context(), req.Prompt)
	h.respond(w, reply, err)
}

func (h *APIHandler) HandleMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.coord.SwitchMode(entities.Mode(req.Mode))
	h.respond(w, view, err)
}

func (h *APIHandler) HandleGetConfig(w http.ResponseWriter, r *http.Request) {
	h.respond(w, newConfigView(h.coord.Config()), nil)
}

// HandleSaveConfig stores the posted configuration. A masked credential, as
// returned by GET, keeps the stored one.
func (h *APIHandler) HandleSaveConfig(w http.ResponseWriter, r *http.Request) {
	var cfg entities.Config
	if !h.decode(w, r, &cfg) {
		return
	}
	if current := h.coord.Config(); cfg.APIKey != "" && cfg.APIKey == current.MaskedCredential() {
		cfg.APIKey = current.APIKey
	}
	saved, err := h.coord.SaveConfig(r.Context(), cfg)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, newConfigView(saved), nil)
}

func (h *APIHandler) HandleResetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.coord.ResetConfig(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, newConfigView(cfg), nil)
}

func (h *APIHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.respond(w, MetricsView{SessionID: h.coord.SessionID(), SessionMetrics: h.coord.Metrics()}, nil)
}

func (h *APIHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return false
	}
	return true
}

func (h *APIHandler) respond(w http.ResponseWriter, v any, err error) {
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type errorBody struct {
	Error string `json:"error"`
}

func (h *APIHandler) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, errorBody{Error: coordinator.UserMessage(err)})
}

// StatusFor maps an error to the HTTP status reported for it.
func StatusFor(err error) int {
	var reqErr *completion.RequestError
	switch {
	case errors.Is(err, entities.ErrNotConfigured),
		errors.Is(err, entities.ErrMissingCredential),
		errors.Is(err, entities.ErrEmptyInput),
		errors.Is(err, entities.ErrUnknownMode):
		return http.StatusBadRequest
	case errors.Is(err, entities.ErrBusy):
		return http.StatusConflict
	case errors.As(err, &reqErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
