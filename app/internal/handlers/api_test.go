package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketconnect/llm-observability-demo/app/domain/entities"
	"github.com/marketconnect/llm-observability-demo/app/internal/completion"
	"github.com/marketconnect/llm-observability-demo/app/internal/coordinator"
)

type mockCoordinator struct {
	SwitchModeFunc   func(mode entities.Mode) (coordinator.ModeView, error)
	SendChatFunc     func(ctx context.Context, message string) (coordinator.Reply, error)
	SummarizeFunc    func(ctx context.Context, text string) (coordinator.Reply, error)
	GenerateCodeFunc func(ctx context.Context, prompt string) (coordinator.Reply, error)
	SaveConfigFunc   func(ctx context.Context, cfg entities.Config) (entities.Config, error)
	ResetConfigFunc  func(ctx context.Context) (entities.Config, error)
	config           entities.Config
	metrics          entities.SessionMetrics
}

func (m *mockCoordinator) SwitchMode(mode entities.Mode) (coordinator.ModeView, error) {
	if m.SwitchModeFunc != nil {
		return m.SwitchModeFunc(mode)
	}
	return coordinator.ModeView{}, errors.New("SwitchMode not implemented")
}

func (m *mockCoordinator) SendChat(ctx context.Context, message string) (coordinator.Reply, error) {
	if m.SendChatFunc != nil {
		return m.SendChatFunc(ctx, message)
	}
	return coordinator.Reply{}, errors.New("SendChat not implemented")
}

func (m *mockCoordinator) Summarize(ctx context.Context, text string) (coordinator.Reply, error) {
	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, text)
	}
	return coordinator.Reply{}, errors.New("Summarize not implemented")
}

func (m *mockCoordinator) GenerateCode(ctx context.Context, prompt string) (coordinator.Reply, error) {
	if m.GenerateCodeFunc != nil {
		return m.GenerateCodeFunc(ctx, prompt)
	}
	return coordinator.Reply{}, errors.New("GenerateCode not implemented")
}

func (m *mockCoordinator) SaveConfig(ctx context.Context, cfg entities.Config) (entities.Config, error) {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, cfg)
	}
	return entities.Config{}, errors.New("SaveConfig not implemented")
}

func (m *mockCoordinator) ResetConfig(ctx context.Context) (entities.Config, error) {
	if m.ResetConfigFunc != nil {
		return m.ResetConfigFunc(ctx)
	}
	return entities.Config{}, errors.New("ResetConfig not implemented")
}

func (m *mockCoordinator) Config() entities.Config { return m.config }
func (m *mockCoordinator) Metrics() entities.SessionMetrics { return m.metrics }
func (m *mockCoordinator) SessionID() string { return "session_1_abc" }

func serve(t *testing.T, mc *mockCoordinator, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	NewAPIHandler(mc, nil).Register(mux)
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestAPIHandler_Requests(t *testing.T) {
	tests := []struct {
		name               string
		target             string
		body               string
		mockSetup          func(*mockCoordinator)
		expectedStatusCode int
		expectedField      string
		expectedValue      any
	}{
		{
			name:   "chat success",
			target: "/api/chat",
			body:   `{"message": "Hi"}`,
			mockSetup: func(mc *mockCoordinator) {
				mc.SendChatFunc = func(_ context.Context, message string) (coordinator.Reply, error) {
					return coordinator.Reply{Mode: entities.ModeChat, Content: "echo " + message}, nil
				}
			},
			expectedStatusCode: http.StatusOK,
			expectedField:      "content",
			expectedValue:      "echo Hi",
		},
		{
			name:   "summarize empty input",
			target: "/api/summarize",
			body:   `{"text": ""}`,
			mockSetup: func(mc *mockCoordinator) {
				mc.SummarizeFunc = func(context.Context, string) (coordinator.Reply, error) {
					return coordinator.Reply{}, &coordinator.InputError{Message: "Please enter text to summarize."}
				}
			},
			expectedStatusCode: http.StatusBadRequest,
			expectedField:      "error",
			expectedValue:      "Please enter text to summarize.",
		},
		{
			name:   "codegen busy",
			target: "/api/codegen",
			body:   `{"prompt": "fizzbuzz"}`,
			mockSetup: func(mc *mockCoordinator) {
				mc.GenerateCodeFunc = func(context.Context, string) (coordinator.Reply, error) {
					return coordinator.Reply{}, entities.ErrBusy
				}
			},
			expectedStatusCode: http.StatusConflict,
			expectedField:      "error",
			expectedValue:      entities.ErrBusy.Error(),
		},
		{
			name:   "upstream failure",
			target: "/api/chat",
			body:   `{"message": "Hi"}`,
			mockSetup: func(mc *mockCoordinator) {
				mc.SendChatFunc = func(context.Context, string) (coordinator.Reply, error) {
					return coordinator.Reply{}, &completion.RequestError{Message: "Invalid API key", StatusCode: 401}
				}
			},
			expectedStatusCode: http.StatusBadGateway,
			expectedField:      "error",
			expectedValue:      "Invalid API key",
		},
		{
			name:   "not configured",
			target: "/api/chat",
			body:   `{"message": "Hi"}`,
			mockSetup: func(mc *mockCoordinator) {
				mc.SendChatFunc = func(context.Context, string) (coordinator.Reply, error) {
					return coordinator.Reply{}, entities.ErrNotConfigured
				}
			},
			expectedStatusCode: http.StatusBadRequest,
			expectedField:      "error",
			expectedValue:      "Please configure your OpenAI API key first.",
		},
		{
			name:               "invalid JSON",
			target:             "/api/chat",
			body:               `{`,
			mockSetup:          func(*mockCoordinator) {},
			expectedStatusCode: http.StatusBadRequest,
			expectedField:      "error",
			expectedValue:      "invalid JSON body",
		},
		{
			name:   "mode switch",
			target: "/api/mode",
			body:   `{"mode": "codegen"}`,
			mockSetup: func(mc *mockCoordinator) {
				mc.SwitchModeFunc = func(mode entities.Mode) (coordinator.ModeView, error) {
					return coordinator.ModeView{Previous: entities.ModeChat, Current: mode}, nil
				}
			},
			expectedStatusCode: http.StatusOK,
			expectedField:      "current",
			expectedValue:      "codegen",
		},
		{
			name:   "unknown mode",
			target: "/api/mode",
			body:   `{"mode": "poetry"}`,
			mockSetup: func(mc *mockCoordinator) {
				mc.SwitchModeFunc = func(mode entities.Mode) (coordinator.ModeView, error) {
					_, err := entities.ParseMode(string(mode))
					return coordinator.ModeView{}, err
				}
			},
			expectedStatusCode: http.StatusBadRequest,
		},
		{
			name:   "unexpected error",
			target: "/api/summarize",
			body:   `{"text": "x"}`,
			mockSetup: func(mc *mockCoordinator) {
				mc.SummarizeFunc = func(context.Context, string) (coordinator.Reply, error) {
					return coordinator.Reply{}, fmt.Errorf("boom")
				}
			},
			expectedStatusCode: http.StatusInternalServerError,
			expectedField:      "error",
			expectedValue:      "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mc := &mockCoordinator{}
			tt.mockSetup(mc)

			rr := serve(t, mc, http.MethodPost, tt.target, tt.body)

			assert.Equal(t, tt.expectedStatusCode, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			if tt.expectedField != "" {
				assert.Equal(t, tt.expectedValue, decodeBody(t, rr)[tt.expectedField])
			}
		})
	}
}

func TestAPIHandler_MethodNotAllowed(t *testing.T) {
	rr := serve(t, &mockCoordinator{}, http.MethodGet, "/api/chat", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestAPIHandler_GetConfig(t *testing.T) {
	cfg := entities.DefaultConfig()
	cfg.APIKey = "sk-1234567890abcdef"
	mc := &mockCoordinator{config: cfg}

	rr := serve(t, mc, http.MethodGet, "/api/config", "")
	require.Equal(t, http.StatusOK, rr.Code)

	body := decodeBody(t, rr)
	assert.Equal(t, "sk-1234567...", body["apiKey"])
	assert.Equal(t, true, body["openaiConfigured"])
	assert.Equal(t, false, body["datadogConfigured"])
	assert.Equal(t, "datadoghq.com", body["datadogConfig"].(map[string]any)["site"])
	assert.NotContains(t, rr.Body.String(), "abcdef")
}

func TestAPIHandler_SaveConfig(t *testing.T) {
	current := entities.DefaultConfig()
	current.APIKey = "sk-1234567890abcdef"

	tests := []struct {
		name       string
		apiKey     string
		wantSaved  string
		saveErr    error
		wantStatus int
	}{
		{name: "new key", apiKey: "sk-new", wantSaved: "sk-new", wantStatus: http.StatusOK},
		{name: "masked key keeps current", apiKey: "sk-1234567...", wantSaved: current.APIKey, wantStatus: http.StatusOK},
		{name: "missing key", apiKey: "", wantSaved: "", saveErr: entities.ErrMissingCredential, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var saved entities.Config
			mc := &mockCoordinator{config: current}
			mc.SaveConfigFunc = func(_ context.Context, cfg entities.Config) (entities.Config, error) {
				saved = cfg
				return cfg, tt.saveErr
			}

			body, err := json.Marshal(entities.Config{APIKey: tt.apiKey, Model: "gpt-4o"})
			require.NoError(t, err)
			rr := serve(t, mc, http.MethodPut, "/api/config", string(body))

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantSaved, saved.APIKey)
		})
	}
}

func TestAPIHandler_ResetConfig(t *testing.T) {
	mc := &mockCoordinator{}
	mc.ResetConfigFunc = func(context.Context) (entities.Config, error) {
		return entities.DefaultConfig(), nil
	}

	rr := serve(t, mc, http.MethodDelete, "/api/config", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "gpt-4o-mini", decodeBody(t, rr)["model"])
}

func TestAPIHandler_Metrics(t *testing.T) {
	mc := &mockCoordinator{metrics: entities.SessionMetrics{
		TokenCount:        30,
		RequestCount:      1,
		ResponseTimes:     []int64{200},
		AvgResponseTimeMs: 200,
	}}

	rr := serve(t, mc, http.MethodGet, "/api/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)

	body := decodeBody(t, rr)
	assert.Equal(t, "session_1_abc", body["session_id"])
	assert.Equal(t, float64(30), body["token_count"])
	assert.Equal(t, float64(1), body["request_count"])
	assert.Equal(t, float64(200), body["avg_response_time_ms"])
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{entities.ErrEmptyInput, http.StatusBadRequest},
		{fmt.Errorf("wrap: %w", entities.ErrUnknownMode), http.StatusBadRequest},
		{entities.ErrMissingCredential, http.StatusBadRequest},
		{entities.ErrBusy, http.StatusConflict},
		{fmt.Errorf("wrap: %w", &completion.RequestError{Message: "x"}), http.StatusBadGateway},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}
