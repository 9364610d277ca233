package entities

import "time"

// EventType names a kind of telemetry interaction.
type EventType string

const (
	EventAppInitialized EventType = "app_initialized"
	EventRequest        EventType = "request"
	EventError          EventType = "error"
	EventModeSwitch     EventType = "mode_switch"
	EventConfigUpdate   EventType = "config_update"
	EventSessionMetrics EventType = "session_metrics"
)

// ApplicationType tags every event emitted by this client.
const ApplicationType = "llm_demo"

// TelemetryEvent is one interaction with its merged flat payload.
type TelemetryEvent struct {
	Type      EventType      `json:"interaction_type"`
	Timestamp time.Time      `json:"timestamp"`
	SessionID string         `json:"session_id"`
	Payload   map[string]any `json:"payload"`
}

// Name is the action name reported to the observability backend.
func (e TelemetryEvent) Name() string {
	return "llm_" + string(e.Type)
}

// RequestRecord describes a completed request for telemetry.
type RequestRecord struct {
	Mode           Mode
	Model          string
	Prompt         string
	Response       string
	Usage          TokenUsage
	ResponseTimeMs int64
}
