package entities

import "strings"

// ConfigStorageKey is the well-known key of the persisted configuration record.
const ConfigStorageKey = "llm_demo_config"

const (
	DefaultModel             = "gpt-4o-mini"
	DefaultSite              = "datadoghq.com"
	DefaultService           = "llm-observability-demo"
	DefaultEnv               = "production"
	DefaultVersion           = "1.0.0"
	DefaultSessionSampleRate = 100
	DefaultReplaySampleRate  = 20

	CredentialPrefix         = "sk-"
	placeholderClientToken   = "YOUR_DATADOG_CLIENT_TOKEN"
	placeholderApplicationID = "YOUR_DATADOG_APPLICATION_ID"
)

// KnownSites are the observability sites offered without custom entry.
var KnownSites = []string{
	"datadoghq.com",
	"datadoghq.eu",
	"us3.datadoghq.com",
	"us5.datadoghq.com",
	"ap1.datadoghq.com",
}

// BackendConfig holds the observability backend connection settings.
type BackendConfig struct {
	ApplicationID         string `json:"applicationId"`
	ClientToken           string `json:"clientToken"`
	Site                  string `json:"site"`
	Service               string `json:"service"`
	Env                   string `json:"env"`
	Version               string `json:"version"`
	SessionSampleRate     int    `json:"sessionSampleRate"`
	ReplaySampleRate      int    `json:"replaySampleRate"`
	TrackUserInteractions bool   `json:"trackUserInteractions"`
	TrackResources        bool   `json:"trackResources"`
	TrackLongTasks        bool   `json:"trackLongTasks"`
}

// Config is the client configuration persisted as one serialized record.
type Config struct {
	APIKey  string        `json:"apiKey"`
	Model   string        `json:"model"`
	Backend BackendConfig `json:"datadogConfig"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Model: DefaultModel,
		Backend: BackendConfig{
			Site:                  DefaultSite,
			Service:               DefaultService,
			Env:                   DefaultEnv,
			Version:               DefaultVersion,
			SessionSampleRate:     DefaultSessionSampleRate,
			ReplaySampleRate:      DefaultReplaySampleRate,
			TrackUserInteractions: true,
			TrackResources:        true,
			TrackLongTasks:        true,
		},
	}
}

// IsCompletionServiceConfigured reports whether the credential looks usable.
func (c Config) IsCompletionServiceConfigured() bool {
	return strings.HasPrefix(c.APIKey, CredentialPrefix)
}

// IsBackendConfigured reports whether the observability backend has real identifiers.
func (c Config) IsBackendConfigured() bool {
	b := c.Backend
	return b.ClientToken != "" && b.ApplicationID != "" &&
		b.ClientToken != placeholderClientToken &&
		b.ApplicationID != placeholderApplicationID
}

// IsCustomSite reports whether the site is outside KnownSites.
func (b BackendConfig) IsCustomSite() bool {
	if b.Site == "" {
		return false
	}
	for _, s := range KnownSites {
		if s == b.Site {
			return false
		}
	}
	return true
}

// MaskedCredential shortens the credential for display and telemetry.
func (c Config) MaskedCredential() string {
	if c.APIKey == "" {
		return ""
	}
	r := []rune(c.APIKey)
	if len(r) <= 10 {
		return string(r[:len(r)/2]) + "..."
	}
	return string(r[:10]) + "..."
}
