package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/marketconnect/llm-observability-demo/app/domain/entities"
)

// DotEnvFiles are loaded in order before the environment is read. Values already
// present in the process environment are never overridden.
var DotEnvFiles = []string{".env.local", ".env"}

// Env is the process-level configuration read from the environment.
type Env struct {
	IsDev   bool `env:"IS_DEV" env-default:"false"`
	IsDebug bool `env:"IS_DEBUG" env-default:"false"`

	HTTP struct {
		Host      string `env:"HOST" env-default:"localhost" env-description:"listen host"`
		Port      int    `env:"PORT" env-default:"8080" env-description:"listen port"`
		StaticDir string `env:"STATIC_DIR" env-default:"web" env-description:"directory served on /"`
	}
	OpenAI struct {
		APIKey  string `env:"OPENAI_API_KEY" env-description:"completion service credential (sk-...)"`
		Model   string `env:"OPENAI_MODEL" env-default:"gpt-4o-mini"`
		BaseURL string `env:"OPENAI_BASE_URL" env-default:"https://api.openai.com/v1"`
	}
	Datadog struct {
		ClientToken   string        `env:"DATADOG_CLIENT_TOKEN"`
		ApplicationID string        `env:"DATADOG_APPLICATION_ID"`
		Site          string        `env:"DATADOG_SITE" env-default:"datadoghq.com"`
		Service       string        `env:"DATADOG_SERVICE"`
		Env           string        `env:"DATADOG_ENV"`
		Version       string        `env:"DATADOG_VERSION"`
		IntakeURL     string        `env:"DATADOG_INTAKE_URL" env-description:"override of the backend intake endpoint"`
		ReadyTimeout  time.Duration `env:"BACKEND_READY_TIMEOUT" env-default:"5s"`
	}
	Repository struct {
		Type      string `env:"REPOSITORY_TYPE" env-default:"memory" env-description:"memory or sqlite"`
		SQLiteDSN string `env:"SQLITE_DSN" env-default:"llm_demo.db"`
	}
}

// LoadEnv reads DotEnvFiles (when present) and then the environment into an Env.
func LoadEnv(logger *zap.Logger) (*Env, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, f := range DotEnvFiles {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
		logger.Debug("loaded env file", zap.String("file", f))
	}

	env := &Env{}
	if err := cleanenv.ReadEnv(env); err != nil {
		header := "Environment variables:"
		if help, derr := cleanenv.GetDescription(env, &header); derr == nil {
			logger.Info(help)
		}
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return env, nil
}

// ConfigDefaults overlays the environment onto the built-in client defaults.
// This is what the client starts from, and what Reset returns to.
func (e *Env) ConfigDefaults() entities.Config {
	cfg := entities.DefaultConfig()
	overlay := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	overlay(&cfg.APIKey, e.OpenAI.APIKey)
	overlay(&cfg.Model, e.OpenAI.Model)
	overlay(&cfg.Backend.ClientToken, e.Datadog.ClientToken)
	overlay(&cfg.Backend.ApplicationID, e.Datadog.ApplicationID)
	overlay(&cfg.Backend.Site, e.Datadog.Site)
	overlay(&cfg.Backend.Service, e.Datadog.Service)
	overlay(&cfg.Backend.Env, e.Datadog.Env)
	overlay(&cfg.Backend.Version, e.Datadog.Version)
	return cfg
}

// TemplateVars are the values substituted into served templates.
func (e *Env) TemplateVars() map[string]string {
	site := e.Datadog.Site
	if site == "" {
		site = entities.DefaultSite
	}
	ddEnv := e.Datadog.Env
	if ddEnv == "" {
		ddEnv = "development"
	}
	return map[string]string{
		"OPENAI_API_KEY":         e.OpenAI.APIKey,
		"DATADOG_CLIENT_TOKEN":   e.Datadog.ClientToken,
		"DATADOG_APPLICATION_ID": e.Datadog.ApplicationID,
		"DATADOG_SITE":           site,
		"DATADOG_ENV":            ddEnv,
	}
}

// Addr is the listen address.
func (e *Env) Addr() string {
	return fmt.Sprintf("%s:%d", e.HTTP.Host, e.HTTP.Port)
}

// NewLogger builds the process logger the way the environment asks for.
func (e *Env) NewLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if e.IsDev {
		cfg = zap.NewDevelopmentConfig()
	}
	if e.IsDebug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
