package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/marketconnect/llm-observability-demo/app/domain/entities"
)

// Storage is the persistence the Store needs; repository.Repository satisfies it.
type Storage interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Store holds the client configuration and persists it as one serialized record.
type Store struct {
	storage  Storage
	logger   *zap.Logger
	defaults entities.Config

	mu      sync.RWMutex
	current entities.Config
}

// Option configures a Store.
type Option func(*Store)

// WithDefaults replaces the built-in defaults.
func WithDefaults(cfg entities.Config) Option {
	return func(s *Store) { s.defaults = cfg }
}

// NewStore creates a Store holding its defaults. Call Load to read persisted data.
func NewStore(storage Storage, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		storage:  storage,
		logger:   logger,
		defaults: entities.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current = s.defaults
	return s
}

// Load reads the persisted record over the defaults. It reports whether a record
// was applied; a missing or malformed record leaves the defaults in place.
func (s *Store) Load() bool {
	raw, err := s.storage.Get(entities.ConfigStorageKey)
	if err != nil {
		if !errors.Is(err, entities.ErrNotFound) {
			s.logger.Error("failed to load configuration", zap.Error(err))
		}
		return false
	}

	cfg := s.defaults
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		s.logger.Error("failed to load configuration", zap.Error(err))
		return false
	}

	s.mu.Lock()
	s.current = s.normalize(cfg)
	s.mu.Unlock()
	return true
}

// Save validates and persists cfg. An empty credential is rejected without writing.
func (s *Store) Save(cfg entities.Config) error {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return entities.ErrMissingCredential
	}
	cfg = s.normalize(cfg)

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	if err := s.storage.Set(entities.ConfigStorageKey, string(data)); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()
	return nil
}

// Reset restores the defaults and removes the persisted record.
func (s *Store) Reset() error {
	s.mu.Lock()
	s.current = s.defaults
	s.mu.Unlock()

	if err := s.storage.Delete(entities.ConfigStorageKey); err != nil {
		return fmt.Errorf("failed to remove configuration: %w", err)
	}
	return nil
}

// Get returns a copy of the current configuration.
func (s *Store) Get() entities.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Model returns the configured model identifier.
func (s *Store) Model() string {
	return s.Get().Model
}

// IsBackendConfigured reports whether the current configuration carries real
// observability backend identifiers.
func (s *Store) IsBackendConfigured() bool {
	return s.Get().IsBackendConfigured()
}

// IsCompletionServiceConfigured reports whether the current credential looks usable.
func (s *Store) IsCompletionServiceConfigured() bool {
	return s.Get().IsCompletionServiceConfigured()
}

func (s *Store) normalize(cfg entities.Config) entities.Config {
	d := s.defaults
	fallback := func(v *string, def string) {
		*v = strings.TrimSpace(*v)
		if *v == "" {
			*v = def
		}
	}
	fallback(&cfg.Model, d.Model)
	fallback(&cfg.Backend.Site, d.Backend.Site)
	fallback(&cfg.Backend.Service, d.Backend.Service)
	fallback(&cfg.Backend.Env, d.Backend.Env)
	fallback(&cfg.Backend.Version, d.Backend.Version)
	cfg.Backend.ApplicationID = strings.TrimSpace(cfg.Backend.ApplicationID)
	cfg.Backend.ClientToken = strings.TrimSpace(cfg.Backend.ClientToken)

	if cfg.Backend.SessionSampleRate <= 0 || cfg.Backend.SessionSampleRate > 100 {
		cfg.Backend.SessionSampleRate = d.Backend.SessionSampleRate
	}
	if cfg.Backend.ReplaySampleRate <= 0 || cfg.Backend.ReplaySampleRate > 100 {
		cfg.Backend.ReplaySampleRate = d.Backend.ReplaySampleRate
	}
	return cfg
}
