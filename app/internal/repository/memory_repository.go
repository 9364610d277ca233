package repository

import (
	"sync"

	"github.com/marketconnect/llm-observability-demo/app/domain/entities"
)

// MemoryRepository is an in-memory implementation of the Repository interface.
type MemoryRepository struct {
	values map[string]string
	mu     sync.RWMutex
}

// NewMemoryRepository creates a new MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		values: make(map[string]string),
	}
}

// Init initializes the memory repository (no-op for memory repository).
func (r *MemoryRepository) Init() error {
	return nil
}

// Close closes the memory repository (no-op for memory repository).
func (r *MemoryRepository) Close() error {
	return nil
}

// Get retrieves the value stored under key.
func (r *MemoryRepository) Get(key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, exists := r.values[key]
	if !exists {
		return "", entities.ErrNotFound
	}
	return v, nil
}

// Set stores value under key, replacing any previous value.
func (r *MemoryRepository) Set(key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.values[key] = value
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *MemoryRepository) Delete(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.values, key)
	return nil
}

// Len returns the number of stored keys.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.values)
}
