package repository

// Repository defines the interface for the client's persisted key/value storage.
// This allows for different storage backends (e.g., in-memory, SQLite).
type Repository interface {
	// Init performs any necessary initialization for the repository (e.g., DB connection, table creation).
	Init() error
	// Close performs cleanup tasks (e.g., closing DB connection).
	Close() error

	// Get returns entities.ErrNotFound when the key has no value.
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}
