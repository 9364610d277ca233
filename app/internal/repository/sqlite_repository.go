package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/marketconnect/llm-observability-demo/app/domain/entities"
)

// SQLiteRepository implements the Repository interface using an SQLite database.
type SQLiteRepository struct {
	db     *sql.DB
	dsn    string
	logger *zap.Logger
}

// NewSQLiteRepository creates a new SQLiteRepository.
// The DSN is the data source name for the SQLite database.
func NewSQLiteRepository(dsn string, logger *zap.Logger) (*SQLiteRepository, error) {
	// The driver "sqlite3" must be registered by the application importing this package,
	// typically by a blank import like `_ "github.com/mattn/go-sqlite3"`.
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLiteRepository{db: db, dsn: dsn, logger: logger}, nil
}

// Init creates the key/value table if it doesn't exist.
func (r *SQLiteRepository) Init() error {
	query := `
    CREATE TABLE IF NOT EXISTS kv (
        key TEXT PRIMARY KEY,
        value TEXT NOT NULL,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );`

	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create kv table: %w", err)
	}
	r.logger.Debug("sqlite kv table initialized", zap.String("dsn", r.dsn))
	return nil
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// Get retrieves the value stored under key.
func (r *SQLiteRepository) Get(key string) (string, error) {
	row := r.db.QueryRow(`SELECT value FROM kv WHERE key = ?;`, key)

	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", entities.ErrNotFound
		}
		return "", fmt.Errorf("failed to get key %q: %w", key, err)
	}
	return value, nil
}

// Set stores value under key in a single upsert.
func (r *SQLiteRepository) Set(key, value string) error {
	ctx := context.Background()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	queryUpsert := `
    INSERT INTO kv (key, value, updated_at)
    VALUES (?, ?, CURRENT_TIMESTAMP)
    ON CONFLICT(key) DO UPDATE SET
        value = excluded.value,
        updated_at = excluded.updated_at;`

	if _, err := tx.ExecContext(ctx, queryUpsert, key, value); err != nil {
		return fmt.Errorf("failed to upsert key %q: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *SQLiteRepository) Delete(key string) error {
	if _, err := r.db.Exec(`DELETE FROM kv WHERE key = ?;`, key); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}
