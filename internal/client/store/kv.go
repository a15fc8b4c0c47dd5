package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/wheelway/wheelway/internal/db"
)

const kvSchema = `
CREATE TABLE IF NOT EXISTS kv_store (
    key        TEXT PRIMARY KEY,
    value      BLOB NOT NULL,
    updated_at TEXT NOT NULL -- RFC3339
);

CREATE INDEX IF NOT EXISTS idx_kv_store_key ON kv_store(key);
`

var (
	ErrKeyNotFound = errors.New("store: key not found")
)

// KV is a durable key-value byte store backed by SQLite. Every Set replaces
// the whole value in a single upsert, so readers never observe a partial
// write.
type KV struct {
	db     *sqlx.DB
	dbPath string
}

// OpenKV creates or opens the KV store at dbPath. Use ":memory:" for tests.
func OpenKV(dbPath string) (*KV, error) {
	sqldb, err := db.NewSqliteDB(db.WithPath(dbPath), db.WithMaxOpenConns(1))
	if err != nil {
		return nil, fmt.Errorf("open kv store: %w", err)
	}

	if _, err := sqldb.Exec(kvSchema); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("initialize kv schema: %w", err)
	}

	return &KV{db: sqldb, dbPath: dbPath}, nil
}

// Close closes the underlying database connection
func (s *KV) Close() error {
	return s.db.Close()
}

// Get returns the value for key, or ErrKeyNotFound
func (s *KV) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.GetContext(ctx, &value, `SELECT value FROM kv_store WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv get %q: %w", key, err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value atomically
func (s *KV) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("kv set %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *KV) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_store WHERE key = ?`, key); err != nil {
		return fmt.Errorf("kv delete %q: %w", key, err)
	}
	return nil
}

// List returns all key/value pairs whose key starts with prefix, ordered by key
func (s *KV) List(ctx context.Context, prefix string) (map[string][]byte, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT key, value FROM kv_store WHERE key LIKE ? || '%' ORDER BY key
	`, prefix)
	if err != nil {
		return nil, fmt.Errorf("kv list %q: %w", prefix, err)
	}
	defer rows.Close()

	values := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("kv list scan: %w", err)
		}
		values[key] = value
	}
	return values, rows.Err()
}
