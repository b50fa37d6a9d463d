package clientdata

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Repository is the sqlite-backed Store. Values are msgpack blobs in kv_cache.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a new cache repository on a migrated cache database.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Put saves data with expiration = now + ttl.
// Uses INSERT OR REPLACE to upsert data.
func (r *Repository) Put(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	expiresAt := r.now().Add(ttl).Unix()

	_, err = r.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO kv_cache (key, data, expires_at) VALUES (?, ?, ?)",
		key, data, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}

	return nil
}

// Get returns data only if expires_at > now.
func (r *Repository) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := r.getFresh(ctx, r.db, key)
	if err != nil || data == nil {
		return false, err
	}

	if err := msgpack.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}

	return true, nil
}

// Increment adds one to a counter inside a transaction.
// An expired counter restarts at one with a fresh expiry.
func (r *Repository) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := r.now()
	var (
		current   int64
		expiresAt = now.Add(ttl).Unix()
	)

	var data []byte
	var existingExpiry int64
	err = tx.QueryRowContext(ctx,
		"SELECT data, expires_at FROM kv_cache WHERE key = ? AND expires_at > ?",
		key, now.Unix(),
	).Scan(&data, &existingExpiry)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return 0, fmt.Errorf("failed to read counter %s: %w", key, err)
	default:
		if err := msgpack.Unmarshal(data, &current); err != nil {
			return 0, fmt.Errorf("failed to unmarshal counter %s: %w", key, err)
		}
		expiresAt = existingExpiry
	}

	current++
	encoded, err := msgpack.Marshal(current)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal counter: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO kv_cache (key, data, expires_at) VALUES (?, ?, ?)",
		key, encoded, expiresAt,
	); err != nil {
		return 0, fmt.Errorf("failed to store counter %s: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit counter %s: %w", key, err)
	}

	return current, nil
}

// Counter returns the current value of a counter.
func (r *Repository) Counter(ctx context.Context, key string) (int64, error) {
	var value int64
	ok, err := r.Get(ctx, key, &value)
	if err != nil || !ok {
		return 0, err
	}
	return value, nil
}

// Delete removes a specific entry.
func (r *Repository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM kv_cache WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// DeleteExpired removes all rows where expires_at <= now.
// Returns the number of rows deleted.
func (r *Repository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM kv_cache WHERE expires_at <= ?", r.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired entries: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (r *Repository) getFresh(ctx context.Context, q queryRower, key string) ([]byte, error) {
	var data []byte
	err := q.QueryRowContext(ctx,
		"SELECT data FROM kv_cache WHERE key = ? AND expires_at > ?",
		key, r.now().Unix(),
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return data, nil
}
