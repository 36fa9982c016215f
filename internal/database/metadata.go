package database

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const lastSyncKey = "last_sync"

// GetMetadata retrieves a metadata value by key.
// Returns ErrNotFound if the key doesn't exist.
func (d *Database) GetMetadata(ctx context.Context, key string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var value sql.NullString
	err := d.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value.String, nil
}

// SetMetadata sets a metadata key-value pair.
func (d *Database) SetMetadata(ctx context.Context, key, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// SchemaVersion returns the schema revision recorded at open time.
func (d *Database) SchemaVersion(ctx context.Context) (string, error) {
	return d.GetMetadata(ctx, "schema_version")
}

// GetLastSync returns when the last completed sync finished.
// Returns zero time if no sync has completed.
func (d *Database) GetLastSync(ctx context.Context) (time.Time, error) {
	value, err := d.GetMetadata(ctx, lastSyncKey)
	if errors.Is(err, ErrNotFound) || value == "" {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, value)
}

// SetLastSync stores the completion time of a sync.
func (d *Database) SetLastSync(ctx context.Context, t time.Time) error {
	if t.IsZero() {
		return d.SetMetadata(ctx, lastSyncKey, "")
	}
	return d.SetMetadata(ctx, lastSyncKey, t.UTC().Format(time.RFC3339))
}
