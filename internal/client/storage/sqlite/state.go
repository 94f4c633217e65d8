package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetState returns the value of key and whether it exists
func (t *txStore) GetState(ctx context.Context, key string) (string, bool, error) {
	var value sql.NullString
	err := t.tx.QueryRowContext(ctx, `SELECT value FROM sync_state WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get state %s: %w", key, err)
	}
	return value.String, true, nil
}

// SetState upserts key
func (t *txStore) SetState(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO sync_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := t.tx.ExecContext(ctx, query, key, value, toNanos(time.Now())); err != nil {
		return fmt.Errorf("failed to set state %s: %w", key, err)
	}
	return nil
}

// IsApplied reports whether eventID is in the ledger
func (t *txStore) IsApplied(ctx context.Context, eventID string) (bool, error) {
	var one int
	err := t.tx.QueryRowContext(ctx, `SELECT 1 FROM applied_events WHERE event_id = ?`, eventID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check ledger: %w", err)
	}
	return true, nil
}

// MarkApplied records eventID; recording it twice is a no-op
func (t *txStore) MarkApplied(ctx context.Context, eventID string, eventCreatedAt time.Time) error {
	query := `
		INSERT INTO applied_events (event_id, event_created_at, applied_at) VALUES (?, ?, ?)
		ON CONFLICT(event_id) DO NOTHING
	`
	if _, err := t.tx.ExecContext(ctx, query, eventID, toNanos(eventCreatedAt), toNanos(time.Now())); err != nil {
		return fmt.Errorf("failed to mark event applied: %w", err)
	}
	return nil
}

// PruneApplied deletes ledger rows for events created strictly before the given time
func (t *txStore) PruneApplied(ctx context.Context, before time.Time) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM applied_events WHERE event_created_at < ?`, toNanos(before))
	if err != nil {
		return 0, fmt.Errorf("failed to prune ledger: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

// AppliedCount returns the ledger size
func (t *txStore) AppliedCount(ctx context.Context) (int, error) {
	var n int
	if err := t.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM applied_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count ledger: %w", err)
	}
	return n, nil
}
