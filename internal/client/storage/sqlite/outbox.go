package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iudanet/finsync/internal/models"
)

const outboxColumns = `
	id, entity_type, event_type, entity_id, payload, created_at,
	synced, retry_count, next_attempt_at, last_error, dead_lettered_at`

// AppendOutbox inserts a new unsynced record
func (t *txStore) AppendOutbox(ctx context.Context, rec *models.OutboxRecord) error {
	query := `
		INSERT INTO sync_outbox (
			id, entity_type, event_type, entity_id, payload, created_at,
			synced, retry_count
		) VALUES (?, ?, ?, ?, ?, ?, 0, 0)
	`

	_, err := t.tx.ExecContext(ctx, query,
		rec.ID,
		rec.EntityType,
		rec.EventType,
		rec.EntityID,
		rec.Payload,
		toNanos(rec.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox record: %w", err)
	}

	return nil
}

// DueOutbox returns records eligible for push at now, oldest first
func (t *txStore) DueOutbox(ctx context.Context, now time.Time, limit int) ([]*models.OutboxRecord, error) {
	query := `
		SELECT ` + outboxColumns + `
		FROM sync_outbox
		WHERE synced = 0
		  AND dead_lettered_at IS NULL
		  AND (next_attempt_at IS NULL OR next_attempt_at <= ?)
		ORDER BY created_at ASC, id ASC
		LIMIT ?
	`

	rows, err := t.tx.QueryContext(ctx, query, toNanos(now), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query due outbox: %w", err)
	}
	defer rows.Close()

	return scanOutboxRows(rows)
}

// MarkOutboxSynced sets synced and clears error state
func (t *txStore) MarkOutboxSynced(ctx context.Context, id string) error {
	query := `
		UPDATE sync_outbox
		SET synced = 1, last_error = NULL, next_attempt_at = NULL
		WHERE id = ?
	`
	if _, err := t.tx.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark outbox record synced: %w", err)
	}
	return nil
}

// MarkOutboxFailed records a failed attempt
func (t *txStore) MarkOutboxFailed(ctx context.Context, id string, retryCount int, nextAttempt time.Time, lastErr string, deadLettered *time.Time) error {
	query := `
		UPDATE sync_outbox
		SET retry_count = ?, next_attempt_at = ?, last_error = ?, dead_lettered_at = ?
		WHERE id = ?
	`
	_, err := t.tx.ExecContext(ctx, query,
		retryCount,
		toNanos(nextAttempt),
		nullString(lastErr),
		nullTimePtr(deadLettered),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark outbox record failed: %w", err)
	}
	return nil
}

// PendingOutboxCount counts unsynced records
func (t *txStore) PendingOutboxCount(ctx context.Context) (int, error) {
	var count int
	err := t.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_outbox WHERE synced = 0`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending outbox: %w", err)
	}
	return count, nil
}

// DeadLetters lists dead-lettered records
func (t *txStore) DeadLetters(ctx context.Context) ([]*models.OutboxRecord, error) {
	query := `
		SELECT ` + outboxColumns + `
		FROM sync_outbox
		WHERE synced = 0 AND dead_lettered_at IS NOT NULL
		ORDER BY created_at ASC, id ASC
	`

	rows, err := t.tx.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query dead letters: %w", err)
	}
	defer rows.Close()

	return scanOutboxRows(rows)
}

// RequeueDeadLetters makes every dead letter due again
func (t *txStore) RequeueDeadLetters(ctx context.Context) (int, error) {
	query := `
		UPDATE sync_outbox
		SET dead_lettered_at = NULL, next_attempt_at = NULL, retry_count = 0
		WHERE synced = 0 AND dead_lettered_at IS NOT NULL
	`
	res, err := t.tx.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to requeue dead letters: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return int(n), nil
}

func scanOutboxRows(rows *sql.Rows) ([]*models.OutboxRecord, error) {
	var records []*models.OutboxRecord
	for rows.Next() {
		rec := &models.OutboxRecord{}
		var createdAt int64
		var synced int
		var nextAttempt, deadLettered sql.NullInt64
		var lastErr sql.NullString

		if err := rows.Scan(
			&rec.ID,
			&rec.EntityType,
			&rec.EventType,
			&rec.EntityID,
			&rec.Payload,
			&createdAt,
			&synced,
			&rec.RetryCount,
			&nextAttempt,
			&lastErr,
			&deadLettered,
		); err != nil {
			return nil, fmt.Errorf("failed to scan outbox record: %w", err)
		}

		rec.CreatedAt = fromNanos(createdAt)
		rec.Synced = synced == 1
		rec.NextAttemptAt = timePtr(nextAttempt)
		rec.DeadLetteredAt = timePtr(deadLettered)
		rec.LastError = lastErr.String
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outbox rows: %w", err)
	}

	return records, nil
}
