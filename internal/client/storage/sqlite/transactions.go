package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iudanet/finsync/internal/models"
)

const transactionColumns = `
	id, account_id, category_id, subcategory_id, recurring_id,
	type, amount, currency, occurred_at, merchant, note,
	created_at, updated_at, synced, server_id`

// GetTransaction returns the transaction with its tags
func (t *txStore) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`
	txn, err := scanTransaction(t.tx.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", notFound(err))
	}

	tags, err := t.transactionTags(ctx, id)
	if err != nil {
		return nil, err
	}
	txn.Tags = tags

	return txn, nil
}

// UpsertTransaction writes the row and replaces its tag set
func (t *txStore) UpsertTransaction(ctx context.Context, txn *models.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			account_id = excluded.account_id,
			category_id = excluded.category_id,
			subcategory_id = excluded.subcategory_id,
			recurring_id = excluded.recurring_id,
			type = excluded.type,
			amount = excluded.amount,
			currency = excluded.currency,
			occurred_at = excluded.occurred_at,
			merchant = excluded.merchant,
			note = excluded.note,
			updated_at = excluded.updated_at,
			synced = excluded.synced,
			server_id = excluded.server_id
	`
	_, err := t.tx.ExecContext(ctx, query,
		txn.ID,
		txn.AccountID,
		txn.CategoryID,
		nullID(txn.SubCategoryID),
		nullString(txn.RecurringID),
		txn.Type,
		txn.Amount,
		txn.Currency,
		toNanos(txn.OccurredAt),
		nullString(txn.Merchant),
		nullString(txn.Note),
		toNanos(txn.CreatedAt),
		nullTime(txn.UpdatedAt),
		boolToInt(txn.Synced),
		nullString(txn.ServerID),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert transaction: %w", err)
	}

	return t.replaceTags(ctx, txn.ID, txn.Tags)
}

// DeleteTransaction removes a transaction; its tag links cascade
func (t *txStore) DeleteTransaction(ctx context.Context, id string) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete transaction: %w", err)
	}
	return rowsDeleted(res)
}

// ListTransactions returns the most recent transactions, newest first
func (t *txStore) ListTransactions(ctx context.Context, limit int) ([]*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions ORDER BY occurred_at DESC, id LIMIT ?`
	rows, err := t.tx.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	var txns []*models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	// Закрываем курсор до запросов тегов: соединение одно
	rows.Close()

	for _, txn := range txns {
		tags, err := t.transactionTags(ctx, txn.ID)
		if err != nil {
			return nil, err
		}
		txn.Tags = tags
	}

	return txns, nil
}

// HasRecurringOccurrence reports whether ruleID already produced a
// transaction with occurred_at in [from, to)
func (t *txStore) HasRecurringOccurrence(ctx context.Context, ruleID string, from, to time.Time) (bool, error) {
	query := `
		SELECT COUNT(*) FROM transactions
		WHERE recurring_id = ? AND occurred_at >= ? AND occurred_at < ?
	`
	var n int
	if err := t.tx.QueryRowContext(ctx, query, ruleID, toNanos(from), toNanos(to)).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check recurring occurrence: %w", err)
	}
	return n > 0, nil
}

func (t *txStore) transactionTags(ctx context.Context, txnID string) ([]string, error) {
	query := `
		SELECT tg.name
		FROM transaction_tags tt
		JOIN tags tg ON tg.id = tt.tag_id
		WHERE tt.transaction_id = ?
		ORDER BY tt.position, tg.name
	`
	rows, err := t.tx.QueryContext(ctx, query, txnID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}
	return tags, nil
}

// replaceTags заменяет набор тегов транзакции целиком
func (t *txStore) replaceTags(ctx context.Context, txnID string, tags []string) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM transaction_tags WHERE transaction_id = ?`, txnID); err != nil {
		return fmt.Errorf("failed to clear tags: %w", err)
	}

	seen := make(map[string]struct{}, len(tags))
	for pos, name := range tags {
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		if _, err := t.tx.ExecContext(ctx, `INSERT INTO tags (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name); err != nil {
			return fmt.Errorf("failed to ensure tag %q: %w", name, err)
		}

		query := `
			INSERT INTO transaction_tags (transaction_id, tag_id, position)
			SELECT ?, id, ? FROM tags WHERE name = ?
		`
		if _, err := t.tx.ExecContext(ctx, query, txnID, pos, name); err != nil {
			return fmt.Errorf("failed to link tag %q: %w", name, err)
		}
	}

	return nil
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	txn := &models.Transaction{}
	var subcategoryID sql.NullInt64
	var recurringID, merchant, note, serverID sql.NullString
	var occurredAt, createdAt int64
	var updatedAt sql.NullInt64
	var synced int

	if err := row.Scan(
		&txn.ID,
		&txn.AccountID,
		&txn.CategoryID,
		&subcategoryID,
		&recurringID,
		&txn.Type,
		&txn.Amount,
		&txn.Currency,
		&occurredAt,
		&merchant,
		&note,
		&createdAt,
		&updatedAt,
		&synced,
		&serverID,
	); err != nil {
		return nil, err
	}

	txn.SubCategoryID = subcategoryID.Int64
	txn.RecurringID = recurringID.String
	txn.OccurredAt = fromNanos(occurredAt)
	txn.Merchant = merchant.String
	txn.Note = note.String
	txn.CreatedAt = fromNanos(createdAt)
	txn.UpdatedAt = timeOrZero(updatedAt)
	txn.Synced = synced == 1
	txn.ServerID = serverID.String
	return txn, nil
}
