package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iudanet/finsync/internal/models"
)

// GetBudget returns the budget with id
func (t *txStore) GetBudget(ctx context.Context, id string) (*models.Budget, error) {
	query := `
		SELECT id, category_id, month, amount, created_at, updated_at, synced, server_id
		FROM budgets WHERE id = ?
	`
	b := &models.Budget{}
	var createdAt int64
	var updatedAt sql.NullInt64
	var synced int
	var serverID sql.NullString

	err := t.tx.QueryRowContext(ctx, query, id).Scan(
		&b.ID, &b.CategoryID, &b.Month, &b.Amount, &createdAt, &updatedAt, &synced, &serverID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get budget: %w", notFound(err))
	}

	b.CreatedAt = fromNanos(createdAt)
	b.UpdatedAt = timeOrZero(updatedAt)
	b.Synced = synced == 1
	b.ServerID = serverID.String
	return b, nil
}

// UpsertBudget inserts or overwrites a budget
func (t *txStore) UpsertBudget(ctx context.Context, b *models.Budget) error {
	query := `
		INSERT INTO budgets (id, category_id, month, amount, created_at, updated_at, synced, server_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category_id = excluded.category_id,
			month = excluded.month,
			amount = excluded.amount,
			updated_at = excluded.updated_at,
			synced = excluded.synced,
			server_id = excluded.server_id
	`
	_, err := t.tx.ExecContext(ctx, query,
		b.ID, b.CategoryID, b.Month, b.Amount,
		toNanos(b.CreatedAt), nullTime(b.UpdatedAt), boolToInt(b.Synced), nullString(b.ServerID),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert budget: %w", err)
	}
	return nil
}

// DeleteBudget removes a budget
func (t *txStore) DeleteBudget(ctx context.Context, id string) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete budget: %w", err)
	}
	return rowsDeleted(res)
}

const recurringColumns = `
	id, name, type, amount, currency, category_id, subcategory_id, account_id,
	frequency, start_date, end_date, auto_generate, next_run,
	created_at, updated_at, synced, server_id`

// GetRecurring returns the recurring rule with id
func (t *txStore) GetRecurring(ctx context.Context, id string) (*models.RecurringRule, error) {
	query := `SELECT ` + recurringColumns + ` FROM recurring_rules WHERE id = ?`
	r, err := scanRecurring(t.tx.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get recurring rule: %w", notFound(err))
	}
	return r, nil
}

// UpsertRecurring inserts or overwrites a recurring rule
func (t *txStore) UpsertRecurring(ctx context.Context, r *models.RecurringRule) error {
	query := `
		INSERT INTO recurring_rules (` + recurringColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			amount = excluded.amount,
			currency = excluded.currency,
			category_id = excluded.category_id,
			subcategory_id = excluded.subcategory_id,
			account_id = excluded.account_id,
			frequency = excluded.frequency,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			auto_generate = excluded.auto_generate,
			next_run = excluded.next_run,
			updated_at = excluded.updated_at,
			synced = excluded.synced,
			server_id = excluded.server_id
	`
	_, err := t.tx.ExecContext(ctx, query,
		r.ID,
		r.Name,
		r.Type,
		r.Amount,
		r.Currency,
		r.CategoryID,
		nullID(r.SubCategoryID),
		r.AccountID,
		r.Frequency,
		toNanos(r.StartDate),
		nullTimePtr(r.EndDate),
		boolToInt(r.AutoGenerate),
		nullTimePtr(r.NextRun),
		toNanos(r.CreatedAt),
		nullTime(r.UpdatedAt),
		boolToInt(r.Synced),
		nullString(r.ServerID),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert recurring rule: %w", err)
	}
	return nil
}

// DeleteRecurring removes a recurring rule
func (t *txStore) DeleteRecurring(ctx context.Context, id string) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM recurring_rules WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete recurring rule: %w", err)
	}
	return rowsDeleted(res)
}

// DueRecurring lists auto-generating rules with next_run <= asOf
func (t *txStore) DueRecurring(ctx context.Context, asOf time.Time) ([]*models.RecurringRule, error) {
	query := `
		SELECT ` + recurringColumns + `
		FROM recurring_rules
		WHERE auto_generate = 1 AND next_run IS NOT NULL AND next_run <= ?
		ORDER BY next_run, id
	`
	rows, err := t.tx.QueryContext(ctx, query, toNanos(asOf))
	if err != nil {
		return nil, fmt.Errorf("failed to query due recurring rules: %w", err)
	}
	defer rows.Close()

	var rules []*models.RecurringRule
	for rows.Next() {
		r, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recurring rule: %w", err)
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recurring rules: %w", err)
	}
	return rules, nil
}

func scanRecurring(row rowScanner) (*models.RecurringRule, error) {
	r := &models.RecurringRule{}
	var subcategoryID, endDate, nextRun, updatedAt sql.NullInt64
	var startDate, createdAt int64
	var autoGenerate, synced int
	var serverID sql.NullString

	if err := row.Scan(
		&r.ID,
		&r.Name,
		&r.Type,
		&r.Amount,
		&r.Currency,
		&r.CategoryID,
		&subcategoryID,
		&r.AccountID,
		&r.Frequency,
		&startDate,
		&endDate,
		&autoGenerate,
		&nextRun,
		&createdAt,
		&updatedAt,
		&synced,
		&serverID,
	); err != nil {
		return nil, err
	}

	r.SubCategoryID = subcategoryID.Int64
	r.StartDate = fromNanos(startDate)
	r.EndDate = timePtr(endDate)
	r.AutoGenerate = autoGenerate == 1
	r.NextRun = timePtr(nextRun)
	r.CreatedAt = fromNanos(createdAt)
	r.UpdatedAt = timeOrZero(updatedAt)
	r.Synced = synced == 1
	r.ServerID = serverID.String
	return r, nil
}

// GetAlert returns the alert with id
func (t *txStore) GetAlert(ctx context.Context, id string) (*models.Alert, error) {
	query := `
		SELECT id, alert_type, severity, title, message, transaction_id, category_id,
		       amount, is_read, is_dismissed, action_taken, created_at, updated_at,
		       expires_at, synced, server_id
		FROM alerts WHERE id = ?
	`
	a := &models.Alert{}
	var message, txnID, actionTaken, serverID sql.NullString
	var categoryID, updatedAt, expiresAt sql.NullInt64
	var amount sql.NullFloat64
	var isRead, isDismissed, synced int
	var createdAt int64

	err := t.tx.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.AlertType, &a.Severity, &a.Title, &message, &txnID, &categoryID,
		&amount, &isRead, &isDismissed, &actionTaken, &createdAt, &updatedAt,
		&expiresAt, &synced, &serverID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", notFound(err))
	}

	a.Message = message.String
	a.TransactionID = txnID.String
	a.CategoryID = categoryID.Int64
	a.Amount = floatPtr(amount)
	a.IsRead = isRead == 1
	a.IsDismissed = isDismissed == 1
	a.ActionTaken = actionTaken.String
	a.CreatedAt = fromNanos(createdAt)
	a.UpdatedAt = timeOrZero(updatedAt)
	a.ExpiresAt = timePtr(expiresAt)
	a.Synced = synced == 1
	a.ServerID = serverID.String
	return a, nil
}

// UpsertAlert inserts or overwrites an alert
func (t *txStore) UpsertAlert(ctx context.Context, a *models.Alert) error {
	query := `
		INSERT INTO alerts (
			id, alert_type, severity, title, message, transaction_id, category_id,
			amount, is_read, is_dismissed, action_taken, created_at, updated_at,
			expires_at, synced, server_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			alert_type = excluded.alert_type,
			severity = excluded.severity,
			title = excluded.title,
			message = excluded.message,
			transaction_id = excluded.transaction_id,
			category_id = excluded.category_id,
			amount = excluded.amount,
			is_read = excluded.is_read,
			is_dismissed = excluded.is_dismissed,
			action_taken = excluded.action_taken,
			updated_at = excluded.updated_at,
			expires_at = excluded.expires_at,
			synced = excluded.synced,
			server_id = excluded.server_id
	`
	_, err := t.tx.ExecContext(ctx, query,
		a.ID, a.AlertType, a.Severity, a.Title, nullString(a.Message), nullString(a.TransactionID),
		nullID(a.CategoryID), nullFloat(a.Amount), boolToInt(a.IsRead), boolToInt(a.IsDismissed),
		nullString(a.ActionTaken), toNanos(a.CreatedAt), nullTime(a.UpdatedAt),
		nullTimePtr(a.ExpiresAt), boolToInt(a.Synced), nullString(a.ServerID),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert alert: %w", err)
	}
	return nil
}

// DeleteAlert removes an alert
func (t *txStore) DeleteAlert(ctx context.Context, id string) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM alerts WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete alert: %w", err)
	}
	return rowsDeleted(res)
}

// GetGoal returns the savings goal with id
func (t *txStore) GetGoal(ctx context.Context, id string) (*models.SavingsGoal, error) {
	query := `
		SELECT id, name, target_amount, current_amount, deadline, category_id,
		       achieved, description, icon, is_active, created_at, updated_at,
		       synced, server_id
		FROM savings_goals WHERE id = ?
	`
	g := &models.SavingsGoal{}
	var deadline, categoryID, updatedAt sql.NullInt64
	var description, icon, serverID sql.NullString
	var achieved, isActive, synced int
	var createdAt int64

	err := t.tx.QueryRowContext(ctx, query, id).Scan(
		&g.ID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &deadline, &categoryID,
		&achieved, &description, &icon, &isActive, &createdAt, &updatedAt,
		&synced, &serverID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get savings goal: %w", notFound(err))
	}

	g.Deadline = timePtr(deadline)
	g.CategoryID = categoryID.Int64
	g.Achieved = achieved == 1
	g.Description = description.String
	g.Icon = icon.String
	g.IsActive = isActive == 1
	g.CreatedAt = fromNanos(createdAt)
	g.UpdatedAt = timeOrZero(updatedAt)
	g.Synced = synced == 1
	g.ServerID = serverID.String
	return g, nil
}

// UpsertGoal inserts or overwrites a savings goal
func (t *txStore) UpsertGoal(ctx context.Context, g *models.SavingsGoal) error {
	query := `
		INSERT INTO savings_goals (
			id, name, target_amount, current_amount, deadline, category_id,
			achieved, description, icon, is_active, created_at, updated_at,
			synced, server_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			target_amount = excluded.target_amount,
			current_amount = excluded.current_amount,
			deadline = excluded.deadline,
			category_id = excluded.category_id,
			achieved = excluded.achieved,
			description = excluded.description,
			icon = excluded.icon,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at,
			synced = excluded.synced,
			server_id = excluded.server_id
	`
	_, err := t.tx.ExecContext(ctx, query,
		g.ID, g.Name, g.TargetAmount, g.CurrentAmount, nullTimePtr(g.Deadline), nullID(g.CategoryID),
		boolToInt(g.Achieved), nullString(g.Description), nullString(g.Icon), boolToInt(g.IsActive),
		toNanos(g.CreatedAt), nullTime(g.UpdatedAt), boolToInt(g.Synced), nullString(g.ServerID),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert savings goal: %w", err)
	}
	return nil
}

// DeleteGoal removes a savings goal
func (t *txStore) DeleteGoal(ctx context.Context, id string) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM savings_goals WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete savings goal: %w", err)
	}
	return rowsDeleted(res)
}
