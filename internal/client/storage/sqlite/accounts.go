package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iudanet/finsync/internal/models"
)

// GetAccount returns the account with id
func (t *txStore) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	query := `
		SELECT id, name, type, currency, opening_balance,
		       created_at, updated_at, synced, server_id
		FROM accounts
		WHERE id = ?
	`
	a, err := scanAccount(t.tx.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", notFound(err))
	}
	return a, nil
}

// UpsertAccount inserts or overwrites an account
func (t *txStore) UpsertAccount(ctx context.Context, a *models.Account) error {
	query := `
		INSERT INTO accounts (
			id, name, type, currency, opening_balance,
			created_at, updated_at, synced, server_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			currency = excluded.currency,
			opening_balance = excluded.opening_balance,
			updated_at = excluded.updated_at,
			synced = excluded.synced,
			server_id = excluded.server_id
	`
	_, err := t.tx.ExecContext(ctx, query,
		a.ID,
		a.Name,
		a.Type,
		a.Currency,
		a.OpeningBalance,
		toNanos(a.CreatedAt),
		nullTime(a.UpdatedAt),
		boolToInt(a.Synced),
		nullString(a.ServerID),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert account: %w", err)
	}
	return nil
}

// DeleteAccount removes an account and, by cascade, its transactions
func (t *txStore) DeleteAccount(ctx context.Context, id string) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete account: %w", err)
	}
	return rowsDeleted(res)
}

// ListAccounts returns all accounts ordered by name
func (t *txStore) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	query := `
		SELECT id, name, type, currency, opening_balance,
		       created_at, updated_at, synced, server_id
		FROM accounts
		ORDER BY name
	`
	rows, err := t.tx.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}

// rowScanner объединяет *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	a := &models.Account{}
	var createdAt int64
	var updatedAt sql.NullInt64
	var synced int
	var serverID sql.NullString

	if err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Type,
		&a.Currency,
		&a.OpeningBalance,
		&createdAt,
		&updatedAt,
		&synced,
		&serverID,
	); err != nil {
		return nil, err
	}

	a.CreatedAt = fromNanos(createdAt)
	a.UpdatedAt = timeOrZero(updatedAt)
	a.Synced = synced == 1
	a.ServerID = serverID.String
	return a, nil
}

const categoryColumns = `id, sync_id, name, budget_group, created_at`

// GetCategory returns the category with local id
func (t *txStore) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	return t.getCategory(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
}

// GetCategoryBySyncID returns the category with the given correlation key
func (t *txStore) GetCategoryBySyncID(ctx context.Context, syncID string) (*models.Category, error) {
	return t.getCategory(ctx, `SELECT `+categoryColumns+` FROM categories WHERE sync_id = ?`, syncID)
}

// GetCategoryByName returns the category with the given unique name
func (t *txStore) GetCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	return t.getCategory(ctx, `SELECT `+categoryColumns+` FROM categories WHERE name = ?`, name)
}

func (t *txStore) getCategory(ctx context.Context, query string, arg any) (*models.Category, error) {
	c, err := scanCategory(t.tx.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", notFound(err))
	}
	return c, nil
}

// InsertCategory stores c and assigns c.ID
func (t *txStore) InsertCategory(ctx context.Context, c *models.Category) error {
	query := `INSERT INTO categories (sync_id, name, budget_group, created_at) VALUES (?, ?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, query, nullString(c.SyncID), c.Name, c.BudgetGroup, toNanos(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read category id: %w", err)
	}
	c.ID = id
	return nil
}

// SetCategorySyncID assigns a correlation key to a local category
func (t *txStore) SetCategorySyncID(ctx context.Context, id int64, syncID string) error {
	if _, err := t.tx.ExecContext(ctx, `UPDATE categories SET sync_id = ? WHERE id = ?`, syncID, id); err != nil {
		return fmt.Errorf("failed to set category sync id: %w", err)
	}
	return nil
}

// ListCategories returns all categories ordered by name
func (t *txStore) ListCategories(ctx context.Context) ([]*models.Category, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

func scanCategory(row rowScanner) (*models.Category, error) {
	c := &models.Category{}
	var syncID sql.NullString
	var createdAt int64
	if err := row.Scan(&c.ID, &syncID, &c.Name, &c.BudgetGroup, &createdAt); err != nil {
		return nil, err
	}
	c.SyncID = syncID.String
	c.CreatedAt = fromNanos(createdAt)
	return c, nil
}

const subCategoryColumns = `id, sync_id, category_id, name, created_at`

// GetSubCategory returns the subcategory with local id
func (t *txStore) GetSubCategory(ctx context.Context, id int64) (*models.SubCategory, error) {
	return t.getSubCategory(ctx, `SELECT `+subCategoryColumns+` FROM subcategories WHERE id = ?`, id)
}

// GetSubCategoryBySyncID returns the subcategory with the given correlation key
func (t *txStore) GetSubCategoryBySyncID(ctx context.Context, syncID string) (*models.SubCategory, error) {
	return t.getSubCategory(ctx, `SELECT `+subCategoryColumns+` FROM subcategories WHERE sync_id = ?`, syncID)
}

// GetSubCategoryByName returns the subcategory named name under categoryID
func (t *txStore) GetSubCategoryByName(ctx context.Context, categoryID int64, name string) (*models.SubCategory, error) {
	query := `SELECT ` + subCategoryColumns + ` FROM subcategories WHERE category_id = ? AND name = ?`
	return t.getSubCategory(ctx, query, categoryID, name)
}

func (t *txStore) getSubCategory(ctx context.Context, query string, args ...any) (*models.SubCategory, error) {
	s := &models.SubCategory{}
	var syncID sql.NullString
	var createdAt int64
	err := t.tx.QueryRowContext(ctx, query, args...).Scan(&s.ID, &syncID, &s.CategoryID, &s.Name, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get subcategory: %w", notFound(err))
	}
	s.SyncID = syncID.String
	s.CreatedAt = fromNanos(createdAt)
	return s, nil
}

// InsertSubCategory stores s and assigns s.ID
func (t *txStore) InsertSubCategory(ctx context.Context, s *models.SubCategory) error {
	query := `INSERT INTO subcategories (sync_id, category_id, name, created_at) VALUES (?, ?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, query, nullString(s.SyncID), s.CategoryID, s.Name, toNanos(s.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert subcategory: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read subcategory id: %w", err)
	}
	s.ID = id
	return nil
}
