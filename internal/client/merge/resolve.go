package merge

import (
	"context"

	"github.com/iudanet/finsync/internal/client/storage"
	"github.com/iudanet/finsync/internal/models"
)

// ensureAccount returns the account with id, creating a placeholder when
// it has not been seen yet. Empty id yields nil.
func (m *Merger) ensureAccount(ctx context.Context, tx storage.Tx, id, name, currency string) (*models.Account, error) {
	if id == "" {
		return nil, nil
	}

	a, err := tx.GetAccount(ctx, id)
	if err == nil {
		return a, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	now := m.now().UTC()
	a = &models.Account{
		ID:        id,
		Name:      orDefault(name, models.PlaceholderAccountName),
		Type:      models.PlaceholderAccountType,
		Currency:  orDefault(currency, models.DefaultCurrency),
		Synced:    true,
		CreatedAt: now,
	}
	if err := tx.UpsertAccount(ctx, a); err != nil {
		return nil, err
	}

	m.logger.Debug("Created placeholder account", "account_id", id)
	return a, nil
}

// ensureCategory resolves a category by sync id, falling back to its name.
//
// With a sync id: an existing category with that id is returned; otherwise
// a category with the same name is adopted (its sync id is set when it had
// none) or a new one is created. Without a sync id the category is looked up
// by name only, and nil is returned when nothing matches.
func (m *Merger) ensureCategory(ctx context.Context, tx storage.Tx, syncID, name string) (*models.Category, error) {
	if syncID == "" {
		if name == "" {
			return nil, nil
		}
		c, err := tx.GetCategoryByName(ctx, name)
		if err != nil {
			if isNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		if c.SyncID == "" {
			c.SyncID = m.newID()
			if err := tx.SetCategorySyncID(ctx, c.ID, c.SyncID); err != nil {
				return nil, err
			}
		}
		return c, nil
	}

	c, err := tx.GetCategoryBySyncID(ctx, syncID)
	if err == nil {
		return c, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	name = orDefault(name, models.PlaceholderCategory)

	// имя уникально: категорию с тем же именем переиспользуем
	c, err = tx.GetCategoryByName(ctx, name)
	switch {
	case err == nil:
		if c.SyncID == "" {
			c.SyncID = syncID
			if err := tx.SetCategorySyncID(ctx, c.ID, syncID); err != nil {
				return nil, err
			}
		}
		return c, nil
	case !isNotFound(err):
		return nil, err
	}

	c = &models.Category{
		SyncID:      syncID,
		Name:        name,
		BudgetGroup: models.PlaceholderBudgetGroup,
		CreatedAt:   m.now().UTC(),
	}
	if err := tx.InsertCategory(ctx, c); err != nil {
		return nil, err
	}

	m.logger.Debug("Created placeholder category", "sync_id", syncID, "name", name)
	return c, nil
}

// placeholderCategory returns the catch-all category, creating it if needed.
func (m *Merger) placeholderCategory(ctx context.Context, tx storage.Tx) (*models.Category, error) {
	c, err := tx.GetCategoryByName(ctx, models.PlaceholderCategory)
	if err == nil {
		return c, nil
	}
	if !isNotFound(err) {
		return nil, err
	}
	return m.ensureCategory(ctx, tx, m.newID(), models.PlaceholderCategory)
}

// resolveCategory picks the category for an incoming row: the referenced one,
// else the one the local row already has, else the placeholder.
func (m *Merger) resolveCategory(ctx context.Context, tx storage.Tx, syncID, name string, current int64) (int64, error) {
	c, err := m.ensureCategory(ctx, tx, syncID, name)
	if err != nil {
		return 0, err
	}
	if c != nil {
		return c.ID, nil
	}
	if current != 0 {
		return current, nil
	}
	c, err = m.placeholderCategory(ctx, tx)
	if err != nil {
		return 0, err
	}
	return c.ID, nil
}

// optionalCategory resolves a category reference that may be absent.
func (m *Merger) optionalCategory(ctx context.Context, tx storage.Tx, syncID, name string) (int64, error) {
	c, err := m.ensureCategory(ctx, tx, syncID, name)
	if err != nil || c == nil {
		return 0, err
	}
	return c.ID, nil
}

// ensureSubCategory resolves a subcategory by sync id under categoryID,
// creating it when unseen. Empty sync id or category yields nil.
func (m *Merger) ensureSubCategory(ctx context.Context, tx storage.Tx, syncID, name string, categoryID int64) (*models.SubCategory, error) {
	if syncID == "" || categoryID == 0 {
		return nil, nil
	}

	s, err := tx.GetSubCategoryBySyncID(ctx, syncID)
	if err == nil {
		return s, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	name = orDefault(name, models.PlaceholderSubCategory)
	s, err = tx.GetSubCategoryByName(ctx, categoryID, name)
	if err == nil {
		return s, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	s = &models.SubCategory{
		SyncID:     syncID,
		CategoryID: categoryID,
		Name:       name,
		CreatedAt:  m.now().UTC(),
	}
	if err := tx.InsertSubCategory(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (m *Merger) subCategoryID(ctx context.Context, tx storage.Tx, syncID, name string, categoryID int64) (int64, error) {
	s, err := m.ensureSubCategory(ctx, tx, syncID, name, categoryID)
	if err != nil || s == nil {
		return 0, err
	}
	return s.ID, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
