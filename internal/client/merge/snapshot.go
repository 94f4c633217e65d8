package merge

import (
	"context"
	"fmt"

	"github.com/iudanet/finsync/internal/client/storage"
	"github.com/iudanet/finsync/internal/models"
	"github.com/iudanet/finsync/pkg/api"
)

// snapshotKinds maps remote snapshot collections to entity kinds.
var snapshotKinds = map[string]models.EntityKind{
	api.CollectionAccounts:     models.KindAccount,
	api.CollectionBudgets:      models.KindBudget,
	api.CollectionTransactions: models.KindTransaction,
}

// Seed inserts one snapshot document of collection when no local row with
// the same key exists. Existing rows are left untouched. It reports whether
// a row was inserted.
func (m *Merger) Seed(ctx context.Context, tx storage.Tx, collection string, doc map[string]any) (bool, error) {
	if collection == api.CollectionCategories {
		return m.seedCategory(ctx, tx, doc)
	}

	kind, ok := snapshotKinds[collection]
	if !ok {
		return false, fmt.Errorf("no snapshot mapping for collection %q", collection)
	}

	p, err := models.DecodePayload(kind, doc)
	if err != nil {
		m.logger.Warn("Skipping undecodable snapshot document", "collection", collection, "error", err)
		return false, nil
	}

	id := p.Key()
	if id == "" {
		return false, nil
	}

	exists, err := m.exists(ctx, tx, kind, id)
	if err != nil || exists {
		return false, err
	}

	ev := &models.RemoteEvent{
		ID:        "snapshot/" + collection + "/" + id,
		Type:      models.NewEventType(kind, models.OpCreated).String(),
		EntityID:  id,
		CreatedAt: m.now().UTC(),
	}
	outcome, err := m.handlers[kind](ctx, tx, models.OpCreated, p, ev)
	if err != nil {
		return false, fmt.Errorf("failed to seed %s %s: %w", collection, id, err)
	}
	return outcome == OutcomeApplied, nil
}

func (m *Merger) seedCategory(ctx context.Context, tx storage.Tx, doc map[string]any) (bool, error) {
	syncID, _ := doc["id"].(string)
	name, _ := doc["name"].(string)
	group, _ := doc["budget_group"].(string)
	if syncID == "" {
		return false, nil
	}

	if _, err := tx.GetCategoryBySyncID(ctx, syncID); err == nil {
		return false, nil
	} else if !isNotFound(err) {
		return false, err
	}

	name = orDefault(name, models.PlaceholderCategory)
	if c, err := tx.GetCategoryByName(ctx, name); err == nil {
		if c.SyncID == "" {
			return false, tx.SetCategorySyncID(ctx, c.ID, syncID)
		}
		return false, nil
	} else if !isNotFound(err) {
		return false, err
	}

	c := &models.Category{
		SyncID:      syncID,
		Name:        name,
		BudgetGroup: orDefault(group, models.PlaceholderBudgetGroup),
		CreatedAt:   m.now().UTC(),
	}
	if err := tx.InsertCategory(ctx, c); err != nil {
		return false, fmt.Errorf("failed to seed category %s: %w", syncID, err)
	}
	return true, nil
}

func (m *Merger) exists(ctx context.Context, tx storage.Tx, kind models.EntityKind, id string) (bool, error) {
	var err error
	switch kind {
	case models.KindAccount:
		_, err = tx.GetAccount(ctx, id)
	case models.KindBudget:
		_, err = tx.GetBudget(ctx, id)
	case models.KindTransaction:
		_, err = tx.GetTransaction(ctx, id)
	default:
		return false, fmt.Errorf("no existence check for %s", kind)
	}

	switch {
	case err == nil:
		return true, nil
	case isNotFound(err):
		return false, nil
	default:
		return false, err
	}
}
