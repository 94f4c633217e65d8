package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/finsync/internal/apperrors"
	"github.com/iudanet/finsync/internal/client/merge"
	"github.com/iudanet/finsync/internal/client/storage"
	"github.com/iudanet/finsync/internal/models"
	"github.com/iudanet/finsync/pkg/api"
)

// TransactionSnapshotLimit caps the transactions snapshot; the other
// collections are fetched whole.
const TransactionSnapshotLimit = 1000

// bootstrapOrder: счета и категории должны появиться раньше ссылающихся строк
var bootstrapOrder = []string{
	api.CollectionAccounts,
	api.CollectionCategories,
	api.CollectionBudgets,
	api.CollectionTransactions,
}

// BootstrapResult counts rows inserted per collection.
type BootstrapResult struct {
	Inserted map[string]int `json:"inserted"`
	Skipped  bool           `json:"skipped"` // первичная синхронизация уже выполнена
}

// Total returns the number of inserted rows.
func (r *BootstrapResult) Total() int {
	n := 0
	for _, v := range r.Inserted {
		n += v
	}
	return n
}

// Bootstrapper seeds an empty device from remote snapshots exactly once.
type Bootstrapper struct {
	store   storage.Store
	gateway Gateway
	merger  *merge.Merger
	logger  *slog.Logger
	now     func() time.Time
	userUID string
}

// NewBootstrapper создает сервис первичной синхронизации
func NewBootstrapper(store storage.Store, gateway Gateway, merger *merge.Merger, userUID string, logger *slog.Logger) *Bootstrapper {
	return &Bootstrapper{
		store:   store,
		gateway: gateway,
		merger:  merger,
		logger:  logger,
		now:     time.Now,
		userUID: userUID,
	}
}

// NeedsInitialSync reports whether the completion flag is absent.
func (b *Bootstrapper) NeedsInitialSync(ctx context.Context) (bool, error) {
	var done bool
	err := b.store.InTx(ctx, func(tx storage.Tx) error {
		v, _, err := tx.GetState(ctx, storage.StateInitialSyncCompleted)
		done = v == "true"
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to read initial sync flag: %w", err)
	}
	return !done, nil
}

// Run downloads the snapshot collections and inserts the rows missing
// locally. All inserts, the completion flag and the pull watermark are
// committed together; on any failure nothing is written. When force is
// false and the flag is already set Run does nothing.
func (b *Bootstrapper) Run(ctx context.Context, force bool) (*BootstrapResult, error) {
	if !force {
		need, err := b.NeedsInitialSync(ctx)
		if err != nil {
			return nil, err
		}
		if !need {
			return &BootstrapResult{Skipped: true}, nil
		}
	}

	b.logger.Info("Starting initial sync", "user_id", b.userUID)

	docs := make(map[string][]map[string]any, len(bootstrapOrder))
	for _, collection := range bootstrapOrder {
		limit := 0
		if collection == api.CollectionTransactions {
			limit = TransactionSnapshotLimit
		}
		rows, err := b.gateway.FetchSnapshot(ctx, b.userUID, collection, limit)
		if err != nil {
			return nil, &apperrors.SyncError{Op: "bootstrap", Err: fmt.Errorf("failed to fetch %s: %w", collection, err)}
		}
		docs[collection] = rows
	}

	res := &BootstrapResult{}
	completedAt := b.now().UTC()
	err := b.store.InTx(ctx, func(tx storage.Tx) error {
		res.Inserted = make(map[string]int, len(bootstrapOrder))
		for _, collection := range bootstrapOrder {
			for _, doc := range docs[collection] {
				inserted, err := b.merger.Seed(ctx, tx, collection, doc)
				if err != nil {
					return err
				}
				if inserted {
					res.Inserted[collection]++
				}
			}
		}

		if err := tx.SetState(ctx, storage.StateInitialSyncCompleted, "true"); err != nil {
			return err
		}
		// события до этого момента уже отражены в снимках
		if err := tx.SetState(ctx, storage.StateLastAppliedAt, models.FormatTime(completedAt)); err != nil {
			return err
		}
		return tx.SetState(ctx, storage.StateLastAppliedEventID, "")
	})
	if err != nil {
		return nil, &apperrors.SyncError{Op: "bootstrap", Err: err}
	}

	b.logger.Info("Initial sync completed", "inserted", res.Total())
	return res, nil
}
