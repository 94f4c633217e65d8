package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/finsync/internal/client/storage"
	"github.com/iudanet/finsync/internal/models"
)

func setupTestStorage(t *testing.T) (*Storage, func()) {
	t.Helper()

	s, err := New(context.Background(), ":memory:")
	require.NoError(t, err)

	return s, func() {
		_ = s.Close()
	}
}

func seedAccountAndCategory(t *testing.T, ctx context.Context, s *Storage) (string, int64) {
	t.Helper()

	accountID := uuid.NewString()
	var categoryID int64
	err := s.InTx(ctx, func(tx storage.Tx) error {
		if err := tx.UpsertAccount(ctx, &models.Account{
			ID: accountID, Name: "Wallet", Type: "efectivo", Currency: "USD", CreatedAt: time.Now(),
		}); err != nil {
			return err
		}
		cat := &models.Category{SyncID: uuid.NewString(), Name: "Food", BudgetGroup: "Necesidades", CreatedAt: time.Now()}
		if err := tx.InsertCategory(ctx, cat); err != nil {
			return err
		}
		categoryID = cat.ID
		return nil
	})
	require.NoError(t, err)
	return accountID, categoryID
}

func TestInTx_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx storage.Tx) error {
		require.NoError(t, tx.SetState(ctx, storage.StateDeviceID, "dev-1"))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = s.InTx(ctx, func(tx storage.Tx) error {
		_, ok, err := tx.GetState(ctx, storage.StateDeviceID)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)
}

func TestInTx_RollbackOnPanic(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	assert.Panics(t, func() {
		_ = s.InTx(ctx, func(tx storage.Tx) error {
			_ = tx.SetState(ctx, storage.StateDeviceID, "dev-1")
			panic("crash")
		})
	})

	err := s.InTx(ctx, func(tx storage.Tx) error {
		_, ok, err := tx.GetState(ctx, storage.StateDeviceID)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)
}

func TestOutbox_DueOrderingAndBackoff(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	records := []*models.OutboxRecord{
		{ID: "b", EntityType: "transaction", EventType: "txn_created", EntityID: "t1", Payload: []byte(`{}`), CreatedAt: base},
		{ID: "a", EntityType: "transaction", EventType: "txn_updated", EntityID: "t1", Payload: []byte(`{}`), CreatedAt: base},
		{ID: "c", EntityType: "budget", EventType: "budget_created", EntityID: "b1", Payload: []byte(`{}`), CreatedAt: base.Add(time.Second)},
	}

	err := s.InTx(ctx, func(tx storage.Tx) error {
		for _, rec := range records {
			if err := tx.AppendOutbox(ctx, rec); err != nil {
				return err
			}
		}
		return tx.MarkOutboxFailed(ctx, "c", 1, base.Add(time.Hour), "timeout", nil)
	})
	require.NoError(t, err)

	err = s.InTx(ctx, func(tx storage.Tx) error {
		due, err := tx.DueOutbox(ctx, base.Add(time.Minute), 10)
		require.NoError(t, err)
		require.Len(t, due, 2)
		assert.Equal(t, "a", due[0].ID)
		assert.Equal(t, "b", due[1].ID)

		due, err = tx.DueOutbox(ctx, base.Add(2*time.Hour), 10)
		require.NoError(t, err)
		require.Len(t, due, 3)
		assert.Equal(t, "c", due[2].ID)
		assert.Equal(t, 1, due[2].RetryCount)
		assert.Equal(t, "timeout", due[2].LastError)

		due, err = tx.DueOutbox(ctx, base.Add(2*time.Hour), 1)
		require.NoError(t, err)
		assert.Len(t, due, 1)

		require.NoError(t, tx.MarkOutboxSynced(ctx, "a"))
		pending, err := tx.PendingOutboxCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, pending)
		return nil
	})
	require.NoError(t, err)
}

func TestOutbox_DeadLetters(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	now := time.Now().UTC()
	err := s.InTx(ctx, func(tx storage.Tx) error {
		require.NoError(t, tx.AppendOutbox(ctx, &models.OutboxRecord{
			ID: "x", EntityType: "alert", EventType: "alert_created", EntityID: "al", Payload: []byte(`{}`), CreatedAt: now,
		}))
		return tx.MarkOutboxFailed(ctx, "x", 5, now.Add(-time.Minute), "rejected", &now)
	})
	require.NoError(t, err)

	err = s.InTx(ctx, func(tx storage.Tx) error {
		due, err := tx.DueOutbox(ctx, now.Add(time.Hour), 10)
		require.NoError(t, err)
		assert.Empty(t, due)

		dead, err := tx.DeadLetters(ctx)
		require.NoError(t, err)
		require.Len(t, dead, 1)
		require.NotNil(t, dead[0].DeadLetteredAt)

		n, err := tx.RequeueDeadLetters(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		due, err = tx.DueOutbox(ctx, now, 10)
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, 0, due[0].RetryCount)
		return nil
	})
	require.NoError(t, err)
}

func TestLedger_MarkAndPrune(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	err := s.InTx(ctx, func(tx storage.Tx) error {
		require.NoError(t, tx.MarkApplied(ctx, "e1", t0))
		require.NoError(t, tx.MarkApplied(ctx, "e1", t0))
		require.NoError(t, tx.MarkApplied(ctx, "e2", t0.Add(time.Second)))
		require.NoError(t, tx.MarkApplied(ctx, "e3", t0.Add(2*time.Second)))

		ok, err := tx.IsApplied(ctx, "e1")
		require.NoError(t, err)
		assert.True(t, ok)

		n, err := tx.PruneApplied(ctx, t0.Add(time.Second))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		count, err := tx.AppliedCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
		return nil
	})
	require.NoError(t, err)
}

func TestTransaction_UpsertReplacesTags(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	accountID, categoryID := seedAccountAndCategory(t, ctx, s)

	txn := &models.Transaction{
		ID:         uuid.NewString(),
		AccountID:  accountID,
		CategoryID: categoryID,
		Type:       models.TxnTypeExpense,
		Amount:     25.5,
		Currency:   "USD",
		OccurredAt: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
		Tags:       []string{"lunch", "work"},
	}

	err := s.InTx(ctx, func(tx storage.Tx) error {
		return tx.UpsertTransaction(ctx, txn)
	})
	require.NoError(t, err)

	txn.Tags = []string{"dinner"}
	txn.Amount = 30
	err = s.InTx(ctx, func(tx storage.Tx) error {
		return tx.UpsertTransaction(ctx, txn)
	})
	require.NoError(t, err)

	err = s.InTx(ctx, func(tx storage.Tx) error {
		got, err := tx.GetTransaction(ctx, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"dinner"}, got.Tags)
		assert.Equal(t, 30.0, got.Amount)
		assert.True(t, txn.UpdatedAt.Equal(got.UpdatedAt))

		deleted, err := tx.DeleteTransaction(ctx, txn.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = tx.DeleteTransaction(ctx, txn.ID)
		require.NoError(t, err)
		assert.False(t, deleted)

		_, err = tx.GetTransaction(ctx, txn.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestRecurring_Due(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	accountID, categoryID := seedAccountAndCategory(t, ctx, s)
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	err := s.InTx(ctx, func(tx storage.Tx) error {
		for id, next := range map[string]time.Time{"due": past, "later": future} {
			next := next
			if err := tx.UpsertRecurring(ctx, &models.RecurringRule{
				ID: id, Name: id, Type: models.TxnTypeExpense, Amount: 10, Currency: "USD",
				CategoryID: categoryID, AccountID: accountID, Frequency: models.FrequencyMonthly,
				StartDate: past, AutoGenerate: true, NextRun: &next, CreatedAt: now,
			}); err != nil {
				return err
			}
		}

		rules, err := tx.DueRecurring(ctx, now)
		require.NoError(t, err)
		require.Len(t, rules, 1)
		assert.Equal(t, "due", rules[0].ID)
		return nil
	})
	require.NoError(t, err)
}
