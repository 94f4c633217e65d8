package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/finsync/internal/models"
)

// memOutbox хранит записи в памяти
type memOutbox struct {
	records []*models.OutboxRecord
}

func (m *memOutbox) AppendOutbox(ctx context.Context, rec *models.OutboxRecord) error {
	m.records = append(m.records, rec)
	return nil
}

func (m *memOutbox) DueOutbox(ctx context.Context, now time.Time, limit int) ([]*models.OutboxRecord, error) {
	return m.records, nil
}

func (m *memOutbox) MarkOutboxSynced(ctx context.Context, id string) error { return nil }

func (m *memOutbox) MarkOutboxFailed(ctx context.Context, id string, retryCount int, nextAttempt time.Time, lastErr string, deadLettered *time.Time) error {
	return nil
}

func (m *memOutbox) PendingOutboxCount(ctx context.Context) (int, error) {
	return len(m.records), nil
}

func (m *memOutbox) DeadLetters(ctx context.Context) ([]*models.OutboxRecord, error) {
	return nil, nil
}

func (m *memOutbox) RequeueDeadLetters(ctx context.Context) (int, error) { return 0, nil }

func newTestWriter() *Writer {
	fixed := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	n := 0
	return NewWriter(
		WithClock(func() time.Time { return fixed }),
		WithIDGenerator(func() string {
			n++
			return "rec-" + string(rune('0'+n))
		}),
	)
}

func sampleTxn() *models.TransactionPayload {
	return models.NewTransactionPayload(&models.Transaction{
		ID:         "t-1",
		AccountID:  "acc-1",
		Type:       models.TxnTypeExpense,
		Amount:     12.5,
		Currency:   "USD",
		OccurredAt: time.Date(2026, 4, 1, 7, 0, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2026, 4, 1, 7, 0, 0, 0, time.UTC),
		Tags:       []string{"coffee"},
	}, &models.Account{ID: "acc-1", Name: "Wallet"}, &models.Category{SyncID: "c-1", Name: "Food"}, nil)
}

func TestWriter_Record(t *testing.T) {
	store := &memOutbox{}
	w := newTestWriter()

	rec, err := w.Record(context.Background(), store, models.OpCreated, "", sampleTxn())
	require.NoError(t, err)
	require.Len(t, store.records, 1)

	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, "transaction", rec.EntityType)
	assert.Equal(t, "txn_created", rec.EventType)
	assert.Equal(t, "t-1", rec.EntityID)
	assert.False(t, rec.Synced)
	assert.Zero(t, rec.RetryCount)
	assert.True(t, rec.CreatedAt.Equal(time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Payload, &body))
	assert.Equal(t, "Wallet", body["account_name"])
	assert.Equal(t, "c-1", body["category_id"])
	assert.Equal(t, []any{"coffee"}, body["tags"])
}

func TestWriter_Record_MissingEntityID(t *testing.T) {
	store := &memOutbox{}
	_, err := newTestWriter().Record(context.Background(), store, models.OpCreated, "", &models.BudgetPayload{})
	require.Error(t, err)
	assert.Empty(t, store.records)
}

func TestWriter_RecordUpdate_SuppressesIdentical(t *testing.T) {
	store := &memOutbox{}
	w := newTestWriter()

	rec, err := w.RecordUpdate(context.Background(), store, sampleTxn(), sampleTxn())
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Empty(t, store.records)

	changed := sampleTxn()
	changed.Note = "latte"
	rec, err = w.RecordUpdate(context.Background(), store, sampleTxn(), changed)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "txn_updated", rec.EventType)
	assert.Len(t, store.records, 1)
}

func TestDecodePayload_KeepsIntegers(t *testing.T) {
	rec := &models.OutboxRecord{ID: "r", Payload: []byte(`{"count": 3, "amount": 1.5, "name": "x"}`)}

	m, err := DecodePayload(rec)
	require.NoError(t, err)
	assert.Equal(t, json.Number("3"), m["count"])
	assert.Equal(t, json.Number("1.5"), m["amount"])
	assert.Equal(t, "x", m["name"])

	_, err = DecodePayload(&models.OutboxRecord{ID: "bad", Payload: []byte(`{`)})
	assert.Error(t, err)
}
