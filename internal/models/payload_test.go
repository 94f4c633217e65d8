package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventType(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    EventType
		wantErr bool
	}{
		{name: "transaction created", in: "txn_created", want: EventType{Kind: KindTransaction, Op: OpCreated}},
		{name: "goal deleted", in: "goal_deleted", want: EventType{Kind: KindGoal, Op: OpDeleted}},
		{name: "account updated", in: "account_updated", want: EventType{Kind: KindAccount, Op: OpUpdated}},
		{name: "unknown kind", in: "category_created", wantErr: true},
		{name: "unknown op", in: "txn_moved", wantErr: true},
		{name: "no separator", in: "txn", wantErr: true},
		{name: "trailing separator", in: "txn_", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEventType(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestParseTime_Layouts(t *testing.T) {
	want := time.Date(2026, 2, 6, 15, 30, 45, 0, time.UTC)

	for _, in := range []string{
		"2026-02-06T15:30:45Z",
		"2026-02-06T17:30:45+02:00",
		"2026-02-06T15:30:45",
		"2026-02-06 15:30:45",
	} {
		got, err := ParseTime(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), in)
	}

	day, err := ParseTime("2026-02-06")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 6, 0, 0, 0, 0, time.UTC), day)

	_, err = ParseTime("yesterday")
	assert.Error(t, err)
}

func TestDecodePayload_Transaction(t *testing.T) {
	raw := map[string]any{
		"transaction_id": "t-1",
		"amount":         "25.50",
		"occurred_at":    "2026-03-01T10:00:00Z",
		"updated_at":     "2026-03-01T10:05:00.123Z",
		"category_id":    "cat-sync",
		"tags":           []any{"food", "work"},
		"unknown_field":  int64(3),
	}

	p, err := DecodePayload(KindTransaction, raw)
	require.NoError(t, err)

	txn, ok := p.(*TransactionPayload)
	require.True(t, ok)
	assert.Equal(t, "t-1", txn.Key())
	assert.InDelta(t, 25.50, txn.Amount.Float(), 1e-9)
	assert.Equal(t, []string{"food", "work"}, txn.Tags)
	require.NotNil(t, txn.UpdatedAt)
	assert.Equal(t, 123*time.Millisecond, time.Duration(txn.UpdatedAt.Nanosecond()))
}

func TestDecodePayload_NumericAmountFromWire(t *testing.T) {
	p, err := DecodePayload(KindBudget, map[string]any{"id": "b-1", "amount": int64(30)})
	require.NoError(t, err)
	assert.InDelta(t, 30.0, p.(*BudgetPayload).Amount.Float(), 1e-9)
}

func TestDecodePayload_UnknownKind(t *testing.T) {
	_, err := DecodePayload(EntityKind("category"), nil)
	assert.Error(t, err)
}

func TestNewTransactionPayload_Limits(t *testing.T) {
	tags := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		tags = append(tags, strings.Repeat("x", 40))
	}

	txn := &Transaction{
		ID:        "t-1",
		AccountID: "a-1",
		Type:      TxnTypeExpense,
		Amount:    12.5,
		Currency:  "USD",
		Merchant:  strings.Repeat("m", 250),
		Tags:      tags,
		UpdatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	p := NewTransactionPayload(txn, &Account{Name: "Wallet"}, &Category{SyncID: "c-1", Name: "Food"}, nil)
	assert.Len(t, p.Tags, 20)
	assert.Len(t, p.Tags[0], 30)
	assert.Len(t, p.Merchant, 200)
	assert.Equal(t, "Wallet", p.AccountName)
	assert.Equal(t, "c-1", p.CategoryID)
	assert.Empty(t, p.SubcategoryID)

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"updated_at":"2026-01-01T00:00:00Z"`)
	assert.NotContains(t, string(data), "occurred_at")
}

func TestRemoteEvent_Before(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := RemoteEvent{ID: "a", CreatedAt: t0}
	b := RemoteEvent{ID: "b", CreatedAt: t0}
	c := RemoteEvent{ID: "0", CreatedAt: t0.Add(time.Nanosecond)}

	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
	assert.True(t, b.Before(c))
}

func TestSavingsGoal_ProgressPercent(t *testing.T) {
	assert.Equal(t, 0.0, (&SavingsGoal{}).ProgressPercent())
	assert.Equal(t, 50.0, (&SavingsGoal{TargetAmount: 200, CurrentAmount: 100}).ProgressPercent())
	assert.Equal(t, 100.0, (&SavingsGoal{TargetAmount: 100, CurrentAmount: 150}).ProgressPercent())
}
