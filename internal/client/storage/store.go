package storage

import (
	"context"
	"time"

	"github.com/iudanet/finsync/internal/models"
)

// Ключи таблицы sync_state
const (
	StateLastAppliedAt        = "last_applied_at"
	StateLastAppliedEventID   = "last_applied_event_id"
	StateLastPushTimestamp    = "last_push_timestamp"
	StateDeviceID             = "device_id"
	StateInitialSyncCompleted = "initial_sync_completed"
	StateLastLedgerCompaction = "last_ledger_compaction"
)

// Store is the local relational store. Every read and write goes through a
// scoped transaction.
type Store interface {
	// InTx runs fn inside one transaction. The transaction is committed when
	// fn returns nil and rolled back when it returns an error or panics.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
}

// Tx is the set of operations available inside a transaction.
type Tx interface {
	OutboxStore
	StateStore
	LedgerStore
	EntityStore
}

// OutboxStore manages the queue of local mutations awaiting push.
type OutboxStore interface {
	// AppendOutbox inserts a new unsynced record
	AppendOutbox(ctx context.Context, rec *models.OutboxRecord) error

	// DueOutbox returns unsynced, not dead-lettered records whose
	// next_attempt_at is null or <= now, oldest first, at most limit
	DueOutbox(ctx context.Context, now time.Time, limit int) ([]*models.OutboxRecord, error)

	// MarkOutboxSynced sets synced and clears error state
	MarkOutboxSynced(ctx context.Context, id string) error

	// MarkOutboxFailed records a failed attempt
	MarkOutboxFailed(ctx context.Context, id string, retryCount int, nextAttempt time.Time, lastErr string, deadLettered *time.Time) error

	// PendingOutboxCount counts unsynced records including dead letters
	PendingOutboxCount(ctx context.Context) (int, error)

	// DeadLetters lists dead-lettered records, oldest first
	DeadLetters(ctx context.Context) ([]*models.OutboxRecord, error)

	// RequeueDeadLetters makes every dead letter due again and resets its counter
	RequeueDeadLetters(ctx context.Context) (int, error)
}

// StateStore is the key/value cursor table.
type StateStore interface {
	// GetState returns the value and whether the key exists
	GetState(ctx context.Context, key string) (string, bool, error)
	SetState(ctx context.Context, key, value string) error
}

// LedgerStore is the set of remote event ids already applied.
type LedgerStore interface {
	IsApplied(ctx context.Context, eventID string) (bool, error)
	MarkApplied(ctx context.Context, eventID string, eventCreatedAt time.Time) error

	// PruneApplied deletes entries whose event was created strictly before t
	PruneApplied(ctx context.Context, before time.Time) (int64, error)
	AppliedCount(ctx context.Context) (int, error)
}

// EntityStore reads and writes domain entities. Get methods return
// ErrNotFound when the row does not exist; Delete methods report whether a
// row was removed.
type EntityStore interface {
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	UpsertAccount(ctx context.Context, a *models.Account) error
	DeleteAccount(ctx context.Context, id string) (bool, error)
	ListAccounts(ctx context.Context) ([]*models.Account, error)

	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	GetCategoryBySyncID(ctx context.Context, syncID string) (*models.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*models.Category, error)
	// InsertCategory stores c and sets c.ID
	InsertCategory(ctx context.Context, c *models.Category) error
	SetCategorySyncID(ctx context.Context, id int64, syncID string) error
	ListCategories(ctx context.Context) ([]*models.Category, error)

	GetSubCategory(ctx context.Context, id int64) (*models.SubCategory, error)
	GetSubCategoryBySyncID(ctx context.Context, syncID string) (*models.SubCategory, error)
	GetSubCategoryByName(ctx context.Context, categoryID int64, name string) (*models.SubCategory, error)
	// InsertSubCategory stores s and sets s.ID
	InsertSubCategory(ctx context.Context, s *models.SubCategory) error

	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	// UpsertTransaction writes the row and replaces its tag set with t.Tags
	UpsertTransaction(ctx context.Context, t *models.Transaction) error
	DeleteTransaction(ctx context.Context, id string) (bool, error)
	ListTransactions(ctx context.Context, limit int) ([]*models.Transaction, error)
	HasRecurringOccurrence(ctx context.Context, ruleID string, from, to time.Time) (bool, error)

	GetBudget(ctx context.Context, id string) (*models.Budget, error)
	UpsertBudget(ctx context.Context, b *models.Budget) error
	DeleteBudget(ctx context.Context, id string) (bool, error)

	GetRecurring(ctx context.Context, id string) (*models.RecurringRule, error)
	UpsertRecurring(ctx context.Context, r *models.RecurringRule) error
	DeleteRecurring(ctx context.Context, id string) (bool, error)
	// DueRecurring lists auto-generating rules with next_run <= asOf
	DueRecurring(ctx context.Context, asOf time.Time) ([]*models.RecurringRule, error)

	GetAlert(ctx context.Context, id string) (*models.Alert, error)
	UpsertAlert(ctx context.Context, a *models.Alert) error
	DeleteAlert(ctx context.Context, id string) (bool, error)

	GetGoal(ctx context.Context, id string) (*models.SavingsGoal, error)
	UpsertGoal(ctx context.Context, g *models.SavingsGoal) error
	DeleteGoal(ctx context.Context, id string) (bool, error)
}
