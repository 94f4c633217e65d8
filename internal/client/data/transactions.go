package data

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/iudanet/finsync/internal/apperrors"
	"github.com/iudanet/finsync/internal/client/outbox"
	"github.com/iudanet/finsync/internal/client/storage"
	"github.com/iudanet/finsync/internal/models"
	"github.com/iudanet/finsync/internal/validation"
)

// TransactionInput describes a new transaction. OccurredAt defaults to now.
type TransactionInput struct {
	OccurredAt      time.Time
	AccountID       string
	Type            string
	Currency        string
	CategoryName    string
	SubCategoryName string
	Merchant        string
	Note            string
	Tags            []string
	Amount          float64
}

// TransactionUpdate holds the fields to change; nil means unchanged.
type TransactionUpdate struct {
	Amount       *float64
	Type         *string
	CategoryName *string
	Merchant     *string
	Note         *string
	OccurredAt   *time.Time
	Tags         *[]string
}

// CreateTransaction adds a transaction and records txn_created
func (s *service) CreateTransaction(ctx context.Context, in TransactionInput) (*models.Transaction, error) {
	if err := validation.TransactionType(in.Type); err != nil {
		return nil, err
	}
	if err := validation.PositiveAmount("amount", in.Amount); err != nil {
		return nil, err
	}
	if err := validation.Tags(in.Tags); err != nil {
		return nil, err
	}
	if in.CategoryName == "" {
		in.CategoryName = models.PlaceholderCategory
	}

	now := s.now().UTC()
	if in.OccurredAt.IsZero() {
		in.OccurredAt = now
	}

	txn := &models.Transaction{
		ID:         s.newID(),
		AccountID:  in.AccountID,
		Type:       in.Type,
		Amount:     in.Amount,
		OccurredAt: in.OccurredAt.UTC(),
		Merchant:   strings.TrimSpace(in.Merchant),
		Note:       strings.TrimSpace(in.Note),
		Tags:       normalizeTags(in.Tags),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		account, err := requireAccount(ctx, tx, in.AccountID)
		if err != nil {
			return err
		}
		txn.Currency = in.Currency
		if txn.Currency == "" {
			txn.Currency = account.Currency
		}
		if err := validation.Currency(txn.Currency); err != nil {
			return err
		}

		cat, err := s.ensureCategory(ctx, tx, in.CategoryName, "")
		if err != nil {
			return err
		}
		txn.CategoryID = cat.ID

		sub, err := s.ensureSubCategory(ctx, tx, cat.ID, in.SubCategoryName)
		if err != nil {
			return err
		}
		if sub != nil {
			txn.SubCategoryID = sub.ID
		}

		if err := tx.UpsertTransaction(ctx, txn); err != nil {
			return err
		}
		_, err = s.outbox.Record(ctx, tx, models.OpCreated, txn.ID, models.NewTransactionPayload(txn, account, cat, sub))
		return err
	})
	if err != nil {
		if apperrors.IsValidation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	s.logger.Debug("Transaction created", "transaction_id", txn.ID, "tags", len(txn.Tags))
	return txn, nil
}

// UpdateTransaction applies upd and records txn_updated unless the
// resulting snapshot is identical to the current one
func (s *service) UpdateTransaction(ctx context.Context, id string, upd TransactionUpdate) (*models.Transaction, bool, error) {
	if upd.Type != nil {
		if err := validation.TransactionType(*upd.Type); err != nil {
			return nil, false, err
		}
	}
	if upd.Amount != nil {
		if err := validation.PositiveAmount("amount", *upd.Amount); err != nil {
			return nil, false, err
		}
	}
	if upd.Tags != nil {
		if err := validation.Tags(*upd.Tags); err != nil {
			return nil, false, err
		}
	}

	var txn *models.Transaction
	changed := false
	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		current, err := getTransaction(ctx, tx, id)
		if err != nil {
			return err
		}

		account, cat, sub, err := references(ctx, tx, current.AccountID, current.CategoryID, current.SubCategoryID)
		if err != nil {
			return err
		}
		before := models.NewTransactionPayload(current, account, cat, sub)

		next := *current
		next.Tags = slices.Clone(current.Tags)
		if upd.Amount != nil {
			next.Amount = *upd.Amount
		}
		if upd.Type != nil {
			next.Type = *upd.Type
		}
		if upd.Merchant != nil {
			next.Merchant = strings.TrimSpace(*upd.Merchant)
		}
		if upd.Note != nil {
			next.Note = strings.TrimSpace(*upd.Note)
		}
		if upd.OccurredAt != nil {
			next.OccurredAt = upd.OccurredAt.UTC()
		}
		if upd.Tags != nil {
			next.Tags = normalizeTags(*upd.Tags)
		}
		if upd.CategoryName != nil {
			if cat, err = s.ensureCategory(ctx, tx, *upd.CategoryName, ""); err != nil {
				return err
			}
			if cat.ID != current.CategoryID {
				next.CategoryID = cat.ID
				// подкатегория принадлежит прежней категории
				next.SubCategoryID = 0
				sub = nil
			}
		}

		same, err := outbox.Equal(before, models.NewTransactionPayload(&next, account, cat, sub))
		if err != nil {
			return err
		}
		if same {
			txn = current
			return nil
		}

		next.UpdatedAt = s.now().UTC()
		next.Synced = false
		if err := tx.UpsertTransaction(ctx, &next); err != nil {
			return err
		}
		if _, err := s.outbox.Record(ctx, tx, models.OpUpdated, next.ID, models.NewTransactionPayload(&next, account, cat, sub)); err != nil {
			return err
		}

		txn = &next
		changed = true
		return nil
	})
	if err != nil {
		if apperrors.IsValidation(err) || errors.Is(err, storage.ErrNotFound) {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("failed to update transaction: %w", err)
	}

	return txn, changed, nil
}

// DeleteTransaction removes a transaction and records txn_deleted
func (s *service) DeleteTransaction(ctx context.Context, id string) error {
	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		if _, err := getTransaction(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.DeleteTransaction(ctx, id); err != nil {
			return err
		}

		p := &models.TransactionPayload{
			TransactionID: id,
			UpdatedAt:     models.NewTimestamp(s.now()),
		}
		_, err := s.outbox.Record(ctx, tx, models.OpDeleted, id, p)
		return err
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

// GetTransaction returns one transaction with its tags
func (s *service) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	var txn *models.Transaction
	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		txn, err = getTransaction(ctx, tx, id)
		return err
	})
	return txn, err
}

// ListTransactions returns the newest transactions first
func (s *service) ListTransactions(ctx context.Context, limit int) ([]*models.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}

	var txns []*models.Transaction
	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		txns, err = tx.ListTransactions(ctx, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}

func getTransaction(ctx context.Context, tx storage.Tx, id string) (*models.Transaction, error) {
	txn, err := tx.GetTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("transaction %s: %w", id, storage.ErrNotFound)
		}
		return nil, err
	}
	return txn, nil
}

// normalizeTags trims names and drops duplicates, keeping first-seen order
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
