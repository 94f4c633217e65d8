package data

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/finsync/internal/apperrors"
	"github.com/iudanet/finsync/internal/client/storage"
	"github.com/iudanet/finsync/internal/models"
	"github.com/iudanet/finsync/internal/validation"
)

// RecurringInput describes a new recurring rule.
type RecurringInput struct {
	StartDate       time.Time
	EndDate         *time.Time
	Name            string
	Type            string
	Currency        string
	AccountID       string
	CategoryName    string
	SubCategoryName string
	Frequency       string
	Amount          float64
	AutoGenerate    bool
}

// CreateRecurring adds a rule whose first run is its start date and
// records recurring_created
func (s *service) CreateRecurring(ctx context.Context, in RecurringInput) (*models.RecurringRule, error) {
	if err := validation.Name("name", in.Name); err != nil {
		return nil, err
	}
	if err := validation.TransactionType(in.Type); err != nil {
		return nil, err
	}
	if err := validation.PositiveAmount("amount", in.Amount); err != nil {
		return nil, err
	}
	if err := validation.Frequency(in.Frequency); err != nil {
		return nil, err
	}
	if in.StartDate.IsZero() {
		return nil, apperrors.NewValidationError("start_date", "cannot be empty")
	}
	if in.EndDate != nil && in.EndDate.Before(in.StartDate) {
		return nil, apperrors.NewValidationError("end_date", "is before start date")
	}
	if in.CategoryName == "" {
		in.CategoryName = models.PlaceholderCategory
	}

	now := s.now().UTC()
	start := in.StartDate.UTC()
	r := &models.RecurringRule{
		ID:           s.newID(),
		Name:         strings.TrimSpace(in.Name),
		Type:         in.Type,
		Amount:       in.Amount,
		AccountID:    in.AccountID,
		Frequency:    in.Frequency,
		StartDate:    start,
		NextRun:      &start,
		AutoGenerate: in.AutoGenerate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.EndDate != nil {
		end := in.EndDate.UTC()
		r.EndDate = &end
	}

	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		account, err := requireAccount(ctx, tx, in.AccountID)
		if err != nil {
			return err
		}
		r.Currency = in.Currency
		if r.Currency == "" {
			r.Currency = account.Currency
		}
		if err := validation.Currency(r.Currency); err != nil {
			return err
		}

		cat, err := s.ensureCategory(ctx, tx, in.CategoryName, "")
		if err != nil {
			return err
		}
		r.CategoryID = cat.ID

		sub, err := s.ensureSubCategory(ctx, tx, cat.ID, in.SubCategoryName)
		if err != nil {
			return err
		}
		if sub != nil {
			r.SubCategoryID = sub.ID
		}

		if err := tx.UpsertRecurring(ctx, r); err != nil {
			return err
		}
		_, err = s.outbox.Record(ctx, tx, models.OpCreated, r.ID, models.NewRecurringPayload(r, account, cat, sub))
		return err
	})
	if err != nil {
		if apperrors.IsValidation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create recurring rule: %w", err)
	}
	return r, nil
}

// GenerateDue materializes at most one occurrence per auto-generating rule
// whose next run is at or before asOf. A rule that already produced a
// transaction on that day only has its next run advanced. Rules past their
// end date are left alone. It returns the number of transactions created.
func (s *service) GenerateDue(ctx context.Context, asOf time.Time) (int, error) {
	created := 0
	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		created = 0

		rules, err := tx.DueRecurring(ctx, asOf)
		if err != nil {
			return err
		}

		for _, r := range rules {
			ok, err := s.generateOne(ctx, tx, r, asOf)
			if err != nil {
				return fmt.Errorf("rule %s: %w", r.ID, err)
			}
			if ok {
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to generate recurring transactions: %w", err)
	}

	if created > 0 {
		s.logger.Info("Recurring transactions generated", "count", created)
	}
	return created, nil
}

func (s *service) generateOne(ctx context.Context, tx storage.Tx, r *models.RecurringRule, asOf time.Time) (bool, error) {
	run := asOf.UTC()
	if r.NextRun != nil {
		run = r.NextRun.UTC()
	}
	if r.EndDate != nil && run.After(*r.EndDate) {
		return false, nil
	}

	next, err := NextRun(run, r.Frequency)
	if err != nil {
		return false, err
	}

	account, cat, sub, err := references(ctx, tx, r.AccountID, r.CategoryID, r.SubCategoryID)
	if err != nil {
		return false, err
	}

	dayStart := time.Date(run.Year(), run.Month(), run.Day(), 0, 0, 0, 0, time.UTC)
	exists, err := tx.HasRecurringOccurrence(ctx, r.ID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return false, err
	}

	now := s.now().UTC()
	created := false
	if !exists {
		txn := &models.Transaction{
			ID:            s.newID(),
			AccountID:     r.AccountID,
			CategoryID:    r.CategoryID,
			SubCategoryID: r.SubCategoryID,
			RecurringID:   r.ID,
			Type:          r.Type,
			Amount:        r.Amount,
			Currency:      r.Currency,
			OccurredAt:    run,
			Note:          "Recurrente: " + r.Name,
			Tags:          []string{},
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.UpsertTransaction(ctx, txn); err != nil {
			return false, err
		}
		if _, err := s.outbox.Record(ctx, tx, models.OpCreated, txn.ID, models.NewTransactionPayload(txn, account, cat, sub)); err != nil {
			return false, err
		}
		created = true
	}

	r.NextRun = &next
	r.UpdatedAt = now
	r.Synced = false
	if err := tx.UpsertRecurring(ctx, r); err != nil {
		return false, err
	}
	if _, err := s.outbox.Record(ctx, tx, models.OpUpdated, r.ID, models.NewRecurringPayload(r, account, cat, sub)); err != nil {
		return false, err
	}

	return created, nil
}

// NextRun returns the run after last for frequency. Month-based steps clamp
// to the last day of the target month, so Jan 31 monthly yields Feb 28.
func NextRun(last time.Time, frequency string) (time.Time, error) {
	if frequency == models.FrequencyWeekly {
		return last.AddDate(0, 0, 7), nil
	}

	months, err := validation.MonthlyStep(frequency)
	if err != nil {
		return time.Time{}, err
	}
	return addMonths(last, months), nil
}

func addMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	// нулевой день следующего месяца - последний день целевого
	lastDay := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
	return first.AddDate(0, 0, min(t.Day(), lastDay)-1)
}
