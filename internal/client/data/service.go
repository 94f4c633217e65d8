// Package data holds the domain services that mutate local finance data.
// Every mutation and its outbox record commit in one transaction.
package data

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/finsync/internal/apperrors"
	"github.com/iudanet/finsync/internal/client/outbox"
	"github.com/iudanet/finsync/internal/client/storage"
	"github.com/iudanet/finsync/internal/models"
	"github.com/iudanet/finsync/internal/validation"
)

// Service определяет интерфейс клиентского сервиса данных
type Service interface {
	CreateAccount(ctx context.Context, in AccountInput) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]*models.Account, error)

	EnsureCategory(ctx context.Context, name, budgetGroup string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)

	CreateTransaction(ctx context.Context, in TransactionInput) (*models.Transaction, error)
	// UpdateTransaction reports false when nothing changed and no event was recorded
	UpdateTransaction(ctx context.Context, id string, upd TransactionUpdate) (*models.Transaction, bool, error)
	DeleteTransaction(ctx context.Context, id string) error
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, limit int) ([]*models.Transaction, error)

	CreateBudget(ctx context.Context, in BudgetInput) (*models.Budget, error)

	CreateRecurring(ctx context.Context, in RecurringInput) (*models.RecurringRule, error)
	GenerateDue(ctx context.Context, asOf time.Time) (int, error)
}

// AccountInput describes a new account.
type AccountInput struct {
	Name           string
	Type           string
	Currency       string
	OpeningBalance float64
}

// BudgetInput describes a monthly budget.
type BudgetInput struct {
	CategoryName string
	Month        string
	Amount       float64
}

// service handles local data mutations
type service struct {
	store  storage.Store
	outbox *outbox.Writer
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewService creates a new data service
func NewService(store storage.Store, w *outbox.Writer, logger *slog.Logger) Service {
	return &service{
		store:  store,
		outbox: w,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// CreateAccount adds a new account and records account_created
func (s *service) CreateAccount(ctx context.Context, in AccountInput) (*models.Account, error) {
	if err := validation.Name("name", in.Name); err != nil {
		return nil, err
	}
	if in.Currency == "" {
		in.Currency = models.DefaultCurrency
	}
	if err := validation.Currency(in.Currency); err != nil {
		return nil, err
	}
	if in.Type == "" {
		in.Type = models.PlaceholderAccountType
	}

	now := s.now().UTC()
	a := &models.Account{
		ID:             s.newID(),
		Name:           strings.TrimSpace(in.Name),
		Type:           in.Type,
		Currency:       in.Currency,
		OpeningBalance: in.OpeningBalance,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		if err := tx.UpsertAccount(ctx, a); err != nil {
			return err
		}
		_, err := s.outbox.Record(ctx, tx, models.OpCreated, a.ID, models.NewAccountPayload(a))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.Debug("Account created", "account_id", a.ID)
	return a, nil
}

// ListAccounts returns all accounts ordered by name
func (s *service) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	var accounts []*models.Account
	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		accounts, err = tx.ListAccounts(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// EnsureCategory returns the category with name, creating it when missing
func (s *service) EnsureCategory(ctx context.Context, name, budgetGroup string) (*models.Category, error) {
	if err := validation.Name("category", name); err != nil {
		return nil, err
	}

	var c *models.Category
	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		c, err = s.ensureCategory(ctx, tx, name, budgetGroup)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure category: %w", err)
	}
	return c, nil
}

// ListCategories returns all categories
func (s *service) ListCategories(ctx context.Context) ([]*models.Category, error) {
	var cats []*models.Category
	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		cats, err = tx.ListCategories(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return cats, nil
}

// CreateBudget sets a monthly limit for a category and records budget_created
func (s *service) CreateBudget(ctx context.Context, in BudgetInput) (*models.Budget, error) {
	if err := validation.Month(in.Month); err != nil {
		return nil, err
	}
	if err := validation.PositiveAmount("amount", in.Amount); err != nil {
		return nil, err
	}
	if err := validation.Name("category", in.CategoryName); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	b := &models.Budget{
		ID:        s.newID(),
		Month:     in.Month,
		Amount:    in.Amount,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		cat, err := s.ensureCategory(ctx, tx, in.CategoryName, "")
		if err != nil {
			return err
		}
		b.CategoryID = cat.ID

		if err := tx.UpsertBudget(ctx, b); err != nil {
			return err
		}
		_, err = s.outbox.Record(ctx, tx, models.OpCreated, b.ID, models.NewBudgetPayload(b, cat))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create budget: %w", err)
	}
	return b, nil
}

// ensureCategory looks a category up by name and creates it with a fresh
// sync id when absent. Legacy rows without a sync id get one.
func (s *service) ensureCategory(ctx context.Context, tx storage.Tx, name, budgetGroup string) (*models.Category, error) {
	name = strings.TrimSpace(name)

	c, err := tx.GetCategoryByName(ctx, name)
	switch {
	case err == nil:
		if c.SyncID == "" {
			c.SyncID = s.newID()
			if err := tx.SetCategorySyncID(ctx, c.ID, c.SyncID); err != nil {
				return nil, err
			}
		}
		return c, nil
	case !errors.Is(err, storage.ErrNotFound):
		return nil, err
	}

	if budgetGroup == "" {
		budgetGroup = models.PlaceholderBudgetGroup
	}
	c = &models.Category{
		SyncID:      s.newID(),
		Name:        name,
		BudgetGroup: budgetGroup,
		CreatedAt:   s.now().UTC(),
	}
	if err := tx.InsertCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ensureSubCategory returns nil for an empty name
func (s *service) ensureSubCategory(ctx context.Context, tx storage.Tx, categoryID int64, name string) (*models.SubCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	sub, err := tx.GetSubCategoryByName(ctx, categoryID, name)
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	sub = &models.SubCategory{
		SyncID:     s.newID(),
		CategoryID: categoryID,
		Name:       name,
		CreatedAt:  s.now().UTC(),
	}
	if err := tx.InsertSubCategory(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// requireAccount maps a missing account to a ValidationError
func requireAccount(ctx context.Context, tx storage.Tx, id string) (*models.Account, error) {
	if id == "" {
		return nil, apperrors.NewValidationError("account_id", "cannot be empty")
	}
	a, err := tx.GetAccount(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.NewValidationError("account_id", "account %s not found", id)
	}
	return a, err
}

// references loads the rows a transaction or rule snapshot denormalizes
func references(ctx context.Context, tx storage.Tx, accountID string, categoryID, subCategoryID int64) (*models.Account, *models.Category, *models.SubCategory, error) {
	account, err := tx.GetAccount(ctx, accountID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, nil, nil, err
	}

	cat, err := tx.GetCategory(ctx, categoryID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, nil, nil, err
	}

	var sub *models.SubCategory
	if subCategoryID != 0 {
		sub, err = tx.GetSubCategory(ctx, subCategoryID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, nil, nil, err
		}
	}

	return account, cat, sub, nil
}
