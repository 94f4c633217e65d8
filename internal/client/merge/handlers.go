package merge

import (
	"context"
	"fmt"

	"github.com/iudanet/finsync/internal/client/storage"
	"github.com/iudanet/finsync/internal/models"
)

func (m *Merger) mergeTransaction(ctx context.Context, tx storage.Tx, op models.Operation, p models.Payload, ev *models.RemoteEvent) (Outcome, error) {
	tp, ok := p.(*models.TransactionPayload)
	if !ok {
		return OutcomeSkipped, fmt.Errorf("unexpected payload %T", p)
	}

	id := entityKey(tp, ev)
	if id == "" {
		return OutcomeSkipped, nil
	}

	if op == models.OpDeleted {
		if _, err := tx.DeleteTransaction(ctx, id); err != nil {
			return OutcomeSkipped, err
		}
		return OutcomeApplied, nil
	}

	existing, err := tx.GetTransaction(ctx, id)
	if err != nil && !isNotFound(err) {
		return OutcomeSkipped, err
	}
	if err != nil {
		existing = nil
	}

	incoming := transactionStamp(tp.UpdatedAt, ev)
	if existing != nil && !IsNewer(existing.UpdatedAt, incoming) {
		return OutcomeStale, nil
	}

	account, err := m.ensureAccount(ctx, tx, tp.AccountID, tp.AccountName, tp.Currency)
	if err != nil {
		return OutcomeSkipped, err
	}

	txn := &models.Transaction{
		ID:          id,
		RecurringID: tp.RecurringID,
		Type:        orDefault(tp.Type, models.TxnTypeExpense),
		Amount:      tp.Amount.Float(),
		Currency:    orDefault(tp.Currency, models.DefaultCurrency),
		Merchant:    tp.Merchant,
		Note:        tp.Note,
		ServerID:    tp.ServerID,
		Tags:        tp.Tags,
		Synced:      true,
		CreatedAt:   m.now().UTC(),
		UpdatedAt:   derefTime(incoming),
	}

	var currentCategory int64
	if existing != nil {
		txn.CreatedAt = existing.CreatedAt
		txn.AccountID = existing.AccountID
		txn.OccurredAt = existing.OccurredAt
		currentCategory = existing.CategoryID
	}
	if account != nil {
		txn.AccountID = account.ID
	}
	if txn.AccountID == "" {
		m.logger.Warn("Skipping transaction without account", "event_id", ev.ID, "transaction_id", id)
		return OutcomeSkipped, nil
	}

	if t := tp.OccurredAt.Ptr(); t != nil {
		txn.OccurredAt = *t
	}
	if txn.OccurredAt.IsZero() {
		txn.OccurredAt = ev.CreatedAt
	}

	if txn.CategoryID, err = m.resolveCategory(ctx, tx, tp.CategoryID, tp.CategoryName, currentCategory); err != nil {
		return OutcomeSkipped, err
	}
	if txn.SubCategoryID, err = m.subCategoryID(ctx, tx, tp.SubcategoryID, tp.SubcategoryName, txn.CategoryID); err != nil {
		return OutcomeSkipped, err
	}

	if err := tx.UpsertTransaction(ctx, txn); err != nil {
		return OutcomeSkipped, err
	}
	return OutcomeApplied, nil
}

func (m *Merger) mergeBudget(ctx context.Context, tx storage.Tx, op models.Operation, p models.Payload, ev *models.RemoteEvent) (Outcome, error) {
	bp, ok := p.(*models.BudgetPayload)
	if !ok {
		return OutcomeSkipped, fmt.Errorf("unexpected payload %T", p)
	}

	id := entityKey(bp, ev)
	if id == "" {
		return OutcomeSkipped, nil
	}

	if op == models.OpDeleted {
		if _, err := tx.DeleteBudget(ctx, id); err != nil {
			return OutcomeSkipped, err
		}
		return OutcomeApplied, nil
	}

	existing, err := tx.GetBudget(ctx, id)
	if err != nil && !isNotFound(err) {
		return OutcomeSkipped, err
	}
	if err != nil {
		existing = nil
	}

	incoming := payloadStamp(bp.UpdatedAt, bp.ClientTimestamp)
	if existing != nil && !IsNewer(existing.UpdatedAt, incoming) {
		return OutcomeStale, nil
	}

	b := &models.Budget{
		ID:        id,
		Month:     bp.Month,
		Amount:    bp.Amount.Float(),
		ServerID:  bp.ServerID,
		Synced:    true,
		CreatedAt: m.now().UTC(),
		UpdatedAt: derefTime(incoming),
	}

	var currentCategory int64
	if existing != nil {
		b.CreatedAt = existing.CreatedAt
		currentCategory = existing.CategoryID
		if b.Month == "" {
			b.Month = existing.Month
		}
	}
	if b.Month == "" {
		b.Month = ev.CreatedAt.UTC().Format("2006-01")
	}

	if b.CategoryID, err = m.resolveCategory(ctx, tx, bp.CategoryID, bp.CategoryName, currentCategory); err != nil {
		return OutcomeSkipped, err
	}

	if err := tx.UpsertBudget(ctx, b); err != nil {
		return OutcomeSkipped, err
	}
	return OutcomeApplied, nil
}

func (m *Merger) mergeRecurring(ctx context.Context, tx storage.Tx, op models.Operation, p models.Payload, ev *models.RemoteEvent) (Outcome, error) {
	rp, ok := p.(*models.RecurringPayload)
	if !ok {
		return OutcomeSkipped, fmt.Errorf("unexpected payload %T", p)
	}

	id := entityKey(rp, ev)
	if id == "" {
		return OutcomeSkipped, nil
	}

	if op == models.OpDeleted {
		if _, err := tx.DeleteRecurring(ctx, id); err != nil {
			return OutcomeSkipped, err
		}
		return OutcomeApplied, nil
	}

	existing, err := tx.GetRecurring(ctx, id)
	if err != nil && !isNotFound(err) {
		return OutcomeSkipped, err
	}
	if err != nil {
		existing = nil
	}

	incoming := payloadStamp(rp.UpdatedAt, rp.ClientTimestamp)
	if existing != nil && !IsNewer(existing.UpdatedAt, incoming) {
		return OutcomeStale, nil
	}

	account, err := m.ensureAccount(ctx, tx, rp.AccountID, rp.AccountName, rp.Currency)
	if err != nil {
		return OutcomeSkipped, err
	}

	r := &models.RecurringRule{
		ID:           id,
		Name:         rp.Name,
		Type:         orDefault(rp.Type, models.TxnTypeExpense),
		Amount:       rp.Amount.Float(),
		Currency:     orDefault(rp.Currency, models.DefaultCurrency),
		Frequency:    orDefault(rp.Frequency, models.FrequencyMonthly),
		EndDate:      rp.EndDate.Ptr(),
		NextRun:      rp.NextRun.Ptr(),
		AutoGenerate: rp.AutoGenerate,
		ServerID:     rp.ServerID,
		Synced:       true,
		CreatedAt:    m.now().UTC(),
		UpdatedAt:    derefTime(incoming),
	}

	var currentCategory int64
	if existing != nil {
		r.CreatedAt = existing.CreatedAt
		r.AccountID = existing.AccountID
		r.StartDate = existing.StartDate
		currentCategory = existing.CategoryID
	}
	if account != nil {
		r.AccountID = account.ID
	}
	if r.AccountID == "" {
		m.logger.Warn("Skipping recurring rule without account", "event_id", ev.ID, "recurring_id", id)
		return OutcomeSkipped, nil
	}
	if t := rp.StartDate.Ptr(); t != nil {
		r.StartDate = *t
	}
	if r.StartDate.IsZero() {
		r.StartDate = ev.CreatedAt
	}

	if r.CategoryID, err = m.resolveCategory(ctx, tx, rp.CategoryID, rp.CategoryName, currentCategory); err != nil {
		return OutcomeSkipped, err
	}
	if r.SubCategoryID, err = m.subCategoryID(ctx, tx, rp.SubcategoryID, rp.SubcategoryName, r.CategoryID); err != nil {
		return OutcomeSkipped, err
	}

	if err := tx.UpsertRecurring(ctx, r); err != nil {
		return OutcomeSkipped, err
	}
	return OutcomeApplied, nil
}

func (m *Merger) mergeAlert(ctx context.Context, tx storage.Tx, op models.Operation, p models.Payload, ev *models.RemoteEvent) (Outcome, error) {
	ap, ok := p.(*models.AlertPayload)
	if !ok {
		return OutcomeSkipped, fmt.Errorf("unexpected payload %T", p)
	}

	id := entityKey(ap, ev)
	if id == "" {
		return OutcomeSkipped, nil
	}

	if op == models.OpDeleted {
		if _, err := tx.DeleteAlert(ctx, id); err != nil {
			return OutcomeSkipped, err
		}
		return OutcomeApplied, nil
	}

	existing, err := tx.GetAlert(ctx, id)
	if err != nil && !isNotFound(err) {
		return OutcomeSkipped, err
	}
	if err != nil {
		existing = nil
	}

	incoming := payloadStamp(ap.UpdatedAt, ap.ClientTimestamp)
	if existing != nil && !IsNewer(existing.UpdatedAt, incoming) {
		return OutcomeStale, nil
	}

	a := &models.Alert{
		ID:            id,
		AlertType:     orDefault(ap.AlertType, "info"),
		Severity:      orDefault(ap.Severity, "info"),
		Title:         ap.Title,
		Message:       ap.Message,
		TransactionID: ap.TransactionID,
		ActionTaken:   ap.ActionTaken,
		ExpiresAt:     ap.ExpiresAt.Ptr(),
		IsRead:        ap.IsRead,
		IsDismissed:   ap.IsDismissed,
		ServerID:      ap.ServerID,
		Synced:        true,
		CreatedAt:     m.now().UTC(),
		UpdatedAt:     derefTime(incoming),
	}
	if ap.Amount != nil {
		amount := ap.Amount.Float()
		a.Amount = &amount
	}
	if existing != nil {
		a.CreatedAt = existing.CreatedAt
	}

	if a.CategoryID, err = m.optionalCategory(ctx, tx, ap.CategoryID, ap.CategoryName); err != nil {
		return OutcomeSkipped, err
	}

	if err := tx.UpsertAlert(ctx, a); err != nil {
		return OutcomeSkipped, err
	}
	return OutcomeApplied, nil
}

func (m *Merger) mergeGoal(ctx context.Context, tx storage.Tx, op models.Operation, p models.Payload, ev *models.RemoteEvent) (Outcome, error) {
	gp, ok := p.(*models.GoalPayload)
	if !ok {
		return OutcomeSkipped, fmt.Errorf("unexpected payload %T", p)
	}

	id := entityKey(gp, ev)
	if id == "" {
		return OutcomeSkipped, nil
	}

	if op == models.OpDeleted {
		if _, err := tx.DeleteGoal(ctx, id); err != nil {
			return OutcomeSkipped, err
		}
		return OutcomeApplied, nil
	}

	existing, err := tx.GetGoal(ctx, id)
	if err != nil && !isNotFound(err) {
		return OutcomeSkipped, err
	}
	if err != nil {
		existing = nil
	}

	incoming := payloadStamp(gp.UpdatedAt, gp.ClientTimestamp)
	if existing != nil && !IsNewer(existing.UpdatedAt, incoming) {
		return OutcomeStale, nil
	}

	g := &models.SavingsGoal{
		ID:            id,
		Name:          gp.Name,
		Description:   gp.Description,
		Icon:          gp.Icon,
		TargetAmount:  gp.TargetAmount.Float(),
		CurrentAmount: gp.CurrentAmount.Float(),
		Deadline:      gp.Deadline.Ptr(),
		Achieved:      gp.Achieved,
		IsActive:      gp.IsActive == nil || *gp.IsActive,
		ServerID:      gp.ServerID,
		Synced:        true,
		CreatedAt:     m.now().UTC(),
		UpdatedAt:     derefTime(incoming),
	}
	if existing != nil {
		g.CreatedAt = existing.CreatedAt
	}

	if g.CategoryID, err = m.optionalCategory(ctx, tx, gp.CategoryID, gp.CategoryName); err != nil {
		return OutcomeSkipped, err
	}

	if err := tx.UpsertGoal(ctx, g); err != nil {
		return OutcomeSkipped, err
	}
	return OutcomeApplied, nil
}

func (m *Merger) mergeAccount(ctx context.Context, tx storage.Tx, op models.Operation, p models.Payload, ev *models.RemoteEvent) (Outcome, error) {
	ap, ok := p.(*models.AccountPayload)
	if !ok {
		return OutcomeSkipped, fmt.Errorf("unexpected payload %T", p)
	}

	id := entityKey(ap, ev)
	if id == "" {
		return OutcomeSkipped, nil
	}

	if op == models.OpDeleted {
		if _, err := tx.DeleteAccount(ctx, id); err != nil {
			return OutcomeSkipped, err
		}
		return OutcomeApplied, nil
	}

	existing, err := tx.GetAccount(ctx, id)
	if err != nil && !isNotFound(err) {
		return OutcomeSkipped, err
	}
	if err != nil {
		existing = nil
	}

	incoming := payloadStamp(ap.UpdatedAt, ap.ClientTimestamp)
	if existing != nil && !IsNewer(existing.UpdatedAt, incoming) {
		return OutcomeStale, nil
	}

	a := &models.Account{
		ID:             id,
		Name:           orDefault(ap.Name, models.PlaceholderAccountName),
		Type:           orDefault(ap.Type, models.PlaceholderAccountType),
		Currency:       orDefault(ap.Currency, models.DefaultCurrency),
		OpeningBalance: ap.OpeningBalance.Float(),
		ServerID:       ap.ServerID,
		Synced:         true,
		CreatedAt:      m.now().UTC(),
		UpdatedAt:      derefTime(incoming),
	}
	if existing != nil {
		a.CreatedAt = existing.CreatedAt
	}

	if err := tx.UpsertAccount(ctx, a); err != nil {
		return OutcomeSkipped, err
	}
	return OutcomeApplied, nil
}

