// Package merge applies remote events to the local store with
// last-write-wins conflict resolution.
package merge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/finsync/internal/client/storage"
	"github.com/iudanet/finsync/internal/models"
)

// Outcome describes what Apply did with an event.
type Outcome int

const (
	// OutcomeApplied - строка вставлена, перезаписана или удалена
	OutcomeApplied Outcome = iota
	// OutcomeStale - локальная версия новее, событие проигнорировано
	OutcomeStale
	// OutcomeSkipped - неизвестный тип события или payload без id
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeStale:
		return "stale"
	case OutcomeSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// handler applies one typed event inside tx.
type handler func(ctx context.Context, tx storage.Tx, op models.Operation, p models.Payload, ev *models.RemoteEvent) (Outcome, error)

// Merger dispatches remote events to per-entity handlers.
type Merger struct {
	handlers map[models.EntityKind]handler
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// NewMerger создает Merger со всеми обработчиками сущностей
func NewMerger(logger *slog.Logger) *Merger {
	m := &Merger{
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	m.handlers = map[models.EntityKind]handler{
		models.KindTransaction: m.mergeTransaction,
		models.KindBudget:      m.mergeBudget,
		models.KindRecurring:   m.mergeRecurring,
		models.KindAlert:       m.mergeAlert,
		models.KindGoal:        m.mergeGoal,
		models.KindAccount:     m.mergeAccount,
	}
	return m
}

// Apply merges ev into the local store through tx. It never writes to the
// outbox. Unknown event types are reported as OutcomeSkipped, not as errors,
// so a newer producer cannot stall older consumers.
func (m *Merger) Apply(ctx context.Context, tx storage.Tx, ev *models.RemoteEvent) (Outcome, error) {
	et, err := models.ParseEventType(ev.Type)
	if err != nil {
		m.logger.Warn("Skipping event of unknown type", "event_id", ev.ID, "type", ev.Type)
		return OutcomeSkipped, nil
	}

	h, ok := m.handlers[et.Kind]
	if !ok {
		m.logger.Warn("No merge handler for entity kind", "event_id", ev.ID, "kind", et.Kind)
		return OutcomeSkipped, nil
	}

	p, err := models.DecodePayload(et.Kind, ev.Payload)
	if err != nil {
		m.logger.Warn("Skipping event with undecodable payload", "event_id", ev.ID, "type", ev.Type, "error", err)
		return OutcomeSkipped, nil
	}

	outcome, err := h(ctx, tx, et.Op, p, ev)
	if err != nil {
		return outcome, fmt.Errorf("failed to merge %s event %s: %w", ev.Type, ev.ID, err)
	}

	m.logger.Debug("Merged remote event",
		"event_id", ev.ID,
		"type", ev.Type,
		"entity_id", ev.EntityID,
		"outcome", outcome.String())

	return outcome, nil
}

// IsNewer reports whether an incoming write stamped incoming beats the local
// row stamped local. A missing incoming stamp always wins, as does a missing
// local stamp; otherwise ties go to the incoming write.
func IsNewer(local time.Time, incoming *time.Time) bool {
	if incoming == nil {
		return true
	}
	if local.IsZero() {
		return true
	}
	return !incoming.Before(local)
}

// transactionStamp returns the write stamp of a transaction event: the
// payload updated_at, or the event createdAt when the payload has none.
func transactionStamp(ts *models.Timestamp, ev *models.RemoteEvent) *time.Time {
	if t := ts.Ptr(); t != nil {
		return t
	}
	if !ev.CreatedAt.IsZero() {
		t := ev.CreatedAt
		return &t
	}
	return nil
}

// payloadStamp returns updated_at, then client_timestamp. Nil means the
// payload carries no stamp and the write wins.
func payloadStamp(updatedAt, clientTimestamp *models.Timestamp) *time.Time {
	if t := updatedAt.Ptr(); t != nil {
		return t
	}
	return clientTimestamp.Ptr()
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func entityKey(p models.Payload, ev *models.RemoteEvent) string {
	if k := p.Key(); k != "" {
		return k
	}
	return ev.EntityID
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
