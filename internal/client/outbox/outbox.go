// Package outbox records local mutations as pending replication events.
// Records are always written through the caller's transaction so the entity
// change and its event commit together.
package outbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/finsync/internal/client/storage"
	"github.com/iudanet/finsync/internal/models"
)

// Writer appends outbox records.
type Writer struct {
	now   func() time.Time
	newID func() string
}

// Option configures a Writer.
type Option func(*Writer)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(w *Writer) { w.now = now }
}

// WithIDGenerator overrides record id generation.
func WithIDGenerator(fn func() string) Option {
	return func(w *Writer) { w.newID = fn }
}

// NewWriter создает Writer с UUID идентификаторами и системными часами
func NewWriter(opts ...Option) *Writer {
	w := &Writer{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Record appends one record for op on the entity described by p.
// entityID overrides p.Key() when set.
func (w *Writer) Record(ctx context.Context, tx storage.OutboxStore, op models.Operation, entityID string, p models.Payload) (*models.OutboxRecord, error) {
	data, err := Marshal(p)
	if err != nil {
		return nil, err
	}

	if entityID == "" {
		entityID = p.Key()
	}
	if entityID == "" {
		return nil, fmt.Errorf("outbox: %s payload has no entity id", p.Kind())
	}

	rec := &models.OutboxRecord{
		ID:         w.newID(),
		EntityType: p.Kind().EntityType(),
		EventType:  models.NewEventType(p.Kind(), op).String(),
		EntityID:   entityID,
		Payload:    data,
		CreatedAt:  w.now().UTC(),
	}

	if err := tx.AppendOutbox(ctx, rec); err != nil {
		return nil, fmt.Errorf("outbox: failed to append %s: %w", rec.EventType, err)
	}

	return rec, nil
}

// RecordUpdate appends an update record unless before and after serialize
// identically. It returns nil, nil when the update was suppressed.
func (w *Writer) RecordUpdate(ctx context.Context, tx storage.OutboxStore, before, after models.Payload) (*models.OutboxRecord, error) {
	if before != nil {
		same, err := Equal(before, after)
		if err != nil {
			return nil, err
		}
		if same {
			return nil, nil
		}
	}
	return w.Record(ctx, tx, models.OpUpdated, "", after)
}

// Marshal returns the canonical JSON of p.
func Marshal(p models.Payload) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("outbox: failed to marshal %s payload: %w", p.Kind(), err)
	}
	return data, nil
}

// Equal reports whether a and b have byte-identical canonical JSON.
func Equal(a, b models.Payload) (bool, error) {
	da, err := Marshal(a)
	if err != nil {
		return false, err
	}
	db, err := Marshal(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(da, db), nil
}

// DecodePayload turns a stored payload back into a generic map. Numbers are
// kept as json.Number so integers stay integers on the wire.
func DecodePayload(rec *models.OutboxRecord) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(rec.Payload))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("outbox: record %s has invalid payload: %w", rec.ID, err)
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}
