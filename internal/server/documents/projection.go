package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/finsync/internal/models"
	"github.com/iudanet/finsync/internal/server/storage"
	"github.com/iudanet/finsync/pkg/api"
)

// projectedCollections maps event kinds to the snapshot collection a new
// device bootstraps from. Other kinds live only in the event log.
var projectedCollections = map[models.EntityKind]string{
	models.KindAccount:     api.CollectionAccounts,
	models.KindBudget:      api.CollectionBudgets,
	models.KindTransaction: api.CollectionTransactions,
}

// project keeps the snapshot collections of parent in step with one event:
// created/updated replace the entity document unless the stored copy has a
// newer updated_at, deleted removes it. Categories named by the payload are
// created when missing. Malformed events are skipped.
func (s *Service) project(ctx context.Context, tx storage.Tx, parent string, ev *api.Document, at time.Time) error {
	rawType, _ := stringField(ev.Fields, api.EventFieldType)
	et, err := models.ParseEventType(rawType)
	if err != nil {
		s.logger.Debug("Event not projected", "name", ev.Name, "reason", err)
		return nil
	}

	collection, ok := projectedCollections[et.Kind]
	if !ok {
		return nil
	}

	entityID, _ := stringField(ev.Fields, api.EventFieldEntityID)
	if entityID == "" {
		s.logger.Debug("Event not projected", "name", ev.Name, "reason", "no entity id")
		return nil
	}
	name := parent + "/" + collection + "/" + entityID

	if et.Op == models.OpDeleted {
		_, err := tx.DeleteDocument(ctx, name)
		return err
	}

	payload := ev.Fields[api.EventFieldPayload].MapValue
	if payload == nil {
		return nil
	}

	existing, err := tx.GetDocument(ctx, name)
	switch {
	case err == nil:
		if newer(existing.Fields, payload.Fields) {
			return nil
		}
	case !errors.Is(err, storage.ErrDocumentNotFound):
		return err
	}

	fields := make(map[string]api.Value, len(payload.Fields)+1)
	for k, v := range payload.Fields {
		fields[k] = v
	}
	if _, ok := fields["id"]; !ok {
		fields["id"] = api.StringVal(entityID)
	}

	if err := tx.PutDocument(ctx, &api.Document{Name: name, Fields: fields}, at); err != nil {
		return fmt.Errorf("failed to project %s: %w", name, err)
	}

	return s.projectCategory(ctx, tx, parent, payload.Fields, at)
}

func (s *Service) projectCategory(ctx context.Context, tx storage.Tx, parent string, payload map[string]api.Value, at time.Time) error {
	id, _ := stringField(payload, "category_id")
	catName, _ := stringField(payload, "category_name")
	if id == "" || catName == "" {
		return nil
	}

	name := parent + "/" + api.CollectionCategories + "/" + id
	_, err := tx.GetDocument(ctx, name)
	if err == nil || !errors.Is(err, storage.ErrDocumentNotFound) {
		return err
	}

	doc := &api.Document{
		Name: name,
		Fields: map[string]api.Value{
			"id":   api.StringVal(id),
			"name": api.StringVal(catName),
		},
	}
	return tx.PutDocument(ctx, doc, at)
}

// newer reports whether the stored snapshot carries a strictly later
// updated_at than the incoming payload
func newer(stored, incoming map[string]api.Value) bool {
	st, ok := timeField(stored, "updated_at")
	if !ok {
		return false
	}
	in, ok := timeField(incoming, "updated_at")
	if !ok {
		return false
	}
	return st.After(in)
}

func stringField(fields map[string]api.Value, key string) (string, bool) {
	v, ok := fields[key]
	if !ok || v.StringValue == nil {
		return "", false
	}
	return *v.StringValue, true
}

// timeField accepts both timestampValue and string encodings
func timeField(fields map[string]api.Value, key string) (time.Time, bool) {
	v, ok := fields[key]
	if !ok {
		return time.Time{}, false
	}

	var raw string
	switch {
	case v.TimestampValue != nil:
		raw = *v.TimestampValue
	case v.StringValue != nil:
		raw = *v.StringValue
	default:
		return time.Time{}, false
	}

	t, err := models.ParseTime(raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
