package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/iudanet/finsync/internal/apperrors"
	"github.com/iudanet/finsync/internal/codec"
	"github.com/iudanet/finsync/internal/models"
	"github.com/iudanet/finsync/pkg/api"
)

// EventQuery selects a page of the event log.
type EventQuery struct {
	// Since is the watermark; zero means from the beginning
	Since time.Time
	// AfterID, when set with Since, starts the page strictly after
	// (Since, AfterID) in (createdAt, name) order
	AfterID string
	Limit   int
}

// DeviceState is the cursor a device publishes after a pull.
type DeviceState struct {
	LastEventAt *time.Time
	LastEventID string
}

// CreateEvent writes ev to users/{uid}/events/{ev.ID} with an existence
// precondition. It returns apperrors.ErrAlreadyExists when a document with
// that id is already there.
func (c *Client) CreateEvent(ctx context.Context, uid string, ev *models.RemoteEvent) error {
	exists := false
	doc := &api.Document{
		Name: api.UserDocumentPath(c.project, uid, api.CollectionEvents, ev.ID),
		Fields: map[string]api.Value{
			api.EventFieldType:          api.StringVal(ev.Type),
			api.EventFieldEntityID:      api.StringVal(ev.EntityID),
			api.EventFieldOriginDevice:  api.StringVal(ev.OriginDeviceID),
			api.EventFieldSchemaVersion: api.IntegerVal(api.EventSchemaVersion),
			api.EventFieldPayload:       api.MapVal(codec.EncodeFields(ev.Payload)),
			api.EventFieldCreatedAt:     api.TimestampVal(api.FormatTimestamp(ev.CreatedAt)),
		},
	}

	req := api.CommitRequest{
		Writes: []api.Write{{
			Update:          doc,
			CurrentDocument: &api.Precondition{Exists: &exists},
		}},
	}

	err := c.doRequest(ctx, "create event", http.MethodPost, c.commitURL(), req, nil)
	if err != nil {
		if isAlreadyExists(err) {
			return fmt.Errorf("event %s: %w", ev.ID, apperrors.ErrAlreadyExists)
		}
		return fmt.Errorf("create event request failed: %w", err)
	}

	return nil
}

// FetchEventsSince returns events ordered by (createdAt, name) ascending.
// A document without a usable type is still returned with an empty Type so
// the caller can move its cursor past it; only documents with no usable
// time at all are dropped.
func (c *Client) FetchEventsSince(ctx context.Context, uid string, q EventQuery) ([]models.RemoteEvent, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}

	sq := api.StructuredQuery{
		From: []api.CollectionSelector{{CollectionID: api.CollectionEvents}},
		OrderBy: []api.Order{
			{Field: api.FieldReference{FieldPath: api.EventFieldCreatedAt}, Direction: api.DirectionAscending},
			{Field: api.FieldReference{FieldPath: api.FieldName}, Direction: api.DirectionAscending},
		},
		Limit: &limit,
	}

	if !q.Since.IsZero() {
		since := api.TimestampVal(api.FormatTimestamp(q.Since))
		sq.Where = &api.Filter{FieldFilter: &api.FieldFilter{
			Field: api.FieldReference{FieldPath: api.EventFieldCreatedAt},
			Op:    api.OpGreaterThanOrEqual,
			Value: since,
		}}
		if q.AfterID != "" {
			sq.StartAt = &api.Cursor{
				Values: []api.Value{
					since,
					api.ReferenceVal(api.UserDocumentPath(c.project, uid, api.CollectionEvents, q.AfterID)),
				},
				Before: false,
			}
		}
	}

	rows, err := c.runQuery(ctx, "fetch events", uid, api.RunQueryRequest{StructuredQuery: sq})
	if err != nil {
		return nil, err
	}

	events := make([]models.RemoteEvent, 0, len(rows))
	for _, doc := range rows {
		ev, err := decodeEvent(doc)
		if err != nil {
			c.logger.Warn("Skipping malformed event document", "name", doc.Name, "error", err)
			continue
		}
		if ev.Type == "" {
			c.logger.Warn("Event document has no type", "name", doc.Name)
		}
		events = append(events, ev)
	}

	return events, nil
}

// FetchSnapshot returns every document of users/{uid}/{collection} decoded to
// plain maps with an "id" key. limit <= 0 means no limit.
func (c *Client) FetchSnapshot(ctx context.Context, uid, collection string, limit int) ([]map[string]any, error) {
	rows, err := c.runQuery(ctx, "fetch "+collection, uid, api.NewCollectionQuery(collection, limit))
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(rows))
	for _, doc := range rows {
		out = append(out, codec.DecodeDocument(doc))
	}
	return out, nil
}

// UpdateDeviceState publishes the device cursor to devices/{id} and
// syncState/{id}.
func (c *Client) UpdateDeviceState(ctx context.Context, uid, deviceID string, state DeviceState) error {
	now := api.TimestampVal(api.FormatTimestamp(time.Now()))

	cursor := map[string]api.Value{}
	if state.LastEventID != "" {
		cursor["lastAppliedEventId"] = api.StringVal(state.LastEventID)
	}
	if state.LastEventAt != nil {
		cursor["lastAppliedEventAt"] = api.TimestampVal(api.FormatTimestamp(*state.LastEventAt))
	}

	device := map[string]api.Value{
		"deviceId":  api.StringVal(deviceID),
		"updatedAt": now,
	}
	syncState := map[string]api.Value{
		"updatedAt": now,
	}
	for k, v := range cursor {
		device[k] = v
		syncState[k] = v
	}

	url := c.documentURL(uid, api.CollectionDevices, deviceID)
	if err := c.doRequest(ctx, "update device", http.MethodPatch, url, api.Document{Fields: device}, nil); err != nil {
		return fmt.Errorf("update device request failed: %w", err)
	}

	url = c.documentURL(uid, api.CollectionSyncState, deviceID)
	if err := c.doRequest(ctx, "update sync state", http.MethodPatch, url, api.Document{Fields: syncState}, nil); err != nil {
		return fmt.Errorf("update sync state request failed: %w", err)
	}

	return nil
}

func (c *Client) runQuery(ctx context.Context, op, uid string, q api.RunQueryRequest) ([]api.Document, error) {
	var rows []api.RunQueryResponseRow
	if err := c.doRequest(ctx, op, http.MethodPost, c.runQueryURL(uid), q, &rows); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", op, err)
	}

	docs := make([]api.Document, 0, len(rows))
	for _, row := range rows {
		if row.Document == nil {
			continue
		}
		docs = append(docs, *row.Document)
	}
	return docs, nil
}

func decodeEvent(doc api.Document) (models.RemoteEvent, error) {
	fields := codec.DecodeDocument(doc)

	ev := models.RemoteEvent{ID: doc.ID()}
	ev.Type, _ = fields[api.EventFieldType].(string)
	ev.EntityID, _ = fields[api.EventFieldEntityID].(string)
	ev.OriginDeviceID, _ = fields[api.EventFieldOriginDevice].(string)
	ev.SchemaVersion, _ = fields[api.EventFieldSchemaVersion].(int64)
	ev.Payload, _ = fields[api.EventFieldPayload].(map[string]any)

	// createTime документа заменяет испорченный createdAt
	raw, _ := fields[api.EventFieldCreatedAt].(string)
	createdAt, err := models.ParseTime(raw)
	if err != nil {
		createdAt, err = models.ParseTime(doc.CreateTime)
		if err != nil {
			return ev, fmt.Errorf("event %s has no usable createdAt", ev.ID)
		}
	}
	ev.CreatedAt = createdAt

	return ev, nil
}
