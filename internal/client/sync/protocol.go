// Package sync replicates the local store with the remote event log:
// push of the outbox, pull-and-apply of remote events and the one-time
// bootstrap from remote snapshots.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	stdsync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/finsync/internal/apperrors"
	httpClient "github.com/iudanet/finsync/internal/client/api"
	"github.com/iudanet/finsync/internal/client/merge"
	"github.com/iudanet/finsync/internal/client/outbox"
	"github.com/iudanet/finsync/internal/client/retry"
	"github.com/iudanet/finsync/internal/client/storage"
	"github.com/iudanet/finsync/internal/models"
	"github.com/iudanet/finsync/pkg/api"
)

//go:generate moq -out gateway_mock.go . Gateway

// Gateway is the remote surface the protocol talks to.
type Gateway interface {
	// CreateEvent returns apperrors.ErrAlreadyExists when the event id is taken
	CreateEvent(ctx context.Context, uid string, ev *models.RemoteEvent) error
	FetchEventsSince(ctx context.Context, uid string, q httpClient.EventQuery) ([]models.RemoteEvent, error)
	FetchSnapshot(ctx context.Context, uid, collection string, limit int) ([]map[string]any, error)
	UpdateDeviceState(ctx context.Context, uid, deviceID string, state httpClient.DeviceState) error
}

// Значения по умолчанию для размеров пакетов
const (
	DefaultPushLimit = 100
	DefaultPageSize  = 50
)

// Config holds the identity and tuning of a Protocol.
type Config struct {
	UserUID  string
	DeviceID string
	Retry    retry.Policy
	// DeadLetterAfter исключает запись из отправки после N неудач; 0 - никогда
	DeadLetterAfter int
}

// Result is the outcome of SyncNow.
type Result struct {
	Error   string `json:"error,omitempty"`
	Pushed  int    `json:"pushed"`
	Pulled  int    `json:"pulled"`
	Success bool   `json:"success"`
}

// Info describes the replication state of this device.
type Info struct {
	LastPull             *time.Time `json:"last_pull,omitempty"`
	LastPush             *time.Time `json:"last_push,omitempty"`
	DeviceID             string     `json:"device_id"`
	LastEventID          string     `json:"last_event_id,omitempty"`
	Pending              int        `json:"pending"`
	DeadLetters          int        `json:"dead_letters"`
	AppliedEvents        int        `json:"applied_events"`
	InitialSyncCompleted bool       `json:"initial_sync_completed"`
}

// Protocol runs push and pull for one device. Push and pull never overlap.
type Protocol struct {
	mu      stdsync.Mutex
	store   storage.Store
	gateway Gateway
	merger  *merge.Merger
	logger  *slog.Logger
	now     func() time.Time
	cfg     Config
}

// NewProtocol создает протокол синхронизации
func NewProtocol(store storage.Store, gateway Gateway, merger *merge.Merger, cfg Config, logger *slog.Logger) *Protocol {
	return &Protocol{
		store:   store,
		gateway: gateway,
		merger:  merger,
		logger:  logger,
		now:     time.Now,
		cfg:     cfg,
	}
}

// DeviceID returns the id stamped on pushed events.
func (p *Protocol) DeviceID() string {
	return p.cfg.DeviceID
}

// EnsureDeviceID returns the persisted device id, generating and storing one
// on first use.
func EnsureDeviceID(ctx context.Context, store storage.Store) (string, error) {
	var id string
	err := store.InTx(ctx, func(tx storage.Tx) error {
		v, ok, err := tx.GetState(ctx, storage.StateDeviceID)
		if err != nil {
			return err
		}
		if ok && v != "" {
			id = v
			return nil
		}
		id = uuid.NewString()
		return tx.SetState(ctx, storage.StateDeviceID, id)
	})
	if err != nil {
		return "", fmt.Errorf("failed to ensure device id: %w", err)
	}
	return id, nil
}

type pushOutcome struct {
	rec *models.OutboxRecord
	err error
}

// Push sends up to limit due outbox records and returns how many became
// synced. Per-record failures are rescheduled with backoff and do not fail
// the call; only local store errors do.
func (p *Protocol) Push(ctx context.Context, limit int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.push(ctx, limit)
}

func (p *Protocol) push(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = DefaultPushLimit
	}
	now := p.now().UTC()

	var due []*models.OutboxRecord
	err := p.store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		due, err = tx.DueOutbox(ctx, now, limit)
		return err
	})
	if err != nil {
		return 0, &apperrors.SyncError{Op: "push", Err: fmt.Errorf("failed to select outbox: %w", err)}
	}

	outcomes := make([]pushOutcome, 0, len(due))
	for _, rec := range due {
		// отмена останавливает отправку, но не запись уже полученных результатов
		if ctx.Err() != nil {
			break
		}
		outcomes = append(outcomes, pushOutcome{rec: rec, err: p.pushRecord(ctx, rec)})
	}

	pushed := 0
	commitCtx := context.WithoutCancel(ctx)
	err = p.store.InTx(commitCtx, func(tx storage.Tx) error {
		pushed = 0
		for _, o := range outcomes {
			if o.err == nil {
				if err := tx.MarkOutboxSynced(commitCtx, o.rec.ID); err != nil {
					return err
				}
				pushed++
				continue
			}

			retries := o.rec.RetryCount + 1
			next := now.Add(p.cfg.Retry.Backoff(retries))
			var dead *time.Time
			if p.cfg.DeadLetterAfter > 0 && retries >= p.cfg.DeadLetterAfter {
				dead = &now
			}
			if err := tx.MarkOutboxFailed(commitCtx, o.rec.ID, retries, next, o.err.Error(), dead); err != nil {
				return err
			}

			p.logger.Warn("Failed to push outbox record",
				"record_id", o.rec.ID,
				"event_type", o.rec.EventType,
				"retry_count", retries,
				"next_attempt_at", next,
				"dead_lettered", dead != nil,
				"error", o.err)
		}
		return tx.SetState(commitCtx, storage.StateLastPushTimestamp, models.FormatTime(now))
	})
	if err != nil {
		return 0, &apperrors.SyncError{Op: "push", Err: fmt.Errorf("failed to record push results: %w", err)}
	}

	if len(due) > 0 {
		p.logger.Info("Push completed", "due", len(due), "pushed", pushed)
	}
	return pushed, nil
}

func (p *Protocol) pushRecord(ctx context.Context, rec *models.OutboxRecord) error {
	payload, err := outbox.DecodePayload(rec)
	if err != nil {
		return err
	}

	ev := &models.RemoteEvent{
		ID:             rec.ID,
		Type:           rec.EventType,
		EntityID:       rec.EntityID,
		OriginDeviceID: p.cfg.DeviceID,
		SchemaVersion:  api.EventSchemaVersion,
		Payload:        payload,
		CreatedAt:      p.now().UTC(),
	}

	err = p.gateway.CreateEvent(ctx, p.cfg.UserUID, ev)
	if errors.Is(err, apperrors.ErrAlreadyExists) {
		// предыдущая попытка уже дошла до журнала
		p.logger.Debug("Event already in remote log", "record_id", rec.ID)
		return nil
	}
	return err
}

// PullAndApply fetches one page of remote events after the local watermark
// and applies it in a single local transaction. It returns the number of
// events that changed local state; stale, skipped, echoed and duplicate
// events only advance the watermark.
func (p *Protocol) PullAndApply(ctx context.Context, pageSize int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.pull(ctx, pageSize)
}

func (p *Protocol) pull(ctx context.Context, pageSize int) (int, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var since time.Time
	var afterID string
	err := p.store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		since, afterID, err = readCursor(ctx, tx)
		return err
	})
	if err != nil {
		return 0, &apperrors.SyncError{Op: "pull", Err: err}
	}

	events, err := p.gateway.FetchEventsSince(ctx, p.cfg.UserUID, httpClient.EventQuery{
		Since:   since,
		AfterID: afterID,
		Limit:   pageSize,
	})
	if err != nil {
		return 0, &apperrors.SyncError{Op: "pull", Err: err}
	}
	if len(events) == 0 {
		return 0, nil
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Before(events[j])
	})

	applied := 0
	lastAt, lastID := since, afterID
	commitCtx := context.WithoutCancel(ctx)
	err = p.store.InTx(commitCtx, func(tx storage.Tx) error {
		applied = 0
		lastAt, lastID = since, afterID

		for i := range events {
			ev := &events[i]
			if ev.ID == "" {
				continue
			}

			seen, err := tx.IsApplied(commitCtx, ev.ID)
			if err != nil {
				return err
			}

			if !seen {
				if ev.OriginDeviceID != p.cfg.DeviceID {
					outcome, err := p.merger.Apply(commitCtx, tx, ev)
					if err != nil {
						return err
					}
					if outcome == merge.OutcomeApplied {
						applied++
					}
				}
				if err := tx.MarkApplied(commitCtx, ev.ID, ev.CreatedAt); err != nil {
					return err
				}
			}

			if !ev.CreatedAt.Before(lastAt) {
				lastAt, lastID = ev.CreatedAt, ev.ID
			}
		}

		if err := tx.SetState(commitCtx, storage.StateLastAppliedAt, models.FormatTime(lastAt)); err != nil {
			return err
		}
		return tx.SetState(commitCtx, storage.StateLastAppliedEventID, lastID)
	})
	if err != nil {
		return 0, &apperrors.SyncError{Op: "pull", Err: err}
	}

	p.logger.Info("Pull completed", "fetched", len(events), "applied", applied, "watermark", lastAt)

	p.publishDeviceState(ctx, lastAt, lastID)
	return applied, nil
}

// publishDeviceState is best effort: a failure is only logged.
func (p *Protocol) publishDeviceState(ctx context.Context, at time.Time, eventID string) {
	state := httpClient.DeviceState{LastEventID: eventID}
	if !at.IsZero() {
		state.LastEventAt = &at
	}
	if err := p.gateway.UpdateDeviceState(ctx, p.cfg.UserUID, p.cfg.DeviceID, state); err != nil {
		p.logger.Warn("Failed to publish device state", "device_id", p.cfg.DeviceID, "error", err)
	}
}

// SyncNow pushes then pulls one page. It never fails: errors are reported in
// Result together with the counters reached.
func (p *Protocol) SyncNow(ctx context.Context, pushLimit, pullLimit int) Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	var res Result
	pushed, err := p.push(ctx, pushLimit)
	res.Pushed = pushed
	if err != nil {
		res.Error = err.Error()
		return res
	}

	pulled, err := p.pull(ctx, pullLimit)
	res.Pulled = pulled
	if err != nil {
		res.Error = err.Error()
		return res
	}

	res.Success = true
	return res
}

// LastSyncInfo reports cursors and queue sizes.
func (p *Protocol) LastSyncInfo(ctx context.Context) (*Info, error) {
	info := &Info{DeviceID: p.cfg.DeviceID}
	err := p.store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		if info.LastPull, err = stateTime(ctx, tx, storage.StateLastAppliedAt); err != nil {
			return err
		}
		if info.LastPush, err = stateTime(ctx, tx, storage.StateLastPushTimestamp); err != nil {
			return err
		}
		if info.LastEventID, _, err = tx.GetState(ctx, storage.StateLastAppliedEventID); err != nil {
			return err
		}
		v, _, err := tx.GetState(ctx, storage.StateInitialSyncCompleted)
		if err != nil {
			return err
		}
		info.InitialSyncCompleted = v == "true"

		if info.Pending, err = tx.PendingOutboxCount(ctx); err != nil {
			return err
		}
		dead, err := tx.DeadLetters(ctx)
		if err != nil {
			return err
		}
		info.DeadLetters = len(dead)
		info.AppliedEvents, err = tx.AppliedCount(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read sync info: %w", err)
	}
	return info, nil
}

// CompactLedger removes ledger entries for events created strictly before
// the current watermark. Those can never be returned by a later pull.
func (p *Protocol) CompactLedger(ctx context.Context) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var removed int64
	err := p.store.InTx(ctx, func(tx storage.Tx) error {
		since, _, err := readCursor(ctx, tx)
		if err != nil || since.IsZero() {
			return err
		}
		if removed, err = tx.PruneApplied(ctx, since); err != nil {
			return err
		}
		return tx.SetState(ctx, storage.StateLastLedgerCompaction, models.FormatTime(p.now()))
	})
	if err != nil {
		return 0, fmt.Errorf("failed to compact ledger: %w", err)
	}

	if removed > 0 {
		p.logger.Info("Ledger compacted", "removed", removed)
	}
	return removed, nil
}

// DeadLetters lists outbox records excluded from push.
func (p *Protocol) DeadLetters(ctx context.Context) ([]*models.OutboxRecord, error) {
	var recs []*models.OutboxRecord
	err := p.store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		recs, err = tx.DeadLetters(ctx)
		return err
	})
	return recs, err
}

// RequeueDeadLetters makes every dead letter due again.
func (p *Protocol) RequeueDeadLetters(ctx context.Context) (int, error) {
	var n int
	err := p.store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		n, err = tx.RequeueDeadLetters(ctx)
		return err
	})
	return n, err
}

func readCursor(ctx context.Context, tx storage.StateStore) (time.Time, string, error) {
	at, err := stateTime(ctx, tx, storage.StateLastAppliedAt)
	if err != nil {
		return time.Time{}, "", err
	}
	id, _, err := tx.GetState(ctx, storage.StateLastAppliedEventID)
	if err != nil {
		return time.Time{}, "", err
	}
	if at == nil {
		return time.Time{}, "", nil
	}
	return *at, id, nil
}

func stateTime(ctx context.Context, tx storage.StateStore, key string) (*time.Time, error) {
	v, ok, err := tx.GetState(ctx, key)
	if err != nil || !ok || v == "" {
		return nil, err
	}
	t, err := models.ParseTime(v)
	if err != nil {
		return nil, fmt.Errorf("bad %s value %q: %w", key, v, err)
	}
	return &t, nil
}
