// Package scheduler drives periodic sync cycles and recurring-transaction
// generation on a single background worker.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	stdsync "sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/iudanet/finsync/internal/apperrors"
	"github.com/iudanet/finsync/internal/client/retry"
	clientsync "github.com/iudanet/finsync/internal/client/sync"
)

//go:generate moq -out syncer_mock.go . Syncer
//go:generate moq -out generator_mock.go . RecurringGenerator

// Syncer runs one push+pull cycle.
type Syncer interface {
	SyncNow(ctx context.Context, pushLimit, pullLimit int) clientsync.Result
	CompactLedger(ctx context.Context) (int64, error)
}

// RecurringGenerator materializes due recurring-transaction occurrences.
type RecurringGenerator interface {
	GenerateDue(ctx context.Context, asOf time.Time) (int, error)
}

// Значения по умолчанию
const (
	DefaultInterval          = 15 * time.Minute
	DefaultRecurringInterval = 60 * time.Minute
)

// ErrAlreadyRunning is returned by Start on a running scheduler.
var ErrAlreadyRunning = errors.New("scheduler already running")

const (
	syncKey      = "sync"
	recurringKey = "recurring"
)

// Config tunes a Scheduler. Zero values take defaults.
type Config struct {
	Retry             retry.Policy
	Interval          time.Duration
	RecurringInterval time.Duration
	PushLimit         int
	PullLimit         int
	CompactLedger     bool // сжимать журнал после успешного цикла
	RunOnStart        bool // первый цикл сразу после Start
}

// CycleError describes a failed cycle passed to OnError.
type CycleError struct {
	Err       error
	Attempt   int
	RetryIn   time.Duration
	WillRetry bool
}

// Callbacks are invoked on the goroutine running the cycle.
type Callbacks struct {
	OnStart    func()
	OnComplete func(res clientsync.Result, at time.Time)
	OnError    func(e CycleError)
}

// Status is a point-in-time view of the scheduler.
type Status struct {
	LastSyncTime *time.Time         `json:"last_sync_time,omitempty"`
	NextRetryAt  *time.Time         `json:"next_retry_at,omitempty"`
	LastResult   *clientsync.Result `json:"last_result,omitempty"`
	RetryPolicy  string             `json:"retry_policy"`
	Interval     time.Duration      `json:"interval"`
	ErrorCount   int                `json:"error_count"`
	Attempt      int                `json:"attempt"`
	IsRunning    bool               `json:"is_running"`
}

// Scheduler owns the background worker. Manual and scheduled cycles are
// coalesced: concurrent requests share one in-flight cycle.
type Scheduler struct {
	syncer    Syncer
	generator RecurringGenerator
	logger    *slog.Logger
	now       func() time.Time
	callbacks Callbacks
	cfg       Config

	group   singleflight.Group
	retryCh chan struct{}

	mu          stdsync.Mutex
	running     bool
	cancel      context.CancelFunc
	done        chan struct{}
	retryTimer  *time.Timer
	nextRetryAt *time.Time
	lastSync    *time.Time
	lastResult  *clientsync.Result
	errorCount  int
	attempt     int
}

// New создает планировщик; generator может быть nil
func New(syncer Syncer, generator RecurringGenerator, cfg Config, callbacks Callbacks, logger *slog.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.RecurringInterval <= 0 {
		cfg.RecurringInterval = DefaultRecurringInterval
	}
	if cfg.PushLimit <= 0 {
		cfg.PushLimit = clientsync.DefaultPushLimit
	}
	if cfg.PullLimit <= 0 {
		cfg.PullLimit = clientsync.DefaultPageSize
	}
	if cfg.Retry.BaseDelay <= 0 {
		cfg.Retry = retry.DefaultPolicy()
	}

	return &Scheduler{
		syncer:    syncer,
		generator: generator,
		logger:    logger,
		now:       time.Now,
		callbacks: callbacks,
		cfg:       cfg,
		retryCh:   make(chan struct{}, 1),
	}
}

// Start launches the worker. It stops when ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.loop(ctx, s.done)

	s.logger.Info("Scheduler started",
		"interval", s.cfg.Interval,
		"recurring_interval", s.cfg.RecurringInterval,
		"retry_policy", s.cfg.Retry.String())
	return nil
}

// Stop cancels the worker and waits for the current cycle to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.stopRetryLocked()
	s.running = false
	s.mu.Unlock()

	cancel()
	<-done
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	var recurringC <-chan time.Time
	if s.generator != nil {
		recurringTicker := time.NewTicker(s.cfg.RecurringInterval)
		defer recurringTicker.Stop()
		recurringC = recurringTicker.C
	}

	if s.cfg.RunOnStart {
		s.RunCycle(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunCycle(ctx)
		case <-s.retryCh:
			s.logger.Info("Retrying sync cycle", "attempt", s.Status().Attempt)
			s.RunCycle(ctx)
		case <-recurringC:
			if _, err := s.GenerateRecurring(ctx); err != nil {
				s.logger.Error("Recurring generation failed", "error", err)
			}
		}
	}
}

// RunCycle runs one push+pull cycle now, joining an in-flight one if any.
func (s *Scheduler) RunCycle(ctx context.Context) clientsync.Result {
	v, _, _ := s.group.Do(syncKey, func() (any, error) {
		return s.cycle(ctx), nil
	})
	return v.(clientsync.Result)
}

func (s *Scheduler) cycle(ctx context.Context) clientsync.Result {
	if s.callbacks.OnStart != nil {
		s.callbacks.OnStart()
	}

	s.logger.Info("Starting sync cycle", "attempt", s.Status().Attempt+1, "max_retries", s.cfg.Retry.MaxRetries)
	res := s.syncer.SyncNow(ctx, s.cfg.PushLimit, s.cfg.PullLimit)

	if res.Success {
		s.onSuccess(ctx, res)
	} else {
		s.onFailure(res)
	}
	return res
}

func (s *Scheduler) onSuccess(ctx context.Context, res clientsync.Result) {
	at := s.now().UTC()

	s.mu.Lock()
	s.stopRetryLocked()
	s.attempt = 0
	s.errorCount = 0
	s.lastSync = &at
	s.lastResult = &res
	s.mu.Unlock()

	s.logger.Info("Sync cycle completed", "pushed", res.Pushed, "pulled", res.Pulled)

	if s.cfg.CompactLedger {
		if _, err := s.syncer.CompactLedger(ctx); err != nil {
			s.logger.Warn("Ledger compaction failed", "error", err)
		}
	}

	if s.callbacks.OnComplete != nil {
		s.callbacks.OnComplete(res, at)
	}
}

func (s *Scheduler) onFailure(res clientsync.Result) {
	cycleErr := CycleError{
		Err: &apperrors.SyncError{
			Op:     "cycle",
			Pushed: res.Pushed,
			Pulled: res.Pulled,
			Err:    errors.New(res.Error),
		},
	}

	s.mu.Lock()
	s.lastResult = &res
	s.errorCount++
	s.attempt++
	cycleErr.Attempt = s.attempt

	delay, ok := s.cfg.Retry.Delay(s.attempt)
	if ok && s.running {
		cycleErr.RetryIn = delay
		cycleErr.WillRetry = true
		s.armRetryLocked(delay)
	} else {
		// попытки исчерпаны: ждем следующего планового цикла
		s.stopRetryLocked()
		s.attempt = 0
	}
	s.mu.Unlock()

	if cycleErr.WillRetry {
		s.logger.Warn("Sync cycle failed, retry scheduled",
			"attempt", cycleErr.Attempt, "retry_in", cycleErr.RetryIn, "error", res.Error)
	} else {
		s.logger.Error("Sync cycle failed", "attempt", cycleErr.Attempt, "error", res.Error)
	}

	if s.callbacks.OnError != nil {
		s.callbacks.OnError(cycleErr)
	}
}

func (s *Scheduler) armRetryLocked(delay time.Duration) {
	s.stopRetryLocked()

	at := s.now().Add(delay)
	s.nextRetryAt = &at
	s.retryTimer = time.AfterFunc(delay, func() {
		select {
		case s.retryCh <- struct{}{}:
		default:
		}
	})
}

func (s *Scheduler) stopRetryLocked() {
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}
	s.nextRetryAt = nil
}

// GenerateRecurring materializes due recurring occurrences now.
func (s *Scheduler) GenerateRecurring(ctx context.Context) (int, error) {
	if s.generator == nil {
		return 0, nil
	}

	v, err, _ := s.group.Do(recurringKey, func() (any, error) {
		s.logger.Info("Starting recurring transaction generation")
		n, err := s.generator.GenerateDue(ctx, s.now())
		if err != nil {
			return 0, fmt.Errorf("failed to generate recurring transactions: %w", err)
		}
		s.logger.Info("Recurring transactions generated", "count", n)
		return n, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// Status returns a copy of the current state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		IsRunning:   s.running,
		Interval:    s.cfg.Interval,
		ErrorCount:  s.errorCount,
		Attempt:     s.attempt,
		RetryPolicy: s.cfg.Retry.String(),
	}
	if s.lastSync != nil {
		t := *s.lastSync
		st.LastSyncTime = &t
	}
	if s.nextRetryAt != nil {
		t := *s.nextRetryAt
		st.NextRetryAt = &t
	}
	if s.lastResult != nil {
		r := *s.lastResult
		st.LastResult = &r
	}
	return st
}
