package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/finsync/internal/apperrors"
	"github.com/iudanet/finsync/internal/client/retry"
	clientsync "github.com/iudanet/finsync/internal/client/sync"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastPolicy(maxRetries int) retry.Policy {
	return retry.Policy{
		BaseDelay:  10 * time.Millisecond,
		MaxDelay:   10 * time.Millisecond,
		Multiplier: 1,
		MaxRetries: maxRetries,
	}
}

type errorLog struct {
	mu   sync.Mutex
	errs []CycleError
}

func (l *errorLog) add(e CycleError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, e)
}

func (l *errorLog) all() []CycleError {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]CycleError(nil), l.errs...)
}

func TestNew_Defaults(t *testing.T) {
	s := New(&SyncerMock{}, nil, Config{}, Callbacks{}, discardLogger())

	assert.Equal(t, DefaultInterval, s.cfg.Interval)
	assert.Equal(t, DefaultRecurringInterval, s.cfg.RecurringInterval)
	assert.Equal(t, clientsync.DefaultPushLimit, s.cfg.PushLimit)
	assert.Equal(t, clientsync.DefaultPageSize, s.cfg.PullLimit)
	assert.Equal(t, retry.DefaultMaxRetries, s.cfg.Retry.MaxRetries)

	st := s.Status()
	assert.False(t, st.IsRunning)
	assert.Equal(t, DefaultInterval, st.Interval)
	assert.Contains(t, st.RetryPolicy, "max_retries=5")
}

func TestRunCycle_Success(t *testing.T) {
	syncer := &SyncerMock{
		SyncNowFunc: func(ctx context.Context, pushLimit, pullLimit int) clientsync.Result {
			return clientsync.Result{Pushed: 2, Pulled: 3, Success: true}
		},
		CompactLedgerFunc: func(ctx context.Context) (int64, error) { return 0, nil },
	}

	var started int
	var completed clientsync.Result
	now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	s := New(syncer, nil, Config{CompactLedger: true, PushLimit: 7}, Callbacks{
		OnStart:    func() { started++ },
		OnComplete: func(res clientsync.Result, at time.Time) { completed = res },
	}, discardLogger())
	s.now = func() time.Time { return now }

	res := s.RunCycle(context.Background())
	assert.True(t, res.Success)
	assert.Equal(t, 1, started)
	assert.Equal(t, res, completed)

	calls := syncer.SyncNowCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, 7, calls[0].PushLimit)
	assert.Equal(t, clientsync.DefaultPageSize, calls[0].PullLimit)
	assert.Len(t, syncer.CompactLedgerCalls(), 1)

	st := s.Status()
	require.NotNil(t, st.LastSyncTime)
	assert.True(t, st.LastSyncTime.Equal(now))
	require.NotNil(t, st.LastResult)
	assert.Equal(t, 3, st.LastResult.Pulled)
	assert.Zero(t, st.ErrorCount)
}

func TestRunCycle_FailureWhileStopped(t *testing.T) {
	syncer := &SyncerMock{
		SyncNowFunc: func(ctx context.Context, pushLimit, pullLimit int) clientsync.Result {
			return clientsync.Result{Pushed: 1, Error: "sync pull failed: offline"}
		},
	}
	errs := &errorLog{}
	s := New(syncer, nil, Config{Retry: fastPolicy(3)}, Callbacks{OnError: errs.add}, discardLogger())

	res := s.RunCycle(context.Background())
	assert.False(t, res.Success)

	got := errs.all()
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Attempt)
	// без фонового воркера повтор не планируется
	assert.False(t, got[0].WillRetry)

	var syncErr *apperrors.SyncError
	require.ErrorAs(t, got[0].Err, &syncErr)
	assert.Equal(t, 1, syncErr.Pushed)
	assert.Contains(t, syncErr.Error(), "offline")

	st := s.Status()
	assert.Equal(t, 1, st.ErrorCount)
	assert.Zero(t, st.Attempt)
	assert.Nil(t, st.NextRetryAt)
	assert.Nil(t, st.LastSyncTime)
}

func TestStart_RetriesUntilSuccess(t *testing.T) {
	var n atomic.Int32
	syncer := &SyncerMock{
		SyncNowFunc: func(ctx context.Context, pushLimit, pullLimit int) clientsync.Result {
			if n.Add(1) <= 2 {
				return clientsync.Result{Error: "unavailable"}
			}
			return clientsync.Result{Success: true}
		},
	}
	errs := &errorLog{}
	s := New(syncer, nil, Config{
		Interval:   time.Hour,
		Retry:      fastPolicy(5),
		RunOnStart: true,
	}, Callbacks{OnError: errs.add}, discardLogger())

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Stop)

	require.Eventually(t, func() bool {
		return s.Status().LastSyncTime != nil
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, int32(3), n.Load())
	got := errs.all()
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Attempt)
	assert.Equal(t, 2, got[1].Attempt)
	assert.True(t, got[1].WillRetry)
	assert.Equal(t, 10*time.Millisecond, got[1].RetryIn)

	st := s.Status()
	assert.True(t, st.IsRunning)
	assert.Zero(t, st.Attempt)
	assert.Zero(t, st.ErrorCount)
	assert.Nil(t, st.NextRetryAt)
}

func TestStart_GivesUpAfterMaxRetries(t *testing.T) {
	var n atomic.Int32
	syncer := &SyncerMock{
		SyncNowFunc: func(ctx context.Context, pushLimit, pullLimit int) clientsync.Result {
			n.Add(1)
			return clientsync.Result{Error: "unavailable"}
		},
	}
	errs := &errorLog{}
	s := New(syncer, nil, Config{
		Interval:   time.Hour,
		Retry:      fastPolicy(2),
		RunOnStart: true,
	}, Callbacks{OnError: errs.add}, discardLogger())

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Stop)

	require.Eventually(t, func() bool {
		return len(errs.all()) == 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool {
		return n.Load() > 2
	}, 100*time.Millisecond, 10*time.Millisecond)

	got := errs.all()
	assert.True(t, got[0].WillRetry)
	assert.False(t, got[1].WillRetry)

	st := s.Status()
	assert.Equal(t, 2, st.ErrorCount)
	assert.Zero(t, st.Attempt)
}

func TestStartStop(t *testing.T) {
	syncer := &SyncerMock{}
	s := New(syncer, nil, Config{Interval: time.Hour}, Callbacks{}, discardLogger())

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyRunning)
	assert.True(t, s.Status().IsRunning)

	s.Stop()
	s.Stop()
	assert.False(t, s.Status().IsRunning)
	assert.Empty(t, syncer.SyncNowCalls())

	require.NoError(t, s.Start(context.Background()))
	s.Stop()
}

func TestStart_RecurringJob(t *testing.T) {
	gen := &RecurringGeneratorMock{
		GenerateDueFunc: func(ctx context.Context, asOf time.Time) (int, error) {
			return 1, nil
		},
	}
	s := New(&SyncerMock{}, gen, Config{
		Interval:          time.Hour,
		RecurringInterval: 10 * time.Millisecond,
	}, Callbacks{}, discardLogger())

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Stop)

	require.Eventually(t, func() bool {
		return len(gen.GenerateDueCalls()) >= 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestGenerateRecurring(t *testing.T) {
	now := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	gen := &RecurringGeneratorMock{
		GenerateDueFunc: func(ctx context.Context, asOf time.Time) (int, error) {
			return 4, nil
		},
	}
	s := New(&SyncerMock{}, gen, Config{}, Callbacks{}, discardLogger())
	s.now = func() time.Time { return now }

	n, err := s.GenerateRecurring(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.True(t, gen.GenerateDueCalls()[0].AsOf.Equal(now))

	gen.GenerateDueFunc = func(ctx context.Context, asOf time.Time) (int, error) {
		return 0, errors.New("locked")
	}
	_, err = s.GenerateRecurring(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")

	empty := New(&SyncerMock{}, nil, Config{}, Callbacks{}, discardLogger())
	n, err = empty.GenerateRecurring(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
