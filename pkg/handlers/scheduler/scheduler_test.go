package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lunemec/eve-ledger/pkg/domain/ledger"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/aggregate"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/ingest"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/repository/lock"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAccountant struct {
	ledger.Service

	targets []ingest.Target
	sync    func(target ingest.Target, attempt int) (ingest.Result, error)

	mu       sync.Mutex
	attempts map[string]int
}

func (f *fakeAccountant) Targets(ctx context.Context) ([]ingest.Target, error) {
	return f.targets, nil
}

func (f *fakeAccountant) Sync(ctx context.Context, target ingest.Target, force bool) (ingest.Result, error) {
	f.mu.Lock()
	f.attempts[target.Key()]++
	attempt := f.attempts[target.Key()]
	f.mu.Unlock()
	return f.sync(target, attempt)
}

func newTestScheduler(svc *fakeAccountant, locker lock.Locker, notify Notify) *schedulerHandler {
	s := New(context.Background(), zap.NewNop(), "@every 1h", 4, svc, locker, notify)
	s.retry.InitialDelay = time.Millisecond
	s.retry.MaxDelay = time.Millisecond
	s.retry.MaxRetries = 3
	s.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

var (
	journal = ingest.Target{Kind: ingest.KindCharacterJournal, CharacterID: 1001}
	mining  = ingest.Target{Kind: ingest.KindCharacterMining, CharacterID: 1001}
)

func TestSyncAllRetriesTransientErrors(t *testing.T) {
	svc := &fakeAccountant{
		targets:  []ingest.Target{journal, mining},
		attempts: make(map[string]int),
		sync: func(target ingest.Target, attempt int) (ingest.Result, error) {
			if target == journal && attempt == 1 {
				return ingest.Result{}, &ledger.TransientFetchError{StatusCode: 502, Err: errors.New("bad gateway")}
			}
			return ingest.Result{Inserted: 2}, nil
		},
	}
	s := newTestScheduler(svc, lock.NewMemory(), nil)

	summary, err := s.SyncAll(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Targets)
	assert.Equal(t, 4, summary.Inserted)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, 2, svc.attempts[journal.Key()])
	assert.Equal(t, 1, svc.attempts[mining.Key()])
}

func TestSyncAllDoesNotRetryPermanentErrors(t *testing.T) {
	svc := &fakeAccountant{
		targets:  []ingest.Target{journal},
		attempts: make(map[string]int),
		sync: func(target ingest.Target, attempt int) (ingest.Result, error) {
			return ingest.Result{}, errors.New("ESI responded with HTTP 404")
		},
	}
	s := newTestScheduler(svc, lock.NewMemory(), nil)

	summary, err := s.SyncAll(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, svc.attempts[journal.Key()])
}

func TestSyncAllNotifiesIncompleteResolution(t *testing.T) {
	svc := &fakeAccountant{
		targets:  []ingest.Target{journal},
		attempts: make(map[string]int),
		sync: func(target ingest.Target, attempt int) (ingest.Result, error) {
			return ingest.Result{}, errors.Wrap(&ledger.EntityResolutionIncompleteError{Requested: 3, Resolved: 2}, "error syncing page: 1")
		},
	}
	var notifications []aggregate.SyncNotification
	s := newTestScheduler(svc, lock.NewMemory(), func(n aggregate.SyncNotification) {
		notifications = append(notifications, n)
	})

	summary, err := s.SyncAll(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, notifications, 1)
	assert.Equal(t, "character_journal:1001", notifications[0].Target)
	assert.Equal(t, 2024, notifications[0].Date.Year())
}

func TestSyncAllSkipsLockedTargets(t *testing.T) {
	svc := &fakeAccountant{
		targets:  []ingest.Target{journal, mining},
		attempts: make(map[string]int),
		sync: func(target ingest.Target, attempt int) (ingest.Result, error) {
			return ingest.Result{Inserted: 1}, nil
		},
	}
	locker := lock.NewMemory()
	unlock, ok, err := locker.TryLock(context.Background(), journal.Key())
	require.NoError(t, err)
	require.True(t, ok)
	defer unlock()

	s := newTestScheduler(svc, locker, nil)
	summary, err := s.SyncAll(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Locked)
	assert.Equal(t, 1, summary.Inserted)
	assert.Zero(t, svc.attempts[journal.Key()])
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New(ctx, zap.NewNop(), "not a schedule", 1, &fakeAccountant{attempts: make(map[string]int)}, lock.NewMemory(), nil)
	assert.Error(t, s.Start())
}
