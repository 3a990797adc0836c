package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/lunemec/eve-ledger/pkg/domain/ledger"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/aggregate"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/ingest"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/repository/lock"
	"github.com/lunemec/eve-ledger/pkg/retry"
	"github.com/lunemec/eve-ledger/pkg/services/accountant"

	"github.com/alitto/pond/v2"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Notify is called when a sync had to abort before writing anything.
type Notify func(notification aggregate.SyncNotification)

// Summary counts the outcome of one sync round.
type Summary struct {
	ingest.Result
	Targets int
	Locked  int
	Failed  int
}

type schedulerHandler struct {
	ctx           context.Context
	log           *zap.Logger
	schedule      string
	accountantSvc accountant.Service
	locker        lock.Locker
	pool          pond.Pool
	retry         retry.Config
	notify        Notify
	now           func() time.Time
}

func New(
	ctx context.Context,
	log *zap.Logger,
	schedule string,
	workers int,
	accountantSvc accountant.Service,
	locker lock.Locker,
	notify Notify,
) *schedulerHandler {
	if workers < 1 {
		workers = 1
	}
	retryCfg := retry.DefaultConfig()
	retryCfg.Retryable = ledger.IsTransient
	return &schedulerHandler{
		ctx:           ctx,
		log:           log,
		schedule:      schedule,
		accountantSvc: accountantSvc,
		locker:        locker,
		pool:          pond.NewPool(workers),
		retry:         retryCfg,
		notify:        notify,
		now:           time.Now,
	}
}

// Start blocks until the context is cancelled, running a sync round on
// every schedule tick. A tick still running when the next one fires makes
// the next one skip.
func (s *schedulerHandler) Start() error {
	logger := cronLogger{s.log}
	c := cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))
	_, err := c.AddFunc(s.schedule, func() {
		summary, err := s.SyncAll(s.ctx, false)
		if err != nil {
			s.log.Error("sync round error", zap.Error(err))
			return
		}
		s.log.Info("sync round finished",
			zap.Int("targets", summary.Targets),
			zap.Int("inserted", summary.Inserted),
			zap.Int("updated", summary.Updated),
			zap.Int("entities", summary.Entities),
			zap.Int("locked", summary.Locked),
			zap.Int("failed", summary.Failed),
		)
	})
	if err != nil {
		return errors.Wrapf(err, "invalid sync schedule: %q", s.schedule)
	}

	s.log.Info("Scheduler handler started.", zap.String("schedule", s.schedule))
	c.Start()
	<-s.ctx.Done()
	<-c.Stop().Done()
	s.pool.StopAndWait()
	return nil
}

// SyncAll syncs every known target once and waits for all of them. Failing
// targets are counted and logged, they never stop the others.
func (s *schedulerHandler) SyncAll(ctx context.Context, force bool) (Summary, error) {
	targets, err := s.accountantSvc.Targets(ctx)
	if err != nil {
		return Summary{}, errors.Wrap(err, "error listing sync targets")
	}

	var (
		mu      sync.Mutex
		summary = Summary{Targets: len(targets)}
	)
	group := s.pool.NewGroupContext(ctx)
	for _, target := range targets {
		group.Submit(func() {
			result, locked, err := s.syncTarget(group.Context(), target, force)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				summary.Failed++
			case locked:
				summary.Locked++
			default:
				summary.Result = summary.Result.Add(result)
			}
		})
	}
	err = group.Wait()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		return summary, errors.Wrap(err, "error waiting for sync jobs")
	}
	return summary, nil
}

// syncTarget runs one target under its lock. locked reports that another
// sync of the same target was already running.
func (s *schedulerHandler) syncTarget(ctx context.Context, target ingest.Target, force bool) (ingest.Result, bool, error) {
	log := s.log.With(zap.String("target", target.Key()))

	unlock, ok, err := s.locker.TryLock(ctx, target.Key())
	if err != nil {
		log.Error("error acquiring sync lock", zap.Error(err))
		return ingest.Result{}, false, err
	}
	if !ok {
		log.Debug("sync already running")
		return ingest.Result{}, true, nil
	}
	defer unlock()

	var result ingest.Result
	err = retry.WithBackoff(ctx, s.retry, log, target.Key(), func() error {
		r, err := s.accountantSvc.Sync(ctx, target, force)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		log.Error("sync error", zap.Error(err))
		var incomplete *ledger.EntityResolutionIncompleteError
		if errors.As(err, &incomplete) && s.notify != nil {
			s.notify(aggregate.SyncNotification{
				Target: target.String(),
				Date:   s.now(),
				Err:    err,
			})
		}
		return ingest.Result{}, false, err
	}
	if !result.Skipped {
		log.Debug("target synced",
			zap.Int("inserted", result.Inserted),
			zap.Int("updated", result.Updated),
		)
	}
	return result, false, nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, zap.Any("cron", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, zap.Error(err), zap.Any("cron", keysAndValues))
}
