package accountant

import (
	"context"
	"sync"

	"github.com/lunemec/eve-ledger/pkg/domain/ledger"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/ingest"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrUnknownTarget is returned by Sync for a target no job has listed.
var ErrUnknownTarget = errors.New("unknown sync target")

// Service is what the handlers talk to: ledger reports on the read side
// and target discovery plus sync on the write side.
type Service interface {
	ledger.Service

	Targets(ctx context.Context) ([]ingest.Target, error)
	Sync(ctx context.Context, target ingest.Target, force bool) (ingest.Result, error)
}

// Job is one authenticated character able to sync its targets.
type Job interface {
	Targets(ctx context.Context) ([]ingest.Target, error)
	Run(ctx context.Context, target ingest.Target, force bool) (ingest.Result, error)
}

type accountantService struct {
	ledger.Service

	log  *zap.Logger
	jobs []Job

	mu     sync.RWMutex
	owners map[string]Job
}

func New(log *zap.Logger, ledgerSvc ledger.Service, jobs ...Job) *accountantService {
	return &accountantService{
		Service: ledgerSvc,
		log:     log,
		jobs:    jobs,
		owners:  make(map[string]Job),
	}
}

// Targets lists the targets of all jobs. A corporation division visible to
// several characters is listed once, owned by the first job that saw it.
// A job that fails to list its targets is logged and skipped.
func (s *accountantService) Targets(ctx context.Context) ([]ingest.Target, error) {
	var (
		out    []ingest.Target
		seen   = make(map[string]struct{})
		owners = make(map[string]Job)
		failed int
	)
	for _, job := range s.jobs {
		targets, err := job.Targets(ctx)
		if err != nil {
			failed++
			s.log.Error("error listing sync targets", zap.Error(err))
			continue
		}
		for _, target := range targets {
			key := target.Key()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			owners[key] = job
			out = append(out, target)
		}
	}
	if failed > 0 && failed == len(s.jobs) {
		return nil, errors.New("error listing sync targets of every job")
	}

	s.mu.Lock()
	s.owners = owners
	s.mu.Unlock()
	return out, nil
}

func (s *accountantService) Sync(ctx context.Context, target ingest.Target, force bool) (ingest.Result, error) {
	s.mu.RLock()
	job, ok := s.owners[target.Key()]
	s.mu.RUnlock()
	if !ok {
		return ingest.Result{}, errors.Wrapf(ErrUnknownTarget, "target: %s", target)
	}
	return job.Run(ctx, target, force)
}
