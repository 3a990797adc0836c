package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/lunemec/eve-ledger/pkg/domain/ledger"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/aggregate"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/entity"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Kind string

const (
	KindCharacterJournal   Kind = "character_journal"
	KindCharacterMining    Kind = "character_mining"
	KindCorporationJournal Kind = "corporation_journal"
)

// Target is one independently synced unit: a character journal, a
// character mining ledger or a corporation wallet division.
type Target struct {
	Kind          Kind
	CharacterID   entity.CharacterID
	CorporationID entity.CorporationID
	Division      aggregate.Division
}

// Key identifies the target for locking and metadata. Two targets with the
// same key must never sync concurrently.
func (t Target) Key() string {
	switch t.Kind {
	case KindCorporationJournal:
		return fmt.Sprintf("%s:%d:%d", t.Kind, t.CorporationID, t.Division.ID)
	default:
		return fmt.Sprintf("%s:%d", t.Kind, t.CharacterID)
	}
}

func (t Target) String() string {
	return t.Key()
}

// Job syncs the targets visible to one authenticated character.
type Job struct {
	log        *zap.Logger
	esi        ledger.ESIRepository
	store      Store
	syncer     *Syncer
	staleAfter time.Duration
	now        func() time.Time
}

func NewJob(log *zap.Logger, esi ledger.ESIRepository, store Store, resolver NameResolver, staleAfter time.Duration) *Job {
	return &Job{
		log:        log.With(zap.Int32("character_id", int32(esi.CharacterID()))),
		esi:        esi,
		store:      store,
		syncer:     NewSyncer(log, store, resolver),
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// Targets lists everything this job can sync. Corporation divisions are
// only listed when the character may read them.
func (j *Job) Targets(ctx context.Context) ([]Target, error) {
	targets := []Target{
		{Kind: KindCharacterJournal, CharacterID: j.esi.CharacterID(), CorporationID: j.esi.CorporationID()},
		{Kind: KindCharacterMining, CharacterID: j.esi.CharacterID(), CorporationID: j.esi.CorporationID()},
	}
	divisions, err := j.esi.WalletDivisions(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "error listing wallet divisions")
	}
	for _, division := range divisions {
		targets = append(targets, Target{
			Kind:          KindCorporationJournal,
			CharacterID:   j.esi.CharacterID(),
			CorporationID: j.esi.CorporationID(),
			Division:      division,
		})
	}
	return targets, nil
}

// Run syncs target page by page, committing each page on its own. A target
// synced less than staleAfter ago is skipped unless force is set. A
// not-modified answer ends the run early and is not an error.
func (j *Job) Run(ctx context.Context, target Target, force bool) (Result, error) {
	log := j.log.With(zap.String("target", target.Key()))
	operation := target.Key()

	if !force && j.staleAfter > 0 {
		updatedAt, err := j.store.UpdatedAt(ctx, operation)
		if err != nil {
			return Result{}, errors.Wrapf(err, "error checking last update date of %s", target)
		}
		if j.now().Sub(updatedAt) < j.staleAfter {
			log.Debug("target is fresh, skipping", zap.Time("updated_at", updatedAt))
			return Result{Skipped: true}, nil
		}
	}

	var (
		total Result
		err   error
	)
	switch target.Kind {
	case KindCharacterJournal:
		scope := aggregate.CharacterScope(target.CharacterID)
		err = j.esi.CharacterJournal(ctx, force, func(page int, rows []aggregate.JournalRecord) error {
			result, err := j.syncer.Journal(ctx, scope, rows)
			if err != nil {
				return errors.Wrapf(err, "error syncing page: %d", page)
			}
			total = total.Add(result)
			return nil
		})
	case KindCorporationJournal:
		scope := aggregate.CorporationScope(target.CorporationID, target.Division.ID)
		err = j.esi.CorporationJournal(ctx, target.Division, force, func(page int, rows []aggregate.JournalRecord) error {
			result, err := j.syncer.Journal(ctx, scope, rows)
			if err != nil {
				return errors.Wrapf(err, "error syncing page: %d", page)
			}
			total = total.Add(result)
			return nil
		})
	case KindCharacterMining:
		err = j.esi.CharacterMining(ctx, force, func(page int, rows []aggregate.MiningRecord) error {
			result, err := j.syncer.Mining(ctx, target.CharacterID, rows)
			if err != nil {
				return errors.Wrapf(err, "error syncing page: %d", page)
			}
			total = total.Add(result)
			return nil
		})
	default:
		return Result{}, errors.Errorf("unknown sync target kind: %q", target.Kind)
	}

	switch {
	case errors.Is(err, ledger.ErrNotModified):
		log.Debug("not modified since last sync")
	case err != nil:
		return total, errors.Wrapf(err, "error syncing %s", target)
	}

	err = j.store.RecordUpdatedAt(ctx, operation, j.now())
	if err != nil {
		return total, errors.Wrapf(err, "error saving update date of %s", target)
	}
	log.Info("target synced",
		zap.Int("inserted", total.Inserted),
		zap.Int("updated", total.Updated),
		zap.Int("entities", total.Entities),
	)
	return total, nil
}
