package ingest

import (
	"context"

	"github.com/lunemec/eve-ledger/pkg/domain/ledger"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/aggregate"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/entity"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ResolveChunkSize is the number of ids sent per name resolution call.
const ResolveChunkSize = 500

// Result counts what one sync wrote.
type Result struct {
	Inserted int
	Updated  int
	Entities int
	Skipped  bool
}

func (r Result) Add(other Result) Result {
	return Result{
		Inserted: r.Inserted + other.Inserted,
		Updated:  r.Updated + other.Updated,
		Entities: r.Entities + other.Entities,
		Skipped:  r.Skipped && other.Skipped,
	}
}

type Syncer struct {
	log      *zap.Logger
	store    Store
	resolver NameResolver
}

func NewSyncer(log *zap.Logger, store Store, resolver NameResolver) *Syncer {
	return &Syncer{
		log:      log,
		store:    store,
		resolver: resolver,
	}
}

// Journal inserts the journal rows of scope that are not stored yet.
// Journal entries are immutable, so nothing is ever updated.
func (s *Syncer) Journal(ctx context.Context, scope aggregate.Scope, rows []aggregate.JournalRecord) (Result, error) {
	existing, err := s.store.JournalIDs(ctx, scope)
	if err != nil {
		return Result{}, errors.Wrapf(err, "error loading journal ids of %s", scope)
	}
	for i := range rows {
		rows[i].CharacterID = scope.CharacterID
		rows[i].CorporationID = scope.CorporationID
		rows[i].DivisionID = scope.DivisionID
	}
	toInsert, _ := Diff(existing, rows, func(r aggregate.JournalRecord) entity.JournalID { return r.ID }, nil)

	var referenced entity.EntitySet
	if len(toInsert) > 0 {
		referenced = entity.NewEntitySet(ownerIDs(scope)...)
		for _, row := range toInsert {
			for _, id := range row.PartyIDs() {
				referenced[id] = struct{}{}
			}
		}
	}
	entities, err := s.unknownEntities(ctx, referenced)
	if err != nil {
		return Result{}, err
	}

	batch := ledger.Batch{
		Scope:          scope,
		Entities:       entities,
		JournalInserts: toInsert,
	}
	return s.commit(ctx, batch)
}

// Mining inserts new mining records of characterID and updates the quantity
// of records that grew since the last sync.
func (s *Syncer) Mining(ctx context.Context, characterID entity.CharacterID, rows []aggregate.MiningRecord) (Result, error) {
	existing, err := s.store.MiningRecords(ctx, characterID)
	if err != nil {
		return Result{}, errors.Wrapf(err, "error loading mining records of character: %d", characterID)
	}
	for i := range rows {
		rows[i] = aggregate.NewMiningRecord(characterID, rows[i].Date, rows[i].TypeID, rows[i].SystemID, rows[i].Quantity)
	}
	toInsert, toUpdate := Diff(existing, rows,
		func(r aggregate.MiningRecord) aggregate.MiningKey { return r.Key },
		func(old, fetched aggregate.MiningRecord) bool { return old.Quantity != fetched.Quantity },
	)

	var referenced entity.EntitySet
	if len(toInsert) > 0 {
		referenced = entity.CharacterSet(characterID)
	}
	entities, err := s.unknownEntities(ctx, referenced)
	if err != nil {
		return Result{}, err
	}

	batch := ledger.Batch{
		Scope:         aggregate.CharacterScope(characterID),
		Entities:      entities,
		MiningInserts: toInsert,
		MiningUpdates: toUpdate,
	}
	return s.commit(ctx, batch)
}

func (s *Syncer) commit(ctx context.Context, batch ledger.Batch) (Result, error) {
	result := Result{
		Inserted: len(batch.JournalInserts) + len(batch.MiningInserts),
		Updated:  len(batch.MiningUpdates),
		Entities: len(batch.Entities),
	}
	if batch.Empty() {
		return result, nil
	}
	err := s.store.Commit(ctx, batch)
	if err != nil {
		return Result{}, errors.Wrapf(err, "error committing sync of %s", batch.Scope)
	}
	s.log.Debug("sync committed",
		zap.Stringer("scope", batch.Scope),
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.Int("entities", result.Entities),
	)
	return result, nil
}

// unknownEntities resolves the ids in referenced the store does not know.
// Anything short of a full resolution aborts the sync.
func (s *Syncer) unknownEntities(ctx context.Context, referenced entity.EntitySet) ([]aggregate.EveEntity, error) {
	if referenced.Empty() {
		return nil, nil
	}
	ids := referenced.IDs()
	known, err := s.store.Entities(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "error loading known entities")
	}
	for _, e := range known {
		delete(referenced, e.ID)
	}
	unknown := referenced.IDs()
	if len(unknown) == 0 {
		return nil, nil
	}

	var resolved []aggregate.EveEntity
	for start := 0; start < len(unknown); start += ResolveChunkSize {
		end := start + ResolveChunkSize
		if end > len(unknown) {
			end = len(unknown)
		}
		chunk, err := s.resolver.ResolveNames(ctx, unknown[start:end])
		if err != nil {
			return nil, errors.Wrapf(err, "error resolving %d entity names", end-start)
		}
		resolved = append(resolved, chunk...)
	}
	if len(resolved) < len(unknown) {
		return nil, &ledger.EntityResolutionIncompleteError{Requested: len(unknown), Resolved: len(resolved)}
	}
	return resolved, nil
}

func ownerIDs(scope aggregate.Scope) []entity.EntityID {
	if scope.IsCorporation() {
		return []entity.EntityID{scope.CorporationID.EntityID()}
	}
	return []entity.EntityID{scope.CharacterID.EntityID()}
}
