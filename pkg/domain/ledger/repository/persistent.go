package repository

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/lunemec/eve-ledger/pkg/domain/ledger"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/aggregate"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/entity"

	"github.com/asdine/storm/v3"
	"github.com/pkg/errors"
	"gopkg.in/tomb.v2"
)

type persistentRepository struct {
	db *storm.DB
}

const (
	characterNodeKey   = "character"
	corporationNodeKey = "corporation"
	journalNodeKey     = "journal"
	miningNodeKey      = "mining"
	entitiesNodeKey    = "entities"
	scopesNodeKey      = "scopes"
	metadataNodeKey    = "metadata"
)

// Metadata is kept per sync operation.
type Metadata struct {
	Metadata  string `storm:"id,unique"`
	ETag      string
	UpdatedAt time.Time
}

// scopeRecord remembers every scope that ever received data, so queries
// without explicit ids know which nodes to read.
type scopeRecord struct {
	Key           string `storm:"id"`
	CharacterID   entity.CharacterID
	CorporationID entity.CorporationID
	DivisionID    entity.DivisionID
}

func New(db *storm.DB) *persistentRepository {
	return &persistentRepository{
		db: db,
	}
}

// Open opens (or creates) the bolt file at path.
func Open(path string) (*persistentRepository, error) {
	db, err := storm.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening database: %s", path)
	}
	return New(db), nil
}

func (r *persistentRepository) Close() error {
	return r.db.Close()
}

func (r *persistentRepository) CharacterJournal(ctx context.Context, filter ledger.Filter) ([]aggregate.JournalRecord, error) {
	scopes, err := r.scopes(func(s scopeRecord) bool {
		return !s.isCorporation() && matchCharacter(filter, s.CharacterID)
	})
	if err != nil {
		return nil, err
	}
	return r.collectJournal(ctx, scopes, filter)
}

func (r *persistentRepository) CorporationJournal(ctx context.Context, filter ledger.Filter) ([]aggregate.JournalRecord, error) {
	scopes, err := r.scopes(func(s scopeRecord) bool {
		return s.isCorporation() && matchCorporation(filter, s.CorporationID)
	})
	if err != nil {
		return nil, err
	}
	return r.collectJournal(ctx, scopes, filter)
}

// collectJournal reads every scope node concurrently and returns the rows
// ordered by date.
func (r *persistentRepository) collectJournal(ctx context.Context, scopes []scopeRecord, filter ledger.Filter) ([]aggregate.JournalRecord, error) {
	if len(scopes) == 0 {
		return nil, nil
	}
	var (
		mu       sync.Mutex
		out      []aggregate.JournalRecord
		refTypes = entity.NewRefTypeSet(filter.RefTypes...)
	)
	t, _ := tomb.WithContext(ctx)
	for _, scope := range scopes {
		node := r.journalNode(scope.scope())
		t.Go(func() error {
			var records []aggregate.JournalRecord
			err := rangeByDate(node, filter, &records)
			if err != nil {
				return errors.Wrap(err, "error fetching journals from DB")
			}
			mu.Lock()
			defer mu.Unlock()
			for _, record := range records {
				if len(refTypes) > 0 && !refTypes.Has(record.RefType) {
					continue
				}
				out = append(out, record)
			}
			return nil
		})
	}
	if err := t.Wait(); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *persistentRepository) Mining(ctx context.Context, filter ledger.Filter) ([]aggregate.MiningRecord, error) {
	scopes, err := r.scopes(func(s scopeRecord) bool {
		return !s.isCorporation() && matchCharacter(filter, s.CharacterID)
	})
	if err != nil {
		return nil, err
	}
	var out []aggregate.MiningRecord
	for _, scope := range scopes {
		var records []aggregate.MiningRecord
		err := rangeByDate(r.miningNode(scope.CharacterID), filter, &records)
		if err != nil {
			return nil, errors.Wrap(err, "error fetching mining records from DB")
		}
		out = append(out, records...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (r *persistentRepository) Entities(ctx context.Context, ids []entity.EntityID) ([]aggregate.EveEntity, error) {
	node := r.db.From(entitiesNodeKey)
	out := make([]aggregate.EveEntity, 0, len(ids))
	for _, id := range ids {
		var e aggregate.EveEntity
		err := node.One("ID", id, &e)
		if err != nil {
			if errors.Is(err, storm.ErrNotFound) {
				continue
			}
			return nil, errors.Wrapf(err, "error loading entity: %d", id)
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *persistentRepository) JournalIDs(ctx context.Context, scope aggregate.Scope) (map[entity.JournalID]struct{}, error) {
	var records []aggregate.JournalRecord
	err := r.journalNode(scope).All(&records)
	if err != nil && !errors.Is(err, storm.ErrNotFound) {
		return nil, errors.Wrapf(err, "error loading journal ids of %s", scope)
	}
	out := make(map[entity.JournalID]struct{}, len(records))
	for _, record := range records {
		out[record.ID] = struct{}{}
	}
	return out, nil
}

func (r *persistentRepository) MiningRecords(ctx context.Context, characterID entity.CharacterID) (map[aggregate.MiningKey]aggregate.MiningRecord, error) {
	var records []aggregate.MiningRecord
	err := r.miningNode(characterID).All(&records)
	if err != nil && !errors.Is(err, storm.ErrNotFound) {
		return nil, errors.Wrapf(err, "error loading mining records of character: %d", characterID)
	}
	out := make(map[aggregate.MiningKey]aggregate.MiningRecord, len(records))
	for _, record := range records {
		out[record.Key] = record
	}
	return out, nil
}

// Commit writes batch in a single transaction. Rows whose id already exists
// are skipped, mining updates only touch Quantity.
func (r *persistentRepository) Commit(ctx context.Context, batch ledger.Batch) error {
	tx, err := r.db.Begin(true)
	if err != nil {
		return errors.Wrap(err, "unable to begin tx")
	}
	defer tx.Rollback()

	entities := tx.From(entitiesNodeKey)
	for i := range batch.Entities {
		err = insertIgnore(entities, "ID", batch.Entities[i].ID, &batch.Entities[i])
		if err != nil {
			return errors.Wrapf(err, "error saving entity: %d", batch.Entities[i].ID)
		}
	}

	journal := r.journalNodeFrom(tx, batch.Scope)
	for i := range batch.JournalInserts {
		err = insertIgnore(journal, "ID", batch.JournalInserts[i].ID, &batch.JournalInserts[i])
		if err != nil {
			return errors.Wrapf(err, "error saving journal entry: %d", batch.JournalInserts[i].ID)
		}
	}

	mining := tx.From(characterNodeKey, fmt.Sprint(batch.Scope.CharacterID), miningNodeKey)
	for i := range batch.MiningInserts {
		err = insertIgnore(mining, "Key", batch.MiningInserts[i].Key, &batch.MiningInserts[i])
		if err != nil {
			return errors.Wrapf(err, "error saving mining record: %s", batch.MiningInserts[i].Key)
		}
	}
	for _, record := range batch.MiningUpdates {
		err = mining.UpdateField(&aggregate.MiningRecord{Key: record.Key}, "Quantity", record.Quantity)
		if err != nil {
			return errors.Wrapf(err, "error updating mining record: %s", record.Key)
		}
	}

	scope := newScopeRecord(batch.Scope)
	err = tx.From(scopesNodeKey).Save(&scope)
	if err != nil {
		return errors.Wrap(err, "error saving scope")
	}

	return errors.Wrap(tx.Commit(), "error commiting tx")
}

func (r *persistentRepository) ETag(ctx context.Context, operation string) (string, error) {
	metadata, err := r.metadata(operation)
	return metadata.ETag, err
}

func (r *persistentRepository) SetETag(ctx context.Context, operation, etag string) error {
	metadata, err := r.metadata(operation)
	if err != nil {
		return err
	}
	metadata.ETag = etag
	err = r.db.From(metadataNodeKey).Save(&metadata)
	if err != nil {
		return errors.Wrap(err, "unable to update metadata")
	}
	return nil
}

func (r *persistentRepository) UpdatedAt(ctx context.Context, operation string) (time.Time, error) {
	metadata, err := r.metadata(operation)
	return metadata.UpdatedAt, err
}

func (r *persistentRepository) RecordUpdatedAt(ctx context.Context, operation string, at time.Time) error {
	metadata, err := r.metadata(operation)
	if err != nil {
		return err
	}
	metadata.UpdatedAt = at
	err = r.db.From(metadataNodeKey).Save(&metadata)
	if err != nil {
		return errors.Wrap(err, "unable to update metadata")
	}
	return nil
}

func (r *persistentRepository) metadata(operation string) (Metadata, error) {
	var metadata Metadata
	err := r.db.From(metadataNodeKey).One("Metadata", operation, &metadata)
	if err != nil {
		if errors.Is(err, storm.ErrNotFound) {
			return Metadata{Metadata: operation}, nil
		}
		return metadata, errors.Wrap(err, "error loading metadata")
	}
	return metadata, nil
}

func (r *persistentRepository) scopes(keep func(scopeRecord) bool) ([]scopeRecord, error) {
	var all []scopeRecord
	err := r.db.From(scopesNodeKey).All(&all)
	if err != nil && !errors.Is(err, storm.ErrNotFound) {
		return nil, errors.Wrap(err, "error loading scopes")
	}
	var out []scopeRecord
	for _, s := range all {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *persistentRepository) journalNode(scope aggregate.Scope) storm.Node {
	return r.journalNodeFrom(r.db, scope)
}

func (r *persistentRepository) journalNodeFrom(node storm.Node, scope aggregate.Scope) storm.Node {
	if scope.IsCorporation() {
		return node.From(corporationNodeKey, fmt.Sprint(scope.CorporationID), fmt.Sprint(scope.DivisionID), journalNodeKey)
	}
	return node.From(characterNodeKey, fmt.Sprint(scope.CharacterID), journalNodeKey)
}

func (r *persistentRepository) miningNode(characterID entity.CharacterID) storm.Node {
	return r.db.From(characterNodeKey, fmt.Sprint(characterID), miningNodeKey)
}

// rangeByDate loads the records of node within the filter's date range.
// A zero From or To leaves that side open.
func rangeByDate(node storm.Node, filter ledger.Filter, to interface{}) error {
	var err error
	if filter.From.IsZero() && filter.To.IsZero() {
		err = node.All(to)
	} else {
		from, until := filter.From, filter.To
		if until.IsZero() {
			until = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
		}
		// Range is inclusive on both ends; the To bound is exclusive.
		err = node.Range("Date", from.UTC(), until.UTC().Add(-time.Second), to)
	}
	if errors.Is(err, storm.ErrNotFound) {
		return nil
	}
	return err
}

// insertIgnore saves data unless a record with the same id already exists.
func insertIgnore(node storm.Node, field string, id interface{}, data interface{}) error {
	existing := reflect.New(reflect.TypeOf(data).Elem()).Interface()
	err := node.One(field, id, existing)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, storm.ErrNotFound):
		return err
	}
	return node.Save(data)
}

func newScopeRecord(scope aggregate.Scope) scopeRecord {
	return scopeRecord{
		Key:           scope.String(),
		CharacterID:   scope.CharacterID,
		CorporationID: scope.CorporationID,
		DivisionID:    scope.DivisionID,
	}
}

func (s scopeRecord) isCorporation() bool {
	return s.scope().IsCorporation()
}

func (s scopeRecord) scope() aggregate.Scope {
	return aggregate.Scope{CharacterID: s.CharacterID, CorporationID: s.CorporationID, DivisionID: s.DivisionID}
}

func matchCharacter(filter ledger.Filter, id entity.CharacterID) bool {
	if len(filter.CharacterIDs) == 0 {
		return true
	}
	for _, want := range filter.CharacterIDs {
		if want == id {
			return true
		}
	}
	return false
}

func matchCorporation(filter ledger.Filter, id entity.CorporationID) bool {
	if len(filter.CorporationIDs) == 0 {
		return true
	}
	for _, want := range filter.CorporationIDs {
		if want == id {
			return true
		}
	}
	return false
}
