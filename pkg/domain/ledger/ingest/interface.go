package ingest

import (
	"context"
	"time"

	"github.com/lunemec/eve-ledger/pkg/domain/ledger"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/aggregate"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/entity"
)

// Store is the part of the persistent store a sync writes through.
//
//go:generate mockgen -destination=mocks/mock_interface.go -source=interface.go Store,NameResolver
type Store interface {
	Entities(ctx context.Context, ids []entity.EntityID) ([]aggregate.EveEntity, error)
	JournalIDs(ctx context.Context, scope aggregate.Scope) (map[entity.JournalID]struct{}, error)
	MiningRecords(ctx context.Context, characterID entity.CharacterID) (map[aggregate.MiningKey]aggregate.MiningRecord, error)
	Commit(ctx context.Context, batch ledger.Batch) error

	UpdatedAt(ctx context.Context, operation string) (time.Time, error)
	RecordUpdatedAt(ctx context.Context, operation string, at time.Time) error
}

// NameResolver resolves entity ids the store does not know yet.
type NameResolver interface {
	ResolveNames(ctx context.Context, ids []entity.EntityID) ([]aggregate.EveEntity, error)
}
