package ledger

import (
	"context"
	"time"

	"github.com/lunemec/eve-ledger/pkg/domain/ledger/aggregate"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/entity"
)

// Filter narrows a store query. Zero values disable the matching condition.
type Filter struct {
	From, To       time.Time
	CharacterIDs   []entity.CharacterID
	CorporationIDs []entity.CorporationID
	RefTypes       []entity.RefType
}

// PeriodFilter returns a filter covering period.
func PeriodFilter(period aggregate.Period) Filter {
	from, to := period.Range()
	return Filter{From: from, To: to}
}

// Batch is the write set of one sync invocation, committed all-or-nothing.
type Batch struct {
	Scope          aggregate.Scope
	Entities       []aggregate.EveEntity
	JournalInserts []aggregate.JournalRecord
	MiningInserts  []aggregate.MiningRecord
	MiningUpdates  []aggregate.MiningRecord
}

func (b Batch) Empty() bool {
	return len(b.Entities) == 0 && len(b.JournalInserts) == 0 && len(b.MiningInserts) == 0 && len(b.MiningUpdates) == 0
}

// Store is the persistent store of journal rows and entity identities.
type Store interface {
	CharacterJournal(ctx context.Context, filter Filter) ([]aggregate.JournalRecord, error)
	CorporationJournal(ctx context.Context, filter Filter) ([]aggregate.JournalRecord, error)
	Mining(ctx context.Context, filter Filter) ([]aggregate.MiningRecord, error)
	Entities(ctx context.Context, ids []entity.EntityID) ([]aggregate.EveEntity, error)

	JournalIDs(ctx context.Context, scope aggregate.Scope) (map[entity.JournalID]struct{}, error)
	MiningRecords(ctx context.Context, characterID entity.CharacterID) (map[aggregate.MiningKey]aggregate.MiningRecord, error)
	Commit(ctx context.Context, batch Batch) error

	ETag(ctx context.Context, operation string) (string, error)
	SetETag(ctx context.Context, operation, etag string) error
	UpdatedAt(ctx context.Context, operation string) (time.Time, error)
	RecordUpdatedAt(ctx context.Context, operation string, at time.Time) error
}

// PageFunc receives each fetched page, strictly in page order.
type PageFunc[T any] func(page int, records []T) error

// ESIRepository fetches one authenticated character's data. When force is
// false and the server reports no change, it returns ErrNotModified before
// calling fn.
type ESIRepository interface {
	CharacterID() entity.CharacterID
	CorporationID() entity.CorporationID
	WalletDivisions(ctx context.Context) ([]aggregate.Division, error)
	CharacterJournal(ctx context.Context, force bool, fn PageFunc[aggregate.JournalRecord]) error
	CorporationJournal(ctx context.Context, division aggregate.Division, force bool, fn PageFunc[aggregate.JournalRecord]) error
	CharacterMining(ctx context.Context, force bool, fn PageFunc[aggregate.MiningRecord]) error
}

// NameResolver resolves unknown entity ids against the naming service.
type NameResolver interface {
	ResolveNames(ctx context.Context, ids []entity.EntityID) ([]aggregate.EveEntity, error)
}

type PriceRepository interface {
	AveragePrices(ctx context.Context) (aggregate.PriceBook, error)
}

// OwnershipRepository returns the alts linked to a main. Unlinked characters
// yield *OwnershipNotLinkedError. MainOf maps an alt to its main and returns
// any other character unchanged.
type OwnershipRepository interface {
	Alts(ctx context.Context, main entity.CharacterID) ([]entity.CharacterID, error)
	MainOf(character entity.CharacterID) entity.CharacterID
}

type AllianceRepository interface {
	AllianceCorporations(ctx context.Context, allianceID entity.AllianceID) ([]entity.CorporationID, error)
}
