package ledger

import (
	"context"

	"github.com/lunemec/eve-ledger/pkg/domain/ledger/aggregate"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/aggregator"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/billboard"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/builder"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/entity"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/reftype"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/tax"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// WalletLabel is the flow endpoint standing for a character's own wallet.
const WalletLabel = "Wallet"

// Service answers report requests from already synced data. It never writes
// to the store and is safe for concurrent use.
type Service interface {
	CharacterLedger(ctx context.Context, period aggregate.Period, mains []entity.CharacterID) (*aggregate.Ledger, error)
	CorporationLedger(ctx context.Context, period aggregate.Period, corporations []entity.CorporationID) (*aggregate.Ledger, error)
	AllianceLedger(ctx context.Context, period aggregate.Period, allianceID entity.AllianceID) (*aggregate.Ledger, error)
	Billboard(ctx context.Context, request BillboardRequest) (*aggregate.Billboard, error)
	Breakdown(ctx context.Context, period aggregate.Period, corporations []entity.CorporationID) (*aggregate.Breakdown, error)
}

// BillboardRequest selects whose billboard to build.
type BillboardRequest struct {
	Scope  aggregate.LedgerScope
	ID     entity.EntityID
	Period aggregate.Period
}

type ledgerService struct {
	log        *zap.Logger
	store      Store
	prices     PriceRepository
	alliances  AllianceRepository
	ownership  OwnershipRepository
	converter  *tax.Converter
	taxonomy   *reftype.Taxonomy
	aggregator *aggregator.Aggregator
	builder    *builder.Builder
}

func NewService(log *zap.Logger, store Store, prices PriceRepository, alliances AllianceRepository, ownership OwnershipRepository, converter *tax.Converter, taxonomy *reftype.Taxonomy) *ledgerService {
	if taxonomy == nil {
		taxonomy = reftype.Default
	}
	agg := aggregator.New(taxonomy)
	return &ledgerService{
		log:        log,
		store:      store,
		prices:     prices,
		alliances:  alliances,
		ownership:  ownership,
		converter:  converter,
		taxonomy:   taxonomy,
		aggregator: agg,
		builder:    builder.New(log, agg, converter, ownership),
	}
}

func (s *ledgerService) CharacterLedger(ctx context.Context, period aggregate.Period, mains []entity.CharacterID) (*aggregate.Ledger, error) {
	mains = s.mainsOf(mains)
	filter := PeriodFilter(period)
	in := builder.Input{Period: period}
	var err error

	in.CharacterJournal, err = s.store.CharacterJournal(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "error loading character journal")
	}
	in.CorporationJournal, err = s.store.CorporationJournal(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "error loading corporation journal")
	}
	in.Mining, err = s.store.Mining(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "error loading mining ledger")
	}
	in.Prices = s.priceBook(ctx, in.Mining)

	ids := make([]entity.EntityID, 0, len(mains))
	for _, main := range mains {
		ids = append(ids, main.EntityID())
	}
	in.Names = s.names(ctx, ids)

	ledger, err := s.builder.Character(ctx, in, mains)
	if err != nil {
		return nil, errors.Wrap(err, "error building character ledger")
	}
	return ledger, nil
}

func (s *ledgerService) CorporationLedger(ctx context.Context, period aggregate.Period, corporations []entity.CorporationID) (*aggregate.Ledger, error) {
	in, err := s.corporationInput(ctx, period, corporations)
	if err != nil {
		return nil, err
	}
	return s.builder.Corporation(in, corporations), nil
}

func (s *ledgerService) AllianceLedger(ctx context.Context, period aggregate.Period, allianceID entity.AllianceID) (*aggregate.Ledger, error) {
	members, err := s.alliances.AllianceCorporations(ctx, allianceID)
	if err != nil {
		return nil, errors.Wrapf(err, "error listing corporations of alliance: %d", allianceID)
	}
	if len(members) == 0 {
		return s.builder.Alliance(builder.Input{Period: period}, nil), nil
	}
	in, err := s.corporationInput(ctx, period, members)
	if err != nil {
		return nil, err
	}
	return s.builder.Alliance(in, members), nil
}

func (s *ledgerService) corporationInput(ctx context.Context, period aggregate.Period, corporations []entity.CorporationID) (builder.Input, error) {
	filter := PeriodFilter(period)
	filter.CorporationIDs = corporations
	rows, err := s.store.CorporationJournal(ctx, filter)
	if err != nil {
		return builder.Input{}, errors.Wrap(err, "error loading corporation journal")
	}

	ids := make([]entity.EntityID, 0, len(corporations))
	seen := make(entity.EntitySet)
	for _, row := range rows {
		id := row.CorporationID.EntityID()
		if !seen.Has(id) {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return builder.Input{
		Period:             period,
		CorporationJournal: rows,
		Names:              s.names(ctx, ids),
	}, nil
}

func (s *ledgerService) Billboard(ctx context.Context, request BillboardRequest) (*aggregate.Billboard, error) {
	filter := PeriodFilter(request.Period)
	var (
		rows   []aggregate.JournalRecord
		mining []aggregate.MiningRecord
		opts   []billboard.Option
	)

	switch request.Scope {
	case aggregate.LedgerScopeCharacter:
		main := s.mainOf(entity.CharacterID(request.ID))
		characters, err := s.characters(ctx, main)
		if err != nil {
			return nil, err
		}
		filter.CharacterIDs = characters
		own, err := s.store.CharacterJournal(ctx, filter)
		if err != nil {
			return nil, errors.Wrap(err, "error loading character journal")
		}
		corp, err := s.store.CorporationJournal(ctx, PeriodFilter(request.Period))
		if err != nil {
			return nil, errors.Wrap(err, "error loading corporation journal")
		}
		parties := entity.CharacterSet(characters...)
		rows = own
		for _, row := range corp {
			if parties.Has(row.SecondPartyID) {
				rows = append(rows, row)
			}
		}
		mining, err = s.store.Mining(ctx, filter)
		if err != nil {
			return nil, errors.Wrap(err, "error loading mining ledger")
		}
		opts = append(opts, billboard.WithCharacterView(s.converter), billboard.WithOwnerLabel(WalletLabel))

	case aggregate.LedgerScopeCorporation, aggregate.LedgerScopeAlliance:
		corporations := []entity.CorporationID{entity.CorporationID(request.ID)}
		if request.Scope == aggregate.LedgerScopeAlliance {
			members, err := s.alliances.AllianceCorporations(ctx, entity.AllianceID(request.ID))
			if err != nil {
				return nil, errors.Wrapf(err, "error listing corporations of alliance: %d", request.ID)
			}
			if len(members) == 0 {
				return nil, nil
			}
			corporations = members
		}
		filter.CorporationIDs = corporations
		var err error
		rows, err = s.store.CorporationJournal(ctx, filter)
		if err != nil {
			return nil, errors.Wrap(err, "error loading corporation journal")
		}

	default:
		return nil, errors.Errorf("unknown billboard scope: %q", request.Scope)
	}

	ids := make(entity.EntitySet)
	for _, row := range rows {
		for _, id := range append(row.PartyIDs(), row.CharacterID.EntityID(), row.CorporationID.EntityID()) {
			if id != 0 {
				ids[id] = struct{}{}
			}
		}
	}
	opts = append(opts, billboard.WithNames(s.names(ctx, ids.IDs())))

	engine := billboard.New(s.log, s.taxonomy, opts...)
	board, err := engine.Build(rows, mining, s.priceBook(ctx, mining), request.Period.Granularity())
	if err != nil {
		return nil, errors.Wrap(err, "error building billboard")
	}
	return board, nil
}

// Breakdown groups corporation journal movement by category and ref type.
func (s *ledgerService) Breakdown(ctx context.Context, period aggregate.Period, corporations []entity.CorporationID) (*aggregate.Breakdown, error) {
	filter := PeriodFilter(period)
	filter.CorporationIDs = corporations
	rows, err := s.store.CorporationJournal(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "error loading corporation journal")
	}

	breakdown := aggregate.NewBreakdown()
	breakdown.Balance = s.aggregator.Balance(rows)
	for category, balance := range s.aggregator.ByCategory(rows) {
		breakdown.ByCategory[string(category)] = *balance
	}
	for _, row := range rows {
		breakdown.ByRefType[row.RefType] = breakdown.ByRefType[row.RefType].Add(row.Amount)
	}
	return breakdown, nil
}

// mainOf maps an alt onto its main so main and alts always aggregate as one.
func (s *ledgerService) mainOf(character entity.CharacterID) entity.CharacterID {
	if s.ownership == nil {
		return character
	}
	return s.ownership.MainOf(character)
}

func (s *ledgerService) mainsOf(characters []entity.CharacterID) []entity.CharacterID {
	out := make([]entity.CharacterID, 0, len(characters))
	for _, character := range characters {
		out = append(out, s.mainOf(character))
	}
	return out
}

// characters returns main and its alts; an unlinked main stands alone.
func (s *ledgerService) characters(ctx context.Context, main entity.CharacterID) ([]entity.CharacterID, error) {
	characters := []entity.CharacterID{main}
	if s.ownership == nil {
		return characters, nil
	}
	alts, err := s.ownership.Alts(ctx, main)
	if err != nil {
		var notLinked *OwnershipNotLinkedError
		if errors.As(err, &notLinked) {
			return characters, nil
		}
		return nil, errors.Wrapf(err, "error resolving alts of character: %d", main)
	}
	return append(characters, alts...), nil
}

// names never fails: unknown entities render as entity.UnknownName.
func (s *ledgerService) names(ctx context.Context, ids []entity.EntityID) aggregate.Names {
	if len(ids) == 0 {
		return aggregate.Names{}
	}
	entities, err := s.store.Entities(ctx, ids)
	if err != nil {
		s.log.Warn("error loading entity names", zap.Error(err))
		return aggregate.Names{}
	}
	return aggregate.NamesFromEntities(entities)
}

// priceBook loads prices only when mining rows need them. A failed price
// lookup values the mining at zero.
func (s *ledgerService) priceBook(ctx context.Context, mining []aggregate.MiningRecord) aggregate.PriceBook {
	if len(mining) == 0 || s.prices == nil {
		return aggregate.PriceBook{}
	}
	prices, err := s.prices.AveragePrices(ctx)
	if err != nil {
		s.log.Warn("error loading market prices, mining is valued at zero", zap.Error(err))
		return aggregate.PriceBook{}
	}
	return prices
}
