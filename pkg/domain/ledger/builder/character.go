package builder

import (
	"context"

	"github.com/lunemec/eve-ledger/pkg/domain/ledger/aggregate"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/aggregator"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/entity"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/reftype"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/tax"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Character builds one summary row per main, folding its alts in.
// ESS and daily goal payouts come from the corporation journal and are
// converted to what the member received.
func (b *Builder) Character(ctx context.Context, in Input, mains []entity.CharacterID) (*aggregate.Ledger, error) {
	var (
		all     []aggregate.LedgerRow
		seen    = make(map[entity.CharacterID]struct{}, len(mains))
		owned   = make(entity.EntitySet)
		balance = aggregate.NewBalance()
		corp    = filterJournal(in.CorporationJournal, in.Period, nil)
	)
	for _, main := range mains {
		if _, ok := seen[main]; ok {
			continue
		}
		seen[main] = struct{}{}

		alts, err := b.alts(ctx, main)
		if err != nil {
			return nil, err
		}
		characters := entity.CharacterSet(append([]entity.CharacterID{main}, alts...)...)
		for id := range characters {
			owned[id] = struct{}{}
		}

		row, err := b.characterRow(in, corp, main, alts, characters)
		if err != nil {
			return nil, err
		}
		all = append(all, row)
	}

	for _, row := range filterJournal(in.CharacterJournal, in.Period, func(r aggregate.JournalRecord) bool {
		return owned.Has(r.CharacterID.EntityID())
	}) {
		balance.Record(row.Amount)
	}

	return finish(aggregate.LedgerScopeCharacter, in.Period, all, *balance), nil
}

// characterRow takes corp already filtered to the period.
func (b *Builder) characterRow(in Input, corp []aggregate.JournalRecord, main entity.CharacterID, alts []entity.CharacterID, characters entity.EntitySet) (aggregate.LedgerRow, error) {
	own := filterJournal(in.CharacterJournal, in.Period, func(r aggregate.JournalRecord) bool {
		return characters.Has(r.CharacterID.EntityID())
	})
	mining := filterMining(in.Mining, in.Period, characters)

	ess, err := b.convert(b.aggregator.Aggregate(corp, reftype.ESS, aggregator.SignPositive, characters))
	if err != nil {
		return aggregate.LedgerRow{}, errors.Wrapf(err, "error converting ess of character: %d", main)
	}
	dailyGoal, err := b.convert(b.aggregator.Aggregate(corp, reftype.DailyGoal, aggregator.SignPositive, characters))
	if err != nil {
		return aggregate.LedgerRow{}, errors.Wrapf(err, "error converting daily goal of character: %d", main)
	}

	row := aggregate.LedgerRow{
		ID:        main.EntityID(),
		Name:      in.Names.Name(main.EntityID()),
		Alts:      alts,
		Bounty:    b.aggregator.Aggregate(own, reftype.Bounty, aggregator.SignPositive, characters),
		ESS:       ess,
		Mining:    b.aggregator.MiningValue(mining, in.Prices, characters),
		Misc:      b.aggregator.Aggregate(own, reftype.Miscellaneous, aggregator.SignPositive, characters),
		DailyGoal: dailyGoal,
		Costs:     b.aggregator.Aggregate(own, reftype.Costs, aggregator.SignNegative, characters),
	}
	return row.Compute(), nil
}

func (b *Builder) convert(corpAmount decimal.Decimal) (decimal.Decimal, error) {
	if corpAmount.IsZero() {
		return decimal.Zero, nil
	}
	if b.converter == nil {
		return decimal.Zero, &tax.ConfigurationError{Percent: decimal.Zero}
	}
	return b.converter.Convert(tax.CorporationShare{Amount: corpAmount})
}
