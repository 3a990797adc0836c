package builder

import (
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/aggregate"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/aggregator"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/entity"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/reftype"
)

// Corporation builds one row per owning corporation from the corporation
// journal. Amounts stay at corporation level, no tax conversion happens.
// An empty corporations list means every corporation present in the rows.
func (b *Builder) Corporation(in Input, corporations []entity.CorporationID) *aggregate.Ledger {
	var keep func(aggregate.JournalRecord) bool
	if len(corporations) > 0 {
		set := corporationSet(corporations)
		keep = func(r aggregate.JournalRecord) bool { return set.Has(r.CorporationID.EntityID()) }
	}
	rows := filterJournal(in.CorporationJournal, in.Period, keep)
	return finish(aggregate.LedgerScopeCorporation, in.Period, b.corporationRows(rows, in.Names), b.aggregator.Balance(rows))
}

// Alliance builds one row per member corporation of allianceID.
func (b *Builder) Alliance(in Input, members []entity.CorporationID) *aggregate.Ledger {
	set := corporationSet(members)
	rows := filterJournal(in.CorporationJournal, in.Period, func(r aggregate.JournalRecord) bool {
		return set.Has(r.CorporationID.EntityID())
	})
	return finish(aggregate.LedgerScopeAlliance, in.Period, b.corporationRows(rows, in.Names), b.aggregator.Balance(rows))
}

func corporationSet(ids []entity.CorporationID) entity.EntitySet {
	set := make(entity.EntitySet, len(ids))
	for _, id := range ids {
		set[id.EntityID()] = struct{}{}
	}
	return set
}

func (b *Builder) corporationRows(rows []aggregate.JournalRecord, names aggregate.Names) []aggregate.LedgerRow {
	var (
		order  []entity.CorporationID
		groups = make(map[entity.CorporationID][]aggregate.JournalRecord)
	)
	for _, row := range rows {
		if _, ok := groups[row.CorporationID]; !ok {
			order = append(order, row.CorporationID)
		}
		groups[row.CorporationID] = append(groups[row.CorporationID], row)
	}

	out := make([]aggregate.LedgerRow, 0, len(order))
	for _, corporationID := range order {
		group := groups[corporationID]
		row := aggregate.LedgerRow{
			ID:        corporationID.EntityID(),
			Name:      names.Name(corporationID.EntityID()),
			Bounty:    b.aggregator.Aggregate(group, reftype.Bounty, aggregator.SignPositive, nil),
			ESS:       b.aggregator.Aggregate(group, reftype.ESS, aggregator.SignPositive, nil),
			Misc:      b.aggregator.Aggregate(group, reftype.Miscellaneous, aggregator.SignPositive, nil),
			DailyGoal: b.aggregator.Aggregate(group, reftype.DailyGoal, aggregator.SignPositive, nil),
			Costs:     b.aggregator.Aggregate(group, reftype.Costs, aggregator.SignNegative, nil),
		}
		out = append(out, row.Compute())
	}
	return out
}
