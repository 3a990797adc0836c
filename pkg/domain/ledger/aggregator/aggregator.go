package aggregator

import (
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/aggregate"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/entity"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/reftype"

	"github.com/shopspring/decimal"
)

type Sign int

const (
	SignAny Sign = iota
	SignPositive
	SignNegative
)

func (s Sign) accepts(amount decimal.Decimal) bool {
	switch s {
	case SignPositive:
		return amount.IsPositive()
	case SignNegative:
		return amount.IsNegative()
	default:
		return true
	}
}

// party picks the acting party column: ISK flowing in is attributed to the
// second party, ISK flowing out to the first party.
func (s Sign) party(record aggregate.JournalRecord, parties entity.EntitySet) bool {
	if parties.Empty() {
		return true
	}
	switch s {
	case SignPositive:
		return parties.Has(record.SecondPartyID)
	case SignNegative:
		return parties.Has(record.FirstPartyID)
	default:
		return parties.Has(record.FirstPartyID) || parties.Has(record.SecondPartyID)
	}
}

// Aggregator sums journal rows by category over a taxonomy.
type Aggregator struct {
	taxonomy *reftype.Taxonomy
}

func New(taxonomy *reftype.Taxonomy) *Aggregator {
	if taxonomy == nil {
		taxonomy = reftype.Default
	}
	return &Aggregator{taxonomy: taxonomy}
}

func (a *Aggregator) Taxonomy() *reftype.Taxonomy {
	return a.taxonomy
}

// Aggregate sums the amount of rows in category that pass the sign and party
// filters. An empty party set disables the party filter. No match sums to zero.
func (a *Aggregator) Aggregate(rows []aggregate.JournalRecord, category reftype.Category, sign Sign, parties entity.EntitySet) decimal.Decimal {
	codes := a.taxonomy.Codes(category)
	sum := decimal.Zero
	for _, row := range rows {
		if !codes.Has(row.RefType) {
			continue
		}
		if !sign.accepts(row.Amount) {
			continue
		}
		if !sign.party(row, parties) {
			continue
		}
		sum = sum.Add(row.Amount)
	}
	return sum
}

// MiningValue sums quantity × average price for the given characters.
// Entries without a known price are worth zero.
func (a *Aggregator) MiningValue(rows []aggregate.MiningRecord, prices aggregate.PriceBook, characters entity.EntitySet) decimal.Decimal {
	sum := decimal.Zero
	for _, row := range rows {
		if !characters.Matches(row.CharacterID.EntityID()) {
			continue
		}
		sum = sum.Add(prices.Value(row))
	}
	return sum
}

// Balance is the raw income and expenses over all rows, classified or not.
func (a *Aggregator) Balance(rows []aggregate.JournalRecord) aggregate.Balance {
	balance := aggregate.NewBalance()
	for _, row := range rows {
		balance.Record(row.Amount)
	}
	return *balance
}

// ByCategory splits rows into elementary categories, keyed by sign.
// Unclassified ref types are left out.
func (a *Aggregator) ByCategory(rows []aggregate.JournalRecord) map[reftype.Category]*aggregate.Balance {
	out := make(map[reftype.Category]*aggregate.Balance)
	for _, row := range rows {
		category, ok := a.taxonomy.CategoryOf(row.RefType)
		if !ok {
			continue
		}
		balance, ok := out[category]
		if !ok {
			balance = aggregate.NewBalance()
			out[category] = balance
		}
		balance.Record(row.Amount)
	}
	return out
}
