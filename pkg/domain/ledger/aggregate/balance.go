package aggregate

import (
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/entity"

	"github.com/shopspring/decimal"
)

type AmountByRefType map[entity.RefType]decimal.Decimal

// Balance is the raw account movement over all rows, classified or not.
type Balance struct {
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

func NewBalance() *Balance {
	return &Balance{}
}

func (b *Balance) Balance() decimal.Decimal {
	return b.Income.Add(b.Expenses) // We must add because Expenses is negative.
}

func (b *Balance) Record(amount decimal.Decimal) {
	switch amount.Sign() {
	case 1:
		b.Income = b.Income.Add(amount)
	case -1:
		b.Expenses = b.Expenses.Add(amount)
	}
}

func (b *Balance) Sum(other *Balance) {
	b.Income = b.Income.Add(other.Income)
	b.Expenses = b.Expenses.Add(other.Expenses)
}

// Total is the running-sum accumulator of a ledger.
type Total struct {
	Bounty decimal.Decimal `json:"bounty"`
	ESS    decimal.Decimal `json:"ess"`
	Mining decimal.Decimal `json:"mining"`
	Others decimal.Decimal `json:"others"`
	Costs  decimal.Decimal `json:"costs"`
	Total  decimal.Decimal `json:"total"`
}

// Add merges other into a copy of t.
func (t Total) Add(other Total) Total {
	return Total{
		Bounty: t.Bounty.Add(other.Bounty),
		ESS:    t.ESS.Add(other.ESS),
		Mining: t.Mining.Add(other.Mining),
		Others: t.Others.Add(other.Others),
		Costs:  t.Costs.Add(other.Costs),
		Total:  t.Total.Add(other.Total),
	}
}

func (t Total) IsZero() bool {
	for _, v := range []decimal.Decimal{t.Bounty, t.ESS, t.Mining, t.Others, t.Costs, t.Total} {
		if !v.IsZero() {
			return false
		}
	}
	return true
}

// Reconcile replaces the accumulated grand total with the sum of the
// per-entity totals. It is authoritative over anything merged with Add.
func (t Total) Reconcile(rows []LedgerRow) Total {
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.Total)
	}
	t.Total = total
	return t
}

// LedgerRow is the summary of one main character or corporation.
type LedgerRow struct {
	ID        entity.EntityID      `json:"id"`
	Name      entity.Name          `json:"name"`
	Alts      []entity.CharacterID `json:"alts,omitempty"`
	Bounty    decimal.Decimal      `json:"bounty"`
	ESS       decimal.Decimal      `json:"ess"`
	Mining    decimal.Decimal      `json:"mining"`
	Misc      decimal.Decimal      `json:"miscellaneous"`
	DailyGoal decimal.Decimal      `json:"daily_goal"`
	Costs     decimal.Decimal      `json:"costs"`
	Total     decimal.Decimal      `json:"total"`
}

// Income is bounty + ess + everything else earned, without costs.
func (r LedgerRow) Income() decimal.Decimal {
	return decimal.Sum(r.Bounty, r.ESS, r.Mining, r.Misc, r.DailyGoal)
}

// Emitted reports whether the row earned journal income, bounty + ess +
// others. Mining alone does not put a row into a ledger.
func (r LedgerRow) Emitted() bool {
	return decimal.Sum(r.Bounty, r.ESS, r.Others()).IsPositive()
}

// Others groups the income that is neither bounty, ess nor mining.
func (r LedgerRow) Others() decimal.Decimal {
	return r.Misc.Add(r.DailyGoal)
}

// Compute sets Total = income - |costs|.
func (r LedgerRow) Compute() LedgerRow {
	r.Total = r.Income().Sub(r.Costs.Abs())
	return r
}

// AsTotal projects the row onto the accumulator fields.
func (r LedgerRow) AsTotal() Total {
	return Total{
		Bounty: r.Bounty,
		ESS:    r.ESS,
		Mining: r.Mining,
		Others: r.Others(),
		Costs:  r.Costs,
		Total:  r.Total,
	}
}

type LedgerScope string

const (
	LedgerScopeCharacter   LedgerScope = "character"
	LedgerScopeCorporation LedgerScope = "corporation"
	LedgerScopeAlliance    LedgerScope = "alliance"
)

type Ledger struct {
	Scope   LedgerScope `json:"scope"`
	Period  string      `json:"period"`
	Rows    []LedgerRow `json:"rows"`
	Total   Total       `json:"total"`
	Balance Balance     `json:"balance"`
}

// Breakdown splits the movement of a set of journals by category and by
// ref type.
type Breakdown struct {
	Balance    Balance            `json:"balance"`
	ByCategory map[string]Balance `json:"by_category"`
	ByRefType  AmountByRefType    `json:"by_ref_type"`
}

func NewBreakdown() *Breakdown {
	return &Breakdown{
		ByCategory: make(map[string]Balance),
		ByRefType:  make(AmountByRefType),
	}
}
