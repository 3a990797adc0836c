// Package billboard buckets journal and mining rows by time and shapes them
// into chart views: a time series, category totals and chord flows.
package billboard

import (
	"strconv"

	"github.com/lunemec/eve-ledger/pkg/domain/ledger/aggregate"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/reftype"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/tax"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Chart categories.
const (
	CategoryBounty        = "bounty"
	CategoryESS           = "ess"
	CategoryMining        = "mining"
	CategoryMiscellaneous = "miscellaneous"
	CategoryCosts         = "costs"
)

// OthersLabel is the synthetic source that absorbs flows past MaxFlowSources.
const OthersLabel = "Others"

// MaxFlowSources is how many distinct flow sources are kept apart.
const MaxFlowSources = 15

var (
	donutCategories = []string{CategoryBounty, CategoryESS, CategoryMining}
	gaugeCategories = []string{CategoryBounty, CategoryESS, CategoryMining, CategoryMiscellaneous}
)

type Option func(*Engine)

// WithCharacterView makes the engine take ESS and daily goal payouts only
// from corporation scoped rows, converted to the member's share. Every other
// corporation scoped row is ignored.
func WithCharacterView(converter *tax.Converter) Option {
	return func(e *Engine) {
		e.converter = converter
		e.characterView = true
	}
}

// WithNames sets the names used for flow endpoints.
func WithNames(names aggregate.Names) Option {
	return func(e *Engine) {
		e.names = names
	}
}

// WithOwnerLabel replaces the per-row owner name in flows, e.g. "Wallet".
func WithOwnerLabel(label string) Option {
	return func(e *Engine) {
		e.owner = label
	}
}

// WithModeAnnotations suffixes category total labels with their mode.
func WithModeAnnotations() Option {
	return func(e *Engine) {
		e.annotate = true
	}
}

// Engine is stateless between builds and safe for concurrent use.
type Engine struct {
	log           *zap.Logger
	taxonomy      *reftype.Taxonomy
	converter     *tax.Converter
	characterView bool
	names         aggregate.Names
	owner         string
	annotate      bool
}

func New(log *zap.Logger, taxonomy *reftype.Taxonomy, opts ...Option) *Engine {
	if taxonomy == nil {
		taxonomy = reftype.Default
	}
	e := &Engine{
		log:      log,
		taxonomy: taxonomy,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Build returns nil when no data point was recorded for the input.
func (e *Engine) Build(rows []aggregate.JournalRecord, mining []aggregate.MiningRecord, prices aggregate.PriceBook, granularity aggregate.Granularity) (*aggregate.Billboard, error) {
	var (
		points = aggregate.NewDataPoints()
		flows  = newFlowAccumulator()
	)
	for _, row := range rows {
		category, amount, ok, err := e.classify(row)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		mode := aggregate.ModeOf(amount)
		if !points.Add(granularity.Label(row.Date), category, amount, mode, nil) {
			continue
		}
		from, to := e.flow(row, mode)
		flows.add(from, to, amount.Abs())
	}
	for _, record := range mining {
		value := prices.Value(record)
		points.Add(granularity.Label(record.Date), CategoryMining, value, aggregate.ModeIncome, map[string]string{
			"type_id":   strconv.Itoa(int(record.TypeID)),
			"system_id": strconv.Itoa(int(record.SystemID)),
		})
	}

	if points.Len() == 0 {
		return nil, nil
	}
	e.log.Debug("billboard built", zap.Int("data_points", points.Len()), zap.String("granularity", granularity.String()))

	return &aggregate.Billboard{
		Granularity: granularity.String(),
		TimeSeries:  timeSeries(points),
		Donut:       e.totals(points, donutCategories),
		Gauge:       e.totals(points, gaugeCategories),
		Flows:       flows.edges(e.names),
	}, nil
}

// classify maps a row onto a chart category and the amount it contributes.
func (e *Engine) classify(row aggregate.JournalRecord) (string, decimal.Decimal, bool, error) {
	category, ok := e.taxonomy.CategoryOf(row.RefType)
	if !ok || row.Amount.IsZero() {
		return "", decimal.Zero, false, nil
	}
	corporate := row.Scope().IsCorporation()

	if e.characterView && (category == reftype.ESS || category == reftype.DailyGoal) {
		if !corporate || !row.Amount.IsPositive() {
			return "", decimal.Zero, false, nil
		}
		if e.converter == nil {
			return "", decimal.Zero, false, &tax.ConfigurationError{Percent: decimal.Zero}
		}
		amount, err := e.converter.Convert(tax.CorporationShare{Amount: row.Amount})
		if err != nil {
			return "", decimal.Zero, false, errors.Wrapf(err, "error converting journal entry: %d", row.ID)
		}
		if category == reftype.ESS {
			return CategoryESS, amount, true, nil
		}
		return CategoryMiscellaneous, amount, true, nil
	}
	if e.characterView && corporate {
		return "", decimal.Zero, false, nil
	}

	positive := row.Amount.IsPositive()
	switch {
	case category == reftype.Bounty && positive:
		return CategoryBounty, row.Amount, true, nil
	case category == reftype.ESS && positive:
		return CategoryESS, row.Amount, true, nil
	case category == reftype.DailyGoal && positive:
		return CategoryMiscellaneous, row.Amount, true, nil
	case !positive && e.taxonomy.Contains(reftype.Costs, row.RefType):
		return CategoryCosts, row.Amount, true, nil
	case positive && e.taxonomy.Contains(reftype.Miscellaneous, row.RefType):
		return CategoryMiscellaneous, row.Amount, true, nil
	}
	return "", decimal.Zero, false, nil
}

// flow returns the endpoints of row: income flows from the first party into
// the owner, costs flow from the owner to the second party.
func (e *Engine) flow(row aggregate.JournalRecord, mode aggregate.Mode) (endpoint, endpoint) {
	owner := endpoint{label: e.owner}
	if owner.label == "" {
		if row.Scope().IsCorporation() {
			owner.id = row.CorporationID.EntityID()
		} else {
			owner.id = row.CharacterID.EntityID()
		}
	}
	if mode == aggregate.ModeCost {
		return owner, endpoint{id: row.SecondPartyID}
	}
	return endpoint{id: row.FirstPartyID}, owner
}
