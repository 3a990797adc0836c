package billboard

import (
	"fmt"

	"github.com/lunemec/eve-ledger/pkg/domain/ledger/aggregate"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/entity"

	"github.com/shopspring/decimal"
)

// timeSeries emits one row per bucket, ascending, with each present
// category rounded to an integer.
func timeSeries(points *aggregate.DataPoints) []aggregate.ChartRow {
	sums := make(map[string]map[string]decimal.Decimal)
	points.Each(func(bucket, category string, point aggregate.DataPoint) {
		if sums[bucket] == nil {
			sums[bucket] = make(map[string]decimal.Decimal)
		}
		sums[bucket][category] = sums[bucket][category].Add(point.Value)
	})

	buckets := points.Buckets()
	out := make([]aggregate.ChartRow, 0, len(buckets))
	for _, bucket := range buckets {
		row := aggregate.ChartRow{"date": bucket}
		for category, sum := range sums[bucket] {
			row[category] = sum.Round(0).IntPart()
		}
		out = append(out, row)
	}
	return out
}

// totals sums the absolute value of each category over all buckets.
func (e *Engine) totals(points *aggregate.DataPoints, categories []string) aggregate.ChartRow {
	sums := make(map[string]decimal.Decimal, len(categories))
	modes := make(map[string]aggregate.Mode, len(categories))
	points.Each(func(bucket, category string, point aggregate.DataPoint) {
		sums[category] = sums[category].Add(point.Value.Abs())
		if _, ok := modes[category]; !ok {
			modes[category] = point.Mode
		}
	})

	out := make(aggregate.ChartRow, len(categories))
	for _, category := range categories {
		label := category
		if e.annotate {
			mode, ok := modes[category]
			if !ok {
				mode = aggregate.ModeIncome
			}
			label = fmt.Sprintf("%s (%s)", category, mode)
		}
		out[label] = sums[category].Round(2).InexactFloat64()
	}
	return out
}

// endpoint is one node of the chord. Nodes are told apart by entity id,
// names are only applied when edges are emitted. A non empty label stands
// for the owner and overrides the id.
type endpoint struct {
	id    entity.EntityID
	label string
}

func (p endpoint) name(names aggregate.Names) string {
	if p.label != "" {
		return p.label
	}
	return string(names.Name(p.id))
}

type flowKey struct {
	from, to endpoint
}

// flowAccumulator sums repeated (from, to) pairs and remembers the order in
// which sources and pairs were first seen.
type flowAccumulator struct {
	values  map[flowKey]decimal.Decimal
	pairs   []flowKey
	sources map[endpoint]int
}

func newFlowAccumulator() *flowAccumulator {
	return &flowAccumulator{
		values:  make(map[flowKey]decimal.Decimal),
		sources: make(map[endpoint]int),
	}
}

func (f *flowAccumulator) add(from, to endpoint, value decimal.Decimal) {
	if _, ok := f.sources[from]; !ok {
		f.sources[from] = len(f.sources)
	}
	key := flowKey{from: from, to: to}
	if _, ok := f.values[key]; !ok {
		f.pairs = append(f.pairs, key)
	}
	f.values[key] = f.values[key].Add(value)
}

// edges collapses sources past the first MaxFlowSources into OthersLabel,
// one edge per destination.
// TODO: rank sources by total flow instead of first appearance.
func (f *flowAccumulator) edges(names aggregate.Names) []aggregate.FlowEdge {
	var (
		out         []aggregate.FlowEdge
		others      = make(map[endpoint]decimal.Decimal)
		othersOrder []endpoint
	)
	for _, key := range f.pairs {
		if f.sources[key.from] < MaxFlowSources {
			out = append(out, aggregate.FlowEdge{
				From:  key.from.name(names),
				To:    key.to.name(names),
				Value: f.values[key].Round(2).InexactFloat64(),
			})
			continue
		}
		if _, ok := others[key.to]; !ok {
			othersOrder = append(othersOrder, key.to)
		}
		others[key.to] = others[key.to].Add(f.values[key])
	}
	for _, to := range othersOrder {
		out = append(out, aggregate.FlowEdge{
			From:  OthersLabel,
			To:    to.name(names),
			Value: others[to].Round(2).InexactFloat64(),
		})
	}
	return out
}
