package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"
)

type Mode string

const (
	ModeIncome Mode = "income"
	ModeCost   Mode = "cost"
)

func ModeOf(amount decimal.Decimal) Mode {
	if amount.IsNegative() {
		return ModeCost
	}
	return ModeIncome
}

type DataPoint struct {
	Value decimal.Decimal
	Mode  Mode
	Aux   map[string]string
}

type dataPointKey struct {
	bucket   string
	category string
}

// DataPoints is the sparse (bucket, category) store of a billboard.
// Zero values are never stored.
type DataPoints struct {
	points map[dataPointKey][]DataPoint
	order  []dataPointKey
}

func NewDataPoints() *DataPoints {
	return &DataPoints{points: make(map[dataPointKey][]DataPoint)}
}

// Add records value under (bucket, category). It reports whether anything was stored.
func (d *DataPoints) Add(bucket, category string, value decimal.Decimal, mode Mode, aux map[string]string) bool {
	if value.IsZero() {
		return false
	}
	key := dataPointKey{bucket: bucket, category: category}
	if _, ok := d.points[key]; !ok {
		d.order = append(d.order, key)
	}
	d.points[key] = append(d.points[key], DataPoint{Value: value, Mode: mode, Aux: aux})
	return true
}

func (d *DataPoints) Get(bucket, category string) []DataPoint {
	return d.points[dataPointKey{bucket: bucket, category: category}]
}

func (d *DataPoints) Len() int {
	n := 0
	for _, points := range d.points {
		n += len(points)
	}
	return n
}

// Buckets returns the distinct bucket labels in ascending order.
func (d *DataPoints) Buckets() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, key := range d.order {
		if _, ok := seen[key.bucket]; ok {
			continue
		}
		seen[key.bucket] = struct{}{}
		out = append(out, key.bucket)
	}
	sort.Strings(out)
	return out
}

// Each visits every stored point in insertion order of its key.
func (d *DataPoints) Each(fn func(bucket, category string, point DataPoint)) {
	for _, key := range d.order {
		for _, point := range d.points[key] {
			fn(key.bucket, key.category, point)
		}
	}
}

// ChartRow is a flat, JSON ready chart record.
type ChartRow map[string]interface{}

type FlowEdge struct {
	From  string  `json:"from"`
	To    string  `json:"to"`
	Value float64 `json:"value"`
}

type Billboard struct {
	Granularity string     `json:"granularity"`
	TimeSeries  []ChartRow `json:"time_series"`
	Donut       ChartRow   `json:"donut"`
	Gauge       ChartRow   `json:"gauge"`
	Flows       []FlowEdge `json:"flows"`
}
