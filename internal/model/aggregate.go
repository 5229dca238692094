package model

import (
	"cmp"
	"slices"
)

// Aggregate maps a Key to its running Value.
type Aggregate map[Key]*Value

// NewAggregate returns an empty Aggregate.
func NewAggregate() Aggregate {
	return make(Aggregate)
}

// value returns the Value for k, inserting a zero Value first if absent.
func (a Aggregate) value(k Key) *Value {
	v, ok := a[k]
	if !ok {
		v = &Value{}
		a[k] = v
	}
	return v
}

// Add folds one record into the aggregate at granularity g.
func (a Aggregate) Add(r Record, g Granularity) {
	v := a.value(Key{MarketCenter: r.MarketCenter, Symbol: r.Symbol, Period: g.Period(r.TradeDate)})
	v.TotalSize += r.Size
	v.TotalWeightedPrice += r.Size * r.Price
}

// MergeFrom adds every value of other into a. other is not modified.
func (a Aggregate) MergeFrom(other Aggregate) {
	for k, ov := range other {
		v := a.value(k)
		v.TotalSize += ov.TotalSize
		v.TotalWeightedPrice += ov.TotalWeightedPrice
	}
}

// Merge sums the aggregates of all partial results into a new Aggregate.
func Merge(partials []PartialResult) Aggregate {
	out := NewAggregate()
	for _, p := range partials {
		out.MergeFrom(p.Aggregate)
	}
	return out
}

// Rows returns one Row per key with TotalSize > 0, sorted by market center,
// symbol and period.
func (a Aggregate) Rows() []Row {
	rows := make([]Row, 0, len(a))
	for k, v := range a {
		avg, ok := v.WeightedAvgPrice()
		if !ok {
			continue
		}
		rows = append(rows, Row{
			MarketCenter:     k.MarketCenter,
			Symbol:           k.Symbol,
			Period:           k.Period,
			TotalSize:        v.TotalSize,
			WeightedAvgPrice: avg,
		})
	}
	slices.SortFunc(rows, func(x, y Row) int {
		return cmp.Or(
			cmp.Compare(x.MarketCenter, y.MarketCenter),
			cmp.Compare(x.Symbol, y.Symbol),
			cmp.Compare(x.Period, y.Period),
		)
	})
	return rows
}
