package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(mc, sym string, day time.Time, size, price float64) Record {
	return Record{MarketCenter: mc, Symbol: sym, TradeDate: day, Size: size, Price: price}
}

func TestAggregateAddWeightedAverage(t *testing.T) {
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	a := NewAggregate()
	a.Add(rec("NYSE", "AAPL", d, 100, 150), Daily)
	a.Add(rec("NYSE", "AAPL", d, 50, 151), Daily)
	a.Add(rec("NYSE", "AAPL", d, 25, 149), Daily)

	rows := a.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "NYSE", rows[0].MarketCenter)
	assert.Equal(t, "AAPL", rows[0].Symbol)
	assert.Equal(t, "2024-01-02", rows[0].Period)
	assert.InDelta(t, 175, rows[0].TotalSize, 1e-9)
	want := (100*150.0 + 50*151.0 + 25*149.0) / 175
	assert.InDelta(t, want, rows[0].WeightedAvgPrice, 1e-9)
}

func TestAggregateMonthlyGroupsDays(t *testing.T) {
	a := NewAggregate()
	a.Add(rec("Q", "MSFT", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 10, 1), Monthly)
	a.Add(rec("Q", "MSFT", time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC), 30, 2), Monthly)
	a.Add(rec("Q", "MSFT", time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), 5, 3), Monthly)

	rows := a.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-03", rows[0].Period)
	assert.InDelta(t, 40, rows[0].TotalSize, 1e-9)
	assert.InDelta(t, 1.75, rows[0].WeightedAvgPrice, 1e-9)
	assert.Equal(t, "2024-04", rows[1].Period)
}

func TestAggregateRowsDropsZeroSize(t *testing.T) {
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	a := NewAggregate()
	a.Add(rec("NYSE", "ZERO", d, 0, 10), Daily)
	a.Add(rec("NYSE", "ONE", d, 1, 10), Daily)

	rows := a.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "ONE", rows[0].Symbol)
}

func TestAggregateRowsDropsNaNSize(t *testing.T) {
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	a := NewAggregate()
	a.Add(rec("NYSE", "X", d, 100, 10), Daily)
	a.Add(rec("NYSE", "X", d, math.NaN(), 10), Daily)
	a.Add(rec("NYSE", "Y", d, 5, 2), Daily)

	_, ok := a[Key{MarketCenter: "NYSE", Symbol: "X", Period: "2024-01-02"}].WeightedAvgPrice()
	assert.False(t, ok)

	rows := a.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "Y", rows[0].Symbol)
}

func TestAggregateRowsSorted(t *testing.T) {
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	a := NewAggregate()
	a.Add(rec("Q", "B", d, 1, 1), Daily)
	a.Add(rec("N", "Z", d, 1, 1), Daily)
	a.Add(rec("Q", "A", d.AddDate(0, 0, 1), 1, 1), Daily)
	a.Add(rec("Q", "A", d, 1, 1), Daily)

	rows := a.Rows()
	require.Len(t, rows, 4)
	var got []string
	for _, r := range rows {
		got = append(got, r.MarketCenter+"|"+r.Symbol+"|"+r.Period)
	}
	assert.Equal(t, []string{
		"N|Z|2024-01-02",
		"Q|A|2024-01-02",
		"Q|A|2024-01-03",
		"Q|B|2024-01-02",
	}, got)
}

func TestMergeSumsPartials(t *testing.T) {
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	p1 := NewAggregate()
	p1.Add(rec("NYSE", "AAPL", d, 100, 150), Daily)
	p1.Add(rec("NYSE", "AAPL", d, 50, 151), Daily)
	p2 := NewAggregate()
	p2.Add(rec("NYSE", "AAPL", d, 25, 149), Daily)
	p2.Add(rec("NYSE", "IBM", d, 10, 100), Daily)

	got := Merge([]PartialResult{{Aggregate: p1}, {Aggregate: p2}, {Aggregate: NewAggregate()}})
	require.Len(t, got, 2)
	aapl := got[Key{MarketCenter: "NYSE", Symbol: "AAPL", Period: "2024-01-02"}]
	require.NotNil(t, aapl)
	assert.InDelta(t, 175, aapl.TotalSize, 1e-9)
	assert.InDelta(t, 100*150.0+50*151.0+25*149.0, aapl.TotalWeightedPrice, 1e-6)

	// inputs are untouched
	assert.InDelta(t, 25, p2[Key{MarketCenter: "NYSE", Symbol: "AAPL", Period: "2024-01-02"}].TotalSize, 1e-9)
}

func TestParseGranularity(t *testing.T) {
	tests := []struct {
		in      string
		want    Granularity
		wantErr bool
	}{
		{"", Daily, false},
		{"daily", Daily, false},
		{"MONTHLY", Monthly, false},
		{" month ", Monthly, false},
		{"weekly", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGranularity(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "Date", Daily.PeriodColumn())
	assert.Equal(t, "MonthYear", Monthly.PeriodColumn())
}
