package model

import (
	"fmt"
	"strings"
	"time"
)

// Record is one parsed row of a Reg SHO short-sale volume file.
// Column order: MarketCenter|Symbol|Date|Time|ShortType|Size|Price|LinkIndicator.
type Record struct {
	MarketCenter  string
	Symbol        string
	TradeDate     time.Time
	Time          string
	ShortType     string
	Size          float64
	Price         float64
	LinkIndicator string
}

// Granularity selects the period a record is grouped into.
type Granularity string

const (
	Daily   Granularity = "daily"
	Monthly Granularity = "monthly"
)

// ParseGranularity accepts daily|monthly (case-insensitive). Empty → daily.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "daily", "day":
		return Daily, nil
	case "monthly", "month":
		return Monthly, nil
	default:
		return "", fmt.Errorf("unsupported granularity %q (use: daily, monthly)", s)
	}
}

// Period returns the period label of t: 2006-01-02 for daily, 2006-01 for monthly.
func (g Granularity) Period(t time.Time) string {
	if g == Monthly {
		return t.Format("2006-01")
	}
	return t.Format("2006-01-02")
}

// PeriodColumn is the output header name of the period column.
func (g Granularity) PeriodColumn() string {
	if g == Monthly {
		return "MonthYear"
	}
	return "Date"
}

// Key identifies one aggregate bucket.
type Key struct {
	MarketCenter string
	Symbol       string
	Period       string
}

// Value accumulates size and size*price for one Key.
type Value struct {
	TotalSize          float64
	TotalWeightedPrice float64
}

// WeightedAvgPrice returns TotalWeightedPrice/TotalSize; ok is false unless
// TotalSize > 0, which also rules out NaN.
func (v Value) WeightedAvgPrice() (avg float64, ok bool) {
	if !(v.TotalSize > 0) {
		return 0, false
	}
	return v.TotalWeightedPrice / v.TotalSize, true
}

// Row is one line of consolidated output.
type Row struct {
	MarketCenter     string  `json:"market_center" parquet:"market_center"`
	Symbol           string  `json:"symbol" parquet:"symbol"`
	Period           string  `json:"period" parquet:"period"`
	TotalSize        float64 `json:"total_size" parquet:"total_size"`
	WeightedAvgPrice float64 `json:"weighted_avg_price" parquet:"weighted_avg_price"`
}

// PartialResult is the output of one archive. Err is set when the archive
// could not be read; Aggregate is then empty.
type PartialResult struct {
	Archive   string
	Aggregate Aggregate
	Entries   int
	Rows      int
	Skipped   int
	Err       error
}
