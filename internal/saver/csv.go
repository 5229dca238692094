package saver

import (
	"encoding/csv"
	"os"
	"strconv"

	"regsho/internal/model"
)

// CSVSaver writes rows as CSV (header: MarketCenter,Symbol,Date,TotalSize,WeightedAvgPrice).
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

func (CSVSaver) Save(rows []model.Row, g model.Granularity, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)

	if err := w.Write(header(g)); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write([]string{
			r.MarketCenter,
			r.Symbol,
			r.Period,
			floatStr(r.TotalSize),
			floatStr(r.WeightedAvgPrice),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
