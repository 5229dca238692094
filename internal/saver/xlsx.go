package saver

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"regsho/internal/model"
)

// SheetName is the worksheet written by XLSXSaver.
const SheetName = "ShortVolume"

// XLSXSaver writes rows into a single worksheet with a stream writer.
type XLSXSaver struct{}

func (XLSXSaver) Extension() string { return "xlsx" }

func (XLSXSaver) Save(rows []model.Row, g model.Granularity, path string) error {
	if len(rows)+1 > excelize.TotalRows {
		return fmt.Errorf("xlsx: %d rows exceed the sheet limit of %d, use csv or parquet", len(rows), excelize.TotalRows-1)
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("xlsx: rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("xlsx: stream writer: %w", err)
	}

	cols := header(g)
	head := make([]interface{}, len(cols))
	for i, c := range cols {
		head[i] = c
	}
	if err := sw.SetRow("A1", head); err != nil {
		return fmt.Errorf("xlsx: header: %w", err)
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, []interface{}{r.MarketCenter, r.Symbol, r.Period, r.TotalSize, r.WeightedAvgPrice}); err != nil {
			return fmt.Errorf("xlsx: row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("xlsx: flush: %w", err)
	}
	return f.SaveAs(path)
}
