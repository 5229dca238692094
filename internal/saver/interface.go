package saver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"regsho/internal/model"
)

// RowSaver writes consolidated rows to a file in one format.
type RowSaver interface {
	Save(rows []model.Row, g model.Granularity, path string) error
	Extension() string
}

// Formats lists the supported output formats.
var Formats = []string{"csv", "parquet", "json", "xlsx"}

// NewRowSaver creates implementation by format (csv, parquet, json, xlsx).
// Returns nil if format not supported.
func NewRowSaver(format string) RowSaver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVSaver{}
	case "parquet":
		return ParquetSaver{}
	case "json":
		return JSONSaver{}
	case "xlsx":
		return XLSXSaver{}
	default:
		return nil
	}
}

// FormatFromPath returns the format implied by the file extension, or "csv".
func FormatFromPath(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if NewRowSaver(ext) != nil {
		return ext
	}
	return "csv"
}

// header returns the output column names for g.
func header(g model.Granularity) []string {
	return []string{"MarketCenter", "Symbol", g.PeriodColumn(), "TotalSize", "WeightedAvgPrice"}
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}
