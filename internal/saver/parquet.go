package saver

import (
	"github.com/parquet-go/parquet-go"

	"regsho/internal/model"
)

// ParquetSaver writes rows as a Parquet file.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(rows []model.Row, _ model.Granularity, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	return parquet.WriteFile(path, rows)
}
