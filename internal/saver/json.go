package saver

import (
	"encoding/json"
	"os"

	"regsho/internal/model"
)

// JSONSaver writes rows as an indented JSON array.
type JSONSaver struct{}

func (JSONSaver) Extension() string { return "json" }

func (JSONSaver) Save(rows []model.Row, _ model.Granularity, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if rows == nil {
		rows = []model.Row{}
	}
	if err := enc.Encode(rows); err != nil {
		return err
	}
	return f.Close()
}
