package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"regsho/internal/database"
	"regsho/internal/model"
)

// ArchiveExt is the suffix of input archives. Matching is case-sensitive.
const ArchiveExt = ".zip"

// ListArchives returns the paths of all *.zip files directly under dir,
// sorted by name. Subdirectories are not searched.
func ListArchives(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list input folder: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ArchiveExt) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out, nil
}

// loadDatabase upserts rows into Postgres and closes the pool.
func loadDatabase(ctx context.Context, url string, g model.Granularity, rows []model.Row, logger *slog.Logger) error {
	pool, err := database.Connect(ctx, url, database.DefaultMaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	_, err = database.NewStore(pool, logger).Upsert(ctx, g, rows)
	return err
}
