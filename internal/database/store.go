package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"regsho/internal/model"
)

// Table is the destination table.
const Table = "short_sale_volume"

const stageTable = "short_sale_volume_stage"

var columns = []string{"market_center", "symbol", "granularity", "period", "total_size", "weighted_avg_price"}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS short_sale_volume (
	market_center      text             NOT NULL,
	symbol             text             NOT NULL,
	granularity        text             NOT NULL,
	period             text             NOT NULL,
	total_size         double precision NOT NULL,
	weighted_avg_price double precision NOT NULL,
	updated_at         timestamptz      NOT NULL DEFAULT now(),
	PRIMARY KEY (market_center, symbol, granularity, period)
)`

const createStageSQL = `
CREATE TEMP TABLE short_sale_volume_stage (
	market_center      text,
	symbol             text,
	granularity        text,
	period             text,
	total_size         double precision,
	weighted_avg_price double precision
) ON COMMIT DROP`

const upsertSQL = `
INSERT INTO short_sale_volume (market_center, symbol, granularity, period, total_size, weighted_avg_price)
SELECT market_center, symbol, granularity, period, total_size, weighted_avg_price
FROM short_sale_volume_stage
ON CONFLICT (market_center, symbol, granularity, period) DO UPDATE
SET total_size = EXCLUDED.total_size,
    weighted_avg_price = EXCLUDED.weighted_avg_price,
    updated_at = now()`

// TxBeginner is satisfied by *pgxpool.Pool and *pgx.Conn.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store writes rows to PostgreSQL.
type Store struct {
	db     TxBeginner
	logger *slog.Logger
}

// NewStore creates a Store on db.
func NewStore(db TxBeginner, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// Upsert loads rows for granularity g in one transaction and returns the
// number of rows inserted or updated.
func (s *Store) Upsert(ctx context.Context, g model.Granularity, rows []model.Row) (int64, error) {
	start := time.Now()
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, createTableSQL); err != nil {
		return 0, fmt.Errorf("create table: %w", err)
	}
	if _, err := tx.Exec(ctx, createStageSQL); err != nil {
		return 0, fmt.Errorf("create stage table: %w", err)
	}
	copied, err := tx.CopyFrom(ctx, pgx.Identifier{stageTable}, columns, copySource(g, rows))
	if err != nil {
		return 0, fmt.Errorf("copy rows: %w", err)
	}
	ct, err := tx.Exec(ctx, upsertSQL)
	if err != nil {
		return 0, fmt.Errorf("upsert: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	s.logger.Info("rows loaded",
		"table", Table,
		"copied", copied,
		"upserted", ct.RowsAffected(),
		"duration", time.Since(start),
	)
	return ct.RowsAffected(), nil
}

// copySource adapts rows to pgx.CopyFromSource in column order.
func copySource(g model.Granularity, rows []model.Row) pgx.CopyFromSource {
	return pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		r := rows[i]
		return []any{r.MarketCenter, r.Symbol, string(g), r.Period, r.TotalSize, r.WeightedAvgPrice}, nil
	})
}
