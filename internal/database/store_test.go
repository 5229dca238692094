package database

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regsho/internal/model"
)

var rows = []model.Row{
	{MarketCenter: "NYSE", Symbol: "AAPL", Period: "2024-01-02", TotalSize: 175, WeightedAvgPrice: 150.1},
	{MarketCenter: "Q", Symbol: "MSFT", Period: "2024-01-02", TotalSize: 3, WeightedAvgPrice: 2},
}

func TestCopySource(t *testing.T) {
	src := copySource(model.Daily, rows)
	var got [][]any
	for src.Next() {
		v, err := src.Values()
		require.NoError(t, err)
		got = append(got, v)
	}
	require.NoError(t, src.Err())
	require.Len(t, got, 2)
	assert.Equal(t, []any{"NYSE", "AAPL", "daily", "2024-01-02", 175.0, 150.1}, got[0])
	assert.Len(t, got[1], len(columns))
}

func TestConnectBadURL(t *testing.T) {
	_, err := Connect(context.Background(), "://not a url", 1)
	assert.Error(t, err)
}

// TestStoreUpsert runs against a real database when REGSHO_TEST_DATABASE_URL is set.
func TestStoreUpsert(t *testing.T) {
	url := os.Getenv("REGSHO_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("REGSHO_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, url, 1)
	require.NoError(t, err)
	defer pool.Close()

	_, err = pool.Exec(ctx, "DROP TABLE IF EXISTS "+pgx.Identifier{Table}.Sanitize())
	require.NoError(t, err)

	s := NewStore(pool, nil)
	n, err := s.Upsert(ctx, model.Daily, rows)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	updated := []model.Row{{MarketCenter: "NYSE", Symbol: "AAPL", Period: "2024-01-02", TotalSize: 200, WeightedAvgPrice: 151}}
	n, err = s.Upsert(ctx, model.Daily, updated)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	var size float64
	require.NoError(t, pool.QueryRow(ctx,
		"SELECT total_size FROM short_sale_volume WHERE market_center=$1 AND symbol=$2 AND granularity=$3 AND period=$4",
		"NYSE", "AAPL", "daily", "2024-01-02").Scan(&size))
	assert.Equal(t, 200.0, size)

	var count int
	require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM short_sale_volume").Scan(&count))
	assert.Equal(t, 2, count)
}
