package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/internal/testsupport"
	"marketpulse/pkg/errors"
)

func TestTableName(t *testing.T) {
	assert.Equal(t, "tsla_processed", tableName("TSLA"))
	assert.Equal(t, "brk_b_processed", tableName("BRK.B"))
	assert.Equal(t, "aapl_processed", tableName("aapl"))
}

func TestAssetStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cfgs := testsupport.LoadDatabaseConfigsFromEnv(t)
	client := testsupport.NewClickHouseClient(t, cfgs.ClickHouse)
	store := NewAssetStore(client.Conn())
	ctx := context.Background()

	record := testsupport.NewRecordFixture().
		WithTicker("ITTEST").
		WithCloses(100, 110, 99).
		WithSentiment(0.5, 0.5, -0.2).
		Build()

	t.Cleanup(func() {
		_ = client.Exec(context.Background(), "DROP TABLE IF EXISTS ittest_processed")
	})

	require.NoError(t, store.Replace(ctx, record))

	t.Run("load round trip", func(t *testing.T) {
		loaded, err := store.Load(ctx, "ITTEST")
		require.NoError(t, err)
		require.Len(t, loaded.Rows, 3)
		assert.Equal(t, record.Rows[0].Close, loaded.Rows[0].Close)
		assert.InDelta(t, -0.2, loaded.Rows[2].DailySentiment, 1e-9)
	})

	t.Run("list includes ticker", func(t *testing.T) {
		tickers, err := store.ListAvailable(ctx)
		require.NoError(t, err)
		assert.Contains(t, tickers, "ITTEST")
	})

	t.Run("replace is idempotent", func(t *testing.T) {
		require.NoError(t, store.Replace(ctx, record))
		loaded, err := store.Load(ctx, "ITTEST")
		require.NoError(t, err)
		assert.Len(t, loaded.Rows, 3)
	})

	t.Run("unknown ticker", func(t *testing.T) {
		_, err := store.Load(ctx, "DOESNOTEXIST")
		assert.ErrorIs(t, err, errors.ErrTickerNotFound)
	})
}
