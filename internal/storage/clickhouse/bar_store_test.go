package clickhouse_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intraday-exit-lab/internal/domain"
	"intraday-exit-lab/internal/storage"
	chstore "intraday-exit-lab/internal/storage/clickhouse"
)

func TestBarStore_Integration(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := chstore.NewBarStore(conn)
	ctx := context.Background()
	base := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)

	bar := func(symbol string, ts time.Time, close float64) *domain.Bar {
		return &domain.Bar{
			Symbol:    symbol,
			Timeframe: domain.Timeframe1Min,
			Time:      ts,
			Open:      close - 0.1,
			High:      close + 0.2,
			Low:       close - 0.2,
			Close:     close,
			Volume:    1500,
		}
	}

	t.Run("insert bulk and range query", func(t *testing.T) {
		bars := []*domain.Bar{
			bar("SPY", base.Add(time.Minute), 100.2),
			bar("SPY", base, 100.0),
			bar("QQQ", base, 400.0),
		}
		require.NoError(t, store.InsertBulk(ctx, bars))

		got, err := store.GetByTimeRange(ctx, "SPY", domain.Timeframe1Min, base, base.Add(time.Hour))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.True(t, got[0].Time.Equal(base), "expected timestamp ASC order")
		assert.Equal(t, 100.0, got[0].Close)
		assert.Equal(t, 100.2, got[1].Close)
	})

	t.Run("duplicate detection", func(t *testing.T) {
		err := store.InsertBulk(ctx, []*domain.Bar{bar("SPY", base, 100.0)})
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	})

	t.Run("intra-batch duplicate", func(t *testing.T) {
		bars := []*domain.Bar{
			bar("IWM", base, 200.0),
			bar("IWM", base, 200.1),
		}
		err := store.InsertBulk(ctx, bars)
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	})

	t.Run("get day", func(t *testing.T) {
		prevDay := base.Add(-18 * time.Hour)
		require.NoError(t, store.InsertBulk(ctx, []*domain.Bar{bar("SPY", prevDay, 99.5)}))

		got, err := store.GetDay(ctx, "SPY", domain.Timeframe1Min, base.Add(3*time.Hour))
		require.NoError(t, err)
		assert.Len(t, got, 2, "only the bars on the query date")
	})
}
