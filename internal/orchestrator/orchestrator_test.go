package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intraday-exit-lab/internal/domain"
	"intraday-exit-lab/internal/marketdata"
	"intraday-exit-lab/internal/storage/memory"
)

var sweepEntry = time.Date(2024, 3, 5, 13, 1, 0, 0, time.UTC)

func stopLossConfig(percent float64) *domain.BacktestConfig {
	return &domain.BacktestConfig{
		ExitStrategies: &domain.ExitStrategiesConfig{
			Enabled:  []string{domain.StrategyNameStopLoss},
			StopLoss: &domain.StopLossConfig{PercentFromEntry: percent},
		},
		EndOfDay: &domain.EndOfDayConfig{Time: "15:55"},
	}
}

func seedSweepData(t *testing.T) (*memory.BarStore, *memory.EntrySignalStore, *memory.TradeRecordStore) {
	t.Helper()
	ctx := context.Background()

	bars := memory.NewBarStore()
	// Entry 100; drops through 99.0 then 98.0.
	ohlc := [][4]float64{
		{100.0, 100.3, 99.8, 100.1},
		{100.1, 100.2, 98.9, 99.0},
		{99.0, 99.2, 97.9, 98.0},
	}
	barSlice := make([]*domain.Bar, len(ohlc))
	for i, v := range ohlc {
		barSlice[i] = &domain.Bar{
			Symbol:    "SPY",
			Timeframe: domain.Timeframe1Min,
			Time:      sweepEntry.Add(time.Duration(i+1) * time.Minute),
			Open:      v[0],
			High:      v[1],
			Low:       v[2],
			Close:     v[3],
			Volume:    1000,
		}
	}
	require.NoError(t, bars.InsertBulk(ctx, barSlice))

	signals := memory.NewEntrySignalStore()
	require.NoError(t, signals.Insert(ctx, &domain.EntrySignal{
		SignalID:  "sig-1",
		Symbol:    "SPY",
		Timeframe: domain.Timeframe1Min,
		Time:      sweepEntry,
		Price:     100.0,
		IsLong:    true,
	}))

	return bars, signals, memory.NewTradeRecordStore()
}

func TestNew_RequiresConfigs(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestNew_RejectsBrokenConfig(t *testing.T) {
	_, err := New(Options{
		Configs: []*domain.BacktestConfig{
			stopLossConfig(1.0),
			{}, // no exit strategies
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config 1")
}

func TestOrchestrator_SweepProducesOneSummaryPerConfig(t *testing.T) {
	bars, signals, trades := seedSweepData(t)

	o, err := New(Options{
		Provider:    marketdata.NewProvider(bars),
		SignalStore: signals,
		TradeStore:  trades,
		Configs: []*domain.BacktestConfig{
			stopLossConfig(1.0),
			stopLossConfig(2.0),
		},
		TestMode: true,
	})
	require.NoError(t, err)

	summaries, err := o.Run(context.Background(), sweepEntry.Add(-time.Minute), sweepEntry.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Tight stop exits at -1%, wide stop at -2%.
	assert.Equal(t, "stopLoss_pct1.00+endOfDay_15:55", summaries[0].StrategyID)
	assert.Equal(t, "stopLoss_pct2.00+endOfDay_15:55", summaries[1].StrategyID)
	require.Equal(t, 1, summaries[0].Summary.TotalTrades)
	require.Equal(t, 1, summaries[1].Summary.TotalTrades)
	assert.InDelta(t, -0.01, summaries[0].Summary.ReturnMean, 1e-9)
	assert.InDelta(t, -0.02, summaries[1].Summary.ReturnMean, 1e-9)
	assert.Empty(t, summaries[0].Unresolved)

	// Both runs persisted their trades under distinct strategy IDs.
	first, err := trades.GetByStrategyID(context.Background(), summaries[0].StrategyID)
	require.NoError(t, err)
	second, err := trades.GetByStrategyID(context.Background(), summaries[1].StrategyID)
	require.NoError(t, err)
	assert.Len(t, first, 1)
	assert.Len(t, second, 1)
	assert.NotEqual(t, first[0].TradeID, second[0].TradeID)
}
