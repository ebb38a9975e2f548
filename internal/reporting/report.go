// Package reporting renders resolved trades and their aggregate
// statistics as CSV and Markdown artifacts.
package reporting

import (
	"context"
	"sort"
	"time"

	"intraday-exit-lab/internal/domain"
	"intraday-exit-lab/internal/metrics"
	"intraday-exit-lab/internal/storage"
)

// Report is the full backtest report for one strategy pipeline.
type Report struct {
	GeneratedAt time.Time
	StrategyID  string

	Summary *metrics.Summary

	// Trades sorted by entry time ASC, trade ID ASC.
	Trades []*domain.TradeRecord
}

// Generator produces reports from stored trades.
type Generator struct {
	tradeStore storage.TradeRecordStore
	now        func() time.Time // injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(tradeStore storage.TradeRecordStore) *Generator {
	return &Generator{
		tradeStore: tradeStore,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate loads all trades of one pipeline and computes its summary.
// Unresolved is the count of signals that produced no trade; the runner
// reports it since the trade store never sees those signals.
func (g *Generator) Generate(ctx context.Context, strategyID string, unresolved int) (*Report, error) {
	trades, err := g.tradeStore.GetByStrategyID(ctx, strategyID)
	if err != nil {
		return nil, err
	}

	sort.Slice(trades, func(i, j int) bool {
		if !trades[i].EntryTime.Equal(trades[j].EntryTime) {
			return trades[i].EntryTime.Before(trades[j].EntryTime)
		}
		return trades[i].TradeID < trades[j].TradeID
	})

	return &Report{
		GeneratedAt: g.now(),
		StrategyID:  strategyID,
		Summary:     metrics.Compute(strategyID, trades, unresolved),
		Trades:      trades,
	}, nil
}
