// Package orchestrator runs several backtest configurations over the
// same signal range and collects one summary per strategy pipeline.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"intraday-exit-lab/internal/backtest"
	"intraday-exit-lab/internal/domain"
	"intraday-exit-lab/internal/marketdata"
	"intraday-exit-lab/internal/metrics"
	"intraday-exit-lab/internal/storage"
)

// Orchestrator coordinates a sweep of backtest runs.
type Orchestrator struct {
	runners []*backtest.Runner
	logger  *log.Logger
}

// Options for creating an Orchestrator.
type Options struct {
	Provider    *marketdata.Provider
	SignalStore storage.EntrySignalStore
	TradeStore  storage.TradeRecordStore

	// Configs are the pipelines to sweep. Each produces its own
	// strategy ID, so trade records from different runs never collide.
	Configs []*domain.BacktestConfig

	TestMode bool
	Logger   *log.Logger
}

// New validates every configuration up front. A sweep with a broken
// config fails before any run starts.
func New(opts Options) (*Orchestrator, error) {
	if len(opts.Configs) == 0 {
		return nil, fmt.Errorf("at least one backtest config is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	runners := make([]*backtest.Runner, 0, len(opts.Configs))
	for i, cfg := range opts.Configs {
		runner, err := backtest.NewRunner(backtest.RunnerOptions{
			Provider:    opts.Provider,
			SignalStore: opts.SignalStore,
			TradeStore:  opts.TradeStore,
			Config:      cfg,
			TestMode:    opts.TestMode,
			Logger:      logger,
		})
		if err != nil {
			return nil, fmt.Errorf("config %d: %w", i, err)
		}
		runners = append(runners, runner)
	}

	return &Orchestrator{runners: runners, logger: logger}, nil
}

// RunSummary is the outcome of one pipeline in the sweep.
type RunSummary struct {
	StrategyID string
	Summary    *metrics.Summary
	Unresolved []string
}

// Run executes every configured pipeline over [start, end]. Runs are
// sequential; a failing run aborts the sweep.
func (o *Orchestrator) Run(ctx context.Context, start, end time.Time) ([]*RunSummary, error) {
	summaries := make([]*RunSummary, 0, len(o.runners))

	for _, runner := range o.runners {
		o.logger.Printf("Sweep: running %s", runner.StrategyID())

		results, err := runner.Run(ctx, start, end)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", runner.StrategyID(), err)
		}

		summaries = append(summaries, &RunSummary{
			StrategyID: runner.StrategyID(),
			Summary:    metrics.Compute(runner.StrategyID(), results.Trades, len(results.Unresolved)),
			Unresolved: results.Unresolved,
		})
	}

	return summaries, nil
}
