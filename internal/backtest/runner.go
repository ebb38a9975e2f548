// Package backtest orchestrates exit resolution over stored entry
// signals: for each signal it assembles the volatility context, runs the
// strategy pipeline, applies slippage to both fills and persists the
// resulting trade record.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"intraday-exit-lab/internal/domain"
	"intraday-exit-lab/internal/idhash"
	"intraday-exit-lab/internal/marketdata"
	"intraday-exit-lab/internal/observability"
	"intraday-exit-lab/internal/slippage"
	"intraday-exit-lab/internal/storage"
	"intraday-exit-lab/internal/strategy"
	"intraday-exit-lab/internal/volatility"
)

// Runner errors.
var (
	ErrNoBarsForSignal = errors.New("no bars on the signal's trading day")
)

// Runner resolves exits for entry signals against historical bars.
type Runner struct {
	provider    *marketdata.Provider
	signalStore storage.EntrySignalStore
	tradeStore  storage.TradeRecordStore
	cfg         *domain.BacktestConfig
	pipeline    []strategy.ExitStrategy
	strategyID  string
	testMode    bool
	logger      *log.Logger
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Provider    *marketdata.Provider
	SignalStore storage.EntrySignalStore
	TradeStore  storage.TradeRecordStore
	Config      *domain.BacktestConfig

	// TestMode propagates to the strategies: exact-level fills and no
	// session filter.
	TestMode bool

	Logger *log.Logger
}

// NewRunner validates the configuration, builds the strategy pipeline
// once and returns a runner. Configuration errors are fatal here; the
// runner never substitutes defaults.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Config != nil {
		if err := slippage.Validate(opts.Config.Slippage); err != nil {
			return nil, err
		}
	}

	pipeline, err := strategy.FromConfig(opts.Config)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	return &Runner{
		provider:    opts.Provider,
		signalStore: opts.SignalStore,
		tradeStore:  opts.TradeStore,
		cfg:         opts.Config,
		pipeline:    pipeline,
		strategyID:  strategy.PipelineID(pipeline),
		testMode:    opts.TestMode,
		logger:      logger,
	}, nil
}

// StrategyID returns the identifier of the assembled pipeline.
func (r *Runner) StrategyID() string {
	return r.strategyID
}

// Results summarizes one batch run.
type Results struct {
	Trades     []*domain.TradeRecord
	Unresolved []string // signal IDs with no possible exit
}

// Run resolves every entry signal in [start, end] and persists the
// resulting trades. Signals that cannot be resolved (no bars after
// entry) are skipped and reported, not treated as failures.
func (r *Runner) Run(ctx context.Context, start, end time.Time) (*Results, error) {
	signals, err := r.signalStore.GetByTimeRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load entry signals: %w", err)
	}

	runStart := time.Now()
	results := &Results{}
	for _, sig := range signals {
		observability.RecordSignalProcessed()
		sigStart := time.Now()
		trade, err := r.ProcessSignal(ctx, sig)
		observability.DefaultMetrics.SignalResolveLatency.Observe(time.Since(sigStart).Seconds())
		if err != nil {
			if errors.Is(err, ErrNoBarsForSignal) {
				r.logger.Printf("signal %s: no bars, skipping", sig.SignalID)
				results.Unresolved = append(results.Unresolved, sig.SignalID)
				observability.RecordSignalUnresolved()
				continue
			}
			observability.DefaultMetrics.BacktestRunsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("process signal %s: %w", sig.SignalID, err)
		}
		if trade == nil {
			results.Unresolved = append(results.Unresolved, sig.SignalID)
			observability.RecordSignalUnresolved()
			continue
		}
		results.Trades = append(results.Trades, trade)
		observability.RecordTradeResolved(string(trade.ExitReason))
	}

	if r.tradeStore != nil && len(results.Trades) > 0 {
		if err := r.tradeStore.InsertBulk(ctx, results.Trades); err != nil {
			observability.DefaultMetrics.BacktestRunsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("persist trades: %w", err)
		}
	}

	observability.DefaultMetrics.BacktestRunsTotal.WithLabelValues("ok").Inc()
	observability.DefaultMetrics.BacktestDuration.Observe(time.Since(runStart).Seconds())
	observability.DefaultMetrics.LastSuccessfulBacktest.SetToCurrentTime()

	r.logger.Printf("resolved %d trades, %d unresolved signals", len(results.Trades), len(results.Unresolved))
	return results, nil
}

// ProcessSignal resolves a single entry signal into a trade record.
// Returns nil, nil when no strategy triggers and no default exit bar
// exists. The record is not persisted; Run batches persistence.
func (r *Runner) ProcessSignal(ctx context.Context, sig *domain.EntrySignal) (*domain.TradeRecord, error) {
	dayBars, err := r.provider.FetchBars(ctx, sig.Symbol, sig.Timeframe, sig.Time)
	if err != nil {
		return nil, err
	}
	if len(dayBars) == 0 {
		return nil, ErrNoBarsForSignal
	}

	// Prior-day ATR. A missing prior day degrades ATR-relative levels
	// to their percent fallbacks, it does not block the trade.
	priorBars, err := r.provider.FetchPriorTradingDayBars(ctx, sig.Symbol, sig.Timeframe, sig.Time)
	if err != nil {
		return nil, err
	}
	atr := volatility.AverageTrueRange(priorBars)

	in := &strategy.Input{
		EntryPrice:          sig.Price,
		EntryTime:           sig.Time,
		Bars:                dayBars,
		IsLong:              sig.IsLong,
		ATR:                 atr,
		TestMode:            r.testMode,
		ProposedStopPrice:   sig.ProposedStopPrice,
		ProposedTargetPrice: sig.ProposedTargetPrice,
	}

	exit := strategy.Resolve(in, r.pipeline, domain.ExitReasonEndOfDay)
	if exit == nil {
		return nil, nil
	}

	var slip *domain.SlippageConfig
	if r.cfg != nil {
		slip = r.cfg.Slippage
	}
	entryPrice := slippage.Apply(sig.Price, sig.IsLong, slip, true)
	exitPrice := slippage.Apply(exit.Price, sig.IsLong, slip, false)

	returnPct := (exitPrice - entryPrice) / entryPrice
	if !sig.IsLong {
		returnPct = (entryPrice - exitPrice) / entryPrice
	}

	return &domain.TradeRecord{
		TradeID:          idhash.ComputeTradeID(sig.SignalID, sig.Symbol, r.strategyID, sig.Time.UnixMilli()),
		SignalID:         sig.SignalID,
		Symbol:           sig.Symbol,
		StrategyID:       r.strategyID,
		IsLong:           sig.IsLong,
		EntrySignalPrice: sig.Price,
		EntryPrice:       entryPrice,
		EntryTime:        sig.Time,
		ExitSignalPrice:  exit.Price,
		ExitPrice:        exitPrice,
		ExitTime:         exit.Time,
		ExitReason:       exit.Reason,
		ReturnPct:        returnPct,
		HoldDuration:     exit.Time.Sub(sig.Time),
		ATR:              atr,
	}, nil
}
