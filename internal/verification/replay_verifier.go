package verification

import (
	"context"
	"errors"
	"fmt"

	"intraday-exit-lab/internal/backtest"
	"intraday-exit-lab/internal/storage"
)

var (
	// ErrTradeNotFound is returned when the trade ID doesn't exist.
	ErrTradeNotFound = errors.New("trade not found")

	// ErrSignalNotFound is returned when the trade's entry signal is gone.
	ErrSignalNotFound = errors.New("entry signal not found")

	// ErrStrategyMismatch is returned when the runner's pipeline does not
	// match the strategy the trade was recorded under.
	ErrStrategyMismatch = errors.New("runner strategy does not match stored trade")
)

// ReplayVerifier re-resolves stored trades through a backtest runner
// configured identically to the one that produced them.
type ReplayVerifier struct {
	tradeStore  storage.TradeRecordStore
	signalStore storage.EntrySignalStore
	runner      *backtest.Runner
}

// NewReplayVerifier creates a verifier. The runner must be built from
// the same configuration the stored trades were produced with; trades
// recorded under a different strategy ID are rejected per trade.
func NewReplayVerifier(tradeStore storage.TradeRecordStore, signalStore storage.EntrySignalStore, runner *backtest.Runner) *ReplayVerifier {
	return &ReplayVerifier{
		tradeStore:  tradeStore,
		signalStore: signalStore,
		runner:      runner,
	}
}

// VerifyTrade re-resolves a single trade by ID and compares every field.
func (v *ReplayVerifier) VerifyTrade(ctx context.Context, tradeID string) (*VerificationResult, error) {
	stored, err := v.tradeStore.GetByID(ctx, tradeID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrTradeNotFound
		}
		return nil, err
	}

	if stored.StrategyID != v.runner.StrategyID() {
		return nil, fmt.Errorf("%w: stored %s, runner %s",
			ErrStrategyMismatch, stored.StrategyID, v.runner.StrategyID())
	}

	sig, err := v.signalStore.GetByID(ctx, stored.SignalID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSignalNotFound
		}
		return nil, err
	}

	replayed, err := v.runner.ProcessSignal(ctx, sig)
	if err != nil {
		return nil, fmt.Errorf("replay signal %s: %w", sig.SignalID, err)
	}
	if replayed == nil {
		return &VerificationResult{
			TradeID:      tradeID,
			Match:        false,
			StoredReturn: stored.ReturnPct,
			Divergences: []FieldDivergence{
				{Field: "Resolved", Expected: true, Actual: false},
			},
		}, nil
	}

	divergences := CompareTradeRecords(stored, replayed)

	return &VerificationResult{
		TradeID:        tradeID,
		Match:          len(divergences) == 0,
		Divergences:    divergences,
		StoredReturn:   stored.ReturnPct,
		ReplayedReturn: replayed.ReturnPct,
	}, nil
}

// VerifyStrategy re-resolves every stored trade of the runner's strategy.
func (v *ReplayVerifier) VerifyStrategy(ctx context.Context) (*VerificationReport, error) {
	trades, err := v.tradeStore.GetByStrategyID(ctx, v.runner.StrategyID())
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{
		TotalTrades: len(trades),
		Results:     make([]VerificationResult, 0, len(trades)),
	}

	for _, trade := range trades {
		result, err := v.VerifyTrade(ctx, trade.TradeID)
		if err != nil {
			report.Results = append(report.Results, VerificationResult{
				TradeID:      trade.TradeID,
				Match:        false,
				StoredReturn: trade.ReturnPct,
				Divergences: []FieldDivergence{
					{Field: "Error", Expected: nil, Actual: err.Error()},
				},
			})
			report.DivergentTrades++
			continue
		}

		report.Results = append(report.Results, *result)
		if result.Match {
			report.MatchedTrades++
		} else {
			report.DivergentTrades++
		}
	}

	return report, nil
}
