package verification

import (
	"context"
	"testing"
	"time"

	"intraday-exit-lab/internal/backtest"
	"intraday-exit-lab/internal/domain"
	"intraday-exit-lab/internal/marketdata"
	"intraday-exit-lab/internal/storage/memory"
)

func ptrFloat64(v float64) *float64 { return &v }

func sampleTrade() *domain.TradeRecord {
	return &domain.TradeRecord{
		TradeID:          "trade1",
		SignalID:         "sig-1",
		Symbol:           "SPY",
		StrategyID:       "stopLoss_pct1.00+endOfDay_15:55",
		IsLong:           true,
		EntrySignalPrice: 100.0,
		EntryPrice:       100.0,
		EntryTime:        time.Date(2024, 3, 5, 13, 1, 0, 0, time.UTC),
		ExitSignalPrice:  99.0,
		ExitPrice:        99.0,
		ExitTime:         time.Date(2024, 3, 5, 13, 3, 0, 0, time.UTC),
		ExitReason:       domain.ExitReasonStopLoss,
		ReturnPct:        -0.01,
		HoldDuration:     2 * time.Minute,
		ATR:              ptrFloat64(2.0),
	}
}

func TestCompareTradeRecords_ExactMatch(t *testing.T) {
	stored := sampleTrade()
	replayed := sampleTrade()

	if divergences := CompareTradeRecords(stored, replayed); len(divergences) != 0 {
		t.Errorf("expected no divergences, got %v", divergences)
	}
}

func TestCompareTradeRecords_WithinTolerance(t *testing.T) {
	stored := sampleTrade()
	replayed := sampleTrade()
	replayed.ReturnPct = stored.ReturnPct + 1e-9

	if divergences := CompareTradeRecords(stored, replayed); len(divergences) != 0 {
		t.Errorf("expected sub-tolerance difference to match, got %v", divergences)
	}
}

func TestCompareTradeRecords_Divergences(t *testing.T) {
	stored := sampleTrade()
	replayed := sampleTrade()
	replayed.ExitPrice = 98.5
	replayed.ExitReason = domain.ExitReasonEndOfDay
	replayed.ATR = nil

	divergences := CompareTradeRecords(stored, replayed)

	fields := make(map[string]bool, len(divergences))
	for _, d := range divergences {
		fields[d.Field] = true
	}
	for _, want := range []string{"ExitPrice", "ExitReason", "ATR"} {
		if !fields[want] {
			t.Errorf("missing divergence for %s, got %v", want, divergences)
		}
	}
	if len(divergences) != 3 {
		t.Errorf("got %d divergences, want 3: %v", len(divergences), divergences)
	}
}

type fixture struct {
	verifier *ReplayVerifier
	runner   *backtest.Runner
	signals  *memory.EntrySignalStore
	trades   *memory.TradeRecordStore
	tradeID  string
}

// verifierFixture builds a runner over memory stores, resolves one
// signal and persists the trade.
func verifierFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	entry := time.Date(2024, 3, 5, 13, 1, 0, 0, time.UTC)

	bars := memory.NewBarStore()
	barSlice := []*domain.Bar{
		{Symbol: "SPY", Timeframe: domain.Timeframe1Min, Time: entry.Add(time.Minute),
			Open: 100.0, High: 100.3, Low: 99.8, Close: 100.1, Volume: 1000},
		{Symbol: "SPY", Timeframe: domain.Timeframe1Min, Time: entry.Add(2 * time.Minute),
			Open: 100.1, High: 100.2, Low: 98.9, Close: 99.0, Volume: 1000},
	}
	if err := bars.InsertBulk(ctx, barSlice); err != nil {
		t.Fatalf("seed bars: %v", err)
	}

	signals := memory.NewEntrySignalStore()
	sig := &domain.EntrySignal{
		SignalID:  "sig-1",
		Symbol:    "SPY",
		Timeframe: domain.Timeframe1Min,
		Time:      entry,
		Price:     100.0,
		IsLong:    true,
	}
	if err := signals.Insert(ctx, sig); err != nil {
		t.Fatalf("seed signal: %v", err)
	}

	trades := memory.NewTradeRecordStore()
	runner, err := backtest.NewRunner(backtest.RunnerOptions{
		Provider:    marketdata.NewProvider(bars),
		SignalStore: signals,
		TradeStore:  trades,
		Config: &domain.BacktestConfig{
			ExitStrategies: &domain.ExitStrategiesConfig{
				Enabled:  []string{domain.StrategyNameStopLoss},
				StopLoss: &domain.StopLossConfig{PercentFromEntry: 1.0},
			},
			EndOfDay: &domain.EndOfDayConfig{Time: "15:55"},
		},
		TestMode: true,
	})
	if err != nil {
		t.Fatalf("build runner: %v", err)
	}

	trade, err := runner.ProcessSignal(ctx, sig)
	if err != nil {
		t.Fatalf("resolve trade: %v", err)
	}
	if err := trades.Insert(ctx, trade); err != nil {
		t.Fatalf("store trade: %v", err)
	}

	return &fixture{
		verifier: NewReplayVerifier(trades, signals, runner),
		runner:   runner,
		signals:  signals,
		trades:   trades,
		tradeID:  trade.TradeID,
	}
}

func TestReplayVerifier_VerifyTrade_Matches(t *testing.T) {
	f := verifierFixture(t)

	result, err := f.verifier.VerifyTrade(context.Background(), f.tradeID)
	if err != nil {
		t.Fatalf("VerifyTrade: %v", err)
	}
	if !result.Match {
		t.Errorf("expected match, divergences: %v", result.Divergences)
	}
	if result.StoredReturn != result.ReplayedReturn {
		t.Errorf("returns differ: stored %v replayed %v", result.StoredReturn, result.ReplayedReturn)
	}
}

func TestReplayVerifier_DetectsTamperedRecord(t *testing.T) {
	f := verifierFixture(t)
	ctx := context.Background()

	// Stores are append-only, so the doctored record goes into a fresh
	// store behind a new verifier.
	stored, err := f.trades.GetByID(ctx, f.tradeID)
	if err != nil {
		t.Fatalf("load trade: %v", err)
	}
	tampered := *stored
	tampered.ReturnPct = 0.05

	trades := memory.NewTradeRecordStore()
	if err := trades.Insert(ctx, &tampered); err != nil {
		t.Fatalf("store tampered trade: %v", err)
	}
	verifier := NewReplayVerifier(trades, f.signals, f.runner)

	result, err := verifier.VerifyTrade(ctx, f.tradeID)
	if err != nil {
		t.Fatalf("VerifyTrade: %v", err)
	}
	if result.Match {
		t.Error("expected divergence for tampered record")
	}
	if len(result.Divergences) != 1 || result.Divergences[0].Field != "ReturnPct" {
		t.Errorf("divergences = %v, want single ReturnPct", result.Divergences)
	}
}

func TestReplayVerifier_VerifyStrategy(t *testing.T) {
	f := verifierFixture(t)

	report, err := f.verifier.VerifyStrategy(context.Background())
	if err != nil {
		t.Fatalf("VerifyStrategy: %v", err)
	}
	if report.TotalTrades != 1 || report.MatchedTrades != 1 || report.DivergentTrades != 0 {
		t.Errorf("report = %+v, want 1 total, 1 matched", report)
	}
}

func TestReplayVerifier_UnknownTrade(t *testing.T) {
	f := verifierFixture(t)

	if _, err := f.verifier.VerifyTrade(context.Background(), "missing"); err != ErrTradeNotFound {
		t.Errorf("err = %v, want ErrTradeNotFound", err)
	}
}
