package metrics

import (
	"math"
	"testing"
	"time"

	"intraday-exit-lab/internal/domain"
)

func tradeAt(id string, minute int, ret float64, reason domain.ExitReason) *domain.TradeRecord {
	entry := time.Date(2024, 3, 5, 13, 0, 0, 0, time.UTC).Add(time.Duration(minute) * time.Minute)
	return &domain.TradeRecord{
		TradeID:      id,
		StrategyID:   "p1",
		EntryTime:    entry,
		ExitTime:     entry.Add(10 * time.Minute),
		ExitReason:   reason,
		ReturnPct:    ret,
		HoldDuration: 10 * time.Minute,
	}
}

func TestCompute_Empty(t *testing.T) {
	s := Compute("p1", nil, 3)

	if s.TotalTrades != 0 {
		t.Errorf("expected 0 trades, got %d", s.TotalTrades)
	}
	if s.Unresolved != 3 {
		t.Errorf("expected 3 unresolved, got %d", s.Unresolved)
	}
	if s.WinRate != 0 {
		t.Errorf("expected 0 win rate, got %f", s.WinRate)
	}
}

func TestCompute_CountsAndWinRate(t *testing.T) {
	trades := []*domain.TradeRecord{
		tradeAt("t1", 0, 0.02, domain.ExitReasonProfitTarget),
		tradeAt("t2", 1, -0.01, domain.ExitReasonStopLoss),
		tradeAt("t3", 2, 0.01, domain.ExitReasonTrailingStop),
		tradeAt("t4", 3, -0.005, domain.ExitReasonEndOfDay),
	}

	s := Compute("p1", trades, 1)

	if s.TotalTrades != 4 || s.Wins != 2 || s.Losses != 2 {
		t.Errorf("unexpected counts: %d/%d/%d", s.TotalTrades, s.Wins, s.Losses)
	}
	if s.WinRate != 0.5 {
		t.Errorf("expected win rate 0.5, got %f", s.WinRate)
	}
	if s.ExitReasonCounts[domain.ExitReasonStopLoss] != 1 {
		t.Errorf("expected 1 stopLoss exit, got %d", s.ExitReasonCounts[domain.ExitReasonStopLoss])
	}
	if s.Unresolved != 1 {
		t.Errorf("expected 1 unresolved, got %d", s.Unresolved)
	}
	if s.AvgHoldMinutes != 10 {
		t.Errorf("expected 10 minute average hold, got %f", s.AvgHoldMinutes)
	}
}

func TestCompute_Distribution(t *testing.T) {
	trades := []*domain.TradeRecord{
		tradeAt("t1", 0, 0.01, domain.ExitReasonProfitTarget),
		tradeAt("t2", 1, 0.03, domain.ExitReasonProfitTarget),
		tradeAt("t3", 2, -0.01, domain.ExitReasonStopLoss),
	}

	s := Compute("p1", trades, 0)

	if math.Abs(s.ReturnMean-0.01) > 1e-12 {
		t.Errorf("expected mean 0.01, got %f", s.ReturnMean)
	}
	if s.ReturnMedian != 0.01 {
		t.Errorf("expected median 0.01, got %f", s.ReturnMedian)
	}
	if s.ReturnMin != -0.01 || s.ReturnMax != 0.03 {
		t.Errorf("unexpected min/max: %f/%f", s.ReturnMin, s.ReturnMax)
	}
	// Sample stddev of {0.01, 0.03, -0.01} around mean 0.01 is 0.02
	if math.Abs(s.ReturnStddev-0.02) > 1e-12 {
		t.Errorf("expected stddev 0.02, got %f", s.ReturnStddev)
	}
}

func TestCompute_OrderDependentMetricsUseEntryTime(t *testing.T) {
	// Passed out of order on purpose; Compute must sort by entry time.
	trades := []*domain.TradeRecord{
		tradeAt("t3", 2, -0.02, domain.ExitReasonStopLoss),
		tradeAt("t1", 0, 0.05, domain.ExitReasonProfitTarget),
		tradeAt("t2", 1, -0.01, domain.ExitReasonStopLoss),
		tradeAt("t4", 3, 0.01, domain.ExitReasonProfitTarget),
	}

	s := Compute("p1", trades, 0)

	// Chronological returns: +0.05, -0.01, -0.02, +0.01
	// Peak after t1 is 0.05; trough after t3 is 0.02 → drawdown 0.03
	if math.Abs(s.MaxDrawdown-0.03) > 1e-12 {
		t.Errorf("expected max drawdown 0.03, got %f", s.MaxDrawdown)
	}
	if s.MaxConsecutiveLosses != 2 {
		t.Errorf("expected 2 consecutive losses, got %d", s.MaxConsecutiveLosses)
	}
}

func TestComputePercentile_Interpolates(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}

	if got := computePercentile(sorted, 0.5); got != 2.5 {
		t.Errorf("expected 2.5, got %f", got)
	}
	if got := computePercentile(sorted, 0); got != 1 {
		t.Errorf("expected 1, got %f", got)
	}
	if got := computePercentile(sorted, 1); got != 4 {
		t.Errorf("expected 4, got %f", got)
	}
}
