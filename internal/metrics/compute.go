// Package metrics aggregates resolved trades into per-pipeline summary
// statistics for reporting.
package metrics

import (
	"math"
	"sort"

	"intraday-exit-lab/internal/domain"
)

// Summary holds aggregate statistics for one strategy pipeline.
type Summary struct {
	StrategyID string

	// Counts
	TotalTrades int
	Wins        int
	Losses      int
	WinRate     float64
	Unresolved  int

	// Per-reason trade counts
	ExitReasonCounts map[domain.ExitReason]int

	// Return distribution (fractional returns, slippage included)
	ReturnMean   float64
	ReturnMedian float64
	ReturnP10    float64
	ReturnP25    float64
	ReturnP75    float64
	ReturnP90    float64
	ReturnMin    float64
	ReturnMax    float64
	ReturnStddev float64

	// Order-dependent risk measures
	MaxDrawdown          float64
	MaxConsecutiveLosses int

	// AvgHoldMinutes is the mean hold duration in minutes.
	AvgHoldMinutes float64
}

// Compute calculates all metrics for one pipeline's trades. Trades are
// sorted by EntryTime ASC, TradeID ASC before computing order-dependent
// metrics (MaxDrawdown, MaxConsecutiveLosses). Unresolved is the count
// of signals that produced no trade.
func Compute(strategyID string, trades []*domain.TradeRecord, unresolved int) *Summary {
	n := len(trades)
	if n == 0 {
		return &Summary{
			StrategyID:       strategyID,
			Unresolved:       unresolved,
			ExitReasonCounts: map[domain.ExitReason]int{},
		}
	}

	// Sort deterministically by EntryTime ASC, TradeID ASC
	sorted := make([]*domain.TradeRecord, n)
	copy(sorted, trades)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].EntryTime.Equal(sorted[j].EntryTime) {
			return sorted[i].EntryTime.Before(sorted[j].EntryTime)
		}
		return sorted[i].TradeID < sorted[j].TradeID
	})

	wins := 0
	reasons := make(map[domain.ExitReason]int)
	returns := make([]float64, n)
	holdMinutes := 0.0
	for i, t := range sorted {
		if t.ReturnPct > 0 {
			wins++
		}
		reasons[t.ExitReason]++
		returns[i] = t.ReturnPct
		holdMinutes += t.HoldDuration.Minutes()
	}

	sortedReturns := make([]float64, n)
	copy(sortedReturns, returns)
	sort.Float64s(sortedReturns)

	mean := computeMean(returns)

	return &Summary{
		StrategyID: strategyID,

		TotalTrades: n,
		Wins:        wins,
		Losses:      n - wins,
		WinRate:     float64(wins) / float64(n),
		Unresolved:  unresolved,

		ExitReasonCounts: reasons,

		ReturnMean:   mean,
		ReturnMedian: computePercentile(sortedReturns, 0.50),
		ReturnP10:    computePercentile(sortedReturns, 0.10),
		ReturnP25:    computePercentile(sortedReturns, 0.25),
		ReturnP75:    computePercentile(sortedReturns, 0.75),
		ReturnP90:    computePercentile(sortedReturns, 0.90),
		ReturnMin:    sortedReturns[0],
		ReturnMax:    sortedReturns[n-1],
		ReturnStddev: computeStddev(returns, mean),

		MaxDrawdown:          computeMaxDrawdown(returns),
		MaxConsecutiveLosses: computeMaxConsecutiveLosses(returns),

		AvgHoldMinutes: holdMinutes / float64(n),
	}
}

// computeMean calculates arithmetic mean of returns.
func computeMean(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range returns {
		sum += r
	}
	return sum / float64(len(returns))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(returns []float64, mean float64) float64 {
	n := len(returns)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, r := range returns {
		diff := r - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computePercentile uses linear interpolation. sorted must be
// pre-sorted ASC; p is the percentile (0.10 = 10th percentile).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// computeMaxDrawdown calculates worst peak-to-trough on cumulative
// returns. Returns must be in chronological order.
func computeMaxDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	cumulative := 0.0
	peak := 0.0
	maxDrawdown := 0.0

	for _, r := range returns {
		cumulative += r
		if cumulative > peak {
			peak = cumulative
		}
		drawdown := peak - cumulative
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}

// computeMaxConsecutiveLosses finds the longest streak of return <= 0.
// Returns must be in chronological order.
func computeMaxConsecutiveLosses(returns []float64) int {
	maxStreak := 0
	currentStreak := 0

	for _, r := range returns {
		if r <= 0 {
			currentStreak++
			if currentStreak > maxStreak {
				maxStreak = currentStreak
			}
		} else {
			currentStreak = 0
		}
	}
	return maxStreak
}
