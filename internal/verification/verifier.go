// Package verification checks that stored trade records can be
// reproduced: it re-resolves each trade's entry signal against the same
// bars and compares every field of the result.
package verification

import (
	"math"

	"intraday-exit-lab/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string      // field name
	Expected interface{} // stored value
	Actual   interface{} // replayed value
}

// VerificationResult contains the result of verifying a single trade.
type VerificationResult struct {
	TradeID        string            // verified trade ID
	Match          bool              // true if all fields match
	Divergences    []FieldDivergence // list of divergent fields
	StoredReturn   float64           // return from the stored trade
	ReplayedReturn float64           // return from the replayed resolution
}

// VerificationReport contains results for batch verification.
type VerificationReport struct {
	TotalTrades     int                  // total trades verified
	MatchedTrades   int                  // trades that matched exactly
	DivergentTrades int                  // trades with divergences
	Results         []VerificationResult // individual results
}

// CompareTradeRecords compares two trade records and returns divergences.
// Floats are compared within FloatTolerance; times and identifiers must
// match exactly.
func CompareTradeRecords(stored, replayed *domain.TradeRecord) []FieldDivergence {
	var divergences []FieldDivergence

	diverge := func(field string, expected, actual interface{}) {
		divergences = append(divergences, FieldDivergence{
			Field:    field,
			Expected: expected,
			Actual:   actual,
		})
	}

	if stored.TradeID != replayed.TradeID {
		diverge("TradeID", stored.TradeID, replayed.TradeID)
	}
	if stored.SignalID != replayed.SignalID {
		diverge("SignalID", stored.SignalID, replayed.SignalID)
	}
	if stored.Symbol != replayed.Symbol {
		diverge("Symbol", stored.Symbol, replayed.Symbol)
	}
	if stored.StrategyID != replayed.StrategyID {
		diverge("StrategyID", stored.StrategyID, replayed.StrategyID)
	}
	if stored.IsLong != replayed.IsLong {
		diverge("IsLong", stored.IsLong, replayed.IsLong)
	}

	// Entry
	if !floatEquals(stored.EntrySignalPrice, replayed.EntrySignalPrice) {
		diverge("EntrySignalPrice", stored.EntrySignalPrice, replayed.EntrySignalPrice)
	}
	if !floatEquals(stored.EntryPrice, replayed.EntryPrice) {
		diverge("EntryPrice", stored.EntryPrice, replayed.EntryPrice)
	}
	if !stored.EntryTime.Equal(replayed.EntryTime) {
		diverge("EntryTime", stored.EntryTime, replayed.EntryTime)
	}

	// Exit
	if !floatEquals(stored.ExitSignalPrice, replayed.ExitSignalPrice) {
		diverge("ExitSignalPrice", stored.ExitSignalPrice, replayed.ExitSignalPrice)
	}
	if !floatEquals(stored.ExitPrice, replayed.ExitPrice) {
		diverge("ExitPrice", stored.ExitPrice, replayed.ExitPrice)
	}
	if !stored.ExitTime.Equal(replayed.ExitTime) {
		diverge("ExitTime", stored.ExitTime, replayed.ExitTime)
	}
	if stored.ExitReason != replayed.ExitReason {
		diverge("ExitReason", stored.ExitReason, replayed.ExitReason)
	}

	// Outcome
	if !floatEquals(stored.ReturnPct, replayed.ReturnPct) {
		diverge("ReturnPct", stored.ReturnPct, replayed.ReturnPct)
	}
	if stored.HoldDuration != replayed.HoldDuration {
		diverge("HoldDuration", stored.HoldDuration, replayed.HoldDuration)
	}
	if !floatPtrEquals(stored.ATR, replayed.ATR) {
		diverge("ATR", stored.ATR, replayed.ATR)
	}

	return divergences
}

// floatEquals compares two float64 values within FloatTolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}

// floatPtrEquals compares two *float64 values within FloatTolerance.
// Returns true if both are nil, or both are non-nil and equal.
func floatPtrEquals(a, b *float64) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return floatEquals(*a, *b)
}
