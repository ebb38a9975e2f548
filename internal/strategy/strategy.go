// Package strategy implements the exit-resolution engine: the five exit
// strategies, pipeline assembly from validated configuration, and the
// bar-by-bar resolution loop that finds the first triggered exit.
package strategy

import (
	"math"
	"time"

	"intraday-exit-lab/internal/domain"
)

// Input holds everything one evaluation call may look at. Bars are the
// remainder of the trading day after the entry signal; nothing after the
// decision point is ever consulted. Proposed levels come from an external
// confirmation layer and are honored only by strategies whose config
// opts in.
type Input struct {
	EntryPrice float64
	EntryTime  time.Time
	Bars       []*domain.Bar
	IsLong     bool

	// ATR from the prior trading day, nil when unavailable. Strategies
	// with ATR-relative levels fall back to percent-based levels.
	ATR *float64

	// TestMode bypasses the regular-session filter and fills at the exact
	// computed level on the triggering bar, for deterministic verification.
	TestMode bool

	ProposedStopPrice   *float64
	ProposedTargetPrice *float64
}

// ExitStrategy answers "does this bar sequence trigger my exit, and if
// so, when and at what price?". Implementations are stateless across
// invocations; any per-trade state lives inside a single Evaluate call.
type ExitStrategy interface {
	// Evaluate scans strictly-after-entry bars in chronological order and
	// returns the first triggered exit, or nil when the strategy does not
	// trigger on this bar sequence.
	Evaluate(in *Input) *domain.Signal

	// Reason returns the exit reason this strategy tags its signals with.
	Reason() domain.ExitReason

	// ID returns the strategy identifier including parameters.
	ID() string
}

// validPrice reports whether an externally proposed level is usable.
func validPrice(p float64) bool {
	return p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}
