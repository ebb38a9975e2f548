package domain

import "time"

// TradeRecord represents one fully resolved simulated trade.
// Signal prices are the theoretical fills produced by the exit resolution;
// actual prices have slippage applied. ReturnPct is computed from the
// actual prices only.
type TradeRecord struct {
	TradeID    string
	SignalID   string
	Symbol     string
	StrategyID string

	IsLong bool

	// Entry
	EntrySignalPrice float64 // price at the entry marker
	EntryPrice       float64 // after slippage
	EntryTime        time.Time

	// Exit
	ExitSignalPrice float64 // theoretical fill from exit resolution
	ExitPrice       float64 // after slippage
	ExitTime        time.Time
	ExitReason      ExitReason

	// Outcome
	ReturnPct    float64
	HoldDuration time.Duration

	// Volatility context used for ATR-relative levels, nil when the
	// prior trading day had no bars.
	ATR *float64
}
