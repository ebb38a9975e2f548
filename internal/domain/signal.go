package domain

import "time"

// SignalKind distinguishes entry markers from exit markers.
type SignalKind string

// Signal kinds.
const (
	SignalKindEntry SignalKind = "entry"
	SignalKindExit  SignalKind = "exit"
)

// ExitReason identifies which exit strategy closed a position.
type ExitReason string

// Exit reason codes.
const (
	ExitReasonStopLoss     ExitReason = "stopLoss"
	ExitReasonProfitTarget ExitReason = "profitTarget"
	ExitReasonTrailingStop ExitReason = "trailingStop"
	ExitReasonMaxHoldTime  ExitReason = "maxHoldTime"
	ExitReasonEndOfDay     ExitReason = "endOfDay"
)

// Signal is a directional point-in-time marker. Reason is only
// meaningful when Kind is SignalKindExit.
type Signal struct {
	Time   time.Time
	Price  float64
	Kind   SignalKind
	Reason ExitReason
}

// EntrySignal is an entry marker produced by upstream pattern detection,
// enriched with everything the resolution loop needs. Proposed levels are
// optional overrides supplied by an external confirmation layer; they are
// only honored when the matching strategy block opts in.
type EntrySignal struct {
	SignalID  string
	Symbol    string
	Timeframe string
	Time      time.Time
	Price     float64
	IsLong    bool

	ProposedStopPrice   *float64
	ProposedTargetPrice *float64
}
