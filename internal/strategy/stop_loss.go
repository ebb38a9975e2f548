package strategy

import (
	"fmt"

	"intraday-exit-lab/internal/domain"
)

// StopLossStrategy exits when price moves against the position through
// the stop level.
type StopLossStrategy struct {
	cfg domain.StopLossConfig
}

// NewStopLossStrategy creates a new StopLossStrategy.
func NewStopLossStrategy(cfg domain.StopLossConfig) *StopLossStrategy {
	return &StopLossStrategy{cfg: cfg}
}

// ID returns the strategy identifier including parameters.
func (s *StopLossStrategy) ID() string {
	id := fmt.Sprintf("stopLoss_pct%.2f", s.cfg.PercentFromEntry)
	if s.cfg.ATRMultiplier != nil {
		id += fmt.Sprintf("_atr%.2f", *s.cfg.ATRMultiplier)
	}
	if s.cfg.UseProposedPrice {
		id += "_proposed"
	}
	return id
}

// Reason returns the exit reason tag.
func (s *StopLossStrategy) Reason() domain.ExitReason {
	return domain.ExitReasonStopLoss
}

// Evaluate scans for the first bar that touches the stop level.
// Level priority: proposed override, then ATR-relative, then percent.
func (s *StopLossStrategy) Evaluate(in *Input) *domain.Signal {
	level := s.level(in)
	bars := tradableBars(in)

	for i, bar := range bars {
		triggered := bar.Low <= level
		if !in.IsLong {
			triggered = bar.High >= level
		}
		if triggered {
			return fillAt(bars, i, level, in.TestMode, s.Reason())
		}
	}
	return nil
}

// level computes the stop price. For a long the stop sits below entry,
// for a short above it.
func (s *StopLossStrategy) level(in *Input) float64 {
	if s.cfg.UseProposedPrice && in.ProposedStopPrice != nil && validPrice(*in.ProposedStopPrice) {
		return *in.ProposedStopPrice
	}
	if in.ATR != nil && s.cfg.ATRMultiplier != nil {
		if in.IsLong {
			return in.EntryPrice - *in.ATR**s.cfg.ATRMultiplier
		}
		return in.EntryPrice + *in.ATR**s.cfg.ATRMultiplier
	}
	if in.IsLong {
		return in.EntryPrice * (1 - s.cfg.PercentFromEntry/100)
	}
	return in.EntryPrice * (1 + s.cfg.PercentFromEntry/100)
}

// Ensure StopLossStrategy implements ExitStrategy
var _ ExitStrategy = (*StopLossStrategy)(nil)
