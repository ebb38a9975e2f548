package strategy

import (
	"fmt"

	"intraday-exit-lab/internal/domain"
)

// ProfitTargetStrategy exits when price moves with the position through
// the target level.
type ProfitTargetStrategy struct {
	cfg domain.ProfitTargetConfig
}

// NewProfitTargetStrategy creates a new ProfitTargetStrategy.
func NewProfitTargetStrategy(cfg domain.ProfitTargetConfig) *ProfitTargetStrategy {
	return &ProfitTargetStrategy{cfg: cfg}
}

// ID returns the strategy identifier including parameters.
func (s *ProfitTargetStrategy) ID() string {
	id := fmt.Sprintf("profitTarget_pct%.2f", s.cfg.PercentFromEntry)
	if s.cfg.ATRMultiplier != nil {
		id += fmt.Sprintf("_atr%.2f", *s.cfg.ATRMultiplier)
	}
	if s.cfg.UseProposedPrice {
		id += "_proposed"
	}
	return id
}

// Reason returns the exit reason tag.
func (s *ProfitTargetStrategy) Reason() domain.ExitReason {
	return domain.ExitReasonProfitTarget
}

// Evaluate scans for the first bar that touches the target level.
func (s *ProfitTargetStrategy) Evaluate(in *Input) *domain.Signal {
	level := s.level(in)
	bars := tradableBars(in)

	for i, bar := range bars {
		triggered := bar.High >= level
		if !in.IsLong {
			triggered = bar.Low <= level
		}
		if triggered {
			return fillAt(bars, i, level, in.TestMode, s.Reason())
		}
	}
	return nil
}

// level computes the target price. For a long the target sits above
// entry, for a short below it.
func (s *ProfitTargetStrategy) level(in *Input) float64 {
	if s.cfg.UseProposedPrice && in.ProposedTargetPrice != nil && validPrice(*in.ProposedTargetPrice) {
		return *in.ProposedTargetPrice
	}
	if in.ATR != nil && s.cfg.ATRMultiplier != nil {
		if in.IsLong {
			return in.EntryPrice + *in.ATR**s.cfg.ATRMultiplier
		}
		return in.EntryPrice - *in.ATR**s.cfg.ATRMultiplier
	}
	if in.IsLong {
		return in.EntryPrice * (1 + s.cfg.PercentFromEntry/100)
	}
	return in.EntryPrice * (1 - s.cfg.PercentFromEntry/100)
}

// Ensure ProfitTargetStrategy implements ExitStrategy
var _ ExitStrategy = (*ProfitTargetStrategy)(nil)
