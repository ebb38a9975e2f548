package strategy

import (
	"fmt"

	"intraday-exit-lab/internal/domain"
)

// TrailingStopStrategy exits when price retraces through a level that
// trails the most favorable extreme seen since activation. All state
// (activated flag, best price) is local to one Evaluate call.
type TrailingStopStrategy struct {
	cfg domain.TrailingStopConfig
}

// NewTrailingStopStrategy creates a new TrailingStopStrategy.
func NewTrailingStopStrategy(cfg domain.TrailingStopConfig) *TrailingStopStrategy {
	return &TrailingStopStrategy{cfg: cfg}
}

// ID returns the strategy identifier including parameters.
func (s *TrailingStopStrategy) ID() string {
	id := "trailingStop"
	if s.cfg.ActivationATRMultiplier != nil {
		id += fmt.Sprintf("_actAtr%.2f", *s.cfg.ActivationATRMultiplier)
	} else if s.cfg.ActivationPercent != nil {
		id += fmt.Sprintf("_actPct%.2f", *s.cfg.ActivationPercent)
	}
	if s.cfg.TrailATRMultiplier != nil {
		id += fmt.Sprintf("_trailAtr%.2f", *s.cfg.TrailATRMultiplier)
	} else if s.cfg.TrailPercent != nil {
		id += fmt.Sprintf("_trailPct%.2f", *s.cfg.TrailPercent)
	}
	return id
}

// Reason returns the exit reason tag.
func (s *TrailingStopStrategy) Reason() domain.ExitReason {
	return domain.ExitReasonTrailingStop
}

// Evaluate tracks activation and the best price within this single call.
// Before activation only the activation condition is checked; once
// activated the strategy never re-checks activation. When the trailing
// distance is ATR-relative and ATR is unavailable with no percent
// fallback, the strategy yields no exit and later strategies cover the
// trade.
func (s *TrailingStopStrategy) Evaluate(in *Input) *domain.Signal {
	if !s.distanceAvailable(in) {
		return nil
	}

	bars := tradableBars(in)

	activated, activationLevel := s.activation(in)
	bestPrice := in.EntryPrice

	for i, bar := range bars {
		if !activated {
			reached := bar.High >= activationLevel
			if !in.IsLong {
				reached = bar.Low <= activationLevel
			}
			if reached {
				activated = true
				if in.IsLong {
					bestPrice = bar.High
				} else {
					bestPrice = bar.Low
				}
			}
			continue
		}

		if in.IsLong && bar.High > bestPrice {
			bestPrice = bar.High
		}
		if !in.IsLong && bar.Low < bestPrice {
			bestPrice = bar.Low
		}

		dist := s.trailDistance(in, bestPrice)
		level := bestPrice - dist
		if !in.IsLong {
			level = bestPrice + dist
		}

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

// distanceAvailable reports whether a trailing distance can be computed
// for this input. Assembly guarantees at least one source is configured.
func (s *TrailingStopStrategy) distanceAvailable(in *Input) bool {
	if s.cfg.TrailATRMultiplier != nil && in.ATR != nil {
		return true
	}
	return s.cfg.TrailPercent != nil
}

// activation returns whether the stop starts active and, when not, the
// price level that activates it. An offset configured as exactly zero
// means immediate activation.
func (s *TrailingStopStrategy) activation(in *Input) (bool, float64) {
	var offset float64
	switch {
	case s.cfg.ActivationATRMultiplier != nil && in.ATR != nil:
		offset = *in.ATR * *s.cfg.ActivationATRMultiplier
	case s.cfg.ActivationPercent != nil:
		offset = in.EntryPrice * *s.cfg.ActivationPercent / 100
	default:
		return true, 0
	}

	if offset == 0 {
		return true, 0
	}
	if in.IsLong {
		return false, in.EntryPrice + offset
	}
	return false, in.EntryPrice - offset
}

// trailDistance is an absolute ATR-derived amount when configured, else
// a percent of the best price seen so far.
func (s *TrailingStopStrategy) trailDistance(in *Input, bestPrice float64) float64 {
	if s.cfg.TrailATRMultiplier != nil && in.ATR != nil {
		return *in.ATR * *s.cfg.TrailATRMultiplier
	}
	return bestPrice * *s.cfg.TrailPercent / 100
}

// Ensure TrailingStopStrategy implements ExitStrategy
var _ ExitStrategy = (*TrailingStopStrategy)(nil)
