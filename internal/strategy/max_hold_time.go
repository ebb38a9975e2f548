package strategy

import (
	"fmt"
	"time"

	"intraday-exit-lab/internal/domain"
)

// MaxHoldTimeStrategy exits at the first session bar at or after a fixed
// cutoff. This is a scheduled exit, not a reactive one, so the fill is
// the cutoff bar's own close with no next-bar delay.
type MaxHoldTimeStrategy struct {
	minutes int
}

// NewMaxHoldTimeStrategy creates a new MaxHoldTimeStrategy.
func NewMaxHoldTimeStrategy(minutes int) *MaxHoldTimeStrategy {
	return &MaxHoldTimeStrategy{minutes: minutes}
}

// ID returns the strategy identifier including parameters.
func (s *MaxHoldTimeStrategy) ID() string {
	return fmt.Sprintf("maxHoldTime_%dm", s.minutes)
}

// Reason returns the exit reason tag.
func (s *MaxHoldTimeStrategy) Reason() domain.ExitReason {
	return domain.ExitReasonMaxHoldTime
}

// Evaluate returns nil when no bar reaches the cutoff (short trading
// day); the caller must rely on a later fallback.
func (s *MaxHoldTimeStrategy) Evaluate(in *Input) *domain.Signal {
	cutoff := in.EntryTime.Add(time.Duration(s.minutes) * time.Minute)

	for _, bar := range tradableBars(in) {
		if !bar.Time.Before(cutoff) {
			return &domain.Signal{
				Time:   bar.Time,
				Price:  bar.Close,
				Kind:   domain.SignalKindExit,
				Reason: s.Reason(),
			}
		}
	}
	return nil
}

// Ensure MaxHoldTimeStrategy implements ExitStrategy
var _ ExitStrategy = (*MaxHoldTimeStrategy)(nil)
