package strategy

import (
	"fmt"
	"time"

	"intraday-exit-lab/internal/domain"
)

// EndOfDayStrategy flattens the position at the configured exchange-local
// time. It deliberately skips the regular-session filter so it can see
// the close of day even at or after the nominal session close.
type EndOfDayStrategy struct {
	hour   int
	minute int
}

// NewEndOfDayStrategy creates a new EndOfDayStrategy.
func NewEndOfDayStrategy(hour, minute int) *EndOfDayStrategy {
	return &EndOfDayStrategy{hour: hour, minute: minute}
}

// ID returns the strategy identifier including parameters.
func (s *EndOfDayStrategy) ID() string {
	return fmt.Sprintf("endOfDay_%02d:%02d", s.hour, s.minute)
}

// Reason returns the exit reason tag.
func (s *EndOfDayStrategy) Reason() domain.ExitReason {
	return domain.ExitReasonEndOfDay
}

// Evaluate exits at the close of the first bar at or after the end
// timestamp. When every remaining bar precedes it, the last bar of the
// entry's calendar day is used. An entry on the final bar of its day
// falls through to the first bar of the next available date; treating
// that overnight gap exit as valid is intentional.
func (s *EndOfDayStrategy) Evaluate(in *Input) *domain.Signal {
	bars := barsAfterEntry(in)
	if len(bars) == 0 {
		return nil
	}

	y, m, d := in.EntryTime.Date()
	end := time.Date(y, m, d, s.hour, s.minute, 0, 0, in.EntryTime.Location())

	for _, bar := range bars {
		if !bar.Time.Before(end) {
			return &domain.Signal{
				Time:   bar.Time,
				Price:  bar.Close,
				Kind:   domain.SignalKindExit,
				Reason: s.Reason(),
			}
		}
	}

	// Every remaining bar is on the entry date before the end time.
	last := bars[len(bars)-1]
	return &domain.Signal{
		Time:   last.Time,
		Price:  last.Close,
		Kind:   domain.SignalKindExit,
		Reason: s.Reason(),
	}
}

// Ensure EndOfDayStrategy implements ExitStrategy
var _ ExitStrategy = (*EndOfDayStrategy)(nil)
