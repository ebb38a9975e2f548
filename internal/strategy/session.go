package strategy

import (
	"time"

	"intraday-exit-lab/internal/domain"
)

// Regular trading session window, minutes from midnight exchange-local.
const (
	sessionOpenMinute  = 9*60 + 30
	sessionCloseMinute = 16 * 60
)

// inRegularSession reports whether a bar timestamp falls inside the
// 09:30-16:00 window, inclusive on both ends.
func inRegularSession(t time.Time) bool {
	m := t.Hour()*60 + t.Minute()
	return m >= sessionOpenMinute && m <= sessionCloseMinute
}

// barsAfterEntry returns the strictly-after-entry bars, preserving order.
func barsAfterEntry(in *Input) []*domain.Bar {
	out := make([]*domain.Bar, 0, len(in.Bars))
	for _, bar := range in.Bars {
		if bar.Time.After(in.EntryTime) {
			out = append(out, bar)
		}
	}
	return out
}

// tradableBars returns the strictly-after-entry bars restricted to the
// regular session. Test mode bypasses the session restriction so unit
// fixtures can use arbitrary clock times.
func tradableBars(in *Input) []*domain.Bar {
	if in.TestMode {
		return barsAfterEntry(in)
	}
	out := make([]*domain.Bar, 0, len(in.Bars))
	for _, bar := range in.Bars {
		if bar.Time.After(in.EntryTime) && inRegularSession(bar.Time) {
			out = append(out, bar)
		}
	}
	return out
}

// fillAt converts a trigger on bars[i] at the given level into an exit
// signal. In test mode the fill is the exact level at the triggering
// bar's timestamp. Otherwise the fill is the next bar's open, modelling
// realistic fill delay, or the triggering bar's own close when it is the
// last bar available.
func fillAt(bars []*domain.Bar, i int, level float64, testMode bool, reason domain.ExitReason) *domain.Signal {
	if testMode {
		return &domain.Signal{
			Time:   bars[i].Time,
			Price:  level,
			Kind:   domain.SignalKindExit,
			Reason: reason,
		}
	}
	if i+1 < len(bars) {
		return &domain.Signal{
			Time:   bars[i+1].Time,
			Price:  bars[i+1].Open,
			Kind:   domain.SignalKindExit,
			Reason: reason,
		}
	}
	return &domain.Signal{
		Time:   bars[i].Time,
		Price:  bars[i].Close,
		Kind:   domain.SignalKindExit,
		Reason: reason,
	}
}
