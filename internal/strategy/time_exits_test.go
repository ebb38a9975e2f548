package strategy

import (
	"testing"
	"time"

	"intraday-exit-lab/internal/domain"
)

func TestMaxHoldTime_ExitsAtCutoffBarClose(t *testing.T) {
	// Entry 13:01, 2 minute hold: cutoff 13:03. The 13:03 bar exits at
	// its own close, at its own timestamp, with no next-bar delay.
	s := NewMaxHoldTimeStrategy(2)

	bars := makeBars(entryTime, [][4]float64{
		{100.0, 100.4, 99.8, 100.2}, // 13:02
		{100.2, 100.6, 100.0, 100.5}, // 13:03
		{100.5, 100.8, 100.3, 100.7}, // 13:04
	})

	sig := s.Evaluate(&Input{
		EntryPrice: 100.0,
		EntryTime:  entryTime,
		Bars:       bars,
		IsLong:     true,
		TestMode:   true,
	})
	if sig == nil {
		t.Fatal("expected max hold time to trigger")
	}
	if sig.Reason != domain.ExitReasonMaxHoldTime {
		t.Errorf("expected maxHoldTime reason, got %s", sig.Reason)
	}
	if !sig.Time.Equal(bars[1].Time) {
		t.Errorf("expected exit at 13:03 bar, got %v", sig.Time)
	}
	if sig.Price != 100.5 {
		t.Errorf("expected cutoff bar close 100.5, got %v", sig.Price)
	}
}

func TestMaxHoldTime_NoBarReachesCutoff(t *testing.T) {
	// Short trading day: nothing at or after the cutoff, the caller must
	// rely on a later fallback.
	s := NewMaxHoldTimeStrategy(30)

	bars := makeBars(entryTime, [][4]float64{
		{100.0, 100.4, 99.8, 100.2},
		{100.2, 100.6, 100.0, 100.5},
	})

	sig := s.Evaluate(&Input{
		EntryPrice: 100.0,
		EntryTime:  entryTime,
		Bars:       bars,
		IsLong:     true,
		TestMode:   true,
	})
	if sig != nil {
		t.Fatalf("expected no exit before cutoff, got %+v", sig)
	}
}

func TestEndOfDay_ExitsAtConfiguredTime(t *testing.T) {
	s := NewEndOfDayStrategy(13, 3)

	bars := makeBars(entryTime, [][4]float64{
		{100.0, 100.4, 99.8, 100.2}, // 13:02
		{100.2, 100.6, 100.0, 100.5}, // 13:03
		{100.5, 100.8, 100.3, 100.7}, // 13:04
	})

	sig := s.Evaluate(&Input{
		EntryPrice: 100.0,
		EntryTime:  entryTime,
		Bars:       bars,
		IsLong:     true,
	})
	if sig == nil {
		t.Fatal("expected end of day to trigger")
	}
	if sig.Reason != domain.ExitReasonEndOfDay {
		t.Errorf("expected endOfDay reason, got %s", sig.Reason)
	}
	if !sig.Time.Equal(bars[1].Time) {
		t.Errorf("expected exit at 13:03 bar, got %v", sig.Time)
	}
	if sig.Price != 100.5 {
		t.Errorf("expected close 100.5, got %v", sig.Price)
	}
}

func TestEndOfDay_SeesBarsAfterSessionClose(t *testing.T) {
	// End-of-day must not apply the regular-session filter: a 16:02 bar
	// is still a valid flatten point for a 15:55 target reached late.
	s := NewEndOfDayStrategy(15, 55)

	lateEntry := time.Date(2024, 3, 5, 15, 40, 0, 0, time.UTC)
	bars := []*domain.Bar{
		{Time: lateEntry.Add(5 * time.Minute), Open: 100, High: 100.3, Low: 99.9, Close: 100.1}, // 15:45
		{Time: lateEntry.Add(22 * time.Minute), Open: 100.1, High: 100.4, Low: 100.0, Close: 100.2}, // 16:02
	}

	sig := s.Evaluate(&Input{
		EntryPrice: 100.0,
		EntryTime:  lateEntry,
		Bars:       bars,
		IsLong:     true,
	})
	if sig == nil {
		t.Fatal("expected end of day to trigger")
	}
	if !sig.Time.Equal(bars[1].Time) {
		t.Errorf("expected the 16:02 bar, got %v", sig.Time)
	}
}

func TestEndOfDay_FallsBackToLastSameDayBar(t *testing.T) {
	// All remaining bars precede the end time: exit at the close of the
	// last bar of the entry's calendar day.
	s := NewEndOfDayStrategy(15, 55)

	bars := makeBars(entryTime, [][4]float64{
		{100.0, 100.4, 99.8, 100.2},
		{100.2, 100.6, 100.0, 100.3},
	})

	sig := s.Evaluate(&Input{
		EntryPrice: 100.0,
		EntryTime:  entryTime,
		Bars:       bars,
		IsLong:     true,
	})
	if sig == nil {
		t.Fatal("expected end of day fallback")
	}
	if !sig.Time.Equal(bars[1].Time) {
		t.Errorf("expected last bar, got %v", sig.Time)
	}
	if sig.Price != 100.3 {
		t.Errorf("expected last close 100.3, got %v", sig.Price)
	}
}

func TestEndOfDay_OvernightGapExit(t *testing.T) {
	// Entry on the final bar of its day: the exit falls through to the
	// first bar of the next available date. Overnight gap exits are a
	// deliberate policy choice.
	s := NewEndOfDayStrategy(15, 55)

	nextDay := time.Date(2024, 3, 6, 9, 30, 0, 0, time.UTC)
	bars := []*domain.Bar{
		{Time: nextDay, Open: 101.0, High: 101.5, Low: 100.8, Close: 101.2},
		{Time: nextDay.Add(time.Minute), Open: 101.2, High: 101.6, Low: 101.0, Close: 101.4},
	}

	sig := s.Evaluate(&Input{
		EntryPrice: 100.0,
		EntryTime:  entryTime, // 2024-03-05 13:01
		Bars:       bars,
		IsLong:     true,
	})
	if sig == nil {
		t.Fatal("expected overnight gap exit")
	}
	if !sig.Time.Equal(nextDay) {
		t.Errorf("expected first next-day bar, got %v", sig.Time)
	}
	if sig.Price != 101.2 {
		t.Errorf("expected its close 101.2, got %v", sig.Price)
	}
}

func TestEndOfDay_NoBarsAfterEntry(t *testing.T) {
	s := NewEndOfDayStrategy(15, 55)

	sig := s.Evaluate(&Input{
		EntryPrice: 100.0,
		EntryTime:  entryTime,
		Bars:       nil,
		IsLong:     true,
	})
	if sig != nil {
		t.Fatalf("expected nil without bars, got %+v", sig)
	}
}
