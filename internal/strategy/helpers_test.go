package strategy

import (
	"time"

	"intraday-exit-lab/internal/domain"
)

// entryTime used by most fixtures; bars start one minute later.
var entryTime = time.Date(2024, 3, 5, 13, 1, 0, 0, time.UTC)

// makeBars builds a minute-bar sequence starting one minute after start.
// Each row is open, high, low, close.
func makeBars(start time.Time, ohlc [][4]float64) []*domain.Bar {
	bars := make([]*domain.Bar, len(ohlc))
	for i, v := range ohlc {
		bars[i] = &domain.Bar{
			Symbol:    "TEST",
			Timeframe: domain.Timeframe1Min,
			Time:      start.Add(time.Duration(i+1) * time.Minute),
			Open:      v[0],
			High:      v[1],
			Low:       v[2],
			Close:     v[3],
		}
	}
	return bars
}

func fptr(v float64) *float64 {
	return &v
}
