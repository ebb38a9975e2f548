// Package volatility computes the Average True Range scalar used to size
// ATR-relative exit levels.
package volatility

import (
	"math"

	"intraday-exit-lab/internal/domain"
)

// AverageTrueRange returns the arithmetic mean of the per-bar True Range
// over one trading day's bars. The first bar of the day has no previous
// close, so its True Range is simply high-low. Returns nil for an empty
// input; callers must treat that as "ATR-relative levels unavailable" and
// fall back to percent-based levels, never as zero.
func AverageTrueRange(bars []*domain.Bar) *float64 {
	if len(bars) == 0 {
		return nil
	}

	sum := 0.0
	prevClose := 0.0
	for i, bar := range bars {
		if i == 0 {
			sum += bar.High - bar.Low
		} else {
			sum += trueRange(bar, prevClose)
		}
		prevClose = bar.Close
	}

	atr := sum / float64(len(bars))
	return &atr
}

// trueRange is the largest of (high-low), |high-prevClose| and |low-prevClose|.
func trueRange(bar *domain.Bar, prevClose float64) float64 {
	hl := bar.High - bar.Low
	hc := math.Abs(bar.High - prevClose)
	lc := math.Abs(bar.Low - prevClose)
	return math.Max(hl, math.Max(hc, lc))
}
