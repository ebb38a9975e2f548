// Package normalization derives coarser bar timeframes from stored
// minute bars.
package normalization

import (
	"fmt"
	"time"

	"intraday-exit-lab/internal/domain"
)

// bucketSize returns the bucket duration for a resample target.
func bucketSize(timeframe string) (time.Duration, error) {
	switch timeframe {
	case domain.Timeframe5Min:
		return 5 * time.Minute, nil
	case domain.Timeframe15Min:
		return 15 * time.Minute, nil
	default:
		return 0, fmt.Errorf("unsupported resample target: %s", timeframe)
	}
}

// Resample aggregates minute bars into the target timeframe. Bars must
// be pre-sorted by time and belong to one symbol.
//
// Aggregation for each bucket:
//   - open  = FIRST(open)
//   - high  = MAX(high)
//   - low   = MIN(low)
//   - close = LAST(close)
//   - volume = SUM(volume)
//
// The output bar is stamped with the bucket start. Buckets with no
// source bars are absent, not zero-filled.
func Resample(bars []*domain.Bar, target string) ([]*domain.Bar, error) {
	size, err := bucketSize(target)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, nil
	}

	var result []*domain.Bar
	var current *domain.Bar

	for _, b := range bars {
		bucket := b.Time.Truncate(size)
		if current == nil || current.Symbol != b.Symbol || !current.Time.Equal(bucket) {
			// Start new bucket
			if current != nil {
				result = append(result, current)
			}
			current = &domain.Bar{
				Symbol:    b.Symbol,
				Timeframe: target,
				Time:      bucket,
				Open:      b.Open,
				High:      b.High,
				Low:       b.Low,
				Close:     b.Close,
				Volume:    b.Volume,
			}
		} else {
			// Aggregate into current bucket
			if b.High > current.High {
				current.High = b.High
			}
			if b.Low < current.Low {
				current.Low = b.Low
			}
			current.Close = b.Close
			current.Volume += b.Volume
		}
	}

	if current != nil {
		result = append(result, current)
	}

	return result, nil
}
