package normalization

import (
	"context"
	"fmt"
	"time"

	"intraday-exit-lab/internal/domain"
	"intraday-exit-lab/internal/storage"
)

// Runner reads stored minute bars and persists resampled timeframes.
type Runner struct {
	bars storage.BarStore
}

// NewRunner creates a resampling runner over a bar store.
func NewRunner(bars storage.BarStore) *Runner {
	return &Runner{bars: bars}
}

// ResampleRange resamples one symbol's minute bars in [start, end] into
// the target timeframe and stores the result. Returns the number of
// bars written.
func (r *Runner) ResampleRange(ctx context.Context, symbol, target string, start, end time.Time) (int, error) {
	source, err := r.bars.GetByTimeRange(ctx, symbol, domain.Timeframe1Min, start, end)
	if err != nil {
		return 0, fmt.Errorf("load minute bars for %s: %w", symbol, err)
	}
	if len(source) == 0 {
		return 0, nil
	}

	resampled, err := Resample(source, target)
	if err != nil {
		return 0, err
	}

	if err := r.bars.InsertBulk(ctx, resampled); err != nil {
		return 0, fmt.Errorf("store %s bars for %s: %w", target, symbol, err)
	}
	return len(resampled), nil
}
