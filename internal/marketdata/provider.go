package marketdata

import (
	"context"
	"fmt"
	"time"

	"intraday-exit-lab/internal/domain"
	"intraday-exit-lab/internal/storage"
)

// maxPriorDayLookback bounds the search for the previous trading day.
// Weekends plus a holiday cluster never exceed this span.
const maxPriorDayLookback = 10

// Provider serves the two bar queries exit resolution needs, backed by
// a storage.BarStore.
type Provider struct {
	bars storage.BarStore
}

// NewProvider creates a new Provider on top of a bar store.
func NewProvider(bars storage.BarStore) *Provider {
	return &Provider{bars: bars}
}

// FetchBars returns all bars for the symbol/timeframe on the calendar
// day containing t, ordered by timestamp ASC.
func (p *Provider) FetchBars(ctx context.Context, symbol, timeframe string, t time.Time) ([]*domain.Bar, error) {
	bars, err := p.bars.GetDay(ctx, symbol, timeframe, t)
	if err != nil {
		return nil, fmt.Errorf("fetch bars for %s: %w", symbol, err)
	}
	return bars, nil
}

// FetchPriorTradingDayBars walks backwards from the day before t and
// returns the bars of the first day that has any. Returns nil, nil when
// no prior day within the lookback window has bars; the caller treats
// that as "no volatility context", not as an error.
func (p *Provider) FetchPriorTradingDayBars(ctx context.Context, symbol, timeframe string, t time.Time) ([]*domain.Bar, error) {
	for i := 1; i <= maxPriorDayLookback; i++ {
		day := t.AddDate(0, 0, -i)
		bars, err := p.bars.GetDay(ctx, symbol, timeframe, day)
		if err != nil {
			return nil, fmt.Errorf("fetch prior day bars for %s: %w", symbol, err)
		}
		if len(bars) > 0 {
			return bars, nil
		}
	}
	return nil, nil
}
