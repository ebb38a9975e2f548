package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"intraday-exit-lab/internal/domain"
	"intraday-exit-lab/internal/storage"
)

// BarStore is an in-memory implementation of storage.BarStore.
type BarStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Bar // keyed by (symbol, timeframe, ts)
}

// NewBarStore creates a new in-memory bar store.
func NewBarStore() *BarStore {
	return &BarStore{
		data: make(map[string]*domain.Bar),
	}
}

// barKey generates a unique key for a bar.
func barKey(symbol string, timeframe string, ts time.Time) string {
	return fmt.Sprintf("%s|%s|%d", symbol, timeframe, ts.UnixMilli())
}

// InsertBulk adds multiple bars. Fails entire batch on duplicate.
func (s *BarStore) InsertBulk(_ context.Context, bars []*domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(bars))

	// First pass: check for duplicates (existing + intra-batch)
	for _, b := range bars {
		if b == nil || b.Symbol == "" {
			return storage.ErrInvalidInput
		}
		key := barKey(b.Symbol, b.Timeframe, b.Time)

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, b := range bars {
		key := barKey(b.Symbol, b.Timeframe, b.Time)
		barCopy := *b
		s.data[key] = &barCopy
	}

	return nil
}

// GetByTimeRange retrieves bars for a symbol/timeframe within [start, end] (inclusive).
func (s *BarStore) GetByTimeRange(_ context.Context, symbol string, timeframe string, start, end time.Time) ([]*domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Bar
	for _, b := range s.data {
		if b.Symbol == symbol && b.Timeframe == timeframe &&
			!b.Time.Before(start) && !b.Time.After(end) {
			barCopy := *b
			result = append(result, &barCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Time.Before(result[j].Time)
	})

	return result, nil
}

// GetDay retrieves all bars for a symbol/timeframe on the calendar day containing t.
func (s *BarStore) GetDay(ctx context.Context, symbol string, timeframe string, t time.Time) ([]*domain.Bar, error) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	end := start.Add(24*time.Hour - time.Nanosecond)
	return s.GetByTimeRange(ctx, symbol, timeframe, start, end)
}

var _ storage.BarStore = (*BarStore)(nil)
