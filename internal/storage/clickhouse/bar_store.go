package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"intraday-exit-lab/internal/domain"
	"intraday-exit-lab/internal/storage"
)

// BarStore implements storage.BarStore using ClickHouse. Minute bars are
// high-volume append-only data, which is what the MergeTree engine is for.
type BarStore struct {
	conn *Conn
}

// NewBarStore creates a new BarStore.
func NewBarStore(conn *Conn) *BarStore {
	return &BarStore{conn: conn}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

// InsertBulk adds multiple bars. Fails entire batch on duplicate
// (symbol, timeframe, ts).
func (s *BarStore) InsertBulk(ctx context.Context, bars []*domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		symbol    string
		timeframe string
		tsMs      int64
	}
	seen := make(map[key]struct{}, len(bars))
	for _, b := range bars {
		if b == nil || b.Symbol == "" {
			return storage.ErrInvalidInput
		}
		k := key{b.Symbol, b.Timeframe, b.Time.UnixMilli()}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows. MergeTree does not
	// enforce uniqueness at insert time.
	for _, b := range bars {
		exists, err := s.exists(ctx, b.Symbol, b.Timeframe, b.Time)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO bars (
			symbol, timeframe, ts, open, high, low, close, volume
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, b := range bars {
		err = batch.Append(
			b.Symbol, b.Timeframe, b.Time.UTC(),
			b.Open, b.High, b.Low, b.Close, b.Volume,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByTimeRange retrieves bars for a symbol/timeframe within
// [start, end] (inclusive), ordered by timestamp ASC.
func (s *BarStore) GetByTimeRange(ctx context.Context, symbol, timeframe string, start, end time.Time) ([]*domain.Bar, error) {
	query := `
		SELECT symbol, timeframe, ts, open, high, low, close, volume
		FROM bars
		WHERE symbol = ? AND timeframe = ? AND ts >= ? AND ts <= ?
		ORDER BY ts ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, timeframe, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// GetDay retrieves all bars for a symbol/timeframe on the calendar day
// containing t, ordered by timestamp ASC.
func (s *BarStore) GetDay(ctx context.Context, symbol, timeframe string, t time.Time) ([]*domain.Bar, error) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	end := start.Add(24*time.Hour - time.Millisecond)
	return s.GetByTimeRange(ctx, symbol, timeframe, start, end)
}

// exists checks if a bar with the given key exists.
func (s *BarStore) exists(ctx context.Context, symbol, timeframe string, ts time.Time) (bool, error) {
	query := `
		SELECT count(*) FROM bars
		WHERE symbol = ? AND timeframe = ? AND ts = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, symbol, timeframe, ts.UTC()).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanBars scans rows into a slice of Bar.
func scanBars(rows driver.Rows) ([]*domain.Bar, error) {
	var bars []*domain.Bar

	for rows.Next() {
		var b domain.Bar
		err := rows.Scan(
			&b.Symbol, &b.Timeframe, &b.Time,
			&b.Open, &b.High, &b.Low, &b.Close, &b.Volume,
		)
		if err != nil {
			return nil, fmt.Errorf("scan bar row: %w", err)
		}
		b.Time = b.Time.UTC()
		bars = append(bars, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bar rows: %w", err)
	}

	return bars, nil
}
