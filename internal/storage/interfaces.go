package storage

import (
	"context"
	"time"

	"intraday-exit-lab/internal/domain"
)

// BarStore provides access to minute-bar storage.
type BarStore interface {
	// InsertBulk adds multiple bars. Fails entire batch on duplicate
	// (symbol, timeframe, ts).
	InsertBulk(ctx context.Context, bars []*domain.Bar) error

	// GetByTimeRange retrieves bars for a symbol/timeframe within
	// [start, end] (inclusive), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, symbol string, timeframe string, start, end time.Time) ([]*domain.Bar, error)

	// GetDay retrieves all bars for a symbol/timeframe on the calendar
	// day containing t, ordered by timestamp ASC.
	GetDay(ctx context.Context, symbol string, timeframe string, t time.Time) ([]*domain.Bar, error)
}

// EntrySignalStore provides access to entry_signals storage.
type EntrySignalStore interface {
	// Insert adds a new signal. Returns ErrDuplicateKey if signal_id exists.
	Insert(ctx context.Context, s *domain.EntrySignal) error

	// InsertBulk adds multiple signals atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, signals []*domain.EntrySignal) error

	// GetByID retrieves a signal by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, signalID string) (*domain.EntrySignal, error)

	// GetByTimeRange retrieves signals within [start, end] (inclusive),
	// ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.EntrySignal, error)

	// GetBySymbol retrieves all signals for a symbol, ordered by timestamp ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.EntrySignal, error)
}

// TradeRecordStore provides access to trade_records storage.
type TradeRecordStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t *domain.TradeRecord) error

	// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, trades []*domain.TradeRecord) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error)

	// GetByStrategyID retrieves all trades for a strategy pipeline.
	GetByStrategyID(ctx context.Context, strategyID string) ([]*domain.TradeRecord, error)

	// GetBySymbol retrieves all trades for a symbol.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.TradeRecord, error)
}
