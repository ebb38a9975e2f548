package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"intraday-exit-lab/internal/domain"
	"intraday-exit-lab/internal/storage"
)

// TradeRecordStore implements storage.TradeRecordStore using PostgreSQL.
type TradeRecordStore struct {
	pool *Pool
}

// NewTradeRecordStore creates a new TradeRecordStore.
func NewTradeRecordStore(pool *Pool) *TradeRecordStore {
	return &TradeRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeRecordStore = (*TradeRecordStore)(nil)

const tradeRecordColumns = `
	trade_id, signal_id, symbol, strategy_id, is_long,
	entry_signal_price, entry_price, entry_time,
	exit_signal_price, exit_price, exit_time, exit_reason,
	return_pct, hold_duration_ms, atr
`

const insertTradeRecordQuery = `
	INSERT INTO trade_records (
		trade_id, signal_id, symbol, strategy_id, is_long,
		entry_signal_price, entry_price, entry_time,
		exit_signal_price, exit_price, exit_time, exit_reason,
		return_pct, hold_duration_ms, atr
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8,
		$9, $10, $11, $12,
		$13, $14, $15
	)
`

// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeRecordStore) Insert(ctx context.Context, t *domain.TradeRecord) error {
	if t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertTradeRecordQuery, tradeRecordArgs(t)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade record: %w", err)
	}
	return nil
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *TradeRecordStore) InsertBulk(ctx context.Context, trades []*domain.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trades {
		if t == nil || t.TradeID == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, insertTradeRecordQuery, tradeRecordArgs(t)...)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade record in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *TradeRecordStore) GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error) {
	query := `SELECT ` + tradeRecordColumns + ` FROM trade_records WHERE trade_id = $1`

	row := s.pool.QueryRow(ctx, query, tradeID)
	t, err := scanTradeRecord(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade record by id: %w", err)
	}
	return t, nil
}

// GetByStrategyID retrieves all trades for a strategy pipeline.
func (s *TradeRecordStore) GetByStrategyID(ctx context.Context, strategyID string) ([]*domain.TradeRecord, error) {
	query := `
		SELECT ` + tradeRecordColumns + `
		FROM trade_records
		WHERE strategy_id = $1
		ORDER BY entry_time ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, strategyID)
	if err != nil {
		return nil, fmt.Errorf("get trade records by strategy id: %w", err)
	}
	defer rows.Close()

	return scanTradeRecords(rows)
}

// GetBySymbol retrieves all trades for a symbol.
func (s *TradeRecordStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.TradeRecord, error) {
	query := `
		SELECT ` + tradeRecordColumns + `
		FROM trade_records
		WHERE symbol = $1
		ORDER BY entry_time ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get trade records by symbol: %w", err)
	}
	defer rows.Close()

	return scanTradeRecords(rows)
}

// tradeRecordArgs maps a TradeRecord to the insert argument list.
// Hold duration is persisted as integer milliseconds.
func tradeRecordArgs(t *domain.TradeRecord) []any {
	return []any{
		t.TradeID, t.SignalID, t.Symbol, t.StrategyID, t.IsLong,
		t.EntrySignalPrice, t.EntryPrice, t.EntryTime,
		t.ExitSignalPrice, t.ExitPrice, t.ExitTime, string(t.ExitReason),
		t.ReturnPct, t.HoldDuration.Milliseconds(), t.ATR,
	}
}

// scanTradeRecord scans a single row into a TradeRecord.
func scanTradeRecord(row pgx.Row) (*domain.TradeRecord, error) {
	var (
		t          domain.TradeRecord
		reason     string
		holdMillis int64
	)

	err := row.Scan(
		&t.TradeID, &t.SignalID, &t.Symbol, &t.StrategyID, &t.IsLong,
		&t.EntrySignalPrice, &t.EntryPrice, &t.EntryTime,
		&t.ExitSignalPrice, &t.ExitPrice, &t.ExitTime, &reason,
		&t.ReturnPct, &holdMillis, &t.ATR,
	)
	if err != nil {
		return nil, err
	}

	t.ExitReason = domain.ExitReason(reason)
	t.HoldDuration = time.Duration(holdMillis) * time.Millisecond
	t.EntryTime = t.EntryTime.UTC()
	t.ExitTime = t.ExitTime.UTC()
	return &t, nil
}

// scanTradeRecords scans multiple rows into a slice of TradeRecord.
func scanTradeRecords(rows pgx.Rows) ([]*domain.TradeRecord, error) {
	var trades []*domain.TradeRecord

	for rows.Next() {
		t, err := scanTradeRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade record row: %w", err)
		}
		trades = append(trades, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade record rows: %w", err)
	}

	return trades, nil
}
