package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"intraday-exit-lab/internal/domain"
	"intraday-exit-lab/internal/storage"
)

// EntrySignalStore implements storage.EntrySignalStore using PostgreSQL.
type EntrySignalStore struct {
	pool *Pool
}

// NewEntrySignalStore creates a new EntrySignalStore.
func NewEntrySignalStore(pool *Pool) *EntrySignalStore {
	return &EntrySignalStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EntrySignalStore = (*EntrySignalStore)(nil)

const entrySignalColumns = `
	signal_id, symbol, timeframe, ts, price, is_long,
	proposed_stop_price, proposed_target_price
`

const insertEntrySignalQuery = `
	INSERT INTO entry_signals (
		signal_id, symbol, timeframe, ts, price, is_long,
		proposed_stop_price, proposed_target_price
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

// Insert adds a new signal. Returns ErrDuplicateKey if signal_id exists.
func (s *EntrySignalStore) Insert(ctx context.Context, sig *domain.EntrySignal) error {
	if sig == nil || sig.SignalID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertEntrySignalQuery,
		sig.SignalID, sig.Symbol, sig.Timeframe, sig.Time, sig.Price, sig.IsLong,
		sig.ProposedStopPrice, sig.ProposedTargetPrice,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert entry signal: %w", err)
	}
	return nil
}

// InsertBulk adds multiple signals atomically. Fails entire batch on any duplicate.
func (s *EntrySignalStore) InsertBulk(ctx context.Context, signals []*domain.EntrySignal) error {
	if len(signals) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, sig := range signals {
		if sig == nil || sig.SignalID == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, insertEntrySignalQuery,
			sig.SignalID, sig.Symbol, sig.Timeframe, sig.Time, sig.Price, sig.IsLong,
			sig.ProposedStopPrice, sig.ProposedTargetPrice,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert entry signal in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByID retrieves a signal by its ID. Returns ErrNotFound if not exists.
func (s *EntrySignalStore) GetByID(ctx context.Context, signalID string) (*domain.EntrySignal, error) {
	query := `SELECT ` + entrySignalColumns + ` FROM entry_signals WHERE signal_id = $1`

	row := s.pool.QueryRow(ctx, query, signalID)
	sig, err := scanEntrySignal(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get entry signal by id: %w", err)
	}
	return sig, nil
}

// GetByTimeRange retrieves signals within [start, end] (inclusive), ordered by timestamp ASC.
func (s *EntrySignalStore) GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.EntrySignal, error) {
	query := `
		SELECT ` + entrySignalColumns + `
		FROM entry_signals
		WHERE ts >= $1 AND ts <= $2
		ORDER BY ts ASC, signal_id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get entry signals by time range: %w", err)
	}
	defer rows.Close()

	return scanEntrySignals(rows)
}

// GetBySymbol retrieves all signals for a symbol, ordered by timestamp ASC.
func (s *EntrySignalStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.EntrySignal, error) {
	query := `
		SELECT ` + entrySignalColumns + `
		FROM entry_signals
		WHERE symbol = $1
		ORDER BY ts ASC, signal_id ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get entry signals by symbol: %w", err)
	}
	defer rows.Close()

	return scanEntrySignals(rows)
}

// scanEntrySignal scans a single row into an EntrySignal.
func scanEntrySignal(row pgx.Row) (*domain.EntrySignal, error) {
	var sig domain.EntrySignal

	err := row.Scan(
		&sig.SignalID, &sig.Symbol, &sig.Timeframe, &sig.Time, &sig.Price, &sig.IsLong,
		&sig.ProposedStopPrice, &sig.ProposedTargetPrice,
	)
	if err != nil {
		return nil, err
	}

	sig.Time = sig.Time.UTC()
	return &sig, nil
}

// scanEntrySignals scans multiple rows into a slice of EntrySignal.
func scanEntrySignals(rows pgx.Rows) ([]*domain.EntrySignal, error) {
	var signals []*domain.EntrySignal

	for rows.Next() {
		sig, err := scanEntrySignal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry signal row: %w", err)
		}
		signals = append(signals, sig)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entry signal rows: %w", err)
	}

	return signals, nil
}
