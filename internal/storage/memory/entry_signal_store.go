package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"intraday-exit-lab/internal/domain"
	"intraday-exit-lab/internal/storage"
)

// EntrySignalStore is an in-memory implementation of storage.EntrySignalStore.
type EntrySignalStore struct {
	mu   sync.RWMutex
	data map[string]*domain.EntrySignal // keyed by signal_id
}

// NewEntrySignalStore creates a new in-memory entry signal store.
func NewEntrySignalStore() *EntrySignalStore {
	return &EntrySignalStore{
		data: make(map[string]*domain.EntrySignal),
	}
}

// Insert adds a new signal. Returns ErrDuplicateKey if signal_id exists.
func (s *EntrySignalStore) Insert(_ context.Context, sig *domain.EntrySignal) error {
	if sig == nil || sig.SignalID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[sig.SignalID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	sigCopy := *sig
	s.data[sig.SignalID] = &sigCopy
	return nil
}

// InsertBulk adds multiple signals atomically. Fails entire batch on any duplicate.
func (s *EntrySignalStore) InsertBulk(_ context.Context, signals []*domain.EntrySignal) error {
	if len(signals) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(signals))
	for _, sig := range signals {
		if sig == nil || sig.SignalID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[sig.SignalID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[sig.SignalID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[sig.SignalID] = struct{}{}
	}

	for _, sig := range signals {
		sigCopy := *sig
		s.data[sig.SignalID] = &sigCopy
	}

	return nil
}

// GetByID retrieves a signal by its ID. Returns ErrNotFound if not exists.
func (s *EntrySignalStore) GetByID(_ context.Context, signalID string) (*domain.EntrySignal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sig, exists := s.data[signalID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	sigCopy := *sig
	return &sigCopy, nil
}

// GetByTimeRange retrieves signals within [start, end] (inclusive), ordered by timestamp ASC.
func (s *EntrySignalStore) GetByTimeRange(_ context.Context, start, end time.Time) ([]*domain.EntrySignal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.EntrySignal
	for _, sig := range s.data {
		if !sig.Time.Before(start) && !sig.Time.After(end) {
			sigCopy := *sig
			result = append(result, &sigCopy)
		}
	}

	sortSignals(result)
	return result, nil
}

// GetBySymbol retrieves all signals for a symbol, ordered by timestamp ASC.
func (s *EntrySignalStore) GetBySymbol(_ context.Context, symbol string) ([]*domain.EntrySignal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.EntrySignal
	for _, sig := range s.data {
		if sig.Symbol == symbol {
			sigCopy := *sig
			result = append(result, &sigCopy)
		}
	}

	sortSignals(result)
	return result, nil
}

func sortSignals(signals []*domain.EntrySignal) {
	sort.Slice(signals, func(i, j int) bool {
		return signals[i].Time.Before(signals[j].Time)
	})
}

var _ storage.EntrySignalStore = (*EntrySignalStore)(nil)
