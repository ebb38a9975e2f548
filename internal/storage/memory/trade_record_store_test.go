package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"intraday-exit-lab/internal/domain"
	"intraday-exit-lab/internal/storage"
)

func sampleTrade(tradeID, strategyID string, entry time.Time) *domain.TradeRecord {
	return &domain.TradeRecord{
		TradeID:          tradeID,
		SignalID:         "s-" + tradeID,
		Symbol:           "SPY",
		StrategyID:       strategyID,
		IsLong:           true,
		EntrySignalPrice: 100.0,
		EntryPrice:       100.05,
		EntryTime:        entry,
		ExitSignalPrice:  101.0,
		ExitPrice:        100.95,
		ExitTime:         entry.Add(30 * time.Minute),
		ExitReason:       domain.ExitReasonProfitTarget,
		ReturnPct:        0.9,
		HoldDuration:     30 * time.Minute,
	}
}

func TestTradeRecordStore_InsertAndGet(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()
	entry := time.Date(2024, 3, 5, 13, 1, 0, 0, time.UTC)

	if err := store.Insert(ctx, sampleTrade("t1", "stopLoss_pct1.00", entry)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "t1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.ExitReason != domain.ExitReasonProfitTarget {
		t.Errorf("Unexpected exit reason: %s", got.ExitReason)
	}
}

func TestTradeRecordStore_DuplicateKey(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()
	entry := time.Date(2024, 3, 5, 13, 1, 0, 0, time.UTC)

	trade := sampleTrade("t1", "stopLoss_pct1.00", entry)
	if err := store.Insert(ctx, trade); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, trade)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestTradeRecordStore_GetByStrategyID(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()
	entry := time.Date(2024, 3, 5, 13, 1, 0, 0, time.UTC)

	trades := []*domain.TradeRecord{
		sampleTrade("t1", "pipelineA", entry.Add(10*time.Minute)),
		sampleTrade("t2", "pipelineA", entry),
		sampleTrade("t3", "pipelineB", entry),
	}
	if err := store.InsertBulk(ctx, trades); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByStrategyID(ctx, "pipelineA")
	if err != nil {
		t.Fatalf("GetByStrategyID failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 trades, got %d", len(result))
	}
	if result[0].TradeID != "t2" {
		t.Errorf("Expected entry-time ASC order, got %s first", result[0].TradeID)
	}
}

func TestTradeRecordStore_InvalidInput(t *testing.T) {
	store := NewTradeRecordStore()

	if err := store.Insert(context.Background(), nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil trade, got %v", err)
	}
	if err := store.Insert(context.Background(), &domain.TradeRecord{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty trade_id, got %v", err)
	}
}
