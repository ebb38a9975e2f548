package idhash

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(signal_id|symbol|strategy_id|entry_time_unix_ms)
// Returns the base58-encoded hash, short enough to read in reports.
func ComputeTradeID(
	signalID string,
	symbol string,
	strategyID string,
	entryTimeMs int64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%d",
		signalID,
		symbol,
		strategyID,
		entryTimeMs,
	)

	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])
}
