package domain

import "time"

// Bar represents one OHLCV sample for a fixed interval.
// Bars are provider-owned and immutable; the provider guarantees
// low <= open,close <= high and ascending timestamps within a day.
type Bar struct {
	Symbol    string
	Timeframe string
	Time      time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Supported bar timeframes.
const (
	Timeframe1Min  = "1m"
	Timeframe5Min  = "5m"
	Timeframe15Min = "15m"
)
