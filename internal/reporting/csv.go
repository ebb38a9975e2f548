package reporting

import (
	"fmt"
	"strings"
	"time"

	"intraday-exit-lab/internal/domain"
)

// RenderTradesCSV renders trade records as a CSV string.
func RenderTradesCSV(trades []*domain.TradeRecord) string {
	var sb strings.Builder

	sb.WriteString("trade_id,signal_id,symbol,strategy_id,is_long,")
	sb.WriteString("entry_signal_price,entry_price,entry_time,")
	sb.WriteString("exit_signal_price,exit_price,exit_time,exit_reason,")
	sb.WriteString("return_pct,hold_minutes,atr\n")

	for _, t := range trades {
		atr := ""
		if t.ATR != nil {
			atr = fmt.Sprintf("%.6f", *t.ATR)
		}
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%t,%.6f,%.6f,%s,%.6f,%.6f,%s,%s,%.6f,%.1f,%s\n",
			t.TradeID,
			t.SignalID,
			t.Symbol,
			t.StrategyID,
			t.IsLong,
			t.EntrySignalPrice,
			t.EntryPrice,
			t.EntryTime.Format(time.RFC3339),
			t.ExitSignalPrice,
			t.ExitPrice,
			t.ExitTime.Format(time.RFC3339),
			t.ExitReason,
			t.ReturnPct,
			t.HoldDuration.Minutes(),
			atr,
		))
	}

	return sb.String()
}
