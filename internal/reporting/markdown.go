package reporting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"intraday-exit-lab/internal/domain"
)

// RenderMarkdown renders the report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Backtest Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Pipeline: `%s`\n\n", r.StrategyID))

	s := r.Summary

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Trades | %d |\n", s.TotalTrades))
	sb.WriteString(fmt.Sprintf("| Unresolved Signals | %d |\n", s.Unresolved))
	sb.WriteString(fmt.Sprintf("| Wins / Losses | %d / %d |\n", s.Wins, s.Losses))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.2f%% |\n", s.WinRate*100))
	sb.WriteString(fmt.Sprintf("| Mean Return | %.4f%% |\n", s.ReturnMean*100))
	sb.WriteString(fmt.Sprintf("| Median Return | %.4f%% |\n", s.ReturnMedian*100))
	sb.WriteString(fmt.Sprintf("| P10 / P90 Return | %.4f%% / %.4f%% |\n", s.ReturnP10*100, s.ReturnP90*100))
	sb.WriteString(fmt.Sprintf("| Return Stddev | %.4f%% |\n", s.ReturnStddev*100))
	sb.WriteString(fmt.Sprintf("| Max Drawdown | %.4f%% |\n", s.MaxDrawdown*100))
	sb.WriteString(fmt.Sprintf("| Max Consecutive Losses | %d |\n", s.MaxConsecutiveLosses))
	sb.WriteString(fmt.Sprintf("| Avg Hold (min) | %.1f |\n", s.AvgHoldMinutes))
	sb.WriteString("\n")

	if len(s.ExitReasonCounts) > 0 {
		sb.WriteString("## Exit Reasons\n\n")
		sb.WriteString("| Reason | Trades |\n")
		sb.WriteString("|--------|--------|\n")

		reasons := make([]string, 0, len(s.ExitReasonCounts))
		for reason := range s.ExitReasonCounts {
			reasons = append(reasons, string(reason))
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", reason, s.ExitReasonCounts[domain.ExitReason(reason)]))
		}
		sb.WriteString("\n")
	}

	if len(r.Trades) > 0 {
		sb.WriteString("## Trades\n\n")
		sb.WriteString("| Entry | Exit | Reason | Return |\n")
		sb.WriteString("|-------|------|--------|--------|\n")
		for _, t := range r.Trades {
			sb.WriteString(fmt.Sprintf("| %s %.4f | %s %.4f | %s | %.4f%% |\n",
				t.EntryTime.Format("2006-01-02 15:04"),
				t.EntryPrice,
				t.ExitTime.Format("15:04"),
				t.ExitPrice,
				t.ExitReason,
				t.ReturnPct*100,
			))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
