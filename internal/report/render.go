package report

import (
	"fmt"
	"io"
	"math"
	"strings"
)

const rule = "=================================================="

// WriteSummary prints the statistics block for one sample.
func WriteSummary(w io.Writer, s Stats) error {
	var b strings.Builder
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "  RESULTS: %s\n", s.Label)
	fmt.Fprintln(&b, rule)
	if s.NoTrades {
		fmt.Fprintf(&b, "  No trades in %s sample\n", s.Label)
		fmt.Fprintln(&b, rule)
		_, err := io.WriteString(w, b.String())
		return err
	}
	fmt.Fprintf(&b, "  Trades:            %d\n", s.TradeCount)
	fmt.Fprintf(&b, "  Win Rate:          %.1f%%\n", s.WinRatePct())
	fmt.Fprintf(&b, "  Avg R per trade:   %.3f\n", s.AvgR)
	fmt.Fprintf(&b, "  Total R:           %.2f\n", s.TotalR)
	fmt.Fprintf(&b, "  Max Drawdown (R):  %.2f\n", s.MaxDrawdownR)
	fmt.Fprintf(&b, "  Profit Factor:     %s\n", FormatProfitFactor(s.ProfitFactor))
	fmt.Fprintf(&b, "  Sharpe Ratio:      %.2f\n", s.Sharpe)
	fmt.Fprintf(&b, "  Avg Win (R):       %.3f\n", s.AvgWin)
	fmt.Fprintf(&b, "  Avg Loss (R):      %.3f\n", s.AvgLoss)
	fmt.Fprintf(&b, "  Max Consec Losses: %d\n", s.MaxConsecutiveLosses)
	fmt.Fprintln(&b, rule)
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteMonthly prints the monthly breakdown table.
func WriteMonthly(w io.Writer, months []MonthStats) error {
	var b strings.Builder
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "  MONTHLY BREAKDOWN")
	fmt.Fprintf(&b, "  %-10s %8s %8s %10s\n", "Month", "Trades", "WinRate", "Total R")
	fmt.Fprintf(&b, "  %s\n", strings.Repeat("-", 40))
	for _, m := range months {
		fmt.Fprintf(&b, "  %-10s %8d %7.1f%% %10.2f\n", m.Month, m.Trades, m.WinRatePct(), m.TotalR)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// FormatProfitFactor renders an unbounded profit factor as "inf".
func FormatProfitFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", pf)
}
