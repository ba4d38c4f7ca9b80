package csvwriter

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/your-org/orb-backtester/internal/market"
	"github.com/your-org/orb-backtester/internal/report"
	"github.com/your-org/orb-backtester/internal/simulator"
)

// TradeLogHeader is the column layout of the trade log.
var TradeLogHeader = []string{"symbol", "date", "direction", "entry", "stop", "target", "r_mult", "size", "atr", "outcome"}

// TradeRecord formats one trade as a trade log row.
func TradeRecord(t simulator.Trade) []string {
	atr := ""
	if t.ATR.Valid {
		atr = t.ATR.Decimal.StringFixed(4)
	}
	return []string{
		t.Symbol,
		t.Date.Format(market.DateLayout),
		t.Direction.String(),
		t.Entry.StringFixed(2),
		t.Stop.StringFixed(2),
		t.Target.StringFixed(2),
		strconv.FormatFloat(t.RMultiple, 'f', 2, 64),
		t.Size.StringFixed(2),
		atr,
		string(t.Outcome),
	}
}

// WriteTradeLog writes one row per trade to path. Nothing is written, and
// false is returned, when trades is empty.
func WriteTradeLog(path string, trades []simulator.Trade, logger *zap.Logger) (bool, error) {
	if len(trades) == 0 {
		return false, nil
	}
	w, err := NewWriter(path, TradeLogHeader, logger)
	if err != nil {
		return false, err
	}
	for _, t := range trades {
		if err := w.Write(TradeRecord(t)); err != nil {
			w.Close()
			return false, err
		}
	}
	if err := w.Close(); err != nil {
		return false, err
	}
	return true, nil
}

// WriteEquityCurve writes a trade_num column followed by one cumulative R
// column per sample. Rows run to the longest curve; shorter curves repeat
// their last value, or 0 when empty.
func WriteEquityCurve(path string, samples []report.Stats, logger *zap.Logger) error {
	header := make([]string, 0, len(samples)+1)
	header = append(header, "trade_num")
	maxLen := 0
	for _, s := range samples {
		header = append(header, s.Label)
		if len(s.EquityCurve) > maxLen {
			maxLen = len(s.EquityCurve)
		}
	}

	w, err := NewWriter(path, header, logger)
	if err != nil {
		return err
	}
	for i := 0; i < maxLen; i++ {
		row := make([]string, 0, len(header))
		row = append(row, strconv.Itoa(i+1))
		for _, s := range samples {
			row = append(row, formatR(padded(s.EquityCurve, i)))
		}
		if err := w.Write(row); err != nil {
			w.Close()
			return fmt.Errorf("equity curve row %d: %w", i+1, err)
		}
	}
	return w.Close()
}

func padded(curve []float64, i int) float64 {
	switch {
	case i < len(curve):
		return curve[i]
	case len(curve) > 0:
		return curve[len(curve)-1]
	default:
		return 0
	}
}

func formatR(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
