package csvwriter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/your-org/orb-backtester/internal/position"
	"github.com/your-org/orb-backtester/internal/report"
	"github.com/your-org/orb-backtester/internal/signal"
	"github.com/your-org/orb-backtester/internal/simulator"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func sampleTrade() simulator.Trade {
	return simulator.Trade{
		Symbol:    "SPY",
		Date:      time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Direction: signal.SignalLong,
		Entry:     decimal.NewFromFloat(101),
		Stop:      decimal.NewFromFloat(99),
		Target:    decimal.NewFromFloat(105),
		RMultiple: 2,
		Size:      decimal.NewFromFloat(42.86),
		ATR:       decimal.NewNullDecimal(decimal.NewFromFloat(7.12345).Round(4)),
		Outcome:   position.OutcomeWin,
	}
}

func TestWriteTradeLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "trade_log.csv")

	noATR := sampleTrade()
	noATR.Symbol = "QQQ"
	noATR.ATR = decimal.NullDecimal{}
	noATR.RMultiple = -1
	noATR.Outcome = position.OutcomeLoss

	written, err := WriteTradeLog(path, []simulator.Trade{sampleTrade(), noATR}, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, written)

	want := [][]string{
		TradeLogHeader,
		{"SPY", "2024-03-05", "LONG", "101.00", "99.00", "105.00", "2.00", "42.86", "7.1235", "WIN"},
		{"QQQ", "2024-03-05", "LONG", "101.00", "99.00", "105.00", "-1.00", "42.86", "", "LOSS"},
	}
	if diff := cmp.Diff(want, readCSV(t, path)); diff != "" {
		t.Errorf("trade log mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteTradeLog_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trade_log.csv")
	written, err := WriteTradeLog(path, nil, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, written)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriteEquityCurve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "equity_curve.csv")
	samples := []report.Stats{
		{Label: "IN-SAMPLE", EquityCurve: []float64{2, 1, 3}},
		{Label: "OUT-OF-SAMPLE", EquityCurve: []float64{-1}},
		{Label: "EMPTY", EquityCurve: []float64{}},
	}
	require.NoError(t, WriteEquityCurve(path, samples, zap.NewNop()))

	want := [][]string{
		{"trade_num", "IN-SAMPLE", "OUT-OF-SAMPLE", "EMPTY"},
		{"1", "2", "-1", "0"},
		{"2", "1", "-1", "0"},
		{"3", "3", "-1", "0"},
	}
	if diff := cmp.Diff(want, readCSV(t, path)); diff != "" {
		t.Errorf("equity curve mismatch (-want +got):\n%s", diff)
	}
}

func TestWriter_Rows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv")
	w, err := NewWriter(path, []string{"a"}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Write([]string{"1"}))
	require.NoError(t, w.Write([]string{"2"}))
	require.NoError(t, w.Close())
	assert.Equal(t, 2, w.rows)
	assert.Len(t, readCSV(t, path), 3)
}
