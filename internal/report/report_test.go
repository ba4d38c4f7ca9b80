package report

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/orb-backtester/internal/simulator"
)

func tradesWithR(start time.Time, rs ...float64) []simulator.Trade {
	out := make([]simulator.Trade, len(rs))
	for i, r := range rs {
		out[i] = simulator.Trade{Symbol: "SPY", Date: start.AddDate(0, 0, i), RMultiple: r}
	}
	return out
}

var jan2 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func TestAnalyzeTrades(t *testing.T) {
	t.Run("勝ち負け混在", func(t *testing.T) {
		stats, err := AnalyzeTrades("ALL", tradesWithR(jan2, 2, -1, -1, 2, -1))
		require.NoError(t, err)

		assert.Equal(t, "ALL", stats.Label)
		assert.False(t, stats.NoTrades)
		assert.Equal(t, 5, stats.TradeCount)
		assert.Equal(t, 2, stats.Wins)
		assert.Equal(t, 3, stats.Losses)
		assert.InDelta(t, 0.4, stats.WinRate, 1e-12)
		assert.InDelta(t, 0.2, stats.AvgR, 1e-12)
		assert.InDelta(t, 1.0, stats.TotalR, 1e-12)
		assert.InDelta(t, 4.0/3.0, stats.ProfitFactor, 1e-12)
		assert.Equal(t, 2.0, stats.AvgWin)
		assert.Equal(t, -1.0, stats.AvgLoss)
		assert.Equal(t, 2, stats.MaxConsecutiveLosses)
		assert.Equal(t, -2.0, stats.MaxDrawdownR)
		if diff := cmp.Diff([]float64{2, 1, 0, 2, 1}, stats.EquityCurve, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
			t.Errorf("equity curve mismatch (-want +got):\n%s", diff)
		}

		// mean 0.2, sample stdev sqrt(2.7)
		want := 0.2 / math.Sqrt(2.7) * math.Sqrt(252)
		assert.InDelta(t, want, stats.Sharpe, 1e-9)
	})

	t.Run("全勝", func(t *testing.T) {
		stats, err := AnalyzeTrades("ALL", tradesWithR(jan2, 2, 2, 2))
		require.NoError(t, err)
		assert.True(t, math.IsInf(stats.ProfitFactor, 1))
		assert.Equal(t, 0.0, stats.MaxDrawdownR)
		// zero dispersion
		assert.Equal(t, 0.0, stats.Sharpe)
		assert.Equal(t, 0.0, stats.AvgLoss)
		assert.Equal(t, 0, stats.MaxConsecutiveLosses)
	})

	t.Run("single trade has no sharpe", func(t *testing.T) {
		stats, err := AnalyzeTrades("ALL", tradesWithR(jan2, -1))
		require.NoError(t, err)
		assert.Equal(t, 0.0, stats.Sharpe)
		assert.Equal(t, 0.0, stats.ProfitFactor)
		assert.Equal(t, 0.0, stats.AvgWin)
		assert.Equal(t, 0.0, stats.MaxDrawdownR)
	})

	t.Run("no trades", func(t *testing.T) {
		stats, err := AnalyzeTrades("OUT-OF-SAMPLE", nil)
		assert.ErrorIs(t, err, ErrNoTrades)
		assert.True(t, stats.NoTrades)
		assert.Equal(t, "OUT-OF-SAMPLE", stats.Label)
		assert.Empty(t, stats.EquityCurve)
		assert.NotNil(t, stats.EquityCurve)
		assert.False(t, math.IsNaN(stats.WinRate))
	})
}

func TestEquityCurve(t *testing.T) {
	assert.Empty(t, EquityCurve(nil))
	assert.Equal(t, []float64{-1, 1, 0}, EquityCurve([]float64{-1, 2, -1}))
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name   string
		equity []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"non-decreasing", []float64{1, 1, 3, 5}, 0},
		{"dip from first point", []float64{-1, -2, 0}, -1},
		{"dip after new high", []float64{2, 4, 1, 3}, -3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaxDrawdown(tt.equity)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, got, 0.0)
		})
	}
}

func TestProfitFactor(t *testing.T) {
	assert.Equal(t, 2.0, ProfitFactor([]float64{2, 2, -1, -1}))
	assert.True(t, math.IsInf(ProfitFactor([]float64{2}), 1))
	assert.True(t, math.IsInf(ProfitFactor(nil), 1))
	assert.Equal(t, 0.0, ProfitFactor([]float64{-1, -1}))
}

func TestMaxConsecutiveLosses(t *testing.T) {
	assert.Equal(t, 0, MaxConsecutiveLosses(nil))
	assert.Equal(t, 3, MaxConsecutiveLosses([]float64{-1, 2, -1, -1, -1, 2, -1}))
}

func TestMonthlyBreakdown(t *testing.T) {
	trades := []simulator.Trade{
		{Date: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), RMultiple: 2},
		{Date: time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC), RMultiple: -1},
		{Date: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), RMultiple: 2},
		{Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), RMultiple: -1},
	}

	want := []MonthStats{
		{Month: "2024-01", Trades: 2, Wins: 1, TotalR: 1},
		{Month: "2024-03", Trades: 2, Wins: 1, TotalR: 1},
	}
	if diff := cmp.Diff(want, MonthlyBreakdown(trades)); diff != "" {
		t.Errorf("MonthlyBreakdown() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 50.0, want[0].WinRatePct())
	assert.Equal(t, 0.0, MonthStats{}.WinRatePct())
}

func TestCheckOverfit(t *testing.T) {
	in := Stats{TradeCount: 10, WinRate: 0.6}

	tests := []struct {
		name string
		out  Stats
		want bool
	}{
		{"small drop", Stats{TradeCount: 4, WinRate: 0.55}, false},
		{"exactly ten points", Stats{TradeCount: 4, WinRate: 0.5}, false},
		{"large drop", Stats{TradeCount: 4, WinRate: 0.25}, true},
		{"missing out-of-sample counts as zero", Stats{NoTrades: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, warn := CheckOverfit(in, tt.out, DefaultOverfitThresholdPct)
			assert.Equal(t, tt.want, warn)
			assert.InDelta(t, 60.0, w.InSampleWinRatePct, 1e-9)
		})
	}

	w, warn := CheckOverfit(Stats{NoTrades: true}, Stats{TradeCount: 1, WinRate: 0}, DefaultOverfitThresholdPct)
	assert.False(t, warn)
	assert.Contains(t, w.String(), "possible overfitting")
}

func TestWriteSummary(t *testing.T) {
	stats, err := AnalyzeTrades("IN-SAMPLE", tradesWithR(jan2, 2, 2))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, stats))
	out := buf.String()
	assert.Contains(t, out, "RESULTS: IN-SAMPLE")
	assert.Contains(t, out, "Win Rate:          100.0%")
	assert.Contains(t, out, "Profit Factor:     inf")

	buf.Reset()
	empty, _ := AnalyzeTrades("OUT-OF-SAMPLE", nil)
	require.NoError(t, WriteSummary(&buf, empty))
	assert.Contains(t, buf.String(), "No trades in OUT-OF-SAMPLE sample")
}

func TestWriteMonthly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMonthly(&buf, []MonthStats{{Month: "2024-01", Trades: 4, Wins: 1, TotalR: -1}}))
	assert.Contains(t, buf.String(), "MONTHLY BREAKDOWN")
	assert.Contains(t, buf.String(), "2024-01")
	assert.Contains(t, buf.String(), "25.0%")
	assert.Contains(t, buf.String(), "-1.00")
}
