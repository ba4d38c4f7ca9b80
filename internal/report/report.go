// Package report computes performance statistics over a list of trades.
package report

import (
	"errors"
	"math"

	"github.com/your-org/orb-backtester/internal/simulator"
)

// ErrNoTrades is returned by AnalyzeTrades when the list is empty.
var ErrNoTrades = errors.New("no trades to analyze")

// AnnualizationFactor is the number of trading sessions assumed per year.
const AnnualizationFactor = 252

// Stats は取引リストから算出した成績を保持します。
type Stats struct {
	Label                string
	TradeCount           int
	Wins                 int
	Losses               int
	WinRate              float64 // fraction in [0, 1]
	AvgR                 float64
	TotalR               float64
	MaxDrawdownR         float64
	ProfitFactor         float64 // +Inf when there are no losses; render with FormatProfitFactor
	Sharpe               float64
	AvgWin               float64
	AvgLoss              float64
	MaxConsecutiveLosses int
	EquityCurve          []float64
	Monthly              []MonthStats
	NoTrades             bool
}

// WinRatePct returns WinRate in percent.
func (s Stats) WinRatePct() float64 {
	return s.WinRate * 100
}

// AnalyzeTrades はトレードリストを分析して成績を算出します。
// An empty list yields a Stats flagged NoTrades together with ErrNoTrades.
func AnalyzeTrades(label string, trades []simulator.Trade) (Stats, error) {
	if len(trades) == 0 {
		return Stats{Label: label, NoTrades: true, EquityCurve: []float64{}}, ErrNoTrades
	}

	rs := RMultiples(trades)
	n := float64(len(rs))

	var wins, losses []float64
	for _, r := range rs {
		if r > 0 {
			wins = append(wins, r)
		} else {
			losses = append(losses, r)
		}
	}

	equity := EquityCurve(rs)
	total := equity[len(equity)-1]

	return Stats{
		Label:                label,
		TradeCount:           len(rs),
		Wins:                 len(wins),
		Losses:               len(losses),
		WinRate:              float64(len(wins)) / n,
		AvgR:                 total / n,
		TotalR:               total,
		MaxDrawdownR:         MaxDrawdown(equity),
		ProfitFactor:         ProfitFactor(rs),
		Sharpe:               Sharpe(rs),
		AvgWin:               mean(wins),
		AvgLoss:              mean(losses),
		MaxConsecutiveLosses: MaxConsecutiveLosses(rs),
		EquityCurve:          equity,
		Monthly:              MonthlyBreakdown(trades),
	}, nil
}

// RMultiples extracts the R multiple of each trade in order.
func RMultiples(trades []simulator.Trade) []float64 {
	rs := make([]float64, len(trades))
	for i, t := range trades {
		rs[i] = t.RMultiple
	}
	return rs
}

// EquityCurve returns the running sum of rs. It is empty for empty input.
func EquityCurve(rs []float64) []float64 {
	curve := make([]float64, len(rs))
	var running float64
	for i, r := range rs {
		running += r
		curve[i] = running
	}
	return curve
}

// MaxDrawdown returns min(eq[i] - max(eq[0..i])). It is never positive and
// is 0 exactly when the curve never falls below a previous high.
func MaxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}
	peak := equity[0]
	var maxDD float64
	for _, e := range equity {
		if e > peak {
			peak = e
		}
		if dd := e - peak; dd < maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// ProfitFactor returns gross winning R over gross losing R, or +Inf when no
// trade lost.
func ProfitFactor(rs []float64) float64 {
	var grossWin, grossLoss float64
	for _, r := range rs {
		switch {
		case r > 0:
			grossWin += r
		case r < 0:
			grossLoss += -r
		}
	}
	if grossLoss == 0 {
		return math.Inf(1)
	}
	return grossWin / grossLoss
}

// Sharpe returns mean/stdev*sqrt(252) using the sample standard deviation,
// or 0 with fewer than two trades or zero dispersion.
func Sharpe(rs []float64) float64 {
	if len(rs) < 2 {
		return 0
	}
	m := mean(rs)
	sd := sampleStdDev(rs, m)
	if sd == 0 {
		return 0
	}
	return m / sd * math.Sqrt(AnnualizationFactor)
}

// MaxConsecutiveLosses returns the longest run of r < 0.
func MaxConsecutiveLosses(rs []float64) int {
	var longest, current int
	for _, r := range rs {
		if r < 0 {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 0
		}
	}
	return longest
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStdDev はリターンの標本標準偏差を計算します。
func sampleStdDev(xs []float64, m float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var variance float64
	for _, x := range xs {
		variance += math.Pow(x-m, 2)
	}
	return math.Sqrt(variance / float64(len(xs)-1))
}
