package report

import (
	"sort"

	"github.com/your-org/orb-backtester/internal/simulator"
)

// MonthLayout formats a trade date as its year-month key.
const MonthLayout = "2006-01"

// MonthStats aggregates the trades of one calendar month.
type MonthStats struct {
	Month  string
	Trades int
	Wins   int
	TotalR float64
}

// WinRatePct returns the month's win rate in percent, 0 for an empty month.
func (m MonthStats) WinRatePct() float64 {
	if m.Trades == 0 {
		return 0
	}
	return float64(m.Wins) / float64(m.Trades) * 100
}

// MonthlyBreakdown groups trades by year-month, ascending.
func MonthlyBreakdown(trades []simulator.Trade) []MonthStats {
	byMonth := make(map[string]*MonthStats)
	for _, t := range trades {
		key := t.Date.Format(MonthLayout)
		m, ok := byMonth[key]
		if !ok {
			m = &MonthStats{Month: key}
			byMonth[key] = m
		}
		m.Trades++
		m.TotalR += t.RMultiple
		if t.RMultiple > 0 {
			m.Wins++
		}
	}

	out := make([]MonthStats, 0, len(byMonth))
	for _, m := range byMonth {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}
