// Package walkforward splits a trade history into in-sample and
// out-of-sample segments at a point in time.
package walkforward

import (
	"math"
	"sort"

	"github.com/your-org/orb-backtester/internal/simulator"
)

// DefaultInSampleRatio is the share of trades assigned to the in-sample segment.
const DefaultInSampleRatio = 0.70

// SortByDate returns a copy of trades stably sorted by date.
func SortByDate(trades []simulator.Trade) []simulator.Trade {
	sorted := append([]simulator.Trade(nil), trades...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}

// Split sorts trades by date and cuts them at floor(n * ratio). Both halves
// stay in chronological order. No shuffling is done.
func Split(trades []simulator.Trade, ratio float64) (in, out []simulator.Trade) {
	sorted := SortByDate(trades)
	idx := int(math.Floor(float64(len(sorted)) * ratio))
	if idx < 0 {
		idx = 0
	}
	if idx > len(sorted) {
		idx = len(sorted)
	}
	return sorted[:idx:idx], sorted[idx:]
}
