// Package correlation removes duplicate signals from correlated symbols.
package correlation

import (
	"math"
	"time"

	"github.com/your-org/orb-backtester/internal/simulator"
)

// Pair declares two symbols that move together. On the same date only one
// of them may keep its trade.
type Pair struct {
	First  string
	Second string
}

// DefaultPairs is the broad index ETF and its tracking index ETF.
var DefaultPairs = []Pair{{First: "SPY", Second: "QQQ"}}

type key struct {
	date   time.Time
	symbol string
}

// Apply drops, for every date on which both members of a pair traded, the
// trade with the smaller absolute R. A tie drops the Second member. The
// surviving trades keep their input order.
func Apply(trades []simulator.Trade, pairs []Pair) []simulator.Trade {
	if len(pairs) == 0 || len(trades) == 0 {
		return append([]simulator.Trade(nil), trades...)
	}

	first := make(map[key]int, len(trades))
	for i, t := range trades {
		k := key{t.Date, t.Symbol}
		if _, ok := first[k]; !ok {
			first[k] = i
		}
	}

	drop := make(map[key]bool)
	for _, t := range trades {
		for _, p := range pairs {
			i1, ok1 := first[key{t.Date, p.First}]
			i2, ok2 := first[key{t.Date, p.Second}]
			if !ok1 || !ok2 {
				continue
			}
			if math.Abs(trades[i1].RMultiple) >= math.Abs(trades[i2].RMultiple) {
				drop[key{t.Date, p.Second}] = true
			} else {
				drop[key{t.Date, p.First}] = true
			}
		}
	}

	kept := make([]simulator.Trade, 0, len(trades))
	for _, t := range trades {
		if !drop[key{t.Date, t.Symbol}] {
			kept = append(kept, t)
		}
	}
	return kept
}
