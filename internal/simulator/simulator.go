// Package simulator replays one symbol's intraday bars through the opening
// range breakout rule.
package simulator

import (
	"time"

	"github.com/your-org/orb-backtester/internal/filter"
	"github.com/your-org/orb-backtester/internal/market"
	"github.com/your-org/orb-backtester/internal/pnl"
	"github.com/your-org/orb-backtester/internal/position"
	"github.com/your-org/orb-backtester/internal/signal"
	"github.com/your-org/orb-backtester/internal/sizing"
)

// Params are the strategy settings shared by every day of a run.
type Params struct {
	WindowBars     int
	MinDayBars     int
	RiskMultiplier float64
	Filters        filter.Chain
	Sizer          sizing.Sizer
}

// DefaultParams returns the stock strategy in loc.
func DefaultParams(loc *time.Location) Params {
	return Params{
		WindowBars:     signal.DefaultWindowBars,
		MinDayBars:     signal.DefaultWindowBars + 2,
		RiskMultiplier: signal.DefaultRiskMultiplier,
		Filters:        filter.DefaultChain(loc),
		Sizer:          sizing.Default(),
	}
}

// SymbolResult is the output of SimulateSymbol.
type SymbolResult struct {
	Symbol string
	Trades []Trade
	Days   []DayResult
}

// Counts tallies Days by kind.
func (r SymbolResult) Counts() map[DayKind]int {
	counts := make(map[DayKind]int, len(DayKinds))
	for _, d := range r.Days {
		counts[d.Kind()]++
	}
	return counts
}

// SimulateSymbol groups intraday bars by session date and simulates each day
// in order. daily must be in time order; it feeds the gap filter and ATR.
// Each day's ledger entry is dropped once the day completes.
func SimulateSymbol(symbol string, intraday, daily []market.Bar, p Params, ledger *pnl.DailyLedger) SymbolResult {
	res := SymbolResult{Symbol: symbol}
	for _, td := range market.GroupByDate(intraday, p.Filters.Location) {
		dr := SimulateDay(symbol, td, daily, p, ledger)
		ledger.CloseDay(symbol, td.Date)
		res.Days = append(res.Days, dr)
		if t, ok := dr.(Traded); ok {
			res.Trades = append(res.Trades, t.Trade)
		}
	}
	return res
}

// SimulateDay runs the FLAT -> LONG/SHORT -> DONE state machine for one day.
func SimulateDay(symbol string, td market.TradingDay, daily []market.Bar, p Params, ledger *pnl.DailyLedger) DayResult {
	base := day{date: td.Date}
	bars := td.Bars

	if len(bars) < p.MinDayBars || len(bars) <= p.WindowBars || p.WindowBars <= 0 {
		return NoData{day: base, Bars: len(bars)}
	}

	prevClose, hasPrev := market.PrevClose(daily, td.Date)
	if !p.Filters.Gap(bars, prevClose, hasPrev) {
		return GapSkipped{day: base, PrevClose: prevClose, HasPrev: hasPrev}
	}

	sized := p.Sizer.ForDate(daily, td.Date)

	window := signal.NewWindow(bars[:p.WindowBars])
	if window.RangeSize() <= 0 {
		return DeadMarket{day: base, Window: window}
	}

	var pos *position.Position
	for i := p.WindowBars; i < len(bars); i++ {
		bar := bars[i]

		if realized := ledger.Realized(symbol, td.Date); p.Filters.Halted(realized) {
			return Halted{day: base, RealizedR: realized}
		}

		if pos == nil {
			if !p.Filters.EntryAllowed(bar) {
				return NoBreakout{day: base, Window: window, CutoffReached: true}
			}
			side := signal.Breakout(bar, window)
			if side != signal.SignalNone && p.Filters.Volume(bars, i) {
				pos = position.Open(signal.NewTradingSignal(side, window, p.RiskMultiplier, bar.Time), p.RiskMultiplier)
			}
		}

		// Exits are checked on the entry bar as well.
		if pos != nil {
			if r, outcome, exited := pos.Exit(bar); exited {
				ledger.Add(symbol, td.Date, r)
				trade := newTrade(symbol, td.Date, pos, r, outcome, sized.Size, sized.ATR, sized.ATROK)
				return Traded{day: base, Trade: trade}
			}
		}
	}

	if pos != nil {
		return Unresolved{day: base, Position: *pos}
	}
	return NoBreakout{day: base, Window: window}
}
