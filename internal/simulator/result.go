package simulator

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/your-org/orb-backtester/internal/position"
	"github.com/your-org/orb-backtester/internal/signal"
)

// Trade is one completed entry/exit pair. At most one exists per (symbol, date).
type Trade struct {
	Symbol    string
	Date      time.Time
	Direction signal.SignalType
	Entry     decimal.Decimal
	Stop      decimal.Decimal
	Target    decimal.Decimal
	RMultiple float64
	Size      decimal.Decimal
	ATR       decimal.NullDecimal
	Outcome   position.Outcome
}

func newTrade(symbol string, date time.Time, p *position.Position, r float64, outcome position.Outcome, size float64, atr float64, atrOK bool) Trade {
	t := Trade{
		Symbol:    symbol,
		Date:      date,
		Direction: p.Side,
		Entry:     decimal.NewFromFloat(p.Entry).Round(2),
		Stop:      decimal.NewFromFloat(p.Stop).Round(2),
		Target:    decimal.NewFromFloat(p.Target).Round(2),
		RMultiple: r,
		Size:      decimal.NewFromFloat(size).Round(2),
		Outcome:   outcome,
	}
	if atrOK {
		t.ATR = decimal.NewNullDecimal(decimal.NewFromFloat(atr).Round(4))
	}
	return t
}

// DayKind names the terminal state of one simulated trading day.
type DayKind string

const (
	KindNoData     DayKind = "no_data"
	KindGapSkipped DayKind = "gap_skipped"
	KindDeadMarket DayKind = "dead_market"
	KindNoBreakout DayKind = "no_breakout"
	KindHalted     DayKind = "halted"
	KindUnresolved DayKind = "unresolved"
	KindTraded     DayKind = "traded"
)

// DayKinds lists every DayKind in reporting order.
var DayKinds = []DayKind{
	KindTraded, KindNoBreakout, KindUnresolved, KindGapSkipped, KindDeadMarket, KindNoData, KindHalted,
}

// DayResult is the outcome of simulating one (symbol, date). The concrete
// types below are the only implementations.
type DayResult interface {
	Date() time.Time
	Kind() DayKind
	isDayResult()
}

type day struct{ date time.Time }

func (d day) Date() time.Time { return d.date }
func (day) isDayResult()      {}

// NoData is a day with fewer bars than the opening range needs.
type NoData struct {
	day
	Bars int
}

func (NoData) Kind() DayKind { return KindNoData }

// GapSkipped is a day rejected by the gap filter.
type GapSkipped struct {
	day
	PrevClose float64
	HasPrev   bool
}

func (GapSkipped) Kind() DayKind { return KindGapSkipped }

// DeadMarket is a day whose opening range has no width.
type DeadMarket struct {
	day
	Window signal.Window
}

func (DeadMarket) Kind() DayKind { return KindDeadMarket }

// NoBreakout is a day that never produced a confirmed entry.
type NoBreakout struct {
	day
	Window signal.Window
	// CutoffReached is set when scanning stopped at the late-entry cutoff.
	CutoffReached bool
}

func (NoBreakout) Kind() DayKind { return KindNoBreakout }

// Halted is a day on which the daily loss circuit breaker stopped scanning.
type Halted struct {
	day
	RealizedR float64
}

func (Halted) Kind() DayKind { return KindHalted }

// Unresolved is a day whose position neither stopped out nor reached target.
// No Trade is recorded for it.
type Unresolved struct {
	day
	Position position.Position
}

func (Unresolved) Kind() DayKind { return KindUnresolved }

// Traded is a day that produced a Trade.
type Traded struct {
	day
	Trade Trade
}

func (Traded) Kind() DayKind { return KindTraded }
