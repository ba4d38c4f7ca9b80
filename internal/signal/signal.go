// Package signal detects opening range breakouts.
package signal

import (
	"time"

	"github.com/your-org/orb-backtester/internal/market"
)

// SignalType is the direction of a breakout.
type SignalType int

const (
	// SignalNone indicates no breakout.
	SignalNone SignalType = iota
	// SignalLong indicates a break above the opening range.
	SignalLong
	// SignalShort indicates a break below the opening range.
	SignalShort
)

// String returns the string representation of SignalType.
func (s SignalType) String() string {
	switch s {
	case SignalLong:
		return "LONG"
	case SignalShort:
		return "SHORT"
	case SignalNone:
		return "NONE"
	default:
		return "UNKNOWN"
	}
}

// DefaultWindowBars is the opening range length in bars (30 minutes of 5-minute bars).
const DefaultWindowBars = 6

// DefaultRiskMultiplier is the profit target in R.
const DefaultRiskMultiplier = 2.0

// Window is the opening range of a trading day.
type Window struct {
	High float64
	Low  float64
}

// RangeSize returns High - Low. A window with RangeSize <= 0 is untradeable.
func (w Window) RangeSize() float64 {
	return w.High - w.Low
}

// NewWindow builds the opening range from bars. bars must not be empty.
func NewWindow(bars []market.Bar) Window {
	w := Window{High: bars[0].High, Low: bars[0].Low}
	for _, b := range bars[1:] {
		if b.High > w.High {
			w.High = b.High
		}
		if b.Low < w.Low {
			w.Low = b.Low
		}
	}
	return w
}

// Breakout reports which side of w bar trades through. The short side is
// only considered when the bar did not take out the high.
func Breakout(bar market.Bar, w Window) SignalType {
	if bar.High > w.High {
		return SignalLong
	}
	if bar.Low < w.Low {
		return SignalShort
	}
	return SignalNone
}

// TradingSignal holds a confirmed breakout and its exit levels.
type TradingSignal struct {
	Type        SignalType
	EntryPrice  float64
	TakeProfit  float64
	StopLoss    float64
	TriggerTime time.Time
}

// NewTradingSignal places entry at the broken edge of w, the stop at the
// opposite edge and the target riskMultiplier ranges away from entry.
func NewTradingSignal(t SignalType, w Window, riskMultiplier float64, at time.Time) *TradingSignal {
	reward := w.RangeSize() * riskMultiplier
	switch t {
	case SignalLong:
		return &TradingSignal{Type: t, EntryPrice: w.High, StopLoss: w.Low, TakeProfit: w.High + reward, TriggerTime: at}
	case SignalShort:
		return &TradingSignal{Type: t, EntryPrice: w.Low, StopLoss: w.High, TakeProfit: w.Low - reward, TriggerTime: at}
	default:
		return nil
	}
}
