package position

import (
	"fmt"

	"github.com/your-org/orb-backtester/internal/market"
	"github.com/your-org/orb-backtester/internal/signal"
)

// Outcome is how a position was closed.
type Outcome string

const (
	OutcomeWin  Outcome = "WIN"
	OutcomeLoss Outcome = "LOSS"
)

// Position is a single open breakout trade with fixed stop and target.
type Position struct {
	Side   signal.SignalType
	Entry  float64
	Stop   float64
	Target float64
	// RewardR is the R multiple booked when the target is hit.
	RewardR float64
}

// Open creates a Position from a confirmed signal.
func Open(sig *signal.TradingSignal, rewardR float64) *Position {
	return &Position{
		Side:    sig.Type,
		Entry:   sig.EntryPrice,
		Stop:    sig.StopLoss,
		Target:  sig.TakeProfit,
		RewardR: rewardR,
	}
}

// Exit checks bar against the stop first and then the target. At most one
// exit fires per bar; r is -1 for a stop and RewardR for a target.
func (p *Position) Exit(bar market.Bar) (r float64, outcome Outcome, exited bool) {
	switch p.Side {
	case signal.SignalLong:
		if bar.Low <= p.Stop {
			return -1, OutcomeLoss, true
		}
		if bar.High >= p.Target {
			return p.RewardR, OutcomeWin, true
		}
	case signal.SignalShort:
		if bar.High >= p.Stop {
			return -1, OutcomeLoss, true
		}
		if bar.Low <= p.Target {
			return p.RewardR, OutcomeWin, true
		}
	}
	return 0, "", false
}

// String returns a string representation of the position.
func (p *Position) String() string {
	return fmt.Sprintf("Position{Side: %s, Entry: %.2f, Stop: %.2f, Target: %.2f}", p.Side, p.Entry, p.Stop, p.Target)
}
