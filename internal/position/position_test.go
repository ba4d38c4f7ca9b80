package position

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/your-org/orb-backtester/internal/market"
	"github.com/your-org/orb-backtester/internal/signal"
)

func openPosition(side signal.SignalType) *Position {
	w := signal.Window{High: 101, Low: 99}
	return Open(signal.NewTradingSignal(side, w, 2, time.Time{}), 2)
}

func TestPosition_Exit_Long(t *testing.T) {
	p := openPosition(signal.SignalLong)

	tests := []struct {
		name    string
		bar     market.Bar
		r       float64
		outcome Outcome
		exited  bool
	}{
		{"no exit", market.Bar{High: 104, Low: 100}, 0, "", false},
		{"target hit", market.Bar{High: 105, Low: 103}, 2, OutcomeWin, true},
		{"stop hit", market.Bar{High: 100, Low: 99}, -1, OutcomeLoss, true},
		{"stop wins a tie with target", market.Bar{High: 106, Low: 98}, -1, OutcomeLoss, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, outcome, exited := p.Exit(tt.bar)
			assert.Equal(t, tt.r, r)
			assert.Equal(t, tt.outcome, outcome)
			assert.Equal(t, tt.exited, exited)
		})
	}
}

func TestPosition_Exit_Short(t *testing.T) {
	p := openPosition(signal.SignalShort)
	assert.Equal(t, 95.0, p.Target)

	r, outcome, exited := p.Exit(market.Bar{High: 98, Low: 95})
	assert.True(t, exited)
	assert.Equal(t, 2.0, r)
	assert.Equal(t, OutcomeWin, outcome)

	r, outcome, exited = p.Exit(market.Bar{High: 101, Low: 94})
	assert.True(t, exited)
	assert.Equal(t, -1.0, r)
	assert.Equal(t, OutcomeLoss, outcome)

	_, _, exited = p.Exit(market.Bar{High: 100, Low: 96})
	assert.False(t, exited)
}

func TestPosition_String(t *testing.T) {
	p := openPosition(signal.SignalLong)
	assert.Equal(t, "Position{Side: LONG, Entry: 101.00, Stop: 99.00, Target: 105.00}", p.String())
}
