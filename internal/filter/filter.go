// Package filter implements the entry gates applied to each trading day.
package filter

import (
	"math"
	"time"

	"github.com/your-org/orb-backtester/internal/market"
	"github.com/your-org/orb-backtester/pkg/ringbuf"
)

const (
	DefaultGapThreshold     = 0.015
	DefaultVolumeMultiplier = 1.5
	DefaultVolumeLookback   = 5
	DefaultMaxDailyLossR    = -3.0
	// minPriorBars is the smallest prior window that volume confirmation judges.
	minPriorBars = 3
)

// DefaultLateEntryCutoff is 11:30 session time, in minutes after midnight.
const DefaultLateEntryCutoff = 11*60 + 30

// GapFilter reports whether the day's opening gap against prevClose is within
// threshold. It fails when there is no previous close or no bars.
func GapFilter(dayBars []market.Bar, prevClose float64, hasPrev bool, threshold float64) bool {
	if !hasPrev || prevClose == 0 || len(dayBars) == 0 {
		return false
	}
	gap := math.Abs(dayBars[0].Open-prevClose) / prevClose
	return gap <= threshold
}

// VolumeConfirmation reports whether breakout volume is at least multiplier
// times the mean volume of the last lookback prior bars. Fewer than three
// prior bars always confirm.
func VolumeConfirmation(breakout market.Bar, prior []market.Bar, multiplier float64, lookback int) bool {
	if len(prior) < minPriorBars {
		return true
	}
	if lookback <= 0 {
		lookback = DefaultVolumeLookback
	}
	window := ringbuf.New[market.Bar](lookback)
	for _, b := range prior {
		window.Add(b)
	}
	avg := ringbuf.Mean(window, func(b market.Bar) float64 { return b.Volume })
	return breakout.Volume >= avg*multiplier
}

// MinuteOfDay returns t's minutes after midnight in loc.
func MinuteOfDay(t time.Time, loc *time.Location) int {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Hour()*60 + t.Minute()
}

// LateEntryFilter reports whether an entry is still allowed on bar, that is
// whether its session time of day is at or before cutoffMinute.
func LateEntryFilter(bar market.Bar, cutoffMinute int, loc *time.Location) bool {
	return MinuteOfDay(bar.Time, loc) <= cutoffMinute
}

// CircuitBreakerTripped reports whether the day's realized R has reached floor.
func CircuitBreakerTripped(cumulativeR, floor float64) bool {
	return cumulativeR <= floor
}

// Chain bundles the filter parameters used by the simulator.
type Chain struct {
	GapThreshold     float64
	VolumeMultiplier float64
	VolumeLookback   int
	LateEntryCutoff  int // minutes after midnight, session time
	MaxDailyLossR    float64
	Location         *time.Location
}

// DefaultChain returns the stock filter settings in loc.
func DefaultChain(loc *time.Location) Chain {
	return Chain{
		GapThreshold:     DefaultGapThreshold,
		VolumeMultiplier: DefaultVolumeMultiplier,
		VolumeLookback:   DefaultVolumeLookback,
		LateEntryCutoff:  DefaultLateEntryCutoff,
		MaxDailyLossR:    DefaultMaxDailyLossR,
		Location:         loc,
	}
}

func (c Chain) Gap(dayBars []market.Bar, prevClose float64, hasPrev bool) bool {
	return GapFilter(dayBars, prevClose, hasPrev, c.GapThreshold)
}

// Volume checks bars[i] against the bars that precede it in the same day.
func (c Chain) Volume(bars []market.Bar, i int) bool {
	lookback := c.VolumeLookback
	if lookback <= 0 {
		lookback = DefaultVolumeLookback
	}
	start := i - lookback
	if start < 0 {
		start = 0
	}
	return VolumeConfirmation(bars[i], bars[start:i], c.VolumeMultiplier, lookback)
}

func (c Chain) EntryAllowed(bar market.Bar) bool {
	return LateEntryFilter(bar, c.LateEntryCutoff, c.Location)
}

func (c Chain) Halted(cumulativeR float64) bool {
	return CircuitBreakerTripped(cumulativeR, c.MaxDailyLossR)
}
