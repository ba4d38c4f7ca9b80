package report

import "fmt"

// DefaultOverfitThresholdPct is the tolerated in-sample to out-of-sample
// win-rate drop, in percentage points.
const DefaultOverfitThresholdPct = 10.0

// OverfitWarning describes a win rate that degraded out of sample.
type OverfitWarning struct {
	InSampleWinRatePct  float64
	OutSampleWinRatePct float64
	ThresholdPct        float64
}

// DropPct returns the win-rate drop in percentage points.
func (w OverfitWarning) DropPct() float64 {
	return w.InSampleWinRatePct - w.OutSampleWinRatePct
}

func (w OverfitWarning) String() string {
	return fmt.Sprintf("out-of-sample win rate %.1f%% is %.1f points below in-sample %.1f%% (threshold %.1f), possible overfitting",
		w.OutSampleWinRatePct, w.DropPct(), w.InSampleWinRatePct, w.ThresholdPct)
}

// CheckOverfit reports a warning when the out-of-sample win rate is more
// than thresholdPct points below the in-sample one. A sample without trades
// counts as a 0% win rate.
func CheckOverfit(in, out Stats, thresholdPct float64) (OverfitWarning, bool) {
	w := OverfitWarning{
		InSampleWinRatePct:  winRatePctOrZero(in),
		OutSampleWinRatePct: winRatePctOrZero(out),
		ThresholdPct:        thresholdPct,
	}
	return w, w.OutSampleWinRatePct < w.InSampleWinRatePct-thresholdPct
}

func winRatePctOrZero(s Stats) float64 {
	if s.NoTrades || s.TradeCount == 0 {
		return 0
	}
	return s.WinRatePct()
}
