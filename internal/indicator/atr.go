// Copyright (c) 2024 OBI-Scalp-Bot
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package indicator

import "github.com/your-org/orb-backtester/internal/market"

// DefaultATRPeriod is the lookback, in days, of AverageTrueRange.
const DefaultATRPeriod = 14

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|).
func TrueRange(bar market.Bar, prevClose float64) float64 {
	tr := bar.High - bar.Low
	if d := abs(bar.High - prevClose); d > tr {
		tr = d
	}
	if d := abs(bar.Low - prevClose); d > tr {
		tr = d
	}
	return tr
}

// AverageTrueRange returns the mean of the most recent period true ranges of
// daily. Each bar after the first contributes one true range, so at least
// period+1 bars are needed; otherwise ok is false.
func AverageTrueRange(daily []market.Bar, period int) (atr float64, ok bool) {
	if period <= 0 || len(daily) < period+1 {
		return 0, false
	}
	var sum float64
	for i := len(daily) - period; i < len(daily); i++ {
		sum += TrueRange(daily[i], daily[i-1].Close)
	}
	return sum / float64(period), true
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
