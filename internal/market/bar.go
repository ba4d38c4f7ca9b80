// Package market holds the bar types shared by the data adapters and the simulator.
package market

import (
	"sort"
	"time"
)

// Bar is one OHLCV candle. Bars are immutable once loaded.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// TradingDay is a calendar date plus that date's intraday bars in time order.
type TradingDay struct {
	Date time.Time
	Bars []Bar
}

// DateLayout is the canonical text form of a trading date.
const DateLayout = "2006-01-02"

// DateOf returns the calendar date of t in loc as midnight UTC.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	return midnightUTC(t)
}

// RecordedDate returns the UTC calendar date of a daily bar's timestamp.
// The zone a driver happened to scan t into does not matter, so a bar
// stamped 2024-03-05T05:00:00Z is always dated 2024-03-05.
func RecordedDate(t time.Time) time.Time {
	return midnightUTC(t.UTC())
}

func midnightUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// GroupByDate partitions intraday bars by session calendar date. Dates come
// back ascending and bars within a date are sorted by timestamp. No bars are
// filtered out here.
func GroupByDate(bars []Bar, loc *time.Location) []TradingDay {
	if len(bars) == 0 {
		return nil
	}

	index := make(map[time.Time]int)
	var days []TradingDay
	for _, b := range bars {
		date := DateOf(b.Time, loc)
		i, ok := index[date]
		if !ok {
			i = len(days)
			index[date] = i
			days = append(days, TradingDay{Date: date})
		}
		days[i].Bars = append(days[i].Bars, b)
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	for i := range days {
		sort.SliceStable(days[i].Bars, func(a, b int) bool {
			return days[i].Bars[a].Time.Before(days[i].Bars[b].Time)
		})
	}
	return days
}

// Before returns the bars whose recorded date is strictly before date.
// The input must be in time order; the result aliases it.
func Before(daily []Bar, date time.Time) []Bar {
	n := sort.Search(len(daily), func(i int) bool {
		return !RecordedDate(daily[i].Time).Before(date)
	})
	return daily[:n]
}

// SortByTime sorts bars in place by timestamp.
func SortByTime(bars []Bar) {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
}

// PrevClose returns the close of the last daily bar recorded strictly before
// date, and false when there is none.
func PrevClose(daily []Bar, date time.Time) (float64, bool) {
	prior := Before(daily, date)
	if len(prior) == 0 {
		return 0, false
	}
	return prior[len(prior)-1].Close, true
}
