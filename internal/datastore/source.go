// Package datastore loads historical bars for the backtest.
package datastore

import (
	"context"
	"errors"
	"time"

	"github.com/your-org/orb-backtester/internal/market"
)

// ErrNoData is returned when a source has no bars for a symbol in range.
var ErrNoData = errors.New("no bar data available")

// Timeframe identifies a bar interval.
type Timeframe string

const (
	Timeframe5Min Timeframe = "5Min"
	Timeframe1Day Timeframe = "1Day"
)

// BarSource supplies time-ordered bars for [start, end).
type BarSource interface {
	IntradayBars(ctx context.Context, symbol string, start, end time.Time) ([]market.Bar, error)
	DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]market.Bar, error)
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}
