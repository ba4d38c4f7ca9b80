package datastore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/your-org/orb-backtester/internal/market"
	"github.com/your-org/orb-backtester/pkg/logger"
)

// BarSink stores bars for one symbol and timeframe.
type BarSink interface {
	SaveBars(ctx context.Context, symbol string, tf Timeframe, bars []market.Bar) error
}

// Window is the half-open range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// SeedResult counts what Seed copied.
type SeedResult struct {
	Intraday int
	Daily    int
	// Missing lists "SYMBOL/timeframe" pairs the source had no bars for.
	Missing []string
}

// Seed copies intraday and daily bars for each symbol from src into dst.
// A symbol without data is recorded in Missing and skipped; any other
// error stops the copy.
func Seed(ctx context.Context, src BarSource, dst BarSink, symbols []string, intraday, daily Window) (SeedResult, error) {
	var res SeedResult
	for _, symbol := range symbols {
		symbol = strings.ToUpper(symbol)

		n, err := copyBars(ctx, src.IntradayBars, dst, symbol, Timeframe5Min, intraday)
		if err != nil {
			return res, err
		}
		if n == 0 {
			res.Missing = append(res.Missing, symbol+"/"+string(Timeframe5Min))
		}
		res.Intraday += n

		n, err = copyBars(ctx, src.DailyBars, dst, symbol, Timeframe1Day, daily)
		if err != nil {
			return res, err
		}
		if n == 0 {
			res.Missing = append(res.Missing, symbol+"/"+string(Timeframe1Day))
		}
		res.Daily += n
	}
	return res, nil
}

type loadFunc func(ctx context.Context, symbol string, start, end time.Time) ([]market.Bar, error)

func copyBars(ctx context.Context, load loadFunc, dst BarSink, symbol string, tf Timeframe, w Window) (int, error) {
	bars, err := load(ctx, symbol, w.Start, w.End)
	if errors.Is(err, ErrNoData) {
		logger.Warnf("No %s bars to seed for %s", tf, symbol)
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("seed %s %s: %w", symbol, tf, err)
	}
	if err := dst.SaveBars(ctx, symbol, tf, bars); err != nil {
		return 0, err
	}
	logger.Infof("Seeded %d %s bars for %s", len(bars), tf, symbol)
	return len(bars), nil
}
