package datastore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/your-org/orb-backtester/internal/market"
)

// InMemSource is an in-memory BarSource for tests and fixtures.
type InMemSource struct {
	mu       sync.RWMutex
	intraday map[string][]market.Bar
	daily    map[string][]market.Bar
}

// NewInMemSource creates an empty InMemSource.
func NewInMemSource() *InMemSource {
	return &InMemSource{
		intraday: make(map[string][]market.Bar),
		daily:    make(map[string][]market.Bar),
	}
}

// SeedIntraday adds intraday bars for symbol.
func (s *InMemSource) SeedIntraday(symbol string, bars []market.Bar) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToUpper(symbol)
	s.intraday[key] = append(s.intraday[key], bars...)
	market.SortByTime(s.intraday[key])
}

// SeedDaily adds daily bars for symbol.
func (s *InMemSource) SeedDaily(symbol string, bars []market.Bar) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToUpper(symbol)
	s.daily[key] = append(s.daily[key], bars...)
	market.SortByTime(s.daily[key])
}

// SaveBars stores bars under tf, so an InMemSource can be a seed target.
func (s *InMemSource) SaveBars(ctx context.Context, symbol string, tf Timeframe, bars []market.Bar) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch tf {
	case Timeframe5Min:
		s.SeedIntraday(symbol, bars)
	case Timeframe1Day:
		s.SeedDaily(symbol, bars)
	default:
		return fmt.Errorf("unknown timeframe %q", tf)
	}
	return nil
}

func (s *InMemSource) IntradayBars(ctx context.Context, symbol string, start, end time.Time) ([]market.Bar, error) {
	return s.slice(ctx, s.intraday, symbol, Timeframe5Min, start, end)
}

func (s *InMemSource) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]market.Bar, error) {
	return s.slice(ctx, s.daily, symbol, Timeframe1Day, start, end)
}

func (s *InMemSource) slice(ctx context.Context, m map[string][]market.Bar, symbol string, tf Timeframe, start, end time.Time) ([]market.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []market.Bar
	for _, b := range m[strings.ToUpper(symbol)] {
		if inRange(b.Time, start, end) {
			out = append(out, b)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s %s: %w", symbol, tf, ErrNoData)
	}
	return out, nil
}
