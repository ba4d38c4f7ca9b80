package sizing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/your-org/orb-backtester/internal/market"
)

func TestPositionSize(t *testing.T) {
	tests := []struct {
		name  string
		atr   float64
		atrOK bool
		want  float64
	}{
		{"atr available", 3, true, 100},
		{"rounded to cents", 7, true, 42.86},
		{"atr unavailable", 3, false, DefaultFallbackSize},
		{"zero atr", 0, true, DefaultFallbackSize},
		{"negative atr", -1, true, DefaultFallbackSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PositionSize(DefaultAccountSize, DefaultRiskPercent, tt.atr, tt.atrOK, DefaultFallbackSize)
			assert.Equal(t, tt.want, got)
		})
	}
}

func dailySeries(start time.Time, n int, rng float64) []market.Bar {
	bars := make([]market.Bar, n)
	for i := range bars {
		bars[i] = market.Bar{
			Time:  start.AddDate(0, 0, i),
			Open:  100,
			High:  100 + rng/2,
			Low:   100 - rng/2,
			Close: 100,
		}
	}
	return bars
}

func TestSizer_ForDate(t *testing.T) {
	start := time.Date(2024, 1, 1, 5, 0, 0, 0, time.UTC)
	daily := dailySeries(start, 20, 3)
	s := Default()

	t.Run("enough history strictly before the date", func(t *testing.T) {
		// 15 bars before Jan 16.
		res := s.ForDate(daily, time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC))
		assert.True(t, res.ATROK)
		assert.InDelta(t, 3.0, res.ATR, 1e-9)
		assert.Equal(t, 100.0, res.Size)
	})

	t.Run("bar on the date itself is excluded", func(t *testing.T) {
		// 14 bars before Jan 15.
		res := s.ForDate(daily, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
		assert.False(t, res.ATROK)
		assert.Equal(t, DefaultFallbackSize, res.Size)
	})
}
