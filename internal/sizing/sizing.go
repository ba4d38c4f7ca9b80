// Package sizing converts account risk and ATR into a position size.
package sizing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/your-org/orb-backtester/internal/indicator"
	"github.com/your-org/orb-backtester/internal/market"
)

const (
	DefaultAccountSize  = 30000.0
	DefaultRiskPercent  = 0.01
	DefaultFallbackSize = 100.0
)

// PositionSize returns (accountSize * riskPercent) / atr rounded to 2
// decimals, or fallback when atr is unavailable or not positive.
func PositionSize(accountSize, riskPercent, atr float64, atrOK bool, fallback float64) float64 {
	if !atrOK || atr <= 0 {
		return fallback
	}
	risk := decimal.NewFromFloat(accountSize).Mul(decimal.NewFromFloat(riskPercent))
	size, _ := risk.Div(decimal.NewFromFloat(atr)).Round(2).Float64()
	return size
}

// Sizer holds the account parameters used for every trade in a run.
type Sizer struct {
	AccountSize  float64
	RiskPercent  float64
	ATRPeriod    int
	FallbackSize float64
}

// Default returns a Sizer with the stock account settings.
func Default() Sizer {
	return Sizer{
		AccountSize:  DefaultAccountSize,
		RiskPercent:  DefaultRiskPercent,
		ATRPeriod:    indicator.DefaultATRPeriod,
		FallbackSize: DefaultFallbackSize,
	}
}

// Result is the sizing decision for one trading date.
type Result struct {
	Size  float64
	ATR   float64
	ATROK bool
}

// ForDate sizes a trade on date using only the daily bars recorded strictly
// before it. daily must be in time order.
func (s Sizer) ForDate(daily []market.Bar, date time.Time) Result {
	atr, ok := indicator.AverageTrueRange(market.Before(daily, date), s.ATRPeriod)
	return Result{
		Size:  PositionSize(s.AccountSize, s.RiskPercent, atr, ok, s.FallbackSize),
		ATR:   atr,
		ATROK: ok,
	}
}
