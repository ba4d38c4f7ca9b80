package dbwriter

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/orb-backtester/internal/report"
	"github.com/your-org/orb-backtester/internal/simulator"
)

// Run はデータベースに保存するバックテスト実行の概要です。
type Run struct {
	ID             uuid.UUID      `db:"run_id"`
	CreatedAt      time.Time      `db:"created_at"`
	StartDate      time.Time      `db:"start_date"`
	EndDate        time.Time      `db:"end_date"`
	Symbols        []string       `db:"symbols"`
	Params         map[string]any `db:"params"`
	TradeCount     int            `db:"trade_count"`
	DayCounts      map[string]int `db:"day_counts"`
	OverfitWarning bool           `db:"overfit_warning"`
}

// Repository defines the interface for persisting backtest runs.
// SaveRun must be called before the trades and stats that reference the run.
type Repository interface {
	// SaveRun stores the run header.
	SaveRun(ctx context.Context, run Run) error

	// SaveTrades stores the run's trades.
	SaveTrades(ctx context.Context, runID uuid.UUID, trades []simulator.Trade) error

	// SaveStats stores one sample's statistics and its monthly breakdown.
	SaveStats(ctx context.Context, runID uuid.UUID, stats report.Stats) error

	// Close flushes any buffered data and closes the database connection.
	Close()
}

// tradeColumns is the column order shared by every trade writer.
var tradeColumns = []string{
	"run_id", "symbol", "trade_date", "direction", "entry", "stop", "target", "r_multiple", "size", "atr", "outcome",
}

func tradeRow(runID uuid.UUID, t simulator.Trade) []interface{} {
	return []interface{}{
		runID, t.Symbol, t.Date, t.Direction.String(), t.Entry, t.Stop, t.Target, t.RMultiple, t.Size, t.ATR, string(t.Outcome),
	}
}

// finite maps NaN and ±Inf to NULL.
func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}
