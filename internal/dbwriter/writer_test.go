package dbwriter

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/your-org/orb-backtester/internal/config"
	"github.com/your-org/orb-backtester/internal/position"
	"github.com/your-org/orb-backtester/internal/report"
	"github.com/your-org/orb-backtester/internal/signal"
	"github.com/your-org/orb-backtester/internal/simulator"
)

func sampleTrade(symbol string, day int, r float64) simulator.Trade {
	outcome := position.OutcomeWin
	if r < 0 {
		outcome = position.OutcomeLoss
	}
	return simulator.Trade{
		Symbol:    symbol,
		Date:      time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC),
		Direction: signal.SignalLong,
		Entry:     decimal.RequireFromString("101.50"),
		Stop:      decimal.RequireFromString("99.00"),
		Target:    decimal.RequireFromString("106.50"),
		RMultiple: r,
		Size:      decimal.RequireFromString("120.00"),
		ATR:       decimal.NewNullDecimal(decimal.RequireFromString("2.5000")),
		Outcome:   outcome,
	}
}

// TestTimescaleWriter_ImplementsRepository は TimescaleWriter が Repository インターフェースを実装していることを確認します。
func TestTimescaleWriter_ImplementsRepository(t *testing.T) {
	assert.Implements(t, (*Repository)(nil), new(TimescaleWriter))
	assert.Implements(t, (*Repository)(nil), new(SQLiteWriter))
	assert.Implements(t, (*Repository)(nil), new(InMemWriter))
}

func TestNewTimescaleWriter_NilPool(t *testing.T) {
	_, err := NewTimescaleWriter(nil, config.DBWriterConfig{}, zap.NewNop())
	assert.Error(t, err)
}

func TestTimescaleWriter_SaveTradesBatches(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	writer, err := NewTimescaleWriter(mock, config.DBWriterConfig{BatchSize: 2}, zap.NewNop())
	require.NoError(t, err)

	runID := uuid.New()
	trades := []simulator.Trade{sampleTrade("SPY", 4, 2), sampleTrade("SPY", 5, -1), sampleTrade("QQQ", 6, 2)}

	mock.ExpectCopyFrom(pgx.Identifier{"backtest_trades"}, tradeColumns).WillReturnResult(2)
	mock.ExpectCopyFrom(pgx.Identifier{"backtest_trades"}, tradeColumns).WillReturnResult(1)

	require.NoError(t, writer.SaveTrades(context.Background(), runID, trades))
	require.NoError(t, mock.ExpectationsWereMet(), "there were unfulfilled expectations")
}

func TestTimescaleWriter_SaveTradesCopyError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	writer, err := NewTimescaleWriter(mock, config.DBWriterConfig{BatchSize: 10}, zap.NewNop())
	require.NoError(t, err)

	mock.ExpectCopyFrom(pgx.Identifier{"backtest_trades"}, tradeColumns).WillReturnError(errors.New("disk full"))

	err = writer.SaveTrades(context.Background(), uuid.New(), []simulator.Trade{sampleTrade("SPY", 4, 2)})
	assert.ErrorContains(t, err, "disk full")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimescaleWriter_SaveRun(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	writer, err := NewTimescaleWriter(mock, config.DBWriterConfig{BatchSize: 10}, zap.NewNop())
	require.NoError(t, err)

	run := Run{
		ID:         uuid.New(),
		CreatedAt:  time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC),
		StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		Symbols:    []string{"SPY", "QQQ"},
		Params:     map[string]any{"window_bars": 6},
		TradeCount: 3,
		DayCounts:  map[string]int{"traded": 3},
	}
	mock.ExpectExec("INSERT INTO backtest_runs").
		WithArgs(run.ID, run.CreatedAt, run.StartDate, run.EndDate, run.Symbols,
			`{"window_bars":6}`, 3, `{"traded":3}`, false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, writer.SaveRun(context.Background(), run))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimescaleWriter_SaveStats(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	writer, err := NewTimescaleWriter(mock, config.DBWriterConfig{BatchSize: 10}, zap.NewNop())
	require.NoError(t, err)

	runID := uuid.New()
	stats := report.Stats{
		Label:        "ALL",
		TradeCount:   2,
		Wins:         2,
		WinRate:      1,
		AvgR:         2,
		TotalR:       4,
		ProfitFactor: math.Inf(1),
		Monthly: []report.MonthStats{
			{Month: "2024-03", Trades: 1, Wins: 1, TotalR: 2},
			{Month: "2024-04", Trades: 1, Wins: 1, TotalR: 2},
		},
	}

	mock.ExpectExec("INSERT INTO backtest_stats").
		WithArgs(runID, "ALL", 2, 2, 0, 1.0, 2.0, 4.0, 0.0, (*float64)(nil), pgxmock.AnyArg(), 0.0, 0.0, 0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO backtest_monthly").
		WithArgs(runID, "ALL", "2024-03", 1, 1, 2.0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO backtest_monthly").
		WithArgs(runID, "ALL", "2024-04", 1, 1, 2.0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, writer.SaveStats(context.Background(), runID, stats))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFinite(t *testing.T) {
	assert.Nil(t, finite(math.Inf(1)))
	assert.Nil(t, finite(math.NaN()))
	require.NotNil(t, finite(1.5))
	assert.Equal(t, 1.5, *finite(1.5))
}

func TestInMemWriter(t *testing.T) {
	w := NewInMemWriter()
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, w.SaveRun(ctx, Run{ID: id}))
	require.NoError(t, w.SaveTrades(ctx, id, []simulator.Trade{sampleTrade("SPY", 4, 2)}))
	require.NoError(t, w.SaveStats(ctx, id, report.Stats{Label: "ALL"}))
	w.Close()

	assert.Len(t, w.Runs, 1)
	assert.Len(t, w.Trades[id], 1)
	assert.Equal(t, "ALL", w.Stats[id][0].Label)
	assert.True(t, w.IsClosed)

	w.Clear()
	assert.Empty(t, w.Runs)
	assert.False(t, w.IsClosed)
}
