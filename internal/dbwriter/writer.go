package dbwriter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/your-org/orb-backtester/internal/config"
	"github.com/your-org/orb-backtester/internal/report"
	"github.com/your-org/orb-backtester/internal/simulator"
)

const defaultBatchSize = 500

// Pool is an interface that abstracts the pgxpool.Pool for testability.
type Pool interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Close()
}

// TimescaleWriter はPostgreSQL(TimescaleDB)へのバックテスト結果の書き込みを担当します。
type TimescaleWriter struct {
	pool   Pool
	logger *zap.Logger
	config config.DBWriterConfig
}

// NewTimescaleWriter は新しいTimescaleWriterインスタンスを作成します。
// このコンストラクタは、外部から提供されたDB接続プールを使用します。
func NewTimescaleWriter(pool Pool, writerConfig config.DBWriterConfig, logger *zap.Logger) (Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("dbwriter: nil pool")
	}
	if writerConfig.BatchSize <= 0 {
		logger.Warn("BatchSize is zero or negative, using default.",
			zap.Int("originalValue", writerConfig.BatchSize), zap.Int("default", defaultBatchSize))
		writerConfig.BatchSize = defaultBatchSize
	}
	return &TimescaleWriter{pool: pool, logger: logger, config: writerConfig}, nil
}

// SaveRun inserts the run header.
func (w *TimescaleWriter) SaveRun(ctx context.Context, run Run) error {
	params, err := json.Marshal(run.Params)
	if err != nil {
		return fmt.Errorf("failed to encode run params: %w", err)
	}
	days, err := json.Marshal(run.DayCounts)
	if err != nil {
		return fmt.Errorf("failed to encode day counts: %w", err)
	}

	query := `INSERT INTO backtest_runs (run_id, created_at, start_date, end_date, symbols, params, trade_count, day_counts, overfit_warning)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = w.pool.Exec(ctx, query,
		run.ID, run.CreatedAt, run.StartDate, run.EndDate, run.Symbols,
		string(params), run.TradeCount, string(days), run.OverfitWarning,
	)
	if err != nil {
		w.logger.Error("Failed to insert backtest run", zap.Error(err), zap.Stringer("runID", run.ID))
		return fmt.Errorf("failed to insert backtest run: %w", err)
	}
	w.logger.Debug("Saved backtest run", zap.Stringer("runID", run.ID))
	return nil
}

// SaveTrades copies the trades in batches of config.BatchSize.
func (w *TimescaleWriter) SaveTrades(ctx context.Context, runID uuid.UUID, trades []simulator.Trade) error {
	for start := 0; start < len(trades); start += w.config.BatchSize {
		end := min(start+w.config.BatchSize, len(trades))
		if err := w.batchInsertTrades(ctx, runID, trades[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (w *TimescaleWriter) batchInsertTrades(ctx context.Context, runID uuid.UUID, trades []simulator.Trade) error {
	w.logger.Debug("Flushing trades", zap.Int("count", len(trades)))
	n, err := w.pool.CopyFrom(
		ctx,
		pgx.Identifier{"backtest_trades"},
		tradeColumns,
		pgx.CopyFromRows(toTradeInterfaces(runID, trades)),
	)
	if err != nil {
		w.logger.Error("Failed to batch insert trades", zap.Error(err))
		return fmt.Errorf("failed to copy trades: %w", err)
	}
	if int(n) != len(trades) {
		return fmt.Errorf("copied %d of %d trades", n, len(trades))
	}
	return nil
}

func toTradeInterfaces(runID uuid.UUID, trades []simulator.Trade) [][]interface{} {
	rows := make([][]interface{}, len(trades))
	for i, t := range trades {
		rows[i] = tradeRow(runID, t)
	}
	return rows
}

// SaveStats inserts one sample's stats row followed by its monthly rows.
func (w *TimescaleWriter) SaveStats(ctx context.Context, runID uuid.UUID, s report.Stats) error {
	query := `INSERT INTO backtest_stats (run_id, label, trade_count, wins, losses, win_rate, avg_r, total_r,
	              max_drawdown_r, profit_factor, sharpe, avg_win, avg_loss, max_consecutive_losses)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := w.pool.Exec(ctx, query,
		runID, s.Label, s.TradeCount, s.Wins, s.Losses, s.WinRate, s.AvgR, s.TotalR,
		s.MaxDrawdownR, finite(s.ProfitFactor), finite(s.Sharpe), s.AvgWin, s.AvgLoss, s.MaxConsecutiveLosses,
	)
	if err != nil {
		w.logger.Error("Failed to insert stats", zap.Error(err), zap.String("label", s.Label))
		return fmt.Errorf("failed to insert stats %s: %w", s.Label, err)
	}

	for _, m := range s.Monthly {
		_, err := w.pool.Exec(ctx,
			`INSERT INTO backtest_monthly (run_id, label, month, trades, wins, total_r) VALUES ($1, $2, $3, $4, $5, $6)`,
			runID, s.Label, m.Month, m.Trades, m.Wins, m.TotalR,
		)
		if err != nil {
			return fmt.Errorf("failed to insert monthly %s/%s: %w", s.Label, m.Month, err)
		}
	}
	return nil
}

// Close はデータベース接続プールをクローズします。
func (w *TimescaleWriter) Close() {
	w.logger.Info("Closing TimescaleDB writer...")
	w.pool.Close()
	w.logger.Info("TimescaleDB connection pool closed")
}
