package dbwriter

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/your-org/orb-backtester/internal/market"
	"github.com/your-org/orb-backtester/internal/report"
	"github.com/your-org/orb-backtester/internal/simulator"
)

// SQLiteWriter persists backtest runs to a local SQLite file.
type SQLiteWriter struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// NewSQLiteWriter opens (or creates) the SQLite database and creates its tables.
func NewSQLiteWriter(path string, logger *zap.Logger) (*SQLiteWriter, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	w := &SQLiteWriter{db: db, logger: logger}
	if err := w.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Info("sqlite writer opened", zap.String("path", path))
	return w, nil
}

func (w *SQLiteWriter) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS backtest_runs (
			run_id          TEXT PRIMARY KEY,
			created_at      TEXT NOT NULL,
			start_date      TEXT NOT NULL,
			end_date        TEXT NOT NULL,
			symbols         TEXT NOT NULL,
			params          TEXT NOT NULL,
			trade_count     INTEGER NOT NULL,
			day_counts      TEXT NOT NULL,
			overfit_warning INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS backtest_trades (
			run_id     TEXT NOT NULL REFERENCES backtest_runs(run_id) ON DELETE CASCADE,
			symbol     TEXT NOT NULL,
			trade_date TEXT NOT NULL,
			direction  TEXT NOT NULL,
			entry      REAL NOT NULL,
			stop       REAL NOT NULL,
			target     REAL NOT NULL,
			r_multiple REAL NOT NULL,
			size       REAL NOT NULL,
			atr        REAL,
			outcome    TEXT NOT NULL,
			PRIMARY KEY (run_id, symbol, trade_date)
		)`,
		`CREATE TABLE IF NOT EXISTS backtest_stats (
			run_id                 TEXT NOT NULL REFERENCES backtest_runs(run_id) ON DELETE CASCADE,
			label                  TEXT NOT NULL,
			trade_count            INTEGER NOT NULL,
			wins                   INTEGER NOT NULL,
			losses                 INTEGER NOT NULL,
			win_rate               REAL NOT NULL,
			avg_r                  REAL NOT NULL,
			total_r                REAL NOT NULL,
			max_drawdown_r         REAL NOT NULL,
			profit_factor          REAL,
			sharpe                 REAL,
			avg_win                REAL NOT NULL,
			avg_loss               REAL NOT NULL,
			max_consecutive_losses INTEGER NOT NULL,
			PRIMARY KEY (run_id, label)
		)`,
		`CREATE TABLE IF NOT EXISTS backtest_monthly (
			run_id  TEXT NOT NULL REFERENCES backtest_runs(run_id) ON DELETE CASCADE,
			label   TEXT NOT NULL,
			month   TEXT NOT NULL,
			trades  INTEGER NOT NULL,
			wins    INTEGER NOT NULL,
			total_r REAL NOT NULL,
			PRIMARY KEY (run_id, label, month)
		)`,
	}
	for _, s := range stmts {
		if _, err := w.db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun inserts the run header.
func (w *SQLiteWriter) SaveRun(ctx context.Context, run Run) error {
	params, err := json.Marshal(run.Params)
	if err != nil {
		return fmt.Errorf("encode run params: %w", err)
	}
	days, err := json.Marshal(run.DayCounts)
	if err != nil {
		return fmt.Errorf("encode day counts: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = w.db.ExecContext(ctx,
		`INSERT INTO backtest_runs (run_id, created_at, start_date, end_date, symbols, params, trade_count, day_counts, overfit_warning)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		run.StartDate.Format(market.DateLayout), run.EndDate.Format(market.DateLayout),
		strings.Join(run.Symbols, ","), string(params), run.TradeCount, string(days), run.OverfitWarning,
	)
	if err != nil {
		return fmt.Errorf("insert backtest run: %w", err)
	}
	return nil
}

// SaveTrades inserts all trades in one transaction.
func (w *SQLiteWriter) SaveTrades(ctx context.Context, runID uuid.UUID, trades []simulator.Trade) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO backtest_trades (`+strings.Join(tradeColumns, ", ")+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, t := range trades {
		var atr *float64
		if t.ATR.Valid {
			v := t.ATR.Decimal.InexactFloat64()
			atr = &v
		}
		_, err := stmt.ExecContext(ctx,
			runID.String(), t.Symbol, t.Date.Format(market.DateLayout), t.Direction.String(),
			t.Entry.InexactFloat64(), t.Stop.InexactFloat64(), t.Target.InexactFloat64(),
			t.RMultiple, t.Size.InexactFloat64(), atr, string(t.Outcome),
		)
		if err != nil {
			return fmt.Errorf("insert trade %s %s: %w", t.Symbol, t.Date.Format(market.DateLayout), err)
		}
	}
	return tx.Commit()
}

// SaveStats inserts one sample's stats row and its monthly rows.
func (w *SQLiteWriter) SaveStats(ctx context.Context, runID uuid.UUID, s report.Stats) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO backtest_stats (run_id, label, trade_count, wins, losses, win_rate, avg_r, total_r,
			max_drawdown_r, profit_factor, sharpe, avg_win, avg_loss, max_consecutive_losses)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID.String(), s.Label, s.TradeCount, s.Wins, s.Losses, s.WinRate, s.AvgR, s.TotalR,
		s.MaxDrawdownR, finite(s.ProfitFactor), finite(s.Sharpe), s.AvgWin, s.AvgLoss, s.MaxConsecutiveLosses,
	)
	if err != nil {
		return fmt.Errorf("insert stats %s: %w", s.Label, err)
	}
	for _, m := range s.Monthly {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO backtest_monthly (run_id, label, month, trades, wins, total_r) VALUES (?, ?, ?, ?, ?, ?)`,
			runID.String(), s.Label, m.Month, m.Trades, m.Wins, m.TotalR,
		)
		if err != nil {
			return fmt.Errorf("insert monthly %s/%s: %w", s.Label, m.Month, err)
		}
	}
	return tx.Commit()
}

// Close closes the database.
func (w *SQLiteWriter) Close() {
	w.logger.Info("closing sqlite writer")
	if err := w.db.Close(); err != nil {
		w.logger.Warn("sqlite close failed", zap.Error(err))
	}
}
