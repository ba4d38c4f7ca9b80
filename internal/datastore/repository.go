package datastore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/your-org/orb-backtester/internal/market"
)

// PgxPoolIface は、*pgxpool.Poolが満たすべきメソッドのインターフェースです。
// これにより、テストでモックを注入できます。
type PgxPoolIface interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

const barsQuery = `
        SELECT time, open, high, low, close, volume
        FROM market_bars
        WHERE symbol = $1 AND timeframe = $2 AND time >= $3 AND time < $4
        ORDER BY time ASC;
    `

// PostgresSource reads bars from the market_bars table.
type PostgresSource struct {
	db PgxPoolIface
}

// NewPostgresSource creates a PostgresSource over db.
func NewPostgresSource(db PgxPoolIface) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) IntradayBars(ctx context.Context, symbol string, start, end time.Time) ([]market.Bar, error) {
	return s.fetchBars(ctx, symbol, Timeframe5Min, start, end)
}

func (s *PostgresSource) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]market.Bar, error) {
	return s.fetchBars(ctx, symbol, Timeframe1Day, start, end)
}

func (s *PostgresSource) fetchBars(ctx context.Context, symbol string, tf Timeframe, start, end time.Time) ([]market.Bar, error) {
	rows, err := s.db.Query(ctx, barsQuery, strings.ToUpper(symbol), string(tf), start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s %s bars: %w", symbol, tf, err)
	}
	defer rows.Close()

	var bars []market.Bar
	for rows.Next() {
		var b market.Bar
		if err := rows.Scan(&b.Time, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan %s bar: %w", symbol, err)
		}
		// pgx returns TIMESTAMPTZ in time.Local.
		b.Time = b.Time.UTC()
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s bars: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s %s: %w", symbol, tf, ErrNoData)
	}
	return bars, nil
}

// SaveBars upserts bars into market_bars. Seed uses it to load CSV history
// into the database.
func (s *PostgresSource) SaveBars(ctx context.Context, symbol string, tf Timeframe, bars []market.Bar) error {
	const query = `
        INSERT INTO market_bars (symbol, timeframe, time, open, high, low, close, volume)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (symbol, timeframe, time) DO UPDATE
        SET open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low,
            close = EXCLUDED.close, volume = EXCLUDED.volume;
    `
	for _, b := range bars {
		if _, err := s.db.Exec(ctx, query, strings.ToUpper(symbol), string(tf), b.Time, b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return fmt.Errorf("failed to save %s bar at %s: %w", symbol, b.Time.Format(time.RFC3339), err)
		}
	}
	return nil
}
