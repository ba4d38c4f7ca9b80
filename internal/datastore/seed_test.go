package datastore

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/orb-backtester/internal/market"
)

func seedFixture() (*InMemSource, Window, Window) {
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	src := NewInMemSource()
	src.SeedIntraday("SPY", []market.Bar{
		{Time: day.Add(14*time.Hour + 30*time.Minute), Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 1000},
		{Time: day.Add(14*time.Hour + 35*time.Minute), Open: 100.5, High: 102, Low: 100, Close: 101.5, Volume: 800},
		{Time: day.AddDate(0, 0, 3).Add(14 * time.Hour), Close: 999},
	})
	src.SeedDaily("SPY", []market.Bar{
		{Time: day.AddDate(0, 0, -1), Open: 98, High: 100, Low: 97, Close: 99, Volume: 5e6},
	})
	intraday := Window{Start: day, End: day.AddDate(0, 0, 1)}
	daily := Window{Start: day.AddDate(0, 0, -7), End: day.AddDate(0, 0, 1)}
	return src, intraday, daily
}

func TestSeed_IntoPostgres(t *testing.T) {
	src, intraday, daily := seedFixture()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO market_bars").
		WithArgs("SPY", "5Min", pgxmock.AnyArg(), 100.0, 101.0, 99.0, 100.5, 1000.0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO market_bars").
		WithArgs("SPY", "5Min", pgxmock.AnyArg(), 100.5, 102.0, 100.0, 101.5, 800.0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO market_bars").
		WithArgs("SPY", "1Day", pgxmock.AnyArg(), 98.0, 100.0, 97.0, 99.0, 5e6).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	res, err := Seed(context.Background(), src, NewPostgresSource(mock), []string{"spy", "QQQ"}, intraday, daily)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Intraday)
	assert.Equal(t, 1, res.Daily)
	assert.Equal(t, []string{"QQQ/5Min", "QQQ/1Day"}, res.Missing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeed_SinkErrorStops(t *testing.T) {
	src, intraday, daily := seedFixture()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.ExpectExec("INSERT INTO market_bars").WillReturnError(assert.AnError)

	res, err := Seed(context.Background(), src, NewPostgresSource(mock), []string{"SPY"}, intraday, daily)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Zero(t, res.Intraday)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeed_RoundTrip(t *testing.T) {
	src, intraday, daily := seedFixture()
	dst := NewInMemSource()

	_, err := Seed(context.Background(), src, dst, []string{"SPY"}, intraday, daily)
	require.NoError(t, err)

	want, err := src.IntradayBars(context.Background(), "SPY", intraday.Start, intraday.End)
	require.NoError(t, err)
	got, err := dst.IntradayBars(context.Background(), "SPY", intraday.Start, intraday.End)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	assert.Error(t, dst.SaveBars(context.Background(), "SPY", Timeframe("1Hour"), nil))
}
