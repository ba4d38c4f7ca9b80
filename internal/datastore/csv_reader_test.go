package datastore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-02T14:30:00Z", time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)},
		{"2024-01-02 14:30:00.000000+00", time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)},
		{"2024-01-02", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTime(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	_, err := parseTime("yesterday")
	assert.Error(t, err)
}

func TestCSVSource(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := NewCSVSource(dir)

	writeFile(t, src.Path("SPY", Timeframe5Min), `time,open,high,low,close,volume
2024-01-02T14:35:00Z,100.5,101,100,100.8,900
2024-01-02T14:30:00Z,100,101,99,100.5,1200
not-a-time,1,1,1,1,1
2024-01-02T14:40:00Z,100.8,abc,100,100.8,900
2024-01-03T14:30:00Z,101,102,100,101,1000
`)
	writeFile(t, src.Path("SPY", Timeframe1Day), "time,open,high,low,close,volume\n2024-01-01,99,101,98,100,1000000\n")

	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	t.Run("range filter, sort and bad rows skipped", func(t *testing.T) {
		bars, err := src.IntradayBars(ctx, "spy", start, end)
		require.NoError(t, err)
		require.Len(t, bars, 2)
		assert.Equal(t, 100.0, bars[0].Open)
		assert.Equal(t, 1200.0, bars[0].Volume)
		assert.Equal(t, 100.5, bars[1].Open)
	})

	t.Run("out of range is no data", func(t *testing.T) {
		_, err := src.DailyBars(ctx, "SPY", start, end)
		assert.ErrorIs(t, err, ErrNoData)
	})

	t.Run("missing file is no data", func(t *testing.T) {
		_, err := src.IntradayBars(ctx, "TSLA", start, end)
		assert.ErrorIs(t, err, ErrNoData)
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(dir, "empty.csv")
		writeFile(t, path, "")
		bars, err := LoadBarsFromCSV(ctx, path)
		require.NoError(t, err)
		assert.Empty(t, bars)
	})
}
