package datastore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/your-org/orb-backtester/internal/market"
	"github.com/your-org/orb-backtester/pkg/logger"
)

// CSVSource reads bars from <Dir>/<SYMBOL>_<timeframe>.csv files with the
// header time,open,high,low,close,volume.
type CSVSource struct {
	Dir string
}

// NewCSVSource creates a CSVSource rooted at dir.
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{Dir: dir}
}

// Path returns the file that holds symbol's bars for tf.
func (s *CSVSource) Path(symbol string, tf Timeframe) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%s_%s.csv", strings.ToUpper(symbol), tf))
}

func (s *CSVSource) IntradayBars(ctx context.Context, symbol string, start, end time.Time) ([]market.Bar, error) {
	return s.load(ctx, symbol, Timeframe5Min, start, end)
}

func (s *CSVSource) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]market.Bar, error) {
	return s.load(ctx, symbol, Timeframe1Day, start, end)
}

func (s *CSVSource) load(ctx context.Context, symbol string, tf Timeframe, start, end time.Time) ([]market.Bar, error) {
	path := s.Path(symbol, tf)
	bars, err := LoadBarsFromCSV(ctx, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s %s: %w", symbol, tf, ErrNoData)
		}
		return nil, err
	}

	filtered := bars[:0]
	for _, b := range bars {
		if inRange(b.Time, start, end) {
			filtered = append(filtered, b)
		}
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("%s %s: %w", symbol, tf, ErrNoData)
	}
	market.SortByTime(filtered)
	logger.Debugf("Loaded %d %s bars for %s from %s", len(filtered), tf, symbol, path)
	return filtered, nil
}

// LoadBarsFromCSV reads every bar in filePath. Rows that fail to parse are
// skipped with a warning.
func LoadBarsFromCSV(ctx context.Context, filePath string) ([]market.Bar, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	// Read the header row
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return []market.Bar{}, nil // Empty file is okay
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	var bars []market.Bar
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read csv record: %w", err)
		}

		bar, err := parseBar(record)
		if err != nil {
			logger.Warnf("Skipping %s line %d: %v", filepath.Base(filePath), line, err)
			continue
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseBar(record []string) (market.Bar, error) {
	if len(record) != 6 {
		return market.Bar{}, fmt.Errorf("invalid number of columns: expected 6, got %d", len(record))
	}
	t, err := parseTime(record[0])
	if err != nil {
		return market.Bar{}, err
	}
	var vals [5]float64
	for i := range vals {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[i+1]), 64)
		if err != nil {
			return market.Bar{}, fmt.Errorf("column %d: %w", i+2, err)
		}
		vals[i] = v
	}
	return market.Bar{Time: t, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3], Volume: vals[4]}, nil
}

func parseTime(timeStr string) (time.Time, error) {
	timeStr = strings.TrimSpace(timeStr)
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999-07",
		"2006-01-02 15:04:05-07:00",
		market.DateLayout,
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, timeStr); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("could not parse time '%s' with any known format", timeStr)
}
