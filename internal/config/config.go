// Package config handles application configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines the structure for all application configuration.
type Config struct {
	Symbols          []string        `yaml:"symbols"`
	StartDate        Date            `yaml:"start_date"`
	EndDate          Date            `yaml:"end_date"`
	Timezone         string          `yaml:"timezone"`
	ORB              ORBConf         `yaml:"orb"`
	Risk             RiskConf        `yaml:"risk"`
	Filters          FilterConf      `yaml:"filters"`
	WalkForward      WalkForwardConf `yaml:"walk_forward"`
	CorrelationPairs []SymbolPair    `yaml:"correlation_pairs"`
	Data             DataConf        `yaml:"data"`
	Output           OutputConf      `yaml:"output"`
	Database         DatabaseConfig  `yaml:"database"`
	DBWriter         DBWriterConfig  `yaml:"db_writer"`
	Workers          int             `yaml:"workers"`
	Schedule         string          `yaml:"schedule"`
	HTTPAddr         string          `yaml:"http_addr"`
	LogLevel         string          `yaml:"log_level"`
}

// ORBConf holds the opening range settings.
type ORBConf struct {
	WindowBars     int     `yaml:"window_bars"`
	MinDayBars     int     `yaml:"min_day_bars"` // defaults to window_bars + 2
	RiskMultiplier float64 `yaml:"risk_multiplier"`
}

// RiskConf holds account and sizing settings.
type RiskConf struct {
	AccountSize   float64 `yaml:"account_size"`
	RiskPercent   float64 `yaml:"risk_percent"`
	FallbackSize  float64 `yaml:"fallback_size"`
	ATRPeriod     int     `yaml:"atr_period"`
	MaxDailyLossR float64 `yaml:"max_daily_loss_r"`
}

// FilterConf holds entry filter settings.
type FilterConf struct {
	VolumeMultiplier float64   `yaml:"volume_multiplier"`
	VolumeLookback   int       `yaml:"volume_lookback"`
	GapThreshold     float64   `yaml:"gap_threshold"`
	LateEntryCutoff  ClockTime `yaml:"late_entry_cutoff"`
}

// WalkForwardConf holds the in-sample/out-of-sample split settings.
type WalkForwardConf struct {
	InSampleRatio       float64 `yaml:"in_sample_ratio"`
	OverfitThresholdPct float64 `yaml:"overfit_threshold_pct"`
}

// DataConf selects the bar source.
type DataConf struct {
	Source string `yaml:"source"` // "csv" or "postgres"
	Dir    string `yaml:"dir"`
	// DailyLookbackDays extends the daily bar request before start_date so
	// ATR and the gap filter have history from the first session.
	DailyLookbackDays int `yaml:"daily_lookback_days"`
}

// OutputConf holds report destinations. Empty paths disable that output.
type OutputConf struct {
	TradeLog    string `yaml:"trade_log"`
	EquityCurve string `yaml:"equity_curve"`
	SQLitePath  string `yaml:"sqlite_path"`
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// DBWriterConfig controls persistence of run results to PostgreSQL.
type DBWriterConfig struct {
	Enabled   FlexBool `yaml:"enabled"`
	BatchSize int      `yaml:"batch_size"`
}

// URL builds a connection URL with the given scheme ("postgres", "pgx5").
func (d DatabaseConfig) URL(scheme string) string {
	u := url.URL{
		Scheme: scheme,
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Default returns a Config populated with the stock settings.
func Default() *Config {
	return &Config{
		Symbols:   []string{"SPY", "QQQ", "AAPL", "NVDA", "TSLA"},
		StartDate: MustDate("2024-01-01"),
		EndDate:   MustDate("2024-12-31"),
		Timezone:  "America/New_York",
		ORB: ORBConf{
			WindowBars:     6,
			RiskMultiplier: 2.0,
		},
		Risk: RiskConf{
			AccountSize:   30000,
			RiskPercent:   0.01,
			FallbackSize:  100,
			ATRPeriod:     14,
			MaxDailyLossR: -3.0,
		},
		Filters: FilterConf{
			VolumeMultiplier: 1.5,
			VolumeLookback:   5,
			GapThreshold:     0.015,
			LateEntryCutoff:  ClockTime{Hour: 11, Minute: 30},
		},
		WalkForward: WalkForwardConf{
			InSampleRatio:       0.70,
			OverfitThresholdPct: 10,
		},
		CorrelationPairs: []SymbolPair{{First: "SPY", Second: "QQQ"}},
		Data: DataConf{
			Source: "csv",
			Dir:    "data",
		},
		Output: OutputConf{
			TradeLog:    "trade_log.csv",
			EquityCurve: "equity_curve.csv",
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			Name:    "orb",
			SSLMode: "disable",
		},
		DBWriter: DBWriterConfig{BatchSize: 500},
		Workers:  4,
		LogLevel: "info",
	}
}

// LoadConfig loads configuration from the specified YAML file path and
// environment variables. A missing file yields the defaults.
func LoadConfig(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		file, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// defaults only
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(file, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", configPath, err)
			}
		}
	}

	cfg.Symbols = splitSymbols(strings.Join(cfg.Symbols, ","))
	if cfg.ORB.MinDayBars == 0 {
		cfg.ORB.MinDayBars = cfg.ORB.WindowBars + 2
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.LogLevel = logLevel
	}
	if dbHost := os.Getenv("DB_HOST"); dbHost != "" {
		c.Database.Host = dbHost
	}
	if dbPort := os.Getenv("DB_PORT"); dbPort != "" {
		port, err := strconv.Atoi(dbPort)
		if err != nil {
			return fmt.Errorf("invalid DB_PORT %q: %w", dbPort, err)
		}
		c.Database.Port = port
	}
	if dbUser := os.Getenv("DB_USER"); dbUser != "" {
		c.Database.User = dbUser
	}
	if dbPassword := os.Getenv("DB_PASSWORD"); dbPassword != "" {
		c.Database.Password = dbPassword
	}
	if dbName := os.Getenv("DB_NAME"); dbName != "" {
		c.Database.Name = dbName
	}
	if symbols := os.Getenv("BACKTEST_SYMBOLS"); symbols != "" {
		c.Symbols = splitSymbols(symbols)
	}
	if dir := os.Getenv("BACKTEST_DATA_DIR"); dir != "" {
		c.Data.Dir = dir
	}
	return nil
}

func splitSymbols(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.ToUpper(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Location loads the session time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate checks the configuration for values the backtest cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Symbols) == 0 {
		errs = append(errs, errors.New("symbols must not be empty"))
	}
	if c.EndDate.Before(c.StartDate.Time) {
		errs = append(errs, fmt.Errorf("end_date %s is before start_date %s", c.EndDate, c.StartDate))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.ORB.WindowBars <= 0 {
		errs = append(errs, errors.New("orb.window_bars must be positive"))
	}
	if c.ORB.MinDayBars <= c.ORB.WindowBars {
		errs = append(errs, fmt.Errorf("orb.min_day_bars (%d) must exceed orb.window_bars (%d)", c.ORB.MinDayBars, c.ORB.WindowBars))
	}
	if c.ORB.RiskMultiplier <= 0 {
		errs = append(errs, errors.New("orb.risk_multiplier must be positive"))
	}
	if c.Risk.AccountSize <= 0 || c.Risk.RiskPercent <= 0 {
		errs = append(errs, errors.New("risk.account_size and risk.risk_percent must be positive"))
	}
	if c.Risk.ATRPeriod <= 0 {
		errs = append(errs, errors.New("risk.atr_period must be positive"))
	}
	if c.WalkForward.InSampleRatio < 0 || c.WalkForward.InSampleRatio > 1 {
		errs = append(errs, fmt.Errorf("walk_forward.in_sample_ratio %v must be within [0, 1]", c.WalkForward.InSampleRatio))
	}
	switch c.Data.Source {
	case "csv", "postgres":
	default:
		errs = append(errs, fmt.Errorf("data.source %q must be csv or postgres", c.Data.Source))
	}
	if c.Workers <= 0 {
		errs = append(errs, errors.New("workers must be positive"))
	}
	return errors.Join(errs...)
}
