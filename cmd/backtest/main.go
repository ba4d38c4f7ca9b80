// Command backtest runs the opening range breakout backtest once, or on a
// cron schedule when -schedule is given. With -seed it instead copies the
// configured CSV history into the market_bars table and exits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata" // session time zones without a system zoneinfo

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/your-org/orb-backtester/internal/alert"
	"github.com/your-org/orb-backtester/internal/backtest"
	"github.com/your-org/orb-backtester/internal/config"
	"github.com/your-org/orb-backtester/internal/datastore"
	"github.com/your-org/orb-backtester/internal/dbwriter"
	"github.com/your-org/orb-backtester/internal/http/handler"
	"github.com/your-org/orb-backtester/internal/report"
	"github.com/your-org/orb-backtester/pkg/logger"
)

func main() {
	// --- Configuration ---
	configPath := flag.String("config", "config/backtest.yaml", "Path to the configuration file")
	schedule := flag.String("schedule", "", "Cron spec with seconds (e.g. \"0 30 17 * * 1-5\"); overrides the config value")
	seed := flag.Bool("seed", false, "Load CSV bars from data.dir into PostgreSQL market_bars and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *schedule != "" {
		cfg.Schedule = *schedule
	}

	// --- Logger ---
	logger.SetGlobalLogLevel(cfg.LogLevel)
	logger.Infof("Loaded configuration from: %s", *configPath)

	zapLogger, err := newZapLogger(cfg.LogLevel)
	if err != nil {
		logger.Fatalf("Failed to initialize Zap logger: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	var code int
	if *seed {
		code = seedBars(ctx, cfg, zapLogger)
	} else {
		code = run(ctx, cfg, zapLogger)
	}
	stop()
	_ = zapLogger.Sync() // stdout sync fails on terminals
	os.Exit(code)
}

// run returns the process exit code.
func run(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) int {
	var pool *pgxpool.Pool
	if cfg.Data.Source == "postgres" || bool(cfg.DBWriter.Enabled) {
		p, err := pgxpool.New(ctx, cfg.Database.URL("postgres"))
		if err != nil {
			logger.Errorf("Unable to connect to database: %v", err)
			return 1
		}
		defer p.Close()
		pool = p
	}

	source := newBarSource(cfg, pool)
	repo, err := newRepository(cfg, pool, zapLogger)
	if err != nil {
		logger.Errorf("Failed to initialize run writer: %v", err)
		return 1
	}
	defer repo.Close()

	notifier := alert.NewLogNotifier(zapLogger)
	defer notifier.Close()

	runner, err := backtest.NewRunner(cfg, source, repo, notifier, zapLogger, os.Stdout)
	if err != nil {
		logger.Errorf("Failed to initialize backtest: %v", err)
		return 1
	}

	if cfg.Schedule == "" {
		if err := runOnce(ctx, runner, nil); err != nil {
			return 1
		}
		return 0
	}

	runs := handler.NewRunHandler()
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(cfg.Schedule, func() { _ = runOnce(ctx, runner, runs) }); err != nil {
		logger.Errorf("Invalid schedule %q: %v", cfg.Schedule, err)
		return 1
	}
	c.Start()
	logger.Infof("Backtest scheduled: %s", cfg.Schedule)

	var srv *http.Server
	if cfg.HTTPAddr != "" {
		mux := http.NewServeMux()
		runs.RegisterRoutes(mux)
		srv = &http.Server{Addr: cfg.HTTPAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Infof("Status server starting on %s", cfg.HTTPAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("Status server failed: %v", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("Shutting down scheduler.")
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	<-c.Stop().Done()
	return 0
}

// seedBars copies the CSV bars a run would read into PostgreSQL.
func seedBars(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) int {
	if err := dbwriter.Migrate(cfg.Database.URL("pgx5"), zapLogger); err != nil {
		logger.Errorf("Failed to migrate database: %v", err)
		return 1
	}
	pool, err := pgxpool.New(ctx, cfg.Database.URL("postgres"))
	if err != nil {
		logger.Errorf("Unable to connect to database: %v", err)
		return 1
	}
	defer pool.Close()

	runner, err := backtest.NewRunner(cfg, datastore.NewCSVSource(cfg.Data.Dir), nil, nil, zapLogger, os.Stdout)
	if err != nil {
		logger.Errorf("Failed to initialize seeding: %v", err)
		return 1
	}
	res, err := runner.Seed(ctx, datastore.NewPostgresSource(pool))
	if err != nil {
		logger.Errorf("Seeding failed: %v", err)
		return 1
	}
	logger.Infof("Seeded %d intraday and %d daily bars from %s", res.Intraday, res.Daily, cfg.Data.Dir)
	return 0
}

// runOnce executes and publishes one backtest. runs may be nil.
func runOnce(ctx context.Context, runner *backtest.Runner, runs *handler.RunHandler) error {
	res, err := runner.Run(ctx)
	switch {
	case errors.Is(err, report.ErrNoTrades):
		logger.Warn("No trades generated. Check the data directory and date range.")
		return err
	case errors.Is(err, backtest.ErrNoInputData):
		logger.Errorf("Backtest aborted: %v", err)
		return err
	case err != nil:
		logger.Errorf("Backtest failed: %v", err)
		return err
	}
	if err := runner.Publish(ctx, res); err != nil {
		logger.Errorf("Failed to publish results: %v", err)
		return err
	}
	if runs != nil {
		runs.SetLatest(summaryOf(res))
	}
	logger.Infof("Done. run_id=%s trades=%d", res.RunID, len(res.Trades))
	return nil
}

func summaryOf(res *backtest.Result) handler.RunSummary {
	days := make(map[string]int, len(res.DayCounts))
	for kind, n := range res.DayCounts {
		days[string(kind)] = n
	}
	return handler.RunSummary{
		RunID:      res.RunID.String(),
		FinishedAt: time.Now().UTC(),
		Samples: []handler.SampleSummary{
			handler.NewSampleSummary(res.All),
			handler.NewSampleSummary(res.InSample),
			handler.NewSampleSummary(res.OutOfSample),
		},
		DayCounts:      days,
		OverfitWarning: res.Overfit != nil,
	}
}

// newZapLogger builds a development logger for debug and a production
// logger with ISO8601 timestamps otherwise.
func newZapLogger(level string) (*zap.Logger, error) {
	if strings.EqualFold(level, "debug") {
		return zap.NewDevelopment()
	}
	zcfg := zap.NewProductionConfig()
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.EncoderConfig.TimeKey = "time"
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return zcfg.Build()
}

func newBarSource(cfg *config.Config, pool *pgxpool.Pool) datastore.BarSource {
	if cfg.Data.Source == "postgres" && pool != nil {
		logger.Info("Reading bars from PostgreSQL.")
		return datastore.NewPostgresSource(pool)
	}
	logger.Infof("Reading bars from CSV directory: %s", cfg.Data.Dir)
	return datastore.NewCSVSource(cfg.Data.Dir)
}

func newRepository(cfg *config.Config, pool *pgxpool.Pool, zapLogger *zap.Logger) (dbwriter.Repository, error) {
	switch {
	case bool(cfg.DBWriter.Enabled) && pool != nil:
		if err := dbwriter.Migrate(cfg.Database.URL("pgx5"), zapLogger); err != nil {
			return nil, err
		}
		return dbwriter.NewTimescaleWriter(pool, cfg.DBWriter, zapLogger)
	case cfg.Output.SQLitePath != "":
		return dbwriter.NewSQLiteWriter(cfg.Output.SQLitePath, zapLogger)
	default:
		return dbwriter.NewDummyWriter(logger.NewLogger(cfg.LogLevel)), nil
	}
}
