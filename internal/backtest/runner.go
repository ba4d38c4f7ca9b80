// Package backtest wires bar loading, per-symbol simulation and the
// cross-symbol reporting pipeline into one run.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/your-org/orb-backtester/internal/alert"
	"github.com/your-org/orb-backtester/internal/config"
	"github.com/your-org/orb-backtester/internal/correlation"
	"github.com/your-org/orb-backtester/internal/datastore"
	"github.com/your-org/orb-backtester/internal/dbwriter"
	"github.com/your-org/orb-backtester/internal/filter"
	"github.com/your-org/orb-backtester/internal/market"
	"github.com/your-org/orb-backtester/internal/pnl"
	"github.com/your-org/orb-backtester/internal/report"
	"github.com/your-org/orb-backtester/internal/simulator"
	"github.com/your-org/orb-backtester/internal/sizing"
	"github.com/your-org/orb-backtester/internal/walkforward"
)

// ErrNoInputData is returned when no configured symbol has bar data.
var ErrNoInputData = errors.New("no symbol produced any bar data")

// barMinutes is the intraday bar width.
const barMinutes = 5

// Result is the outcome of one backtest run.
type Result struct {
	RunID     uuid.UUID
	CreatedAt time.Time
	// Symbols holds one entry per symbol that had data, in configured order.
	Symbols []simulator.SymbolResult
	Skipped []string
	// Trades is the merged list after the correlation filter, sorted by date.
	Trades      []simulator.Trade
	Correlated  int
	All         report.Stats
	InSample    report.Stats
	OutOfSample report.Stats
	Overfit     *report.OverfitWarning
	DayCounts   map[simulator.DayKind]int
}

// Runner executes backtests for one configuration.
type Runner struct {
	cfg      *config.Config
	loc      *time.Location
	params   simulator.Params
	source   datastore.BarSource
	repo     dbwriter.Repository
	notifier alert.Notifier
	logger   *zap.Logger
	out      io.Writer
}

// NewRunner builds a Runner. repo, notifier, logger and out may be nil.
func NewRunner(cfg *config.Config, source datastore.BarSource, repo dbwriter.Repository, notifier alert.Notifier, logger *zap.Logger, out io.Writer) (*Runner, error) {
	if source == nil {
		return nil, errors.New("backtest: nil bar source")
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = alert.NewNoOpNotifier()
	}
	if out == nil {
		out = os.Stdout
	}
	return &Runner{
		cfg:      cfg,
		loc:      loc,
		params:   ParamsFromConfig(cfg, loc),
		source:   source,
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		out:      out,
	}, nil
}

// ParamsFromConfig maps the configuration onto simulator parameters.
func ParamsFromConfig(cfg *config.Config, loc *time.Location) simulator.Params {
	return simulator.Params{
		WindowBars:     cfg.ORB.WindowBars,
		MinDayBars:     cfg.ORB.MinDayBars,
		RiskMultiplier: cfg.ORB.RiskMultiplier,
		Filters: filter.Chain{
			GapThreshold:     cfg.Filters.GapThreshold,
			VolumeMultiplier: cfg.Filters.VolumeMultiplier,
			VolumeLookback:   cfg.Filters.VolumeLookback,
			LateEntryCutoff:  cfg.Filters.LateEntryCutoff.Minutes(),
			MaxDailyLossR:    cfg.Risk.MaxDailyLossR,
			Location:         loc,
		},
		Sizer: sizing.Sizer{
			AccountSize:  cfg.Risk.AccountSize,
			RiskPercent:  cfg.Risk.RiskPercent,
			ATRPeriod:    cfg.Risk.ATRPeriod,
			FallbackSize: cfg.Risk.FallbackSize,
		},
	}
}

func (r *Runner) pairs() []correlation.Pair {
	pairs := make([]correlation.Pair, len(r.cfg.CorrelationPairs))
	for i, p := range r.cfg.CorrelationPairs {
		pairs[i] = correlation.Pair{First: p.First, Second: p.Second}
	}
	return pairs
}

// Labels returns the sample labels used in reports, e.g. "IN-SAMPLE (70%)".
func (r *Runner) Labels() (all, in, out string) {
	inPct := r.cfg.WalkForward.InSampleRatio * 100
	return "FULL PERIOD",
		fmt.Sprintf("IN-SAMPLE (%.0f%%)", inPct),
		fmt.Sprintf("OUT-OF-SAMPLE (%.0f%%)", 100-inPct)
}

// intradayRange covers the configured dates in the session time zone, end inclusive.
func (r *Runner) intradayRange() (time.Time, time.Time) {
	return r.cfg.StartDate.Midnight(r.loc), r.cfg.EndDate.Midnight(r.loc).AddDate(0, 0, 1)
}

// dailyRange extends the start backwards by data.daily_lookback_days so ATR
// and the previous close are available from the first session.
func (r *Runner) dailyRange() (time.Time, time.Time) {
	start := r.cfg.StartDate.Midnight(time.UTC).AddDate(0, 0, -r.cfg.Data.DailyLookbackDays)
	return start, r.cfg.EndDate.Midnight(time.UTC).AddDate(0, 0, 1)
}

// Run loads every symbol, simulates them concurrently and analyzes the
// merged trade list. It returns report.ErrNoTrades, together with a
// partially filled Result, when the run produced no trades.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	r.logger.Info("starting ORB backtest",
		zap.Stringer("start", r.cfg.StartDate),
		zap.Stringer("end", r.cfg.EndDate),
		zap.Strings("symbols", r.cfg.Symbols),
		zap.Int("orbBars", r.params.WindowBars),
		zap.Int("orbMinutes", r.params.WindowBars*barMinutes),
	)

	results := make([]*simulator.SymbolResult, len(r.cfg.Symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, symbol := range r.cfg.Symbols {
		g.Go(func() error {
			res, err := r.runSymbol(gctx, symbol)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{
		RunID:     uuid.New(),
		CreatedAt: time.Now().UTC(),
		DayCounts: make(map[simulator.DayKind]int, len(simulator.DayKinds)),
	}
	var merged []simulator.Trade
	for i, sr := range results {
		if sr == nil {
			res.Skipped = append(res.Skipped, r.cfg.Symbols[i])
			continue
		}
		res.Symbols = append(res.Symbols, *sr)
		merged = append(merged, sr.Trades...)
		for kind, n := range sr.Counts() {
			res.DayCounts[kind] += n
		}
	}
	if len(res.Symbols) == 0 {
		return res, ErrNoInputData
	}
	if res.DayCounts[simulator.KindUnresolved] > 0 {
		r.logger.Info("positions left open at session end were not recorded as trades",
			zap.Int("days", res.DayCounts[simulator.KindUnresolved]))
	}

	filtered := correlation.Apply(merged, r.pairs())
	res.Correlated = len(merged) - len(filtered)
	if res.Correlated > 0 {
		r.logger.Info("correlation filter removed trades", zap.Int("removed", res.Correlated))
	}
	res.Trades = walkforward.SortByDate(filtered)

	allLabel, inLabel, outLabel := r.Labels()
	all, err := report.AnalyzeTrades(allLabel, res.Trades)
	res.All = all
	if err != nil {
		return res, err
	}

	in, out := walkforward.Split(res.Trades, r.cfg.WalkForward.InSampleRatio)
	res.InSample = analyzeSample(inLabel, in)
	res.OutOfSample = analyzeSample(outLabel, out)

	if w, ok := report.CheckOverfit(res.InSample, res.OutOfSample, r.cfg.WalkForward.OverfitThresholdPct); ok {
		res.Overfit = &w
		r.logger.Warn(w.String(),
			zap.Float64("inSampleWinRatePct", w.InSampleWinRatePct),
			zap.Float64("outSampleWinRatePct", w.OutSampleWinRatePct))
		if err := r.notifier.Send(w.String()); err != nil {
			r.logger.Warn("failed to send overfit alert", zap.Error(err))
		}
	}
	return res, nil
}

// analyzeSample tolerates an empty half; its Stats are flagged NoTrades.
func analyzeSample(label string, trades []simulator.Trade) report.Stats {
	s, _ := report.AnalyzeTrades(label, trades)
	return s
}

// runSymbol returns nil, nil when the symbol has no usable data.
func (r *Runner) runSymbol(ctx context.Context, symbol string) (*simulator.SymbolResult, error) {
	start, end := r.intradayRange()
	intraday, err := r.source.IntradayBars(ctx, symbol, start, end)
	if err != nil {
		return nil, r.skip(ctx, symbol, datastore.Timeframe5Min, err)
	}
	dStart, dEnd := r.dailyRange()
	daily, err := r.source.DailyBars(ctx, symbol, dStart, dEnd)
	if err != nil {
		return nil, r.skip(ctx, symbol, datastore.Timeframe1Day, err)
	}
	if len(intraday) == 0 || len(daily) == 0 {
		return nil, r.skip(ctx, symbol, "", datastore.ErrNoData)
	}
	market.SortByTime(intraday)
	market.SortByTime(daily)

	res := simulator.SimulateSymbol(symbol, intraday, daily, r.params, pnl.NewDailyLedger())
	r.logger.Info("symbol simulated",
		zap.String("symbol", symbol),
		zap.Int("trades", len(res.Trades)),
		zap.Int("days", len(res.Days)))
	return &res, nil
}

// skip logs a load failure and swallows it unless the run itself was cancelled.
func (r *Runner) skip(ctx context.Context, symbol string, tf datastore.Timeframe, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	fields := []zap.Field{zap.String("symbol", symbol), zap.Error(err)}
	if tf != "" {
		fields = append(fields, zap.String("timeframe", string(tf)))
	}
	if errors.Is(err, datastore.ErrNoData) {
		r.logger.Warn("skipping symbol: no data", fields...)
	} else {
		r.logger.Error("skipping symbol: failed to load bars", fields...)
	}
	return nil
}
