package backtest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/your-org/orb-backtester/internal/csvwriter"
	"github.com/your-org/orb-backtester/internal/dbwriter"
	"github.com/your-org/orb-backtester/internal/report"
	"github.com/your-org/orb-backtester/internal/simulator"
)

// Publish renders the console report, writes the CSV outputs and persists
// the run through the configured repository.
func (r *Runner) Publish(ctx context.Context, res *Result) error {
	if res == nil || res.All.NoTrades {
		return report.ErrNoTrades
	}
	if err := r.writeConsole(res); err != nil {
		return fmt.Errorf("write console report: %w", err)
	}

	var errs []error
	if _, err := csvwriter.WriteTradeLog(r.cfg.Output.TradeLog, res.Trades, r.logger); err != nil {
		errs = append(errs, fmt.Errorf("trade log: %w", err))
	}
	if err := csvwriter.WriteEquityCurve(r.cfg.Output.EquityCurve, []report.Stats{res.InSample, res.OutOfSample}, r.logger); err != nil {
		errs = append(errs, fmt.Errorf("equity curve: %w", err))
	}
	if r.repo != nil {
		if err := r.persist(ctx, res); err != nil {
			errs = append(errs, fmt.Errorf("persist run %s: %w", res.RunID, err))
		}
	}
	return errors.Join(errs...)
}

func (r *Runner) writeConsole(res *Result) error {
	for _, step := range []func() error{
		func() error { return report.WriteSummary(r.out, res.All) },
		func() error { return report.WriteMonthly(r.out, res.All.Monthly) },
		func() error { return report.WriteSummary(r.out, res.InSample) },
		func() error { return report.WriteSummary(r.out, res.OutOfSample) },
		func() error { return r.writeDayCounts(res) },
	} {
		if err := step(); err != nil {
			return err
		}
	}
	if res.Overfit != nil {
		if _, err := fmt.Fprintf(r.out, "\n  WARNING: %s\n", res.Overfit); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) writeDayCounts(res *Result) error {
	var b strings.Builder
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "  SESSION OUTCOMES")
	for _, kind := range simulator.DayKinds {
		fmt.Fprintf(&b, "  %-12s %6d\n", kind, res.DayCounts[kind])
	}
	if len(res.Skipped) > 0 {
		fmt.Fprintf(&b, "  skipped symbols: %s\n", strings.Join(res.Skipped, ", "))
	}
	_, err := fmt.Fprint(r.out, b.String())
	return err
}

func (r *Runner) persist(ctx context.Context, res *Result) error {
	dayCounts := make(map[string]int, len(res.DayCounts))
	for kind, n := range res.DayCounts {
		dayCounts[string(kind)] = n
	}
	run := dbwriter.Run{
		ID:             res.RunID,
		CreatedAt:      res.CreatedAt,
		StartDate:      r.cfg.StartDate.Time,
		EndDate:        r.cfg.EndDate.Time,
		Symbols:        r.cfg.Symbols,
		Params:         r.paramsRecord(),
		TradeCount:     len(res.Trades),
		DayCounts:      dayCounts,
		OverfitWarning: res.Overfit != nil,
	}
	if err := r.repo.SaveRun(ctx, run); err != nil {
		return err
	}
	if err := r.repo.SaveTrades(ctx, res.RunID, res.Trades); err != nil {
		return err
	}
	for _, s := range []report.Stats{res.All, res.InSample, res.OutOfSample} {
		if err := r.repo.SaveStats(ctx, res.RunID, s); err != nil {
			return err
		}
	}
	r.logger.Info("run persisted", zap.Stringer("runID", res.RunID), zap.Int("trades", len(res.Trades)))
	return nil
}

func (r *Runner) paramsRecord() map[string]any {
	return map[string]any{
		"timezone":              r.cfg.Timezone,
		"window_bars":           r.params.WindowBars,
		"min_day_bars":          r.params.MinDayBars,
		"risk_multiplier":       r.params.RiskMultiplier,
		"account_size":          r.params.Sizer.AccountSize,
		"risk_percent":          r.params.Sizer.RiskPercent,
		"atr_period":            r.params.Sizer.ATRPeriod,
		"fallback_size":         r.params.Sizer.FallbackSize,
		"max_daily_loss_r":      r.params.Filters.MaxDailyLossR,
		"volume_multiplier":     r.params.Filters.VolumeMultiplier,
		"volume_lookback":       r.params.Filters.VolumeLookback,
		"gap_threshold":         r.params.Filters.GapThreshold,
		"late_entry_cutoff":     r.cfg.Filters.LateEntryCutoff.String(),
		"in_sample_ratio":       r.cfg.WalkForward.InSampleRatio,
		"overfit_threshold_pct": r.cfg.WalkForward.OverfitThresholdPct,
	}
}
