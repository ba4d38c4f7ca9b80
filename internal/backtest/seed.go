package backtest

import (
	"context"

	"go.uber.org/zap"

	"github.com/your-org/orb-backtester/internal/datastore"
)

// Seed copies the bars a Run would read from the runner's source into dst,
// over the same intraday and daily windows.
func (r *Runner) Seed(ctx context.Context, dst datastore.BarSink) (datastore.SeedResult, error) {
	iStart, iEnd := r.intradayRange()
	dStart, dEnd := r.dailyRange()

	res, err := datastore.Seed(ctx, r.source, dst, r.cfg.Symbols,
		datastore.Window{Start: iStart, End: iEnd},
		datastore.Window{Start: dStart, End: dEnd})
	if err != nil {
		return res, err
	}
	r.logger.Info("bars seeded",
		zap.Int("intraday", res.Intraday),
		zap.Int("daily", res.Daily),
		zap.Strings("missing", res.Missing))
	return res, nil
}
