package dbwriter

import (
	"context"

	"github.com/google/uuid"

	"github.com/your-org/orb-backtester/internal/report"
	"github.com/your-org/orb-backtester/internal/simulator"
	"github.com/your-org/orb-backtester/pkg/logger"
)

// dummyWriter is a no-op implementation of the Repository interface.
// It is used when persistence is disabled.
type dummyWriter struct {
	logger logger.Logger
}

// NewDummyWriter creates a new dummy writer.
func NewDummyWriter(l logger.Logger) Repository {
	l.Debug("Creating dummy DB writer because persistence is disabled.")
	return &dummyWriter{logger: l}
}

// SaveRun does nothing and returns nil.
func (d *dummyWriter) SaveRun(ctx context.Context, run Run) error {
	d.logger.Debugf("Dummy writer: SaveRun called, runID=%s", run.ID)
	return nil
}

// SaveTrades does nothing and returns nil.
func (d *dummyWriter) SaveTrades(ctx context.Context, runID uuid.UUID, trades []simulator.Trade) error {
	d.logger.Debugf("Dummy writer: SaveTrades called, %d trades", len(trades))
	return nil
}

// SaveStats does nothing and returns nil.
func (d *dummyWriter) SaveStats(ctx context.Context, runID uuid.UUID, stats report.Stats) error {
	d.logger.Debugf("Dummy writer: SaveStats called, label=%s", stats.Label)
	return nil
}

// Close does nothing.
func (d *dummyWriter) Close() {
	d.logger.Debug("Dummy writer: Close called")
}
