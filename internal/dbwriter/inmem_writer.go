package dbwriter

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/your-org/orb-backtester/internal/report"
	"github.com/your-org/orb-backtester/internal/simulator"
)

// InMemWriter is an in-memory implementation of the Repository interface for testing.
type InMemWriter struct {
	mu       sync.RWMutex
	Runs     []Run
	Trades   map[uuid.UUID][]simulator.Trade
	Stats    map[uuid.UUID][]report.Stats
	IsClosed bool
}

// NewInMemWriter creates a new InMemWriter.
func NewInMemWriter() *InMemWriter {
	return &InMemWriter{
		Runs:   make([]Run, 0),
		Trades: make(map[uuid.UUID][]simulator.Trade),
		Stats:  make(map[uuid.UUID][]report.Stats),
	}
}

// SaveRun appends a run header.
func (w *InMemWriter) SaveRun(ctx context.Context, run Run) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Runs = append(w.Runs, run)
	return nil
}

// SaveTrades appends trades under the run.
func (w *InMemWriter) SaveTrades(ctx context.Context, runID uuid.UUID, trades []simulator.Trade) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Trades[runID] = append(w.Trades[runID], trades...)
	return nil
}

// SaveStats appends stats under the run.
func (w *InMemWriter) SaveStats(ctx context.Context, runID uuid.UUID, stats report.Stats) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Stats[runID] = append(w.Stats[runID], stats)
	return nil
}

// Close marks the writer as closed.
func (w *InMemWriter) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.IsClosed = true
}

// Clear resets all stored data.
func (w *InMemWriter) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Runs = make([]Run, 0)
	w.Trades = make(map[uuid.UUID][]simulator.Trade)
	w.Stats = make(map[uuid.UUID][]report.Stats)
	w.IsClosed = false
}
