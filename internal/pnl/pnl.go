// Package pnl tracks realized R per symbol and trading day.
package pnl

import (
	"sync"
	"time"
)

type dayKey struct {
	symbol string
	date   time.Time
}

// DailyLedger records cumulative realized R for each (symbol, date) of a run.
// It is created by the orchestrator and never shared across runs.
type DailyLedger struct {
	realized map[dayKey]float64
	mutex    sync.RWMutex
}

// NewDailyLedger creates an empty ledger.
func NewDailyLedger() *DailyLedger {
	return &DailyLedger{realized: make(map[dayKey]float64)}
}

// Add books r against symbol on date and returns the new cumulative R.
func (l *DailyLedger) Add(symbol string, date time.Time, r float64) float64 {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	k := dayKey{symbol, date}
	l.realized[k] += r
	return l.realized[k]
}

// Realized returns the cumulative R booked for symbol on date.
func (l *DailyLedger) Realized(symbol string, date time.Time) float64 {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return l.realized[dayKey{symbol, date}]
}

// CloseDay discards the state kept for symbol on date.
func (l *DailyLedger) CloseDay(symbol string, date time.Time) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	delete(l.realized, dayKey{symbol, date})
}

// OpenDays returns how many (symbol, date) entries are still held.
func (l *DailyLedger) OpenDays() int {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return len(l.realized)
}
