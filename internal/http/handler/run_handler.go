package handler

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/your-org/orb-backtester/internal/report"
)

// SampleSummary is the JSON view of one sample's statistics. ProfitFactor
// is a string because an unbounded value has no JSON number form.
type SampleSummary struct {
	Label        string  `json:"label"`
	Trades       int     `json:"trades"`
	WinRatePct   float64 `json:"win_rate_pct"`
	TotalR       float64 `json:"total_r"`
	MaxDrawdownR float64 `json:"max_drawdown_r"`
	ProfitFactor string  `json:"profit_factor"`
	Sharpe       float64 `json:"sharpe"`
}

// NewSampleSummary converts report statistics to their JSON view.
func NewSampleSummary(s report.Stats) SampleSummary {
	return SampleSummary{
		Label:        s.Label,
		Trades:       s.TradeCount,
		WinRatePct:   s.WinRatePct(),
		TotalR:       s.TotalR,
		MaxDrawdownR: s.MaxDrawdownR,
		ProfitFactor: report.FormatProfitFactor(s.ProfitFactor),
		Sharpe:       s.Sharpe,
	}
}

// RunSummary はHTTPで公開する直近のバックテスト結果です。
type RunSummary struct {
	RunID          string          `json:"run_id"`
	FinishedAt     time.Time       `json:"finished_at"`
	Samples        []SampleSummary `json:"samples"`
	DayCounts      map[string]int  `json:"day_counts"`
	OverfitWarning bool            `json:"overfit_warning"`
}

// RunHandler はバックテスト結果関連のHTTPリクエストを処理します。
type RunHandler struct {
	latest atomic.Pointer[RunSummary]
}

// NewRunHandler は新しいRunHandlerを作成します。
func NewRunHandler() *RunHandler {
	return &RunHandler{}
}

// SetLatest replaces the summary served by GetLatestRun.
func (h *RunHandler) SetLatest(s RunSummary) {
	h.latest.Store(&s)
}

// RegisterRoutes registers the health and run routes on mux.
func (h *RunHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", HealthCheckHandler)
	mux.HandleFunc("GET /runs/latest", h.GetLatestRun)
}

// GetLatestRun は直近のバックテスト結果を返します。まだ実行がない場合は404です。
func (h *RunHandler) GetLatestRun(w http.ResponseWriter, r *http.Request) {
	latest := h.latest.Load()
	if latest == nil {
		http.Error(w, "No completed backtest run yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(latest); err != nil {
		http.Error(w, "Failed to encode run summary to JSON", http.StatusInternalServerError)
	}
}
