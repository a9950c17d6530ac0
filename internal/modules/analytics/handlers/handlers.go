// Package handlers provides HTTP handlers for portfolio analytics.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/alerts"
	"github.com/aristath/folio/internal/modules/analytics"
	"github.com/aristath/folio/internal/modules/backtest"
	"github.com/aristath/folio/internal/modules/ledger"
	"github.com/aristath/folio/internal/modules/performance"
	"github.com/aristath/folio/internal/modules/rebalancing"
	"github.com/aristath/folio/internal/modules/scenario"
	"github.com/rs/zerolog"
)

// Handler handles analytics HTTP requests
type Handler struct {
	service *analytics.Service
	log     zerolog.Logger
}

// NewHandler creates a new analytics handler
func NewHandler(service *analytics.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "analytics").Logger(),
	}
}

// PortfolioRequest carries the portfolio every analytics request runs over.
type PortfolioRequest struct {
	Positions    []domain.Position    `json:"positions"`
	Transactions []domain.Transaction `json:"transactions"`
}

// BenchmarkRequest selects benchmarks and the comparison window
type BenchmarkRequest struct {
	PortfolioRequest
	Benchmarks []string `json:"benchmarks"`
	Period     string   `json:"period"`
}

// RebalancingRequest selects a preset; empty means all presets
type RebalancingRequest struct {
	PortfolioRequest
	Preset string `json:"preset"`
}

// BacktestRequest selects a strategy
type BacktestRequest struct {
	PortfolioRequest
	Strategy string `json:"strategy"`
}

// TaxRequest sets the harvest target and tax rate
type TaxRequest struct {
	PortfolioRequest
	TargetAmount float64 `json:"targetAmount"`
	TaxRate      float64 `json:"taxRate"`
}

// AlertsRequest carries optional advisor action items
type AlertsRequest struct {
	PortfolioRequest
	Advisor []alerts.AdvisorItem `json:"advisor"`
}

// ScenarioRequest carries the scenario to project
type ScenarioRequest struct {
	PortfolioRequest
	Scenario scenario.Config `json:"scenario"`
}

// HandlePerformance handles POST /api/analytics/performance
func (h *Handler) HandlePerformance(w http.ResponseWriter, r *http.Request) {
	var req PortfolioRequest
	if !h.decode(w, r, &req) {
		return
	}
	bundle, ok := h.load(w, r, req)
	if !ok {
		return
	}

	periods, err := h.service.Performance(bundle)
	if err != nil {
		h.fail(w, err, "Failed to calculate performance")
		return
	}
	h.writeData(w, map[string]interface{}{
		"periods":  periods,
		"currency": bundle.FX.Base,
		"degraded": bundle.Degraded(),
	})
}

// HandleBenchmarks handles POST /api/analytics/benchmarks
func (h *Handler) HandleBenchmarks(w http.ResponseWriter, r *http.Request) {
	var req BenchmarkRequest
	if !h.decode(w, r, &req) {
		return
	}
	period := performance.Period1Y
	if req.Period != "" {
		id, ok := performance.ParsePeriodID(req.Period)
		if !ok {
			http.Error(w, "Unknown period", http.StatusBadRequest)
			return
		}
		period = id
	}
	bundle, ok := h.load(w, r, req.PortfolioRequest)
	if !ok {
		return
	}

	results, err := h.service.Benchmarks(r.Context(), bundle, req.Benchmarks, period)
	if err != nil {
		h.fail(w, err, "Failed to compare benchmarks")
		return
	}
	h.writeData(w, map[string]interface{}{
		"period":     period,
		"benchmarks": results,
	})
}

// HandleRisk handles POST /api/analytics/risk
func (h *Handler) HandleRisk(w http.ResponseWriter, r *http.Request) {
	var req PortfolioRequest
	if !h.decode(w, r, &req) {
		return
	}
	bundle, ok := h.load(w, r, req)
	if !ok {
		return
	}

	report, err := h.service.Risk(bundle)
	if err != nil {
		h.fail(w, err, "Failed to calculate risk")
		return
	}
	h.writeData(w, map[string]interface{}{
		"risk":        report,
		"correlation": h.service.Correlation(bundle),
	})
}

// HandleRebalancing handles POST /api/analytics/rebalancing
func (h *Handler) HandleRebalancing(w http.ResponseWriter, r *http.Request) {
	var req RebalancingRequest
	if !h.decode(w, r, &req) {
		return
	}
	id := rebalancing.PresetID(req.Preset)
	if id != "" && !slices.Contains(rebalancing.PresetIDs, id) {
		http.Error(w, "Unknown rebalancing preset", http.StatusBadRequest)
		return
	}
	bundle, ok := h.load(w, r, req.PortfolioRequest)
	if !ok {
		return
	}

	recs, err := h.service.Rebalancing(bundle, id)
	if err != nil {
		h.fail(w, err, "Failed to calculate rebalancing")
		return
	}
	h.writeData(w, map[string]interface{}{
		"presets":         h.service.Presets(bundle),
		"recommendations": recs,
	})
}

// HandleBacktest handles POST /api/analytics/backtest
func (h *Handler) HandleBacktest(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if !h.decode(w, r, &req) {
		return
	}
	strategy := backtest.StrategyBaseline
	if req.Strategy != "" {
		s, err := backtest.ParseStrategy(req.Strategy)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		strategy = s
	}
	bundle, ok := h.load(w, r, req.PortfolioRequest)
	if !ok {
		return
	}

	result, err := h.service.Backtest(bundle, strategy)
	if err != nil {
		h.fail(w, err, "Failed to run backtest")
		return
	}
	h.writeData(w, result)
}

// HandleTaxOptimization handles POST /api/analytics/tax-optimization
func (h *Handler) HandleTaxOptimization(w http.ResponseWriter, r *http.Request) {
	var req TaxRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.TargetAmount < 0 {
		http.Error(w, "targetAmount must not be negative", http.StatusBadRequest)
		return
	}
	bundle, ok := h.load(w, r, req.PortfolioRequest)
	if !ok {
		return
	}

	h.writeData(w, h.service.TaxOptimization(bundle, req.TargetAmount, req.TaxRate))
}

// HandleAlerts handles POST /api/analytics/alerts
func (h *Handler) HandleAlerts(w http.ResponseWriter, r *http.Request) {
	var req AlertsRequest
	if !h.decode(w, r, &req) {
		return
	}
	bundle, ok := h.load(w, r, req.PortfolioRequest)
	if !ok {
		return
	}

	resp, err := h.service.Alerts(bundle, req.Advisor)
	if err != nil {
		h.fail(w, err, "Failed to evaluate alerts")
		return
	}
	h.writeData(w, resp)
}

// HandleScenario handles POST /api/analytics/scenario
func (h *Handler) HandleScenario(w http.ResponseWriter, r *http.Request) {
	var req ScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}
	if _, err := scenario.Resolve(req.Scenario); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	bundle, ok := h.load(w, r, req.PortfolioRequest)
	if !ok {
		return
	}

	resp, err := h.service.Scenario(bundle, req.Scenario)
	if err != nil {
		h.fail(w, err, "Failed to project scenario")
		return
	}
	h.writeData(w, resp)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request, req PortfolioRequest) (*analytics.Bundle, bool) {
	bundle, err := h.service.LoadBundle(r.Context(), req.Positions, req.Transactions)
	if err != nil {
		h.fail(w, err, "Failed to load market data")
		return nil, false
	}
	return bundle, true
}

// fail maps ledger faults to 400 and everything else to 500.
func (h *Handler) fail(w http.ResponseWriter, err error, msg string) {
	h.log.Error().Err(err).Msg(msg)
	if errors.Is(err, ledger.ErrNegativeShares) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Error(w, msg, http.StatusInternalServerError)
}

// writeData wraps data in the response envelope
func (h *Handler) writeData(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
