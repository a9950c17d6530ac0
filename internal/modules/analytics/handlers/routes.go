package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all analytics routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Post("/performance", h.HandlePerformance)
		r.Post("/benchmarks", h.HandleBenchmarks)
		r.Post("/risk", h.HandleRisk)
		r.Post("/rebalancing", h.HandleRebalancing)
		r.Post("/backtest", h.HandleBacktest)
		r.Post("/tax-optimization", h.HandleTaxOptimization)
		r.Post("/alerts", h.HandleAlerts)
		r.Post("/scenario", h.HandleScenario)
	})
}
