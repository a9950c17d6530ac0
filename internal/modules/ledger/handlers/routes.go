package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all ledger routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/ledger", func(r chi.Router) {
		r.Post("/holdings", h.HandleGetHoldings)
		r.Post("/shares", h.HandleGetShares)
		r.Post("/summary", h.HandleGetSummary)
	})
}
