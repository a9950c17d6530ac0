// Package handlers provides HTTP handlers for chart data.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/charts"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles chart HTTP requests
type Handler struct {
	service *charts.Service
	log     zerolog.Logger
}

// NewHandler creates a new charts handler
func NewHandler(service *charts.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "charts").Logger(),
	}
}

// SparklinesRequest lists the instruments to chart
type SparklinesRequest struct {
	Instruments []charts.Instrument `json:"instruments"`
	Period      string              `json:"period"`
}

// HandleGetSparklines handles POST /api/charts/sparklines
func (h *Handler) HandleGetSparklines(w http.ResponseWriter, r *http.Request) {
	var req SparklinesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Period == "" {
		req.Period = "1Y"
	}

	sparklines, err := h.service.GetSparklinesAggregated(r.Context(), req.Instruments, req.Period)
	if err != nil {
		h.fail(w, err, "Failed to get sparklines")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": sparklines,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"period":    req.Period,
		},
	})
}

// HandleGetSecurityChart handles GET /api/charts/securities/{symbol}?range=1Y&market=KR
func (h *Handler) HandleGetSecurityChart(w http.ResponseWriter, r *http.Request) {
	inst := charts.Instrument{
		Symbol: strings.ToUpper(chi.URLParam(r, "symbol")),
		Market: domain.Market(strings.ToUpper(r.URL.Query().Get("market"))),
	}

	chart, err := h.service.GetSecurityChart(r.Context(), inst, r.URL.Query().Get("range"))
	if err != nil {
		h.fail(w, err, "Failed to get security chart")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": chart,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// fail maps unknown ranges to 400 and everything else to 500.
func (h *Handler) fail(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, charts.ErrUnknownRange) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.log.Error().Err(err).Msg(msg)
	http.Error(w, msg, http.StatusInternalServerError)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
