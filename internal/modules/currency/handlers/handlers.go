// Package handlers provides HTTP handlers for currency operations.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/currency"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles currency HTTP requests
type Handler struct {
	rates currency.RateSource
	base  domain.Currency
	log   zerolog.Logger
}

// NewHandler creates a new currency handler. rates may be nil, in which case every
// cross-currency request degrades.
func NewHandler(rates currency.RateSource, base domain.Currency, log zerolog.Logger) *Handler {
	return &Handler{
		rates: rates,
		base:  base,
		log:   log.With().Str("handler", "currency").Logger(),
	}
}

// ConvertRequest represents a request to convert currency
type ConvertRequest struct {
	FromCurrency string  `json:"from_currency"`
	ToCurrency   string  `json:"to_currency"`
	Amount       float64 `json:"amount"`
}

// HandleGetAvailableCurrencies handles GET /api/currency/available-currencies
func (h *Handler) HandleGetAvailableCurrencies(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"data": map[string]interface{}{
			"currencies":    []domain.Currency{domain.CurrencyUSD, domain.CurrencyKRW},
			"base_currency": h.base,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetRate handles GET /api/currency/rate/{base}/{quote}
func (h *Handler) HandleGetRate(w http.ResponseWriter, r *http.Request) {
	base, err := domain.ParseCurrency(chi.URLParam(r, "base"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	quote, err := domain.ParseCurrency(chi.URLParam(r, "quote"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rate, err := h.spotRate(r, base, quote)
	if err != nil {
		h.log.Warn().Err(err).Str("base", string(base)).Str("quote", string(quote)).Msg("Failed to get exchange rate")
		response := map[string]interface{}{
			"data": map[string]interface{}{
				"base":   base,
				"quote":  quote,
				"rate":   nil,
				"source": "fallback",
				"note":   fmt.Sprintf("Exchange rate not available: %v", err),
			},
			"metadata": map[string]interface{}{
				"timestamp": time.Now().Format(time.RFC3339),
			},
		}
		h.writeJSON(w, http.StatusOK, response)
		return
	}

	response := map[string]interface{}{
		"data": rate,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleConvert handles POST /api/currency/convert
func (h *Handler) HandleConvert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.FromCurrency == "" || req.ToCurrency == "" {
		http.Error(w, "from_currency and to_currency are required", http.StatusBadRequest)
		return
	}
	from, err := domain.ParseCurrency(req.FromCurrency)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, err := domain.ParseCurrency(req.ToCurrency)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 {
		http.Error(w, "amount must be greater than 0", http.StatusBadRequest)
		return
	}

	fx, err := currency.Resolve(r.Context(), h.rates, to, h.log)
	if err != nil {
		h.log.Error().Err(err).Msg("Rate lookup aborted")
		http.Error(w, "Rate lookup aborted", http.StatusServiceUnavailable)
		return
	}

	data := map[string]interface{}{
		"from_currency": from,
		"to_currency":   to,
		"amount":        req.Amount,
		"converted":     fx.Convert(req.Amount, from, to),
		"rate":          fx.RateValue(),
		"source":        fx.Source(),
	}
	if from != to && fx.Degraded() {
		data["converted"] = nil
		data["note"] = "Exchange rate not available"
	}

	response := map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

func (h *Handler) spotRate(r *http.Request, base, quote domain.Currency) (currency.Rate, error) {
	if base == quote {
		return currency.Rate{Base: base, Quote: quote, Rate: 1, Source: "identity"}, nil
	}
	if h.rates == nil {
		return currency.Rate{}, currency.ErrNoRate
	}
	return h.rates.SpotRate(r.Context(), base, quote)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
