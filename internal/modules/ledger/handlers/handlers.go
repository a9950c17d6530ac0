// Package handlers provides HTTP handlers for ledger operations.
//
// The ledger is owned by the caller, so every endpoint replays the transactions
// carried in the request body.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/ledger"
	"github.com/rs/zerolog"
)

// Handler handles ledger HTTP requests
type Handler struct {
	now func() time.Time
	log zerolog.Logger
}

// NewHandler creates a new ledger handler
func NewHandler(log zerolog.Logger) *Handler {
	return &Handler{
		now: time.Now,
		log: log.With().Str("handler", "ledger").Logger(),
	}
}

// LedgerRequest carries a transaction log and an optional as-of date
type LedgerRequest struct {
	Transactions []domain.Transaction `json:"transactions"`
	Symbol       string               `json:"symbol,omitempty"`
	AsOf         *time.Time           `json:"asOf,omitempty"`
}

func (req LedgerRequest) asOf(now time.Time) time.Time {
	if req.AsOf != nil {
		return *req.AsOf
	}
	return now
}

// HandleGetHoldings handles POST /api/ledger/holdings
func (h *Handler) HandleGetHoldings(w http.ResponseWriter, r *http.Request) {
	var req LedgerRequest
	if !h.decode(w, r, &req) {
		return
	}

	asOf := domain.Day(req.asOf(h.now()))
	holdings, err := ledger.BuildHoldings(req.Transactions, asOf)
	if err != nil {
		h.fail(w, err, "Failed to build holdings")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"holdings": holdings,
			"asOf":     asOf.Format("2006-01-02"),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetShares handles POST /api/ledger/shares
func (h *Handler) HandleGetShares(w http.ResponseWriter, r *http.Request) {
	var req LedgerRequest
	if !h.decode(w, r, &req) {
		return
	}
	symbol := strings.TrimSpace(req.Symbol)
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	asOf := domain.Day(req.asOf(h.now()))
	shares, err := ledger.SharesAsOf(ledger.BySymbol(req.Transactions)[symbol], asOf)
	if err != nil {
		h.fail(w, err, "Failed to reconstruct shares")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"symbol": symbol,
			"shares": shares,
			"asOf":   asOf.Format("2006-01-02"),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetSummary handles POST /api/ledger/summary
func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	var req LedgerRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": ledger.Summarize(req.Transactions),
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
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

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
