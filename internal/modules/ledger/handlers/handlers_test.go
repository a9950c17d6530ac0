package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

func setupTestRouter() chi.Router {
	r := chi.NewRouter()
	NewHandler(zerolog.New(nil).Level(zerolog.Disabled)).RegisterRoutes(r)
	return r
}

func sampleTransactions() []domain.Transaction {
	return []domain.Transaction{
		{Symbol: "AAPL", Market: domain.MarketUS, Type: domain.TransactionBuy, Date: day(1, 10), Shares: 10, Price: 150, Currency: domain.CurrencyUSD},
		{Symbol: "AAPL", Market: domain.MarketUS, Type: domain.TransactionSell, Date: day(3, 1), Shares: 4, Price: 180, Currency: domain.CurrencyUSD},
		{Symbol: "005930", Market: domain.MarketKR, Type: domain.TransactionBuy, Date: day(2, 5), Shares: 5, Price: 70000, Currency: domain.CurrencyKRW},
	}
}

func post(t *testing.T, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	bodyBytes, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(bodyBytes))
	w := httptest.NewRecorder()
	setupTestRouter().ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Contains(t, response, "metadata")
	data, ok := response["data"].(map[string]interface{})
	require.True(t, ok, "data should be an object")
	return data
}

func TestHandleGetHoldings(t *testing.T) {
	asOf := day(2, 15)
	w := post(t, "/ledger/holdings", LedgerRequest{Transactions: sampleTransactions(), AsOf: &asOf})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	data := decodeData(t, w)
	assert.Equal(t, "2024-02-15", data["asOf"])
	holdings, ok := data["holdings"].([]interface{})
	require.True(t, ok)
	require.Len(t, holdings, 2)

	// Sorted by symbol; the March sell is after asOf
	first := holdings[0].(map[string]interface{})
	second := holdings[1].(map[string]interface{})
	assert.Equal(t, "005930", first["symbol"])
	assert.Equal(t, "AAPL", second["symbol"])
	assert.Equal(t, 10.0, second["shares"])
}

func TestHandleGetHoldings_Oversell(t *testing.T) {
	txs := []domain.Transaction{
		{Symbol: "AAPL", Type: domain.TransactionBuy, Date: day(1, 10), Shares: 1, Price: 150},
		{Symbol: "AAPL", Type: domain.TransactionSell, Date: day(1, 11), Shares: 2, Price: 150},
	}
	w := post(t, "/ledger/holdings", LedgerRequest{Transactions: txs})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "negative reconstructed share count")
}

func TestHandleGetShares(t *testing.T) {
	asOf := day(3, 1)
	w := post(t, "/ledger/shares", LedgerRequest{Transactions: sampleTransactions(), Symbol: "AAPL", AsOf: &asOf})

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "AAPL", data["symbol"])
	assert.Equal(t, 6.0, data["shares"])
}

func TestHandleGetShares_UnknownSymbolIsZero(t *testing.T) {
	w := post(t, "/ledger/shares", LedgerRequest{Transactions: sampleTransactions(), Symbol: "MSFT"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, decodeData(t, w)["shares"])
}

func TestHandleGetShares_MissingSymbol(t *testing.T) {
	w := post(t, "/ledger/shares", LedgerRequest{Transactions: sampleTransactions()})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleGetSummary(t *testing.T) {
	w := post(t, "/ledger/summary", LedgerRequest{Transactions: sampleTransactions()})

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, 3.0, data["count"])
	assert.Equal(t, 2.0, data["symbols"])

	byCurrency := data["byCurrency"].(map[string]interface{})
	usd := byCurrency["USD"].(map[string]interface{})
	assert.Equal(t, 1500.0, usd["bought"])
	assert.Equal(t, 720.0, usd["sold"])
}

func TestHandlers_InvalidBody(t *testing.T) {
	router := setupTestRouter()

	for _, path := range []string{"/ledger/holdings", "/ledger/shares", "/ledger/summary"} {
		req := httptest.NewRequest("POST", path, bytes.NewBufferString("{"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}
