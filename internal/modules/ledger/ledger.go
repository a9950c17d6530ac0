// Package ledger replays the append-only transaction log into share counts and holdings.
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aristath/folio/internal/domain"
)

// ErrNegativeShares means a replay sold more shares than were held.
// It is a data-integrity fault and is never clamped.
var ErrNegativeShares = errors.New("negative reconstructed share count")

// shareEpsilon absorbs float noise from fractional shares.
const shareEpsilon = 1e-9

// Sorted returns a chronological copy of txs. Same-day entries keep their input order.
func Sorted(txs []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// SharesAsOf replays every transaction dated on or before date. Buys add, sells
// subtract, dividends are ignored. A negative result is returned together with
// ErrNegativeShares.
func SharesAsOf(txs []domain.Transaction, date time.Time) (float64, error) {
	target := domain.Day(date)
	shares := 0.0
	for _, tx := range Sorted(txs) {
		if domain.Day(tx.Date).After(target) {
			break
		}
		switch tx.Type {
		case domain.TransactionBuy:
			shares += tx.Shares
		case domain.TransactionSell:
			shares -= tx.Shares
		}
	}

	if shares < -shareEpsilon {
		symbol := ""
		if len(txs) > 0 {
			symbol = txs[0].Symbol
		}
		return shares, fmt.Errorf("%w: %s holds %.6f shares on %s", ErrNegativeShares, symbol, shares, target.Format("2006-01-02"))
	}
	return shares, nil
}

// EarliestDate returns the date of the first transaction, false for an empty log.
func EarliestDate(txs []domain.Transaction) (time.Time, bool) {
	if len(txs) == 0 {
		return time.Time{}, false
	}
	earliest := txs[0].Date
	for _, tx := range txs[1:] {
		if tx.Date.Before(earliest) {
			earliest = tx.Date
		}
	}
	return domain.Day(earliest), true
}

// BySymbol groups transactions by symbol, preserving input order within a group.
func BySymbol(txs []domain.Transaction) map[string][]domain.Transaction {
	out := make(map[string][]domain.Transaction)
	for _, tx := range txs {
		out[tx.Symbol] = append(out[tx.Symbol], tx)
	}
	return out
}
