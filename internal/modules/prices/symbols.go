package prices

import (
	"strings"

	"github.com/aristath/folio/internal/domain"
)

// Korean listings are quoted on KOSPI (.KS) or KOSDAQ (.KQ).
var koreanSuffixes = []string{".KS", ".KQ"}

// CandidateSymbols returns the provider symbols to try, in order, for a holding.
// Korean-market symbols without an exchange suffix expand to both exchanges.
func CandidateSymbols(symbol string, market domain.Market) []string {
	symbol = strings.TrimSpace(symbol)
	if market != domain.MarketKR || strings.Contains(symbol, ".") || strings.HasPrefix(symbol, "^") {
		return []string{symbol}
	}

	out := make([]string, 0, len(koreanSuffixes))
	for _, suffix := range koreanSuffixes {
		out = append(out, symbol+suffix)
	}
	return out
}
