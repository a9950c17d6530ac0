package risk

import (
	"math"
	"sort"
	"time"

	"github.com/aristath/folio/internal/modules/prices"
	"github.com/aristath/folio/pkg/formulas"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// minCorrelationObservations is the fewest overlapping return dates a matrix needs.
const minCorrelationObservations = 2

// Correlation is a symmetric matrix of daily-return correlations.
type Correlation struct {
	Symbols      []string    `json:"symbols"`
	Matrix       [][]float64 `json:"matrix"`
	Observations int         `json:"observations"`
	Insufficient bool        `json:"insufficient"`
}

// CorrelationMatrix correlates daily returns over the dates every series shares.
// Symbols are sorted. Fewer than two overlapping return dates give an Insufficient
// result with no matrix.
func CorrelationMatrix(series map[string]prices.Series) Correlation {
	symbols := make([]string, 0, len(series))
	for s, ser := range series {
		if len(ser) > 0 {
			symbols = append(symbols, s)
		}
	}
	sort.Strings(symbols)

	result := Correlation{Symbols: symbols}
	if len(symbols) < 2 {
		result.Insufficient = true
		return result
	}

	dates := commonDates(series, symbols)
	rows := len(dates) - 1
	if rows < minCorrelationObservations {
		result.Insufficient = true
		if rows > 0 {
			result.Observations = rows
		}
		return result
	}

	data := mat.NewDense(rows, len(symbols), nil)
	for j, symbol := range symbols {
		closes := closesOn(series[symbol], dates)
		for i, r := range formulas.CalculateReturns(closes) {
			data.Set(i, j, r)
		}
	}

	corr := mat.NewSymDense(len(symbols), nil)
	stat.CorrelationMatrix(corr, data, nil)

	result.Observations = rows
	result.Matrix = make([][]float64, len(symbols))
	for i := range symbols {
		result.Matrix[i] = make([]float64, len(symbols))
		for j := range symbols {
			v := corr.At(i, j)
			switch {
			case i == j:
				v = 1
			case math.IsNaN(v):
				v = 0
			}
			result.Matrix[i][j] = math.Max(-1, math.Min(1, v))
		}
	}
	return result
}

// Pair returns the correlation between two symbols, false when either is absent.
func (c Correlation) Pair(a, b string) (float64, bool) {
	if c.Insufficient {
		return 0, false
	}
	i, j := indexOf(c.Symbols, a), indexOf(c.Symbols, b)
	if i < 0 || j < 0 {
		return 0, false
	}
	return c.Matrix[i][j], true
}

func indexOf(symbols []string, s string) int {
	for i, v := range symbols {
		if v == s {
			return i
		}
	}
	return -1
}

func commonDates(series map[string]prices.Series, symbols []string) []time.Time {
	counts := make(map[time.Time]int)
	for _, s := range symbols {
		for _, p := range series[s] {
			counts[p.Date]++
		}
	}

	dates := make([]time.Time, 0, len(counts))
	for d, n := range counts {
		if n == len(symbols) {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

func closesOn(s prices.Series, dates []time.Time) []float64 {
	byDate := make(map[time.Time]float64, len(s))
	for _, p := range s {
		byDate[p.Date] = p.Close
	}
	out := make([]float64, len(dates))
	for i, d := range dates {
		out[i] = byDate[d]
	}
	return out
}
