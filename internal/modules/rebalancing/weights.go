package rebalancing

import (
	"math"
	"sort"
)

// tenthsTotal is 100.0% expressed in tenths of a percent.
const tenthsTotal = 1000

func sortHoldings(hs []Holding) {
	sort.Slice(hs, func(i, j int) bool { return hs[i].Symbol < hs[j].Symbol })
}

// equalWeights gives every symbol 100/N.
func equalWeights(hs []Holding) map[string]float64 {
	out := make(map[string]float64, len(hs))
	for _, h := range hs {
		out[h.Symbol] = 100 / float64(len(hs))
	}
	return out
}

// proportional splits share across hs by value, equally when their total is zero.
func proportional(hs []Holding, share float64, out map[string]float64) {
	total := 0.0
	for _, h := range hs {
		total += math.Max(h.Value, 0)
	}
	for _, h := range hs {
		if total <= 0 {
			out[h.Symbol] = share / float64(len(hs))
			continue
		}
		out[h.Symbol] = math.Max(h.Value, 0) / total * share
	}
}

// groupSplit gives members share percent and everyone else the rest, each group
// split by relative value. An empty group hands its share to the other.
func groupSplit(hs []Holding, member func(Holding) bool, share float64) map[string]float64 {
	var in, out []Holding
	for _, h := range hs {
		if member(h) {
			in = append(in, h)
		} else {
			out = append(out, h)
		}
	}

	weights := make(map[string]float64, len(hs))
	switch {
	case len(in) == 0:
		proportional(out, 100, weights)
	case len(out) == 0:
		proportional(in, 100, weights)
	default:
		proportional(in, share, weights)
		proportional(out, 100-share, weights)
	}
	return weights
}

// normalize scales weights to sum to 100. A zero sum gives equal weights.
func normalize(weights map[string]float64) map[string]float64 {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	out := make(map[string]float64, len(weights))
	for s, w := range weights {
		if total <= 0 {
			out[s] = 100 / float64(len(weights))
			continue
		}
		out[s] = w / total * 100
	}
	return out
}

// applyFloor raises every weight to at least floor percent and takes the difference
// proportionally from the rest, repeating until no weight is below the floor.
// When N*floor reaches 100 every symbol gets an equal share.
func applyFloor(weights map[string]float64, floor float64) map[string]float64 {
	n := float64(len(weights))
	if n == 0 {
		return weights
	}
	if n*floor >= 100 {
		out := make(map[string]float64, len(weights))
		for s := range weights {
			out[s] = 100 / n
		}
		return out
	}

	pinned := make(map[string]bool)
	for {
		free := 0.0
		for s, w := range weights {
			if !pinned[s] {
				free += w
			}
		}
		budget := 100 - float64(len(pinned))*floor

		changed := false
		for s, w := range weights {
			if pinned[s] {
				continue
			}
			scaled := budget / float64(len(weights)-len(pinned))
			if free > 0 {
				scaled = w / free * budget
			}
			if scaled < floor-1e-12 {
				pinned[s] = true
				changed = true
			}
		}
		if changed {
			continue
		}

		out := make(map[string]float64, len(weights))
		for s, w := range weights {
			switch {
			case pinned[s]:
				out[s] = floor
			case free > 0:
				out[s] = w / free * budget
			default:
				out[s] = budget / float64(len(weights)-len(pinned))
			}
		}
		return out
	}
}

// RoundWeights converts percentages to tenths of a percent that sum to exactly 100.0.
// Each weight is floored to a tenth, then the missing tenths go one at a time to the
// symbols with the largest truncated remainder (ties by symbol), wrapping as needed.
func RoundWeights(weights map[string]float64) map[string]float64 {
	if len(weights) == 0 {
		return map[string]float64{}
	}

	type cell struct {
		symbol string
		tenths int
		frac   float64
	}
	cells := make([]cell, 0, len(weights))
	sum := 0
	for s, w := range weights {
		scaled := math.Max(w, 0) * 10
		whole := math.Floor(scaled + 1e-9)
		frac := scaled - whole
		if frac < 0 {
			frac = 0
		}
		cells = append(cells, cell{symbol: s, tenths: int(whole), frac: frac})
		sum += int(whole)
	}

	remainder := tenthsTotal - sum
	if remainder > 0 {
		sort.Slice(cells, func(i, j int) bool {
			if cells[i].frac != cells[j].frac {
				return cells[i].frac > cells[j].frac
			}
			return cells[i].symbol < cells[j].symbol
		})
		for i := 0; remainder > 0; i = (i + 1) % len(cells) {
			cells[i].tenths++
			remainder--
		}
	} else if remainder < 0 {
		sort.Slice(cells, func(i, j int) bool {
			if cells[i].frac != cells[j].frac {
				return cells[i].frac < cells[j].frac
			}
			if cells[i].tenths != cells[j].tenths {
				return cells[i].tenths > cells[j].tenths
			}
			return cells[i].symbol > cells[j].symbol
		})
		for i := 0; remainder < 0; i = (i + 1) % len(cells) {
			if cells[i].tenths > 0 {
				cells[i].tenths--
				remainder++
			}
		}
	}

	out := make(map[string]float64, len(cells))
	for _, c := range cells {
		out[c.symbol] = float64(c.tenths) / 10
	}
	return out
}

// SumTenths adds weights in whole tenths of a percent, avoiding float drift.
func SumTenths(weights map[string]float64) int {
	sum := 0
	for _, w := range weights {
		sum += int(math.Round(w * 10))
	}
	return sum
}
