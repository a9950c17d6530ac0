// Package prices holds daily close-price series and the cached store that resolves them.
package prices

import (
	"sort"
	"time"

	"github.com/aristath/folio/internal/domain"
)

// Point is one daily close
type Point struct {
	Date  time.Time `json:"date" msgpack:"d"`
	Close float64   `json:"close" msgpack:"c"`
}

// Series is a date-ascending sequence with at most one point per date.
type Series []Point

// NewSeries normalizes raw points: dates are truncated to the day, duplicates keep the
// last occurrence, and the result is sorted ascending.
func NewSeries(points []Point) Series {
	return Merge(nil, points)
}

// Merge unions cached and incoming points keyed by date. Incoming values win.
func Merge(cached Series, incoming []Point) Series {
	byDate := make(map[time.Time]float64, len(cached)+len(incoming))
	for _, p := range cached {
		byDate[domain.Day(p.Date)] = p.Close
	}
	for _, p := range incoming {
		byDate[domain.Day(p.Date)] = p.Close
	}

	merged := make(Series, 0, len(byDate))
	for d, c := range byDate {
		merged = append(merged, Point{Date: d, Close: c})
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Date.Before(merged[j].Date)
	})
	return merged
}

func (s Series) clone() Series {
	return append(Series(nil), s...)
}

// OnOrBefore returns the newest point dated on or before date.
func (s Series) OnOrBefore(date time.Time) (Point, bool) {
	target := domain.Day(date)
	for i := len(s) - 1; i >= 0; i-- {
		if !s[i].Date.After(target) {
			return s[i], true
		}
	}
	return Point{}, false
}

// MostRecent returns the last point of the series.
func (s Series) MostRecent() (Point, bool) {
	if len(s) == 0 {
		return Point{}, false
	}
	return s[len(s)-1], true
}

// First returns the oldest point of the series.
func (s Series) First() (Point, bool) {
	if len(s) == 0 {
		return Point{}, false
	}
	return s[0], true
}

// Closes returns the close values in date order.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Close
	}
	return out
}

// Between returns the points dated within [from, to].
func (s Series) Between(from, to time.Time) Series {
	from, to = domain.Day(from), domain.Day(to)
	out := make(Series, 0, len(s))
	for _, p := range s {
		if p.Date.Before(from) || p.Date.After(to) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Validate reports whether the series is strictly ascending by date.
func (s Series) Validate() bool {
	for i := 1; i < len(s); i++ {
		if !s[i].Date.After(s[i-1].Date) {
			return false
		}
	}
	return true
}
