package formulas

// DrawdownMetrics represents drawdown analysis results.
// MaxDrawdown and CurrentDrawdown are fractions <= 0 (e.g. -0.25 = 25% below peak).
type DrawdownMetrics struct {
	MaxDrawdown     float64 `json:"max_drawdown"`
	CurrentDrawdown float64 `json:"current_drawdown"`
	DaysInDrawdown  int     `json:"days_in_drawdown"`
	PeakValue       float64 `json:"peak_value"`
	CurrentValue    float64 `json:"current_value"`
}

// DrawdownTracker follows a running peak for one value stream.
type DrawdownTracker struct {
	peak    float64
	started bool
	max     float64
}

// Observe feeds the next value and returns its drawdown from the running peak (<= 0).
func (d *DrawdownTracker) Observe(value float64) float64 {
	if !d.started || value > d.peak {
		d.peak = value
		d.started = true
	}
	if d.peak <= 0 {
		return 0
	}
	drawdown := (value - d.peak) / d.peak
	if drawdown > 0 {
		drawdown = 0
	}
	if drawdown < d.max {
		d.max = drawdown
	}
	return drawdown
}

// Max returns the most negative drawdown observed so far.
func (d *DrawdownTracker) Max() float64 {
	return d.max
}

// CalculateMaxDrawdown returns the most negative peak-to-trough drawdown as a fraction.
func CalculateMaxDrawdown(values []float64) float64 {
	var tracker DrawdownTracker
	for _, v := range values {
		tracker.Observe(v)
	}
	return tracker.Max()
}

// CalculateDrawdownMetrics calculates drawdown metrics
// including current drawdown, days in drawdown, and peak values
func CalculateDrawdownMetrics(values []float64) *DrawdownMetrics {
	if len(values) < 2 {
		return nil
	}

	var tracker DrawdownTracker
	peakIndex := 0
	current := 0.0
	for i, v := range values {
		if v > tracker.peak || i == 0 {
			peakIndex = i
		}
		current = tracker.Observe(v)
	}

	return &DrawdownMetrics{
		MaxDrawdown:     tracker.Max(),
		CurrentDrawdown: current,
		DaysInDrawdown:  len(values) - 1 - peakIndex,
		PeakValue:       tracker.peak,
		CurrentValue:    values[len(values)-1],
	}
}
