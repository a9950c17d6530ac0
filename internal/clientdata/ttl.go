package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	TTLExchangeRate = time.Hour           // Currency exchange rates
	TTLPriceSeries  = 30 * 24 * time.Hour // Archived daily closes; the in-memory cache handles freshness
)

// StaleRetention is how long past expires_at a row is kept as an offline fallback
// before CleanupJob removes it.
var StaleRetention = map[string]time.Duration{
	TableExchangeRate: 7 * 24 * time.Hour,
	TablePriceSeries:  90 * 24 * time.Hour,
}
