package prices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/rs/zerolog"
)

// LookbackPadDays widens every fetch so an on-or-before lookup at the requested start
// still finds a close across weekends and market holidays.
const LookbackPadDays = 10

// ErrNoData is returned by sources that answered but had no points for a symbol.
var ErrNoData = errors.New("no price data")

// Origin tells the caller where a series came from
type Origin string

const (
	OriginLive     Origin = "live"
	OriginCache    Origin = "cache"
	OriginFallback Origin = "fallback"
)

// Source fetches daily closes for one provider symbol since a date.
type Source interface {
	DailySeries(ctx context.Context, symbol string, market domain.Market, since time.Time) ([]Point, error)
}

// Archive persists series between process restarts. Optional.
type Archive interface {
	LoadSeries(symbol string, market domain.Market) (Series, error)
	SaveSeries(symbol string, market domain.Market, series Series) error
}

// Lookup is the result of resolving a series. Series is nil when Origin is fallback.
type Lookup struct {
	Symbol   string        `json:"symbol"`
	Market   domain.Market `json:"market"`
	Resolved string        `json:"resolved,omitempty"`
	Series   Series        `json:"-"`
	Origin   Origin        `json:"source"`
	Note     string        `json:"note,omitempty"`
}

// Available reports whether the lookup produced any points.
func (l Lookup) Available() bool {
	return len(l.Series) > 0
}

// Store resolves series through the cache, the source and the archive, in that order.
type Store struct {
	source  Source
	cache   *Cache
	archive Archive
	log     zerolog.Logger
}

// NewStore creates a new price series store. source and archive may be nil.
func NewStore(source Source, cache *Cache, archive Archive, log zerolog.Logger) *Store {
	if cache == nil {
		cache = NewCache(DefaultCacheTTL)
	}
	return &Store{
		source:  source,
		cache:   cache,
		archive: archive,
		log:     log.With().Str("service", "price_series").Logger(),
	}
}

// Cache exposes the underlying cache (used by the prune job).
func (s *Store) Cache() *Cache {
	return s.cache
}

// GetSeries returns the series for a holding covering start. Missing data is not an
// error: the lookup comes back with OriginFallback and a note. Only context
// cancellation is returned as an error.
func (s *Store) GetSeries(ctx context.Context, symbol string, market domain.Market, start time.Time) (Lookup, error) {
	since := domain.Day(start).AddDate(0, 0, -LookbackPadDays)
	lookup := Lookup{Symbol: symbol, Market: market}

	if series, ok := s.cache.Get(symbol, market, since); ok {
		lookup.Series = series
		lookup.Origin = OriginCache
		return lookup, nil
	}

	var lastErr error
	if s.source != nil {
		for _, candidate := range CandidateSymbols(symbol, market) {
			points, err := s.source.DailySeries(ctx, candidate, market, since)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return lookup, ctxErr
				}
				lastErr = err
				s.log.Debug().Err(err).Str("symbol", candidate).Msg("Candidate symbol fetch failed")
				continue
			}
			if len(points) == 0 {
				continue
			}

			merged := s.cache.Put(symbol, market, since, points)
			if s.archive != nil {
				if err := s.archive.SaveSeries(symbol, market, merged); err != nil {
					s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to archive series")
				}
			}
			lookup.Resolved = candidate
			lookup.Series = merged
			lookup.Origin = OriginLive
			return lookup, nil
		}
	}

	if series, ok := s.cache.Peek(symbol, market); ok {
		s.log.Warn().Str("symbol", symbol).Msg("Fetch failed, serving expired cached series")
		lookup.Series = series
		lookup.Origin = OriginCache
		lookup.Note = "served from expired cache"
		return lookup, nil
	}

	if s.archive != nil {
		series, err := s.archive.LoadSeries(symbol, market)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to load archived series")
		} else if len(series) > 0 {
			lookup.Series = series
			lookup.Origin = OriginCache
			lookup.Note = "served from archive"
			return lookup, nil
		}
	}

	lookup.Origin = OriginFallback
	lookup.Note = "no price data available"
	if lastErr != nil {
		lookup.Note = fmt.Sprintf("no price data available: %v", lastErr)
	}
	s.log.Warn().Str("symbol", symbol).Str("market", string(market)).Msg("No price series available")
	return lookup, nil
}

// PruneJob evicts expired cache entries on a schedule.
type PruneJob struct {
	cache *Cache
	log   zerolog.Logger
}

// NewPruneJob creates a cache prune job
func NewPruneJob(cache *Cache, log zerolog.Logger) *PruneJob {
	return &PruneJob{
		cache: cache,
		log:   log.With().Str("job", "price_cache_prune").Logger(),
	}
}

// Run executes the prune
func (j *PruneJob) Run() error {
	removed := j.cache.Prune()
	if removed > 0 {
		j.log.Info().Int("removed", removed).Int("remaining", j.cache.Len()).Msg("Pruned price cache")
	}
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *PruneJob) Name() string {
	return "price_cache_prune"
}
