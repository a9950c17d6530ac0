package currency

import (
	"context"
	"errors"
	"fmt"

	"github.com/aristath/folio/internal/domain"
	"github.com/rs/zerolog"
)

// ErrNoRate is returned when no source could quote a pair.
var ErrNoRate = errors.New("no exchange rate available")

// RateSource quotes a spot rate for a currency pair.
type RateSource interface {
	SpotRate(ctx context.Context, base, quote domain.Currency) (Rate, error)
}

// NamedSource pairs a RateSource with a label for logging.
type NamedSource struct {
	Name   string
	Source RateSource
}

// TieredRates asks each source in order and returns the first positive quote.
// It never falls back to a hardcoded rate.
type TieredRates struct {
	tiers []NamedSource
	log   zerolog.Logger
}

// NewTieredRates creates a tiered rate resolver. Nil sources are skipped.
func NewTieredRates(log zerolog.Logger, tiers ...NamedSource) *TieredRates {
	kept := make([]NamedSource, 0, len(tiers))
	for _, t := range tiers {
		if t.Source != nil {
			kept = append(kept, t)
		}
	}
	return &TieredRates{
		tiers: kept,
		log:   log.With().Str("service", "exchange_rates").Logger(),
	}
}

// SpotRate implements RateSource.
func (t *TieredRates) SpotRate(ctx context.Context, base, quote domain.Currency) (Rate, error) {
	if base == quote {
		return Rate{Base: base, Quote: quote, Rate: 1, Source: "identity"}, nil
	}

	var errs []error
	for _, tier := range t.tiers {
		rate, err := tier.Source.SpotRate(ctx, base, quote)
		if err == nil && rate.Rate > 0 {
			t.log.Debug().
				Str("base", string(base)).
				Str("quote", string(quote)).
				Float64("rate", rate.Rate).
				Str("tier", tier.Name).
				Msg("Resolved spot rate")
			return rate, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Rate{}, ctxErr
		}
		if err == nil {
			err = fmt.Errorf("%s returned non-positive rate %v", tier.Name, rate.Rate)
		}
		t.log.Warn().Err(err).Str("tier", tier.Name).Msg("Rate tier failed, trying next")
		errs = append(errs, err)
	}

	return Rate{}, fmt.Errorf("%w for %s/%s: %w", ErrNoRate, base, quote, errors.Join(errs...))
}

// Resolve builds a Normalizer for base, degrading to a rate-less one when no tier answers.
func Resolve(ctx context.Context, source RateSource, base domain.Currency, log zerolog.Logger) (Normalizer, error) {
	if source == nil {
		return NewNormalizer(base, nil), nil
	}
	rate, err := source.SpotRate(ctx, domain.CurrencyUSD, domain.CurrencyKRW)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Normalizer{}, ctxErr
		}
		log.Warn().Err(err).Msg("No USD/KRW rate, amounts will not be converted")
		return NewNormalizer(base, nil), nil
	}
	return NewNormalizer(base, &rate), nil
}
