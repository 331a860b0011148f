// Package provider defines the external market-data capabilities used by the
// rights engine and a fallback chain over several implementations.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// DistributionProvider fetches raw ex-dividend / ex-rights records.
//
// An empty slice with a nil error means the provider has no data for the
// symbol. Records may be unordered and duplicated.
type DistributionProvider interface {
	Name() string
	FetchDistributionEvents(ctx context.Context, symbol string, since time.Time) ([]model.RawDistributionRecord, error)
}

// PriceProvider fetches the latest market price of a symbol.
// A nil price with a nil error means the symbol is unknown to the provider.
type PriceProvider interface {
	Name() string
	FetchCurrentPrice(ctx context.Context, symbol string) (*model.Price, error)
}

// Chain tries providers in order and returns the first non-empty answer.
// When every provider fails it returns apperrors.ErrProviderUnavailable.
type Chain struct {
	distributions []DistributionProvider
	prices        []PriceProvider
	log           zerolog.Logger
}

// NewChain creates an empty Chain. Providers are added with
// WithDistributionProviders and WithPriceProviders.
func NewChain(log zerolog.Logger) *Chain {
	return &Chain{
		log: log.With().Str("component", "provider_chain").Logger(),
	}
}

// WithDistributionProviders appends distribution providers in priority order.
func (c *Chain) WithDistributionProviders(providers ...DistributionProvider) *Chain {
	c.distributions = append(c.distributions, providers...)
	return c
}

// WithPriceProviders appends price providers in priority order.
func (c *Chain) WithPriceProviders(providers ...PriceProvider) *Chain {
	c.prices = append(c.prices, providers...)
	return c
}

// Name identifies the chain in logs.
func (c *Chain) Name() string {
	return "chain"
}

// FetchDistributionEvents returns the records of the first provider that has
// any. If at least one provider answered without error but none had data the
// result is empty and the error nil.
func (c *Chain) FetchDistributionEvents(ctx context.Context, symbol string, since time.Time) ([]model.RawDistributionRecord, error) {
	var errs []error
	answered := false

	for _, p := range c.distributions {
		records, err := p.FetchDistributionEvents(ctx, symbol, since)
		if err != nil {
			c.log.Warn().Err(err).Str("provider", p.Name()).Str("symbol", symbol).Msg("Distribution provider failed")
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		answered = true
		if len(records) > 0 {
			c.log.Debug().Str("provider", p.Name()).Str("symbol", symbol).Int("records", len(records)).Msg("Fetched distribution records")
			return records, nil
		}
	}

	if answered {
		return nil, nil
	}
	return nil, unavailable(symbol, errs)
}

// FetchCurrentPrice returns the price of the first provider that knows the symbol.
func (c *Chain) FetchCurrentPrice(ctx context.Context, symbol string) (*model.Price, error) {
	var errs []error

	for _, p := range c.prices {
		price, err := p.FetchCurrentPrice(ctx, symbol)
		if err != nil {
			c.log.Warn().Err(err).Str("provider", p.Name()).Str("symbol", symbol).Msg("Price provider failed")
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if price != nil && price.Price > 0 {
			if price.Source == "" {
				price.Source = p.Name()
			}
			return price, nil
		}
	}

	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrSymbolNotFound, symbol)
	}
	return nil, unavailable(symbol, errs)
}

func unavailable(symbol string, errs []error) error {
	if len(errs) == 0 {
		return fmt.Errorf("%w: no providers configured for %s", apperrors.ErrProviderUnavailable, symbol)
	}
	return fmt.Errorf("%w: %s: %w", apperrors.ErrProviderUnavailable, symbol, errors.Join(errs...))
}
