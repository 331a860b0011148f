package provider_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/provider"
)

type fakeProvider struct {
	name    string
	records []model.RawDistributionRecord
	price   *model.Price
	err     error
	calls   int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) FetchDistributionEvents(_ context.Context, _ string, _ time.Time) ([]model.RawDistributionRecord, error) {
	f.calls++
	return f.records, f.err
}

func (f *fakeProvider) FetchCurrentPrice(_ context.Context, _ string) (*model.Price, error) {
	f.calls++
	return f.price, f.err
}

func silent() zerolog.Logger { return zerolog.New(nil).Level(zerolog.Disabled) }

// TestChain_FetchDistributionEvents tests provider fallback for distributions.
//
// WHY: A failing provider must not hide data another provider has, and a
// provider that answers "no data" is not a failure.
func TestChain_FetchDistributionEvents(t *testing.T) {
	record := model.RawDistributionRecord{ExDividendDate: "2024-06-01", DividendPerShare: 1}

	t.Run("falls back to the next provider on error", func(t *testing.T) {
		first := &fakeProvider{name: "first", err: errors.New("boom")}
		second := &fakeProvider{name: "second", records: []model.RawDistributionRecord{record}}
		chain := provider.NewChain(silent()).WithDistributionProviders(first, second)

		got, err := chain.FetchDistributionEvents(context.Background(), "2330", time.Time{})

		require.NoError(t, err)
		assert.Equal(t, []model.RawDistributionRecord{record}, got)
		assert.Equal(t, 1, first.calls)
	})

	t.Run("stops at the first provider with data", func(t *testing.T) {
		first := &fakeProvider{name: "first", records: []model.RawDistributionRecord{record}}
		second := &fakeProvider{name: "second"}
		chain := provider.NewChain(silent()).WithDistributionProviders(first, second)

		_, err := chain.FetchDistributionEvents(context.Background(), "2330", time.Time{})

		require.NoError(t, err)
		assert.Equal(t, 0, second.calls)
	})

	t.Run("no data is not an error", func(t *testing.T) {
		chain := provider.NewChain(silent()).WithDistributionProviders(
			&fakeProvider{name: "first", err: errors.New("boom")},
			&fakeProvider{name: "second"},
		)

		got, err := chain.FetchDistributionEvents(context.Background(), "2330", time.Time{})

		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("all failing is provider unavailable", func(t *testing.T) {
		chain := provider.NewChain(silent()).WithDistributionProviders(
			&fakeProvider{name: "first", err: errors.New("boom")},
			&fakeProvider{name: "second", err: context.DeadlineExceeded},
		)

		_, err := chain.FetchDistributionEvents(context.Background(), "2330", time.Time{})

		assert.ErrorIs(t, err, apperrors.ErrProviderUnavailable)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("no providers is provider unavailable", func(t *testing.T) {
		_, err := provider.NewChain(silent()).FetchDistributionEvents(context.Background(), "2330", time.Time{})

		assert.ErrorIs(t, err, apperrors.ErrProviderUnavailable)
	})
}

// TestChain_FetchCurrentPrice tests provider fallback for prices.
func TestChain_FetchCurrentPrice(t *testing.T) {
	t.Run("skips providers without a price", func(t *testing.T) {
		chain := provider.NewChain(silent()).WithPriceProviders(
			&fakeProvider{name: "first"},
			&fakeProvider{name: "second", price: &model.Price{Symbol: "2330", Price: 612}},
		)

		got, err := chain.FetchCurrentPrice(context.Background(), "2330")

		require.NoError(t, err)
		assert.Equal(t, 612.0, got.Price)
		assert.Equal(t, "second", got.Source)
	})

	t.Run("unknown symbol", func(t *testing.T) {
		chain := provider.NewChain(silent()).WithPriceProviders(&fakeProvider{name: "first"})

		_, err := chain.FetchCurrentPrice(context.Background(), "XXXX")

		assert.ErrorIs(t, err, apperrors.ErrSymbolNotFound)
	})

	t.Run("all failing", func(t *testing.T) {
		chain := provider.NewChain(silent()).WithPriceProviders(&fakeProvider{name: "first", err: errors.New("down")})

		_, err := chain.FetchCurrentPrice(context.Background(), "2330")

		assert.ErrorIs(t, err, apperrors.ErrProviderUnavailable)
	})
}
