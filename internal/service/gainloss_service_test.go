package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/service"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/testutil"
)

// TestParseMode tests query value parsing.
func TestParseMode(t *testing.T) {
	mode, err := service.ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, model.ModeIncludingRights, mode)

	mode, err = service.ParseMode("cash_dividend_only")
	require.NoError(t, err)
	assert.Equal(t, model.ModeCashDividendOnly, mode)

	_, err = service.ParseMode("everything")
	assert.ErrorIs(t, err, apperrors.ErrInvalidMode)
}

// TestGainLossService_Evaluate tests evaluation with account rates.
//
// WHY: the fee rate comes from the holding's account, so two identical
// holdings in accounts with different brokers evaluate differently.
func TestGainLossService_Evaluate(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	account := testutil.NewAccount().WithRates(0.1, 0.3).Build(t, db)
	event := testutil.NewEvent("2330", testutil.Date(2023, 6, 1), 1000, 30, 1.5, 0)
	holding := testutil.NewHolding(account.ID).
		WithCurrentPrice(40).
		WithAdjustedCostPrice(28.5).
		WithEvents(event).
		Build(t, db)
	svc := testutil.NewTestGainLossService(t, db)

	t.Run("excluding rights", func(t *testing.T) {
		result, err := svc.Evaluate(ctx, holding.ID, model.ModeExcludingRights)
		require.NoError(t, err)

		// buy 30000 + fee 30, sell 40000 - fee 40 - tax 120
		assert.Equal(t, 30.0, result.BuyFee)
		assert.Equal(t, 40.0, result.SellFee)
		assert.Equal(t, 120.0, result.SellTax)
		assert.Equal(t, 9810.0, result.GainLoss)
		assert.Equal(t, 0.1, result.BrokerageFeeRate)
	})

	t.Run("including rights uses adjusted cost", func(t *testing.T) {
		result, err := svc.Evaluate(ctx, holding.ID, model.ModeIncludingRights)
		require.NoError(t, err)

		// buy 28500 + fee 29 (rounded from 28.5)
		assert.Equal(t, 28.5, result.CostPrice)
		assert.Equal(t, 11311.0, result.GainLoss)
	})

	t.Run("cash dividend only adds dividends", func(t *testing.T) {
		result, err := svc.Evaluate(ctx, holding.ID, model.ModeCashDividendOnly)
		require.NoError(t, err)

		assert.Equal(t, 1500.0, result.CashDividends)
		assert.Equal(t, 11310.0, result.GainLoss)
	})

	t.Run("invalid mode", func(t *testing.T) {
		_, err := svc.Evaluate(ctx, holding.ID, model.GainLossMode("bogus"))
		assert.ErrorIs(t, err, apperrors.ErrInvalidMode)
	})

	t.Run("unknown holding", func(t *testing.T) {
		_, err := svc.Evaluate(ctx, testutil.MakeID(), model.ModeIncludingRights)
		assert.ErrorIs(t, err, apperrors.ErrHoldingNotFound)
	})
}
