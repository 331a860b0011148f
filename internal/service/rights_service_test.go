package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/testutil"
)

// TestRightsService_ProcessHolding tests fetching, folding and persisting.
//
// WHY: the persisted holding row and its event rows must always describe the
// same fold. A failed provider call must leave both untouched.
func TestRightsService_ProcessHolding(t *testing.T) {
	ctx := context.Background()

	t.Run("persists the folded holding and events", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		account := testutil.NewAccount().Build(t, db)
		holding := testutil.NewHolding(account.ID).Build(t, db)
		mock := testutil.NewMockProvider().
			WithRecords("2330", testutil.CashRecord("2330", "2023-06-01", 1.5))
		svc := testutil.NewTestRightsService(t, db, mock)

		resp, err := svc.ProcessHolding(ctx, holding.ID, false)
		require.NoError(t, err)

		assert.Equal(t, 1, resp.EventsAdded)
		assert.Equal(t, int64(1000), resp.Holding.Shares)
		require.NotNil(t, resp.Holding.AdjustedCostPrice)
		assert.InDelta(t, 28.5, *resp.Holding.AdjustedCostPrice, 1e-9)

		stored, err := testutil.NewTestHoldingService(t, db, nil).GetHolding(ctx, holding.ID)
		require.NoError(t, err)
		require.Len(t, stored.DividendRecords, 1)
		assert.InDelta(t, 28.5, *stored.AdjustedCostPrice, 1e-9)
		assert.InDelta(t, 1500.0, stored.DividendRecords[0].TotalCashDividend, 1e-9)
		assert.Equal(t, testutil.Date(2023, 6, 1), stored.DividendRecords[0].ExRightDate)
		require.NotNil(t, stored.LastDividendUpdate)
		assert.True(t, testutil.ProcessedAt.Equal(*stored.LastDividendUpdate))
	})

	t.Run("newest-first input is folded oldest-first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		account := testutil.NewAccount().Build(t, db)
		holding := testutil.NewHolding(account.ID).Build(t, db)
		mock := testutil.NewMockProvider().WithRecords("2330",
			testutil.StockRecord("2330", "2024-06-01", 0, 25),
			testutil.StockRecord("2330", "2023-06-01", 0, 8),
		)
		svc := testutil.NewTestRightsService(t, db, mock)

		resp, err := svc.ProcessHolding(ctx, holding.ID, false)
		require.NoError(t, err)

		assert.Equal(t, int64(1033), resp.Holding.Shares)
		events := resp.Holding.DividendRecords
		require.Len(t, events, 2)
		assert.Equal(t, int64(1008), events[0].SharesAfterRight)
		assert.Equal(t, int64(1008), events[1].SharesBeforeRight)
		assert.Equal(t, int64(25), events[1].StockDividendShares)
	})

	t.Run("second run with the same data changes nothing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		account := testutil.NewAccount().Build(t, db)
		holding := testutil.NewHolding(account.ID).Build(t, db)
		mock := testutil.NewMockProvider().WithRecords("2330",
			testutil.CashRecord("2330", "2023-06-01", 1.5),
			testutil.StockRecord("2330", "2024-06-01", 1.0, 30),
		)
		svc := testutil.NewTestRightsService(t, db, mock)

		first, err := svc.ProcessHolding(ctx, holding.ID, false)
		require.NoError(t, err)
		second, err := svc.ProcessHolding(ctx, holding.ID, false)
		require.NoError(t, err)

		assert.Equal(t, 0, second.EventsAdded)
		assert.Equal(t, 2, second.EventsSkipped)
		assert.Equal(t, first.Holding.Shares, second.Holding.Shares)
		assert.Equal(t, *first.Holding.AdjustedCostPrice, *second.Holding.AdjustedCostPrice)
		assert.Equal(t, 2, testutil.CountRows(t, db, "distribution_event", "holding_id = ?", holding.ID))
	})

	t.Run("provider failure keeps stored state", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		account := testutil.NewAccount().Build(t, db)
		event := testutil.NewEvent("2330", testutil.Date(2023, 6, 1), 1000, 30, 1.5, 0)
		holding := testutil.NewHolding(account.ID).WithAdjustedCostPrice(28.5).WithEvents(event).Build(t, db)
		mock := testutil.NewMockProvider().WithError("2330", apperrors.ErrProviderUnavailable)
		svc := testutil.NewTestRightsService(t, db, mock)

		_, err := svc.ProcessHolding(ctx, holding.ID, true)

		assert.ErrorIs(t, err, apperrors.ErrProviderUnavailable)
		stored, err := testutil.NewTestHoldingService(t, db, nil).GetHolding(ctx, holding.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.LastDividendUpdate)
		assert.Len(t, stored.DividendRecords, 1)
	})

	t.Run("provider timeout is a failure", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		account := testutil.NewAccount().Build(t, db)
		holding := testutil.NewHolding(account.ID).Build(t, db)
		mock := testutil.NewMockProvider().WithDelay(5 * time.Second)
		svc := testutil.NewTestRightsService(t, db, mock)

		_, err := svc.ProcessHolding(ctx, holding.ID, false)

		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("no data is not an error", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		account := testutil.NewAccount().Build(t, db)
		holding := testutil.NewHolding(account.ID).Build(t, db)
		svc := testutil.NewTestRightsService(t, db, testutil.NewMockProvider())

		resp, err := svc.ProcessHolding(ctx, holding.ID, false)

		require.NoError(t, err)
		assert.Empty(t, resp.Holding.DividendRecords)
		assert.Equal(t, int64(1000), resp.Holding.Shares)
		assert.InDelta(t, 30.0, *resp.Holding.AdjustedCostPrice, 1e-9)
	})

	t.Run("pre-purchase events are excluded", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		account := testutil.NewAccount().Build(t, db)
		holding := testutil.NewHolding(account.ID).WithPurchaseDate(testutil.Date(2024, 1, 1)).Build(t, db)
		mock := testutil.NewMockProvider().WithRecords("2330",
			testutil.CashRecord("2330", "2023-12-01", 2.0),
			testutil.CashRecord("2330", "2024-06-01", 1.0),
		)
		svc := testutil.NewTestRightsService(t, db, mock)

		resp, err := svc.ProcessHolding(ctx, holding.ID, false)

		require.NoError(t, err)
		require.Len(t, resp.Holding.DividendRecords, 1)
		assert.Equal(t, testutil.Date(2024, 6, 1), resp.Holding.DividendRecords[0].ExRightDate)
	})

	t.Run("unknown holding", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestRightsService(t, db, testutil.NewMockProvider())

		_, err := svc.ProcessHolding(ctx, testutil.MakeID(), false)

		assert.ErrorIs(t, err, apperrors.ErrHoldingNotFound)
	})
}

// TestRightsService_ConcurrentRuns tests per-holding serialisation.
//
// WHY: a manual refresh racing a batch refresh must not interleave. With
// serialised runs both calls succeed and the stored state equals one run.
func TestRightsService_ConcurrentRuns(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	account := testutil.NewAccount().Build(t, db)
	holding := testutil.NewHolding(account.ID).Build(t, db)
	mock := testutil.NewMockProvider().
		WithRecords("2330", testutil.StockRecord("2330", "2023-06-01", 1.0, 30)).
		WithDelay(20 * time.Millisecond)
	svc := testutil.NewTestRightsService(t, db, mock)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.ProcessHolding(ctx, holding.ID, i%2 == 0)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	stored, err := testutil.NewTestHoldingService(t, db, nil).GetHolding(ctx, holding.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1030), stored.Shares)
	assert.Len(t, stored.DividendRecords, 1)
	assert.Equal(t, 4, mock.CallCount("2330"))
}

// TestRightsService_Summary tests aggregation of stored events.
func TestRightsService_Summary(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	account := testutil.NewAccount().Build(t, db)
	first := testutil.NewEvent("2330", testutil.Date(2023, 6, 1), 1000, 30, 1.5, 0)
	second := testutil.NewEvent("2330", testutil.Date(2024, 6, 1), 1000, first.CostPriceAfterRight, 1.0, 30)
	holding := testutil.NewHolding(account.ID).WithEvents(first, second).Build(t, db)
	svc := testutil.NewTestRightsService(t, db, testutil.NewMockProvider())

	summary, err := svc.Summary(ctx, holding.ID)

	require.NoError(t, err)
	assert.Equal(t, 2, summary.EventsCount)
	assert.InDelta(t, 2500.0, summary.TotalCashDividend, 1e-9)
	assert.Equal(t, int64(30), summary.TotalStockDividend)
	require.NotNil(t, summary.LastEventDate)
	assert.Equal(t, testutil.Date(2024, 6, 1), *summary.LastEventDate)

	_, err = svc.Summary(ctx, testutil.MakeID())
	assert.True(t, errors.Is(err, apperrors.ErrHoldingNotFound))
}
