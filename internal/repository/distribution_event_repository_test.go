package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/repository"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/testutil"
)

// TestDistributionEventRepository tests event storage per holding.
//
// WHY: the processor always writes the complete event list. Replacing must
// drop stale rows and a rolled back transaction must leave the old list.
func TestDistributionEventRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	repo := repository.NewDistributionEventRepository(db)
	account := testutil.NewAccount().Build(t, db)

	first := testutil.NewEvent("2330", testutil.Date(2023, 6, 1), 1000, 30, 1.5, 0)
	second := testutil.NewEvent("2330", testutil.Date(2024, 7, 1), 1000, 28.5, 0, 30)
	holding := testutil.NewHolding(account.ID).WithEvents(second, first).Build(t, db)
	bare := testutil.NewHolding(account.ID).Build(t, db)

	t.Run("returns events ordered by ex-date", func(t *testing.T) {
		events, err := repo.GetEventsByHoldingIDs(ctx, []string{holding.ID, bare.ID})
		require.NoError(t, err)

		require.Len(t, events[holding.ID], 2)
		assert.Equal(t, first.ID, events[holding.ID][0].ID)
		assert.Equal(t, int64(30), events[holding.ID][1].StockDividendShares)
		assert.Equal(t, model.EventTypeStock, events[holding.ID][1].Type)
		_, ok := events[bare.ID]
		assert.False(t, ok)
	})

	t.Run("empty id list", func(t *testing.T) {
		events, err := repo.GetEventsByHoldingIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("rolled back replace keeps old events", func(t *testing.T) {
		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, repo.WithTx(tx).ReplaceEvents(ctx, holding.ID, nil))
		require.NoError(t, tx.Rollback())

		assert.Equal(t, 2, testutil.CountRows(t, db, "distribution_event", "holding_id = ?", holding.ID))
	})

	t.Run("replace", func(t *testing.T) {
		replacement := testutil.NewEvent("2330", testutil.Date(2023, 6, 1), 1000, 30, 2, 0)

		require.NoError(t, repo.ReplaceEvents(ctx, holding.ID, []model.DistributionEvent{replacement}))

		events, err := repo.GetEventsByHoldingIDs(ctx, []string{holding.ID})
		require.NoError(t, err)
		require.Len(t, events[holding.ID], 1)
		assert.Equal(t, 2000.0, events[holding.ID][0].TotalCashDividend)
		assert.Equal(t, holding.ID, events[holding.ID][0].HoldingID)
	})

	t.Run("duplicate ex-date is rejected", func(t *testing.T) {
		a := testutil.NewEvent("2330", testutil.Date(2025, 1, 2), 1000, 30, 1, 0)
		b := testutil.NewEvent("2330", testutil.Date(2025, 1, 2), 1000, 29, 1, 0)

		assert.Error(t, repo.ReplaceEvents(ctx, bare.ID, []model.DistributionEvent{a, b}))
	})
}
