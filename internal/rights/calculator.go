// Package rights implements the ex-dividend / ex-rights adjustment engine:
// normalizing provider records, folding distribution events over a holding's
// purchase state and evaluating gain/loss with transaction costs.
//
// Everything in this package is synchronous and free of I/O.
package rights

import (
	"math"

	"github.com/shopspring/decimal"
)

// PerMille is the denominator of a stock dividend ratio: bonus shares are
// quoted per 1000 held shares.
const PerMille = 1000

// Adjustment is the running state of a holding after one event has been applied.
type Adjustment struct {
	AdjustedCostPrice   float64
	SharesAfter         int64
	StockDividendShares int64
}

// ApplyEvent applies one distribution to a running (costPrice, shares) state.
//
// Bonus shares are floor(sharesBefore × ratio / 1000), computed in decimal
// so a ratio such as 8.2‰ is not floored from 819.999... The cash distribution
// is removed from the total cost before it is spread over the post-event share
// count, so a pure cash event lowers the cost basis without changing shares.
// The result is never negative; with no shares left the cost price is kept.
//
// Parameters:
//   - costPriceBefore: per-share cost basis before the event
//   - sharesBefore: share count before the event
//   - cashDividendPerShare: cash paid per share held before the event
//   - stockDividendRatio: bonus shares per 1000 held (‰)
func ApplyEvent(costPriceBefore float64, sharesBefore int64, cashDividendPerShare, stockDividendRatio float64) Adjustment {
	var stockShares int64
	if stockDividendRatio > 0 && !math.IsInf(stockDividendRatio, 0) {
		stockShares = decimal.NewFromInt(sharesBefore).
			Mul(decimal.NewFromFloat(stockDividendRatio)).
			Div(decimal.NewFromInt(PerMille)).
			Floor().
			IntPart()
	}
	sharesAfter := sharesBefore + stockShares

	totalCashDividend := float64(sharesBefore) * cashDividendPerShare
	totalCostBefore := costPriceBefore * float64(sharesBefore)

	adjusted := costPriceBefore
	if sharesAfter > 0 {
		adjusted = (totalCostBefore - totalCashDividend) / float64(sharesAfter)
	}

	return Adjustment{
		AdjustedCostPrice:   math.Max(0, adjusted),
		SharesAfter:         sharesAfter,
		StockDividendShares: stockShares,
	}
}
