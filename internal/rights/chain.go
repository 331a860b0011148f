package rights

import (
	"fmt"
	"math"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// costTolerance absorbs float noise from values that went through storage.
const costTolerance = 1e-9

// VerifyChain checks that events form a consistent fold starting at origin:
// strictly ascending dates, sharesAfter = sharesBefore + bonus shares, and
// every before-state equal to the previous after-state. The first event must
// start from origin, the purchase-time state.
//
// Violations wrap apperrors.ErrChainIntegrity.
func VerifyChain(events []model.DistributionEvent, origin RunningState) error {
	prev := origin
	for i, e := range events {
		date := DateKey(e.ExRightDate)
		if i > 0 && !events[i-1].ExRightDate.Before(e.ExRightDate) {
			return fmt.Errorf("%w: event %s is not after %s", apperrors.ErrChainIntegrity, date, DateKey(events[i-1].ExRightDate))
		}
		if e.SharesAfterRight != e.SharesBeforeRight+e.StockDividendShares {
			return fmt.Errorf("%w: event %s: shares after %d != %d + %d",
				apperrors.ErrChainIntegrity, date, e.SharesAfterRight, e.SharesBeforeRight, e.StockDividendShares)
		}
		if e.SharesBeforeRight != prev.Shares {
			return fmt.Errorf("%w: event %s: shares before %d, expected %d",
				apperrors.ErrChainIntegrity, date, e.SharesBeforeRight, prev.Shares)
		}
		if math.Abs(e.CostPriceBeforeRight-prev.CostPrice) > costTolerance {
			return fmt.Errorf("%w: event %s: cost before %v, expected %v",
				apperrors.ErrChainIntegrity, date, e.CostPriceBeforeRight, prev.CostPrice)
		}
		if e.CostPriceAfterRight < 0 {
			return fmt.Errorf("%w: event %s: negative cost %v", apperrors.ErrChainIntegrity, date, e.CostPriceAfterRight)
		}
		prev = RunningState{Shares: e.SharesAfterRight, CostPrice: e.CostPriceAfterRight}
	}
	return nil
}

// finalState returns the after-state of the last event, or origin when
// there are none.
func finalState(events []model.DistributionEvent, origin RunningState) RunningState {
	if len(events) == 0 {
		return origin
	}
	last := events[len(events)-1]
	return RunningState{Shares: last.SharesAfterRight, CostPrice: last.CostPriceAfterRight}
}

var errPrePurchase = fmt.Errorf("%w: event before purchase date", apperrors.ErrChainIntegrity)
