package validation

import (
	"regexp"
	"strings"
	"time"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/request"
)

var symbolPattern = regexp.MustCompile(`^[0-9A-Za-z][0-9A-Za-z.\-]{0,15}$`)

// ValidSymbol reports whether symbol looks like an exchange ticker.
func ValidSymbol(symbol string) bool {
	return symbolPattern.MatchString(symbol)
}

// ValidateCreateHolding validates a holding creation request.
//
// Required fields:
//   - accountId: Must be a valid UUID
//   - symbol: Ticker of up to 16 characters
//   - shares: Must be positive
//   - costPrice: Must not be negative
//   - purchaseDate: YYYY-MM-DD, not in the future
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateCreateHolding(req request.CreateHoldingRequest, now time.Time) error {
	if err := ValidateUUID(req.AccountID); err != nil {
		return err
	}

	errs := fieldErrors{}

	if strings.TrimSpace(req.Symbol) == "" {
		errs["symbol"] = "symbol is required"
	} else if !ValidSymbol(strings.TrimSpace(req.Symbol)) {
		errs["symbol"] = "invalid symbol: " + req.Symbol
	}

	if len(req.Name) > 100 {
		errs["name"] = "name must be 100 characters or less"
	}

	if req.Shares <= 0 {
		errs["shares"] = "shares must be positive"
	}

	if req.CostPrice < 0 {
		errs["costPrice"] = "costPrice must not be negative"
	}

	if strings.TrimSpace(req.PurchaseDate) == "" {
		errs["purchaseDate"] = "purchaseDate is required"
	} else if date, err := time.Parse("2006-01-02", req.PurchaseDate); err != nil {
		errs["purchaseDate"] = err.Error()
	} else if date.After(now) {
		errs["purchaseDate"] = "purchaseDate cannot be in the future"
	}

	validateRate(errs, "transactionTaxRate", req.TransactionTaxRate)

	return errs.err()
}
