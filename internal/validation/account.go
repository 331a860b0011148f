package validation

import (
	"strings"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/request"
)

// maxRate is the highest fee or tax rate (percent) accepted from clients.
const maxRate = 10.0

// ValidateCreateAccount validates an account creation request.
//
// Required fields:
//   - name: 1 to 100 characters
//
// Optional fields:
//   - brokerageFeeRate, transactionTaxRate: percent between 0 and 10
func ValidateCreateAccount(req request.CreateAccountRequest) error {
	errs := fieldErrors{}

	if strings.TrimSpace(req.Name) == "" {
		errs["name"] = "name is required"
	} else if len(req.Name) > 100 {
		errs["name"] = "name must be 100 characters or less"
	}

	validateRate(errs, "brokerageFeeRate", req.BrokerageFeeRate)
	validateRate(errs, "transactionTaxRate", req.TransactionTaxRate)

	return errs.err()
}

func validateRate(errs fieldErrors, field string, rate *float64) {
	if rate == nil {
		return
	}
	if *rate < 0 || *rate > maxRate {
		errs[field] = field + " must be between 0 and 10"
	}
}
