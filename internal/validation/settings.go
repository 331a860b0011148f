package validation

import (
	"strings"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/request"
)

// ValidateUpdateProviderToken validates a provider token update.
// An empty token clears the stored one.
func ValidateUpdateProviderToken(req request.UpdateProviderTokenRequest) error {
	errs := fieldErrors{}

	if len(req.Token) > 4096 {
		errs["token"] = "token must be 4096 characters or less"
	} else if strings.ContainsAny(req.Token, " \t\r\n") {
		errs["token"] = "token must not contain whitespace"
	}

	return errs.err()
}
