package testutil

import (
	"database/sql"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/provider"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/repository"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/rights"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/service"
)

// TestEncryptionKey is a valid base64 fernet key for tests.
const TestEncryptionKey = "cw_0x689RpI-jtRR7oE8h_eQsKImvJapLeSbXpwF4e4="

// ProcessedAt is the clock used by NewTestRightsService.
var ProcessedAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// Logger returns a logger that discards everything.
func Logger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func NewTestAccountService(t *testing.T, db *sql.DB) *service.AccountService {
	t.Helper()

	return service.NewAccountService(
		repository.NewAccountRepository(db),
		rights.DefaultBrokerageFeeRate,
		rights.DefaultTransactionTaxRate,
	)
}

// NewTestHoldingService creates a HoldingService whose prices come from prices (may be nil).
func NewTestHoldingService(t *testing.T, db *sql.DB, prices provider.PriceProvider) *service.HoldingService {
	t.Helper()

	return service.NewHoldingService(
		db,
		repository.NewHoldingRepository(db),
		repository.NewDistributionEventRepository(db),
		repository.NewAccountRepository(db),
		prices,
		time.Second,
		Logger(),
	)
}

// NewTestRightsService creates a RightsService backed by the given provider
// with its clock fixed at ProcessedAt.
func NewTestRightsService(t *testing.T, db *sql.DB, distributions provider.DistributionProvider) *service.RightsService {
	t.Helper()

	return service.NewRightsService(
		NewTestHoldingService(t, db, nil),
		distributions,
		rights.NewProcessor(Logger()),
		service.WithProviderTimeout(time.Second),
		service.WithClock(func() time.Time { return ProcessedAt }),
	)
}

// NewTestBatchService creates a BatchService without delay between chunks,
// with its clock fixed at ProcessedAt.
func NewTestBatchService(t *testing.T, db *sql.DB, processor service.HoldingProcessor) *service.BatchService {
	t.Helper()

	return service.NewBatchService(
		processor,
		NewTestHoldingService(t, db, nil),
		service.BatchOptions{BatchSize: 2},
		Logger(),
		service.WithBatchClock(func() time.Time { return ProcessedAt }),
	)
}

func NewTestGainLossService(t *testing.T, db *sql.DB) *service.GainLossService {
	t.Helper()

	return service.NewGainLossService(
		NewTestHoldingService(t, db, nil),
		repository.NewAccountRepository(db),
	)
}

// NewTestSettingsService creates a SettingsService using TestEncryptionKey.
func NewTestSettingsService(t *testing.T, db *sql.DB) *service.SettingsService {
	t.Helper()

	s, err := service.NewSettingsService(repository.NewSettingsRepository(db), TestEncryptionKey, Logger())
	if err != nil {
		t.Fatalf("Failed to create settings service: %v", err)
	}
	return s
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()
	return service.NewSystemService(db, map[string]bool{"finmind": true})
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeAccountName generates a unique account name for testing.
//
// Example usage:
//
//	name := testutil.MakeAccountName("Broker")
//	// Returns: "Broker ABC123"
func MakeAccountName(base string) string {
	if base == "" {
		base = "Account"
	}
	return base + " " + randomAlphanumeric(6)
}

// Date returns the UTC midnight of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
