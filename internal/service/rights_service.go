package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/provider"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/rights"
)

// DefaultProviderTimeout bounds one holding's provider call.
const DefaultProviderTimeout = 10 * time.Second

// RightsService fetches distribution events for holdings, folds them with
// rights.Processor and persists the result. Runs for the same holding are
// serialised so a manual refresh and a batch refresh cannot overwrite each
// other.
type RightsService struct {
	holdingService *HoldingService
	distributions  provider.DistributionProvider
	processor      *rights.Processor
	timeout        time.Duration
	now            func() time.Time
	locks          *keyedMutex
	log            zerolog.Logger
}

// RightsOption configures the RightsService
type RightsOption func(*RightsService)

// WithProviderTimeout sets the per-holding provider timeout
func WithProviderTimeout(timeout time.Duration) RightsOption {
	return func(s *RightsService) {
		s.timeout = timeout
	}
}

// WithClock sets the time source used for LastDividendUpdate
func WithClock(now func() time.Time) RightsOption {
	return func(s *RightsService) {
		s.now = now
	}
}

// WithRightsLogger sets the logger
func WithRightsLogger(log zerolog.Logger) RightsOption {
	return func(s *RightsService) {
		s.log = log.With().Str("component", "rights_service").Logger()
	}
}

// NewRightsService creates a new RightsService.
func NewRightsService(
	holdingService *HoldingService,
	distributions provider.DistributionProvider,
	processor *rights.Processor,
	opts ...RightsOption,
) *RightsService {
	s := &RightsService{
		holdingService: holdingService,
		distributions:  distributions,
		processor:      processor,
		timeout:        DefaultProviderTimeout,
		now:            func() time.Time { return time.Now().UTC() },
		locks:          newKeyedMutex(),
		log:            zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessHolding refreshes one holding's distribution events.
//
// The provider is queried from the purchase date on, bounded by the provider
// timeout. On any provider error the stored holding is left untouched and the
// error is returned. A provider answering with no records is not an error:
// the stored events are re-verified and kept.
//
// Parameters:
//   - holdingID: holding to process
//   - force: replay the full history from the purchase state
//
// Returns the persisted holding and what changed.
func (s *RightsService) ProcessHolding(ctx context.Context, holdingID string, force bool) (model.HoldingRightsResponse, error) {
	unlock := s.locks.Lock(holdingID)
	defer unlock()

	holding, err := s.holdingService.GetHolding(ctx, holdingID)
	if err != nil {
		return model.HoldingRightsResponse{}, err
	}

	raw, err := s.fetch(ctx, holding)
	if err != nil {
		s.log.Warn().Err(err).Str("holding_id", holding.ID).Str("symbol", holding.Symbol).Msg("Distribution fetch failed, keeping stored state")
		return model.HoldingRightsResponse{}, err
	}

	updated, report := s.processor.Process(holding, raw, force, s.now())

	if err := s.holdingService.SaveRights(ctx, updated); err != nil {
		return model.HoldingRightsResponse{}, fmt.Errorf("failed to save holding %s: %w", holding.ID, err)
	}

	return model.HoldingRightsResponse{
		Holding:       updated,
		EventsAdded:   len(report.Added),
		EventsSkipped: len(report.Skipped),
		Rebuilt:       report.Rebuilt,
		Messages:      reportMessages(report),
	}, nil
}

func (s *RightsService) fetch(ctx context.Context, holding model.Holding) ([]model.RawDistributionRecord, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := s.distributions.FetchDistributionEvents(ctx, holding.Symbol, holding.PurchaseDate)
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("holding_id", holding.ID).
		Str("symbol", holding.Symbol).
		Int("records", len(raw)).
		Dur("elapsed", time.Since(start)).
		Msg("Fetched distribution records")
	return raw, nil
}

func reportMessages(report rights.ProcessReport) []string {
	var messages []string
	if report.Chain != nil {
		messages = append(messages, "stored history was inconsistent and has been rebuilt")
	}
	if report.Invalid > 0 {
		messages = append(messages, fmt.Sprintf("%d records without a valid ex-dividend date were ignored", report.Invalid))
	}
	if report.Excluded > 0 {
		messages = append(messages, fmt.Sprintf("%d events before the purchase date were excluded", report.Excluded))
	}
	return messages
}

// ShouldUpdate reports whether the holding is due for processing.
func (s *RightsService) ShouldUpdate(holding model.Holding, force bool) bool {
	return rights.ShouldUpdate(holding, force, s.now())
}

// Summary returns the aggregated distribution history of a holding.
func (s *RightsService) Summary(ctx context.Context, holdingID string) (model.RightsSummary, error) {
	holding, err := s.holdingService.GetHolding(ctx, holdingID)
	if err != nil {
		return model.RightsSummary{}, err
	}
	return rights.Summary(holding), nil
}
