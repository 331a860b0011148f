package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/rights"
)

// Batch defaults keep provider traffic within the free API quotas.
const (
	DefaultBatchSize  = 3
	DefaultBatchDelay = 1500 * time.Millisecond
)

// HoldingProcessor processes a single holding. Implemented by RightsService.
type HoldingProcessor interface {
	ProcessHolding(ctx context.Context, holdingID string, force bool) (model.HoldingRightsResponse, error)
}

// ProgressFunc receives the number of finished holdings, the total and a
// human readable message. Calls are never concurrent.
type ProgressFunc func(current, total int, message string)

// BatchOptions controls chunking of a batch run.
type BatchOptions struct {
	BatchSize int           // holdings processed concurrently per chunk
	Delay     time.Duration // pause between chunks
	Force     bool          // replay every holding from its purchase state
}

// BatchService applies distribution processing across many holdings.
type BatchService struct {
	processor      HoldingProcessor
	holdingService *HoldingService
	defaults       BatchOptions
	now            func() time.Time
	log            zerolog.Logger
}

// BatchOption configures the BatchService
type BatchOption func(*BatchService)

// WithBatchClock sets the time source staleness is judged against. Share it
// with the RightsService so both agree on LastDividendUpdate.
func WithBatchClock(now func() time.Time) BatchOption {
	return func(s *BatchService) {
		s.now = now
	}
}

// NewBatchService creates a new BatchService. Zero fields in defaults are
// replaced by DefaultBatchSize and DefaultBatchDelay.
func NewBatchService(processor HoldingProcessor, holdingService *HoldingService, defaults BatchOptions, log zerolog.Logger, opts ...BatchOption) *BatchService {
	if defaults.BatchSize < 1 {
		defaults.BatchSize = DefaultBatchSize
	}
	if defaults.Delay < 0 {
		defaults.Delay = 0
	}
	s := &BatchService{
		processor:      processor,
		holdingService: holdingService,
		defaults:       defaults,
		now:            func() time.Time { return time.Now().UTC() },
		log:            log.With().Str("component", "batch_service").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessBatch processes holdings in chunks of opts.BatchSize. The holdings of
// one chunk run concurrently; the next chunk starts opts.Delay after the
// previous one finished.
//
// A failing holding never aborts the batch: it is logged, counted, and
// returned unchanged. The returned slice has one entry per input, in input
// order. Holdings not reached before ctx is cancelled are reported as failed.
//
// onProgress may be nil. It is called after each holding and after each chunk.
func (s *BatchService) ProcessBatch(ctx context.Context, holdings []model.Holding, opts BatchOptions, onProgress ProgressFunc) ([]model.Holding, model.BatchRightsResponse) {
	size := opts.BatchSize
	if size < 1 {
		size = 1
	}
	total := len(holdings)

	results := make([]model.Holding, total)
	copy(results, holdings)
	errs := make([]error, total)

	var mu sync.Mutex
	completed := 0
	progress := func(message string) {
		if onProgress != nil {
			onProgress(completed, total, message)
		}
	}

	chunks := (total + size - 1) / size
	for chunk, start := 0, 0; start < total; chunk, start = chunk+1, start+size {
		end := min(start+size, total)

		if start > 0 && opts.Delay > 0 {
			if err := sleep(ctx, opts.Delay); err != nil {
				s.cancelRemaining(errs, start, err)
				break
			}
		}
		if err := ctx.Err(); err != nil {
			s.cancelRemaining(errs, start, err)
			break
		}

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				res, err := s.processor.ProcessHolding(ctx, holdings[i].ID, opts.Force)

				mu.Lock()
				defer mu.Unlock()
				completed++
				if err != nil {
					errs[i] = err
					s.log.Warn().Err(err).Str("holding_id", holdings[i].ID).Str("symbol", holdings[i].Symbol).Msg("Holding failed, keeping stored state")
					progress(fmt.Sprintf("%s failed: %v", holdings[i].Symbol, err))
					return nil
				}
				results[i] = res.Holding
				progress(fmt.Sprintf("%s updated", holdings[i].Symbol))
				return nil
			})
		}
		_ = g.Wait()

		mu.Lock()
		progress(fmt.Sprintf("batch %d/%d done", chunk+1, chunks))
		mu.Unlock()
	}

	summary := summarize(holdings, results, errs)
	s.log.Info().
		Int("total", total).
		Int("updated", summary.TotalUpdated).
		Int("errors", summary.TotalErrors).
		Msg("Batch processing finished")

	return results, summary
}

func (s *BatchService) cancelRemaining(errs []error, from int, err error) {
	for i := from; i < len(errs); i++ {
		errs[i] = err
	}
	s.log.Warn().Err(err).Int("skipped", len(errs)-from).Msg("Batch cancelled")
}

func summarize(inputs, results []model.Holding, errs []error) model.BatchRightsResponse {
	summary := model.BatchRightsResponse{
		UpdatedHoldings: []model.UpdatedHolding{},
		Errors:          []model.UpdatedHoldingError{},
	}
	for i, err := range errs {
		if err != nil {
			summary.Errors = append(summary.Errors, model.UpdatedHoldingError{
				HoldingID: inputs[i].ID,
				Symbol:    inputs[i].Symbol,
				Error:     err.Error(),
			})
			continue
		}
		h := results[i]
		summary.UpdatedHoldings = append(summary.UpdatedHoldings, model.UpdatedHolding{
			HoldingID:         h.ID,
			Symbol:            h.Symbol,
			Shares:            h.Shares,
			AdjustedCostPrice: h.AdjustedCostPrice,
			EventsCount:       len(h.DividendRecords),
		})
	}
	summary.TotalUpdated = len(summary.UpdatedHoldings)
	summary.TotalErrors = len(summary.Errors)
	summary.Success = summary.TotalErrors == 0 || summary.TotalUpdated > 0
	return summary
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ProcessAccount processes every holding of an account with the default options.
func (s *BatchService) ProcessAccount(ctx context.Context, accountID string, force bool) (model.BatchRightsResponse, error) {
	holdings, err := s.holdingService.GetHoldings(ctx, accountID)
	if err != nil {
		return model.BatchRightsResponse{}, err
	}

	opts := s.defaults
	opts.Force = force
	_, summary := s.ProcessBatch(ctx, holdings, opts, s.logProgress)
	return summary, nil
}

// ProcessStale processes the holdings of all accounts whose distribution data
// is older than rights.StaleAfter or was never processed.
func (s *BatchService) ProcessStale(ctx context.Context) (model.BatchRightsResponse, error) {
	holdings, err := s.holdingService.GetHoldings(ctx, "")
	if err != nil {
		return model.BatchRightsResponse{}, err
	}

	now := s.now()
	stale := make([]model.Holding, 0, len(holdings))
	for _, h := range holdings {
		if rights.ShouldUpdate(h, false, now) {
			stale = append(stale, h)
		}
	}
	s.log.Info().Int("holdings", len(holdings)).Int("stale", len(stale)).Msg("Refreshing stale holdings")

	_, summary := s.ProcessBatch(ctx, stale, s.defaults, s.logProgress)
	return summary, nil
}

func (s *BatchService) logProgress(current, total int, message string) {
	s.log.Debug().Int("current", current).Int("total", total).Msg(message)
}
