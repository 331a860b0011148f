package scheduler

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// StaleProcessor refreshes holdings whose distribution data is out of date.
type StaleProcessor interface {
	ProcessStale(ctx context.Context) (model.BatchRightsResponse, error)
}

// RightsRefreshJob refreshes the distribution events of stale holdings.
type RightsRefreshJob struct {
	processor StaleProcessor
	log       zerolog.Logger
}

// NewRightsRefreshJob creates the job.
func NewRightsRefreshJob(processor StaleProcessor, log zerolog.Logger) *RightsRefreshJob {
	return &RightsRefreshJob{
		processor: processor,
		log:       log.With().Str("job", "rights_refresh").Logger(),
	}
}

// Name identifies the job in logs.
func (j *RightsRefreshJob) Name() string {
	return "rights_refresh"
}

// Run processes every stale holding. Per-holding failures are logged, not returned.
func (j *RightsRefreshJob) Run(ctx context.Context) error {
	summary, err := j.processor.ProcessStale(ctx)
	if err != nil {
		return err
	}
	j.log.Info().
		Int("updated", summary.TotalUpdated).
		Int("errors", summary.TotalErrors).
		Msg("Stale holdings refreshed")
	return nil
}
