package rights

import (
	"errors"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// StaleAfter is how long processed distribution data stays fresh.
const StaleAfter = 24 * time.Hour

// ProcessReport describes what one Process call did to a holding.
type ProcessReport struct {
	Added    []string // date keys of newly applied events
	Skipped  []string // date keys dropped as duplicates of existing events
	Invalid  int      // raw records without a usable ex-dividend date
	Excluded int      // events dated before the purchase date
	Rebuilt  bool     // the history was replayed from the purchase state
	Chain    error    // chain violation that forced a rebuild, if any
}

// Processor folds distribution events over holdings.
type Processor struct {
	log zerolog.Logger
}

// NewProcessor creates a Processor logging through log.
func NewProcessor(log zerolog.Logger) *Processor {
	return &Processor{
		log: log.With().Str("component", "rights_processor").Logger(),
	}
}

// Process applies raw provider records to a holding and returns the updated
// holding. The input holding is not modified.
//
// Without force, records already present (same symbol and ex-right date) are
// skipped and the remaining ones are folded on from the after-state of the
// last existing event. The merged history is then verified; a broken chain
// is logged and the holding is rebuilt as if force were set.
//
// With force, the history is replayed from the purchase-time state
// (PurchaseShares, CostPrice). Records re-supplied by the provider replace
// stored events of the same date; stored events the provider no longer
// returns are kept.
//
// Parameters:
//   - holding: the holding as persisted
//   - raw: provider records, in any order, possibly duplicated
//   - force: replay the full history instead of appending
//   - now: timestamp written to LastDividendUpdate
//
// Returns the updated holding and a report of what changed.
func (p *Processor) Process(holding model.Holding, raw []model.RawDistributionRecord, force bool, now time.Time) (model.Holding, ProcessReport) {
	var report ProcessReport
	origin := RunningState{Shares: holding.PurchaseShares(), CostPrice: holding.CostPrice}
	incoming := p.parse(holding, raw, &report)

	var events []model.DistributionEvent
	if force {
		events = p.rebuild(holding, incoming, origin, &report)
	} else {
		var err error
		events, err = p.append(holding, incoming, origin, &report)
		if err != nil {
			p.log.Warn().
				Err(err).
				Str("holding_id", holding.ID).
				Str("symbol", holding.Symbol).
				Msg("Distribution chain broken, rebuilding from purchase state")
			report.Chain = err
			report.Added, report.Skipped = nil, nil
			events = p.rebuild(holding, incoming, origin, &report)
			report.Added = unstoredKeys(report.Added, holding.DividendRecords)
		}
	}

	final := finalState(events, origin)
	updated := holding
	updated.OriginalShares = origin.Shares
	updated.Shares = final.Shares
	updated.AdjustedCostPrice = &final.CostPrice
	updated.DividendRecords = events
	updated.LastDividendUpdate = &now

	p.log.Debug().
		Str("holding_id", holding.ID).
		Str("symbol", holding.Symbol).
		Int("added", len(report.Added)).
		Int("skipped", len(report.Skipped)).
		Bool("rebuilt", report.Rebuilt).
		Int64("shares", final.Shares).
		Float64("adjusted_cost_price", final.CostPrice).
		Msg("Processed distribution events")

	return updated, report
}

// parse normalizes raw records into candidate events without snapshots,
// dropping invalid and pre-purchase records.
func (p *Processor) parse(holding model.Holding, raw []model.RawDistributionRecord, report *ProcessReport) []model.DistributionEvent {
	candidates := make([]model.DistributionEvent, 0, len(raw))
	for _, r := range raw {
		event, err := parseRecord(r, holding)
		if err != nil {
			report.Invalid++
			p.log.Debug().Err(err).Str("symbol", holding.Symbol).Msg("Dropping distribution record")
			continue
		}
		candidates = append(candidates, event)
	}

	kept := FilterSince(candidates, holding.PurchaseDate)
	report.Excluded = len(candidates) - len(kept)
	return kept
}

// append folds the new events on top of the existing history and verifies
// the merged result.
func (p *Processor) append(holding model.Holding, incoming []model.DistributionEvent, origin RunningState, report *ProcessReport) ([]model.DistributionEvent, error) {
	existing := SortAscending(holding.DividendRecords)
	seed := finalState(existing, origin)

	merged, dedup := Deduplicate(existing, incoming)
	p.logDedup(holding, dedup)
	report.Added, report.Skipped = dedup.Added, dedup.Skipped

	added := make(map[string]struct{}, len(dedup.Added))
	for _, key := range dedup.Added {
		added[key] = struct{}{}
	}

	state := seed
	for i, e := range merged {
		if _, ok := added[dedupKey(e)]; !ok {
			continue
		}
		merged[i] = applyTo(e, state)
		state = RunningState{Shares: merged[i].SharesAfterRight, CostPrice: merged[i].CostPriceAfterRight}
	}

	if err := p.verify(holding, merged, origin); err != nil {
		return nil, err
	}
	return merged, nil
}

// rebuild replays the whole history from origin.
func (p *Processor) rebuild(holding model.Holding, incoming []model.DistributionEvent, origin RunningState, report *ProcessReport) []model.DistributionEvent {
	report.Rebuilt = true

	// Provider data replaces stored events of the same date.
	supplied, dedup := Deduplicate(nil, incoming)
	candidates, _ := Deduplicate(supplied, holding.DividendRecords)
	report.Added = dedup.Added

	candidates = FilterSince(candidates, holding.PurchaseDate)
	events := make([]model.DistributionEvent, 0, len(candidates))
	state := origin
	for _, e := range candidates {
		if e.HoldingID == "" {
			e.HoldingID = holding.ID
		}
		e = applyTo(e, state)
		events = append(events, e)
		state = RunningState{Shares: e.SharesAfterRight, CostPrice: e.CostPriceAfterRight}
	}
	return events
}

// unstoredKeys keeps the keys that have no event in stored.
func unstoredKeys(keys []string, stored []model.DistributionEvent) []string {
	seen := make(map[string]struct{}, len(stored))
	for _, e := range stored {
		seen[dedupKey(e)] = struct{}{}
	}
	var out []string
	for _, key := range keys {
		if _, ok := seen[key]; !ok {
			out = append(out, key)
		}
	}
	return out
}

// verify runs VerifyChain and additionally rejects events dated before the
// purchase date.
func (p *Processor) verify(holding model.Holding, events []model.DistributionEvent, origin RunningState) error {
	if len(FilterSince(events, holding.PurchaseDate)) != len(events) {
		return errors.Join(errPrePurchase, VerifyChain(events, origin))
	}
	return VerifyChain(events, origin)
}

func (p *Processor) logDedup(holding model.Holding, report DedupReport) {
	for _, key := range report.Skipped {
		p.log.Debug().Str("holding_id", holding.ID).Str("event", key).Msg("Skipping duplicate distribution event")
	}
	for _, key := range report.Added {
		p.log.Debug().Str("holding_id", holding.ID).Str("event", key).Msg("Adding distribution event")
	}
}

// ShouldUpdate reports whether a holding's distribution data needs a refresh:
// always when forced or never processed, otherwise once StaleAfter has passed.
func ShouldUpdate(holding model.Holding, force bool, now time.Time) bool {
	if force || holding.LastDividendUpdate == nil {
		return true
	}
	return now.Sub(*holding.LastDividendUpdate) > StaleAfter
}

// Summary aggregates a holding's distribution history.
func Summary(holding model.Holding) model.RightsSummary {
	summary := model.RightsSummary{
		HoldingID:   holding.ID,
		Symbol:      holding.Symbol,
		EventsCount: len(holding.DividendRecords),
	}
	for _, e := range holding.DividendRecords {
		summary.TotalCashDividend += e.TotalCashDividend
		summary.TotalStockDividend += e.StockDividendShares
	}
	if len(holding.DividendRecords) > 0 {
		last := slices.MaxFunc(holding.DividendRecords, func(a, b model.DistributionEvent) int {
			return a.ExRightDate.Compare(b.ExRightDate)
		}).ExRightDate
		summary.LastEventDate = &last
	}
	return summary
}
