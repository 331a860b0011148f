package rights

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// DateLayout is the calendar-date form used for event identity.
const DateLayout = "2006-01-02"

// parValue is the Taiwan share par value used to turn a stock dividend
// amount (NT$ per share) into a per-mille ratio.
const parValue = 10

// ratioPlaces is the precision of a resolved per-mille ratio.
const ratioPlaces = 6

// eventNamespace seeds the name-based event IDs.
var eventNamespace = uuid.MustParse("8c4e1d8a-5f0b-4f5e-9d57-3b2f61a0c7e4")

// RunningState is the (shares, cost price) a holding has reached at some
// point of the event fold.
type RunningState struct {
	Shares    int64
	CostPrice float64
}

// DedupReport lists the date keys added and skipped by Deduplicate.
type DedupReport struct {
	Added   []string
	Skipped []string
}

// EventID derives the identifier of a distribution event from its identity.
// Re-fetching the same event always yields the same ID.
func EventID(holdingID, symbol string, exDate time.Time) string {
	name := holdingID + "|" + symbol + "|" + DateKey(exDate)
	return uuid.NewSHA1(eventNamespace, []byte(name)).String()
}

// DateKey formats t as a UTC calendar date.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDate parses a date string in "2006-01-02" or RFC3339 format and
// truncates it to UTC midnight.
func ParseDate(str string) (time.Time, error) {
	str = strings.TrimSpace(str)
	t, err := time.Parse(DateLayout, str)
	if err != nil {
		t, err = time.Parse(time.RFC3339, str)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse date: %w", err)
		}
	}
	return startOfDay(t), nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// StockRatio resolves the per-mille stock dividend ratio of a raw record.
// An explicit StockDividendRatio wins; otherwise the NT$ amount is converted
// at par value (amount × 1000 / 10). Negative values count as zero.
// The result is rounded to 1e-6‰.
func StockRatio(raw model.RawDistributionRecord) float64 {
	value := raw.StockDividendAmount
	if raw.StockDividendRatio != nil {
		value = *raw.StockDividendRatio
	}
	if value <= 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}

	ratio := decimal.NewFromFloat(value)
	if raw.StockDividendRatio == nil {
		ratio = ratio.Mul(decimal.NewFromInt(PerMille)).Div(decimal.NewFromInt(parValue))
	}
	return ratio.Round(ratioPlaces).InexactFloat64()
}

// NormalizeRecord converts one raw provider record into a complete
// DistributionEvent applied on top of state.
//
// state must be the running state reached by the events preceding this one,
// not the holding's live state, which may already include later events.
// A record without a parseable ex-dividend date returns ErrInvalidRecord.
func NormalizeRecord(raw model.RawDistributionRecord, holding model.Holding, state RunningState) (model.DistributionEvent, error) {
	event, err := parseRecord(raw, holding)
	if err != nil {
		return model.DistributionEvent{}, err
	}
	return applyTo(event, state), nil
}

// parseRecord fills identity and distribution amounts. The before/after
// snapshots are left for applyTo.
func parseRecord(raw model.RawDistributionRecord, holding model.Holding) (model.DistributionEvent, error) {
	if strings.TrimSpace(raw.ExDividendDate) == "" {
		return model.DistributionEvent{}, fmt.Errorf("%w: missing ex-dividend date", apperrors.ErrInvalidRecord)
	}
	exDate, err := ParseDate(raw.ExDividendDate)
	if err != nil {
		return model.DistributionEvent{}, fmt.Errorf("%w: %s: %v", apperrors.ErrInvalidRecord, raw.ExDividendDate, err)
	}

	symbol := holding.Symbol
	if symbol == "" {
		symbol = raw.Symbol
	}

	cash := raw.DividendPerShare
	if cash < 0 || math.IsNaN(cash) {
		cash = 0
	}
	ratio := StockRatio(raw)

	event := model.DistributionEvent{
		ID:                   EventID(holding.ID, symbol, exDate),
		HoldingID:            holding.ID,
		Symbol:               symbol,
		ExRightDate:          exDate,
		CashDividendPerShare: cash,
		StockDividendRatio:   ratio,
		Type:                 eventType(cash, ratio),
	}
	if d, err := ParseDate(raw.RecordDate); err == nil {
		event.RecordDate = &d
	}
	if d, err := ParseDate(raw.PaymentDate); err == nil {
		event.PaymentDate = &d
	}
	return event, nil
}

// applyTo computes the snapshot fields of event against state.
func applyTo(event model.DistributionEvent, state RunningState) model.DistributionEvent {
	adj := ApplyEvent(state.CostPrice, state.Shares, event.CashDividendPerShare, event.StockDividendRatio)

	event.TotalCashDividend = event.CashDividendPerShare * float64(state.Shares)
	event.StockDividendShares = adj.StockDividendShares
	event.SharesBeforeRight = state.Shares
	event.SharesAfterRight = adj.SharesAfter
	event.CostPriceBeforeRight = state.CostPrice
	event.CostPriceAfterRight = adj.AdjustedCostPrice
	return event
}

func eventType(cash, ratio float64) model.EventType {
	switch {
	case cash > 0 && ratio > 0:
		return model.EventTypeBoth
	case ratio > 0:
		return model.EventTypeStock
	default:
		return model.EventTypeCash
	}
}

// SortAscending orders events oldest first by ex-right date. The sort is
// stable and works on a copy.
func SortAscending(events []model.DistributionEvent) []model.DistributionEvent {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b model.DistributionEvent) int {
		return a.ExRightDate.Compare(b.ExRightDate)
	})
	return sorted
}

// canonicalOrder sorts by date, then by amounts, so that same-date duplicates
// resolve the same way whatever order the provider delivered them in.
func canonicalOrder(events []model.DistributionEvent) []model.DistributionEvent {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b model.DistributionEvent) int {
		return cmp.Or(
			a.ExRightDate.Compare(b.ExRightDate),
			cmp.Compare(a.Symbol, b.Symbol),
			cmp.Compare(a.CashDividendPerShare, b.CashDividendPerShare),
			cmp.Compare(a.StockDividendRatio, b.StockDividendRatio),
		)
	})
	return sorted
}

func dedupKey(e model.DistributionEvent) string {
	return e.Symbol + "|" + DateKey(e.ExRightDate)
}

// Deduplicate merges incoming into existing. An incoming event is a
// duplicate when an event with the same symbol and calendar ex-right date is
// already present; duplicates are dropped, never merged, so the existing
// event wins even if the amounts differ. Duplicates inside incoming collapse
// to a single event. The result is sorted ascending.
func Deduplicate(existing, incoming []model.DistributionEvent) ([]model.DistributionEvent, DedupReport) {
	var report DedupReport
	if len(incoming) == 0 {
		return SortAscending(existing), report
	}

	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, e := range existing {
		seen[dedupKey(e)] = struct{}{}
	}

	merged := slices.Clone(existing)
	for _, e := range canonicalOrder(incoming) {
		key := dedupKey(e)
		if _, ok := seen[key]; ok {
			report.Skipped = append(report.Skipped, key)
			continue
		}
		seen[key] = struct{}{}
		report.Added = append(report.Added, key)
		merged = append(merged, e)
	}
	return SortAscending(merged), report
}

// FilterSince drops events whose ex-right date is before the calendar day of
// since. Holders are only entitled to events on or after the purchase date.
func FilterSince(events []model.DistributionEvent, since time.Time) []model.DistributionEvent {
	day := startOfDay(since)
	kept := make([]model.DistributionEvent, 0, len(events))
	for _, e := range events {
		if !e.ExRightDate.Before(day) {
			kept = append(kept, e)
		}
	}
	return kept
}
