package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

// MockProvider is an in-memory distribution and price provider for testing.
// It returns predefined records per symbol instead of making API calls and
// is safe for concurrent use.
type MockProvider struct {
	mu sync.Mutex

	// Records are the distribution records returned per symbol
	Records map[string][]model.RawDistributionRecord
	// Prices are the prices returned per symbol
	Prices map[string]float64
	// Errors are returned instead of data for the symbol
	Errors map[string]error
	// Delay is waited (honouring ctx) before answering
	Delay time.Duration
	// Calls counts queries per symbol
	Calls map[string]int
}

// NewMockProvider creates an empty mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Records: make(map[string][]model.RawDistributionRecord),
		Prices:  make(map[string]float64),
		Errors:  make(map[string]error),
		Calls:   make(map[string]int),
	}
}

// WithRecords configures the records returned for symbol.
func (m *MockProvider) WithRecords(symbol string, records ...model.RawDistributionRecord) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records[symbol] = append(m.Records[symbol], records...)
	return m
}

// WithPrice configures the price returned for symbol.
func (m *MockProvider) WithPrice(symbol string, price float64) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prices[symbol] = price
	return m
}

// WithError configures the mock to fail for symbol.
func (m *MockProvider) WithError(symbol string, err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[symbol] = err
	return m
}

// WithDelay configures a response delay.
func (m *MockProvider) WithDelay(d time.Duration) *MockProvider {
	m.Delay = d
	return m
}

// CallCount returns how many times symbol was queried.
func (m *MockProvider) CallCount(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[symbol]
}

// Name identifies the provider.
func (m *MockProvider) Name() string {
	return "mock"
}

// FetchDistributionEvents returns the configured records of symbol dated on or after since.
func (m *MockProvider) FetchDistributionEvents(ctx context.Context, symbol string, since time.Time) ([]model.RawDistributionRecord, error) {
	if err := m.begin(ctx, symbol); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Errors[symbol]; err != nil {
		return nil, err
	}

	var out []model.RawDistributionRecord
	for _, r := range m.Records[symbol] {
		if d, err := time.Parse("2006-01-02", r.ExDividendDate); err == nil && d.Before(since) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// FetchCurrentPrice returns the configured price of symbol, or nil when none is set.
func (m *MockProvider) FetchCurrentPrice(ctx context.Context, symbol string) (*model.Price, error) {
	if err := m.begin(ctx, symbol); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Errors[symbol]; err != nil {
		return nil, err
	}
	price, ok := m.Prices[symbol]
	if !ok {
		return nil, nil
	}
	return &model.Price{
		Symbol:    symbol,
		Price:     price,
		Source:    "mock",
		Timestamp: time.Date(2025, 2, 27, 13, 30, 0, 0, time.UTC),
	}, nil
}

func (m *MockProvider) begin(ctx context.Context, symbol string) error {
	m.mu.Lock()
	m.Calls[symbol]++
	delay := m.Delay
	m.mu.Unlock()

	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// CashRecord builds a raw cash distribution record.
func CashRecord(symbol, exDate string, perShare float64) model.RawDistributionRecord {
	return model.RawDistributionRecord{
		Symbol:           symbol,
		ExDividendDate:   exDate,
		DividendPerShare: perShare,
		Type:             model.EventTypeCash,
	}
}

// StockRecord builds a raw record with a cash part and a bonus ratio in ‰.
func StockRecord(symbol, exDate string, cash, ratio float64) model.RawDistributionRecord {
	t := model.EventTypeStock
	if cash > 0 {
		t = model.EventTypeBoth
	}
	return model.RawDistributionRecord{
		Symbol:             symbol,
		ExDividendDate:     exDate,
		DividendPerShare:   cash,
		StockDividendRatio: &ratio,
		Type:               t,
	}
}
