package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com/v8/finance/chart"
	DefaultRateLimit = 2 // requests per second

	// Source identifies Yahoo Finance in prices and logs.
	Source = "Yahoo Finance"
)

// taiwanSymbol matches bare TWSE codes such as 2330, 0050 or 00679B.
var taiwanSymbol = regexp.MustCompile(`^\d{4,6}[A-Z]?$`)

// FinanceClient provides methods for fetching financial data from Yahoo Finance API.
// It wraps an HTTP client and provides convenient methods for querying the
// latest price and the dividend and split history of a symbol.
type FinanceClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// ClientOption configures the client
type ClientOption func(*FinanceClient)

// WithBaseURL sets the chart API base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *FinanceClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *FinanceClient) {
		c.httpClient = httpClient
	}
}

// WithRateLimit sets the number of requests per second
func WithRateLimit(requestsPerSecond float64) ClientOption {
	return func(c *FinanceClient) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
}

// WithLogger sets the logger
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *FinanceClient) {
		c.log = log.With().Str("component", "yahoo").Logger()
	}
}

// NewFinanceClient creates a new Yahoo Finance client.
// Requests are rate limited to DefaultRateLimit per second unless overridden.
//
// Returns:
//   - *FinanceClient: A new client instance ready for use
func NewFinanceClient(opts ...ClientOption) *FinanceClient {
	c := &FinanceClient{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name identifies the provider.
func (c *FinanceClient) Name() string {
	return Source
}

// Ticker converts a portfolio symbol into a Yahoo ticker. Bare Taiwan codes
// get the .TW suffix; anything already qualified is left alone.
func Ticker(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if taiwanSymbol.MatchString(symbol) {
		return symbol + ".TW"
	}
	return symbol
}

// FetchCurrentPrice returns the latest price of symbol.
// A symbol Yahoo does not know returns a nil price and no error.
func (c *FinanceClient) FetchCurrentPrice(ctx context.Context, symbol string) (*model.Price, error) {
	resp, err := c.QueryFiveDay(ctx, Ticker(symbol))
	if err != nil {
		return nil, err
	}
	if len(resp.Chart.Result) == 0 {
		return nil, nil
	}

	quote, ok := ParseQuote(resp.Chart.Result[0])
	if !ok {
		return nil, nil
	}
	return &model.Price{
		Symbol:    symbol,
		Price:     quote.Price,
		Source:    Source,
		Timestamp: quote.Time,
	}, nil
}

// FetchDistributionEvents returns the dividends and splits of symbol since
// the given date as raw distribution records.
func (c *FinanceClient) FetchDistributionEvents(ctx context.Context, symbol string, since time.Time) ([]model.RawDistributionRecord, error) {
	resp, err := c.QueryEvents(ctx, Ticker(symbol), since, time.Now())
	if err != nil {
		return nil, err
	}
	if len(resp.Chart.Result) == 0 {
		return nil, nil
	}
	return ParseEvents(symbol, resp.Chart.Result[0]), nil
}

// ParseQuote extracts the latest price of a chart result. The market price
// from the metadata is preferred; otherwise the last non-null close is used.
//
// Returns:
//   - Quote: The latest price and its timestamp
//   - bool: false when the result holds no usable price
func ParseQuote(result Result) (Quote, bool) {
	quote := Quote{
		Symbol: result.Meta.Symbol,
		Name:   result.Meta.LongName,
	}
	if quote.Name == "" {
		quote.Name = result.Meta.ShortName
	}

	if result.Meta.RegularMarketPrice > 0 {
		quote.Price = result.Meta.RegularMarketPrice
		quote.Time = time.Unix(result.Meta.RegularMarketTime, 0).UTC()
		return quote, true
	}

	if len(result.Indicators.Quote) == 0 {
		return Quote{}, false
	}
	closes := result.Indicators.Quote[0].Close
	for i := min(len(closes), len(result.Timestamp)) - 1; i >= 0; i-- {
		if closes[i] != nil && *closes[i] > 0 {
			quote.Price = *closes[i]
			quote.Time = time.Unix(result.Timestamp[i], 0).UTC()
			return quote, true
		}
	}
	return Quote{}, false
}

// ParseEvents converts chart events into raw distribution records, one per
// ex-date. A dividend and a split on the same day become one record. Splits
// are turned into bonus shares per 1000 held; reverse splits are ignored.
//
// Yahoo timestamps ex-dates at the exchange open, so dates are taken in the
// Taiwan time zone before truncation.
func ParseEvents(symbol string, result Result) []model.RawDistributionRecord {
	byDate := make(map[string]*model.RawDistributionRecord)
	get := func(ts int64) *model.RawDistributionRecord {
		t := time.Unix(ts, 0).In(taipei)
		day := t.Format("2006-01-02")
		r, ok := byDate[day]
		if !ok {
			r = &model.RawDistributionRecord{Symbol: symbol, ExDividendDate: day, Year: t.Year()}
			byDate[day] = r
		}
		return r
	}

	for _, d := range result.Events.Dividends {
		if d.Amount <= 0 {
			continue
		}
		r := get(d.Date)
		r.DividendPerShare += d.Amount
	}
	for _, s := range result.Events.Splits {
		if s.Denominator <= 0 || s.Numerator <= s.Denominator {
			continue
		}
		perMille := math.Round((s.Numerator/s.Denominator-1)*1000*1e6) / 1e6
		r := get(s.Date)
		r.StockDividendRatio = &perMille
	}

	records := make([]model.RawDistributionRecord, 0, len(byDate))
	for _, r := range byDate {
		switch {
		case r.DividendPerShare > 0 && r.StockDividendRatio != nil:
			r.Type = model.EventTypeBoth
		case r.StockDividendRatio != nil:
			r.Type = model.EventTypeStock
		default:
			r.Type = model.EventTypeCash
		}
		records = append(records, *r)
	}
	slices.SortFunc(records, func(a, b model.RawDistributionRecord) int {
		return strings.Compare(a.ExDividendDate, b.ExDividendDate)
	})
	return records
}

var taipei = time.FixedZone("Asia/Taipei", 8*60*60)

// QueryFiveDay fetches the last 5 days of daily price data for a ticker.
// This method is optimized for retrieving recent price history, typically used
// to get the latest available closing price.
//
// Parameters:
//   - ctx: Bounds the rate-limit wait and the request
//   - ticker: Yahoo ticker (e.g., "2330.TW", "AAPL")
//
// Returns:
//   - Response: Raw API response containing price data
//   - error: If the HTTP request fails or the API returns an error
func (c *FinanceClient) QueryFiveDay(ctx context.Context, ticker string) (Response, error) {
	query := url.Values{}
	query.Set("interval", "1d")
	query.Set("range", "5d")
	return c.query(ctx, ticker, query)
}

// QueryEvents fetches the dividend and split history of a ticker within a
// date range.
//
// Parameters:
//   - ctx: Bounds the rate-limit wait and the request
//   - ticker: Yahoo ticker
//   - startDate: Beginning of date range (inclusive)
//   - endDate: End of date range (inclusive)
//
// Returns:
//   - Response: Raw API response including the events section
//   - error: If the HTTP request fails or the API returns an error
func (c *FinanceClient) QueryEvents(ctx context.Context, ticker string, startDate, endDate time.Time) (Response, error) {
	query := url.Values{}
	query.Set("interval", "1d")
	query.Set("events", "div,split")
	query.Set("period1", fmt.Sprint(startDate.Unix()))
	query.Set("period2", fmt.Sprint(endDate.Unix()))
	return c.query(ctx, ticker, query)
}

// query executes one chart request. The method handles rate limiting,
// reading the response, parsing JSON and checking for API errors.
//
// The method sets required headers:
//   - User-Agent: Mimics a browser to avoid API blocking
//   - Accept: Requests JSON response format
//
// A 404 means the ticker is unknown and yields an empty Response.
func (c *FinanceClient) query(ctx context.Context, ticker string, query url.Values) (Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Response{}, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, url.PathEscape(ticker), query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Response{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("ticker", ticker).Dur("elapsed", time.Since(start)).Msg("Yahoo request failed")
		return Response{}, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug().Str("ticker", ticker).Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("Yahoo request")

	if resp.StatusCode == http.StatusNotFound {
		return Response{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Response{}, fmt.Errorf("yahoo error: status %d for %s", resp.StatusCode, ticker)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("failed to read response: %w", err)
	}

	var response Response
	if err := json.Unmarshal(data, &response); err != nil {
		return Response{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if response.Chart.Error != nil {
		return response, fmt.Errorf("yahoo error: %s", response.Chart.Error.Description)
	}

	return response, nil
}
