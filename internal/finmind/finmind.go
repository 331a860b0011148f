// Package finmind provides a client for the FinMind open data API, the
// primary source of Taiwan stock prices and dividend distributions.
package finmind

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

const (
	DefaultBaseURL   = "https://api.finmindtrade.com/api/v4/data"
	DefaultRateLimit = 1 // requests per second

	// Source identifies FinMind in prices and logs.
	Source = "FinMind"

	datasetDividend = "TaiwanStockDividend"
	datasetPrice    = "TaiwanStockPrice"

	// rocYearOffset converts Republic of China calendar years.
	rocYearOffset = 1911

	// announcementLookback widens the dividend query. FinMind filters
	// start_date on the announcement date, which precedes the ex-date.
	announcementLookback = 1 // years
)

// TokenSource supplies the API token. An empty token uses the anonymous quota.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client implements the distribution and price providers on top of the
// FinMind v4 data endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	tokens     TokenSource
	log        zerolog.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the data endpoint URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRateLimit sets the number of requests per second
func WithRateLimit(requestsPerSecond float64) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
}

// WithTokenSource sets where the API token comes from
func WithTokenSource(tokens TokenSource) ClientOption {
	return func(c *Client) {
		c.tokens = tokens
	}
}

// WithLogger sets the logger
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log.With().Str("component", "finmind").Logger()
	}
}

// NewClient creates a new FinMind client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
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
func (c *Client) Name() string {
	return Source
}

// response is the envelope of every FinMind dataset.
type response struct {
	Msg    string          `json:"msg"`
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// dividendRow is one row of the TaiwanStockDividend dataset. Amounts are NT$
// per share; stock dividends are quoted at par value 10.
type dividendRow struct {
	Date                       string  `json:"date"`
	StockID                    string  `json:"stock_id"`
	Year                       string  `json:"year"`
	StockEarningsDistribution  float64 `json:"StockEarningsDistribution"`
	StockStatutorySurplus      float64 `json:"StockStatutorySurplus"`
	StockExDividendTradingDate string  `json:"StockExDividendTradingDate"`
	CashEarningsDistribution   float64 `json:"CashEarningsDistribution"`
	CashStatutorySurplus       float64 `json:"CashStatutorySurplus"`
	CashExDividendTradingDate  string  `json:"CashExDividendTradingDate"`
	CashDividendPaymentDate    string  `json:"CashDividendPaymentDate"`
}

// priceRow is one row of the TaiwanStockPrice dataset.
type priceRow struct {
	Date    string  `json:"date"`
	StockID string  `json:"stock_id"`
	Open    float64 `json:"open"`
	Max     float64 `json:"max"`
	Min     float64 `json:"min"`
	Close   float64 `json:"close"`
}

// FetchDistributionEvents returns the dividend rows of symbol that may go ex
// on or after since. Rows announced up to a year before since are included,
// so records ex-dated before since can appear and are left to the caller to
// filter. A row whose cash and stock parts go ex on different days is split
// into two records.
func (c *Client) FetchDistributionEvents(ctx context.Context, symbol string, since time.Time) ([]model.RawDistributionRecord, error) {
	var rows []dividendRow
	if err := c.fetch(ctx, datasetDividend, symbol, since.AddDate(-announcementLookback, 0, 0), &rows); err != nil {
		return nil, err
	}

	records := make([]model.RawDistributionRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, ConvertDividend(symbol, row.toRecordInput())...)
	}
	return records, nil
}

// FetchCurrentPrice returns the latest close of symbol over the last ten days.
func (c *Client) FetchCurrentPrice(ctx context.Context, symbol string) (*model.Price, error) {
	var rows []priceRow
	if err := c.fetch(ctx, datasetPrice, symbol, time.Now().AddDate(0, 0, -10), &rows); err != nil {
		return nil, err
	}

	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Close <= 0 {
			continue
		}
		ts, err := time.Parse("2006-01-02", rows[i].Date)
		if err != nil {
			ts = time.Now().UTC()
		}
		return &model.Price{
			Symbol:    symbol,
			Price:     rows[i].Close,
			Source:    Source,
			Timestamp: ts,
		}, nil
	}
	return nil, nil
}

// DividendInput is the provider-neutral content of one dividend row.
type DividendInput struct {
	// Date is the announcement date, used when neither part has an ex-date.
	Date        string
	Year        string
	CashAmount  float64
	StockAmount float64
	CashExDate  string
	StockExDate string
	CashPayDate string
}

func (r dividendRow) toRecordInput() DividendInput {
	return DividendInput{
		Date:        r.Date,
		Year:        r.Year,
		CashAmount:  r.CashEarningsDistribution + r.CashStatutorySurplus,
		StockAmount: r.StockEarningsDistribution + r.StockStatutorySurplus,
		CashExDate:  r.CashExDividendTradingDate,
		StockExDate: r.StockExDividendTradingDate,
		CashPayDate: r.CashDividendPaymentDate,
	}
}

// ConvertDividend maps one dividend row to raw records. Rows without any
// distribution yield nothing. The stock part is passed as an NT$ amount and
// converted to per mille by the normalizer.
//
// A part without its own ex-date takes the other part's, then the row date.
func ConvertDividend(symbol string, in DividendInput) []model.RawDistributionRecord {
	if in.CashAmount <= 0 && in.StockAmount <= 0 {
		return nil
	}

	fallback := cmp.Or(in.CashExDate, in.StockExDate, in.Date)
	cashDate := cmp.Or(in.CashExDate, fallback)
	stockDate := cmp.Or(in.StockExDate, fallback)

	year := parseYear(in.Year, in.CashExDate, in.StockExDate, in.Date)
	cash := model.RawDistributionRecord{
		Symbol:           symbol,
		ExDividendDate:   cashDate,
		DividendPerShare: in.CashAmount,
		Year:             year,
		Type:             model.EventTypeCash,
		PaymentDate:      in.CashPayDate,
	}
	stock := model.RawDistributionRecord{
		Symbol:              symbol,
		ExDividendDate:      stockDate,
		StockDividendAmount: in.StockAmount,
		Year:                year,
		Type:                model.EventTypeStock,
	}

	switch {
	case in.StockAmount <= 0:
		return []model.RawDistributionRecord{cash}
	case in.CashAmount <= 0:
		return []model.RawDistributionRecord{stock}
	case cashDate == stockDate:
		both := cash
		both.StockDividendAmount = in.StockAmount
		both.Type = model.EventTypeBoth
		return []model.RawDistributionRecord{both}
	default:
		return []model.RawDistributionRecord{cash, stock}
	}
}

// parseYear reads FinMind's "113年" style ROC year, falling back to the
// year of the first usable ex-date.
func parseYear(roc string, dates ...string) int {
	digits := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(roc), "年"))
	if n, err := strconv.Atoi(digits); err == nil && n > 0 {
		if n < rocYearOffset {
			return n + rocYearOffset
		}
		return n
	}
	for _, d := range dates {
		if t, err := time.Parse("2006-01-02", d); err == nil {
			return t.Year()
		}
	}
	return 0
}

// fetch queries one dataset and decodes its rows into out.
func (c *Client) fetch(ctx context.Context, dataset, symbol string, since time.Time, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	query := url.Values{}
	query.Set("dataset", dataset)
	query.Set("data_id", symbol)
	query.Set("start_date", since.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			c.log.Warn().Err(err).Msg("FinMind token unavailable, using anonymous quota")
		} else if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("dataset", dataset).Str("symbol", symbol).Dur("elapsed", time.Since(start)).Msg("FinMind request failed")
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug().Str("dataset", dataset).Str("symbol", symbol).Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("FinMind request")

	var env response
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || env.Status != http.StatusOK {
		return fmt.Errorf("finmind error: status %d: %s", env.Status, env.Msg)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode %s rows: %w", dataset, err)
	}
	return nil
}
