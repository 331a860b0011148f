package finmind_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/finmind"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

type staticToken struct {
	token string
	err   error
}

func (s staticToken) Token(context.Context) (string, error) { return s.token, s.err }

func newServer(t *testing.T, body string, seen func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			seen(r)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const dividendBody = `{"msg":"success","status":200,"data":[
  {"date":"2023-03-01","stock_id":"2330","year":"111年","CashEarningsDistribution":2.75,"CashStatutorySurplus":0,"CashExDividendTradingDate":"2023-06-15","CashDividendPaymentDate":"2023-07-13","StockEarningsDistribution":0,"StockStatutorySurplus":0,"StockExDividendTradingDate":""},
  {"date":"2024-03-01","stock_id":"2330","year":"112年","CashEarningsDistribution":1.0,"CashStatutorySurplus":0.5,"CashExDividendTradingDate":"2024-07-10","StockEarningsDistribution":0.3,"StockStatutorySurplus":0,"StockExDividendTradingDate":"2024-07-10"},
  {"date":"2024-09-01","stock_id":"2330","year":"113年","CashEarningsDistribution":1.0,"CashExDividendTradingDate":"2024-10-01","StockEarningsDistribution":0.5,"StockExDividendTradingDate":"2024-11-01"},
  {"date":"2025-01-01","stock_id":"2330","year":"113年","CashEarningsDistribution":0,"StockEarningsDistribution":0}
]}`

// TestClient_FetchDistributionEvents tests TaiwanStockDividend conversion.
//
// WHY: FinMind splits amounts into earnings and surplus parts and may give
// the cash and stock parts different ex-dates. Each ex-date must become its
// own record with the combined amount.
func TestClient_FetchDistributionEvents(t *testing.T) {
	var gotReq *http.Request
	srv := newServer(t, dividendBody, func(r *http.Request) { gotReq = r })
	client := finmind.NewClient(
		finmind.WithBaseURL(srv.URL),
		finmind.WithRateLimit(100),
		finmind.WithTokenSource(staticToken{token: "secret"}),
	)

	records, err := client.FetchDistributionEvents(context.Background(), "2330", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, records, 4)

	assert.Equal(t, "2023-06-15", records[0].ExDividendDate)
	assert.Equal(t, 2.75, records[0].DividendPerShare)
	assert.Equal(t, 2022, records[0].Year)
	assert.Equal(t, "2023-07-13", records[0].PaymentDate)
	assert.Equal(t, model.EventTypeCash, records[0].Type)

	assert.Equal(t, "2024-07-10", records[1].ExDividendDate)
	assert.Equal(t, 1.5, records[1].DividendPerShare)
	assert.Equal(t, 0.3, records[1].StockDividendAmount)
	assert.Equal(t, model.EventTypeBoth, records[1].Type)

	assert.Equal(t, "2024-10-01", records[2].ExDividendDate)
	assert.Equal(t, model.EventTypeCash, records[2].Type)
	assert.Equal(t, "2024-11-01", records[3].ExDividendDate)
	assert.Equal(t, 0.5, records[3].StockDividendAmount)
	assert.Equal(t, model.EventTypeStock, records[3].Type)

	require.NotNil(t, gotReq)
	assert.Equal(t, "TaiwanStockDividend", gotReq.URL.Query().Get("dataset"))
	assert.Equal(t, "2330", gotReq.URL.Query().Get("data_id"))
	assert.Equal(t, "2022-01-01", gotReq.URL.Query().Get("start_date"))
	assert.Equal(t, "Bearer secret", gotReq.Header.Get("Authorization"))
}

// TestClient_FetchDistributionEvents_AnnouncedBeforeSince tests a lot bought
// between a dividend's announcement and its ex-date.
//
// WHY: FinMind applies start_date to the announcement date. The holder is
// still entitled to the distribution, so the query must reach back far
// enough to return the row.
func TestClient_FetchDistributionEvents_AnnouncedBeforeSince(t *testing.T) {
	rows := []map[string]any{
		{"date": "2022-03-01", "stock_id": "2330", "year": "110年", "CashEarningsDistribution": 2.5, "CashExDividendTradingDate": "2022-06-16"},
		{"date": "2023-03-01", "stock_id": "2330", "year": "111年", "CashEarningsDistribution": 2.75, "CashExDividendTradingDate": "2023-06-15"},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := r.URL.Query().Get("start_date")
		data := make([]map[string]any, 0, len(rows))
		for _, row := range rows {
			if row["date"].(string) >= start {
				data = append(data, row)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"msg": "success", "status": 200, "data": data})
	}))
	t.Cleanup(srv.Close)
	client := finmind.NewClient(finmind.WithBaseURL(srv.URL), finmind.WithRateLimit(100))

	records, err := client.FetchDistributionEvents(context.Background(), "2330", time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	exDates := make([]string, 0, len(records))
	for _, r := range records {
		exDates = append(exDates, r.ExDividendDate)
	}
	assert.Contains(t, exDates, "2023-06-15")
}

// TestClient_FetchCurrentPrice tests TaiwanStockPrice parsing.
func TestClient_FetchCurrentPrice(t *testing.T) {
	t.Run("returns latest close", func(t *testing.T) {
		body := `{"msg":"success","status":200,"data":[
		  {"date":"2025-02-26","stock_id":"2330","close":1080.0},
		  {"date":"2025-02-27","stock_id":"2330","close":1095.0}
		]}`
		srv := newServer(t, body, nil)
		client := finmind.NewClient(finmind.WithBaseURL(srv.URL), finmind.WithRateLimit(100))

		price, err := client.FetchCurrentPrice(context.Background(), "2330")

		require.NoError(t, err)
		require.NotNil(t, price)
		assert.Equal(t, 1095.0, price.Price)
		assert.Equal(t, finmind.Source, price.Source)
		assert.Equal(t, time.Date(2025, 2, 27, 0, 0, 0, 0, time.UTC), price.Timestamp)
	})

	t.Run("no rows returns nil price", func(t *testing.T) {
		srv := newServer(t, `{"msg":"success","status":200,"data":[]}`, nil)
		client := finmind.NewClient(finmind.WithBaseURL(srv.URL), finmind.WithRateLimit(100))

		price, err := client.FetchCurrentPrice(context.Background(), "9999")

		require.NoError(t, err)
		assert.Nil(t, price)
	})

	t.Run("quota exceeded is an error", func(t *testing.T) {
		srv := newServer(t, `{"msg":"Requests reach the upper limit.","status":402}`, nil)
		client := finmind.NewClient(finmind.WithBaseURL(srv.URL), finmind.WithRateLimit(100))

		_, err := client.FetchCurrentPrice(context.Background(), "2330")

		assert.ErrorContains(t, err, "upper limit")
	})

	t.Run("token failure falls back to anonymous", func(t *testing.T) {
		var auth string
		srv := newServer(t, `{"msg":"success","status":200,"data":[]}`, func(r *http.Request) { auth = r.Header.Get("Authorization") })
		client := finmind.NewClient(
			finmind.WithBaseURL(srv.URL),
			finmind.WithRateLimit(100),
			finmind.WithTokenSource(staticToken{err: errors.New("locked")}),
		)

		_, err := client.FetchCurrentPrice(context.Background(), "2330")

		require.NoError(t, err)
		assert.Empty(t, auth)
	})
}

// TestConvertDividend tests edge cases of row conversion.
func TestConvertDividend(t *testing.T) {
	t.Run("quarterly year label falls back to ex-date", func(t *testing.T) {
		records := finmind.ConvertDividend("00878", finmind.DividendInput{Year: "113年第3季", CashAmount: 0.55, CashExDate: "2024-08-16"})

		require.Len(t, records, 1)
		assert.Equal(t, 2024, records[0].Year)
	})

	t.Run("empty row yields nothing", func(t *testing.T) {
		assert.Empty(t, finmind.ConvertDividend("2330", finmind.DividendInput{Year: "113年"}))
	})

	t.Run("row without ex-dates falls back to row date", func(t *testing.T) {
		records := finmind.ConvertDividend("2330", finmind.DividendInput{Date: "2024-05-20", Year: "112年", CashAmount: 1, StockAmount: 0.5})

		require.Len(t, records, 1)
		assert.Equal(t, "2024-05-20", records[0].ExDividendDate)
		assert.Equal(t, model.EventTypeBoth, records[0].Type)
		assert.Equal(t, 2023, records[0].Year)
	})

	t.Run("cash part without ex-date takes stock ex-date", func(t *testing.T) {
		records := finmind.ConvertDividend("2330", finmind.DividendInput{Date: "2024-05-20", CashAmount: 1, StockAmount: 0.5, StockExDate: "2024-08-16"})

		require.Len(t, records, 1)
		assert.Equal(t, "2024-08-16", records[0].ExDividendDate)
		assert.Equal(t, 1.0, records[0].DividendPerShare)
		assert.Equal(t, 0.5, records[0].StockDividendAmount)
	})

	t.Run("stock only without cash date", func(t *testing.T) {
		records := finmind.ConvertDividend("2330", finmind.DividendInput{StockAmount: 1, StockExDate: "2024-08-16"})

		require.Len(t, records, 1)
		assert.Equal(t, "2024-08-16", records[0].ExDividendDate)
		assert.Equal(t, model.EventTypeStock, records[0].Type)
	})
}
