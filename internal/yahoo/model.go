package yahoo

import "time"

// Response represents the raw JSON response structure from Yahoo Finance API.
// This type maps directly to the Yahoo Finance chart API response format,
// containing nested structures for metadata, timestamps, price indicators
// and, when requested with events=div,split, corporate actions.
//
// The structure includes:
//   - Chart.Result: Array of result objects (typically contains one element)
//   - Chart.Result[].Meta: Symbol metadata (name, currency, last price)
//   - Chart.Result[].Timestamp: Unix timestamps for each data point
//   - Chart.Result[].Indicators: Close price arrays
//   - Chart.Result[].Events: Dividends and splits keyed by Unix timestamp
//   - Chart.Error: Optional error message from Yahoo API
type Response struct {
	Chart struct {
		Result []Result `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Result is one symbol's chart data.
type Result struct {
	Meta struct {
		Currency           string  `json:"currency"`
		Symbol             string  `json:"symbol"`
		ExchangeName       string  `json:"exchangeName"`
		LongName           string  `json:"longName"`
		ShortName          string  `json:"shortName"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
		RegularMarketTime  int64   `json:"regularMarketTime"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
	Events struct {
		Dividends map[string]DividendEvent `json:"dividends"`
		Splits    map[string]SplitEvent    `json:"splits"`
	} `json:"events"`
}

// DividendEvent is a cash dividend as reported by the chart API.
type DividendEvent struct {
	Amount float64 `json:"amount"`
	Date   int64   `json:"date"`
}

// SplitEvent is a stock split as reported by the chart API. A Taiwan stock
// dividend shows up as a split, e.g. 1030:1000 for 30‰.
type SplitEvent struct {
	Date        int64   `json:"date"`
	Numerator   float64 `json:"numerator"`
	Denominator float64 `json:"denominator"`
	SplitRatio  string  `json:"splitRatio"`
}

// Quote is the latest price parsed from a chart response.
type Quote struct {
	Symbol string
	Name   string
	Price  float64
	Time   time.Time
}
