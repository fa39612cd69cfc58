package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"TickerLens/internal/logger"
	"TickerLens/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooOptions configures a YahooFetcher. Zero values fall back to defaults.
type YahooOptions struct {
	BaseURL        string
	Proxy          string
	Timeout        time.Duration
	RequestsPerSec int
}

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	BaseURL   string
	SymbolMap map[string]string // maps user-facing symbol to Yahoo ticker
	http      *httpClient
	logger    zerolog.Logger
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(opts YahooOptions) *YahooFetcher {
	base := opts.BaseURL
	if base == "" {
		base = yahooBaseURL
	}
	return &YahooFetcher{
		BaseURL: strings.TrimRight(base, "/"),
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
		http:   newHTTPClient(opts.Proxy, opts.Timeout, opts.RequestsPerSec),
		logger: logger.Component("yahoo"),
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
// Missing quotes are JSON nulls, hence the pointers.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol               string `json:"symbol"`
				ShortName            string `json:"shortName"`
				LongName             string `json:"longName"`
				Currency             string `json:"currency"`
				GMTOffset            int    `json:"gmtoffset"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func at(values []*float64, i int) (float64, bool) {
	if i >= len(values) || values[i] == nil {
		return 0, false
	}
	return *values[i], true
}

// FetchDailySeries returns daily bars for symbol over the lookback range, oldest first.
func (f *YahooFetcher) FetchDailySeries(ctx context.Context, symbol, lookback string) (*model.PriceSeries, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), url.QueryEscape(lookback))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	f.logger.Debug().Str("symbol", symbol).Str("range", lookback).Msg("fetching chart")
	resp, err := f.http.do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}

	var chart yahooChart
	decodeErr := json.Unmarshal(body, &chart)

	if resp.StatusCode == http.StatusNotFound {
		reason := "symbol not found"
		if decodeErr == nil && chart.Chart.Error != nil {
			reason = chart.Chart.Error.Description
		}
		return nil, &EmptySeriesError{Symbol: symbol, Provider: f.Name(), Reason: reason}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, truncate(body, 256))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("yahoo decode: %w", decodeErr)
	}
	if chart.Chart.Error != nil {
		if strings.EqualFold(chart.Chart.Error.Code, "Not Found") {
			return nil, &EmptySeriesError{Symbol: symbol, Provider: f.Name(), Reason: chart.Chart.Error.Description}
		}
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, &EmptySeriesError{Symbol: symbol, Provider: f.Name()}
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	loc := exchangeLocation(result.Meta.ExchangeTimezoneName, result.Meta.GMTOffset)
	bars := make([]model.OHLCV, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		c, ok := at(quote.Close, i)
		if !ok {
			continue // null bar (holiday or halted session)
		}
		o, _ := at(quote.Open, i)
		h, _ := at(quote.High, i)
		l, _ := at(quote.Low, i)
		v, _ := at(quote.Volume, i)
		bars = append(bars, model.OHLCV{
			Time:   sessionDate(ts, loc),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: v,
		})
	}
	if len(bars) == 0 {
		return nil, &EmptySeriesError{Symbol: symbol, Provider: f.Name()}
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	name := result.Meta.ShortName
	if name == "" {
		name = result.Meta.LongName
	}
	if name == "" {
		name = symbol
	}

	return &model.PriceSeries{
		Symbol:      symbol,
		CompanyName: name,
		Currency:    result.Meta.Currency,
		Bars:        dedupeByDay(bars),
		FetchedAt:   time.Now().UTC(),
	}, nil
}

// exchangeLocation prefers the named exchange zone and falls back to the fixed
// offset Yahoo reports when the zone database is unavailable.
func exchangeLocation(name string, gmtOffset int) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.FixedZone(name, gmtOffset)
}

// sessionDate maps a bar timestamp to midnight UTC of its exchange-local
// trading day, the same form other providers report dates in.
func sessionDate(ts int64, loc *time.Location) time.Time {
	y, m, d := time.Unix(ts, 0).In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dedupeByDay keeps the last bar of each trading day. Yahoo sometimes appends
// the live session as an extra bar sharing the day of the last daily bar.
func dedupeByDay(bars []model.OHLCV) []model.OHLCV {
	out := bars[:0:0]
	for _, b := range bars {
		if n := len(out); n > 0 && sameDay(out[n-1].Time, b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
