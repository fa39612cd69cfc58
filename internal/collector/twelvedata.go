package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"TickerLens/internal/logger"
	"TickerLens/internal/model"
)

const twelveDataBaseURL = "https://api.twelvedata.com"

// TwelveDataOptions configures a TwelveDataFetcher.
type TwelveDataOptions struct {
	BaseURL        string
	APIKey         string
	Proxy          string
	Timeout        time.Duration
	RequestsPerSec int
}

// TwelveDataFetcher implements Fetcher using the Twelve Data time_series API.
type TwelveDataFetcher struct {
	BaseURL string
	APIKey  string
	http    *httpClient
	logger  zerolog.Logger
}

// NewTwelveDataFetcher creates a new fetcher with optional proxy support.
func NewTwelveDataFetcher(opts TwelveDataOptions) *TwelveDataFetcher {
	base := opts.BaseURL
	if base == "" {
		base = twelveDataBaseURL
	}
	return &TwelveDataFetcher{
		BaseURL: strings.TrimRight(base, "/"),
		APIKey:  opts.APIKey,
		http:    newHTTPClient(opts.Proxy, opts.Timeout, opts.RequestsPerSec),
		logger:  logger.Component("twelvedata"),
	}
}

func (f *TwelveDataFetcher) Name() string { return "twelvedata" }

// tdSeries is the JSON shape of a time_series response. Numbers arrive as strings.
type tdSeries struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Currency string `json:"currency"`
		Exchange string `json:"exchange"`
	} `json:"meta"`
	Values []struct {
		Datetime string `json:"datetime"`
		Open     string `json:"open"`
		High     string `json:"high"`
		Low      string `json:"low"`
		Close    string `json:"close"`
		Volume   string `json:"volume"`
	} `json:"values"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// outputSize converts a lookback token into a bar count.
func outputSize(lookback string) int {
	switch lookback {
	case "1mo":
		return 23
	case "3mo":
		return 66
	case "6mo":
		return 130
	case "1y":
		return 260
	case "2y":
		return 520
	default:
		return 1300
	}
}

func (f *TwelveDataFetcher) FetchDailySeries(ctx context.Context, symbol, lookback string) (*model.PriceSeries, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", "1day")
	q.Set("outputsize", strconv.Itoa(outputSize(lookback)))
	q.Set("apikey", f.APIKey)
	endpoint := f.BaseURL + "/time_series?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	f.logger.Debug().Str("symbol", symbol).Str("range", lookback).Msg("fetching time series")
	resp, err := f.http.do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("twelvedata fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("twelvedata read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("twelvedata: status %d, body: %s", resp.StatusCode, truncate(body, 256))
	}

	var data tdSeries
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("twelvedata decode: %w", err)
	}
	if data.Status == "error" {
		if data.Code == http.StatusNotFound ||
			(data.Code == http.StatusBadRequest && strings.Contains(strings.ToLower(data.Message), "not found")) {
			return nil, &EmptySeriesError{Symbol: symbol, Provider: f.Name(), Reason: data.Message}
		}
		f.logger.Error().Int("code", data.Code).Str("message", data.Message).Msg("twelvedata api error")
		return nil, fmt.Errorf("twelvedata api error %d: %s", data.Code, data.Message)
	}

	bars := make([]model.OHLCV, 0, len(data.Values))
	for _, v := range data.Values {
		t, err := time.Parse("2006-01-02", v.Datetime)
		if err != nil {
			return nil, fmt.Errorf("twelvedata datetime %q: %w", v.Datetime, err)
		}
		c, err := strconv.ParseFloat(v.Close, 64)
		if err != nil {
			continue
		}
		bars = append(bars, model.OHLCV{
			Time:   t,
			Open:   parseOr(v.Open, c),
			High:   parseOr(v.High, c),
			Low:    parseOr(v.Low, c),
			Close:  c,
			Volume: parseOr(v.Volume, 0),
		})
	}
	if len(bars) == 0 {
		return nil, &EmptySeriesError{Symbol: symbol, Provider: f.Name()}
	}

	// Twelve Data returns newest first.
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	return &model.PriceSeries{
		Symbol:      symbol,
		CompanyName: symbol,
		Currency:    data.Meta.Currency,
		Bars:        bars,
		FetchedAt:   time.Now().UTC(),
	}, nil
}

func parseOr(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}
