package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"TickerLens/internal/cache"
	"TickerLens/internal/logger"
	"TickerLens/internal/metrics"
	"TickerLens/internal/model"
)

// Collector fetches price series through a Fetcher and caches them by symbol.
type Collector struct {
	Fetcher  Fetcher
	Cache    cache.BytesCache
	CacheTTL time.Duration
	Lookback string
	Metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// Option configures a Collector.
type Option func(*Collector)

// WithCache stores fetched series in c for ttl. A zero ttl keeps entries until
// the cache evicts them.
func WithCache(c cache.BytesCache, ttl time.Duration) Option {
	return func(col *Collector) {
		col.Cache = c
		col.CacheTTL = ttl
	}
}

// WithLookback pins the provider range token (for example "6mo"). "auto" or
// an empty string sizes it from the requested day count.
func WithLookback(lookback string) Option {
	return func(col *Collector) { col.Lookback = lookback }
}

// WithMetrics records fetch outcomes and cache lookups on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(col *Collector) { col.Metrics = m }
}

// NewCollector creates a new Collector. Without options it does not cache and
// picks the lookback range from the requested day count.
func NewCollector(fetcher Fetcher, opts ...Option) *Collector {
	c := &Collector{
		Fetcher:  fetcher,
		Cache:    cache.NopCache{},
		Lookback: LookbackAuto,
		logger:   logger.Component("collector"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NormalizeSymbol trims and upper-cases a user-entered symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Collect returns the last days daily bars for symbol. An unknown symbol or an
// empty provider response yields an *EmptySeriesError.
func (c *Collector) Collect(ctx context.Context, symbol string, days int) (*model.PriceSeries, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}

	lookback := c.Lookback
	if lookback == "" || lookback == LookbackAuto {
		lookback = LookbackForDays(days)
	}
	key := fmt.Sprintf("series:%s:%s:%s", c.Fetcher.Name(), symbol, lookback)

	series, ok := c.fromCache(ctx, key)
	if !ok {
		var err error
		series, err = c.fetch(ctx, symbol, lookback)
		if err != nil {
			return nil, err
		}
		c.toCache(ctx, key, series)
	}

	out := series.Tail(days)
	if len(out.Bars) == 0 {
		return nil, &EmptySeriesError{Symbol: symbol, Provider: c.Fetcher.Name()}
	}
	return out, nil
}

func (c *Collector) fetch(ctx context.Context, symbol, lookback string) (*model.PriceSeries, error) {
	start := time.Now()
	series, err := c.Fetcher.FetchDailySeries(ctx, symbol, lookback)
	elapsed := time.Since(start)

	switch {
	case errors.Is(err, ErrEmptySeries):
		c.Metrics.ObserveFetch(c.Fetcher.Name(), "empty", elapsed)
		c.logger.Warn().Str("symbol", symbol).Err(err).Msg("no data for symbol")
		return nil, err
	case err != nil:
		c.Metrics.ObserveFetch(c.Fetcher.Name(), "error", elapsed)
		c.logger.Error().Str("symbol", symbol).Err(err).Msg("fetch failed")
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	case series == nil || len(series.Bars) == 0:
		c.Metrics.ObserveFetch(c.Fetcher.Name(), "empty", elapsed)
		return nil, &EmptySeriesError{Symbol: symbol, Provider: c.Fetcher.Name()}
	}

	c.Metrics.ObserveFetch(c.Fetcher.Name(), "ok", elapsed)
	c.logger.Info().
		Str("symbol", symbol).
		Str("range", lookback).
		Int("bars", len(series.Bars)).
		Dur("elapsed", elapsed).
		Msg("fetched daily series")
	return series, nil
}

func (c *Collector) fromCache(ctx context.Context, key string) (*model.PriceSeries, bool) {
	b, ok, err := c.Cache.GetBytes(ctx, key)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return nil, false
	}
	c.Metrics.CacheLookup(ok)
	if !ok {
		return nil, false
	}
	var series model.PriceSeries
	if err := json.Unmarshal(b, &series); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache entry corrupt")
		return nil, false
	}
	return &series, true
}

func (c *Collector) toCache(ctx context.Context, key string, series *model.PriceSeries) {
	b, err := json.Marshal(series)
	if err != nil {
		c.logger.Warn().Err(err).Msg("cache encode failed")
		return
	}
	if err := c.Cache.SetBytes(ctx, key, b, c.CacheTTL); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}
