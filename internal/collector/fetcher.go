package collector

import (
	"context"

	"TickerLens/internal/model"
)

// Fetcher defines the interface for fetching daily market data.
// lookback is a provider-neutral range token: 1mo, 3mo, 6mo, 1y, 2y or 5y.
type Fetcher interface {
	FetchDailySeries(ctx context.Context, symbol, lookback string) (*model.PriceSeries, error)
	Name() string
}
