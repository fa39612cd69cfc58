package collector

import (
	"context"
	"sync"
	"time"

	"TickerLens/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price       float64
	DailyData   []model.OHLCV
	CompanyName string
	Err         error
	// Empty makes every fetch report an unknown symbol.
	Empty bool

	mu    sync.Mutex
	calls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailySeries(_ context.Context, symbol, lookback string) (*model.PriceSeries, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if m.Empty {
		return nil, &EmptySeriesError{Symbol: symbol, Provider: m.Name()}
	}
	bars := m.DailyData
	if bars == nil {
		bars = generateMockBars(m.Price, tradingDays(lookback))
	}
	name := m.CompanyName
	if name == "" {
		name = symbol
	}
	return &model.PriceSeries{
		Symbol:      symbol,
		CompanyName: name,
		Currency:    "USD",
		Bars:        bars,
		FetchedAt:   time.Now().UTC(),
	}, nil
}

// Calls returns how many fetches were made.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func generateMockBars(basePrice float64, count int) []model.OHLCV {
	if basePrice == 0 {
		basePrice = 100
	}
	start := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -count)
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		// gentle drift with a weekly wobble so both gains and losses occur
		p := basePrice * (1 + float64(i-count/2)*0.001 + float64(i%5-2)*0.004)
		bars[i] = model.OHLCV{
			Time:   start.AddDate(0, 0, i),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
