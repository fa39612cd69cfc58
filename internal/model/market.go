package model

import "time"

// OHLCV represents a single daily bar.
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries holds the fetched daily bars for one symbol, oldest first.
type PriceSeries struct {
	Symbol      string    `json:"symbol"`
	CompanyName string    `json:"company_name"`
	Currency    string    `json:"currency,omitempty"`
	Bars        []OHLCV   `json:"bars"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Closes returns the closing prices in bar order.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Tail returns a copy of the series holding only the last n bars.
func (s *PriceSeries) Tail(n int) *PriceSeries {
	out := *s
	if n >= 0 && len(s.Bars) > n {
		out.Bars = s.Bars[len(s.Bars)-n:]
	}
	return &out
}
