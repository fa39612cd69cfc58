package model

import "time"

// AnalysisConfig is the per-request analysis horizon and its derived windows.
type AnalysisConfig struct {
	DaysToAnalyze int `json:"days_to_analyze"`
	SMAWindow     int `json:"sma_window"`
	RSIWindow     int `json:"rsi_window"`
}

// AnalysisRow is one trading day with both indicators defined.
type AnalysisRow struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
	SMA    float64   `json:"sma"`
	RSI    float64   `json:"rsi"`
}

// AnalysisResult is the trimmed, aligned output of the analytics engine.
type AnalysisResult struct {
	SMAWindow int           `json:"sma_window"`
	RSIWindow int           `json:"rsi_window"`
	Offset    int           `json:"offset"` // first input index with both indicators defined
	Rows      []AnalysisRow `json:"rows"`
}

// Last returns the most recent row. The result is never empty when produced by the engine.
func (r *AnalysisResult) Last() AnalysisRow {
	return r.Rows[len(r.Rows)-1]
}

// Tail returns at most the last n rows.
func (r *AnalysisResult) Tail(n int) []AnalysisRow {
	if n < 0 || n >= len(r.Rows) {
		return r.Rows
	}
	return r.Rows[len(r.Rows)-n:]
}
