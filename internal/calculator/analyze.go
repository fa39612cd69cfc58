package calculator

import (
	"math"

	"TickerLens/internal/model"
)

// RequiredPoints is the minimum series length Analyze accepts for the given windows.
func RequiredPoints(smaWindow, rsiWindow int) int {
	return max(smaWindow, rsiWindow) + 1
}

// Analyze computes SMA and RSI over bars and drops the warm-up rows where either
// is undefined. bars must be ordered oldest first; it is not modified.
func Analyze(bars []model.OHLCV, smaWindow, rsiWindow int) (*model.AnalysisResult, error) {
	if smaWindow <= 0 || rsiWindow <= 0 {
		return nil, ErrInvalidWindow
	}
	if need := RequiredPoints(smaWindow, rsiWindow); len(bars) < need {
		return nil, &InsufficientDataError{Have: len(bars), Need: need}
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	sma := SMASeries(closes, smaWindow)
	rsi := RSISeries(closes, rsiWindow)

	first := max(smaWindow-1, rsiWindow)
	rows := make([]model.AnalysisRow, 0, len(bars)-first)
	for i := first; i < len(bars); i++ {
		if math.IsNaN(sma[i]) || math.IsNaN(rsi[i]) {
			continue
		}
		b := bars[i]
		rows = append(rows, model.AnalysisRow{
			Time:   b.Time,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
			SMA:    sma[i],
			RSI:    rsi[i],
		})
	}
	if len(rows) == 0 {
		return nil, &InsufficientDataError{Have: len(bars), Need: RequiredPoints(smaWindow, rsiWindow)}
	}

	return &model.AnalysisResult{
		SMAWindow: smaWindow,
		RSIWindow: rsiWindow,
		Offset:    first,
		Rows:      rows,
	}, nil
}
