package calculator

import (
	"errors"
	"fmt"

	"TickerLens/internal/model"
)

// Analysis horizon bounds accepted from the user.
const (
	MinDaysToAnalyze = 30
	MaxDaysToAnalyze = 180
	DaysStep         = 15
)

// ErrDaysOutOfRange is returned when the analysis horizon is outside [30,180].
var ErrDaysOutOfRange = errors.New("days to analyze out of range")

// ComputeWindows derives the SMA and RSI window lengths from the analysis horizon.
// Shorter horizons yield shorter, more responsive windows.
func ComputeWindows(daysToAnalyze int) (smaWindow, rsiWindow int) {
	return max(5, daysToAnalyze/5), max(7, daysToAnalyze/10)
}

// NewAnalysisConfig validates the horizon and returns the config with derived windows.
func NewAnalysisConfig(daysToAnalyze int) (model.AnalysisConfig, error) {
	if daysToAnalyze < MinDaysToAnalyze || daysToAnalyze > MaxDaysToAnalyze {
		return model.AnalysisConfig{}, fmt.Errorf("%w: %d not in [%d,%d]",
			ErrDaysOutOfRange, daysToAnalyze, MinDaysToAnalyze, MaxDaysToAnalyze)
	}
	sma, rsi := ComputeWindows(daysToAnalyze)
	return model.AnalysisConfig{DaysToAnalyze: daysToAnalyze, SMAWindow: sma, RSIWindow: rsi}, nil
}
