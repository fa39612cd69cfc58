package model

// RSIZone classifies an RSI reading against the conventional 70/30 levels.
type RSIZone string

const (
	ZoneOverbought RSIZone = "OVERBOUGHT"
	ZoneOversold   RSIZone = "OVERSOLD"
	ZoneNeutral    RSIZone = "NEUTRAL"
)

// SMAPosition is where the latest close sits relative to its SMA.
type SMAPosition string

const (
	PositionAbove SMAPosition = "ABOVE"
	PositionBelow SMAPosition = "BELOW"
	PositionAt    SMAPosition = "AT"
)

// Assessment summarises the latest analysed row for display.
type Assessment struct {
	LastClose    float64     `json:"last_close"`
	LastSMA      float64     `json:"last_sma"`
	LastRSI      float64     `json:"last_rsi"`
	Zone         RSIZone     `json:"zone"`
	Position     SMAPosition `json:"position"`
	SMADeviation float64     `json:"sma_deviation_pct"`
	PeriodChange float64     `json:"period_change_pct"`
	Commentary   string      `json:"commentary"`
}
