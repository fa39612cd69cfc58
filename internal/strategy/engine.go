package strategy

import (
	"fmt"
	"math"

	"TickerLens/internal/model"
)

// Conventional RSI reference levels drawn on the RSI chart.
const (
	OverboughtLevel = 70.0
	OversoldLevel   = 30.0
)

// smaTolerance is the relative distance within which a close counts as "at" its SMA.
const smaTolerance = 0.001

// classifyRSI maps an RSI reading to its zone. Both levels are exclusive.
func classifyRSI(rsi float64) model.RSIZone {
	switch {
	case rsi > OverboughtLevel:
		return model.ZoneOverbought
	case rsi < OversoldLevel:
		return model.ZoneOversold
	default:
		return model.ZoneNeutral
	}
}

func classifyPosition(price, sma float64) (model.SMAPosition, float64) {
	if sma == 0 {
		return model.PositionAt, 0
	}
	dev := (price - sma) / sma
	switch {
	case math.Abs(dev) < smaTolerance:
		return model.PositionAt, dev * 100
	case dev > 0:
		return model.PositionAbove, dev * 100
	default:
		return model.PositionBelow, dev * 100
	}
}

// Assess summarises the latest row of an analysis result.
func Assess(res *model.AnalysisResult) *model.Assessment {
	if res == nil || len(res.Rows) == 0 {
		return nil
	}
	last := res.Last()
	first := res.Rows[0]

	zone := classifyRSI(last.RSI)
	pos, dev := classifyPosition(last.Close, last.SMA)

	change := 0.0
	if first.Close != 0 {
		change = (last.Close - first.Close) / first.Close * 100
	}

	return &model.Assessment{
		LastClose:    last.Close,
		LastSMA:      last.SMA,
		LastRSI:      last.RSI,
		Zone:         zone,
		Position:     pos,
		SMADeviation: dev,
		PeriodChange: change,
		Commentary:   commentary(zone, pos, res.SMAWindow),
	}
}

func commentary(zone model.RSIZone, pos model.SMAPosition, smaWindow int) string {
	var rsiText string
	switch zone {
	case model.ZoneOverbought:
		rsiText = fmt.Sprintf("RSI above %.0f (overbought)", OverboughtLevel)
	case model.ZoneOversold:
		rsiText = fmt.Sprintf("RSI below %.0f (oversold)", OversoldLevel)
	default:
		rsiText = "RSI in neutral range"
	}

	var smaText string
	switch pos {
	case model.PositionAbove:
		smaText = fmt.Sprintf("price above %d-day SMA", smaWindow)
	case model.PositionBelow:
		smaText = fmt.Sprintf("price below %d-day SMA", smaWindow)
	default:
		smaText = fmt.Sprintf("price at %d-day SMA", smaWindow)
	}
	return rsiText + ", " + smaText
}
