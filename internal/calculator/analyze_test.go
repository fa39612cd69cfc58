package calculator

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TickerLens/internal/model"
)

var fixtureCloses = []float64{10, 11, 12, 11, 13, 14, 13, 15, 16, 15}

func barsFromCloses(closes []float64) []model.OHLCV {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{
			Time:   start.AddDate(0, 0, i),
			Open:   c - 0.5,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: float64(1000 * (i + 1)),
		}
	}
	return bars
}

func TestSMASeries_Fixture(t *testing.T) {
	sma := SMASeries(fixtureCloses, 3)
	require.Len(t, sma, len(fixtureCloses))

	assert.True(t, math.IsNaN(sma[0]))
	assert.True(t, math.IsNaN(sma[1]))

	want := []float64{11, 34.0 / 3, 12, 38.0 / 3, 40.0 / 3, 14, 44.0 / 3, 46.0 / 3}
	for i, w := range want {
		assert.InDelta(t, w, sma[i+2], 1e-9, "sma[%d]", i+2)
	}
}

func TestRSISeries_Fixture(t *testing.T) {
	rsi := RSISeries(fixtureCloses, 3)
	for i := 0; i < 3; i++ {
		assert.True(t, math.IsNaN(rsi[i]), "rsi[%d] should be undefined", i)
	}
	// index 3: gains {1,1,0}, losses {0,0,1} -> RS=2
	assert.InDelta(t, 200.0/3, rsi[3], 1e-9)
	for i := 4; i < len(fixtureCloses); i++ {
		assert.InDelta(t, 75.0, rsi[i], 1e-9, "rsi[%d]", i)
	}

	rsi7 := RSISeries(fixtureCloses, 7)
	assert.True(t, math.IsNaN(rsi7[6]))
	assert.InDelta(t, 100-100/4.5, rsi7[7], 1e-9)
	assert.InDelta(t, 100-100/4.5, rsi7[8], 1e-9)
	assert.InDelta(t, 200.0/3, rsi7[9], 1e-9)
}

func TestRSISeries_NoLosses(t *testing.T) {
	rising := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}
	rsi := RSISeries(rising, 7)
	assert.Equal(t, 100.0, rsi[7])
	assert.Equal(t, 100.0, rsi[8])

	flat := []float64{5, 5, 5, 5, 5, 5, 5, 5, 5}
	rsi = RSISeries(flat, 7)
	assert.Equal(t, 100.0, rsi[8])
	assert.False(t, math.IsNaN(rsi[8]))
}

func TestRSISeries_NoGains(t *testing.T) {
	falling := []float64{9, 8, 7, 6, 5, 4, 3, 2, 1}
	rsi := RSISeries(falling, 7)
	assert.Equal(t, 0.0, rsi[7])
}

func TestAnalyze_Fixture(t *testing.T) {
	bars := barsFromCloses(fixtureCloses)
	res, err := Analyze(bars, 3, 3)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Offset)
	require.Len(t, res.Rows, len(bars)-3)

	first := res.Rows[0]
	assert.Equal(t, bars[3].Time, first.Time)
	assert.Equal(t, 11.0, first.Close)
	assert.InDelta(t, 34.0/3, first.SMA, 1e-9)
	assert.InDelta(t, 200.0/3, first.RSI, 1e-9)

	last := res.Last()
	assert.Equal(t, bars[9].Time, last.Time)
	assert.Equal(t, 15.0, last.Close)
	assert.InDelta(t, (15.0+16+15)/3, last.SMA, 1e-9)
	assert.InDelta(t, 75.0, last.RSI, 1e-9)
	assert.Equal(t, bars[9].Volume, last.Volume)
}

func TestAnalyze_SMAWindowDominates(t *testing.T) {
	bars := barsFromCloses(fixtureCloses)
	res, err := Analyze(bars, 6, 3)
	require.NoError(t, err)

	assert.Equal(t, 5, res.Offset)
	assert.Len(t, res.Rows, len(bars)-5)
	// last SMA equals the mean of the last six closes
	assert.InDelta(t, (14.0+13+15+16+15+13)/6, res.Last().SMA, 1e-9)
}

func TestAnalyze_RowsAreComplete(t *testing.T) {
	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 100 + 10*math.Sin(float64(i)/5) + float64(i%7)
	}
	bars := barsFromCloses(closes)
	sma, rsi := ComputeWindows(120)

	res, err := Analyze(bars, sma, rsi)
	require.NoError(t, err)
	assert.Len(t, res.Rows, len(bars)-max(sma-1, rsi))

	for i, row := range res.Rows {
		assert.False(t, math.IsNaN(row.SMA), "row %d sma", i)
		assert.False(t, math.IsNaN(row.RSI), "row %d rsi", i)
		assert.GreaterOrEqual(t, row.RSI, 0.0)
		assert.LessOrEqual(t, row.RSI, 100.0)
		if i > 0 {
			assert.True(t, row.Time.After(res.Rows[i-1].Time))
		}
	}

	var sum float64
	for _, c := range closes[len(closes)-sma:] {
		sum += c
	}
	assert.InDelta(t, sum/float64(sma), res.Last().SMA, 1e-9)
}

func TestAnalyze_Idempotent(t *testing.T) {
	bars := barsFromCloses(fixtureCloses)
	a, err := Analyze(bars, 3, 7)
	require.NoError(t, err)
	b, err := Analyze(bars, 3, 7)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, fixtureCloses[0], bars[0].Close, "input must not be modified")
}

func TestAnalyze_InsufficientData(t *testing.T) {
	// need = max(5,7)+1 = 8
	_, err := Analyze(barsFromCloses(fixtureCloses[:7]), 5, 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientData))

	var ide *InsufficientDataError
	require.True(t, errors.As(err, &ide))
	assert.Equal(t, 7, ide.Have)
	assert.Equal(t, 8, ide.Need)

	res, err := Analyze(barsFromCloses(fixtureCloses[:8]), 5, 7)
	require.NoError(t, err)
	assert.Len(t, res.Rows, 1)
}

func TestAnalyze_EmptyAndInvalid(t *testing.T) {
	_, err := Analyze(nil, 5, 7)
	assert.True(t, errors.Is(err, ErrInsufficientData))

	_, err = Analyze(barsFromCloses(fixtureCloses), 0, 7)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}
