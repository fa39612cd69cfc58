package calculator

import "math"

// RSISeries computes the relative strength index over the given window using
// simple averages of gains and losses (no Wilder smoothing).
// The result is aligned with closes; index i is defined once i >= window.
// A window with no losses reads exactly 100.
func RSISeries(closes []float64, window int) []float64 {
	out := make([]float64, len(closes))
	if window <= 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	for i := range out {
		if i < window {
			out[i] = math.NaN()
			continue
		}
		avgGain := mean(gains[i-window+1 : i+1])
		avgLoss := mean(losses[i-window+1 : i+1])
		out[i] = rsiFromAverages(avgGain, avgLoss)
	}
	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
