package calculator

import "math"

// SMASeries computes the simple moving average of prices over the given window.
// The result is aligned with prices; entries before the first full window are NaN.
func SMASeries(prices []float64, window int) []float64 {
	out := make([]float64, len(prices))
	for i := range out {
		if window <= 0 || i < window-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = mean(prices[i-window+1 : i+1])
	}
	return out
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
