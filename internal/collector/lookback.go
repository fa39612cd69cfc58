package collector

import "fmt"

// LookbackAuto selects the smallest range that covers the requested day count.
const LookbackAuto = "auto"

var validLookbacks = map[string]int{
	"1mo": 21,
	"3mo": 63,
	"6mo": 126,
	"1y":  252,
	"2y":  504,
	"5y":  1260,
}

// tradingDays is the approximate number of daily bars in a lookback range.
func tradingDays(lookback string) int {
	if n, ok := validLookbacks[lookback]; ok {
		return n
	}
	return 126
}

var lookbackOrder = []string{"1mo", "3mo", "6mo", "1y", "2y", "5y"}

// LookbackForDays returns the smallest lookback range expected to hold days
// trading sessions, keeping a tenth of the range spare for holidays.
func LookbackForDays(days int) string {
	for _, lb := range lookbackOrder {
		n := validLookbacks[lb]
		if days <= n-n/10 {
			return lb
		}
	}
	return "5y"
}

// ValidateLookback accepts "auto" or one of the supported range tokens.
func ValidateLookback(lookback string) error {
	if lookback == LookbackAuto {
		return nil
	}
	if _, ok := validLookbacks[lookback]; !ok {
		return fmt.Errorf("unsupported lookback %q", lookback)
	}
	return nil
}
