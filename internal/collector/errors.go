package collector

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySeries matches any *EmptySeriesError via errors.Is.
	ErrEmptySeries = errors.New("no data found")
	// ErrInvalidSymbol is returned for a blank symbol.
	ErrInvalidSymbol = errors.New("symbol is required")
)

// EmptySeriesError reports that the provider returned no bars for a symbol,
// either because the symbol is unknown or the provider had nothing to give.
type EmptySeriesError struct {
	Symbol   string
	Provider string
	Reason   string
}

func (e *EmptySeriesError) Error() string {
	msg := fmt.Sprintf("no data found for %s from %s", e.Symbol, e.Provider)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *EmptySeriesError) Is(target error) bool {
	return target == ErrEmptySeries
}
