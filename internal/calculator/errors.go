package calculator

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData matches any *InsufficientDataError via errors.Is.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvalidWindow is returned for non-positive window lengths.
	ErrInvalidWindow = errors.New("window must be positive")
)

// InsufficientDataError reports a series too short for the requested windows.
type InsufficientDataError struct {
	Have int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: have %d points, need at least %d", e.Have, e.Need)
}

func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}
